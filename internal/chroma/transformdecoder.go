/*
DESCRIPTION
  transformdecoder.go adapts the internal/chroma/transform tile-FFT filters
  (TransformPal2D, TransformPal3D, TransformNtsc3D) to the chroma.Decoder
  interface, bridging a window of raw fields to transform.FieldSampler and
  demodulating the separated chroma back into U/V against a fixed
  synthesised reference carrier (no burst-phase rotation or FIR filtering).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package chroma

import (
	"math"

	"github.com/ausocean/ldtbc/internal/chroma/transform"
	"github.com/ausocean/ldtbc/internal/component"
	"github.com/ausocean/ldtbc/internal/field"
	"github.com/ausocean/ldtbc/internal/videoparams"
)

// transformDecoder separates chroma from composite using a tile-FFT
// transform.Filter, once per field parity, then demodulates the separated
// chroma against a synthesised reference carrier to obtain U/V and
// subtracts it from composite to obtain Y.
type transformDecoder struct {
	vp         videoparams.Parameters
	filter     *transform.Filter
	lookBehind int
	lookAhead  int

	sine, cosine []float64
}

func newReferenceCarrier(vp videoparams.Parameters) (sine, cosine []float64) {
	n := vp.FieldWidth
	sine = make([]float64, n)
	cosine = make([]float64, n)
	w := 2 * math.Pi * vp.FSC / vp.SampleRate
	for x := 0; x < n; x++ {
		sine[x] = math.Sin(w * float64(x))
		cosine[x] = math.Cos(w * float64(x))
	}
	return sine, cosine
}

func newTransform2D(vp videoparams.Parameters, mode transform.Mode, threshold float64, thresholds []float64) (*transformDecoder, error) {
	f, err := transform.NewPal2D(mode, threshold, thresholds)
	if err != nil {
		return nil, err
	}
	sine, cosine := newReferenceCarrier(vp)
	return &transformDecoder{vp: vp, filter: f, sine: sine, cosine: cosine}, nil
}

func newTransform3D(vp videoparams.Parameters, mode transform.Mode, threshold float64, thresholds []float64) (*transformDecoder, error) {
	f, err := transform.NewPal3D(mode, threshold, thresholds)
	if err != nil {
		return nil, err
	}
	sine, cosine := newReferenceCarrier(vp)
	return &transformDecoder{vp: vp, filter: f, sine: sine, cosine: cosine, lookBehind: transform.LookBehind3D, lookAhead: transform.LookAhead3D}, nil
}

func newTransformNtsc3D(vp videoparams.Parameters, threshold float64, thresholds []float64, lumaEnergyAt func(x, y, z int) float64) (*transformDecoder, error) {
	f, err := transform.NewNtsc3D(threshold, thresholds, lumaEnergyAt)
	if err != nil {
		return nil, err
	}
	sine, cosine := newReferenceCarrier(vp)
	return &transformDecoder{vp: vp, filter: f, sine: sine, cosine: cosine, lookBehind: transform.LookBehind3D, lookAhead: transform.LookAhead3D}, nil
}

func (t *transformDecoder) LookBehind() int { return t.lookBehind }
func (t *transformDecoder) LookAhead() int  { return t.lookAhead }

// DecodeFrame runs the configured Filter once per field parity across the
// supplied window (same-parity fields only, stacked along Z), then
// demodulates the resulting chroma and subtracts it from composite to
// recover luma.
func (t *transformDecoder) DecodeFrame(window []*field.SampleField) *component.Frame {
	frame := &component.Frame{}
	frame.Init(&t.vp, false)

	centreIdx := t.lookBehind * 2
	firstFields := sameParityWindow(window, centreIdx)
	secondFields := sameParityWindow(window, centreIdx+1)

	t.runParity(frame, firstFields, true)
	t.runParity(frame, secondFields, false)
	return frame
}

// sameParityWindow extracts every other field starting at idx, i.e. the
// fields of the same parity as window[idx], across the whole lookbehind/
// lookahead window.
func sameParityWindow(window []*field.SampleField, idx int) []*field.SampleField {
	var out []*field.SampleField
	for i := idx % 2; i < len(window); i += 2 {
		out = append(out, window[i])
	}
	return out
}

func (t *transformDecoder) runParity(frame *component.Frame, fields []*field.SampleField, isFirst bool) {
	vp := &t.vp
	composite := make([][]float64, len(fields))
	for i, f := range fields {
		composite[i] = fieldToComposite(vp, f)
	}

	sampler := &transformSampler{vp: vp, composite: composite, chroma: make([][]float64, len(composite))}
	for i := range sampler.chroma {
		sampler.chroma[i] = make([]float64, len(composite[i]))
	}
	t.filter.Run(sampler)

	targetZ := t.lookBehind
	t.demodulate(frame, composite[targetZ], sampler.chroma[targetZ], isFirst)
}

// fieldToComposite flattens the active field lines of f into one
// contiguous buffer indexed by (fieldLine-FirstActiveFieldLine)*FieldWidth+x,
// matching the line/x addressing transformSampler presents to the filter.
func fieldToComposite(vp *videoparams.Parameters, f *field.SampleField) []float64 {
	lines := vp.LastActiveFieldLine - vp.FirstActiveFieldLine
	out := make([]float64, lines*vp.FieldWidth)
	for i := 0; i < lines; i++ {
		line := f.Line(vp, vp.FirstActiveFieldLine+i)
		for x := 0; x < len(line) && x < vp.FieldWidth; x++ {
			out[i*vp.FieldWidth+x] = float64(line[x])
		}
	}
	return out
}

func (t *transformDecoder) demodulate(frame *component.Frame, composite, chroma []float64, isFirst bool) {
	vp := &t.vp
	lines := vp.LastActiveFieldLine - vp.FirstActiveFieldLine
	for i := 0; i < lines; i++ {
		fieldLine := vp.FirstActiveFieldLine + i
		frameLine := fieldLine*2 - 2
		if !isFirst {
			frameLine = fieldLine*2 - 1
		}
		if frameLine < 0 || frameLine >= frame.Height() {
			continue
		}
		y := frame.Y(frameLine)
		u := frame.U(frameLine)
		v := frame.V(frameLine)
		for x := 0; x < vp.FieldWidth; x++ {
			idx := i*vp.FieldWidth + x
			c := chroma[idx]
			u[x] = c * t.cosine[x] * 2
			v[x] = c * t.sine[x] * 2
			y[x] = composite[idx] - c
		}
	}
}

// transformSampler implements transform.FieldSampler over a flattened
// same-parity field stack, where the Y axis is the field-relative active
// line index and Z is the field's position in the temporal stack.
type transformSampler struct {
	vp        *videoparams.Parameters
	composite [][]float64 // per z, flattened [line*FieldWidth+x].
	chroma    [][]float64
}

func (s *transformSampler) Bounds() (minLine, maxLine, minX, maxX, depth int) {
	lines := s.vp.LastActiveFieldLine - s.vp.FirstActiveFieldLine
	return 0, lines - 1, 0, s.vp.FieldWidth - 1, len(s.composite)
}

func (s *transformSampler) Sample(z, line, x int) (float64, bool) {
	if z < 0 || z >= len(s.composite) {
		return 0, false
	}
	if line < 0 || x < 0 || x >= s.vp.FieldWidth {
		return 0, false
	}
	idx := line*s.vp.FieldWidth + x
	if idx >= len(s.composite[z]) {
		return 0, false
	}
	return s.composite[z][idx], true
}

func (s *transformSampler) AddChroma(z, line, x int, value float64) {
	if z < 0 || z >= len(s.chroma) {
		return
	}
	if line < 0 || x < 0 || x >= s.vp.FieldWidth {
		return
	}
	idx := line*s.vp.FieldWidth + x
	if idx >= len(s.chroma[z]) {
		return
	}
	s.chroma[z][idx] += value
}
