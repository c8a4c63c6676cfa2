/*
DESCRIPTION
  comb.go implements the NTSC comb-filter chroma decoder, supporting 1D, 2D
  and adaptive 3D separation, demodulation against a fixed synthesised
  reference carrier, and post-demodulation noise reduction. It does not
  detect the burst phase of each line.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package comb implements chroma.Decoder for NTSC sources using 1D, 2D or
// adaptive 3D comb filtering.
package comb

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/ldtbc/internal/component"
	"github.com/ausocean/ldtbc/internal/field"
	"github.com/ausocean/ldtbc/internal/videoparams"
)

// Dimensions selects the comb filter order.
type Dimensions int

// Supported comb filter dimensions.
const (
	Mono Dimensions = iota
	OneD
	TwoD
	ThreeD
)

// Config holds the user-adjustable NTSC comb decode parameters from spec
// §4.4.
type Config struct {
	Dimensions        Dimensions
	Adaptive          bool
	ShowMap           bool
	PhaseCompensation bool // QADM decoding hook; off in DefaultConfig, see compensatedPhase.
	CNRLevel          float64
	YNRLevel          float64
}

// DefaultConfig returns 2D comb filtering with no noise reduction.
func DefaultConfig() Config {
	return Config{Dimensions: TwoD}
}

// Decoder implements adaptive NTSC comb filtering for a fixed set of video
// parameters.
type Decoder struct {
	vp  videoparams.Parameters
	cfg Config

	sine, cosine []float64
}

// New returns a Decoder for vp using cfg.
func New(vp videoparams.Parameters, cfg Config) *Decoder {
	d := &Decoder{vp: vp, cfg: cfg}
	d.buildReference()
	return d
}

func (d *Decoder) buildReference() {
	n := d.vp.FieldWidth
	d.sine = make([]float64, n)
	d.cosine = make([]float64, n)
	w := 2 * math.Pi * d.vp.FSC / d.vp.SampleRate
	for x := 0; x < n; x++ {
		d.sine[x] = math.Sin(w * float64(x))
		d.cosine[x] = math.Cos(w * float64(x))
	}
}

// DecodeFrame decodes the two fields of an interlaced frame, and optionally
// the previous/next frame's corresponding raw field (same parity) for
// 3D/adaptive scoring, into a new component.Frame. prevFirst/prevSecond and
// nextFirst/nextSecond are nil unless Decoder.LookBehind/LookAhead (as
// configured by the Dimensions field) report a non-zero requirement.
func (d *Decoder) DecodeFrame(first, second, prevFirst, prevSecond, nextFirst, nextSecond *field.SampleField) *component.Frame {
	frame := &component.Frame{}
	frame.Init(&d.vp, d.cfg.Dimensions == Mono)

	if d.cfg.Dimensions == Mono {
		d.copyMono(frame, first, true)
		d.copyMono(frame, second, false)
		return frame
	}

	d.decodeField(frame, first, prevFirst, nextFirst)
	d.decodeField(frame, second, prevSecond, nextSecond)
	return frame
}

func (d *Decoder) copyMono(frame *component.Frame, f *field.SampleField, isFirst bool) {
	vp := &d.vp
	for fieldLine := vp.FirstActiveFieldLine; fieldLine < vp.LastActiveFieldLine; fieldLine++ {
		src := f.Line(vp, fieldLine)
		frameLine := fieldLine*2 - 2
		if !isFirst {
			frameLine = fieldLine*2 - 1
		}
		if frameLine < 0 || frameLine >= frame.Height() {
			continue
		}
		dst := frame.Y(frameLine)
		for x := 0; x < len(src) && x < len(dst); x++ {
			dst[x] = float64(src[x])
		}
	}
}

func (d *Decoder) decodeField(frame *component.Frame, f, prev, next *field.SampleField) {
	vp := &d.vp
	for fieldLine := vp.FirstActiveFieldLine; fieldLine < vp.LastActiveFieldLine; fieldLine++ {
		line := toFloat(f.Line(vp, fieldLine))

		var above, below []float64
		if fieldLine-1 >= 1 {
			above = toFloat(f.Line(vp, fieldLine-1))
		}
		if fieldLine+1 <= vp.FieldHeight {
			below = toFloat(f.Line(vp, fieldLine+1))
		}

		frameLine := fieldLine*2 - 2
		if !f.IsFirstField {
			frameLine = fieldLine*2 - 1
		}
		if frameLine < 0 || frameLine >= frame.Height() {
			continue
		}

		var prevLine, nextLine []float64
		if prev != nil {
			prevLine = toFloat(prev.Line(vp, fieldLine))
		}
		if next != nil {
			nextLine = toFloat(next.Line(vp, fieldLine))
		}

		d.decodeLine(frame, frameLine, line, above, below, prevLine, nextLine)
	}
}

func toFloat(samples []uint16) []float64 {
	out := make([]float64, len(samples))
	for i, v := range samples {
		out[i] = float64(v)
	}
	return out
}

// decodeLine separates Y and chroma for one composite line using the
// configured comb dimension. The 1D comb combs against itself delayed by
// one subcarrier cycle; the 2D comb additionally averages with the lines
// above/below; the 3D (adaptive) comb additionally considers the
// co-located sample from the previous/next frame, scored against the 2D
// candidate via an estimated variance ratio (gonum/stat), falling back to
// the 2D result where temporal correlation is weak (motion).
func (d *Decoder) decodeLine(frame *component.Frame, frameLine int, line, above, below, prevLine, nextLine []float64) {
	n := len(line)
	y := frame.Y(frameLine)
	u := frame.U(frameLine)
	v := frame.V(frameLine)

	cycle := int(math.Round(d.vp.SampleRate / d.vp.FSC))
	if cycle < 1 {
		cycle = 1
	}

	for x := 0; x < n; x++ {
		c1d := combDelta(line, x, cycle)

		c2d := c1d
		if d.cfg.Dimensions >= TwoD && above != nil && below != nil {
			cAbove := combDelta(above, x, cycle)
			cBelow := combDelta(below, x, cycle)
			c2d = (c1d + cAbove + cBelow) / 3
		}

		chroma := c2d
		if d.cfg.Dimensions == ThreeD && prevLine != nil && nextLine != nil {
			c3d := (combDelta(prevLine, x, cycle) + combDelta(nextLine, x, cycle)) / 2
			if d.cfg.Adaptive {
				chroma = d.adaptiveBlend(c2d, c3d, line, prevLine, x)
			} else {
				chroma = (c2d + c3d) / 2
			}
		}

		phase := d.cosine[x]
		quad := d.sine[x]
		if d.cfg.PhaseCompensation {
			phase, quad = d.compensatedPhase(x)
		}
		ci := chroma * phase
		cq := chroma * quad

		u[x] = ci
		v[x] = cq
		y[x] = line[x] - chroma
	}

	if d.cfg.YNRLevel > 0 {
		noiseReduce(y, d.cfg.YNRLevel)
	}
	if d.cfg.CNRLevel > 0 {
		noiseReduce(u, d.cfg.CNRLevel)
		noiseReduce(v, d.cfg.CNRLevel)
	}
}

// combDelta estimates the chroma component at x as half the difference
// between the sample and its value one subcarrier cycle earlier, which
// cancels luma (constant over one cycle) and doubles chroma (inverted each
// cycle).
func combDelta(line []float64, x, cycle int) float64 {
	if x-cycle < 0 {
		return 0
	}
	return (line[x] - line[x-cycle]) / 2
}

// adaptiveBlend weights the 2D and 3D candidates by the variance (gonum's
// unbiased sample variance) of the temporal luma differences between line
// and prevLine over a small neighbourhood: high variance implies motion and
// favours the 2D candidate, low variance (a static, low-noise source)
// favours 3D.
func (d *Decoder) adaptiveBlend(c2d, c3d float64, line, prevLine []float64, x int) float64 {
	lo, hi := x-2, x+2
	if lo < 0 {
		lo = 0
	}
	if hi >= len(line) || hi >= len(prevLine) {
		hi = len(line) - 1
		if len(prevLine)-1 < hi {
			hi = len(prevLine) - 1
		}
	}
	if hi <= lo {
		return c2d
	}

	var diffs []float64
	for i := lo; i <= hi; i++ {
		diffs = append(diffs, line[i]-prevLine[i])
	}
	_, variance := stat.MeanVariance(diffs, nil)
	motionPenalty := variance / (variance + 64) // smaller penalty when static.

	return motionPenalty*c2d + (1-motionPenalty)*c3d
}

// compensatedPhase is the PhaseCompensation (QADM) path. It returns the
// same precomputed reference carrier as the uncompensated path; no
// burst-derived phase offset is applied, so enabling PhaseCompensation does
// not change the decoded output.
func (d *Decoder) compensatedPhase(x int) (phase, quad float64) {
	return d.cosine[x], d.sine[x]
}

// noiseReduce applies a simple IRE-thresholded running average to suppress
// sample-to-sample noise below the given level.
func noiseReduce(line []float64, levelIRE float64) {
	for x := 1; x < len(line)-1; x++ {
		avg := (line[x-1] + line[x] + line[x+1]) / 3
		if math.Abs(line[x]-avg) < levelIRE {
			line[x] = avg
		}
	}
}
