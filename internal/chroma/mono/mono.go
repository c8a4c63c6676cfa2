/*
DESCRIPTION
  mono.go implements the trivial monochrome "chroma" decoder: it copies
  composite samples straight into the luma plane and leaves chroma at zero.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package mono implements chroma.Decoder for monochrome sources, where the
// composite signal carries no subcarrier and the luma plane is simply the
// input samples.
package mono

import (
	"github.com/ausocean/ldtbc/internal/component"
	"github.com/ausocean/ldtbc/internal/field"
	"github.com/ausocean/ldtbc/internal/videoparams"
)

// Decoder copies field samples into the Y plane of a component.Frame,
// leaving U and V at zero.
type Decoder struct {
	vp videoparams.Parameters
}

// New returns a Decoder for the given video parameters.
func New(vp videoparams.Parameters) *Decoder {
	return &Decoder{vp: vp}
}

// DecodeFrame writes first and second into a new mono component.Frame.
func (d *Decoder) DecodeFrame(first, second *field.SampleField) *component.Frame {
	frame := &component.Frame{}
	frame.Init(&d.vp, true)

	d.copyField(frame, first, first.IsFirstField)
	d.copyField(frame, second, second.IsFirstField)
	return frame
}

func (d *Decoder) copyField(frame *component.Frame, f *field.SampleField, isFirst bool) {
	for fieldLine := d.vp.FirstActiveFieldLine; fieldLine < d.vp.LastActiveFieldLine; fieldLine++ {
		src := f.Line(&d.vp, fieldLine)
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
