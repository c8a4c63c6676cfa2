/*
DESCRIPTION
  component.go defines Frame, a Y/U/V planar buffer spanning two
  interlaced fields, as produced by the chroma decoders and consumed by the
  output writer.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package component defines Frame, the Y'UV planar frame buffer
// shared by every chroma decoder back-end.
package component

import "github.com/ausocean/ldtbc/internal/videoparams"

// Frame is a Y'UV planar buffer spanning one interlaced frame (two fields).
// Line 0 is the top line of the frame; line k is k*FieldWidth elements into
// each plane.
type Frame struct {
	FieldWidth int

	// Mono indicates U and V are not populated and must be treated as zero
	// by readers.
	Mono bool

	y, u, v []float64
	zero    []float64
}

// Init resizes and zeroes f for the given video geometry. When mono is true,
// the U and V planes are left empty; Frame.U and Frame.V then return a
// shared all-zero line of the right length.
func (f *Frame) Init(vp *videoparams.Parameters, mono bool) {
	height := vp.FrameHeight()
	size := vp.FieldWidth * height
	f.FieldWidth = vp.FieldWidth
	f.Mono = mono

	if cap(f.y) >= size {
		f.y = f.y[:size]
	} else {
		f.y = make([]float64, size)
	}
	for i := range f.y {
		f.y[i] = 0
	}

	if mono {
		f.u = nil
		f.v = nil
		if cap(f.zero) >= vp.FieldWidth {
			f.zero = f.zero[:vp.FieldWidth]
		} else {
			f.zero = make([]float64, vp.FieldWidth)
		}
		return
	}
	if cap(f.u) >= size {
		f.u = f.u[:size]
		f.v = f.v[:size]
	} else {
		f.u = make([]float64, size)
		f.v = make([]float64, size)
	}
	for i := range f.u {
		f.u[i] = 0
		f.v[i] = 0
	}
}

// Y returns a mutable view of the Y samples of the given 0-based frame line.
func (f *Frame) Y(line int) []float64 {
	start := line * f.FieldWidth
	return f.y[start : start+f.FieldWidth]
}

// U returns a view of the U samples of the given 0-based frame line. If the
// frame is mono, this is a read-only all-zero slice private to this Frame.
func (f *Frame) U(line int) []float64 {
	if f.Mono {
		return f.zero
	}
	start := line * f.FieldWidth
	return f.u[start : start+f.FieldWidth]
}

// V returns a view of the V samples of the given 0-based frame line. If the
// frame is mono, this is a read-only all-zero slice private to this Frame.
func (f *Frame) V(line int) []float64 {
	if f.Mono {
		return f.zero
	}
	start := line * f.FieldWidth
	return f.v[start : start+f.FieldWidth]
}

// Height returns the number of lines in the frame.
func (f *Frame) Height() int {
	if f.FieldWidth == 0 {
		return 0
	}
	return len(f.y) / f.FieldWidth
}
