/*
DESCRIPTION
  outwriter.go converts a component.Frame into packed output samples
  (RGB48, YUV444P16 or GRAY16), optionally padding the active area to a
  size divisible by 8, and emits YUV4MPEG2 stream/frame headers.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package outwriter converts decoded component frames into packed pixel
// output, optionally wrapped in a YUV4MPEG2 container.
package outwriter

import (
	"fmt"

	"github.com/ausocean/ldtbc/internal/component"
	"github.com/ausocean/ldtbc/internal/videoparams"
)

// PixelFormat selects the packed sample layout produced by Convert.
type PixelFormat int

// Supported pixel formats.
const (
	RGB48 PixelFormat = iota
	YUV444P16
	GRAY16
)

// Limits, zero points and scaling factors for Y'CbCr limited-range output.
// [Poynton ch25 p305] [BT.601-7 sec 2.5.3]
const (
	yMin   = 256.0
	yZero  = 4096.0
	yScale = 56064.0
	yMax   = 65216.0
	cMin   = 256.0
	cZero  = 32768.0
	cScale = 28672.0
	cMax   = 65216.0
)

// [Poynton eq 25.1 p303 and eq 25.5 p307], [Poynton eq 28.1 p336].
const (
	oneMinusKb = 1.0 - 0.114
	oneMinusKr = 1.0 - 0.299
	kB         = 0.49211104112248356308804691718185
	kR         = 0.87728321993817866838972487283129
)

// Config holds the user-selectable OutputWriter options.
type Config struct {
	PixelFormat PixelFormat
	UsePadding  bool
	OutputY4M   bool
}

// Writer converts component.Frame values into packed output samples
// according to Config.
type Writer struct {
	config Config
	vp     videoparams.Parameters

	activeWidth, activeHeight int
	outputHeight              int
	topPadLines, bottomPadLines int
}

// New returns a Writer with the zero Config; call UpdateConfiguration before
// Convert.
func New() *Writer {
	return &Writer{}
}

// UpdateConfiguration stores cfg and, if UsePadding is set, grows the active
// region of vp symmetrically until both the active width and the output
// height are divisible by 8. vp is both read and updated in place, mirroring
// the reference implementation's out-parameter style.
func (w *Writer) UpdateConfiguration(vp *videoparams.Parameters, cfg Config) {
	w.config = cfg
	w.vp = *vp
	w.topPadLines = 0
	w.bottomPadLines = 0

	w.activeWidth = vp.ActiveVideoEnd - vp.ActiveVideoStart
	w.activeHeight = vp.LastActiveFrameLine - vp.FirstActiveFrameLine
	w.outputHeight = w.activeHeight

	if cfg.UsePadding {
		for {
			w.activeWidth = vp.ActiveVideoEnd - vp.ActiveVideoStart
			if w.activeWidth%8 == 0 {
				break
			}
			if w.activeWidth%2 == 0 {
				vp.ActiveVideoEnd++
			} else {
				vp.ActiveVideoStart--
			}
		}
		for {
			w.outputHeight = w.topPadLines + w.activeHeight + w.bottomPadLines
			if w.outputHeight%8 == 0 {
				break
			}
			if w.outputHeight%2 == 0 {
				w.bottomPadLines++
			} else {
				w.topPadLines++
			}
		}
		w.vp = *vp
	}
}

// ActiveWidth returns the active output width in samples.
func (w *Writer) ActiveWidth() int { return w.activeWidth }

// OutputHeight returns the output frame height in lines, including padding.
func (w *Writer) OutputHeight() int { return w.outputHeight }

// Channels returns the number of output samples per pixel for the
// configured pixel format.
func (w *Writer) Channels() int {
	if w.config.PixelFormat == GRAY16 {
		return 1
	}
	return 3
}

// StreamHeader returns the YUV4MPEG2 stream header, or nil if OutputY4M is
// not set.
func (w *Writer) StreamHeader() ([]byte, error) {
	if !w.config.OutputY4M {
		return nil, nil
	}

	rate := "F30000:1001"
	if w.vp.System.IsPALFamily() {
		rate = "F25:1"
	}

	var aspect string
	switch {
	case w.vp.System.IsPALFamily() && w.vp.IsWidescreen:
		aspect = "A512:461"
	case w.vp.System.IsPALFamily():
		aspect = "A384:461"
	case w.vp.IsWidescreen:
		aspect = "A194:171"
	default:
		aspect = "A97:114"
	}

	var pixFmt string
	switch w.config.PixelFormat {
	case YUV444P16:
		pixFmt = "C444p16 XCOLORRANGE=LIMITED"
	case GRAY16:
		pixFmt = "Cmono16 XCOLORRANGE=LIMITED"
	default:
		return nil, fmt.Errorf("pixel format %d not supported in YUV4MPEG2 header", w.config.PixelFormat)
	}

	header := fmt.Sprintf("YUV4MPEG2 W%d H%d %s It %s %s\n", w.activeWidth, w.outputHeight, rate, aspect, pixFmt)
	return []byte(header), nil
}

// FrameHeader returns "FRAME\n", or nil if OutputY4M is not set.
func (w *Writer) FrameHeader() []byte {
	if !w.config.OutputY4M {
		return nil
	}
	return []byte("FRAME\n")
}

// Convert converts frame into packed 16-bit output samples, writing into
// out, which is resized as needed.
func (w *Writer) Convert(frame *component.Frame, out *[]uint16) {
	total := w.activeWidth * w.outputHeight * w.Channels()
	if cap(*out) < total {
		*out = make([]uint16, total)
	} else {
		*out = (*out)[:total]
	}
	o := *out

	w.clearPadLines(0, w.topPadLines, o)
	w.clearPadLines(w.outputHeight-w.bottomPadLines, w.bottomPadLines, o)

	for y := 0; y < w.activeHeight; y++ {
		w.convertLine(y, frame, o)
	}
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (w *Writer) clearPadLines(firstLine, numLines int, out []uint16) {
	if numLines <= 0 {
		return
	}
	switch w.config.PixelFormat {
	case RGB48:
		start := w.activeWidth * firstLine * 3
		for i := 0; i < numLines*w.activeWidth*3; i++ {
			out[start+i] = 0
		}
	case YUV444P16:
		plane := w.activeWidth * w.outputHeight
		yStart := w.activeWidth * firstLine
		for i := 0; i < numLines*w.activeWidth; i++ {
			out[yStart+i] = yZero
			out[plane+yStart+i] = cZero
			out[2*plane+yStart+i] = cZero
		}
	case GRAY16:
		start := w.activeWidth * firstLine
		for i := 0; i < numLines*w.activeWidth; i++ {
			out[start+i] = yZero
		}
	}
}

func (w *Writer) convertLine(lineNumber int, frame *component.Frame, out []uint16) {
	inputLine := w.vp.FirstActiveFrameLine + lineNumber
	inY := frame.Y(inputLine)[w.vp.ActiveVideoStart:]
	var inU, inV []float64
	if w.config.PixelFormat != GRAY16 {
		inU = frame.U(inputLine)[w.vp.ActiveVideoStart:]
		inV = frame.V(inputLine)[w.vp.ActiveVideoStart:]
	}

	outputLine := w.topPadLines + lineNumber

	yOffset := float64(w.vp.Black16bIRE)
	yRange := float64(w.vp.White16bIRE) - float64(w.vp.Black16bIRE)
	uvRange := yRange

	switch w.config.PixelFormat {
	case RGB48:
		base := w.activeWidth * outputLine * 3
		yScaleFull := 65535.0 / yRange
		uvScaleFull := 65535.0 / uvRange
		for x := 0; x < w.activeWidth; x++ {
			rY := clampf((inY[x]-yOffset)*yScaleFull, 0, 65535)
			rU := inU[x] * uvScaleFull
			rV := inV[x] * uvScaleFull
			pos := base + x*3
			out[pos] = uint16(clampf(rY+1.139883*rV, 0, 65535))
			out[pos+1] = uint16(clampf(rY-0.394642*rU-0.580622*rV, 0, 65535))
			out[pos+2] = uint16(clampf(rY+2.032062*rU, 0, 65535))
		}
	case YUV444P16:
		plane := w.activeWidth * w.outputHeight
		base := w.activeWidth * outputLine
		yS := yScale / yRange
		cbS := (cScale / (oneMinusKb * kB)) / uvRange
		crS := (cScale / (oneMinusKr * kR)) / uvRange
		for x := 0; x < w.activeWidth; x++ {
			out[base+x] = uint16(clampf((inY[x]-yOffset)*yS+yZero, yMin, yMax))
			out[plane+base+x] = uint16(clampf(inU[x]*cbS+cZero, cMin, cMax))
			out[2*plane+base+x] = uint16(clampf(inV[x]*crS+cZero, cMin, cMax))
		}
	case GRAY16:
		base := w.activeWidth * outputLine
		yS := yScale / yRange
		for x := 0; x < w.activeWidth; x++ {
			out[base+x] = uint16(clampf((inY[x]-yOffset)*yS+yZero, yMin, yMax))
		}
	}
}
