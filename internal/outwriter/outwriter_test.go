/*
DESCRIPTION
  outwriter_test.go exercises UpdateConfiguration's padding expansion,
  Convert's per-format sample packing and clamping, and the YUV4MPEG2
  header helpers.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package outwriter

import (
	"strings"
	"testing"

	"github.com/ausocean/ldtbc/internal/component"
	"github.com/ausocean/ldtbc/internal/videoparams"
)

// smallParams returns a minimal geometry: 16 samples wide, active window
// [2,10) (width 8, already divisible by 8), 4 active frame lines, black at
// 1000 and white 56064 above it (so yScale/yRange == 1, keeping expected
// Y values simple to state).
func smallParams() *videoparams.Parameters {
	return &videoparams.Parameters{
		System:               videoparams.PAL,
		FieldWidth:           16,
		FieldHeight:          5,
		FirstActiveFrameLine: 0,
		LastActiveFrameLine:  4,
		ActiveVideoStart:     2,
		ActiveVideoEnd:       10,
		Black16bIRE:          1000,
		White16bIRE:          1000 + 56064,
	}
}

func blackFrame(vp *videoparams.Parameters, mono bool) *component.Frame {
	f := &component.Frame{}
	f.Init(vp, mono)
	for line := 0; line < vp.FrameHeight(); line++ {
		y := f.Y(line)
		for x := range y {
			y[x] = float64(vp.Black16bIRE)
		}
	}
	return f
}

func TestUpdateConfigurationNoPaddingNeeded(t *testing.T) {
	vp := smallParams()
	w := New()
	w.UpdateConfiguration(vp, Config{PixelFormat: GRAY16})

	if w.ActiveWidth() != 8 {
		t.Errorf("ActiveWidth() = %d, want 8 (already divisible by 8)", w.ActiveWidth())
	}
	if w.OutputHeight() != 4 {
		t.Errorf("OutputHeight() = %d, want 4", w.OutputHeight())
	}
}

func TestUpdateConfigurationPadsWidthAndHeight(t *testing.T) {
	vp := smallParams()
	vp.ActiveVideoEnd = 9 // width 7, not divisible by 8
	vp.LastActiveFrameLine = 3 // height 3, not divisible by 8

	w := New()
	w.UpdateConfiguration(vp, Config{PixelFormat: GRAY16, UsePadding: true})

	if w.ActiveWidth()%8 != 0 {
		t.Errorf("ActiveWidth() = %d, not divisible by 8", w.ActiveWidth())
	}
	if w.OutputHeight()%8 != 0 {
		t.Errorf("OutputHeight() = %d, not divisible by 8", w.OutputHeight())
	}
	if w.OutputHeight() < 3 {
		t.Errorf("OutputHeight() = %d, want >= the original active height 3", w.OutputHeight())
	}
}

func TestChannels(t *testing.T) {
	w := New()
	w.UpdateConfiguration(smallParams(), Config{PixelFormat: GRAY16})
	if w.Channels() != 1 {
		t.Errorf("Channels() = %d for GRAY16, want 1", w.Channels())
	}
	w.UpdateConfiguration(smallParams(), Config{PixelFormat: YUV444P16})
	if w.Channels() != 3 {
		t.Errorf("Channels() = %d for YUV444P16, want 3", w.Channels())
	}
	w.UpdateConfiguration(smallParams(), Config{PixelFormat: RGB48})
	if w.Channels() != 3 {
		t.Errorf("Channels() = %d for RGB48, want 3", w.Channels())
	}
}

func TestConvertGray16BlackLevelMapsToYZero(t *testing.T) {
	vp := smallParams()
	w := New()
	w.UpdateConfiguration(vp, Config{PixelFormat: GRAY16})

	frame := blackFrame(vp, true)
	var out []uint16
	w.Convert(frame, &out)

	if len(out) != w.ActiveWidth()*w.OutputHeight() {
		t.Fatalf("len(out) = %d, want %d", len(out), w.ActiveWidth()*w.OutputHeight())
	}
	for i, v := range out {
		if v != uint16(yZero) {
			t.Errorf("out[%d] = %d, want yZero (%d) for a frame entirely at black level", i, v, int(yZero))
		}
	}
}

func TestConvertYUV444P16ZeroChromaMapsToCZero(t *testing.T) {
	vp := smallParams()
	w := New()
	w.UpdateConfiguration(vp, Config{PixelFormat: YUV444P16})

	frame := blackFrame(vp, false) // U, V default to zero
	var out []uint16
	w.Convert(frame, &out)

	plane := w.ActiveWidth() * w.OutputHeight()
	for i := 0; i < plane; i++ {
		if out[i] != uint16(yZero) {
			t.Errorf("Y plane[%d] = %d, want yZero", i, out[i])
		}
		if out[plane+i] != uint16(cZero) {
			t.Errorf("U plane[%d] = %d, want cZero", i, out[plane+i])
		}
		if out[2*plane+i] != uint16(cZero) {
			t.Errorf("V plane[%d] = %d, want cZero", i, out[2*plane+i])
		}
	}
}

func TestConvertRGB48ZeroChromaBlackLevelIsZero(t *testing.T) {
	vp := smallParams()
	w := New()
	w.UpdateConfiguration(vp, Config{PixelFormat: RGB48})

	frame := blackFrame(vp, false)
	var out []uint16
	w.Convert(frame, &out)

	for i, v := range out {
		if v != 0 {
			t.Errorf("out[%d] = %d, want 0 for black level with zero chroma", i, v)
		}
	}
}

func TestConvertClampsAboveWhite(t *testing.T) {
	vp := smallParams()
	w := New()
	w.UpdateConfiguration(vp, Config{PixelFormat: GRAY16})

	frame := &component.Frame{}
	frame.Init(vp, true)
	for line := 0; line < vp.FrameHeight(); line++ {
		y := frame.Y(line)
		for x := range y {
			y[x] = float64(vp.White16bIRE) * 100 // far above white
		}
	}

	var out []uint16
	w.Convert(frame, &out)
	for i, v := range out {
		if v != uint16(yMax) {
			t.Errorf("out[%d] = %d, want clamped to yMax (%d)", i, v, int(yMax))
		}
	}
}

func TestStreamHeaderNilWithoutY4M(t *testing.T) {
	w := New()
	w.UpdateConfiguration(smallParams(), Config{PixelFormat: GRAY16, OutputY4M: false})
	hdr, err := w.StreamHeader()
	if err != nil || hdr != nil {
		t.Errorf("StreamHeader() = %q, %v, want nil, nil", hdr, err)
	}
}

func TestStreamHeaderRejectsRGB48(t *testing.T) {
	w := New()
	w.UpdateConfiguration(smallParams(), Config{PixelFormat: RGB48, OutputY4M: true})
	if _, err := w.StreamHeader(); err == nil {
		t.Error("StreamHeader() = nil error for RGB48, want an error (unsupported in YUV4MPEG2)")
	}
}

func TestStreamHeaderPALContent(t *testing.T) {
	w := New()
	w.UpdateConfiguration(smallParams(), Config{PixelFormat: YUV444P16, OutputY4M: true})
	hdr, err := w.StreamHeader()
	if err != nil {
		t.Fatalf("StreamHeader: %v", err)
	}
	s := string(hdr)
	if !strings.HasPrefix(s, "YUV4MPEG2 ") {
		t.Errorf("header = %q, want YUV4MPEG2 prefix", s)
	}
	if !strings.Contains(s, "F25:1") {
		t.Errorf("header = %q, want PAL frame rate F25:1", s)
	}
	if !strings.Contains(s, "C444p16") {
		t.Errorf("header = %q, want YUV444P16 colorspace tag", s)
	}
}

func TestStreamHeaderNTSCContent(t *testing.T) {
	vp := smallParams()
	vp.System = videoparams.NTSC
	w := New()
	w.UpdateConfiguration(vp, Config{PixelFormat: GRAY16, OutputY4M: true})
	hdr, err := w.StreamHeader()
	if err != nil {
		t.Fatalf("StreamHeader: %v", err)
	}
	s := string(hdr)
	if !strings.Contains(s, "F30000:1001") {
		t.Errorf("header = %q, want NTSC frame rate F30000:1001", s)
	}
	if !strings.Contains(s, "Cmono16") {
		t.Errorf("header = %q, want GRAY16 colorspace tag", s)
	}
}

func TestFrameHeader(t *testing.T) {
	w := New()
	w.UpdateConfiguration(smallParams(), Config{PixelFormat: GRAY16, OutputY4M: true})
	if got := string(w.FrameHeader()); got != "FRAME\n" {
		t.Errorf("FrameHeader() = %q, want %q", got, "FRAME\n")
	}

	w.UpdateConfiguration(smallParams(), Config{PixelFormat: GRAY16, OutputY4M: false})
	if got := w.FrameHeader(); got != nil {
		t.Errorf("FrameHeader() = %q, want nil when OutputY4M is false", got)
	}
}
