/*
DESCRIPTION
  mono_test.go exercises DecodeFrame's straight composite-to-luma copy and
  its field-parity interleave into frame lines.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mono

import (
	"testing"

	"github.com/ausocean/ldtbc/internal/field"
	"github.com/ausocean/ldtbc/internal/videoparams"
)

func testVP() videoparams.Parameters {
	return videoparams.Parameters{
		FieldWidth:           4,
		FieldHeight:          4,
		FirstActiveFieldLine: 1,
		LastActiveFieldLine:  4,
	}
}

func constantField(vp *videoparams.Parameters, val uint16, isFirst bool) *field.SampleField {
	data := make([]uint16, vp.FieldWidth*vp.FieldHeight)
	for i := range data {
		data[i] = val
	}
	return &field.SampleField{IsFirstField: isFirst, Data: data}
}

func TestDecodeFrameCopiesIntoInterleavedLines(t *testing.T) {
	vp := testVP()
	d := New(vp)

	first := constantField(&vp, 100, true)
	second := constantField(&vp, 200, false)

	frame := d.DecodeFrame(first, second)
	if !frame.Mono {
		t.Fatal("Mono = false, want true")
	}

	// Active field lines 1..3 map to frame lines 0,2,4 (first field) and
	// 1,3,5 (second field).
	for _, line := range []int{0, 2, 4} {
		for _, v := range frame.Y(line) {
			if v != 100 {
				t.Errorf("Y(%d) = %v, want all 100 (first field)", line, v)
			}
		}
	}
	for _, line := range []int{1, 3, 5} {
		for _, v := range frame.Y(line) {
			if v != 200 {
				t.Errorf("Y(%d) = %v, want all 200 (second field)", line, v)
			}
		}
	}
}

func TestDecodeFrameLeavesChromaZero(t *testing.T) {
	vp := testVP()
	d := New(vp)
	frame := d.DecodeFrame(constantField(&vp, 1, true), constantField(&vp, 1, false))

	for _, v := range frame.U(0) {
		if v != 0 {
			t.Errorf("U(0) = %v, want zero", frame.U(0))
		}
	}
}

func TestCopyFieldSkipsLinesOutsideActiveRange(t *testing.T) {
	vp := testVP()
	vp.FirstActiveFieldLine = 2
	vp.LastActiveFieldLine = 3 // only field line 2 is active
	d := New(vp)

	frame := d.DecodeFrame(constantField(&vp, 9, true), constantField(&vp, 9, false))
	// field line 2, first field -> frame line 2.
	for _, v := range frame.Y(2) {
		if v != 9 {
			t.Errorf("Y(2) = %v, want 9", frame.Y(2))
		}
	}
	// frame line 0 (field line 1) was never copied.
	for _, v := range frame.Y(0) {
		if v != 0 {
			t.Errorf("Y(0) = %v, want 0 (outside active range)", frame.Y(0))
		}
	}
}
