/*
DESCRIPTION
  field_test.go exercises SampleField's black-field synthesis, Validate's
  bounds checks, Line indexing, and ShiftLeft's half-line compensation.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package field

import (
	"testing"

	"github.com/ausocean/ldtbc/internal/videoparams"
)

func testParams() *videoparams.Parameters {
	return &videoparams.Parameters{
		FieldWidth:  4,
		FieldHeight: 3,
		Black16bIRE: 16384,
		White16bIRE: 57344,
	}
}

func TestNewBlackFillsData(t *testing.T) {
	vp := testParams()
	f := NewBlack(vp, 1, true)

	if len(f.Data) != vp.FieldWidth*vp.FieldHeight {
		t.Fatalf("len(Data) = %d, want %d", len(f.Data), vp.FieldWidth*vp.FieldHeight)
	}
	for i, v := range f.Data {
		if v != vp.Black16bIRE {
			t.Errorf("Data[%d] = %d, want %d", i, v, vp.Black16bIRE)
		}
	}
	if f.FieldNumber != 1 || !f.IsFirstField {
		t.Errorf("FieldNumber/IsFirstField = %d/%v, want 1/true", f.FieldNumber, f.IsFirstField)
	}
}

func TestValidateAcceptsCorrectLength(t *testing.T) {
	vp := testParams()
	f := NewBlack(vp, 1, true)
	if err := f.Validate(vp); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidateRejectsWrongLength(t *testing.T) {
	vp := testParams()
	f := &SampleField{Data: make([]uint16, vp.FieldWidth*vp.FieldHeight-1)}
	if err := f.Validate(vp); err == nil {
		t.Error("Validate() = nil, want an error for short data")
	}
}

func TestValidateRejectsOutOfBoundsDropout(t *testing.T) {
	vp := testParams()
	f := NewBlack(vp, 1, true)
	f.Dropouts = []Dropout{{StartX: 0, EndX: vp.FieldWidth + 1, FieldLine: 1}}
	if err := f.Validate(vp); err == nil {
		t.Error("Validate() = nil, want an error for a dropout x range beyond fieldWidth")
	}
}

func TestValidateRejectsOutOfBoundsFieldLine(t *testing.T) {
	vp := testParams()
	f := NewBlack(vp, 1, true)
	f.Dropouts = []Dropout{{StartX: 0, EndX: 1, FieldLine: vp.FieldHeight + 1}}
	if err := f.Validate(vp); err == nil {
		t.Error("Validate() = nil, want an error for a dropout field line beyond fieldHeight")
	}
}

func TestValidateAcceptsInBoundsDropout(t *testing.T) {
	vp := testParams()
	f := NewBlack(vp, 1, true)
	f.Dropouts = []Dropout{{StartX: 0, EndX: vp.FieldWidth, FieldLine: vp.FieldHeight}}
	if err := f.Validate(vp); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestLineReturnsCorrectSlice(t *testing.T) {
	vp := testParams()
	f := &SampleField{Data: make([]uint16, vp.FieldWidth*vp.FieldHeight)}
	for i := range f.Data {
		f.Data[i] = uint16(i)
	}

	line2 := f.Line(vp, 2)
	want := []uint16{4, 5, 6, 7}
	if len(line2) != len(want) {
		t.Fatalf("len(Line(2)) = %d, want %d", len(line2), len(want))
	}
	for i := range want {
		if line2[i] != want[i] {
			t.Errorf("Line(2)[%d] = %d, want %d", i, line2[i], want[i])
		}
	}
}

func TestShiftLeft(t *testing.T) {
	vp := testParams()
	f := &SampleField{Data: make([]uint16, vp.FieldWidth*vp.FieldHeight)}
	for line := 0; line < vp.FieldHeight; line++ {
		for x := 0; x < vp.FieldWidth; x++ {
			f.Data[line*vp.FieldWidth+x] = uint16(line*10 + x)
		}
	}

	f.ShiftLeft(vp, 1, 0xFFFF)

	for line := 0; line < vp.FieldHeight; line++ {
		row := f.Line(vp, line+1)
		for x := 0; x < vp.FieldWidth-1; x++ {
			want := uint16(line*10 + x + 1)
			if row[x] != want {
				t.Errorf("line %d, x %d = %d, want %d", line, x, row[x], want)
			}
		}
		if row[vp.FieldWidth-1] != 0xFFFF {
			t.Errorf("line %d, last sample = %d, want fill 0xFFFF", line, row[vp.FieldWidth-1])
		}
	}
}
