/*
DESCRIPTION
  field.go defines SampleField, one field of 16-bit composite samples plus
  the metadata (dropouts, first-field flag) needed to decode it.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package field defines SampleField, a single field of composite video
// samples and its dropout metadata, and the Source interface used to read
// fields from a capture.
package field

import (
	"github.com/pkg/errors"

	"github.com/ausocean/ldtbc/internal/videoparams"
)

// Dropout marks a horizontal run of samples on one field line that the
// capture process flagged as unreliable.
type Dropout struct {
	StartX    int
	EndX      int
	FieldLine int
}

// SampleField is one field of 16-bit composite samples.
type SampleField struct {
	// FieldNumber is the 1-based index of this field within the source.
	FieldNumber int

	// IsFirstField indicates this is the first (top) field of its frame.
	IsFirstField bool

	// Data holds FieldWidth*FieldHeight little-endian composite samples,
	// row-major starting at field line 1.
	Data []uint16

	Dropouts []Dropout
}

// NewBlack returns a field of the given geometry filled with black, used to
// synthesize fields for frames outside the bounds of the input file.
func NewBlack(vp *videoparams.Parameters, fieldNumber int, isFirst bool) *SampleField {
	data := make([]uint16, vp.FieldWidth*vp.FieldHeight)
	for i := range data {
		data[i] = vp.Black16bIRE
	}
	return &SampleField{FieldNumber: fieldNumber, IsFirstField: isFirst, Data: data}
}

// Validate checks that Data is the expected length and that dropouts lie
// within the field bounds.
func (f *SampleField) Validate(vp *videoparams.Parameters) error {
	want := vp.FieldWidth * vp.FieldHeight
	if len(f.Data) != want {
		return errors.Errorf("field %d: data length %d, want %d", f.FieldNumber, len(f.Data), want)
	}
	for _, d := range f.Dropouts {
		if d.StartX < 0 || d.EndX > vp.FieldWidth {
			return errors.Errorf("field %d: dropout x range [%d,%d) out of bounds", f.FieldNumber, d.StartX, d.EndX)
		}
		if d.FieldLine < 1 || d.FieldLine > vp.FieldHeight {
			return errors.Errorf("field %d: dropout field line %d out of bounds", f.FieldNumber, d.FieldLine)
		}
	}
	return nil
}

// Line returns the samples for the given 1-based field line.
func (f *SampleField) Line(vp *videoparams.Parameters, fieldLine int) []uint16 {
	start := (fieldLine - 1) * vp.FieldWidth
	return f.Data[start : start+vp.FieldWidth]
}

// ShiftLeft shifts the field's data left by n samples, dropping the first n
// samples of each line and padding the end of each line with fill. This
// implements the half-line compensation applied to the second field of a
// subcarrier-locked 4fSC PAL source (§4.7 boundary handling).
func (f *SampleField) ShiftLeft(vp *videoparams.Parameters, n int, fill uint16) {
	for line := 0; line < vp.FieldHeight; line++ {
		row := f.Data[line*vp.FieldWidth : (line+1)*vp.FieldWidth]
		copy(row, row[n:])
		for i := vp.FieldWidth - n; i < vp.FieldWidth; i++ {
			row[i] = fill
		}
	}
}

// Metadata is the read-only subset of a capture's companion JSON sidecar
// that the decode pipeline needs. The JSON parsing itself, along with the
// wider sidecar schema, is an external collaborator's responsibility (see
// spec §1); this interface is the seam the pipeline depends on.
type Metadata interface {
	VideoParameters() *videoparams.Parameters
	NumFrames() int
	NumFields() int
	FirstFieldNumber(frame int) int
	SecondFieldNumber(frame int) int
	// Field returns the dropout/first-field metadata (but not sample data)
	// for the given 1-based field number.
	Field(fieldNumber int) (isFirstField bool, dropouts []Dropout)
}

// Source is a seekable field sample source: the binary TBC file reader that
// is an external collaborator of this pipeline (see spec §1, §6).
type Source interface {
	// ReadField returns the raw composite samples for the given 1-based
	// field number.
	ReadField(fieldNumber int) ([]uint16, error)
}
