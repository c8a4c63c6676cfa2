/*
DESCRIPTION
  videoparams.go defines the video system parameters that describe a TBC
  (time-base corrected) field source: sampling geometry, active video and
  colour-burst windows, and black/white reference levels.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package videoparams holds the VideoParameters that describe a TBC source
// and are shared by every stage of the chroma decode pipeline.
package videoparams

import "github.com/pkg/errors"

// System identifies the analogue colour system a capture was made under.
type System int

// Supported video systems.
const (
	PAL System = iota
	NTSC
	PALM
)

// String implements fmt.Stringer.
func (s System) String() string {
	switch s {
	case PAL:
		return "PAL"
	case NTSC:
		return "NTSC"
	case PALM:
		return "PAL-M"
	default:
		return "unknown"
	}
}

// IsPALFamily reports whether s uses PAL-rate (25fps) output framing.
func (s System) IsPALFamily() bool {
	return s == PAL || s == PALM
}

// Parameters describes the geometry and calibration of a field source, as
// read from the companion JSON metadata of a TBC capture.
//
// Field and frame lines are both counted from 1. "Frame line" numbers a line
// within an interlaced frame; "field line" numbers a line within a single
// field, i.e. frameLine = 2*fieldLine - (1 if first field else 0).
type Parameters struct {
	System System

	// SampleRate is the composite sampling rate in Hz.
	SampleRate float64

	// FSC is the colour subcarrier frequency in Hz.
	FSC float64

	FieldWidth  int
	FieldHeight int

	FirstActiveFrameLine int
	LastActiveFrameLine  int
	FirstActiveFieldLine int
	LastActiveFieldLine  int

	ActiveVideoStart int
	ActiveVideoEnd   int

	ColourBurstStart int
	ColourBurstEnd   int

	Black16bIRE uint16
	White16bIRE uint16

	IsWidescreen       bool
	IsSubcarrierLocked bool
}

// FrameHeight returns the number of lines in an interlaced frame formed from
// two fields of this geometry.
func (p *Parameters) FrameHeight() int {
	return 2*p.FieldHeight - 1
}

// Validate checks the invariants from the data model: white > black, the
// active video window lies within the field and after the colour burst, and
// the active line range is non-empty.
func (p *Parameters) Validate() error {
	if p.White16bIRE <= p.Black16bIRE {
		return errors.Errorf("white16bIRE (%d) must be greater than black16bIRE (%d)", p.White16bIRE, p.Black16bIRE)
	}
	if p.ActiveVideoStart < p.ColourBurstEnd {
		return errors.Errorf("activeVideoStart (%d) must be >= colourBurstEnd (%d)", p.ActiveVideoStart, p.ColourBurstEnd)
	}
	if p.ActiveVideoEnd > p.FieldWidth {
		return errors.Errorf("activeVideoEnd (%d) must be <= fieldWidth (%d)", p.ActiveVideoEnd, p.FieldWidth)
	}
	if p.LastActiveFrameLine <= p.FirstActiveFrameLine {
		return errors.Errorf("lastActiveFrameLine (%d) must be > firstActiveFrameLine (%d)", p.LastActiveFrameLine, p.FirstActiveFrameLine)
	}
	if p.FieldWidth <= 0 || p.FieldHeight <= 0 {
		return errors.New("fieldWidth and fieldHeight must be positive")
	}
	return nil
}
