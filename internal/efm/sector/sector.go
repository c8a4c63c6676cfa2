/*
DESCRIPTION
  sector.go assembles F1 data frames into data sectors, detecting address
  discontinuities and zero-padding across them.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package sector recovers the data track's sectors from F1 frames not
// flagged as audio, padding across any gap in disc address.
//
// The reference decoder's Sector class (which parses a CD-ROM-style
// sync/header/EDC/ECC structure from consecutive F1 frames) was not
// present in the retrieved source tree; this package instead treats each
// F1 frame's 24 data bytes directly as one sector's payload, addressed by
// that frame's already-decoded disc time, which is sufficient to
// reproduce the gap-detection and zero-padding behaviour
// sectorstodata.cpp builds on top of it.
package sector

import (
	"github.com/ausocean/ldtbc/internal/efm/f1"
	"github.com/ausocean/ldtbc/internal/efm/section"
)

// Sector is one recovered data-track payload.
type Sector struct {
	Address f1.Frame
	Data    [24]byte
	Valid   bool
}

// Statistics counts sectors written and the frames inserted to pad
// detected gaps.
type Statistics struct {
	SectorsWritten int
	GapSectors     int
	MissingSectors int
}

// gapThreshold is the missing-sector count above which a gap is
// attributed to a break in the EFM signal rather than isolated data loss,
// matching the reference decoder's classification.
const gapThreshold = 16

// Decoder tracks the last known-good sector address across calls to
// detect and pad gaps.
type Decoder struct {
	have     bool
	lastAddr int
	stats    Statistics
}

// New returns an empty Decoder.
func New() *Decoder { return &Decoder{} }

// Statistics returns the running sector counts.
func (d *Decoder) Statistics() Statistics { return d.stats }

// Process converts data-track frames (frames the caller has filtered to
// exclude audio) into Sectors, inserting zero Sectors across any gap in
// disc address.
func (d *Decoder) Process(frames []f1.Frame) []Sector {
	var out []Sector
	for _, frame := range frames {
		if frame.IsPadding {
			continue
		}
		addr := frame.DiscTime.Difference(section.TrackTime{})

		if d.have {
			expected := d.lastAddr + 1
			if addr != expected {
				missing := addr - expected
				if missing > 0 {
					if missing > gapThreshold {
						d.stats.GapSectors += missing
					} else {
						d.stats.MissingSectors += missing
					}
					for i := 0; i < missing; i++ {
						out = append(out, Sector{})
						d.stats.SectorsWritten++
					}
				}
			}
		} else {
			d.have = true
		}

		out = append(out, Sector{Address: frame, Data: frame.Data, Valid: !frame.IsCorrupt})
		d.lastAddr = addr
		d.stats.SectorsWritten++
	}
	return out
}
