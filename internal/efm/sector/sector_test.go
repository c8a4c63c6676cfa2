/*
DESCRIPTION
  sector_test.go exercises Decoder's gap detection and zero-padding across
  disc-address discontinuities, and its gap/missing classification
  threshold.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package sector

import (
	"testing"

	"github.com/ausocean/ldtbc/internal/efm/f1"
	"github.com/ausocean/ldtbc/internal/efm/section"
)

// frameAt returns a clean F1 frame addressed at the given disc frame
// count (TrackTime's "frames" unit is the disc-address unit
// Decoder.Process resolves one F1 frame to).
func frameAt(n int) f1.Frame {
	return f1.Frame{DiscTime: section.NewTrackTime(0, 0, n)}
}

func TestProcessContiguousFrames(t *testing.T) {
	d := New()
	frames := []f1.Frame{frameAt(0), frameAt(1), frameAt(2)}

	out := d.Process(frames)
	if len(out) != 3 {
		t.Fatalf("len(out) = %d, want 3", len(out))
	}
	for i, s := range out {
		if !s.Valid {
			t.Errorf("out[%d].Valid = false, want true", i)
		}
	}
	if d.Statistics().MissingSectors != 0 || d.Statistics().GapSectors != 0 {
		t.Errorf("Statistics = %+v, want no gaps", d.Statistics())
	}
}

func TestProcessSkipsPaddingFrames(t *testing.T) {
	d := New()
	pad := f1.Frame{IsPadding: true}
	frames := []f1.Frame{frameAt(0), pad, frameAt(1)}

	out := d.Process(frames)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2 (padding frame skipped)", len(out))
	}
}

func TestProcessPadsSmallGapAsMissing(t *testing.T) {
	d := New()
	frames := []f1.Frame{frameAt(0), frameAt(5)} // 4 missing sectors

	out := d.Process(frames)
	if len(out) != 2+4 {
		t.Fatalf("len(out) = %d, want %d", len(out), 2+4)
	}
	for i := 1; i <= 4; i++ {
		if out[i].Valid {
			t.Errorf("out[%d].Valid = true, want false for a zero padding sector", i)
		}
	}
	if d.Statistics().MissingSectors != 4 {
		t.Errorf("MissingSectors = %d, want 4", d.Statistics().MissingSectors)
	}
	if d.Statistics().GapSectors != 0 {
		t.Errorf("GapSectors = %d, want 0", d.Statistics().GapSectors)
	}
}

func TestProcessClassifiesLargeGapAsGapSectors(t *testing.T) {
	d := New()
	frames := []f1.Frame{frameAt(0), frameAt(gapThreshold + 2)} // gapThreshold+1 missing

	d.Process(frames)
	if d.Statistics().GapSectors != gapThreshold+1 {
		t.Errorf("GapSectors = %d, want %d", d.Statistics().GapSectors, gapThreshold+1)
	}
	if d.Statistics().MissingSectors != 0 {
		t.Errorf("MissingSectors = %d, want 0", d.Statistics().MissingSectors)
	}
}

func TestProcessFlagsCorruptFrameInvalid(t *testing.T) {
	d := New()
	f := frameAt(0)
	f.IsCorrupt = true

	out := d.Process([]f1.Frame{f})
	if out[0].Valid {
		t.Error("out[0].Valid = true, want false for a corrupt frame")
	}
}

func TestProcessCountsSectorsWritten(t *testing.T) {
	d := New()
	d.Process([]f1.Frame{frameAt(0), frameAt(1)})
	d.Process([]f1.Frame{frameAt(2)})

	if d.Statistics().SectorsWritten != 3 {
		t.Errorf("SectorsWritten = %d, want 3", d.Statistics().SectorsWritten)
	}
}
