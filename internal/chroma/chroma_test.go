/*
DESCRIPTION
  chroma_test.go exercises Config.Validate's fail-fast checks and New's
  variant dispatch, confirming each adapter reports the expected
  look-behind/look-ahead window requirements.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package chroma

import (
	"testing"

	"github.com/ausocean/ldtbc/internal/chroma/comb"
	"github.com/ausocean/ldtbc/internal/chroma/palcolour"
	"github.com/ausocean/ldtbc/internal/chroma/transform"
	"github.com/ausocean/ldtbc/internal/videoparams"
)

func testVideoParams() videoparams.Parameters {
	return videoparams.Parameters{
		System:               videoparams.PAL,
		SampleRate:           17734475 * 4,
		FSC:                  4433618.75,
		FieldWidth:           1135,
		FieldHeight:          313,
		FirstActiveFrameLine: 22,
		LastActiveFrameLine:  620,
		FirstActiveFieldLine: 11,
		LastActiveFieldLine:  310,
		ActiveVideoStart:     185,
		ActiveVideoEnd:       1107,
		ColourBurstStart:     98,
		ColourBurstEnd:       144,
		Black16bIRE:          16384,
		White16bIRE:          57344,
	}
}

func TestValidateRejectsUnknownVariant(t *testing.T) {
	cfg := Config{Variant: Variant(99)}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil for an unknown variant, want an error")
	}
}

func TestValidateRejectsOutOfRangeThreshold(t *testing.T) {
	cfg := Config{Variant: TransformPal2D, TransformMode: transform.ThresholdMode, TransformThreshold: 1.5}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil for threshold 1.5 in ThresholdMode, want an error")
	}
}

func TestValidateAcceptsInRangeThreshold(t *testing.T) {
	cfg := Config{Variant: TransformPal2D, TransformMode: transform.ThresholdMode, TransformThreshold: 0.5}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestValidateIgnoresThresholdInLevelMode(t *testing.T) {
	cfg := Config{Variant: TransformPal2D, TransformMode: transform.LevelMode, TransformThreshold: 99}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil (threshold only checked in ThresholdMode)", err)
	}
}

func TestValidateRejectsNtsc3DTransformWithoutLumaSampler(t *testing.T) {
	cfg := Config{Variant: TransformNtsc3D}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil for TransformNtsc3D with nil LumaEnergyAt, want an error")
	}
}

func TestNewPalVariant(t *testing.T) {
	cfg := Config{Variant: Pal, Pal: palcolour.DefaultConfig()}
	d, err := New(testVideoParams(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.LookBehind() != 0 || d.LookAhead() != 0 {
		t.Errorf("LookBehind/LookAhead = %d/%d, want 0/0", d.LookBehind(), d.LookAhead())
	}
}

func TestNewMonoVariant(t *testing.T) {
	d, err := New(testVideoParams(), Config{Variant: Mono})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.LookBehind() != 0 || d.LookAhead() != 0 {
		t.Errorf("LookBehind/LookAhead = %d/%d, want 0/0", d.LookBehind(), d.LookAhead())
	}
}

func TestNewCombVariantsReportWindow(t *testing.T) {
	cases := []struct {
		variant              Variant
		lookBehind, lookAhead int
	}{
		{Ntsc1D, 0, 0},
		{Ntsc2D, 0, 0},
		{Ntsc3D, 1, 1},
	}
	for _, c := range cases {
		cfg := Config{Variant: c.variant, Comb: comb.DefaultConfig()}
		d, err := New(testVideoParams(), cfg)
		if err != nil {
			t.Fatalf("New(%d): %v", c.variant, err)
		}
		if d.LookBehind() != c.lookBehind || d.LookAhead() != c.lookAhead {
			t.Errorf("variant %d: LookBehind/LookAhead = %d/%d, want %d/%d",
				c.variant, d.LookBehind(), d.LookAhead(), c.lookBehind, c.lookAhead)
		}
	}
}

func TestNewTransformVariantsReportWindow(t *testing.T) {
	cases := []struct {
		variant               Variant
		lookBehind, lookAhead int
	}{
		{TransformPal2D, 0, 0},
		{TransformPal3D, transform.LookBehind3D, transform.LookAhead3D},
	}
	for _, c := range cases {
		cfg := Config{Variant: c.variant, TransformMode: transform.LevelMode}
		d, err := New(testVideoParams(), cfg)
		if err != nil {
			t.Fatalf("New(%d): %v", c.variant, err)
		}
		if d.LookBehind() != c.lookBehind || d.LookAhead() != c.lookAhead {
			t.Errorf("variant %d: LookBehind/LookAhead = %d/%d, want %d/%d",
				c.variant, d.LookBehind(), d.LookAhead(), c.lookBehind, c.lookAhead)
		}
	}
}

func TestNewTransformNtsc3DWithLumaSamplerReportsWindow(t *testing.T) {
	cfg := Config{Variant: TransformNtsc3D, LumaEnergyAt: func(x, y, z int) float64 { return 0 }}
	d, err := New(testVideoParams(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.LookBehind() != transform.LookBehind3D || d.LookAhead() != transform.LookAhead3D {
		t.Errorf("LookBehind/LookAhead = %d/%d, want %d/%d", d.LookBehind(), d.LookAhead(), transform.LookBehind3D, transform.LookAhead3D)
	}
}

func TestNewPropagatesValidateError(t *testing.T) {
	if _, err := New(testVideoParams(), Config{Variant: Variant(-1)}); err == nil {
		t.Error("New() = nil error for an invalid Config, want the Validate() error")
	}
}
