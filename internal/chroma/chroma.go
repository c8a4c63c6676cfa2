/*
DESCRIPTION
  chroma.go defines the Decoder variant set selecting between the PAL,
  NTSC comb, Transform PAL/NTSC and mono chroma-separation back-ends, and a
  factory constructing one from a Config.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package chroma selects and runs one of the decoder back-ends (PalColour,
// Comb, Transform PAL/NTSC or MonoDecoder) against a window of interlaced
// fields, producing a component.Frame.
package chroma

import (
	"github.com/pkg/errors"

	"github.com/ausocean/ldtbc/internal/chroma/comb"
	"github.com/ausocean/ldtbc/internal/chroma/mono"
	"github.com/ausocean/ldtbc/internal/chroma/palcolour"
	"github.com/ausocean/ldtbc/internal/chroma/transform"
	"github.com/ausocean/ldtbc/internal/component"
	"github.com/ausocean/ldtbc/internal/field"
	"github.com/ausocean/ldtbc/internal/videoparams"
)

// Variant discriminates the chroma decoder back-end, per spec §9's
// tagged-variant re-architecture of the original class hierarchy.
type Variant int

// Supported decoder variants.
const (
	Pal Variant = iota
	TransformPal2D
	TransformPal3D
	TransformNtsc3D
	Ntsc1D
	Ntsc2D
	Ntsc3D
	Mono
)

// Config is a sum type discriminated by Variant: only the fields relevant
// to the selected Variant are read.
type Config struct {
	Variant Variant
	Pal     palcolour.Config
	Comb    comb.Config

	TransformMode       transform.Mode
	TransformThreshold  float64
	TransformThresholds []float64

	// LumaEnergyAt, used only by TransformNtsc3D, samples co-located luma
	// spectral energy for the non-linear threshold adjustment (spec §9).
	LumaEnergyAt func(x, y, z int) float64
}

// Decoder decodes the target frame of a window of raw fields into a
// component.Frame. The window holds
// LookBehind() frames before the target, the target frame's two fields,
// then LookAhead() frames after, each frame contributing exactly two
// consecutive fields (first field then second field), ordered by
// increasing field number.
type Decoder interface {
	DecodeFrame(window []*field.SampleField) *component.Frame

	// LookBehind and LookAhead report how many neighbouring frames this
	// decoder needs before/after the current one (0 for 2D/1D variants).
	LookBehind() int
	LookAhead() int
}

// Validate checks cfg for the fail-fast errors New would otherwise only
// discover once a worker starts decoding: an unknown Variant, a
// ThresholdMode transform filter with an out-of-range threshold, and a
// TransformNtsc3D selection missing its required LumaEnergyAt sampler.
func (cfg Config) Validate() error {
	switch cfg.Variant {
	case Pal, Mono, Ntsc1D, Ntsc2D, Ntsc3D, TransformPal2D, TransformPal3D, TransformNtsc3D:
	default:
		return errors.Errorf("chroma: unknown variant %d", cfg.Variant)
	}
	if cfg.TransformMode == transform.ThresholdMode && (cfg.TransformThreshold < 0 || cfg.TransformThreshold > 1) {
		return errors.Errorf("chroma: transform threshold %v out of range [0,1]", cfg.TransformThreshold)
	}
	if cfg.Variant == TransformNtsc3D && cfg.LumaEnergyAt == nil {
		return errors.New("chroma: TransformNtsc3D requires a non-nil LumaEnergyAt sampler")
	}
	return nil
}

// New constructs a Decoder for the given video parameters and Config.
func New(vp videoparams.Parameters, cfg Config) (Decoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Variant {
	case Pal:
		return &palAdapter{palcolour.New(vp, cfg.Pal)}, nil
	case Mono:
		return &monoAdapter{mono.New(vp)}, nil
	case Ntsc1D:
		c := cfg.Comb
		c.Dimensions = comb.OneD
		return &combAdapter{comb.New(vp, c), 0, 0}, nil
	case Ntsc2D:
		c := cfg.Comb
		c.Dimensions = comb.TwoD
		return &combAdapter{comb.New(vp, c), 0, 0}, nil
	case Ntsc3D:
		c := cfg.Comb
		c.Dimensions = comb.ThreeD
		return &combAdapter{comb.New(vp, c), 1, 1}, nil
	case TransformPal2D:
		return newTransform2D(vp, cfg.TransformMode, cfg.TransformThreshold, cfg.TransformThresholds)
	case TransformPal3D:
		return newTransform3D(vp, cfg.TransformMode, cfg.TransformThreshold, cfg.TransformThresholds)
	case TransformNtsc3D:
		return newTransformNtsc3D(vp, cfg.TransformThreshold, cfg.TransformThresholds, cfg.LumaEnergyAt)
	default:
		return nil, errors.Errorf("chroma: unknown variant %d", cfg.Variant)
	}
}

type palAdapter struct{ d *palcolour.Decoder }

func (a *palAdapter) DecodeFrame(window []*field.SampleField) *component.Frame {
	return a.d.DecodeFrame(window[0], window[1])
}
func (a *palAdapter) LookBehind() int { return 0 }
func (a *palAdapter) LookAhead() int  { return 0 }

type monoAdapter struct{ d *mono.Decoder }

func (a *monoAdapter) DecodeFrame(window []*field.SampleField) *component.Frame {
	return a.d.DecodeFrame(window[0], window[1])
}
func (a *monoAdapter) LookBehind() int { return 0 }
func (a *monoAdapter) LookAhead() int  { return 0 }

type combAdapter struct {
	d                     *comb.Decoder
	lookBehind, lookAhead int
}

func (a *combAdapter) DecodeFrame(window []*field.SampleField) *component.Frame {
	i := a.lookBehind * 2
	var prevFirst, prevSecond, nextFirst, nextSecond *field.SampleField
	if a.lookBehind > 0 {
		prevFirst, prevSecond = window[i-2], window[i-1]
	}
	if a.lookAhead > 0 {
		nextFirst, nextSecond = window[i+2], window[i+3]
	}
	return a.d.DecodeFrame(window[i], window[i+1], prevFirst, prevSecond, nextFirst, nextSecond)
}
func (a *combAdapter) LookBehind() int { return a.lookBehind }
func (a *combAdapter) LookAhead() int  { return a.lookAhead }
