/*
DESCRIPTION
  presets.go provides the three concrete tile geometries used by the
  Transform chroma/luma separation filters (spec §4.5): 2D PAL, 3D PAL and
  3D NTSC.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package transform

import "math"

// Pal2DSize is the tile geometry for the 2D Transform PAL filter.
var Pal2DSize = Size{XTile: 32, YTile: 16, ZTile: 1}

// Pal3DSize is the tile geometry for the 3D Transform PAL filter.
var Pal3DSize = Size{XTile: 16, YTile: 32, ZTile: 8}

// Ntsc3DSize is the tile geometry for the 3D Transform NTSC filter. Its Z
// tiling requires a lookbehind of (HalfZTile+1)/2 = 2 frames and a
// lookahead of ZTile/2 = 4 frames.
var Ntsc3DSize = Size{XTile: 16, YTile: 32, ZTile: 8}

// LookBehind3D and LookAhead3D are the frame padding requirements for the
// two 3D filters, per spec §4.5.
var (
	LookBehind3D = (Ntsc3DSize.ZTile/2 + 1) / 2
	LookAhead3D  = Ntsc3DSize.ZTile / 2
)

// NewPal2D returns a Filter configured for the 2D Transform PAL geometry.
func NewPal2D(mode Mode, threshold float64, thresholds []float64) (*Filter, error) {
	return New(Config{Size: Pal2DSize, Mode: mode, Threshold: threshold, Thresholds: thresholds})
}

// NewPal3D returns a Filter configured for the 3D Transform PAL geometry.
func NewPal3D(mode Mode, threshold float64, thresholds []float64) (*Filter, error) {
	return New(Config{Size: Pal3DSize, Mode: mode, Threshold: threshold, Thresholds: thresholds})
}

// NewNtsc3D returns a Filter configured for the 3D Transform NTSC geometry,
// with the non-linear luma-referenced threshold adjustment from spec §9:
// threshold² = (kChromaSq / (kLumaSq + kChromaSq))^(10*threshold0Sq).
func NewNtsc3D(threshold float64, thresholds []float64, lumaEnergyAt func(x, y, z int) float64) (*Filter, error) {
	cfg := Config{Size: Ntsc3DSize, Mode: ThresholdMode, Threshold: threshold, Thresholds: thresholds}
	if lumaEnergyAt != nil {
		cfg.LumaReference = func(x, y, z int, threshold0Sq float64) float64 {
			kChromaSq := threshold0Sq
			kLumaSq := lumaEnergyAt(x, y, z)
			if kLumaSq+kChromaSq == 0 {
				return threshold0Sq
			}
			base := kChromaSq / (kLumaSq + kChromaSq)
			return math.Pow(base, 10*threshold0Sq)
		}
	}
	return New(cfg)
}
