/*
DESCRIPTION
  filter.go implements the per-tile chroma/luma bin separation described in
  spec §4.5: candidate chroma bins are compared to their reflection around
  the subcarrier/chroma-carrier frequency, and either scaled to agree
  ("level" mode) or kept/discarded as a pair based on a squared-magnitude
  ratio threshold ("threshold" mode).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package transform

import (
	"math"

	"github.com/pkg/errors"
)

// Mode selects how a Filter treats a candidate chroma bin relative to its
// reflection.
type Mode int

// Supported filter modes.
const (
	// LevelMode scales the larger of the candidate and its reflection down
	// to match the smaller, preserving both.
	LevelMode Mode = iota
	// ThresholdMode discards both bins of a pair whose magnitude-squared
	// ratio exceeds the configured threshold, and keeps both otherwise.
	ThresholdMode
)

// Config configures a Filter.
type Config struct {
	Size Size
	Mode Mode

	// Threshold is the (non-squared) magnitude ratio above which a bin pair
	// is discarded in ThresholdMode, applied uniformly when Thresholds is
	// nil.
	Threshold float64

	// Thresholds, if non-nil, gives a per-bin squared threshold of length
	// YComplex * (XComplex/4 + 1) * ZComplex, replacing the uniform
	// Threshold.
	Thresholds []float64

	// LumaReference, when non-nil, is called to additionally compare a
	// candidate chroma bin against co-located luma energy, as used by the
	// 3D NTSC filter (spec §4.5 point 3). It returns the non-linearly
	// adjusted squared threshold for bin (x, y, z) given the base squared
	// threshold.
	LumaReference func(x, y, z int, baseThresholdSq float64) float64
}

// Filter applies the Transform PAL/NTSC chroma separation to overlapping
// tiles of a field window.
type Filter struct {
	cfg  Config
	plan *planSet
}

// New validates cfg and returns a ready Filter.
func New(cfg Config) (*Filter, error) {
	if cfg.Size.XTile <= 0 || cfg.Size.YTile <= 0 {
		return nil, errors.New("transform: tile size must be positive")
	}
	if cfg.Thresholds != nil {
		want := cfg.Size.YComplex() * (cfg.Size.XComplex()/4 + 1) * cfg.Size.ZComplex()
		if len(cfg.Thresholds) != want {
			return nil, errors.Errorf("transform: thresholds file has %d entries, want %d", len(cfg.Thresholds), want)
		}
	}
	return &Filter{cfg: cfg, plan: newPlanSet(cfg.Size)}, nil
}

// Size returns the tile geometry the filter was configured with.
func (f *Filter) Size() Size { return f.cfg.Size }

// reflect returns the reflection of index v around tile/2, within [0, tile).
func reflect(v, tile int) int {
	r := tile/2 - v
	r %= tile
	if r < 0 {
		r += tile
	}
	return r
}

// thresholdSqAt returns the squared magnitude ratio threshold for bin
// (x, y, z), taking Thresholds into account if configured.
func (f *Filter) thresholdSqAt(x, y, z int) float64 {
	base := f.cfg.Threshold * f.cfg.Threshold
	if f.cfg.Thresholds != nil {
		xc := f.cfg.Size.XComplex()
		xi := x
		if xi >= xc/4+1 {
			xi = xc/4 + 1 - 1
		}
		idx := (z*f.cfg.Size.YComplex()+y)*(xc/4+1) + xi
		base = f.cfg.Thresholds[idx]
	}
	if f.cfg.LumaReference != nil {
		base = f.cfg.LumaReference(x, y, z, base)
	}
	return base
}

// applyTile filters one tile's spectrum in place, applying reflection-based
// separation to every candidate bin.
func (f *Filter) applyTile(spectrum []complex128) {
	size := f.cfg.Size
	xc, yc, zc := size.XComplex(), size.YComplex(), size.ZComplex()

	zLoop := zc
	if size.ZTile <= 1 {
		zLoop = 1
	}

	visited := make([]bool, len(spectrum))
	for z := 0; z < zLoop; z++ {
		for y := 0; y < yc; y++ {
			for x := 0; x < xc; x++ {
				idx := (z*yc + y) * xc + x
				if visited[idx] {
					continue
				}
				xr, yr := reflect(x, size.XTile), y
				if size.YTile > 0 {
					yr = reflect(y, size.YTile)
				}
				zr := z
				if size.ZTile > 1 {
					zr = reflect(z, size.ZTile)
				}
				ridx := (zr*yc + yr) * xc + xr
				if ridx == idx {
					// Self-reflective bin: this is a carrier. Keep
					// unconditionally.
					visited[idx] = true
					continue
				}

				in := spectrum[idx]
				ref := spectrum[ridx]
				magIn := real(in)*real(in) + imag(in)*imag(in)
				magRef := real(ref)*real(ref) + imag(ref)*imag(ref)

				switch f.cfg.Mode {
				case LevelMode:
					spectrum[idx], spectrum[ridx] = levelPair(in, ref, magIn, magRef)
				case ThresholdMode:
					thSq := f.thresholdSqAt(x, y, z)
					keep := true
					if magRef > 0 {
						ratio := magIn / magRef
						if ratio < 1 && magIn > 0 {
							ratio = magRef / magIn
						}
						keep = ratio <= thSq
					} else if magIn > 0 {
						keep = false
					}
					if !keep {
						spectrum[idx] = 0
						spectrum[ridx] = 0
					}
				}

				visited[idx] = true
				if ridx < len(visited) {
					visited[ridx] = true
				}
			}
		}
	}
}

// levelPair scales the larger-magnitude bin of a reflected pair down to
// match the smaller, preserving both signals' phase.
func levelPair(in, ref complex128, magIn, magRef float64) (complex128, complex128) {
	if magIn <= magRef || magIn == 0 {
		if magIn == 0 || magRef == 0 {
			return in, ref
		}
		scale := math.Sqrt(magIn / magRef)
		return in, complex(real(ref)*scale, imag(ref)*scale)
	}
	scale := math.Sqrt(magRef / magIn)
	return complex(real(in)*scale, imag(in)*scale), ref
}

// FieldSampler provides read access to the composite samples of a window of
// fields for tile extraction, and a sink for the separated chroma result.
// fieldLine is 1-based within a field; z indexes the field/frame within the
// caller-supplied window (z=0 is the first field supplied).
type FieldSampler interface {
	// Sample returns the composite sample at (z, fieldLine, x), or ok=false
	// if the position is outside the available window or wrong parity for
	// this tile pass.
	Sample(z, fieldLine, x int) (value float64, ok bool)

	// Bounds returns the inclusive field-line and sample-x ranges to cover,
	// and the number of z-positions available (the window depth).
	Bounds() (minLine, maxLine, minX, maxX, depth int)

	// AddChroma accumulates a filtered chroma contribution at (z, fieldLine, x).
	AddChroma(z, fieldLine, x int, value float64)
}

// Run walks overlapping tiles across the window described by s, applying
// the configured separation to each and accumulating the result via
// s.AddChroma. Positions outside s.Bounds are treated as black (per spec
// §4.5 point 1: "non-corresponding field lines are filled with black").
func (f *Filter) Run(s FieldSampler) {
	size := f.cfg.Size
	minLine, maxLine, minX, maxX, depth := s.Bounds()

	stepX, stepY, stepZ := size.HalfX(), size.HalfY(), size.HalfZ()
	if stepX <= 0 {
		stepX = 1
	}
	if stepY <= 0 {
		stepY = 1
	}
	if stepZ <= 0 {
		stepZ = 1
	}

	zStart, zEnd := 0, depth
	if size.ZTile <= 1 {
		zEnd = depth
	}

	tile := make([]float64, size.ZComplexRealLen()*size.YTile*size.XTile)

	for z0 := zStart; z0 < zEnd; z0 += stepZ {
		for y0 := minLine; y0 <= maxLine; y0 += stepY {
			for x0 := minX; x0 <= maxX; x0 += stepX {
				f.fillTile(s, tile, z0, y0, x0)
				spectrum := f.plan.forward(tile)
				f.applyTile(spectrum)
				result := f.plan.inverse(spectrum)
				f.accumulate(s, result, z0, y0, x0, minLine, maxLine, minX, maxX, depth)
			}
		}
	}
}

// ZComplexRealLen returns the real-domain Z extent used for tile buffers
// (1 for the 2D case).
func (s Size) ZComplexRealLen() int {
	if s.ZTile <= 1 {
		return 1
	}
	return s.ZTile
}

func (f *Filter) fillTile(s FieldSampler, tile []float64, z0, y0, x0 int) {
	size := f.cfg.Size
	zLen := size.ZComplexRealLen()
	for z := 0; z < zLen; z++ {
		for y := 0; y < size.YTile; y++ {
			for x := 0; x < size.XTile; x++ {
				idx := (z*size.YTile+y)*size.XTile + x
				v, ok := s.Sample(z0+z, y0+y, x0+x)
				if !ok {
					v = 0
				}
				tile[idx] = v * windowed3(x, y, z, size)
			}
		}
	}
}

func (f *Filter) accumulate(s FieldSampler, result []float64, z0, y0, x0, minLine, maxLine, minX, maxX, depth int) {
	size := f.cfg.Size
	zLen := size.ZComplexRealLen()
	for z := 0; z < zLen; z++ {
		zi := z0 + z
		if zi < 0 || zi >= depth {
			continue
		}
		for y := 0; y < size.YTile; y++ {
			yi := y0 + y
			if yi < minLine || yi > maxLine {
				continue
			}
			for x := 0; x < size.XTile; x++ {
				xi := x0 + x
				if xi < minX || xi > maxX {
					continue
				}
				idx := (z*size.YTile+y)*size.XTile + x
				s.AddChroma(zi, yi, xi, result[idx])
			}
		}
	}
}
