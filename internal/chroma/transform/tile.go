/*
DESCRIPTION
  tile.go provides the overlapping-tile FFT machinery shared by the
  Transform PAL (2D/3D) and Transform NTSC 3D chroma/luma separation
  filters: windowing, forward/inverse transforms composed axis-wise from
  1D real and complex FFTs, and the tile-stepping driver that walks a field
  window and accumulates filtered chroma back into it.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package transform implements the frequency-domain "Transform PAL/NTSC"
// chroma and luma separation filters, built from overlapping-tile 2D/3D
// FFTs composed axis-wise from gonum's 1D real and complex transforms
// (there being no 3D primitive in the pack's FFT libraries).
package transform

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Size describes the dimensions of one analysis tile. ZTile is 1 for the 2D
// (single-field) filters.
type Size struct {
	XTile, YTile, ZTile int
}

// XComplex, YComplex and ZComplex are the number of frequency bins produced
// by the forward transform along each axis.
func (s Size) XComplex() int { return s.XTile/2 + 1 }
func (s Size) YComplex() int { return s.YTile }
func (s Size) ZComplex() int {
	if s.ZTile <= 1 {
		return 1
	}
	return s.ZTile
}

// HalfX, HalfY, HalfZ are the tile step sizes (half the tile size in each
// dimension), giving 50%-overlapped tiling.
func (s Size) HalfX() int { return s.XTile / 2 }
func (s Size) HalfY() int { return s.YTile / 2 }
func (s Size) HalfZ() int {
	if s.ZTile <= 1 {
		return 1
	}
	return s.ZTile / 2
}

// planSet owns the FFT plans for a Size. Plans are created once and reused;
// they are immutable and therefore safe to share for the lifetime of a
// single decoder instance (one planSet per worker, per spec §5).
type planSet struct {
	size Size
	xfft *fourier.FFT
	yfft *fourier.CmplxFFT
	zfft *fourier.CmplxFFT
}

func newPlanSet(size Size) *planSet {
	p := &planSet{size: size, xfft: fourier.NewFFT(size.XTile)}
	if size.YTile > 1 {
		p.yfft = fourier.NewCmplxFFT(size.YTile)
	}
	if size.ZTile > 1 {
		p.zfft = fourier.NewCmplxFFT(size.ZTile)
	}
	return p
}

// window returns the raised-cosine analysis window value for sample i of n:
// 0.5 - 0.5*cos(2*pi*(i+0.5)/n). Because this window is symmetric, summing
// the overlapping inverse-FFT tile outputs reconstructs the input exactly,
// with no inverse window required.
func window(i, n int) float64 {
	if n <= 1 {
		return 1
	}
	return 0.5 - 0.5*math.Cos(2*math.Pi*(float64(i)+0.5)/float64(n))
}

// windowed3 returns the product of the three axis windows for tile position
// (x, y, z).
func windowed3(x, y, z int, size Size) float64 {
	wx := window(x, size.XTile)
	wy := window(y, size.YTile)
	wz := 1.0
	if size.ZTile > 1 {
		wz = window(z, size.ZTile)
	}
	return wx * wy * wz
}

// forward transforms a real, windowed tile (flattened z-major, then y, then
// x) into its complex spectrum, composing axis-wise 1D transforms: real FFT
// along X, then complex FFT along Y, then (for 3D) complex FFT along Z.
func (p *planSet) forward(tile []float64) []complex128 {
	size := p.size
	xc, yc, zc := size.XComplex(), size.YComplex(), size.ZComplex()

	// X axis: real -> complex half-spectrum.
	zLen := size.ZTile
	if zLen < 1 {
		zLen = 1
	}
	stage1 := make([]complex128, zc*size.YTile*xc)
	row := make([]float64, size.XTile)
	dst := make([]complex128, xc)
	for z := 0; z < zLen; z++ {
		for y := 0; y < size.YTile; y++ {
			base := (z*size.YTile + y) * size.XTile
			copy(row, tile[base:base+size.XTile])
			p.xfft.Coefficients(dst, row)
			outBase := (z*size.YTile + y) * xc
			copy(stage1[outBase:outBase+xc], dst)
		}
	}

	// Y axis: complex -> complex, per (z, x) column.
	stage2 := stage1
	if p.yfft != nil {
		stage2 = make([]complex128, len(stage1))
		col := make([]complex128, size.YTile)
		outCol := make([]complex128, size.YTile)
		zLoop := size.ZTile
		if zLoop < 1 {
			zLoop = 1
		}
		for z := 0; z < zLoop; z++ {
			for x := 0; x < xc; x++ {
				for y := 0; y < size.YTile; y++ {
					col[y] = stage1[(z*size.YTile+y)*xc+x]
				}
				p.yfft.Coefficients(outCol, col)
				for y := 0; y < size.YTile; y++ {
					stage2[(z*size.YTile+y)*xc+x] = outCol[y]
				}
			}
		}
	}

	// Z axis: complex -> complex, per (y, x) column.
	if p.zfft == nil {
		return stage2
	}
	stage3 := make([]complex128, len(stage2))
	col := make([]complex128, size.ZTile)
	outCol := make([]complex128, size.ZTile)
	for y := 0; y < size.YTile; y++ {
		for x := 0; x < xc; x++ {
			for z := 0; z < size.ZTile; z++ {
				col[z] = stage2[(z*size.YTile+y)*xc+x]
			}
			p.zfft.Coefficients(outCol, col)
			for z := 0; z < size.ZTile; z++ {
				stage3[(z*size.YTile+y)*xc+x] = outCol[z]
			}
		}
	}
	return stage3
}

// inverse is the inverse of forward: complex Z, then complex Y, then real X,
// with the result normalised by XTile*YTile*ZTile.
func (p *planSet) inverse(spectrum []complex128) []float64 {
	size := p.size
	xc, zLoopLen := size.XComplex(), size.ZTile
	if zLoopLen < 1 {
		zLoopLen = 1
	}

	stage := spectrum
	if p.zfft != nil {
		stage = make([]complex128, len(spectrum))
		col := make([]complex128, size.ZTile)
		outCol := make([]complex128, size.ZTile)
		for y := 0; y < size.YTile; y++ {
			for x := 0; x < xc; x++ {
				for z := 0; z < size.ZTile; z++ {
					col[z] = spectrum[(z*size.YTile+y)*xc+x]
				}
				p.zfft.Sequence(outCol, col)
				for z := 0; z < size.ZTile; z++ {
					stage[(z*size.YTile+y)*xc+x] = outCol[z]
				}
			}
		}
	}

	if p.yfft != nil {
		stage2 := make([]complex128, len(stage))
		col := make([]complex128, size.YTile)
		outCol := make([]complex128, size.YTile)
		for z := 0; z < zLoopLen; z++ {
			for x := 0; x < xc; x++ {
				for y := 0; y < size.YTile; y++ {
					col[y] = stage[(z*size.YTile+y)*xc+x]
				}
				p.yfft.Sequence(outCol, col)
				for y := 0; y < size.YTile; y++ {
					stage2[(z*size.YTile+y)*xc+x] = outCol[y]
				}
			}
		}
		stage = stage2
	}

	out := make([]float64, zLoopLen*size.YTile*size.XTile)
	row := make([]float64, size.XTile)
	dst := make([]complex128, xc)
	for z := 0; z < zLoopLen; z++ {
		for y := 0; y < size.YTile; y++ {
			base := (z*size.YTile + y) * xc
			copy(dst, stage[base:base+xc])
			p.xfft.Sequence(row, dst)
			outBase := (z*size.YTile + y) * size.XTile
			copy(out[outBase:outBase+size.XTile], row)
		}
	}

	norm := float64(size.XTile * size.YTile)
	if size.ZTile > 1 {
		norm *= float64(size.ZTile)
	}
	for i := range out {
		out[i] /= norm
	}
	return out
}
