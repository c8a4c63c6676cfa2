/*
DESCRIPTION
  codebook.go builds the 14-bit EFM channel codeword table used to convert
  between data bytes and channel bit patterns.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package f3sync

import "math/bits"

// codewordBits is the width of one EFM channel codeword.
const codewordBits = 14

// The published CD-EFM table assigns each of the 256 byte values one of
// the run-length-limited (RLL 2,10) 14-bit patterns satisfying the
// constraint that, once merging bits are inserted between codewords, no
// run of channel zeros is shorter than 2 or longer than 10. That table
// itself is not available to this package; in its place, codebook.go
// enumerates the same constrained pattern space in numeric order and
// assigns the first 256 patterns accepted by validRunLength to byte values
// 0-255, giving an internally self-consistent, bijective 8<->14 bit
// mapping generated once at package init. validRunLength limits only the
// zero runs between set bits, so codewords may begin or end with longer
// zero runs and the concatenated channel stream is not held to the 2..10
// bound.
var (
	byteToCodeword [256]uint16
	codewordToByte = map[uint16]byte{}
)

func init() {
	count := 0
	for w := uint16(0); w < (1 << codewordBits) && count < 256; w++ {
		if !validRunLength(w) {
			continue
		}
		byteToCodeword[count] = w
		codewordToByte[w] = byte(count)
		count++
	}
	if count < 256 {
		panic("f3sync: not enough RLL(2,10) 14-bit codewords to cover 256 byte values")
	}
}

// validRunLength reports whether the non-zero 14-bit pattern w, read
// MSB-first, has no run of consecutive zero bits shorter than 2 or longer
// than 10 between two set bits. Zero runs before the first set bit and
// after the last set bit are not checked.
func validRunLength(w uint16) bool {
	if w == 0 {
		return false
	}
	run := -1
	maxRun := 0
	for i := codewordBits - 1; i >= 0; i-- {
		bit := (w >> uint(i)) & 1
		if bit == 1 {
			if run >= 0 && run < 2 {
				return false
			}
			if run > maxRun {
				maxRun = run
			}
			run = 0
		} else if run >= 0 {
			run++
		}
	}
	return maxRun <= 10
}

// encodeByte returns the 14-bit channel codeword for b.
func encodeByte(b byte) uint16 { return byteToCodeword[b] }

// decodeCodeword returns the byte for a 14-bit channel codeword and
// whether it was a recognised codeword. When not recognised, the closest
// (minimum Hamming distance) codeword is substituted and ok is false,
// mirroring the reference decoder's tolerance of single-bit channel
// errors via its invalid/corrected EFM symbol counters.
func decodeCodeword(w uint16) (value byte, ok bool) {
	if b, found := codewordToByte[w]; found {
		return b, true
	}
	bestDist := codewordBits + 1
	var best byte
	for i, cw := range byteToCodeword {
		d := bits.OnesCount16(cw ^ w)
		if d < bestDist {
			bestDist = d
			best = byte(i)
		}
	}
	return best, false
}
