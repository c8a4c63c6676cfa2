/*
DESCRIPTION
  gf256.go implements GF(256) arithmetic over the CD/CIRC primitive
  polynomial x^8+x^4+x^3+x^2+1 (0x11D), the field CIRC's Reed-Solomon codes
  are defined over.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package circ implements the CIRC (Cross-Interleaved Reed-Solomon Code)
// two-stage error correction used between F3 and F2 frames: GF(256)
// arithmetic, a general errors-and-erasures Reed-Solomon decoder, and the
// C1/C2 code instances and de-interleave delay lines CIRC specifies.
package circ

// primPoly is the CD/CIRC field's generator polynomial, x^8+x^4+x^3+x^2+1.
const primPoly = 0x11D

var expTable [512]byte
var logTable [256]int

func init() {
	x := 1
	for i := 0; i < 255; i++ {
		expTable[i] = byte(x)
		logTable[x] = i
		x <<= 1
		if x&0x100 != 0 {
			x ^= primPoly
		}
	}
	for i := 255; i < 512; i++ {
		expTable[i] = expTable[i-255]
	}
}

func gfAdd(a, b byte) byte { return a ^ b }

func gfMul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return expTable[logTable[a]+logTable[b]]
}

func gfDiv(a, b byte) byte {
	if a == 0 {
		return 0
	}
	return expTable[(logTable[a]+255-logTable[b])%255]
}

func gfPow(a byte, n int) byte {
	if a == 0 {
		if n == 0 {
			return 1
		}
		return 0
	}
	e := (logTable[a] * n) % 255
	if e < 0 {
		e += 255
	}
	return expTable[e]
}

func gfInv(a byte) byte { return expTable[255-logTable[a]] }
