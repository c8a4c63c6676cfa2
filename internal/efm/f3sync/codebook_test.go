/*
DESCRIPTION
  codebook_test.go exercises the generated 8<->14 bit codeword table's
  bijectivity and its nearest-codeword error correction.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package f3sync

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for b := 0; b < 256; b++ {
		w := encodeByte(byte(b))
		got, ok := decodeCodeword(w)
		if !ok {
			t.Fatalf("decodeCodeword(encodeByte(%d)=%#x) not recognised", b, w)
		}
		if got != byte(b) {
			t.Errorf("decodeCodeword(encodeByte(%d)) = %d, want %d", b, got, b)
		}
	}
}

func TestCodewordsAreDistinct(t *testing.T) {
	seen := make(map[uint16]bool, 256)
	for b := 0; b < 256; b++ {
		w := encodeByte(byte(b))
		if seen[w] {
			t.Fatalf("codeword %#x assigned to more than one byte value", w)
		}
		seen[w] = true
	}
}

func TestCodewordsSatisfyRunLength(t *testing.T) {
	for b := 0; b < 256; b++ {
		w := encodeByte(byte(b))
		if !validRunLength(w) {
			t.Errorf("encodeByte(%d) = %#x fails the RLL(2,10) constraint", b, w)
		}
	}
}

func TestDecodeUnrecognisedCodewordCorrects(t *testing.T) {
	// An all-ones 14-bit pattern violates the RLL(2,10) constraint (every
	// bit is a run of length 1), so it can never be a valid codeword.
	const allOnes uint16 = 1<<codewordBits - 1
	if validRunLength(allOnes) {
		t.Fatal("test assumption broken: all-ones pattern unexpectedly valid")
	}

	if _, ok := decodeCodeword(allOnes); ok {
		t.Fatal("decodeCodeword(allOnes) = ok true, want false for an unrecognised pattern")
	}
}
