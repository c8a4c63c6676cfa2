/*
DESCRIPTION
  rs_test.go exercises Code.Decode against codewords built by a
  test-local systematic Reed-Solomon encoder: clean codewords, codewords
  with correctable byte errors, codewords with erasures, and codewords
  that exceed the code's correction capacity.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package circ

import (
	"math/rand"
	"testing"
)

// genPoly builds the generator polynomial with roots alpha^1..alpha^nsym,
// matching the roots Code.syndromes evaluates against.
func genPoly(nsym int) []byte {
	g := []byte{1}
	for i := 0; i < nsym; i++ {
		root := gfPow(2, i+1)
		g = polyMul(g, []byte{1, root})
	}
	return g
}

// rsEncode returns a systematic codeword for c with data in its first K
// (highest-degree) symbols and computed parity in the last N-K symbols.
func rsEncode(c Code, data []byte) []byte {
	if len(data) != c.K {
		panic("rsEncode: wrong data length")
	}
	nsym := c.N - c.K
	gen := genPoly(nsym)

	remainder := make([]byte, c.N)
	copy(remainder, data)
	for i := 0; i < c.K; i++ {
		coef := remainder[i]
		if coef == 0 {
			continue
		}
		for j, gc := range gen {
			remainder[i+j] ^= gfMul(gc, coef)
		}
	}

	out := make([]byte, c.N)
	copy(out, data)
	copy(out[c.K:], remainder[c.K:])
	return out
}

func randomData(n int, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	data := make([]byte, n)
	r.Read(data)
	return data
}

func TestRSDecodeCleanCodeword(t *testing.T) {
	c := NewCode(32, 28)
	data := randomData(c.K, 1)
	codeword := rsEncode(c, data)

	corrected, err := c.Decode(codeword, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if corrected != 0 {
		t.Errorf("corrected = %d, want 0 for a clean codeword", corrected)
	}
	for i, b := range data {
		if codeword[i] != b {
			t.Errorf("data[%d] = %d, want %d", i, codeword[i], b)
		}
	}
}

func TestRSDecodeCorrectableErrors(t *testing.T) {
	c := NewCode(32, 28)
	maxErrors := (c.N - c.K) / 2 // 2

	data := randomData(c.K, 2)
	want := rsEncode(c, data)

	codeword := append([]byte(nil), want...)
	codeword[3] ^= 0xFF
	codeword[10] ^= 0x5A

	corrected, err := c.Decode(codeword, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if corrected != maxErrors {
		t.Errorf("corrected = %d, want %d", corrected, maxErrors)
	}
	for i := range codeword {
		if codeword[i] != want[i] {
			t.Errorf("codeword[%d] = %d, want %d", i, codeword[i], want[i])
		}
	}
}

func TestRSDecodeErasures(t *testing.T) {
	c := NewCode(28, 24)
	nsym := c.N - c.K // 4

	data := randomData(c.K, 3)
	want := rsEncode(c, data)

	codeword := append([]byte(nil), want...)
	erasures := []int{0, 5, 12, 27}
	for _, pos := range erasures {
		codeword[pos] = 0x00
	}

	corrected, err := c.Decode(codeword, erasures)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if corrected != nsym {
		t.Errorf("corrected = %d, want %d", corrected, nsym)
	}
	for i := range codeword {
		if codeword[i] != want[i] {
			t.Errorf("codeword[%d] = %d, want %d", i, codeword[i], want[i])
		}
	}
}

func TestRSDecodeTooManyErrors(t *testing.T) {
	c := NewCode(32, 28)

	data := randomData(c.K, 4)
	codeword := rsEncode(c, data)
	// 3 byte errors exceeds the 2-error correction capacity of RS(32,28).
	codeword[0] ^= 0xFF
	codeword[1] ^= 0xFF
	codeword[2] ^= 0xFF

	if _, err := c.Decode(codeword, nil); err == nil {
		t.Error("Decode succeeded with 3 errors, want an error for a (32,28) code")
	}
}

func TestRSDecodeTooManyErasures(t *testing.T) {
	c := NewCode(28, 24)
	erasures := []int{0, 1, 2, 3, 4} // 5 > N-K (4)

	data := randomData(c.K, 5)
	codeword := rsEncode(c, data)

	if _, err := c.Decode(codeword, erasures); err == nil {
		t.Error("Decode succeeded with more erasures than parity symbols")
	}
}
