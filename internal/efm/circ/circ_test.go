/*
DESCRIPTION
  circ_test.go exercises Decoder's fill-then-emit delay-line behaviour and
  its end-to-end correction of a single erased F3 symbol.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package circ

import (
	"testing"

	"github.com/ausocean/ldtbc/internal/efm/f3sync"
)

// allValidFrame returns an F3 frame carrying all-zero audio data with every
// symbol flagged valid. Decode inverts the stored parity symbols, so the
// zero C2 parity is stored as 0xFF and the C1 parity is computed over that
// stored C2 parity and stored inverted; the frame then decodes clean
// through both C1 and C2.
func allValidFrame(subcode byte) f3sync.Frame {
	var f f3sync.Frame
	f.Subcode = subcode
	for i := range f.SymbolValid {
		f.SymbolValid[i] = true
	}
	c1Data := make([]byte, c1.K)
	for i := 24; i < c1.K; i++ {
		c1Data[i] = 0xFF
	}
	copy(f.Data[:], rsEncode(c1, c1Data))
	invertParity(f.Data[c1.K:])
	return f
}

func TestDecoderFillsBeforeEmitting(t *testing.T) {
	d := New()
	depth := 27 * interleaveDelay // deepest branch (index 27)

	for i := 0; i < depth; i++ {
		if _, ok := d.Decode(allValidFrame(byte(i))); ok {
			t.Fatalf("Decode emitted a frame after only %d inputs, want not-ok until %d", i+1, depth+1)
		}
	}
	if _, ok := d.Decode(allValidFrame(byte(depth))); !ok {
		t.Fatalf("Decode did not emit after %d inputs", depth+1)
	}
}

func TestDecoderCleanFramesStayValid(t *testing.T) {
	d := New()
	depth := 27*interleaveDelay + 1

	var last F2Frame
	var ok bool
	for i := 0; i < depth; i++ {
		last, ok = d.Decode(allValidFrame(byte(i)))
	}
	if !ok {
		t.Fatal("Decode never emitted a frame")
	}
	if last.IsCorrupt {
		t.Error("clean all-zero input decoded to IsCorrupt = true")
	}
	for i, b := range last.Data {
		if b != 0 {
			t.Errorf("Data[%d] = %d, want 0", i, b)
		}
	}
	for i, fl := range last.ErrorFlags {
		if fl != Valid {
			t.Errorf("ErrorFlags[%d] = %v, want Valid", i, fl)
		}
	}
}

func TestDecoderSubcodePassesThroughDelay(t *testing.T) {
	d := New()
	const constSubcode = 0x42
	depth := 27*interleaveDelay + 10

	var last F2Frame
	var sawOutput bool
	for i := 0; i < depth; i++ {
		f, ok := d.Decode(allValidFrame(constSubcode))
		if ok {
			last, sawOutput = f, true
		}
	}
	if !sawOutput {
		t.Fatal("Decode never emitted a frame")
	}
	if last.Subcode != constSubcode {
		t.Errorf("Subcode = %#x, want %#x once every input carries the same subcode", last.Subcode, constSubcode)
	}
}

func TestDecoderFlagsErasedSymbolCorrectable(t *testing.T) {
	d := New()
	depth := 27*interleaveDelay + 1

	var last F2Frame
	for i := 0; i < depth; i++ {
		f := allValidFrame(byte(i))
		if i == depth-1-(5*interleaveDelay+1) {
			// Flag one C1 symbol invalid in the input whose branch-5
			// symbol reaches C2 in the last emitted frame; C1 has a single
			// erasure well within its correction capacity and should flag
			// it Correctable once it reaches C2 as an erasure pointer.
			f.SymbolValid[5] = false
		}
		var ok bool
		last, ok = d.Decode(f)
		_ = ok
	}
	if last.IsCorrupt {
		t.Error("a single erased symbol should not mark the frame IsCorrupt")
	}
	if last.ErrorFlags[5] != Correctable {
		t.Errorf("ErrorFlags[5] = %v, want Correctable", last.ErrorFlags[5])
	}
}
