/*
DESCRIPTION
  bitwriter.go provides the write-side counterpart to BitReader, packing
  values of any bit width most-significant bit first into a contiguous byte
  slice.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package bitpack

// BitWriter accumulates bits, most-significant-first, and exposes them as a
// byte slice once byte-aligned.
type BitWriter struct {
	buf  []byte
	cur  uint8
	bits int
}

// NewBitWriter returns a new, empty BitWriter.
func NewBitWriter() *BitWriter {
	return &BitWriter{}
}

// WriteBits appends the n least-significant bits of v, most-significant bit
// first.
func (bw *BitWriter) WriteBits(v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		bit := uint8((v >> uint(i)) & 1)
		bw.cur = (bw.cur << 1) | bit
		bw.bits++
		if bw.bits == 8 {
			bw.buf = append(bw.buf, bw.cur)
			bw.cur = 0
			bw.bits = 0
		}
	}
}

// Bytes returns the bytes written so far. If the writer is not currently
// byte-aligned, the final partial byte is padded with zero bits on the
// right.
func (bw *BitWriter) Bytes() []byte {
	if bw.bits == 0 {
		return bw.buf
	}
	out := make([]byte, len(bw.buf)+1)
	copy(out, bw.buf)
	out[len(bw.buf)] = bw.cur << uint(8-bw.bits)
	return out
}

// Len returns the number of complete bits written so far.
func (bw *BitWriter) Len() int {
	return len(bw.buf)*8 + bw.bits
}
