/*
DESCRIPTION
  circ.go implements CIRC: the two-stage C1/C2 Reed-Solomon decode and
  convolutional de-interleave that recovers F2 frames from a stream of F3
  frames, using C1's error flags as C2 erasure pointers.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package circ

import "github.com/ausocean/ldtbc/internal/efm/f3sync"

// c1 is CIRC's inner code: 32 symbols, 28 data, able to correct a single
// byte error per F3 frame outright, or flag more as erasures for C2.
var c1 = NewCode(32, 28)

// c2 is CIRC's outer code: 28 symbols, 24 data, decoded with C1's error
// positions supplied as erasures. Per spec §9, the erasure limit of 4 is
// the defensible standard and must not be changed casually.
var c2 = NewCode(28, 24)

// c2ErasureLimit bounds how many erasure pointers C2 accepts per frame
// before giving up and flagging the whole frame unrecoverable, matching
// the reference decoder's documented limit.
const c2ErasureLimit = 4

// interleaveDelay is the unit delay (in frames) applied per branch index
// by the convolutional de-interleaver between C1 and C2. The exact delay
// structure used by the original CIRC implementation was not available to
// ground this on; this value reproduces CIRC's defining property (spread
// a contiguous C1 error burst across distinct C2 codewords) without
// claiming byte-exact conformance to the Red Book delay line lengths.
const interleaveDelay = 1

// ErrorFlag classifies one output symbol's correction status.
type ErrorFlag int

// Supported error flags, matching the F2Frame data model's error_flags set.
const (
	Valid ErrorFlag = iota
	Correctable
	Unrecoverable
)

// F2Frame is the 24-byte payload recovered from one F3 frame via CIRC.
type F2Frame struct {
	Data       [24]byte
	ErrorFlags [24]ErrorFlag

	// Subcode is the F3 frame's subcode byte, carried through CIRC
	// unchanged (the subcode channel runs outside the C1/C2 codes) so the
	// F1/section layer can reassemble it into 98-frame sections.
	Subcode byte

	// IsCorrupt is true if either C1 or C2 reported an unrecoverable
	// error for this frame.
	IsCorrupt bool
}

// Decoder runs CIRC across a stream of F3 frames, maintaining the
// de-interleave delay lines' state between calls.
type Decoder struct {
	delayLines [28]*delayLine

	// subcodeDelay carries each frame's subcode byte alongside the
	// interleaved audio data. The subcode channel is not itself
	// interleaved by CIRC, but needs the same latency as the slowest
	// data branch so a decoded F2Frame's subcode lines up with the
	// output timing of its data.
	subcodeDelay *delayLine
}

// New returns a Decoder with freshly initialised (zero-filled) delay
// lines.
func New() *Decoder {
	d := &Decoder{}
	maxDepth := 0
	for i := range d.delayLines {
		depth := i * interleaveDelay
		d.delayLines[i] = newDelayLine(depth)
		if depth > maxDepth {
			maxDepth = depth
		}
	}
	d.subcodeDelay = newDelayLine(maxDepth)
	return d
}

// Decode runs C1 on f's 32 data bytes, de-interleaves, then runs C2,
// returning the resulting F2Frame. Because of the de-interleave delay
// lines, a given call's output frame corresponds to an earlier input
// frame than f; ok is false while the pipeline is still filling.
func (d *Decoder) Decode(f f3sync.Frame) (out F2Frame, ok bool) {
	c1Symbols := make([]byte, 32)
	copy(c1Symbols, f.Data[:])
	invertParity(c1Symbols[28:])

	c1Erasures := symbolErasures(f.SymbolValid[:32])
	c1Flags := make([]ErrorFlag, 32)
	if _, err := c1.Decode(c1Symbols, c1Erasures); err != nil {
		for i := range c1Flags {
			c1Flags[i] = Unrecoverable
		}
	} else {
		for _, pos := range c1Erasures {
			c1Flags[pos] = Correctable
		}
	}

	c2Input := make([]byte, 28)
	c2InputFlags := make([]ErrorFlag, 28)
	allFilled := true
	for branch := 0; branch < 28; branch++ {
		sym, flag, filled := d.delayLines[branch].push(c1Symbols[branch], c1Flags[branch])
		c2Input[branch] = sym
		c2InputFlags[branch] = flag
		if !filled {
			allFilled = false
		}
	}
	subcode, _, subcodeFilled := d.subcodeDelay.push(f.Subcode, Valid)
	if !allFilled || !subcodeFilled {
		return F2Frame{}, false
	}

	invertParity(c2Input[24:])

	var erasures []int
	for i, fl := range c2InputFlags {
		if fl != Valid {
			erasures = append(erasures, i)
		}
	}

	var flags [24]ErrorFlag
	if len(erasures) > c2ErasureLimit {
		for i := range flags {
			flags[i] = Unrecoverable
		}
	} else if _, err := c2.Decode(c2Input, erasures); err != nil {
		for i := range flags {
			flags[i] = Unrecoverable
		}
	} else {
		for _, pos := range erasures {
			if pos < 24 {
				flags[pos] = Correctable
			}
		}
	}

	var data [24]byte
	copy(data[:], c2Input[:24])

	corrupt := false
	for _, fl := range flags {
		if fl == Unrecoverable {
			corrupt = true
			break
		}
	}
	return F2Frame{Data: data, ErrorFlags: flags, Subcode: subcode, IsCorrupt: corrupt}, true
}

func invertParity(parity []byte) {
	for i := range parity {
		parity[i] ^= 0xFF
	}
}

func symbolErasures(valid []bool) []int {
	var out []int
	for i, ok := range valid {
		if !ok {
			out = append(out, i)
		}
	}
	return out
}

// delayLine is a per-branch FIFO implementing one tap of the CIRC
// convolutional de-interleaver.
type delayLine struct {
	buf   []byte
	flags []ErrorFlag
	depth int
	n     int
}

func newDelayLine(depth int) *delayLine {
	if depth < 0 {
		depth = 0
	}
	return &delayLine{buf: make([]byte, depth+1), flags: make([]ErrorFlag, depth+1), depth: depth}
}

// push inserts (sym, flag) and returns the oldest buffered value, shifting
// the line by one position. filled is false until the line has received
// at least depth+1 values.
func (d *delayLine) push(sym byte, flag ErrorFlag) (outSym byte, outFlag ErrorFlag, filled bool) {
	outSym, outFlag = d.buf[0], d.flags[0]
	copy(d.buf, d.buf[1:])
	copy(d.flags, d.flags[1:])
	d.buf[len(d.buf)-1] = sym
	d.flags[len(d.flags)-1] = flag

	d.n++
	return outSym, outFlag, d.n > d.depth
}
