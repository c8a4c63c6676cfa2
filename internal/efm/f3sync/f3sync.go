/*
DESCRIPTION
  f3sync.go implements the EFM-to-F3-frame state machine: it walks a stream
  of T-values (channel bit run lengths), locates frame sync using the
  T11+T11 marker, tolerates small framing errors, and hands each frame's
  T-values to the F3 frame symbol converter.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package f3sync decodes a stream of EFM T-values (channel-bit run lengths)
// into a sequence of F3 frames, performing frame synchronisation on the
// T11+T11 sync pattern.
package f3sync

// T-value bounds: the EFM run-length channel code only produces run
// lengths of 3 to 11 channel-bit periods.
const (
	minT = 3
	maxT = 11
	sync = 11

	frameBits       = 588
	maxTValuesFrame = 189 // ceil((588 - 11 - 11) / 3)
	initialSearchLen = 588 * 4
	maxBadSyncs      = 16
)

// Statistics mirrors the counters the reference decoder reports after a
// run, used by callers (and scenario S4) to confirm sync-loss handling.
type Statistics struct {
	ValidSyncs, UndershootSyncs, OvershootSyncs int
	ValidFrames, UndershootFrames, OvershootFrames int
	InRangeTValues, OutOfRangeTValues int
	SyncLoss int
}

type state int

const (
	stateInitial state = iota
	stateFindInitialSync1
	stateFindInitialSync2
	stateFindSecondSync
	stateSyncLost
	stateProcessFrame
)

// Decoder converts a stream of T-values into F3Frames.
type Decoder struct {
	buf   []byte
	state state

	sequentialGoodSyncs int
	sequentialBadSyncs  int
	endSyncTransition   int

	stats Statistics
}

// New returns a Decoder ready to process T-values from the start of a
// stream (unsynchronised).
func New() *Decoder {
	return &Decoder{state: stateInitial}
}

// Statistics returns the decoder's running counters.
func (d *Decoder) Statistics() Statistics { return d.stats }

// Process appends tValues to the internal buffer and returns every F3Frame
// that can be completed from the data seen so far.
func (d *Decoder) Process(tValues []byte) []Frame {
	d.buf = append(d.buf, tValues...)

	var out []Frame
	waiting := false
	for !waiting {
		switch d.state {
		case stateInitial:
			d.state = stateFindInitialSync1
		case stateFindInitialSync1:
			waiting = d.findInitialSync1()
		case stateFindInitialSync2:
			waiting = d.findInitialSync2()
		case stateFindSecondSync:
			waiting = d.findSecondSync()
		case stateSyncLost:
			d.stats.SyncLoss++
			d.state = stateFindInitialSync1
		case stateProcessFrame:
			out = append(out, d.processFrame())
		}
	}
	return out
}

func (d *Decoder) findInitialSync1() bool {
	pos := -1
	for i := 0; i+1 < len(d.buf); i++ {
		if d.buf[i] == sync && d.buf[i+1] == sync {
			pos = i
			break
		}
	}
	if pos == -1 {
		if len(d.buf) > 0 {
			d.buf = d.buf[len(d.buf)-1:]
		}
		return true
	}
	d.buf = d.buf[pos:]
	d.state = stateFindInitialSync2
	return false
}

func (d *Decoder) findInitialSync2() bool {
	tTotal := sync
	end := -1
	for i := 1; i+1 < len(d.buf); i++ {
		if i > 1 && d.buf[i] == sync && d.buf[i+1] == sync {
			end = i
			break
		}
		tTotal += int(d.buf[i])
		if tTotal > initialSearchLen {
			end = i
			break
		}
	}

	if tTotal > initialSearchLen {
		d.buf = d.buf[end:]
		d.state = stateFindInitialSync1
		return false
	}
	if end == -1 {
		return true
	}
	if tTotal < frameBits-1 || tTotal > frameBits+1 {
		d.buf = d.buf[end:]
		return false
	}

	d.sequentialGoodSyncs = 0
	d.endSyncTransition = end
	d.state = stateProcessFrame
	return false
}

func (d *Decoder) findSecondSync() bool {
	i, tTotal := 0, 0
	for i < len(d.buf) && tTotal < frameBits {
		tTotal += int(d.buf[i])
		i++
	}
	if tTotal < frameBits {
		return true
	}
	if len(d.buf)-i < 2 {
		return true
	}

	switch {
	case tTotal == frameBits:
		d.endSyncTransition = i
		d.sequentialBadSyncs = 0
		d.stats.ValidSyncs++
		d.sequentialGoodSyncs++
	case d.buf[i] == sync && d.buf[i+1] == sync:
		d.endSyncTransition = i
		d.stats.ValidSyncs++
	case i > 0 && d.buf[i-1] == sync && d.buf[i] == sync:
		d.endSyncTransition = i - 1
		d.stats.UndershootSyncs++
	case i > 0 && d.buf[i-1] >= 10 && d.buf[i] >= 10:
		d.endSyncTransition = i - 1
		d.stats.UndershootSyncs++
	default:
		diff := tTotal - frameBits
		if absInt(diff) < 3 {
			d.endSyncTransition = i
			d.sequentialBadSyncs++
			if diff > 0 {
				d.stats.OvershootSyncs++
			} else {
				d.stats.UndershootSyncs++
			}
		} else {
			if diff > 0 {
				d.endSyncTransition = i - 1
			} else {
				d.endSyncTransition = i
			}
			d.sequentialBadSyncs++
			if diff > 0 {
				d.stats.OvershootSyncs++
			} else {
				d.stats.UndershootSyncs++
			}
		}
		d.sequentialGoodSyncs = 0
	}

	if d.sequentialBadSyncs > maxBadSyncs {
		d.sequentialBadSyncs = 0
		d.state = stateSyncLost
		return false
	}

	d.state = stateProcessFrame
	return false
}

func (d *Decoder) processFrame() Frame {
	length := d.endSyncTransition
	if length > maxTValuesFrame {
		length = maxTValuesFrame
	}

	tTotal := 0
	values := make([]byte, length)
	for i := 0; i < length; i++ {
		v := d.buf[i]
		if v < minT || v > maxT {
			d.stats.OutOfRangeTValues++
		} else {
			d.stats.InRangeTValues++
		}
		tTotal += int(v)
		values[i] = v
	}

	switch {
	case tTotal < frameBits:
		d.stats.UndershootFrames++
	case tTotal > frameBits:
		d.stats.OvershootFrames++
	default:
		d.stats.ValidFrames++
	}

	frame := NewFrame(values)

	if d.endSyncTransition < len(d.buf) {
		d.buf = d.buf[d.endSyncTransition:]
	} else {
		d.buf = d.buf[:0]
	}
	d.state = stateFindSecondSync
	return frame
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
