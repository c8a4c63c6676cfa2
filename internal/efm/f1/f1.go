/*
DESCRIPTION
  f1.go groups decoded F2 frames into 98-frame subcode sections, decodes
  each section's Q channel for disc/track time, and emits F1 frames with
  zero-padded sections inserted wherever disc time is discontiguous.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package f1 converts CIRC-decoded F2 frames into F1 frames, grouping
// every 98 F2 frames into a subcode section and inserting zero-padded
// sections across any gap in disc time.
package f1

import (
	"github.com/ausocean/ldtbc/internal/efm/circ"
	"github.com/ausocean/ldtbc/internal/efm/section"
)

// Frame is one decoded F1 frame: a 24-byte payload plus the section
// metadata current at the time it was decoded.
type Frame struct {
	Data             [24]byte
	IsCorrupt        bool
	IsEncoderRunning bool
	IsPadding        bool
	DiscTime         section.TrackTime
	TrackTime        section.TrackTime
	TrackNumber      int
}

// Statistics counts the frame categories seen across a Decoder's
// lifetime, matching the reference decoder's reported totals.
type Statistics struct {
	ValidF2Frames        int
	InvalidF2Frames      int
	InitialPaddingFrames int
	MissingSectionFrames int
	EncoderOffFrames     int
	TotalFrames          int
}

// Decoder buffers F2 frames into sections and emits F1 frames,
// maintaining the running disc-time reference needed to detect gaps.
type Decoder struct {
	// NoTimeStamp, when set, treats every section as encoder-running
	// regardless of its Q channel (for non-standard EFM captures with no
	// usable time code).
	NoTimeStamp bool

	buf     []circ.F2Frame
	started bool
	lastTime section.TrackTime
	stats   Statistics
}

// New returns an empty Decoder.
func New() *Decoder { return &Decoder{} }

// Statistics returns the running per-category frame counts.
func (d *Decoder) Statistics() Statistics { return d.stats }

// Process appends f2Frames to the pending buffer and drains every
// complete 98-frame section currently available, returning the F1 frames
// produced (including any inserted padding sections).
func (d *Decoder) Process(f2Frames []circ.F2Frame) []Frame {
	d.buf = append(d.buf, f2Frames...)

	var out []Frame
	for len(d.buf) >= section.FramesPerSection {
		sec := d.buf[:section.FramesPerSection]
		d.buf = d.buf[section.FramesPerSection:]
		out = append(out, d.processSection(sec)...)
	}
	return out
}

func (d *Decoder) processSection(f2 []circ.F2Frame) []Frame {
	var subcodes [section.FramesPerSection]byte
	for i, f := range f2 {
		subcodes[i] = f.Subcode
	}
	sec, err := section.Decode(subcodes)

	currentTime := d.lastTime.AddFrames(1)
	if err == nil && (sec.QMode == 1 || sec.QMode == 4) {
		currentTime = sec.Mode1And4.DiscTime
	}

	var out []Frame
	if !d.started {
		d.started = true
		d.lastTime = currentTime.AddFrames(-1)
		gap := currentTime.Difference(section.NewTrackTime(0, 0, 0))
		out = append(out, d.padGap(gap, &d.stats.InitialPaddingFrames)...)
	} else {
		gap := currentTime.Difference(d.lastTime)
		out = append(out, d.padGap(gap, &d.stats.MissingSectionFrames)...)
	}
	d.lastTime = currentTime

	encoderOn := d.NoTimeStamp
	if !encoderOn && err == nil && (sec.QMode == 1 || sec.QMode == 4) {
		encoderOn = sec.Mode1And4.IsEncoderRunning
	} else if !encoderOn && err != nil {
		// Without a valid Q channel we cannot tell; assume running so
		// audio data is not silently discarded.
		encoderOn = true
	}

	trackNumber := 0
	trackTime := section.TrackTime{}
	if err == nil && (sec.QMode == 1 || sec.QMode == 4) {
		trackNumber = sec.Mode1And4.TrackNumber
		trackTime = sec.Mode1And4.TrackTime
	}

	for _, f := range f2 {
		out = append(out, Frame{
			Data:             f.Data,
			IsCorrupt:        f.IsCorrupt,
			IsEncoderRunning: encoderOn,
			DiscTime:         currentTime,
			TrackTime:        trackTime,
			TrackNumber:      trackNumber,
		})
		if f.IsCorrupt {
			d.stats.InvalidF2Frames++
		} else {
			d.stats.ValidF2Frames++
		}
		if !encoderOn {
			d.stats.EncoderOffFrames++
		}
		d.stats.TotalFrames++
	}
	return out
}

// padGap returns section.FramesPerSection zero F1 frames for each of the
// (gap-1) missing sections between the previous and current disc time,
// tallying them against counter.
func (d *Decoder) padGap(gap int, counter *int) []Frame {
	if gap <= 1 {
		return nil
	}
	var out []Frame
	t := d.lastTime
	for s := 0; s < gap-1; s++ {
		t = t.AddFrames(1)
		for i := 0; i < section.FramesPerSection; i++ {
			out = append(out, Frame{IsPadding: true, IsEncoderRunning: true, DiscTime: t})
		}
		*counter += section.FramesPerSection
		d.stats.TotalFrames += section.FramesPerSection
	}
	return out
}
