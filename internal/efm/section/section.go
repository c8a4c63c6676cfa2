/*
DESCRIPTION
  section.go decodes one CD/LD subcode section's 98 subcode bytes into the
  eight P..W channels and, when the Q channel's CRC-16 validates, its
  track/disc time metadata.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package section decodes CD/LD subcode sections: deinterleaving the P..W
// subcode channels from 98 consecutive F3 subcode bytes, then CRC-16
// verifying and decoding the Q channel's track/disc time metadata.
package section

import "github.com/pkg/errors"

// FramesPerSection is the number of F3 frames (and subcode bytes)
// composing one subcode section, 1/75th of a second.
const FramesPerSection = 98

// TrackTime is a minutes:seconds:frames disc or track position, with 75
// frames per second, matching CD/LD MSF addressing.
type TrackTime struct {
	Minutes, Seconds, Frames int
}

// NewTrackTime constructs a TrackTime from its components.
func NewTrackTime(minutes, seconds, frames int) TrackTime {
	return TrackTime{Minutes: minutes, Seconds: seconds, Frames: frames}
}

// totalFrames is t's position in 1/75s frames since 00:00:00.
func (t TrackTime) totalFrames() int {
	return (t.Minutes*60+t.Seconds)*75 + t.Frames
}

// Difference returns t minus other, in frames.
func (t TrackTime) Difference(other TrackTime) int {
	return t.totalFrames() - other.totalFrames()
}

// AddFrames returns t advanced by n frames (n may be negative).
func (t TrackTime) AddFrames(n int) TrackTime {
	total := t.totalFrames() + n
	if total < 0 {
		total = 0
	}
	return TrackTime{Minutes: total / (60 * 75), Seconds: (total / 75) % 60, Frames: total % 75}
}

// QControl holds the Q subcode channel's four control flags.
type QControl struct {
	IsAudioNotData              bool
	IsStereoNotQuad             bool
	IsNoPreempNotPreemp         bool
	IsCopyProtectedNotUnprotected bool
}

// QMode1And4 is the metadata layout shared by Q modes 1 (CD audio) and 4
// (LD audio).
type QMode1And4 struct {
	TrackNumber      int
	Index            int
	IsLeadIn         bool
	IsLeadOut        bool
	TrackTime        TrackTime
	DiscTime         TrackTime
	IsEncoderRunning bool
}

// QMode2 is the Q mode 2 (catalogue number) metadata layout.
type QMode2 struct {
	CatalogueNumber string
	AFrame          int
}

// Section is one decoded subcode section.
type Section struct {
	P, Q, R, S, T, U, V, W [12]byte

	// QMode is the Q channel's address field (0-4), or -1 if the Q CRC
	// did not validate.
	QMode int

	Control    QControl
	Mode1And4  QMode1And4
	Mode2      QMode2
}

// Decode deinterleaves subcodeBytes (98 consecutive F3 subcode bytes, one
// per frame of the section) into P..W and, if the Q channel's CRC
// validates, decodes its metadata.
func Decode(subcodeBytes [FramesPerSection]byte) (Section, error) {
	var s Section
	s.QMode = -1

	// The first two subcode bytes in a section are the S0/S1 sync
	// patterns, not channel data; the remaining 96 carry 12 bytes per
	// channel.
	for byteIdx := 0; byteIdx < 12; byteIdx++ {
		for bitIdx := 0; bitIdx < 8; bitIdx++ {
			b := subcodeBytes[2+byteIdx*8+bitIdx]
			shift := uint(7 - bitIdx)
			setBit(&s.P[byteIdx], shift, b&0x80 != 0)
			setBit(&s.Q[byteIdx], shift, b&0x40 != 0)
			setBit(&s.R[byteIdx], shift, b&0x20 != 0)
			setBit(&s.S[byteIdx], shift, b&0x10 != 0)
			setBit(&s.T[byteIdx], shift, b&0x08 != 0)
			setBit(&s.U[byteIdx], shift, b&0x04 != 0)
			setBit(&s.V[byteIdx], shift, b&0x02 != 0)
			setBit(&s.W[byteIdx], shift, b&0x01 != 0)
		}
	}

	if !verifyQ(s.Q) {
		return s, errors.New("section: Q channel CRC check failed")
	}

	s.QMode = int(s.Q[0] & 0x0F)
	decodeQControl(&s)

	switch s.QMode {
	case 1, 4:
		decodeQMode1And4(&s)
	case 2:
		decodeQMode2(&s)
	case 0, 3:
		// Custom DATA-Q and track ID modes carry no metadata this
		// package interprets.
	default:
		return s, errors.Errorf("section: unsupported Q mode %d", s.QMode)
	}
	return s, nil
}

func setBit(b *byte, shift uint, set bool) {
	if set {
		*b |= 1 << shift
	}
}

// verifyQ checks the Q channel's trailing 16-bit CRC (CCITT/XMODEM,
// polynomial 0x1021) against the first 10 bytes, inverted as stored on
// disc.
func verifyQ(q [12]byte) bool {
	stored := ^((uint16(q[10]) << 8) | uint16(q[11]))
	return stored == crc16(q[:10])
}

// crc16 computes the CRC-16 CCITT/XMODEM checksum (initial value 0,
// polynomial 0x1021, MSB-first) used by the Q channel.
func crc16(data []byte) uint16 {
	var crc uint32
	for _, b := range data {
		crc ^= uint32(b) << 8
		for i := 0; i < 8; i++ {
			crc <<= 1
			if crc&0x10000 != 0 {
				crc = (crc ^ 0x1021) & 0xFFFF
			}
		}
	}
	return uint16(crc)
}

func decodeQControl(s *Section) {
	field := (s.Q[0] & 0xF0) >> 4
	s.Control.IsStereoNotQuad = field&0x08 == 0
	s.Control.IsAudioNotData = field&0x04 == 0
	s.Control.IsCopyProtectedNotUnprotected = field&0x02 == 0
	s.Control.IsNoPreempNotPreemp = field&0x01 == 0
}

func bcdToInt(b byte) int { return int(b>>4)*10 + int(b&0x0F) }

func decodeQMode1And4(s *Section) {
	m := &s.Mode1And4
	m.TrackTime = NewTrackTime(bcdToInt(s.Q[3]), bcdToInt(s.Q[4]), bcdToInt(s.Q[5]))
	m.DiscTime = NewTrackTime(bcdToInt(s.Q[7]), bcdToInt(s.Q[8]), bcdToInt(s.Q[9]))

	switch {
	case s.Q[1] == 0xAA:
		m.IsLeadOut = true
		m.TrackNumber = bcdToInt(s.Q[1])
		m.Index = bcdToInt(s.Q[2])
		m.IsEncoderRunning = m.Index != 0
	case bcdToInt(s.Q[1]) == 0:
		m.IsLeadIn = true
		m.TrackNumber = bcdToInt(s.Q[1])
		m.Index = -1
		m.IsEncoderRunning = false
	default:
		m.TrackNumber = bcdToInt(s.Q[1])
		m.Index = bcdToInt(s.Q[2])
		m.IsEncoderRunning = m.Index != 0
	}
}

func decodeQMode2(s *Section) {
	m := &s.Mode2
	digits := func(b byte) string {
		lo, hi := b&0x0F, b>>4
		return string([]byte{'0' + hi, '0' + lo})
	}
	cat := ""
	for i := 1; i <= 7; i++ {
		cat += digits(s.Q[i])
	}
	if len(cat) > 13 {
		cat = cat[:13]
	}
	m.CatalogueNumber = cat
	m.AFrame = bcdToInt(s.Q[9])
}
