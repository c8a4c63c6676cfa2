/*
DESCRIPTION
  audio.go demuxes F1 frames carrying CD/LD digital audio into signed
  16-bit stereo PCM samples, concealing frames flagged corrupt or missing
  per a selectable error-treatment policy.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package audio recovers 44.1kHz 16-bit stereo PCM from F1 frames flagged
// as audio, concealing unrecoverable frames per a selectable policy.
package audio

import (
	"encoding/binary"
	"math"

	"github.com/ausocean/ldtbc/codec/pcm"
	"github.com/ausocean/ldtbc/internal/efm/f1"
)

// sampleRate is the CD/LD digital audio sample rate.
const sampleRate = 44100

// samplesPerFrame is 24 data bytes / 4 bytes per stereo sample pair.
const samplesPerFrame = 6

// ConcealMode selects how a corrupt or missing (padding) frame's audio
// samples are treated.
type ConcealMode int

const (
	// Conceal repeats the most recent valid sample (zero before any valid
	// sample has been seen). It does not interpolate toward the next valid
	// sample.
	Conceal ConcealMode = iota
	// Silence replaces the frame's samples with zero.
	Silence
	// PassThrough emits the frame's raw (possibly wrong) sample data
	// unmodified.
	PassThrough
)

// Sample is one interleaved stereo sample pair.
type Sample struct{ Left, Right int16 }

// Decoder demuxes F1 frames into PCM, conditionally concealing bad
// frames with the most recent valid sample.
type Decoder struct {
	Mode ConcealMode

	lastValid Sample
	haveLast  bool
}

// New returns a Decoder using the given concealment policy.
func New(mode ConcealMode) *Decoder { return &Decoder{Mode: mode} }

// Process converts frames into PCM samples in order. Frames not flagged
// audio (IsEncoderRunning false) still produce samples so stream timing
// is preserved; callers that only want audio track content should filter
// on Frame.IsEncoderRunning themselves.
func (d *Decoder) Process(frames []f1.Frame) []Sample {
	var out []Sample
	for _, frame := range frames {
		samples := frameSamples(frame.Data)
		bad := frame.IsCorrupt || frame.IsPadding

		for i, s := range samples {
			if !bad {
				d.lastValid = s
				d.haveLast = true
				out = append(out, s)
				continue
			}
			switch d.Mode {
			case Silence:
				out = append(out, Sample{})
			case PassThrough:
				out = append(out, s)
			default: // Conceal
				if d.haveLast {
					out = append(out, d.lastValid)
				} else {
					out = append(out, Sample{})
				}
			}
		}
	}
	return out
}

// ToBuffer packs samples into a pcm.Buffer of interleaved signed 16-bit
// little-endian stereo, ready for pcm's filters or Resample/StereoToMono.
func ToBuffer(samples []Sample) pcm.Buffer {
	data := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*4:], uint16(s.Left))
		binary.LittleEndian.PutUint16(data[i*4+2:], uint16(s.Right))
	}
	return pcm.Buffer{
		Format: pcm.BufferFormat{SFormat: pcm.S16_LE, Rate: sampleRate, Channels: 2},
		Data:   data,
	}
}

// FromBuffer unpacks a pcm.Buffer of interleaved signed 16-bit
// little-endian stereo back into Samples.
func FromBuffer(buf pcm.Buffer) []Sample {
	out := make([]Sample, len(buf.Data)/4)
	for i := range out {
		out[i].Left = int16(binary.LittleEndian.Uint16(buf.Data[i*4:]))
		out[i].Right = int16(binary.LittleEndian.Uint16(buf.Data[i*4+2:]))
	}
	return out
}

// Deemphasize approximates the 50/15us de-emphasis curve CD/LD audio
// encoded with pre-emphasis needs on playback, as a plain FIR lowpass
// filter (pcm.NewLowPass) with its cutoff at the shelf corner. It is an
// approximation of the true analogue de-emphasis response, not a
// bit-exact inverse of the encoder's shelf.
func Deemphasize(buf pcm.Buffer) (pcm.Buffer, error) {
	const shelfCutoffHz = 3180 // ~1/(2*pi*50us), the de-emphasis shelf corner.
	filter, err := pcm.NewLowPass(shelfCutoffHz, buf.Format, 127)
	if err != nil {
		return pcm.Buffer{}, err
	}
	data, err := filter.Apply(buf)
	if err != nil {
		return pcm.Buffer{}, err
	}
	return pcm.Buffer{Format: buf.Format, Data: data}, nil
}

// rumbleCutoffHz is the highpass corner used to attenuate sub-audible
// disc-rotation rumble; LaserDisc platters spin at 1500rpm (25Hz) CAV PAL
// or 1800rpm (30Hz) CAV NTSC, well below any programme content.
const rumbleCutoffHz = 20

// RemoveRumble applies a highpass filter that attenuates sub-audible
// rotational rumble picked up from the disc transport mechanism.
func RemoveRumble(buf pcm.Buffer) (pcm.Buffer, error) {
	filter, err := pcm.NewHighPass(rumbleCutoffHz, buf.Format, 127)
	if err != nil {
		return pcm.Buffer{}, err
	}
	data, err := filter.Apply(buf)
	if err != nil {
		return pcm.Buffer{}, err
	}
	return pcm.Buffer{Format: buf.Format, Data: data}, nil
}

// NotchCarrierWhine removes a narrow band centred on centerHz, wide
// enough to cover bandwidthHz, from buf. Discs with poor FM demodulator
// shielding let a fraction of the video carrier beat into the audio
// band as an audible whine; CarrierWhineLevel can be used first to
// decide whether a capture needs this applied.
func NotchCarrierWhine(buf pcm.Buffer, centerHz, bandwidthHz float64) (pcm.Buffer, error) {
	filter, err := pcm.NewBandStop(centerHz-bandwidthHz/2, centerHz+bandwidthHz/2, buf.Format, 255)
	if err != nil {
		return pcm.Buffer{}, err
	}
	data, err := filter.Apply(buf)
	if err != nil {
		return pcm.Buffer{}, err
	}
	return pcm.Buffer{Format: buf.Format, Data: data}, nil
}

// CarrierWhineLevel isolates centerHz+-bandwidthHz/2 with a bandpass
// filter and returns the peak absolute sample magnitude found there, as
// a fraction of full scale. A caller can threshold this to decide
// whether NotchCarrierWhine is worth applying to a given capture.
func CarrierWhineLevel(buf pcm.Buffer, centerHz, bandwidthHz float64) (float64, error) {
	filter, err := pcm.NewBandPass(centerHz-bandwidthHz/2, centerHz+bandwidthHz/2, buf.Format, 255)
	if err != nil {
		return 0, err
	}
	data, err := filter.Apply(buf)
	if err != nil {
		return 0, err
	}
	var peak float64
	for i := 0; i+1 < len(data); i += 2 {
		v := math.Abs(float64(int16(binary.LittleEndian.Uint16(data[i : i+2]))))
		if v > peak {
			peak = v
		}
	}
	return peak / 32768.0, nil
}

// frameSamples splits one F1 frame's 24 data bytes into 6 interleaved
// little-endian signed 16-bit stereo sample pairs.
func frameSamples(data [24]byte) [samplesPerFrame]Sample {
	var out [samplesPerFrame]Sample
	for i := 0; i < samplesPerFrame; i++ {
		base := i * 4
		out[i].Left = int16(uint16(data[base]) | uint16(data[base+1])<<8)
		out[i].Right = int16(uint16(data[base+2]) | uint16(data[base+3])<<8)
	}
	return out
}
