/*
DESCRIPTION
  efm.go wires the EFM decode pipeline's stages together: T-values to F3
  frames, F3 frames through CIRC to F2 frames, F2 frames into F1 frames,
  and F1 frames into audio samples and data sectors.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package efm wires the full EFM channel-bit decode pipeline: T-values ->
// F3 frames (sync detection) -> F2 frames (CIRC) -> F1 frames -> audio
// samples and data sectors.
package efm

import (
	"github.com/pkg/errors"

	"github.com/ausocean/ldtbc/internal/efm/audio"
	"github.com/ausocean/ldtbc/internal/efm/circ"
	"github.com/ausocean/ldtbc/internal/efm/f1"
	"github.com/ausocean/ldtbc/internal/efm/f3sync"
	"github.com/ausocean/ldtbc/internal/efm/sector"
	"github.com/ausocean/ldtbc/internal/logging"
)

// Config configures a Pipeline.
type Config struct {
	ConcealMode audio.ConcealMode
	Deemphasize bool
	NoTimeStamp bool
	Log         logging.Logger
}

// Validate checks cfg for an unknown ConcealMode before any pipeline stage
// is constructed, per the fail-fast-on-configuration requirement.
func (cfg Config) Validate() error {
	switch cfg.ConcealMode {
	case audio.Conceal, audio.Silence, audio.PassThrough:
	default:
		return errors.Errorf("efm: unknown conceal mode %d", cfg.ConcealMode)
	}
	return nil
}

// Pipeline runs the whole EFM decode chain across a stream of T-values,
// maintaining each stage's state between calls to Process.
type Pipeline struct {
	f3  *f3sync.Decoder
	circ *circ.Decoder
	f1  *f1.Decoder

	audio  *audio.Decoder
	sector *sector.Decoder

	deemphasize bool
	log         logging.Logger
}

// New returns a ready Pipeline.
func New(cfg Config) *Pipeline {
	log := cfg.Log
	if log == nil {
		log = logging.Discard
	}
	f1dec := f1.New()
	f1dec.NoTimeStamp = cfg.NoTimeStamp
	return &Pipeline{
		f3:          f3sync.New(),
		circ:        circ.New(),
		f1:          f1dec,
		audio:       audio.New(cfg.ConcealMode),
		sector:      sector.New(),
		deemphasize: cfg.Deemphasize,
		log:         log,
	}
}

// Result holds everything decoded from one call to Process.
type Result struct {
	F1Frames []f1.Frame
	Samples  []audio.Sample
	Sectors  []sector.Sector
}

// Process runs tValues through every pipeline stage and returns the
// frames, audio samples and data sectors recovered, appending to any
// state buffered from previous calls.
func (p *Pipeline) Process(tValues []byte) Result {
	f3Frames := p.f3.Process(tValues)

	var f2Frames []circ.F2Frame
	for _, f3 := range f3Frames {
		if f2, ok := p.circ.Decode(f3); ok {
			f2Frames = append(f2Frames, f2)
		}
	}

	f1Frames := p.f1.Process(f2Frames)

	var audioFrames, dataFrames []f1.Frame
	for _, f := range f1Frames {
		if f.IsEncoderRunning {
			audioFrames = append(audioFrames, f)
		} else {
			dataFrames = append(dataFrames, f)
		}
	}

	samples := p.audio.Process(audioFrames)
	if p.deemphasize && len(samples) > 0 {
		if buf, err := audio.Deemphasize(audio.ToBuffer(samples)); err == nil {
			samples = audio.FromBuffer(buf)
		} else {
			p.log.Log(logging.Warning, "efm: de-emphasis failed, passing samples through unfiltered", "error", err)
		}
	}
	sectors := p.sector.Process(dataFrames)

	p.log.Log(logging.Debug, "efm: processed batch",
		"tValues", len(tValues), "f3Frames", len(f3Frames), "f2Frames", len(f2Frames),
		"f1Frames", len(f1Frames), "samples", len(samples), "sectors", len(sectors))

	return Result{F1Frames: f1Frames, Samples: samples, Sectors: sectors}
}

// F3Statistics reports the F3 sync state machine's running counters.
func (p *Pipeline) F3Statistics() f3sync.Statistics { return p.f3.Statistics() }

// F1Statistics reports the F2->F1 stage's running counters.
func (p *Pipeline) F1Statistics() f1.Statistics { return p.f1.Statistics() }

// SectorStatistics reports the data-sector stage's running counters.
func (p *Pipeline) SectorStatistics() sector.Statistics { return p.sector.Statistics() }
