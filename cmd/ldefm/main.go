/*
DESCRIPTION
  main.go is the ldefm CLI: it streams a raw EFM T-value capture through
  internal/efm.Pipeline and writes the recovered PCM audio and/or data
  sectors to separate output files.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Command ldefm decodes a raw EFM channel-bit (T-value) capture into PCM
// audio and data sectors.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ausocean/ldtbc/codec/pcm"
	"github.com/ausocean/ldtbc/internal/efm"
	"github.com/ausocean/ldtbc/internal/efm/audio"
	"github.com/ausocean/ldtbc/internal/logging"
)

// readChunkSize is the number of raw T-value bytes read per Pipeline.Process
// call, chosen to keep several subcode sections in flight per batch.
const readChunkSize = 1 << 16

func main() {
	var (
		inputPath    = flag.String("input", "", "path to the raw EFM T-value capture")
		audioPath    = flag.String("audio-out", "", "path to write recovered 16-bit stereo PCM (empty disables)")
		sectorsPath  = flag.String("sectors-out", "", "path to write recovered data sector payloads (empty disables)")
		concealName  = flag.String("conceal", "conceal", "audio error concealment: conceal, silence or passthrough")
		deemphasize  = flag.Bool("deemphasize", true, "apply approximate de-emphasis to recovered audio")
		removeRumble = flag.Bool("remove-rumble", false, "highpass-filter sub-audible disc rotation rumble from recovered audio")
		mono         = flag.Bool("mono", false, "down-mix recovered audio to mono, discarding the right channel")
		outputRate   = flag.Uint("output-rate", 0, "resample recovered audio to this rate in Hz (0 disables resampling)")
		noTimestamp  = flag.Bool("no-timestamp", false, "ignore Q-channel disc time, number sections sequentially")
		logPath      = flag.String("log", "", "log file path (stderr if empty)")
		logLevel     = flag.Int("log-level", int(logging.Info), "minimum log level (-1 debug .. 3 fatal)")
	)
	flag.Parse()

	log := logging.New(*logPath, 10, 3)
	log.SetLevel(int8(*logLevel))

	if *inputPath == "" {
		log.Fatal("ldefm: -input is required")
		os.Exit(2)
	}

	mode, err := parseConcealMode(*concealName)
	if err != nil {
		log.Fatal("ldefm: invalid -conceal", "error", err)
		os.Exit(2)
	}

	in, err := os.Open(*inputPath)
	if err != nil {
		log.Fatal("ldefm: opening input", "error", err)
		os.Exit(1)
	}
	defer in.Close()

	var audioOut, sectorsOut *os.File
	if *audioPath != "" {
		audioOut, err = os.Create(*audioPath)
		if err != nil {
			log.Fatal("ldefm: creating audio output", "error", err)
			os.Exit(1)
		}
		defer audioOut.Close()
	}
	if *sectorsPath != "" {
		sectorsOut, err = os.Create(*sectorsPath)
		if err != nil {
			log.Fatal("ldefm: creating sectors output", "error", err)
			os.Exit(1)
		}
		defer sectorsOut.Close()
	}

	cfg := efm.Config{
		ConcealMode: mode,
		Deemphasize: *deemphasize,
		NoTimeStamp: *noTimestamp,
		Log:         log,
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("ldefm: invalid configuration", "error", err)
		os.Exit(2)
	}
	pipeline := efm.New(cfg)

	audioWriter := bufio.NewWriter(audioOut)
	sectorsWriter := bufio.NewWriter(sectorsOut)

	reader := bufio.NewReaderSize(in, readChunkSize)
	buf := make([]byte, readChunkSize)
	var totalSamples, totalSectors int

	for {
		n, readErr := reader.Read(buf)
		if n > 0 {
			result := pipeline.Process(buf[:n])

			if audioOut != nil {
				data, err := transformSamples(result.Samples, *removeRumble, *mono, *outputRate)
				if err != nil {
					log.Fatal("ldefm: transforming audio", "error", err)
					os.Exit(1)
				}
				if _, err := audioWriter.Write(data); err != nil {
					log.Fatal("ldefm: writing audio", "error", err)
					os.Exit(1)
				}
			}
			if sectorsOut != nil {
				for _, sec := range result.Sectors {
					if _, err := sectorsWriter.Write(sec.Data[:]); err != nil {
						log.Fatal("ldefm: writing sectors", "error", err)
						os.Exit(1)
					}
				}
			}
			totalSamples += len(result.Samples)
			totalSectors += len(result.Sectors)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			log.Fatal("ldefm: reading input", "error", readErr)
			os.Exit(1)
		}
	}

	if audioOut != nil {
		if err := audioWriter.Flush(); err != nil {
			log.Fatal("ldefm: flushing audio output", "error", err)
			os.Exit(1)
		}
	}
	if sectorsOut != nil {
		if err := sectorsWriter.Flush(); err != nil {
			log.Fatal("ldefm: flushing sectors output", "error", err)
			os.Exit(1)
		}
	}

	f3 := pipeline.F3Statistics()
	f1 := pipeline.F1Statistics()
	sec := pipeline.SectorStatistics()
	log.Info("ldefm: done",
		"samples", totalSamples, "sectors", totalSectors,
		"f3SyncLoss", f3.SyncLoss, "f1InvalidFrames", f1.InvalidF2Frames,
		"missingSectors", sec.MissingSectors)
}

// transformSamples applies the optional rumble removal, down-mix and
// resample output transforms to one chunk's worth of recovered samples,
// returning raw PCM bytes (interleaved stereo, or mono if -mono is set)
// ready to write to the audio output file. Each chunk is transformed
// independently, so a chosen -output-rate that doesn't evenly divide the
// chunk size can introduce small discontinuities at chunk boundaries;
// readChunkSize is large relative to any audio frame so in practice this
// is inaudible.
func transformSamples(samples []audio.Sample, removeRumble, mono bool, outputRate uint) ([]byte, error) {
	if !removeRumble && !mono && outputRate == 0 {
		return sampleBytes(samples), nil
	}
	buf := audio.ToBuffer(samples)
	if removeRumble {
		var err error
		buf, err = audio.RemoveRumble(buf)
		if err != nil {
			return nil, fmt.Errorf("removing rumble: %w", err)
		}
	}
	if mono {
		var err error
		buf, err = pcm.StereoToMono(buf)
		if err != nil {
			return nil, fmt.Errorf("down-mixing to mono: %w", err)
		}
	}
	if outputRate != 0 {
		var err error
		buf, err = pcm.Resample(buf, outputRate)
		if err != nil {
			return nil, fmt.Errorf("resampling: %w", err)
		}
	}
	return buf.Data, nil
}

// sampleBytes packs samples into raw interleaved little-endian stereo
// PCM bytes, matching the layout audio.ToBuffer produces.
func sampleBytes(samples []audio.Sample) []byte {
	return audio.ToBuffer(samples).Data
}

func parseConcealMode(name string) (audio.ConcealMode, error) {
	switch name {
	case "conceal":
		return audio.Conceal, nil
	case "silence":
		return audio.Silence, nil
	case "passthrough":
		return audio.PassThrough, nil
	default:
		return 0, fmt.Errorf("unknown concealment mode %q", name)
	}
}
