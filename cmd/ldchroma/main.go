/*
DESCRIPTION
  main.go is the ldchroma CLI: it wires a raw .tbc field file and its video
  geometry flags into chroma.New, poolsched.Pool and outwriter.Writer and
  writes decoded frames to a raw or YUV4MPEG2 output file.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Command ldchroma decodes a raw TBC field capture into component video,
// selecting a chroma decoder variant and writing YUV4MPEG2 or raw output.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/ausocean/ldtbc/internal/chroma"
	"github.com/ausocean/ldtbc/internal/chroma/comb"
	"github.com/ausocean/ldtbc/internal/chroma/palcolour"
	"github.com/ausocean/ldtbc/internal/field"
	"github.com/ausocean/ldtbc/internal/logging"
	"github.com/ausocean/ldtbc/internal/outwriter"
	"github.com/ausocean/ldtbc/internal/poolsched"
	"github.com/ausocean/ldtbc/internal/videoparams"
)

func main() {
	var (
		inputPath   = flag.String("input", "", "path to the raw .tbc field file")
		outputPath  = flag.String("output", "", "path to write decoded output (default stdout)")
		system      = flag.String("system", "pal", "video system: pal, ntsc or palm")
		decoderName = flag.String("decoder", "pal2d", "chroma decoder: pal2d, transform2d, transform3d, ntsc1d, ntsc2d, ntsc3d, mono")
		fieldWidth  = flag.Int("field-width", 1135, "samples per field line")
		fieldHeight = flag.Int("field-height", 313, "lines per field")
		startFrame  = flag.Int("start", 0, "1-based start frame (0 means first)")
		length      = flag.Int("length", 0, "number of frames to decode (0 means to end)")
		threads     = flag.Int("threads", runtime.NumCPU(), "worker thread count")
		outputY4M   = flag.Bool("y4m", true, "write a YUV4MPEG2 stream header")
		logPath     = flag.String("log", "", "log file path (stderr if empty)")
		logLevel    = flag.Int("log-level", int(logging.Info), "minimum log level (-1 debug .. 3 fatal)")
	)
	flag.Parse()

	log := logging.New(*logPath, 10, 3)
	log.SetLevel(int8(*logLevel))

	if *inputPath == "" {
		log.Fatal("ldchroma: -input is required")
		os.Exit(2)
	}

	vp, err := defaultParameters(*system, *fieldWidth, *fieldHeight)
	if err != nil {
		log.Fatal("ldchroma: invalid video parameters", "error", err)
		os.Exit(1)
	}

	variant, err := parseVariant(*decoderName)
	if err != nil {
		log.Fatal("ldchroma: invalid decoder", "error", err)
		os.Exit(1)
	}

	decoder, err := chroma.New(vp, chroma.Config{
		Variant:            variant,
		Pal:                palcolour.DefaultConfig(),
		Comb:               comb.DefaultConfig(),
		TransformThreshold: 0.5,
	})
	if err != nil {
		log.Fatal("ldchroma: building decoder", "error", err)
		os.Exit(1)
	}

	meta := newFlatMetadata(&vp, fieldCountFromFile(*inputPath, vp))
	source, err := newFileSource(*inputPath, vp)
	if err != nil {
		log.Fatal("ldchroma: opening input", "error", err)
		os.Exit(1)
	}
	defer source.Close()

	writer := outwriter.New()
	writer.UpdateConfiguration(&vp, outwriter.Config{
		PixelFormat: outwriter.RGB48,
		UsePadding:  true,
		OutputY4M:   *outputY4M,
	})

	out := os.Stdout
	if *outputPath != "" {
		f, err := os.Create(*outputPath)
		if err != nil {
			log.Fatal("ldchroma: creating output", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	pool, err := poolsched.New(poolsched.Config{
		Decoder:     decoder,
		Writer:      writer,
		Meta:        meta,
		Source:      source,
		VideoParams: vp,
		StartFrame:  *startFrame,
		Length:      *length,
		MaxThreads:  *threads,
		Log:         log,
		OnProgress: func(p poolsched.Progress) {
			log.Info("ldchroma: progress", "framesDone", p.FramesDone, "framesTotal", p.FramesTotal)
		},
	})
	if err != nil {
		log.Fatal("ldchroma: configuring pool", "error", err)
		os.Exit(1)
	}

	if err := pool.Run(&fileSink{w: out}); err != nil {
		log.Fatal("ldchroma: decode failed", "error", err)
		os.Exit(1)
	}
}

func parseVariant(name string) (chroma.Variant, error) {
	switch name {
	case "pal2d":
		return chroma.Pal, nil
	case "transform2d":
		return chroma.TransformPal2D, nil
	case "transform3d":
		return chroma.TransformPal3D, nil
	case "ntsc1d":
		return chroma.Ntsc1D, nil
	case "ntsc2d":
		return chroma.Ntsc2D, nil
	case "ntsc3d":
		return chroma.Ntsc3D, nil
	case "mono":
		return chroma.Mono, nil
	default:
		return 0, fmt.Errorf("unknown decoder %q", name)
	}
}

// fileSink adapts an io.Writer into poolsched.Sink.
type fileSink struct{ w interface{ Write([]byte) (int, error) } }

func (s *fileSink) WriteStreamHeader(header []byte) error {
	if len(header) == 0 {
		return nil
	}
	_, err := s.w.Write(header)
	return err
}

func (s *fileSink) WriteFrame(frameHeader []byte, data []uint16) error {
	if len(frameHeader) > 0 {
		if _, err := s.w.Write(frameHeader); err != nil {
			return err
		}
	}
	buf := make([]byte, len(data)*2)
	for i, v := range data {
		binary.LittleEndian.PutUint16(buf[i*2:], v)
	}
	_, err := s.w.Write(buf)
	return err
}

// fileSource reads raw little-endian composite samples directly out of a
// .tbc file by field offset, standing in for the real capture-format
// reader (an external collaborator per spec §1).
type fileSource struct {
	f  *os.File
	vp videoparams.Parameters
}

func newFileSource(path string, vp videoparams.Parameters) (*fileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &fileSource{f: f, vp: vp}, nil
}

func (s *fileSource) ReadField(fieldNumber int) ([]uint16, error) {
	samplesPerField := s.vp.FieldWidth * s.vp.FieldHeight
	offset := int64(fieldNumber-1) * int64(samplesPerField) * 2
	buf := make([]byte, samplesPerField*2)
	if _, err := s.f.ReadAt(buf, offset); err != nil {
		return nil, err
	}
	out := make([]uint16, samplesPerField)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(buf[i*2:])
	}
	return out, nil
}

func (s *fileSource) Close() error { return s.f.Close() }

// flatMetadata is a Metadata implementation with no dropouts and
// sequential field numbering (field 2n-1/2n for frame n), standing in for
// the real JSON sidecar decoder (an external collaborator per spec §1).
type flatMetadata struct {
	vp        *videoparams.Parameters
	numFields int
}

func newFlatMetadata(vp *videoparams.Parameters, numFields int) *flatMetadata {
	return &flatMetadata{vp: vp, numFields: numFields}
}

func fieldCountFromFile(path string, vp videoparams.Parameters) int {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	samplesPerField := int64(vp.FieldWidth * vp.FieldHeight * 2)
	if samplesPerField == 0 {
		return 0
	}
	return int(info.Size() / samplesPerField)
}

func (m *flatMetadata) VideoParameters() *videoparams.Parameters { return m.vp }
func (m *flatMetadata) NumFrames() int                           { return m.numFields / 2 }
func (m *flatMetadata) NumFields() int                           { return m.numFields }
func (m *flatMetadata) FirstFieldNumber(frame int) int           { return frame*2 - 1 }
func (m *flatMetadata) SecondFieldNumber(frame int) int          { return frame * 2 }
func (m *flatMetadata) Field(fieldNumber int) (bool, []field.Dropout) {
	return fieldNumber%2 == 1, nil
}

func defaultParameters(system string, fieldWidth, fieldHeight int) (videoparams.Parameters, error) {
	var sys videoparams.System
	switch system {
	case "pal":
		sys = videoparams.PAL
	case "ntsc":
		sys = videoparams.NTSC
	case "palm":
		sys = videoparams.PALM
	default:
		return videoparams.Parameters{}, fmt.Errorf("unknown system %q", system)
	}

	vp := videoparams.Parameters{
		System:               sys,
		SampleRate:           17734375,
		FSC:                  4433618.75,
		FieldWidth:           fieldWidth,
		FieldHeight:          fieldHeight,
		FirstActiveFrameLine: 44,
		LastActiveFrameLine:  620,
		FirstActiveFieldLine: 22,
		LastActiveFieldLine:  310,
		ActiveVideoStart:     185,
		ActiveVideoEnd:       1107,
		ColourBurstStart:     98,
		ColourBurstEnd:       138,
		Black16bIRE:          16384,
		White16bIRE:          54016,
		IsSubcarrierLocked:   true,
	}
	if sys != videoparams.PAL {
		vp.SampleRate = 14318180
		vp.FSC = 3579545
		vp.IsSubcarrierLocked = false
	}
	if err := vp.Validate(); err != nil {
		return vp, err
	}
	return vp, nil
}
