/*
DESCRIPTION
  poolsched.go implements DecoderPool: a batch scheduler that dispatches
  field windows to a configurable number of worker goroutines, reassembles
  their output frames in input order, and emits periodic progress events.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package poolsched implements DecoderPool, the parallel batch scheduler
// that drives a chroma.Decoder and outwriter.Writer across a TBC source,
// reassembling output in frame order regardless of worker completion order.
package poolsched

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/ausocean/ldtbc/internal/chroma"
	"github.com/ausocean/ldtbc/internal/field"
	"github.com/ausocean/ldtbc/internal/logging"
	"github.com/ausocean/ldtbc/internal/outwriter"
	"github.com/ausocean/ldtbc/internal/videoparams"
)

// DefaultBatchSize is the maximum number of frames handed to a worker in
// one call to GetInputFrames.
const DefaultBatchSize = 16

// progressInterval is the number of completed frames between progress
// events.
const progressInterval = 32

// Progress is emitted after every progressInterval output frames are
// written.
type Progress struct {
	FramesDone  int
	FramesTotal int
}

// Sink receives decoded, converted output frames in strict frame order.
type Sink interface {
	WriteStreamHeader(header []byte) error
	WriteFrame(frameHeader []byte, data []uint16) error
}

// Config configures a Pool.
type Config struct {
	Decoder     chroma.Decoder
	Writer      *outwriter.Writer
	Meta        field.Metadata
	Source      field.Source
	VideoParams videoparams.Parameters
	StartFrame  int // 1-based; 0 means "start at frame 1".
	Length      int // 0 means "through the last frame".
	MaxThreads  int
	OnProgress  func(Progress)
	Log         logging.Logger
}

// Pool coordinates parallel decoding of a field source into a Sink.
type Pool struct {
	decoder chroma.Decoder
	writer  *outwriter.Writer
	meta    field.Metadata
	source  field.Source
	vp      videoparams.Parameters

	startFrame, length, maxThreads int

	inputMu      sync.Mutex
	inputFrameNo int
	lastFrameNo  int

	outputMu      sync.Mutex
	outputFrameNo int
	pending       map[int][]uint16

	abort int32

	onProgress func(Progress)
	log        logging.Logger
}

// New validates cfg and returns a ready Pool.
func New(cfg Config) (*Pool, error) {
	if cfg.Decoder == nil || cfg.Writer == nil || cfg.Meta == nil || cfg.Source == nil {
		return nil, errors.New("poolsched: decoder, writer, meta and source are required")
	}
	if cfg.MaxThreads <= 0 {
		cfg.MaxThreads = 1
	}
	start := cfg.StartFrame
	if start <= 0 {
		start = 1
	}
	if start > cfg.Meta.NumFrames() {
		return nil, errors.Errorf("poolsched: start frame %d exceeds %d available frames", start, cfg.Meta.NumFrames())
	}
	length := cfg.Length
	if length <= 0 {
		length = cfg.Meta.NumFrames() - (start - 1)
	} else if length+(start-1) > cfg.Meta.NumFrames() {
		length = cfg.Meta.NumFrames() - (start - 1)
	}

	log := cfg.Log
	if log == nil {
		log = logging.Discard
	}

	return &Pool{
		decoder:       cfg.Decoder,
		writer:        cfg.Writer,
		meta:          cfg.Meta,
		source:        cfg.Source,
		vp:            cfg.VideoParams,
		startFrame:    start,
		length:        length,
		maxThreads:    cfg.MaxThreads,
		inputFrameNo:  start,
		lastFrameNo:   length + (start - 1),
		outputFrameNo: start,
		pending:       make(map[int][]uint16),
		onProgress:    cfg.OnProgress,
		log:           log,
	}, nil
}

// batch is one unit of work dispatched to a worker: a contiguous run of
// frame numbers, each with its own field window already loaded.
type batch struct {
	startFrameNo int
	windows      [][]*field.SampleField
}

// GetInputFrames atomically advances the input cursor by a batch of at most
// min(DefaultBatchSize, max(1, length/maxThreads)) frames, and loads their
// field windows (including lookbehind/lookahead). It returns ok=false once
// the input is exhausted.
func (p *Pool) GetInputFrames() (b batch, ok bool) {
	p.inputMu.Lock()
	defer p.inputMu.Unlock()

	maxBatch := DefaultBatchSize
	if alt := p.length / p.maxThreads; alt < maxBatch {
		if alt < 1 {
			alt = 1
		}
		maxBatch = alt
	}

	remaining := p.lastFrameNo + 1 - p.inputFrameNo
	if remaining <= 0 {
		return batch{}, false
	}
	batchFrames := maxBatch
	if batchFrames > remaining {
		batchFrames = remaining
	}

	startFrameNo := p.inputFrameNo
	p.inputFrameNo += batchFrames

	windows := make([][]*field.SampleField, batchFrames)
	for i := 0; i < batchFrames; i++ {
		windows[i] = p.loadWindow(startFrameNo + i)
	}

	return batch{startFrameNo: startFrameNo, windows: windows}, true
}

// loadWindow builds the window of raw fields the decoder needs to decode
// frame frameNo: LookBehind() frames before, the frame's own two fields,
// then LookAhead() frames after.
func (p *Pool) loadWindow(frameNo int) []*field.SampleField {
	lookBehind, lookAhead := p.decoder.LookBehind(), p.decoder.LookAhead()
	var window []*field.SampleField
	for f := frameNo - lookBehind; f <= frameNo+lookAhead; f++ {
		window = append(window, p.loadFrameFields(f)...)
	}
	return window
}

// loadFrameFields returns the two fields of frameNo, synthesizing blank
// black fields with frame 1's metadata if frameNo is out of bounds.
func (p *Pool) loadFrameFields(frameNo int) []*field.SampleField {
	if frameNo < 1 || frameNo > p.meta.NumFrames() {
		return p.loadBoundaryFields(frameNo)
	}

	firstNo := p.meta.FirstFieldNumber(frameNo)
	secondNo := p.meta.SecondFieldNumber(frameNo)
	first := p.loadField(firstNo)
	second := p.loadField(secondNo)

	if p.vp.IsSubcarrierLocked && p.vp.System == videoparams.PAL {
		second.ShiftLeft(&p.vp, 2, p.vp.Black16bIRE)
	}
	return []*field.SampleField{first, second}
}

// loadBoundaryFields synthesizes dummy black fields using frame 1's field
// parity, per spec §4.7.
func (p *Pool) loadBoundaryFields(frameNo int) []*field.SampleField {
	isFirst, _ := p.meta.Field(p.meta.FirstFieldNumber(1))
	first := field.NewBlack(&p.vp, frameNo*2-1, isFirst)
	second := field.NewBlack(&p.vp, frameNo*2, !isFirst)
	return []*field.SampleField{first, second}
}

func (p *Pool) loadField(fieldNo int) *field.SampleField {
	data, err := p.source.ReadField(fieldNo)
	if err != nil {
		p.log.Log(logging.Error, "poolsched: reading field failed, aborting", "fieldNo", fieldNo, "error", err)
		p.setAbort()
		data = make([]uint16, p.vp.FieldWidth*p.vp.FieldHeight)
	}
	isFirst, dropouts := p.meta.Field(fieldNo)
	return &field.SampleField{FieldNumber: fieldNo, IsFirstField: isFirst, Data: data, Dropouts: dropouts}
}

// Aborted reports whether the pool's abort flag has been set.
func (p *Pool) Aborted() bool { return atomic.LoadInt32(&p.abort) != 0 }

func (p *Pool) setAbort() { atomic.StoreInt32(&p.abort, 1) }

// Run decodes the whole configured range using maxThreads worker
// goroutines, converting each decoded frame via the configured
// outwriter.Writer and writing it to sink in order.
func (p *Pool) Run(sink Sink) error {
	header, err := p.writer.StreamHeader()
	if err != nil {
		p.setAbort()
		return errors.Wrap(err, "poolsched: building stream header")
	}
	if err := sink.WriteStreamHeader(header); err != nil {
		p.setAbort()
		return errors.Wrap(err, "poolsched: writing stream header")
	}

	p.log.Log(logging.Info, "poolsched: starting decode", "startFrame", p.startFrame, "length", p.length, "maxThreads", p.maxThreads)

	var wg sync.WaitGroup
	for i := 0; i < p.maxThreads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(sink)
		}()
	}
	wg.Wait()

	if p.Aborted() {
		return errors.New("poolsched: aborted")
	}
	if p.inputFrameNo != p.lastFrameNo+1 || p.outputFrameNo != p.lastFrameNo+1 || len(p.pending) != 0 {
		return errors.New("poolsched: incorrect state at end of processing")
	}
	return nil
}

func (p *Pool) worker(sink Sink) {
	var out []uint16
	for {
		if p.Aborted() {
			return
		}
		b, ok := p.GetInputFrames()
		if !ok {
			return
		}
		outputs := make([][]uint16, len(b.windows))
		for i, window := range b.windows {
			frame := p.decoder.DecodeFrame(window)
			p.writer.Convert(frame, &out)
			outputs[i] = append([]uint16(nil), out...)
		}
		if !p.PutOutputFrames(b.startFrameNo, outputs, sink) {
			return
		}
	}
}

// PutOutputFrames inserts a contiguous run of already-converted output
// frames into the pending map, keyed by frame number, then writes out as
// many frames as are now contiguous starting at the output cursor. It
// returns false (and sets the abort flag) on a sink write error.
func (p *Pool) PutOutputFrames(startFrameNo int, frames [][]uint16, sink Sink) bool {
	p.outputMu.Lock()
	defer p.outputMu.Unlock()

	for i, data := range frames {
		p.pending[startFrameNo+i] = data
	}

	for {
		data, ok := p.pending[p.outputFrameNo]
		if !ok {
			break
		}
		if err := sink.WriteFrame(p.writer.FrameHeader(), data); err != nil {
			p.setAbort()
			return false
		}
		delete(p.pending, p.outputFrameNo)
		p.outputFrameNo++

		if p.onProgress != nil {
			done := p.outputFrameNo - p.startFrame
			if done%progressInterval == 0 {
				p.onProgress(Progress{FramesDone: done, FramesTotal: p.length})
			}
		}
	}
	return true
}
