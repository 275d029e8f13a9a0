package media

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/disintegration/imaging"
)

// Stage is the capture pipeline's current step.
type Stage int

const (
	StageIdle Stage = iota
	StageLive
	StageCaptured
)

// JPEGQuality is used for every encode in the capture flow. Keeping it fixed
// makes crop extraction deterministic for a given source and rectangle.
const JPEGQuality = 90

var (
	// ErrNoStream is returned when Capture is called before Activate.
	ErrNoStream = fmt.Errorf("no active camera stream")
)

// Pipeline owns the camera stream for the lifetime of one capture session.
// The stream is the only exclusively-held local resource; Close releases it
// on every exit path and is idempotent.
type Pipeline struct {
	source Source

	mu       sync.Mutex
	stage    Stage
	stream   Stream
	captured []byte
}

// NewPipeline creates a capture pipeline over a camera source.
func NewPipeline(source Source) *Pipeline {
	return &Pipeline{source: source}
}

// Stage returns the pipeline's current step.
func (p *Pipeline) Stage() Stage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stage
}

// Activate acquires the camera stream and moves to the live view. Permission
// denial or device absence surfaces the error and keeps the pipeline idle
// with no partial stream retained.
func (p *Pipeline) Activate(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stage != StageIdle {
		return fmt.Errorf("capture already active")
	}

	stream, err := p.source.Acquire(ctx)
	if err != nil {
		return err
	}
	p.stream = stream
	p.stage = StageLive
	return nil
}

// Capture draws the current frame at the stream's native resolution, encodes
// it as JPEG, releases the camera, and moves to the captured step.
func (p *Pipeline) Capture(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	stream := p.stream
	p.mu.Unlock()

	if stream == nil {
		return nil, ErrNoStream
	}

	frame, err := stream.Frame(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture frame: %w", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, frame, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.captured = buf.Bytes()
	p.stage = StageCaptured
	p.releaseLocked()
	return p.captured, nil
}

// Captured returns the encoded still from the last successful capture.
func (p *Pipeline) Captured() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.captured
}

// Close releases the camera stream and resets the pipeline. Safe to call on
// any exit path, any number of times.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseLocked()
	p.stage = StageIdle
	p.captured = nil
}

func (p *Pipeline) releaseLocked() {
	if p.stream != nil {
		p.stream.Stop()
		p.stream = nil
	}
}
