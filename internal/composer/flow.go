package composer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/civiclens/app/internal/media"
	"github.com/civiclens/app/internal/models"
)

// FlowStage is the composition flow's current step.
type FlowStage int

const (
	FlowCapture FlowStage = iota
	FlowCrop
	FlowPreview
	FlowDone
)

// GeoResolver resolves the device position to a geo-tag. Best-effort; a nil
// resolver or any failure simply omits the tag.
type GeoResolver interface {
	Resolve(ctx context.Context) (*models.GeoData, error)
}

// Flow drives one post composition end to end:
// capture -> crop -> preview -> submit. Geo resolution runs in the background
// from the moment the still is captured and never blocks progression.
type Flow struct {
	pipeline  *media.Pipeline
	submitter *Submitter
	resolver  GeoResolver
	userID    string

	// AnimationHold is how long the success animation stays up before the
	// flow resets to the capture step.
	AnimationHold time.Duration

	mu       sync.Mutex
	stage    FlowStage
	captured []byte
	cropped  []byte

	geoOnce sync.Once
	geoDone chan struct{}
	geo     *models.GeoData
}

// NewFlow creates a composition flow for one user.
func NewFlow(userID string, pipeline *media.Pipeline, submitter *Submitter, resolver GeoResolver) *Flow {
	return &Flow{
		pipeline:      pipeline,
		submitter:     submitter,
		resolver:      resolver,
		userID:        userID,
		AnimationHold: 2 * time.Second,
		geoDone:       make(chan struct{}),
	}
}

// Stage returns the flow's current step.
func (f *Flow) Stage() FlowStage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stage
}

// Activate opens the camera. Denial surfaces the error and keeps the flow on
// the capture step.
func (f *Flow) Activate(ctx context.Context) error {
	return f.pipeline.Activate(ctx)
}

// Capture takes the still, advances to the crop step, and kicks off the
// background geo resolution.
func (f *Flow) Capture(ctx context.Context) error {
	still, err := f.pipeline.Capture(ctx)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.captured = still
	f.stage = FlowCrop
	f.mu.Unlock()

	f.geoOnce.Do(func() {
		f.mu.Lock()
		done := f.geoDone
		f.mu.Unlock()
		go f.resolveGeo(done)
	})
	return nil
}

// Crop extracts the selected rectangle and advances to the preview step. On
// failure the flow stays on the crop step.
func (f *Flow) Crop(vp media.Viewport) error {
	f.mu.Lock()
	still := f.captured
	stage := f.stage
	f.mu.Unlock()

	if stage != FlowCrop {
		return fmt.Errorf("nothing captured to crop")
	}

	img, err := media.DecodeBounds(still)
	if err != nil {
		return err
	}
	cropped, err := media.Crop(still, media.RectForViewport(img, vp))
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.cropped = cropped
	f.stage = FlowPreview
	f.mu.Unlock()
	return nil
}

// Submit sends the composed post. On success the flow shows the success
// animation and resets to capture once the hold elapses; on failure it stays
// on the preview step so the user can retry without re-capturing.
func (f *Flow) Submit(ctx context.Context, caption string, tags []string) (*models.Post, error) {
	f.mu.Lock()
	if f.stage != FlowPreview {
		f.mu.Unlock()
		return nil, fmt.Errorf("nothing to submit")
	}
	image := f.cropped
	f.mu.Unlock()

	post, err := f.submitter.Submit(ctx, SubmitInput{
		UserID:  f.userID,
		Image:   image,
		Caption: caption,
		Tags:    tags,
		Geo:     f.Geo(),
	})
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.stage = FlowDone
	f.mu.Unlock()

	time.AfterFunc(f.AnimationHold, f.Reset)
	return post, nil
}

// Geo returns the resolved geo-tag if resolution has finished, else nil.
func (f *Flow) Geo() *models.GeoData {
	f.mu.Lock()
	done, geo := f.geoDone, f.geo
	f.mu.Unlock()

	select {
	case <-done:
		return geo
	default:
		return nil
	}
}

// Reset returns the flow to its initial capture state and releases the
// camera. Safe on every exit path. Geo resolution is rearmed so the next
// composition resolves a fresh tag instead of reusing this one's.
func (f *Flow) Reset() {
	f.pipeline.Close()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stage = FlowCapture
	f.captured = nil
	f.cropped = nil
	f.geoOnce = sync.Once{}
	f.geoDone = make(chan struct{})
	f.geo = nil
}

func (f *Flow) resolveGeo(done chan struct{}) {
	defer close(done)
	if f.resolver == nil {
		return
	}

	geo, err := f.resolver.Resolve(context.Background())
	if err != nil {
		// Absence of a geo-tag never blocks the flow.
		log.Printf("composer: geo resolution: %v", err)
		return
	}
	f.mu.Lock()
	// A reset rearms geoDone; a resolution started before that reset belongs
	// to the abandoned composition and must not tag the next one.
	if f.geoDone == done {
		f.geo = geo
	}
	f.mu.Unlock()
}
