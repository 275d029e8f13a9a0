package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"sync"

	"github.com/disintegration/imaging"
)

// Source is the platform camera boundary. Acquire hands out an exclusive
// Stream; a second Acquire before Stop fails.
type Source interface {
	Acquire(ctx context.Context) (Stream, error)
}

// Stream is one live camera stream. Frame returns the current video frame;
// Stop releases the underlying device and is safe to call more than once.
type Stream interface {
	Frame(ctx context.Context) (image.Image, error)
	Stop()
}

// SnapshotCamera reads still frames from an HTTP snapshot endpoint, the way
// IP cameras expose them. It enforces exclusive acquisition.
type SnapshotCamera struct {
	URL    string
	Client *http.Client

	mu   sync.Mutex
	held bool
}

// NewSnapshotCamera creates a camera source for a snapshot URL.
func NewSnapshotCamera(url string, client *http.Client) *SnapshotCamera {
	if client == nil {
		client = http.DefaultClient
	}
	return &SnapshotCamera{URL: url, Client: client}
}

// Acquire reserves the camera and verifies it is reachable. A denied or
// absent device returns an error and leaves nothing held.
func (c *SnapshotCamera) Acquire(ctx context.Context) (Stream, error) {
	c.mu.Lock()
	if c.held {
		c.mu.Unlock()
		return nil, fmt.Errorf("camera already in use")
	}
	c.held = true
	c.mu.Unlock()

	stream := &snapshotStream{camera: c}
	if _, err := stream.Frame(ctx); err != nil {
		stream.Stop()
		return nil, fmt.Errorf("camera unavailable: %w", err)
	}
	return stream, nil
}

type snapshotStream struct {
	camera *SnapshotCamera
	once   sync.Once
}

func (s *snapshotStream) Frame(ctx context.Context) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.camera.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.camera.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("camera permission denied")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("camera returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}

func (s *snapshotStream) Stop() {
	s.once.Do(func() {
		s.camera.mu.Lock()
		s.camera.held = false
		s.camera.mu.Unlock()
	})
}
