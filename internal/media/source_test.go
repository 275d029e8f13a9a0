package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func snapshotServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	frame := testJPEG(t, 64, 80)
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(frame)
	}))
}

func TestSnapshotCameraExclusiveAcquire(t *testing.T) {
	srv := snapshotServer(t, http.StatusOK)
	defer srv.Close()

	cam := NewSnapshotCamera(srv.URL, srv.Client())
	stream, err := cam.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	if _, err := cam.Acquire(context.Background()); err == nil {
		t.Fatal("expected second acquire to fail while held")
	}

	stream.Stop()
	stream.Stop() // safe to repeat

	second, err := cam.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	second.Stop()
}

func TestSnapshotCameraPermissionDenied(t *testing.T) {
	srv := snapshotServer(t, http.StatusForbidden)
	defer srv.Close()

	cam := NewSnapshotCamera(srv.URL, srv.Client())
	_, err := cam.Acquire(context.Background())
	if err == nil {
		t.Fatal("expected denial to surface")
	}
	if !strings.Contains(err.Error(), "permission denied") {
		t.Fatalf("expected permission denial, got %v", err)
	}

	// Denial must not leave the camera held.
	srvOK := snapshotServer(t, http.StatusOK)
	defer srvOK.Close()
	cam.URL = srvOK.URL
	cam.Client = srvOK.Client()
	stream, err := cam.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire after denial: %v", err)
	}
	stream.Stop()
}

func TestSnapshotCameraDecodesFrame(t *testing.T) {
	srv := snapshotServer(t, http.StatusOK)
	defer srv.Close()

	cam := NewSnapshotCamera(srv.URL, srv.Client())
	stream, err := cam.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer stream.Stop()

	frame, err := stream.Frame(context.Background())
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if b := frame.Bounds(); b.Dx() != 64 || b.Dy() != 80 {
		t.Fatalf("expected 64x80 frame, got %v", b)
	}
}
