package assembly

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrHandleReleased is returned when a handle is opened after its backing
// storage was freed.
var ErrHandleReleased = errors.New("merge result already released")

// Handle is the scoped, time-bounded reference to a merge result. Its
// backing file is freed no later than the TTL after creation whether or not
// the caller consumed it; callers wanting durability must persist a copy
// before then. Release after the caller already copied the data out is not
// an error.
type Handle struct {
	id        string
	path      string
	createdAt time.Time
	expiresAt time.Time

	mu       sync.Mutex
	released bool
	timer    *time.Timer
}

func newHandle(blob []byte, ttl time.Duration, dir string) (*Handle, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	id := uuid.New().String()
	path := filepath.Join(dir, "merge-"+id+".mp4")
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return nil, fmt.Errorf("write merge result: %w", err)
	}

	now := time.Now()
	h := &Handle{
		id:        id,
		path:      path,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
	h.timer = time.AfterFunc(ttl, func() { _ = h.Release() })
	return h, nil
}

// ID returns the handle's unique id.
func (h *Handle) ID() string { return h.id }

// ExpiresAt returns the deadline after which the handle is no longer valid.
func (h *Handle) ExpiresAt() time.Time { return h.expiresAt }

// Open returns a reader over the merged media. Fails once released.
func (h *Handle) Open() (*os.File, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil, ErrHandleReleased
	}
	return os.Open(h.path)
}

// Released reports whether the backing storage was freed.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Release frees the backing storage. Idempotent: releasing twice, or after
// the expiry timer already fired, is a no-op.
func (h *Handle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil
	}
	h.released = true
	if h.timer != nil {
		h.timer.Stop()
	}
	if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
