package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/jungha-dev/newsVideo-sub000/assembly"
	"github.com/jungha-dev/newsVideo-sub000/encoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMerger struct{}

func (stubMerger) Merge(ctx context.Context, req encoder.MergeRequest) ([]byte, error) {
	return []byte("merged"), nil
}

func testHandle(t *testing.T, ttl time.Duration) *assembly.Handle {
	t.Helper()
	e := assembly.NewEngine(stubMerger{}, ttl, t.TempDir())
	h, err := e.Merge(context.Background(), []assembly.ClipEdit{
		{ClipRef: "https://clips.example.com/a.mp4", TrimStart: 0, TrimEnd: 5, Speed: 1, Included: true},
	}, "#ffffff", assembly.CaptionBox)
	require.NoError(t, err)
	return h
}

func (r *handleRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

func TestHandleRegistryLookup(t *testing.T) {
	var reg handleRegistry
	h := testHandle(t, time.Minute)
	defer h.Release()

	reg.put(h)
	got, ok := reg.get(h.ID())
	require.True(t, ok)
	assert.Equal(t, h, got)

	_, ok = reg.get("no-such-handle")
	assert.False(t, ok)
}

func TestHandleRegistryDropsExpiredEntries(t *testing.T) {
	var reg handleRegistry
	h := testHandle(t, 30*time.Millisecond)

	reg.put(h)
	require.Equal(t, 1, reg.size())

	// The entry itself must go, not just its lookup visibility.
	assert.Eventually(t, func() bool { return reg.size() == 0 },
		3*time.Second, 10*time.Millisecond)

	_, ok := reg.get(h.ID())
	assert.False(t, ok)
}

func TestHandleRegistryHidesReleasedHandles(t *testing.T) {
	var reg handleRegistry
	h := testHandle(t, time.Minute)

	reg.put(h)
	require.NoError(t, h.Release())

	_, ok := reg.get(h.ID())
	assert.False(t, ok)
}
