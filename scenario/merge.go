package scenario

import (
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jungha-dev/newsVideo-sub000/assembly"
)

// handleRegistry tracks live merge handles by id so a follow-up request can
// download or persist a result inside its validity window. Each entry is
// dropped shortly after its handle's expiry so the map never accumulates
// dead handles.
type handleRegistry struct {
	mu      sync.Mutex
	handles map[string]*assembly.Handle
}

func (r *handleRegistry) put(h *assembly.Handle) {
	r.mu.Lock()
	if r.handles == nil {
		r.handles = make(map[string]*assembly.Handle)
	}
	r.handles[h.ID()] = h
	r.mu.Unlock()

	time.AfterFunc(time.Until(h.ExpiresAt())+time.Second, func() {
		r.remove(h.ID())
	})
}

func (r *handleRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, id)
}

func (r *handleRegistry) get(id string) (*assembly.Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[id]
	if !ok {
		return nil, false
	}
	if h.Released() {
		delete(r.handles, id)
		return nil, false
	}
	return h, true
}

type MergeRequest struct {
	CaptionColor string `json:"caption_color"`
	CaptionStyle string `json:"caption_style" binding:"required"`
}

// Merge assembles the included working-set clips. The response carries a
// transient handle id; the blob must be downloaded or persisted before the
// handle expires.
func (h *Handler) Merge(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	handle, err := sess.Merge(c.Request.Context(), req.CaptionColor, assembly.CaptionStyle(req.CaptionStyle))
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.handles.put(handle)

	c.JSON(http.StatusOK, gin.H{
		"handle_id":  handle.ID(),
		"expires_at": handle.ExpiresAt(),
	})
}

// DownloadMerge streams a merge result while its handle is still valid.
func (h *Handler) DownloadMerge(c *gin.Context) {
	handle, ok := h.handles.get(c.Param("handle"))
	if !ok {
		c.JSON(http.StatusGone, gin.H{"error": "Merge result expired"})
		return
	}

	f, err := handle.Open()
	if err != nil {
		if errors.Is(err, assembly.ErrHandleReleased) {
			c.JSON(http.StatusGone, gin.H{"error": "Merge result expired"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	c.Header("Content-Type", "video/mp4")
	c.Status(http.StatusOK)
	io.Copy(c.Writer, f)
}

type PersistRequest struct {
	Name string `json:"name" binding:"required"`
}

// PersistMerge copies a merge result into durable storage before its handle
// expires and returns the stable reference URL.
func (h *Handler) PersistMerge(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	handle, found := h.handles.get(c.Param("handle"))
	if !found {
		c.JSON(http.StatusGone, gin.H{"error": "Merge result expired"})
		return
	}
	var req PersistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ref, err := sess.Persist(c.Request.Context(), handle, req.Name)
	if err != nil {
		if errors.Is(err, assembly.ErrHandleReleased) {
			c.JSON(http.StatusGone, gin.H{"error": "Merge result expired"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": ref})
}
