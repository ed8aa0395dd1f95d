package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jungha-dev/newsVideo-sub000/assembly"
	"github.com/jungha-dev/newsVideo-sub000/models"
	"github.com/jungha-dev/newsVideo-sub000/processing"
	"github.com/jungha-dev/newsVideo-sub000/providers"
	"github.com/jungha-dev/newsVideo-sub000/scenes"
	"github.com/jungha-dev/newsVideo-sub000/session"
	"gorm.io/gorm"
)

type Handler struct {
	DB       *gorm.DB
	Sessions *session.Manager

	// Live merge handles by id, valid only until their bounded expiry.
	handles handleRegistry
}

func NewHandler(db *gorm.DB, sessions *session.Manager) *Handler {
	return &Handler{DB: db, Sessions: sessions}
}

type CreateScenarioRequest struct {
	Brief      string `json:"brief" binding:"required"`
	SceneCount int    `json:"scene_count" binding:"required,min=1,max=10"`
}

func (h *Handler) CreateScenario(c *gin.Context) {
	userID := c.GetUint("user_id")
	var req CreateScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.Sessions.Compose(c.Request.Context(), userID, req.Brief, req.SceneCount)
	if err != nil {
		if errors.Is(err, processing.ErrScenarioParse) {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compose scenario"})
		return
	}

	c.JSON(http.StatusOK, sess.Scenario())
}

func (h *Handler) ListScenarios(c *gin.Context) {
	userID := c.GetUint("user_id")
	var scenarios []models.Scenario
	if err := h.DB.Where("user_id = ?", userID).Find(&scenarios).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve scenarios"})
		return
	}
	c.JSON(http.StatusOK, scenarios)
}

func (h *Handler) GetScenario(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Scenario())
}

func (h *Handler) DeleteScenario(c *gin.Context) {
	userID := c.GetUint("user_id")
	id, ok := h.scenarioID(c)
	if !ok {
		return
	}
	if err := h.Sessions.Discard(c.Request.Context(), userID, id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Scenario discarded"})
}

type SceneRequest struct {
	ImagePrompt string `json:"image_prompt" binding:"required"`
	Narration   string `json:"narration"`
}

func (h *Handler) AddScene(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req SceneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := sess.AddManualScene(c.Request.Context(), models.Scene{
		ImagePrompt: req.ImagePrompt,
		Narration:   req.Narration,
	}); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Scenario())
}

func (h *Handler) UpdateScene(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	n, ok := h.sceneNumber(c)
	if !ok {
		return
	}
	var req SceneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := sess.UpdateScene(c.Request.Context(), n, models.Scene{
		ImagePrompt: req.ImagePrompt,
		Narration:   req.Narration,
	}); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Scenario())
}

func (h *Handler) DeleteScene(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	n, ok := h.sceneNumber(c)
	if !ok {
		return
	}
	if err := sess.DeleteScene(c.Request.Context(), n); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Scenario())
}

type ComposePromptRequest struct {
	Fragments []string `json:"fragments" binding:"required"`
	Layout    string   `json:"layout"`
	// Style selects the composition token: "panel" or "scene" (default).
	Style string `json:"style"`
}

// ComposePrompt builds a composite prompt from ordered fragments and writes
// it onto the scene.
func (h *Handler) ComposePrompt(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	n, ok := h.sceneNumber(c)
	if !ok {
		return
	}
	var req ComposePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Style != "" && req.Style != "panel" && req.Style != "scene" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Style must be panel or scene"})
		return
	}

	prompt, err := sess.ComposePrompt(c.Request.Context(), n, req.Fragments, processing.Layout(req.Layout), req.Style == "panel")
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"image_prompt": prompt})
}

type SeedRequest struct {
	URL string `json:"url" binding:"required"`
}

func (h *Handler) AttachSeed(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	n, ok := h.sceneNumber(c)
	if !ok {
		return
	}
	var req SeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := sess.AttachSeed(c.Request.Context(), n, req.URL); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Scenario())
}

type AnnouncerRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (h *Handler) SetAnnouncer(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	n, ok := h.sceneNumber(c)
	if !ok {
		return
	}
	var req AnnouncerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := sess.SetAnnouncer(c.Request.Context(), n, *req.Enabled); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Scenario())
}

type RenderRequest struct {
	Provider string          `json:"provider" binding:"required"`
	Params   json.RawMessage `json:"params" binding:"required"`
}

func (h *Handler) RenderScene(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	n, ok := h.sceneNumber(c)
	if !ok {
		return
	}
	params, ok := h.renderParams(c)
	if !ok {
		return
	}

	job, err := sess.RenderScene(c.Request.Context(), n, params)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// RenderAll kicks every scene's job off and returns immediately; callers
// follow progress via GET /jobs or the redis status channel.
func (h *Handler) RenderAll(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	params, ok := h.renderParams(c)
	if !ok {
		return
	}
	if err := params.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The request context dies with this handler; jobs keep their own.
	go func() {
		if _, err := sess.RenderAll(context.Background(), params); err != nil {
			log.Printf("Render all failed: %v", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"message": "Render started"})
}

func (h *Handler) GetJobs(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Jobs())
}

type ClipRequest struct {
	ClipRef   string  `json:"clip_ref" binding:"required"`
	Caption   string  `json:"caption"`
	TrimStart float64 `json:"trim_start"`
	TrimEnd   float64 `json:"trim_end"`
	Speed     float64 `json:"speed"`
	Included  *bool   `json:"included"`
}

func (r ClipRequest) edit() assembly.ClipEdit {
	speed := r.Speed
	if speed == 0 {
		speed = 1
	}
	// Externally supplied clips default to excluded until the user opts in.
	included := false
	if r.Included != nil {
		included = *r.Included
	}
	return assembly.ClipEdit{
		ClipRef:   r.ClipRef,
		Caption:   r.Caption,
		TrimStart: r.TrimStart,
		TrimEnd:   r.TrimEnd,
		Speed:     speed,
		Included:  included,
	}
}

func (h *Handler) ListClips(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Clips())
}

func (h *Handler) AddClip(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req ClipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess.AddClip(req.edit())
	c.JSON(http.StatusOK, sess.Clips())
}

func (h *Handler) UpdateClip(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	pos, ok := h.clipPosition(c)
	if !ok {
		return
	}
	var req ClipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := sess.UpdateClip(pos, req.edit()); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Clips())
}

func (h *Handler) RemoveClip(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	pos, ok := h.clipPosition(c)
	if !ok {
		return
	}
	if err := sess.RemoveClip(pos); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Clips())
}

// --- helpers ---

func (h *Handler) scenarioID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid scenario ID"})
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) sceneNumber(c *gin.Context) (int, bool) {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil || n < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid scene number"})
		return 0, false
	}
	return n, true
}

func (h *Handler) clipPosition(c *gin.Context) (int, bool) {
	pos, err := strconv.Atoi(c.Param("pos"))
	if err != nil || pos < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid clip position"})
		return 0, false
	}
	return pos, true
}

func (h *Handler) session(c *gin.Context) (*session.Session, bool) {
	id, ok := h.scenarioID(c)
	if !ok {
		return nil, false
	}
	sess, err := h.Sessions.Get(c.Request.Context(), c.GetUint("user_id"), id)
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return sess, true
}

func (h *Handler) renderParams(c *gin.Context) (providers.Params, bool) {
	var req RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	params, err := providers.ParseParams(providers.ID(req.Provider), req.Params)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return params, true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, scenes.ErrSceneNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, scenes.ErrLastScene),
		errors.Is(err, session.ErrUnsafeSeed),
		errors.Is(err, session.ErrClipMissing),
		errors.Is(err, processing.ErrEmptyFragment),
		errors.Is(err, processing.ErrNoFragments),
		errors.Is(err, processing.ErrTooManyFragment),
		errors.Is(err, processing.ErrUnknownLayout),
		errors.Is(err, providers.ErrInvalidParams),
		errors.Is(err, assembly.ErrNoClipsIncluded),
		errors.Is(err, assembly.ErrBadTrimWindow),
		errors.Is(err, assembly.ErrBadSpeed),
		errors.Is(err, assembly.ErrUnknownStyle):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
