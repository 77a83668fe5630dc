package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"triage-flows/internal/contact"
	"triage-flows/internal/flow"
	"triage-flows/internal/store"
	"triage-flows/pkg/models"

	"github.com/gin-gonic/gin"
)

type FlowHandler struct {
	store    *store.FlowStore
	contacts *contact.Lookup
}

func NewFlowHandler(s *store.FlowStore, contacts *contact.Lookup) *FlowHandler {
	return &FlowHandler{store: s, contacts: contacts}
}

// StepPatchRequest replaces one step. ExpectedVersion zero skips the check.
type StepPatchRequest struct {
	ExpectedVersion int       `json:"expectedVersion"`
	Step            flow.Step `json:"step"`
}

func (h *FlowHandler) GetFlows(c *gin.Context) {
	f := store.Filter{EmpresaID: c.Query("empresaId")}
	if v, ok := boolQuery(c, "active"); ok {
		f.Active = &v
	}
	if v, ok := boolQuery(c, "published"); ok {
		f.Published = &v
	}
	f.Kind = c.Query("kind")
	f.Channel = c.Query("channel")

	docs, err := h.store.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]models.FlowSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.FlowSummary{
			ID:          d.ID,
			EmpresaID:   d.EmpresaID,
			Name:        d.Name,
			Kind:        string(d.Kind),
			Channels:    d.Channels,
			Priority:    d.Priority,
			Active:      d.Active,
			Published:   d.Published,
			PublishedAt: d.PublishedAt,
			Version:     d.Version,
			StepCount:   len(d.Structure.Steps),
			UpdatedAt:   d.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *FlowHandler) GetFlow(c *gin.Context) {
	d, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *FlowHandler) ValidateFlow(c *gin.Context) {
	d, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	violations := flow.Validate(d)
	if violations == nil {
		violations = []flow.Violation{}
	}
	unreachable := flow.Unreachable(d.Structure)
	if unreachable == nil {
		unreachable = []string{}
	}
	c.JSON(http.StatusOK, models.ValidationReport{
		FlowID:      d.ID,
		Version:     d.Version,
		Valid:       len(violations) == 0,
		Violations:  violations,
		Unreachable: unreachable,
	})
}

func (h *FlowHandler) PatchStep(c *gin.Context) {
	var req StepPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, err := h.store.ApplyStepPatch(c.Request.Context(), c.Param("id"), req.ExpectedVersion, c.Param("stepId"), req.Step)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *FlowHandler) Publish(c *gin.Context) {
	h.transition(c, h.store.Publish)
}

func (h *FlowHandler) Unpublish(c *gin.Context) {
	h.transition(c, h.store.Unpublish)
}

func (h *FlowHandler) Republish(c *gin.Context) {
	h.transition(c, h.store.Republish)
}

func (h *FlowHandler) Restore(c *gin.Context) {
	var req models.RestoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, err := h.store.RestoreVersion(c.Request.Context(), c.Param("id"), req.ExpectedVersion, req.SnapshotVersion)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *FlowHandler) Duplicate(c *gin.Context) {
	var req models.DuplicateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, err := h.store.Duplicate(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *FlowHandler) History(c *gin.Context) {
	snaps, err := h.store.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]models.SnapshotInfo, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, models.SnapshotInfo{
			Version:   s.Version,
			Note:      s.Note,
			CreatedAt: s.CreatedAt,
			StepCount: len(s.Structure.Steps),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *FlowHandler) References(c *gin.Context) {
	stepID := c.Param("stepId")
	refs, err := h.store.StepsReferencing(c.Request.Context(), c.Param("id"), stepID)
	if err != nil {
		respondError(c, err)
		return
	}
	if refs == nil {
		refs = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"stepId": stepID, "referencedBy": refs})
}

func (h *FlowHandler) Render(c *gin.Context) {
	var req models.RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	stepID := c.Param("stepId")
	step, ok := d.Structure.Steps[stepID]
	if !ok {
		respondError(c, &flow.NotFoundError{Resource: "step", ID: stepID})
		return
	}

	var info flow.ContactInfo
	if req.Phone != "" && step.Metadata.Bool(flow.MetaAutoDetectContact) && h.contacts != nil {
		info, err = h.contacts.Find(c.Request.Context(), req.Phone)
		if err != nil {
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, models.RenderResponse{
		StepID:       stepID,
		Text:         flow.RenderStep(step, req.Bindings, info),
		KnownContact: info.Known,
	})
}

type transitionFunc func(ctx context.Context, id string, expectedVersion int) (flow.Document, error)

func (h *FlowHandler) transition(c *gin.Context, fn transitionFunc) {
	var req models.VersionedRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, err := fn(c.Request.Context(), c.Param("id"), req.ExpectedVersion)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func boolQuery(c *gin.Context, key string) (bool, bool) {
	raw, ok := c.GetQuery(key)
	if !ok {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
