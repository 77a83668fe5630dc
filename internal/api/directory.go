package api

import (
	"net/http"
	"time"

	"triage-flows/internal/directory"

	"github.com/gin-gonic/gin"
)

type DirectoryHandler struct {
	dir       *directory.Directory
	empresaID string
	Now       func() time.Time
}

func NewDirectoryHandler(dir *directory.Directory, empresaID string) *DirectoryHandler {
	return &DirectoryHandler{dir: dir, empresaID: empresaID, Now: time.Now}
}

func (h *DirectoryHandler) BotMenu(c *gin.Context) {
	menu, err := h.dir.BotMenu(c.Request.Context(), h.empresa(c), h.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	if menu == nil {
		c.JSON(http.StatusOK, []interface{}{})
		return
	}
	c.JSON(http.StatusOK, menu)
}

func (h *DirectoryHandler) Report(c *gin.Context) {
	report, err := h.dir.Report(c.Request.Context(), h.empresa(c), h.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// empresa prefers the query parameter over the configured company.
func (h *DirectoryHandler) empresa(c *gin.Context) string {
	if id := c.Query("empresaId"); id != "" {
		return id
	}
	return h.empresaID
}
