package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handlers groups everything the router serves. WS may be nil.
type Handlers struct {
	Flows     *FlowHandler
	Directory *DirectoryHandler
	WS        http.HandlerFunc
}

func NewRouter(h Handlers) *gin.Engine {
	r := gin.Default()
	r.Use(CORS())

	api := r.Group("/api")
	{
		flows := api.Group("/flows")
		flows.GET("", h.Flows.GetFlows)
		flows.GET("/:id", h.Flows.GetFlow)
		flows.GET("/:id/validate", h.Flows.ValidateFlow)
		flows.PUT("/:id/steps/:stepId", h.Flows.PatchStep)
		flows.POST("/:id/publish", h.Flows.Publish)
		flows.POST("/:id/unpublish", h.Flows.Unpublish)
		flows.POST("/:id/republish", h.Flows.Republish)
		flows.POST("/:id/restore", h.Flows.Restore)
		flows.POST("/:id/duplicate", h.Flows.Duplicate)
		flows.GET("/:id/history", h.Flows.History)
		flows.GET("/:id/references/:stepId", h.Flows.References)
		flows.POST("/:id/render/:stepId", h.Flows.Render)

		dir := api.Group("/directory")
		dir.GET("/bot-menu", h.Directory.BotMenu)
		dir.GET("/report", h.Directory.Report)
	}

	if h.WS != nil {
		r.GET("/ws", gin.WrapF(h.WS))
	}
	return r
}
