package router

import (
	"resume-qa-go/internal/api/handler"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/rs/zerolog"
)

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, candidateHandler *handler.CandidateHandler, logger *zerolog.Logger) {
	h.Use(RequestID(logger), AccessLog())

	h.GET("/", candidateHandler.HandleIndex)

	api := h.Group("/api/v1")
	api.GET("/health", candidateHandler.HandleHealth)
	api.POST("/upload", candidateHandler.HandleUpload)
	api.GET("/candidates", candidateHandler.HandleListCandidates)
	api.GET("/candidate/:id", candidateHandler.HandleGetCandidate)
	api.POST("/ask/:candidate_id", candidateHandler.HandleAsk)
}
