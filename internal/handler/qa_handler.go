package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docqa/internal/model"
	"github.com/xxxsen/docqa/internal/pkg/errcode"
	"github.com/xxxsen/docqa/internal/pkg/response"
)

type QuestionAnswerer interface {
	Answer(ctx context.Context, question string) (*model.QueryResult, error)
	Stats(ctx context.Context) (*model.IndexStats, error)
}

type QAHandler struct {
	qa QuestionAnswerer
}

func NewQAHandler(qa QuestionAnswerer) *QAHandler {
	return &QAHandler{qa: qa}
}

type askRequest struct {
	Question string `json:"question"`
}

func (h *QAHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "question is required")
		return
	}
	res, err := h.qa.Answer(c.Request.Context(), req.Question)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, res)
}

func (h *QAHandler) Stats(c *gin.Context) {
	stats, err := h.qa.Stats(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, stats)
}
