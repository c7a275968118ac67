package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docqa/internal/ai"
	"github.com/xxxsen/docqa/internal/middleware"
	"github.com/xxxsen/docqa/internal/pkg/errcode"
	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
	"github.com/xxxsen/docqa/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("request_id", c.GetString(middleware.ContextRequestIDKey)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("username", c.GetString(middleware.ContextUsernameKey)),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, errcode.ErrUnauthorized, "invalid credentials")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
	case appErr.IsUnsupportedKind(err):
		response.Error(c, http.StatusBadRequest, errcode.ErrUnsupportedKind, "unsupported file type")
	case appErr.IsExtractionFailed(err):
		response.Error(c, http.StatusUnprocessableEntity, errcode.ErrExtractionFailed, "text extraction failed")
	case errors.Is(err, appErr.ErrTooMany):
		response.Error(c, http.StatusTooManyRequests, errcode.ErrTooMany, "too many requests")
	case appErr.IsStorageUnavailable(err):
		response.Error(c, http.StatusServiceUnavailable, errcode.ErrStorageUnavailable, "storage unavailable")
	case errors.Is(err, ai.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		response.Error(c, http.StatusServiceUnavailable, errcode.ErrAIUnavailable, "model unavailable")
	default:
		response.Error(c, http.StatusInternalServerError, errcode.ErrInternal, "internal error")
	}
}
