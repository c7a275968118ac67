package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docqa/internal/middleware"
)

type RouterDeps struct {
	Auth            *AuthHandler
	Documents       *DocumentHandler
	QA              *QAHandler
	JWTSecret       []byte
	UploadPerMinute int
	AskPerMinute    int
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/token", deps.Auth.Token)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.POST("/upload", middleware.RateLimit(deps.UploadPerMinute, time.Minute), deps.Documents.Upload)
	authGroup.POST("/ask", middleware.RateLimit(deps.AskPerMinute, time.Minute), deps.QA.Ask)
	authGroup.GET("/index/stats", deps.QA.Stats)
}
