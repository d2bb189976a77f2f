package handler

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/jainqa/internal/middleware"
)

type RouterDeps struct {
	Upload *UploadHandler
	Chat   *ChatHandler
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	router.POST("/upload", deps.Upload.Upload)
	router.POST("/chat", deps.Chat.Chat)

	return router
}
