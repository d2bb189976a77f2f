package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/jainqa/internal/pkg/errcode"
	"github.com/xxxsen/jainqa/internal/pkg/response"
)

// apiKey reads the caller's provider credential. It travels only in
// this header and is never logged or stored.
func apiKey(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader("x-api-key"))
}

func requireAPIKey(c *gin.Context) (string, bool) {
	key := apiKey(c)
	if key == "" {
		response.Error(c, http.StatusUnauthorized, errcode.ErrUnauthorized, "x-api-key header is required")
		return "", false
	}
	return key, true
}
