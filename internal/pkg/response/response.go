package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Success writes the payload as-is. Handlers return flat objects
// ({"message": ...}, {"answer": ...}) so the chat client can decode
// them without an envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func Error(c *gin.Context, status int, code int, message string) {
	c.JSON(status, gin.H{"code": code, "message": message})
}
