package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"society-backend/apperrors"
)

func JSONSuccess(c *gin.Context, code int, data interface{}) {
	c.JSON(code, gin.H{"success": true, "data": data})
}

func JSONError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"success": false, "error": message})
}

// JSONAppError maps an AppError onto the response envelope; anything else
// becomes a 500 with a generic message.
func JSONAppError(c *gin.Context, err error) {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		c.JSON(appErr.Code, gin.H{
			"success": false,
			"error":   appErr.Message,
			"details": appErr.Details,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal_error"})
}
