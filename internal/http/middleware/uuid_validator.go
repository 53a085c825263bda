package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/labour-market/internal/interface/http/response"
)

// UUIDValidator проверяет, что параметры пути являются UUID.
// Использование: jobs.POST("/:id/bids/:bidId/accept", UUIDValidator("id", "bidId"), h.Accept)
func UUIDValidator(params ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range params {
			if _, err := uuid.Parse(c.Param(name)); err != nil {
				response.BadRequest(c, "параметр "+name+" должен быть валидным UUID")
				c.Abort()
				return
			}
		}
		c.Next()
	}
}
