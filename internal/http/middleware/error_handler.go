package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/labour-market/internal/interface/http/response"
	"github.com/ignatzorin/labour-market/internal/logger"
	"github.com/ignatzorin/labour-market/internal/pkg/apperror"
)

// ErrorHandler отвечает за ошибки, добавленные обработчиками через c.Error.
// Штатные отказы бизнес-операций пишутся в лог как info, сбои инфраструктуры как error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		entry := logger.Log.WithFields(logrus.Fields{
			"path":   c.FullPath(),
			"method": c.Request.Method,
			"kind":   apperror.KindOf(err),
		})
		logger.Failure(entry, err, "http: запрос завершился ошибкой")

		if !c.Writer.Written() {
			response.Error(c, err)
		}
	}
}

// RequestLogger пишет строку лога на каждый запрос.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"status":   c.Writer.Status(),
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"duration": time.Since(start).String(),
			"ip":       c.ClientIP(),
		}
		if actor, ok := ActorFrom(c); ok {
			fields["user_id"] = actor.UserID
		}
		entry := logger.Log.WithFields(fields)
		if c.Writer.Status() >= 500 {
			entry.Error("http: запрос")
			return
		}
		entry.Debug("http: запрос")
	}
}

// Recovery превращает панику обработчика в 500 с логом.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Log.WithFields(logrus.Fields{
			"panic": recovered,
			"path":  c.Request.URL.Path,
		}).Error("http: паника в обработчике")
		response.Error(c, apperror.New(apperror.ErrCodeInternal, "внутренняя ошибка сервера"))
		c.Abort()
	})
}
