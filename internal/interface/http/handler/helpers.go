package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/labour-market/internal/http/middleware"
	"github.com/ignatzorin/labour-market/internal/interface/http/response"
	"github.com/ignatzorin/labour-market/internal/pkg/apperror"
	"github.com/ignatzorin/labour-market/internal/pkg/authz"
)

// actor возвращает автора запроса или отвечает 401.
func actor(c *gin.Context) (authz.Actor, bool) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthorized)
		return authz.Actor{}, false
	}
	return a, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "параметр "+name+" должен быть валидным UUID")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON разбирает тело запроса в типизированную команду.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, apperror.Wrap(err, apperror.ErrCodeValidation, "некорректные данные запроса"))
		return false
	}
	return true
}

func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// optionalUUID разбирает необязательный UUID из тела запроса.
func optionalUUID(raw *string) uuid.UUID {
	if raw == nil {
		return uuid.Nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// fail передаёт ошибку в middleware.ErrorHandler, который логирует и отвечает клиенту.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
}
