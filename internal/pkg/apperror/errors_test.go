package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrCodeJobNotOpen:         http.StatusConflict,
		ErrCodeBidNotPending:      http.StatusConflict,
		ErrCodeDuplicateBid:       http.StatusConflict,
		ErrCodeNotAuthorized:      http.StatusForbidden,
		ErrCodeSelfBidForbidden:   http.StatusForbidden,
		ErrCodeInsufficientFunds:  http.StatusUnprocessableEntity,
		ErrCodeInvalidEscrowState: http.StatusUnprocessableEntity,
		ErrCodeValidation:         http.StatusBadRequest,
		ErrCodeNotFound:           http.StatusNotFound,
		ErrCodeDatabaseError:      http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, New(code, "x").HTTPStatus, code)
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindStateConflict, KindOf(ErrJobNotOpen))
	assert.Equal(t, KindResourceConstraint, KindOf(ErrInsufficientFunds))
	assert.Equal(t, KindAuthorization, KindOf(ErrSelfBidForbidden))
	assert.Equal(t, KindValidation, KindOf(New(ErrCodeValidation, "bad")))
	assert.Equal(t, KindInfrastructure, KindOf(errors.New("connection reset")))
	assert.Equal(t, KindInfrastructure, KindOf(Wrap(errors.New("boom"), ErrCodeDatabaseError, "db")))
}

func TestIsExpected(t *testing.T) {
	assert.True(t, IsExpected(ErrBidNotPending))
	assert.True(t, IsExpected(fmt.Errorf("accept: %w", ErrInsufficientFunds)))
	assert.False(t, IsExpected(errors.New("sql: connection refused")))
	assert.False(t, IsExpected(nil))
}

func TestErrorsIsMatchesByCode(t *testing.T) {
	err := InvalidJobState("completed", "cancelled")
	assert.True(t, errors.Is(err, New(ErrCodeInvalidJobState, "")))
	assert.False(t, errors.Is(err, ErrJobNotOpen))
	assert.Contains(t, err.Error(), "completed")
	assert.Contains(t, err.Error(), "cancelled")

	wrapped := fmt.Errorf("complete job: %w", ErrNotAuthorized)
	assert.True(t, errors.Is(wrapped, ErrNotAuthorized))
	assert.True(t, IsForbidden(wrapped))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("deadlock detected")
	err := Wrap(cause, ErrCodeDatabaseError, "не удалось сохранить заказ")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "deadlock detected")
}
