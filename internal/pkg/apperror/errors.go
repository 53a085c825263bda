package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"

	// Конфликты состояния.
	ErrCodeJobNotOpen      ErrorCode = "JOB_NOT_OPEN"
	ErrCodeBidNotPending   ErrorCode = "BID_NOT_PENDING"
	ErrCodeInvalidJobState ErrorCode = "INVALID_JOB_STATE"
	ErrCodeAlreadyResolved ErrorCode = "ALREADY_RESOLVED"
	ErrCodeDuplicateBid    ErrorCode = "DUPLICATE_BID"

	// Авторизация.
	ErrCodeNotAuthorized    ErrorCode = "NOT_AUTHORIZED"
	ErrCodeSelfBidForbidden ErrorCode = "SELF_BID_FORBIDDEN"

	// Ограничения ресурсов.
	ErrCodeInsufficientFunds  ErrorCode = "INSUFFICIENT_FUNDS"
	ErrCodeInvalidEscrowState ErrorCode = "INVALID_ESCROW_STATE"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"
)

// Kind группирует коды ошибок по таксономии.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindNotFound           Kind = "not_found"
	KindStateConflict      Kind = "state_conflict"
	KindAuthorization      Kind = "authorization"
	KindResourceConstraint Kind = "resource_constraint"
	KindInfrastructure     Kind = "infrastructure"
)

type AppError struct {
	Code       ErrorCode
	Kind       Kind
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду, чтобы errors.Is работал с копиями sentinel-ошибок.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Kind:       codeToKind(code),
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Kind:       codeToKind(code),
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Newf создаёт ошибку с форматированным сообщением.
func Newf(code ErrorCode, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden, ErrCodeNotAuthorized, ErrCodeSelfBidForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeJobNotOpen, ErrCodeBidNotPending, ErrCodeInvalidJobState,
		ErrCodeAlreadyResolved, ErrCodeDuplicateBid:
		return http.StatusConflict
	case ErrCodeInsufficientFunds, ErrCodeInvalidEscrowState:
		return http.StatusUnprocessableEntity
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func codeToKind(code ErrorCode) Kind {
	switch code {
	case ErrCodeBadRequest, ErrCodeValidation:
		return KindValidation
	case ErrCodeNotFound:
		return KindNotFound
	case ErrCodeConflict, ErrCodeJobNotOpen, ErrCodeBidNotPending, ErrCodeInvalidJobState,
		ErrCodeAlreadyResolved, ErrCodeDuplicateBid:
		return KindStateConflict
	case ErrCodeUnauthorized, ErrCodeForbidden, ErrCodeNotAuthorized, ErrCodeSelfBidForbidden:
		return KindAuthorization
	case ErrCodeInsufficientFunds, ErrCodeInvalidEscrowState, ErrCodeRateLimited:
		return KindResourceConstraint
	default:
		return KindInfrastructure
	}
}

// KindOf возвращает категорию ошибки; всё, что не AppError, считается инфраструктурным сбоем.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInfrastructure
}

// IsExpected сообщает, что ошибка является штатным отказом бизнес-операции
// и логируется на уровне info, а не error.
func IsExpected(err error) bool {
	if err == nil {
		return false
	}
	return KindOf(err) != KindInfrastructure
}

func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool {
	return HasCode(err, ErrCodeNotFound)
}

func IsForbidden(err error) bool {
	return HasCode(err, ErrCodeForbidden) || HasCode(err, ErrCodeNotAuthorized)
}

func IsValidation(err error) bool {
	return HasCode(err, ErrCodeValidation)
}

// InvalidJobState описывает недопустимый переход заказа.
func InvalidJobState(current, target string) *AppError {
	return Newf(ErrCodeInvalidJobState, "недопустимый переход заказа из %q в %q", current, target)
}

var (
	ErrJobNotFound          = New(ErrCodeNotFound, "заказ не найден")
	ErrBidNotFound          = New(ErrCodeNotFound, "отклик не найден")
	ErrReportNotFound       = New(ErrCodeNotFound, "жалоба не найдена")
	ErrUserNotFound         = New(ErrCodeNotFound, "пользователь не найден")
	ErrAccountNotFound      = New(ErrCodeNotFound, "кошелёк не найден")
	ErrNotificationNotFound = New(ErrCodeNotFound, "уведомление не найдено")
	ErrUnauthorized         = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden            = New(ErrCodeForbidden, "недостаточно прав")

	ErrJobNotOpen         = New(ErrCodeJobNotOpen, "заказ не принимает отклики")
	ErrBidNotPending      = New(ErrCodeBidNotPending, "отклик уже обработан")
	ErrAlreadyResolved    = New(ErrCodeAlreadyResolved, "жалоба уже закрыта")
	ErrDuplicateBid       = New(ErrCodeDuplicateBid, "вы уже откликнулись на этот заказ")
	ErrNotAuthorized      = New(ErrCodeNotAuthorized, "действие недоступно для текущего пользователя")
	ErrSelfBidForbidden   = New(ErrCodeSelfBidForbidden, "нельзя откликнуться на собственный заказ")
	ErrInsufficientFunds  = New(ErrCodeInsufficientFunds, "недостаточно средств на балансе")
	ErrInvalidEscrowState = New(ErrCodeInvalidEscrowState, "сумма превышает средства, замороженные по заказу")
	ErrRateLimited        = New(ErrCodeRateLimited, "слишком много запросов, попробуйте позже")

	// ErrLockOrder: блокировка заказа запрошена после блокировки кошелька
	// или кошельки блокируются не по возрастанию id.
	ErrLockOrder = New(ErrCodeInternal, "нарушен порядок блокировок")
)
