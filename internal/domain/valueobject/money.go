package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ignatzorin/labour-market/internal/pkg/apperror"
)

// MoneyScale — количество знаков после запятой в денежных колонках.
const MoneyScale = 2

// MaxAmount ограничивает одну операцию, как numeric(12,2) в схеме.
var MaxAmount = decimal.New(9_999_999_999, 0)

// NewAmount проверяет положительную сумму операции и округляет её до копеек.
func NewAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, apperror.New(apperror.ErrCodeValidation, "сумма должна быть положительной")
	}
	if !amount.Equal(amount.Round(MoneyScale)) {
		return decimal.Zero, apperror.New(apperror.ErrCodeValidation, "сумма не может содержать больше двух знаков после запятой")
	}
	if amount.GreaterThan(MaxAmount) {
		return decimal.Zero, apperror.New(apperror.ErrCodeValidation, "сумма превышает допустимый предел")
	}
	return amount, nil
}

// ParseAmount разбирает строковое представление суммы.
func ParseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperror.New(apperror.ErrCodeValidation, "некорректный формат суммы")
	}
	return NewAmount(amount)
}

type Budget struct {
	Min *decimal.Decimal
	Max *decimal.Decimal
}

func NewBudget(min, max *decimal.Decimal) (Budget, error) {
	if min != nil && min.IsNegative() {
		return Budget{}, apperror.New(apperror.ErrCodeValidation, "бюджет не может быть отрицательным")
	}
	if max != nil && max.IsNegative() {
		return Budget{}, apperror.New(apperror.ErrCodeValidation, "бюджет не может быть отрицательным")
	}
	if min != nil && max != nil && min.GreaterThan(*max) {
		return Budget{}, apperror.New(apperror.ErrCodeValidation, "минимальный бюджет не может превышать максимальный")
	}
	return Budget{Min: min, Max: max}, nil
}

func (b Budget) String() string {
	switch {
	case b.Min != nil && b.Max != nil:
		return fmt.Sprintf("%s - %s", b.Min.StringFixed(MoneyScale), b.Max.StringFixed(MoneyScale))
	case b.Min != nil:
		return "от " + b.Min.StringFixed(MoneyScale)
	case b.Max != nil:
		return "до " + b.Max.StringFixed(MoneyScale)
	}
	return "по договорённости"
}
