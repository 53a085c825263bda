package common

import (
	"errors"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqCheckViolation      = "23514"
	pqForeignKeyViolation = "23503"
	pqNumericOverflow     = "22003"
)

// IsUniqueViolation сообщает о нарушении уникального индекса.
func IsUniqueViolation(err error) bool {
	return hasPQCode(err, pqUniqueViolation)
}

func IsCheckViolation(err error) bool {
	return hasPQCode(err, pqCheckViolation)
}

// IsForeignKeyViolation: строка ссылается на несуществующую запись.
func IsForeignKeyViolation(err error) bool {
	return hasPQCode(err, pqForeignKeyViolation)
}

func IsNumericOverflow(err error) bool {
	return hasPQCode(err, pqNumericOverflow)
}

func hasPQCode(err error, code string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == code
}
