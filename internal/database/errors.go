package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgSerializationFailure = "40001"
	pgUniqueViolation      = "23505"
	pgCheckViolation       = "23514"
)

// IsSerializationFailure: serializable izolasyonda yarışı kaybeden
// transaction'ın aldığı hata. Sınırlı sayıda tekrar denenebilir.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgSerializationFailure
}

// IsUniqueViolation: (number, department) ya da (batch_id, sequence_no)
// unique index ihlali. Çağırana çakışma olarak döner, asla sessizce ezilmez.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// IsCheckViolation: used <= capacity check constraint ihlali.
func IsCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgCheckViolation
}
