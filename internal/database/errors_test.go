package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	serialization := &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
	unique := &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
	check := &pgconn.PgError{Code: "23514", Message: "check constraint violated"}

	assert.True(t, IsSerializationFailure(serialization))
	assert.False(t, IsSerializationFailure(unique))
	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsUniqueViolation(serialization))
	assert.True(t, IsCheckViolation(check))
	assert.False(t, IsCheckViolation(unique))
}

func TestErrorClassificationWrapped(t *testing.T) {
	// gorm hataları sarmalayarak döndürür; errors.As zincirde bulmalı
	wrapped := fmt.Errorf("transaction failed: %w", &pgconn.PgError{Code: "40001"})
	assert.True(t, IsSerializationFailure(wrapped))

	assert.False(t, IsSerializationFailure(errors.New("plain error")))
	assert.False(t, IsUniqueViolation(nil))
}
