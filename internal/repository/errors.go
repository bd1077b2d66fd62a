package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// PersistenceErrorKind classifies store failures.
type PersistenceErrorKind int

const (
	// KindOther is any driver or connectivity failure.
	KindOther PersistenceErrorKind = iota
	// KindUniqueViolation means a unique constraint rejected the write.
	KindUniqueViolation
)

func (k PersistenceErrorKind) String() string {
	switch k {
	case KindUniqueViolation:
		return "unique_violation"
	default:
		return "other"
	}
}

// ErrUniqueViolation matches any PersistenceError of KindUniqueViolation via errors.Is.
var ErrUniqueViolation = errors.New("unique constraint violated")

// pgUniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// PersistenceError wraps a store failure with the operation that caused it.
type PersistenceError struct {
	Kind PersistenceErrorKind
	Op   string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is reports unique violations as ErrUniqueViolation.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrUniqueViolation && e.Kind == KindUniqueViolation
}

// persistenceError classifies err for op. It returns nil for a nil err.
func persistenceError(op string, err error) error {
	if err == nil {
		return nil
	}

	kind := KindOther
	if isUniqueViolation(err) {
		kind = KindUniqueViolation
	}

	return &PersistenceError{Kind: kind, Op: op, Err: err}
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return errors.Is(err, ErrUniqueViolation)
}
