package store

import (
	"errors"

	"go.uber.org/zap"

	"github.com/onechurch/backend/pkg/result"
)

// KindOf classifies a store error.
func KindOf(err error) result.Kind {
	switch {
	case err == nil:
		return result.KindOK
	case errors.Is(err, ErrNotFound):
		return result.KindNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrDuplicate):
		return result.KindConflict
	case errors.Is(err, ErrNotMember), errors.Is(err, ErrCycle):
		return result.KindValidation
	default:
		return result.KindInternal
	}
}

// Failure turns a store error into a failed result. Expected errors carry
// message; anything else is logged and reported as internal.
func Failure[T any](logger *zap.Logger, op string, err error, message string) result.Result[T] {
	kind := KindOf(err)
	if kind == result.KindInternal {
		logger.Error(op, zap.Error(err))
		return result.Fail[T](kind, "internal error: "+op)
	}
	return result.Fail[T](kind, message)
}
