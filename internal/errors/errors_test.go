package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	t.Run("WrapPreservesErrorChain", func(t *testing.T) {
		wrapped := Wrap(ErrSessionInvalid, "failed to open session blob")

		assert.True(t, Is(wrapped, ErrSessionInvalid))
		assert.Contains(t, wrapped.Error(), "failed to open session blob")
	})

	t.Run("WrapNilReturnsNil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, "context"))
	})

	t.Run("DoubleWrapStillMatches", func(t *testing.T) {
		inner := Wrap(ErrDataOperation, "delete registries")
		outer := Wrap(inner, "customer redact")

		assert.True(t, Is(outer, ErrDataOperation))
	})
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrConflict,
		ErrInvalidInput,
		ErrUnauthorized,
		ErrForbidden,
		ErrRateLimited,
		ErrSessionInvalid,
		ErrCSRFMismatch,
		ErrDataOperation,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, Is(a, b), fmt.Sprintf("%v should not match %v", a, b))
		}
	}
}
