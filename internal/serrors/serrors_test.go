package serrors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Zachdehooge/pothole-dashboard/internal/serrors"
	"github.com/stretchr/testify/require"
)

func TestKindsDistinct(t *testing.T) {
	kinds := []serrors.Kind{
		serrors.ErrNotFound,
		serrors.ErrBadRequest,
		serrors.ErrUnavailable,
		serrors.ErrRateLimited,
		serrors.ErrInvalidConfig,
	}
	seen := map[serrors.Kind]bool{}
	for _, k := range kinds {
		require.False(t, seen[k], "duplicate kind %v", k)
		seen[k] = true
	}
}

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("connection reset")

	require.Equal(t, "no records", serrors.With(serrors.ErrNotFound, "no records").Error())
	require.Equal(t, "fetch: connection reset", serrors.Wrap(serrors.ErrUnavailable, cause, "fetch").Error())
	require.Equal(t, "unknown error", (&serrors.Error{}).Error())
}

func TestIsMatchesKindAndCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := fmt.Errorf("build: %w", serrors.Wrap(serrors.ErrUnavailable, cause, "fetch records"))

	require.ErrorIs(t, err, serrors.ErrUnavailable)
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, serrors.ErrNotFound)
	require.Equal(t, serrors.ErrUnavailable, serrors.KindOf(err))
	require.Nil(t, serrors.KindOf(cause))
}
