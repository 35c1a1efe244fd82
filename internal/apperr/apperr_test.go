package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	err := New(KindDuplicateEmail, "taken")
	require.Equal(t, KindDuplicateEmail, KindOf(err))

	wrapped := fmt.Errorf("outer: %w", err)
	require.Equal(t, KindDuplicateEmail, KindOf(wrapped))

	require.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestIsByKind(t *testing.T) {
	err := Wrap(KindNotFound, "gone", errors.New("cause"))
	require.True(t, errors.Is(err, New(KindNotFound, "anything")))
	require.False(t, errors.Is(err, New(KindValidation, "anything")))
	require.EqualError(t, err, "gone")
	require.EqualError(t, errors.Unwrap(err), "cause")
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		KindUnauthenticated:    http.StatusUnauthorized,
		KindTokenExpired:       http.StatusUnauthorized,
		KindInvalidCredentials: http.StatusUnauthorized,
		KindSetupIncomplete:    http.StatusForbidden,
		KindOrgContextRequired: http.StatusForbidden,
		KindInsufficientRole:   http.StatusForbidden,
		KindDuplicateEmail:     http.StatusBadRequest,
		KindInvalidSetupToken:  http.StatusBadRequest,
		KindSoleOwnerViolation: http.StatusBadRequest,
		KindValidation:         http.StatusBadRequest,
		KindNotFound:           http.StatusNotFound,
		KindTxnAborted:         http.StatusInternalServerError,
		KindInternal:           http.StatusInternalServerError,
	}
	for kind, want := range cases {
		require.Equal(t, want, kind.HTTPStatus(), "kind %s", kind)
	}
}
