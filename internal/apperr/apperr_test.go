package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrom_WrappedAppError(t *testing.T) {
	base := PermissionDenied("wrong upload password")
	err := fmt.Errorf("issue upload url: %w", base)

	got := From(err)
	require.Equal(t, CodePermissionDenied, got.Code)
	require.Equal(t, "wrong upload password", got.Message)
	require.Equal(t, http.StatusForbidden, got.Code.HTTPStatus())
}

func TestFrom_ForeignErrorIsOpaque(t *testing.T) {
	got := From(errors.New("pq: connection refused on 10.0.0.3"))
	require.Equal(t, CodeInternal, got.Code)
	require.Equal(t, "internal error", got.Message)
	require.NotContains(t, got.Message, "10.0.0.3")
}

func TestCodeHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeInvalidArgument:    http.StatusBadRequest,
		CodeUnauthenticated:    http.StatusUnauthorized,
		CodeFailedPrecondition: http.StatusPreconditionFailed,
		CodePermissionDenied:   http.StatusForbidden,
		CodeNotFound:           http.StatusNotFound,
		CodeAborted:            http.StatusConflict,
		CodeInternal:           http.StatusInternalServerError,
	}
	for code, status := range cases {
		require.Equal(t, status, code.HTTPStatus(), code)
	}
}
