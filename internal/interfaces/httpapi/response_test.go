package httpapi

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/unifoot/unifoot/internal/usecase"
)

func TestMapErrorTaxonomy(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err        error
		wantStatus int
		wantReason string
	}{
		{usecase.ErrInvalidInput, http.StatusBadRequest, "invalidInput"},
		{usecase.ErrNotFound, http.StatusNotFound, "notFound"},
		{usecase.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{usecase.ErrAmbiguousMatch, http.StatusConflict, "ambiguousMatch"},
		{usecase.ErrSyncAlreadyRunning, http.StatusConflict, "syncAlreadyRunning"},
		{usecase.ErrRateLimited, http.StatusTooManyRequests, "rateLimited"},
		{usecase.ErrDependencyUnavailable, http.StatusServiceUnavailable, "dependencyUnavailable"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "internalError"},
	}

	for _, tc := range cases {
		wrapped := fmt.Errorf("context: %w", tc.err)
		mapped := mapError(wrapped)
		if mapped.HTTPStatus != tc.wantStatus {
			t.Fatalf("%v: status = %d, want %d", tc.err, mapped.HTTPStatus, tc.wantStatus)
		}
		if mapped.Reason != tc.wantReason {
			t.Fatalf("%v: reason = %q, want %q", tc.err, mapped.Reason, tc.wantReason)
		}
	}
}
