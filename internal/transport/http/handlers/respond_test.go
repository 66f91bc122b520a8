package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mklancir/orbit/internal/apperr"
)

func TestWriteAppError_StatusMapping(t *testing.T) {
	t.Parallel()

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	log := logger.Sugar()

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: bad input", apperr.ErrValidation), http.StatusBadRequest, "VALIDATION_ERROR"},
		{fmt.Errorf("%w: not yours", apperr.ErrPermission), http.StatusForbidden, "FORBIDDEN"},
		{fmt.Errorf("%w: conversation", apperr.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("%w: already exists", apperr.ErrConflict), http.StatusConflict, "CONFLICT"},
		{fmt.Errorf("%w: pool timeout", apperr.ErrTransient), http.StatusServiceUnavailable, "RETRY_LATER"},
		{fmt.Errorf("something unexpected"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeAppError(rec, log, tc.err)
		require.Equal(t, tc.status, rec.Code, "error %v", tc.err)

		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, tc.code, body.Error.Code, "error %v", tc.err)
	}
}
