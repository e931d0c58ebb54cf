package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErr(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantFields map[string]string
	}{
		{"validation", model.NewValidationError("name", "this field is required"), http.StatusBadRequest, map[string]string{"name": "this field is required"}},
		{"email in use", model.NewAuthError(model.AuthOpSignUp, model.AuthCodeEmailAlreadyInUse), http.StatusConflict, nil},
		{"weak password", model.NewAuthError(model.AuthOpSignUp, model.AuthCodeWeakPassword), http.StatusBadRequest, nil},
		{"invalid email", model.NewAuthError(model.AuthOpSignUp, model.AuthCodeInvalidEmail), http.StatusBadRequest, nil},
		{"invalid token", model.NewAuthError(model.AuthOpVerify, model.AuthCodeInvalidToken), http.StatusUnauthorized, nil},
		{"permission", fmt.Errorf("set status: %w", model.ErrPermission), http.StatusForbidden, nil},
		{"not found", fmt.Errorf("teacher x: %w", model.ErrNotFound), http.StatusNotFound, nil},
		{"overlap", model.ErrOverlap, http.StatusConflict, nil},
		{"slot index", model.ErrSlotIndex, http.StatusNotFound, nil},
		{"transition", fmt.Errorf("%w: approved -> rejected", model.ErrInvalidTransition), http.StatusConflict, nil},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := mapErr(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.NotEmpty(t, resp.Error)
			assert.Equal(t, tt.wantFields, resp.Fields)
		})
	}
}

func TestMapErr_HidesInternalDetails(t *testing.T) {
	_, resp := mapErr(errors.New("pq: password authentication failed"))
	assert.Equal(t, "Internal Server Error", resp.Error)
}

func TestWriteErrorJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	writeErrorJSON(rec, http.StatusForbidden, "nope")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "nope", body.Error)
	assert.Nil(t, body.Fields)
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"status":"approved"}`, false},
		{"unknown field", `{"status":"approved","extra":1}`, true},
		{"broken", `{"status":`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var in statusRequest
			err := decodeJSON(r, &in)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, "approved", in.Status)
				return
			}
			var vErr *model.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Fields, "body")
		})
	}
}
