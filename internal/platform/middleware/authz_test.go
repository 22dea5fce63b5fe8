// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/chaptra/internal/platform/apperr"
	"github.com/taibuivan/chaptra/internal/platform/middleware"
	"github.com/taibuivan/chaptra/internal/platform/sec"
)

// # Test Doubles

// stubVerifier maps bearer tokens to claims or errors.
type stubVerifier struct {
	sessions map[string]*sec.AuthClaims
	errors   map[string]error
}

func (verifier *stubVerifier) VerifySession(_ context.Context, tokenStr string) (*sec.AuthClaims, error) {
	if err, ok := verifier.errors[tokenStr]; ok {
		return nil, err
	}
	if claims, ok := verifier.sessions[tokenStr]; ok {
		return claims, nil
	}
	return nil, apperr.Unauthorized("Invalid or expired token")
}

// okHandler records whether the guarded handler was reached.
func okHandler(reached *bool) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		*reached = true
		writer.WriteHeader(http.StatusOK)
	})
}

func errorCode(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body.Code
}

func guarded(verifier middleware.SessionVerifier, guard func(http.Handler) http.Handler, reached *bool) http.Handler {
	return middleware.Authenticate(verifier)(guard(okHandler(reached)))
}

// # Authentication

/*
TestAuthenticate verifies the bearer token flow: anonymous passthrough,
malformed headers, verification failures, and claims injection.
*/
func TestAuthenticate(t *testing.T) {
	verifier := &stubVerifier{
		sessions: map[string]*sec.AuthClaims{
			"good": {UserID: "user-1", Username: "Reader", Role: string(sec.RoleUser)},
		},
		errors: map[string]error{
			"stale": apperr.SessionSuperseded(),
		},
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
		wantReach  bool
	}{
		{"valid_token", "Bearer good", http.StatusOK, "", true},
		{"malformed_header", "good", http.StatusUnauthorized, "UNAUTHORIZED", false},
		{"unknown_token", "Bearer bad", http.StatusUnauthorized, "UNAUTHORIZED", false},
		{"superseded_token", "Bearer stale", http.StatusUnauthorized, "SESSION_SUPERSEDED", false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			reached := false
			handler := guarded(verifier, middleware.RequireAuth, &reached)

			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.Header.Set("Authorization", test.header)
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)

			assert.Equal(t, test.wantStatus, recorder.Code)
			assert.Equal(t, test.wantReach, reached)
			if test.wantCode != "" {
				assert.Equal(t, test.wantCode, errorCode(t, recorder))
			}
		})
	}
}

/*
TestRequireAuth_NoToken verifies that an anonymous request on a guarded
route yields the NO_TOKEN code, distinct from a failed verification.
*/
func TestRequireAuth_NoToken(t *testing.T) {
	reached := false
	handler := guarded(&stubVerifier{}, middleware.RequireAuth, &reached)

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "NO_TOKEN", errorCode(t, recorder))
	assert.False(t, reached)
}

// # Authorization

/*
TestRequireRole verifies the role hierarchy gate on an admin route.
*/
func TestRequireRole(t *testing.T) {
	verifier := &stubVerifier{
		sessions: map[string]*sec.AuthClaims{
			"admin":  {UserID: "admin-1", Role: string(sec.RoleAdmin)},
			"vendor": {UserID: "vendor-1", Role: string(sec.RoleVendor)},
			"reader": {UserID: "user-1", Role: string(sec.RoleUser)},
		},
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{"admin_allowed", "Bearer admin", http.StatusOK, ""},
		{"vendor_forbidden", "Bearer vendor", http.StatusForbidden, "FORBIDDEN"},
		{"reader_forbidden", "Bearer reader", http.StatusForbidden, "FORBIDDEN"},
		{"anonymous_no_token", "", http.StatusUnauthorized, "NO_TOKEN"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			reached := false
			handler := guarded(verifier, middleware.RequireRole(sec.RoleAdmin), &reached)

			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if test.header != "" {
				request.Header.Set("Authorization", test.header)
			}
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)

			assert.Equal(t, test.wantStatus, recorder.Code)
			assert.Equal(t, reached, test.wantStatus == http.StatusOK)
			if test.wantCode != "" {
				assert.Equal(t, test.wantCode, errorCode(t, recorder))
			}
		})
	}
}
