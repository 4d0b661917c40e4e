// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/multitax/internal/platform/apperr"
	"github.com/taibuivan/multitax/internal/platform/sec"
)

type fakeVerifier struct {
	claims *sec.AuthClaims
}

func (verifier fakeVerifier) VerifyToken(token string) (*sec.AuthClaims, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return verifier.claims, nil
}

func guarded(claims *sec.AuthClaims, resolve CapabilityResolver) http.Handler {
	ok := http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusTeapot)
	})
	return Authenticate(fakeVerifier{claims: claims})(RequireCapability(resolve)(ok))
}

func TestRequireCapability(t *testing.T) {
	manageGenres := func(*http.Request) (string, error) { return "manage_genres", nil }
	assignDefault := func(*http.Request) (string, error) { return sec.CapAssignTerms, nil }
	unknownTaxonomy := func(*http.Request) (string, error) {
		return "", apperr.New("INVALID_TAXONOMY", http.StatusBadRequest, "Invalid taxonomy")
	}

	tests := []struct {
		name    string
		header  string
		claims  *sec.AuthClaims
		resolve CapabilityResolver
		want    int
	}{
		{"anonymous", "", nil, assignDefault, http.StatusUnauthorized},
		{"bad token", "Bearer nope", nil, assignDefault, http.StatusUnauthorized},
		{"role grants", "Bearer good", &sec.AuthClaims{Role: "author"}, assignDefault, http.StatusTeapot},
		{"role denies custom", "Bearer good", &sec.AuthClaims{Role: "editor"}, manageGenres, http.StatusForbidden},
		{"explicit grant", "Bearer good", &sec.AuthClaims{Role: "member", Capabilities: []string{"manage_genres"}}, manageGenres, http.StatusTeapot},
		{"resolver error", "Bearer good", &sec.AuthClaims{Role: "admin"}, unknownTaxonomy, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodPost, "/taxonomies/genre/terms", nil)
			if tt.header != "" {
				request.Header.Set("Authorization", tt.header)
			}
			recorder := httptest.NewRecorder()

			guarded(tt.claims, tt.resolve).ServeHTTP(recorder, request)
			assert.Equal(t, tt.want, recorder.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusNoContent)
	})
	handler := Authenticate(fakeVerifier{claims: &sec.AuthClaims{Role: "author"}})(RequireRole(sec.RoleEditor)(ok))

	request := httptest.NewRequest(http.MethodDelete, "/", nil)
	request.Header.Set("Authorization", "Bearer good")
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
}
