// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/multitax/internal/core/catalog"
	"github.com/taibuivan/multitax/internal/core/term"
	"github.com/taibuivan/multitax/internal/platform/ctxutil"
	"github.com/taibuivan/multitax/internal/platform/respond"
	"github.com/taibuivan/multitax/internal/platform/sec"
	"github.com/taibuivan/multitax/pkg/pagination"
)

// serve sends one request through the catalog router. A non-empty role
// authenticates the caller.
func (f *fixture) serve(t *testing.T, method, target, body, role string) *httptest.ResponseRecorder {
	t.Helper()

	request := httptest.NewRequest(method, target, strings.NewReader(body))
	if role != "" {
		request = request.WithContext(ctxutil.WithAuthUser(request.Context(), &sec.AuthClaims{Role: role}))
	}
	recorder := httptest.NewRecorder()
	catalog.NewHandler(f.service).Routes().ServeHTTP(recorder, request)
	return recorder
}

func errorCode(t *testing.T, recorder *httptest.ResponseRecorder) respond.ErrorEnvelope {
	t.Helper()

	var envelope respond.ErrorEnvelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope), recorder.Body.String())
	return envelope
}

func TestHandler_StatusAndCode(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
		role   string
		status int
		code   string
	}{
		{"unknown taxonomy", http.MethodGet, "/taxonomies/nope", "", "", http.StatusBadRequest, "INVALID_TAXONOMY"},
		{"term id not numeric", http.MethodGet, "/taxonomies/genre/terms/abc", "", "", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown term", http.MethodGet, "/taxonomies/genre/terms/99", "", "", http.StatusNotFound, "INVALID_TERM"},

		{"create anonymous", http.MethodPost, "/taxonomies/genre/terms", `{"name":"Blues"}`, "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"create below capability", http.MethodPost, "/taxonomies/genre/terms", `{"name":"Blues"}`, "author", http.StatusForbidden, "FORBIDDEN"},
		{"create without name", http.MethodPost, "/taxonomies/genre/terms", `{"slug":"blues"}`, "editor", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"create negative parent", http.MethodPost, "/taxonomies/genre/terms", `{"name":"Blues","parent":-1}`, "editor", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"create unknown key", http.MethodPost, "/taxonomies/genre/terms", `{"name":"Blues","color":"red"}`, "editor", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"create missing parent", http.MethodPost, "/taxonomies/genre/terms", `{"name":"Blues","parent":99}`, "editor", http.StatusBadRequest, "MISSING_PARENT"},
		{"create taken slug", http.MethodPost, "/taxonomies/genre/terms", `{"name":"Other","slug":"jazz"}`, "editor", http.StatusConflict, "TERM_EXISTS"},

		{"posts without term ids", http.MethodGet, "/posts", "", "", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"posts with junk term id", http.MethodGet, "/posts?term_ids=3,x", "", "", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"posts with zero term id", http.MethodGet, "/posts?term_ids=3&term_ids=0", "", "", http.StatusBadRequest, "VALIDATION_ERROR"},

		{"search bad blog", http.MethodPost, "/sites/x/posts/search", `{}`, "", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"search number too large", http.MethodPost, "/sites/3/posts/search", `{"number":5000}`, "", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"search unknown field", http.MethodPost, "/sites/3/posts/search",
			`{"tax_query":{"queries":[{"taxonomy":"mood","terms":[1],"field":"tt_id"}]}}`, "", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"search unknown taxonomy", http.MethodPost, "/sites/3/posts/search",
			`{"tax_query":{"queries":[{"taxonomy":"nope","terms":[1]}]}}`, "", http.StatusBadRequest, "INVALID_TAXONOMY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			recorder := f.serve(t, tt.method, tt.target, tt.body, tt.role)
			require.Equal(t, tt.status, recorder.Code, recorder.Body.String())
			assert.Equal(t, tt.code, errorCode(t, recorder).Code)
		})
	}
}

func TestHandler_QueryPostsRejectsInvalidTermIDs(t *testing.T) {
	f := newFixture(t)

	recorder := f.serve(t, http.MethodGet, "/posts?term_ids=5,abc", "", "")
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	envelope := errorCode(t, recorder)
	require.Len(t, envelope.Details, 1)
	assert.Equal(t, "term_ids", envelope.Details[0].Field)
	assert.Contains(t, envelope.Details[0].Message, `"abc"`)
	assert.Zero(t, f.queried.calls)

	recorder = f.serve(t, http.MethodGet, "/posts?term_ids=5,3&term_ids=5&order=asc&posts_per_page=4", "", "")
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	assert.Equal(t, []int64{5, 3}, f.queried.opts.TermIDs)
	assert.Equal(t, "ASC", f.queried.opts.Order)
	assert.Equal(t, 4, f.queried.opts.PostsPerPage)
}

func TestHandler_FindPostsAcceptsTermTaxonomyIDAlias(t *testing.T) {
	f := newFixture(t)
	calm := f.refs["calm"].MtmtID

	body := fmt.Sprintf(`{"tax_query":{"queries":[{"taxonomy":"mood","terms":[%d],"field":"term_taxonomy_id","operator":"AND"}]}}`, calm)
	recorder := f.serve(t, http.MethodPost, "/sites/3/posts/search", body, "")
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	assert.Contains(t, f.posts.query, "(SELECT COUNT(1) FROM network.term_relationships WHERE mtmt_id IN ($2) AND object_id = p.id AND blog_id = $3) = 1")
	assert.Contains(t, f.posts.args, calm)

	body = fmt.Sprintf(`{"tax_query":{"queries":[{"taxonomy":"mood","terms":[%d, 999999],"field":"term_taxonomy_id","operator":"AND"}]}}`, calm)
	recorder = f.serve(t, http.MethodPost, "/sites/3/posts/search", body, "")
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, term.ErrInexistentTerms.Code, errorCode(t, recorder).Code)
}

func TestHandler_CreateTerm(t *testing.T) {
	f := newFixture(t)

	recorder := f.serve(t, http.MethodPost, "/taxonomies/genre/terms", `{"name":"Blues"}`, "editor")
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var created struct {
		Data term.Ref `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))
	assert.Equal(t, "blues", f.store.Pairing(created.Data.MtmtID).Slug)

	recorder = f.serve(t, http.MethodPost, "/taxonomies/genre/terms", `{"name":"blues"}`, "editor")
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
}

func TestHandler_ListTermsCarriesTotal(t *testing.T) {
	f := newFixture(t)
	f.store.SelectFunc = func(string, []any, bool) ([]*term.Term, error) {
		return []*term.Term{f.store.Pairing(f.refs["calm"].MtmtID)}, nil
	}
	f.store.CountFunc = func(string, []any) (int64, error) { return 3, nil }

	recorder := f.serve(t, http.MethodGet, "/taxonomies/mood/terms?hide_empty=false&number=1", "", "")
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var listing struct {
		Meta pagination.Meta `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &listing))
	assert.Equal(t, 3, listing.Meta.Total)
	assert.Equal(t, 1, listing.Meta.Number)
	assert.True(t, listing.Meta.HasMore)
}
