// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"errors"
	"net/http"
	"strings"

	"github.com/taibuivan/multitax/internal/core/crosssite"
	"github.com/taibuivan/multitax/internal/core/taxquery"
	requestutil "github.com/taibuivan/multitax/internal/platform/request"
	"github.com/taibuivan/multitax/internal/platform/respond"
	"github.com/taibuivan/multitax/internal/platform/validate"
	"github.com/taibuivan/multitax/pkg/convert"
	"github.com/taibuivan/multitax/pkg/pagination"
	"github.com/taibuivan/multitax/pkg/query"
)

// # Request Payloads

type objectTermsRequest struct {
	Terms []string `json:"terms"`
}

type metaRequest struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Unique bool   `json:"unique"`
}

type updateMetaRequest struct {
	Value    string  `json:"value"`
	Previous *string `json:"previous"`
}

type findPostsRequest struct {
	TaxQuery taxquery.Group `json:"tax_query"`
	Number   int            `json:"number"`
	Offset   int            `json:"offset"`
}

// # Object Relationship Endpoints

/*
GET /api/v1/sites/{blogID}/objects/{objectID}/terms.

Request:
  - taxonomy: []string (optional)
  - fields, orderby, order: string

Response:
  - 200: termquery.Result
*/
func (handler *Handler) listObjectTerms(writer http.ResponseWriter, request *http.Request) {
	blogID, objectID, err := objectParams(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	values := request.URL.Query()
	args := termArgs(values)
	result, err := handler.service.GetObjectTerms(request.Context(), blogID, []int64{objectID}, query.List(values["taxonomy"]), args)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, result)
}

/*
PUT /api/v1/sites/{blogID}/objects/{objectID}/terms/{taxonomy}.

Description: Replaces the post's terms in the taxonomy. Unknown names are created.

Request (Body):
  - terms: []string (IDs, slugs or names)

Response:
  - 200: []int64: mtmt IDs of the requested terms
*/
func (handler *Handler) setObjectTerms(writer http.ResponseWriter, request *http.Request) {
	handler.assignObjectTerms(writer, request, false)
}

/*
POST /api/v1/sites/{blogID}/objects/{objectID}/terms/{taxonomy}.

Description: Same as PUT but keeps the terms already attached.
*/
func (handler *Handler) addObjectTerms(writer http.ResponseWriter, request *http.Request) {
	handler.assignObjectTerms(writer, request, true)
}

func (handler *Handler) assignObjectTerms(writer http.ResponseWriter, request *http.Request, appendMode bool) {
	blogID, objectID, err := objectParams(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input objectTermsRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	mtmtIDs, err := handler.service.SetObjectTerms(request.Context(), blogID, objectID, input.Terms,
		requestutil.Param(request, "taxonomy"), appendMode)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, mtmtIDs)
}

/*
DELETE /api/v1/sites/{blogID}/objects/{objectID}/terms/{taxonomy}.

Request:
  - terms: []string (optional; every term of the taxonomy when absent)

Response:
  - 204: Detached
*/
func (handler *Handler) removeObjectTerms(writer http.ResponseWriter, request *http.Request) {
	blogID, objectID, err := objectParams(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	taxonomy := requestutil.Param(request, "taxonomy")
	terms := query.List(request.URL.Query()["terms"])

	if len(terms) == 0 {
		err = handler.service.DeleteObjectTermRelationships(request.Context(), blogID, objectID, []string{taxonomy})
	} else {
		_, err = handler.service.RemoveObjectTerms(request.Context(), blogID, objectID, terms, taxonomy)
	}
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// # Meta Endpoints

/*
GET /api/v1/terms/{termID}/meta.

Request:
  - key: string (optional)

Response:
  - 200: []term.Meta
*/
func (handler *Handler) listMeta(writer http.ResponseWriter, request *http.Request) {
	termID, err := requestutil.Int64Param(request, "termID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	rows, err := handler.service.GetTermMeta(request.Context(), termID, request.URL.Query().Get("key"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, rows)
}

/*
POST /api/v1/terms/{termID}/meta.

Response:
  - 201: {"meta_id": int64}
  - 409: CONFLICT: unique requested and the key already exists
*/
func (handler *Handler) addMeta(writer http.ResponseWriter, request *http.Request) {
	termID, err := requestutil.Int64Param(request, "termID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input metaRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if err := (&validate.Validator{}).Required("key", input.Key).MaxLen("key", input.Key, 255).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	metaID, err := handler.service.AddTermMeta(request.Context(), termID, input.Key, input.Value, input.Unique)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, map[string]int64{"meta_id": metaID})
}

/*
PUT /api/v1/terms/{termID}/meta/{key}.

Response:
  - 200: {"updated": int64}
*/
func (handler *Handler) updateMeta(writer http.ResponseWriter, request *http.Request) {
	termID, err := requestutil.Int64Param(request, "termID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateMetaRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := handler.service.UpdateTermMeta(request.Context(), termID, requestutil.Param(request, "key"), input.Value, input.Previous)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]int64{"updated": updated})
}

/*
DELETE /api/v1/terms/{termID}/meta/{key}.

Request:
  - value: string (optional; only rows holding it are removed)

Response:
  - 204: Removed
*/
func (handler *Handler) deleteMeta(writer http.ResponseWriter, request *http.Request) {
	termID, err := requestutil.Int64Param(request, "termID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var value *string
	if values := request.URL.Query(); values.Has("value") {
		raw := values.Get("value")
		value = &raw
	}

	if _, err := handler.service.DeleteTermMeta(request.Context(), termID, requestutil.Param(request, "key"), value); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// # Post Endpoints

/*
GET /api/v1/posts.

Description: Lists published posts of every site attached to the given term pairings.

Request:
  - term_ids: []int (mtmt IDs, required)
  - orderby: string (post_date, post_title, post_name, post_type, id, blog_id)
  - order: string (asc, desc)
  - posts_per_page: int (0 or less for all)
  - offset: int

Response:
  - 200: []crosssite.Post
  - 400: VALIDATION_ERROR: term_ids holds something other than positive integers
*/
func (handler *Handler) queryPosts(writer http.ResponseWriter, request *http.Request) {
	values := request.URL.Query()

	termIDs, err := query.StrictIDs(values["term_ids"])
	if err == nil && len(termIDs) == 0 {
		err = errors.New("is required")
	}
	if err != nil {
		respond.Error(writer, request, validate.Field("term_ids", err.Error()))
		return
	}

	opts := crosssite.DefaultOptions()
	opts.TermIDs = termIDs
	if orderby := values.Get("orderby"); orderby != "" {
		opts.Orderby = orderby
	}
	if order := values.Get("order"); order != "" {
		opts.Order = strings.ToUpper(order)
	}
	opts.PostsPerPage = convert.Int(values.Get("posts_per_page"), opts.PostsPerPage)
	opts.Offset = convert.Int(values.Get("offset"), 0)

	posts, err := handler.service.QueryPosts(request.Context(), opts)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, posts)
}

/*
POST /api/v1/sites/{blogID}/posts/search.

Description: Lists published posts of one site matching a taxonomy query tree.

Request (Body):
  - tax_query: {"relation": "AND", "queries": [...]}
  - number: int (0 for the default page size, at most 200)
  - offset: int

Response:
  - 200: []crosssite.Post
  - 400: INVALID_TAXONOMY, INEXISTENT_TERMS, VALIDATION_ERROR
*/
func (handler *Handler) findPosts(writer http.ResponseWriter, request *http.Request) {
	blogID, err := requestutil.Int64Param(request, "blogID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input findPostsRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Range("number", input.Number, 0, pagination.MaxNumber).
		NonNegative("offset", int64(input.Offset))
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if input.Number == 0 {
		input.Number = pagination.DefaultNumber
	}

	posts, err := handler.service.FindPosts(request.Context(), blogID, handler.service.NewTaxQuery(input.TaxQuery), input.Number, input.Offset)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, posts)
}

func objectParams(request *http.Request) (int64, int64, error) {
	blogID, err := requestutil.Int64Param(request, "blogID")
	if err != nil {
		return 0, 0, err
	}
	objectID, err := requestutil.Int64Param(request, "objectID")
	if err != nil {
		return 0, 0, err
	}
	return blogID, objectID, nil
}
