// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"net/http"
	"net/url"

	"github.com/taibuivan/multitax/internal/core/termquery"
	requestutil "github.com/taibuivan/multitax/internal/platform/request"
	"github.com/taibuivan/multitax/internal/platform/respond"
	"github.com/taibuivan/multitax/internal/platform/validate"
	"github.com/taibuivan/multitax/pkg/convert"
	"github.com/taibuivan/multitax/pkg/pagination"
	"github.com/taibuivan/multitax/pkg/query"
	"github.com/taibuivan/multitax/pkg/slug"
)

// # Request Payloads

// createTermRequest is the inbound JSON schema for term creation.
type createTermRequest struct {
	Name string `json:"name"`
	InsertArgs
}

// # Term Read Endpoints

/*
GET /api/v1/taxonomies/{taxonomy}/terms.

Description: Runs a term query scoped to the taxonomy in the URL.

Request:
  - orderby: string (name, slug, term_id, count, include, none, ...)
  - order: string (asc, desc)
  - hide_empty, hierarchical, pad_counts, childless: bool
  - include, exclude, exclude_tree: []int
  - name, slug: []string
  - search, name__like, description__like: string
  - child_of, parent: int
  - fields: string (all, ids, names, count, id=>parent, ...)
  - get: string ("all")
  - number, offset: int

Response:
  - 200: termquery.Result with pagination meta (total over the whole listing)
  - 400: INVALID_TAXONOMY, VALIDATION_ERROR
*/
func (handler *Handler) listTerms(writer http.ResponseWriter, request *http.Request) {
	args := termArgs(request.URL.Query())
	args.Taxonomies = []string{requestutil.Param(request, "taxonomy")}

	window := pagination.FromRequest(request)
	args.Number, args.Offset = window.Number, window.Offset

	result, err := handler.service.GetTerms(request.Context(), args)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if args.Fields == termquery.FieldsCount {
		respond.OK(writer, result)
		return
	}

	// The total ignores the window so clients can page through the listing
	counting := args
	counting.Fields, counting.Number, counting.Offset = termquery.FieldsCount, 0, 0

	total, err := handler.service.GetTerms(request.Context(), counting)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, result, pagination.NewMeta(window, int(total.Count)))
}

/*
GET /api/v1/taxonomies/{taxonomy}/terms/{termID}.

Response:
  - 200: term.Term
  - 404: INVALID_TERM: Term not found in the taxonomy
*/
func (handler *Handler) getTerm(writer http.ResponseWriter, request *http.Request) {
	termID, err := requestutil.Int64Param(request, "termID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	found, err := handler.service.GetTerm(request.Context(), termID, requestutil.Param(request, "taxonomy"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, found)
}

/*
GET /api/v1/terms/{termID}.

Description: Looks a term up without a taxonomy. Terms shared between
taxonomies answer 409 and must be read through their taxonomy.

Response:
  - 200: term.Term
  - 404: INVALID_TERM
  - 409: AMBIGUOUS_TERM
*/
func (handler *Handler) getSharedTerm(writer http.ResponseWriter, request *http.Request) {
	termID, err := requestutil.Int64Param(request, "termID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	found, err := handler.service.GetTerm(request.Context(), termID, "")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, found)
}

/*
GET /api/v1/taxonomies/{taxonomy}/terms/{termID}/ancestors.

Response:
  - 200: []int64: Ancestor IDs, nearest first
*/
func (handler *Handler) listAncestors(writer http.ResponseWriter, request *http.Request) {
	termID, err := requestutil.Int64Param(request, "termID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	ancestors, err := handler.service.GetAncestors(request.Context(), termID, requestutil.Param(request, "taxonomy"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, ancestors)
}

/*
GET /api/v1/taxonomies/{taxonomy}/terms/{termID}/children.

Response:
  - 200: []int64: Every descendant ID
*/
func (handler *Handler) listChildren(writer http.ResponseWriter, request *http.Request) {
	termID, err := requestutil.Int64Param(request, "termID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	children, err := handler.service.GetTermChildren(request.Context(), termID, requestutil.Param(request, "taxonomy"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, children)
}

// # Term Mutation Endpoints

/*
POST /api/v1/taxonomies/{taxonomy}/terms.

Description: Creates a term. Posting a name that already exists at the same
parent answers 200 with the existing identity instead of 201.

Request (Body):
  - createTermRequest: JSON object

Response:
  - 201: term.Ref: Created
  - 200: term.Ref: Already existed
  - 400: VALIDATION_ERROR, MISSING_PARENT
  - 409: TERM_EXISTS: Explicit slug already used
*/
func (handler *Handler) createTerm(writer http.ResponseWriter, request *http.Request) {
	var input createTermRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required("name", input.Name).
		MaxLen("name", input.Name, slug.MaxLength).
		MaxLen("slug", input.Slug, slug.MaxLength).
		NonNegative("parent", input.Parent)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	ref, err := handler.service.InsertTerm(request.Context(), input.Name, requestutil.Param(request, "taxonomy"), input.InsertArgs)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if ref.Existing {
		respond.OK(writer, ref)
		return
	}
	respond.Created(writer, ref)
}

/*
PATCH /api/v1/taxonomies/{taxonomy}/terms/{termID}.

Request (Body):
  - UpdateArgs: JSON object, absent fields are left unchanged

Response:
  - 200: term.Ref
  - 400: HIERARCHY_LOOP, MISSING_PARENT, EMPTY_TERM_NAME
  - 404: INVALID_TERM
  - 409: DUPLICATE_SLUG
*/
func (handler *Handler) updateTerm(writer http.ResponseWriter, request *http.Request) {
	termID, err := requestutil.Int64Param(request, "termID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input UpdateArgs
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	ref, err := handler.service.UpdateTerm(request.Context(), termID, requestutil.Param(request, "taxonomy"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, ref)
}

/*
DELETE /api/v1/taxonomies/{taxonomy}/terms/{termID}.

Response:
  - 204: Deleted; children now hang from the deleted term's parent
  - 404: INVALID_TERM
*/
func (handler *Handler) deleteTerm(writer http.ResponseWriter, request *http.Request) {
	termID, err := requestutil.Int64Param(request, "termID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteTerm(request.Context(), termID, requestutil.Param(request, "taxonomy")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// # Query Parsing

// termArgs maps query string parameters onto [termquery.Args]. Malformed
// optional values fall back to the defaults.
func termArgs(values url.Values) termquery.Args {
	args := termquery.DefaultArgs()

	if orderby := values.Get("orderby"); orderby != "" {
		args.Orderby = orderby
	}
	if order := values.Get("order"); order != "" {
		args.Order = order
	}
	if fields := values.Get("fields"); fields != "" {
		args.Fields = termquery.Fields(fields)
	}

	args.HideEmpty = convert.Bool(values.Get("hide_empty"), args.HideEmpty)
	args.Hierarchical = convert.Bool(values.Get("hierarchical"), args.Hierarchical)
	args.PadCounts = convert.Bool(values.Get("pad_counts"), args.PadCounts)
	args.Childless = convert.Bool(values.Get("childless"), args.Childless)

	args.Include = query.IDs(values["include"])
	args.Exclude = query.IDs(values["exclude"])
	args.ExcludeTree = query.IDs(values["exclude_tree"])
	args.MtmtIDs = query.IDs(values["mtmt_id"])
	args.Names = query.List(values["name"])
	args.Slugs = query.List(values["slug"])

	args.Search = values.Get("search")
	args.NameLike = values.Get("name__like")
	args.DescriptionLike = values.Get("description__like")
	args.Get = values.Get("get")
	args.ChildOf = convert.Int64(values.Get("child_of"), 0)
	args.Parent = convert.OptionalInt64(values.Get("parent"))

	return args
}
