// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/multitax/internal/core/taxonomy"
	"github.com/taibuivan/multitax/internal/platform/middleware"
	requestutil "github.com/taibuivan/multitax/internal/platform/request"
	"github.com/taibuivan/multitax/internal/platform/respond"
	"github.com/taibuivan/multitax/internal/platform/sec"
)

// # Handler Implementation

// Handler exposes the catalog over HTTP.
type Handler struct {
	service *Service
}

// NewHandler constructs a catalog [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] with the taxonomy, term and post endpoints.
//
// # Routing Strategy
//
//   - Discovery (Public): taxonomy, term and post reads.
//   - Management (Restricted): each write requires the capability the
//     taxonomy in the URL declares for that action.
//   - Maintenance (Admin): count repair.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// ## Taxonomies and Terms
	router.Get("/taxonomies", handler.listTaxonomies)
	router.Route("/taxonomies/{taxonomy}", func(scoped chi.Router) {
		scoped.Get("/", handler.getTaxonomy)
		scoped.Get("/terms", handler.listTerms)
		scoped.Get("/terms/{termID}", handler.getTerm)
		scoped.Get("/terms/{termID}/ancestors", handler.listAncestors)
		scoped.Get("/terms/{termID}/children", handler.listChildren)

		scoped.With(handler.require(taxonomy.ActionManage)).Post("/terms", handler.createTerm)
		scoped.With(handler.require(taxonomy.ActionEdit)).Patch("/terms/{termID}", handler.updateTerm)
		scoped.With(handler.require(taxonomy.ActionDelete)).Delete("/terms/{termID}", handler.deleteTerm)

		scoped.With(middleware.RequireRole(sec.RoleAdmin)).Post("/recount", handler.recountTerms)
	})

	// ## Shared Terms and Meta
	router.Get("/terms/{termID}", handler.getSharedTerm)
	router.Get("/terms/{termID}/meta", handler.listMeta)
	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireCapability(fixedCapability(sec.CapEditTerms)))

		admin.Post("/terms/{termID}/meta", handler.addMeta)
		admin.Put("/terms/{termID}/meta/{key}", handler.updateMeta)
		admin.Delete("/terms/{termID}/meta/{key}", handler.deleteMeta)
	})

	// ## Object Relationships
	router.Get("/sites/{blogID}/objects/{objectID}/terms", handler.listObjectTerms)
	router.Route("/sites/{blogID}/objects/{objectID}/terms/{taxonomy}", func(assign chi.Router) {
		assign.Use(handler.require(taxonomy.ActionAssign))

		assign.Put("/", handler.setObjectTerms)
		assign.Post("/", handler.addObjectTerms)
		assign.Delete("/", handler.removeObjectTerms)
	})

	// ## Posts
	router.Get("/posts", handler.queryPosts)
	router.Post("/sites/{blogID}/posts/search", handler.findPosts)

	return router
}

// require guards a route with the capability the URL's taxonomy declares for action.
func (handler *Handler) require(action taxonomy.Action) func(http.Handler) http.Handler {
	return middleware.RequireCapability(func(request *http.Request) (string, error) {
		tax, err := handler.service.GetTaxonomy(requestutil.Param(request, "taxonomy"))
		if err != nil {
			return "", err
		}
		return tax.Capability(action), nil
	})
}

func fixedCapability(capability string) middleware.CapabilityResolver {
	return func(*http.Request) (string, error) { return capability, nil }
}

// # Taxonomy Endpoints

/*
GET /api/v1/taxonomies.

Response:
  - 200: []taxonomy.Taxonomy: Every registered taxonomy, ordered by name
*/
func (handler *Handler) listTaxonomies(writer http.ResponseWriter, _ *http.Request) {
	respond.OK(writer, handler.service.ListTaxonomies())
}

/*
GET /api/v1/taxonomies/{taxonomy}.

Response:
  - 200: taxonomy.Taxonomy
  - 400: INVALID_TAXONOMY: Unknown taxonomy
*/
func (handler *Handler) getTaxonomy(writer http.ResponseWriter, request *http.Request) {
	tax, err := handler.service.GetTaxonomy(requestutil.Param(request, "taxonomy"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, tax)
}

/*
POST /api/v1/taxonomies/{taxonomy}/recount.

Description: Recomputes the stored usage count of every term of the taxonomy.

Response:
  - 200: {"recounted": int}
  - 400: INVALID_TAXONOMY
  - 403: FORBIDDEN: Caller is not a network administrator
*/
func (handler *Handler) recountTerms(writer http.ResponseWriter, request *http.Request) {
	recounted, err := handler.service.RecountTaxonomy(request.Context(), requestutil.Param(request, "taxonomy"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]int{"recounted": recounted})
}
