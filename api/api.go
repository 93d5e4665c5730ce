// Package api provides HTTP handlers for the Atelier API.
package api

import (
	"net/http"

	"github.com/xraph/forge"
	"golang.org/x/time/rate"

	"github.com/xraph/atelier/engine"
	"github.com/xraph/atelier/project"
)

// DefaultSubmitRate caps project submissions per second.
const DefaultSubmitRate = rate.Limit(5)

// DefaultSubmitBurst is the submission burst size.
const DefaultSubmitBurst = 10

// API wires all Forge-style HTTP handlers together for the Atelier system.
type API struct {
	eng     *engine.Engine
	router  forge.Router
	limiter *rate.Limiter
}

// Option configures the API.
type Option func(*API)

// WithSubmitLimit overrides the rate limit on project submissions.
func WithSubmitLimit(r rate.Limit, burst int) Option {
	return func(a *API) { a.limiter = rate.NewLimiter(r, burst) }
}

// New creates an API from an Atelier Engine.
func New(eng *engine.Engine, router forge.Router, opts ...Option) *API {
	a := &API{
		eng:     eng,
		router:  router,
		limiter: rate.NewLimiter(DefaultSubmitRate, DefaultSubmitBurst),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handler returns the fully assembled http.Handler with all routes.
func (a *API) Handler() http.Handler {
	if a.router == nil {
		a.router = forge.NewRouter()
	}
	a.RegisterRoutes(a.router)
	return a.router.Handler()
}

// RegisterRoutes registers all Atelier API routes into the given Forge
// router with full OpenAPI metadata.
func (a *API) RegisterRoutes(router forge.Router) {
	g := router.Group("/v1", forge.WithGroupTags("projects"))

	_ = g.POST("/projects", a.createProject,
		forge.WithSummary("Start project"),
		forge.WithDescription("Creates a project from requirements text and starts its pipeline."),
		forge.WithOperationID("createProject"),
		forge.WithRequestSchema(CreateProjectRequest{}),
		forge.WithCreatedResponse(CreateProjectResponse{}),
		forge.WithErrorResponses(),
	)

	_ = g.GET("/projects", a.listProjects,
		forge.WithSummary("List projects"),
		forge.WithDescription("Returns status payloads for all registered projects."),
		forge.WithOperationID("listProjects"),
		forge.WithResponseSchema(http.StatusOK, "Project statuses", []ProjectStatusResponse{}),
		forge.WithErrorResponses(),
	)

	_ = g.GET("/projects/:projectId", a.getProject,
		forge.WithSummary("Get project status"),
		forge.WithDescription("Returns the polling payload for a specific project."),
		forge.WithOperationID("getProject"),
		forge.WithResponseSchema(http.StatusOK, "Project status", ProjectStatusResponse{}),
		forge.WithErrorResponses(),
	)

	_ = g.GET("/projects/:projectId/messages", a.listMessages,
		forge.WithSummary("Read message log"),
		forge.WithDescription("Returns messages at or past the cursor, plus the next cursor."),
		forge.WithOperationID("listMessages"),
		forge.WithRequestSchema(ListMessagesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Messages", ListMessagesResponse{}),
		forge.WithErrorResponses(),
	)

	_ = g.POST("/projects/:projectId/messages", a.postMessage,
		forge.WithSummary("Post message"),
		forge.WithDescription("Appends an out-of-band message to the project log."),
		forge.WithOperationID("postMessage"),
		forge.WithRequestSchema(PostMessageRequest{}),
		forge.WithCreatedResponse(PostMessageResponse{}),
		forge.WithErrorResponses(),
	)

	_ = g.GET("/projects/:projectId/artifacts", a.listArtifacts,
		forge.WithSummary("List artifacts"),
		forge.WithDescription("Returns artifact metadata, content omitted."),
		forge.WithOperationID("listArtifacts"),
		forge.WithResponseSchema(http.StatusOK, "Artifact listing", []ArtifactInfo{}),
		forge.WithErrorResponses(),
	)

	_ = g.GET("/projects/:projectId/artifacts/:name", a.getArtifact,
		forge.WithSummary("Get artifact"),
		forge.WithDescription("Returns one artifact with its full content."),
		forge.WithOperationID("getArtifact"),
		forge.WithResponseSchema(http.StatusOK, "Artifact", project.Artifact{}),
		forge.WithErrorResponses(),
	)
}
