package api

import (
	"context"
	"net/http"
	"time"

	"github.com/DMarby/instafilter/internal/filter"
	"github.com/DMarby/instafilter/internal/handler"
	"github.com/DMarby/instafilter/internal/health"
	"github.com/DMarby/instafilter/internal/hmac"
	"github.com/DMarby/instafilter/internal/library"
	"github.com/DMarby/instafilter/internal/logger"
	"github.com/DMarby/instafilter/internal/session"
	"github.com/DMarby/instafilter/internal/storage"
	"github.com/DMarby/instafilter/internal/tracing"
	"github.com/gorilla/mux"
)

// OutputCache returns rendered outputs by their render key
type OutputCache interface {
	Cached(ctx context.Context, key string) ([]byte, error)
}

// API is a http api
type API struct {
	Sessions       *session.Store
	Registry       *filter.Registry
	Library        library.Provider
	Storage        storage.Provider
	Outputs        OutputCache
	HealthChecker  *health.Checker
	Log            *logger.Logger
	Tracer         *tracing.Tracer
	RootURL        string
	HandlerTimeout time.Duration
	HMAC           *hmac.HMAC
	ShareTTL       time.Duration
	MaxUploadSize  int64
}

// Utility methods for logging
func (a *API) logError(r *http.Request, message string, err error) {
	a.Log.Errorw(message, handler.LogFields(r, "error", err)...)
}

// Router returns a http router
func (a *API) Router() http.Handler {
	router := mux.NewRouter()

	router.NotFoundHandler = handler.Handler(a.notFoundHandler)

	// Healthcheck
	router.Handle("/health", handler.Health(a.HealthChecker)).Methods("GET")

	// Filters, in display order
	router.Handle("/filters", a.timeout(a.filtersHandler)).Methods("GET")

	// Library photos that can be imported
	router.Handle("/library", a.timeout(a.libraryHandler)).Methods("GET")

	// Query parameters:
	// ?page={page} - What page to display
	// ?limit={limit} - How many entries to display per page

	// Sessions
	router.Handle("/sessions", a.timeout(a.createSessionHandler)).Methods("POST")
	router.Handle("/sessions/{id}", a.timeout(a.sessionHandler)).Methods("GET")
	router.Handle("/sessions/{id}", a.timeout(a.deleteSessionHandler)).Methods("DELETE")
	router.Handle("/sessions/{id}/image", a.timeout(a.importHandler)).Methods("PUT")

	// Query parameters:
	// ?photo={id} - Import a library photo instead of the request body

	router.Handle("/sessions/{id}/filter", a.timeout(a.filterHandler)).Methods("PUT")
	router.Handle("/sessions/{id}/controls", a.timeout(a.controlsHandler)).Methods("PATCH")
	router.Handle("/sessions/{id}/output", a.timeout(a.outputHandler)).Methods("GET")
	router.Handle("/sessions/{id}/share", a.timeout(a.shareHandler)).Methods("POST")

	// Long lived, so not bound by the handler timeout
	router.Handle("/sessions/{id}/events", handler.Handler(a.eventsHandler)).Methods("GET")

	// Shared outputs
	router.Handle("/share/{key}", a.timeout(a.sharedOutputHandler)).Methods("GET")

	// Query parameters:
	// ?expires - Unix time the link expires at
	// ?hmac - HMAC signature of the path and URL parameters

	routeMatcher := &handler.MuxRouteMatcher{Router: router}

	// Set up handlers for adding a request id, handling panics, request logging, setting CORS headers, metrics and tracing
	return handler.AddRequestID(
		handler.Recovery(a.Log,
			handler.Logger(a.Log,
				handler.CORS([]string{"Link", handler.RequestIDHeader},
					handler.Metrics(
						handler.Tracer(a.Tracer, router, routeMatcher),
						routeMatcher,
					),
				),
			),
		),
	)
}

func (a *API) timeout(h handler.Handler) http.Handler {
	return http.TimeoutHandler(h, a.HandlerTimeout, "Something went wrong. Timed out.")
}

// Handle not found errors
var notFoundError = &handler.Error{
	Message: "page not found",
	Code:    http.StatusNotFound,
}

func (a *API) notFoundHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	return notFoundError
}
