// Package api exposes the store over HTTP.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"bookstore/pkg/bookstore"
	"bookstore/pkg/logger"
	"bookstore/pkg/session"
)

// Server routes HTTP requests to Store commands.
type Server struct {
	store    *bookstore.Store
	sessions session.Store
	log      *logger.Logger
	tracer   trace.Tracer
	secure   bool
}

// Option configures a Server.
type Option func(*Server)

// WithTracer sets the tracer injected into every request.
func WithTracer(t trace.Tracer) Option {
	return func(s *Server) { s.tracer = t }
}

// WithSecureCookies marks session cookies Secure, for TLS listeners.
func WithSecureCookies() Option {
	return func(s *Server) { s.secure = true }
}

// NewServer returns a Server over store with sessions kept in sessions.
func NewServer(store *bookstore.Store, sessions session.Store, log *logger.Logger, opts ...Option) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Server{
		store:    store,
		sessions: sessions,
		log:      log,
		tracer:   noop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.recoverer, s.traceMiddleware, s.requestLogger)

	r.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/", s.infoHandler).Methods(http.MethodGet)
	r.HandleFunc("/signup", s.signupHandler).Methods(http.MethodPost)
	r.HandleFunc("/login", s.loginHandler).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.logoutHandler).Methods(http.MethodPost)
	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	api := r.NewRoute().Subrouter()
	api.Use(s.authMiddleware)

	api.HandleFunc("/books", s.searchBooksHandler).Methods(http.MethodGet)
	api.HandleFunc("/books", s.addBookHandler).Methods(http.MethodPost)
	api.HandleFunc("/books/{isbn}", s.getBookHandler).Methods(http.MethodGet)
	api.HandleFunc("/books/{isbn}/quantity", s.updateQuantityHandler).Methods(http.MethodPut)
	api.HandleFunc("/books/{isbn}/price", s.updatePriceHandler).Methods(http.MethodPut)

	api.HandleFunc("/cart", s.getCartHandler).Methods(http.MethodGet)
	api.HandleFunc("/cart", s.clearCartHandler).Methods(http.MethodDelete)
	api.HandleFunc("/cart/items", s.addCartItemHandler).Methods(http.MethodPost)
	api.HandleFunc("/cart/items/{isbn}", s.removeCartItemHandler).Methods(http.MethodDelete)
	api.HandleFunc("/checkout", s.checkoutHandler).Methods(http.MethodPost)

	api.HandleFunc("/orders", s.listOrdersHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/pending", s.pendingOrdersHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", s.getOrderHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/approve", s.approveOrderHandler).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}/cancel", s.cancelOrderHandler).Methods(http.MethodPost)

	api.HandleFunc("/me", s.meHandler).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{email}", s.deleteAccountHandler).Methods(http.MethodDelete)
	api.HandleFunc("/sales", s.salesHandler).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	return r
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// healthHandler reports liveness.
// @Summary Health check
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// infoHandler describes the store.
// @Summary Store information
// @Produce json
// @Success 200 {object} bookstore.Info
// @Router / [get]
func (s *Server) infoHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Info())
}
