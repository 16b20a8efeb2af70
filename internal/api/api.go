// Package api is the relayer's HTTP surface: a go-chi router serving the v1
// endpoints (/handshake, /status, /jobs/{id}, /transact) and the v2
// endpoints (/api/v2/info, /api/v2/transact, /api/v2/transaction/status/{id}).
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dando385/chain-relayer/internal/relayctx"
)

// packageVersion is reported by the /handshake probe.
const packageVersion = "0.3.2"

// v1TransactMaxWait bounds the v1 /transact endpoint's blocking poll: it
// polls every v1TransactPollInterval and gives up once v1TransactMaxWait
// elapses without the job failing or getting a transaction hash, replying
// with the job id and an empty hash.
const (
	v1TransactMaxWait      = 120 * time.Second
	v1TransactPollInterval = 2 * time.Second
)

// Server is the wired HTTP surface over one relayctx.Context.
type Server struct {
	rc     *relayctx.Context
	router chi.Router
}

// New builds a Server with every route mounted.
func New(rc *relayctx.Context) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CMC_PRO_API_KEY"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s := &Server{rc: rc, router: r}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/handshake", s.handleHandshake)
	s.router.Post("/status", s.handleStatusV1)
	s.router.Get("/jobs/{id}", s.handleJobV1)
	s.router.Post("/transact", s.handleTransactV1)

	s.router.Route("/api/v2", func(r chi.Router) {
		r.Post("/info", s.handleInfoV2)
		r.Post("/transact", s.handleTransactV2)
		r.Get("/transaction/status/{id}", s.handleStatusV2)
	})
}

// ServeHTTP lets Server be handed directly to http.ListenAndServe.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
