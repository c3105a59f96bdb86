// Package server exposes the MedMais API over HTTP.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/api"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/audit"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/auth"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/authz"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/calendar"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/catalog"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/collaborators"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/compliance"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/config"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/exports"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/feedback"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/identity"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/observability"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/ratelimit"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/releases"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/store"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/submissions"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/users"
)

// Options wires the server's dependencies. Store, Catalog and Keys are
// required; everything else has an in-process default.
type Options struct {
	Config  *config.Config
	Store   *store.SQLStore
	Catalog *catalog.Catalog
	Keys    identity.KeySet

	Releases      *releases.Book
	Archive       exports.Archive
	Limiter       ratelimit.Store
	Idempotency   api.IdempotencyStorer
	Observability *observability.Provider
	Audit         audit.Logger
	Clock         calendar.Clock
	Logger        *slog.Logger
}

// Server holds the services behind the HTTP surface.
type Server struct {
	cfg      *config.Config
	store    *store.SQLStore
	catalog  *catalog.Catalog
	resolver *authz.Resolver

	auth          *auth.Authenticator
	evaluator     *compliance.Evaluator
	submissions   *submissions.Service
	users         *users.Service
	collaborators *collaborators.Service
	feedback      *feedback.Service
	releases      *releases.Book
	archive       exports.Archive

	limiter     ratelimit.Store
	idempotency api.IdempotencyStorer
	global      *api.GlobalRateLimiter
	obs         *observability.Provider
	clock       calendar.Clock
	logger      *slog.Logger
}

// New builds a Server from opts.
func New(opts Options) (*Server, error) {
	if opts.Store == nil || opts.Catalog == nil || opts.Keys == nil {
		return nil, errors.New("server: store, catalog and keys are required")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Load()
	}
	resolver, err := authz.Default()
	if err != nil {
		return nil, err
	}
	book := opts.Releases
	if book == nil {
		if book, err = releases.Default(); err != nil {
			return nil, err
		}
	}
	clock := opts.Clock
	if clock == nil {
		clock = calendar.RealClock{Location: calendar.LoadLocation(cfg.Timezone)}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	auditLog := opts.Audit
	if auditLog == nil {
		auditLog = audit.Multi(audit.NewLogger(), audit.NewStoreLogger(opts.Store))
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.NewMemoryStore()
	}
	idem := opts.Idempotency
	if idem == nil {
		idem = api.NewSQLIdempotencyStore(opts.Store.DB(), 24*time.Hour)
	}

	evaluator := compliance.NewEvaluator(store.NewComplianceSource(opts.Store), opts.Catalog).
		WithClock(clock).
		WithAdministrativeBase(cfg.AdminBaseName).
		WithLogger(logger.With("component", "compliance"))
	if opts.Observability != nil {
		evaluator = evaluator.WithTracker(opts.Observability)
	}

	return &Server{
		cfg:           cfg,
		store:         opts.Store,
		catalog:       opts.Catalog,
		resolver:      resolver,
		auth:          auth.NewAuthenticator(opts.Store, opts.Keys, cfg.TokenTTL, cfg.RefreshTTL),
		evaluator:     evaluator,
		submissions:   submissions.NewService(opts.Store, opts.Catalog, auditLog),
		users:         users.NewService(opts.Store, auditLog),
		collaborators: collaborators.NewService(opts.Store, auditLog),
		feedback:      feedback.NewService(opts.Store, auditLog),
		releases:      book,
		archive:       opts.Archive,
		limiter:       limiter,
		idempotency:   idem,
		global:        api.NewGlobalRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		obs:           opts.Observability,
		clock:         clock,
		logger:        logger.With("component", "server"),
	}, nil
}

// Evaluator returns the compliance evaluator used by the server.
func (s *Server) Evaluator() *compliance.Evaluator {
	return s.evaluator
}

// Close stops background work.
func (s *Server) Close() {
	s.global.Close()
}

// Handler returns the routed handler wrapped in the middleware chain:
// request-id, CORS, IP limiter, JWT, per-actor limiter, idempotency, otel.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.routes()
	if s.obs != nil {
		h = s.obs.Middleware(h)
	}
	h = api.IdempotencyMiddleware(s.idempotency, func(r *http.Request) string {
		return auth.ActorID(r.Context())
	})(h)
	h = auth.RateLimitMiddleware(s.limiter, ratelimit.PolicyFromRPS(s.cfg.RateLimitRPS, s.cfg.RateLimitBurst))(h)
	h = auth.NewMiddleware(s.auth.Validator(), s.resolver)(h)
	h = s.global.Middleware(h)
	h = auth.CORSMiddleware(s.cfg.CORSOrigins)(h)
	return auth.RequestIDMiddleware(h)
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	guard := func(c authz.Capability, h http.HandlerFunc) http.Handler {
		return auth.RequireCapability(c)(h)
	}

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/refresh", s.handleRefresh)

	mux.HandleFunc("GET /api/me", s.handleMe)
	mux.HandleFunc("GET /api/releases", s.handleReleases)
	mux.Handle("PUT /api/me/password", guard(authz.CapSettingsView, s.handleChangePassword))
	mux.Handle("POST /api/releases/seen", guard(authz.CapSettingsView, s.handleReleaseSeen))
	mux.HandleFunc("GET /api/catalog", s.handleCatalog)
	mux.HandleFunc("GET /api/bases", s.handleBases)
	mux.HandleFunc("GET /api/bases/{id}/teams", s.handleBaseTeams)

	mux.HandleFunc("GET /api/submissions", s.handleListSubmissions)
	mux.Handle("POST /api/submissions", guard(authz.CapSubmissionsCreate, s.handleCreateSubmission))
	mux.HandleFunc("PUT /api/submissions/{id}", s.handleUpdateSubmission)
	mux.HandleFunc("DELETE /api/submissions/{id}", s.handleDeleteSubmission)

	mux.Handle("GET /api/compliance", guard(authz.CapComplianceView, s.handleCompliance))
	mux.Handle("GET /api/compliance/chart", guard(authz.CapComplianceView, s.handleComplianceChart))
	mux.Handle("GET /api/compliance/inactive", guard(authz.CapComplianceView, s.handleInactive))
	mux.Handle("GET /api/analytics/{kind}", guard(authz.CapAnalyticsView, s.handleAnalytics))

	mux.Handle("GET /api/users", guard(authz.CapUsersManage, s.handleListUsers))
	mux.Handle("POST /api/users", guard(authz.CapUsersManage, s.handleCreateUser))
	mux.Handle("PUT /api/users/{id}", guard(authz.CapUsersManage, s.handleUpdateUser))

	mux.HandleFunc("GET /api/collaborators", s.handleListCollaborators)
	mux.Handle("POST /api/collaborators", guard(authz.CapCollaboratorsManage, s.handleCreateCollaborators))
	mux.Handle("PUT /api/collaborators/{id}", guard(authz.CapCollaboratorsManage, s.handleUpdateCollaborator))
	mux.Handle("DELETE /api/collaborators/{id}", guard(authz.CapCollaboratorsManage, s.handleDeactivateCollaborator))

	mux.HandleFunc("GET /api/feedback", s.handleListFeedback)
	mux.Handle("POST /api/feedback", guard(authz.CapFeedbackCreate, s.handleCreateFeedback))
	mux.Handle("PATCH /api/feedback/{id}", guard(authz.CapSupportManage, s.handleUpdateFeedback))

	mux.HandleFunc("GET /api/export/submissions.csv", s.handleExportCSV)
	mux.Handle("POST /api/export/archive", guard(authz.CapExplorerView, s.handleArchiveExport))
	mux.Handle("GET /api/export/archive/{hash}", guard(authz.CapExplorerView, s.handleGetArchive))
	return mux
}
