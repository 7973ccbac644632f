package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/jwtshield/internal/auth/domain"
	"github.com/aussiebroadwan/jwtshield/internal/auth/lockout"
	"github.com/aussiebroadwan/jwtshield/internal/auth/service"
	"github.com/aussiebroadwan/jwtshield/internal/auth/store"
	"github.com/aussiebroadwan/jwtshield/pkg/authsdk"
	"github.com/aussiebroadwan/jwtshield/pkg/httpx"
	"github.com/aussiebroadwan/jwtshield/pkg/slogx"

	_ "github.com/aussiebroadwan/jwtshield/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	AuthService      *service.AuthService
	UserService      *service.UserService
	BootstrapService *service.BootstrapService
	Limiter          *lockout.Limiter
	ClientIdentifier *httpx.ClientIdentifier

	// CountersPinger is set when lockout counters live outside the database.
	CountersPinger Pinger
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	return &Router{
		Mux:              http.NewServeMux(),
		buildVersion:     buildVersion,
		startTime:        time.Now(),
		store:            st,
		logger:           logger,
		ClientIdentifier: httpx.NewClientIdentifier(),
	}
}

// ApplyRoutes registers every route and builds the global pipeline. The
// services must be set first.
func (r *Router) ApplyRoutes() {
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		AuthenticateMiddleware(r.AuthService, r.ClientIdentifier),
		DeferredErrorMiddleware(r.AuthService),
	}

	r.registerToken()
	r.registerUsers()
	r.registerBootstrap()
	r.registerSystem()

	r.Mux.Handle("GET /swagger/",
		httpx.Chain(httpSwagger.Handler(),
			httpx.RateLimitByClient(httpx.PublicLimit, r.ClientIdentifier),
		),
	)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			jwtshield API
//	@version		0.1.0
//	@description	Issues and validates HS256 bearer tokens for a user directory.
//	@description
//	@description				Failed attempts are counted per client; five failures lock the client out of that endpoint for 15 minutes.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/jwtshield
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerToken() {
	// The lockout is the real brute force guard; the throttle only stops floods.
	r.Mux.Handle("POST /token",
		httpx.Chain(&TokenHandler{
			AuthService:      r.AuthService,
			Limiter:          r.Limiter,
			ClientIdentifier: r.ClientIdentifier,
		},
			httpx.RateLimitByClient(httpx.LenientLimit, r.ClientIdentifier),
		),
	)
	r.Mux.Handle("POST /validate",
		httpx.Chain(&ValidateHandler{
			AuthService:      r.AuthService,
			Limiter:          r.Limiter,
			ClientIdentifier: r.ClientIdentifier,
		},
			httpx.RateLimitByClient(httpx.LenientLimit, r.ClientIdentifier),
		),
	)
}

func (r *Router) registerUsers() {
	unauthenticated := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		authsdk.ErrNoAuthHeader.WriteError(w)
	})
	forbidden := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		authsdk.ErrForbidden.WriteError(w)
	})

	r.Mux.Handle("GET /v1/me",
		httpx.Chain(&MeHandler{UserService: r.UserService},
			httpx.RequireUser(unauthenticated),
			httpx.RateLimitByClient(httpx.ModerateLimit, r.ClientIdentifier),
		),
	)

	r.Mux.Handle("POST /v1/users",
		httpx.Chain(&CreateUserHandler{UserService: r.UserService},
			httpx.RequireUser(unauthenticated),
			httpx.RequireAnyRole(r.UserService.Roles, forbidden, domain.RoleAdministrator),
			httpx.RateLimitByClient(httpx.ModerateLimit, r.ClientIdentifier),
		),
	)
}

func (r *Router) registerBootstrap() {
	// POST /bootstrap - very strict rate limit by IP (one-time setup endpoint)
	r.Mux.Handle("POST /v1/bootstrap",
		httpx.Chain(&BootstrapHandler{BootstrapService: r.BootstrapService},
			httpx.RateLimitByClient(httpx.StrictLimit, r.ClientIdentifier),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByClient(httpx.LenientLimit, r.ClientIdentifier),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.AuthService.Configured, r.CountersPinger),
			httpx.RateLimitByClient(httpx.LenientLimit, r.ClientIdentifier),
		),
	)
}
