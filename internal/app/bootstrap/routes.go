// internal/app/bootstrap/routes.go
package bootstrap

import (
	"crypto/sha256"
	"fmt"
	"net/http"

	cooperativesfeature "github.com/dalemusser/coophub/internal/app/features/cooperatives"
	dashboardfeature "github.com/dalemusser/coophub/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/coophub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/coophub/internal/app/features/health"
	homefeature "github.com/dalemusser/coophub/internal/app/features/home"
	loginfeature "github.com/dalemusser/coophub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/coophub/internal/app/features/logout"
	pagesfeature "github.com/dalemusser/coophub/internal/app/features/pages"
	registerfeature "github.com/dalemusser/coophub/internal/app/features/register"
	"github.com/dalemusser/coophub/internal/app/system/auth"
	"github.com/dalemusser/coophub/internal/app/system/credstore"
	"github.com/dalemusser/coophub/internal/app/system/ratelimit"
	"github.com/dalemusser/coophub/internal/app/system/viewdata"
	"github.com/dalemusser/coophub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, the API client, and Startup have
// completed. The router:
//  1. Serves /static without touching the session.
//  2. Restores the session from the cookie (LoadSession) for everything else.
//  3. Applies the route policy (Guard) before any screen handler runs.
//  4. Protects every form post with gorilla/csrf.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"

	backend, err := credstore.NewCookieBackend(credstore.CookieConfig{
		Secret: appCfg.SessionKey,
		Name:   appCfg.SessionName,
		Domain: appCfg.SessionDomain,
		MaxAge: int(appCfg.SessionMaxAge.Seconds()),
		Secure: secure,
	}, logger)
	if err != nil {
		logger.Error("cookie store init failed", zap.Error(err))
		return nil, err
	}

	sessionMgr, err := auth.NewSessionManager(backend, deps.API, deps.Policy, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	viewdata.Init(viewdata.Config{
		Site:   models.SiteSettings{SiteName: appCfg.SiteName, Footer: appCfg.Footer},
		Policy: deps.Policy,
		Flash:  backend,
	})

	csrfKey, err := csrfKey(appCfg.CSRFKey, secure, logger)
	if err != nil {
		return nil, err
	}

	errLog := errorsfeature.NewErrorLogger(logger)
	errorsHandler := errorsfeature.NewHandler()
	sessionMgr.NotFound = http.HandlerFunc(errorsHandler.NotFound)

	r := chi.NewRouter()
	r.Use(plaintextInDev(secure))
	r.Use(csrf.Protect(csrfKey,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("csrf check failed",
				zap.String("path", r.URL.Path), zap.Error(csrf.FailureReason(r)))
			errorsfeature.RenderPage(w, r, http.StatusForbidden, "Form expired",
				"Your form expired or was sent from another site. Please try again.", "/dashboard")
		})),
	))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	limiter := ratelimit.NewAuthLimiter()

	r.Group(func(r chi.Router) {
		// Restore the session, then decide whether the screen may render.
		r.Use(sessionMgr.LoadSession)
		r.Use(sessionMgr.Guard)

		homeHandler := homefeature.NewHandler(deps.Policy, logger)
		r.Get("/", homeHandler.ServeRoot)

		healthHandler := healthfeature.NewHandler(deps.API, logger)
		r.Mount("/health", healthfeature.Routes(healthHandler))

		// Authentication
		loginHandler := loginfeature.NewHandler(errLog, limiter, logger)
		r.Mount("/login", loginfeature.Routes(loginHandler))

		registerHandler := registerfeature.NewHandler(errLog, limiter, logger)
		r.Mount("/register", registerfeature.Routes(registerHandler))

		logoutHandler := logoutfeature.NewHandler(logger)
		r.Mount("/logout", logoutfeature.Routes(logoutHandler))

		// Screens
		dashboardHandler := dashboardfeature.NewHandler(logger)
		r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler))

		coopsHandler := cooperativesfeature.NewHandler(errLog, logger)
		r.Mount("/cooperatives", cooperativesfeature.Routes(coopsHandler, sessionMgr))

		pagesHandler := pagesfeature.NewHandler(logger)
		for _, p := range pagesfeature.Placeholders {
			r.Mount("/"+p.Slug, pagesHandler.Router(p.Slug))
		}
	})

	// Paths no route claims still get the session so the page shows the nav.
	r.NotFound(sessionMgr.LoadSession(http.HandlerFunc(errorsHandler.NotFound)).ServeHTTP)

	logger.Info("router built",
		zap.String("api", deps.API.BaseURL()),
		zap.String("base_url", appCfg.BaseURL),
		zap.Bool("secure_cookies", secure))
	return r, nil
}

// csrfKey turns the configured secret into the 32-byte key gorilla/csrf
// wants. Without a secret, dev boots get a random key (forms break across
// restarts) and prod refuses to start.
func csrfKey(secret string, secure bool, logger *zap.Logger) ([]byte, error) {
	if secret == "" {
		if secure {
			return nil, fmt.Errorf("csrf_key is required in production")
		}
		logger.Warn("csrf_key not set; using a random key for this process")
		return securecookie.GenerateRandomKey(32), nil
	}
	sum := sha256.Sum256([]byte(secret))
	return sum[:], nil
}

// plaintextInDev marks requests as plain HTTP so gorilla/csrf skips its
// HTTPS-only Referer checks when the dev server runs without TLS.
func plaintextInDev(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secure {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}
