package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tourbook/internal/adapters/api"
	"tourbook/internal/adapters/api/middleware"
	"tourbook/internal/application/query"
	"tourbook/internal/application/session"
	"tourbook/internal/application/token"
	"tourbook/internal/config"
	"tourbook/internal/infrastructure/metrics"

	appauth "tourbook/internal/application/auth"
	apptour "tourbook/internal/application/tour"
)

//	@title			Tourbook API
//	@version		1.0
//	@description	Tour booking API: tours, reviews, bookings and cookie-based sessions
//	@termsOfService	http://swagger.io/terms/

//	@contact.name	API Support
//	@contact.email	support@tourbook.local

//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	CookieAuth
//	@in							cookie
//	@name						accessToken
//	@description				Access token cookie set at login; rotated silently from the refresh token cookie.

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a yaml config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	setupLogger(cfg)

	log.Info().
		Str("env", cfg.Env).
		Str("addr", cfg.HTTP.Addr()).
		Str("db_driver", cfg.Database.Driver).
		Str("session_store", cfg.Sessions.Store).
		Bool("session_cache", cfg.Sessions.CacheURL != "").
		Msg("Starting tourbook server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped")
}

// setupLogger uses a console writer locally and JSON elsewhere
func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Env == config.EnvLocal {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func run(ctx context.Context, cfg *config.Config) error {
	setupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	st, err := openStores(setupCtx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	codec, err := newCodec(cfg.Auth)
	if err != nil {
		return err
	}

	collab, err := openCollaborators(setupCtx, cfg)
	if err != nil {
		return err
	}

	manager := session.NewManager(st.sessions, st.users, codec)
	authSvc := appauth.NewService(st.users, manager, collab.mailer, collab.images, cfg.Auth.BcryptCost)
	tourSvc := apptour.NewService(apptour.Repositories{
		Tours:    st.tours,
		Reviews:  st.tours,
		Bookings: st.tours,
		Users:    st.users,
	}, apptour.Options{
		Payments: collab.payments,
		Images:   collab.images,
		Mailer:   collab.mailer,
		BaseURL:  cfg.HTTP.BaseURL,
	})

	m := metrics.New()
	cookies := middleware.NewCookies(middleware.CookieOptions{
		Domain:     cfg.Cookie.Domain,
		Path:       cfg.Cookie.Path,
		MaxAge:     codec.TTL(token.Refresh),
		Production: cfg.IsProduction(),
	})
	authn := middleware.NewAuthenticator(codec, manager, cookies)
	authn.OnRotation(m.Rotation)

	handler := api.NewHandler(api.Dependencies{
		Auth:           authSvc,
		Tours:          tourSvc,
		Authenticator:  authn,
		Cookies:        cookies,
		Tokens:         codec,
		Metrics:        m,
		Limits:         query.Limits{Default: cfg.Query.DefaultLimit, Max: cfg.Query.MaxLimit},
		MaxUploadBytes: cfg.S3.MaxImageBytes,
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           newRouter(cfg, handler, m),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}

func newCodec(cfg config.AuthConfig) (*token.Codec, error) {
	access, err := token.LoadKeyPair(cfg.AccessPrivateKey, cfg.AccessPublicKey)
	if err != nil {
		return nil, err
	}
	refresh, err := token.LoadKeyPair(cfg.RefreshPrivateKey, cfg.RefreshPublicKey)
	if err != nil {
		return nil, err
	}
	return token.NewCodec(token.Config{
		Access:     access,
		Refresh:    refresh,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
		Issuer:     cfg.Issuer,
	})
}

func newRouter(cfg *config.Config, handler *api.Handler, m *metrics.Metrics) *gin.Engine {
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), m.Middleware())

	// credentials are required for the auth cookies, so the origin must be explicit
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.HTTP.AllowedOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Stripe-Signature", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/metrics", gin.WrapH(m.Handler()))
	handler.RegisterRoutes(r)
	return r
}
