package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-session-relay/backend"
	"github.com/jrsteele09/go-session-relay/credential"
	"github.com/jrsteele09/go-session-relay/handshake"
	"github.com/jrsteele09/go-session-relay/hostsession"
	"github.com/jrsteele09/go-session-relay/internal/config"
	"github.com/jrsteele09/go-session-relay/server"
	"github.com/jrsteele09/go-session-relay/server/authflowrepo"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

var errPanicRecovered = errors.New("panic recovered")

func main() {
	for {
		err := run()
		if err == nil {
			break
		}
		if !errors.Is(err, errPanicRecovered) {
			log.Fatal().Err(err).Msg("Error running server")
		}
		log.Error().Err(err).Msg("Restarting server")
		time.Sleep(1 * time.Second)
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errPanicRecovered
		}
	}()

	c, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	setupLogging(c)
	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, cleanup, err := buildDeps(ctx, c)
	if err != nil {
		return fmt.Errorf("dependencies: %w", err)
	}
	defer cleanup()

	handler, err := server.New(c, deps)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return listenAndServe(httpServer)
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(httpServer)
	})
	return g.Wait()
}

func buildDeps(ctx context.Context, c config.Config) (server.Deps, func(), error) {
	cleanup := func() {}

	sealer, err := hostsession.NewSealer(c.GetSessionSecret(), c.GetMaxSessionAge())
	if err != nil {
		return server.Deps{}, cleanup, err
	}
	jar := hostsession.NewCookieJar(c.GetSessionCookieName(), c.GetMaxSessionAge())
	store := hostsession.NewStore(sealer, jar)

	backendClient, err := backend.NewClient(backend.Config{
		BaseURL: c.GetBackendURL(),
		Timeout: c.GetBackendTimeout(),
	}, credential.NewRelay(store.Extractor()))
	if err != nil {
		return server.Deps{}, cleanup, err
	}

	provider, err := newProvider(ctx, c)
	if err != nil {
		return server.Deps{}, cleanup, err
	}

	var authState authflowrepo.Repo
	if addr := c.GetRedisAddr(); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: c.GetRedisPassword(),
			DB:       c.GetRedisDB(),
		})
		repo := authflowrepo.NewRedisRepo(client, c.GetStateTTL())
		if err := repo.Health(ctx); err != nil {
			_ = client.Close()
			return server.Deps{}, cleanup, fmt.Errorf("redis ping: %w", err)
		}
		cleanup = func() { _ = client.Close() }
		authState = repo
		log.Info().Str("addr", addr).Msg("Auth flow state in Redis")
	} else {
		authState = authflowrepo.NewInMemoryRepo(c.GetStateTTL())
		log.Info().Msg("Auth flow state in memory")
	}

	return server.Deps{
		Store:     store,
		Backend:   backendClient,
		Provider:  provider,
		AuthState: authState,
	}, cleanup, nil
}

func newProvider(ctx context.Context, c config.Config) (handshake.Provider, error) {
	if c.GetAuthMode() == config.AuthModeMock {
		mock := c.GetMockProfile()
		log.Warn().Str("gamertag", mock.Gamertag).Msg("AUTH_MODE=mock: sign-in is simulated")
		return handshake.NewDevProvider(handshake.DevConfig{
			CallbackPath: server.RouteAuthCallback,
			XUID:         mock.XUID,
			Gamertag:     mock.Gamertag,
			Email:        mock.Email,
			Role:         mock.Role,
		})
	}
	return handshake.NewOAuthProvider(ctx, handshake.OAuthConfig{
		ClientID:     c.GetClientID(),
		ClientSecret: c.GetClientSecret(),
		AuthURL:      c.GetAuthURL(),
		TokenURL:     c.GetTokenURL(),
		RedirectURL:  c.GetRedirectURL(),
		Scopes:       c.GetScopes(),
		Issuer:       c.GetIssuer(),
		JWKSURL:      c.GetJWKSURL(),
		AdminXUIDs:   c.GetAdminXUIDs(),
	})
}

func setupLogging(c config.Config) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if c.IsDev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
