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

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/padelwatch/padelwatch/internal/adapters/httpapi"
	"github.com/padelwatch/padelwatch/internal/adapters/memorybus"
	"github.com/padelwatch/padelwatch/internal/adapters/redisstore"
	"github.com/padelwatch/padelwatch/internal/adapters/statefile"
	"github.com/padelwatch/padelwatch/internal/app"
	"github.com/padelwatch/padelwatch/internal/buildinfo"
	"github.com/padelwatch/padelwatch/internal/config"
	"github.com/padelwatch/padelwatch/internal/ports"
)

func main() {
	def := config.Default()
	addr := flag.String("addr", def.Addr, "Adresse d'écoute (ex: 127.0.0.1:8080)")
	dataDir := flag.String("data", def.DataDir, "Répertoire des fichiers d'état")
	storeKind := flag.String("store", def.Store, "Backend de persistance: file ou redis")
	redisAddr := flag.String("redis", def.RedisAddr, "Adresse Redis (backend redis)")
	retention := flag.Int("retention-days", def.RetentionDays, "Jours d'historique conservés avant aujourd'hui")
	authFile := flag.String("auth-file", def.AuthFile, "Fichier user:hash protégeant l'ingestion (optionnel)")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("app", "padelwatch-server").Logger()
	log.Logger = logger

	logger.Info().Interface("build", buildinfo.Current()).Str("store", *storeKind).Msg("starting")

	var (
		states ports.StateStore
		dates  ports.DateRegistry
	)
	switch *storeKind {
	case "redis":
		client := redisstore.NewClient(*redisAddr, def.RedisPassword, def.RedisDB)
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.Fatal().Err(err).Str("addr", *redisAddr).Msg("redis unreachable")
		}
		states = redisstore.NewStore(client, logger.With().Str("component", "redis-state").Logger())
		dates = redisstore.NewDateRegistry(client, logger.With().Str("component", "redis-dates").Logger())
	case "file":
		if err := os.MkdirAll(*dataDir, 0o755); err != nil {
			logger.Fatal().Err(err).Str("dir", *dataDir).Msg("cannot create data directory")
		}
		states = statefile.NewStore(*dataDir, logger.With().Str("component", "state-store").Logger())
		dates = statefile.NewDateRegistry(*dataDir, logger.With().Str("component", "date-registry").Logger())
	default:
		logger.Fatal().Str("store", *storeKind).Msg("unknown store backend")
	}

	bus := memorybus.New()
	defer bus.Close()

	tracker := app.NewTracker(logger.With().Str("component", "tracker").Logger(), states, dates, bus)
	tracker.RetentionDays = *retention

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reporter := app.NewReportLogger(logger.With().Str("component", "report-log").Logger(), bus)
	go reporter.Run(shutdownCtx)

	auth, err := httpapi.LoadBasicAuth(*authFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid auth file")
	}
	if auth == nil {
		logger.Warn().Str("file", *authFile).Msg("no auth file, snapshot ingestion is unprotected")
	}

	srv := httpapi.NewServer(logger, tracker, states, dates, bus, auth)
	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", *addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server crashed")
			stop()
		}
	}()

	<-shutdownCtx.Done()
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
	logger.Info().Msg("bye")
}
