package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"matchhub/internal/app/public"
	"matchhub/internal/auth"
	"matchhub/internal/config"
	"matchhub/internal/coordinator"
	"matchhub/internal/logging"
	"matchhub/internal/mcpserver"
	"matchhub/internal/rating"
	"matchhub/internal/resultpush"
	"matchhub/internal/store"
	httptransport "matchhub/internal/transport/http"
	"matchhub/internal/ws"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.Log)
	defer func() { _ = logging.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, st := openRepository(ctx, cfg.Server)
	if st != nil {
		defer st.Close()
	}

	engineOpts := []rating.Option{}
	if cache := openLeaderboardCache(cfg.Server); cache != nil {
		engineOpts = append(engineOpts, rating.WithCache(cache))
	}
	period, err := rating.ParsePeriodLength(cfg.Rating.Period)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid rating period")
	}
	engine := rating.NewEngine(repo, rating.Config{
		KFactor:          cfg.Rating.KFactor,
		DefaultRating:    cfg.Rating.DefaultRating,
		Period:           period,
		RetentionPeriods: cfg.Rating.RetentionPeriods,
	}, engineOpts...)
	engine.StartRetention(ctx, ms(cfg.Rating.PruneIntervalMS))

	coord := coordinator.New(coordinator.Options{
		ReconnectGrace:  ms(cfg.Coordinator.ReconnectGraceMS),
		LivenessTimeout: ms(cfg.Coordinator.LivenessTimeoutMS),
		EventLogSize:    cfg.Coordinator.SessionEventLogSize,
		Recorder:        engine,
	})
	coord.StartJanitor(ctx, ms(cfg.Coordinator.JanitorIntervalMS))

	verifier := auth.NewVerifier(cfg.Server.AuthJWTSecret, cfg.Server.AuthJWTIssuer)
	if !verifier.Enabled() {
		log.Warn().Msg("auth_disabled_all_connections_are_guests")
	}
	wsServer := ws.NewServer(coord, verifier, ws.Options{
		SendBuffer:   cfg.Coordinator.WSSendBuffer,
		PingInterval: ms(cfg.Coordinator.WSPingIntervalMS),
	})

	pushCfg, err := resultpush.ConfigFromServer(cfg.Server)
	if err != nil {
		log.Fatal().Err(err).Msg("result push config failed")
	}
	pushManager := resultpush.NewManager(pushCfg)
	if err := pushManager.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("result push start failed")
	}
	if pushCfg.Enabled {
		coord.SetSessionObserver(pushManager)
	}

	publicSvc := public.NewService(coord, engine)
	deps := httptransport.Deps{
		Config:      cfg.Server,
		Coordinator: coord,
		Ratings:     engine,
		Public:      publicSvc,
		MCP:         mcpserver.New(publicSvc),
		WS:          wsServer.HandleWS,
		Connections: wsServer.ConnectionCount,
	}
	if st != nil {
		deps.DB = st
	}
	r := httptransport.NewRouter(deps)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("http_listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server_stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown_started")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	wsServer.CloseAll()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http_shutdown_failed")
	}
	log.Info().Msg("shutdown_complete")
}

// openRepository returns the Postgres-backed repository when a DSN is set and
// the in-memory one otherwise.
func openRepository(ctx context.Context, cfg config.ServerConfig) (rating.Repository, *store.Store) {
	if cfg.PostgresDSN == "" {
		log.Warn().Msg("postgres_dsn_empty_using_memory_ratings")
		return rating.NewMemoryRepository(), nil
	}
	st, err := store.New(cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	if err := st.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}
	return st, st
}

func openLeaderboardCache(cfg config.ServerConfig) rating.LeaderboardCache {
	if cfg.RedisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid redis url")
	}
	client := redis.NewClient(opts)
	log.Info().Str("addr", opts.Addr).Msg("leaderboard_cache_enabled")
	return rating.NewRedisCache(client, "matchhub:leaderboard", ms(cfg.LeaderboardCacheTTLMS))
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
