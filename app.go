package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tripweaver/auth"
	"tripweaver/autosave"
	"tripweaver/comments"
	"tripweaver/config"
	"tripweaver/db"
	"tripweaver/export"
	"tripweaver/generator"
	"tripweaver/itinerary"
	"tripweaver/live"
	"tripweaver/maps"
	"tripweaver/rdx"
	"tripweaver/routes"
	"tripweaver/share"
)

type app struct {
	deps    routes.Deps
	mongo   *db.Collections
	rdb     *redis.Client
	svc     *itinerary.Service
	hub     *live.Hub
	flusher *share.Flusher
	logger  *zap.Logger
}

type backends struct {
	itineraries itinerary.Store
	shares      share.Store
	comments    comments.Store
	users       auth.UserStore
	sessions    auth.SessionStore
	views       share.ViewCounter
}

// connectBackends opens MongoDB and Redis. In development an unreachable
// backend is replaced by its in-memory store.
func connectBackends(ctx context.Context, cfg config.Config, logger *zap.Logger) (*db.Collections, *redis.Client, backends, error) {
	var b backends

	mongo, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	switch {
	case err == nil:
		mongo.EnsureIndexes(ctx, logger)
		b.itineraries = itinerary.NewMongoStore(mongo.Itineraries)
		b.shares = share.NewMongoStore(mongo.Shares)
		b.comments = comments.NewMongoStore(mongo.Comments)
		b.users = auth.NewMongoUserStore(mongo.Users)
	case cfg.Development():
		logger.Warn("MongoDB unavailable; using in-memory stores", zap.Error(err))
		b.itineraries = itinerary.NewMemoryStore()
		b.shares = share.NewMemoryStore()
		b.comments = comments.NewMemoryStore()
		b.users = auth.NewMemoryUserStore()
	default:
		return nil, nil, b, err
	}

	rdb, err := rdx.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
	switch {
	case err == nil:
		b.sessions = auth.NewRedisSessionStore(rdb)
		b.views = share.NewRedisViewCounter(rdb)
	case cfg.Development():
		logger.Warn("Redis unavailable; using in-memory sessions and counters", zap.Error(err))
		b.sessions = auth.NewMemorySessionStore()
		b.views = share.NewMemoryViewCounter()
	default:
		if mongo != nil {
			_ = mongo.Disconnect(context.Background())
		}
		return nil, nil, b, err
	}
	return mongo, rdb, b, nil
}

func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	mongo, rdb, b, err := connectBackends(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	client, err := generator.NewClientFromConfig(ctx, generator.LLMSettings{
		Provider: cfg.LLMProvider,
		Model:    cfg.LLMModel(),
		APIKey:   cfg.LLMKey(),
		BaseURL:  cfg.OpenAIBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("completion client: %w", err)
	}
	if client == nil {
		logger.Warn("no completion API key configured; generation serves demo itineraries")
	}
	gen := generator.New(client, logger.Named("generator"))

	svc := itinerary.NewService(b.itineraries, b.shares, logger.Named("itinerary"), autosave.WithDelay(cfg.AutosaveDelay))
	svc.StartSweeper(time.Minute, cfg.EditIdleTimeout)

	hub := live.NewHub()
	go hub.Run()
	fanout := live.NewFanout(hub, rdb, logger.Named("live"))
	svc.SetNotifier(fanout)
	go fanout.Run(ctx)

	flusher := share.NewFlusher(b.views, b.shares, logger.Named("share"))
	if err := flusher.Start(share.DefaultFlushSpec); err != nil {
		return nil, fmt.Errorf("view flusher: %w", err)
	}

	authSvc := auth.NewService(b.users, b.sessions, cfg.JWTSecret, cfg.TokenTTL, logger.Named("auth"))

	var mailer export.Mailer
	if cfg.SMTPHost != "" {
		mailer = export.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	}

	mapLoader := maps.NewLoader(maps.Static(cfg.MapsScriptURL, cfg.MapsAPIKey))
	go func() {
		if _, err := mapLoader.Load(ctx); err != nil {
			logger.Warn("maps configuration unavailable", zap.Error(err))
		}
	}()

	return &app{
		deps: routes.Deps{
			Authenticator: authSvc.Authenticator(),
			Auth:          auth.NewHandlers(authSvc, logger),
			Generator:     generator.NewHandlers(gen, b.itineraries, logger),
			Itineraries:   itinerary.NewHandlers(svc, logger),
			Export:        export.NewHandlers(svc, mailer, cfg.PublicBaseURL, logger),
			Shares:        share.NewHandlers(b.shares, b.views, svc, logger),
			Comments:      comments.NewHandlers(b.comments, svc, logger),
			Live:          live.Handler(svc, hub, logger),
			MapConfig:     maps.GetMapConfig(mapLoader, logger),
		},
		mongo:   mongo,
		rdb:     rdb,
		svc:     svc,
		hub:     hub,
		flusher: flusher,
		logger:  logger,
	}, nil
}

// close flushes pending work and releases connections, in dependency order.
func (a *app) close(ctx context.Context) {
	a.svc.Shutdown()
	a.flusher.Stop(ctx)
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Warn("closing redis", zap.Error(err))
		}
	}
	if a.mongo != nil {
		if err := a.mongo.Disconnect(ctx); err != nil {
			a.logger.Warn("closing mongo", zap.Error(err))
		}
	}
}
