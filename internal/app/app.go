package app

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hallvik/quizrelay/internal/clock"
	"github.com/hallvik/quizrelay/internal/config"
	"github.com/hallvik/quizrelay/internal/game"
	"github.com/hallvik/quizrelay/internal/handler"
	"github.com/hallvik/quizrelay/internal/logger"
	"github.com/hallvik/quizrelay/internal/service"
	"github.com/hallvik/quizrelay/internal/storage"
	"github.com/hallvik/quizrelay/internal/ws"
)

// App wires the full process: storage, the room directory, the
// realtime connection adapter, and the HTTP control plane, following
// the teacher's New/Run/Close shape.
type App struct {
	cfg   Config
	log   *zap.Logger
	db    *pgxpool.Pool
	redis *redis.Client
	srv   *http.Server
}

// New builds the process from a loaded Config. Redis is optional: when
// Redis.Addr is empty the Quiz Bank reads straight through to Postgres.
func New(cfg Config) (*App, error) {
	l, err := logger.New(logger.Config{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := pgxpool.New(ctx, cfg.Postgres.URL)
	if err != nil {
		_ = l.Sync()
		return nil, err
	}

	qs := storage.NewPostgresQuestionStore(db)

	var bank storage.QuizBank = storage.NewQuizBank(qs)

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cacheTTL := config.Duration(cfg.QuizBank.CacheTTL, 10*time.Minute)
		bank = storage.NewRedisQuizBank(rdb, bank, cacheTTL)
	}

	dir := game.NewDirectory(game.DirectoryConfig{
		RoomConfig: game.RoomConfig{
			TTL:            config.Duration(cfg.Room.TTL, time.Hour),
			OrganizerGrace: config.Duration(cfg.Room.OrganizerGrace, 2*time.Minute),
			MaxPlayers:     cfg.Room.MaxPlayers,
		},
		MaxRooms: cfg.Room.MaxRooms,
	}, clock.NewReal(), l)

	hb := ws.DefaultHeartbeat
	if cfg.Realtime.HeartbeatInterval != "" {
		hb.Interval = config.Duration(cfg.Realtime.HeartbeatInterval, hb.Interval)
	}
	queueSize := cfg.Realtime.OutboundQueueSize
	if queueSize <= 0 {
		queueSize = 64
	}
	wsServer := ws.NewServer(dir, l, hb, queueSize, cfg.Server.AllowedOrigins)

	gameSvc := service.NewGameService(wsServer, dir, bank)
	adminSvc := service.NewAdminService(qs)

	mux := http.NewServeMux()
	handler.RegisterHandlers(mux, gameSvc, wsServer, l)
	handler.RegisterAdminHandlers(mux, adminSvc, cfg.Admin.Token, l)

	addr := cfg.Server.Addr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	return &App{cfg: cfg, log: l, db: db, redis: rdb, srv: srv}, nil
}

func (a *App) Run() error {
	a.log.Info("server started",
		zap.String("addr", a.srv.Addr),
		zap.String("log_level", a.cfg.Log.Level),
	)
	return a.srv.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	return a.srv.Shutdown(ctx)
}

func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}
