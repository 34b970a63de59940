package integration_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-booking-engine/internal/app"
	"github.com/metinatakli/cinema-booking-engine/internal/cinema"
	"github.com/metinatakli/cinema-booking-engine/internal/clock"
	"github.com/metinatakli/cinema-booking-engine/internal/lock"
	"github.com/metinatakli/cinema-booking-engine/internal/mailer"
	"github.com/metinatakli/cinema-booking-engine/internal/payment"
	"github.com/metinatakli/cinema-booking-engine/internal/repository"
	"github.com/redis/go-redis/v9"
)

type TestApp struct {
	App      *app.Application
	Cinema   *cinema.Cinema
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Store    *repository.PostgresStore
	Payments *payment.SimulatedGateway
	Mailer   *mailer.MockMailer
}

func newTestApp(cfg app.Config) (*TestApp, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	mailer := mailer.NewMockMailer()

	db, err := app.NewDatabasePool(cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := app.NewRedisClient(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	store := repository.NewPostgresStore(db)
	payments := payment.NewSimulatedGateway(1, nil)

	c, err := cinema.New(cinema.Config{
		Store:    store,
		Payments: payments,
		Locker:   lock.NewRedisLocker(redisClient, cfg.Redis.LockTTL, logger),
		Clock:    clock.NewSystem(),
		Logger:   logger,
		Notifier: cinema.NewNotifier(nil, mailer, nil, logger),
	})
	if err != nil {
		db.Close()
		redisClient.Close()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Load(ctx); err != nil {
		db.Close()
		redisClient.Close()
		return nil, err
	}

	return &TestApp{
		App:      app.NewApp(cfg, logger, c),
		Cinema:   c,
		DB:       db,
		Redis:    redisClient,
		Store:    store,
		Payments: payments,
		Mailer:   mailer,
	}, nil
}

func (a *TestApp) Close() {
	a.Cinema.Close()
	a.Redis.Close()
	a.DB.Close()
}
