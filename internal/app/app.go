package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/metinatakli/cinema-booking-engine/internal/cinema"
	"github.com/metinatakli/cinema-booking-engine/internal/clock"
	"github.com/metinatakli/cinema-booking-engine/internal/domain"
	"github.com/metinatakli/cinema-booking-engine/internal/events"
	"github.com/metinatakli/cinema-booking-engine/internal/lock"
	"github.com/metinatakli/cinema-booking-engine/internal/logging"
	"github.com/metinatakli/cinema-booking-engine/internal/mailer"
	appmiddleware "github.com/metinatakli/cinema-booking-engine/internal/middleware"
	"github.com/metinatakli/cinema-booking-engine/internal/payment"
	"github.com/metinatakli/cinema-booking-engine/internal/report"
	"github.com/metinatakli/cinema-booking-engine/internal/repository"
	appvalidator "github.com/metinatakli/cinema-booking-engine/internal/validator"
	"github.com/metinatakli/cinema-booking-engine/internal/vcs"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/riandyrn/otelchi"
	"github.com/stripe/stripe-go/v82"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"golang.org/x/sync/errgroup"
)

const serviceName = "cinema-booking-api"

var (
	version = vcs.Version()
)

type Application struct {
	config    Config
	logger    *slog.Logger
	validator *validator.Validate
	cinema    *cinema.Cinema
}

type Config struct {
	Port    int
	Env     string
	Storage string

	DB struct {
		DSN          string
		MaxOpenConns int
		MaxIdleTime  time.Duration
	}
	Redis struct {
		URL          string
		MaxOpenConns int
		MaxIdleConns int
		MaxIdleTime  time.Duration
		LockTTL      time.Duration
	}
	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
		Sender   string
	}
	Payment struct {
		Provider    string
		SuccessRate float64
	}
	Stripe struct {
		SecretKey     string
		Currency      string
		PaymentMethod string
	}
	AMQP struct {
		URL   string
		Queue string
	}

	ReportDir        string
	OtelCollectorUrl string
}

func NewApp(cfg Config, logger *slog.Logger, c *cinema.Cinema) *Application {
	return &Application{
		config:    cfg,
		logger:    logger,
		validator: appvalidator.NewValidator(),
		cinema:    c,
	}
}

// Run loads .env (if present), parses flags and serves until SIGINT or
// SIGTERM.
func Run() error {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	var cfg Config

	flag.IntVar(&cfg.Port, "port", envInt("PORT", 3000), "server port")
	flag.StringVar(&cfg.Env, "env", envString("ENV", "dev"), "Environment (dev|staging|prod)")
	flag.StringVar(&cfg.Storage, "storage", envString("STORAGE", "postgres"), "Persistence backend (postgres|memory)")

	flag.StringVar(&cfg.DB.DSN, "db-dsn", os.Getenv("DB_DSN"), "PostgreSQL DSN")
	flag.IntVar(&cfg.DB.MaxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.DurationVar(&cfg.DB.MaxIdleTime, "db-max-idle-time", 15*time.Minute, "PostgreSQL max idle time for connections")

	flag.StringVar(&cfg.Redis.URL, "redis-url", os.Getenv("REDIS_URL"), "Redis address; empty keeps coupon locks in process")
	flag.IntVar(&cfg.Redis.MaxOpenConns, "redis-max-open-conns", 25, "Redis max open connections")
	flag.IntVar(&cfg.Redis.MaxIdleConns, "redis-max-idle-conns", 10, "Redis max idle connections")
	flag.DurationVar(&cfg.Redis.MaxIdleTime, "redis-max-idle-time", 2*time.Minute, "Redis max idle time for connections")
	flag.DurationVar(&cfg.Redis.LockTTL, "redis-lock-ttl", 30*time.Second, "Expiry of a coupon lock held in Redis")

	flag.StringVar(&cfg.SMTP.Host, "smtp-host", os.Getenv("SMTP_HOST"), "SMTP host; empty disables confirmation emails")
	flag.IntVar(&cfg.SMTP.Port, "smtp-port", envInt("SMTP_PORT", 2525), "SMTP port")
	flag.StringVar(&cfg.SMTP.Username, "smtp-username", os.Getenv("SMTP_USERNAME"), "SMTP username")
	flag.StringVar(&cfg.SMTP.Password, "smtp-password", os.Getenv("SMTP_PASSWORD"), "SMTP password")
	flag.StringVar(&cfg.SMTP.Sender, "smtp-sender", envString("SMTP_SENDER", "Cinema <no-reply@cinema.local>"), "SMTP sender")

	flag.StringVar(&cfg.Payment.Provider, "payment-provider", envString("PAYMENT_PROVIDER", "simulated"), "Payment gateway (stripe|simulated)")
	flag.Float64Var(&cfg.Payment.SuccessRate, "payment-success-rate", 0.9, "Approval probability of the simulated gateway")

	flag.StringVar(&cfg.Stripe.SecretKey, "stripe-key", os.Getenv("STRIPE_KEY"), "Stripe secret key")
	flag.StringVar(&cfg.Stripe.Currency, "stripe-currency", envString("STRIPE_CURRENCY", "eur"), "Currency charged through Stripe")
	flag.StringVar(&cfg.Stripe.PaymentMethod, "stripe-payment-method", envString("STRIPE_PAYMENT_METHOD", "pm_card_visa"), "Stripe payment method used to confirm intents")

	flag.StringVar(&cfg.AMQP.URL, "amqp-url", os.Getenv("AMQP_URL"), "RabbitMQ URL; empty disables confirmation events")
	flag.StringVar(&cfg.AMQP.Queue, "amqp-queue", events.ReservationConfirmedQueue, "Queue receiving confirmation events")

	flag.StringVar(&cfg.ReportDir, "report-dir", envString("REPORT_DIR", "reports"), "Directory receipts are written to")
	flag.StringVar(&cfg.OtelCollectorUrl, "otel-collector-url", os.Getenv("OTEL_COLLECTOR_URL"), "OpenTelemetry collector gRPC endpoint")

	displayVersion := flag.Bool("version", false, "Display version and exit")

	flag.Parse()

	if *displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	app := &Application{config: cfg, logger: logger, validator: appvalidator.NewValidator()}

	shutdownTelemetry, err := app.InitTelemetry()
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	if cfg.OtelCollectorUrl != "" {
		app.logger = slog.New(logging.NewFanout(logger.Handler(), otelslog.NewHandler(serviceName)))
	}

	c, cleanup, err := app.newCinema()
	if err != nil {
		return err
	}
	defer cleanup()

	app.cinema = c

	return app.run()
}

// newCinema builds every backend the configuration asks for and loads the
// cinema state. cleanup releases them in reverse order.
func (app *Application) newCinema() (*cinema.Cinema, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*cinema.Cinema, func(), error) {
		cleanup()
		return nil, nil, err
	}

	var store domain.PersistenceGateway
	switch app.config.Storage {
	case "memory":
		store = repository.NewMemoryStore()
	case "postgres":
		db, err := NewDatabasePool(app.config)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, db.Close)
		store = repository.NewPostgresStore(db)
	default:
		return fail(fmt.Errorf("unknown storage %q", app.config.Storage))
	}

	var locker domain.Locker = lock.NewKeyedMutex()
	if app.config.Redis.URL != "" {
		rdb, err := NewRedisClient(app.config)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { rdb.Close() })
		locker = lock.NewRedisLocker(rdb, app.config.Redis.LockTTL, app.logger)
	}

	payments, err := app.newPaymentGateway()
	if err != nil {
		return fail(err)
	}

	var m mailer.Mailer
	if app.config.SMTP.Host != "" {
		m = mailer.NewSMTPMailer(app.config.SMTP.Host, app.config.SMTP.Port, app.config.SMTP.Username, app.config.SMTP.Password, app.config.SMTP.Sender)
	}

	var publisher domain.EventPublisher
	if app.config.AMQP.URL != "" {
		p, err := events.NewAMQPPublisher(app.config.AMQP.URL, app.config.AMQP.Queue)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() {
			if err := p.Close(); err != nil {
				app.logger.Error("failed to close event publisher", "error", err)
			}
		})
		publisher = p
	}

	c, err := cinema.New(cinema.Config{
		Store:    store,
		Payments: payments,
		Locker:   locker,
		Clock:    clock.NewSystem(),
		Logger:   app.logger,
		Notifier: cinema.NewNotifier(report.NewFileGenerator(app.config.ReportDir), m, publisher, app.logger),
	})
	if err != nil {
		return fail(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.Load(ctx); err != nil {
		return fail(err)
	}

	return c, cleanup, nil
}

func (app *Application) newPaymentGateway() (domain.PaymentGateway, error) {
	switch app.config.Payment.Provider {
	case "stripe":
		if app.config.Stripe.SecretKey == "" {
			return nil, errors.New("stripe payment provider requires -stripe-key")
		}
		stripe.Key = app.config.Stripe.SecretKey
		return payment.NewStripeGateway(app.config.Stripe.Currency, app.config.Stripe.PaymentMethod), nil
	case "simulated":
		return payment.NewSimulatedGateway(app.config.Payment.SuccessRate, rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", app.config.Payment.Provider)
	}
}

func NewRedisClient(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.URL,
		MaxIdleConns:    cfg.Redis.MaxIdleConns,
		MaxActiveConns:  cfg.Redis.MaxOpenConns,
		ConnMaxIdleTime: cfg.Redis.MaxIdleTime,
	})

	if err := errors.Join(redisotel.InstrumentTracing(rdb), redisotel.InstrumentMetrics(rdb)); err != nil {
		rdb.Close()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := rdb.Ping(ctx).Err()
	if err != nil {
		rdb.Close()
		return nil, err
	}

	return rdb, nil
}

func NewDatabasePool(cfg Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.DB.MaxIdleTime
	config.MaxConns = int32(cfg.DB.MaxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (app *Application) run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env)

		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		app.logger.Info("shutting down server", "addr", srv.Addr)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	// Let in-flight receipts, emails and events finish.
	app.cinema.Close()

	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(appmiddleware.NotFoundHandler)
	r.MethodNotAllowed(appmiddleware.MethodNotAllowedHandler)

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(appmiddleware.RecoverPanic(app.logger))
	r.Use(app.requestLogger)

	r.Route("/v1", func(r chi.Router) {
		r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))

		r.Get("/healthcheck", app.GetHealth)

		r.Post("/rooms", app.CreateRoom)
		r.Get("/rooms/{id}", app.GetRoom)

		r.Get("/movies", app.GetMovies)
		r.Post("/movies", app.CreateMovie)
		r.Get("/movies/{id}", app.GetMovie)
		r.Get("/movies/{id}/projections", app.GetMovieProjections)

		r.Get("/projections", app.GetSchedule)
		r.Post("/projections", app.CreateProjection)
		r.Delete("/projections/{id}", app.DeleteProjection)
		r.Get("/projections/{id}/seats", app.GetSeatMap)
		r.Get("/projections/{id}/seats/{row}/{col}", app.GetSeatOccupation)

		r.Post("/reservations", app.CreateReservation)
		r.Route("/reservations/{id}", func(r chi.Router) {
			r.Get("/", app.GetReservation)
			r.Delete("/", app.AbandonReservation)
			r.Post("/seats", app.AddSeat)
			r.Delete("/seats/{row}/{col}", app.RemoveSeat)
			r.Put("/purchaser", app.SetPurchaser)
			r.Put("/payment-card", app.SetPaymentCard)
			r.Put("/discount-inputs", app.SetDiscountInputs)
			r.Put("/coupon", app.SetCoupon)
			r.Get("/quote", app.GetQuote)
			r.Post("/commit", app.CommitReservation)
			r.Get("/record", app.GetReservationRecord)
			r.Post("/cancel", app.CancelReservation)
		})

		r.Get("/discounts/active", app.GetActiveDiscount)
		r.Put("/discounts/active", app.SetDiscountStrategy)
		r.Put("/discounts/{type}", app.ConfigureDiscount)

		r.Post("/coupons", app.CreateCoupon)
		r.Get("/coupons/{code}", app.GetCoupon)
	})

	return r
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}

	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}

	return v
}
