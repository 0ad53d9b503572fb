package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectoinject/ectocontainer"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/repositories/client"
	"github.com/Ramsey-B/fern/internal/repositories/merge"
	"github.com/Ramsey-B/fern/internal/repositories/relationship"
	"github.com/Ramsey-B/fern/internal/services/dedup"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/inject"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/routes/batch"
	"github.com/Ramsey-B/fern/pkg/routes/duplicates"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	"github.com/Ramsey-B/fern/pkg/startup"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/tracing/exporters"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, sync, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("fern stopped with an error")
		sync()
		os.Exit(1)
	}
}

// resources are the external connections opened at startup
type resources struct {
	db       *database.DatabaseInstance
	redis    *redis.Client
	producer *kafka.Producer
	graph    *graph.Client
}

func registerDependencies(st *startup.Startup, cfg *config.Config, logger ectologger.Logger, res *resources) {
	st.AddDependency(startup.Func{
		Name: "postgres",
		StartFunc: func(ctx context.Context) error {
			db, err := database.Connect(ctx, database.Config{
				Driver:          cfg.DatabaseDriver,
				Host:            cfg.DatabaseHost,
				Port:            cfg.DatabasePort,
				User:            cfg.DatabaseUserName,
				Password:        cfg.DatabasePassword,
				Name:            cfg.DatabaseName,
				SSLMode:         cfg.DatabaseSSLMode,
				MaxOpenConns:    cfg.DatabaseMaxOpenConns,
				MaxIdleConns:    cfg.DatabaseMaxIdleConns,
				ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
			}, logger)
			if err != nil {
				return err
			}
			res.db = db
			return nil
		},
		StopFunc: func(context.Context) error {
			return res.db.Close()
		},
	})

	st.AddDependency(startup.Func{
		Name:     "migrations",
		Requires: []string{"postgres"},
		StartFunc: func(context.Context) error {
			migrations := database.NewMigrationService(logger, &database.MigrationConfig{
				MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
				Version:             uint(cfg.DatabaseMigrationVersion),
				Force:               cfg.DatabaseMigrationForce,
				AutoRollback:        cfg.DatabaseMigrationAutoRollback,
			})
			return migrations.MigratePostgres(res.db, cfg.DatabaseName)
		},
	})

	if cfg.RedisEnabled {
		st.AddDependency(startup.Func{
			Name: "redis",
			StartFunc: func(ctx context.Context) error {
				client, err := redis.NewClient(ctx, redis.Config{
					Host:     cfg.RedisHost,
					Port:     cfg.RedisPort,
					Password: cfg.RedisPassword,
					DB:       cfg.RedisDB,
				}, logger)
				if err != nil {
					return err
				}
				res.redis = client
				return nil
			},
			StopFunc: func(context.Context) error {
				return res.redis.Close()
			},
		})
	}

	if cfg.KafkaEnabled {
		st.AddDependency(startup.Func{
			Name: "kafka",
			StartFunc: func(context.Context) error {
				res.producer = kafka.NewProducer(kafka.ProducerConfig{
					Brokers:      cfg.KafkaBrokers,
					Topic:        cfg.KafkaOutputTopic,
					BatchSize:    cfg.KafkaBatchSize,
					BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
					RequiredAcks: cfg.KafkaRequiredAcks,
					Compression:  cfg.KafkaCompression,
				}, logger)
				return nil
			},
			StopFunc: func(context.Context) error {
				return res.producer.Close()
			},
		})
	}

	if cfg.GraphEnabled {
		st.AddDependency(startup.Func{
			Name: "graph",
			StartFunc: func(ctx context.Context) error {
				client, err := graph.NewClient(graph.Config{
					Host:     cfg.GraphDBHost,
					Port:     cfg.GraphDBPort,
					Username: cfg.GraphDBUser,
					Password: cfg.GraphDBPassword,
					Database: cfg.GraphDBName,
				}, logger)
				if err != nil {
					return err
				}
				if err := client.VerifyConnectivity(ctx); err != nil {
					_ = client.Close(ctx)
					return err
				}
				res.graph = client
				return nil
			},
			StopFunc: func(ctx context.Context) error {
				return res.graph.Close(ctx)
			},
		})
	}
}

func newService(cfg *config.Config, logger ectologger.Logger, res *resources) (*dedup.Service, error) {
	strategy, err := matching.ParseStrategy(cfg.DetectionStrategy)
	if err != nil {
		return nil, err
	}

	merges := merge.NewRepository(res.db, logger)
	deps := dedup.Dependencies{
		Clients:       client.NewRepository(res.db, logger),
		Relationships: relationship.NewRepository(res.db, logger),
		Executor:      merges,
		Audit:         merges,
	}
	if res.redis != nil {
		deps.Sessions = redis.NewSessionStore(res.redis, cfg.BatchSessionTTL)
		deps.Locker = redis.NewLocker(res.redis, "", cfg.BatchLockTTL, cfg.BatchLockWait)
	}
	if res.producer != nil {
		deps.Emitter = events.NewEmitter(res.producer, logger)
	}
	if res.graph != nil {
		deps.Lineage = graph.NewLineageService(res.graph, logger)
	}

	return dedup.NewService(deps, dedup.Config{
		Strategy:             strategy,
		PhoneCountryCode:     cfg.PhoneCountryCode,
		PhoneNationalLengths: cfg.PhoneNationalLengths,
		MaxClients:           cfg.MaxClientsPerDetect,
	}, logger), nil
}

func newChecker(res *resources) *health.Checker {
	checker := health.NewChecker(version)
	checker.AddCheck("postgres", res.db.PingContext)
	if res.redis != nil {
		checker.AddCheck("redis", res.redis.Ping)
	}
	if res.graph != nil {
		checker.AddOptionalCheck("graph", res.graph.VerifyConnectivity)
	}
	return checker
}

// newContainer registers what route handlers resolve per request
func newContainer(cfg *config.Config, logger ectologger.Logger, service *dedup.Service) (ectocontainer.DIContainer, error) {
	container, err := inject.NewContainer(cfg.AppName, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create dependency container: %w", err)
	}
	if err := ectoinject.RegisterInstance[*dedup.Service](container, service); err != nil {
		return nil, err
	}
	if err := ectoinject.RegisterInstance[ectologger.Logger](container, logger); err != nil {
		return nil, err
	}
	return container, nil
}

func newEcho(cfg *config.Config, logger ectologger.Logger, container ectocontainer.DIContainer, checker *health.Checker) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
		AllowHeaders: []string{echo.HeaderContentType, middleware.HeaderTenantID, middleware.HeaderOperator, echo.HeaderXRequestID},
	}))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Container(container.GetContainerID()))
	e.Use(middleware.Logger(logger))

	checker.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1", middleware.RequireTenant())
	duplicates.Register(api.Group("/duplicates"))
	batch.Register(api.Group("/batch"))

	return e
}

func run(ctx context.Context, cfg *config.Config, logger ectologger.Logger) error {
	if cfg.OTLPEnabled {
		exporter, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
			Endpoint: cfg.OTLPEndpoint,
			Protocol: cfg.OTLPProtocol,
			Insecure: cfg.OTLPInsecure,
		})
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		provider := tracing.NewProvider(cfg.AppName, exporter)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = provider.Shutdown(shutdownCtx)
		}()
	}

	res := &resources{}
	st := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	registerDependencies(st, cfg, logger, res)
	if err := st.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()
		_ = st.Stop(stopCtx)
	}()

	service, err := newService(cfg, logger, res)
	if err != nil {
		return err
	}
	container, err := newContainer(cfg, logger, service)
	if err != nil {
		return err
	}
	checker := newChecker(res)
	e := newEcho(cfg, logger, container, checker)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           e,
		ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Infof("%s listening on %s", cfg.AppName, server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	checker.SetReady(true)

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	checker.SetReady(false)
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
