package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	_ "adventure-server-go/docs"
	"adventure-server-go/internal/core/providers/genai"
	"adventure-server-go/internal/core/providers/rest"
	"adventure-server-go/internal/domain/adventure"
	"adventure-server-go/internal/domain/artifact"
	domainastronomy "adventure-server-go/internal/domain/astronomy"
	"adventure-server-go/internal/domain/eventbus"
	"adventure-server-go/internal/domain/fish"
	"adventure-server-go/internal/domain/geo"
	domainidentify "adventure-server-go/internal/domain/identify"
	domainimage "adventure-server-go/internal/domain/image"
	"adventure-server-go/internal/domain/upload"
	platformconfig "adventure-server-go/internal/platform/config"
	platformerrors "adventure-server-go/internal/platform/errors"
	platformlogging "adventure-server-go/internal/platform/logging"
	platformobservability "adventure-server-go/internal/platform/observability"
	platformstorage "adventure-server-go/internal/platform/storage"
	httptransport "adventure-server-go/internal/transport/http"
	httpastronomy "adventure-server-go/internal/transport/http/astronomy"
	httpfishy "adventure-server-go/internal/transport/http/fishy"
	httphealth "adventure-server-go/internal/transport/http/health"
	httpidentify "adventure-server-go/internal/transport/http/identify"
	httpmaps "adventure-server-go/internal/transport/http/maps"
	httptrip "adventure-server-go/internal/transport/http/trip"
	"adventure-server-go/internal/utils"
)

const (
	tagBootstrap = "BOOT"
	eventWorkers = 4
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	config                *platformconfig.Config
	configPath            string
	logProvider           *platformlogging.Logger
	logger                *utils.Logger
	slogger               *slog.Logger
	observabilityShutdown platformobservability.ShutdownFunc
	db                    *gorm.DB
	bus                   *eventbus.AsyncEventBus
	artifacts             *artifact.Manager
	capabilities          *capabilities
}

// capabilities holds the feature services built from configuration.
type capabilities struct {
	genai     *genai.Provider
	planner   *adventure.Planner
	photos    *domainimage.Pipeline
	spool     *upload.Spool
	identify  *domainidentify.Identifier
	fish      *fish.Service
	astronomy *domainastronomy.Service
	locator   *domainastronomy.IPInfoLocator
	fallback  geo.Coordinate
}

// Run starts the server lifecycle: load configuration, build dependencies,
// serve until a signal arrives and shut down gracefully.
func Run(ctx context.Context) error {
	state := &appState{}

	steps := InitGraph()
	if err := executeInitSteps(ctx, steps, state); err != nil {
		state.close()
		return err
	}

	config := state.config
	logger := state.logger
	if config == nil || logger == nil || state.capabilities == nil || state.artifacts == nil {
		state.close()
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"config/logger/capabilities not initialised",
		)
	}
	defer state.close()

	logBootstrapGraph(steps, logger)

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if err := startServices(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	if err := waitForShutdown(signalCtx, groupCtx, cancel, logger, group); err != nil {
		return err
	}

	logger.InfoTag(tagBootstrap, "server stopped cleanly")
	return nil
}

func logBootstrapGraph(steps []initStep, logger *utils.Logger) {
	if logger == nil {
		return
	}
	logger.InfoTag(tagBootstrap, "init dependency graph")
	for _, step := range steps {
		deps := "-"
		if len(step.DependsOn) > 0 {
			deps = strings.Join(step.DependsOn, ", ")
		}
		logger.InfoTag(tagBootstrap, "%s (%s) <- %s", step.ID, step.Title, deps)
	}
	logger.InfoTag(tagBootstrap, "starting services")
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init-provider",
			Title:     "Initialise logging provider",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "observability:setup-hooks",
			Title:     "Setup observability hooks",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   setupObservabilityStep,
		},
		{
			ID:        "storage:init-database",
			Title:     "Initialise database",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindStorage,
			Execute:   initDatabaseStep,
		},
		{
			ID:        "events:init-bus",
			Title:     "Start event bus",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initEventBusStep,
		},
		{
			ID:        "artifacts:init-manager",
			Title:     "Initialise artifact manager",
			DependsOn: []string{"storage:init-database", "events:init-bus"},
			Kind:      platformerrors.KindStorage,
			Execute:   initArtifactsStep,
		},
		{
			ID:        "capabilities:init",
			Title:     "Initialise feature capabilities",
			DependsOn: []string{"observability:setup-hooks", "artifacts:init-manager"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initCapabilitiesStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	loader := platformconfig.NewLoader()
	config, err := loader.Load()
	if err != nil {
		return err
	}
	state.config = config
	state.configPath = loader.Path()
	if state.configPath == "" {
		state.configPath = "defaults"
	}
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state == nil || state.config == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"logging:init-provider",
			"config not loaded",
		)
	}

	logProvider, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init-provider", "failed to initialize logging provider", err)
	}

	state.logProvider = logProvider
	state.logger = logProvider.Legacy()
	state.slogger = logProvider.Slog()
	utils.DefaultLogger = state.logger

	state.logger.InfoTag(tagBootstrap, "logging ready [%s] config=%s", state.config.Log.Level, state.configPath)
	return nil
}

func setupObservabilityStep(ctx context.Context, state *appState) error {
	if state == nil || state.logger == nil || state.config == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"observability:setup-hooks",
			"config/logger not initialised",
		)
	}

	cfg := platformobservability.Config{
		Enabled:     state.config.Metrics.Enabled,
		MetricsPath: state.config.Metrics.Path,
	}
	shutdown, err := platformobservability.Setup(ctx, cfg, state.slogger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "observability:setup-hooks", "failed to setup observability hooks", err)
	}
	state.observabilityShutdown = shutdown
	return nil
}

func initDatabaseStep(_ context.Context, state *appState) error {
	if !strings.EqualFold(state.config.Artifacts.Store.Type, artifact.DriverSQLite) {
		return nil
	}
	db, err := platformstorage.Open(state.config.Artifacts.Store.SQLite.DSN)
	if err != nil {
		return err
	}
	state.db = db
	return nil
}

func initEventBusStep(_ context.Context, state *appState) error {
	bus := eventbus.NewAsyncEventBus(eventWorkers)
	logger := state.logger
	bus.OnPanic(func(topic string, recovered any) {
		logger.ErrorTag("EVENT", "handler for %s panicked: %v", topic, recovered)
	})
	if err := eventbus.NewLogHandler(logger).Attach(bus); err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "events:init-bus", "failed to attach event handlers", err)
	}
	bus.Start()
	state.bus = bus
	return nil
}

func initArtifactsStep(_ context.Context, state *appState) error {
	storeCfg := state.config.Artifacts.Store
	driver := strings.ToLower(strings.TrimSpace(storeCfg.Type))
	if driver == "" {
		driver = artifact.DriverMemory
	}

	cfg := artifact.Config{Driver: driver}
	if driver == artifact.DriverRedis {
		cfg.Redis = &artifact.RedisConfig{
			Addr:     storeCfg.Redis.Addr,
			Username: storeCfg.Redis.Username,
			Password: storeCfg.Redis.Password,
			DB:       storeCfg.Redis.DB,
			Prefix:   storeCfg.Redis.Prefix,
		}
	}

	store, err := artifact.NewStore(cfg, artifact.Dependencies{SQLiteDB: state.db})
	if err != nil {
		return err
	}
	manager, err := artifact.NewManager(artifact.ManagerOptions{
		Store:  store,
		Dir:    state.config.Artifacts.Dir,
		TTL:    state.config.Artifacts.TTL,
		Bus:    state.bus,
		Logger: state.logger,
	})
	if err != nil {
		_ = store.Close(context.Background())
		return err
	}
	state.artifacts = manager
	state.logger.InfoTag(tagBootstrap, "artifact store ready [%s] dir=%s ttl=%s", driver, state.config.Artifacts.Dir, state.config.Artifacts.TTL)
	return nil
}

func initCapabilitiesStep(_ context.Context, state *appState) error {
	const op = "capabilities:init"
	if state == nil || state.config == nil || state.logger == nil || state.artifacts == nil || state.bus == nil {
		return platformerrors.New(platformerrors.KindBootstrap, op, "missing config/logger/artifacts/bus")
	}
	cfg := state.config
	logger := state.logger

	model, err := genai.NewProvider(genai.Config{
		Type:        cfg.GenAI.Type,
		BaseURL:     cfg.GenAI.BaseURL,
		APIKey:      cfg.GenAI.APIKey,
		Model:       cfg.GenAI.Model,
		VisionModel: cfg.GenAI.VisionModel,
		Temperature: cfg.GenAI.Temperature,
		MaxTokens:   cfg.GenAI.MaxTokens,
		Timeout:     cfg.GenAI.Timeout,
		Events:      state.bus,
	}, logger)
	if err != nil {
		return err
	}

	photos, err := domainimage.NewPipeline(domainimage.Options{
		Security: &cfg.Uploads.Security,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	spool, err := upload.NewSpool(upload.Options{
		Dir:     cfg.Uploads.Dir,
		MaxSize: cfg.Uploads.Security.MaxFileSize,
		Bus:     state.bus,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	fallback := geo.Coordinate{
		Latitude:  cfg.Geolocation.Fallback.Latitude,
		Longitude: cfg.Geolocation.Fallback.Longitude,
	}

	ipinfo := rest.New(rest.Config{Name: "ipinfo", Timeout: cfg.Geolocation.Timeout, Events: state.bus}, logger)
	charts := rest.New(rest.Config{Name: "astronomyapi", Timeout: cfg.Astronomy.Timeout, Events: state.bus}, logger)
	locator := domainastronomy.NewIPInfoLocator(ipinfo, cfg.Geolocation.BaseURL, cfg.Geolocation.APIKey, logger)
	astronomy := domainastronomy.NewService(domainastronomy.ServiceOptions{
		Locator: locator,
		Charts: domainastronomy.NewChartClient(charts, domainastronomy.ChartConfig{
			URL:       cfg.Astronomy.BaseURL,
			AppID:     cfg.Astronomy.AppID,
			AppSecret: cfg.Astronomy.AppSecret,
			Style:     cfg.Astronomy.Style,
		}, logger),
		Fallback: fallback,
		Logger:   logger,
	})

	state.capabilities = &capabilities{
		genai:     model,
		planner:   adventure.NewPlanner(model, state.artifacts, logger).WithRadiusSlack(cfg.Trip.RadiusSlack),
		photos:    photos,
		spool:     spool,
		identify:  domainidentify.NewIdentifier(model, photos, logger),
		fish:      fish.NewService(model, logger),
		astronomy: astronomy,
		locator:   locator,
		fallback:  fallback,
	}

	logger.InfoTag(tagBootstrap, "capabilities ready genai=%t astronomy=%t", model.Configured(), astronomy.Configured())
	if !cfg.AstronomyConfigured() {
		logger.WarnTag(tagBootstrap, "APP_ID/APP_SECRET not set; /api/astronomy will report a configuration error")
	}
	return nil
}

func startServices(state *appState, g *errgroup.Group, groupCtx context.Context) error {
	if err := startHTTPServer(state, g, groupCtx); err != nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "http:start-server", "failed to start HTTP server", err)
	}

	interval := state.config.Artifacts.Cleanup
	g.Go(func() error {
		return state.artifacts.Run(groupCtx, interval)
	})
	return nil
}

func newRouter(ctx context.Context, state *appState) (*httptransport.Router, error) {
	config := state.config
	logger := state.logger
	caps := state.capabilities

	router, err := httptransport.Build(httptransport.Options{
		Config:     config,
		Logger:     logger,
		StaticRoot: config.Web.StaticDir,
	})
	if err != nil {
		return nil, err
	}

	tripService, err := httptrip.NewService(caps.planner, httptrip.Options{
		DefaultRadiusMiles: config.Trip.DefaultRadiusMiles,
		MaxRadiusMiles:     config.Trip.MaxRadiusMiles,
		MapPrefix:          "/maps/",
	}, logger)
	if err != nil {
		return nil, err
	}
	identifyService, err := httpidentify.NewService(caps.identify, caps.spool, logger)
	if err != nil {
		return nil, err
	}
	fishService, err := httpfishy.NewService(caps.fish, caps.fallback, logger)
	if err != nil {
		return nil, err
	}
	astronomyService, err := httpastronomy.NewService(caps.astronomy, logger)
	if err != nil {
		return nil, err
	}
	healthService := httphealth.NewService(map[string]httphealth.Capability{
		"genai":       caps.genai,
		"astronomy":   caps.astronomy,
		"geolocation": caps.locator,
	}, state.artifacts, logger).WithImages(caps.photos)

	tripService.Register(ctx, router.API)
	identifyService.Register(ctx, router.API)
	fishService.Register(ctx, router.API)
	astronomyService.Register(ctx, router.API)
	healthService.Register(ctx, router.API)
	httpmaps.NewService(state.artifacts, logger).Register(ctx, router.Engine)

	return router, nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) error {
	config := state.config
	logger := state.logger

	router, err := newRouter(groupCtx, state)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              config.Server.IP + ":" + strconv.Itoa(config.Server.Port),
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.InfoTag(tagBootstrap, "HTTP server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag(tagBootstrap, "HTTP server failed: %v", err)
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		logger.InfoTag(tagBootstrap, "shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.ErrorTag(tagBootstrap, "HTTP server shutdown failed: %v", err)
			return err
		}
		logger.InfoTag(tagBootstrap, "HTTP server stopped")
		return nil
	})

	return nil
}

// waitForShutdown returns once a signal arrives or any service exits, so a
// listener that fails to bind stops the process instead of leaving it idle.
func waitForShutdown(signalCtx, groupCtx context.Context, cancel context.CancelFunc, logger *utils.Logger, group *errgroup.Group) error {
	select {
	case <-signalCtx.Done():
		logger.InfoTag(tagBootstrap, "shutdown requested, stopping services")
	case <-groupCtx.Done():
		logger.WarnTag(tagBootstrap, "a service exited, stopping the rest")
	}
	cancel()

	done := make(chan error, 1)
	go func() {
		done <- group.Wait()
	}()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.ErrorTag(tagBootstrap, "service stopped with error: %v", err)
			return err
		}
		return nil
	case <-time.After(15 * time.Second):
		logger.WarnTag(tagBootstrap, "shutdown timed out, exiting")
		return platformerrors.New(platformerrors.KindBootstrap, "shutdown", "graceful shutdown timed out")
	}
}

// close releases whatever the init steps managed to build, in reverse order.
func (s *appState) close() {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.artifacts != nil {
		if err := s.artifacts.Close(ctx); err != nil {
			s.logger.WarnTag(tagBootstrap, "artifact store did not close cleanly: %v", err)
		}
	}
	if s.bus != nil {
		s.bus.Stop()
	}
	if s.db != nil {
		if err := platformstorage.Close(s.db); err != nil {
			s.logger.WarnTag(tagBootstrap, "database did not close cleanly: %v", err)
		}
	}
	if s.observabilityShutdown != nil {
		if err := s.observabilityShutdown(ctx); err != nil {
			s.logger.WarnTag(tagBootstrap, "observability did not shut down cleanly: %v", err)
		}
	}
	if s.logProvider != nil {
		_ = s.logProvider.Close()
	}
}
