package injector

import (
	"github.com/google/wire"
	"github.com/zeusync/arview/internal/config"
	"github.com/zeusync/arview/internal/controller"
	"github.com/zeusync/arview/internal/core/capture"
	"github.com/zeusync/arview/internal/core/events/bus"
	"github.com/zeusync/arview/internal/core/observability/log"
	"github.com/zeusync/arview/internal/core/observability/metrics"
	"github.com/zeusync/arview/internal/core/scene"
	"github.com/zeusync/arview/internal/server"
	"github.com/zeusync/arview/internal/storage"
)

// ProviderSet builds a ready-to-run server from a config.Config.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideMetrics,
	ProvideCatalog,
	ProvideBus,
	ProvideController,
	ProvideComposer,
	ProvideRepository,
	ProvideServer,
)

func ProvideLogger(cfg config.Config) *log.Logger {
	return log.NewWithOptions(cfg.Log.Options())
}

func ProvideMetrics() (*metrics.Recorder, error) {
	return metrics.New()
}

func ProvideCatalog(cfg config.Config, logger log.Log) (*scene.Catalog, error) {
	if cfg.Catalog.Path == "" {
		return scene.DefaultCatalog(), nil
	}
	catalog, err := scene.LoadCatalogFile(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	logger.Info("catalog loaded",
		log.String("path", cfg.Catalog.Path),
		log.Int("models", catalog.Len()),
	)
	return catalog, nil
}

func ProvideBus(logger log.Log) bus.EventBus {
	b := bus.New()
	b.AddObserver(bus.NewLogObserver(logger))
	return b
}

func ProvideController(cfg config.Config, catalog *scene.Catalog, b bus.EventBus, logger log.Log, rec *metrics.Recorder) *controller.Controller {
	return controller.New(controller.Options{
		Config:       cfg.ControllerConfig(),
		Gesture:      cfg.Gesture,
		Manipulation: cfg.Manipulation,
		Catalog:      catalog,
		Bus:          b,
		Logger:       logger,
		Metrics:      rec,
	})
}

func ProvideComposer(cfg config.Config, logger log.Log) *capture.Composer {
	return capture.NewComposer(cfg.Capture, logger)
}

func ProvideRepository(cfg config.Config, logger log.Log) (*storage.Repository, func(), error) {
	repo, err := storage.Open(cfg.Storage, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := repo.Close(); err != nil {
			logger.Warn("closing scene database", log.Error(err))
		}
	}
	return repo, cleanup, nil
}

func ProvideServer(cfg config.Config, ctrl *controller.Controller, repo *storage.Repository, composer *capture.Composer, logger log.Log) (*server.Server, error) {
	return server.NewServer(cfg.Server, ctrl, repo, composer, logger)
}
