// Package app initializes and holds long-lived application services, acting
// as a dependency injection container for the CLI commands.
package app

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/lexel-search/caselaw-pipeline/internal/config"
	"github.com/lexel-search/caselaw-pipeline/internal/crawler"
	"github.com/lexel-search/caselaw-pipeline/internal/docs"
	"github.com/lexel-search/caselaw-pipeline/internal/fetch"
	"github.com/lexel-search/caselaw-pipeline/internal/logging"
	"github.com/lexel-search/caselaw-pipeline/internal/metrics"
	"github.com/lexel-search/caselaw-pipeline/internal/pipeline"
	"github.com/lexel-search/caselaw-pipeline/internal/protocol"
	"github.com/lexel-search/caselaw-pipeline/internal/store"
)

// App holds the shared services: configuration, logger, store, fetch client
// and the protocol registry. It is built once at startup and passed to the
// commands; no component reaches for ambient globals.
type App struct {
	Cfg      config.Config
	Logger   *zap.Logger
	Store    *store.Store
	Fetcher  *fetch.Client
	Registry *protocol.Registry

	metricsSrv *metrics.Server
}

// New builds the application services from the loaded Viper configuration.
// It fails fast on unrecoverable configuration errors (unreachable store,
// invalid settings); everything past startup is contained per case/document.
func New() (*App, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.DB.Path, logger.Named("store"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	client, err := fetch.NewClient(cfg.HTTP, logger.Named("fetch"))
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("init fetch client: %w", err)
	}

	registry := protocol.NewRegistry()
	registry.Register(protocol.CuriaProtocol, protocol.NewCuria(client, logger.Named("curia")))

	a := &App{
		Cfg:      cfg,
		Logger:   logger,
		Store:    st,
		Fetcher:  client,
		Registry: registry,
	}
	if cfg.Metrics.Enabled {
		a.metricsSrv = metrics.NewServer(cfg.Metrics.Addr, logger.Named("metrics"))
		a.metricsSrv.Start()
	}
	return a, nil
}

// Close shuts the services down.
func (a *App) Close() {
	if a.metricsSrv != nil {
		a.metricsSrv.Stop()
	}
	if err := a.Store.Close(); err != nil {
		a.Logger.Warn("close store", zap.Error(err))
	}
	_ = a.Logger.Sync()
}

// CrawlStage wires the case/document crawl stage.
func (a *App) CrawlStage() *pipeline.CrawlStage {
	caseCrawler := crawler.NewCaseCrawler(a.Fetcher, a.Registry, a.Logger.Named("cases"))
	docCrawler := crawler.NewDocCrawler(a.Fetcher, a.Registry, a.Logger.Named("docs"))
	orch := pipeline.NewOrchestrator(
		docCrawler,
		a.Store,
		a.Cfg.Crawler.Formats,
		a.Cfg.Crawler.BatchSize,
		a.Cfg.Crawler.Workers,
		a.Logger.Named("orchestrator"),
	)
	return pipeline.NewCrawlStage(caseCrawler, orch, a.Store, a.Cfg.Sources, a.Logger.Named("crawl"))
}

// DownloadStage wires the document download stage.
func (a *App) DownloadStage() *pipeline.DownloadStage {
	downloader := docs.NewDownloader(a.Fetcher, a.Cfg.Docs.Dir, a.Logger.Named("downloader"))
	return pipeline.NewDownloadStage(a.Store, downloader, a.Logger.Named("download"))
}

// ExtractStage wires the text extraction stage.
func (a *App) ExtractStage() *pipeline.ExtractStage {
	renderer := docs.NewRenderer(a.Cfg.Render.Format, a.Cfg.Render.Resolution, nil, a.Logger.Named("renderer"))
	extractor := docs.NewExtractor(renderer, nil, a.Logger.Named("extractor"))
	return pipeline.NewExtractStage(a.Store, extractor, a.Cfg.Docs.Dir, a.Cfg.Extract.DocNames, nil, a.Logger.Named("extract"))
}
