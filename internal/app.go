package internal

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Blickwinkle262/DutchRentScope/internal/adapters/archive"
	"github.com/Blickwinkle262/DutchRentScope/internal/adapters/browser"
	"github.com/Blickwinkle262/DutchRentScope/internal/adapters/cookie"
	"github.com/Blickwinkle262/DutchRentScope/internal/adapters/csvstore"
	"github.com/Blickwinkle262/DutchRentScope/internal/adapters/extractor"
	"github.com/Blickwinkle262/DutchRentScope/internal/adapters/fundafetcher"
	logger_adapter "github.com/Blickwinkle262/DutchRentScope/internal/adapters/logger"
	postgres_adapter "github.com/Blickwinkle262/DutchRentScope/internal/adapters/postgres"
	"github.com/Blickwinkle262/DutchRentScope/internal/configs"
	"github.com/Blickwinkle262/DutchRentScope/internal/constants"
	"github.com/Blickwinkle262/DutchRentScope/internal/contextkeys"
	"github.com/Blickwinkle262/DutchRentScope/internal/core/domain"
	"github.com/Blickwinkle262/DutchRentScope/internal/core/port"
	"github.com/Blickwinkle262/DutchRentScope/internal/core/usecase"
	fluentlogger "github.com/Blickwinkle262/DutchRentScope/pkg/fluent_logger"
	"github.com/Blickwinkle262/DutchRentScope/pkg/postgres"
)

// RunOptions - параметры запуска из командной строки.
type RunOptions struct {
	Mode           string // listing | detail | update
	SearchAreas    []string
	Offering       string // rent | buy
	MinPrice       float64
	MaxPrice       float64
	FreeText       string
	SaveOption     string // csv | db
	DownloadImages bool
	ImageSize      string
}

// App – структура приложения
type App struct {
	config       *configs.AppConfig
	opts         RunOptions
	offering     domain.OfferingType
	dbPool       *pgxpool.Pool
	fluentClient *fluent.Fluent
	logger       port.LoggerPort
	summary      *domain.CrawlSummary

	storage   port.HouseStoragePort
	dbStorage *postgres_adapter.HouseStorageAdapter

	fetchListingsUC  *usecase.FetchListingsUseCase
	processDetailsUC *usecase.ProcessDetailsUseCase
	updateListingsUC *usecase.UpdateListingsUseCase
}

// NewApp создает новый экземпляр приложения.
// Это "Composition Root", где все зависимости создаются и связываются.
func NewApp(opts RunOptions) (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	offering, err := domain.ParseOfferingType(opts.Offering)
	if err != nil {
		return nil, fmt.Errorf("invalid run options: %w", err)
	}
	// флаг командной строки и переменная окружения равнозначны
	opts.DownloadImages = opts.DownloadImages || appConfig.Crawler.DownloadImages

	// --- 1. ИНИЦИАЛИЗАЦИЯ ЛОГГЕРОВ ---
	var activeLoggers []port.LoggerPort

	slogCfg := logger_adapter.SlogConfig{
		Level:    parseLogLevel(appConfig.StdoutLogger.Level),
		IsJSON:   false,
		UseColor: true,
	}
	stdoutLogger := logger_adapter.NewSlogAdapter(slogCfg)
	activeLoggers = append(activeLoggers, stdoutLogger)

	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, parseLogLevel(appConfig.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	baseLogger := multiLogger.WithFields(port.Fields{
		"service_name": appConfig.AppName,
		"run_id":       uuid.NewString(),
	})
	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	app := &App{
		config:       appConfig,
		opts:         opts,
		offering:     offering,
		fluentClient: fluentClient,
		logger:       baseLogger,
		summary:      &domain.CrawlSummary{},
	}

	// --- 2. COOKIE И ДОСТУП К FUNDA ---
	browserSession := browser.NewChromedpSession(browser.SessionConfig{
		StartURL: constants.FundaIndexURL,
		Headless: appConfig.Cookie.BrowserHeadless,
		Timeout:  time.Duration(appConfig.Cookie.BrowserTimeout) * time.Second,
	})

	cookieManager, err := cookie.NewManager(cookie.ManagerConfig{
		CacheFile:       appConfig.Cookie.CacheFile,
		Lifetime:        time.Duration(appConfig.Cookie.LifetimeSeconds) * time.Second,
		MaxFailureCount: appConfig.Cookie.MaxFailureCount,
		MaxRefreshCount: appConfig.Cookie.MaxRefreshCount,
	}, browserSession)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie manager: %w", err)
	}

	fetcher, err := fundafetcher.NewFundaFetcherAdapter(
		constants.FundaIndexURL, constants.SearchAPIHost, cookieManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create funda fetcher: %w", err)
	}

	// --- 3. ЭКСТРАКТОР ---
	profiles, err := extractor.LoadProfiles(appConfig.Crawler.ExtractorProfile)
	if err != nil {
		return nil, fmt.Errorf("failed to load extractor profiles: %w", err)
	}
	xpathExtractor, err := extractor.NewXPathExtractor(profiles, offering)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	// --- 4. ХРАНИЛИЩЕ ---
	switch opts.SaveOption {
	case "db":
		dbPool, err := postgres.NewClient(context.Background(), postgres.Config{DatabaseURL: appConfig.Database.URL})
		if err != nil {
			appLogger.Error("Failed to connect to PostgreSQL", err, nil)
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		appLogger.Info("Successfully connected to PostgreSQL pool!", nil)

		dbStorage, err := postgres_adapter.NewHouseStorageAdapter(dbPool)
		if err != nil {
			dbPool.Close()
			return nil, err
		}
		app.dbPool = dbPool
		app.dbStorage = dbStorage
		app.storage = dbStorage
	case "csv":
		csvStorage, err := csvstore.NewCsvHouseStore(appConfig.CSVDir, offering)
		if err != nil {
			return nil, fmt.Errorf("failed to create csv store: %w", err)
		}
		app.storage = csvStorage
	default:
		return nil, fmt.Errorf("unknown save option %q, expected csv or db", opts.SaveOption)
	}

	errorArchive := archive.NewErrorHTMLArchive(appConfig.Crawler.ErrorHTMLDir)

	// --- 5. USE CASES ---
	app.fetchListingsUC = usecase.NewFetchListingsUseCase(fetcher, appConfig.Crawler.MaxConcurrency)

	app.processDetailsUC = usecase.NewProcessDetailsUseCase(
		fetcher, xpathExtractor, cookieManager, app.storage, errorArchive,
		usecase.PipelineConfig{
			BatchSize:      appConfig.Crawler.BatchSize,
			MaxConcurrency: appConfig.Crawler.MaxConcurrency,
			MinDelay:       time.Duration(appConfig.Crawler.MinDelaySeconds) * time.Second,
			MaxDelay:       time.Duration(appConfig.Crawler.MaxDelaySeconds) * time.Second,
		},
		app.summary,
	)

	if app.dbStorage != nil {
		app.updateListingsUC = usecase.NewUpdateListingsUseCase(
			app.dbStorage, app.processDetailsUC,
			appConfig.Crawler.UpdateSinceDays, appConfig.Crawler.BatchSize*10)
	}

	return app, nil
}

// Run выполняет выбранный режим обхода. Итоговая сводка печатается
// даже при фатальном обрыве.
func (a *App) Run(ctx context.Context) (runErr error) {
	ctx = contextkeys.ContextWithLogger(ctx, a.logger)
	appLogger := a.logger.WithFields(port.Fields{"component": "app"})

	defer func() {
		snap := a.summary.Snapshot()
		appLogger.Info("Crawl summary", port.Fields{
			"pages_fetched":   snap.PagesFetched,
			"pages_failed":    snap.PagesFailed,
			"listings_found":  snap.ListingsFound,
			"details_stored":  snap.DetailsStored,
			"details_skipped": snap.DetailsSkipped,
			"details_partial": snap.DetailsPartial,
			"tombstones":      snap.Tombstones,
			"ip_blocks":       snap.IPBlocks,
			"cookie_refreshs": snap.CookieRefreshs,
			"images_stored":   snap.ImagesStored,
		})
	}()

	appLogger.Info("Starting crawl", port.Fields{
		"mode":     a.opts.Mode,
		"areas":    a.opts.SearchAreas,
		"offering": string(a.offering),
		"storage":  a.opts.SaveOption,
	})

	switch a.opts.Mode {
	case "listing":
		return a.runListing(ctx)
	case "detail":
		return a.runDetail(ctx)
	case "update":
		return a.runUpdate(ctx)
	default:
		return fmt.Errorf("unknown mode %q, expected listing, detail or update", a.opts.Mode)
	}
}

// buildSearchParams собирает поисковый запрос из параметров запуска.
func (a *App) buildSearchParams() domain.SearchParams {
	params := domain.SearchParams{
		SelectedAreas:  normalizeAreas(a.opts.SearchAreas),
		OfferingType:   a.offering,
		FreeTextSearch: a.opts.FreeText,
		Page:           1,
	}
	if a.opts.MinPrice > 0 || a.opts.MaxPrice > 0 {
		params.Price = &domain.PriceRange{From: a.opts.MinPrice, To: a.opts.MaxPrice}
	}
	return params
}

// runListing обходит только поисковую выдачу и сохраняет карточки.
func (a *App) runListing(ctx context.Context) error {
	a.fetchListingsUC.OnPage = func(pageCtx context.Context, page *domain.PageResult) {
		a.summary.PagesFetched.Add(1)
		for i := range page.Properties {
			prop := &page.Properties[i]
			a.summary.ListingsFound.Add(1)
			if err := a.storage.SaveListingSummary(pageCtx, prop); err != nil {
				a.logger.Error("Failed to store listing summary", err, port.Fields{"id": prop.ID})
				continue
			}
			if a.opts.DownloadImages {
				a.saveImageRefs(pageCtx, prop)
			}
		}
	}

	result, err := a.fetchListingsUC.Execute(ctx, a.buildSearchParams())
	if err != nil {
		return err
	}
	a.summary.PagesFailed.Add(int64(len(result.FailedPages)))

	a.saveCrawlState(ctx, result)
	return nil
}

// runDetail обходит выдачу и прогоняет каждое объявление через конвейер
// деталей. Набор задач собирается синхронно по мере загрузки страниц,
// каждое объявление попадает в конвейер не больше одного раза.
func (a *App) runDetail(ctx context.Context) error {
	seen := make(map[int64]struct{})
	var tasks []usecase.DetailTask

	a.fetchListingsUC.OnPage = func(pageCtx context.Context, page *domain.PageResult) {
		a.summary.PagesFetched.Add(1)
		for i := range page.Properties {
			prop := &page.Properties[i]
			if _, dup := seen[prop.ID]; dup {
				continue
			}
			seen[prop.ID] = struct{}{}
			a.summary.ListingsFound.Add(1)

			if err := a.storage.SaveListingSummary(pageCtx, prop); err != nil {
				a.logger.Error("Failed to store listing summary", err, port.Fields{"id": prop.ID})
			}
			if a.opts.DownloadImages {
				a.saveImageRefs(pageCtx, prop)
			}
			tasks = append(tasks, usecase.DetailTask{
				HouseID: prop.ID,
				URL:     prop.DetailURL(constants.FundaIndexURL),
				City:    prop.Address.City,
				Listing: prop,
			})
		}
	}

	result, err := a.fetchListingsUC.Execute(ctx, a.buildSearchParams())
	if err != nil {
		return err
	}
	a.summary.PagesFailed.Add(int64(len(result.FailedPages)))

	if err := a.processDetailsUC.Execute(ctx, tasks); err != nil {
		return err
	}

	a.saveCrawlState(ctx, result)

	if a.dbStorage != nil {
		if _, _, err := a.dbStorage.ManageActiveListings(ctx); err != nil {
			a.logger.Error("Active listings sweep failed", err, nil)
		}
	}
	return nil
}

// runUpdate актуализирует давно не посещавшиеся объявления из очереди.
func (a *App) runUpdate(ctx context.Context) error {
	if a.updateListingsUC == nil {
		return fmt.Errorf("update mode requires db storage (--save_option db)")
	}

	processed, err := a.updateListingsUC.Execute(ctx)
	if err != nil {
		if err == domain.ErrNoListingsDue {
			return nil
		}
		return err
	}
	a.logger.Info("Update pass finished", port.Fields{"processed": processed})
	return nil
}

// saveImageRefs сохраняет ссылки на изображения карточки.
func (a *App) saveImageRefs(ctx context.Context, prop *domain.Property) {
	for _, photoID := range prop.ThumbnailID {
		url := domain.ImageURL(photoID, a.opts.ImageSize)
		if err := a.storage.SaveImageRef(ctx, prop.ID, photoID, url); err != nil {
			a.logger.Warn("Failed to save image ref", port.Fields{
				"id":       prop.ID,
				"photo_id": photoID,
				"error":    err.Error(),
			})
			continue
		}
		a.summary.ImagesStored.Add(1)
	}
}

// saveCrawlState фиксирует прогресс обхода, только для db хранилища.
func (a *App) saveCrawlState(ctx context.Context, result *domain.SearchResult) {
	if a.dbStorage == nil {
		return
	}
	now := time.Now().UTC()
	state := &domain.CrawlState{
		SearchKey:   a.searchKey(),
		LastPage:    result.Pages,
		TotalPages:  result.Pages,
		CompletedAt: &now,
	}
	if err := a.dbStorage.SaveCrawlState(ctx, state); err != nil {
		a.logger.Warn("Failed to save crawl state", port.Fields{"error": err.Error()})
	}
}

// searchKey - стабильный ключ поискового запроса для таблицы прогресса.
func (a *App) searchKey() string {
	return fmt.Sprintf("funda_%s_%s", a.offering, strings.Join(normalizeAreas(a.opts.SearchAreas), "-"))
}

// Close освобождает ресурсы приложения.
func (a *App) Close() {
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.logger.Warn("Failed to close storage", port.Fields{"error": err.Error()})
		}
	}
	if a.fluentClient != nil {
		a.fluentClient.Close()
	}
}

func normalizeAreas(areas []string) []string {
	normalized := make([]string, 0, len(areas))
	for _, area := range areas {
		if s := strings.ToLower(strings.TrimSpace(area)); s != "" {
			normalized = append(normalized, s)
		}
	}
	return normalized
}

func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		// Возвращаем безопасное значение по умолчанию и логируем предупреждение
		log.Printf("Warning: Unknown log level '%s'. Defaulting to 'info'.", levelStr)
		return slog.LevelInfo
	}
}
