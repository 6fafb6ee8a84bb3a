package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// DBconfig хранит конфигурацию для БД
type DBconfig struct {
	URL string
}

type StdoutLogConfig struct {
	Level string // По умолчанию DEBUG
}

type FluentBitConfig struct {
	Host    string
	Port    int
	Enabled bool
	Level   string // По умолчанию INFO
}

// CrawlerConfig хранит параметры обхода funda
type CrawlerConfig struct {
	BatchSize        int
	MaxConcurrency   int
	MinDelaySeconds  int
	MaxDelaySeconds  int
	UpdateSinceDays  int
	DownloadImages   bool
	ImageDir         string
	ErrorHTMLDir     string
	ExtractorProfile string
}

// CookieConfig хранит параметры жизненного цикла cookie
type CookieConfig struct {
	CacheFile       string
	LifetimeSeconds int
	MaxFailureCount int
	MaxRefreshCount int
	BrowserHeadless bool
	BrowserTimeout  int
}

// AppConfig хранит всю конфигурацию приложения
type AppConfig struct {
	AppName      string
	Database     DBconfig
	Crawler      CrawlerConfig
	Cookie       CookieConfig
	FluentBit    FluentBitConfig
	StdoutLogger StdoutLogConfig
	CSVDir       string
}

// LoadConfig загружает конфигурацию из переменных окружения.
func LoadConfig(envPath ...string) (*AppConfig, error) {

	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath[0])
	} else {
		err = godotenv.Load()
	}

	if err != nil {
		log.Printf("Info: Could not load .env file (path: %v): %v.\n", envPath, err)
	}

	cfg := &AppConfig{}

	cfg.AppName = getEnvAsString("APP_NAME", "funda-crawler-service")

	// DATABASE_URL обязателен только для режима хранения в БД, проверка
	// откладывается до сборки хранилища
	cfg.Database.URL = os.Getenv("DATABASE_URL")

	cfg.Crawler.BatchSize = getEnvAsInt("CRAWLER_BATCH_SIZE", 50)
	cfg.Crawler.MaxConcurrency = getEnvAsInt("CRAWLER_MAX_CONCURRENCY", 5)
	cfg.Crawler.MinDelaySeconds = getEnvAsInt("CRAWLER_MIN_DELAY_SECONDS", 1)
	cfg.Crawler.MaxDelaySeconds = getEnvAsInt("CRAWLER_MAX_DELAY_SECONDS", 5)
	cfg.Crawler.UpdateSinceDays = getEnvAsInt("CRAWLER_UPDATE_SINCE_DAYS", 7)
	cfg.Crawler.DownloadImages = getEnvAsBool("CRAWLER_DOWNLOAD_IMAGES", false)
	cfg.Crawler.ImageDir = getEnvAsString("CRAWLER_IMAGE_DIR", "data/images")
	cfg.Crawler.ErrorHTMLDir = getEnvAsString("CRAWLER_ERROR_HTML_DIR", "data/error_html")
	cfg.Crawler.ExtractorProfile = getEnvAsString("EXTRACTOR_PROFILE", "configs/funda_profile.json")

	if cfg.Crawler.MaxDelaySeconds < cfg.Crawler.MinDelaySeconds {
		return nil, fmt.Errorf("CRAWLER_MAX_DELAY_SECONDS (%d) is less than CRAWLER_MIN_DELAY_SECONDS (%d)",
			cfg.Crawler.MaxDelaySeconds, cfg.Crawler.MinDelaySeconds)
	}

	cfg.Cookie.CacheFile = getEnvAsString("COOKIE_CACHE_FILE", "data/cookies.json")
	cfg.Cookie.LifetimeSeconds = getEnvAsInt("COOKIE_LIFETIME_SECONDS", 7200)
	cfg.Cookie.MaxFailureCount = getEnvAsInt("COOKIE_MAX_FAILURE_COUNT", 3)
	cfg.Cookie.MaxRefreshCount = getEnvAsInt("COOKIE_MAX_REFRESH_COUNT", 5)
	cfg.Cookie.BrowserHeadless = getEnvAsBool("BROWSER_HEADLESS", true)
	cfg.Cookie.BrowserTimeout = getEnvAsInt("BROWSER_TIMEOUT_SECONDS", 60)

	cfg.CSVDir = getEnvAsString("CSV_DIR", "data/csv")

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENTBIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}

		cfg.FluentBit.Port = getEnvAsInt("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENTBIT_LOG_LEVEL", "info")
	}

	cfg.StdoutLogger.Level = getEnvAsString("STDOUT_LOG_LEVEL", "debug")

	return cfg, nil
}

// getEnvAsString читает переменную окружения как строку или возвращает значение по умолчанию
func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt читает переменную окружения как int или возвращает значение по умолчанию
// Логирует ошибку, если переменная есть, но не может быть преобразована в int
func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as int: %v. Using default value: %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueInt
}

// getEnvAsBool читает переменную окружения как bool или возвращает значение по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as bool: %v. Using default value: %t\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valBool
}
