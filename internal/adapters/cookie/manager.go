package cookie

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Blickwinkle262/DutchRentScope/internal/contextkeys"
	"github.com/Blickwinkle262/DutchRentScope/internal/core/domain"
	"github.com/Blickwinkle262/DutchRentScope/internal/core/port"
)

// cachedCookies - формат файла с cookie на диске.
type cachedCookies struct {
	Cookies              map[string]string `json:"cookies"`
	Timestamp            int64             `json:"timestamp"`
	FailureCount         int               `json:"failure_count"`
	LastFailureTimestamp int64             `json:"last_failure_timestamp,omitempty"`
}

// ManagerConfig задает жизненный цикл набора cookie.
type ManagerConfig struct {
	CacheFile       string
	Lifetime        time.Duration
	MaxFailureCount int
	MaxRefreshCount int
}

// Manager выдает валидный набор cookie и обновляет его через браузерную
// сессию. Набор считается невалидным по возрасту или по числу отказов.
// Все обновления сериализуются: конкурентные вызовы разделяют один проход
// браузера.
type Manager struct {
	cfg     ManagerConfig
	browser port.BrowserSessionPort

	mu           sync.Mutex
	cached       *cachedCookies
	failureCount int
	refreshCount int
}

// NewManager создает менеджер и поднимает кэш с диска, если он есть.
func NewManager(cfg ManagerConfig, browser port.BrowserSessionPort) (*Manager, error) {
	if cfg.CacheFile == "" {
		return nil, fmt.Errorf("cookie manager: cache file path is required")
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = 7200 * time.Second
	}
	if cfg.MaxFailureCount <= 0 {
		cfg.MaxFailureCount = 3
	}
	if cfg.MaxRefreshCount <= 0 {
		cfg.MaxRefreshCount = 5
	}

	m := &Manager{cfg: cfg, browser: browser}
	m.cached = m.loadFromDisk()
	if m.cached != nil {
		m.failureCount = m.cached.FailureCount
	}
	return m, nil
}

func (m *Manager) loadFromDisk() *cachedCookies {
	raw, err := os.ReadFile(m.cfg.CacheFile)
	if err != nil {
		return nil
	}
	var cached cachedCookies
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil
	}
	if len(cached.Cookies) == 0 {
		return nil
	}
	return &cached
}

func (m *Manager) saveToDisk(cached *cachedCookies) error {
	if err := os.MkdirAll(filepath.Dir(m.cfg.CacheFile), 0o755); err != nil {
		return fmt.Errorf("cookie manager: failed to create cache dir: %w", err)
	}
	raw, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("cookie manager: failed to marshal cookies: %w", err)
	}
	if err := os.WriteFile(m.cfg.CacheFile, raw, 0o600); err != nil {
		return fmt.Errorf("cookie manager: failed to write cache file: %w", err)
	}
	return nil
}

// isValidLocked проверяет валидность кэша, вызывается под mu.
func (m *Manager) isValidLocked(now time.Time) bool {
	if m.cached == nil || len(m.cached.Cookies) == 0 {
		return false
	}
	if m.failureCount >= m.cfg.MaxFailureCount {
		return false
	}
	age := now.Unix() - m.cached.Timestamp
	return age >= 0 && age < int64(m.cfg.Lifetime.Seconds())
}

// Cookies возвращает валидный набор cookie, при необходимости обновляя его.
func (m *Manager) Cookies(ctx context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isValidLocked(time.Now()) {
		return cloneCookies(m.cached.Cookies), nil
	}
	if err := m.refreshLocked(ctx); err != nil {
		return nil, err
	}
	return cloneCookies(m.cached.Cookies), nil
}

// ReportFailure сообщает об отказе запроса с текущим набором. После
// превышения порога набор перестает считаться валидным.
func (m *Manager) ReportFailure(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failureCount++
	if m.cached != nil {
		m.cached.FailureCount = m.failureCount
		m.cached.LastFailureTimestamp = time.Now().Unix()
		if err := m.saveToDisk(m.cached); err != nil {
			contextkeys.LoggerFromContext(ctx).Warn("Failed to persist failure count",
				port.Fields{"error": err.Error()})
		}
	}
	logger := contextkeys.LoggerFromContext(ctx)
	logger.Warn("Cookie failure reported", port.Fields{
		"failure_count": m.failureCount,
		"max_failures":  m.cfg.MaxFailureCount,
	})
}

// ForceRefresh принудительно обновляет набор cookie.
func (m *Manager) ForceRefresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshLocked(ctx)
}

// RefreshCount возвращает число обновлений за текущий запуск.
func (m *Manager) RefreshCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshCount
}

// refreshLocked выполняет одно обновление через браузер, вызывается под mu.
func (m *Manager) refreshLocked(ctx context.Context) error {
	logger := contextkeys.LoggerFromContext(ctx)

	if m.refreshCount >= m.cfg.MaxRefreshCount {
		return fmt.Errorf("cookie manager: %d refreshes already performed: %w",
			m.refreshCount, domain.ErrCookieExhausted)
	}
	m.refreshCount++

	logger.Info("Refreshing cookies via browser session", port.Fields{
		"refresh_count": m.refreshCount,
		"max_refreshes": m.cfg.MaxRefreshCount,
	})

	cookies, err := m.browser.HarvestCookies(ctx)
	if err != nil {
		return fmt.Errorf("cookie manager: browser harvest failed: %w", err)
	}
	if len(cookies) == 0 {
		return fmt.Errorf("cookie manager: browser returned no cookies")
	}

	m.cached = &cachedCookies{
		Cookies:   cookies,
		Timestamp: time.Now().Unix(),
	}
	m.failureCount = 0

	if err := m.saveToDisk(m.cached); err != nil {
		// кэш на диске не критичен для текущего запуска
		logger.Warn("Failed to persist cookies", port.Fields{"error": err.Error()})
	}
	return nil
}

func cloneCookies(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
