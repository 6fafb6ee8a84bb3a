package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/Blickwinkle262/DutchRentScope/internal/constants"
	"github.com/Blickwinkle262/DutchRentScope/internal/contextkeys"
	"github.com/Blickwinkle262/DutchRentScope/internal/core/port"
)

// SessionConfig задает параметры браузерного прохода за cookie.
type SessionConfig struct {
	StartURL string
	Headless bool
	Timeout  time.Duration
}

// ChromedpSession получает свежие cookie через управляемый Chrome:
// открывает стартовую страницу, принимает баннер согласия didomi и
// забирает cookie из контекста браузера.
type ChromedpSession struct {
	cfg SessionConfig
}

func NewChromedpSession(cfg SessionConfig) *ChromedpSession {
	if cfg.StartURL == "" {
		cfg.StartURL = constants.FundaIndexURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &ChromedpSession{cfg: cfg}
}

const consentButtonSelector = `//button[@id='didomi-notice-agree-button']`

// HarvestCookies выполняет один проход браузера и возвращает только те
// cookie, которые нужны для подписи запросов к funda.
func (s *ChromedpSession) HarvestCookies(ctx context.Context) (map[string]string, error) {
	logger := contextkeys.LoggerFromContext(ctx)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	runCtx, cancelTimeout := context.WithTimeout(browserCtx, s.cfg.Timeout)
	defer cancelTimeout()

	var harvested map[string]string

	err := chromedp.Run(runCtx,
		chromedp.Navigate(s.cfg.StartURL),
		chromedp.Sleep(2*time.Second),
		chromedp.ActionFunc(func(ctx context.Context) error {
			// баннер согласия может не показываться повторно
			clickCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := chromedp.Click(consentButtonSelector, chromedp.BySearch).Do(clickCtx); err != nil {
				logger.Debug("Consent button not found, proceeding", nil)
			} else {
				logger.Debug("Clicked the cookie consent button", nil)
			}
			return nil
		}),
		chromedp.Sleep(1*time.Second),
		chromedp.ActionFunc(func(ctx context.Context) error {
			cookies, err := network.GetCookies().Do(ctx)
			if err != nil {
				return fmt.Errorf("get cookies: %w", err)
			}
			harvested = filterRequired(cookies)
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("browser session: failed to harvest cookies: %w", err)
	}

	logger.Info("Harvested cookies from browser", port.Fields{
		"count": len(harvested),
	})
	return harvested, nil
}

// filterRequired оставляет только cookie из списка обязательных.
func filterRequired(cookies []*network.Cookie) map[string]string {
	required := make(map[string]struct{}, len(constants.RequiredCookies))
	for _, name := range constants.RequiredCookies {
		required[name] = struct{}{}
	}

	result := make(map[string]string)
	for _, c := range cookies {
		if _, ok := required[c.Name]; ok {
			result[c.Name] = c.Value
		}
	}
	return result
}
