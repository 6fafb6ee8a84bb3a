package fundafetcher

import (
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"

	"github.com/Blickwinkle262/DutchRentScope/internal/core/port"
)

// FundaFetcherAdapter отвечает за все взаимодействия с сайтом funda:
// поисковый API и страницы объявлений.
type FundaFetcherAdapter struct {
	// родительский коллектор, который разделяет лимиты
	collector  *colly.Collector
	cookies    port.CookieManagerPort
	indexURL   string
	searchHost string
	searchDate string
}

type Option func(*FundaFetcherAdapter)

// WithSearchDate переопределяет версию поискового шаблона.
func WithSearchDate(date string) Option {
	return func(a *FundaFetcherAdapter) { a.searchDate = date }
}

// NewFundaFetcherAdapter - конструктор
func NewFundaFetcherAdapter(indexURL, searchHost string, cookies port.CookieManagerPort, opts ...Option) (*FundaFetcherAdapter, error) {

	// родительский коллектор
	c := colly.NewCollector(
		colly.AllowedDomains("www.funda.nl", "funda.nl", "listing-search-wonen.funda.io", "cloud.funda.nl"),
		colly.AllowURLRevisit(),
	)

	// Эти правила будут наследоваться всеми клонами коллектора
	err := c.Limit(&colly.LimitRule{
		DomainGlob: "*funda.*",

		// Параллелизм на уровне HTTP-запросов
		Parallelism: 2,

		// задержка от 0 до 2 секунд после завершения предыдущего
		RandomDelay: 2 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("FundaFetcherAdapter: failed to set limit rule: %w", err)
	}

	extensions.RandomUserAgent(c) // На каждый запрос будет подставлен User-Agent реального браузера
	extensions.Referer(c)         // Автоматически подставляет заголовок Referer, имитируя навигацию

	a := &FundaFetcherAdapter{
		collector:  c,
		cookies:    cookies,
		indexURL:   indexURL,
		searchHost: searchHost,
		searchDate: "20241206",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// cookieHeader собирает значение заголовка Cookie из набора менеджера.
func cookieHeader(cookies map[string]string) string {
	header := ""
	for name, value := range cookies {
		if header != "" {
			header += "; "
		}
		header += name + "=" + value
	}
	return header
}
