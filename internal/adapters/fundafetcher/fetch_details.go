package fundafetcher

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/gocolly/colly/v2"

	"github.com/Blickwinkle262/DutchRentScope/internal/constants"
	"github.com/Blickwinkle262/DutchRentScope/internal/contextkeys"
	"github.com/Blickwinkle262/DutchRentScope/internal/core/domain"
	"github.com/Blickwinkle262/DutchRentScope/internal/core/port"
)

// FetchDetailPage загружает HTML страницы объявления. Запрос подписывается
// текущим набором cookie; заглушка антибота превращается в ErrIPBlocked,
// а отказ репортится менеджеру cookie.
func (a *FundaFetcherAdapter) FetchDetailPage(ctx context.Context, url string) ([]byte, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	detailLogger := logger.WithFields(port.Fields{
		"component": "FundaFetcherAdapter(FetchDetailPage)",
		"url":       url,
	})

	cookies, err := a.cookies.Cookies(ctx)
	if err != nil {
		return nil, fmt.Errorf("funda adapter: failed to obtain cookies: %w", err)
	}

	collector := a.collector.Clone()

	var html []byte
	var responseErr error

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Cookie", cookieHeader(cookies))
		r.Headers.Set("Accept", "text/html,application/xhtml+xml")
		detailLogger.Debug("Fetching detail page", nil)
	})

	collector.OnResponse(func(r *colly.Response) {
		if bytes.Contains(r.Body, []byte(constants.CaptchaMarker)) {
			a.cookies.ReportFailure(ctx)
			responseErr = fmt.Errorf("funda adapter: detail page %s: %w", url, domain.ErrIPBlocked)
			return
		}
		html = r.Body
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r.StatusCode == http.StatusForbidden || r.StatusCode == http.StatusTooManyRequests {
			a.cookies.ReportFailure(ctx)
			responseErr = fmt.Errorf("funda adapter: detail page %s blocked with status %d: %w", url, r.StatusCode, domain.ErrIPBlocked)
			return
		}
		detailLogger.Error("Failed to fetch detail page", err, port.Fields{
			"status": r.StatusCode,
		})
		responseErr = fmt.Errorf("funda adapter: request to %s failed with status %d: %w", url, r.StatusCode, err)
	})

	if err := collector.Visit(url); err != nil {
		return nil, fmt.Errorf("funda adapter: failed to visit %s: %w", url, err)
	}
	collector.Wait()

	if responseErr != nil {
		return nil, responseErr
	}
	return html, nil
}
