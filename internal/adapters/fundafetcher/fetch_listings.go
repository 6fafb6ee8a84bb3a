package fundafetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/Blickwinkle262/DutchRentScope/internal/constants"
	"github.com/Blickwinkle262/DutchRentScope/internal/contextkeys"
	"github.com/Blickwinkle262/DutchRentScope/internal/core/domain"
	"github.com/Blickwinkle262/DutchRentScope/internal/core/port"
)

// ответ msearch: по одному блоку на каждый отправленный шаблон
type msearchResponse struct {
	Responses []struct {
		Hits struct {
			Total struct {
				Value    int    `json:"value"`
				Relation string `json:"relation"`
			} `json:"total"`
			Hits []struct {
				ID     string         `json:"_id"`
				Source propertySource `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	} `json:"responses"`
}

type propertySource struct {
	ID               int64     `json:"id"`
	ObjectType       string    `json:"object_type"`
	Status           string    `json:"status"`
	ConstructionType string    `json:"construction_type"`
	FloorArea        []float64 `json:"floor_area"`
	PlotArea         []float64 `json:"plot_area"`
	NumberOfRooms    []int     `json:"number_of_rooms"`
	NumberOfBedrooms []int     `json:"number_of_bedrooms"`
	EnergyLabel      string    `json:"energy_label"`
	OfferingType     []string  `json:"offering_type"`
	PublishDate      string    `json:"publish_date"`
	ThumbnailID      []int64   `json:"thumbnail_id"`
	RelativeURL      string    `json:"object_detail_page_relative_url"`

	Price struct {
		RentPriceCondition string    `json:"rent_price_condition"`
		RentPriceType      string    `json:"rent_price_type"`
		RentPrice          []float64 `json:"rent_price"`
		SellingPrice       []float64 `json:"selling_price"`
		RentPriceSuffix    string    `json:"rent_price_suffix"`
	} `json:"price"`

	Address struct {
		Country      string `json:"country"`
		Province     string `json:"province"`
		City         string `json:"city"`
		Municipality string `json:"municipality"`
		Neighbourhood string `json:"neighbourhood"`
		StreetName   string `json:"street_name"`
		HouseNumber  string `json:"house_number"`
		PostalCode   string `json:"postal_code"`
		IsBAGAddress bool   `json:"is_bag_address"`
	} `json:"address"`

	Agent []struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		Association string `json:"association"`
		LogoID      int64  `json:"logo_id"`
		LogoType    string `json:"logo_type"`
		RelativeURL string `json:"relative_url"`
		IsPrimary   bool   `json:"is_primary"`
	} `json:"agent"`
}

func (s propertySource) toDomain() domain.Property {
	p := domain.Property{
		ID:                 s.ID,
		ObjectType:         s.ObjectType,
		AvailabilityStatus: s.Status,
		ConstructionType:   s.ConstructionType,
		EnergyLabel:        s.EnergyLabel,
		OfferingType:       s.OfferingType,
		RelativeURL:        s.RelativeURL,
		ThumbnailID:        s.ThumbnailID,
		Address: domain.Address{
			Country:      s.Address.Country,
			Province:     s.Address.Province,
			City:         s.Address.City,
			Municipality: s.Address.Municipality,
			Neighborhood: s.Address.Neighbourhood,
			StreetName:   s.Address.StreetName,
			HouseNumber:  s.Address.HouseNumber,
			PostalCode:   s.Address.PostalCode,
			IsBAGAddress: s.Address.IsBAGAddress,
		},
		Price: domain.PropertyPrice{
			Condition:    s.Price.RentPriceCondition,
			Type:         s.Price.RentPriceType,
			RentPrice:    s.Price.RentPrice,
			SellingPrice: s.Price.SellingPrice,
			Suffix:       s.Price.RentPriceSuffix,
		},
	}

	for _, v := range s.FloorArea {
		p.FloorArea = append(p.FloorArea, int(v))
	}
	for _, v := range s.PlotArea {
		p.PlotArea = append(p.PlotArea, int(v))
	}
	p.Bedrooms = s.NumberOfBedrooms

	for _, ag := range s.Agent {
		agent := domain.Agent{
			ID:            ag.ID,
			Name:          ag.Name,
			AssociationID: ag.Association,
			LogoID:        ag.LogoID,
			LogoType:      ag.LogoType,
			RelativeURL:   ag.RelativeURL,
			IsPrimary:     ag.IsPrimary,
		}
		p.Agents = append(p.Agents, agent)
		if ag.IsPrimary || p.AgencyName == "" {
			p.AgencyName = ag.Name
		}
	}

	if s.PublishDate != "" {
		if ts, err := time.Parse(time.RFC3339, s.PublishDate); err == nil {
			p.PublishDate = ts
		}
	}
	return p
}

// FetchSearchPage загружает одну страницу поисковой выдачи через msearch API.
func (a *FundaFetcherAdapter) FetchSearchPage(ctx context.Context, params domain.SearchParams) (*domain.PageResult, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	pageLogger := logger.WithFields(port.Fields{
		"component": "FundaFetcherAdapter(FetchSearchPage)",
		"page":      params.Page,
	})

	if params.FromIndex() >= constants.PaginationOffsetLimit {
		return nil, fmt.Errorf("page %d is beyond offset %d: %w",
			params.Page, constants.PaginationOffsetLimit, domain.ErrPaginationLimit)
	}

	body, err := buildSearchBody(params, a.searchDate)
	if err != nil {
		return nil, fmt.Errorf("funda adapter: failed to build search body: %w", err)
	}

	// Создаем "одноразовый" клон для этого конкретного запроса
	// Он наследует лимиты, но имеет свои собственные обработчики!
	collector := a.collector.Clone()

	var result *domain.PageResult
	var responseErr error

	targetURL := a.searchHost + constants.SearchAPIPath

	collector.OnRequest(func(r *colly.Request) {
		pageLogger.Debug("Making search API request", port.Fields{
			"url": r.URL.String(),
		})
	})

	collector.OnResponse(func(r *colly.Response) {
		var data msearchResponse
		if jsonErr := json.Unmarshal(r.Body, &data); jsonErr != nil {
			responseErr = fmt.Errorf("funda adapter: failed to parse search response for page %d: %w", params.Page, jsonErr)
			return
		}

		if len(data.Responses) == 0 {
			responseErr = fmt.Errorf("funda adapter: page %d: %w", params.Page, domain.ErrEmptyResponse)
			return
		}

		hits := data.Responses[0].Hits
		page := &domain.PageResult{
			Page:  params.Page,
			Total: hits.Total.Value,
		}
		for _, hit := range hits.Hits {
			page.Properties = append(page.Properties, hit.Source.toDomain())
		}
		result = page
	})

	collector.OnError(func(r *colly.Response, err error) {
		pageLogger.Error("Search API request failed", err, port.Fields{
			"url":    r.Request.URL.String(),
			"status": r.StatusCode,
		})
		responseErr = fmt.Errorf("funda adapter: search request failed with status %d: %w", r.StatusCode, err)
	})

	hdr := http.Header{}
	hdr.Set("Content-Type", "application/x-ndjson")
	hdr.Set("Accept", "application/json")

	if err := collector.Request("POST", targetURL, bytes.NewReader(body), nil, hdr); err != nil {
		return nil, fmt.Errorf("funda adapter: failed to post search request: %w", err)
	}
	collector.Wait()

	if responseErr != nil {
		return nil, responseErr
	}
	if result == nil {
		return nil, fmt.Errorf("funda adapter: page %d: %w", params.Page, domain.ErrEmptyResponse)
	}

	pageLogger.Info("Fetched search page", port.Fields{
		"total":      result.Total,
		"properties": len(result.Properties),
	})
	return result, nil
}
