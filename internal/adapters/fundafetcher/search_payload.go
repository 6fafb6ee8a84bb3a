package fundafetcher

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Blickwinkle262/DutchRentScope/internal/core/domain"
)

// Поисковый API funda - это elasticsearch msearch с серверными шаблонами.
// Тело запроса - ndjson: строка с индексом, затем строка с id шаблона и
// параметрами.

const searchIndexAlias = "listings-wonen-searcher-alias-prod"

var publicationDateParam = map[domain.PublicationDate]string{
	domain.PublicationToday:      "1",
	domain.PublicationLast3Days:  "3",
	domain.PublicationLast5Days:  "5",
	domain.PublicationLast10Days: "10",
	domain.PublicationLast30Days: "30",
}

// buildTemplateParams переводит доменные параметры в формат шаблона.
func buildTemplateParams(p domain.SearchParams) map[string]any {
	params := map[string]any{
		"offering_type":    string(p.OfferingType),
		"free_text_search": p.FreeTextSearch,
		"page":             map[string]any{"from": p.FromIndex()},
		"type":             []string{"single"},
		"sort": map[string]any{
			"field":         "relevancy_sort_order",
			"order":         "desc",
			"offering_type": "both",
			"old_option":    "relevance",
		},
		"open_house": map[string]any{},
	}

	if len(p.SelectedAreas) > 0 {
		params["selected_area"] = p.SelectedAreas
	}
	if p.Price != nil {
		bounds := map[string]any{"from": p.Price.From}
		if p.Price.To > 0 {
			bounds["to"] = p.Price.To
		}
		if p.OfferingType == domain.OfferingRent {
			params["price"] = map[string]any{"rent_price": bounds}
		} else {
			params["price"] = map[string]any{"selling_price": bounds}
		}
	}
	if len(p.Availability) > 0 {
		params["availability"] = p.Availability
	}
	if len(p.ConstructionPeriod) > 0 {
		params["construction_period"] = p.ConstructionPeriod
	}
	if len(p.EnergyLabels) > 0 {
		params["energy_labels"] = p.EnergyLabels
	}
	if v, ok := publicationDateParam[p.PublicationDate]; ok {
		params["publication_date"] = map[string]bool{v: true}
	}

	return params
}

// buildSearchBody собирает ndjson тело msearch запроса.
func buildSearchBody(p domain.SearchParams, searchDate string) ([]byte, error) {
	indexLine, err := json.Marshal(map[string]string{"index": searchIndexAlias})
	if err != nil {
		return nil, fmt.Errorf("marshal index line: %w", err)
	}

	body := map[string]any{
		"id":     fmt.Sprintf("search_result_%s", searchDate),
		"params": buildTemplateParams(p),
	}
	bodyLine, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal template body: %w", err)
	}

	var sb strings.Builder
	sb.Write(indexLine)
	sb.WriteByte('\n')
	sb.Write(bodyLine)
	sb.WriteByte('\n')
	return []byte(sb.String()), nil
}
