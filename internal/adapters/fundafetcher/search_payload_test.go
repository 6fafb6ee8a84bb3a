package fundafetcher

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Blickwinkle262/DutchRentScope/internal/core/domain"
)

func TestBuildSearchBodyShape(t *testing.T) {
	params := domain.SearchParams{
		SelectedAreas:  []string{"amsterdam"},
		OfferingType:   domain.OfferingRent,
		Price:          &domain.PriceRange{From: 1000, To: 2500},
		FreeTextSearch: "",
		Page:           3,
	}

	body, err := buildSearchBody(params, "20241206")
	require.NoError(t, err)

	// ndjson: строка индекса, строка шаблона, завершающий перевод строки
	require.True(t, strings.HasSuffix(string(body), "\n"))
	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	require.Len(t, lines, 2)

	var indexLine map[string]string
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &indexLine))
	require.Equal(t, "listings-wonen-searcher-alias-prod", indexLine["index"])

	var templateLine struct {
		ID     string         `json:"id"`
		Params map[string]any `json:"params"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &templateLine))
	require.Equal(t, "search_result_20241206", templateLine.ID)
	require.Equal(t, "rent", templateLine.Params["offering_type"])

	page, ok := templateLine.Params["page"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, float64(30), page["from"])

	price, ok := templateLine.Params["price"].(map[string]any)
	require.True(t, ok)
	rent, ok := price["rent_price"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, float64(1000), rent["from"])
	require.Equal(t, float64(2500), rent["to"])
}

func TestBuildTemplateParamsOptionalFilters(t *testing.T) {
	params := buildTemplateParams(domain.SearchParams{
		OfferingType: domain.OfferingBuy,
		Page:         1,
	})

	// пустые фильтры не попадают в запрос
	require.NotContains(t, params, "selected_area")
	require.NotContains(t, params, "price")
	require.NotContains(t, params, "availability")
	require.NotContains(t, params, "publication_date")

	require.Equal(t, []string{"single"}, params["type"])
	require.Equal(t, map[string]any{}, params["open_house"])
}

func TestBuildTemplateParamsSellingPrice(t *testing.T) {
	params := buildTemplateParams(domain.SearchParams{
		OfferingType: domain.OfferingBuy,
		Price:        &domain.PriceRange{From: 200000},
		Page:         1,
	})

	price, ok := params["price"].(map[string]any)
	require.True(t, ok)
	bounds, ok := price["selling_price"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, float64(200000), bounds["from"])
	// нулевая верхняя граница означает "без ограничения"
	require.NotContains(t, bounds, "to")
}

func TestBuildTemplateParamsPublicationDate(t *testing.T) {
	params := buildTemplateParams(domain.SearchParams{
		OfferingType:    domain.OfferingRent,
		PublicationDate: domain.PublicationLast3Days,
		Page:            1,
	})
	require.Equal(t, map[string]bool{"3": true}, params["publication_date"])
}
