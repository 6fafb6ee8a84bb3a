package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Blickwinkle262/DutchRentScope/internal/core/domain"
)

func sampleDetail() *domain.HouseDetail {
	return &domain.HouseDetail{
		HouseID:     43891234,
		URL:         "https://www.funda.nl/en/huur/amsterdam/huis-43891234/",
		City:        "Amsterdam",
		PostCode:    "1075 AB",
		Address:     "Keizersgracht 1",
		Status:      "Available",
		Price:       3250,
		LivingArea:  118,
		Rooms:       4,
		YearBuilt:   1931,
		EnergyLabel: "B",
		AgencyName:  "Pararius Makelaars",
		CrawledAt:   time.Date(2025, 12, 6, 12, 0, 0, 0, time.UTC),
	}
}

func contentHash(t *testing.T, d *domain.HouseDetail) string {
	t.Helper()
	blob, err := buildAttributeBlob(d)
	require.NoError(t, err)
	return calculateContentHash(buildHashPayload(d, blob))
}

func TestContentHashDeterministic(t *testing.T) {
	first := contentHash(t, sampleDetail())
	second := contentHash(t, sampleDetail())
	require.Equal(t, first, second)
	require.Len(t, first, 64)
}

func TestContentHashIgnoresCrawlMetadata(t *testing.T) {
	base := contentHash(t, sampleDetail())

	changed := sampleDetail()
	changed.CrawledAt = changed.CrawledAt.Add(48 * time.Hour)
	changed.ParseWarning = "missing fields: interior"
	require.Equal(t, base, contentHash(t, changed))
}

func TestContentHashChangesWithContent(t *testing.T) {
	base := contentHash(t, sampleDetail())

	priced := sampleDetail()
	priced.Price = 3400
	require.NotEqual(t, base, contentHash(t, priced))

	rented := sampleDetail()
	rented.Status = "Rented"
	require.NotEqual(t, base, contentHash(t, rented))

	relabeled := sampleDetail()
	relabeled.EnergyLabel = "A"
	require.NotEqual(t, base, contentHash(t, relabeled))
}

func TestBuildHashPayloadNormalizesStatus(t *testing.T) {
	d := sampleDetail()
	blob, err := buildAttributeBlob(d)
	require.NoError(t, err)

	loud := sampleDetail()
	loud.Status = "  AVAILABLE "
	loudBlob, err := buildAttributeBlob(loud)
	require.NoError(t, err)

	require.Equal(t, buildHashPayload(d, blob), buildHashPayload(loud, loudBlob))
}
