package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Blickwinkle262/DutchRentScope/internal/core/domain"
)

func TestClassifyUpsertOutcomes(t *testing.T) {
	require.Equal(t, domain.OutcomeCreated, classifyUpsert(false, "", "abc"))
	require.Equal(t, domain.OutcomeTouched, classifyUpsert(true, "abc", "abc"))
	require.Equal(t, domain.OutcomeChanged, classifyUpsert(true, "abc", "def"))
}

func TestClassifyUpsertIdempotentObservation(t *testing.T) {
	// повторное наблюдение неизменившегося объявления - touch, не снимок
	stored := contentHash(t, sampleDetail())

	second := sampleDetail()
	second.CrawledAt = second.CrawledAt.Add(24 * time.Hour)
	require.Equal(t, domain.OutcomeTouched, classifyUpsert(true, stored, contentHash(t, second)))

	repriced := sampleDetail()
	repriced.Price = 3400
	require.Equal(t, domain.OutcomeChanged, classifyUpsert(true, stored, contentHash(t, repriced)))
}
