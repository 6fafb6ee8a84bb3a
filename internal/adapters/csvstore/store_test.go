package csvstore

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Blickwinkle262/DutchRentScope/internal/core/domain"
)

func testDetail(id int64) *domain.HouseDetail {
	return &domain.HouseDetail{
		HouseID:   id,
		URL:       "https://www.funda.nl/en/huur/amsterdam/huis-1/",
		City:      "Amsterdam",
		Status:    "Available",
		Price:     2100,
		CrawledAt: time.Date(2025, 12, 6, 10, 0, 0, 0, time.UTC),
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}), "file must start with utf-8 BOM")

	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF}))).ReadAll()
	require.NoError(t, err)
	return records
}

func singleFile(t *testing.T, dir, kind string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*_"+kind+"_*.csv"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	return matches[0]
}

func TestCsvStoreWritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	store, err := NewCsvHouseStore(dir, domain.OfferingRent)
	require.NoError(t, err)

	ctx := context.Background()
	for i := int64(1); i <= 3; i++ {
		_, err := store.SaveDetail(ctx, testDetail(i))
		require.NoError(t, err)
	}
	require.NoError(t, store.Close())

	records := readCSV(t, singleFile(t, dir, "detail"))
	require.Len(t, records, 4)
	require.Equal(t, "house_id", records[0][0])
	require.Equal(t, "1", records[1][0])
	require.Equal(t, "3", records[3][0])
}

func TestCsvStoreSeparateSinksPerKind(t *testing.T) {
	dir := t.TempDir()
	store, err := NewCsvHouseStore(dir, domain.OfferingRent)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = store.SaveDetail(ctx, testDetail(1))
	require.NoError(t, err)
	require.NoError(t, store.SaveImageRef(ctx, 1, 123456789, "https://cloud.funda.nl/valentina_media/123/456/789_720x480.jpg"))
	require.NoError(t, store.SaveListingSummary(ctx, &domain.Property{
		ID:          1,
		Address:     domain.Address{City: "Amsterdam"},
		RelativeURL: "/en/huur/amsterdam/huis-1/",
	}))
	require.NoError(t, store.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	images := readCSV(t, singleFile(t, dir, "images"))
	require.Equal(t, []string{"house_id", "photo_id", "url"}, images[0])
	require.Equal(t, "123456789", images[1][1])
}

func TestCsvStoreFileNaming(t *testing.T) {
	dir := t.TempDir()
	store, err := NewCsvHouseStore(dir, domain.OfferingBuy)
	require.NoError(t, err)

	_, err = store.SaveDetail(context.Background(), testDetail(1))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	name := filepath.Base(singleFile(t, dir, "detail"))
	require.True(t, strings.HasPrefix(name, "1_detail_buy_"), "got %s", name)

	// следующий запуск в том же каталоге получает следующий номер
	second, err := NewCsvHouseStore(dir, domain.OfferingBuy)
	require.NoError(t, err)
	_, err = second.SaveDetail(context.Background(), testDetail(2))
	require.NoError(t, err)
	require.NoError(t, second.Close())

	matches, err := filepath.Glob(filepath.Join(dir, "*_detail_buy_*.csv"))
	require.NoError(t, err)
	require.Len(t, matches, 2)
}

func TestCsvStoreAlwaysReportsCreated(t *testing.T) {
	store, err := NewCsvHouseStore(t.TempDir(), domain.OfferingRent)
	require.NoError(t, err)
	defer store.Close()

	outcome, err := store.SaveDetail(context.Background(), testDetail(1))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeCreated, outcome)

	// повторная запись того же объявления тоже дописывается
	outcome, err = store.SaveDetail(context.Background(), testDetail(1))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeCreated, outcome)
}
