package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConstructionPeriodForYear(t *testing.T) {
	cases := []struct {
		year int
		want ConstructionPeriod
	}{
		{0, PeriodUnknown},
		{1890, PeriodBefore1906},
		{1906, Period1906To1930},
		{1930, Period1906To1930},
		{1931, Period1931To1944},
		{2010, Period2001To2010},
		{2011, Period2011To2020},
		{2021, PeriodAfter2020},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ConstructionPeriodForYear(tc.year), "year=%d", tc.year)
	}
}

func TestConstructionPeriodsForRange(t *testing.T) {
	got := ConstructionPeriodsForRange(1928, 1946)
	require.Equal(t, []ConstructionPeriod{
		Period1906To1930, Period1931To1944, Period1945To1959,
	}, got)

	// перевернутые границы нормализуются
	require.Equal(t, got, ConstructionPeriodsForRange(1946, 1928))

	require.Equal(t, []ConstructionPeriod{Period1991To2000}, ConstructionPeriodsForRange(1995, 1995))
}

func TestSearchParamsFromIndex(t *testing.T) {
	p := SearchParams{Page: 1}
	require.Equal(t, 0, p.FromIndex())
	require.Equal(t, 15, p.WithPage(2).FromIndex())
	require.Equal(t, 135, p.WithPage(10).FromIndex())

	// страница меньше единицы трактуется как первая
	require.Equal(t, 0, SearchParams{Page: 0}.FromIndex())
}

func TestParseOfferingType(t *testing.T) {
	got, err := ParseOfferingType("rent")
	require.NoError(t, err)
	require.Equal(t, OfferingRent, got)

	_, err = ParseOfferingType("lease")
	require.Error(t, err)
}

func TestImageURL(t *testing.T) {
	require.Equal(t,
		"https://cloud.funda.nl/valentina_media/123/456/789_720x480.jpg",
		ImageURL(123456789, "medium"))
	require.Equal(t,
		"https://cloud.funda.nl/valentina_media/000/012/345_360x240.jpg",
		ImageURL(12345, "small"))
	// неизвестный размер откатывается к среднему
	require.Equal(t,
		"https://cloud.funda.nl/valentina_media/000/012/345_720x480.jpg",
		ImageURL(12345, "original"))
}
