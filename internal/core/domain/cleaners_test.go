package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanPrice(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"€ 3,250 /maand", 3250},
		{"€ 450.000 k.k.", 450000},
		{"€ 1,195", 1195},
		{"Prijzen op aanvraag", 0},
		{"", 0},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, CleanPrice(tc.raw), "raw=%q", tc.raw)
	}
}

func TestCleanArea(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"118 m²", 118},
		{"1,250 m²", 1},
		{"geen", 0},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, CleanArea(tc.raw), "raw=%q", tc.raw)
	}
}

func TestCleanCount(t *testing.T) {
	require.Equal(t, 4, CleanCount("4 rooms (3 bedrooms)"))
	require.Equal(t, 0, CleanCount("studio"))
}

func TestCleanYear(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"Built in 1931", 1931},
		{"2021", 2021},
		{"After 2030", 2030},
		{"131", 0},
		{"", 0},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, CleanYear(tc.raw), "raw=%q", tc.raw)
	}
}

func TestCleanText(t *testing.T) {
	require.Equal(t, "De Pijp, Amsterdam", CleanText("  De Pijp,\n\t Amsterdam  "))
	require.Equal(t, "", CleanText(" \n "))
}

func TestCleanPostCode(t *testing.T) {
	require.Equal(t, "1075 AB", CleanPostCode("1075ab"))
	require.Equal(t, "1075 AB", CleanPostCode(" 1075 AB "))
	require.Equal(t, "DEN HAAG", CleanPostCode("den haag"))
}
