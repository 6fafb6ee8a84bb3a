package extractor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseProfilesValid(t *testing.T) {
	set, err := ParseProfiles([]byte(testProfileJSON))
	require.NoError(t, err)

	profile, ok := set["rent"]
	require.True(t, ok)
	require.Equal(t, "//span[@id='status']/text()", profile.StatusCheckXPath)
	require.Contains(t, profile.Common, "price")
	require.Equal(t, []string{"price"}, profile.Essential)
}

func TestParseProfilesDefaultsEssential(t *testing.T) {
	raw := `{"buy": {"common": {"price": "//span/text()"}}}`
	set, err := ParseProfiles([]byte(raw))
	require.NoError(t, err)
	require.Equal(t, []string{"price"}, set["buy"].Essential)
}

func TestParseProfilesRejectsUnknownOffering(t *testing.T) {
	raw := `{"lease": {"common": {"price": "//span/text()"}}}`
	_, err := ParseProfiles([]byte(raw))
	require.Error(t, err)
	require.Contains(t, err.Error(), "schema validation")
}

func TestParseProfilesRejectsMissingCommon(t *testing.T) {
	raw := `{"rent": {"essential": ["price"]}}`
	_, err := ParseProfiles([]byte(raw))
	require.Error(t, err)
}

func TestParseProfilesRejectsUnknownSection(t *testing.T) {
	raw := `{"rent": {"common": {"price": "//span/text()"}, "withdrawn": {}}}`
	_, err := ParseProfiles([]byte(raw))
	require.Error(t, err)
}

func TestParseProfilesRejectsInvalidJSON(t *testing.T) {
	_, err := ParseProfiles([]byte(`{"rent": `))
	require.Error(t, err)
	require.Contains(t, err.Error(), "not valid JSON")
}

func TestParseProfilesRejectsEmptySelector(t *testing.T) {
	raw := `{"rent": {"common": {"price": ""}}}`
	_, err := ParseProfiles([]byte(raw))
	require.Error(t, err)
}

func TestShippedProfileLoads(t *testing.T) {
	set, err := LoadProfiles("../../../configs/funda_profile.json")
	require.NoError(t, err)

	require.Contains(t, set, "rent")
	require.Contains(t, set, "buy")
	for offering, profile := range set {
		require.NotEmpty(t, profile.Common, "offering %s", offering)
		require.NotEmpty(t, profile.Essential, "offering %s", offering)
	}
}
