package features

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betpulse/pkg/contracts/domain"
)

func testConfig() Config {
	return Config{
		TrackCategories:    []string{"Horse Racing", "Greyhound Racing", "Harness Racing"},
		RegionFallback:     "AU",
		UnclassifiedRegion: "Unclassified",
	}
}

func TestParseMarket(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        MarketFields
	}{
		{
			name:        "full track description",
			description: "Horse Racing/Ascot (UK): 3:15 Handicap",
			want: MarketFields{
				Category:    "Horse Racing",
				EntityRaw:   "Ascot (UK)",
				EntityName:  "Ascot",
				EventDetail: "3:15 Handicap",
				Region:      "UK",
				TrackBased:  true,
			},
		},
		{
			name:        "track with no region code gets fallback",
			description: "Greyhound Racing/Wentworth Park: R5 520m",
			want: MarketFields{
				Category:    "Greyhound Racing",
				EntityRaw:   "Wentworth Park",
				EntityName:  "Wentworth Park",
				EventDetail: "R5 520m",
				Region:      "AU",
				TrackBased:  true,
			},
		},
		{
			name:        "track with date token in name",
			description: "Horse Racing/Flemington 3rd Aug (AUS): R7 Sprint",
			want: MarketFields{
				Category:    "Horse Racing",
				EntityRaw:   "Flemington 3rd Aug (AUS)",
				EntityName:  "Flemington",
				EventDetail: "R7 Sprint",
				Region:      "AUS",
				TrackBased:  true,
			},
		},
		{
			name:        "non-track category keeps sentinel region",
			description: "Soccer/Arsenal (UK): Match Odds",
			want: MarketFields{
				Category:   "Soccer",
				Region:     "Unclassified",
				TrackBased: false,
			},
		},
		{
			name:        "no separator fails open",
			description: "Tennis Match Odds",
			want: MarketFields{
				Category:   "Tennis Match Odds",
				Region:     "Unclassified",
				TrackBased: false,
			},
		},
		{
			name:        "track category with no separator keeps fallback region",
			description: "Horse Racing",
			want: MarketFields{
				Category:   "Horse Racing",
				Region:     "AU",
				TrackBased: true,
			},
		},
		{
			name:        "track without event detail",
			description: "Harness Racing/Menangle (AU)",
			want: MarketFields{
				Category:   "Harness Racing",
				EntityRaw:  "Menangle (AU)",
				EntityName: "Menangle",
				Region:     "AU",
				TrackBased: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMarket(tt.description, testConfig())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEntityName_StripsDateTokens(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Ascot (UK)", "Ascot"},
		{"Flemington 3rd Aug", "Flemington"},
		{"Aug 3rd Flemington", "Flemington"},
		{"Randwick 2024-08-03", "Randwick"},
		{"Randwick 03/08", "Randwick"},
		{"Sandown  Lakeside", "Sandown Lakeside"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, entityName(tt.raw))
		})
	}
}

func TestEnrich_IsPureAndDeterministic(t *testing.T) {
	rows := []domain.Transaction{
		{
			MarketDescription: "Horse Racing/Ascot (UK): 3:15 Handicap",
			SettledAt:         time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
			OutcomeAmount:     decimal.RequireFromString("10.00"),
		},
		{
			MarketDescription: "Soccer/Arsenal: Match Odds",
			SettledAt:         time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
			OutcomeAmount:     decimal.RequireFromString("-2.00"),
		},
	}
	original := make([]domain.Transaction, len(rows))
	copy(original, rows)

	first := Enrich(rows, testConfig())
	second := Enrich(rows, testConfig())

	assert.Equal(t, first, second)
	assert.Equal(t, original, rows)

	require.Len(t, first, 2)
	assert.Equal(t, "Ascot", first[0].EntityName)
	assert.Equal(t, "UK", first[0].Region)
	assert.True(t, first[0].TrackBased)
	assert.Equal(t, "Soccer", first[1].Category)
	assert.Equal(t, "Unclassified", first[1].Region)
	assert.False(t, first[1].TrackBased)
}

func TestEnrich_EmptyLedger(t *testing.T) {
	assert.Empty(t, Enrich(nil, testConfig()))
}
