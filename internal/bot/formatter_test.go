package bot

import (
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"gw2webhooks/internal/gw2api"
	"gw2webhooks/internal/wvw"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	location, err := time.LoadLocation(name)
	require.NoError(t, err)
	return location
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{0, "**0**m"},
		{-time.Minute, "**0**m"},
		{30 * time.Second, "**1**m"},
		{59 * time.Minute, "**59**m"},
		{59*time.Minute + time.Second, "**1**h **0**m"},
		{time.Hour, "**1**h **0**m"},
		{24 * time.Hour, "**24**h **0**m"},
		{24*time.Hour + 59*time.Minute, "**24**h **59**m"},
		{24*time.Hour + 59*time.Minute + time.Second, "**1**d **1**h **0**m"},
		{51*time.Hour + 4*time.Minute, "**2**d **3**h **4**m"},
		{48 * time.Hour, "**2**d **0**h **0**m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatDuration(tt.duration).Markdown(), tt.duration.String())
	}
}

func TestFormatClock(t *testing.T) {
	berlin := mustLocation(t, "Europe/Berlin")
	newYork := mustLocation(t, "America/New_York")

	summer := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	winter := time.Date(2026, 12, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "**14:00** CEST", FormatClock(summer, berlin, false).Markdown())
	assert.Equal(t, "**13:00** CET", FormatClock(winter, berlin, false).Markdown())
	assert.Equal(t, "**07:00am** EST", FormatClock(winter, newYork, true).Markdown())
	assert.Equal(t, "**10:30pm** CEST", FormatClock(summer.Add(8*time.Hour+30*time.Minute), berlin, true).Markdown())

	// Last reset before and first reset after the end of summer time
	assert.Equal(t, "**20:00** CEST", FormatClock(time.Date(2026, 10, 23, 18, 0, 0, 0, time.UTC), berlin, false).Markdown())
	assert.Equal(t, "**19:00** CET", FormatClock(time.Date(2026, 10, 30, 18, 0, 0, 0, time.UTC), berlin, false).Markdown())
}

func TestFormatWorldName(t *testing.T) {
	names := map[gw2api.WorldId]string{2008: "Kodash", 2013: "Fort Ranik", 2014: "Ruins of Surmia"}

	assert.Equal(t, "__Kodash__", FormatWorldName(2008, 2008, nil, names).Markdown())
	assert.Equal(t, "Kodash (+ __Fort Ranik__, Ruins of Surmia)", FormatWorldName(2013, 2008, []gw2api.WorldId{2013, 2014}, names).Markdown())
	assert.Equal(t, "World 1001", FormatWorldName(2008, 1001, nil, names).Markdown())
}

func TestFormatMatches(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	result, err := wvw.NewMatchResult(2008, fixtureMatches(), now)
	require.NoError(t, err)
	result.WorldNames = fixtureNames

	options := FormatOptions{Timezones: []*time.Location{mustLocation(t, "Europe/Berlin"), mustLocation(t, "America/New_York")}}
	notification := FormatMatches(result, nil, options, now)

	assert.Equal(t, "2026-10-23 Reset Matchup Prediction", notification.Title)
	assert.Equal(t, 0x28B463, notification.Color)
	assert.Equal(t, now, notification.Timestamp)
	assert.Equal(t, "at **20:00** CEST / **14:00** EDT\n"+
		"or **4**d **6**h **0**m from this post.\n\n"+
		"**Tier 1**\n"+
		":green_square: __Kodash__ (+ Fort Ranik)\n"+
		":blue_square: Jade Sea\n"+
		":red_square: Blacktide", notification.Description.Markdown())

	require.Len(t, notification.Fields, 1)
	standings := notification.Fields[0].Value.Markdown()
	assert.Contains(t, standings, ":red_square: __Kodash__ (+ Fort Ranik)\n**100** points, **5** VP")
	assert.Contains(t, standings, ":blue_square: Blacktide\n**50** points")
	assert.Contains(t, standings, ":green_square: Jade Sea\n**75** points")

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, notification, FormatMatches(result, nil, options, now))
	})

	t.Run("without timezones", func(t *testing.T) {
		plain := FormatMatches(result, nil, FormatOptions{}, now)
		assert.True(t, strings.HasPrefix(plain.Description.Markdown(), "**4**d **6**h **0**m from this post."))
	})

	t.Run("opponents changed", func(t *testing.T) {
		previous := *result
		previous.Prediction.Mains.Blue = 2101
		changed := FormatMatches(result, &previous, options, now)
		assert.Contains(t, changed.Description.Markdown(), "*The opponents have changed since last prediction!*")

		unchanged := FormatMatches(result, result, options, now)
		assert.NotContains(t, unchanged.Description.Markdown(), "opponents have changed")
	})

	t.Run("skirmish end in every timezone", func(t *testing.T) {
		skirmish := *result
		skirmish.Skirmish = 3
		skirmish.SkirmishEnd = time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
		field := FormatMatches(&skirmish, nil, options, now).Fields[0].Value.Markdown()
		assert.Contains(t, field, "**Tier 1**, skirmish 3 until **02:00** CEST / **20:00** EDT")
	})
}

func populationFixture() *wvw.PopulationResult {
	return &wvw.PopulationResult{
		World:  2013,
		Region: wvw.EU,
		Population: map[gw2api.WorldId]wvw.Population{
			2008: wvw.VeryHigh, 2013: wvw.High, 2101: wvw.Full, 2202: wvw.Medium, 2206: wvw.Low, 2207: wvw.Low,
		},
		Links: map[gw2api.WorldId][]gw2api.WorldId{
			2008: {2013},
			2101: {},
			2202: {2207, 2206},
		},
		WorldNames: map[gw2api.WorldId]string{
			2008: "Kodash", 2013: "Abaddon's Mouth", 2101: "Blacktide", 2202: "Jade Sea", 2206: "Fissure of Woe", 2207: "Underworld",
		},
		Relink: time.Date(2026, 10, 30, 18, 0, 0, 0, time.UTC),
	}
}

func TestFormatPopulation(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	result := populationFixture()

	notification := FormatPopulation(result, nil, now)
	assert.Equal(t, "Population Update", notification.Title)
	assert.Equal(t, "Next relink: 2026-10-30", notification.Description.Markdown())
	assert.Equal(t, 0x008080, notification.Color)

	require.Len(t, notification.Fields, 3)
	assert.Equal(t, "Main Worlds", notification.Fields[0].Name)
	assert.Equal(t, ":red_square: Blacktide\n:green_square: Jade Sea\n:orange_square: Kodash", notification.Fields[0].Value.Markdown())
	assert.Equal(t, "Linked Worlds (1)", notification.Fields[1].Name)
	assert.Equal(t, ":negative_squared_cross_mark:\n:blue_square: Underworld\n:yellow_square: __Abaddon's Mouth__", notification.Fields[1].Value.Markdown())
	assert.Equal(t, "Linked Worlds (2)", notification.Fields[2].Name)
	assert.Equal(t, ":negative_squared_cross_mark:\n:blue_square: Fissure of Woe\n:negative_squared_cross_mark:", notification.Fields[2].Value.Markdown())

	t.Run("trend against the previous population", func(t *testing.T) {
		previous := populationFixture()
		previous.Population = map[gw2api.WorldId]wvw.Population{2008: wvw.Full, 2101: wvw.Full, 2202: wvw.Low}

		trend := FormatPopulation(result, previous, now)
		assert.Equal(t, ":red_square: :left_right_arrow: Blacktide\n"+
			":green_square: :arrow_upper_right: Jade Sea\n"+
			":orange_square: :arrow_lower_right: Kodash", trend.Fields[0].Value.Markdown())
		// No previous population, no arrow
		assert.Contains(t, trend.Fields[1].Value.Markdown(), ":blue_square: Underworld")
	})

	t.Run("single links", func(t *testing.T) {
		single := populationFixture()
		single.Links[2202] = []gw2api.WorldId{2207}

		fields := FormatPopulation(single, nil, now).Fields
		require.Len(t, fields, 2)
		assert.Equal(t, "Linked Worlds", fields[1].Name)
	})
}
