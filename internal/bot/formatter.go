package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gw2webhooks/internal/gw2api"
	"gw2webhooks/internal/markup"
	"gw2webhooks/internal/wvw"
)

// Use "teal" color for population updates
const color int = 0x008080

// Embed color of each team
var teamColors = map[gw2api.Color]int{
	gw2api.Red:   0xD32F2F,
	gw2api.Green: 0x28B463,
	gw2api.Blue:  0x039BE5,
}

var teamSquares = map[gw2api.Color]string{
	gw2api.Red:   ":red_square:",
	gw2api.Green: ":green_square:",
	gw2api.Blue:  ":blue_square:",
}

var populationEmoji = map[wvw.Population]string{
	wvw.Full:     ":red_square:",
	wvw.VeryHigh: ":orange_square:",
	wvw.High:     ":yellow_square:",
	wvw.Medium:   ":green_square:",
	wvw.Low:      ":blue_square:",
}

const noLink = ":negative_squared_cross_mark:"

type FormatOptions struct {
	Timezones []*time.Location
	AMPM      bool
}

// Wall clock time in the location, "15:04 MST" or "03:04pm MST"
func FormatClock(t time.Time, location *time.Location, ampm bool) markup.Text {
	local := t.In(location)
	clock := local.Format("15:04")
	if ampm {
		clock = strings.ToLower(local.Format("03:04PM"))
	}
	return markup.Text{}.Bold(clock).Plain(" " + local.Format("MST"))
}

// The same instant in every timezone, separated by slashes
func FormatTimes(t time.Time, options FormatOptions) markup.Text {
	text := markup.Text{}
	for i, location := range options.Timezones {
		if i > 0 {
			text = text.Plain(" / ")
		}
		text = text.Append(FormatClock(t, location, options.AMPM))
	}
	return text
}

// Duration rounded up to the minute. Days are only shown when more
// than 24h 59m are left, and hours only when more than 59m are left
func FormatDuration(d time.Duration) markup.Text {

	if d < 0 {
		d = 0
	}
	if d%time.Minute != 0 {
		d = d.Truncate(time.Minute) + time.Minute
	}
	days := int(d / (24 * time.Hour))
	hours := int(d % (24 * time.Hour) / time.Hour)
	minutes := int(d % time.Hour / time.Minute)

	text := markup.Text{}
	if days == 1 && hours == 0 {
		hours = 24
	} else if days > 0 {
		text = text.Bold(strconv.Itoa(days)).Plain("d ")
	}
	if days > 0 || hours > 0 {
		text = text.Bold(strconv.Itoa(hours)).Plain("h ")
	}
	return text.Bold(strconv.Itoa(minutes)).Plain("m")
}

// Main world plus its linked worlds in parenthesis, the home world underlined
func FormatWorldName(home gw2api.WorldId, main gw2api.WorldId, linked []gw2api.WorldId, names map[gw2api.WorldId]string) markup.Text {

	text := worldName(markup.Text{}, home, main, names)
	for i, world := range linked {
		if i == 0 {
			text = text.Plain(" (+ ")
		} else {
			text = text.Plain(", ")
		}
		text = worldName(text, home, world, names)
	}
	if len(linked) > 0 {
		text = text.Plain(")")
	}
	return text
}

func worldName(text markup.Text, home gw2api.WorldId, world gw2api.WorldId, names map[gw2api.WorldId]string) markup.Text {
	name, ok := names[world]
	if !ok {
		name = "World " + world.String()
	}
	if world == home {
		return text.Underline(name)
	}
	return text.Plain(name)
}

func MatchesTitle(reset time.Time) string {
	return fmt.Sprintf("%s Reset Matchup Prediction", reset.UTC().Format(time.DateOnly))
}

// Prediction of the next matchup in the description, the
// standings of the current match in a field
func FormatMatches(result *wvw.MatchResult, previous *wvw.MatchResult, options FormatOptions, now time.Time) Notification {

	prediction := result.Prediction

	description := markup.Text{}
	if len(options.Timezones) > 0 {
		description = description.Plain("at ").Append(FormatTimes(result.Reset, options)).Plain("\nor ")
	}
	description = description.Append(FormatDuration(result.Reset.Sub(now))).Plain(" from this post.\n\n")
	description = description.Bold(fmt.Sprintf("Tier %d", prediction.Tier))
	for _, c := range gw2api.Colors {
		description = description.Plain("\n" + teamSquares[c] + " ")
		description = description.Append(FormatWorldName(result.World, prediction.Mains.Get(c), prediction.Linked.Get(c), result.WorldNames))
	}
	if previous != nil && previous.Reset.Equal(result.Reset) && !previous.Prediction.SameOpponents(prediction) {
		description = description.Plain("\n\n").Italic("The opponents have changed since last prediction!")
	}

	return Notification{
		Title:       MatchesTitle(result.Reset),
		Description: description,
		Fields:      []Field{{Name: "Current Match", Value: formatStandings(result, options)}},
		Color:       teamColors[prediction.Color],
		Timestamp:   now,
	}
}

func formatStandings(result *wvw.MatchResult, options FormatOptions) markup.Text {

	text := markup.Text{}.Bold(fmt.Sprintf("Tier %d", result.Tier))
	if result.Skirmish > 0 {
		text = text.Plain(fmt.Sprintf(", skirmish %d", result.Skirmish))
		if len(options.Timezones) > 0 && !result.SkirmishEnd.IsZero() {
			text = text.Plain(" until ").Append(FormatTimes(result.SkirmishEnd, options))
		}
	}
	for _, side := range result.Sides {
		text = text.Plain("\n" + teamSquares[side.Color] + " ")
		text = text.Append(FormatWorldName(result.World, side.Main, side.Linked, result.WorldNames))
		text = text.Plain("\n").
			Bold(strconv.Itoa(side.Score)).Plain(" points, ").
			Bold(strconv.Itoa(side.VictoryPoints)).Plain(" VP, ").
			Bold(strconv.Itoa(side.PPT)).Plain(" PPT, ").
			Bold(strconv.Itoa(side.Kills)).Plain("/").Bold(strconv.Itoa(side.Deaths)).Plain(" K/D")
		if len(side.Bonuses) > 0 {
			text = text.Plain(" (" + strings.Join(side.Bonuses, ", ") + ")")
		}
	}
	return text
}

// Population emoji of the world, a trend arrow when the previous
// population is known, then the name
func FormatWorldPopulation(result *wvw.PopulationResult, previous *wvw.PopulationResult, world gw2api.WorldId) markup.Text {

	current := result.Population[world]
	text := markup.Text{}.Plain(populationEmoji[current])

	if previous != nil {
		if rank := previous.Population[world].Rank(); rank != 0 {
			switch {
			case current.Rank() > rank:
				text = text.Plain(" :arrow_upper_right:")
			case current.Rank() < rank:
				text = text.Plain(" :arrow_lower_right:")
			default:
				text = text.Plain(" :left_right_arrow:")
			}
		}
	}
	return worldName(text.Plain(" "), result.World, world, result.WorldNames)
}

func FormatPopulation(result *wvw.PopulationResult, previous *wvw.PopulationResult, now time.Time) Notification {

	mains := markup.Text{}
	linked1 := markup.Text{}
	linked2 := markup.Text{}
	twoLinks := false

	for i, main := range result.MainWorlds() {
		if i > 0 {
			mains = mains.Plain("\n")
			linked1 = linked1.Plain("\n")
			linked2 = linked2.Plain("\n")
		}
		mains = mains.Append(FormatWorldPopulation(result, previous, main))

		links := result.Links[main]
		switch len(links) {
		case 0:
			linked1 = linked1.Plain(noLink)
			linked2 = linked2.Plain(noLink)
		case 1:
			linked1 = linked1.Append(FormatWorldPopulation(result, previous, links[0]))
			linked2 = linked2.Plain(noLink)
		default:
			linked1 = linked1.Append(FormatWorldPopulation(result, previous, links[0]))
			linked2 = linked2.Append(FormatWorldPopulation(result, previous, links[1]))
			twoLinks = true
		}
	}

	fields := []Field{{Name: "Main Worlds", Value: mains, Inline: true}}
	if twoLinks {
		fields = append(fields,
			Field{Name: "Linked Worlds (1)", Value: linked1, Inline: true},
			Field{Name: "Linked Worlds (2)", Value: linked2, Inline: true})
	} else {
		fields = append(fields, Field{Name: "Linked Worlds", Value: linked1, Inline: true})
	}

	return Notification{
		Title:       "Population Update",
		Description: markup.Text{}.Plain("Next relink: " + result.Relink.UTC().Format(time.DateOnly)),
		Fields:      fields,
		Color:       color,
		Timestamp:   now,
	}
}
