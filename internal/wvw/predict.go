package wvw

import (
	"fmt"
	"slices"

	"gw2webhooks/internal/gw2api"

	"github.com/cockroachdb/errors"
)

// Expected matchup after the next reset
type Prediction struct {
	Tier   int                               `json:"tier"`
	Color  gw2api.Color                      `json:"color"`
	Mains  gw2api.PerColor[gw2api.WorldId]   `json:"mains"`
	Linked gw2api.PerColor[[]gw2api.WorldId] `json:"linked"`
}

// Teams of a match sorted by victory points, best first
func Ranking(match *gw2api.Match) []gw2api.Color {

	ranking := []gw2api.Color{gw2api.Red, gw2api.Blue, gw2api.Green}
	slices.SortStableFunc(ranking, func(a, b gw2api.Color) int {
		return match.VictoryPoints.Get(b) - match.VictoryPoints.Get(a)
	})
	return ranking
}

// The opponents are the same if the three main worlds are the same
func (p Prediction) SameOpponents(other Prediction) bool {
	return p.Mains == other.Mains
}

// Predict the next matchup of the world from the current victory points.
// The winner of a tier moves up as red, the second stays as blue
// and the last one moves down as green. The first and last tiers
// have nowhere to move to, so they keep their team instead
func Predict(world gw2api.WorldId, matches []gw2api.Match) (Prediction, error) {

	current, color, err := findMatch(world, matches)
	if err != nil {
		return Prediction{}, err
	}
	region, tier, err := ParseMatchId(current.Id)
	if err != nil {
		return Prediction{}, err
	}
	tiers := tierCount(region, matches)
	main := current.Worlds.Get(color)

	var p Prediction
	ranking := Ranking(current)
	switch color {
	case ranking[0]:
		if tier == 1 {
			// Nothing above
			p.Tier = tier
			p.Color = gw2api.Green
		} else {
			p.Tier = tier - 1
			p.Color = gw2api.Red
		}
	case ranking[1]:
		p.Tier = tier
		p.Color = gw2api.Blue
	default:
		if tier == tiers {
			// Nothing below
			p.Tier = tier
			p.Color = gw2api.Red
		} else {
			p.Tier = tier + 1
			p.Color = gw2api.Green
		}
	}
	setMain(&p.Mains, p.Color, main)

	// Fill the other two teams from the neighbouring tiers
	if p.Color != gw2api.Green {
		var source *gw2api.Match
		var rank int
		if p.Tier == 1 {
			source, rank = matchWithId(matches, region, 1), 0
		} else {
			source, rank = matchWithId(matches, region, p.Tier-1), 2
		}
		if source == nil {
			return Prediction{}, missingTier(region, p.Tier-1)
		}
		p.Mains.Green = source.Worlds.Get(Ranking(source)[rank])
	}
	if p.Color != gw2api.Blue {
		source := matchWithId(matches, region, p.Tier)
		if source == nil {
			return Prediction{}, missingTier(region, p.Tier)
		}
		p.Mains.Blue = source.Worlds.Get(Ranking(source)[1])
	}
	if p.Color != gw2api.Red {
		var source *gw2api.Match
		var rank int
		if p.Tier == tiers {
			source, rank = matchWithId(matches, region, tiers), 2
		} else {
			source, rank = matchWithId(matches, region, p.Tier+1), 0
		}
		if source == nil {
			return Prediction{}, missingTier(region, p.Tier+1)
		}
		p.Mains.Red = source.Worlds.Get(Ranking(source)[rank])
	}

	p.Linked = gw2api.PerColor[[]gw2api.WorldId]{
		Red:   LinkedWorlds(matches, p.Mains.Red),
		Blue:  LinkedWorlds(matches, p.Mains.Blue),
		Green: LinkedWorlds(matches, p.Mains.Green),
	}
	return p, nil
}

// Every world of the prediction, mains and links
func (p Prediction) WorldIds() []gw2api.WorldId {
	ids := []gw2api.WorldId{}
	for _, color := range gw2api.Colors {
		ids = append(ids, p.Mains.Get(color))
		ids = append(ids, p.Linked.Get(color)...)
	}
	return ids
}

// Worlds linked to the provided main world, without the main world itself
func LinkedWorlds(matches []gw2api.Match, main gw2api.WorldId) []gw2api.WorldId {
	for i := range matches {
		for _, color := range gw2api.Colors {
			if matches[i].Worlds.Get(color) != main {
				continue
			}
			linked := []gw2api.WorldId{}
			for _, world := range matches[i].AllWorlds.Get(color) {
				if world != main {
					linked = append(linked, world)
				}
			}
			return linked
		}
	}
	return []gw2api.WorldId{}
}

func findMatch(world gw2api.WorldId, matches []gw2api.Match) (*gw2api.Match, gw2api.Color, error) {
	for i := range matches {
		if color, ok := matches[i].ColorOf(world); ok {
			return &matches[i], color, nil
		}
	}
	return nil, "", errors.Newf("world %d is not playing in any match", world)
}

func matchWithId(matches []gw2api.Match, region Region, tier int) *gw2api.Match {
	id := fmt.Sprintf("%d-%d", region, tier)
	for i := range matches {
		if matches[i].Id == id {
			return &matches[i]
		}
	}
	return nil
}

func tierCount(region Region, matches []gw2api.Match) int {
	count := 0
	for _, match := range matches {
		if r, _, err := ParseMatchId(match.Id); err == nil && r == region {
			count++
		}
	}
	return count
}

func setMain(mains *gw2api.PerColor[gw2api.WorldId], color gw2api.Color, world gw2api.WorldId) {
	switch color {
	case gw2api.Red:
		mains.Red = world
	case gw2api.Blue:
		mains.Blue = world
	case gw2api.Green:
		mains.Green = world
	}
}

func missingTier(region Region, tier int) error {
	return errors.Newf("match %d-%d is missing", region, tier)
}
