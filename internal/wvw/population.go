package wvw

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"gw2webhooks/internal/gw2api"
)

type Population string

const (
	Low      Population = "Low"
	Medium   Population = "Medium"
	High     Population = "High"
	VeryHigh Population = "VeryHigh"
	Full     Population = "Full"
)

// Rank of the population, 0 when unknown
func (p Population) Rank() int {
	switch p {
	case Low:
		return 1
	case Medium:
		return 2
	case High:
		return 3
	case VeryHigh:
		return 4
	case Full:
		return 5
	default:
		return 0
	}
}

// Snapshot of the population of every world in the region of the home world
type PopulationResult struct {
	World      gw2api.WorldId                      `json:"world"`
	Region     Region                              `json:"region"`
	Population map[gw2api.WorldId]Population       `json:"population"`
	Links      map[gw2api.WorldId][]gw2api.WorldId `json:"links"`
	WorldNames map[gw2api.WorldId]string           `json:"world_names"`
	Relink     time.Time                           `json:"relink"`
}

// Build the result for the region of the home world. Population and names
// are added later with SetWorlds, once the worlds have been requested
func NewPopulationResult(world gw2api.WorldId, matches []gw2api.Match, now time.Time, relinkAnchor time.Time, relinkWeeks int) (*PopulationResult, error) {

	match, _, err := findMatch(world, matches)
	if err != nil {
		return nil, err
	}
	region, _, err := ParseMatchId(match.Id)
	if err != nil {
		return nil, err
	}

	result := &PopulationResult{
		World:      world,
		Region:     region,
		Population: map[gw2api.WorldId]Population{},
		Links:      map[gw2api.WorldId][]gw2api.WorldId{},
		WorldNames: map[gw2api.WorldId]string{},
		Relink:     NextRelink(region, now, relinkAnchor, relinkWeeks),
	}
	for _, m := range matches {
		if r, _, err := ParseMatchId(m.Id); err != nil || r != region {
			continue
		}
		for _, color := range gw2api.Colors {
			main := m.Worlds.Get(color)
			result.Links[main] = LinkedWorlds(matches, main)
		}
	}
	return result, nil
}

// Every world in the region, mains and links
func (result *PopulationResult) WorldIds() []gw2api.WorldId {
	ids := []gw2api.WorldId{}
	for main, linked := range result.Links {
		ids = append(ids, main)
		ids = append(ids, linked...)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

func (result *PopulationResult) SetWorlds(worlds []gw2api.World) {
	for _, world := range worlds {
		result.Population[world.Id] = Population(world.Population)
		result.WorldNames[world.Id] = world.Name
	}
}

// Main worlds sorted by name
func (result *PopulationResult) MainWorlds() []gw2api.WorldId {
	mains := make([]gw2api.WorldId, 0, len(result.Links))
	for main := range result.Links {
		mains = append(mains, main)
	}
	slices.SortFunc(mains, func(a, b gw2api.WorldId) int {
		return cmp.Or(strings.Compare(result.WorldNames[a], result.WorldNames[b]), cmp.Compare(a, b))
	})
	return mains
}
