package wvw

import (
	"slices"
	"time"

	"gw2webhooks/internal/gw2api"
)

// One team of a running match
type Side struct {
	Color         gw2api.Color     `json:"color"`
	Main          gw2api.WorldId   `json:"main"`
	Linked        []gw2api.WorldId `json:"linked"`
	Score         int              `json:"score"`
	VictoryPoints int              `json:"victory_points"`
	Kills         int              `json:"kills"`
	Deaths        int              `json:"deaths"`
	PPT           int              `json:"ppt"`
	Bonuses       []string         `json:"bonuses"`
}

// Snapshot of the match the home world is playing
type MatchResult struct {
	World       gw2api.WorldId            `json:"world"`
	MatchId     string                    `json:"match_id"`
	Region      Region                    `json:"region"`
	Tier        int                       `json:"tier"`
	Color       gw2api.Color              `json:"color"`
	Sides       []Side                    `json:"sides"`
	Skirmish    int                       `json:"skirmish"`
	SkirmishEnd time.Time                 `json:"skirmish_end"`
	Start       time.Time                 `json:"start"`
	End         time.Time                 `json:"end"`
	Reset       time.Time                 `json:"reset"`
	Prediction  Prediction                `json:"prediction"`
	WorldNames  map[gw2api.WorldId]string `json:"world_names"`
}

// Build the result for the home world out of every running match
func NewMatchResult(world gw2api.WorldId, matches []gw2api.Match, now time.Time) (*MatchResult, error) {

	match, color, err := findMatch(world, matches)
	if err != nil {
		return nil, err
	}
	region, tier, err := ParseMatchId(match.Id)
	if err != nil {
		return nil, err
	}
	prediction, err := Predict(world, matches)
	if err != nil {
		return nil, err
	}

	result := &MatchResult{
		World:      world,
		MatchId:    match.Id,
		Region:     region,
		Tier:       tier,
		Color:      color,
		Start:      match.StartTime.UTC(),
		End:        match.EndTime.UTC(),
		Reset:      NextReset(region, now),
		Prediction: prediction,
		WorldNames: map[gw2api.WorldId]string{},
	}

	ppt := pointsPerTick(match)
	owned := bonuses(match)
	for _, c := range gw2api.Colors {
		result.Sides = append(result.Sides, Side{
			Color:         c,
			Main:          match.Worlds.Get(c),
			Linked:        LinkedWorlds(matches, match.Worlds.Get(c)),
			Score:         match.Scores.Get(c),
			VictoryPoints: match.VictoryPoints.Get(c),
			Kills:         match.Kills.Get(c),
			Deaths:        match.Deaths.Get(c),
			PPT:           ppt[c],
			Bonuses:       owned[c],
		})
	}

	// The last skirmish reported is the one being played
	for _, skirmish := range match.Skirmishes {
		result.Skirmish = max(result.Skirmish, skirmish.Id)
	}
	if result.Skirmish > 0 {
		result.SkirmishEnd = result.Start.Add(time.Duration(result.Skirmish) * SkirmishDuration)
		if !result.End.IsZero() && result.SkirmishEnd.After(result.End) {
			result.SkirmishEnd = result.End
		}
	}
	return result, nil
}

func (result *MatchResult) Side(color gw2api.Color) *Side {
	for i := range result.Sides {
		if result.Sides[i].Color == color {
			return &result.Sides[i]
		}
	}
	return nil
}

// Main worlds of the two other teams
func (result *MatchResult) Opponents() []gw2api.WorldId {
	opponents := []gw2api.WorldId{}
	for _, side := range result.Sides {
		if side.Color != result.Color {
			opponents = append(opponents, side.Main)
		}
	}
	return opponents
}

// Every world whose name is needed to render the result
func (result *MatchResult) WorldIds() []gw2api.WorldId {
	ids := []gw2api.WorldId{result.World}
	for _, side := range result.Sides {
		ids = append(ids, side.Main)
		ids = append(ids, side.Linked...)
	}
	ids = append(ids, result.Prediction.WorldIds()...)
	slices.Sort(ids)
	return slices.Compact(ids)
}

// Sum of the points every owned objective gives per tick
func pointsPerTick(match *gw2api.Match) map[gw2api.Color]int {
	ppt := map[gw2api.Color]int{}
	for _, m := range match.Maps {
		for _, objective := range m.Objectives {
			if color, ok := gw2api.OwnerColor(objective.Owner); ok {
				ppt[color] += objective.PointsTick
			}
		}
	}
	return ppt
}

func bonuses(match *gw2api.Match) map[gw2api.Color][]string {
	owned := map[gw2api.Color][]string{}
	for _, m := range match.Maps {
		for _, bonus := range m.Bonuses {
			if color, ok := gw2api.OwnerColor(bonus.Owner); ok {
				owned[color] = append(owned[color], bonus.Type)
			}
		}
	}
	return owned
}
