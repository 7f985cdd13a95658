package bot

import (
	"context"
	"time"

	"gw2webhooks/internal/gw2api"
	"gw2webhooks/internal/wvw"
)

// Subset of the GW2 API the jobs need
type API interface {
	GetMatches(ctx context.Context) ([]gw2api.Match, error)
	GetWorlds(ctx context.Context, ids []gw2api.WorldId) ([]gw2api.World, error)
	GetWorldNames(ctx context.Context, ids []gw2api.WorldId) (map[gw2api.WorldId]string, error)
}

// Standings of the match of the home world and prediction of the next one
type MatchesJob struct {
	api     API
	world   gw2api.WorldId
	options FormatOptions
}

func NewMatchesJob(api API, world gw2api.WorldId, options FormatOptions) *MatchesJob {
	return &MatchesJob{api: api, world: world, options: options}
}

func (job *MatchesJob) Fetch(ctx context.Context, now time.Time) (wvw.MatchResult, error) {

	matches, err := job.api.GetMatches(ctx)
	if err != nil {
		return wvw.MatchResult{}, err
	}
	result, err := wvw.NewMatchResult(job.world, matches, now)
	if err != nil {
		return wvw.MatchResult{}, err
	}
	names, err := job.api.GetWorldNames(ctx, result.WorldIds())
	if err != nil {
		return wvw.MatchResult{}, err
	}
	result.WorldNames = names
	return *result, nil
}

func (job *MatchesJob) Format(current wvw.MatchResult, previous *wvw.MatchResult, now time.Time) Notification {
	return FormatMatches(&current, previous, job.options, now)
}

// Population of every world in the region of the home world
type PopulationJob struct {
	api          API
	world        gw2api.WorldId
	relinkAnchor time.Time
	relinkWeeks  int
}

func NewPopulationJob(api API, world gw2api.WorldId, relinkAnchor time.Time, relinkWeeks int) *PopulationJob {
	return &PopulationJob{api: api, world: world, relinkAnchor: relinkAnchor, relinkWeeks: relinkWeeks}
}

func (job *PopulationJob) Fetch(ctx context.Context, now time.Time) (wvw.PopulationResult, error) {

	matches, err := job.api.GetMatches(ctx)
	if err != nil {
		return wvw.PopulationResult{}, err
	}
	result, err := wvw.NewPopulationResult(job.world, matches, now, job.relinkAnchor, job.relinkWeeks)
	if err != nil {
		return wvw.PopulationResult{}, err
	}
	worlds, err := job.api.GetWorlds(ctx, result.WorldIds())
	if err != nil {
		return wvw.PopulationResult{}, err
	}
	result.SetWorlds(worlds)
	return *result, nil
}

func (job *PopulationJob) Format(current wvw.PopulationResult, previous *wvw.PopulationResult, now time.Time) Notification {
	return FormatPopulation(&current, previous, now)
}
