package gw2api

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"gw2webhooks/internal/common"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

// Public Guild Wars 2 API
const API_URL = "https://api.guildwars2.com/v2"

// Routes inside the API
const ROUTE_MATCHES = "/wvw/matches?ids=all"
const ROUTE_WORLDS = "/worlds?ids=%s"

// Maximum number of ids accepted by the bulk endpoints
const maxIdsPerRequest = 200

// Chunks requested at the same time
const maxConcurrentRequests = 4

// The API allows 600 requests per minute
var DefaultRestrictions = []common.Restriction{{Requests: 600, Duration: time.Minute}}

type Client struct {
	baseURL    string
	proxy      *common.Proxy
	worldNames map[WorldId]string
}

func NewClient(baseURL string, timeout time.Duration) *Client {

	if baseURL == "" {
		baseURL = API_URL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		proxy:      common.NewProxy(map[string]string{"User-Agent": "gw2webhooks"}, timeout, DefaultRestrictions),
		worldNames: map[WorldId]string{},
	}
}

// Get every match currently running, in all regions
func (client *Client) GetMatches(ctx context.Context) ([]Match, error) {

	url := client.baseURL + ROUTE_MATCHES
	data, err := client.request(ctx, url)
	if err != nil {
		return nil, err
	}

	matches, err := UnmarshalMatches(data)
	if err != nil {
		return nil, common.MalformedResponse(url, err)
	}
	log.Debug().Msg(fmt.Sprintf("Received %d matches", len(matches)))
	return matches, nil
}

// Get name and population of the provided worlds.
// Populations change, so this always goes to the API,
// but the names learnt are kept in the cache
func (client *Client) GetWorlds(ctx context.Context, ids []WorldId) ([]World, error) {

	requests := pool.NewWithResults[[]World]().
		WithMaxGoroutines(maxConcurrentRequests).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()
	for chunk := range slices.Chunk(uniqueIds(ids), maxIdsPerRequest) {
		requests.Go(func(ctx context.Context) ([]World, error) {
			url := client.baseURL + fmt.Sprintf(ROUTE_WORLDS, joinIds(chunk))
			data, err := client.request(ctx, url)
			if err != nil {
				return nil, err
			}
			received, err := UnmarshalWorlds(data)
			if err != nil {
				return nil, common.MalformedResponse(url, err)
			}
			return received, nil
		})
	}
	chunks, err := requests.Wait()
	if err != nil {
		return nil, err
	}
	worlds := slices.Concat(chunks...)
	slices.SortFunc(worlds, func(a, b World) int { return int(a.Id) - int(b.Id) })

	// Update cache
	for _, world := range worlds {
		client.worldNames[world.Id] = world.Name
	}
	return worlds, nil
}

// Get the names of the provided worlds, asking the API only for
// the ones not in the cache
func (client *Client) GetWorldNames(ctx context.Context, ids []WorldId) (map[WorldId]string, error) {

	missing := []WorldId{}
	for _, id := range ids {
		if _, ok := client.worldNames[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		log.Debug().Msg(fmt.Sprintf("%d world names are not in the cache", len(missing)))
		if _, err := client.GetWorlds(ctx, missing); err != nil {
			return nil, err
		}
	}

	names := make(map[WorldId]string, len(ids))
	for _, id := range ids {
		name, ok := client.worldNames[id]
		if !ok {
			return nil, errors.Newf("could not find name for world %d", id)
		}
		names[id] = name
	}
	return names, nil
}

// Forget the cached world names. Names are rarely renamed,
// but ids come and go with restructurings
func (client *Client) Housekeeping() {
	log.Info().Msg(fmt.Sprintf("Purging %d cached world names", len(client.worldNames)))
	client.worldNames = map[WorldId]string{}
}

func (client *Client) request(ctx context.Context, url string) ([]byte, error) {
	log.Debug().Msg(fmt.Sprintf("Requesting to url %s", url))
	return client.proxy.Request(ctx, url)
}

func uniqueIds(ids []WorldId) []WorldId {
	unique := slices.Clone(ids)
	slices.Sort(unique)
	return slices.Compact(unique)
}

func joinIds(ids []WorldId) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}
