package gw2api

import (
	"github.com/bytedance/sonic"
)

func UnmarshalMatches(data []byte) ([]Match, error) {

	var matches []Match
	if err := sonic.Unmarshal(data, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

func UnmarshalWorlds(data []byte) ([]World, error) {

	var worlds []World
	if err := sonic.Unmarshal(data, &worlds); err != nil {
		return nil, err
	}
	return worlds, nil
}
