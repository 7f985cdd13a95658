package gw2api

import (
	"fmt"
	"strings"
	"time"
)

type WorldId int

type Color string

const (
	Red   Color = "red"
	Blue  Color = "blue"
	Green Color = "green"
)

// Display order used everywhere in the messages
var Colors = []Color{Green, Blue, Red}

// Values attached to each of the three teams of a match
type PerColor[T any] struct {
	Red   T `json:"red"`
	Blue  T `json:"blue"`
	Green T `json:"green"`
}

func (pc PerColor[T]) Get(color Color) T {
	switch color {
	case Red:
		return pc.Red
	case Blue:
		return pc.Blue
	case Green:
		return pc.Green
	default:
		var zero T
		return zero
	}
}

type Match struct {
	Id            string              `json:"id"`
	StartTime     time.Time           `json:"start_time"`
	EndTime       time.Time           `json:"end_time"`
	Scores        PerColor[int]       `json:"scores"`
	Worlds        PerColor[WorldId]   `json:"worlds"`
	AllWorlds     PerColor[[]WorldId] `json:"all_worlds"`
	Deaths        PerColor[int]       `json:"deaths"`
	Kills         PerColor[int]       `json:"kills"`
	VictoryPoints PerColor[int]       `json:"victory_points"`
	Skirmishes    []Skirmish          `json:"skirmishes"`
	Maps          []Map               `json:"maps"`
}

type Skirmish struct {
	Id     int           `json:"id"`
	Scores PerColor[int] `json:"scores"`
}

type Map struct {
	Id         int           `json:"id"`
	Type       string        `json:"type"`
	Scores     PerColor[int] `json:"scores"`
	Bonuses    []Bonus       `json:"bonuses"`
	Objectives []Objective   `json:"objectives"`
}

type Bonus struct {
	Type  string `json:"type"`
	Owner string `json:"owner"`
}

type Objective struct {
	Id         string `json:"id"`
	Type       string `json:"type"`
	Owner      string `json:"owner"`
	PointsTick int    `json:"points_tick"`
}

type World struct {
	Id         WorldId `json:"id"`
	Name       string  `json:"name"`
	Population string  `json:"population"`
}

// Find the team the world plays for, main or linked
func (match *Match) ColorOf(world WorldId) (Color, bool) {
	for _, color := range Colors {
		for _, w := range match.AllWorlds.Get(color) {
			if w == world {
				return color, true
			}
		}
	}
	return "", false
}

// Map the owner field of objectives and bonuses ("Red", "Neutral", ...) to a team
func OwnerColor(owner string) (Color, bool) {
	color := Color(strings.ToLower(owner))
	switch color {
	case Red, Blue, Green:
		return color, true
	}
	return "", false
}

func (world WorldId) String() string {
	return fmt.Sprintf("%d", int(world))
}
