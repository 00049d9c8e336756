package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// FlatGame is one game with the names of the sport, region and competition
// it belongs to. It encodes as a single flat JSON object: the game's own
// fields plus "sport", "region" and "competition".
type FlatGame struct {
	Sport       string
	Region      string
	Competition string
	Fields      map[string]any // Game fields as returned by Swarm
}

// Keys added to a game's fields when flattening.
const (
	KeySport       = "sport"
	KeyRegion      = "region"
	KeyCompetition = "competition"
)

// MarshalJSON implements json.Marshaler. Game fields win over the added
// names when they collide.
func (g FlatGame) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(g.Fields)+3)
	out[KeySport] = g.Sport
	out[KeyRegion] = g.Region
	out[KeyCompetition] = g.Competition
	for k, v := range g.Fields {
		out[k] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. Numbers decode as json.Number.
func (g *FlatGame) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		raw = map[string]any{}
	}

	g.Sport, _ = raw[KeySport].(string)
	g.Region, _ = raw[KeyRegion].(string)
	g.Competition, _ = raw[KeyCompetition].(string)
	delete(raw, KeySport)
	delete(raw, KeyRegion)
	delete(raw, KeyCompetition)
	g.Fields = raw
	return nil
}

// ID returns the game id, or 0 if absent.
func (g FlatGame) ID() int64 {
	n, _ := Int(g.Fields["id"])
	return n
}

// Team1 returns the home team name.
func (g FlatGame) Team1() string {
	s, _ := g.Fields["team1_name"].(string)
	return s
}

// Team2 returns the away team name.
func (g FlatGame) Team2() string {
	s, _ := g.Fields["team2_name"].(string)
	return s
}

// StartTime returns the scheduled start, or the zero time if absent.
func (g FlatGame) StartTime() time.Time {
	ts, ok := Int(g.Fields["start_ts"])
	if !ok || ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

// MarketsCount returns the number of markets Swarm reported for the game.
func (g FlatGame) MarketsCount() int {
	n, _ := Int(g.Fields["markets_count"])
	return int(n)
}

// Int reads an integer from a decoded JSON value. It accepts json.Number,
// float64 without a fractional part, and numeric strings.
func Int(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// ScrapeResult is one game from a full scrape with its markets and events.
type ScrapeResult struct {
	Sport       string          `json:"sport"`
	Region      string          `json:"region"`
	Competition string          `json:"competition"`
	Game        map[string]any  `json:"game"`
	Odds        json.RawMessage `json:"odds"`
}

// GameID returns the id of the result's game.
func (r ScrapeResult) GameID() int64 {
	n, _ := Int(r.Game["id"])
	return n
}

// GameCount is the number of games currently listed for a sport.
type GameCount struct {
	Sport     string    `json:"sport"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

func (c GameCount) String() string {
	return fmt.Sprintf("%s: %d games", c.Sport, c.Count)
}
