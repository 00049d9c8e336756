package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFlatGameJSON(t *testing.T) {
	g := FlatGame{
		Sport:       "Football",
		Region:      "England",
		Competition: "Premier League",
		Fields: map[string]any{
			"id":         json.Number("24480129"),
			"team1_name": "Arsenal",
			"team2_name": "Chelsea",
			"start_ts":   json.Number("1760457600"),
		},
	}

	data, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"competition":"Premier League","id":24480129,"region":"England","sport":"Football","start_ts":1760457600,"team1_name":"Arsenal","team2_name":"Chelsea"}`
	if string(data) != want {
		t.Errorf("Marshal = %s\nwant %s", data, want)
	}

	var back FlatGame
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.Sport != "Football" || back.Region != "England" || back.Competition != "Premier League" {
		t.Errorf("names = %q/%q/%q", back.Sport, back.Region, back.Competition)
	}
	if _, ok := back.Fields[KeySport]; ok {
		t.Error("sport should not remain in Fields")
	}
	if back.ID() != 24480129 {
		t.Errorf("ID() = %d", back.ID())
	}
}

func TestFlatGameFieldsWinOnCollision(t *testing.T) {
	g := FlatGame{Sport: "Football", Fields: map[string]any{"sport": "Soccer"}}

	data, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if out["sport"] != "Soccer" {
		t.Errorf("sport = %v, want the game's own value", out["sport"])
	}
}

func TestFlatGameAccessors(t *testing.T) {
	g := FlatGame{Fields: map[string]any{
		"team1_name":    "Inter",
		"team2_name":    "Milan",
		"start_ts":      float64(1760457600),
		"markets_count": json.Number("143"),
	}}

	if g.Team1() != "Inter" || g.Team2() != "Milan" {
		t.Errorf("teams = %q/%q", g.Team1(), g.Team2())
	}
	if want := time.Unix(1760457600, 0).UTC(); !g.StartTime().Equal(want) {
		t.Errorf("StartTime() = %v, want %v", g.StartTime(), want)
	}
	if g.MarketsCount() != 143 {
		t.Errorf("MarketsCount() = %d", g.MarketsCount())
	}

	var empty FlatGame
	if !empty.StartTime().IsZero() || empty.ID() != 0 || empty.Team1() != "" {
		t.Error("empty game accessors should return zero values")
	}
}

func TestInt(t *testing.T) {
	tests := []struct {
		in     any
		want   int64
		wantOK bool
	}{
		{json.Number("42"), 42, true},
		{json.Number("4.5"), 0, false},
		{float64(7), 7, true},
		{float64(7.25), 0, false},
		{9, 9, true},
		{"123", 123, true},
		{"abc", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}

	for _, tt := range tests {
		got, ok := Int(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Int(%#v) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSportName(t *testing.T) {
	if got := SportName(FootballID); got != "Football" {
		t.Errorf("SportName(1) = %q", got)
	}
	if got := SportName(190); got != "3x3_Basketball" {
		t.Errorf("SportName(190) = %q", got)
	}
	if got := SportName(9999); got != "Sport 9999" {
		t.Errorf("SportName(9999) = %q", got)
	}
}

func TestScrapeResultGameID(t *testing.T) {
	r := ScrapeResult{Game: map[string]any{"id": json.Number("17")}}
	if r.GameID() != 17 {
		t.Errorf("GameID() = %d", r.GameID())
	}
}
