package forzza

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rickgao/forzza-swarm/internal/swarm"
)

// fakeSubmitter answers queries with handle and records what it was sent.
type fakeSubmitter struct {
	handle func(q Query) (string, error)

	mu       sync.Mutex
	queries  []Query
	timeouts []time.Duration
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
}

func (f *fakeSubmitter) Submit(ctx context.Context, command string, params any, timeout time.Duration) (*swarm.Response, error) {
	if command != swarm.CommandGet {
		return nil, fmt.Errorf("unexpected command %q", command)
	}
	q := params.(Query)

	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.timeouts = append(f.timeouts, timeout)
	f.mu.Unlock()

	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	data, err := f.handle(q)
	if err != nil {
		return nil, err
	}
	return &swarm.Response{Data: json.RawMessage(data)}, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestScraper(f *fakeSubmitter, opts ...Option) *Scraper {
	opts = append([]Option{WithLogger(discard()), WithRate(0)}, opts...)
	return NewScraper(f, opts...)
}

func TestParseID(t *testing.T) {
	if n, err := ParseID(" 42 "); err != nil || n != 42 {
		t.Errorf("ParseID(42) = %d, %v", n, err)
	}
	_, err := ParseID("abc")
	if !errors.Is(err, ErrInvalidID) {
		t.Errorf("ParseID(abc) error = %v, want ErrInvalidID", err)
	}
}

func TestQueries(t *testing.T) {
	f := &fakeSubmitter{handle: func(Query) (string, error) { return `{}`, nil }}
	s := newTestScraper(f, WithWideTimeout(time.Minute))
	ctx := context.Background()

	if _, err := s.GetHierarchy(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetGames(ctx, 55); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetGamesBySport(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetGameDetails(ctx, 777); err != nil {
		t.Fatal(err)
	}

	want := []string{
		`{"source":"betting","what":{"competition":["id","name","order"],"region":["id","name","alias","order"],"sport":["id","name","alias","order"]},"where":{"game":{"type":0}}}`,
		`{"source":"betting","what":{"game":["id","team1_name","team2_name","start_ts","markets_count","info"]},"where":{"competition":{"id":55},"game":{"type":0}}}`,
		`{"source":"betting","what":{"competition":["id","name"],"event":["id","name","price"],"game":["id","team1_name","team2_name","start_ts"],"market":["id","name","type","display_key"],"region":["id","name"]},"where":{"game":{"type":0},"sport":{"id":1}}}`,
		`{"source":"betting","what":{"event":["id","name","price","order","type","base"],"market":["id","name","type","order","col_count","display_key"]},"where":{"game":{"id":777}}}`,
	}
	for i, q := range f.queries {
		got, _ := json.Marshal(q)
		if string(got) != want[i] {
			t.Errorf("query %d =\n%s\nwant\n%s", i, got, want[i])
		}
	}

	// Only the sport-wide query overrides the default timeout.
	wantTimeouts := []time.Duration{0, 0, time.Minute, 0}
	for i, d := range f.timeouts {
		if d != wantTimeouts[i] {
			t.Errorf("timeout %d = %v, want %v", i, d, wantTimeouts[i])
		}
	}
}

func TestQueryErrorsWrapSentinels(t *testing.T) {
	f := &fakeSubmitter{handle: func(Query) (string, error) { return "", swarm.ErrRequestTimeout }}
	s := newTestScraper(f)

	_, err := s.GetGames(context.Background(), 9)
	if !errors.Is(err, swarm.ErrRequestTimeout) {
		t.Fatalf("err = %v, want ErrRequestTimeout", err)
	}
	if err.Error() != "get games for competition 9: "+swarm.ErrRequestTimeout.Error() {
		t.Errorf("err = %q", err)
	}
}

func TestCountGames(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantSport string
		wantCount int
	}{
		{
			name:      "double wrapped",
			payload:   `{"data":{"data":{"sport":{"1":{"id":1,"name":"Soccer","game":{"1":{"id":1},"2":{"id":2},"3":{"id":3}}}}}}}`,
			wantSport: "Soccer",
			wantCount: 3,
		},
		{
			name:      "no sport",
			payload:   `{"sport":{}}`,
			wantSport: "Football",
			wantCount: 0,
		},
		{
			name:      "sport without games",
			payload:   `{"sport":{"1":{"id":1}}}`,
			wantSport: "Football",
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeSubmitter{handle: func(Query) (string, error) { return tt.payload, nil }}
			s := newTestScraper(f)

			count, err := s.CountGames(context.Background(), 1)
			if err != nil {
				t.Fatalf("CountGames failed: %v", err)
			}
			if count.Sport != tt.wantSport || count.Count != tt.wantCount {
				t.Errorf("count = %+v, want %s/%d", count, tt.wantSport, tt.wantCount)
			}
			if count.Timestamp.IsZero() {
				t.Error("timestamp should be set")
			}
		})
	}
}

func TestSportGames(t *testing.T) {
	f := &fakeSubmitter{handle: func(Query) (string, error) { return sportPayload, nil }}
	s := newTestScraper(f)

	games, err := s.SportGames(context.Background(), 1)
	if err != nil {
		t.Fatalf("SportGames failed: %v", err)
	}
	if len(games) != 3 {
		t.Fatalf("len(games) = %d, want 3", len(games))
	}
	if games[0].Sport != "Football" {
		t.Errorf("Sport = %q, want Football", games[0].Sport)
	}
}

const hierarchyPayload = `{"data":{"sport":{
  "1":{"id":1,"name":"Football","region":{
    "2":{"id":2,"name":"Spain","competition":{"20":{"id":20,"name":"La Liga"}}},
    "1":{"id":1,"name":"England","competition":{"10":{"id":10,"name":"Premier League"},"11":{"id":11,"name":"Championship"}}}
  }}
}}}`

// scrapeHandler serves a small hierarchy with two games per competition.
func scrapeHandler(q Query) (string, error) {
	switch {
	case q.What["sport"] != nil:
		return hierarchyPayload, nil
	case q.Where["competition"] != nil:
		cid := q.Where["competition"]["id"].(int)
		return fmt.Sprintf(`{"game":{"%[1]d1":{"id":%[1]d1,"team1_name":"A"},"%[1]d2":{"id":%[1]d2,"team1_name":"B"}}}`, cid), nil
	case q.Where["game"]["id"] != nil:
		gid := q.Where["game"]["id"].(int)
		return fmt.Sprintf(`{"market":{"1":{"id":1,"name":"Match Result","game":%d}}}`, gid), nil
	}
	return "", fmt.Errorf("unexpected query %+v", q)
}

func TestFullScrape(t *testing.T) {
	f := &fakeSubmitter{handle: scrapeHandler, delay: 5 * time.Millisecond}
	s := newTestScraper(f, WithConcurrency(2))

	results, err := s.FullScrape(context.Background())
	if err != nil {
		t.Fatalf("FullScrape failed: %v", err)
	}
	if len(results) != 6 {
		t.Fatalf("len(results) = %d, want 6", len(results))
	}

	// Sorted by sport, region, competition, game id.
	want := []struct {
		region, competition string
		game                int64
	}{
		{"England", "Championship", 111},
		{"England", "Championship", 112},
		{"England", "Premier League", 101},
		{"England", "Premier League", 102},
		{"Spain", "La Liga", 201},
		{"Spain", "La Liga", 202},
	}
	for i, w := range want {
		r := results[i]
		if r.Sport != "Football" || r.Region != w.region || r.Competition != w.competition || r.GameID() != w.game {
			t.Errorf("results[%d] = %s/%s/%s/%d, want Football/%s/%s/%d",
				i, r.Sport, r.Region, r.Competition, r.GameID(), w.region, w.competition, w.game)
		}
		var odds struct {
			Market map[string]struct {
				Game int64 `json:"game"`
			} `json:"market"`
		}
		if err := json.Unmarshal(r.Odds, &odds); err != nil {
			t.Fatalf("odds %d: %v", i, err)
		}
		if odds.Market["1"].Game != w.game {
			t.Errorf("results[%d] carries odds for game %d", i, odds.Market["1"].Game)
		}
	}

	// 1 hierarchy + 3 competitions + 6 games.
	if len(f.queries) != 10 {
		t.Errorf("queries = %d, want 10", len(f.queries))
	}
	if peak := f.maxSeen.Load(); peak > 2 {
		t.Errorf("max in flight = %d, want <= 2", peak)
	}
}

func TestFullScrapeAbortsOnError(t *testing.T) {
	var details atomic.Int32
	f := &fakeSubmitter{handle: func(q Query) (string, error) {
		if q.Where["game"]["id"] != nil {
			if details.Add(1) == 2 {
				return "", swarm.ErrConnectionClosed
			}
		}
		return scrapeHandler(q)
	}}
	s := newTestScraper(f, WithConcurrency(1))

	_, err := s.FullScrape(context.Background())
	if !errors.Is(err, swarm.ErrConnectionClosed) {
		t.Fatalf("err = %v, want ErrConnectionClosed", err)
	}
	if n := details.Load(); n != 2 {
		t.Errorf("detail requests = %d, want 2 before aborting", n)
	}
}

func TestFullScrapeRateLimited(t *testing.T) {
	f := &fakeSubmitter{handle: scrapeHandler}
	s := newTestScraper(f, WithRate(100), WithConcurrency(4))

	start := time.Now()
	if _, err := s.FullScrape(context.Background()); err != nil {
		t.Fatalf("FullScrape failed: %v", err)
	}

	// 9 paced requests at 100/s with a burst of one take at least 80ms.
	if elapsed := time.Since(start); elapsed < 70*time.Millisecond {
		t.Errorf("scrape took %s, expected pacing", elapsed)
	}
}

func TestFullScrapeCanceled(t *testing.T) {
	f := &fakeSubmitter{handle: scrapeHandler, delay: time.Second}
	s := newTestScraper(f)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.FullScrape(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
}
