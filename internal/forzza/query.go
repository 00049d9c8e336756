package forzza

// Query is the params object of a Swarm "get" command.
type Query struct {
	Source string                    `json:"source"`
	What   map[string][]string       `json:"what"`
	Where  map[string]map[string]any `json:"where,omitempty"`
}

// SourceBetting selects the pre-match and live betting feed.
const SourceBetting = "betting"

// gameTypePrematch restricts a query to pre-match games.
const gameTypePrematch = 0

func hierarchyQuery() Query {
	return Query{
		Source: SourceBetting,
		What: map[string][]string{
			"sport":       {"id", "name", "alias", "order"},
			"region":      {"id", "name", "alias", "order"},
			"competition": {"id", "name", "order"},
		},
		Where: map[string]map[string]any{
			"game": {"type": gameTypePrematch},
		},
	}
}

func gamesQuery(competitionID int) Query {
	return Query{
		Source: SourceBetting,
		What: map[string][]string{
			"game": {"id", "team1_name", "team2_name", "start_ts", "markets_count", "info"},
		},
		Where: map[string]map[string]any{
			"competition": {"id": competitionID},
			"game":        {"type": gameTypePrematch},
		},
	}
}

func sportGamesQuery(sportID int) Query {
	return Query{
		Source: SourceBetting,
		What: map[string][]string{
			"region":      {"id", "name"},
			"competition": {"id", "name"},
			"game":        {"id", "team1_name", "team2_name", "start_ts"},
			"market":      {"id", "name", "type", "display_key"},
			"event":       {"id", "name", "price"},
		},
		Where: map[string]map[string]any{
			"sport": {"id": sportID},
			"game":  {"type": gameTypePrematch},
		},
	}
}

func gameDetailsQuery(gameID int) Query {
	return Query{
		Source: SourceBetting,
		What: map[string][]string{
			"market": {"id", "name", "type", "order", "col_count", "display_key"},
			"event":  {"id", "name", "price", "order", "type", "base"},
		},
		Where: map[string]map[string]any{
			"game": {"id": gameID},
		},
	}
}

func countQuery(sportID int) Query {
	return Query{
		Source: SourceBetting,
		What: map[string][]string{
			"sport": {"id", "name"},
			"game":  {"id"},
		},
		Where: map[string]map[string]any{
			"sport": {"id": sportID},
		},
	}
}
