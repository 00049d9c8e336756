package forzza

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/rickgao/forzza-swarm/internal/model"
)

// Tree is a decoded Swarm payload. Numbers decode as json.Number.
type Tree = map[string]any

// maxWrappers bounds how many "data" wrappers Unwrap removes.
const maxWrappers = 2

var domainKeys = []string{"sport", "region", "competition", "game", "market", "event"}

// Unwrap decodes raw and strips up to two generic "data" wrappers. A wrapper
// is only removed while the current node has no domain key. A null payload
// yields an empty tree.
func Unwrap(raw json.RawMessage) (Tree, error) {
	node := Tree{}
	if len(bytes.TrimSpace(raw)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		switch t := v.(type) {
		case nil:
		case Tree:
			node = t
		default:
			return nil, fmt.Errorf("decode payload: expected object, got %T", v)
		}
	}

	for range maxWrappers {
		if hasDomainKey(node) {
			break
		}
		child, ok := node["data"].(Tree)
		if !ok {
			break
		}
		node = child
	}
	return node, nil
}

func hasDomainKey(node Tree) bool {
	for _, k := range domainKeys {
		if _, ok := node[k]; ok {
			return true
		}
	}
	return false
}

// child returns the id-keyed children of node at level, in key order.
func child(node Tree, level string) []Tree {
	m, ok := node[level].(Tree)
	if !ok {
		return nil
	}

	out := make([]Tree, 0, len(m))
	for _, k := range sortedKeys(m) {
		if t, ok := m[k].(Tree); ok {
			out = append(out, t)
		}
	}
	return out
}

// sortedKeys orders numeric ids numerically and everything else lexically
// after them.
func sortedKeys(m Tree) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		ai, aerr := strconv.ParseInt(a, 10, 64)
		bi, berr := strconv.ParseInt(b, 10, 64)
		switch {
		case aerr == nil && berr == nil:
			if ai < bi {
				return -1
			}
			if ai > bi {
				return 1
			}
			return 0
		case aerr == nil:
			return -1
		case berr == nil:
			return 1
		default:
			return strings.Compare(a, b)
		}
	})
	return keys
}

func nodeName(node Tree) string {
	s, _ := node["name"].(string)
	return s
}

// FlattenSport emits one FlatGame per game under tree, ordered by region,
// competition and game id. tree may be rooted at the sport level or directly
// at regions; sportName labels games whose sport node has no name.
func FlattenSport(tree Tree, sportName string) []model.FlatGame {
	var games []model.FlatGame

	if _, ok := tree["region"]; !ok {
		for _, sport := range child(tree, "sport") {
			label := sportName
			if n := nodeName(sport); n != "" {
				label = n
			}
			games = appendRegions(games, sport, label)
		}
		return games
	}
	return appendRegions(games, tree, sportName)
}

func appendRegions(games []model.FlatGame, node Tree, sportName string) []model.FlatGame {
	for _, region := range child(node, "region") {
		for _, comp := range child(region, "competition") {
			for _, game := range child(comp, "game") {
				games = append(games, model.FlatGame{
					Sport:       sportName,
					Region:      nodeName(region),
					Competition: nodeName(comp),
					Fields:      game,
				})
			}
		}
	}
	return games
}

// nodeID reads a node's id field as an int.
func nodeID(node Tree) (int, bool) {
	n, ok := model.Int(node["id"])
	return int(n), ok
}
