// Package forzza issues the betting queries the service exposes and reshapes
// Swarm's nested payloads.
//
// Swarm answers a "get" with objects keyed by id at each level:
//
//	sport -> region -> competition -> game -> market -> event
//
// Levels not named in the query's "what" are omitted, and the payload is
// sometimes wrapped in one or two extra "data" objects. Unwrap strips those
// wrappers; FlattenSport turns a sport tree into one record per game.
package forzza
