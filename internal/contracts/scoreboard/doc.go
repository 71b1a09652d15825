// Package scoreboard is a small contract built on the composable facade
// and the dispatch router.
//
// A game is created by its owner. The owner records per-player scores and
// the contract keeps the best score seen. Every game lives in its own
// namespace, and players are stored under their canonical address.
//
// Execute messages:
//
//	{"create_game": {"game": "g1"}}
//	{"record_score": {"game": "g1", "player": "alice", "score": 42}}
//	{"remove_player": {"game": "g1", "player": "alice"}}
//
// Queries:
//
//	{"game": {"game": "g1"}}
//	{"score": {"game": "g1", "player": "alice"}}
//	{"high_score": {"game": "g1"}}
package scoreboard
