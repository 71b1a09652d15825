package scoreboard

import (
	"context"
	"fmt"

	"github.com/yndnr/composable-go/internal/core/composable"
	"github.com/yndnr/composable-go/pkg/addr"
	"github.com/yndnr/composable-go/pkg/keyspace"
)

var (
	keyOwner = []byte("owner")
	keyHigh  = []byte("high")
	keyScore = []byte("score/")
)

// namespace returns the key prefix holding all state of game.
func namespace(game string) ([]byte, error) {
	if game == "" {
		return nil, fmt.Errorf("game name is required")
	}
	return keyspace.Nested([]byte("scoreboard"), []byte(game))
}

func scoreKey(player addr.CanonicalAddr) []byte {
	return keyspace.Combine(keyScore, player)
}

// gameInfo is the stored game record.
type gameInfo struct {
	Owner addr.CanonicalAddr `json:"owner"`
	Plays uint64             `json:"plays"`
}

// highScore is the stored best score. Players are kept canonical.
type highScore struct {
	Player addr.CanonicalAddr `json:"player"`
	Score  int64              `json:"score"`
}

// Humanize implements addr.Humanizer.
func (h highScore) Humanize(api addr.API) (HighScoreResponse, error) {
	player, err := h.Player.Humanize(api)
	if err != nil {
		return HighScoreResponse{}, err
	}
	return HighScoreResponse{Player: player, Score: h.Score, Found: true}, nil
}

func loadGame(ctx context.Context, r composable.Reader, ns []byte) (gameInfo, bool, error) {
	return composable.GetNS[gameInfo](ctx, r, ns, keyOwner)
}
