package scoreboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/yndnr/composable-go/internal/core/composable"
	"github.com/yndnr/composable-go/internal/core/dispatch"
	"github.com/yndnr/composable-go/internal/core/domain"
	"github.com/yndnr/composable-go/internal/telemetry/logger"
	"github.com/yndnr/composable-go/pkg/addr"
)

// Errors returned by handlers.
var (
	ErrGameExists   = errors.New("game already exists")
	ErrGameNotFound = errors.New("game not found")
	ErrNotOwner     = errors.New("sender is not the game owner")
	ErrNegative     = errors.New("score must not be negative")
)

// Codecs lists the value codecs that can store scoreboard state. Its
// records are plain structs, so the proto codec cannot hold them.
var Codecs = []string{"json", "msgpack"}

// Register adds every scoreboard message to r.
func Register(r *dispatch.Router) error {
	return errors.Join(
		dispatch.RegisterHandle[CreateGame](r, "create_game"),
		dispatch.RegisterHandle[RecordScore](r, "record_score"),
		dispatch.RegisterHandle[RemovePlayer](r, "remove_player"),
		dispatch.RegisterQuery[GameQuery, GameResponse](r, "game"),
		dispatch.RegisterQuery[ScoreQuery, ScoreResponse](r, "score"),
		dispatch.RegisterQuery[HighScoreQuery, HighScoreResponse](r, "high_score"),
	)
}

// CreateGame creates a game owned by the sender.
type CreateGame struct {
	Game string `json:"game"`
}

// DispatchHandle implements dispatch.HandleDispatcher.
func (m CreateGame) DispatchHandle(ctx context.Context, store composable.Store, env dispatch.Env) (*dispatch.Response, error) {
	ns, err := namespace(m.Game)
	if err != nil {
		return nil, domain.ErrInvalidArgument.WithCause(err)
	}
	if _, exists, err := loadGame(ctx, store, ns); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("%w: %s", ErrGameExists, m.Game)
	}

	owner, err := composable.Canonize[addr.CanonicalAddr](store, env.Sender)
	if err != nil {
		return nil, err
	}
	if err := composable.SetNS(ctx, store, ns, keyOwner, gameInfo{Owner: owner}); err != nil {
		return nil, err
	}

	return dispatch.NewResponse().
		AddAttribute("action", "create_game").
		AddAttribute("game", m.Game).
		AddAttribute("owner", env.Sender.String()), nil
}

// RecordScore stores a player's score. Only the game owner may record.
type RecordScore struct {
	Game   string         `json:"game"`
	Player addr.HumanAddr `json:"player"`
	Score  int64          `json:"score"`
}

// DispatchHandle implements dispatch.HandleDispatcher.
func (m RecordScore) DispatchHandle(ctx context.Context, store composable.Store, env dispatch.Env) (*dispatch.Response, error) {
	ns, game, err := ownedGame(ctx, store, m.Game, env.Sender)
	if err != nil {
		return nil, err
	}

	if m.Score < 0 {
		return nil, domain.ErrInvalidArgument.WithCause(fmt.Errorf("%w: %d", ErrNegative, m.Score))
	}
	player, err := composable.Canonize[addr.CanonicalAddr](store, m.Player)
	if err != nil {
		return nil, err
	}
	if err := composable.SetNS(ctx, store, ns, scoreKey(player), m.Score); err != nil {
		return nil, err
	}

	game.Plays++
	if err := composable.SetNS(ctx, store, ns, keyOwner, game); err != nil {
		return nil, err
	}

	best, found, err := composable.GetNS[highScore](ctx, store, ns, keyHigh)
	if err != nil {
		return nil, err
	}
	newHigh := !found || m.Score > best.Score
	if newHigh {
		if err := composable.SetNS(ctx, store, ns, keyHigh, highScore{Player: player, Score: m.Score}); err != nil {
			return nil, err
		}
		logger.L(ctx).Debug("new high score", "game", m.Game, "player", m.Player.String(), "score", m.Score)
	}

	return dispatch.NewResponse().
		AddAttribute("action", "record_score").
		AddAttribute("player", m.Player.String()).
		AddAttribute("score", strconv.FormatInt(m.Score, 10)).
		AddAttribute("new_high", strconv.FormatBool(newHigh)), nil
}

// RemovePlayer deletes a player's score. The high score is kept.
type RemovePlayer struct {
	Game   string         `json:"game"`
	Player addr.HumanAddr `json:"player"`
}

// DispatchHandle implements dispatch.HandleDispatcher.
func (m RemovePlayer) DispatchHandle(ctx context.Context, store composable.Store, env dispatch.Env) (*dispatch.Response, error) {
	ns, _, err := ownedGame(ctx, store, m.Game, env.Sender)
	if err != nil {
		return nil, err
	}
	player, err := composable.Canonize[addr.CanonicalAddr](store, m.Player)
	if err != nil {
		return nil, err
	}
	if err := composable.RemoveNS(ctx, store, ns, scoreKey(player)); err != nil {
		return nil, err
	}
	return dispatch.NewResponse().
		AddAttribute("action", "remove_player").
		AddAttribute("player", m.Player.String()), nil
}

func ownedGame(ctx context.Context, store composable.Store, name string, sender addr.HumanAddr) ([]byte, gameInfo, error) {
	ns, err := namespace(name)
	if err != nil {
		return nil, gameInfo{}, domain.ErrInvalidArgument.WithCause(err)
	}
	game, found, err := loadGame(ctx, store, ns)
	if err != nil {
		return nil, gameInfo{}, err
	}
	if !found {
		return nil, gameInfo{}, fmt.Errorf("%w: %s", ErrGameNotFound, name)
	}

	caller, err := composable.Canonize[addr.CanonicalAddr](store, sender)
	if err != nil {
		return nil, gameInfo{}, err
	}
	if !caller.Equal(game.Owner) {
		return nil, gameInfo{}, domain.ErrUnauthorized.WithCause(ErrNotOwner)
	}
	return ns, game, nil
}

// GameQuery returns a game's owner and play count.
type GameQuery struct {
	Game string `json:"game"`
}

// GameResponse answers GameQuery.
type GameResponse struct {
	Owner addr.HumanAddr `json:"owner"`
	Plays uint64         `json:"plays"`
}

// DispatchQuery implements dispatch.QueryDispatcher.
func (q GameQuery) DispatchQuery(ctx context.Context, r composable.Reader) (GameResponse, error) {
	ns, err := namespace(q.Game)
	if err != nil {
		return GameResponse{}, domain.ErrInvalidArgument.WithCause(err)
	}
	game, found, err := loadGame(ctx, r, ns)
	if err != nil {
		return GameResponse{}, err
	}
	if !found {
		return GameResponse{}, fmt.Errorf("%w: %s", ErrGameNotFound, q.Game)
	}
	owner, err := composable.Humanize[addr.HumanAddr](r, game.Owner)
	if err != nil {
		return GameResponse{}, err
	}
	return GameResponse{Owner: owner, Plays: game.Plays}, nil
}

// ScoreQuery returns one player's score.
type ScoreQuery struct {
	Game   string         `json:"game"`
	Player addr.HumanAddr `json:"player"`
}

// ScoreResponse answers ScoreQuery. Found is false for players without a score.
type ScoreResponse struct {
	Player addr.HumanAddr `json:"player"`
	Score  int64          `json:"score"`
	Found  bool           `json:"found"`
}

// DispatchQuery implements dispatch.QueryDispatcher.
func (q ScoreQuery) DispatchQuery(ctx context.Context, r composable.Reader) (ScoreResponse, error) {
	ns, err := namespace(q.Game)
	if err != nil {
		return ScoreResponse{}, domain.ErrInvalidArgument.WithCause(err)
	}
	player, err := composable.Canonize[addr.CanonicalAddr](r, q.Player)
	if err != nil {
		return ScoreResponse{}, err
	}
	score, found, err := composable.GetNS[int64](ctx, r, ns, scoreKey(player))
	if err != nil {
		return ScoreResponse{}, err
	}
	return ScoreResponse{Player: q.Player, Score: score, Found: found}, nil
}

// HighScoreQuery returns the best score of a game.
type HighScoreQuery struct {
	Game string `json:"game"`
}

// HighScoreResponse answers HighScoreQuery.
type HighScoreResponse struct {
	Player addr.HumanAddr `json:"player,omitempty"`
	Score  int64          `json:"score"`
	Found  bool           `json:"found"`
}

// DispatchQuery implements dispatch.QueryDispatcher.
func (q HighScoreQuery) DispatchQuery(ctx context.Context, r composable.Reader) (HighScoreResponse, error) {
	ns, err := namespace(q.Game)
	if err != nil {
		return HighScoreResponse{}, domain.ErrInvalidArgument.WithCause(err)
	}
	best, found, err := composable.GetNS[highScore](ctx, r, ns, keyHigh)
	if err != nil || !found {
		return HighScoreResponse{}, err
	}
	return composable.Humanize[HighScoreResponse](r, best)
}
