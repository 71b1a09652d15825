package scoreboard

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/yndnr/composable-go/internal/core/composable"
	"github.com/yndnr/composable-go/internal/core/dispatch"
	"github.com/yndnr/composable-go/internal/core/domain"
	"github.com/yndnr/composable-go/pkg/addr"
)

type harness struct {
	t      *testing.T
	router *dispatch.Router
	env    *composable.Mock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	r := dispatch.NewRouter()
	if err := Register(r); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return &harness{t: t, router: r, env: composable.NewMock()}
}

func (h *harness) exec(sender, msg string) (*dispatch.Response, error) {
	return h.router.Execute(context.Background(), h.env.Facade, dispatch.Env{Sender: addr.HumanAddr(sender)}, []byte(msg))
}

func (h *harness) mustExec(sender, msg string) *dispatch.Response {
	h.t.Helper()
	resp, err := h.exec(sender, msg)
	if err != nil {
		h.t.Fatalf("Execute(%s) error = %v", msg, err)
	}
	return resp
}

func query[R any](h *harness, msg string) R {
	h.t.Helper()
	data, err := h.router.Query(context.Background(), h.env.ReadOnly(), []byte(msg))
	if err != nil {
		h.t.Fatalf("Query(%s) error = %v", msg, err)
	}
	var out R
	if err := json.Unmarshal(data, &out); err != nil {
		h.t.Fatalf("decode %s: %v", data, err)
	}
	return out
}

func TestScoreboard_Flow(t *testing.T) {
	h := newHarness(t)

	h.mustExec("owner", `{"create_game": {"game": "g1"}}`)
	h.mustExec("owner", `{"record_score": {"game": "g1", "player": "alice", "score": 10}}`)
	resp := h.mustExec("owner", `{"record_score": {"game": "g1", "player": "bob", "score": 42}}`)
	if v, _ := resp.Attribute("new_high"); v != "true" {
		t.Errorf("new_high = %q, want true", v)
	}
	resp = h.mustExec("owner", `{"record_score": {"game": "g1", "player": "alice", "score": 12}}`)
	if v, _ := resp.Attribute("new_high"); v != "false" {
		t.Errorf("new_high = %q, want false", v)
	}

	game := query[GameResponse](h, `{"game": {"game": "g1"}}`)
	if game.Owner != "owner" || game.Plays != 3 {
		t.Errorf("game = %+v, want owner/3", game)
	}

	alice := query[ScoreResponse](h, `{"score": {"game": "g1", "player": "alice"}}`)
	if !alice.Found || alice.Score != 12 {
		t.Errorf("alice = %+v, want 12", alice)
	}

	high := query[HighScoreResponse](h, `{"high_score": {"game": "g1"}}`)
	if !high.Found || high.Player != "bob" || high.Score != 42 {
		t.Errorf("high = %+v, want bob/42", high)
	}

	h.mustExec("owner", `{"remove_player": {"game": "g1", "player": "alice"}}`)
	alice = query[ScoreResponse](h, `{"score": {"game": "g1", "player": "alice"}}`)
	if alice.Found {
		t.Errorf("alice still present: %+v", alice)
	}
}

func TestScoreboard_GamesAreIsolated(t *testing.T) {
	h := newHarness(t)
	h.mustExec("owner", `{"create_game": {"game": "game1"}}`)
	h.mustExec("owner", `{"create_game": {"game": "game2"}}`)
	h.mustExec("owner", `{"record_score": {"game": "game1", "player": "alice", "score": 42}}`)

	got := query[ScoreResponse](h, `{"score": {"game": "game1", "player": "alice"}}`)
	if !got.Found || got.Score != 42 {
		t.Errorf("game1 = %+v, want 42", got)
	}
	got = query[ScoreResponse](h, `{"score": {"game": "game2", "player": "alice"}}`)
	if got.Found {
		t.Errorf("game2 = %+v, want not found", got)
	}
	high := query[HighScoreResponse](h, `{"high_score": {"game": "game2"}}`)
	if high.Found {
		t.Errorf("game2 high = %+v, want not found", high)
	}
}

func TestScoreboard_Errors(t *testing.T) {
	h := newHarness(t)
	h.mustExec("owner", `{"create_game": {"game": "g1"}}`)

	tests := []struct {
		name   string
		sender string
		msg    string
		want   error
	}{
		{"duplicate game", "owner", `{"create_game": {"game": "g1"}}`, ErrGameExists},
		{"missing game", "owner", `{"record_score": {"game": "nope", "player": "a", "score": 1}}`, ErrGameNotFound},
		{"not owner", "mallory", `{"record_score": {"game": "g1", "player": "a", "score": 1}}`, domain.ErrUnauthorized},
		{"negative", "owner", `{"record_score": {"game": "g1", "player": "a", "score": -1}}`, ErrNegative},
		{"empty game", "owner", `{"create_game": {"game": ""}}`, domain.ErrInvalidArgument},
		{"bad player", "owner", `{"record_score": {"game": "g1", "player": "", "score": 1}}`, domain.ErrAddressCodec},
		{"bad sender", "", `{"create_game": {"game": "g2"}}`, domain.ErrAddressCodec},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := h.env.Store().Len()
			_, err := h.exec(tt.sender, tt.msg)
			if !errors.Is(err, domain.ErrHandler) {
				t.Errorf("error = %v, want ErrHandler", err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if after := h.env.Store().Len(); after != before {
				t.Errorf("store grew from %d to %d keys on failure", before, after)
			}
		})
	}
}

func TestScoreboard_Variants(t *testing.T) {
	h := newHarness(t)
	s := h.router.Variants()
	if len(s.Handle) != 3 || len(s.Query) != 3 {
		t.Errorf("Variants() = %+v", s)
	}
}
