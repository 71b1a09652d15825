package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/composable-go/internal/core/composable"
	"github.com/yndnr/composable-go/internal/core/domain"
	"github.com/yndnr/composable-go/internal/telemetry/logger"
	"github.com/yndnr/composable-go/internal/telemetry/metric"
)

var errBoom = errors.New("boom")

var handled int

type setCount struct {
	Namespace string `json:"namespace"`
	Count     int    `json:"count"`
	Fail      bool   `json:"fail,omitempty"`
}

func (m setCount) DispatchHandle(ctx context.Context, store composable.Store, env Env) (*Response, error) {
	handled++
	if err := composable.SetNS(ctx, store, []byte(m.Namespace), []byte("count"), m.Count); err != nil {
		return nil, err
	}
	if m.Fail {
		return nil, errBoom
	}
	return NewResponse().
		AddAttribute("action", "set_count").
		AddAttribute("sender", env.Sender.String()), nil
}

type getCount struct {
	Namespace string `json:"namespace"`
}

type countResponse struct {
	Count int  `json:"count"`
	Found bool `json:"found"`
}

func (m getCount) DispatchQuery(ctx context.Context, reader composable.Reader) (countResponse, error) {
	n, found, err := composable.GetNS[int](ctx, reader, []byte(m.Namespace), []byte("count"))
	if err != nil {
		return countResponse{}, err
	}
	return countResponse{Count: n, Found: found}, nil
}

func newTestRouter(t *testing.T, opts ...Option) *Router {
	t.Helper()
	r := NewRouter(opts...)
	if err := RegisterHandle[setCount](r, "set_count"); err != nil {
		t.Fatal(err)
	}
	if err := RegisterQuery[getCount, countResponse](r, "get_count"); err != nil {
		t.Fatal(err)
	}
	return r
}

func count(t *testing.T, f composable.Reader, ns string) (int, bool) {
	t.Helper()
	n, found, err := composable.GetNS[int](context.Background(), f, []byte(ns), []byte("count"))
	if err != nil {
		t.Fatal(err)
	}
	return n, found
}

func TestRouter_Execute(t *testing.T) {
	r := newTestRouter(t)
	f := composable.NewMock()

	resp, err := r.Execute(context.Background(), f.Facade, Env{Sender: "alice"},
		[]byte(`{"set_count": {"namespace": "game1", "count": 42}}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if v, _ := resp.Attribute("sender"); v != "alice" {
		t.Errorf("sender attribute = %q, want alice", v)
	}

	if n, found := count(t, f, "game1"); !found || n != 42 {
		t.Errorf("game1 count = %d, %v; want 42, true", n, found)
	}
	if _, found := count(t, f, "game2"); found {
		t.Error("game2 count should be absent")
	}
}

func TestRouter_UnknownVariant(t *testing.T) {
	r := newTestRouter(t)
	f := composable.NewMock()
	before := handled

	_, err := r.Execute(context.Background(), f.Facade, Env{}, []byte(`{"launch_rockets": {}}`))
	if !errors.Is(err, domain.ErrUnknownMessage) {
		t.Fatalf("Execute() error = %v, want ErrUnknownMessage", err)
	}
	if errors.Is(err, domain.ErrHandler) {
		t.Error("routing error must be distinct from handler error")
	}
	if handled != before {
		t.Error("a handler ran for an unknown variant")
	}
	if f.Store().Len() != 0 {
		t.Errorf("store has %d keys, want 0", f.Store().Len())
	}

	if _, err := r.Query(context.Background(), f, []byte(`{"nope": {}}`)); !errors.Is(err, domain.ErrUnknownMessage) {
		t.Errorf("Query() error = %v, want ErrUnknownMessage", err)
	}
}

func TestRouter_Malformed(t *testing.T) {
	r := newTestRouter(t)
	f := composable.NewMock()

	tests := []struct {
		name string
		msg  string
	}{
		{"empty", ``},
		{"array", `[1, 2]`},
		{"number", `7`},
		{"no variant", `{}`},
		{"two variants", `{"set_count": {}, "get_count": {}}`},
		{"not json", `{set_count`},
		{"unknown field", `{"set_count": {"namespace": "g", "bogus": 1}}`},
		{"wrong field type", `{"set_count": {"count": "many"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := handled
			_, err := r.Execute(context.Background(), f.Facade, Env{}, []byte(tt.msg))
			if !errors.Is(err, domain.ErrMalformedMessage) {
				t.Errorf("Execute(%s) error = %v, want ErrMalformedMessage", tt.msg, err)
			}
			if handled != before {
				t.Error("handler ran for a malformed message")
			}
		})
	}
}

func TestRouter_HandlerFailureRollsBack(t *testing.T) {
	r := newTestRouter(t)
	f := composable.NewMock()

	_, err := r.Execute(context.Background(), f.Facade, Env{},
		[]byte(`{"set_count": {"namespace": "game1", "count": 1, "fail": true}}`))
	if !errors.Is(err, domain.ErrHandler) {
		t.Fatalf("Execute() error = %v, want ErrHandler", err)
	}
	if !errors.Is(err, errBoom) {
		t.Errorf("handler cause lost: %v", err)
	}
	if _, found := count(t, f, "game1"); found {
		t.Error("write from failed handler was committed")
	}
}

func TestRouter_NonAtomicKeepsPartialWrites(t *testing.T) {
	r := newTestRouter(t, WithAtomic(false))
	if r.Atomic() {
		t.Fatal("Atomic() = true")
	}
	f := composable.NewMock()

	_, err := r.Execute(context.Background(), f.Facade, Env{},
		[]byte(`{"set_count": {"namespace": "game1", "count": 1, "fail": true}}`))
	if !errors.Is(err, domain.ErrHandler) {
		t.Fatalf("Execute() error = %v, want ErrHandler", err)
	}
	if n, found := count(t, f, "game1"); !found || n != 1 {
		t.Errorf("partial write = %d, %v; want 1, true", n, found)
	}
}

func TestRouter_Query(t *testing.T) {
	r := newTestRouter(t)
	f := composable.NewMock()
	ctx := context.Background()

	_ = composable.SetNS(ctx, f, []byte("game1"), []byte("count"), 42)

	tests := []struct {
		msg  string
		want string
	}{
		{`{"get_count": {"namespace": "game1"}}`, `{"count":42,"found":true}`},
		{`{"get_count": {"namespace": "game2"}}`, `{"count":0,"found":false}`},
	}
	for _, tt := range tests {
		got, err := r.Query(ctx, f.ReadOnly(), []byte(tt.msg))
		if err != nil {
			t.Fatalf("Query(%s) error = %v", tt.msg, err)
		}
		if string(got) != tt.want {
			t.Errorf("Query(%s) = %s, want %s", tt.msg, got, tt.want)
		}
	}
}

type failingQuery struct{}

func (failingQuery) DispatchQuery(context.Context, composable.Reader) (string, error) {
	return "", errBoom
}

func TestRouter_QueryFailure(t *testing.T) {
	r := NewRouter()
	if err := RegisterQuery[failingQuery, string](r, "fail"); err != nil {
		t.Fatal(err)
	}

	_, err := r.Query(context.Background(), composable.NewMock(), []byte(`"fail"`))
	if !errors.Is(err, domain.ErrHandler) || !errors.Is(err, errBoom) {
		t.Errorf("Query() error = %v, want ErrHandler wrapping boom", err)
	}
}

func TestRouter_UnitVariant(t *testing.T) {
	r := NewRouter()
	calls := 0
	err := r.RegisterHandleFunc("reset", func(ctx context.Context, store composable.Store, env Env) (*Response, error) {
		calls++
		return nil, composable.Remove(ctx, store, []byte("count"))
	})
	if err != nil {
		t.Fatal(err)
	}

	f := composable.NewMock()
	_ = composable.Set(context.Background(), f, []byte("count"), 3)

	for _, msg := range []string{`"reset"`, `{"reset": {}}`, `{"reset": null}`} {
		resp, err := r.Execute(context.Background(), f.Facade, Env{}, []byte(msg))
		if err != nil {
			t.Fatalf("Execute(%s) error = %v", msg, err)
		}
		if resp == nil {
			t.Fatalf("Execute(%s) returned nil response", msg)
		}
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if f.Store().Len() != 0 {
		t.Error("reset did not remove count")
	}

	if _, err := r.Execute(context.Background(), f.Facade, Env{}, []byte(`{"reset": {"x": 1}}`)); !errors.Is(err, domain.ErrMalformedMessage) {
		t.Errorf("Execute() with fields error = %v, want ErrMalformedMessage", err)
	}
}

func TestRouter_Registration(t *testing.T) {
	r := newTestRouter(t)

	if err := RegisterHandle[setCount](r, "set_count"); !errors.Is(err, ErrDuplicateVariant) {
		t.Errorf("duplicate handle error = %v", err)
	}
	if err := RegisterQuery[getCount, countResponse](r, "get_count"); !errors.Is(err, ErrDuplicateVariant) {
		t.Errorf("duplicate query error = %v", err)
	}
	for _, bad := range []string{"", "SetCount", "set-count", "_x", "x_"} {
		if err := RegisterHandle[setCount](r, bad); !errors.Is(err, ErrInvalidVariant) {
			t.Errorf("RegisterHandle(%q) error = %v, want ErrInvalidVariant", bad, err)
		}
	}

	_ = RegisterHandle[setCount](r, "add_count")
	s := r.Variants()
	if len(s.Handle) != 2 || s.Handle[0] != "add_count" || s.Handle[1] != "set_count" {
		t.Errorf("Variants().Handle = %v", s.Handle)
	}
	if len(s.Query) != 1 || s.Query[0] != "get_count" {
		t.Errorf("Variants().Query = %v", s.Query)
	}
}

func TestRouter_EnvDefaults(t *testing.T) {
	r := NewRouter()
	var seen Env
	var ctxID string
	_ = r.RegisterHandleFunc("probe", func(ctx context.Context, store composable.Store, env Env) (*Response, error) {
		seen = env
		ctxID = logger.RequestIDFromContext(ctx)
		return nil, nil
	})

	_, err := r.Execute(context.Background(), composable.NewMock().Facade, Env{
		Sender: "bob",
		Funds:  []Coin{{Denom: "uscrt", Amount: "100"}},
	}, []byte(`"probe"`))
	if err != nil {
		t.Fatal(err)
	}

	if seen.RequestID.IsZero() || seen.BlockTime.IsZero() {
		t.Errorf("defaults not filled: %+v", seen)
	}
	if ctxID != seen.RequestID.String() {
		t.Errorf("context request id = %q, want %q", ctxID, seen.RequestID)
	}
	if seen.FundsOf("uscrt") != "100" || seen.FundsOf("other") != "" {
		t.Errorf("FundsOf() wrong: %+v", seen.Funds)
	}
}

func TestRouter_Metrics(t *testing.T) {
	reg := metric.NewRegistry()
	r := newTestRouter(t, WithMetrics(reg))
	f := composable.NewMock()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		msg := `{"set_count": {"namespace": "g", "count": ` + strconv.Itoa(i) + `}}`
		if _, err := r.Execute(ctx, f.Facade, Env{}, []byte(msg)); err != nil {
			t.Fatal(err)
		}
	}
	_, _ = r.Execute(ctx, f.Facade, Env{}, []byte(`{"unknown_thing": {}}`))

	if got := testutil.ToFloat64(reg.DispatchTotal.WithLabelValues(KindHandle, "set_count", OutcomeOK)); got != 3 {
		t.Errorf("set_count ok = %v, want 3", got)
	}
	if got := testutil.ToFloat64(reg.DispatchTotal.WithLabelValues(KindHandle, "_", OutcomeUnknown)); got != 1 {
		t.Errorf("unknown = %v, want 1", got)
	}
	if got := testutil.ToFloat64(reg.Commits.WithLabelValues(metric.ResultOK)); got != 3 {
		t.Errorf("commits ok = %v, want 3", got)
	}
}

func TestRouter_HandlerLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := logger.New(logger.Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}

	r := NewRouter(WithLogger(l))
	err = r.RegisterHandleFunc("note", func(ctx context.Context, s composable.Store, env Env) (*Response, error) {
		logger.L(ctx).Info("inside handler")
		return NewResponse(), nil
	})
	if err != nil {
		t.Fatal(err)
	}

	id := NewRequestID()
	if _, err := r.Execute(context.Background(), composable.NewMock().Facade, Env{RequestID: id}, []byte(`"note"`)); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("log output %q: %v", buf.String(), err)
	}
	if entry["msg"] != "inside handler" {
		t.Errorf("msg = %v, want inside handler", entry["msg"])
	}
	if entry["request_id"] != id.String() {
		t.Errorf("request_id = %v, want %s", entry["request_id"], id)
	}
}
