package dispatch

import "testing"

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		msg     string
		variant string
		body    string
		wantErr bool
	}{
		{`{"set_score": {"score": 1}}`, "set_score", `{"score": 1}`, false},
		{`  {"reset": null}  `, "reset", `{}`, false},
		{`"reset"`, "reset", `{}`, false},
		{`{}`, "", "", true},
		{`{"a": {}, "b": {}}`, "", "", true},
		{`{"a": {}, "a": {"x": 1}}`, "", "", true},
		{`{"a": {}} {}`, "", "", true},
		{`{"a": {}`, "", "", true},
		{`{"a" {}}`, "", "", true},
		{`[]`, "", "", true},
		{`"unterminated`, "", "", true},
		{``, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			variant, body, err := parseEnvelope([]byte(tt.msg))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseEnvelope() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if variant != tt.variant || string(body) != tt.body {
				t.Errorf("parseEnvelope() = %q, %s; want %q, %s", variant, body, tt.variant, tt.body)
			}
		})
	}
}

func TestValidVariant(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"transfer", true},
		{"set_score", true},
		{"v2_migrate", true},
		{"SetScore", false},
		{"set-score", false},
		{"set__score", false},
		{"2fa", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidVariant(tt.name); got != tt.want {
			t.Errorf("ValidVariant(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestResponse(t *testing.T) {
	r := NewResponse().AddAttribute("a", "1").SetData([]byte("x"))
	if _, err := r.AddMessage(map[string]any{"bank": "send"}); err != nil {
		t.Fatal(err)
	}
	if v, ok := r.Attribute("a"); !ok || v != "1" {
		t.Errorf("Attribute(a) = %q, %v", v, ok)
	}
	if _, ok := r.Attribute("missing"); ok {
		t.Error("Attribute(missing) ok = true")
	}
	if string(r.Data) != "x" || len(r.Messages) != 1 || string(r.Messages[0]) != `{"bank":"send"}` {
		t.Errorf("Response = %+v", r)
	}
}
