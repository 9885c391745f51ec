package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iliyamo/eventcat/internal/client"
)

type captured struct {
	method string
	path   string
	body   map[string]any
	raw    string
}

// fakeAPI records every request and answers with a fixed status and body.
func fakeAPI(t *testing.T, status int, reply string) (*httptest.Server, *[]captured) {
	t.Helper()
	var reqs []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		c := captured{method: r.Method, path: r.URL.Path, raw: string(b)}
		if len(b) > 0 {
			_ = json.Unmarshal(b, &c.body)
		}
		reqs = append(reqs, c)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, &reqs
}

type scriptedPrompter struct {
	answers []string
	labels  []string
}

func (p *scriptedPrompter) Prompt(label string) (string, error) {
	p.labels = append(p.labels, label)
	if len(p.answers) == 0 {
		return "", nil
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

func newCtx(srv *httptest.Server, p Prompter) (Context, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return Context{
		Client: &client.Client{BaseURL: srv.URL},
		Out:    out,
		Err:    io.Discard,
		Prompt: p,
	}, out
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2023-06-01", want: "2023-06-01T00:00:00"},
		{in: "2023-06-01T18:30:00", want: "2023-06-01T18:30:00"},
		{in: " 2023-06-01 ", want: "2023-06-01T00:00:00"},
		{in: "2023/06/01", wantErr: true},
		{in: "2023-06-01 18:30", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseDate(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParseDate(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestEventCreateSendsOnlySuppliedFields(t *testing.T) {
	srv, reqs := fakeAPI(t, http.StatusCreated, `{"id":1}`)
	ctx, out := newCtx(srv, nil)

	err := Dispatch(ctx, []string{"event-create",
		"--name", "Concert",
		"--date_start", "2023-06-01",
		"--date_end", "2023-06-02T23:00:00",
		"--ticket_valor", "0",
		"--ticket_paga_menor_4=false",
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(*reqs) != 1 {
		t.Fatalf("requests = %d", len(*reqs))
	}
	got := (*reqs)[0]
	if got.method != http.MethodPost || got.path != "/event" {
		t.Fatalf("request = %s %s", got.method, got.path)
	}
	want := map[string]any{
		"name":                "Concert",
		"date_start":          "2023-06-01T00:00:00",
		"date_end":            "2023-06-02T23:00:00",
		"ticket_valor":        float64(0),
		"ticket_paga_menor_4": false,
	}
	if len(got.body) != len(want) {
		t.Fatalf("body = %v", got.body)
	}
	for k, v := range want {
		if got.body[k] != v {
			t.Fatalf("%s = %v, want %v", k, got.body[k], v)
		}
	}
	if !strings.Contains(out.String(), `"id": 1`) {
		t.Fatalf("output = %q", out.String())
	}
}

func TestEventCreatePromptsForMissingFields(t *testing.T) {
	srv, reqs := fakeAPI(t, http.StatusCreated, `{"id":1}`)
	// name is a flag; prompts start at date_start.  "gratis" answers the
	// ticket prompt after one invalid try; everything else is skipped.
	p := &scriptedPrompter{answers: []string{"2023-06-01", "2023-06-02", "free", "gratis"}}
	ctx, _ := newCtx(srv, p)

	if err := Dispatch(ctx, []string{"event-create", "--name", "Concert"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	body := (*reqs)[0].body
	if body["ticket"] != "gratis" || body["date_start"] != "2023-06-01T00:00:00" || len(body) != 4 {
		t.Fatalf("body = %v", body)
	}
	if p.labels[0] != "date_start" {
		t.Fatalf("first prompt = %q", p.labels[0])
	}
}

func TestEmptyCriteriaDoesNotCallAPI(t *testing.T) {
	srv, reqs := fakeAPI(t, http.StatusOK, `[]`)

	for _, args := range [][]string{
		{"search"},
		{"event-create", "--no-prompt"},
		{"event-create"},
	} {
		ctx, out := newCtx(srv, &scriptedPrompter{})
		if err := Dispatch(ctx, args); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		if strings.TrimSpace(out.String()) != EmptyCriteriaMessage {
			t.Fatalf("%v: output = %q", args, out.String())
		}
	}
	if len(*reqs) != 0 {
		t.Fatalf("API called %d times", len(*reqs))
	}
}

func TestSearchRepeatedEnums(t *testing.T) {
	srv, reqs := fakeAPI(t, http.StatusOK, `[]`)
	ctx, _ := newCtx(srv, nil)

	err := Dispatch(ctx, []string{"search", "--ticket", "gratis", "--ticket", "gorra", "--ticket_valor_min", "0", "--actividad", "3"})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	got := (*reqs)[0]
	if got.path != "/search" {
		t.Fatalf("path = %s", got.path)
	}
	tickets, ok := got.body["ticket"].([]any)
	if !ok || len(tickets) != 2 || tickets[0] != "gratis" || tickets[1] != "gorra" {
		t.Fatalf("ticket = %v", got.body["ticket"])
	}
	if got.body["ticket_valor_min"] != float64(0) || got.body["actividad"] != float64(3) {
		t.Fatalf("body = %v", got.body)
	}
}

func TestLocalValidation(t *testing.T) {
	srv, reqs := fakeAPI(t, http.StatusOK, `[]`)
	ctx, _ := newCtx(srv, nil)

	for _, args := range [][]string{
		{"search", "--ticket", "free"},
		{"search", "--date_start", "01/06/2023"},
		{"event-create", "--eventual_distrito", "500"},
		{"event", "abc"},
		{"event"},
		{"event-update", "1", "--data", "{bad"},
		{"nope"},
	} {
		if err := Dispatch(ctx, args); err == nil {
			t.Fatalf("%v: expected error", args)
		}
	}
	if len(*reqs) != 0 {
		t.Fatalf("API called %d times", len(*reqs))
	}
}

func TestIDCommands(t *testing.T) {
	srv, reqs := fakeAPI(t, http.StatusOK, `[{"id":7}]`)
	ctx, _ := newCtx(srv, nil)

	cases := []struct {
		args   []string
		method string
		path   string
	}{
		{args: []string{"event", "7"}, method: http.MethodGet, path: "/event/7"},
		{args: []string{"event-suspend", "7"}, method: http.MethodDelete, path: "/event/7"},
		{args: []string{"activity", "3"}, method: http.MethodGet, path: "/activity/3"},
		{args: []string{"event-update", "7", "--data", `{"name":"x"}`}, method: http.MethodPut, path: "/event/7"},
		{args: []string{"event-update", "--data", `{"text":null}`, "7"}, method: http.MethodPut, path: "/event/7"},
	}
	for i, c := range cases {
		if err := Dispatch(ctx, c.args); err != nil {
			t.Fatalf("%v: %v", c.args, err)
		}
		got := (*reqs)[i]
		if got.method != c.method || got.path != c.path {
			t.Fatalf("%v: request = %s %s", c.args, got.method, got.path)
		}
	}
	if (*reqs)[4].raw != `{"text":null}` {
		t.Fatalf("update body = %s", (*reqs)[4].raw)
	}
}

func TestEventUpdatePromptsForData(t *testing.T) {
	srv, reqs := fakeAPI(t, http.StatusOK, `[]`)
	ctx, _ := newCtx(srv, &scriptedPrompter{answers: []string{`{"regla":2}`}})

	if err := Dispatch(ctx, []string{"event-update", "4"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if (*reqs)[0].body["regla"] != float64(2) {
		t.Fatalf("body = %v", (*reqs)[0].body)
	}
}

func TestErrorStatusIsPrintedAndReported(t *testing.T) {
	srv, _ := fakeAPI(t, http.StatusNotFound, `{"detail":"Event not found"}`)
	ctx, out := newCtx(srv, nil)

	if err := Dispatch(ctx, []string{"event", "99"}); err == nil {
		t.Fatal("expected error for 404")
	}
	if !strings.Contains(out.String(), "Event not found") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestResolveAPIBase(t *testing.T) {
	t.Setenv("APP_WEB_SOCKET", "")
	if got := ResolveAPIBase(""); got != defaultAPIBase {
		t.Fatalf("default = %q", got)
	}
	t.Setenv("APP_WEB_SOCKET", "http://events.local:9000/")
	if got := ResolveAPIBase(""); got != "http://events.local:9000" {
		t.Fatalf("env = %q", got)
	}
	if got := ResolveAPIBase("http://flag:1"); got != "http://flag:1" {
		t.Fatalf("flag = %q", got)
	}
}

func TestBoolFlagTakesSeparateValue(t *testing.T) {
	srv, reqs := fakeAPI(t, http.StatusOK, `{"id":1}`)
	ctx, _ := newCtx(srv, nil)

	if err := Dispatch(ctx, []string{"event-create", "--ticket_paga_menor_4", "false", "--text", "hello"}); err != nil {
		t.Fatalf("event-create: %v", err)
	}
	if err := Dispatch(ctx, []string{"search", "--ticket_paga_menor_4", "no", "--name", "x"}); err != nil {
		t.Fatalf("search: %v", err)
	}
	if err := Dispatch(ctx, []string{"event-create", "--suspendida", "--name", "Concert"}); err != nil {
		t.Fatalf("event-create switch: %v", err)
	}

	tests := []struct {
		body map[string]any
		want map[string]any
	}{
		{body: (*reqs)[0].body, want: map[string]any{"ticket_paga_menor_4": false, "text": "hello"}},
		{body: (*reqs)[1].body, want: map[string]any{"ticket_paga_menor_4": false, "name": "x"}},
		{body: (*reqs)[2].body, want: map[string]any{"suspendida": true, "name": "Concert"}},
	}
	for i, tt := range tests {
		if len(tt.body) != len(tt.want) {
			t.Fatalf("request %d: body = %v", i, tt.body)
		}
		for k, v := range tt.want {
			if tt.body[k] != v {
				t.Fatalf("request %d: %s = %v, want %v", i, k, tt.body[k], v)
			}
		}
	}
}

func TestEventCreateRejectsPositionalArgs(t *testing.T) {
	srv, reqs := fakeAPI(t, http.StatusOK, `{"id":1}`)
	ctx, _ := newCtx(srv, nil)

	if err := Dispatch(ctx, []string{"event-create", "--name", "Concert", "extra"}); err == nil {
		t.Fatal("expected error for positional argument")
	}
	if len(*reqs) != 0 {
		t.Fatalf("API called %d times", len(*reqs))
	}
}
