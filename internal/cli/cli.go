// Package cli implements the eventcat command line: one HTTP request per
// command against the event API.
package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/iliyamo/eventcat/internal/client"
)

// EmptyCriteriaMessage is printed instead of sending a create or search
// request that carries no field.
const EmptyCriteriaMessage = "You should specify at least one criteria. type '--help' for more information."

// Context carries what every command needs.
type Context struct {
	Client *client.Client
	Out    io.Writer
	Err    io.Writer
	// Prompt is used for fields not given as flags.  Nil disables prompting.
	Prompt Prompter
}

func Usage(w io.Writer) {
	fmt.Fprint(w, `eventcat <command> [flags]

Global Flags:
  --api-base    Event API base URL (env: APP_WEB_SOCKET, default http://127.0.0.1:8000)

Commands:
  event-create              create a new event (prompts for missing fields)
  event <id>                get an event by id
  event-update <id> --data  update an event with a JSON document
  event-suspend <id>        suspend an event
  activity <id>             get the events of an activity
  search                    search events by several criteria
  help                      show this message

Run "eventcat <command> --help" for the flags of a command.
`)
}

func Dispatch(ctx Context, args []string) error {
	if len(args) == 0 {
		Usage(ctx.Err)
		return errors.New("missing command")
	}
	switch args[0] {
	case "event-create":
		return eventCreateCmd(ctx, args[1:])
	case "event":
		return eventGetCmd(ctx, args[1:])
	case "event-update":
		return eventUpdateCmd(ctx, args[1:])
	case "event-suspend":
		return eventSuspendCmd(ctx, args[1:])
	case "activity":
		return activityCmd(ctx, args[1:])
	case "search":
		return searchCmd(ctx, args[1:])
	case "help", "-h", "--help":
		Usage(ctx.Out)
		return nil
	default:
		Usage(ctx.Err)
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func newFlagSet(ctx Context, name string) *flag.FlagSet {
	fs := flag.NewFlagSet("eventcat "+name, flag.ContinueOnError)
	fs.SetOutput(ctx.Err)
	return fs
}

// bindFields registers one flag per field and returns their values in
// field order.
func bindFields(fs *flag.FlagSet, fields []field) []*fieldValue {
	vals := make([]*fieldValue, len(fields))
	for i, f := range fields {
		vals[i] = &fieldValue{f: f}
		help := f.help
		if len(f.choices) > 0 {
			help += " (" + strings.Join(f.choices, "|") + ")"
		}
		fs.Var(vals[i], f.name, help)
	}
	return vals
}

// collect returns the body made of every field the user supplied.
func collect(vals []*fieldValue) map[string]any {
	body := map[string]any{}
	for _, v := range vals {
		if v.set {
			body[v.f.name] = v.value()
		}
	}
	return body
}

// parseWithID parses flags that may come before or after a single
// positional integer id.
func parseWithID(fs *flag.FlagSet, args []string) (int64, error) {
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return 0, errors.New("missing id argument")
	}
	raw := rest[0]
	if err := fs.Parse(rest[1:]); err != nil {
		return 0, err
	}
	if fs.NArg() > 0 {
		return 0, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id must be an integer, got %q", raw)
	}
	return id, nil
}

func eventCreateCmd(ctx Context, args []string) error {
	fs := newFlagSet(ctx, "event-create")
	noPrompt := fs.Bool("no-prompt", false, "do not prompt for fields missing from the flags")
	vals := bindFields(fs, createFields())
	if err := fs.Parse(args); err != nil {
		return flagError(err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	if ctx.Prompt != nil && !*noPrompt {
		if err := promptMissing(ctx.Prompt, vals); err != nil {
			return err
		}
	}

	body := collect(vals)
	if len(body) == 0 {
		fmt.Fprintln(ctx.Out, EmptyCriteriaMessage)
		return nil
	}
	return send(ctx, http.MethodPost, "/event", body)
}

// promptMissing asks for each field that was not given as a flag.  Empty
// answers leave the field unset; invalid answers are asked again.
func promptMissing(p Prompter, vals []*fieldValue) error {
	for _, v := range vals {
		if v.set {
			continue
		}
		label := v.f.name
		if len(v.f.choices) > 0 {
			label += " [" + strings.Join(v.f.choices, "|") + "]"
		}
		for {
			answer, err := p.Prompt(label)
			if err != nil {
				return err
			}
			if strings.TrimSpace(answer) == "" {
				break
			}
			if err := v.Set(answer); err != nil {
				label = v.f.name + " (" + err.Error() + ")"
				continue
			}
			break
		}
	}
	return nil
}

func eventGetCmd(ctx Context, args []string) error {
	fs := newFlagSet(ctx, "event")
	id, err := parseWithID(fs, args)
	if err != nil {
		return flagError(err)
	}
	return send(ctx, http.MethodGet, "/event/"+strconv.FormatInt(id, 10), nil)
}

func eventUpdateCmd(ctx Context, args []string) error {
	fs := newFlagSet(ctx, "event-update")
	data := fs.String("data", "", "event fields to update, as a JSON object")
	id, err := parseWithID(fs, args)
	if err != nil {
		return flagError(err)
	}

	raw := strings.TrimSpace(*data)
	if raw == "" && ctx.Prompt != nil {
		if raw, err = ctx.Prompt.Prompt("Event data in JSON format"); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
	}
	if raw == "" {
		return errors.New("--data required")
	}
	if !json.Valid([]byte(raw)) {
		return errors.New("--data must be valid JSON")
	}
	return send(ctx, http.MethodPut, "/event/"+strconv.FormatInt(id, 10), json.RawMessage(raw))
}

func eventSuspendCmd(ctx Context, args []string) error {
	fs := newFlagSet(ctx, "event-suspend")
	id, err := parseWithID(fs, args)
	if err != nil {
		return flagError(err)
	}
	return send(ctx, http.MethodDelete, "/event/"+strconv.FormatInt(id, 10), nil)
}

func activityCmd(ctx Context, args []string) error {
	fs := newFlagSet(ctx, "activity")
	id, err := parseWithID(fs, args)
	if err != nil {
		return flagError(err)
	}
	return send(ctx, http.MethodGet, "/activity/"+strconv.FormatInt(id, 10), nil)
}

func searchCmd(ctx Context, args []string) error {
	fs := newFlagSet(ctx, "search")
	vals := bindFields(fs, searchFields())
	if err := fs.Parse(args); err != nil {
		return flagError(err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	body := collect(vals)
	if len(body) == 0 {
		fmt.Fprintln(ctx.Out, EmptyCriteriaMessage)
		return nil
	}
	return send(ctx, http.MethodPost, "/search", body)
}

// flagError hides the sentinel returned for --help, which already printed
// the usage.
func flagError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}

// send performs the request and prints the response body, indented when
// it is JSON.  Non-2xx responses are printed too and reported as an error
// so the exit status reflects them.
func send(ctx Context, method, path string, body any) error {
	resp, err := ctx.Client.Call(method, path, body)
	if err != nil {
		return err
	}
	writeBody(ctx.Out, resp.Body)
	if !resp.OK() {
		return fmt.Errorf("http %d", resp.Status)
	}
	return nil
}

func writeBody(w io.Writer, b []byte) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, b, "", "  "); err == nil {
		fmt.Fprintln(w, buf.String())
		return
	}
	fmt.Fprintln(w, strings.TrimSpace(string(b)))
}
