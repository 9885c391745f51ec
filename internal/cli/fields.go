package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/eventcat/internal/model"
)

type fieldKind int

const (
	kindText fieldKind = iota
	kindDate
	kindInt
	kindFloat
	kindBool
	kindEnum
	kindEnumList // repeatable flag, sent as a JSON array
)

// field describes one request key the command line can set.
type field struct {
	name    string
	kind    fieldKind
	choices []string
	help    string
	// switchFlag: a bare --name means true
	switchFlag bool
}

// ParseDate accepts YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS and returns the
// canonical YYYY-MM-DDTHH:MM:SS form.
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{model.DateLayout, model.TimestampLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(model.TimestampLayout), nil
		}
	}
	return "", fmt.Errorf("invalid date %q: use YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS", s)
}

// parse converts raw user input into the JSON value sent for f.
func (f field) parse(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch f.kind {
	case kindDate:
		return ParseDate(raw)
	case kindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("--%s: %q is not an integer", f.name, raw)
		}
		return n, nil
	case kindFloat:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("--%s: %q is not a number", f.name, raw)
		}
		return n, nil
	case kindBool:
		b, err := parseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("--%s: %q is not a boolean", f.name, raw)
		}
		return b, nil
	case kindEnum, kindEnumList:
		for _, c := range f.choices {
			if raw == c {
				return raw, nil
			}
		}
		return nil, fmt.Errorf("--%s: %q is not one of %s", f.name, raw, strings.Join(f.choices, ", "))
	}
	return raw, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "y", "yes", "on":
		return true, nil
	case "n", "no", "off":
		return false, nil
	}
	return strconv.ParseBool(s)
}

// fieldValue is the flag.Value behind every field flag.  It records
// whether the user supplied the flag so explicit zero values are kept.
type fieldValue struct {
	f    field
	set  bool
	val  any
	list []any
}

func (v *fieldValue) String() string {
	if v == nil || !v.set {
		return ""
	}
	if v.f.kind == kindEnumList {
		return fmt.Sprint(v.list)
	}
	return fmt.Sprint(v.val)
}

func (v *fieldValue) Set(raw string) error {
	parsed, err := v.f.parse(raw)
	if err != nil {
		return err
	}
	v.set = true
	if v.f.kind == kindEnumList {
		v.list = append(v.list, parsed)
		return nil
	}
	v.val = parsed
	return nil
}

// IsBoolFlag lets "--suspendida" stand for "--suspendida=true".  Other
// boolean fields always take a value.
func (v *fieldValue) IsBoolFlag() bool { return v.f.kind == kindBool && v.f.switchFlag }

func (v *fieldValue) value() any {
	if v.f.kind == kindEnumList {
		return v.list
	}
	return v.val
}

func enumStrings[T ~string](vals []T) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return out
}

func createFields() []field {
	return []field{
		{name: "name", kind: kindText, help: "Event's name"},
		{name: "date_start", kind: kindDate, help: "Event's start date (YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS)"},
		{name: "date_end", kind: kindDate, help: "Event's end date (YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS)"},
		{name: "ticket", kind: kindEnum, choices: enumStrings(model.TicketCategories()), help: "Event type"},
		{name: "text", kind: kindText, help: "Event description"},
		{name: "ticket_value", kind: kindText, help: "Ticket cost comments"},
		{name: "eventual_name", kind: kindText, help: "Venue name"},
		{name: "eventual_direccion", kind: kindText, help: "Venue address"},
		{name: "eventual_coords", kind: kindText, help: "Venue coordinates"},
		{name: "eventual_distrito", kind: kindEnum, choices: enumStrings(model.Districts()), help: "Venue district"},
		{name: "suspendida", kind: kindBool, switchFlag: true, help: "Create the event already suspended"},
		{name: "actividad", kind: kindInt, help: "Activity number (default: next free)"},
		{name: "regla", kind: kindInt, help: "Recurrence rule"},
		{name: "regla_er", kind: kindText, help: "Recurrence rule text"},
		{name: "ticket_tipo", kind: kindEnum, choices: enumStrings(model.TicketTypes()), help: "Ticket type"},
		{name: "ticket_valor", kind: kindFloat, help: "Ticket cost"},
		{name: "ticket_paga_menor_4", kind: kindBool, help: "Children under 4 do not pay (true|false)"},
	}
}

func searchFields() []field {
	return []field{
		{name: "name", kind: kindText, help: "Event name contains (case-insensitive)"},
		{name: "ticket", kind: kindEnumList, choices: enumStrings(model.TicketCategories()), help: "Event type, repeatable"},
		{name: "ticket_tipo", kind: kindEnumList, choices: enumStrings(model.TicketTypes()), help: "Ticket type, repeatable"},
		{name: "ticket_valor_min", kind: kindFloat, help: "Minimum ticket value"},
		{name: "ticket_valor_max", kind: kindFloat, help: "Maximum ticket value"},
		{name: "ticket_paga_menor_4", kind: kindBool, help: "Children under 4 do not pay (true|false)"},
		{name: "date_start", kind: kindDate, help: "Starts on or after (YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS)"},
		{name: "date_end", kind: kindDate, help: "Ends on or before (YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS)"},
		{name: "eventual_direccion", kind: kindText, help: "Address contains (case-insensitive)"},
		{name: "actividad", kind: kindInt, help: "Activity number"},
	}
}
