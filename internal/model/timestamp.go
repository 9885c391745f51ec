package model

import (
    "bytes"
    "encoding/json"
    "fmt"
    "reflect"
    "strconv"
    "strings"
    "time"
)

// Accepted textual forms for event dates.  Output always uses TimestampLayout.
const (
    DateLayout      = "2006-01-02"
    TimestampLayout = "2006-01-02T15:04:05"
)

var timestampType = reflect.TypeOf(Timestamp{})

var timestampLayouts = []string{TimestampLayout, DateLayout, time.RFC3339, "2006-01-02 15:04:05"}

// Timestamp is a wall-clock date-time without zone, as used by the catalog.
type Timestamp struct {
    time.Time
}

// NewTimestamp converts t to UTC and truncates it to whole seconds.  Zone
// free layouts parse as UTC already, so only explicit offsets move.
func NewTimestamp(t time.Time) Timestamp {
    return Timestamp{t.UTC().Truncate(time.Second)}
}

// ParseTimestamp accepts "YYYY-MM-DD" or "YYYY-MM-DDTHH:MM:SS".  RFC 3339
// and a space-separated variant are tolerated for snapshot data; RFC 3339
// offsets are converted to UTC.
func ParseTimestamp(s string) (Timestamp, error) {
    s = strings.TrimSpace(s)
    for _, layout := range timestampLayouts {
        if t, err := time.Parse(layout, s); err == nil {
            return NewTimestamp(t), nil
        }
    }
    return Timestamp{}, fmt.Errorf("invalid datetime %q: expected YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS", s)
}

// MustTimestamp is ParseTimestamp for constants and tests.
func MustTimestamp(s string) Timestamp {
    ts, err := ParseTimestamp(s)
    if err != nil {
        panic(err)
    }
    return ts
}

func (t Timestamp) String() string {
    return t.Time.Format(TimestampLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
    return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
    if bytes.Equal(b, []byte("null")) {
        return nil
    }
    var s string
    if err := json.Unmarshal(b, &s); err != nil {
        return &json.UnmarshalTypeError{Value: jsonKind(b), Type: timestampType}
    }
    ts, err := ParseTimestamp(s)
    if err != nil {
        // a type error lets encoding/json attach the field name
        return &json.UnmarshalTypeError{Value: "string " + strconv.Quote(s), Type: timestampType}
    }
    *t = ts
    return nil
}

// Scan lets sqlx read DATETIME and text columns alike.
func (t *Timestamp) Scan(src any) error {
    switch v := src.(type) {
    case time.Time:
        // DATETIME columns are zone free; keep the wall clock the driver read
        *t = NewTimestamp(time.Date(v.Year(), v.Month(), v.Day(), v.Hour(), v.Minute(), v.Second(), v.Nanosecond(), time.UTC))
        return nil
    case []byte:
        ts, err := ParseTimestamp(string(v))
        if err != nil {
            return err
        }
        *t = ts
        return nil
    case string:
        ts, err := ParseTimestamp(v)
        if err != nil {
            return err
        }
        *t = ts
        return nil
    case nil:
        *t = Timestamp{}
        return nil
    }
    return fmt.Errorf("cannot scan %T into Timestamp", src)
}

// jsonKind names the JSON type of a raw value for error messages.
func jsonKind(b []byte) string {
    b = bytes.TrimSpace(b)
    if len(b) == 0 {
        return "value"
    }
    switch b[0] {
    case '{':
        return "object"
    case '[':
        return "array"
    case 't', 'f':
        return "bool"
    case '"':
        return "string"
    }
    return "number"
}
