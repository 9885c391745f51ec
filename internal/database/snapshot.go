package database

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/eventcat/internal/model"
)

// eventColumns lists the columns read from a snapshot table, in the order
// of model.Event.
const eventColumns = `id, name, date_start, date_end, ticket, text, ticket_value,
	eventual_name, eventual_direccion, eventual_coords, eventual_distrito,
	suspendida, actividad, regla, regla_er, ticket_tipo, ticket_valor, ticket_paga_menor_4`

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// LoadFile reads a JSON array of events.  Enumerated fields are checked so
// a bad snapshot fails at startup instead of leaking invalid rows.
func LoadFile(path string) ([]model.Event, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var rows []model.Event
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	if err := checkRows(rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// LoadTable reads every row of table.  Nothing is ever written back.
func LoadTable(ctx context.Context, db *sqlx.DB, table string) ([]model.Event, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid snapshot table name %q", table)
	}
	var rows []model.Event
	q := "SELECT " + eventColumns + " FROM " + table + " ORDER BY id"
	if err := db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("select snapshot: %w", err)
	}
	if err := checkRows(rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func checkRows(rows []model.Event) error {
	for i, r := range rows {
		if r.Ticket != nil && !r.Ticket.Valid() {
			return fmt.Errorf("snapshot row %d (id %d): invalid ticket %q", i, r.ID, *r.Ticket)
		}
		if r.TicketType != nil && !r.TicketType.Valid() {
			return fmt.Errorf("snapshot row %d (id %d): invalid ticket_tipo %q", i, r.ID, *r.TicketType)
		}
		if r.Venue.District != nil && !r.Venue.District.Valid() {
			return fmt.Errorf("snapshot row %d (id %d): invalid eventual_distrito %q", i, r.ID, *r.Venue.District)
		}
	}
	return nil
}
