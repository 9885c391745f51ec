package model

import "github.com/shopspring/decimal"

func init() {
    // ticket_valor is a JSON number on the wire, not a quoted string.
    decimal.MarshalJSONWithoutQuotes = true
}

// Venue is the free-form location sub-record of an event.  Its fields are
// flattened into the event on the wire with the eventual_ prefix.
//
// Fields:
//  Name     – venue name.
//  Address  – street address, searchable by substring.
//  Coords   – coordinates as free text ("lat,lng").
//  District – one of the six district codes.
type Venue struct {
    Name     *string   `json:"eventual_name" db:"eventual_name"`
    Address  *string   `json:"eventual_direccion" db:"eventual_direccion"`
    Coords   *string   `json:"eventual_coords" db:"eventual_coords"`
    District *District `json:"eventual_distrito" db:"eventual_distrito"`
}

// Event is one catalog record.  It corresponds to a row of the in-memory
// table and, when a SQL snapshot is used, to a row of the events table.
//
// Fields:
//  ID           – unique identifier assigned by the store.
//  Name         – event name.
//  DateStart    – when the event begins.
//  DateEnd      – when the event ends.
//  Ticket       – free, paid or donation.
//  Text         – free-text description.
//  TicketValue  – raw ticket cost comment.
//  Suspended    – soft-delete flag; never cleared by the API.
//  Activity     – grouping id shared by related events.
//  Rule, RuleER – recurrence rule number and its textual form.
//  TicketType   – pricing structure of a paid event.
//  TicketPrice  – numeric ticket value, null when unknown.
//  ChildrenFree – children under 4 do not pay.
type Event struct {
    ID          int64           `json:"id" db:"id"`
    Name        string          `json:"name" db:"name"`
    DateStart   Timestamp       `json:"date_start" db:"date_start"`
    DateEnd     Timestamp       `json:"date_end" db:"date_end"`
    Ticket      *TicketCategory `json:"ticket" db:"ticket"`
    Text        *string         `json:"text" db:"text"`
    TicketValue *string         `json:"ticket_value" db:"ticket_value"`
    Venue
    Suspended    bool                `json:"suspendida" db:"suspendida"`
    Activity     int64               `json:"actividad" db:"actividad"`
    Rule         int64               `json:"regla" db:"regla"`
    RuleER       *string             `json:"regla_er" db:"regla_er"`
    TicketType   *TicketType         `json:"ticket_tipo" db:"ticket_tipo"`
    TicketPrice  decimal.NullDecimal `json:"ticket_valor" db:"ticket_valor"`
    ChildrenFree bool                `json:"ticket_paga_menor_4" db:"ticket_paga_menor_4"`
}

// Clone returns a deep copy so callers never share pointers with the table.
func (e *Event) Clone() Event {
    out := *e
    out.Ticket = clonePtr(e.Ticket)
    out.Text = clonePtr(e.Text)
    out.TicketValue = clonePtr(e.TicketValue)
    out.Venue.Name = clonePtr(e.Venue.Name)
    out.Venue.Address = clonePtr(e.Venue.Address)
    out.Venue.Coords = clonePtr(e.Venue.Coords)
    out.Venue.District = clonePtr(e.Venue.District)
    out.RuleER = clonePtr(e.RuleER)
    out.TicketType = clonePtr(e.TicketType)
    return out
}

func clonePtr[T any](p *T) *T {
    if p == nil {
        return nil
    }
    v := *p
    return &v
}

// NewEvent holds the fields accepted when creating an event.  Nil pointers
// take the documented defaults.
type NewEvent struct {
    Name         string
    DateStart    Timestamp
    DateEnd      Timestamp
    Ticket       *TicketCategory
    Text         *string
    TicketValue  *string
    Venue        Venue
    Suspended    bool
    Activity     *int64 // nil: max existing activity + 1
    Rule         int64
    RuleER       *string
    TicketType   *TicketType
    TicketPrice  decimal.NullDecimal
    ChildrenFree *bool // nil: true
}

// EventPatch is a partial update.  Only fields with Set == true are written;
// Null clears a nullable field.
type EventPatch struct {
    Name         Optional[string]
    DateStart    Optional[Timestamp]
    DateEnd      Optional[Timestamp]
    Ticket       Optional[TicketCategory]
    Text         Optional[string]
    TicketValue  Optional[string]
    VenueName    Optional[string]
    VenueAddress Optional[string]
    VenueCoords  Optional[string]
    District     Optional[District]
    Suspended    Optional[bool]
    Activity     Optional[int64]
    Rule         Optional[int64]
    RuleER       Optional[string]
    TicketType   Optional[TicketType]
    TicketPrice  Optional[decimal.Decimal]
    ChildrenFree Optional[bool]
}

// Criteria selects events for a search.  Nil fields are ignored; a non-nil
// empty set matches nothing.
type Criteria struct {
    Name           *string
    Tickets        []TicketCategory
    TicketTypes    []TicketType
    TicketPriceMin *decimal.Decimal
    TicketPriceMax *decimal.Decimal
    ChildrenFree   *bool
    DateStart      *Timestamp
    DateEnd        *Timestamp
    Address        *string
    Activity       *int64
}

// Empty reports whether no filter is set.
func (c Criteria) Empty() bool {
    return c.Name == nil && c.Tickets == nil && c.TicketTypes == nil &&
        c.TicketPriceMin == nil && c.TicketPriceMax == nil && c.ChildrenFree == nil &&
        c.DateStart == nil && c.DateEnd == nil && c.Address == nil && c.Activity == nil
}
