// Package repository contains data access logic separated from HTTP handlers.
// This file defines EventRepo, the owned in-memory event table.  Writes are
// serialized behind a single lock; readers share it.  Rows handed to callers
// are copies so the table is never mutated outside the lock.
package repository

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/iliyamo/eventcat/internal/model"
)

// baseID is the identifier (and activity number) assigned on an empty table.
const baseID int64 = 1

// EventRepo encapsulates the event table.  The zero value is not usable;
// construct it with NewEventRepo.
type EventRepo struct {
	mu   sync.RWMutex
	rows []*model.Event
	log  *zap.Logger
}

// NewEventRepo constructs an empty EventRepo.  A nil logger is replaced by
// a no-op logger.
func NewEventRepo(log *zap.Logger) *EventRepo {
	if log == nil {
		log = zap.NewNop()
	}
	return &EventRepo{log: log}
}

// Load replaces the table with rows, typically read from a snapshot at
// startup.  Rows are copied.
func (r *EventRepo) Load(rows []model.Event) {
	table := make([]*model.Event, 0, len(rows))
	for i := range rows {
		ev := rows[i].Clone()
		table = append(table, &ev)
	}
	r.mu.Lock()
	r.rows = table
	r.mu.Unlock()
	r.log.Info("event table loaded", zap.Int("rows", len(table)))
}

// Len returns the number of rows in the table.
func (r *EventRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}

// All returns a copy of every row in insertion order.
func (r *EventRepo) All(ctx context.Context) ([]model.Event, error) {
	return r.selectWhere(ctx, nil)
}

// Create appends a new event.  The id is one more than the largest id in
// the table and the activity, when not supplied, is one more than the
// largest activity.  Both are assigned under the write lock.
func (r *EventRepo) Create(ctx context.Context, in model.NewEvent) (*model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	maxID, maxActivity := baseID-1, baseID-1
	for _, row := range r.rows {
		if row.ID > maxID {
			maxID = row.ID
		}
		if row.Activity > maxActivity {
			maxActivity = row.Activity
		}
	}

	ev := &model.Event{
		ID:           maxID + 1,
		Name:         in.Name,
		DateStart:    in.DateStart,
		DateEnd:      in.DateEnd,
		Ticket:       in.Ticket,
		Text:         in.Text,
		TicketValue:  in.TicketValue,
		Venue:        in.Venue,
		Suspended:    in.Suspended,
		Activity:     maxActivity + 1,
		Rule:         in.Rule,
		RuleER:       in.RuleER,
		TicketType:   in.TicketType,
		TicketPrice:  in.TicketPrice,
		ChildrenFree: true,
	}
	// activity 0 is treated as absent, like a missing value
	if in.Activity != nil && *in.Activity != 0 {
		ev.Activity = *in.Activity
	}
	if in.ChildrenFree != nil {
		ev.ChildrenFree = *in.ChildrenFree
	}
	stored := ev.Clone()
	r.rows = append(r.rows, &stored)

	r.log.Debug("event created", zap.Int64("id", ev.ID), zap.Int64("activity", ev.Activity))
	return ev, nil
}

// GetByID returns every row whose id matches (normally one).  It returns
// ErrEventNotFound when none does.
func (r *EventRepo) GetByID(ctx context.Context, id int64) ([]model.Event, error) {
	out, err := r.selectWhere(ctx, func(e *model.Event) bool { return e.ID == id })
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrEventNotFound
	}
	return out, nil
}

// GetByActivity returns every row sharing the activity number.  It returns
// ErrActivityNotFound when the result is empty.
func (r *EventRepo) GetByActivity(ctx context.Context, activity int64) ([]model.Event, error) {
	out, err := r.selectWhere(ctx, func(e *model.Event) bool { return e.Activity == activity })
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrActivityNotFound
	}
	return out, nil
}

// UpdateByID writes the fields present in patch to every row with the id.
// Absent fields are left untouched.  ErrEventNotFound is returned when the
// id does not exist.
func (r *EventRepo) UpdateByID(ctx context.Context, id int64, patch model.EventPatch) ([]model.Event, error) {
	return r.mutate(ctx, id, func(e *model.Event) { applyPatch(e, patch) })
}

// Suspend flags every row with the id as suspended.  Suspending twice is
// not an error.
func (r *EventRepo) Suspend(ctx context.Context, id int64) ([]model.Event, error) {
	return r.mutate(ctx, id, func(e *model.Event) { e.Suspended = true })
}

// Search returns the rows matching every filter in c.  With no filter set
// the whole table is returned.
func (r *EventRepo) Search(ctx context.Context, c model.Criteria) ([]model.Event, error) {
	match := buildMatcher(c)
	return r.selectWhere(ctx, match)
}

func (r *EventRepo) mutate(ctx context.Context, id int64, fn func(*model.Event)) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.Event
	for _, row := range r.rows {
		if row.ID != id {
			continue
		}
		fn(row)
		out = append(out, row.Clone())
	}
	if len(out) == 0 {
		return nil, ErrEventNotFound
	}
	return out, nil
}

func (r *EventRepo) selectWhere(ctx context.Context, match func(*model.Event) bool) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Event, 0)
	for _, row := range r.rows {
		if match == nil || match(row) {
			out = append(out, row.Clone())
		}
	}
	return out, nil
}

// applyPatch copies the present fields of p onto e.  Null clears nullable
// fields; for non-nullable fields a null is ignored.
func applyPatch(e *model.Event, p model.EventPatch) {
	if p.Name.Present() {
		e.Name = p.Name.Value
	}
	if p.DateStart.Present() {
		e.DateStart = p.DateStart.Value
	}
	if p.DateEnd.Present() {
		e.DateEnd = p.DateEnd.Value
	}
	if p.Ticket.Set {
		e.Ticket = p.Ticket.Ptr()
	}
	if p.Text.Set {
		e.Text = p.Text.Ptr()
	}
	if p.TicketValue.Set {
		e.TicketValue = p.TicketValue.Ptr()
	}
	if p.VenueName.Set {
		e.Venue.Name = p.VenueName.Ptr()
	}
	if p.VenueAddress.Set {
		e.Venue.Address = p.VenueAddress.Ptr()
	}
	if p.VenueCoords.Set {
		e.Venue.Coords = p.VenueCoords.Ptr()
	}
	if p.District.Set {
		e.Venue.District = p.District.Ptr()
	}
	// suspension is one-way
	if p.Suspended.Present() && p.Suspended.Value {
		e.Suspended = true
	}
	if p.Activity.Present() {
		e.Activity = p.Activity.Value
	}
	if p.Rule.Present() {
		e.Rule = p.Rule.Value
	}
	if p.RuleER.Set {
		e.RuleER = p.RuleER.Ptr()
	}
	if p.TicketType.Set {
		e.TicketType = p.TicketType.Ptr()
	}
	if p.TicketPrice.Set {
		e.TicketPrice.Valid = p.TicketPrice.Present()
		e.TicketPrice.Decimal = p.TicketPrice.Value
	}
	if p.ChildrenFree.Present() {
		e.ChildrenFree = p.ChildrenFree.Value
	}
}
