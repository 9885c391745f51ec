package repository

import (
	"strings"

	"github.com/iliyamo/eventcat/internal/model"
)

// predicate reports whether a row satisfies one filter.
type predicate func(*model.Event) bool

// buildMatcher turns the criteria into a list of predicates and returns
// their conjunction.  Unset criteria add nothing, so empty criteria match
// every row.
func buildMatcher(c model.Criteria) predicate {
	where := []predicate{}

	if c.Name != nil {
		where = append(where, containsFold(*c.Name, func(e *model.Event) *string { return &e.Name }))
	}
	if c.Address != nil {
		where = append(where, containsFold(*c.Address, func(e *model.Event) *string { return e.Venue.Address }))
	}
	if c.Tickets != nil {
		set := make(map[model.TicketCategory]struct{}, len(c.Tickets))
		for _, t := range c.Tickets {
			set[t] = struct{}{}
		}
		where = append(where, func(e *model.Event) bool {
			if e.Ticket == nil {
				return false
			}
			_, ok := set[*e.Ticket]
			return ok
		})
	}
	if c.TicketTypes != nil {
		set := make(map[model.TicketType]struct{}, len(c.TicketTypes))
		for _, t := range c.TicketTypes {
			set[t] = struct{}{}
		}
		where = append(where, func(e *model.Event) bool {
			if e.TicketType == nil {
				return false
			}
			_, ok := set[*e.TicketType]
			return ok
		})
	}
	if c.DateStart != nil {
		from := c.DateStart.Time
		where = append(where, func(e *model.Event) bool { return !e.DateStart.Time.Before(from) })
	}
	if c.DateEnd != nil {
		until := c.DateEnd.Time
		where = append(where, func(e *model.Event) bool { return !e.DateEnd.Time.After(until) })
	}
	if c.TicketPriceMin != nil {
		min := *c.TicketPriceMin
		where = append(where, func(e *model.Event) bool {
			return e.TicketPrice.Valid && e.TicketPrice.Decimal.GreaterThanOrEqual(min)
		})
	}
	if c.TicketPriceMax != nil {
		max := *c.TicketPriceMax
		where = append(where, func(e *model.Event) bool {
			return e.TicketPrice.Valid && e.TicketPrice.Decimal.LessThanOrEqual(max)
		})
	}
	if c.ChildrenFree != nil {
		want := *c.ChildrenFree
		where = append(where, func(e *model.Event) bool { return e.ChildrenFree == want })
	}
	if c.Activity != nil {
		want := *c.Activity
		where = append(where, func(e *model.Event) bool { return e.Activity == want })
	}

	if len(where) == 0 {
		return nil
	}
	return func(e *model.Event) bool {
		for _, p := range where {
			if !p(e) {
				return false
			}
		}
		return true
	}
}

// containsFold matches rows whose text field contains needle, ignoring
// case.  Rows with a null field never match.
func containsFold(needle string, field func(*model.Event) *string) predicate {
	needle = strings.ToLower(needle)
	return func(e *model.Event) bool {
		v := field(e)
		if v == nil {
			return false
		}
		return strings.Contains(strings.ToLower(*v), needle)
	}
}
