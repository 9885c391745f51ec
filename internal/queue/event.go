// Package queue defines message payloads exchanged over the message broker
// and the audit consumer that records them.
package queue

import (
    "time"

    "github.com/iliyamo/eventcat/internal/model"
)

// Change kinds carried by EventChanged.Kind.
const (
    KindCreated   = "event.created"
    KindUpdated   = "event.updated"
    KindSuspended = "event.suspended"
)

// EventChanged is published after every successful mutation of the event
// table.  It carries the rows as they look after the change so consumers
// never need to call back into the API.
type EventChanged struct {
    Kind       string        `json:"kind"`
    EventIDs   []int64       `json:"event_ids"`
    Events     []model.Event `json:"events"`
    OccurredAt string        `json:"occurred_at"`
}

// NewEventChanged builds a message for rows changed at now.
func NewEventChanged(kind string, rows []model.Event, now time.Time) EventChanged {
    ids := make([]int64, 0, len(rows))
    for _, r := range rows {
        ids = append(ids, r.ID)
    }
    return EventChanged{
        Kind:       kind,
        EventIDs:   ids,
        Events:     rows,
        OccurredAt: now.UTC().Format(time.RFC3339),
    }
}
