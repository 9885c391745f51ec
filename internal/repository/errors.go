// Package repository holds the in-memory event table and the search engine
// that filters it.  Sentinel errors defined here let the handler layer map
// failures to HTTP status codes without inspecting messages.
package repository

import "errors"

// ErrEventNotFound is returned when no row carries the requested id.
// Handlers translate it into an HTTP 404 response.
var ErrEventNotFound = errors.New("event not found")

// ErrActivityNotFound is returned when no row carries the requested
// activity number.  Handlers translate it into an HTTP 404 response.
var ErrActivityNotFound = errors.New("activity has no events")
