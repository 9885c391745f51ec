package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/eventcat/internal/model"
	"github.com/iliyamo/eventcat/internal/queue"
	"github.com/iliyamo/eventcat/internal/repository"
)

// ChangeNotifier is told about every successful mutation.  Implementations
// must not fail the request: errors are theirs to log.
type ChangeNotifier interface {
	Notify(ctx context.Context, kind string, rows []model.Event)
}

// Notifiers fans a change out to several notifiers in order.
type Notifiers []ChangeNotifier

func (ns Notifiers) Notify(ctx context.Context, kind string, rows []model.Event) {
	for _, n := range ns {
		if n != nil {
			n.Notify(ctx, kind, rows)
		}
	}
}

// EventHandler serves the event catalog endpoints.
type EventHandler struct {
	Repo     *repository.EventRepo
	Notifier ChangeNotifier
	Log      *zap.Logger

	// Applied to searches that omit date_start / date_end.  Nil disables.
	DefaultStart *model.Timestamp
	DefaultEnd   *model.Timestamp
}

// NewEventHandler panics on a nil repository, like the other constructors
// wiring required dependencies.
func NewEventHandler(repo *repository.EventRepo, notifier ChangeNotifier, log *zap.Logger) *EventHandler {
	if repo == nil {
		panic("nil repository passed to NewEventHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if notifier == nil {
		notifier = Notifiers(nil)
	}
	return &EventHandler{Repo: repo, Notifier: notifier, Log: log}
}

type createEventReq struct {
	Name         *string               `json:"name" validate:"required"`
	DateStart    *model.Timestamp      `json:"date_start" validate:"required"`
	DateEnd      *model.Timestamp      `json:"date_end" validate:"required"`
	Ticket       *model.TicketCategory `json:"ticket" validate:"omitnil,enum"`
	Text         *string               `json:"text"`
	TicketValue  *string               `json:"ticket_value"`
	VenueName    *string               `json:"eventual_name"`
	VenueAddress *string               `json:"eventual_direccion"`
	VenueCoords  *string               `json:"eventual_coords"`
	District     *model.District       `json:"eventual_distrito" validate:"omitnil,enum"`
	Suspended    *bool                 `json:"suspendida"`
	Activity     *int64                `json:"actividad" validate:"omitnil,gte=0"`
	Rule         *int64                `json:"regla"`
	RuleER       *string               `json:"regla_er"`
	TicketType   *model.TicketType     `json:"ticket_tipo" validate:"omitnil,enum"`
	TicketPrice  *model.Price          `json:"ticket_valor"`
	ChildrenFree *bool                 `json:"ticket_paga_menor_4"`
}

func (r createEventReq) toModel() model.NewEvent {
	in := model.NewEvent{
		Name:         *r.Name,
		DateStart:    *r.DateStart,
		DateEnd:      *r.DateEnd,
		Ticket:       r.Ticket,
		Text:         r.Text,
		TicketValue:  r.TicketValue,
		Venue:        model.Venue{Name: r.VenueName, Address: r.VenueAddress, Coords: r.VenueCoords, District: r.District},
		RuleER:       r.RuleER,
		TicketType:   r.TicketType,
		ChildrenFree: r.ChildrenFree,
	}
	if r.Suspended != nil {
		in.Suspended = *r.Suspended
	}
	// activity 0 is the unset marker
	if r.Activity != nil && *r.Activity != 0 {
		in.Activity = r.Activity
	}
	if r.Rule != nil {
		in.Rule = *r.Rule
	}
	if r.TicketPrice != nil {
		in.TicketPrice = decimal.NewNullDecimal(r.TicketPrice.Decimal)
	}
	return in
}

type updateEventReq struct {
	Name         model.Optional[string]               `json:"name"`
	DateStart    model.Optional[model.Timestamp]      `json:"date_start"`
	DateEnd      model.Optional[model.Timestamp]      `json:"date_end"`
	Ticket       model.Optional[model.TicketCategory] `json:"ticket" validate:"omitnil,enum"`
	Text         model.Optional[string]               `json:"text"`
	TicketValue  model.Optional[string]               `json:"ticket_value"`
	VenueName    model.Optional[string]               `json:"eventual_name"`
	VenueAddress model.Optional[string]               `json:"eventual_direccion"`
	VenueCoords  model.Optional[string]               `json:"eventual_coords"`
	District     model.Optional[model.District]       `json:"eventual_distrito" validate:"omitnil,enum"`
	Suspended    model.Optional[bool]                 `json:"suspendida" validate:"omitnil,eq=true"`
	Activity     model.Optional[int64]                `json:"actividad" validate:"omitnil,gte=0"`
	Rule         model.Optional[int64]                `json:"regla"`
	RuleER       model.Optional[string]               `json:"regla_er"`
	TicketType   model.Optional[model.TicketType]     `json:"ticket_tipo" validate:"omitnil,enum"`
	TicketPrice  model.Optional[model.Price]          `json:"ticket_valor"`
	ChildrenFree model.Optional[bool]                 `json:"ticket_paga_menor_4"`
}

func (r updateEventReq) toModel() model.EventPatch {
	return model.EventPatch{
		Name:         r.Name,
		DateStart:    r.DateStart,
		DateEnd:      r.DateEnd,
		Ticket:       r.Ticket,
		Text:         r.Text,
		TicketValue:  r.TicketValue,
		VenueName:    r.VenueName,
		VenueAddress: r.VenueAddress,
		VenueCoords:  r.VenueCoords,
		District:     r.District,
		Suspended:    r.Suspended,
		Activity:     r.Activity,
		Rule:         r.Rule,
		RuleER:       r.RuleER,
		TicketType:   r.TicketType,
		TicketPrice:  model.OptionalDecimal(r.TicketPrice),
		ChildrenFree: r.ChildrenFree,
	}
}

type searchReq struct {
	Name         *string                `json:"name"`
	Tickets      []model.TicketCategory `json:"ticket" validate:"omitempty,dive,enum"`
	TicketTypes  []model.TicketType     `json:"ticket_tipo" validate:"omitempty,dive,enum"`
	PriceMin     *float64               `json:"ticket_valor_min" validate:"omitnil,gte=0"`
	PriceMax     *float64               `json:"ticket_valor_max" validate:"omitnil,gt=0"`
	ChildrenFree *bool                  `json:"ticket_paga_menor_4"`
	DateStart    *model.Timestamp       `json:"date_start"`
	DateEnd      *model.Timestamp       `json:"date_end"`
	Address      *string                `json:"eventual_direccion"`
	Activity     *int64                 `json:"actividad"`
}

func (r searchReq) toModel() model.Criteria {
	c := model.Criteria{
		Name:         r.Name,
		Tickets:      r.Tickets,
		TicketTypes:  r.TicketTypes,
		ChildrenFree: r.ChildrenFree,
		DateStart:    r.DateStart,
		DateEnd:      r.DateEnd,
		Address:      r.Address,
		Activity:     r.Activity,
	}
	if r.PriceMin != nil {
		d := decimal.NewFromFloat(*r.PriceMin)
		c.TicketPriceMin = &d
	}
	if r.PriceMax != nil {
		d := decimal.NewFromFloat(*r.PriceMax)
		c.TicketPriceMax = &d
	}
	return c
}

// CreateEvent handles POST /event.
func (h *EventHandler) CreateEvent(c echo.Context) error {
	var req createEventReq
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	ev, err := h.Repo.Create(ctx, req.toModel())
	if err != nil {
		return h.storeError(err)
	}
	h.Log.Info("event created", zap.Int64("id", ev.ID), zap.Int64("activity", ev.Activity))
	h.Notifier.Notify(ctx, queue.KindCreated, []model.Event{*ev})
	return c.JSON(http.StatusCreated, ev)
}

// GetEvent handles GET /event/:id.
func (h *EventHandler) GetEvent(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	rows, err := h.Repo.GetByID(c.Request().Context(), id)
	if err != nil {
		return h.storeError(err)
	}
	return c.JSON(http.StatusOK, rows)
}

// UpdateEvent handles PUT /event/:id.  Only keys present in the body are
// written; an explicit null clears a nullable field.
func (h *EventHandler) UpdateEvent(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateEventReq
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	rows, err := h.Repo.UpdateByID(ctx, id, req.toModel())
	if err != nil {
		return h.storeError(err)
	}
	h.Log.Info("event updated", zap.Int64("id", id))
	h.Notifier.Notify(ctx, queue.KindUpdated, rows)
	return c.JSON(http.StatusOK, rows)
}

// SuspendEvent handles DELETE /event/:id.  Rows are flagged, never removed.
func (h *EventHandler) SuspendEvent(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	rows, err := h.Repo.Suspend(ctx, id)
	if err != nil {
		return h.storeError(err)
	}
	h.Log.Info("event suspended", zap.Int64("id", id))
	h.Notifier.Notify(ctx, queue.KindSuspended, rows)
	return c.JSON(http.StatusOK, rows)
}

// GetActivity handles GET /activity/:id.
func (h *EventHandler) GetActivity(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	rows, err := h.Repo.GetByActivity(c.Request().Context(), id)
	if err != nil {
		return h.storeError(err)
	}
	return c.JSON(http.StatusOK, rows)
}

// SearchEvents handles POST /search.  An empty body returns the whole
// table unless a default date window is configured.
func (h *EventHandler) SearchEvents(c echo.Context) error {
	var req searchReq
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	crit := req.toModel()
	if crit.DateStart == nil && h.DefaultStart != nil {
		crit.DateStart = h.DefaultStart
	}
	if crit.DateEnd == nil && h.DefaultEnd != nil {
		crit.DateEnd = h.DefaultEnd
	}
	rows, err := h.Repo.Search(c.Request().Context(), crit)
	if err != nil {
		return h.storeError(err)
	}
	return c.JSON(http.StatusOK, rows)
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, invalidPath("id", "Input should be a valid integer, unable to parse string as an integer")
	}
	return id, nil
}

// storeError maps repository sentinels to their HTTP responses.  Anything
// else falls through to the error handler as a 500.
func (h *EventHandler) storeError(err error) error {
	switch {
	case errors.Is(err, repository.ErrEventNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Event not found")
	case errors.Is(err, repository.ErrActivityNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Activity has no events")
	}
	return err
}
