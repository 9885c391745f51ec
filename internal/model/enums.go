package model

// TicketCategory tells whether an event is free, paid or pay-what-you-wish.
type TicketCategory string

const (
    TicketFree     TicketCategory = "gratis"
    TicketPaid     TicketCategory = "paga"
    TicketDonation TicketCategory = "gorra"
)

// TicketCategories lists every accepted ticket category in display order.
func TicketCategories() []TicketCategory {
    return []TicketCategory{TicketFree, TicketPaid, TicketDonation}
}

// Valid reports whether c is one of the known categories.
func (c TicketCategory) Valid() bool {
    switch c {
    case TicketFree, TicketPaid, TicketDonation:
        return true
    }
    return false
}

// TicketType describes the pricing structure of a paid event.
type TicketType string

const (
    TicketTypeFixed         TicketType = "FIJO"
    TicketTypeFrom          TicketType = "DESDE"
    TicketTypePerMonth      TicketType = "POR_MES"
    TicketTypeSoldOut       TicketType = "AGOTADAS"
    TicketTypeTotal         TicketType = "TOTAL"
    TicketTypePerOccurrence TicketType = "POR_VEZ"
    TicketTypeFree          TicketType = "GRATIS"
)

// TicketTypes lists every accepted ticket type.
func TicketTypes() []TicketType {
    return []TicketType{
        TicketTypeFixed,
        TicketTypeFrom,
        TicketTypePerMonth,
        TicketTypeSoldOut,
        TicketTypeTotal,
        TicketTypePerOccurrence,
        TicketTypeFree,
    }
}

func (t TicketType) Valid() bool {
    switch t {
    case TicketTypeFixed, TicketTypeFrom, TicketTypePerMonth, TicketTypeSoldOut,
        TicketTypeTotal, TicketTypePerOccurrence, TicketTypeFree:
        return true
    }
    return false
}

// District is the municipal district code of a venue.
type District string

const (
    District437 District = "437"
    District438 District = "438"
    District439 District = "439"
    District440 District = "440"
    District441 District = "441"
    District442 District = "442"
)

// Districts lists the six district codes a venue may carry.
func Districts() []District {
    return []District{District437, District438, District439, District440, District441, District442}
}

func (d District) Valid() bool {
    switch d {
    case District437, District438, District439, District440, District441, District442:
        return true
    }
    return false
}

// Enum is implemented by the closed string sets above.  The validator
// uses it for the "enum" tag.
type Enum interface {
    Valid() bool
}
