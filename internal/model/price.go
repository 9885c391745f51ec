package model

import (
    "bytes"
    "encoding/json"
    "reflect"
    "strconv"

    "github.com/shopspring/decimal"
)

var priceType = reflect.TypeOf(Price{})

// Price is a ticket value read from a request.  It accepts JSON numbers and
// numeric strings.
type Price struct {
    decimal.Decimal
}

func (p *Price) UnmarshalJSON(b []byte) error {
    if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
        return nil
    }
    var d decimal.Decimal
    if err := d.UnmarshalJSON(b); err != nil {
        // a type error lets encoding/json attach the field name
        var s string
        if json.Unmarshal(b, &s) == nil {
            return &json.UnmarshalTypeError{Value: "string " + strconv.Quote(s), Type: priceType}
        }
        return &json.UnmarshalTypeError{Value: jsonKind(b), Type: priceType}
    }
    p.Decimal = d
    return nil
}

// OptionalDecimal unwraps an Optional[Price] for EventPatch.
func OptionalDecimal(o Optional[Price]) Optional[decimal.Decimal] {
    return Optional[decimal.Decimal]{Set: o.Set, Null: o.Null, Value: o.Value.Decimal}
}
