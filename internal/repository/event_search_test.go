package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/eventcat/internal/model"
)

func ids(rows []model.Event) []int64 {
	out := make([]int64, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSearch(t *testing.T) {
	t.Parallel()

	dec := func(v int64) *decimal.Decimal { d := decimal.NewFromInt(v); return &d }

	tests := []struct {
		name     string
		criteria model.Criteria
		want     []int64
	}{
		{
			name: "no criteria returns everything",
			want: []int64{10, 11, 12},
		},
		{
			name:     "name is case-insensitive substring",
			criteria: model.Criteria{Name: ptr("park")},
			want:     []int64{10, 11},
		},
		{
			name:     "address substring skips null addresses",
			criteria: model.Criteria{Address: ptr("PARQUE")},
			want:     []int64{10},
		},
		{
			name:     "ticket set membership",
			criteria: model.Criteria{Tickets: []model.TicketCategory{model.TicketPaid, model.TicketDonation}},
			want:     []int64{11},
		},
		{
			name:     "empty ticket set matches nothing",
			criteria: model.Criteria{Tickets: []model.TicketCategory{}},
			want:     []int64{},
		},
		{
			name:     "ticket type set",
			criteria: model.Criteria{TicketTypes: []model.TicketType{model.TicketTypeFixed}},
			want:     []int64{11},
		},
		{
			name:     "gratis and min value zero",
			criteria: model.Criteria{Tickets: []model.TicketCategory{model.TicketFree}, TicketPriceMin: dec(0)},
			want:     []int64{10},
		},
		{
			name:     "price range excludes null prices",
			criteria: model.Criteria{TicketPriceMin: dec(100), TicketPriceMax: dec(2000)},
			want:     []int64{11},
		},
		{
			name:     "max price",
			criteria: model.Criteria{TicketPriceMax: dec(10)},
			want:     []int64{10},
		},
		{
			name:     "start date lower bound is inclusive",
			criteria: model.Criteria{DateStart: ptr(model.MustTimestamp("2023-04-01"))},
			want:     []int64{11, 12},
		},
		{
			name:     "end date upper bound is inclusive",
			criteria: model.Criteria{DateEnd: ptr(model.MustTimestamp("2023-04-02"))},
			want:     []int64{10, 11},
		},
		{
			name:     "children flag equality",
			criteria: model.Criteria{ChildrenFree: ptr(false)},
			want:     []int64{11, 12},
		},
		{
			name:     "activity equality combined with text",
			criteria: model.Criteria{Activity: ptr(int64(100)), Name: ptr("jazz")},
			want:     []int64{10},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := seedRepo(t)
			rows, err := r.Search(context.Background(), tt.criteria)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if got := ids(rows); !equalIDs(got, tt.want) {
				t.Fatalf("got ids %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCriteriaEmpty(t *testing.T) {
	t.Parallel()
	if !(model.Criteria{}).Empty() {
		t.Fatal("zero criteria should be empty")
	}
	if (model.Criteria{Tickets: []model.TicketCategory{}}).Empty() {
		t.Fatal("an explicit empty set is a filter")
	}
}
