package options

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	amount := &DecimalRange{}
	window := &TimeRange{}

	tests := []struct {
		name       string
		opts       []*LedgerOptions
		wantLimit  int
		wantOffset int
	}{
		{name: "zero value", wantLimit: DefaultLimit},
		{name: "clamps limit", opts: []*LedgerOptions{NewLedgerOptions().SetPage(1000, 0)}, wantLimit: MaxLimit},
		{name: "negative offset", opts: []*LedgerOptions{NewLedgerOptions().SetPage(10, -3)}, wantLimit: 10},
		{
			name:       "later options override",
			opts:       []*LedgerOptions{NewLedgerOptions().SetPage(5, 5), nil, NewLedgerOptions().SetPage(7, 0)},
			wantLimit:  7,
			wantOffset: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.opts...)
			assert.Equal(t, tt.wantLimit, got.Limit)
			assert.Equal(t, tt.wantOffset, got.Offset)
		})
	}

	got := Merge(NewLedgerOptions().SetAmountRange(amount).SetTimeRange(window))
	assert.Same(t, amount, got.Amount)
	assert.Same(t, window, got.Timestamp)
}

func TestRanges(t *testing.T) {
	low := decimal.NewFromInt(10)
	high := decimal.NewFromInt(20)
	r := &DecimalRange{Low: &low, High: &high}

	assert.True(t, r.Contains(decimal.NewFromInt(10)))
	assert.True(t, r.Contains(decimal.NewFromInt(20)))
	assert.False(t, r.Contains(decimal.RequireFromString("20.01")))
	from, ok := r.From()
	assert.True(t, ok)
	assert.Equal(t, "10", from)

	open := &DecimalRange{}
	_, ok = open.To()
	assert.False(t, ok)
	assert.True(t, open.Contains(decimal.NewFromInt(-5)))

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := &TimeRange{Low: &start}
	assert.False(t, tr.Contains(start.Add(-time.Second)))
	assert.True(t, tr.Contains(start))
}
