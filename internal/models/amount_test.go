package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidAmount(t *testing.T) {
	tests := []struct {
		amount string
		want   bool
	}{
		{amount: "0.01", want: true},
		{amount: "150", want: true},
		{amount: "10.500", want: true},
		{amount: "999999999999999.99", want: true},
		{amount: "1000000000000000", want: false},
		{amount: "0", want: false},
		{amount: "-5", want: false},
		{amount: "0.005", want: false},
		{amount: "0.00005", want: false},
		{amount: "1e3000000", want: false},
		{amount: "1e-3000000", want: false},
		{amount: "1.0000000000000000000000000000000000000000000000000000000000000000000000", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidAmount(decimal.RequireFromString(tt.amount)))
		})
	}
}
