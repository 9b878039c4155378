package options

import (
	"time"

	"github.com/shopspring/decimal"
)

// Range is an inclusive interval with optional bounds.
type Range interface {
	From() (interface{}, bool)
	To() (interface{}, bool)
}

var (
	_ Range = (*TimeRange)(nil)
	_ Range = (*DecimalRange)(nil)
)

// TimeRange describes a lower and upper bound for Time values.
// Either bound is optional.
type TimeRange struct {
	Low  *time.Time
	High *time.Time
}

func (r *TimeRange) From() (interface{}, bool) {
	if r.Low != nil {
		return *r.Low, true
	}
	return nil, false
}

func (r *TimeRange) To() (interface{}, bool) {
	if r.High != nil {
		return *r.High, true
	}
	return nil, false
}

// Contains reports whether t falls within the range.
func (r *TimeRange) Contains(t time.Time) bool {
	if r.Low != nil && t.Before(*r.Low) {
		return false
	}
	if r.High != nil && t.After(*r.High) {
		return false
	}
	return true
}

// DecimalRange describes a lower and upper bound for Decimal values.
// Either bound is optional.
type DecimalRange struct {
	Low  *decimal.Decimal
	High *decimal.Decimal
}

func (r *DecimalRange) From() (interface{}, bool) {
	if r.Low != nil {
		return r.Low.String(), true
	}
	return nil, false
}

func (r *DecimalRange) To() (interface{}, bool) {
	if r.High != nil {
		return r.High.String(), true
	}
	return nil, false
}

// Contains reports whether d falls within the range.
func (r *DecimalRange) Contains(d decimal.Decimal) bool {
	if r.Low != nil && d.LessThan(*r.Low) {
		return false
	}
	if r.High != nil && d.GreaterThan(*r.High) {
		return false
	}
	return true
}
