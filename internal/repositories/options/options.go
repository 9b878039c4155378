// Package options configures ledger history reads.
package options

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// LedgerOptions configure a history read. The zero value returns the newest
// DefaultLimit entries.
type LedgerOptions struct {
	Limit  int
	Offset int
	// filters entries whose absolute amount lies in this range (inclusive)
	Amount *DecimalRange
	// filters entries recorded in this range (inclusive)
	Timestamp *TimeRange
}

func NewLedgerOptions() *LedgerOptions {
	return &LedgerOptions{}
}

func (o *LedgerOptions) SetPage(limit, offset int) *LedgerOptions {
	o.Limit = limit
	o.Offset = offset
	return o
}

func (o *LedgerOptions) SetAmountRange(v *DecimalRange) *LedgerOptions {
	o.Amount = v
	return o
}

func (o *LedgerOptions) SetTimeRange(v *TimeRange) *LedgerOptions {
	o.Timestamp = v
	return o
}

// Merge folds opts into a single value with paging clamped to sane bounds.
func Merge(opts ...*LedgerOptions) LedgerOptions {
	var out LedgerOptions
	for _, o := range opts {
		if o == nil {
			continue
		}
		if o.Limit != 0 {
			out.Limit = o.Limit
		}
		if o.Offset != 0 {
			out.Offset = o.Offset
		}
		if o.Amount != nil {
			out.Amount = o.Amount
		}
		if o.Timestamp != nil {
			out.Timestamp = o.Timestamp
		}
	}
	if out.Limit <= 0 {
		out.Limit = DefaultLimit
	}
	if out.Limit > MaxLimit {
		out.Limit = MaxLimit
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	return out
}
