package notification

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// timeLayout renders timestamps like "5/3/24 at 2:07 PM".
const timeLayout = "2/1/06 at 3:04 PM"

// Formatter renders the SMS-style confirmation texts sent to each party.
type Formatter struct {
	loc *time.Location
}

// NewFormatter returns a Formatter that renders timestamps in loc. A nil
// loc means UTC.
func NewFormatter(loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{loc: loc}
}

func (f *Formatter) FormatSenderMessage(txID string, amount decimal.Decimal, recipientName string, newBalance, remainingLimit decimal.Decimal, ts time.Time) string {
	return fmt.Sprintf(
		"%s Confirmed. Ksh%s paid to %s on %s. New balance is Ksh%s. "+
			"Transaction cost, Ksh. 0.00. Amount you can transact within the day is Ksh%s.",
		txID, amount.StringFixed(2), recipientName, f.stamp(ts), newBalance.StringFixed(2), remainingLimit.StringFixed(2),
	)
}

func (f *Formatter) FormatRecipientMessage(txID string, amount decimal.Decimal, senderName string, newBalance decimal.Decimal, ts time.Time) string {
	return fmt.Sprintf(
		"%s Confirmed. You have received Ksh%s from %s on %s. New balance is Ksh%s.",
		txID, amount.StringFixed(2), senderName, f.stamp(ts), newBalance.StringFixed(2),
	)
}

func (f *Formatter) stamp(ts time.Time) string {
	return ts.In(f.loc).Format(timeLayout)
}
