package notification

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatter(t *testing.T) {
	f := NewFormatter(nil)
	ts := time.Date(2024, 3, 5, 14, 7, 0, 0, time.UTC)

	got := f.FormatRecipientMessage("AB12CD34EF", decimal.NewFromInt(100), "Alice", decimal.RequireFromString("150.5"), ts)
	assert.Equal(t, "AB12CD34EF Confirmed. You have received Ksh100.00 from Alice on 5/3/24 at 2:07 PM. New balance is Ksh150.50.", got)

	got = f.FormatSenderMessage("AB12CD34EF", decimal.NewFromInt(100), "Bob", decimal.NewFromInt(900), decimal.NewFromInt(499900), ts)
	assert.Equal(t, "AB12CD34EF Confirmed. Ksh100.00 paid to Bob on 5/3/24 at 2:07 PM. New balance is Ksh900.00. "+
		"Transaction cost, Ksh. 0.00. Amount you can transact within the day is Ksh499900.00.", got)
}

func TestFormatter_Location(t *testing.T) {
	nairobi := time.FixedZone("EAT", 3*60*60)
	f := NewFormatter(nairobi)
	ts := time.Date(2024, 12, 31, 22, 30, 0, 0, time.UTC)

	got := f.FormatRecipientMessage("X", decimal.NewFromInt(1), "A", decimal.Zero, ts)
	assert.Contains(t, got, "on 1/1/25 at 1:30 AM")
}
