package utils

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TransactionIDLength is the number of hex characters kept from the UUID.
const TransactionIDLength = 10

// GenerateTransactionID returns a short uppercase identifier shared by both
// ledger entries and both notifications of one transfer. It is cut from a
// random (v4) UUID.
func GenerateTransactionID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(id[:TransactionIDLength])
}

// GenerateAccountNumber returns a 12 character account number, "LP"
// followed by ten digits taken from a random UUID.
func GenerateAccountNumber() string {
	u := uuid.New()
	n := binary.BigEndian.Uint64(u[:8]) % 10_000_000_000
	return fmt.Sprintf("LP%010d", n)
}
