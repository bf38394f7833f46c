package app

import (
	"strconv"

	"github.com/google/uuid"
)

// ticketNamespace scopes the name-based ticket ids.
var ticketNamespace = uuid.MustParse("6f1c3a52-9d0e-4b7a-8c2d-5e4f3a2b1c0d")

func newUUID() string {
	return uuid.NewString()
}

// ticketID is stable for a given order and slot, so reissuing an order's
// tickets yields the same ids and barcodes.
func ticketID(orderID string, slot int) string {
	return uuid.NewSHA1(ticketNamespace, []byte(orderID+"/"+strconv.Itoa(slot))).String()
}
