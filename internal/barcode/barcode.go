// Package barcode builds and parses the scannable codes printed on tickets.
//
// A code is the base64 form of "orderID|ticketID|seatID". Scanners that
// submit something else (a bare ticket ID typed in by door staff, a code
// from an older printout) are still accepted: Decode falls back to treating
// the raw input as a ticket ID.
package barcode

import (
	"encoding/base64"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	delimiter = "|"

	minQRSize     = 128
	maxQRSize     = 1024
	defaultQRSize = 256
)

// Payload is the decoded content of a ticket code.
type Payload struct {
	OrderID  string
	TicketID string
	SeatID   string
	// Raw is set when the input was not an encoded code and TicketID holds
	// the input verbatim.
	Raw bool
}

// Encode returns the code for a ticket. seatID is empty for general admission.
func Encode(orderID, ticketID, seatID string) string {
	joined := strings.Join([]string{orderID, ticketID, seatID}, delimiter)
	return base64.StdEncoding.EncodeToString([]byte(joined))
}

// Decode parses a scanned code.
func Decode(code string) Payload {
	code = strings.TrimSpace(code)
	raw, err := base64.StdEncoding.DecodeString(code)
	if err != nil {
		return Payload{TicketID: code, Raw: true}
	}
	parts := strings.Split(string(raw), delimiter)
	if len(parts) != 3 || parts[1] == "" {
		return Payload{TicketID: code, Raw: true}
	}
	return Payload{OrderID: parts[0], TicketID: parts[1], SeatID: parts[2]}
}

// QRPNG renders code as a PNG QR image of size x size pixels.
func QRPNG(code string, size int) ([]byte, error) {
	if size <= 0 {
		size = defaultQRSize
	}
	size = min(max(size, minQRSize), maxQRSize)

	png, err := qrcode.Encode(code, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
