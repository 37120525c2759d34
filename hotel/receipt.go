package hotel

import (
	"fmt"
	"strings"
)

// Receipt is what a customer gets back for a booking.
type Receipt struct {
	Booking
	Nights int
}

func NewReceipt(b Booking) Receipt {
	return Receipt{Booking: b, Nights: b.Nights()}
}

// String renders the printable receipt.
func (r Receipt) String() string {
	var sb strings.Builder
	sb.WriteString("========== BOOKING RECEIPT ==========\n")
	fmt.Fprintf(&sb, "Booking ID: %d\n", r.ID)
	fmt.Fprintf(&sb, "Customer: %s\n", r.Username)
	fmt.Fprintf(&sb, "Room Number: %d\n", r.RoomNumber)
	fmt.Fprintf(&sb, "Booking Date: %s\n", r.CreatedAt)
	fmt.Fprintf(&sb, "Check-in: %s\n", r.CheckIn)
	fmt.Fprintf(&sb, "Check-out: %s\n", r.CheckOut)
	fmt.Fprintf(&sb, "Nights: %d\n", r.Nights)
	fmt.Fprintf(&sb, "Total Price: $%s\n", r.TotalPrice.StringFixed(2))
	fmt.Fprintf(&sb, "Status: %s\n", r.Status)
	sb.WriteString("=====================================\n")
	return sb.String()
}
