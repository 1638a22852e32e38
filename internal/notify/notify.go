// Package notify renders a committed order into a human-readable
// summary and a deep-link to the configured messaging channel. Pure
// string work: the hand-off itself is fire-and-forget and owned by the
// client following the link.
package notify

import (
	"fmt"
	"net/url"
	"strings"

	"backend/internal/models"
)

// ConfigurationError means no channel address is configured. The submit
// flow treats this as fatal before committing anything.
type ConfigurationError struct{}

func (ConfigurationError) Error() string {
	return "notification channel is not configured"
}

type Dispatcher struct {
	// Phone is the storefront's channel address in international
	// digits-only form, e.g. "639171234567".
	Phone string
}

func NewDispatcher(phone string) *Dispatcher {
	return &Dispatcher{Phone: strings.TrimSpace(phone)}
}

func (d *Dispatcher) Configured() bool {
	return d.Phone != ""
}

// Render produces the order summary text: contact block, scheduling
// line, itemized lines with annotations and per-line totals, grand
// total, and payment instructions.
func (d *Dispatcher) Render(o models.Order) string {
	var b strings.Builder

	fmt.Fprintf(&b, "New order %s\n", o.ID.Hex())
	fmt.Fprintf(&b, "Customer: %s (%s)\n", o.Customer.Name, o.Customer.Phone)
	if o.DeliveryMethod == "delivery" {
		fmt.Fprintf(&b, "Deliver to: %s\n", o.Customer.Address)
	} else {
		b.WriteString("For pickup\n")
	}
	if o.Customer.Note != "" {
		fmt.Fprintf(&b, "Note: %s\n", o.Customer.Note)
	}

	if o.SchedulingType == "reserved" && o.ScheduledFor != nil {
		fmt.Fprintf(&b, "Reserved for: %s\n", o.ScheduledFor.Format("Mon Jan 2, 3:04 PM"))
	} else {
		fmt.Fprintf(&b, "ETA: about %d minutes\n", o.EtaMinutes)
	}

	b.WriteString("\n")
	for _, item := range o.Items {
		fmt.Fprintf(&b, "%dx %s", item.Quantity, item.Name)
		if item.Tier != "" {
			fmt.Fprintf(&b, " (%s)", item.Tier)
		}
		fmt.Fprintf(&b, " - %d\n", item.LineTotal)

		for _, m := range item.Modifiers {
			if m.PriceDelta != 0 {
				fmt.Fprintf(&b, "   %s: %s (+%d)\n", m.Group, m.Option, m.PriceDelta)
			} else {
				fmt.Fprintf(&b, "   %s: %s\n", m.Group, m.Option)
			}
		}
		for _, part := range item.Recipe {
			fmt.Fprintf(&b, "   %dx %s\n", part.Count, part.Name)
		}
	}

	fmt.Fprintf(&b, "\nTotal: %d\n", o.Total)

	switch o.PaymentMethod {
	case "cash":
		if o.CashTendered > 0 {
			fmt.Fprintf(&b, "Cash: %d tendered, %d change\n", o.CashTendered, o.CashTendered-o.Total)
		} else {
			b.WriteString("Payment: cash on hand\n")
		}
	case "transfer":
		b.WriteString("Payment: bank transfer - please send proof of payment\n")
	}

	return b.String()
}

// DeepLink builds the wa.me-style URL that opens the channel with the
// rendered summary prefilled.
func (d *Dispatcher) DeepLink(o models.Order) (string, error) {
	if !d.Configured() {
		return "", ConfigurationError{}
	}
	return "https://wa.me/" + d.Phone + "?text=" + url.QueryEscape(d.Render(o)), nil
}
