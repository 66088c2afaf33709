package projector

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/imrishuroy/abak-storefront/internal/cart"
)

// DefaultWhatsAppNumber is used when no number is configured.
const DefaultWhatsAppNumber = "77000000000"

// Opener opens a URL in a new browsing context.
type Opener interface {
	Open(url string)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(url string)

// Open calls f(url).
func (f OpenerFunc) Open(url string) { f(url) }

// NormalizePhone keeps digits only and rewrites an 11-digit number with a
// leading national 8 to the international 7 prefix.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 11 && digits[0] == '8' {
		digits = "7" + digits[1:]
	}
	return digits
}

// CheckoutMessage composes the order text: a greeting, one numbered entry
// per item with its quantity line, and the grand total.
func CheckoutMessage(items []cart.LineItem, greeting, suffix string) string {
	var b strings.Builder
	if greeting != "" {
		b.WriteString(greeting)
		b.WriteString("\n\n")
	}
	total := decimal.Zero
	for i, it := range items {
		line := it.LineTotal()
		total = total.Add(line)
		fmt.Fprintf(&b, "%d. %s\n", i+1, it.Name)
		fmt.Fprintf(&b, "   %d x %s = %s\n", it.Qty, FormatAmount(it.UnitPrice()), FormatPrice(line, suffix))
	}
	fmt.Fprintf(&b, "\nTotal: %s", FormatPrice(total, suffix))
	return b.String()
}

// WhatsAppLink builds the wa.me deep link carrying message.
func WhatsAppLink(number, message string) string {
	return "https://wa.me/" + number + "?text=" + encodeURIComponent(message)
}

func encodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
