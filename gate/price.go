package gate

import (
	"fmt"
	"net/http"
)

// PriceFunc computes a per-request price in sats, for routes whose cost
// depends on the request (e.g. by query parameter or body size).
type PriceFunc func(*http.Request) int64

// Price is either a fixed sats amount, a PriceFunc, or left unset — in
// which case the gate's Options.DefaultSats applies. The zero value is
// "unset" rather than "0 sats", so a route that genuinely wants to charge
// 0 has to say so explicitly with FixedPrice(0).
type Price struct {
	sats  int64
	fn    PriceFunc
	isSet bool
}

// FixedPrice returns a Price that always resolves to sats.
func FixedPrice(sats int64) Price { return Price{sats: sats, isSet: true} }

// DynamicPrice returns a Price computed per request by fn.
func DynamicPrice(fn PriceFunc) Price { return Price{fn: fn, isSet: true} }

// Resolve returns the price for r, falling back to defaultSats if Price is unset.
func (p Price) Resolve(r *http.Request, defaultSats int64) int64 {
	switch {
	case p.fn != nil:
		return p.fn(r)
	case p.isSet:
		return p.sats
	default:
		return defaultSats
	}
}

// DescriptionFunc computes a per-request invoice description.
type DescriptionFunc func(*http.Request) string

// Description is either fixed text, a DescriptionFunc, or left unset, in
// which case the gate generates one from the request's method and path.
type Description struct {
	text  string
	fn    DescriptionFunc
	isSet bool
}

// FixedDescription returns a Description that always resolves to text.
func FixedDescription(text string) Description { return Description{text: text, isSet: true} }

// DynamicDescription returns a Description computed per request by fn.
func DynamicDescription(fn DescriptionFunc) Description { return Description{fn: fn, isSet: true} }

// Resolve returns the description for r.
func (d Description) Resolve(r *http.Request) string {
	switch {
	case d.fn != nil:
		return d.fn(r)
	case d.isSet:
		return d.text
	default:
		return fmt.Sprintf("API access: %s %s", r.Method, r.URL.Path)
	}
}
