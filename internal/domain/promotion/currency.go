package promotion

import "strconv"

// Currency is the numeric ISO-style code stored with a promotion.
type Currency int

const (
	MXN Currency = iota
	USD
	EUR
	GBP
	JPY
	CAD
	AUD
	CHF
	CNY
)

var currencyCodes = [...]string{"MXN", "USD", "EUR", "GBP", "JPY", "CAD", "AUD", "CHF", "CNY"}

func (c Currency) IsValid() bool {
	return c >= MXN && c <= CNY
}

func (c Currency) String() string {
	if !c.IsValid() {
		return "Currency(" + strconv.Itoa(int(c)) + ")"
	}

	return currencyCodes[c]
}
