package cart

import "github.com/shopspring/decimal"

// FeePolicy is the single delivery-fee rule. Fee applies to a non-empty cart unless
// FreeThreshold is set and the subtotal reaches it.
type FeePolicy struct {
	Fee           decimal.Decimal
	FreeThreshold decimal.Decimal
}

type Totals struct {
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal
}

func (p FeePolicy) Apply(subtotal decimal.Decimal, empty bool) Totals {
	fee := p.Fee
	if empty || (p.FreeThreshold.IsPositive() && subtotal.GreaterThanOrEqual(p.FreeThreshold)) {
		fee = decimal.Zero
	}
	return Totals{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Total:       subtotal.Add(fee),
	}
}
