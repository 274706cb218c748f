package orderwebhook

import "github.com/shopspring/decimal"

var (
	supplierRate = decimal.RequireFromString("0.05")
	defaultRate  = decimal.RequireFromString("0.02")
)

// Commission is the flat-rate cut owed on a delivered order: 5% when the
// supplier's profile role is "supplier", 2% otherwise. The product is stored
// unrounded so sub-cent commissions still count.
func Commission(total decimal.Decimal, supplierRole string) decimal.Decimal {
	rate := defaultRate
	if supplierRole == "supplier" {
		rate = supplierRate
	}
	return total.Mul(rate)
}
