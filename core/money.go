package core

import "github.com/shopspring/decimal"

// MaxMoney is the smallest amount a numeric(12,2) column cannot hold.
var MaxMoney = decimal.New(1, 10)

// ValidMoney reports whether d fits a numeric(12,2) money column without rounding.
func ValidMoney(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2)) && d.Abs().LessThan(MaxMoney)
}
