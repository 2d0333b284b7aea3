package orderitems

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type Summary struct {
	Lines    int             `json:"lines"`
	Units    float64         `json:"units"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// LineTotal is price times quantity, rounded to cents.
func LineTotal(item LineItem) decimal.Decimal {
	return decimal.NewFromFloat(item.Price).Mul(decimal.NewFromFloat(item.Quantity)).Round(2)
}

func Summarize(items []LineItem) Summary {
	return Summary{
		Lines: len(items),
		Units: lo.SumBy(items, func(li LineItem) float64 { return li.Quantity }),
		Subtotal: lo.Reduce(items, func(acc decimal.Decimal, li LineItem, _ int) decimal.Decimal {
			return acc.Add(LineTotal(li))
		}, decimal.Zero),
	}
}

// Headline is the short text used on order-summary badges.
func Headline(items []LineItem) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0].ProductName
	default:
		return fmt.Sprintf("%s + %d more", items[0].ProductName, len(items)-1)
	}
}
