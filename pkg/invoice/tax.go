package invoice

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/example/shoppurs/pkg/models"
)

var hundred = decimal.NewFromInt(100)

// LineTax is the tax breakdown of one order line. Amounts are rounded to
// two decimals per line before aggregation.
type LineTax struct {
	Taxable decimal.Decimal `json:"taxable"`
	CGST    decimal.Decimal `json:"cgst"`
	SGST    decimal.Decimal `json:"sgst"`
	IGST    decimal.Decimal `json:"igst"`
	Total   decimal.Decimal `json:"total"`
}

type Summary struct {
	Lines      []LineTax       `json:"lines"`
	Taxable    decimal.Decimal `json:"taxable"`
	CGST       decimal.Decimal `json:"cgst"`
	SGST       decimal.Decimal `json:"sgst"`
	IGST       decimal.Decimal `json:"igst"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// Number is derived from the order id so regeneration reuses it.
func Number(orderID uint) string {
	return fmt.Sprintf("INV-%08d", orderID)
}

func Path(number string) string {
	return "invoices/" + number + ".pdf"
}

// ComputeTaxes applies each line's committed rates to its committed price.
// Taxes are charged on top of the taxable value.
func ComputeTaxes(lines []models.OrderLine) Summary {
	s := Summary{
		Lines:      make([]LineTax, 0, len(lines)),
		Taxable:    decimal.Zero,
		CGST:       decimal.Zero,
		SGST:       decimal.Zero,
		IGST:       decimal.Zero,
		GrandTotal: decimal.Zero,
	}
	for _, l := range lines {
		taxable := l.UnitPrice.Mul(l.Quantity).Round(2)
		lt := LineTax{
			Taxable: taxable,
			CGST:    percent(taxable, l.CGSTRate),
			SGST:    percent(taxable, l.SGSTRate),
			IGST:    percent(taxable, l.IGSTRate),
		}
		lt.Total = lt.Taxable.Add(lt.CGST).Add(lt.SGST).Add(lt.IGST)

		s.Lines = append(s.Lines, lt)
		s.Taxable = s.Taxable.Add(lt.Taxable)
		s.CGST = s.CGST.Add(lt.CGST)
		s.SGST = s.SGST.Add(lt.SGST)
		s.IGST = s.IGST.Add(lt.IGST)
		s.GrandTotal = s.GrandTotal.Add(lt.Total)
	}
	return s
}

func percent(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred).Round(2)
}
