package cart

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/shoppurs/pkg/models"
)

// Line is a cart line joined with the current product and unit data.
type Line struct {
	ID                 uint            `json:"id"`
	ProductID          uint            `json:"product_id"`
	UnitID             uint            `json:"unit_id"`
	Quantity           decimal.Decimal `json:"quantity"`
	UnitLabel          string          `json:"unit_label"`
	StepValue          decimal.Decimal `json:"step_value"`
	Rate               decimal.Decimal `json:"rate"`
	UnitStatus         string          `json:"unit_status"`
	ProductName        string          `json:"product_name"`
	ProductDescription string          `json:"product_description"`
	HSNCode            string          `json:"hsn_code"`
	MRP                decimal.Decimal `json:"mrp"`
	CGSTRate           decimal.Decimal `json:"cgst_rate"`
	SGSTRate           decimal.Decimal `json:"sgst_rate"`
	IGSTRate           decimal.Decimal `json:"igst_rate"`
	ImageURL           string          `json:"image_url"`
	LineTotal          decimal.Decimal `json:"line_total" gorm:"-"`
}

const lineColumns = `cart_lines.id AS id, cart_lines.product_id AS product_id, cart_lines.unit_id AS unit_id,
	cart_lines.quantity AS quantity, product_units.label AS unit_label, product_units.step_value AS step_value,
	product_units.rate AS rate, product_units.status AS unit_status, products.name AS product_name,
	products.description AS product_description, products.hsn_code AS hsn_code, products.mrp AS mrp,
	products.cgst_rate AS cgst_rate, products.sgst_rate AS sgst_rate, products.igst_rate AS igst_rate,
	products.image_url AS image_url`

// LoadLines reads the user's cart with pricing. With lock set the cart rows
// are read FOR UPDATE, which callers inside a transaction use to serialize
// concurrent checkouts of the same cart.
func LoadLines(db *gorm.DB, userID uint, lock bool) ([]Line, error) {
	q := db.Table(models.CartLine{}.TableName()).
		Select(lineColumns).
		Joins("JOIN products ON products.id = cart_lines.product_id").
		Joins("JOIN product_units ON product_units.id = cart_lines.unit_id").
		Where("cart_lines.user_id = ?", userID).
		Order("cart_lines.id ASC")
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: models.CartLine{}.TableName()}})
	}

	var lines []Line
	if err := q.Scan(&lines).Error; err != nil {
		return nil, err
	}
	for i := range lines {
		lines[i].LineTotal = lines[i].Rate.Mul(lines[i].Quantity)
	}
	return lines, nil
}

// Totals sums quantities and line totals.
func Totals(lines []Line) (amount, quantity decimal.Decimal) {
	amount, quantity = decimal.Zero, decimal.Zero
	for _, l := range lines {
		amount = amount.Add(l.LineTotal)
		quantity = quantity.Add(l.Quantity)
	}
	return amount, quantity
}
