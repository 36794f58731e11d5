// Package layout turns a snapshot's products into fixed-size table pages
// for the screen orientation.
package layout

import (
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/wrale/wrale-painel/api/types/v1alpha1"
)

// PlaceholderMessage is shown in place of the table when there are no products
const PlaceholderMessage = "Aguardando cadastro de produtos..."

// Settings holds the per-orientation table dimensions
type Settings struct {
	HorizontalCapacity int `mapstructure:"horizontal_capacity" yaml:"horizontal_capacity"`
	VerticalCapacity   int `mapstructure:"vertical_capacity" yaml:"vertical_capacity"`
	MarqueeHorizontal  int `mapstructure:"marquee_horizontal" yaml:"marquee_horizontal"`
	MarqueeVertical    int `mapstructure:"marquee_vertical" yaml:"marquee_vertical"`
}

// DefaultSettings returns the dimensions the kiosk page is styled for
func DefaultSettings() Settings {
	return Settings{
		HorizontalCapacity: 18,
		VerticalCapacity:   15,
		MarqueeHorizontal:  22,
		MarqueeVertical:    28,
	}
}

// Params are the layout parameters derived from an orientation
type Params struct {
	Orientation v1alpha1.Orientation
	// Capacity is the number of products per page
	Capacity int
	// Columns is the number of table columns
	Columns int
	// PerColumn is the number of rows in each column
	PerColumn int
	// MarqueeThreshold is the name length above which a row scrolls
	MarqueeThreshold int
}

// For derives the layout of orientation o. Horizontal screens use two
// columns, vertical screens a single one.
func (s Settings) For(o v1alpha1.Orientation) Params {
	o = o.Normalize()
	p := Params{Orientation: o}
	if o.Vertical() {
		p.Capacity = s.VerticalCapacity
		p.Columns = 1
		p.MarqueeThreshold = s.MarqueeVertical
	} else {
		p.Capacity = s.HorizontalCapacity
		p.Columns = 2
		p.MarqueeThreshold = s.MarqueeHorizontal
	}
	p.PerColumn = (p.Capacity + p.Columns - 1) / p.Columns
	return p
}

// TotalPages returns ceil(n/capacity)
func TotalPages(n, capacity int) int {
	if n <= 0 || capacity <= 0 {
		return 0
	}
	return (n + capacity - 1) / capacity
}

// BuildPage lays out page of products. Every column is padded with empty
// rows up to PerColumn so the table height never changes between pages.
func BuildPage(page, totalPages int, products []v1alpha1.Product, p Params) *v1alpha1.TableFrame {
	start := page * p.Capacity
	end := start + p.Capacity
	if start > len(products) {
		start = len(products)
	}
	if end > len(products) {
		end = len(products)
	}
	slice := products[start:end]

	frame := &v1alpha1.TableFrame{
		Page:       page,
		TotalPages: totalPages,
		Columns:    make([]v1alpha1.TableColumn, p.Columns),
	}

	for c := range frame.Columns {
		rows := make([]v1alpha1.TableRow, 0, p.PerColumn)
		for r := 0; r < p.PerColumn; r++ {
			i := c*p.PerColumn + r
			if i >= len(slice) {
				rows = append(rows, v1alpha1.TableRow{Empty: true})
				continue
			}
			rows = append(rows, Row(slice[i], p.MarqueeThreshold))
		}
		frame.Columns[c].Rows = rows
	}

	return frame
}

// Row formats a single product
func Row(prod v1alpha1.Product, marqueeThreshold int) v1alpha1.TableRow {
	name := prod.DisplayName()
	return v1alpha1.TableRow{
		Name:    name,
		Price:   FormatPrice(prod.Price),
		OnOffer: prod.OnOffer,
		Marquee: marqueeThreshold > 0 && utf8.RuneCountInString(name) > marqueeThreshold,
	}
}

// FormatPrice renders a price in Brazilian reais, e.g. "R$ 1.234,56" or
// "-R$ 5,00". Rounding is done on the decimal, half away from zero.
func FormatPrice(price decimal.Decimal) string {
	rounded := price.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	abs := rounded.Abs()
	whole := abs.Truncate(0)
	cents := abs.Sub(whole).Shift(2).IntPart()

	printer := message.NewPrinter(language.BrazilianPortuguese)
	return printer.Sprintf("%sR$ %d,%02d", sign, whole.IntPart(), cents)
}
