package domain

import "github.com/shopspring/decimal"

type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
	Selected bool    `json:"selected"`
}

// LineTotal is unit price times quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartSnapshot is a point-in-time copy of a cart with its derived totals.
type CartSnapshot struct {
	Lines             []CartLine      `json:"lines"`
	TotalItemCount    int             `json:"total_item_count"`
	SelectedItemCount int             `json:"selected_item_count"`
	SelectedSubtotal  decimal.Decimal `json:"selected_subtotal"`
	Version           uint64          `json:"version"`
}

// NewCartSnapshot copies lines and computes the totals over them.
func NewCartSnapshot(lines []CartLine, version uint64) CartSnapshot {
	s := CartSnapshot{
		Lines:            make([]CartLine, len(lines)),
		SelectedSubtotal: decimal.Zero,
		Version:          version,
	}
	for i, l := range lines {
		l.Product = l.Product.Clone()
		s.Lines[i] = l
		s.TotalItemCount += l.Quantity
		if l.Selected {
			s.SelectedItemCount += l.Quantity
			s.SelectedSubtotal = s.SelectedSubtotal.Add(l.LineTotal())
		}
	}
	return s
}

// SelectedLines returns copies of the selected lines in cart order.
func (s CartSnapshot) SelectedLines() []CartLine {
	selected := make([]CartLine, 0, len(s.Lines))
	for _, l := range s.Lines {
		if l.Selected {
			l.Product = l.Product.Clone()
			selected = append(selected, l)
		}
	}
	return selected
}

func (s CartSnapshot) ProductIDs() []int64 {
	ids := make([]int64, len(s.Lines))
	for i, l := range s.Lines {
		ids[i] = l.Product.ID
	}
	return ids
}

// SameLines reports whether both snapshots hold the same lines in the same order.
func (s CartSnapshot) SameLines(o CartSnapshot) bool {
	if len(s.Lines) != len(o.Lines) {
		return false
	}
	for i, l := range s.Lines {
		r := o.Lines[i]
		if l.Product.ID != r.Product.ID || l.Quantity != r.Quantity || l.Selected != r.Selected ||
			!l.Product.Price.Equal(r.Product.Price) {
			return false
		}
	}
	return true
}
