package cart

import "time"

// Line is one add-to-cart event. Repeat adds of the same product and
// variant stay separate lines; nothing ever merges them.
type Line struct {
	ID        string    `json:"lineId"`
	ProductID string    `json:"productId"`
	Name      string    `json:"name"`
	UnitPrice int       `json:"unitPrice"`
	Currency  string    `json:"currency"`
	ImageURL  string    `json:"imageUrl"`
	Colors    []string  `json:"colors"`
	Sizes     []string  `json:"sizes"`
	Color     string    `json:"color"`
	Size      string    `json:"size"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
}

// Complete reports whether every option domain the line carries has a
// chosen value.
func (l Line) Complete() bool {
	if len(l.Colors) > 0 && l.Color == "" {
		return false
	}
	if len(l.Sizes) > 0 && l.Size == "" {
		return false
	}
	return true
}

type Cart struct {
	Lines []Line `json:"items"`
}

func (c Cart) Count() int {
	var n int
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func (c Cart) Total() int {
	var t int
	for _, l := range c.Lines {
		t += l.UnitPrice * l.Quantity
	}
	return t
}

// Incomplete returns the IDs of lines still missing a variant choice, in
// cart order. Checkout in cart mode refuses to start while any remain.
func (c Cart) Incomplete() []string {
	var ids []string
	for _, l := range c.Lines {
		if !l.Complete() {
			ids = append(ids, l.ID)
		}
	}
	return ids
}
