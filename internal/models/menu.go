package models

// MenuItem is a catalog entry owned by the menu provider. The ordering core
// only ever reads these.
type MenuItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Category    string  `json:"category,omitempty"`
}

// MenuItemVariant is a priced variation of a menu item (size, option set).
type MenuItemVariant struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// CartItem is one ordered line, optionally attributed to a participant.
// ParticipantName is a snapshot taken when the item was added and is not
// refreshed if the participant later renames.
type CartItem struct {
	ID              string           `json:"id"`
	MenuItem        MenuItem         `json:"menuItem"`
	Variant         *MenuItemVariant `json:"variant,omitempty"`
	Quantity        int              `json:"quantity"`
	ParticipantID   string           `json:"participantId,omitempty"`
	ParticipantName string           `json:"participantName,omitempty"`
}

// UnitPrice returns the variant price when a variant is chosen, otherwise the
// base menu item price.
func (i *CartItem) UnitPrice() float64 {
	if i.Variant != nil {
		return i.Variant.Price
	}
	return i.MenuItem.Price
}

// LineTotal returns unit price times quantity.
func (i *CartItem) LineTotal() float64 {
	return i.UnitPrice() * float64(i.Quantity)
}
