// Package cart binds ordered line items to session participants and computes
// per-participant and group totals.
package cart

import (
	"group-order-service/internal/models"
)

// ParticipantShare is one row of a split summary.
type ParticipantShare struct {
	ParticipantID   string  `json:"participantId"`
	ParticipantName string  `json:"participantName"`
	Subtotal        float64 `json:"subtotal"`
	ItemCount       int     `json:"itemCount"`
}

// Cart is a participant-aware shared cart. In group mode, line items are
// keyed by (menu item, variant, participant) so two guests ordering the same
// dish keep separate lines; in solo mode the participant is not part of the
// key.
type Cart struct {
	items               []models.CartItem
	participants        []models.GroupParticipant
	groupMode           bool
	activeParticipantID string
}

// New creates an empty solo-mode cart.
func New() *Cart {
	return &Cart{}
}

// SetGroupMode switches the item-keying behavior.
func (c *Cart) SetGroupMode(on bool) {
	c.groupMode = on
}

// GroupMode reports whether group-mode keying is active.
func (c *Cart) GroupMode() bool {
	return c.groupMode
}

// SetParticipants replaces the set of known participants. Split summaries
// cover exactly this set.
func (c *Cart) SetParticipants(participants []models.GroupParticipant) {
	c.participants = make([]models.GroupParticipant, len(participants))
	copy(c.participants, participants)
}

// SetActiveParticipant sets the default attribution for AddItem calls that
// do not name a participant.
func (c *Cart) SetActiveParticipant(participantID string) {
	c.activeParticipantID = participantID
}

// Items returns a copy of the current line items.
func (c *Cart) Items() []models.CartItem {
	out := make([]models.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// ReplaceItems wholesale-replaces the line items, used when adopting server
// state.
func (c *Cart) ReplaceItems(items []models.CartItem) {
	c.items = make([]models.CartItem, len(items))
	copy(c.items, items)
}

// AddItem adds a line or increments the quantity of a matching one, and
// returns the resulting line. An empty participantID defaults to the active
// participant.
func (c *Cart) AddItem(menuItem models.MenuItem, variant *models.MenuItemVariant, quantity int, participantID string) models.CartItem {
	if quantity <= 0 {
		quantity = 1
	}
	if participantID == "" {
		participantID = c.activeParticipantID
	}
	id := ItemID(menuItem.ID, variant)

	for i := range c.items {
		if c.items[i].ID != id {
			continue
		}
		if c.groupMode && c.items[i].ParticipantID != participantID {
			continue
		}
		c.items[i].Quantity += quantity
		return c.items[i]
	}

	item := models.CartItem{
		ID:              id,
		MenuItem:        menuItem,
		Variant:         variant,
		Quantity:        quantity,
		ParticipantID:   participantID,
		ParticipantName: c.participantName(participantID),
	}
	c.items = append(c.items, item)
	return item
}

// UpdateQuantity sets the quantity of the matching line; zero or negative
// removes it.
func (c *Cart) UpdateQuantity(itemID, participantID string, quantity int) {
	for i := range c.items {
		if c.items[i].ID != itemID {
			continue
		}
		if c.groupMode && c.items[i].ParticipantID != participantID {
			continue
		}
		if quantity <= 0 {
			c.items = append(c.items[:i], c.items[i+1:]...)
		} else {
			c.items[i].Quantity = quantity
		}
		return
	}
}

// RemoveItem deletes the matching line.
func (c *Cart) RemoveItem(itemID, participantID string) {
	c.UpdateQuantity(itemID, participantID, 0)
}

// RemoveParticipant strips attribution from the participant's items. Lines
// stay in the shared cart unattributed; nothing is deleted.
func (c *Cart) RemoveParticipant(participantID string) {
	for i := range c.items {
		if c.items[i].ParticipantID == participantID {
			c.items[i].ParticipantID = ""
			c.items[i].ParticipantName = ""
		}
	}
	for i, p := range c.participants {
		if p.ID == participantID {
			c.participants = append(c.participants[:i], c.participants[i+1:]...)
			break
		}
	}
}

// ParticipantSubtotal sums price times quantity over the participant's items.
func (c *Cart) ParticipantSubtotal(participantID string) float64 {
	total := 0.0
	for i := range c.items {
		if c.items[i].ParticipantID == participantID {
			total += c.items[i].LineTotal()
		}
	}
	return total
}

// SplitSummary returns one share per known participant, in participant
// order. Participants with no items appear with a zero subtotal.
func (c *Cart) SplitSummary() []ParticipantShare {
	shares := make([]ParticipantShare, 0, len(c.participants))
	for _, p := range c.participants {
		share := ParticipantShare{ParticipantID: p.ID, ParticipantName: p.Name}
		for i := range c.items {
			if c.items[i].ParticipantID == p.ID {
				share.Subtotal += c.items[i].LineTotal()
				share.ItemCount += c.items[i].Quantity
			}
		}
		shares = append(shares, share)
	}
	return shares
}

// Total sums every line regardless of attribution, so unattributed items are
// always part of the group total.
func (c *Cart) Total() float64 {
	total := 0.0
	for i := range c.items {
		total += c.items[i].LineTotal()
	}
	return total
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
}

func (c *Cart) participantName(participantID string) string {
	if participantID == "" {
		return ""
	}
	for _, p := range c.participants {
		if p.ID == participantID {
			return p.Name
		}
	}
	return ""
}

// ItemID builds the composite line id from the menu item and optional
// variant.
func ItemID(menuItemID string, variant *models.MenuItemVariant) string {
	if variant != nil {
		return menuItemID + "-" + variant.ID
	}
	return menuItemID
}
