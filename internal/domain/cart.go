package domain

// GiftRecipient earmarks part of a line's quantity for direct delivery to a third party.
type GiftRecipient struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Quantity int    `json:"quantity"`
	Message  string `json:"message,omitempty"`
}

type CartLine struct {
	Product  GiftCard        `json:"product"`
	Quantity int             `json:"quantity"`
	Gifts    []GiftRecipient `json:"gifts"`
}

// AllocatedGifts sums the quantity earmarked for recipients.
func (l CartLine) AllocatedGifts() int {
	total := 0
	for _, g := range l.Gifts {
		total += g.Quantity
	}
	return total
}

// RemainingQuantity is the part of the line not yet allocated to gifts, clamped at zero.
func (l CartLine) RemainingQuantity() int {
	r := l.Quantity - l.AllocatedGifts()
	if r < 0 {
		return 0
	}
	return r
}

// Clone returns a copy that shares no slices with l.
func (l CartLine) Clone() CartLine {
	c := l
	c.Gifts = make([]GiftRecipient, len(l.Gifts))
	copy(c.Gifts, l.Gifts)
	return c
}

// CloneLines deep-copies a cart state.
func CloneLines(lines []CartLine) []CartLine {
	out := make([]CartLine, len(lines))
	for i, l := range lines {
		out[i] = l.Clone()
	}
	return out
}
