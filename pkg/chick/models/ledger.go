package models

// LedgerRow is one line of the backup ledger: a lookup key plus a status.
type LedgerRow struct {
	// Row is the 1-based sheet row of the ledger line.
	Row int `json:"row"`
	// Order is the orderer name.
	Order Value `json:"order"`
	// Product is the product label.
	Product Value `json:"product"`
	// Quantity is the ordered amount.
	Quantity Value `json:"quantity"`
	// Status holds the completion marker or is blank.
	Status Value `json:"status"`
}

// Key is an (order, product, quantity) lookup triple.
type Key struct {
	Order    Value `json:"order"`
	Product  Value `json:"product"`
	Quantity Value `json:"quantity"`
}

// Complete reports whether every field of the key is truthy. Incomplete
// keys never match a ledger row, so a zero quantity is never shipped.
func (k Key) Complete() bool {
	return k.Order.Truthy() && k.Product.Truthy() && k.Quantity.Truthy()
}

// Key returns the lookup triple of the ledger row.
func (l LedgerRow) Key() Key {
	return Key{Order: l.Order, Product: l.Product, Quantity: l.Quantity}
}

// Matches reports whether both keys are complete and exactly equal.
func (l LedgerRow) Matches(k Key) bool {
	lk := l.Key()
	if !lk.Complete() || !k.Complete() {
		return false
	}
	return lk.Order.Equal(k.Order) && lk.Product.Equal(k.Product) && lk.Quantity.Equal(k.Quantity)
}
