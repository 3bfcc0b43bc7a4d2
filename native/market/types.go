package market

import (
	"fmt"
	"math/big"
)

// SaleRecord tracks the custody and sale state of a single item. One record
// exists per item id once the item has been listed; the record is mutated in
// place on resell and purchase, never deleted.
type SaleRecord struct {
	ItemID    uint64   `json:"itemId"`
	Seller    [20]byte `json:"seller"`
	Custodian [20]byte `json:"custodian"`
	Price     *big.Int `json:"price"`
	Sold      bool     `json:"sold"`
}

// Clone returns a deep copy of the record so callers can safely mutate the
// copy without affecting the stored instance.
func (r *SaleRecord) Clone() *SaleRecord {
	if r == nil {
		return nil
	}
	clone := *r
	if r.Price != nil {
		clone.Price = new(big.Int).Set(r.Price)
	} else {
		clone.Price = big.NewInt(0)
	}
	return &clone
}

// SanitizeSaleRecord validates the supplied record and returns a cloned
// instance with a non-nil price. Listed records must carry a positive price.
func SanitizeSaleRecord(r *SaleRecord) (*SaleRecord, error) {
	if r == nil {
		return nil, fmt.Errorf("nil sale record")
	}
	clone := r.Clone()
	if clone.ItemID == 0 {
		return nil, fmt.Errorf("sale record item id required")
	}
	if clone.Price.Sign() < 0 {
		return nil, fmt.Errorf("sale record price must be non-negative")
	}
	if !clone.Sold && clone.Price.Sign() == 0 {
		return nil, fmt.Errorf("listed sale record requires positive price")
	}
	return clone, nil
}
