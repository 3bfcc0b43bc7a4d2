package auction

import (
	"fmt"
	"math/big"
)

// Auction is one entry in the append-only auction sequence. The record is
// created at auction creation, mutated by accepted bids, and marked settled
// only when the seller accepts the winning bid at finalization. Records are
// never deleted; liveness is tracked in a side-index.
type Auction struct {
	ID            uint64   `json:"id"`
	Seller        [20]byte `json:"seller"`
	Collection    [20]byte `json:"collection"`
	ItemID        uint64   `json:"itemId"`
	MinBid        *big.Int `json:"minBid"`
	HighestBid    *big.Int `json:"highestBid"`
	HighestBidder [20]byte `json:"highestBidder"`
	Settled       bool     `json:"settled"`
}

// HasBid reports whether at least one bid has been accepted.
func (a *Auction) HasBid() bool {
	return a != nil && a.HighestBidder != ([20]byte{})
}

// Clone returns a deep copy of the auction so callers can safely mutate the
// copy without affecting the stored instance.
func (a *Auction) Clone() *Auction {
	if a == nil {
		return nil
	}
	clone := *a
	if a.MinBid != nil {
		clone.MinBid = new(big.Int).Set(a.MinBid)
	} else {
		clone.MinBid = big.NewInt(0)
	}
	if a.HighestBid != nil {
		clone.HighestBid = new(big.Int).Set(a.HighestBid)
	} else {
		clone.HighestBid = big.NewInt(0)
	}
	return &clone
}

// SanitizeAuction validates the supplied auction and returns a cloned
// instance with non-nil amounts.
func SanitizeAuction(a *Auction) (*Auction, error) {
	if a == nil {
		return nil, fmt.Errorf("nil auction")
	}
	clone := a.Clone()
	if clone.ID == 0 {
		return nil, fmt.Errorf("auction id required")
	}
	if clone.Seller == ([20]byte{}) {
		return nil, fmt.Errorf("auction seller required")
	}
	if clone.MinBid.Sign() < 0 {
		return nil, fmt.Errorf("auction minimum bid must be non-negative")
	}
	if clone.HighestBid.Sign() < 0 {
		return nil, fmt.Errorf("auction highest bid must be non-negative")
	}
	if !clone.HasBid() && clone.HighestBid.Sign() != 0 {
		return nil, fmt.Errorf("auction without bidder cannot carry a bid amount")
	}
	return clone, nil
}
