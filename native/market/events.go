package market

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/core/types"
)

const (
	EventTypeItemListed   = "market.listed"
	EventTypeItemRelisted = "market.relisted"
	EventTypeItemSold     = "market.sold"
	EventTypeFeeUpdated   = "market.fee_updated"
)

// NewListedEvent returns the canonical event payload for a fresh listing.
func NewListedEvent(r *SaleRecord) *types.Event {
	return newRecordEvent(EventTypeItemListed, r)
}

// NewRelistedEvent returns the canonical event payload for a resell.
func NewRelistedEvent(r *SaleRecord) *types.Event {
	return newRecordEvent(EventTypeItemRelisted, r)
}

// NewSoldEvent returns the canonical event payload for a completed purchase,
// including how the payment was split between operator fee and seller
// proceeds.
func NewSoldEvent(r *SaleRecord, buyer [20]byte, fee, proceeds *big.Int) *types.Event {
	evt := newRecordEvent(EventTypeItemSold, r)
	evt.Attributes["buyer"] = hex.EncodeToString(buyer[:])
	evt.Attributes["fee"] = bigString(fee)
	evt.Attributes["proceeds"] = bigString(proceeds)
	return evt
}

// NewFeeUpdatedEvent returns the canonical event payload emitted when the
// operator changes the listing fee.
func NewFeeUpdatedEvent(fee *big.Int) *types.Event {
	return &types.Event{
		Type:       EventTypeFeeUpdated,
		Attributes: map[string]string{"fee": bigString(fee)},
	}
}

func newRecordEvent(eventType string, r *SaleRecord) *types.Event {
	attrs := make(map[string]string)
	if r != nil {
		attrs["itemId"] = strconv.FormatUint(r.ItemID, 10)
		attrs["seller"] = hex.EncodeToString(r.Seller[:])
		attrs["custodian"] = hex.EncodeToString(r.Custodian[:])
		attrs["price"] = bigString(r.Price)
		attrs["sold"] = strconv.FormatBool(r.Sold)
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
