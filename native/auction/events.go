package auction

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/core/types"
)

const (
	EventTypeAuctionCreated   = "auction.created"
	EventTypeBidPlaced        = "auction.bid"
	EventTypeAuctionFinalized = "auction.finalized"
)

// NewCreatedEvent returns the canonical event payload for a new auction.
func NewCreatedEvent(a *Auction) *types.Event {
	attrs := auctionAttrs(a)
	return &types.Event{Type: EventTypeAuctionCreated, Attributes: attrs}
}

// NewBidPlacedEvent returns the canonical event payload for an accepted bid.
// The refunded amount and previous bidder are included so indexers can track
// escrow movement without replaying the ledger.
func NewBidPlacedEvent(a *Auction, refunded *big.Int, previous [20]byte) *types.Event {
	attrs := auctionAttrs(a)
	attrs["bidder"] = hex.EncodeToString(a.HighestBidder[:])
	attrs["amount"] = bigString(a.HighestBid)
	attrs["refunded"] = bigString(refunded)
	if previous != ([20]byte{}) {
		attrs["previousBidder"] = hex.EncodeToString(previous[:])
	}
	return &types.Event{Type: EventTypeBidPlaced, Attributes: attrs}
}

// NewFinalizedEvent returns the canonical event payload for a finalized
// auction, covering both the accepted and rejected branches.
func NewFinalizedEvent(a *Auction, accepted bool) *types.Event {
	attrs := auctionAttrs(a)
	attrs["accepted"] = strconv.FormatBool(accepted)
	if a.HasBid() {
		attrs["winner"] = hex.EncodeToString(a.HighestBidder[:])
		attrs["amount"] = bigString(a.HighestBid)
	}
	return &types.Event{Type: EventTypeAuctionFinalized, Attributes: attrs}
}

func auctionAttrs(a *Auction) map[string]string {
	attrs := make(map[string]string)
	if a == nil {
		return attrs
	}
	attrs["auctionId"] = strconv.FormatUint(a.ID, 10)
	attrs["collection"] = hex.EncodeToString(a.Collection[:])
	attrs["itemId"] = strconv.FormatUint(a.ItemID, 10)
	attrs["seller"] = hex.EncodeToString(a.Seller[:])
	attrs["minBid"] = bigString(a.MinBid)
	return attrs
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
