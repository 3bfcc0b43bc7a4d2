package token

import (
	"encoding/hex"
	"strconv"

	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/core/types"
)

const (
	EventTypeTokenMinted      = "token.minted"
	EventTypeTokenTransferred = "token.transferred"
)

// NewMintedEvent returns the canonical event payload for a freshly minted
// token.
func NewMintedEvent(t *Token) *types.Event {
	attrs := make(map[string]string)
	if t != nil {
		attrs["tokenId"] = strconv.FormatUint(t.ID, 10)
		attrs["owner"] = hex.EncodeToString(t.Owner[:])
		attrs["uri"] = t.URI
	}
	return &types.Event{Type: EventTypeTokenMinted, Attributes: attrs}
}

// NewTransferredEvent returns the canonical event payload for a custody
// transfer.
func NewTransferredEvent(t *Token, from [20]byte) *types.Event {
	attrs := make(map[string]string)
	if t != nil {
		attrs["tokenId"] = strconv.FormatUint(t.ID, 10)
		attrs["from"] = hex.EncodeToString(from[:])
		attrs["to"] = hex.EncodeToString(t.Owner[:])
	}
	return &types.Event{Type: EventTypeTokenTransferred, Attributes: attrs}
}
