package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/auction"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/market"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/token"
)

// Both engines share the token registry and the account ledger, so the
// custody handshake between them is exercised against the real manager.
func TestAuctionedItemStaysOutOfMarketCustody(t *testing.T) {
	mgr := newTestManager(t)
	registry := token.NewRegistry("ideezacoin")
	registry.SetState(mgr)

	seller := addr(0x01)
	bidder := addr(0x02)
	operator := addr(0x03)
	stranger := addr(0x04)

	marketEngine := market.NewEngine()
	marketEngine.SetState(mgr)
	marketEngine.SetRegistry(registry)
	marketEngine.SetVault(MarketVaultAddress())
	marketEngine.SetOperator(operator)

	auctionEngine := auction.NewEngine()
	auctionEngine.SetState(mgr)
	auctionEngine.SetRegistry(registry)
	auctionEngine.SetVault(AuctionVaultAddress())

	require.NoError(t, mgr.Credit(seller, big.NewInt(10)))
	require.NoError(t, mgr.Credit(bidder, big.NewInt(100)))

	itemID, err := registry.Mint(seller, "ipfs://item")
	require.NoError(t, err)
	auctionID, err := auctionEngine.Create(seller, registry.Address(), itemID, big.NewInt(5))
	require.NoError(t, err)
	_, err = auctionEngine.Bid(bidder, auctionID, big.NewInt(10))
	require.NoError(t, err)

	// the market must not take custody of an item under a live auction
	_, err = marketEngine.List(seller, itemID, big.NewInt(50), big.NewInt(0))
	require.ErrorIs(t, err, market.ErrUnderAuction)
	owner, err := registry.OwnerOf(itemID)
	require.NoError(t, err)
	require.Equal(t, seller, owner)

	// custody escapes through a plain transfer; accepting must refuse before
	// touching the liveness or for-sale flags
	require.NoError(t, registry.Transfer(seller, stranger, itemID))
	_, err = auctionEngine.Finalize(seller, auctionID, true)
	require.ErrorIs(t, err, auction.ErrNotOwner)

	live, err := auctionEngine.IsLive(auctionID)
	require.NoError(t, err)
	require.True(t, live, "failed finalize must leave the auction open")
	forSale, err := mgr.ItemIsForSale(registry.Address(), itemID)
	require.NoError(t, err)
	require.True(t, forSale)
	vaultAcc, err := mgr.GetAccount(AuctionVaultAddress())
	require.NoError(t, err)
	require.Zero(t, vaultAcc.Balance.Cmp(big.NewInt(10)), "escrow must stay in the vault")

	// the escrow is still recoverable through a rejection
	_, err = auctionEngine.Finalize(seller, auctionID, false)
	require.NoError(t, err)
	bidderAcc, err := mgr.GetAccount(bidder)
	require.NoError(t, err)
	require.Zero(t, bidderAcc.Balance.Cmp(big.NewInt(100)), "winner must be refunded in full")
	vaultAcc, err = mgr.GetAccount(AuctionVaultAddress())
	require.NoError(t, err)
	require.Zero(t, vaultAcc.Balance.Sign())
}
