package auction

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/core/events"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/core/types"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/common"
)

// PauseModuleName identifies this engine in the administrative pause set.
const PauseModuleName = "auction"

var (
	ErrNilState          = errors.New("auction engine: state not configured")
	ErrNilRegistry       = errors.New("auction engine: token registry not configured")
	ErrAuctionNotFound   = errors.New("auction engine: auction not found")
	ErrAuctionNotLive    = errors.New("auction engine: auction is not live")
	ErrAlreadyFinalized  = errors.New("auction engine: auction already finalized")
	ErrAlreadyListed     = errors.New("auction engine: item already under a live auction")
	ErrUnknownCollection = errors.New("auction engine: unknown item collection")
	ErrBidTooLow         = errors.New("auction engine: bid not above current highest")
	ErrNotOwner          = errors.New("auction engine: caller does not hold the item")
	ErrNotSeller         = errors.New("auction engine: caller is not the auction seller")
	ErrInsufficientFunds = errors.New("auction engine: insufficient balance")
)

type engineState interface {
	AuctionNextID() (uint64, error)
	AuctionPut(*Auction) error
	AuctionGet(id uint64) (*Auction, bool, error)
	AuctionLastID() (uint64, error)
	AuctionSetLive(id uint64, live bool) error
	AuctionIsLive(id uint64) (bool, error)
	ItemSetForSale(collection [20]byte, itemID uint64, forSale bool) error
	ItemIsForSale(collection [20]byte, itemID uint64) (bool, error)
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
}

// tokenRegistry is the custody capability the engine is composed against.
// Satisfied by *token.Registry.
type tokenRegistry interface {
	Address() [20]byte
	OwnerOf(id uint64) ([20]byte, error)
	Transfer(from, to [20]byte, id uint64) error
}

type auctionEvent struct {
	evt *types.Event
}

func (e auctionEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e auctionEvent) Event() *types.Event { return e.evt }

// Engine implements the English-auction half of the marketplace. Bids escrow
// funds in the auction vault, each accepted bid strictly increases the
// escrowed amount and refunds the displaced bidder, and finalization settles
// or cancels exactly once per auction id.
type Engine struct {
	state    engineState
	registry tokenRegistry
	emitter  events.Emitter
	pauses   common.PauseView
	vault    [20]byte
}

// NewEngine creates an auction engine with a no-op emitter. Callers can
// override the emitter via SetEmitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetRegistry configures the token custody capability.
func (e *Engine) SetRegistry(registry tokenRegistry) { e.registry = registry }

// SetVault configures the address that escrows bid funds.
func (e *Engine) SetVault(addr [20]byte) { e.vault = addr }

// SetPauses configures the administrative pause view consulted before every
// mutation.
func (e *Engine) SetPauses(p common.PauseView) { e.pauses = p }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(auctionEvent{evt: event})
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if e.registry == nil {
		return ErrNilRegistry
	}
	return nil
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return &types.Account{Balance: big.NewInt(0)}
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	return acc
}

func (e *Engine) balanceOf(addr [20]byte) (*big.Int, error) {
	acc, err := e.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return ensureAccount(acc).Balance, nil
}

func (e *Engine) transferFunds(from, to [20]byte, amount *big.Int) error {
	amt := cloneBigInt(amount)
	if amt.Sign() == 0 {
		return nil
	}
	if amt.Sign() < 0 {
		return fmt.Errorf("auction engine: negative transfer amount")
	}
	fromAcc, err := e.state.GetAccount(from)
	if err != nil {
		return err
	}
	toAcc, err := e.state.GetAccount(to)
	if err != nil {
		return err
	}
	fromAcc = ensureAccount(fromAcc)
	toAcc = ensureAccount(toAcc)
	if fromAcc.Balance.Cmp(amt) < 0 {
		return ErrInsufficientFunds
	}
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amt)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amt)
	if err := e.state.PutAccount(from, fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(to, toAcc)
}

// Create opens an auction for an item the caller currently holds. The item is
// flagged as for-sale, guaranteeing at most one live auction per
// (collection, item) pair, and the new auction id is returned.
func (e *Engine) Create(caller, collection [20]byte, itemID uint64, minBid *big.Int) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	if err := common.Guard(e.pauses, PauseModuleName); err != nil {
		return 0, err
	}
	if collection != e.registry.Address() {
		return 0, ErrUnknownCollection
	}
	owner, err := e.registry.OwnerOf(itemID)
	if err != nil {
		return 0, err
	}
	if owner != caller {
		return 0, ErrNotOwner
	}
	forSale, err := e.state.ItemIsForSale(collection, itemID)
	if err != nil {
		return 0, err
	}
	if forSale {
		return 0, ErrAlreadyListed
	}
	id, err := e.state.AuctionNextID()
	if err != nil {
		return 0, err
	}
	record := &Auction{
		ID:         id,
		Seller:     caller,
		Collection: collection,
		ItemID:     itemID,
		MinBid:     cloneBigInt(minBid),
		HighestBid: big.NewInt(0),
		Settled:    false,
	}
	if err := e.state.AuctionPut(record); err != nil {
		return 0, err
	}
	if err := e.state.AuctionSetLive(id, true); err != nil {
		return 0, err
	}
	if err := e.state.ItemSetForSale(collection, itemID, true); err != nil {
		return 0, err
	}
	e.emit(NewCreatedEvent(record))
	return id, nil
}

// Bid escrows a new highest bid for a live auction. The amount must strictly
// exceed the current highest bid, and the first bid must also reach the
// auction floor. The displaced bidder is refunded in full from the vault.
func (e *Engine) Bid(caller [20]byte, auctionID uint64, amount *big.Int) (*Auction, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := common.Guard(e.pauses, PauseModuleName); err != nil {
		return nil, err
	}
	live, err := e.state.AuctionIsLive(auctionID)
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, ErrAuctionNotLive
	}
	record, ok, err := e.state.AuctionGet(auctionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAuctionNotFound
	}
	bid := cloneBigInt(amount)
	if bid.Sign() <= 0 {
		return nil, ErrBidTooLow
	}
	if bid.Cmp(record.HighestBid) <= 0 {
		return nil, ErrBidTooLow
	}
	if !record.HasBid() && bid.Cmp(record.MinBid) < 0 {
		return nil, ErrBidTooLow
	}
	balance, err := e.balanceOf(caller)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(bid) < 0 {
		return nil, ErrInsufficientFunds
	}
	previousBidder := record.HighestBidder
	previousBid := cloneBigInt(record.HighestBid)
	record.HighestBid = bid
	record.HighestBidder = caller
	// The new leader is recorded before any value moves so a reentrant bid
	// from the refund recipient competes against the fresh amount, never
	// the stale one.
	if err := e.state.AuctionPut(record); err != nil {
		return nil, err
	}
	if err := e.transferFunds(caller, e.vault, bid); err != nil {
		return nil, err
	}
	if previousBidder != ([20]byte{}) {
		if err := e.transferFunds(e.vault, previousBidder, previousBid); err != nil {
			return nil, err
		}
	}
	e.emit(NewBidPlacedEvent(record, previousBid, previousBidder))
	return record.Clone(), nil
}

// Finalize closes a live auction, exactly once. Accepting transfers the item
// to the highest bidder and pays the escrowed amount to the seller; rejecting
// refunds the highest bidder and leaves the item with the seller. Both
// branches clear the liveness and for-sale flags before any value moves. A
// second call on the same id fails because the liveness gate is already down.
func (e *Engine) Finalize(caller [20]byte, auctionID uint64, accept bool) (*Auction, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := common.Guard(e.pauses, PauseModuleName); err != nil {
		return nil, err
	}
	record, ok, err := e.state.AuctionGet(auctionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAuctionNotFound
	}
	live, err := e.state.AuctionIsLive(auctionID)
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, ErrAlreadyFinalized
	}
	if record.Seller != caller {
		return nil, ErrNotSeller
	}
	// Acceptance settles by moving the item out of the seller's custody, so
	// custody is verified before the first state write. Otherwise the
	// transfer below could fail after the liveness gate is already down.
	if accept && record.HasBid() {
		owner, err := e.registry.OwnerOf(record.ItemID)
		if err != nil {
			return nil, err
		}
		if owner != record.Seller {
			return nil, ErrNotOwner
		}
	}
	record.Settled = accept && record.HasBid()
	if err := e.state.AuctionPut(record); err != nil {
		return nil, err
	}
	if err := e.state.AuctionSetLive(auctionID, false); err != nil {
		return nil, err
	}
	if err := e.state.ItemSetForSale(record.Collection, record.ItemID, false); err != nil {
		return nil, err
	}
	if record.HasBid() {
		if accept {
			if err := e.registry.Transfer(record.Seller, record.HighestBidder, record.ItemID); err != nil {
				return nil, err
			}
			if err := e.transferFunds(e.vault, record.Seller, record.HighestBid); err != nil {
				return nil, err
			}
		} else {
			if err := e.transferFunds(e.vault, record.HighestBidder, record.HighestBid); err != nil {
				return nil, err
			}
		}
	}
	e.emit(NewFinalizedEvent(record, accept))
	return record.Clone(), nil
}

// Get returns the auction record for the given id.
func (e *Engine) Get(auctionID uint64) (*Auction, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	record, ok, err := e.state.AuctionGet(auctionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAuctionNotFound
	}
	return record.Clone(), nil
}

// IsLive reports whether the auction is still accepting bids.
func (e *Engine) IsLive(auctionID uint64) (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrNilState
	}
	return e.state.AuctionIsLive(auctionID)
}

// LiveAuctionIDs returns the ids of every auction still accepting bids, in
// creation order.
func (e *Engine) LiveAuctionIDs() ([]uint64, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	last, err := e.state.AuctionLastID()
	if err != nil {
		return nil, err
	}
	out := make([]uint64, 0, last)
	for id := uint64(1); id <= last; id++ {
		live, err := e.state.AuctionIsLive(id)
		if err != nil {
			return nil, err
		}
		if live {
			out = append(out, id)
		}
	}
	return out, nil
}
