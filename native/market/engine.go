package market

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/core/events"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/core/types"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/common"
)

// PauseModuleName identifies this engine in the administrative pause set.
const PauseModuleName = "market"

var (
	ErrNilState          = errors.New("market engine: state not configured")
	ErrNilRegistry       = errors.New("market engine: token registry not configured")
	ErrNilOperator       = errors.New("market engine: operator not configured")
	ErrItemNotFound      = errors.New("market engine: item not found")
	ErrNotListed         = errors.New("market engine: item not listed for sale")
	ErrAlreadyListed     = errors.New("market engine: item already listed")
	ErrUnderAuction      = errors.New("market engine: item is under a live auction")
	ErrInvalidPrice      = errors.New("market engine: price must be positive")
	ErrFeeMismatch       = errors.New("market engine: listing fee mismatch")
	ErrPaymentMismatch   = errors.New("market engine: payment must equal price")
	ErrNotOwner          = errors.New("market engine: caller is not the custodian")
	ErrNotOperator       = errors.New("market engine: caller is not the operator")
	ErrInsufficientFunds = errors.New("market engine: insufficient balance")
)

type engineState interface {
	SaleRecordPut(*SaleRecord) error
	SaleRecordGet(itemID uint64) (*SaleRecord, bool, error)
	SaleRecordIDs() ([]uint64, error)
	ItemsSold() (uint64, error)
	SetItemsSold(uint64) error
	ItemIsForSale(collection [20]byte, itemID uint64) (bool, error)
	ListingFee() (*big.Int, error)
	SetListingFee(*big.Int) error
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

type marketEvent struct {
	evt *types.Event
}

func (e marketEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e marketEvent) Event() *types.Event { return e.evt }

// Engine implements the fixed-price half of the marketplace: listing,
// reselling and purchasing against the sale-record ledger. While an item is
// listed its custodian is the marketplace vault; the purchase operation
// atomically swaps custody and splits the payment between the operator fee
// and the seller proceeds.
type Engine struct {
	state    engineState
	registry tokenRegistry
	emitter  events.Emitter
	pauses   common.PauseView
	vault    [20]byte
	operator [20]byte
}

// NewEngine creates a marketplace engine with a no-op emitter. Callers can
// override the emitter via SetEmitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetRegistry configures the token custody capability.
func (e *Engine) SetRegistry(registry tokenRegistry) { e.registry = registry }

// SetVault configures the address holding items while they are listed.
func (e *Engine) SetVault(addr [20]byte) { e.vault = addr }

// SetOperator configures the address that collects listing fees.
func (e *Engine) SetOperator(addr [20]byte) { e.operator = addr }

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

// Vault returns the custody address used for listed items.
func (e *Engine) Vault() [20]byte { return e.vault }

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(marketEvent{evt: event})
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if e.registry == nil {
		return ErrNilRegistry
	}
	if e.operator == ([20]byte{}) {
		return ErrNilOperator
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

// balanceOf reads the spendable balance for an address without mutating it.
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
		return fmt.Errorf("market engine: negative transfer amount")
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

// requireNotUnderAuction rejects items whose for-sale flag is set by the
// auction ledger. Taking custody of such an item would leave the auction
// unable to settle.
func (e *Engine) requireNotUnderAuction(itemID uint64) error {
	forSale, err := e.state.ItemIsForSale(e.registry.Address(), itemID)
	if err != nil {
		return err
	}
	if forSale {
		return ErrUnderAuction
	}
	return nil
}

func (e *Engine) requireFee(fee *big.Int) (*big.Int, error) {
	configured, err := e.state.ListingFee()
	if err != nil {
		return nil, err
	}
	configured = cloneBigInt(configured)
	if fee == nil || fee.Cmp(configured) != 0 {
		return nil, ErrFeeMismatch
	}
	return configured, nil
}

// List places an item on the marketplace at the given price. The caller must
// hold the item and submit exactly the configured listing fee, which is paid
// to the operator. Custody of the item moves to the marketplace vault.
func (e *Engine) List(caller [20]byte, itemID uint64, price, fee *big.Int) (*SaleRecord, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := common.Guard(e.pauses, PauseModuleName); err != nil {
		return nil, err
	}
	if price == nil || price.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	feeAmt, err := e.requireFee(fee)
	if err != nil {
		return nil, err
	}
	// Any existing record means the item already went through List once;
	// holders of a sold item re-enter via Resell so the sold counter stays
	// consistent.
	if _, ok, err := e.state.SaleRecordGet(itemID); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyListed
	}
	if err := e.requireNotUnderAuction(itemID); err != nil {
		return nil, err
	}
	owner, err := e.registry.OwnerOf(itemID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrItemNotFound, err)
	}
	if owner != caller {
		return nil, ErrNotOwner
	}
	balance, err := e.balanceOf(caller)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(feeAmt) < 0 {
		return nil, ErrInsufficientFunds
	}
	record := &SaleRecord{
		ItemID:    itemID,
		Seller:    caller,
		Custodian: e.vault,
		Price:     cloneBigInt(price),
		Sold:      false,
	}
	// Persist the ledger entry before any transfer so a reentrant call
	// cannot observe the item as unlisted while value is in flight.
	if err := e.state.SaleRecordPut(record); err != nil {
		return nil, err
	}
	if err := e.registry.Transfer(caller, e.vault, itemID); err != nil {
		return nil, err
	}
	if err := e.transferFunds(caller, e.operator, feeAmt); err != nil {
		return nil, err
	}
	e.emit(NewListedEvent(record))
	return record.Clone(), nil
}

// Resell puts a previously purchased item back on the marketplace. The caller
// must be the item's current custodian and submit the configured listing fee.
// The global sold counter is decremented because the item re-enters the
// unsold set.
func (e *Engine) Resell(caller [20]byte, itemID uint64, newPrice, fee *big.Int) (*SaleRecord, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := common.Guard(e.pauses, PauseModuleName); err != nil {
		return nil, err
	}
	if newPrice == nil || newPrice.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	feeAmt, err := e.requireFee(fee)
	if err != nil {
		return nil, err
	}
	record, ok, err := e.state.SaleRecordGet(itemID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrItemNotFound
	}
	if record.Custodian != caller {
		return nil, ErrNotOwner
	}
	if err := e.requireNotUnderAuction(itemID); err != nil {
		return nil, err
	}
	balance, err := e.balanceOf(caller)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(feeAmt) < 0 {
		return nil, ErrInsufficientFunds
	}
	record.Sold = false
	record.Price = cloneBigInt(newPrice)
	record.Seller = caller
	record.Custodian = e.vault
	if err := e.state.SaleRecordPut(record); err != nil {
		return nil, err
	}
	sold, err := e.state.ItemsSold()
	if err != nil {
		return nil, err
	}
	if sold > 0 {
		if err := e.state.SetItemsSold(sold - 1); err != nil {
			return nil, err
		}
	}
	if err := e.registry.Transfer(caller, e.vault, itemID); err != nil {
		return nil, err
	}
	if err := e.transferFunds(caller, e.operator, feeAmt); err != nil {
		return nil, err
	}
	e.emit(NewRelistedEvent(record))
	return record.Clone(), nil
}

// Purchase buys a listed item. The payment must equal the asking price
// exactly; it is split into the configured listing fee for the operator and
// the remainder for the seller. Custody moves from the vault to the buyer,
// the record is marked sold and its seller is cleared.
func (e *Engine) Purchase(caller [20]byte, itemID uint64, payment *big.Int) (*SaleRecord, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := common.Guard(e.pauses, PauseModuleName); err != nil {
		return nil, err
	}
	record, ok, err := e.state.SaleRecordGet(itemID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrItemNotFound
	}
	if record.Sold || record.Custodian != e.vault {
		return nil, ErrNotListed
	}
	if payment == nil || payment.Cmp(record.Price) != 0 {
		return nil, ErrPaymentMismatch
	}
	amount := cloneBigInt(payment)
	balance, err := e.balanceOf(caller)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(amount) < 0 {
		return nil, ErrInsufficientFunds
	}
	fee, err := e.state.ListingFee()
	if err != nil {
		return nil, err
	}
	fee = cloneBigInt(fee)
	if fee.Cmp(amount) > 0 {
		fee = cloneBigInt(amount)
	}
	proceeds := new(big.Int).Sub(amount, fee)
	seller := record.Seller
	record.Custodian = caller
	record.Sold = true
	record.Seller = [20]byte{}
	// All ledger mutations land before the custody transfer and payouts so
	// a payout recipient calling back in observes the item as sold.
	if err := e.state.SaleRecordPut(record); err != nil {
		return nil, err
	}
	sold, err := e.state.ItemsSold()
	if err != nil {
		return nil, err
	}
	if err := e.state.SetItemsSold(sold + 1); err != nil {
		return nil, err
	}
	if err := e.registry.Transfer(e.vault, caller, itemID); err != nil {
		return nil, err
	}
	if err := e.transferFunds(caller, e.operator, fee); err != nil {
		return nil, err
	}
	if err := e.transferFunds(caller, seller, proceeds); err != nil {
		return nil, err
	}
	e.emit(NewSoldEvent(record, caller, fee, proceeds))
	return record.Clone(), nil
}

// SetListingFee updates the fixed listing fee. Only the configured operator
// may change it.
func (e *Engine) SetListingFee(caller [20]byte, fee *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if caller != e.operator {
		return ErrNotOperator
	}
	if fee == nil || fee.Sign() < 0 {
		return ErrInvalidPrice
	}
	if err := e.state.SetListingFee(cloneBigInt(fee)); err != nil {
		return err
	}
	e.emit(NewFeeUpdatedEvent(fee))
	return nil
}

// ListingFee returns the currently configured listing fee.
func (e *Engine) ListingFee() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	fee, err := e.state.ListingFee()
	if err != nil {
		return nil, err
	}
	return cloneBigInt(fee), nil
}

// ItemsSold returns the number of items currently in the sold state.
func (e *Engine) ItemsSold() (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	return e.state.ItemsSold()
}

// UnsoldItems returns every record whose custodian is the marketplace vault
// and which has not been sold.
func (e *Engine) UnsoldItems() ([]*SaleRecord, error) {
	return e.filterRecords(func(r *SaleRecord) bool {
		return !r.Sold && r.Custodian == e.vault
	})
}

// ItemsOwnedBy returns every record whose custodian is the given address.
func (e *Engine) ItemsOwnedBy(addr [20]byte) ([]*SaleRecord, error) {
	return e.filterRecords(func(r *SaleRecord) bool {
		return r.Custodian == addr
	})
}

// ItemsListedBy returns every active listing created by the given address.
// Completed purchases clear the seller, so sold items drop out of this view.
func (e *Engine) ItemsListedBy(addr [20]byte) ([]*SaleRecord, error) {
	if addr == ([20]byte{}) {
		return nil, nil
	}
	return e.filterRecords(func(r *SaleRecord) bool {
		return r.Seller == addr
	})
}

func (e *Engine) filterRecords(keep func(*SaleRecord) bool) ([]*SaleRecord, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	ids, err := e.state.SaleRecordIDs()
	if err != nil {
		return nil, err
	}
	out := make([]*SaleRecord, 0, len(ids))
	for _, id := range ids {
		record, ok, err := e.state.SaleRecordGet(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if keep(record) {
			out = append(out, record.Clone())
		}
	}
	return out, nil
}
