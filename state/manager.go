package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/core/types"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/auction"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/market"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/token"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/storage"
)

// Key layout. Every record family lives under its own prefix so the ledger
// can be inspected and migrated family by family.
const (
	keyAccountPrefix = "acct/"
	keySalePrefix    = "market/item/"
	keyItemsSold     = "market/itemsSold"
	keyAuctionSeq    = "auction/seq"
	keyAuctionPrefix = "auction/rec/"
	keyLivePrefix    = "auction/live/"
	keyForSalePrefix = "auction/forsale/"
	keyTokenSeq      = "token/seq"
	keyTokenPrefix   = "token/rec/"
	keyListingFee    = "params/listingFee"
	keyOperator      = "params/operator"
	keyPausedPrefix  = "params/paused/"
)

// Module vault addresses are derived from fixed labels so every deployment
// observes the same custody identities without key material.
var (
	marketVault  = moduleAddress("market/vault")
	auctionVault = moduleAddress("auction/vault")
)

func moduleAddress(label string) [20]byte {
	var addr [20]byte
	digest := ethcrypto.Keccak256([]byte("module/" + label))
	copy(addr[:], digest[12:])
	return addr
}

// MarketVaultAddress returns the custody address holding listed items.
func MarketVaultAddress() [20]byte { return marketVault }

// AuctionVaultAddress returns the escrow address holding bid funds.
func AuctionVaultAddress() [20]byte { return auctionVault }

// Manager persists the full ledger surface on a key-value database: accounts,
// sale records, the auction sequence with its side-indexes, minted tokens,
// counters and scalar parameters. It implements the state interfaces of the
// market, auction and token engines.
type Manager struct {
	db storage.Database
}

// NewManager wraps the supplied database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func (m *Manager) putJSON(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("state: encode %s: %w", key, err)
	}
	return m.db.Put([]byte(key), raw)
}

func (m *Manager) getJSON(key string, dest any) (bool, error) {
	raw, err := m.db.Get([]byte(key))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("state: decode %s: %w", key, err)
	}
	return true, nil
}

func (m *Manager) counter(key string) (uint64, error) {
	raw, err := m.db.Get([]byte(key))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(string(raw), 10, 64)
}

func (m *Manager) setCounter(key string, value uint64) error {
	return m.db.Put([]byte(key), []byte(strconv.FormatUint(value, 10)))
}

// nextID advances a counter and returns the freshly issued id. Ids start at 1
// so zero can serve as the never-assigned sentinel.
func (m *Manager) nextID(key string) (uint64, error) {
	current, err := m.counter(key)
	if err != nil {
		return 0, err
	}
	next := current + 1
	if err := m.setCounter(key, next); err != nil {
		return 0, err
	}
	return next, nil
}

func accountKey(addr [20]byte) string {
	return keyAccountPrefix + fmt.Sprintf("%x", addr)
}

// GetAccount returns the account for the address, or a zero-balance account
// when none has been stored yet.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	var acc types.Account
	ok, err := m.getJSON(accountKey(addr), &acc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.Account{Balance: big.NewInt(0)}, nil
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	return &acc, nil
}

// PutAccount stores the account. Negative balances are rejected to keep the
// ledger conserved.
func (m *Manager) PutAccount(addr [20]byte, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("state: nil account")
	}
	stored := account.Clone()
	if stored.Balance.Sign() < 0 {
		return fmt.Errorf("state: negative balance for %x", addr)
	}
	return m.putJSON(accountKey(addr), stored)
}

// Credit adds amount to the address balance. Used at genesis and by faucet
// style tooling; engines move value through GetAccount/PutAccount.
func (m *Manager) Credit(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: credit amount must be non-negative")
	}
	acc, err := m.GetAccount(addr)
	if err != nil {
		return err
	}
	acc.Balance = new(big.Int).Add(acc.Balance, amount)
	return m.PutAccount(addr, acc)
}

func saleKey(itemID uint64) string {
	return keySalePrefix + strconv.FormatUint(itemID, 10)
}

// SaleRecordPut stores a sanitized copy of the record.
func (m *Manager) SaleRecordPut(record *market.SaleRecord) error {
	sanitized, err := market.SanitizeSaleRecord(record)
	if err != nil {
		return err
	}
	return m.putJSON(saleKey(sanitized.ItemID), sanitized)
}

// SaleRecordGet returns the stored record for the item id, if any.
func (m *Manager) SaleRecordGet(itemID uint64) (*market.SaleRecord, bool, error) {
	var record market.SaleRecord
	ok, err := m.getJSON(saleKey(itemID), &record)
	if err != nil || !ok {
		return nil, false, err
	}
	return &record, true, nil
}

// SaleRecordIDs returns the item ids carrying a sale record, in mint order.
// Item ids are dense (issued by the token counter), so the scan walks the
// issued range and keeps the ids that have been listed at least once.
func (m *Manager) SaleRecordIDs() ([]uint64, error) {
	last, err := m.TokenLastID()
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, last)
	for id := uint64(1); id <= last; id++ {
		ok, err := m.db.Has([]byte(saleKey(id)))
		if err != nil {
			return nil, err
		}
		if ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ItemsSold returns the global sold counter.
func (m *Manager) ItemsSold() (uint64, error) {
	return m.counter(keyItemsSold)
}

// SetItemsSold stores the global sold counter.
func (m *Manager) SetItemsSold(value uint64) error {
	return m.setCounter(keyItemsSold, value)
}

// ListingFee returns the configured listing fee, zero when unset.
func (m *Manager) ListingFee() (*big.Int, error) {
	raw, err := m.db.Get([]byte(keyListingFee))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	fee, ok := new(big.Int).SetString(string(raw), 10)
	if !ok {
		return nil, fmt.Errorf("state: corrupt listing fee %q", raw)
	}
	return fee, nil
}

// SetListingFee stores the listing fee.
func (m *Manager) SetListingFee(fee *big.Int) error {
	if fee == nil || fee.Sign() < 0 {
		return fmt.Errorf("state: listing fee must be non-negative")
	}
	return m.db.Put([]byte(keyListingFee), []byte(fee.String()))
}

// Operator returns the marketplace operator address, if configured.
func (m *Manager) Operator() ([20]byte, bool, error) {
	raw, err := m.db.Get([]byte(keyOperator))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return [20]byte{}, false, nil
	}
	if err != nil {
		return [20]byte{}, false, err
	}
	var addr [20]byte
	if len(raw) != len(addr) {
		return [20]byte{}, false, fmt.Errorf("state: corrupt operator address")
	}
	copy(addr[:], raw)
	return addr, true, nil
}

// SetOperator stores the marketplace operator address.
func (m *Manager) SetOperator(addr [20]byte) error {
	if addr == ([20]byte{}) {
		return fmt.Errorf("state: operator address required")
	}
	return m.db.Put([]byte(keyOperator), addr[:])
}

func auctionKey(id uint64) string {
	return keyAuctionPrefix + strconv.FormatUint(id, 10)
}

func liveKey(id uint64) string {
	return keyLivePrefix + strconv.FormatUint(id, 10)
}

func forSaleKey(collection [20]byte, itemID uint64) string {
	return keyForSalePrefix + fmt.Sprintf("%x", collection) + "/" + strconv.FormatUint(itemID, 10)
}

// AuctionNextID issues the next auction id.
func (m *Manager) AuctionNextID() (uint64, error) {
	return m.nextID(keyAuctionSeq)
}

// AuctionLastID returns the highest auction id issued so far.
func (m *Manager) AuctionLastID() (uint64, error) {
	return m.counter(keyAuctionSeq)
}

// AuctionPut stores a sanitized copy of the auction record.
func (m *Manager) AuctionPut(record *auction.Auction) error {
	sanitized, err := auction.SanitizeAuction(record)
	if err != nil {
		return err
	}
	return m.putJSON(auctionKey(sanitized.ID), sanitized)
}

// AuctionGet returns the stored auction for the id, if any.
func (m *Manager) AuctionGet(id uint64) (*auction.Auction, bool, error) {
	var record auction.Auction
	ok, err := m.getJSON(auctionKey(id), &record)
	if err != nil || !ok {
		return nil, false, err
	}
	return &record, true, nil
}

// AuctionSetLive records the liveness flag for an auction id. The flag is
// presence-based: clearing it deletes the key.
func (m *Manager) AuctionSetLive(id uint64, live bool) error {
	if live {
		return m.db.Put([]byte(liveKey(id)), []byte{1})
	}
	return m.db.Delete([]byte(liveKey(id)))
}

// AuctionIsLive reports whether the auction id is flagged live.
func (m *Manager) AuctionIsLive(id uint64) (bool, error) {
	return m.db.Has([]byte(liveKey(id)))
}

// ItemSetForSale records the for-sale flag for a (collection, item) pair.
func (m *Manager) ItemSetForSale(collection [20]byte, itemID uint64, forSale bool) error {
	if forSale {
		return m.db.Put([]byte(forSaleKey(collection, itemID)), []byte{1})
	}
	return m.db.Delete([]byte(forSaleKey(collection, itemID)))
}

// ItemIsForSale reports whether the (collection, item) pair is under a live
// auction.
func (m *Manager) ItemIsForSale(collection [20]byte, itemID uint64) (bool, error) {
	return m.db.Has([]byte(forSaleKey(collection, itemID)))
}

func tokenKey(id uint64) string {
	return keyTokenPrefix + strconv.FormatUint(id, 10)
}

// TokenNextID issues the next token id.
func (m *Manager) TokenNextID() (uint64, error) {
	return m.nextID(keyTokenSeq)
}

// TokenLastID returns the highest token id issued so far.
func (m *Manager) TokenLastID() (uint64, error) {
	return m.counter(keyTokenSeq)
}

// TokenPut stores the token record.
func (m *Manager) TokenPut(tok *token.Token) error {
	if tok == nil {
		return fmt.Errorf("state: nil token")
	}
	if tok.ID == 0 {
		return fmt.Errorf("state: token id required")
	}
	return m.putJSON(tokenKey(tok.ID), tok.Clone())
}

// TokenGet returns the stored token for the id, if any.
func (m *Manager) TokenGet(id uint64) (*token.Token, bool, error) {
	var tok token.Token
	ok, err := m.getJSON(tokenKey(id), &tok)
	if err != nil || !ok {
		return nil, false, err
	}
	return &tok, true, nil
}

// SetPaused flips the administrative pause flag for a module name.
func (m *Manager) SetPaused(module string, paused bool) error {
	module = strings.TrimSpace(module)
	if module == "" {
		return fmt.Errorf("state: module name required")
	}
	key := []byte(keyPausedPrefix + module)
	if paused {
		return m.db.Put(key, []byte{1})
	}
	return m.db.Delete(key)
}

// IsPaused implements common.PauseView. Lookup failures report unpaused so a
// storage fault cannot wedge the engines shut.
func (m *Manager) IsPaused(module string) bool {
	ok, err := m.db.Has([]byte(keyPausedPrefix + strings.TrimSpace(module)))
	if err != nil {
		return false
	}
	return ok
}
