package token

import (
	"errors"
	"fmt"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/core/events"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/core/types"
)

var (
	ErrNilState      = errors.New("token registry: state not configured")
	ErrTokenNotFound = errors.New("token registry: token not found")
	ErrNotOwner      = errors.New("token registry: caller does not hold custody")
	ErrZeroAddress   = errors.New("token registry: zero address")
	ErrEmptyURI      = errors.New("token registry: metadata URI required")
)

type registryState interface {
	TokenNextID() (uint64, error)
	TokenPut(*Token) error
	TokenGet(id uint64) (*Token, bool, error)
	TokenLastID() (uint64, error)
}

type registryEvent struct {
	evt *types.Event
}

func (e registryEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e registryEvent) Event() *types.Event { return e.evt }

// Registry is the token-issuance capability the sale and auction engines are
// composed against: it mints uniquely identified items, moves their custody
// and answers ownership queries. Exactly one collection address identifies
// the registry to external callers.
type Registry struct {
	state   registryState
	emitter events.Emitter
	address [20]byte
}

// NewRegistry creates a registry for the named collection. The collection
// address is derived deterministically from the collection name so restarts
// observe the same identity.
func NewRegistry(collection string) *Registry {
	var addr [20]byte
	digest := ethcrypto.Keccak256([]byte("token/collection/" + strings.TrimSpace(collection)))
	copy(addr[:], digest[12:])
	return &Registry{
		emitter: events.NoopEmitter{},
		address: addr,
	}
}

// SetState configures the state backend used by the registry.
func (r *Registry) SetState(state registryState) { r.state = state }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op
// implementation.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// Address returns the collection address this registry serves.
func (r *Registry) Address() [20]byte { return r.address }

func (r *Registry) emit(event *types.Event) {
	if r == nil || r.emitter == nil || event == nil {
		return
	}
	r.emitter.Emit(registryEvent{evt: event})
}

// Mint issues a new token to the owner with the supplied metadata URI and
// returns the assigned id. Ids come from the registry counter and increase
// monotonically.
func (r *Registry) Mint(owner [20]byte, uri string) (uint64, error) {
	if r == nil || r.state == nil {
		return 0, ErrNilState
	}
	if owner == ([20]byte{}) {
		return 0, ErrZeroAddress
	}
	trimmed := strings.TrimSpace(uri)
	if trimmed == "" {
		return 0, ErrEmptyURI
	}
	id, err := r.state.TokenNextID()
	if err != nil {
		return 0, err
	}
	tok := &Token{ID: id, Owner: owner, URI: trimmed}
	if err := r.state.TokenPut(tok); err != nil {
		return 0, err
	}
	r.emit(NewMintedEvent(tok))
	return id, nil
}

// Transfer moves custody of the token from one holder to the next. The from
// address must currently hold the token.
func (r *Registry) Transfer(from, to [20]byte, id uint64) error {
	if r == nil || r.state == nil {
		return ErrNilState
	}
	if to == ([20]byte{}) {
		return ErrZeroAddress
	}
	tok, ok, err := r.state.TokenGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: id %d", ErrTokenNotFound, id)
	}
	if tok.Owner != from {
		return ErrNotOwner
	}
	tok.Owner = to
	if err := r.state.TokenPut(tok); err != nil {
		return err
	}
	r.emit(NewTransferredEvent(tok, from))
	return nil
}

// OwnerOf returns the current custody holder of the token.
func (r *Registry) OwnerOf(id uint64) ([20]byte, error) {
	if r == nil || r.state == nil {
		return [20]byte{}, ErrNilState
	}
	tok, ok, err := r.state.TokenGet(id)
	if err != nil {
		return [20]byte{}, err
	}
	if !ok {
		return [20]byte{}, fmt.Errorf("%w: id %d", ErrTokenNotFound, id)
	}
	return tok.Owner, nil
}

// TokenURI returns the metadata URI attached at mint time.
func (r *Registry) TokenURI(id uint64) (string, error) {
	if r == nil || r.state == nil {
		return "", ErrNilState
	}
	tok, ok, err := r.state.TokenGet(id)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: id %d", ErrTokenNotFound, id)
	}
	return tok.URI, nil
}

// LastID returns the highest token id issued so far. Zero means nothing has
// been minted.
func (r *Registry) LastID() (uint64, error) {
	if r == nil || r.state == nil {
		return 0, ErrNilState
	}
	return r.state.TokenLastID()
}
