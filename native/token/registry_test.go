package token

import (
	"bytes"
	"errors"
	"testing"
)

type mockState struct {
	seq    uint64
	tokens map[uint64]*Token
}

func newMockState() *mockState {
	return &mockState{tokens: make(map[uint64]*Token)}
}

func (m *mockState) TokenNextID() (uint64, error) {
	m.seq++
	return m.seq, nil
}

func (m *mockState) TokenLastID() (uint64, error) { return m.seq, nil }

func (m *mockState) TokenPut(t *Token) error {
	m.tokens[t.ID] = t.Clone()
	return nil
}

func (m *mockState) TokenGet(id uint64) (*Token, bool, error) {
	tok, ok := m.tokens[id]
	if !ok {
		return nil, false, nil
	}
	return tok.Clone(), true, nil
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

func TestMintAssignsSequentialIDs(t *testing.T) {
	registry := NewRegistry("ideezacoin")
	registry.SetState(newMockState())
	owner := newTestAddress(0x01)

	first, err := registry.Mint(owner, "ipfs://item-1")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	second, err := registry.Mint(owner, "ipfs://item-2")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if first != 1 || second != 2 {
		t.Fatalf("ids = %d, %d, want 1, 2", first, second)
	}

	uri, err := registry.TokenURI(first)
	if err != nil || uri != "ipfs://item-1" {
		t.Fatalf("TokenURI = %q err=%v", uri, err)
	}
}

func TestMintValidation(t *testing.T) {
	registry := NewRegistry("ideezacoin")
	registry.SetState(newMockState())

	if _, err := registry.Mint([20]byte{}, "ipfs://x"); !errors.Is(err, ErrZeroAddress) {
		t.Fatalf("zero owner: got %v, want ErrZeroAddress", err)
	}
	if _, err := registry.Mint(newTestAddress(0x01), "   "); !errors.Is(err, ErrEmptyURI) {
		t.Fatalf("blank uri: got %v, want ErrEmptyURI", err)
	}
}

func TestTransferEnforcesCustody(t *testing.T) {
	registry := NewRegistry("ideezacoin")
	registry.SetState(newMockState())
	alice := newTestAddress(0x01)
	bob := newTestAddress(0x02)

	id, err := registry.Mint(alice, "ipfs://item")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := registry.Transfer(bob, alice, id); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("transfer by non-holder: got %v, want ErrNotOwner", err)
	}
	if err := registry.Transfer(alice, bob, id); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	owner, err := registry.OwnerOf(id)
	if err != nil || owner != bob {
		t.Fatalf("OwnerOf = %x err=%v, want bob", owner, err)
	}

	if err := registry.Transfer(alice, bob, 99); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("unknown token: got %v, want ErrTokenNotFound", err)
	}
}

func TestCollectionAddressIsDeterministic(t *testing.T) {
	a := NewRegistry("ideezacoin")
	b := NewRegistry("ideezacoin")
	if a.Address() != b.Address() {
		t.Fatalf("same collection name produced different addresses")
	}
	c := NewRegistry("other")
	if a.Address() == c.Address() {
		t.Fatalf("distinct collections share an address")
	}
}
