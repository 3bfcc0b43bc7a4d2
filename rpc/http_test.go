package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/core/events"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/auction"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/market"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/token"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/state"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/storage"
)

const (
	testSeller   = "0x1111111111111111111111111111111111111111"
	testBuyer    = "0x2222222222222222222222222222222222222222"
	testOperator = "0x3333333333333333333333333333333333333333"
)

type testHarness struct {
	server   *Server
	manager  *state.Manager
	registry *token.Registry
	handler  http.Handler
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	manager := state.NewManager(storage.NewMemDB())
	registry := token.NewRegistry("ideezacoin")
	registry.SetState(manager)

	operator, err := parseAddress(testOperator)
	require.NoError(t, err)
	require.NoError(t, manager.SetOperator(operator))
	require.NoError(t, manager.SetListingFee(big.NewInt(2)))

	recorder := events.NewRecorder(events.DefaultRecorderCapacity)
	registry.SetEmitter(recorder)

	marketEngine := market.NewEngine()
	marketEngine.SetState(manager)
	marketEngine.SetRegistry(registry)
	marketEngine.SetVault(state.MarketVaultAddress())
	marketEngine.SetOperator(operator)
	marketEngine.SetPauses(manager)
	marketEngine.SetEmitter(recorder)

	auctionEngine := auction.NewEngine()
	auctionEngine.SetState(manager)
	auctionEngine.SetRegistry(registry)
	auctionEngine.SetVault(state.AuctionVaultAddress())
	auctionEngine.SetPauses(manager)
	auctionEngine.SetEmitter(recorder)

	server := NewServer(marketEngine, auctionEngine, registry, recorder)
	return &testHarness{
		server:   server,
		manager:  manager,
		registry: registry,
		handler:  server.Handler(),
	}
}

func (h *testHarness) call(t *testing.T, method string, headers map[string]string, params any) (*httptest.ResponseRecorder, RPCResponse) {
	t.Helper()

	payload := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		payload["params"] = []any{params}
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	var resp RPCResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func (h *testHarness) balance(t *testing.T, addr string) *big.Int {
	t.Helper()
	parsed, err := parseAddress(addr)
	require.NoError(t, err)
	account, err := h.manager.GetAccount(parsed)
	require.NoError(t, err)
	return account.Balance
}

func (h *testHarness) credit(t *testing.T, addr string, amount int64) {
	t.Helper()
	parsed, err := parseAddress(addr)
	require.NoError(t, err)
	require.NoError(t, h.manager.Credit(parsed, big.NewInt(amount)))
}

func TestListAndPurchaseOverRPC(t *testing.T) {
	h := newTestHarness(t)
	h.credit(t, testSeller, 10)
	h.credit(t, testBuyer, 100)

	seller, err := parseAddress(testSeller)
	require.NoError(t, err)
	itemID, err := h.registry.Mint(seller, "ipfs://item-1")
	require.NoError(t, err)

	rec, resp := h.call(t, "market_list", nil, marketListParams{
		Caller: testSeller,
		ItemID: itemID,
		Price:  "50",
		Fee:    "2",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, resp.Error)

	rec, resp = h.call(t, "market_purchase", nil, marketPurchaseParams{
		Caller:  testBuyer,
		ItemID:  itemID,
		Payment: "50",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, resp.Error)

	var sale saleRecordJSON
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &sale))
	require.True(t, sale.Sold)

	// Listing fee 2 at list time, then a 50 payment split 2/48.
	require.Equal(t, int64(56), h.balance(t, testSeller).Int64())
	require.Equal(t, int64(50), h.balance(t, testBuyer).Int64())
	require.Equal(t, int64(4), h.balance(t, testOperator).Int64())

	buyer, err := parseAddress(testBuyer)
	require.NoError(t, err)
	owner, err := h.registry.OwnerOf(itemID)
	require.NoError(t, err)
	require.Equal(t, buyer, owner)
}

func TestPurchasePaymentMismatchOverRPC(t *testing.T) {
	h := newTestHarness(t)
	h.credit(t, testSeller, 10)
	h.credit(t, testBuyer, 100)

	seller, err := parseAddress(testSeller)
	require.NoError(t, err)
	itemID, err := h.registry.Mint(seller, "ipfs://item-1")
	require.NoError(t, err)

	_, resp := h.call(t, "market_list", nil, marketListParams{
		Caller: testSeller,
		ItemID: itemID,
		Price:  "50",
		Fee:    "2",
	})
	require.Nil(t, resp.Error)

	rec, resp := h.call(t, "market_purchase", nil, marketPurchaseParams{
		Caller:  testBuyer,
		ItemID:  itemID,
		Payment: "49",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeValueMismatch, resp.Error.Code)
}

func TestAuctionFlowOverRPC(t *testing.T) {
	h := newTestHarness(t)
	h.credit(t, testBuyer, 100)

	seller, err := parseAddress(testSeller)
	require.NoError(t, err)
	itemID, err := h.registry.Mint(seller, "ipfs://item-1")
	require.NoError(t, err)

	collection := addressHex(h.registry.Address())
	rec, resp := h.call(t, "auction_create", nil, auctionCreateParams{
		Caller:     testSeller,
		Collection: collection,
		ItemID:     itemID,
		MinBid:     "5",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, resp.Error)

	var created map[string]uint64
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &created))
	auctionID := created["auctionId"]
	require.NotZero(t, auctionID)

	_, resp = h.call(t, "auction_bid", nil, auctionBidParams{
		Caller:    testBuyer,
		AuctionID: auctionID,
		Amount:    "7",
	})
	require.Nil(t, resp.Error)

	rec, resp = h.call(t, "auction_finalize", nil, auctionFinalizeParams{
		Caller:    testSeller,
		AuctionID: auctionID,
		Accept:    true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, resp.Error)

	var settled auctionJSON
	raw, err = json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &settled))
	require.True(t, settled.Settled)
	require.False(t, settled.Live)

	require.Equal(t, int64(7), h.balance(t, testSeller).Int64())
	require.Equal(t, int64(93), h.balance(t, testBuyer).Int64())

	buyer, err := parseAddress(testBuyer)
	require.NoError(t, err)
	owner, err := h.registry.OwnerOf(itemID)
	require.NoError(t, err)
	require.Equal(t, buyer, owner)

	// Closed auctions reject further finalize attempts.
	rec, resp = h.call(t, "auction_finalize", nil, auctionFinalizeParams{
		Caller:    testSeller,
		AuctionID: auctionID,
		Accept:    true,
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeConflict, resp.Error.Code)
}

func TestSetListingFeeRequiresBearerToken(t *testing.T) {
	t.Setenv(AuthTokenEnv, "sekrit")
	h := newTestHarness(t)

	params := marketFeeParams{Caller: testOperator, Fee: "3"}

	rec, resp := h.call(t, "market_setListingFee", nil, params)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	headers := map[string]string{"Authorization": "Bearer sekrit"}
	rec, resp = h.call(t, "market_setListingFee", headers, params)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, resp.Error)

	_, resp = h.call(t, "market_getListingFee", nil, nil)
	require.Nil(t, resp.Error)
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var fee map[string]string
	require.NoError(t, json.Unmarshal(raw, &fee))
	require.Equal(t, "3", fee["fee"])
}

func TestUnknownMethodAndMalformedPayload(t *testing.T) {
	h := newTestHarness(t)

	rec, resp := h.call(t, "market_burnEverything", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	w = httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestEventsFeedOverRPC(t *testing.T) {
	h := newTestHarness(t)

	seller, err := parseAddress(testSeller)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := h.registry.Mint(seller, fmt.Sprintf("ipfs://item-%d", i))
		require.NoError(t, err)
	}

	_, resp := h.call(t, "events_latest", nil, eventsLatestParams{Limit: 2})
	require.Nil(t, resp.Error)

	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var feed []recordedEventJSON
	require.NoError(t, json.Unmarshal(raw, &feed))
	require.Len(t, feed, 2)
	require.Equal(t, "token.minted", feed[0].Event.Type)
	require.Greater(t, feed[1].Sequence, feed[0].Sequence)

	_, resp = h.call(t, "events_latest", nil, eventsLatestParams{Cursor: feed[0].Sequence})
	require.Nil(t, resp.Error)
	raw, err = json.Marshal(resp.Result)
	require.NoError(t, err)
	feed = nil
	require.NoError(t, json.Unmarshal(raw, &feed))
	require.Len(t, feed, 1)
}

func TestPausedModuleRejectsMutations(t *testing.T) {
	h := newTestHarness(t)
	require.NoError(t, h.manager.SetPaused("market", true))

	seller, err := parseAddress(testSeller)
	require.NoError(t, err)
	itemID, err := h.registry.Mint(seller, "ipfs://item-1")
	require.NoError(t, err)

	rec, resp := h.call(t, "market_list", nil, marketListParams{
		Caller: testSeller,
		ItemID: itemID,
		Price:  "50",
		Fee:    "2",
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeServerError, resp.Error.Code)
}
