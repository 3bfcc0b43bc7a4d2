package gateway

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/gateway/middleware"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/auction"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/market"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/token"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/state"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/storage"
)

const testSecret = "gateway-test-secret"

type fixture struct {
	handler  http.Handler
	manager  *state.Manager
	registry *token.Registry
	seller   [20]byte
	operator [20]byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	manager := state.NewManager(storage.NewMemDB())
	registry := token.NewRegistry("ideezacoin")
	registry.SetState(manager)

	seller := ethcommon.HexToAddress("0x1111111111111111111111111111111111111111")
	operator := ethcommon.HexToAddress("0x3333333333333333333333333333333333333333")
	require.NoError(t, manager.SetOperator(operator))
	require.NoError(t, manager.SetListingFee(big.NewInt(2)))

	marketEngine := market.NewEngine()
	marketEngine.SetState(manager)
	marketEngine.SetRegistry(registry)
	marketEngine.SetVault(state.MarketVaultAddress())
	marketEngine.SetOperator(operator)
	marketEngine.SetPauses(manager)

	auctionEngine := auction.NewEngine()
	auctionEngine.SetState(manager)
	auctionEngine.SetRegistry(registry)
	auctionEngine.SetVault(state.AuctionVaultAddress())
	auctionEngine.SetPauses(manager)

	authenticator := middleware.NewAuthenticator(middleware.AuthConfig{
		Enabled:    true,
		HMACSecret: testSecret,
	}, nil)

	handler, err := New(Config{
		Market:        marketEngine,
		Auction:       auctionEngine,
		Tokens:        registry,
		Authenticator: authenticator,
	})
	require.NoError(t, err)

	return &fixture{
		handler:  handler,
		manager:  manager,
		registry: registry,
		seller:   seller,
		operator: operator,
	}
}

func (f *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func signedToken(t *testing.T, scope string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   "ops",
		"scope": scope,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestHealthAndFeeProjection(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())

	rec = f.get(t, "/v1/market/fee")
	require.Equal(t, http.StatusOK, rec.Code)
	var fee map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fee))
	require.Equal(t, "2", fee["fee"])
}

func TestUnsoldItemsProjection(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.manager.Credit(f.seller, big.NewInt(10)))
	itemID, err := f.registry.Mint(f.seller, "ipfs://item-1")
	require.NoError(t, err)

	marketEngine := market.NewEngine()
	marketEngine.SetState(f.manager)
	marketEngine.SetRegistry(f.registry)
	marketEngine.SetVault(state.MarketVaultAddress())
	marketEngine.SetOperator(f.operator)
	_, err = marketEngine.List(f.seller, itemID, big.NewInt(50), big.NewInt(2))
	require.NoError(t, err)

	rec := f.get(t, "/v1/market/items/unsold")
	require.Equal(t, http.StatusOK, rec.Code)
	var items []saleItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	require.Equal(t, itemID, items[0].ItemID)
	require.Equal(t, "50", items[0].Price)
	require.False(t, items[0].Sold)
}

func TestAuctionProjection(t *testing.T) {
	f := newFixture(t)

	itemID, err := f.registry.Mint(f.seller, "ipfs://item-1")
	require.NoError(t, err)

	auctionEngine := auction.NewEngine()
	auctionEngine.SetState(f.manager)
	auctionEngine.SetRegistry(f.registry)
	auctionEngine.SetVault(state.AuctionVaultAddress())
	auctionID, err := auctionEngine.Create(f.seller, f.registry.Address(), itemID, big.NewInt(5))
	require.NoError(t, err)

	rec := f.get(t, "/v1/auctions/live")
	require.Equal(t, http.StatusOK, rec.Code)
	var live []auctionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &live))
	require.Len(t, live, 1)
	require.Equal(t, auctionID, live[0].ID)
	require.True(t, live[0].Live)

	rec = f.get(t, "/v1/auctions/999")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTokenProjection(t *testing.T) {
	f := newFixture(t)

	itemID, err := f.registry.Mint(f.seller, "ipfs://item-1")
	require.NoError(t, err)

	rec := f.get(t, "/v1/tokens/1")
	require.Equal(t, http.StatusOK, rec.Code)
	var view tokenView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, itemID, view.TokenID)
	require.Equal(t, "ipfs://item-1", view.URI)

	rec = f.get(t, "/v1/tokens/404")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminFeeRequiresScopedToken(t *testing.T) {
	f := newFixture(t)

	body, err := json.Marshal(setFeeRequest{
		Caller: ethcommon.Address(f.operator).Hex(),
		Fee:    "3",
	})
	require.NoError(t, err)

	post := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/admin/fee", bytes.NewReader(body))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusUnauthorized, post("").Code)
	require.Equal(t, http.StatusForbidden, post(signedToken(t, "read:only")).Code)

	rec := post(signedToken(t, OperatorScope))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.get(t, "/v1/market/fee")
	var fee map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fee))
	require.Equal(t, "3", fee["fee"])
}
