package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"os"
	"strings"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/core/events"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/auction"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/market"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/token"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/observability/metrics"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000

	codeNotFound      = -32022
	codeForbidden     = -32023
	codeValueMismatch = -32024
	codeConflict      = -32025
)

// AuthTokenEnv names the environment variable carrying the bearer token that
// guards operator-only methods.
const AuthTokenEnv = "IDEEZA_RPC_TOKEN"

// Server exposes every marketplace, auction and token operation over JSON-RPC
// 2.0 on a single POST endpoint.
type Server struct {
	market    *market.Engine
	auction   *auction.Engine
	tokens    *token.Registry
	recorder  *events.Recorder
	metrics   *metrics.MarketplaceMetrics
	authToken string
}

// NewServer wires the engines into an RPC server. The operator bearer token
// is read from IDEEZA_RPC_TOKEN; when unset, operator-only methods are
// rejected outright.
func NewServer(marketEngine *market.Engine, auctionEngine *auction.Engine, registry *token.Registry, recorder *events.Recorder) *Server {
	return &Server{
		market:    marketEngine,
		auction:   auctionEngine,
		tokens:    registry,
		recorder:  recorder,
		metrics:   metrics.Marketplace(),
		authToken: strings.TrimSpace(os.Getenv(AuthTokenEnv)),
	}
}

// Handler returns the http.Handler serving the RPC endpoint, for callers that
// mount it themselves (tests, the gateway).
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handle)
}

// Start serves the RPC endpoint on addr and blocks.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	return http.ListenAndServe(addr, mux)
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, nil, codeInvalidRequest, "POST required", nil)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "unable to read request body", nil)
		return
	}
	if len(body) > maxRequestBytes {
		writeError(w, http.StatusRequestEntityTooLarge, nil, codeInvalidRequest, "request body too large", nil)
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", nil)
		return
	}

	start := time.Now()
	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	s.dispatch(sw, r, &req)
	outcome := "ok"
	if sw.status >= http.StatusBadRequest {
		outcome = "error"
	}
	s.metrics.ObserveRPC(req.Method, outcome, time.Since(start).Seconds())
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	switch req.Method {
	case "market_list":
		s.handleMarketList(w, r, req)
	case "market_resell":
		s.handleMarketResell(w, r, req)
	case "market_purchase":
		s.handleMarketPurchase(w, r, req)
	case "market_getUnsoldItems":
		s.handleMarketUnsoldItems(w, r, req)
	case "market_getItemsOwnedBy":
		s.handleMarketItemsOwnedBy(w, r, req)
	case "market_getItemsListedBy":
		s.handleMarketItemsListedBy(w, r, req)
	case "market_setListingFee":
		s.handleMarketSetListingFee(w, r, req)
	case "market_getListingFee":
		s.handleMarketGetListingFee(w, r, req)
	case "auction_create":
		s.handleAuctionCreate(w, r, req)
	case "auction_bid":
		s.handleAuctionBid(w, r, req)
	case "auction_finalize":
		s.handleAuctionFinalize(w, r, req)
	case "auction_getLiveIds":
		s.handleAuctionLiveIDs(w, r, req)
	case "auction_get":
		s.handleAuctionGet(w, r, req)
	case "token_mint":
		s.handleTokenMint(w, r, req)
	case "token_ownerOf":
		s.handleTokenOwnerOf(w, r, req)
	case "token_uri":
		s.handleTokenURI(w, r, req)
	case "events_latest":
		s.handleEventsLatest(w, r, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("method %q not found", req.Method), nil)
	}
}

type authError struct {
	Code    int
	Message string
	Data    interface{}
}

func (s *Server) requireAuth(r *http.Request) *authError {
	if s.authToken == "" {
		return &authError{Code: codeUnauthorized, Message: "unauthorized", Data: "rpc auth token not configured"}
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return &authError{Code: codeUnauthorized, Message: "unauthorized", Data: "missing bearer token"}
	}
	supplied := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(s.authToken)) != 1 {
		return &authError{Code: codeUnauthorized, Message: "unauthorized", Data: "invalid bearer token"}
	}
	return nil
}

func decodeSingleParam(req *RPCRequest, dest any) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("exactly one parameter object expected")
	}
	return json.Unmarshal(req.Params[0], dest)
}

func parseAddress(value string) ([20]byte, error) {
	trimmed := strings.TrimSpace(value)
	if !ethcommon.IsHexAddress(trimmed) {
		return [20]byte{}, fmt.Errorf("invalid address %q", value)
	}
	return ethcommon.HexToAddress(trimmed), nil
}

func parseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("amount %q is not a base-10 integer", value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must be non-negative")
	}
	return amount, nil
}

func addressHex(addr [20]byte) string {
	return ethcommon.Address(addr).Hex()
}

// writeEngineError maps engine sentinel errors onto JSON-RPC error codes.
func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, market.ErrNotOwner),
		errors.Is(err, market.ErrNotOperator),
		errors.Is(err, auction.ErrNotOwner),
		errors.Is(err, auction.ErrNotSeller),
		errors.Is(err, token.ErrNotOwner):
		writeError(w, http.StatusForbidden, id, codeForbidden, "forbidden", err.Error())
	case errors.Is(err, market.ErrFeeMismatch),
		errors.Is(err, market.ErrPaymentMismatch),
		errors.Is(err, market.ErrInvalidPrice),
		errors.Is(err, auction.ErrBidTooLow):
		writeError(w, http.StatusBadRequest, id, codeValueMismatch, "value_mismatch", err.Error())
	case errors.Is(err, market.ErrItemNotFound),
		errors.Is(err, auction.ErrAuctionNotFound),
		errors.Is(err, token.ErrTokenNotFound):
		writeError(w, http.StatusNotFound, id, codeNotFound, "not_found", err.Error())
	case errors.Is(err, market.ErrAlreadyListed),
		errors.Is(err, market.ErrNotListed),
		errors.Is(err, market.ErrUnderAuction),
		errors.Is(err, market.ErrInsufficientFunds),
		errors.Is(err, auction.ErrAlreadyListed),
		errors.Is(err, auction.ErrAuctionNotLive),
		errors.Is(err, auction.ErrAlreadyFinalized),
		errors.Is(err, auction.ErrUnknownCollection),
		errors.Is(err, auction.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, id, codeConflict, "conflict", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, id, codeServerError, "internal_error", err.Error())
	}
}
