package gateway

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/auction"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/market"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/token"
)

type handlers struct {
	market  *market.Engine
	auction *auction.Engine
	tokens  *token.Registry
}

type saleItem struct {
	ItemID    uint64 `json:"itemId"`
	Seller    string `json:"seller"`
	Custodian string `json:"custodian"`
	Price     string `json:"price"`
	Sold      bool   `json:"sold"`
}

type auctionView struct {
	ID            uint64 `json:"id"`
	Seller        string `json:"seller"`
	Collection    string `json:"collection"`
	ItemID        uint64 `json:"itemId"`
	MinBid        string `json:"minBid"`
	HighestBid    string `json:"highestBid"`
	HighestBidder string `json:"highestBidder,omitempty"`
	Settled       bool   `json:"settled"`
	Live          bool   `json:"live"`
}

type tokenView struct {
	TokenID uint64 `json:"tokenId"`
	Owner   string `json:"owner"`
	URI     string `json:"uri"`
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeErr(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

func saleItems(records []*market.SaleRecord) []saleItem {
	out := make([]saleItem, 0, len(records))
	for _, r := range records {
		out = append(out, saleItem{
			ItemID:    r.ItemID,
			Seller:    ethcommon.Address(r.Seller).Hex(),
			Custodian: ethcommon.Address(r.Custodian).Hex(),
			Price:     r.Price.String(),
			Sold:      r.Sold,
		})
	}
	return out
}

func pathAddress(r *http.Request) ([20]byte, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "address"))
	if !ethcommon.IsHexAddress(raw) {
		return [20]byte{}, errors.New("invalid address")
	}
	return ethcommon.HexToAddress(raw), nil
}

func pathID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
}

func (h *handlers) unsoldItems(w http.ResponseWriter, _ *http.Request) {
	records, err := h.market.UnsoldItems()
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, saleItems(records))
}

func (h *handlers) itemsOwnedBy(w http.ResponseWriter, r *http.Request) {
	owner, err := pathAddress(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	records, err := h.market.ItemsOwnedBy(owner)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, saleItems(records))
}

func (h *handlers) itemsListedBy(w http.ResponseWriter, r *http.Request) {
	seller, err := pathAddress(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	records, err := h.market.ItemsListedBy(seller)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, saleItems(records))
}

func (h *handlers) listingFee(w http.ResponseWriter, _ *http.Request) {
	fee, err := h.market.ListingFee()
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"fee": fee.String()})
}

func (h *handlers) soldCount(w http.ResponseWriter, _ *http.Request) {
	sold, err := h.market.ItemsSold()
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"sold": sold})
}

func (h *handlers) liveAuctions(w http.ResponseWriter, _ *http.Request) {
	ids, err := h.auction.LiveAuctionIDs()
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	views := make([]auctionView, 0, len(ids))
	for _, id := range ids {
		record, err := h.auction.Get(id)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		views = append(views, h.auctionToView(record, true))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *handlers) auctionByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid auction id")
		return
	}
	record, err := h.auction.Get(id)
	if err != nil {
		if errors.Is(err, auction.ErrAuctionNotFound) {
			writeErr(w, http.StatusNotFound, err.Error())
			return
		}
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	live, err := h.auction.IsLive(id)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.auctionToView(record, live))
}

func (h *handlers) auctionToView(a *auction.Auction, live bool) auctionView {
	view := auctionView{
		ID:         a.ID,
		Seller:     ethcommon.Address(a.Seller).Hex(),
		Collection: ethcommon.Address(a.Collection).Hex(),
		ItemID:     a.ItemID,
		MinBid:     a.MinBid.String(),
		HighestBid: a.HighestBid.String(),
		Settled:    a.Settled,
		Live:       live,
	}
	if a.HasBid() {
		view.HighestBidder = ethcommon.Address(a.HighestBidder).Hex()
	}
	return view
}

func (h *handlers) tokenByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid token id")
		return
	}
	owner, err := h.tokens.OwnerOf(id)
	if err != nil {
		if errors.Is(err, token.ErrTokenNotFound) {
			writeErr(w, http.StatusNotFound, err.Error())
			return
		}
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	uri, err := h.tokens.TokenURI(id)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tokenView{
		TokenID: id,
		Owner:   ethcommon.Address(owner).Hex(),
		URI:     uri,
	})
}

type setFeeRequest struct {
	Caller string `json:"caller"`
	Fee    string `json:"fee"`
}

func (h *handlers) setListingFee(w http.ResponseWriter, r *http.Request) {
	var body setFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if !ethcommon.IsHexAddress(strings.TrimSpace(body.Caller)) {
		writeErr(w, http.StatusBadRequest, "invalid caller address")
		return
	}
	caller := ethcommon.HexToAddress(strings.TrimSpace(body.Caller))
	fee, ok := new(big.Int).SetString(strings.TrimSpace(body.Fee), 10)
	if !ok {
		writeErr(w, http.StatusBadRequest, "fee must be a base-10 integer")
		return
	}
	if err := h.market.SetListingFee(caller, fee); err != nil {
		if errors.Is(err, market.ErrNotOperator) {
			writeErr(w, http.StatusForbidden, err.Error())
			return
		}
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"fee": fee.String()})
}
