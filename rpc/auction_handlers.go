package rpc

import (
	"net/http"

	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/auction"
)

type auctionCreateParams struct {
	Caller     string `json:"caller"`
	Collection string `json:"collection"`
	ItemID     uint64 `json:"itemId"`
	MinBid     string `json:"minBid"`
}

type auctionBidParams struct {
	Caller    string `json:"caller"`
	AuctionID uint64 `json:"auctionId"`
	Amount    string `json:"amount"`
}

type auctionFinalizeParams struct {
	Caller    string `json:"caller"`
	AuctionID uint64 `json:"auctionId"`
	Accept    bool   `json:"accept"`
}

type auctionIDParams struct {
	AuctionID uint64 `json:"auctionId"`
}

type auctionJSON struct {
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

func (s *Server) auctionToJSON(a *auction.Auction) auctionJSON {
	out := auctionJSON{
		ID:         a.ID,
		Seller:     addressHex(a.Seller),
		Collection: addressHex(a.Collection),
		ItemID:     a.ItemID,
		MinBid:     a.MinBid.String(),
		HighestBid: a.HighestBid.String(),
		Settled:    a.Settled,
	}
	if a.HasBid() {
		out.HighestBidder = addressHex(a.HighestBidder)
	}
	if live, err := s.auction.IsLive(a.ID); err == nil {
		out.Live = live
	}
	return out
}

func (s *Server) handleAuctionCreate(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params auctionCreateParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	collection, err := parseAddress(params.Collection)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	minBid, err := parseAmount(params.MinBid)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	id, err := s.auction.Create(caller, collection, params.ItemID, minBid)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.metrics.ObserveAuctionCreated()
	writeResult(w, req.ID, map[string]uint64{"auctionId": id})
}

func (s *Server) handleAuctionBid(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params auctionBidParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	record, err := s.auction.Bid(caller, params.AuctionID, amount)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.metrics.ObserveBidAccepted()
	writeResult(w, req.ID, s.auctionToJSON(record))
}

func (s *Server) handleAuctionFinalize(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params auctionFinalizeParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	record, err := s.auction.Finalize(caller, params.AuctionID, params.Accept)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.metrics.ObserveAuctionFinalized(params.Accept)
	writeResult(w, req.ID, s.auctionToJSON(record))
}

func (s *Server) handleAuctionLiveIDs(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	ids, err := s.auction.LiveAuctionIDs()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, ids)
}

func (s *Server) handleAuctionGet(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params auctionIDParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	record, err := s.auction.Get(params.AuctionID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, s.auctionToJSON(record))
}
