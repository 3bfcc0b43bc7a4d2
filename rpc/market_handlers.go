package rpc

import (
	"net/http"

	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/market"
)

type marketListParams struct {
	Caller string `json:"caller"`
	ItemID uint64 `json:"itemId"`
	Price  string `json:"price"`
	Fee    string `json:"fee"`
}

type marketPurchaseParams struct {
	Caller  string `json:"caller"`
	ItemID  uint64 `json:"itemId"`
	Payment string `json:"payment"`
}

type marketAddressParams struct {
	Address string `json:"address"`
}

type marketFeeParams struct {
	Caller string `json:"caller"`
	Fee    string `json:"fee"`
}

type saleRecordJSON struct {
	ItemID    uint64 `json:"itemId"`
	Seller    string `json:"seller"`
	Custodian string `json:"custodian"`
	Price     string `json:"price"`
	Sold      bool   `json:"sold"`
}

func saleRecordToJSON(r *market.SaleRecord) saleRecordJSON {
	return saleRecordJSON{
		ItemID:    r.ItemID,
		Seller:    addressHex(r.Seller),
		Custodian: addressHex(r.Custodian),
		Price:     r.Price.String(),
		Sold:      r.Sold,
	}
}

func saleRecordsToJSON(records []*market.SaleRecord) []saleRecordJSON {
	out := make([]saleRecordJSON, 0, len(records))
	for _, r := range records {
		out = append(out, saleRecordToJSON(r))
	}
	return out
}

func (s *Server) handleMarketList(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params marketListParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	price, err := parseAmount(params.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	fee, err := parseAmount(params.Fee)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	record, err := s.market.List(caller, params.ItemID, price, fee)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.metrics.ObserveItemListed()
	writeResult(w, req.ID, saleRecordToJSON(record))
}

func (s *Server) handleMarketResell(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params marketListParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	price, err := parseAmount(params.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	fee, err := parseAmount(params.Fee)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	record, err := s.market.Resell(caller, params.ItemID, price, fee)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.metrics.ObserveItemRelisted()
	writeResult(w, req.ID, saleRecordToJSON(record))
}

func (s *Server) handleMarketPurchase(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params marketPurchaseParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	payment, err := parseAmount(params.Payment)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	record, err := s.market.Purchase(caller, params.ItemID, payment)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.metrics.ObserveItemSold()
	writeResult(w, req.ID, saleRecordToJSON(record))
}

func (s *Server) handleMarketUnsoldItems(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	records, err := s.market.UnsoldItems()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, saleRecordsToJSON(records))
}

func (s *Server) handleMarketItemsOwnedBy(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params marketAddressParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	owner, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	records, err := s.market.ItemsOwnedBy(owner)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, saleRecordsToJSON(records))
}

func (s *Server) handleMarketItemsListedBy(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params marketAddressParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	seller, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	records, err := s.market.ItemsListedBy(seller)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, saleRecordsToJSON(records))
}

func (s *Server) handleMarketSetListingFee(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params marketFeeParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	fee, err := parseAmount(params.Fee)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.market.SetListingFee(caller, fee); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"fee": fee.String()})
}

func (s *Server) handleMarketGetListingFee(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	fee, err := s.market.ListingFee()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"fee": fee.String()})
}
