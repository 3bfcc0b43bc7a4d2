package rpc

import (
	"net/http"

	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/core/types"
)

type tokenMintParams struct {
	Owner string `json:"owner"`
	URI   string `json:"uri"`
}

type tokenIDParams struct {
	TokenID uint64 `json:"tokenId"`
}

type eventsLatestParams struct {
	Cursor uint64 `json:"cursor"`
	Limit  int    `json:"limit"`
}

type recordedEventJSON struct {
	Sequence uint64       `json:"sequence"`
	Event    *types.Event `json:"event"`
}

func (s *Server) handleTokenMint(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params tokenMintParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	owner, err := parseAddress(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	id, err := s.tokens.Mint(owner, params.URI)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"tokenId": id})
}

func (s *Server) handleTokenOwnerOf(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params tokenIDParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	owner, err := s.tokens.OwnerOf(params.TokenID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"owner": addressHex(owner)})
}

func (s *Server) handleTokenURI(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params tokenIDParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	uri, err := s.tokens.TokenURI(params.TokenID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"uri": uri})
}

// handleEventsLatest serves the bounded event feed consumed by external
// indexers. With a cursor it returns everything after that sequence;
// otherwise the most recent events up to limit.
func (s *Server) handleEventsLatest(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	params := eventsLatestParams{Limit: 100}
	if len(req.Params) == 1 {
		if err := decodeSingleParam(req, &params); err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
			return
		}
	}
	if s.recorder == nil {
		writeResult(w, req.ID, []recordedEventJSON{})
		return
	}
	var recorded []recordedEventJSON
	source := s.recorder.Latest(params.Limit)
	if params.Cursor > 0 {
		source = s.recorder.Since(params.Cursor)
	}
	for _, entry := range source {
		payload, ok := entry.Event.(interface{ Event() *types.Event })
		if !ok {
			continue
		}
		recorded = append(recorded, recordedEventJSON{Sequence: entry.Sequence, Event: payload.Event()})
	}
	if recorded == nil {
		recorded = []recordedEventJSON{}
	}
	writeResult(w, req.ID, recorded)
}
