package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/gateway/middleware"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/auction"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/market"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/token"
)

// OperatorScope must be present in the token scope claim to reach the admin
// routes.
const OperatorScope = "marketplace:operate"

type Config struct {
	Market        *market.Engine
	Auction       *auction.Engine
	Tokens        *token.Registry
	RPCHandler    http.Handler
	Authenticator *middleware.Authenticator
	Observability *middleware.Observability
	CORS          middleware.CORSConfig
}

// New assembles the public HTTP surface: read-only marketplace projections,
// the JSON-RPC endpoint, health and metrics.
func New(cfg Config) (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.CORS))

	obs := cfg.Observability
	if obs != nil {
		r.Use(obs.Middleware("root"))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.RPCHandler != nil {
		r.Handle("/rpc", cfg.RPCHandler)
	}

	h := &handlers{market: cfg.Market, auction: cfg.Auction, tokens: cfg.Tokens}

	r.Route("/v1", func(sr chi.Router) {
		sr.Get("/market/items/unsold", h.unsoldItems)
		sr.Get("/market/items/owner/{address}", h.itemsOwnedBy)
		sr.Get("/market/items/seller/{address}", h.itemsListedBy)
		sr.Get("/market/fee", h.listingFee)
		sr.Get("/market/sold-count", h.soldCount)
		sr.Get("/auctions/live", h.liveAuctions)
		sr.Get("/auctions/{id}", h.auctionByID)
		sr.Get("/tokens/{id}", h.tokenByID)

		sr.Route("/admin", func(ar chi.Router) {
			if cfg.Authenticator != nil {
				ar.Use(cfg.Authenticator.Middleware(OperatorScope))
			}
			ar.Post("/fee", h.setListingFee)
		})
	})

	if obs != nil {
		r.Handle("/metrics", obs.MetricsHandler())
	}

	return r, nil
}
