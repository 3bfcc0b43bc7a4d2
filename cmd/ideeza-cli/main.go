package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

var rpcEndpoint = defaultRPCEndpoint()
var rpcAuthToken = os.Getenv("IDEEZA_RPC_TOKEN")

func main() {
	args := os.Args[1:]
	var err error
	args, err = applyGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if len(args) < 1 {
		printUsage()
		return
	}

	command := args[0]
	args = args[1:]
	switch command {
	case "mint":
		requireArgs(args, 2, "mint <owner> <uri>")
		call("token_mint", map[string]any{"owner": args[0], "uri": args[1]}, false)
	case "token":
		requireArgs(args, 1, "token <id>")
		call("token_ownerOf", map[string]any{"tokenId": parseID(args[0])}, false)
	case "uri":
		requireArgs(args, 1, "uri <id>")
		call("token_uri", map[string]any{"tokenId": parseID(args[0])}, false)
	case "list":
		requireArgs(args, 4, "list <caller> <itemId> <price> <fee>")
		call("market_list", map[string]any{
			"caller": args[0], "itemId": parseID(args[1]), "price": args[2], "fee": args[3],
		}, false)
	case "resell":
		requireArgs(args, 4, "resell <caller> <itemId> <price> <fee>")
		call("market_resell", map[string]any{
			"caller": args[0], "itemId": parseID(args[1]), "price": args[2], "fee": args[3],
		}, false)
	case "purchase":
		requireArgs(args, 3, "purchase <caller> <itemId> <payment>")
		call("market_purchase", map[string]any{
			"caller": args[0], "itemId": parseID(args[1]), "payment": args[2],
		}, false)
	case "unsold":
		call("market_getUnsoldItems", nil, false)
	case "owned":
		requireArgs(args, 1, "owned <address>")
		call("market_getItemsOwnedBy", map[string]any{"address": args[0]}, false)
	case "listed":
		requireArgs(args, 1, "listed <address>")
		call("market_getItemsListedBy", map[string]any{"address": args[0]}, false)
	case "fee":
		call("market_getListingFee", nil, false)
	case "set-fee":
		requireArgs(args, 2, "set-fee <caller> <fee>")
		call("market_setListingFee", map[string]any{"caller": args[0], "fee": args[1]}, true)
	case "auction-create":
		requireArgs(args, 4, "auction-create <caller> <collection> <itemId> <minBid>")
		call("auction_create", map[string]any{
			"caller": args[0], "collection": args[1], "itemId": parseID(args[2]), "minBid": args[3],
		}, false)
	case "bid":
		requireArgs(args, 3, "bid <caller> <auctionId> <amount>")
		call("auction_bid", map[string]any{
			"caller": args[0], "auctionId": parseID(args[1]), "amount": args[2],
		}, false)
	case "finalize":
		requireArgs(args, 3, "finalize <caller> <auctionId> <accept|reject>")
		call("auction_finalize", map[string]any{
			"caller": args[0], "auctionId": parseID(args[1]), "accept": args[2] == "accept",
		}, false)
	case "auctions":
		call("auction_getLiveIds", nil, false)
	case "auction":
		requireArgs(args, 1, "auction <id>")
		call("auction_get", map[string]any{"auctionId": parseID(args[0])}, false)
	case "events":
		params := map[string]any{"limit": 50}
		if len(args) > 0 {
			params = map[string]any{"cursor": parseID(args[0])}
		}
		call("events_latest", params, false)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", command)
		printUsage()
		os.Exit(1)
	}
}

func defaultRPCEndpoint() string {
	if v := strings.TrimSpace(os.Getenv("RPC_URL")); v != "" {
		return v
	}
	return "http://localhost:8645"
}

func applyGlobalFlags(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--rpc" {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value for --rpc")
			}
			rpcEndpoint = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--rpc=") {
			rpcEndpoint = strings.TrimPrefix(arg, "--rpc=")
			continue
		}
		out = append(out, arg)
	}
	return out, nil
}

func requireArgs(args []string, count int, usage string) {
	if len(args) < count {
		fmt.Fprintf(os.Stderr, "Usage: ideeza-cli %s\n", usage)
		os.Exit(1)
	}
}

func parseID(raw string) uint64 {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %q is not a valid id\n", raw)
		os.Exit(1)
	}
	return id
}

func call(method string, params map[string]any, withAuth bool) {
	request := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		request["params"] = []any{params}
	}
	payload, err := json.Marshal(request)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding request: %v\n", err)
		os.Exit(1)
	}

	req, err := http.NewRequest(http.MethodPost, rpcEndpoint, bytes.NewBuffer(payload))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	if withAuth {
		if strings.TrimSpace(rpcAuthToken) == "" {
			fmt.Fprintln(os.Stderr, "Error: IDEEZA_RPC_TOKEN must be set for this command")
			os.Exit(1)
		}
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(rpcAuthToken))
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error contacting node: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int         `json:"code"`
			Message string      `json:"message"`
			Data    interface{} `json:"data"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		fmt.Fprintln(os.Stderr, "Error: failed to decode response from node")
		os.Exit(1)
	}
	if rpcResp.Error != nil {
		fmt.Fprintf(os.Stderr, "Error from node: %s", rpcResp.Error.Message)
		if rpcResp.Error.Data != nil {
			fmt.Fprintf(os.Stderr, " (%v)", rpcResp.Error.Data)
		}
		fmt.Fprintln(os.Stderr)
		os.Exit(1)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, rpcResp.Result, "", "  "); err != nil {
		fmt.Println(string(rpcResp.Result))
		return
	}
	fmt.Println(pretty.String())
}

func printUsage() {
	fmt.Println("Usage: ideeza-cli [--rpc <url>] <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  mint <owner> <uri>                          - Mints a new item to the owner")
	fmt.Println("  token <id>                                  - Shows the current holder of an item")
	fmt.Println("  uri <id>                                    - Shows the metadata URI of an item")
	fmt.Println("  list <caller> <itemId> <price> <fee>        - Lists an item for a fixed price")
	fmt.Println("  resell <caller> <itemId> <price> <fee>      - Relists a previously purchased item")
	fmt.Println("  purchase <caller> <itemId> <payment>        - Buys a listed item")
	fmt.Println("  unsold                                      - Shows all unsold listings")
	fmt.Println("  owned <address>                             - Shows items held by an address")
	fmt.Println("  listed <address>                            - Shows items listed by an address")
	fmt.Println("  fee                                         - Shows the current listing fee")
	fmt.Println("  set-fee <caller> <fee>                      - Updates the listing fee (requires IDEEZA_RPC_TOKEN)")
	fmt.Println("  auction-create <caller> <collection> <itemId> <minBid>")
	fmt.Println("  bid <caller> <auctionId> <amount>           - Places a bid")
	fmt.Println("  finalize <caller> <auctionId> <accept|reject>")
	fmt.Println("  auctions                                    - Shows live auction ids")
	fmt.Println("  auction <id>                                - Shows one auction")
	fmt.Println("  events [cursor]                             - Shows recent marketplace events")
}
