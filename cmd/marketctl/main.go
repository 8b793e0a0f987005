package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"nftmarket/internal/shared/native"
)

// marketctl is an operator CLI against a running marketplace API. Dev chain
// commands (mint, approve, deposit) need the server started with
// ENABLE_DEV_CHAIN_ENDPOINTS=true.
func main() {
	app := &cli.App{
		Name:  "marketctl",
		Usage: "operate an nftmarket API from the command line",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Usage:   "base URL of the marketplace API",
				Value:   "http://localhost:8080",
				EnvVars: []string{"MARKETCTL_API"},
			},
			&cli.StringFlag{
				Name:    "wallet",
				Usage:   "wallet address sent as the caller identity",
				EnvVars: []string{"MARKETCTL_WALLET"},
			},
		},
		Commands: []*cli.Command{
			mintCommand,
			approveCommand,
			depositCommand,
			listCommand,
			updatePriceCommand,
			cancelCommand,
			buyCommand,
			listingCommand,
			listingsCommand,
			earningsCommand,
			withdrawCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatalf("marketctl: %v", err)
	}
}

var mintCommand = &cli.Command{
	Name:      "mint",
	Usage:     "mint a dev token",
	ArgsUsage: "<collection> <owner>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return cli.Exit("usage: mint <collection> <owner>", 2)
		}
		return call(c, http.MethodPost, "/dev/assets/mint", map[string]string{
			"collection": c.Args().Get(0),
			"owner":      c.Args().Get(1),
		})
	},
}

var approveCommand = &cli.Command{
	Name:      "approve",
	Usage:     "approve the marketplace for a token",
	ArgsUsage: "<collection> <token_id>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return cli.Exit("usage: approve <collection> <token_id>", 2)
		}
		return call(c, http.MethodPost, "/dev/assets/approve", map[string]string{
			"collection": c.Args().Get(0),
			"token_id":   c.Args().Get(1),
		})
	},
}

var depositCommand = &cli.Command{
	Name:      "deposit",
	Usage:     "fund a dev vault account",
	ArgsUsage: "<account> <amount>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return cli.Exit("usage: deposit <account> <amount>", 2)
		}
		amount, err := native.Parse(c.Args().Get(1))
		if err != nil {
			return cli.Exit(fmt.Sprintf("bad amount: %v", err), 2)
		}
		return call(c, http.MethodPost, "/dev/vault/deposit", map[string]string{
			"account": c.Args().Get(0),
			"amount":  native.Format(amount),
		})
	},
}

var listCommand = &cli.Command{
	Name:      "list",
	Usage:     "list a token for sale",
	ArgsUsage: "<collection> <token_id> <price>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 3 {
			return cli.Exit("usage: list <collection> <token_id> <price>", 2)
		}
		price, err := native.Parse(c.Args().Get(2))
		if err != nil {
			return cli.Exit(fmt.Sprintf("bad price: %v", err), 2)
		}
		return call(c, http.MethodPost, "/marketplace/listings", map[string]string{
			"collection": c.Args().Get(0),
			"token_id":   c.Args().Get(1),
			"price":      native.Format(price),
		})
	},
}

var updatePriceCommand = &cli.Command{
	Name:      "update-price",
	Usage:     "set a new price on an active listing",
	ArgsUsage: "<collection> <token_id> <price>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 3 {
			return cli.Exit("usage: update-price <collection> <token_id> <price>", 2)
		}
		price, err := native.Parse(c.Args().Get(2))
		if err != nil {
			return cli.Exit(fmt.Sprintf("bad price: %v", err), 2)
		}
		path := listingPath(c.Args().Get(0), c.Args().Get(1), "price")
		return call(c, http.MethodPost, path, map[string]string{"price": native.Format(price)})
	},
}

var cancelCommand = &cli.Command{
	Name:      "cancel",
	Usage:     "cancel an active listing",
	ArgsUsage: "<collection> <token_id>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return cli.Exit("usage: cancel <collection> <token_id>", 2)
		}
		path := listingPath(c.Args().Get(0), c.Args().Get(1), "cancel")
		return call(c, http.MethodPost, path, struct{}{})
	},
}

var buyCommand = &cli.Command{
	Name:      "buy",
	Usage:     "buy a listed token",
	ArgsUsage: "<collection> <token_id> <paid_amount>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 3 {
			return cli.Exit("usage: buy <collection> <token_id> <paid_amount>", 2)
		}
		paid, err := native.Parse(c.Args().Get(2))
		if err != nil {
			return cli.Exit(fmt.Sprintf("bad amount: %v", err), 2)
		}
		path := listingPath(c.Args().Get(0), c.Args().Get(1), "buy")
		return call(c, http.MethodPost, path, map[string]string{"paid_amount": native.Format(paid)})
	},
}

var listingCommand = &cli.Command{
	Name:      "listing",
	Usage:     "show one listing",
	ArgsUsage: "<collection> <token_id>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return cli.Exit("usage: listing <collection> <token_id>", 2)
		}
		return call(c, http.MethodGet, listingPath(c.Args().Get(0), c.Args().Get(1), ""), nil)
	},
}

var listingsCommand = &cli.Command{
	Name:  "listings",
	Usage: "browse the listing catalog",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "collection"},
		&cli.StringFlag{Name: "seller"},
		&cli.StringFlag{Name: "sort", Usage: "newest, price_asc or price_desc"},
		&cli.StringFlag{Name: "cursor"},
		&cli.IntFlag{Name: "limit"},
	},
	Action: func(c *cli.Context) error {
		query := url.Values{}
		for _, name := range []string{"collection", "seller", "sort", "cursor"} {
			if value := c.String(name); value != "" {
				query.Set(name, value)
			}
		}
		if limit := c.Int("limit"); limit > 0 {
			query.Set("limit", fmt.Sprintf("%d", limit))
		}
		path := "/marketplace/listings"
		if len(query) > 0 {
			path += "?" + query.Encode()
		}
		return call(c, http.MethodGet, path, nil)
	},
}

var earningsCommand = &cli.Command{
	Name:      "earnings",
	Usage:     "show a seller's withdrawable balance",
	ArgsUsage: "<seller>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.Exit("usage: earnings <seller>", 2)
		}
		return call(c, http.MethodGet, "/marketplace/earnings/"+url.PathEscape(c.Args().Get(0)), nil)
	},
}

var withdrawCommand = &cli.Command{
	Name:  "withdraw",
	Usage: "withdraw the caller's full balance",
	Action: func(c *cli.Context) error {
		return call(c, http.MethodPost, "/marketplace/earnings/withdraw", struct{}{})
	},
}

func listingPath(collection, tokenID, suffix string) string {
	path := fmt.Sprintf("/marketplace/listings/%s/%s",
		url.PathEscape(strings.ToLower(strings.TrimSpace(collection))),
		url.PathEscape(strings.TrimSpace(tokenID)),
	)
	if suffix != "" {
		path += "/" + suffix
	}
	return path
}

func call(c *cli.Context, method, path string, body any) error {
	base := strings.TrimRight(c.String("api"), "/")

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(c.Context, method, base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if wallet := strings.TrimSpace(c.String("wallet")); wallet != "" {
		req.Header.Set("X-Wallet-Address", wallet)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	output, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Println(strings.TrimSpace(string(output)))
	if resp.StatusCode >= 400 {
		return cli.Exit(fmt.Sprintf("request failed with status %d", resp.StatusCode), 1)
	}
	return nil
}
