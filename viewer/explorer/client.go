// Package explorer fetches raw ledger data from the per-network Blockscout
// API and normalizes it into typed snapshots. It trusts the explorer's data
// as authoritative; no chain-state validation happens here.
package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/chainlens-app/chainlens/viewer/entity"
	"github.com/chainlens-app/chainlens/viewer/holdings"
	"github.com/chainlens-app/chainlens/viewer/money"
	"github.com/chainlens-app/chainlens/viewer/networks"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "explorer").Logger()
}

// SetLogger allows setting a custom logger
func SetLogger(l zerolog.Logger) {
	log = l.With().Str("component", "explorer").Logger()
}

var (
	// ErrFetchFailed marks a transport error or a non-success HTTP status.
	// The core never retries; recovery is a fresh user-initiated request.
	ErrFetchFailed = errors.New("explorer fetch failed")
	// ErrMalformedResponse marks a well-formed transport response whose
	// payload is missing required fields or carries unparseable values.
	ErrMalformedResponse = errors.New("malformed explorer response")
)

const defaultTimeout = 10 * time.Second

// Client issues the explorer calls for a routed entity reference.
type Client struct {
	registry   *networks.Registry
	httpClient *http.Client
}

// NewClient creates an explorer client over the given network registry.
// A non-positive timeout falls back to the default.
func NewClient(registry *networks.Registry, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		registry: registry,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchAddress retrieves an address snapshot: the account info and the
// ERC-20 holdings, fetched concurrently. Both requests must succeed; a
// failure of either discards the partial result and fails the whole call,
// so the caller never renders a balance without its token list.
func (c *Client) FetchAddress(ctx context.Context, ref entity.Ref) (*AddressSnapshot, error) {
	if ref.Kind != entity.KindAddress {
		return nil, fmt.Errorf("%w: %s is not an address", entity.ErrInvalidInput, ref.Hash)
	}

	network, err := c.registry.Lookup(ref.NetworkID)
	if err != nil {
		return nil, err
	}

	var (
		addr   addressResponse
		tokens tokensResponse
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		path := fmt.Sprintf("%s/addresses/%s", network.ExplorerURL, url.PathEscape(ref.Hash))
		return c.getJSON(ctx, path, "address_info", &addr)
	})
	g.Go(func() error {
		path := fmt.Sprintf("%s/addresses/%s/tokens?type=ERC-20", network.ExplorerURL, url.PathEscape(ref.Hash))
		return c.getJSON(ctx, path, "address_tokens", &tokens)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snapshot, err := buildAddressSnapshot(network, addr, tokens)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int64("network", ref.NetworkID).
		Str("hash", ref.Hash).
		Int("holdings", len(snapshot.Holdings)).
		Msg("Fetched address snapshot")
	return snapshot, nil
}

// FetchTransaction retrieves and normalizes one transaction, including its
// token transfers and the native-asset exchange rate.
func (c *Client) FetchTransaction(ctx context.Context, ref entity.Ref) (*TransactionSnapshot, error) {
	if ref.Kind != entity.KindTransaction {
		return nil, fmt.Errorf("%w: %s is not a transaction", entity.ErrInvalidInput, ref.Hash)
	}

	network, err := c.registry.Lookup(ref.NetworkID)
	if err != nil {
		return nil, err
	}

	var tx transactionResponse
	path := fmt.Sprintf("%s/transactions/%s", network.ExplorerURL, url.PathEscape(ref.Hash))
	if err := c.getJSON(ctx, path, "transaction", &tx); err != nil {
		return nil, err
	}

	snapshot, err := buildTransactionSnapshot(network, tx)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int64("network", ref.NetworkID).
		Str("hash", ref.Hash).
		Int("transfers", len(snapshot.Transfers)).
		Msg("Fetched transaction snapshot")
	return snapshot, nil
}

// getJSON performs one GET and decodes the body. Transport errors and
// non-success statuses map to ErrFetchFailed, undecodable bodies to
// ErrMalformedResponse.
func (c *Client) getJSON(ctx context.Context, fullURL, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observeFetch(endpoint, outcomeTransportError)
		return fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		observeFetch(endpoint, outcomeTransportError)
		return fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		observeFetch(endpoint, outcomeBadStatus)
		log.Warn().Str("url", fullURL).Int("status", resp.StatusCode).Msg("Explorer returned non-success status")
		return fmt.Errorf("%w: HTTP %d", ErrFetchFailed, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		observeFetch(endpoint, outcomeMalformed)
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	observeFetch(endpoint, outcomeOK)
	return nil
}

func buildAddressSnapshot(network networks.Descriptor, addr addressResponse, tokens tokensResponse) (*AddressSnapshot, error) {
	if addr.CoinBalance == nil || addr.Hash == "" {
		return nil, fmt.Errorf("%w: address info is missing coin_balance or hash", ErrMalformedResponse)
	}

	balance, err := buildNativeBalance(*addr.CoinBalance, network.Decimals, addr.ExchangeRate)
	if err != nil {
		return nil, err
	}

	held := make([]holdings.TokenHolding, 0, len(tokens.Items))
	for i, item := range tokens.Items {
		holding, err := buildHolding(item)
		if err != nil {
			return nil, fmt.Errorf("token item %d: %w", i, err)
		}
		held = append(held, holding)
	}

	return &AddressSnapshot{
		Hash:     addr.Hash,
		Balance:  balance,
		Holdings: held,
	}, nil
}

func buildHolding(item tokenItem) (holdings.TokenHolding, error) {
	if item.Value == nil || item.Token.Decimals == nil {
		return holdings.TokenHolding{}, fmt.Errorf("%w: token entry is missing value or decimals", ErrMalformedResponse)
	}

	decimals, err := strconv.Atoi(*item.Token.Decimals)
	if err != nil || decimals < 0 {
		return holdings.TokenHolding{}, fmt.Errorf("%w: token decimals %q", ErrMalformedResponse, *item.Token.Decimals)
	}

	rate, err := parseOptionalRate(item.Token.ExchangeRate)
	if err != nil {
		return holdings.TokenHolding{}, err
	}

	amount, err := money.ToDecimal(*item.Value, decimals)
	if err != nil {
		return holdings.TokenHolding{}, err
	}

	return holdings.TokenHolding{
		ContractAddress: item.Token.Address,
		Symbol:          item.Token.Symbol,
		Decimals:        decimals,
		Raw:             *item.Value,
		Rate:            rate,
		Amount:          amount,
		Fiat:            money.ToFiat(amount, rate),
	}, nil
}

func buildTransactionSnapshot(network networks.Descriptor, tx transactionResponse) (*TransactionSnapshot, error) {
	if tx.Hash == "" || tx.Timestamp == nil || tx.From == nil || tx.To == nil || tx.Value == nil {
		return nil, fmt.Errorf("%w: transaction is missing required fields", ErrMalformedResponse)
	}

	timestamp, err := time.Parse(time.RFC3339, *tx.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("%w: timestamp %q", ErrMalformedResponse, *tx.Timestamp)
	}

	value, err := buildNativeBalance(*tx.Value, network.Decimals, tx.ExchangeRate)
	if err != nil {
		return nil, err
	}

	transfers := make([]TokenTransfer, 0, len(tx.TokenTransfers))
	for i, item := range tx.TokenTransfers {
		transfer, err := buildTransfer(item)
		if err != nil {
			return nil, fmt.Errorf("token transfer %d: %w", i, err)
		}
		transfers = append(transfers, transfer)
	}

	return &TransactionSnapshot{
		Hash:      tx.Hash,
		Timestamp: timestamp,
		From:      tx.From.Hash,
		To:        tx.To.Hash,
		Value:     value,
		Transfers: transfers,
	}, nil
}

func buildTransfer(item transferItem) (TokenTransfer, error) {
	if item.Total.Value == nil || item.Token.Decimals == nil {
		return TokenTransfer{}, fmt.Errorf("%w: transfer is missing total value or decimals", ErrMalformedResponse)
	}

	decimals, err := strconv.Atoi(*item.Token.Decimals)
	if err != nil || decimals < 0 {
		return TokenTransfer{}, fmt.Errorf("%w: transfer decimals %q", ErrMalformedResponse, *item.Token.Decimals)
	}

	rate, err := parseOptionalRate(item.Token.ExchangeRate)
	if err != nil {
		return TokenTransfer{}, err
	}

	amount, err := money.ToDecimal(*item.Total.Value, decimals)
	if err != nil {
		return TokenTransfer{}, err
	}

	return TokenTransfer{
		From:     item.From.Hash,
		To:       item.To.Hash,
		Symbol:   item.Token.Symbol,
		Decimals: decimals,
		Raw:      *item.Total.Value,
		Rate:     rate,
		Amount:   amount,
		Fiat:     money.ToFiat(amount, rate),
	}, nil
}

func buildNativeBalance(raw string, decimals int, rateField *string) (NativeBalance, error) {
	amount, err := money.ToDecimal(raw, decimals)
	if err != nil {
		return NativeBalance{}, err
	}

	rate, err := parseOptionalRate(rateField)
	if err != nil {
		return NativeBalance{}, err
	}

	return NativeBalance{Raw: raw, Amount: amount, Rate: rate}, nil
}

func parseOptionalRate(field *string) (*decimal.Decimal, error) {
	if field == nil {
		return nil, nil
	}
	rate, err := money.ParseRate(*field)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return rate, nil
}
