package explorer

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/chainlens-app/chainlens/viewer/holdings"
)

// Wire types for the Blockscout v2 API. Every numeric ledger amount arrives
// as a decimal-integer string; pointers mark fields whose absence must be
// detected at the validation boundary rather than defaulted away.

type addressResponse struct {
	CoinBalance  *string `json:"coin_balance"`
	Hash         string  `json:"hash"`
	ExchangeRate *string `json:"exchange_rate"`
}

type tokensResponse struct {
	Items []tokenItem `json:"items"`
}

type tokenItem struct {
	Token tokenInfo `json:"token"`
	Value *string   `json:"value"`
}

type tokenInfo struct {
	Address      string  `json:"address"`
	Decimals     *string `json:"decimals"`
	Symbol       string  `json:"symbol"`
	ExchangeRate *string `json:"exchange_rate"`
}

type participant struct {
	Hash string `json:"hash"`
}

type transactionResponse struct {
	Hash           string         `json:"hash"`
	Timestamp      *string        `json:"timestamp"`
	From           *participant   `json:"from"`
	To             *participant   `json:"to"`
	Value          *string        `json:"value"`
	ExchangeRate   *string        `json:"exchange_rate"`
	TokenTransfers []transferItem `json:"token_transfers"`
}

type transferItem struct {
	From  participant `json:"from"`
	To    participant `json:"to"`
	Token tokenInfo   `json:"token"`
	Total struct {
		Value *string `json:"value"`
	} `json:"total"`
}

// NativeBalance is a native-asset amount with its full-precision decimal form
// and the exchange rate reported alongside it. Rate is nil when unpriced.
type NativeBalance struct {
	Raw    string
	Amount decimal.Decimal
	Rate   *decimal.Decimal
}

// AddressSnapshot is the merged result of the two address fetches. It is
// constructed fresh per request and never cached.
type AddressSnapshot struct {
	Hash     string
	Balance  NativeBalance
	Holdings []holdings.TokenHolding
}

// TokenTransfer is one directional token movement inside a transaction.
type TokenTransfer struct {
	From     string
	To       string
	Symbol   string
	Decimals int
	Raw      string
	Rate     *decimal.Decimal
	Amount   decimal.Decimal
	Fiat     *decimal.Decimal
}

// TransactionSnapshot is the normalized view of one transaction, ephemeral
// like AddressSnapshot.
type TransactionSnapshot struct {
	Hash      string
	Timestamp time.Time
	From      string
	To        string
	Value     NativeBalance
	Transfers []TokenTransfer
}
