// Package view assembles the normalized, display-ready result handed to the
// rendering layer. Everything here is a pure function of a snapshot plus the
// network table; no network calls, no mutation.
package view

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chainlens-app/chainlens/viewer/entity"
	"github.com/chainlens-app/chainlens/viewer/explorer"
	"github.com/chainlens-app/chainlens/viewer/holdings"
	"github.com/chainlens-app/chainlens/viewer/money"
	"github.com/chainlens-app/chainlens/viewer/networks"
)

// NetworkInfo is the slice of a network descriptor the frontend renders.
type NetworkInfo struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
	LogoURL string `json:"logoUrl"`
}

// HoldingView is one ranked token holding, formatted for display.
type HoldingView struct {
	Symbol string `json:"symbol"`
	Amount string `json:"amount"`
	Fiat   string `json:"fiat"`
}

// AddressView is the normalized address page payload.
type AddressView struct {
	Hash         string        `json:"hash"`
	ShortHash    string        `json:"shortHash"`
	Network      NetworkInfo   `json:"network"`
	Balance      string        `json:"balance"`
	BalanceFiat  string        `json:"balanceFiat,omitempty"`
	Holdings     []HoldingView `json:"holdings"`
	ExplorerLink string        `json:"explorerLink"`
}

// TransferView is one token transfer inside a transaction, formatted.
type TransferView struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Symbol string `json:"symbol"`
	Amount string `json:"amount"`
	Fiat   string `json:"fiat,omitempty"`
}

// TransactionView is the normalized transaction page payload.
type TransactionView struct {
	Hash         string         `json:"hash"`
	Network      NetworkInfo    `json:"network"`
	TimeAgo      string         `json:"timeAgo"`
	Timestamp    string         `json:"timestamp"`
	From         string         `json:"from"`
	To           string         `json:"to"`
	Value        string         `json:"value"`
	ValueFiat    string         `json:"valueFiat,omitempty"`
	Transfers    []TransferView `json:"transfers"`
	ExplorerLink string         `json:"explorerLink"`
}

// Builder turns snapshots into views. The clock is injected so relative
// timestamps are deterministic under test.
type Builder struct {
	registry *networks.Registry
	ranker   *holdings.Ranker
	now      func() time.Time
}

// NewBuilder creates a view builder. A nil clock defaults to time.Now.
func NewBuilder(registry *networks.Registry, ranker *holdings.Ranker, now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{registry: registry, ranker: ranker, now: now}
}

// Address builds the display payload for an address snapshot. Holdings are
// filtered and ranked by fiat value on the way through.
func (b *Builder) Address(ref entity.Ref, snapshot *explorer.AddressSnapshot) (AddressView, error) {
	network, err := b.registry.Lookup(ref.NetworkID)
	if err != nil {
		return AddressView{}, err
	}

	ranked := b.ranker.Rank(snapshot.Holdings)
	views := make([]HoldingView, 0, len(ranked))
	for _, h := range ranked {
		// Rank only passes priced holdings through, so Fiat is non-nil here.
		views = append(views, HoldingView{
			Symbol: h.Symbol,
			Amount: money.FormatAmount(h.Amount),
			Fiat:   formatFiatValue(h.Fiat),
		})
	}

	return AddressView{
		Hash:         snapshot.Hash,
		ShortHash:    ShortenHash(snapshot.Hash),
		Network:      networkInfo(network),
		Balance:      fmt.Sprintf("%s %s", money.FormatAmount(snapshot.Balance.Amount), network.Symbol),
		BalanceFiat:  formatFiatValue(money.ToFiat(snapshot.Balance.Amount, snapshot.Balance.Rate)),
		Holdings:     views,
		ExplorerLink: fmt.Sprintf("%s/address/%s", network.WebURL(), snapshot.Hash),
	}, nil
}

// Transaction builds the display payload for a transaction snapshot.
func (b *Builder) Transaction(ref entity.Ref, snapshot *explorer.TransactionSnapshot) (TransactionView, error) {
	network, err := b.registry.Lookup(ref.NetworkID)
	if err != nil {
		return TransactionView{}, err
	}

	transfers := make([]TransferView, 0, len(snapshot.Transfers))
	for _, t := range snapshot.Transfers {
		transfers = append(transfers, TransferView{
			From:   ShortenHash(t.From),
			To:     ShortenHash(t.To),
			Symbol: t.Symbol,
			Amount: money.FormatAmount(t.Amount),
			Fiat:   formatFiatValue(t.Fiat),
		})
	}

	return TransactionView{
		Hash:         snapshot.Hash,
		Network:      networkInfo(network),
		TimeAgo:      RelativeTime(snapshot.Timestamp, b.now()),
		Timestamp:    snapshot.Timestamp.Format("Jan 02, 2006, 03:04:05 PM MST"),
		From:         snapshot.From,
		To:           snapshot.To,
		Value:        fmt.Sprintf("%s %s", money.FormatAmount(snapshot.Value.Amount), network.Symbol),
		ValueFiat:    formatFiatValue(money.ToFiat(snapshot.Value.Amount, snapshot.Value.Rate)),
		Transfers:    transfers,
		ExplorerLink: fmt.Sprintf("%s/tx/%s", network.WebURL(), snapshot.Hash),
	}, nil
}

// Networks lists every configured network for the frontend's picker.
func (b *Builder) Networks() []NetworkInfo {
	all := b.registry.All()
	out := make([]NetworkInfo, 0, len(all))
	for _, d := range all {
		out = append(out, networkInfo(d))
	}
	return out
}

func networkInfo(d networks.Descriptor) NetworkInfo {
	return NetworkInfo{ID: d.ID, Name: d.Name, Symbol: d.Symbol, LogoURL: d.LogoURL}
}

// formatFiatValue renders "$1.50" style values; an unpriced (nil) value
// renders as empty, never as "$0.00".
func formatFiatValue(fiat *decimal.Decimal) string {
	if fiat == nil {
		return ""
	}
	return "$" + money.FormatFiat(*fiat)
}
