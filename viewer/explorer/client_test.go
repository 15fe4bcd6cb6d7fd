package explorer_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeebo/assert"

	"github.com/chainlens-app/chainlens/viewer/entity"
	"github.com/chainlens-app/chainlens/viewer/explorer"
	"github.com/chainlens-app/chainlens/viewer/networks"
)

var (
	addressHash = "0x" + strings.Repeat("0", 40)
	txHash      = "0x" + strings.Repeat("ab", 32)
)

const addressInfoBody = `{
	"coin_balance": "0",
	"hash": "` + "0x0000000000000000000000000000000000000000" + `",
	"exchange_rate": "2000.50"
}`

const tokensBody = `{
	"items": [
		{
			"token": {
				"address": "0x1111111111111111111111111111111111111111",
				"decimals": "6",
				"symbol": "USDC",
				"exchange_rate": "1.50"
			},
			"value": "1000000"
		}
	]
}`

func testRegistry(t *testing.T, explorerURL string) *networks.Registry {
	t.Helper()
	r, err := networks.NewRegistry([]networks.Descriptor{
		{ID: 1, Name: "Ethereum", Symbol: "ETH", Decimals: 18, ExplorerURL: explorerURL},
	})
	assert.NoError(t, err)
	return r
}

func addressRef() entity.Ref {
	return entity.Ref{NetworkID: 1, Kind: entity.KindAddress, Hash: addressHash}
}

func txRef() entity.Ref {
	return entity.Ref{NetworkID: 1, Kind: entity.KindTransaction, Hash: txHash}
}

func TestFetchAddressJoinsBothRequests(t *testing.T) {
	var infoHits, tokenHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/tokens"):
			tokenHits.Add(1)
			_, _ = w.Write([]byte(tokensBody))
		default:
			infoHits.Add(1)
			_, _ = w.Write([]byte(addressInfoBody))
		}
	}))
	defer server.Close()

	client := explorer.NewClient(testRegistry(t, server.URL), 5*time.Second)
	snapshot, err := client.FetchAddress(context.Background(), addressRef())
	assert.NoError(t, err)
	assert.NotNil(t, snapshot)

	assert.Equal(t, int32(1), infoHits.Load())
	assert.Equal(t, int32(1), tokenHits.Load())

	assert.Equal(t, snapshot.Hash, addressHash)
	assert.True(t, snapshot.Balance.Amount.IsZero())
	assert.NotNil(t, snapshot.Balance.Rate)

	assert.Equal(t, len(snapshot.Holdings), 1)
	h := snapshot.Holdings[0]
	assert.Equal(t, h.Symbol, "USDC")
	assert.Equal(t, h.Decimals, 6)
	assert.True(t, h.Amount.Equal(decimal.RequireFromString("1")))
	assert.NotNil(t, h.Fiat)
	assert.True(t, h.Fiat.Equal(decimal.RequireFromString("1.50")))
}

func TestFetchAddressFailsWhenTokensRequestFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/tokens") {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(addressInfoBody))
	}))
	defer server.Close()

	client := explorer.NewClient(testRegistry(t, server.URL), 5*time.Second)
	snapshot, err := client.FetchAddress(context.Background(), addressRef())
	if !errors.Is(err, explorer.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
	// all-or-nothing: no partial snapshot
	assert.Nil(t, snapshot)
}

func TestFetchAddressMalformedInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/tokens") {
			_, _ = w.Write([]byte(tokensBody))
			return
		}
		// hash present but coin_balance missing
		_, _ = w.Write([]byte(`{"hash": "` + "0x0000000000000000000000000000000000000000" + `"}`))
	}))
	defer server.Close()

	client := explorer.NewClient(testRegistry(t, server.URL), 5*time.Second)
	_, err := client.FetchAddress(context.Background(), addressRef())
	if !errors.Is(err, explorer.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestFetchAddressMalformedTokenEntry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/tokens") {
			// token entry missing decimals
			_, _ = w.Write([]byte(`{"items": [{"token": {"symbol": "BAD"}, "value": "1"}]}`))
			return
		}
		_, _ = w.Write([]byte(addressInfoBody))
	}))
	defer server.Close()

	client := explorer.NewClient(testRegistry(t, server.URL), 5*time.Second)
	_, err := client.FetchAddress(context.Background(), addressRef())
	if !errors.Is(err, explorer.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestFetchAddressUnknownNetwork(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	client := explorer.NewClient(testRegistry(t, server.URL), 5*time.Second)
	ref := addressRef()
	ref.NetworkID = 999

	_, err := client.FetchAddress(context.Background(), ref)
	if !errors.Is(err, networks.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// routing fails before any request is issued
	assert.Equal(t, int32(0), hits.Load())
}

func TestFetchAddressRejectsWrongKind(t *testing.T) {
	client := explorer.NewClient(testRegistry(t, "http://unused"), 5*time.Second)
	_, err := client.FetchAddress(context.Background(), txRef())
	if !errors.Is(err, entity.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

const transactionBody = `{
	"hash": "0xabababababababababababababababababababababababababababababababab",
	"timestamp": "2024-05-01T12:00:00Z",
	"from": {"hash": "0x1111111111111111111111111111111111111111"},
	"to": {"hash": "0x2222222222222222222222222222222222222222"},
	"value": "1500000000000000000",
	"exchange_rate": "2000",
	"token_transfers": [
		{
			"from": {"hash": "0x1111111111111111111111111111111111111111"},
			"to": {"hash": "0x2222222222222222222222222222222222222222"},
			"token": {"symbol": "USDC", "decimals": "6", "exchange_rate": "1"},
			"total": {"value": "2500000"}
		}
	]
}`

func TestFetchTransaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(transactionBody))
	}))
	defer server.Close()

	client := explorer.NewClient(testRegistry(t, server.URL), 5*time.Second)
	snapshot, err := client.FetchTransaction(context.Background(), txRef())
	assert.NoError(t, err)

	assert.Equal(t, snapshot.Hash, txHash)
	assert.Equal(t, snapshot.From, "0x1111111111111111111111111111111111111111")
	assert.Equal(t, snapshot.To, "0x2222222222222222222222222222222222222222")
	assert.True(t, snapshot.Timestamp.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))
	assert.True(t, snapshot.Value.Amount.Equal(decimal.RequireFromString("1.5")))
	assert.NotNil(t, snapshot.Value.Rate)

	assert.Equal(t, len(snapshot.Transfers), 1)
	transfer := snapshot.Transfers[0]
	assert.Equal(t, transfer.Symbol, "USDC")
	assert.True(t, transfer.Amount.Equal(decimal.RequireFromString("2.5")))
	assert.NotNil(t, transfer.Fiat)
	assert.True(t, transfer.Fiat.Equal(decimal.RequireFromString("2.5")))
}

func TestFetchTransactionMissingFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hash": "0xab", "value": "1"}`))
	}))
	defer server.Close()

	client := explorer.NewClient(testRegistry(t, server.URL), 5*time.Second)
	_, err := client.FetchTransaction(context.Background(), txRef())
	if !errors.Is(err, explorer.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestFetchTransactionBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := explorer.NewClient(testRegistry(t, server.URL), 5*time.Second)
	_, err := client.FetchTransaction(context.Background(), txRef())
	if !errors.Is(err, explorer.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
}
