package entity_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/zeebo/assert"

	"github.com/chainlens-app/chainlens/viewer/entity"
)

var (
	addressHash = "0x" + strings.Repeat("0", 40)
	txHash      = "0x" + strings.Repeat("ab", 32)
)

func TestClassifyAddress(t *testing.T) {
	ref, err := entity.Classify(1, addressHash)
	assert.NoError(t, err)
	assert.Equal(t, ref.Kind, entity.KindAddress)
	assert.Equal(t, ref.NetworkID, int64(1))
	assert.Equal(t, ref.Hash, addressHash)
}

func TestClassifyTransaction(t *testing.T) {
	ref, err := entity.Classify(137, txHash)
	assert.NoError(t, err)
	assert.Equal(t, ref.Kind, entity.KindTransaction)
	assert.Equal(t, ref.NetworkID, int64(137))
	assert.Equal(t, ref.Hash, txHash)
}

func TestClassifyTrimsWhitespace(t *testing.T) {
	ref, err := entity.Classify(1, "  "+addressHash+"\n")
	assert.NoError(t, err)
	assert.Equal(t, ref.Hash, addressHash)
}

func TestClassifyInvalid(t *testing.T) {
	invalid := []string{
		"",
		"0x",
		"0x1234",
		"0x" + strings.Repeat("0", 41),
		"0x" + strings.Repeat("0", 63),
		strings.Repeat("0", 42), // missing 0x prefix
		"1x" + strings.Repeat("0", 40),
	}

	for _, in := range invalid {
		_, err := entity.Classify(1, in)
		if !errors.Is(err, entity.ErrInvalidInput) {
			t.Fatalf("Classify(%q): expected ErrInvalidInput, got %v", in, err)
		}
	}
}

func TestKindForHash(t *testing.T) {
	kind, err := entity.KindForHash(addressHash)
	assert.NoError(t, err)
	assert.Equal(t, kind, entity.KindAddress)

	kind, err = entity.KindForHash(txHash)
	assert.NoError(t, err)
	assert.Equal(t, kind, entity.KindTransaction)

	_, err = entity.KindForHash("0xdeadbeef")
	if !errors.Is(err, entity.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, entity.KindAddress.String(), "address")
	assert.Equal(t, entity.KindTransaction.String(), "transaction")
}
