// Package share produces and consumes opaque share-link tokens via the
// backend collaborator. The backend owns the token-to-entity mapping; this
// package only talks to its two endpoints.
package share

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/chainlens-app/chainlens/viewer/entity"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "share").Logger()
}

// SetLogger allows setting a custom logger
func SetLogger(l zerolog.Logger) {
	log = l.With().Str("component", "share").Logger()
}

// ErrBackend marks a failed share-backend call: transport error, non-success
// status, or an undecodable payload.
var ErrBackend = errors.New("share backend request failed")

// Session carries the acting user's identity. It is threaded explicitly into
// every backend call; nothing here reads ambient host state.
type Session struct {
	UserID string
}

const defaultTimeout = 10 * time.Second

// Client talks to the share-link backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a share backend client. A non-positive timeout falls
// back to the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type infoRequest struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
}

type infoResponse struct {
	Hash    string `json:"hash"`
	ChainID int64  `json:"chainId"`
}

type generateRequest struct {
	Hash    string `json:"hash"`
	ChainID int64  `json:"chainId"`
	UserID  string `json:"userId"`
}

type generateResponse struct {
	ID string `json:"id"`
}

// Resolution is the backend's answer for one opaque token: a bare hash and
// the chain it lives on. The entity kind is re-derived from the hash length.
type Resolution struct {
	Hash    string
	ChainID int64
}

// Resolve exchanges an opaque share token for the entity it was bound to at
// creation time.
func (c *Client) Resolve(ctx context.Context, token string, sess Session) (Resolution, error) {
	var resp infoResponse
	if err := c.postJSON(ctx, "/info", infoRequest{ID: token, UserID: sess.UserID}, &resp); err != nil {
		return Resolution{}, err
	}
	if resp.Hash == "" || resp.ChainID == 0 {
		return Resolution{}, fmt.Errorf("%w: response is missing hash or chainId", ErrBackend)
	}
	return Resolution{Hash: resp.Hash, ChainID: resp.ChainID}, nil
}

// Generate mints a new opaque token pointing back at the given entity,
// bound to the issuing user.
func (c *Client) Generate(ctx context.Context, ref entity.Ref, sess Session) (string, error) {
	var resp generateResponse
	req := generateRequest{Hash: ref.Hash, ChainID: ref.NetworkID, UserID: sess.UserID}
	if err := c.postJSON(ctx, "/generate", req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("%w: response is missing token id", ErrBackend)
	}

	log.Debug().Int64("network", ref.NetworkID).Str("hash", ref.Hash).Msg("Minted share token")
	return resp.ID, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Warn().Str("path", path).Int("status", resp.StatusCode).Msg("Share backend returned non-success status")
		return fmt.Errorf("%w: HTTP %d", ErrBackend, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}

	return nil
}
