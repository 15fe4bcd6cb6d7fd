package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/chainlens-app/chainlens/viewer/entity"
	"github.com/chainlens-app/chainlens/viewer/explorer"
	"github.com/chainlens-app/chainlens/viewer/money"
	"github.com/chainlens-app/chainlens/viewer/networks"
	"github.com/chainlens-app/chainlens/viewer/share"
	"github.com/chainlens-app/chainlens/viewer/view"
)

// ExplorerClient is the slice of the explorer client the handlers need.
type ExplorerClient interface {
	FetchAddress(ctx context.Context, ref entity.Ref) (*explorer.AddressSnapshot, error)
	FetchTransaction(ctx context.Context, ref entity.Ref) (*explorer.TransactionSnapshot, error)
}

// ShareIssuer mints share tokens.
type ShareIssuer interface {
	Generate(ctx context.Context, ref entity.Ref, sess share.Session) (string, error)
}

// DeepLinkResolver resolves inbound share tokens.
type DeepLinkResolver interface {
	Resolve(ctx context.Context, token string, sess share.Session) (entity.Ref, share.State, error)
}

// Handler wires the viewer pipeline to HTTP routes.
type Handler struct {
	explorer ExplorerClient
	builder  *view.Builder
	issuer   ShareIssuer
	resolver DeepLinkResolver
}

// NewHandler creates the API handler set.
func NewHandler(explorerClient ExplorerClient, builder *view.Builder, issuer ShareIssuer, resolver DeepLinkResolver) *Handler {
	return &Handler{
		explorer: explorerClient,
		builder:  builder,
		issuer:   issuer,
		resolver: resolver,
	}
}

// Routes mounts the API routes on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/networks", h.listNetworks)
	r.Get("/networks/{chainId}/addresses/{hash}", h.getAddress)
	r.Get("/networks/{chainId}/transactions/{hash}", h.getTransaction)
	r.Post("/share", h.generateShare)
	r.Get("/share/{id}", h.resolveShare)
}

func (h *Handler) listNetworks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.builder.Networks())
}

func (h *Handler) getAddress(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.refFromRequest(w, r, entity.KindAddress)
	if !ok {
		return
	}

	snapshot, err := h.explorer.FetchAddress(r.Context(), ref)
	if err != nil {
		writeError(w, err)
		return
	}

	payload, err := h.builder.Address(ref, snapshot)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.refFromRequest(w, r, entity.KindTransaction)
	if !ok {
		return
	}

	snapshot, err := h.explorer.FetchTransaction(r.Context(), ref)
	if err != nil {
		writeError(w, err)
		return
	}

	payload, err := h.builder.Transaction(ref, snapshot)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

type generateShareRequest struct {
	Hash    string `json:"hash"`
	ChainID int64  `json:"chainId"`
}

type generateShareResponse struct {
	ID string `json:"id"`
}

func (h *Handler) generateShare(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	var req generateShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ref, err := entity.Classify(req.ChainID, req.Hash)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := h.issuer.Generate(r.Context(), ref, sess)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, generateShareResponse{ID: id})
}

type resolveShareResponse struct {
	Hash    string `json:"hash"`
	ChainID int64  `json:"chainId"`
	Kind    string `json:"kind"`
	State   string `json:"state"`
}

func (h *Handler) resolveShare(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	token := chi.URLParam(r, "id")
	ref, state, err := h.resolver.Resolve(r.Context(), token, sess)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resolveShareResponse{
		Hash:    ref.Hash,
		ChainID: ref.NetworkID,
		Kind:    ref.Kind.String(),
		State:   state.String(),
	})
}

// refFromRequest parses the chainId and hash route params and classifies the
// hash, enforcing the expected entity kind.
func (h *Handler) refFromRequest(w http.ResponseWriter, r *http.Request, want entity.Kind) (entity.Ref, bool) {
	chainID, err := strconv.ParseInt(chi.URLParam(r, "chainId"), 10, 64)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "chainId must be an integer")
		return entity.Ref{}, false
	}

	ref, err := entity.Classify(chainID, chi.URLParam(r, "hash"))
	if err != nil {
		writeError(w, err)
		return entity.Ref{}, false
	}
	if ref.Kind != want {
		writeErrorMessage(w, http.StatusBadRequest, "hash does not denote a "+want.String())
		return entity.Ref{}, false
	}

	return ref, true
}

func sessionFromRequest(w http.ResponseWriter, r *http.Request) (share.Session, bool) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeErrorMessage(w, http.StatusBadRequest, "X-User-Id header is required")
		return share.Session{}, false
	}
	return share.Session{UserID: userID}, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		Logger.Error().Err(err).Msg("Failed to encode response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError maps pipeline failures onto HTTP statuses with a single
// user-facing message each. No failure is silently swallowed and none
// produces partial data.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrInvalidInput):
		writeErrorMessage(w, http.StatusBadRequest, "invalid address or transaction hash")
	case errors.Is(err, networks.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, "unknown network")
	case errors.Is(err, explorer.ErrMalformedResponse), errors.Is(err, money.ErrMalformedAmount):
		Logger.Error().Err(err).Msg("Upstream returned malformed data")
		writeErrorMessage(w, http.StatusBadGateway, "upstream returned malformed data")
	case errors.Is(err, explorer.ErrFetchFailed), errors.Is(err, share.ErrBackend):
		Logger.Warn().Err(err).Msg("Upstream request failed")
		writeErrorMessage(w, http.StatusBadGateway, "failed to fetch data, please try again")
	default:
		Logger.Error().Err(err).Msg("Unhandled error")
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
	}
}
