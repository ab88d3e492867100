package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/aureus-network/aureus-indexer/internal/common"
	"github.com/aureus-network/aureus-indexer/internal/logger"
	"github.com/aureus-network/aureus-indexer/internal/store"
)

const (
	defaultDeliveriesLimit = 50
	maxDeliveriesLimit     = 500
)

// Handler handles HTTP requests for the admin API.
type Handler struct {
	checkpoints *store.CheckpointStore
	events      *store.EventStore
	webhooks    *store.WebhookStore
	validate    *validator.Validate
	log         *logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(
	checkpoints *store.CheckpointStore,
	events *store.EventStore,
	webhooks *store.WebhookStore,
	log *logger.Logger,
) *Handler {
	return &Handler{
		checkpoints: checkpoints,
		events:      events,
		webhooks:    webhooks,
		validate:    validator.New(),
		log:         log.WithComponent(common.ComponentAPI),
	}
}

// Health returns the health status of the API.
// @Summary Health check
// @Description Check the health status of the indexer
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "Health status"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	checkpoints, err := h.checkpoints.List(r.Context())

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Sources:   len(checkpoints),
	}
	if err != nil {
		response.Status = "degraded"
	}

	respondJSON(w, http.StatusOK, response)
}

// GetStatus returns the sync status of every registered source.
// @Summary Get sync status
// @Description Retrieve per-source checkpoints with stored event counts
// @Tags Status
// @Produce json
// @Success 200 {object} StatusResponse "Per-source sync status"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /status [get]
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	checkpoints, err := h.checkpoints.List(r.Context())
	if err != nil {
		h.log.Errorf("failed to list checkpoints: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list checkpoints")
		return
	}

	sources := make([]SourceStatus, 0, len(checkpoints))
	for _, cp := range checkpoints {
		count, err := h.events.CountBySource(r.Context(), cp.SourceID)
		if err != nil {
			h.log.Errorf("failed to count events for %s: %v", cp.SourceID, err)
			respondError(w, http.StatusInternalServerError, "failed to count events")
			return
		}

		sources = append(sources, SourceStatus{
			SourceID:           cp.SourceID,
			SourceAddress:      cp.SourceAddress,
			LastProcessedBlock: cp.LastProcessedBlock,
			LastProcessedAt:    cp.LastProcessedAt,
			ErrorCount:         cp.ErrorCount,
			LastError:          cp.LastError,
			EventCount:         count,
		})
	}

	respondJSON(w, http.StatusOK, StatusResponse{Sources: sources})
}

// ListWebhooks returns all webhook subscriptions.
// @Summary List webhook subscriptions
// @Description Get all webhook subscriptions, newest first
// @Tags Webhooks
// @Produce json
// @Success 200 {array} store.Subscription "List of subscriptions"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /webhooks [get]
func (h *Handler) ListWebhooks(w http.ResponseWriter, r *http.Request) {
	subs, err := h.webhooks.ListSubscriptions(r.Context())
	if err != nil {
		h.log.Errorf("failed to list webhook subscriptions: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list webhook subscriptions")
		return
	}

	respondJSON(w, http.StatusOK, subs)
}

// CreateWebhook registers a new webhook subscription.
// @Summary Create a webhook subscription
// @Description Register a receiver URL with an optional event-kind filter and signing secret
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param request body CreateWebhookRequest true "Subscription to create"
// @Success 201 {object} store.Subscription "Created subscription"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /webhooks [post]
func (h *Handler) CreateWebhook(w http.ResponseWriter, r *http.Request) {
	var req CreateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	sub, err := h.webhooks.CreateSubscription(r.Context(), req.URL, req.Events, req.Secret)
	if err != nil {
		h.log.Errorf("failed to create webhook subscription: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to create webhook subscription")
		return
	}

	respondJSON(w, http.StatusCreated, sub)
}

// DeleteWebhook deactivates a webhook subscription.
// @Summary Deactivate a webhook subscription
// @Description Stop deliveries to a subscription; its delivery history is kept
// @Tags Webhooks
// @Param id path string true "Subscription id"
// @Success 204 "Deactivated"
// @Failure 404 {object} ErrorResponse "Subscription not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /webhooks/{id} [delete]
func (h *Handler) DeleteWebhook(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	err := h.webhooks.DeactivateSubscription(r.Context(), id)
	if errors.Is(err, store.ErrSubscriptionNotFound) {
		// Already-inactive rows deactivate as a no-op inside the store, so
		// this is strictly an unknown id
		respondError(w, http.StatusNotFound, fmt.Sprintf("subscription '%s' not found", id))
		return
	}
	if err != nil {
		h.log.Errorf("failed to deactivate webhook subscription %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to deactivate webhook subscription")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetDeliveries returns the recent delivery log of a subscription.
// @Summary Get webhook deliveries
// @Description Retrieve the most recent delivery attempts for a subscription
// @Tags Webhooks
// @Produce json
// @Param id path string true "Subscription id"
// @Param limit query int false "Maximum number of rows to return" default(50)
// @Success 200 {array} store.Delivery "Delivery log rows"
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 404 {object} ErrorResponse "Subscription not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /webhooks/{id}/deliveries [get]
func (h *Handler) GetDeliveries(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, err := h.webhooks.GetSubscription(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrSubscriptionNotFound) {
			respondError(w, http.StatusNotFound, fmt.Sprintf("subscription '%s' not found", id))
			return
		}
		h.log.Errorf("failed to load webhook subscription %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to load webhook subscription")
		return
	}

	limit := defaultDeliveriesLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > maxDeliveriesLimit {
			respondError(w, http.StatusBadRequest,
				fmt.Sprintf("invalid limit: must be between 1 and %d", maxDeliveriesLimit))
			return
		}
		limit = parsed
	}

	deliveries, err := h.webhooks.ListDeliveries(r.Context(), id, limit)
	if err != nil {
		h.log.Errorf("failed to list deliveries for %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to list deliveries")
		return
	}

	respondJSON(w, http.StatusOK, deliveries)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")

	// Encode JSON first to catch any errors before writing status
	encoded, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	w.Write(encoded) //nolint:errcheck
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	response := ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}
	respondJSON(w, status, response)
}
