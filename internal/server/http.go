package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/stationfare/ticketing/internal/model"
	"github.com/stationfare/ticketing/internal/service"
)

const requestTimeout = 10 * time.Second

// TicketingHTTPHandler exposes the ticketing service as a JSON API.
type TicketingHTTPHandler struct {
	svc    *service.TicketingService
	logger *zap.Logger
}

// NewTicketingHTTPHandler creates a new handler around the service.
func NewTicketingHTTPHandler(svc *service.TicketingService, logger *zap.Logger) *TicketingHTTPHandler {
	return &TicketingHTTPHandler{svc: svc, logger: logger}
}

// RegisterRoutes mounts all endpoints on the router.
func (h *TicketingHTTPHandler) RegisterRoutes(router chi.Router) {
	router.Get("/v1/stations", h.HandleListStations)
	router.Get("/v1/stations/{stationID}/quote", h.HandleQuote)
	router.Post("/v1/purchase", h.HandlePurchase)
	router.Post("/v1/cards/deduct", h.HandleDeduct)
	router.Get("/v1/tickets", h.HandleListTickets)

	router.Post("/v1/admin/login", h.HandleAdminLogin)
	router.Post("/v1/admin/stations", h.HandleSaveStation)
	router.Post("/v1/admin/prices", h.HandleAdjustPrices)
	router.Get("/v1/admin/offers", h.HandleListOffers)
	router.Post("/v1/admin/offers", h.HandleAddOffer)
	router.Delete("/v1/admin/offers/{offerID}", h.HandleDeleteOffer)
}

func (h *TicketingHTTPHandler) HandleListStations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	stations, err := h.svc.ListStations(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stations)
}

func (h *TicketingHTTPHandler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	stationID, err := strconv.ParseInt(chi.URLParam(r, "stationID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid station id", http.StatusBadRequest)
		return
	}

	on := time.Now()
	if d := r.URL.Query().Get("date"); d != "" {
		on, err = time.Parse("2006-01-02", d)
		if err != nil {
			http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	quote, err := h.svc.QuoteStation(ctx, stationID, on)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, quote)
}

type purchaseRequest struct {
	StationID  int64  `json:"station_id"`
	Type       string `json:"type"`
	CardNumber string `json:"card_number"`
}

type purchaseResponse struct {
	Ticket  *model.Ticket `json:"ticket"`
	Receipt string        `json:"receipt"`
}

func (h *TicketingHTTPHandler) HandlePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	ticketType, err := model.ParseTicketType(req.Type)
	if err != nil {
		h.writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	ticket, err := h.svc.Purchase(ctx, req.StationID, ticketType, req.CardNumber)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, purchaseResponse{
		Ticket:  ticket,
		Receipt: ticket.Receipt(),
	})
}

type deductRequest struct {
	CardNumber string  `json:"card_number"`
	Amount     float64 `json:"amount"`
}

func (h *TicketingHTTPHandler) HandleDeduct(w http.ResponseWriter, r *http.Request) {
	var req deductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.DeductFare(ctx, req.CardNumber, req.Amount); err != nil {
		h.writeError(w, err)
		return
	}

	card, err := h.svc.FindCard(ctx, req.CardNumber)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, card)
}

func (h *TicketingHTTPHandler) HandleListTickets(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	tickets, err := h.svc.RecentTickets(ctx, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tickets)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *TicketingHTTPHandler) HandleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.Login(ctx, req.Username, req.Password); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *TicketingHTTPHandler) HandleSaveStation(w http.ResponseWriter, r *http.Request) {
	var station model.Station
	if err := json.NewDecoder(r.Body).Decode(&station); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.SaveStation(ctx, &station); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, station)
}

type adjustPricesRequest struct {
	Factor float64 `json:"factor"`
}

func (h *TicketingHTTPHandler) HandleAdjustPrices(w http.ResponseWriter, r *http.Request) {
	var req adjustPricesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.AdjustAllPrices(ctx, req.Factor); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type addOfferRequest struct {
	StationID       int64   `json:"station_id"`
	DiscountPercent float64 `json:"discount_percent"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
}

func (h *TicketingHTTPHandler) HandleAddOffer(w http.ResponseWriter, r *http.Request) {
	var req addOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		http.Error(w, "invalid start_date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		http.Error(w, "invalid end_date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	offer := model.Offer{
		StationID:       req.StationID,
		DiscountPercent: req.DiscountPercent,
		StartDate:       start,
		EndDate:         end,
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.AddOffer(ctx, &offer); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, offer)
}

func (h *TicketingHTTPHandler) HandleListOffers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	offers, err := h.svc.ListOffers(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, offers)
}

func (h *TicketingHTTPHandler) HandleDeleteOffer(w http.ResponseWriter, r *http.Request) {
	offerID, err := strconv.ParseInt(chi.URLParam(r, "offerID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid offer id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.DeleteOffer(ctx, offerID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TicketingHTTPHandler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError maps the business error taxonomy onto distinct HTTP statuses
// and messages. Storage failures stay opaque 500s.
func (h *TicketingHTTPHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrStationNotFound):
		http.Error(w, "station not found", http.StatusNotFound)
	case errors.Is(err, model.ErrCardNotFound):
		http.Error(w, "card not found", http.StatusNotFound)
	case errors.Is(err, model.ErrInsufficientFunds):
		http.Error(w, "insufficient funds", http.StatusPaymentRequired)
	case errors.Is(err, model.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, model.ErrAdminAuth):
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	default:
		h.logger.Error("request failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
