package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/stationfare/ticketing/internal/fare"
	"github.com/stationfare/ticketing/internal/metrics"
	"github.com/stationfare/ticketing/internal/model"
	"github.com/stationfare/ticketing/internal/repository"
)

// originStation labels the selling terminal's side of every ticket. The
// machine sells travel from here to the chosen destination.
const originStation = "ORIGIN STATION"

// TicketingService orchestrates quoting and the atomic sale transaction:
// card deduction, sales-counter increment and ticket logging commit or
// roll back as one unit.
type TicketingService struct {
	postgres           *sqlx.DB
	logger             *zap.Logger
	maxDiscountPercent float64

	stationRepo *repository.StationRepository
	offerRepo   *repository.OfferRepository
	cardRepo    *repository.CardRepository
	ticketRepo  *repository.TicketRepository
	adminRepo   *repository.AdminRepository
}

// NewTicketingService creates a new TicketingService instance
func NewTicketingService(postgres *sqlx.DB, logger *zap.Logger, maxDiscountPercent float64) *TicketingService {
	return &TicketingService{
		postgres:           postgres,
		logger:             logger,
		maxDiscountPercent: maxDiscountPercent,
		stationRepo:        repository.NewStationRepository(),
		offerRepo:          repository.NewOfferRepository(),
		cardRepo:           repository.NewCardRepository(),
		ticketRepo:         repository.NewTicketRepository(),
		adminRepo:          repository.NewAdminRepository(),
	}
}

// ListStations returns all stations ordered by name.
func (s *TicketingService) ListStations(ctx context.Context) ([]model.Station, error) {
	return s.stationRepo.All(s.postgres)
}

// QuoteStation computes base and after-offer fares for a station on the
// given day. No active offer is a valid outcome: the quote carries a nil
// offer and the after-offer fares equal the base.
func (s *TicketingService) QuoteStation(ctx context.Context, stationID int64, on time.Time) (*model.PriceQuote, error) {
	station, err := s.stationRepo.ByID(s.postgres, stationID)
	if err != nil {
		return nil, err
	}

	offers, err := s.offerRepo.ListForStation(s.postgres, stationID)
	if err != nil {
		return nil, err
	}

	quote := fare.Quote(*station, fare.ResolveActive(offers, on))
	return &quote, nil
}

// Purchase runs the sale as one transaction: resolve station and offer,
// price by ticket type, deduct the fare from the card, bump the station's
// sales counter and append the ticket row. Any failure rolls all of it
// back; a declined card leaves every counter and balance untouched.
func (s *TicketingService) Purchase(ctx context.Context, stationID int64, ticketType model.TicketType, cardNumber string) (*model.Ticket, error) {
	start := time.Now()
	status := "error"

	defer func() {
		metrics.RecordPurchaseDuration(status, time.Since(start).Seconds())
	}()

	ticket, err := s.purchase(ctx, stationID, ticketType, cardNumber)
	switch {
	case err == nil:
		status = "committed"
	case errors.Is(err, model.ErrInsufficientFunds):
		status = "declined"
	case errors.Is(err, model.ErrStationNotFound), errors.Is(err, model.ErrCardNotFound):
		status = "not_found"
	case errors.Is(err, model.ErrInvalidInput):
		status = "invalid"
	}

	if err != nil {
		s.logger.Info("purchase rejected",
			zap.Int64("station_id", stationID),
			zap.String("status", status),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("purchase committed",
		zap.Int64("station_id", stationID),
		zap.Int64("ticket_id", ticket.ID),
		zap.String("type", string(ticket.Type)),
		zap.Float64("price", ticket.Price))
	return ticket, nil
}

func (s *TicketingService) purchase(ctx context.Context, stationID int64, ticketType model.TicketType, cardNumber string) (*model.Ticket, error) {
	tx, err := s.postgres.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	station, err := s.stationRepo.ByID(tx, stationID)
	if err != nil {
		return nil, err
	}

	offer, err := s.offerRepo.ActiveFor(tx, stationID, time.Now())
	if err != nil {
		return nil, err
	}

	quote := fare.Quote(*station, offer)
	price := fare.PriceFor(quote, ticketType)
	if price <= 0 {
		// A stored discount of 100 or more quotes a non-positive fare.
		// Refuse rather than charge nothing.
		return nil, fmt.Errorf("%w: computed fare %v is not positive", model.ErrInvalidInput, price)
	}

	if err := s.cardRepo.Deduct(tx, cardNumber, price); err != nil {
		return nil, err
	}

	if err := s.stationRepo.IncSales(tx, stationID); err != nil {
		return nil, err
	}

	ticket := &model.Ticket{
		Origin:      originStation,
		Destination: station.Name,
		Type:        ticketType,
		Price:       price,
		CardNumber:  cardNumber,
	}
	if err := s.ticketRepo.Append(tx, ticket); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return ticket, nil
}

// DeductFare runs a standalone ledger deduction in its own transaction.
func (s *TicketingService) DeductFare(ctx context.Context, cardNumber string, amount float64) error {
	tx, err := s.postgres.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.cardRepo.Deduct(tx, cardNumber, amount); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// FindCard looks up a card and its remaining credit.
func (s *TicketingService) FindCard(ctx context.Context, cardNumber string) (*model.Card, error) {
	return s.cardRepo.Find(s.postgres, cardNumber)
}

// Login authenticates a back-office user.
func (s *TicketingService) Login(ctx context.Context, username, password string) error {
	return s.adminRepo.Login(s.postgres, username, password)
}

// SaveStation creates or updates a station.
func (s *TicketingService) SaveStation(ctx context.Context, station *model.Station) error {
	return s.stationRepo.Upsert(s.postgres, station)
}

// AdjustAllPrices multiplies every station's fares by the factor.
func (s *TicketingService) AdjustAllPrices(ctx context.Context, factor float64) error {
	if err := s.stationRepo.UpdateAllPricesByFactor(s.postgres, factor); err != nil {
		return err
	}
	s.logger.Info("adjusted all station prices", zap.Float64("factor", factor))
	return nil
}

// AddOffer creates a new offer for a station after validating the station
// exists and the discount is within the configured bound.
func (s *TicketingService) AddOffer(ctx context.Context, offer *model.Offer) error {
	if _, err := s.stationRepo.ByID(s.postgres, offer.StationID); err != nil {
		return err
	}
	return s.offerRepo.Add(s.postgres, offer, s.maxDiscountPercent)
}

// DeleteOffer removes an offer by id.
func (s *TicketingService) DeleteOffer(ctx context.Context, id int64) error {
	return s.offerRepo.Delete(s.postgres, id)
}

// ListOffers returns all offers, newest first.
func (s *TicketingService) ListOffers(ctx context.Context) ([]model.Offer, error) {
	return s.offerRepo.List(s.postgres)
}

// RecentTickets returns the newest entries of the sales log.
func (s *TicketingService) RecentTickets(ctx context.Context, limit int) ([]model.Ticket, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.ticketRepo.ListRecent(s.postgres, limit)
}
