package handler

import (
	"context"
	"log/slog"

	"github.com/interpretly/booking-be/internal/booking"
	"github.com/interpretly/booking-be/internal/booking/storage"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger  *slog.Logger
	Service *booking.Service
	Storage *storage.Storage

	// Health reports backing-store liveness for the health endpoint
	Health func(ctx context.Context) error
}

// BookingHandler handles booking-related HTTP requests
type BookingHandler struct {
	logger  *slog.Logger
	service *booking.Service
	storage *storage.Storage
}

// NewBookingHandler creates a new BookingHandler instance
func NewBookingHandler(deps *Dependencies) *BookingHandler {
	return &BookingHandler{
		logger:  deps.Logger,
		service: deps.Service,
		storage: deps.Storage,
	}
}
