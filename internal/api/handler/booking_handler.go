package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/interpretly/booking-be/internal/api/dto"
	"github.com/interpretly/booking-be/internal/booking"
	"github.com/interpretly/booking-be/internal/booking/domain"
	"github.com/interpretly/booking-be/internal/booking/storage"
	"github.com/interpretly/booking-be/internal/booking/transition"
)

// CreateBooking handles POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var due time.Time
	if req.Due != "" {
		parsed, err := time.Parse(time.RFC3339, req.Due)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "due must be RFC 3339"})
			return
		}
		due = parsed
	}

	result, err := h.service.CreateJob(c.Request.Context(), req.UserID, &booking.CreateJobRequest{
		FromLanguageID: req.FromLanguageID,
		Immediate:      req.Immediate,
		Due:            due,
		Duration:       req.Duration,
		PhoneBooking:   req.PhoneBooking,
		OnSiteBooking:  req.OnSiteBooking,
		JobFor:         req.JobFor,
		Town:           req.Town,
		Address:        req.Address,
		Instructions:   req.Instructions,
		UserEmail:      req.UserEmail,
		Reference:      req.Reference,
	})
	h.respond(c, result, err)
}

// GetBooking handles GET /api/v1/bookings/:job_id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	job, err := h.storage.GetJob(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingDTO(job))
}

// ListBookings handles GET /api/v1/bookings
func (h *BookingHandler) ListBookings(c *gin.Context) {
	var req dto.ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeBookingCursor(req.Cursor)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cursor"})
		return
	}

	jobs, err := h.storage.ListJobs(c.Request.Context(), storage.JobFilter{
		CustomerID: req.UserID,
		Status:     req.Status,
		JobType:    req.JobType,
		PageSize:   req.PageSize,
		Cursor:     cursor,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	bookings := make([]dto.BookingDTO, len(jobs))
	for i := range jobs {
		bookings[i] = bookingDTO(&jobs[i])
	}

	var nextCursor string
	if hasMore {
		last := jobs[len(jobs)-1]
		nextCursor, err = EncodeBookingCursor(&storage.JobCursor{
			CreatedAt: last.CreatedAt,
			JobID:     last.ID,
		})
		if err != nil {
			h.respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, dto.ListBookingsResponse{
		Bookings:   bookings,
		NextCursor: nextCursor,
	})
}

// AcceptBooking handles POST /api/v1/bookings/:job_id/accept
func (h *BookingHandler) AcceptBooking(c *gin.Context) {
	var req dto.ActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.service.AcceptJob(c.Request.Context(), c.Param("job_id"), req.UserID)
	h.respond(c, result, err)
}

// CancelBooking handles POST /api/v1/bookings/:job_id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	var req dto.ActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.service.CancelJob(c.Request.Context(), c.Param("job_id"), req.UserID)
	h.respond(c, result, err)
}

// EndBooking handles POST /api/v1/bookings/:job_id/end
func (h *BookingHandler) EndBooking(c *gin.Context) {
	var req dto.ActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.service.EndJob(c.Request.Context(), c.Param("job_id"), req.UserID)
	h.respond(c, result, err)
}

// CustomerNoShow handles POST /api/v1/bookings/:job_id/customer-no-show
func (h *BookingHandler) CustomerNoShow(c *gin.Context) {
	var req dto.ActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.service.CustomerNoShow(c.Request.Context(), c.Param("job_id"), req.UserID)
	h.respond(c, result, err)
}

// ReopenBooking handles POST /api/v1/bookings/:job_id/reopen
func (h *BookingHandler) ReopenBooking(c *gin.Context) {
	var req dto.ActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.service.ReopenJob(c.Request.Context(), c.Param("job_id"), req.UserID)
	h.respond(c, result, err)
}

// UpdateBooking handles PUT /api/v1/bookings/:job_id
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	var req dto.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	update := &transition.UpdateRequest{
		Status:          domain.Status(req.Status),
		TranslatorID:    req.TranslatorID,
		TranslatorEmail: req.TranslatorEmail,
		AdminComments:   req.AdminComments,
		Reference:       req.Reference,
		SessionTime:     req.SessionTime,
	}
	if req.Due != "" {
		due, err := time.Parse(time.RFC3339, req.Due)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "due must be RFC 3339"})
			return
		}
		update.Due = &due
	}
	if req.FromLanguageID != 0 {
		update.FromLanguageID = &req.FromLanguageID
	}

	result, err := h.service.UpdateJob(c.Request.Context(), c.Param("job_id"), req.AdminID, update)
	h.respond(c, result, err)
}

// PotentialBookings handles GET /api/v1/translators/:user_id/potential-bookings
func (h *BookingHandler) PotentialBookings(c *gin.Context) {
	result, err := h.service.GetPotentialJobs(c.Request.Context(), c.Param("user_id"))
	h.respond(c, result, err)
}

// ResendNotifications handles POST /api/v1/bookings/:job_id/resend-notifications
func (h *BookingHandler) ResendNotifications(c *gin.Context) {
	result, err := h.service.ResendNotifications(c.Request.Context(), c.Param("job_id"))
	h.respond(c, result, err)
}

// ResendSMSNotifications handles POST /api/v1/bookings/:job_id/resend-sms
func (h *BookingHandler) ResendSMSNotifications(c *gin.Context) {
	result, err := h.service.ResendSMSNotifications(c.Request.Context(), c.Param("job_id"))
	h.respond(c, result, err)
}

// respond maps a service result to HTTP. Business-rule failures stay
// 200 with a fail status in the body; hard errors become 404 or 500.
func (h *BookingHandler) respond(c *gin.Context, result *booking.Result, err error) {
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BookingHandler) respondError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrJobNotFound) || errors.Is(err, domain.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	h.logger.Error("request failed", slog.String("error", err.Error()))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func bookingDTO(job *domain.Job) dto.BookingDTO {
	return dto.BookingDTO{
		JobID:          job.ID,
		UserID:         job.CustomerID,
		Status:         string(job.Status),
		JobType:        string(job.JobType),
		Immediate:      job.Immediate,
		FromLanguageID: job.FromLanguageID,
		Gender:         job.Gender,
		Certified:      string(job.Certified),
		Due:            job.Due.Format(time.RFC3339),
		Duration:       job.Duration,
		PhoneBooking:   job.PhoneBooking,
		OnSiteBooking:  job.OnSiteBooking,
		Town:           job.Town,
		Reference:      job.Reference,
		SessionTime:    job.SessionTime,
		WillExpireAt:   job.WillExpireAt.Format(time.RFC3339),
		CreatedAt:      job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      job.UpdatedAt.Format(time.RFC3339),
	}
}
