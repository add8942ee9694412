package dto

type CreateBookingRequest struct {
	UserID         string   `json:"user_id" binding:"required"`
	FromLanguageID int64    `json:"from_language_id"`
	Immediate      bool     `json:"immediate"`
	Due            string   `json:"due"` // RFC 3339, empty for immediate bookings
	Duration       int      `json:"duration"`
	PhoneBooking   bool     `json:"customer_phone_type"`
	OnSiteBooking  bool     `json:"customer_physical_type"`
	JobFor         []string `json:"job_for"`
	Town           string   `json:"town"`
	Address        string   `json:"address"`
	Instructions   string   `json:"instructions"`
	UserEmail      string   `json:"user_email"`
	Reference      string   `json:"reference"`
}

type UpdateBookingRequest struct {
	AdminID         string `json:"admin_id" binding:"required"`
	Status          string `json:"status"`
	Due             string `json:"due"` // RFC 3339
	FromLanguageID  int64  `json:"from_language_id"`
	TranslatorID    string `json:"translator_id"`
	TranslatorEmail string `json:"translator_email"`
	AdminComments   string `json:"admin_comments"`
	Reference       string `json:"reference"`
	SessionTime     string `json:"session_time"`
}

type ActorRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type ListBookingsRequest struct {
	UserID   string `form:"user_id"`
	Status   string `form:"status"`
	JobType  string `form:"job_type"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type ListBookingsResponse struct {
	Bookings   []BookingDTO `json:"bookings"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

type BookingDTO struct {
	JobID          string `json:"job_id"`
	UserID         string `json:"user_id"`
	Status         string `json:"status"`
	JobType        string `json:"job_type"`
	Immediate      bool   `json:"immediate"`
	FromLanguageID int64  `json:"from_language_id"`
	Gender         string `json:"gender,omitempty"`
	Certified      string `json:"certified,omitempty"`
	Due            string `json:"due"`
	Duration       int    `json:"duration"`
	PhoneBooking   bool   `json:"customer_phone_type"`
	OnSiteBooking  bool   `json:"customer_physical_type"`
	Town           string `json:"town,omitempty"`
	Reference      string `json:"reference,omitempty"`
	SessionTime    string `json:"session_time,omitempty"`
	WillExpireAt   string `json:"will_expire_at"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}
