package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending               Status = "pending"
	StatusAssigned              Status = "assigned"
	StatusStarted               Status = "started"
	StatusCompleted             Status = "completed"
	StatusWithdrawBefore24      Status = "withdrawbefore24"
	StatusWithdrawAfter24       Status = "withdrawafter24"
	StatusTimedout              Status = "timedout"
	StatusNotCarriedOutCustomer Status = "not_carried_out_customer"
)

// Terminal reports whether a status has no outgoing transitions.
// timedout is not terminal: a reopen takes it back to pending.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusWithdrawBefore24, StatusWithdrawAfter24, StatusNotCarriedOutCustomer:
		return true
	}
	return false
}

// JobType is the payment category of a booking, derived from the
// customer's consumer type at creation.
type JobType string

const (
	JobTypePaid   JobType = "paid"
	JobTypeRWS    JobType = "rws"
	JobTypeUnpaid JobType = "unpaid"
)

// JobTypeForConsumer maps a customer consumer type to the job type of
// bookings they create. Unknown consumer types fall back to unpaid.
func JobTypeForConsumer(consumerType string) JobType {
	switch consumerType {
	case "rwsconsumer":
		return JobTypeRWS
	case "ngo":
		return JobTypeUnpaid
	case "paid":
		return JobTypePaid
	default:
		return JobTypeUnpaid
	}
}

// Certified is the certification requirement of a booking.
// The n_ variants mean "certified preferred, layman acceptable".
type Certified string

const (
	CertifiedNone    Certified = ""
	CertifiedNormal  Certified = "normal"
	CertifiedYes     Certified = "yes"
	CertifiedLaw     Certified = "law"
	CertifiedHealth  Certified = "health"
	CertifiedNLaw    Certified = "n_law"
	CertifiedNHealth Certified = "n_health"
	CertifiedBoth    Certified = "both"
)

// ImmediateDueOffset is how far in the future an immediate booking's
// due time is set at creation.
const ImmediateDueOffset = 5 * time.Minute

// Job is a single interpreting booking.
type Job struct {
	ID             string     `db:"job_id"`
	CustomerID     string     `db:"user_id"`
	Status         Status     `db:"status"`
	JobType        JobType    `db:"job_type"`
	Immediate      bool       `db:"immediate"`
	FromLanguageID int64      `db:"from_language_id"`
	Gender         string     `db:"gender"` // "", "male" or "female"
	Certified      Certified  `db:"certified"`
	Due            time.Time  `db:"due"`
	Duration       int        `db:"duration"` // minutes
	PhoneBooking   bool       `db:"customer_phone_type"`
	OnSiteBooking  bool       `db:"customer_physical_type"`
	Town           string     `db:"town"`
	Address        string     `db:"address"`
	Instructions   string     `db:"instructions"`
	UserEmail      string     `db:"user_email"` // overrides the customer's account email when set
	Reference      string     `db:"reference"`
	AdminComments  string     `db:"admin_comments"`
	SessionTime    string     `db:"session_time"` // "H:M:S", set on completion
	WillExpireAt   time.Time  `db:"will_expire_at"`
	EndAt          *time.Time `db:"end_at"`
	WithdrawAt     *time.Time `db:"withdraw_at"`
	EmailSent      bool       `db:"emailsent"`
	Cust16HourSent bool       `db:"cust_16_hour_email"`
	Cust48HourSent bool       `db:"cust_48_hour_email"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// PhysicalOnly reports whether the booking requires on-site presence
// with no phone fallback. Such jobs are restricted to translators in
// the customer's town.
func (j *Job) PhysicalOnly() bool {
	return j.OnSiteBooking && !j.PhoneBooking
}

// DueDateTime splits the due timestamp into the date and time strings
// used by notification payloads.
func (j *Job) DueDateTime() (string, string) {
	return j.Due.Format("2006-01-02"), j.Due.Format("15:04:05")
}

// JobForLabels renders the gender and certification requirements as the
// locale display labels shown to translators.
func (j *Job) JobForLabels() []string {
	var labels []string
	switch j.Gender {
	case "male":
		labels = append(labels, "Man")
	case "female":
		labels = append(labels, "Kvinna")
	}
	switch j.Certified {
	case CertifiedNone:
	case CertifiedBoth:
		labels = append(labels, "Godkänd tolk", "Auktoriserad")
	case CertifiedYes:
		labels = append(labels, "Auktoriserad")
	case CertifiedNHealth:
		labels = append(labels, "Sjukvårdstolk")
	case CertifiedLaw, CertifiedNLaw:
		labels = append(labels, "Rättstolk")
	default:
		labels = append(labels, string(j.Certified))
	}
	return labels
}

// CertifiedFromJobFor derives the stored certification requirement from
// the job_for selection of a create request. Combinations with "normal"
// collapse into the dual-acceptance variants.
func CertifiedFromJobFor(jobFor []string) Certified {
	has := func(want string) bool {
		for _, v := range jobFor {
			if v == want {
				return true
			}
		}
		return false
	}

	switch {
	case has("normal") && has("certified"):
		return CertifiedBoth
	case has("normal") && has("certified_in_law"):
		return CertifiedNLaw
	case has("normal") && has("certified_in_helth"):
		return CertifiedNHealth
	case has("certified"):
		return CertifiedYes
	case has("certified_in_law"):
		return CertifiedLaw
	case has("certified_in_helth"):
		return CertifiedHealth
	case has("normal"):
		return CertifiedNormal
	}
	return CertifiedNone
}

// GenderFromJobFor derives the gender requirement, if any, from the
// job_for selection of a create request.
func GenderFromJobFor(jobFor []string) string {
	for _, v := range jobFor {
		if v == "male" || v == "female" {
			return v
		}
	}
	return ""
}

// SessionInterval formats an elapsed session duration as the H:M:S
// string stored on completed jobs.
func SessionInterval(elapsed time.Duration) string {
	if elapsed < 0 {
		elapsed = -elapsed
	}
	h := int(elapsed.Hours())
	m := int(elapsed.Minutes()) % 60
	s := int(elapsed.Seconds()) % 60
	return fmt.Sprintf("%d:%d:%d", h, m, s)
}

// SessionTimeLabel renders a stored H:M:S session time as the
// "<h> tim <m> min" label used in session-ended emails.
func SessionTimeLabel(sessionTime string) string {
	parts := strings.Split(sessionTime, ":")
	if len(parts) < 2 {
		return sessionTime
	}
	return parts[0] + " tim " + parts[1] + " min"
}

// DurationLabel renders a booking duration in minutes as a compact
// hours/minutes string for SMS bodies.
func DurationLabel(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dmin", minutes)
	}
	if minutes == 60 {
		return "1h"
	}
	return fmt.Sprintf("%02dh %02dmin", minutes/60, minutes%60)
}
