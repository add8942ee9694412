package notify

import (
	"fmt"

	"github.com/interpretly/booking-be/internal/booking/domain"
)

// Email template identifiers. Template bodies live with the mail
// provider; the core only names them and supplies context data.
const (
	TmplJobCreated            = "job-created"
	TmplJobAccepted           = "job-accepted"
	TmplSessionEnded          = "session-ended"
	TmplStatusChangedCustomer = "status-changed-from-pending-or-assigned-customer"
	TmplJobCancelTranslator   = "job-cancel-translator"
	TmplChangedTranslatorCust = "job-changed-translator-customer"
	TmplChangedTranslatorOld  = "job-changed-translator-old-translator"
	TmplChangedTranslatorNew  = "job-changed-translator-new-translator"
	TmplChangedDate           = "job-changed-date"
	TmplChangedLang           = "job-changed-lang"
	TmplReopenedCustomer      = "job-change-status-to-customer"
)

// Customer-facing message strings are Swedish, matching the locale of
// the booking platform.

func SubjectJobReceived(jobID string) string {
	return "Vi har mottagit er tolkbokning. Bokningsnr: #" + jobID
}

func SubjectAccepted(jobID string) string {
	return fmt.Sprintf("Bekräftelse - tolk har accepterat er bokning (bokning # %s)", jobID)
}

func SubjectSessionEnded(jobID string) string {
	return "Information om avslutad tolkning för bokningsnummer # " + jobID
}

func SubjectCancelled(jobID string) string {
	return "Avbokning av bokningsnr: # " + jobID
}

func SubjectChangedTranslator(jobID string) string {
	return "Meddelande om tilldelning av tolkuppdrag för uppdrag # " + jobID
}

func SubjectChangedBooking(jobID string) string {
	return "Meddelande om ändring av tolkbokning för uppdrag # " + jobID
}

func SubjectReopened(language, jobID string) string {
	return fmt.Sprintf("Vi har nu återöppnat er bokning av %stolk för bokning # %s", language, jobID)
}

// NewJobPushText is the fanout message offered to eligible translators.
func NewJobPushText(language string, duration int, due string, immediate bool) map[string]string {
	if immediate {
		return map[string]string{
			"en": fmt.Sprintf("Ny akutbokning för %stolk %dmin", language, duration),
		}
	}
	return map[string]string{
		"en": fmt.Sprintf("Ny bokning för %stolk %dmin %s", language, duration, due),
	}
}

// AcceptedPushText tells the customer a translator took the booking.
func AcceptedPushText(language string, duration int, due string) map[string]string {
	return map[string]string{
		"en": fmt.Sprintf("Din bokning för %s translators, %dmin, %s har accepterats av en tolk. Vänligen öppna appen för att se detaljer om tolken.", language, duration, due),
	}
}

// CancelledByCustomerPushText tells the translator the customer
// withdrew the booking.
func CancelledByCustomerPushText(language string, duration int, due string) map[string]string {
	return map[string]string{
		"en": fmt.Sprintf("Kunden har avbokat bokningen för %stolk, %dmin, %s. Var god och kolla dina tidigare bokningar för detaljer.", language, duration, due),
	}
}

// CancelledByTranslatorPushText tells the customer their translator
// withdrew and a replacement is being sought.
func CancelledByTranslatorPushText(language string, duration int, due string) map[string]string {
	return map[string]string{
		"en": fmt.Sprintf("Er %stolk, %dmin %s, har avbokat tolkningen. Vi letar nu efter en ny tolk som kan ersätta denne. Tack.", language, duration, due),
	}
}

// ExpiredPushText tells the customer no translator accepted in time.
func ExpiredPushText(language string, duration int, due string) map[string]string {
	return map[string]string{
		"en": fmt.Sprintf("Tyvärr har ingen tolk accepterat er bokning: (%s, %dmin, %s). Vänligen pröva boka om tiden.", language, duration, due),
	}
}

// SessionStartRemindText reminds either party shortly before the
// session starts, with an on-site or phone variant.
func SessionStartRemindText(language, town, dueDate, dueTime string, duration int, onSite bool) map[string]string {
	place := "telefon"
	if onSite {
		place = "på plats i " + town
	}
	return map[string]string{
		"en": fmt.Sprintf("Detta är en påminnelse om att du har en %stolkning (%s) kl %s på %s som vara i %d min. Lycka till och kom ihåg att ge feedback efter utförd tolkning!", language, place, dueTime, dueDate, duration),
	}
}

// PhoneJobSMS is the fanout SMS for phone bookings.
func PhoneJobSMS(date, clock string, duration, jobID string) string {
	return fmt.Sprintf("Ny telefontolkning %s kl %s som varar i %s. Boka via appen, bokningsnr: %s", date, clock, duration, jobID)
}

// PhysicalJobSMS is the fanout SMS for on-site bookings.
func PhysicalJobSMS(date, clock, town string, duration, jobID string) string {
	return fmt.Sprintf("Ny platstolkning %s kl %s i %s som varar i %s. Boka via appen, bokningsnr: %s", date, clock, town, duration, jobID)
}

// AcceptedConfirmation is the in-app confirmation returned to a
// translator who just won a booking.
func AcceptedConfirmation(language string, duration int, due string) string {
	return fmt.Sprintf("Du har nu accepterat och fått bokningen för %stolk %dmin %s", language, duration, due)
}

// AlreadyAcceptedMessage is the rejection returned when another
// translator won the pending->assigned race first.
func AlreadyAcceptedMessage(language string, duration int, due string) string {
	return fmt.Sprintf("Denna %stolkning %dmin %s har redan accepterats av annan tolk. Du har inte fått denna tolkning", language, duration, due)
}

// DoubleBookedMessage is the rejection returned when the translator
// already holds an overlapping booking.
func DoubleBookedMessage(due string) string {
	return fmt.Sprintf("Du har redan en bokning den tiden %s. Du har inte fått denna tolkning", due)
}

// CancelWindowMessage is the rejection returned when a translator
// tries to cancel inside the 24 hour window.
func CancelWindowMessage() string {
	return "Du kan inte avboka en bokning som sker inom 24 timmar. Vänligen ring kundtjänst och gör din avbokning over telefon. Tack!"
}

// MissingFieldMessage is the validation failure for create requests.
func MissingFieldMessage() string {
	return "Du måste fylla in alla fält"
}

// PushData builds the structured push payload for a job, including the
// locale display labels for its requirements.
func PushData(job *domain.Job, customerTown, customerType string) map[string]any {
	dueDate, dueTime := job.DueDateTime()
	immediate := "no"
	if job.Immediate {
		immediate = "yes"
	}
	return map[string]any{
		"job_type":               string(job.JobType),
		"from_language_id":       job.FromLanguageID,
		"immediate":              immediate,
		"duration":               job.Duration,
		"due_date":               dueDate,
		"due_time":               dueTime,
		"job_for":                job.JobForLabels(),
		"customer_phone_type":    yesNo(job.PhoneBooking),
		"customer_physical_type": yesNo(job.OnSiteBooking),
		"customer_town":          customerTown,
		"customer_type":          customerType,
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
