package domain

// Role distinguishes the three kinds of account in the system.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleTranslator Role = "translator"
	RoleAdmin      Role = "admin"
)

// TranslatorType is the translator sub-type matched against a job's
// payment category.
type TranslatorType string

const (
	TranslatorProfessional TranslatorType = "professional"
	TranslatorRWS          TranslatorType = "rwstranslator"
	TranslatorVolunteer    TranslatorType = "volunteer"
)

// TranslatorTypeForJob maps a job type to the translator sub-type that
// may serve it. Unknown job types fall back to volunteer.
func TranslatorTypeForJob(jt JobType) TranslatorType {
	switch jt {
	case JobTypePaid:
		return TranslatorProfessional
	case JobTypeRWS:
		return TranslatorRWS
	case JobTypeUnpaid:
		return TranslatorVolunteer
	default:
		return TranslatorVolunteer
	}
}

// JobTypeForTranslator is the inverse mapping, used when listing the
// pending jobs a translator may take. Unmapped sub-types fall back to
// unpaid.
func JobTypeForTranslator(tt TranslatorType) JobType {
	switch tt {
	case TranslatorProfessional:
		return JobTypePaid
	case TranslatorRWS:
		return JobTypeRWS
	case TranslatorVolunteer:
		return JobTypeUnpaid
	default:
		return JobTypeUnpaid
	}
}

// TranslatorLevel is a translator's qualification tier.
type TranslatorLevel string

const (
	LevelCertified       TranslatorLevel = "Certified"
	LevelCertifiedLaw    TranslatorLevel = "Certified with specialisation in law"
	LevelCertifiedHealth TranslatorLevel = "Certified with specialisation in health care"
	LevelLayman          TranslatorLevel = "Layman"
	LevelReadCourses     TranslatorLevel = "Read Translation courses"
)

// AllTranslatorLevels lists every qualification tier, used when a job
// carries no certification requirement.
func AllTranslatorLevels() []TranslatorLevel {
	return []TranslatorLevel{
		LevelCertified,
		LevelCertifiedLaw,
		LevelCertifiedHealth,
		LevelLayman,
		LevelReadCourses,
	}
}

// User is a customer, translator or admin account. Translator-specific
// fields are zero for customers and vice versa.
type User struct {
	ID     string `db:"user_id"`
	Role   Role   `db:"role"`
	Name   string `db:"name"`
	Email  string `db:"email"`
	Mobile string `db:"mobile"`
	Gender string `db:"gender"`
	City   string `db:"city"`

	// customer fields
	ConsumerType string `db:"consumer_type"`

	// translator fields
	TranslatorType  TranslatorType  `db:"translator_type"`
	TranslatorLevel TranslatorLevel `db:"translator_level"`
	LanguageIDs     []int64         `db:"-"`

	// push preferences
	PushEnabled         bool `db:"push_enabled"`
	NightPushOptOut     bool `db:"night_push_opt_out"`
	EmergencyPushOptOut bool `db:"emergency_push_opt_out"`
}

// CanCreateBooking reports whether this account may create bookings.
func (u *User) CanCreateBooking() bool { return u.Role == RoleCustomer }

// CanAccept reports whether this account may accept a job.
func (u *User) CanAccept() bool { return u.Role == RoleTranslator }

// CanCancel reports whether this account may cancel the given job.
// Admins may cancel anything; customers only their own bookings;
// translators only jobs they are involved with (checked against the
// active assignment by the caller).
func (u *User) CanCancel(job *Job) bool {
	switch u.Role {
	case RoleAdmin:
		return true
	case RoleCustomer:
		return job.CustomerID == u.ID
	case RoleTranslator:
		return true
	}
	return false
}

// BestEmail returns the booking's override email when set, otherwise
// the customer's account email.
func (u *User) BestEmail(job *Job) string {
	if job != nil && job.UserEmail != "" {
		return job.UserEmail
	}
	return u.Email
}
