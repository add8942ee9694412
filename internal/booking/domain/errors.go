package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job cannot be found in the database
	ErrJobNotFound = errors.New("job not found")

	// ErrUserNotFound is returned when a user cannot be found in the database
	ErrUserNotFound = errors.New("user not found")

	// ErrJobTaken is returned when an accept loses the pending->assigned race
	ErrJobTaken = errors.New("job already accepted by another translator")

	// ErrTranslatorBooked is returned when a translator already holds an
	// overlapping assignment at the job's due time
	ErrTranslatorBooked = errors.New("translator already booked at that time")

	// ErrNoActiveAssignment is returned when an operation needs the job's
	// active assignment and none exists
	ErrNoActiveAssignment = errors.New("job has no active assignment")
)
