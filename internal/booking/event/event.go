// Package event defines the messages exchanged between the API service
// and the notification worker over the queue.
package event

import "encoding/json"

const (
	TypeJobCreated = "job_created"
	TypePushResend = "push_resend"
	TypeSMSResend  = "sms_resend"
)

// Event is the queue envelope. JobID identifies the booking the worker
// should fan notifications out for; ExcludeTranslatorID optionally
// removes one translator from the audience (e.g. the one who just
// cancelled).
type Event struct {
	Type                string `json:"type"`
	JobID               string `json:"job_id"`
	ExcludeTranslatorID string `json:"exclude_translator_id,omitempty"`
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

func Unmarshal(body []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(body, &e)
	return e, err
}
