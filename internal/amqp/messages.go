package amqp

import (
	"encoding/json"
	"time"
)

const (
	// EventCashFlowRecorded announces a newly persisted cash-flow record.
	EventCashFlowRecorded = "cashflow.recorded"
	// EventRepaymentRecorded announces a created or updated repayment;
	// the worker re-derives the loan status from it.
	EventRepaymentRecorded = "repayment.recorded"
)

// Event is a lightweight notification. Consumers fetch the full row
// from storage by ID, so the payload carries only identity.
type Event struct {
	Type       string    `json:"type"`
	ID         int64     `json:"id"`
	BusinessID int64     `json:"business_id,omitempty"`
	LoanID     int64     `json:"loan_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewCashFlowRecorded builds a cashflow.recorded event.
func NewCashFlowRecorded(id, businessID int64) *Event {
	return &Event{
		Type:       EventCashFlowRecorded,
		ID:         id,
		BusinessID: businessID,
		Timestamp:  time.Now(),
	}
}

// NewRepaymentRecorded builds a repayment.recorded event.
func NewRepaymentRecorded(id, loanID int64) *Event {
	return &Event{
		Type:      EventRepaymentRecorded,
		ID:        id,
		LoanID:    loanID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes an event from JSON bytes.
func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
