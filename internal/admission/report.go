package admission

import (
	"photo-relay/internal/models"

	"github.com/google/uuid"
)

type FailureReason string

const (
	FailureStore  FailureReason = "store"
	FailureRecord FailureReason = "record"
	FailureType   FailureReason = "type"
)

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

type Outcome struct {
	Index    int           `json:"index"`
	FileName string        `json:"file_name"`
	Status   Status        `json:"status"`
	Reason   FailureReason `json:"reason,omitempty"`
	PhotoID  *uuid.UUID    `json:"photo_id,omitempty"`
	Photo    *models.Photo `json:"-"`
	Err      error         `json:"-"`
}

func (o Outcome) Succeeded() bool {
	return o.Status == StatusSucceeded
}

func (o Outcome) fail(reason FailureReason, err error) Outcome {
	o.Status = StatusFailed
	o.Reason = reason
	o.Err = err
	return o
}

// Report lists one outcome per submitted file, in submission order.
type Report struct {
	Outcomes    []Outcome     `json:"outcomes"`
	Succeeded   int           `json:"succeeded"`
	LastFailure FailureReason `json:"last_failure,omitempty"`
	LastErr     error         `json:"-"`
}

func (r *Report) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	if o.Succeeded() {
		r.Succeeded++
		return
	}
	r.LastFailure = o.Reason
	r.LastErr = o.Err
}

func (r *Report) Failed() int {
	return len(r.Outcomes) - r.Succeeded
}
