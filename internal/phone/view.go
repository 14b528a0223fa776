// Package phone holds the state of the phone upload page for one pairing
// code.
package phone

import (
	"context"
	"errors"
	"fmt"
	"photo-relay/internal/admission"
)

const (
	MessageInvalid      = "This upload link is invalid or has expired."
	MessageExpired      = "This session has expired"
	MessageUploadFailed = "Failed to upload photo"
)

var ErrNotReady = errors.New("upload page is not ready")

type State int

const (
	StateLoading State = iota
	StateInvalid
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateInvalid:
		return "invalid"
	case StateReady:
		return "ready"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type Admission interface {
	ValidateSession(ctx context.Context, code string) (admission.SessionRef, error)
	SubmitFiles(ctx context.Context, ref admission.SessionRef, files []admission.File) *admission.Report
}

// View is not safe for concurrent use; each page request builds its own.
type View struct {
	admission Admission

	state     State
	ref       admission.SessionRef
	message   string
	sent      int
	lastError string
}

func NewView(a Admission) *View {
	return &View{admission: a, state: StateLoading}
}

// Load validates code once. Unknown and expired codes leave the view Invalid
// with a message and a nil error; any other failure is returned as well.
func (v *View) Load(ctx context.Context, code string) error {
	ref, err := v.admission.ValidateSession(ctx, code)
	switch {
	case err == nil:
		v.state = StateReady
		v.ref = ref
		v.message = ""
		return nil
	case errors.Is(err, admission.ErrSessionExpired):
		v.invalidate(MessageExpired)
		return nil
	case errors.Is(err, admission.ErrSessionNotFound):
		v.invalidate(MessageInvalid)
		return nil
	default:
		v.invalidate(MessageInvalid)
		return err
	}
}

// Resume restores a Ready view for a session validated on an earlier request.
func (v *View) Resume(ref admission.SessionRef, sent int) {
	v.state = StateReady
	v.ref = ref
	v.message = ""
	v.sent = max(sent, 0)
}

func (v *View) invalidate(message string) {
	v.state = StateInvalid
	v.ref = admission.SessionRef{}
	v.message = message
}

// Submit uploads one batch. Only successes count toward Sent, and a failure
// only sets LastError; the page stays Ready for the next batch.
func (v *View) Submit(ctx context.Context, files []admission.File) (*admission.Report, error) {
	if v.state != StateReady {
		return nil, ErrNotReady
	}

	v.lastError = ""
	report := v.admission.SubmitFiles(ctx, v.ref, files)
	v.sent += report.Succeeded
	if report.LastFailure != "" {
		v.lastError = MessageUploadFailed
	}
	return report, nil
}

func (v *View) State() State                  { return v.state }
func (v *View) Message() string               { return v.message }
func (v *View) Sent() int                     { return v.sent }
func (v *View) LastError() string             { return v.lastError }
func (v *View) Session() admission.SessionRef { return v.ref }
