package leave

import (
	"errors"
	"fmt"
	"strings"
)

// Role selects which credential store an account lives in.
type Role string

const (
	RoleStudent Role = "student"
	RoleHOD     Role = "hod"
)

// Decision is the HOD verdict on an application. The zero value means
// the application is still pending.
type Decision string

const (
	DecisionNone     Decision = ""
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

var (
	ErrUnknownRole      = errors.New("unknown role")
	ErrInvalidDecision  = errors.New("invalid decision")
	ErrInvalidIndex     = errors.New("invalid application index")
	ErrMalformedRecord  = errors.New("malformed record")
	ErrFieldDelimiter   = errors.New("field contains record delimiter")
	ErrEmptyCredentials = errors.New("username and password required")
)

// ParseRole maps a form value onto a Role.
func ParseRole(s string) (Role, error) {
	switch Role(strings.TrimSpace(s)) {
	case RoleStudent:
		return RoleStudent, nil
	case RoleHOD:
		return RoleHOD, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// ParseDecision accepts only a concrete verdict; clearing a decision is
// not something a reviewer can do.
func ParseDecision(s string) (Decision, error) {
	switch Decision(strings.TrimSpace(s)) {
	case DecisionApproved:
		return DecisionApproved, nil
	case DecisionRejected:
		return DecisionRejected, nil
	}
	return DecisionNone, fmt.Errorf("%w: %q", ErrInvalidDecision, s)
}

// Application is one leave request. ID is only populated by backends that
// can store a generated identifier; callers address applications by their
// position in List order.
type Application struct {
	ID       string
	Username string
	Reason   string
	FromDate string
	TillDate string
	Year     string
	Filename string
	Decision Decision
}

// HasAttachment reports whether a document was uploaded with the request.
func (a Application) HasAttachment() bool { return a.Filename != "" }

// Pending reports whether no decision has been recorded yet.
func (a Application) Pending() bool { return a.Decision == DecisionNone }
