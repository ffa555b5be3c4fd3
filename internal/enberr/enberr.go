// Package enberr defines the closed error taxonomy shared by every eNodeB
// component. Every public operation on ConfigDB, the user registry, the
// scheduler, and the protocol layers returns one of these kinds wrapped in
// an *Error rather than an ad-hoc error string.
package enberr

import "fmt"

// Kind is a closed enumeration of the ways an eNodeB operation can fail.
type Kind int

const (
	None Kind = iota
	CantStart
	CantStop
	AlreadyStarted
	AlreadyStopped
	InvalidParam
	OutOfBounds
	VariableNotDynamic
	InvalidCommand
	Exception
	MasterClockFail
	NoFreeCRnti
	CRntiNotFound
	UserNotFound
	UserAlreadyExists
	BadAlloc
	CantSchedule
	RbAlreadySetup
	RbNotSetup
	QueueFull
	QueueClosed
	NotImplemented
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case CantStart:
		return "cant_start"
	case CantStop:
		return "cant_stop"
	case AlreadyStarted:
		return "already_started"
	case AlreadyStopped:
		return "already_stopped"
	case InvalidParam:
		return "invalid_param"
	case OutOfBounds:
		return "out_of_bounds"
	case VariableNotDynamic:
		return "variable_not_dynamic"
	case InvalidCommand:
		return "invalid_command"
	case Exception:
		return "exception"
	case MasterClockFail:
		return "master_clock_fail"
	case NoFreeCRnti:
		return "no_free_c_rnti"
	case CRntiNotFound:
		return "c_rnti_not_found"
	case UserNotFound:
		return "user_not_found"
	case UserAlreadyExists:
		return "user_already_exists"
	case BadAlloc:
		return "bad_alloc"
	case CantSchedule:
		return "cant_schedule"
	case RbAlreadySetup:
		return "rb_already_setup"
	case RbNotSetup:
		return "rb_not_setup"
	case QueueFull:
		return "queue_full"
	case QueueClosed:
		return "queue_closed"
	case NotImplemented:
		return "not_implemented"
	default:
		return "unknown"
	}
}

// Error wraps a Kind with the operation-specific context that produced it.
type Error struct {
	Kind    Kind
	Op      string
	Context string
	Err     error
}

func (e *Error) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Op, e.Kind, e.Context)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error for op/kind with optional context.
func New(op string, kind Kind, context string) *Error {
	return &Error{Op: op, Kind: kind, Context: context}
}

// Wrap builds an *Error that also carries an underlying cause.
func Wrap(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Is reports whether err is an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
