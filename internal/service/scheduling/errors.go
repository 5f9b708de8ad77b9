package scheduling

import "errors"

type Kind string

const (
	KindInvalidInput                Kind = "invalid_input"
	KindInvalidRange                Kind = "invalid_range"
	KindPastDate                    Kind = "past_date"
	KindDuplicateException          Kind = "duplicate_exception"
	KindSlotUnavailable             Kind = "slot_unavailable"
	KindExistingPendingReservation  Kind = "existing_pending_reservation"
	KindIdempotencyConflict         Kind = "idempotency_conflict"
	KindNotFound                    Kind = "not_found"
	KindInvalidTransition           Kind = "invalid_transition"
	KindAlreadyFinalized            Kind = "already_finalized"
	KindCancellationWindowViolation Kind = "cancellation_window_violation"
	KindLeadTimeViolation           Kind = "lead_time_violation"
)

type Category string

const (
	CategoryValidation Category = "validation"
	CategoryConflict   Category = "conflict"
	CategoryNotFound   Category = "not_found"
	CategoryState      Category = "state"
)

func (k Kind) Category() Category {
	switch k {
	case KindInvalidInput, KindInvalidRange, KindPastDate:
		return CategoryValidation
	case KindDuplicateException, KindSlotUnavailable, KindExistingPendingReservation, KindIdempotencyConflict:
		return CategoryConflict
	case KindNotFound:
		return CategoryNotFound
	default:
		return CategoryState
	}
}

// Error is a business failure. Two errors match under errors.Is when their kinds are equal,
// so callers compare against the exported sentinels regardless of the message.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string {
	if e.msg == "" {
		return string(e.Kind)
	}
	return e.msg
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func (e *Error) Category() Category {
	return e.Kind.Category()
}

func newError(kind Kind, msg string) error {
	return &Error{Kind: kind, msg: msg}
}

func invalidInput(msg string) error {
	return newError(KindInvalidInput, msg)
}

var (
	ErrInvalidInput                = &Error{Kind: KindInvalidInput, msg: "invalid input"}
	ErrInvalidRange                = &Error{Kind: KindInvalidRange, msg: "start must be before end"}
	ErrPastDate                    = &Error{Kind: KindPastDate, msg: "date is in the past"}
	ErrDuplicateException          = &Error{Kind: KindDuplicateException, msg: "an exception already exists for that date"}
	ErrSlotUnavailable             = &Error{Kind: KindSlotUnavailable, msg: "slot is not available"}
	ErrExistingPendingReservation  = &Error{Kind: KindExistingPendingReservation, msg: "client already has a pending reservation with this provider"}
	ErrIdempotencyConflict         = &Error{Kind: KindIdempotencyConflict, msg: "idempotency key reused with a different request"}
	ErrNotFound                    = &Error{Kind: KindNotFound, msg: "not found"}
	ErrInvalidTransition           = &Error{Kind: KindInvalidTransition, msg: "transition not allowed from current status"}
	ErrAlreadyFinalized            = &Error{Kind: KindAlreadyFinalized, msg: "reservation is already finalized"}
	ErrCancellationWindowViolation = &Error{Kind: KindCancellationWindowViolation, msg: "too late to cancel"}
	ErrLeadTimeViolation           = &Error{Kind: KindLeadTimeViolation, msg: "session starts too soon"}
)

// CategoryOf reports the category of a business error. Storage failures return false.
func CategoryOf(err error) (Category, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Category(), true
}
