package service

import "errors"

// ErrorKind classifies ledger failures for callers that map them to a
// transport status or decide whether a retry with other inputs makes sense.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindInvalidOperation
	KindForbidden
	KindInsufficientFunds
	KindAlreadyReverted
	// KindCorruptState means persisted data broke an integrity rule; it is not
	// a caller mistake.
	KindCorruptState
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindInvalidOperation:
		return "InvalidOperation"
	case KindForbidden:
		return "Forbidden"
	case KindInsufficientFunds:
		return "InsufficientFunds"
	case KindAlreadyReverted:
		return "AlreadyReverted"
	case KindCorruptState:
		return "CorruptState"
	default:
		return "Unknown"
	}
}

// LedgerError is a business rule violation. The unit of work that produced
// it has been rolled back.
type LedgerError struct {
	Kind    ErrorKind
	Message string
}

func (e *LedgerError) Error() string {
	return e.Message
}

var (
	ErrInvalidAmount       = &LedgerError{KindInvalidOperation, "amount must be positive with at most two decimal places"}
	ErrSelfTransfer        = &LedgerError{KindInvalidOperation, "recipient must be different from sender"}
	ErrNotReversible       = &LedgerError{KindInvalidOperation, "only transfer transactions can be reverted"}
	ErrAccountNotFound     = &LedgerError{KindNotFound, "account not found"}
	ErrTransactionNotFound = &LedgerError{KindNotFound, "transaction not found"}
	ErrNotOriginalSender   = &LedgerError{KindForbidden, "only the original sender can revert this transaction"}
	ErrNotParticipant      = &LedgerError{KindForbidden, "transaction does not belong to this account"}
	ErrInsufficientFunds   = &LedgerError{KindInsufficientFunds, "insufficient funds"}
	ErrReversalUnfunded    = &LedgerError{KindInsufficientFunds, "receiver does not have enough balance to fund the reversal"}
	ErrAlreadyReverted     = &LedgerError{KindAlreadyReverted, "transaction has already been reverted"}
	ErrMissingParty        = &LedgerError{KindCorruptState, "transaction references a missing sender or receiver"}
)

// KindOf returns the kind of a ledger error anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Kind, true
	}
	return 0, false
}
