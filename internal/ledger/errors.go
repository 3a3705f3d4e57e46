package ledger

import (
	"errors"
	"fmt"
)

// ErrWalletHasTransactions is returned when deleting a wallet that
// transactions still point at.
var ErrWalletHasTransactions = errors.New("wallet has transactions")

// ValidationError names the input field that failed a precondition. No
// write has happened when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
