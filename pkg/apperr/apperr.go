// Package apperr defines the error taxonomy shared by the domain packages and
// the HTTP gateway.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindUnauthenticated         Kind = "UNAUTHENTICATED"
	KindForbidden               Kind = "FORBIDDEN"
	KindValidation              Kind = "VALIDATION"
	KindNotFound                Kind = "NOT_FOUND"
	KindEmptyCart               Kind = "EMPTY_CART"
	KindNoAddressAvailable      Kind = "NO_ADDRESS_AVAILABLE"
	KindOrderAlreadyFinalized   Kind = "ORDER_ALREADY_FINALIZED"
	KindOrderNotCancellable     Kind = "ORDER_NOT_CANCELLABLE"
	KindInvoiceGenerationFailed Kind = "INVOICE_GENERATION_FAILED"
	KindTransactionConflict     Kind = "TRANSACTION_CONFLICT"
	KindInternal                Kind = "INTERNAL"
)

// User-facing messages.
const (
	MsgProductNotFound    = "Product not found"
	MsgUnitNotFound       = "Unit not found for product"
	MsgNoActiveUnits      = "Product has no active units"
	MsgCartLineNotFound   = "Cart item not found"
	MsgAddressNotFound    = "Address not found"
	MsgOrderNotFound      = "Order not found"
	MsgEmptyCart          = "Cart is empty"
	MsgNoAddress          = "No delivery address available"
	MsgOrderFinalized     = "Order is already delivered or cancelled"
	MsgOrderNotCancelable = "Only pending orders can be cancelled"
	MsgInvoiceFailed      = "Invoice could not be generated"
	MsgConflict           = "Request conflicted with a concurrent update, please retry"
	MsgInternal           = "Something went wrong"
	MsgQuantityPositive   = "Quantity must be positive"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func Validationf(format string, args ...interface{}) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Internal hides err behind a generic message. The cause stays reachable
// through errors.Unwrap for logging.
func Internal(err error) *Error {
	return Wrap(KindInternal, MsgInternal, err)
}

// KindOf reports the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-facing message for err. Errors outside the
// taxonomy never leak their text.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return MsgInternal
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindEmptyCart, KindNoAddressAvailable, KindOrderAlreadyFinalized,
		KindOrderNotCancellable, KindTransactionConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
