package registration

import "fmt"

type ErrorReason string

const (
	REASON_FAILED_TO_TRANSLATE_TO_DB_MODEL ErrorReason = "FAILED_TO_TRANSLATE_TO_DB_MODEL"
	REASON_FAILED_TO_WRITE                 ErrorReason = "FAILED_TO_WRITE"
	REASON_FAILED_TO_FETCH                 ErrorReason = "FAILED_TO_FETCH"
	REASON_REGISTRATION_DOES_NOT_EXIST     ErrorReason = "REGISTRATION_DOES_NOT_EXIST"
	REASON_ALREADY_REGISTERED              ErrorReason = "ALREADY_REGISTERED"
	REASON_EVENT_NOT_FOUND                 ErrorReason = "EVENT_NOT_FOUND"
	REASON_CAPACITY_EXCEEDED               ErrorReason = "CAPACITY_EXCEEDED"
	REASON_PER_USER_LIMIT_EXCEEDED         ErrorReason = "PER_USER_LIMIT_EXCEEDED"
	REASON_INVALID_QUANTITY                ErrorReason = "INVALID_QUANTITY"
	REASON_MISSING_CONTACT                 ErrorReason = "MISSING_CONTACT"
	REASON_PAYMENT_REQUIRED                ErrorReason = "PAYMENT_REQUIRED"
	REASON_PAYMENT_REF_UNKNOWN             ErrorReason = "PAYMENT_REF_UNKNOWN"
	REASON_TICKET_CODE_NOT_FOUND           ErrorReason = "TICKET_CODE_NOT_FOUND"
	REASON_NOT_AUTHORIZED                  ErrorReason = "NOT_AUTHORIZED"
	REASON_STORE_CONFLICT                  ErrorReason = "STORE_CONFLICT"
	REASON_TIMEOUT                         ErrorReason = "TIMEOUT"
	REASON_FAILED_TO_CREATE_CHECKOUT       ErrorReason = "FAILED_TO_CREATE_CHECKOUT"
	REASON_FAILED_TO_CONFIRM_CHECKOUT      ErrorReason = "FAILED_TO_CONFIRM_CHECKOUT"
)

// Error is the domain error for the registration workflow. Every expected
// outcome gets its own Reason; infrastructure trouble (STORE_CONFLICT,
// TIMEOUT, FAILED_TO_*) stays distinguishable from domain rejections so
// callers can decide what is retryable.
type Error struct {
	Reason  ErrorReason
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s. Cause: %s", e.Reason, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newRegistrationError(reason ErrorReason, message string, cause error) *Error {
	return &Error{
		Reason:  reason,
		Message: message,
		Cause:   cause,
	}
}

func NewFailedToWriteError(message string, cause error) *Error {
	return newRegistrationError(REASON_FAILED_TO_WRITE, message, cause)
}

func NewFailedToTranslateToDBModelError(message string, cause error) *Error {
	return newRegistrationError(REASON_FAILED_TO_TRANSLATE_TO_DB_MODEL, message, cause)
}

func NewFailedToFetchError(message string, cause error) *Error {
	return newRegistrationError(REASON_FAILED_TO_FETCH, message, cause)
}

func NewRegistrationDoesNotExistError(message string, cause error) *Error {
	return newRegistrationError(REASON_REGISTRATION_DOES_NOT_EXIST, message, cause)
}

func NewAlreadyRegisteredError(message string, cause error) *Error {
	return newRegistrationError(REASON_ALREADY_REGISTERED, message, cause)
}

func NewEventNotFoundError(message string, cause error) *Error {
	return newRegistrationError(REASON_EVENT_NOT_FOUND, message, cause)
}

func NewCapacityExceededError(message string) *Error {
	return newRegistrationError(REASON_CAPACITY_EXCEEDED, message, nil)
}

func NewPerUserLimitExceededError(message string) *Error {
	return newRegistrationError(REASON_PER_USER_LIMIT_EXCEEDED, message, nil)
}

func NewInvalidQuantityError(message string) *Error {
	return newRegistrationError(REASON_INVALID_QUANTITY, message, nil)
}

func NewMissingContactError(message string) *Error {
	return newRegistrationError(REASON_MISSING_CONTACT, message, nil)
}

func NewPaymentRequiredError(message string) *Error {
	return newRegistrationError(REASON_PAYMENT_REQUIRED, message, nil)
}

func NewPaymentRefUnknownError(message string) *Error {
	return newRegistrationError(REASON_PAYMENT_REF_UNKNOWN, message, nil)
}

func NewTicketCodeNotFoundError(message string, cause error) *Error {
	return newRegistrationError(REASON_TICKET_CODE_NOT_FOUND, message, cause)
}

func NewNotAuthorizedError(message string) *Error {
	return newRegistrationError(REASON_NOT_AUTHORIZED, message, nil)
}

func NewStoreConflictError(message string, cause error) *Error {
	return newRegistrationError(REASON_STORE_CONFLICT, message, cause)
}

func NewTimeoutError(message string) *Error {
	return newRegistrationError(REASON_TIMEOUT, message, nil)
}

func NewFailedToCreateCheckoutError(message string, cause error) *Error {
	return newRegistrationError(REASON_FAILED_TO_CREATE_CHECKOUT, message, cause)
}

func NewFailedToConfirmCheckoutError(message string, cause error) *Error {
	return newRegistrationError(REASON_FAILED_TO_CONFIRM_CHECKOUT, message, cause)
}
