package users

import "fmt"

type ErrorReason string

const (
	REASON_USER_DOES_NOT_EXIST ErrorReason = "USER_DOES_NOT_EXIST"
	REASON_USER_ALREADY_EXISTS ErrorReason = "USER_ALREADY_EXISTS"
	REASON_FAILED_TO_FETCH     ErrorReason = "FAILED_TO_FETCH"
	REASON_FAILED_TO_WRITE     ErrorReason = "FAILED_TO_WRITE"
)

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

func newUserError(reason ErrorReason, message string, cause error) *Error {
	return &Error{
		Reason:  reason,
		Message: message,
		Cause:   cause,
	}
}

func NewUserDoesNotExistError(message string, cause error) *Error {
	return newUserError(REASON_USER_DOES_NOT_EXIST, message, cause)
}

func NewUserAlreadyExistsError(message string, cause error) *Error {
	return newUserError(REASON_USER_ALREADY_EXISTS, message, cause)
}

func NewFailedToFetchError(message string, cause error) *Error {
	return newUserError(REASON_FAILED_TO_FETCH, message, cause)
}

func NewFailedToWriteError(message string, cause error) *Error {
	return newUserError(REASON_FAILED_TO_WRITE, message, cause)
}
