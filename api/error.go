package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tea-network/teanet/registration"
)

type ErrorCode string

const (
	InternalError        ErrorCode = "InternalError"
	NotFound             ErrorCode = "NotFound"
	AlreadyExists        ErrorCode = "AlreadyExists"
	EmptyBody            ErrorCode = "EmptyBody"
	InvalidBody          ErrorCode = "InvalidBody"
	LimitOutOfBounds     ErrorCode = "LimitOutOfBounds"
	AuthError            ErrorCode = "AuthError"
	Forbidden            ErrorCode = "Forbidden"
	CapacityExceeded     ErrorCode = "CapacityExceeded"
	PerUserLimitExceeded ErrorCode = "PerUserLimitExceeded"
	PaymentRequired      ErrorCode = "PaymentRequired"
	Conflict             ErrorCode = "Conflict"
)

type Error struct {
	Message string    `json:"message"`
	Code    ErrorCode `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, Error{Message: message, Code: code})
}

// writeRegistrationError maps a registration error to the wire taxonomy.
// Anything without an explicit mapping is a 500 with no internals leaked.
func writeRegistrationError(w http.ResponseWriter, err error) {
	var regErr *registration.Error
	if errors.As(err, &regErr) {
		switch regErr.Reason {
		case registration.REASON_EVENT_NOT_FOUND:
			writeError(w, http.StatusNotFound, NotFound, "Event to register with was not found")
			return
		case registration.REASON_REGISTRATION_DOES_NOT_EXIST:
			writeError(w, http.StatusNotFound, NotFound, "Registration was not found")
			return
		case registration.REASON_TICKET_CODE_NOT_FOUND:
			writeError(w, http.StatusNotFound, NotFound, "No ticket with that code")
			return
		case registration.REASON_ALREADY_REGISTERED:
			writeError(w, http.StatusConflict, AlreadyExists, "Already registered for this event")
			return
		case registration.REASON_CAPACITY_EXCEEDED:
			writeError(w, http.StatusConflict, CapacityExceeded, "Event is full")
			return
		case registration.REASON_PER_USER_LIMIT_EXCEEDED:
			writeError(w, http.StatusConflict, PerUserLimitExceeded, "Ticket limit for this event reached")
			return
		case registration.REASON_PAYMENT_REQUIRED:
			writeError(w, http.StatusPaymentRequired, PaymentRequired, "This event requires payment")
			return
		case registration.REASON_NOT_AUTHORIZED:
			writeError(w, http.StatusForbidden, Forbidden, "Not allowed")
			return
		case registration.REASON_INVALID_QUANTITY, registration.REASON_MISSING_CONTACT:
			writeError(w, http.StatusBadRequest, InvalidBody, regErr.Message)
			return
		case registration.REASON_STORE_CONFLICT:
			writeError(w, http.StatusConflict, Conflict, "Event is busy, try again")
			return
		}
	}

	writeError(w, http.StatusInternalServerError, InternalError, "Internal server error")
}
