package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

const googleAuthJWTCookieKey = "GOOGLE_AUTH_JWT"

type googleLoginRequest struct {
	GoogleJWT string `json:"googleJWT"`
}

type googleLoginResponse struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (a *API) postGoogleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := a.getLoggerOrBaseLogger(ctx)

	var body googleLoginRequest
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil || body.GoogleJWT == "" {
		writeError(w, http.StatusBadRequest, InvalidBody, "Must pass a googleJWT")
		return
	}

	jwtPayload, err := a.googleIdVerifier.Validate(ctx, body.GoogleJWT, a.googleAudience)
	if err != nil {
		writeError(w, http.StatusUnauthorized, AuthError, "Invalid JWT")
		return
	}

	user, err := a.userFromPayload(ctx, jwtPayload)
	if err != nil {
		logger.Error("Failed to resolve user for login", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, InternalError, "Failed to log in")
		return
	}

	logger.Info("successful login", slog.Any("email", jwtPayload.Claims["email"]))

	cookie := &http.Cookie{
		Name:     googleAuthJWTCookieKey,
		Value:    body.GoogleJWT,
		Expires:  time.Unix(jwtPayload.Expires, 0),
		Path:     "/",
		HttpOnly: true,
		Secure:   a.env == PROD,
		SameSite: http.SameSiteStrictMode,
	}
	http.SetCookie(w, cookie)

	writeJSON(w, http.StatusOK, googleLoginResponse{
		Email: user.Email,
		Role:  string(user.Role),
	})
}
