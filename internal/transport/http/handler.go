package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/storifal/storifal/internal/domain"
	"github.com/storifal/storifal/internal/dto"
	"github.com/storifal/storifal/internal/httpx"
	"github.com/storifal/storifal/internal/observability/logging"
	obsmw "github.com/storifal/storifal/internal/observability/middleware"
	"github.com/storifal/storifal/internal/service"
)

const (
	msgInvalidEmail       = "Invalid email format."
	msgDisposableEmail    = "Disposable emails are not allowed."
	msgEmailExists        = "Email already exists."
	msgInvalidToken       = "Invalid or expired token."
	msgUserNotFound       = "User not found."
	msgAlreadyVerified    = "Email already verified."
	msgInvalidCredentials = "Invalid email or password."
	msgEmailNotVerified   = "Email is not verified. Please verify your email."
	msgEmailVerified      = "Email verified successfully. You can now log in."
	msgContactSubmitted   = "Contact form submitted successfully"
)

// opMessages are the operation specific texts for a missing field and for an
// unexpected failure.
type opMessages struct {
	missing  string
	internal string
}

var (
	registerMsgs   = opMessages{missing: "All fields are required.", internal: "Internal server error"}
	verifyMsgs     = opMessages{missing: msgInvalidToken, internal: "Internal server error"}
	checkEmailMsgs = opMessages{missing: "Email is required.", internal: "Server Error"}
	loginMsgs      = opMessages{missing: "Email and password are required.", internal: "Server Error"}
	meMsgs         = opMessages{missing: msgNotAuthorized, internal: "Server Error"}
	contactMsgs    = opMessages{missing: "All fields are required", internal: "Server error. Try again later."}
)

type handler struct {
	auth     service.AuthService
	contacts service.ContactService
	logger   *slog.Logger
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error, msgs opMessages) {
	var weak *domain.WeakPasswordError
	switch {
	case errors.Is(err, domain.ErrRequired):
		httpx.WriteMessage(w, http.StatusBadRequest, msgs.missing)
	case errors.Is(err, domain.ErrInvalidEmail):
		httpx.WriteMessage(w, http.StatusBadRequest, msgInvalidEmail)
	case errors.Is(err, domain.ErrDisposableEmail):
		httpx.WriteMessage(w, http.StatusBadRequest, msgDisposableEmail)
	case errors.As(err, &weak):
		httpx.WriteMessage(w, http.StatusBadRequest, weak.Error())
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		httpx.WriteMessage(w, http.StatusBadRequest, msgEmailExists)
	case errors.Is(err, domain.ErrInvalidOrExpiredToken):
		httpx.WriteMessage(w, http.StatusBadRequest, msgInvalidToken)
	case errors.Is(err, domain.ErrAlreadyVerified):
		httpx.WriteMessage(w, http.StatusBadRequest, msgAlreadyVerified)
	case errors.Is(err, domain.ErrUserNotFound):
		httpx.WriteMessage(w, http.StatusNotFound, msgUserNotFound)
	case errors.Is(err, domain.ErrInvalidCredentials):
		httpx.WriteMessage(w, http.StatusUnauthorized, msgInvalidCredentials)
	case errors.Is(err, domain.ErrEmailNotVerified):
		httpx.WriteMessage(w, http.StatusForbidden, msgEmailNotVerified)
	default:
		logging.LogError(h.logger, "request failed", err,
			append(obsmw.LogAttrs(r.Context()), "method", r.Method, "path", r.URL.Path)...)
		httpx.WriteMessage(w, http.StatusInternalServerError, msgs.internal)
	}
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, registerMsgs.missing)
		return
	}
	res, err := h.auth.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err, registerMsgs)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, res)
}

func (h *handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.VerifyEmail(r.Context(), r.URL.Query().Get("token")); err != nil {
		h.writeError(w, r, err, verifyMsgs)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, msgEmailVerified)
}

func (h *handler) checkEmail(w http.ResponseWriter, r *http.Request) {
	var req dto.CheckEmailRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, checkEmailMsgs.missing)
		return
	}
	exists, err := h.auth.CheckEmail(r.Context(), req.Email)
	if err != nil {
		h.writeError(w, r, err, checkEmailMsgs)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.CheckEmailResponse{Exists: exists})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, loginMsgs.missing)
		return
	}
	res, err := h.auth.Login(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err, loginMsgs)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		httpx.WriteMessage(w, http.StatusUnauthorized, msgNotAuthorized)
		return
	}
	u, err := h.auth.Me(r.Context(), p.UserID)
	if err != nil {
		h.writeError(w, r, err, meMsgs)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.MeResponse{User: dto.UserProfile{
		UserSummary: dto.NewUserSummary(u),
		IsVerified:  u.IsVerified,
		AuthType:    u.AuthType,
	}})
}

func (h *handler) submitContact(w http.ResponseWriter, r *http.Request) {
	var req dto.ContactRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, contactMsgs.missing)
		return
	}
	c, err := h.contacts.Submit(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err, contactMsgs)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, dto.ContactResponse{Message: msgContactSubmitted, Contact: c})
}
