package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/curatime/curatime/pkg/logging"
)

// Service sends the application's transactional email: password-reset
// verification codes and support contact relays.
type Service struct {
	email        EmailSender
	supportEmail string
	logger       *logging.Logger
}

// NewService creates a notification service. supportEmail is the mailbox
// support contact messages are relayed to.
func NewService(email EmailSender, supportEmail string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if email == nil {
		email = NewStubEmailSender(logger)
	}
	return &Service{email: email, supportEmail: supportEmail, logger: logger}
}

// SendResetCode mails a password-reset verification code. The code is
// valid for five minutes; the wording mirrors what the frontend tells the
// user to expect.
func (s *Service) SendResetCode(ctx context.Context, toEmail, toName, code string) error {
	msg := EmailMessage{
		To:      toEmail,
		ToName:  toName,
		Subject: "Code de vérification pour réinitialisation",
		Body:    fmt.Sprintf("Votre code de vérification est %s. Il est valable 5 minutes.", code),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: reset code: %w", err)
	}
	return nil
}

// ContactRequest is the support form payload. Only the message is
// mandatory; subject and category default, and the sender may stay
// anonymous.
type ContactRequest struct {
	Subject  string `json:"subject"`
	Category string `json:"category"`
	Message  string `json:"message"`
	Email    string `json:"email"`
}

// RelaySupportMessage forwards a contact form submission to the support
// mailbox.
func (s *Service) RelaySupportMessage(ctx context.Context, req *ContactRequest) error {
	if strings.TrimSpace(req.Message) == "" {
		return ErrMissingMessage
	}
	subject := req.Subject
	if subject == "" {
		subject = "Support CuraTime"
	}
	category := req.Category
	if category == "" {
		category = "general"
	}
	sender := req.Email
	if sender == "" {
		sender = "anonyme"
	}
	msg := EmailMessage{
		To:      s.supportEmail,
		ReplyTo: req.Email,
		Subject: subject,
		Body:    fmt.Sprintf("Catégorie: %s\nExpéditeur: %s\n\n%s", category, sender, req.Message),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: support relay: %w", err)
	}
	s.logger.Info("support message relayed", "category", category)
	return nil
}

// Handler exposes the support contact endpoint.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new notify handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Contact handles POST /support/contact. Open to anonymous visitors; the
// message field is the only requirement.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.service.RelaySupportMessage(r.Context(), &req); err != nil {
		if errors.Is(err, ErrMissingMessage) {
			writeError(w, http.StatusBadRequest, ErrMissingMessage.Error())
			return
		}
		h.logger.Error("failed to relay support message", "error", err)
		writeError(w, http.StatusInternalServerError, "could not send message")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "message envoyé au support"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
