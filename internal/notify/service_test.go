package notify

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/curatime/curatime/pkg/logging"
)

type mockEmailSender struct {
	sent    []EmailMessage
	callErr error
}

func (m *mockEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if m.callErr != nil {
		return m.callErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

func testLogger() *logging.Logger {
	return logging.NewWithWriter("error", new(bytes.Buffer))
}

func TestSendResetCode(t *testing.T) {
	sender := &mockEmailSender{}
	svc := NewService(sender, "support@curatime.test", testLogger())

	if err := svc.SendResetCode(context.Background(), "jean@example.test", "Jean Dupont", "4821"); err != nil {
		t.Fatalf("SendResetCode: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d emails", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.To != "jean@example.test" {
		t.Fatalf("to = %q", msg.To)
	}
	if !strings.Contains(msg.Body, "4821") {
		t.Fatalf("code missing from body: %q", msg.Body)
	}
	if !strings.Contains(msg.Body, "5 minutes") {
		t.Fatalf("validity missing from body: %q", msg.Body)
	}
}

func TestSendResetCodeWrapsSenderError(t *testing.T) {
	sender := &mockEmailSender{callErr: errors.New("smtp down")}
	svc := NewService(sender, "support@curatime.test", testLogger())
	if err := svc.SendResetCode(context.Background(), "jean@example.test", "", "4821"); err == nil {
		t.Fatal("expected error from failing sender")
	}
}

func TestRelaySupportMessageDefaults(t *testing.T) {
	sender := &mockEmailSender{}
	svc := NewService(sender, "support@curatime.test", testLogger())

	err := svc.RelaySupportMessage(context.Background(), &ContactRequest{Message: "site en panne"})
	if err != nil {
		t.Fatalf("RelaySupportMessage: %v", err)
	}
	msg := sender.sent[0]
	if msg.To != "support@curatime.test" {
		t.Fatalf("to = %q", msg.To)
	}
	if msg.Subject != "Support CuraTime" {
		t.Fatalf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "anonyme") {
		t.Fatalf("anonymous sender not noted: %q", msg.Body)
	}
	if !strings.Contains(msg.Body, "site en panne") {
		t.Fatalf("message missing from body: %q", msg.Body)
	}
}

func TestRelaySupportMessageRequiresMessage(t *testing.T) {
	sender := &mockEmailSender{}
	svc := NewService(sender, "support@curatime.test", testLogger())
	err := svc.RelaySupportMessage(context.Background(), &ContactRequest{Message: "   "})
	if !errors.Is(err, ErrMissingMessage) {
		t.Fatalf("expected ErrMissingMessage, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatal("email sent despite empty message")
	}
}

func TestContactEndpoint(t *testing.T) {
	sender := &mockEmailSender{}
	svc := NewService(sender, "support@curatime.test", testLogger())
	h := NewHandler(svc, testLogger())

	body := `{"message": "besoin d'aide", "email": "jean@example.test", "category": "compte"}`
	rec := httptest.NewRecorder()
	h.Contact(rec, httptest.NewRequest(http.MethodPost, "/support/contact", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	if len(sender.sent) != 1 || sender.sent[0].ReplyTo != "jean@example.test" {
		t.Fatalf("sent = %+v", sender.sent)
	}
}

func TestContactEndpointMissingMessage(t *testing.T) {
	svc := NewService(&mockEmailSender{}, "support@curatime.test", testLogger())
	h := NewHandler(svc, testLogger())

	rec := httptest.NewRecorder()
	h.Contact(rec, httptest.NewRequest(http.MethodPost, "/support/contact", strings.NewReader(`{}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
