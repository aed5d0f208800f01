package mail

import (
	"context"
	"strings"
	"testing"

	"github.com/serviceinfo/serviceinfo/internal/config"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
)

func TestActivation(t *testing.T) {
	link := "http://localhost:8000/api/activate/abc"
	msg, err := Activation("fred@example.com", "Joe Provider", link)
	if err != nil {
		t.Fatalf("Activation() error = %v", err)
	}
	if msg.To != "fred@example.com" {
		t.Errorf("To = %s", msg.To)
	}
	if !strings.Contains(msg.Body, link) {
		t.Errorf("body does not contain link: %s", msg.Body)
	}
	if !strings.Contains(msg.Body, "Joe Provider") {
		t.Errorf("body does not contain provider name: %s", msg.Body)
	}
	if msg.Kind != KindActivation {
		t.Errorf("Kind = %s, want %s", msg.Kind, KindActivation)
	}
}

func TestServiceApproved(t *testing.T) {
	msg, err := ServiceApproved("owner@example.com", "Clinic")
	if err != nil {
		t.Fatalf("ServiceApproved() error = %v", err)
	}
	if !strings.Contains(msg.Subject, "Clinic") || !strings.Contains(msg.Body, "Clinic") {
		t.Errorf("message does not name the service: %+v", msg)
	}
}

func TestNewSender(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Format: "json"})

	tests := []struct {
		backend string
		wantErr bool
	}{
		{backend: "smtp"},
		{backend: "console"},
		{backend: "memory"},
		{backend: "carrier-pigeon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			s, err := NewSender(config.MailConfig{Backend: tt.backend, SMTPHost: "localhost", SMTPPort: 25}, log)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewSender() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && s == nil {
				t.Error("NewSender() returned nil sender")
			}
		})
	}
}

func TestOutbox(t *testing.T) {
	o := NewOutbox()
	ctx := context.Background()

	_ = o.Send(ctx, Message{To: "a@example.com"})
	_ = o.Send(ctx, Message{To: "b@example.com"})

	msgs := o.Messages()
	if len(msgs) != 2 || msgs[1].To != "b@example.com" {
		t.Errorf("Messages() = %+v", msgs)
	}

	o.Reset()
	if len(o.Messages()) != 0 {
		t.Error("Reset() did not empty outbox")
	}
}
