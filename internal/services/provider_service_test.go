package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/serviceinfo/serviceinfo/internal/domain/provider"
	"github.com/serviceinfo/serviceinfo/internal/mail"
	apperrors "github.com/serviceinfo/serviceinfo/internal/pkg/errors"
	"github.com/serviceinfo/serviceinfo/internal/pkg/i18n"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
	"github.com/serviceinfo/serviceinfo/internal/testutil"
)

type failingMailer struct{}

func (failingMailer) Send(ctx context.Context, msg mail.Message) error {
	return errors.New("smtp unavailable")
}

// flakyMailer fails its first n sends, then delivers to its outbox
type flakyMailer struct {
	failures int
	outbox   *mail.Outbox
}

func (m *flakyMailer) Send(ctx context.Context, msg mail.Message) error {
	if m.failures > 0 {
		m.failures--
		return errors.New("smtp unavailable")
	}
	return m.outbox.Send(ctx, msg)
}

type providerFixture struct {
	users     *testutil.MockUserRepository
	providers *testutil.MockProviderRepository
	outbox    *mail.Outbox
	svc       provider.Service
}

func newProviderFixture(mailer mail.Sender) providerFixture {
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	users := testutil.NewMockUserRepository()
	providers := testutil.NewMockProviderRepository()
	outbox := mail.NewOutbox()
	if mailer == nil {
		mailer = outbox
	}
	return providerFixture{
		users:     users,
		providers: providers,
		outbox:    outbox,
		svc: NewProviderService(providers, NewUserService(users, bcrypt.MinCost, log),
			mailer, "http://testserver/", log),
	}
}

func registration(email string) provider.Registration {
	beneficiaries := 37
	return provider.Registration{
		Provider: provider.Provider{
			Name:                         i18n.Text{EN: "Joe Provider"},
			TypeID:                       1,
			PhoneNumber:                  "12345",
			Description:                  i18n.Text{EN: "Test provider"},
			NumberOfMonthlyBeneficiaries: &beneficiaries,
		},
		Email:    email,
		Password: "foobar",
	}
}

func TestProviderService_Register(t *testing.T) {
	f := newProviderFixture(nil)
	ctx := context.Background()

	p, u, err := f.svc.Register(ctx, registration("fred@example.com"))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if p.ID == 0 || p.UserID != u.ID {
		t.Errorf("provider not bound to user: %+v", p)
	}
	if *p.NumberOfMonthlyBeneficiaries != 37 {
		t.Errorf("beneficiaries = %d, want 37", *p.NumberOfMonthlyBeneficiaries)
	}
	if u.IsActive || u.ActivationKey == "" {
		t.Errorf("registered user should be inactive with a key: %+v", u)
	}
	if len(f.users.Users) != 1 {
		t.Errorf("users created = %d, want 1", len(f.users.Users))
	}

	msgs := f.outbox.Messages()
	if len(msgs) != 1 {
		t.Fatalf("sent %d emails, want 1", len(msgs))
	}
	link := "http://testserver/api/activate/" + u.ActivationKey
	if !strings.Contains(msgs[0].Body, link) {
		t.Errorf("activation email does not contain %s:\n%s", link, msgs[0].Body)
	}
	if msgs[0].To != "fred@example.com" {
		t.Errorf("email sent to %s", msgs[0].To)
	}
}

func TestProviderService_RegisterErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate email", func(t *testing.T) {
		f := newProviderFixture(nil)
		_, u, err := f.svc.Register(ctx, registration("fred@example.com"))
		if err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		now := time.Now()
		u.IsActive = true
		u.ActivatedAt = &now

		_, _, err = f.svc.Register(ctx, registration("fred@example.com"))
		appErr, ok := apperrors.As(err)
		if !ok || appErr.Code != apperrors.ErrCodeConflict {
			t.Errorf("Register() error = %v, want conflict", err)
		}
		if len(f.outbox.Messages()) != 1 {
			t.Errorf("sent %d emails, want 1", len(f.outbox.Messages()))
		}
	})

	t.Run("unknown provider type", func(t *testing.T) {
		f := newProviderFixture(nil)
		reg := registration("fred@example.com")
		reg.Provider.TypeID = 99
		if _, _, err := f.svc.Register(ctx, reg); !apperrors.IsNotFound(err) {
			t.Errorf("Register() error = %v, want not found", err)
		}
		if len(f.users.Users) != 0 {
			t.Error("user created despite invalid type")
		}
	})

	t.Run("mail failure", func(t *testing.T) {
		f := newProviderFixture(failingMailer{})
		_, _, err := f.svc.Register(ctx, registration("fred@example.com"))
		appErr, ok := apperrors.As(err)
		if !ok || appErr.Code != apperrors.ErrCodeMail {
			t.Errorf("Register() error = %v, want mail error", err)
		}
	})
}

func TestProviderService_RegisterRetryAfterMailFailure(t *testing.T) {
	mailer := &flakyMailer{failures: 1, outbox: mail.NewOutbox()}
	f := newProviderFixture(mailer)
	ctx := context.Background()

	_, _, err := f.svc.Register(ctx, registration("fred@example.com"))
	if appErr, ok := apperrors.As(err); !ok || appErr.Code != apperrors.ErrCodeMail {
		t.Fatalf("first Register() error = %v, want mail error", err)
	}
	stale := f.users.EmailIndex["fred@example.com"].ActivationKey

	reg := registration("fred@example.com")
	reg.Provider.PhoneNumber = "67890"
	p, u, err := f.svc.Register(ctx, reg)
	if err != nil {
		t.Fatalf("retried Register() error = %v", err)
	}

	if len(f.users.Users) != 1 {
		t.Errorf("users = %d, want 1", len(f.users.Users))
	}
	if len(f.providers.Providers) != 1 {
		t.Errorf("providers = %d, want 1", len(f.providers.Providers))
	}
	if p.UserID != u.ID || p.PhoneNumber != "67890" {
		t.Errorf("provider not updated from the retry: %+v", p)
	}
	if u.ActivationKey == stale {
		t.Error("activation key was not renewed")
	}

	msgs := mailer.outbox.Messages()
	if len(msgs) != 1 {
		t.Fatalf("delivered %d emails, want 1", len(msgs))
	}
	if !strings.Contains(msgs[0].Body, u.ActivationPath()) {
		t.Errorf("activation email does not carry the renewed key:\n%s", msgs[0].Body)
	}
}

func TestProviderService_Create(t *testing.T) {
	f := newProviderFixture(nil)
	ctx := context.Background()

	owner, err := NewUserService(f.users, bcrypt.MinCost, logger.Nop()).CreateUser(ctx, "owner@example.com", "pw", false, false)
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	tests := []struct {
		name    string
		p       *provider.Provider
		wantErr bool
	}{
		{
			name: "valid provider",
			p:    &provider.Provider{Name: i18n.Text{EN: "A"}, TypeID: 1, PhoneNumber: "1234", UserID: owner.ID},
		},
		{
			name:    "second provider for same user",
			p:       &provider.Provider{Name: i18n.Text{EN: "B"}, TypeID: 1, PhoneNumber: "1234", UserID: owner.ID},
			wantErr: true,
		},
		{
			name:    "unknown user",
			p:       &provider.Provider{Name: i18n.Text{EN: "C"}, TypeID: 1, PhoneNumber: "1234", UserID: 404},
			wantErr: true,
		},
		{
			name:    "unknown type",
			p:       &provider.Provider{Name: i18n.Text{EN: "D"}, TypeID: 77, PhoneNumber: "1234", UserID: owner.ID},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.Create(ctx, tt.p)
			if (err != nil) != tt.wantErr {
				t.Errorf("Create() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProviderService_ListTypes(t *testing.T) {
	f := newProviderFixture(nil)

	types, err := f.svc.ListTypes(context.Background())
	if err != nil {
		t.Fatalf("ListTypes() error = %v", err)
	}
	if len(types) != 2 || types[0].Number != 1 {
		t.Errorf("ListTypes() = %+v", types)
	}
	if got := types[0].DisplayName(i18n.Arabic); got != "Local NGO" {
		t.Errorf("DisplayName(ar) = %q, want English fallback", got)
	}
}
