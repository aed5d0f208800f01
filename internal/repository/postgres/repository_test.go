package postgres_test

import (
	"context"
	"testing"

	"github.com/serviceinfo/serviceinfo/internal/domain/area"
	"github.com/serviceinfo/serviceinfo/internal/domain/provider"
	"github.com/serviceinfo/serviceinfo/internal/domain/search"
	"github.com/serviceinfo/serviceinfo/internal/domain/service"
	"github.com/serviceinfo/serviceinfo/internal/domain/site"
	"github.com/serviceinfo/serviceinfo/internal/domain/user"
	"github.com/serviceinfo/serviceinfo/internal/pkg/errors"
	"github.com/serviceinfo/serviceinfo/internal/pkg/i18n"
	"github.com/serviceinfo/serviceinfo/internal/repository/postgres"
	"github.com/serviceinfo/serviceinfo/internal/testutil"
	"github.com/serviceinfo/serviceinfo/migrations"
)

type fixture struct {
	users     user.Repository
	providers provider.Repository
	services  service.Repository
	areas     area.Repository
}

func newFixture(t *testing.T) (*postgres.DB, fixture) {
	db := testutil.NewTestDB(t)
	return db, fixture{
		users:     postgres.NewUserRepository(db),
		providers: postgres.NewProviderRepository(db),
		services:  postgres.NewServiceRepository(db),
		areas:     postgres.NewAreaRepository(db),
	}
}

func (f fixture) provider(t *testing.T, email string) *provider.Provider {
	t.Helper()
	ctx := context.Background()
	u := &user.User{Email: email}
	if err := f.users.Create(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	p := &provider.Provider{
		Name:        i18n.Text{EN: "Helping Hands", AR: "أيادي المساعدة"},
		TypeID:      1,
		PhoneNumber: "12-345678",
		UserID:      u.ID,
	}
	if err := f.providers.Create(ctx, p); err != nil {
		t.Fatalf("create provider: %v", err)
	}
	return p
}

func TestMigrations_Seeds(t *testing.T) {
	db, f := newFixture(t)
	ctx := context.Background()

	providerTypes, err := f.providers.ListTypes(ctx)
	if err != nil {
		t.Fatalf("ListTypes() error = %v", err)
	}
	if len(providerTypes) != 8 {
		t.Errorf("provider types = %d, want 8", len(providerTypes))
	}
	if providerTypes[0].Number != 1 || providerTypes[0].Name.EN != "Local NGO" {
		t.Errorf("first provider type = %+v", providerTypes[0])
	}

	serviceTypes, err := f.services.ListTypes(ctx)
	if err != nil {
		t.Fatalf("ListTypes() error = %v", err)
	}
	if len(serviceTypes) != 8 {
		t.Errorf("service types = %d, want 8", len(serviceTypes))
	}

	// applying again is a no-op
	fsys, err := migrations.ForDriver("sqlite")
	if err != nil {
		t.Fatalf("ForDriver() error = %v", err)
	}
	applied, err := postgres.RunMigrations(db, fsys)
	if err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("RunMigrations() reapplied %v", applied)
	}
}

func TestProviderRepository_CreateAndGet(t *testing.T) {
	_, f := newFixture(t)
	ctx := context.Background()

	p := f.provider(t, "owner@example.com")

	got, err := f.providers.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name.AR != "أيادي المساعدة" || got.PhoneNumber != "12-345678" {
		t.Errorf("GetByID() = %+v", got)
	}
	if got.NumberOfMonthlyBeneficiaries != nil {
		t.Error("NumberOfMonthlyBeneficiaries should be nil")
	}

	byUser, err := f.providers.GetByUserID(ctx, p.UserID)
	if err != nil {
		t.Fatalf("GetByUserID() error = %v", err)
	}
	if byUser.ID != p.ID {
		t.Errorf("GetByUserID() id = %d, want %d", byUser.ID, p.ID)
	}

	dup := &provider.Provider{Name: i18n.Text{EN: "Second"}, TypeID: 1, PhoneNumber: "1234", UserID: p.UserID}
	if err := f.providers.Create(ctx, dup); err == nil {
		t.Error("Create() second provider for one user should fail")
	}

	if _, err := f.providers.GetByID(ctx, 999); !errors.IsNotFound(err) {
		t.Errorf("GetByID(missing) error = %v, want not found", err)
	}

	beneficiaries := 12
	got.PhoneNumber = "98-765432"
	got.NumberOfMonthlyBeneficiaries = &beneficiaries
	if err := f.providers.Update(ctx, got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	updated, err := f.providers.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if updated.PhoneNumber != "98-765432" || updated.NumberOfMonthlyBeneficiaries == nil || *updated.NumberOfMonthlyBeneficiaries != 12 {
		t.Errorf("Update() not persisted: %+v", updated)
	}
	if updated.UserID != p.UserID {
		t.Errorf("Update() changed owner to %d", updated.UserID)
	}

	if err := f.providers.Update(ctx, &provider.Provider{ID: 999, TypeID: 1}); !errors.IsNotFound(err) {
		t.Errorf("Update(missing) error = %v, want not found", err)
	}
}

func TestAreaRepository_ChildIDs(t *testing.T) {
	_, f := newFixture(t)
	ctx := context.Background()

	root := &area.ServiceArea{Name: i18n.Text{EN: "Lebanon"}}
	if err := f.areas.Create(ctx, root); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	var children []int64
	for _, name := range []string{"Beirut", "Tripoli"} {
		a := &area.ServiceArea{Name: i18n.Text{EN: name}, ParentID: &root.ID}
		if err := f.areas.Create(ctx, a); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		children = append(children, a.ID)
	}

	got, err := f.areas.ChildIDs(ctx, root.ID)
	if err != nil {
		t.Fatalf("ChildIDs() error = %v", err)
	}
	if len(got) != 2 || got[0] != children[0] || got[1] != children[1] {
		t.Errorf("ChildIDs() = %v, want %v", got, children)
	}

	leaf, err := f.areas.ChildIDs(ctx, children[0])
	if err != nil {
		t.Fatalf("ChildIDs() error = %v", err)
	}
	if len(leaf) != 0 {
		t.Errorf("ChildIDs(leaf) = %v, want empty", leaf)
	}

	child, err := f.areas.GetByID(ctx, children[1])
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if child.ParentID == nil || *child.ParentID != root.ID {
		t.Errorf("GetByID() parent = %v, want %d", child.ParentID, root.ID)
	}
}

func TestServiceRepository_ListAndStatus(t *testing.T) {
	_, f := newFixture(t)
	ctx := context.Background()

	p := f.provider(t, "owner@example.com")
	a := &area.ServiceArea{Name: i18n.Text{EN: "Beirut"}}
	if err := f.areas.Create(ctx, a); err != nil {
		t.Fatalf("create area: %v", err)
	}

	typeID := int64(2)
	first := &service.Service{ProviderID: p.ID, AreaID: a.ID, TypeID: &typeID, Name: i18n.Text{EN: "Clinic"}}
	second := &service.Service{ProviderID: p.ID, AreaID: a.ID, Name: i18n.Text{EN: "School"}}
	for _, s := range []*service.Service{first, second} {
		if err := f.services.Create(ctx, s); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if s.Status != service.StatusDraft {
			t.Errorf("Create() status = %s, want draft", s.Status)
		}
	}

	if err := f.services.UpdateStatus(ctx, first.ID, service.StatusDraft, service.StatusCurrent); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	tests := []struct {
		name   string
		filter service.Filter
		want   int64
	}{
		{name: "all", filter: service.Filter{}, want: 2},
		{name: "current only", filter: service.Filter{Status: service.StatusCurrent}, want: 1},
		{name: "by provider", filter: service.Filter{ProviderID: p.ID}, want: 2},
		{name: "by provider and draft", filter: service.Filter{ProviderID: p.ID, Status: service.StatusDraft}, want: 1},
		{name: "other area", filter: service.Filter{AreaID: a.ID + 100}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := f.services.List(ctx, tt.filter, 10, 0)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if total != tt.want || int64(len(got)) != tt.want {
				t.Errorf("List() total = %d len = %d, want %d", total, len(got), tt.want)
			}
		})
	}

	got, err := f.services.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.TypeID == nil || *got.TypeID != 2 {
		t.Errorf("GetByID() type = %v, want 2", got.TypeID)
	}

	if err := f.services.UpdateStatus(ctx, 999, service.StatusDraft, service.StatusRejected); !errors.IsNotFound(err) {
		t.Errorf("UpdateStatus(missing) error = %v, want not found", err)
	}

	err = f.services.UpdateStatus(ctx, first.ID, service.StatusDraft, service.StatusRejected)
	if appErr, ok := errors.As(err); !ok || appErr.Code != errors.ErrCodeConflict {
		t.Errorf("UpdateStatus(stale status) error = %v, want conflict", err)
	}
	got, err = f.services.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != service.StatusCurrent {
		t.Errorf("stale UpdateStatus() changed status to %s", got.Status)
	}
}

func TestSearchRepository(t *testing.T) {
	db, f := newFixture(t)
	ctx := context.Background()
	repo := postgres.NewSearchRepository(db)

	p := f.provider(t, "owner@example.com")
	a := &area.ServiceArea{Name: i18n.Text{EN: "Beirut"}}
	if err := f.areas.Create(ctx, a); err != nil {
		t.Fatalf("create area: %v", err)
	}
	var ids []int64
	for _, name := range []string{"Clinic", "School"} {
		s := &service.Service{ProviderID: p.ID, AreaID: a.ID, Name: i18n.Text{EN: name}}
		if err := f.services.Create(ctx, s); err != nil {
			t.Fatalf("create service: %v", err)
		}
		ids = append(ids, s.ID)
	}

	err := repo.Replace(ctx, []search.Entry{
		{ServiceID: ids[0], Document: "Clinic Beirut Health"},
		{ServiceID: ids[1], Document: "School Beirut Education"},
	})
	if err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	tests := []struct {
		name  string
		terms []string
		want  []int64
	}{
		{name: "single term", terms: []string{"clinic"}, want: ids[:1]},
		{name: "case insensitive", terms: []string{"BEIRUT"}, want: ids},
		{name: "all terms must match", terms: []string{"beirut", "education"}, want: ids[1:]},
		{name: "no match", terms: []string{"tripoli"}, want: []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Search(ctx, tt.terms, 10)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Search() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Search() = %v, want %v", got, tt.want)
				}
			}
		})
	}

	// replacing drops stale entries
	if err := repo.Replace(ctx, []search.Entry{{ServiceID: ids[1], Document: "School"}}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	got, err := repo.Search(ctx, []string{"clinic"}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Search() after replace = %v, want empty", got)
	}
}

func TestSiteRepository_ChangeDomain(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewSiteRepository(db)
	ctx := context.Background()

	s, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if s.Domain != "serviceinfo.rescue.org" {
		t.Fatalf("Get() domain = %s", s.Domain)
	}

	if err := repo.ChangeDomain(ctx, "wrong.example.org", "x.example.org"); err != site.ErrDomainMismatch {
		t.Errorf("ChangeDomain() mismatched error = %v, want ErrDomainMismatch", err)
	}

	if err := repo.ChangeDomain(ctx, "serviceinfo.rescue.org", "serviceinfo-staging.rescue.org"); err != nil {
		t.Fatalf("ChangeDomain() error = %v", err)
	}
	s, err = repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if s.Domain != "serviceinfo-staging.rescue.org" {
		t.Errorf("domain = %s, want serviceinfo-staging.rescue.org", s.Domain)
	}
}
