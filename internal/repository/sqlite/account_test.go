package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/medibook/auth-service/internal/apperror"
	"github.com/medibook/auth-service/internal/model"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("New(:memory:): %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newAccount(email string, role model.Role) *model.Account {
	return &model.Account{
		FullName:     "Test User",
		Email:        email,
		PasswordHash: "$2a$10$fakehashfakehashfakehash",
		Role:         role,
	}
}

func TestCreate_AssignsIDAndTimestamps(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	account := newAccount("jane@example.com", model.RolePatient)
	if err := db.Create(ctx, account); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if account.ID == "" {
		t.Error("Create() left ID empty")
	}
	if account.CreatedAt.IsZero() || account.UpdatedAt.IsZero() {
		t.Error("Create() left timestamps zero")
	}
}

func TestCreate_DuplicateEmailIsConflict(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.Create(ctx, newAccount("dup@example.com", model.RolePatient)); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}

	err := db.Create(ctx, newAccount("dup@example.com", model.RoleDoctor))
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("second Create() error = %v, want Conflict", err)
	}
}

func TestFindByEmail_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	account := newAccount("jane@example.com", model.RoleDoctor)
	account.Phone = "+1-555-0100"
	account.Education = "MD, Example University"
	account.Experience = 8
	account.ConsultationFee = 120.50
	if err := db.Create(ctx, account); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := db.FindByEmail(ctx, "jane@example.com")
	if err != nil {
		t.Fatalf("FindByEmail() error = %v", err)
	}

	if got.ID != account.ID {
		t.Errorf("ID = %q, want %q", got.ID, account.ID)
	}
	if got.Role != model.RoleDoctor {
		t.Errorf("Role = %q, want doctor", got.Role)
	}
	if got.Education != account.Education || got.Experience != 8 {
		t.Errorf("doctor fields lost: education=%q experience=%d", got.Education, got.Experience)
	}
	if got.ConsultationFee != 120.50 {
		t.Errorf("ConsultationFee = %v, want 120.50", got.ConsultationFee)
	}
	if got.PasswordHash != account.PasswordHash {
		t.Error("password hash did not round-trip")
	}
}

func TestFindByID_Unknown(t *testing.T) {
	db := newTestDB(t)

	_, err := db.FindByID(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("FindByID() error = %v, want NotFound", err)
	}
}

func TestSave_UpdatesExistingRow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	account := newAccount("jane@example.com", model.RolePatient)
	if err := db.Create(ctx, account); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	account.FullName = "Jane Renamed"
	account.BloodGroup = "O+"
	if err := db.Save(ctx, account); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := db.FindByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got.FullName != "Jane Renamed" || got.BloodGroup != "O+" {
		t.Errorf("update lost: full_name=%q blood_group=%q", got.FullName, got.BloodGroup)
	}
}

func TestSave_UnknownAccount(t *testing.T) {
	db := newTestDB(t)

	account := newAccount("ghost@example.com", model.RolePatient)
	account.ID = "never-created"

	err := db.Save(context.Background(), account)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Save() error = %v, want NotFound", err)
	}
}

func TestFindByResetToken_SetAndClear(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	account := newAccount("jane@example.com", model.RolePatient)
	if err := db.Create(ctx, account); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	account.ResetToken = "abc123token"
	account.ResetTokenExpiry = time.Now().Add(15 * time.Minute).UTC()
	if err := db.Save(ctx, account); err != nil {
		t.Fatalf("Save() with token error = %v", err)
	}

	got, err := db.FindByResetToken(ctx, "abc123token")
	if err != nil {
		t.Fatalf("FindByResetToken() error = %v", err)
	}
	if got.ID != account.ID {
		t.Errorf("found %q, want %q", got.ID, account.ID)
	}
	if got.ResetTokenExpiry.IsZero() {
		t.Error("expiry did not round-trip")
	}

	// Clearing the token removes the row from lookup: empty string is
	// stored as NULL, never matched.
	account.ResetToken = ""
	account.ResetTokenExpiry = time.Time{}
	if err := db.Save(ctx, account); err != nil {
		t.Fatalf("Save() clearing token error = %v", err)
	}

	if _, err := db.FindByResetToken(ctx, "abc123token"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("cleared token still found: err = %v", err)
	}

	got, err = db.FindByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got.ResetToken != "" || !got.ResetTokenExpiry.IsZero() {
		t.Errorf("token fields not cleared: token=%q expiry=%v", got.ResetToken, got.ResetTokenExpiry)
	}
}

func TestFindByGoogleID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	account := newAccount("oauth@example.com", model.RolePatient)
	account.PasswordHash = ""
	account.GoogleID = "google-sub-42"
	if err := db.Create(ctx, account); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := db.FindByGoogleID(ctx, "google-sub-42")
	if err != nil {
		t.Fatalf("FindByGoogleID() error = %v", err)
	}
	if got.ID != account.ID {
		t.Errorf("found %q, want %q", got.ID, account.ID)
	}
	if got.HasPassword() {
		t.Error("google-only account came back with a password hash")
	}

	if _, err := db.FindByGoogleID(ctx, "unknown-sub"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("unknown google id error = %v, want NotFound", err)
	}
}

func TestCreate_ManyAccountsWithoutGoogleID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// The unique index on google_id is partial: any number of rows may
	// leave it NULL.
	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		if err := db.Create(ctx, newAccount(email, model.RolePatient)); err != nil {
			t.Fatalf("Create(%s) error = %v", email, err)
		}
	}
}

func TestListByRole(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, a := range []*model.Account{
		newAccount("doc1@example.com", model.RoleDoctor),
		newAccount("pat1@example.com", model.RolePatient),
		newAccount("doc2@example.com", model.RoleDoctor),
	} {
		if err := db.Create(ctx, a); err != nil {
			t.Fatalf("Create(%s) error = %v", a.Email, err)
		}
	}

	doctors, err := db.ListByRole(ctx, model.RoleDoctor)
	if err != nil {
		t.Fatalf("ListByRole() error = %v", err)
	}
	if len(doctors) != 2 {
		t.Fatalf("got %d doctors, want 2", len(doctors))
	}
	for _, d := range doctors {
		if d.Role != model.RoleDoctor {
			t.Errorf("non-doctor %q in doctor listing", d.Email)
		}
	}

	admins, err := db.ListByRole(ctx, model.RoleAdmin)
	if err != nil {
		t.Fatalf("ListByRole(admin) error = %v", err)
	}
	if len(admins) != 0 {
		t.Errorf("got %d admins, want none", len(admins))
	}
}
