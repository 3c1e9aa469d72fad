package auth

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sadopc/suivi/internal/store"
)

const testSecret = "test-secret-0123456789"

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewService(s, Config{
		Secret:    testSecret,
		Positions: []string{"Consultant", "Analyste"},
		Cost:      bcrypt.MinCost,
	}), s
}

func validInput() RegisterInput {
	return RegisterInput{
		Email:           "ana@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		FirstName:       "Ana",
		LastName:        "Blanc",
		Position:        "Consultant",
	}
}

// ============================================================
// Register
// ============================================================

func TestRegister(t *testing.T) {
	svc, s := newTestService(t)

	u, err := svc.Register(validInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Role != store.RoleEmployee || !u.IsActive {
		t.Fatalf("new accounts are active employees: %+v", u)
	}
	if u.PasswordHash == "secret1" {
		t.Fatal("password stored in clear")
	}
	if _, err := s.GetUserByEmail("ANA@example.com"); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if Home(u) != HomeEmployee {
		t.Fatalf("Home = %q", Home(u))
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name  string
		edit  func(in *RegisterInput)
		field string
	}{
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }, "email"},
		{"short password", func(in *RegisterInput) { in.Password, in.ConfirmPassword = "abc", "abc" }, "password"},
		{"missing first name", func(in *RegisterInput) { in.FirstName = "  " }, "firstName"},
		{"unknown position", func(in *RegisterInput) { in.Position = "Astronaute" }, "position"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.edit(&in)
			_, err := svc.Register(in)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			var ie *InputError
			if !errors.As(err, &ie) || ie.Fields[tt.field] == "" {
				t.Fatalf("expected field %q in %v", tt.field, err)
			}
		})
	}
}

func TestRegisterPasswordMismatch(t *testing.T) {
	svc, _ := newTestService(t)
	in := validInput()
	in.ConfirmPassword = "secret2"
	if _, err := svc.Register(in); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Register(validInput()); err != nil {
		t.Fatal(err)
	}
	in := validInput()
	in.Email = "Ana@Example.com"
	if _, err := svc.Register(in); !errors.Is(err, store.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestCreateAccountAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	u, err := svc.CreateAccount(store.User{Email: "root@example.com", FirstName: "Root", LastName: "Admin", Role: store.RoleAdmin}, "rootpw")
	if err != nil {
		t.Fatal(err)
	}
	if Home(u) != HomeAdmin {
		t.Fatalf("Home = %q", Home(u))
	}
	if _, err := svc.CreateAccount(store.User{Email: "x@example.com"}, "123"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("short password accepted: %v", err)
	}
}

// ============================================================
// Sign in
// ============================================================

func TestSignIn(t *testing.T) {
	svc, s := newTestService(t)
	created, _ := svc.Register(validInput())

	u, err := svc.SignIn("ana@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if u.ID != created.ID {
		t.Fatal("wrong user")
	}

	if _, err := svc.SignIn("ana@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, err := svc.SignIn("nobody@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: %v", err)
	}

	if err := s.SetUserActive(created.ID, false); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SignIn("ana@example.com", "secret1"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("disabled account: %v", err)
	}
}

// ============================================================
// Tokens
// ============================================================

func TestIssueAndParseToken(t *testing.T) {
	svc, _ := newTestService(t)
	u, _ := svc.Register(validInput())

	tok, err := svc.IssueToken(u)
	if err != nil {
		t.Fatal(err)
	}
	c, err := svc.ParseToken(tok)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if c.UserID != u.ID || c.Role != store.RoleEmployee || c.Email != u.Email {
		t.Fatalf("claims = %+v", c)
	}
	if c.ExpiresAt.Before(time.Now().Add(23 * time.Hour)) {
		t.Fatalf("expiry too early: %v", c.ExpiresAt)
	}
}

func TestParseTokenRejects(t *testing.T) {
	svc, s := newTestService(t)
	u, _ := svc.Register(validInput())

	other := NewService(s, Config{Secret: "another-secret-0123456789", Cost: bcrypt.MinCost})
	foreign, _ := other.IssueToken(u)
	if _, err := svc.ParseToken(foreign); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign signature accepted: %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	expired, _ := svc.IssueToken(u)
	svc.now = time.Now
	if _, err := svc.ParseToken(expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token accepted: %v", err)
	}

	if _, err := svc.ParseToken("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage accepted: %v", err)
	}

	reset, _ := svc.RequestPasswordReset(u.Email)
	if _, err := svc.ParseToken(reset); !errors.Is(err, ErrInvalidToken) {
		t.Fatal("reset tokens are not access tokens")
	}
}

// ============================================================
// Password reset
// ============================================================

func TestPasswordReset(t *testing.T) {
	svc, _ := newTestService(t)
	u, _ := svc.Register(validInput())

	tok, err := svc.RequestPasswordReset("ana@example.com")
	if err != nil || tok == "" {
		t.Fatalf("RequestPasswordReset: %q, %v", tok, err)
	}
	if err := svc.ResetPassword(tok, "newpass"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, err := svc.SignIn(u.Email, "newpass"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
	if _, err := svc.SignIn(u.Email, "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("old password still works")
	}

	if err := svc.ResetPassword(tok, "another"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("a used token must not work twice: %v", err)
	}
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	svc, _ := newTestService(t)
	tok, err := svc.RequestPasswordReset("nobody@example.com")
	if err != nil || tok != "" {
		t.Fatalf("unknown email should answer quietly: %q, %v", tok, err)
	}
}

func TestPasswordResetShortPassword(t *testing.T) {
	svc, _ := newTestService(t)
	svc.Register(validInput())
	tok, _ := svc.RequestPasswordReset("ana@example.com")
	if err := svc.ResetPassword(tok, "abc"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
