package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sadopc/suivi/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidInput       = errors.New("invalid input")
)

const (
	HomeAdmin    = "/admin"
	HomeEmployee = "/suivi-des-activity"

	tokenAccess = "access"
	tokenReset  = "reset"
)

// Store is the subset of *store.Store used for accounts.
type Store interface {
	CreateUser(u store.User) (*store.User, error)
	GetUser(id string) (*store.User, error)
	GetUserByEmail(email string) (*store.User, error)
	SetPasswordHash(id, hash string) error
}

type Config struct {
	Secret    string
	TokenTTL  time.Duration
	ResetTTL  time.Duration
	Positions []string
	// bcrypt cost, bcrypt.DefaultCost when zero
	Cost   int
	Logger *zap.Logger
}

type Service struct {
	store     Store
	secret    []byte
	tokenTTL  time.Duration
	resetTTL  time.Duration
	positions []string
	cost      int
	logger    *zap.Logger
	validate  *validator.Validate
	now       func() time.Time
}

func NewService(s Store, cfg Config) *Service {
	if cfg.Cost == 0 {
		cfg.Cost = bcrypt.DefaultCost
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.ResetTTL == 0 {
		cfg.ResetTTL = time.Hour
	}
	return &Service{
		store:     s,
		secret:    []byte(cfg.Secret),
		tokenTTL:  cfg.TokenTTL,
		resetTTL:  cfg.ResetTTL,
		positions: cfg.Positions,
		cost:      cfg.Cost,
		logger:    cfg.Logger,
		validate:  validator.New(),
		now:       time.Now,
	}
}

// Home is the landing route for u after sign in.
func Home(u *store.User) string {
	if u.IsAdmin() {
		return HomeAdmin
	}
	return HomeEmployee
}

// InputError lists the fields that failed validation, keyed by JSON name.
type InputError struct {
	Fields map[string]string
}

func (e *InputError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	slices.Sort(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n + ": " + e.Fields[n]
	}
	return "invalid input: " + strings.Join(parts, ", ")
}

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

func (s *Service) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[jsonName(fe.Field())] = fe.Tag()
	}
	return &InputError{Fields: fields}
}

// jsonName lowercases the first letter: FirstName -> firstName.
func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Position        string `json:"position" validate:"required"`
}

// Register creates an active employee account.
func (s *Service) Register(in RegisterInput) (*store.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := s.check(in); err != nil {
		return nil, err
	}
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if len(s.positions) > 0 && !slices.Contains(s.positions, in.Position) {
		return nil, &InputError{Fields: map[string]string{"position": "oneof"}}
	}

	return s.createAccount(store.User{
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Position:  in.Position,
		Role:      store.RoleEmployee,
		IsActive:  true,
	}, in.Password)
}

// CreateAccount is the administrative path: any role, no confirmation.
func (s *Service) CreateAccount(u store.User, password string) (*store.User, error) {
	if err := s.check(struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=6"`
	}{u.Email, password}); err != nil {
		return nil, err
	}
	u.IsActive = true
	return s.createAccount(u, password)
}

func (s *Service) createAccount(u store.User, password string) (*store.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)

	created, err := s.store.CreateUser(u)
	if err != nil {
		return nil, err
	}
	s.logger.Info("account created", zap.String("user", created.ID), zap.String("role", string(created.Role)))
	return created, nil
}

// SignIn checks the credentials. Unknown email and wrong password are
// reported the same way.
func (s *Service) SignIn(email, password string) (*store.User, error) {
	u, err := s.store.GetUserByEmail(email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}
	return u, nil
}

// Claims is what a verified access token carries.
type Claims struct {
	UserID    string
	Email     string
	Role      store.Role
	ExpiresAt time.Time
}

func (s *Service) sign(claims jwt.MapClaims) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("no signing secret configured")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// IssueToken signs an access token for u.
func (s *Service) IssueToken(u *store.User) (string, error) {
	now := s.now()
	return s.sign(jwt.MapClaims{
		"sub":   u.ID,
		"email": u.Email,
		"role":  string(u.Role),
		"typ":   tokenAccess,
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	})
}

func (s *Service) parse(token, typ string) (jwt.MapClaims, error) {
	if len(s.secret) == 0 {
		return nil, ErrInvalidToken
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !claims.VerifyExpiresAt(s.now().Unix(), true) {
		return nil, ErrInvalidToken
	}
	if t, _ := claims["typ"].(string); t != typ {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseToken verifies an access token.
func (s *Service) ParseToken(token string) (Claims, error) {
	mc, err := s.parse(token, tokenAccess)
	if err != nil {
		return Claims{}, err
	}
	sub, _ := mc["sub"].(string)
	if sub == "" {
		return Claims{}, ErrInvalidToken
	}
	email, _ := mc["email"].(string)
	role, _ := mc["role"].(string)
	exp, _ := mc["exp"].(float64)
	return Claims{
		UserID:    sub,
		Email:     email,
		Role:      store.Role(role),
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}

// fingerprint ties a reset token to the password hash it was issued
// against, so the token stops working once used.
func fingerprint(hash string) string {
	sum := sha256.Sum256([]byte(hash))
	return hex.EncodeToString(sum[:8])
}

// RequestPasswordReset issues a reset token for an active account. There
// is no mail transport: the token is logged. The result is "" with a nil
// error for unknown or disabled accounts.
func (s *Service) RequestPasswordReset(email string) (string, error) {
	u, err := s.store.GetUserByEmail(email)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Info("password reset for unknown email")
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if !u.IsActive {
		return "", nil
	}

	now := s.now()
	token, err := s.sign(jwt.MapClaims{
		"sub": u.ID,
		"typ": tokenReset,
		"pwh": fingerprint(u.PasswordHash),
		"iat": now.Unix(),
		"exp": now.Add(s.resetTTL).Unix(),
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("password reset requested", zap.String("user", u.ID), zap.String("token", token))
	return token, nil
}

// ResetPassword sets a new password using a token from RequestPasswordReset.
func (s *Service) ResetPassword(token, password string) error {
	if err := s.check(struct {
		Password string `validate:"required,min=6"`
	}{password}); err != nil {
		return err
	}
	mc, err := s.parse(token, tokenReset)
	if err != nil {
		return err
	}
	sub, _ := mc["sub"].(string)
	u, err := s.store.GetUser(sub)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidToken
	}
	if err != nil {
		return err
	}
	if pwh, _ := mc["pwh"].(string); pwh != fingerprint(u.PasswordHash) {
		return ErrInvalidToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.SetPasswordHash(u.ID, string(hash)); err != nil {
		return err
	}
	s.logger.Info("password reset", zap.String("user", u.ID))
	return nil
}
