package usecases

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ispagents/internal/entities"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrWeakPassword       = errors.New("auth: password must be at least 8 characters")
	ErrEmailTaken         = errors.New("auth: email already registered")
	ErrAccountDisabled    = errors.New("auth: account disabled")
)

// UserStore is the persistence surface the auth usecase needs.
type UserStore interface {
	Create(user *entities.User) error
	GetByEmail(email string) (*entities.User, error)
	UpdateSchemaName(userID int, schema string) error
}

// TenantProvisioner creates the per-user tenant schema at signup.
type TenantProvisioner interface {
	CreateTenantSchema(userID int) (string, error)
}

type AuthUsecase struct {
	users     UserStore
	tenants   TenantProvisioner
	jwtSecret []byte
}

func NewAuthUsecase(users UserStore, tenants TenantProvisioner, secret string) *AuthUsecase {
	return &AuthUsecase{
		users:     users,
		tenants:   tenants,
		jwtSecret: []byte(secret),
	}
}

// Register creates a user on the free plan with a fresh tenant schema.
// New accounts start with onboarding incomplete; the gate routes them
// through /onboarding on first login.
func (uc *AuthUsecase) Register(email, password, userRoleType string) (*entities.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("auth: invalid email %q", email)
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	existing, err := uc.users.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	if userRoleType == "" {
		userRoleType = entities.RoleTypeGeral
	}
	switch userRoleType {
	case entities.RoleTypeTecnico, entities.RoleTypeComercial, entities.RoleTypeGeral:
	default:
		return nil, fmt.Errorf("auth: invalid role type %q", userRoleType)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Email:        email,
		PasswordHash: string(hashed),
		Role:         entities.RoleUser,
		Plan:         entities.PlanFree,
		UserRoleType: userRoleType,
		IsActive:     true,
	}
	if err := uc.users.Create(user); err != nil {
		return nil, err
	}

	schema, err := uc.tenants.CreateTenantSchema(user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth: provision tenant: %w", err)
	}
	if err := uc.users.UpdateSchemaName(user.ID, schema); err != nil {
		return nil, err
	}
	user.SchemaName = schema

	return user, nil
}

// Login authenticates and returns a signed session token.
func (uc *AuthUsecase) Login(email, password string) (string, error) {
	user, err := uc.users.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", ErrAccountDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":        user.ID,
		"email":          user.Email,
		"role":           user.Role,
		"plan":           user.Plan,
		"user_role_type": user.UserRoleType,
		"schema_name":    user.SchemaName,
		"exp":            time.Now().Add(24 * time.Hour).Unix(),
	})

	signed, err := token.SignedString(uc.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// EnsureAdmin creates the root admin account if none exists (called on
// startup). Admin accounts never pass through onboarding.
func (uc *AuthUsecase) EnsureAdmin(email, password string) error {
	user, err := uc.users.GetByEmail(email)
	if err != nil {
		return err
	}
	if user != nil {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return uc.users.Create(&entities.User{
		Email:        email,
		PasswordHash: string(hashed),
		Role:         entities.RoleAdmin,
		Plan:         entities.PlanEnterprise,
		UserRoleType: entities.RoleTypeAdmin,
		IsActive:     true,
	})
}
