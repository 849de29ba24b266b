package usecases

import (
	"errors"
	"fmt"
	"testing"

	"ispagents/internal/entities"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserStore struct {
	byEmail map[string]*entities.User
	nextID  int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: make(map[string]*entities.User), nextID: 1}
}

func (s *fakeUserStore) Create(user *entities.User) error {
	user.ID = s.nextID
	s.nextID++
	s.byEmail[user.Email] = user
	return nil
}

func (s *fakeUserStore) GetByEmail(email string) (*entities.User, error) {
	return s.byEmail[email], nil
}

func (s *fakeUserStore) UpdateSchemaName(userID int, schema string) error {
	for _, u := range s.byEmail {
		if u.ID == userID {
			u.SchemaName = schema
			return nil
		}
	}
	return errors.New("user not found")
}

type fakeTenantProvisioner struct {
	fail bool
}

func (p *fakeTenantProvisioner) CreateTenantSchema(userID int) (string, error) {
	if p.fail {
		return "", errors.New("schema creation failed")
	}
	return fmt.Sprintf("tenant_%d", userID), nil
}

func newAuthForTest() (*AuthUsecase, *fakeUserStore) {
	store := newFakeUserStore()
	return NewAuthUsecase(store, &fakeTenantProvisioner{}, "test-secret"), store
}

func TestRegisterCreatesFreePlanTenant(t *testing.T) {
	auth, store := newAuthForTest()

	user, err := auth.Register("New.User@ISP.com ", "supersecret", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "new.user@isp.com" {
		t.Errorf("email not normalized: %q", user.Email)
	}
	if user.Plan != entities.PlanFree {
		t.Errorf("plan = %q, want free", user.Plan)
	}
	if user.Role != entities.RoleUser {
		t.Errorf("role = %q, want user", user.Role)
	}
	if user.UserRoleType != entities.RoleTypeGeral {
		t.Errorf("role type = %q, want geral default", user.UserRoleType)
	}
	if user.SchemaName != "tenant_1" {
		t.Errorf("schema = %q, want tenant_1", user.SchemaName)
	}
	if stored := store.byEmail["new.user@isp.com"]; stored == nil {
		t.Error("user not persisted")
	} else if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("supersecret")); err != nil {
		t.Error("stored hash does not match password")
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	auth, _ := newAuthForTest()
	if _, err := auth.Register("a@b.com", "short", ""); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("got %v, want ErrWeakPassword", err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	auth, _ := newAuthForTest()
	if _, err := auth.Register("dup@isp.com", "supersecret", ""); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := auth.Register("dup@isp.com", "supersecret", ""); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("got %v, want ErrEmailTaken", err)
	}
}

func TestRegisterRejectsAdminRoleType(t *testing.T) {
	auth, _ := newAuthForTest()
	if _, err := auth.Register("a@b.com", "supersecret", entities.RoleTypeAdmin); err == nil {
		t.Fatal("self-registration as admin role type must fail")
	}
}

func TestLoginIssuesTokenWithSessionClaims(t *testing.T) {
	auth, _ := newAuthForTest()
	if _, err := auth.Register("login@isp.com", "supersecret", entities.RoleTypeTecnico); err != nil {
		t.Fatalf("register: %v", err)
	}

	signed, err := auth.Login("login@isp.com", "supersecret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	token, err := jwt.Parse(signed, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["email"] != "login@isp.com" {
		t.Errorf("email claim = %v", claims["email"])
	}
	if claims["user_role_type"] != entities.RoleTypeTecnico {
		t.Errorf("user_role_type claim = %v", claims["user_role_type"])
	}
	if claims["schema_name"] != "tenant_1" {
		t.Errorf("schema_name claim = %v", claims["schema_name"])
	}
}

func TestLoginWrongPassword(t *testing.T) {
	auth, _ := newAuthForTest()
	if _, err := auth.Register("x@isp.com", "supersecret", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := auth.Login("x@isp.com", "wrongpassword"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("got %v, want ErrInvalidCredentials", err)
	}
	if _, err := auth.Login("missing@isp.com", "supersecret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: got %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	auth, store := newAuthForTest()
	if _, err := auth.Register("off@isp.com", "supersecret", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	store.byEmail["off@isp.com"].IsActive = false

	if _, err := auth.Login("off@isp.com", "supersecret"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("got %v, want ErrAccountDisabled", err)
	}
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	auth, store := newAuthForTest()
	if err := auth.EnsureAdmin("root@isp.com", "rootpassword"); err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	admin := store.byEmail["root@isp.com"]
	if admin == nil {
		t.Fatal("admin not created")
	}
	if admin.Role != entities.RoleAdmin || admin.Plan != entities.PlanEnterprise {
		t.Errorf("admin role/plan = %s/%s", admin.Role, admin.Plan)
	}

	if err := auth.EnsureAdmin("root@isp.com", "different"); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if store.byEmail["root@isp.com"] != admin {
		t.Error("second ensure replaced the existing admin")
	}
}
