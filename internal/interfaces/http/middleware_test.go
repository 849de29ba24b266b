package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ispagents/internal/entities"
	"ispagents/internal/usecases"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

type staticProfileReader struct {
	profiles map[int]*entities.Profile
}

func (r *staticProfileReader) GetProfile(_ context.Context, userID int) (*entities.Profile, error) {
	return r.profiles[userID], nil
}

func signTestToken(t *testing.T, userID int, email string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":     userID,
		"email":       email,
		"role":        entities.RoleUser,
		"schema_name": "tenant_1",
		"exp":         time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newTestRouter(profiles map[int]*entities.Profile) *gin.Engine {
	gin.SetMode(gin.TestMode)
	provider := usecases.NewProfileProvider(&staticProfileReader{profiles: profiles})
	m := NewMiddleware(testSecret, provider)

	r := gin.New()
	api := r.Group("/api")
	api.Use(m.AuthOptional())
	api.GET("/access/check", m.accessCheck)
	api.GET("/dashboard", m.Protected(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/onboarding", m.ProtectedAs(usecases.PathOnboarding), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/admin/stats", m.AdminRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func doRequest(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestProtectedRedirectsAnonymousToAuth(t *testing.T) {
	r := newTestRouter(nil)

	w := doRequest(r, "/api/dashboard", "")
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	loc := w.Header().Get("Location")
	if loc != "/auth?redirect=%2Fapi%2Fdashboard&onboarding=1" {
		t.Errorf("location = %q", loc)
	}
}

func TestProtectedRedirectsIncompleteOnboarding(t *testing.T) {
	r := newTestRouter(map[int]*entities.Profile{
		1: {ID: 1, Role: entities.RoleUser, Plan: entities.PlanFree},
	})

	w := doRequest(r, "/api/dashboard", signTestToken(t, 1, "a@b.com"))
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != usecases.PathOnboarding {
		t.Errorf("location = %q, want %q", loc, usecases.PathOnboarding)
	}
}

func TestProtectedAllowsOnboardedUser(t *testing.T) {
	r := newTestRouter(map[int]*entities.Profile{
		1: {
			ID: 1, Role: entities.RoleUser, Plan: entities.PlanBasic,
			AgentSettings: entities.AgentSettings{OnboardingCompleted: true},
		},
	})

	w := doRequest(r, "/api/dashboard", signTestToken(t, 1, "a@b.com"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
}

func TestProtectedAsOnboardingNeverBlocksItself(t *testing.T) {
	r := newTestRouter(map[int]*entities.Profile{
		1: {ID: 1, Role: entities.RoleUser, Plan: entities.PlanFree},
	})

	w := doRequest(r, "/api/onboarding", signTestToken(t, 1, "a@b.com"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
}

func TestAdminRequiredDeniesWithoutRedirect(t *testing.T) {
	r := newTestRouter(map[int]*entities.Profile{
		1: {
			ID: 1, Role: entities.RoleUser, Plan: entities.PlanBasic,
			AgentSettings: entities.AgentSettings{OnboardingCompleted: true},
		},
	})

	w := doRequest(r, "/api/admin/stats", signTestToken(t, 1, "a@b.com"))
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "" {
		t.Errorf("admin denial must not redirect, got Location %q", loc)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["action"] != "go_back" {
		t.Errorf("denial body = %v", body)
	}
}

func TestAdminRequiredAllowsAdmin(t *testing.T) {
	r := newTestRouter(map[int]*entities.Profile{
		1: {ID: 1, Role: entities.RoleAdmin, Plan: entities.PlanEnterprise},
	})

	w := doRequest(r, "/api/admin/stats", signTestToken(t, 1, "root@b.com"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
}

func TestAdminRequiredDeniesAnonymous(t *testing.T) {
	r := newTestRouter(nil)

	w := doRequest(r, "/api/admin/stats", "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestAccessCheckReportsDecision(t *testing.T) {
	r := newTestRouter(map[int]*entities.Profile{
		1: {ID: 1, Role: entities.RoleUser, Plan: entities.PlanFree},
	})

	w := doRequest(r, "/api/access/check?path=/dashboard", signTestToken(t, 1, "a@b.com"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["state"] != "redirect_onboarding" {
		t.Errorf("state = %q, want redirect_onboarding", body["state"])
	}
	if body["target"] != usecases.PathOnboarding {
		t.Errorf("target = %q", body["target"])
	}
}

func TestAccessCheckAnonymousCarriesResumeQuery(t *testing.T) {
	r := newTestRouter(nil)

	w := doRequest(r, "/api/access/check?path=/billing", "")
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["state"] != "redirect_auth" {
		t.Errorf("state = %q, want redirect_auth", body["state"])
	}
	if body["target"] != "/auth?redirect=%2Fbilling&onboarding=1" {
		t.Errorf("target = %q", body["target"])
	}
}

func TestAuthOptionalIgnoresForgedToken(t *testing.T) {
	r := newTestRouter(nil)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, _ := forged.SignedString([]byte("wrong-secret"))

	w := doRequest(r, "/api/dashboard", signed)
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302 (treated as anonymous)", w.Code)
	}
}
