package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"ispagents/internal/entities"
	"ispagents/internal/usecases"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"
)

// profileWait caps how long a guard blocks on an unresolved profile
// before answering with a retryable status.
const profileWait = 3 * time.Second

type Middleware struct {
	jwtSecret    []byte
	profiles     *usecases.ProfileProvider
	rateLimiters map[string]*rate.Limiter
	mu           sync.Mutex
}

func NewMiddleware(secret string, profiles *usecases.ProfileProvider) *Middleware {
	return &Middleware{
		jwtSecret:    []byte(secret),
		profiles:     profiles,
		rateLimiters: make(map[string]*rate.Limiter),
	}
}

// AuthOptional parses the bearer token when present and stores the
// claims in the request context. It never aborts; the gates downstream
// decide what an anonymous request may reach.
func (m *Middleware) AuthOptional() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.Next()
			return
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			c.Set("user_id", claims["user_id"])
			c.Set("email", claims["email"])
			c.Set("role", claims["role"])
			c.Set("schema_name", claims["schema_name"])
		}

		c.Next()
	}
}

// AuthRequired rejects requests without a valid bearer token. Used by
// JSON endpoints that have no navigation to redirect.
func (m *Middleware) AuthRequired() gin.HandlerFunc {
	optional := m.AuthOptional()
	return func(c *gin.Context) {
		optional(c)
		if _, exists := c.Get("user_id"); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
			return
		}
	}
}

// Protected runs the route-protection gate: silent redirects for
// unauthenticated, wrong-role and not-onboarded requests, a retryable
// 503 while the profile is still resolving.
func (m *Middleware) Protected(requiredRoles ...string) gin.HandlerFunc {
	return m.ProtectedAs("", requiredRoles...)
}

// ProtectedAs is Protected with the requested path pinned to a known
// frontend route. The onboarding API group uses it so the gate treats
// those calls as the onboarding flow itself and never blocks them.
func (m *Middleware) ProtectedAs(requestedPath string, requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessionFromContext(c)

		var profile usecases.ProfileState
		if session.User != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), profileWait)
			profile = m.profiles.WaitReady(ctx, session.User.ID)
			cancel()
		}

		path := requestedPath
		if path == "" {
			path = c.Request.URL.Path
		}
		decision := usecases.EvaluateAccess(usecases.GateRequest{
			Session:       session,
			Profile:       profile,
			RequestedPath: path,
			RequiredRoles: requiredRoles,
		})

		switch decision.State {
		case usecases.GateLoading:
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
		case usecases.GateRedirectAuth:
			target := decision.Target + "?redirect=" + url.QueryEscape(decision.RequestedPath)
			if decision.AskOnboarding {
				target += "&onboarding=1"
			}
			c.Redirect(http.StatusFound, target)
			c.Abort()
		case usecases.GateRedirectRoleFallback, usecases.GateRedirectOnboarding:
			c.Redirect(http.StatusFound, decision.Target)
			c.Abort()
		default:
			if profile.Profile != nil {
				c.Set("profile", profile.Profile)
			}
			c.Next()
		}
	}
}

// accessCheck answers "what would the gate do" for a frontend route
// without performing the navigation. The SPA asks before rendering a
// view so the decision logic lives in one place.
func (m *Middleware) accessCheck(c *gin.Context) {
	session := sessionFromContext(c)

	var profile usecases.ProfileState
	if session.User != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), profileWait)
		profile = m.profiles.WaitReady(ctx, session.User.ID)
		cancel()
	}

	path := c.Query("path")
	if path == "" {
		path = usecases.PathClientDashboard
	}
	var roles []string
	if raw := c.Query("roles"); raw != "" {
		roles = strings.Split(raw, ",")
	}

	decision := usecases.EvaluateAccess(usecases.GateRequest{
		Session:       session,
		Profile:       profile,
		RequestedPath: path,
		RequiredRoles: roles,
		ExplicitRole:  c.Query("role"),
	})

	resp := gin.H{"state": decision.State.String()}
	if decision.Target != "" {
		resp["target"] = decision.Target
		if decision.State == usecases.GateRedirectAuth {
			target := decision.Target + "?redirect=" + url.QueryEscape(decision.RequestedPath)
			if decision.AskOnboarding {
				target += "&onboarding=1"
			}
			resp["target"] = target
		}
	}
	c.JSON(http.StatusOK, resp)
}

// AdminRequired guards admin-only sections. Unlike Protected it never
// redirects: non-admins get a blocking denial body with a back action.
func (m *Middleware) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessionFromContext(c)

		var profile usecases.ProfileState
		if session.User != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), profileWait)
			profile = m.profiles.WaitReady(ctx, session.User.ID)
			cancel()
		}

		switch usecases.EvaluateAdminAccess(session, profile) {
		case usecases.AdminGateLoading:
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
		case usecases.AdminGateDenied:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "Acesso restrito a administradores",
				"message": "Esta área é exclusiva para administradores da plataforma.",
				"action":  "go_back",
			})
		default:
			if profile.Profile != nil {
				c.Set("profile", profile.Profile)
			}
			c.Next()
		}
	}
}

// RequirePermission gates an endpoint on a resolved capability.
// Admin accounts pass implicitly through their role permission set.
func (m *Middleware) RequirePermission(perm usecases.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile := profileFromContext(c)
		if profile == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Profile not loaded"})
			return
		}

		roleType := profile.UserRoleType
		if profile.Role == entities.RoleAdmin {
			roleType = entities.RoleTypeAdmin
		}
		perms := usecases.ResolvePermissions(roleType, profile.Plan)
		if !perms.Has(perm) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Permission denied", "missing": string(perm)})
			return
		}

		c.Next()
	}
}

// RateLimitPerUser limits requests based on "user_id" from context (must follow an auth middleware)
func (m *Middleware) RateLimitPerUser(r rate.Limit, b int) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User identity not found for rate limiting"})
			return
		}

		key := strconv.FormatFloat(userID.(float64), 'f', 0, 64) // JWT numbers are float64 by default

		m.mu.Lock()
		limiter, exists := m.rateLimiters[key]
		if !exists {
			limiter = rate.NewLimiter(r, b)
			m.rateLimiters[key] = limiter
		}
		m.mu.Unlock()

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}

		c.Next()
	}
}

// CORSMiddleware allows Cross-Origin requests
func (m *Middleware) CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// SecurityHeaders adds security headers to prevent common attacks
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Writer.Header().Set("X-XSS-Protection", "1; mode=block")
		c.Writer.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Writer.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'")

		c.Next()
	}
}

// RequestSizeLimiter limits request body size to prevent DoS
func RequestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
