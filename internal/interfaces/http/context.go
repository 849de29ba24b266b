package http

import (
	"ispagents/internal/entities"
	"ispagents/internal/usecases"

	"github.com/gin-gonic/gin"
)

// sessionFromContext builds the gate's session snapshot from the JWT
// claims an auth middleware stored earlier. Token parsing is
// synchronous, so the session is never in a loading state here.
func sessionFromContext(c *gin.Context) usecases.Session {
	userID := getUserID(c)
	if userID == 0 {
		return usecases.Session{}
	}

	email, _ := c.Get("email")
	emailStr, _ := email.(string)
	return usecases.Session{User: &usecases.Identity{ID: userID, Email: emailStr}}
}

// profileFromContext returns the profile a gate middleware attached.
func profileFromContext(c *gin.Context) *entities.Profile {
	v, exists := c.Get("profile")
	if !exists {
		return nil
	}
	profile, _ := v.(*entities.Profile)
	return profile
}

// getUserID extracts the user ID from JWT context.
func getUserID(c *gin.Context) int {
	userIDFloat, exists := c.Get("user_id")
	if !exists {
		return 0
	}
	if uid, ok := userIDFloat.(float64); ok {
		return int(uid)
	}
	return 0
}

// getSchemaName extracts schema_name from JWT context, defaults to "public"
func getSchemaName(c *gin.Context) string {
	schema, exists := c.Get("schema_name")
	if !exists || schema == nil {
		return "public"
	}
	if s, ok := schema.(string); ok && s != "" {
		return s
	}
	return "public"
}
