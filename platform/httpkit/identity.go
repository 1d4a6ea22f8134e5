// Package httpkit provides HTTP identity helpers.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetUserID extracts the authenticated user ID from the gin context.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(ContextUserIDKey)
	if !ok {
		return uuid.Nil, false
	}

	userID, ok := value.(uuid.UUID)
	if !ok {
		return uuid.Nil, false
	}

	return userID, true
}

// MustGetUserID extracts the user ID or aborts with 401.
// Returns uuid.Nil and false when the request was aborted.
func MustGetUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := GetUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}
	return userID, true
}

// HasRole reports whether the authenticated user carries the given role.
func HasRole(c *gin.Context, role string) bool {
	value, ok := c.Get(ContextRolesKey)
	if !ok {
		return false
	}

	roles, ok := value.([]string)
	if !ok {
		return false
	}

	for _, item := range roles {
		if item == role {
			return true
		}
	}
	return false
}
