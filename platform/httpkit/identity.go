// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity is the authenticated actor, abstracted from gin so services can
// take it without depending on the web framework.
type Identity interface {
	UserID() uuid.UUID
	Email() string
	Name() string
	Roles() []string
	HasRole(role string) bool
	IsAuthenticated() bool
}

type identity struct {
	userID        uuid.UUID
	email         string
	name          string
	roles         []string
	authenticated bool
}

func (i *identity) UserID() uuid.UUID        { return i.userID }
func (i *identity) Email() string            { return i.email }
func (i *identity) Name() string             { return i.name }
func (i *identity) Roles() []string          { return i.roles }
func (i *identity) HasRole(role string) bool { return slices.Contains(i.roles, role) }
func (i *identity) IsAuthenticated() bool    { return i.authenticated }

// NewIdentity builds an authenticated Identity. Used by tests and background
// jobs acting on behalf of a user.
func NewIdentity(userID uuid.UUID, email, name string, roles ...string) Identity {
	return &identity{userID: userID, email: email, name: name, roles: roles, authenticated: true}
}

// GetIdentity extracts the Identity placed on the context by AuthRequired.
func GetIdentity(c *gin.Context) Identity {
	userID, ok := c.Get(ContextUserIDKey)
	if !ok {
		return &identity{}
	}
	uid, ok := userID.(uuid.UUID)
	if !ok {
		return &identity{}
	}

	id := &identity{userID: uid, authenticated: true}
	id.email = c.GetString(ContextEmailKey)
	id.name = c.GetString(ContextNameKey)
	if roles, ok := c.Get(ContextRolesKey); ok {
		id.roles, _ = roles.([]string)
	}
	return id
}

// MustGetIdentity aborts with 401 when no actor is authenticated.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Detail: "Não autenticado"})
		return nil
	}
	return id
}
