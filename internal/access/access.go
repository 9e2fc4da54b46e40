// Package access resolves actor roles from the configured manager allowlist.
package access

import (
	"strings"

	"ecoguard_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Role is the privilege class of an actor.
type Role string

const (
	RoleClient  Role = "cliente"
	RoleManager Role = "gestor"
)

// Resolver decides roles from configuration only; it never consults storage.
type Resolver struct {
	managers map[string]struct{}
}

func NewResolver(managerEmails []string) *Resolver {
	managers := make(map[string]struct{}, len(managerEmails))
	for _, email := range managerEmails {
		normalized := strings.ToLower(strings.TrimSpace(email))
		if normalized != "" {
			managers[normalized] = struct{}{}
		}
	}
	return &Resolver{managers: managers}
}

// RoleOf returns RoleManager iff email is on the allowlist.
func (r *Resolver) RoleOf(email string) Role {
	if _, ok := r.managers[strings.ToLower(strings.TrimSpace(email))]; ok {
		return RoleManager
	}
	return RoleClient
}

// RolesFor implements httpkit.RoleResolver.
func (r *Resolver) RolesFor(email string) []string {
	return []string{string(r.RoleOf(email))}
}

// Actor is the acting user as seen by services.
type Actor struct {
	UserID uuid.UUID
	Email  string
	Name   string
	Role   Role
}

func (a Actor) IsManager() bool {
	return a.Role == RoleManager
}

// FromIdentity converts the HTTP identity into an Actor.
func FromIdentity(id httpkit.Identity) Actor {
	role := RoleClient
	if id.HasRole(string(RoleManager)) {
		role = RoleManager
	}
	return Actor{UserID: id.UserID(), Email: id.Email(), Name: id.Name(), Role: role}
}

// MustGetActor resolves the actor for a request, aborting with 401 when
// the request is unauthenticated.
func MustGetActor(c *gin.Context) (Actor, bool) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return Actor{}, false
	}
	return FromIdentity(id), true
}

var _ httpkit.RoleResolver = (*Resolver)(nil)
