package middleware

import (
	"context"

	"tourbook/internal/apperr"
	"tourbook/internal/domain/auth"

	"github.com/gin-gonic/gin"
)

const resourceContextKey = "resource"

// Gate authorizes a request for an established identity
type Gate func(c *gin.Context, id *Identity) error

// Protect requires an identity and then runs gates in order. The first failing gate aborts the request.
func Protect(gates ...Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := CurrentIdentity(c)
		if id == nil {
			AbortWithError(c, apperr.Unauthenticated(apperr.MsgLoginRequired))
			return
		}
		for _, gate := range gates {
			if err := gate(c, id); err != nil {
				AbortWithError(c, err)
				return
			}
		}
		c.Next()
	}
}

// Roles restricts access to the given roles
func Roles(roles ...auth.Role) Gate {
	return func(c *gin.Context, id *Identity) error {
		if !id.User.HasRole(roles...) {
			return apperr.Forbidden(apperr.MsgRoleForbidden)
		}
		return nil
	}
}

// OwnedResource is a record with an owning user
type OwnedResource interface {
	OwnerID() string
}

// Loader fetches the resource named by a route parameter
type Loader[T OwnedResource] func(ctx context.Context, id string) (T, error)

// Owner loads the resource named by the route parameter once and allows the owner or a
// privileged role. The loaded resource is stored for the handler, see Resource.
func Owner[T OwnedResource](param, resource string, load Loader[T], privileged ...auth.Role) Gate {
	return func(c *gin.Context, id *Identity) error {
		rec, err := load(c.Request.Context(), c.Param(param))
		if err != nil {
			return err
		}
		if rec.OwnerID() != id.User.ID && !id.User.HasRole(privileged...) {
			return apperr.OwnershipForbidden(resource)
		}
		c.Set(resourceContextKey, rec)
		return nil
	}
}

// Resource returns the record loaded by an Owner gate
func Resource[T OwnedResource](c *gin.Context) (T, bool) {
	var zero T
	v, exists := c.Get(resourceContextKey)
	if !exists {
		return zero, false
	}
	rec, ok := v.(T)
	return rec, ok
}
