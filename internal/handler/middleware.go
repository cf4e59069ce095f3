package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/seekerapp/seeker-auth/internal/domain"
	"github.com/seekerapp/seeker-auth/internal/service"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

const (
	requestIDKey = "request_id"
	principalKey = "principal"

	maxRequestIDLength = 128
)

// RequestIDMiddleware reuses the caller's X-Request-ID when it is sane and
// generates one otherwise.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.New().String()
		}

		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)

		c.Next()
	}
}

// RequestID returns the id assigned by RequestIDMiddleware.
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// RequireAuth rejects requests without a valid bearer token of an active
// account.
func RequireAuth(authn *service.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := authn.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			if errors.Is(err, service.ErrNoCredential) {
				err = domain.NewUnauthorizedError("Authorization header is required", err)
			}
			c.Header("WWW-Authenticate", "Bearer")
			respondError(c, err)
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// OptionalAuth resolves the caller when a bearer token is present and lets
// anonymous requests through.
func OptionalAuth(authn *service.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := authn.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			if errors.Is(err, service.ErrNoCredential) {
				c.Next()
				return
			}
			respondError(c, err)
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireVerified must run after RequireAuth.
func RequireVerified() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := service.RequireVerified(mustPrincipal(c).Account); err != nil {
			respondError(c, err)
			return
		}
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := service.RequireRole(mustPrincipal(c).Account, role); err != nil {
			respondError(c, err)
			return
		}
		c.Next()
	}
}

// CurrentPrincipal returns the caller resolved by RequireAuth or
// OptionalAuth, if any.
func CurrentPrincipal(c *gin.Context) (*service.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	principal, ok := v.(*service.Principal)
	return principal, ok
}

func mustPrincipal(c *gin.Context) *service.Principal {
	principal, ok := CurrentPrincipal(c)
	if !ok {
		panic("handler: route is missing RequireAuth")
	}
	return principal
}
