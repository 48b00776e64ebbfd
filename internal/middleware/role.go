package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"buildinspect/internal/domain/identity"
	"buildinspect/internal/pkg/response"
)

// ProfileResolver loads the caller's synced profile.
type ProfileResolver interface {
	Resolve(ctx context.Context, userID int64) (*identity.Profile, error)
}

// RoleRequired resolves the caller's profile from the database and rejects
// it unless it carries role. The token's role claim is only a hint; the
// profile is authoritative.
func RoleRequired(resolver ProfileResolver, role identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetInt64("user_id")
		if userID == 0 {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			c.Abort()
			return
		}

		p, err := resolver.Resolve(c.Request.Context(), userID)
		if err != nil {
			response.FromError(c, err)
			c.Abort()
			return
		}

		if p.Role != role {
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: "+role.String()+" role required")
			c.Abort()
			return
		}

		c.Set("profile", p)
		c.Set("role", p.Role.String())
		c.Next()
	}
}

// Roles builds RoleRequired middlewares bound to one resolver.
type Roles struct {
	resolver ProfileResolver
}

func NewRoles(resolver ProfileResolver) Roles {
	return Roles{resolver: resolver}
}

func (r Roles) Require(role identity.Role) gin.HandlerFunc {
	return RoleRequired(r.resolver, role)
}
