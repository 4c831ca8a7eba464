package appstate

import (
	"context"
	"errors"
	"net/http"

	"factory-erp/internal/auth"
	"factory-erp/internal/users"
	"factory-erp/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Source reads what Build needs. users.Repository satisfies it.
type Source interface {
	FindByID(ctx context.Context, id string) (users.User, error)
	ListAccess(ctx context.Context, userID string) ([]users.CompanyAccess, error)
}

var ErrUnknownUser = errors.New("appstate: user not found")

// Build assembles State for an authenticated identity. The current company
// comes from the token; super-admin comes from the stored user so a
// demotion takes effect without waiting for token expiry.
func Build(ctx context.Context, src Source, id auth.Identity) (State, error) {
	u, err := src.FindByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return State{}, ErrUnknownUser
		}
		return State{}, err
	}
	list, err := src.ListAccess(ctx, u.ID)
	if err != nil {
		return State{}, err
	}
	return State{
		User:             u,
		Companies:        list,
		CurrentCompanyID: id.CompanyID,
	}, nil
}

// Loader builds State once per request. It must run after
// auth.RequireAccessToken.
func Loader(src Source) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := auth.IdentityFrom(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		s, err := Build(c.Request.Context(), src, id)
		if err != nil {
			if errors.Is(err, ErrUnknownUser) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
			logger.FromGin(c).Error("load app state failed", "user_id", id.UserID, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		if !s.User.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account disabled"})
			return
		}

		c.Request = c.Request.WithContext(With(c.Request.Context(), s))
		c.Next()
	}
}

// FromGin returns the request's State, or the zero State.
func FromGin(c *gin.Context) State {
	s, _ := From(c.Request.Context())
	return s
}
