package utils

import (
	"context"
	"errors"
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const authzModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// DefaultPolicies grant back-office routes; customers hold no /api/admin policy.
var DefaultPolicies = [][]string{
	{"admin", "/api/admin/*", "*"},
	{"staff", "/api/admin/transactions", "POST"},
	{"staff", "/api/admin/appointments", "GET"},
	{"staff", "/api/admin/work-orders", "GET"},
}

var DefaultRoleInheritance = [][]string{
	{"admin", "staff"},
}

// NewEnforcer builds the RBAC enforcer. A nil adapter keeps policies in memory.
func NewEnforcer(adapter persist.Adapter) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(authzModel)
	if err != nil {
		return nil, err
	}

	var e *casbin.Enforcer
	if adapter != nil {
		e, err = casbin.NewEnforcer(m, adapter)
	} else {
		e, err = casbin.NewEnforcer(m)
	}
	if err != nil {
		return nil, err
	}

	// existing rules are skipped, so seeding on every boot is safe
	if _, err := e.AddPolicies(DefaultPolicies); err != nil {
		return nil, err
	}
	if _, err := e.AddGroupingPolicies(DefaultRoleInheritance); err != nil {
		return nil, err
	}

	return e, nil
}

// Authorize checks the caller's role against the request path and method.
func Authorize(e *casbin.Enforcer) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := CurrentRole(c)
		allowed, err := e.Enforce(role, c.Request.URL.Path, c.Request.Method)
		if err != nil {
			log.WithError(err).WithField("role", role).Error("authorization check failed")
			RespondWithError(c, http.StatusInternalServerError, "Authorization failed")
			return
		}
		if !allowed {
			RespondWithError(c, http.StatusForbidden, "Forbidden")
			return
		}
		c.Next()
	}
}

var ErrAccountNotFound = errors.New("account not found")

// AccountLookup returns the stored role of a customer and whether the account is active.
type AccountLookup func(ctx context.Context, customerID uuid.UUID) (role string, active bool, err error)

// RefreshRole replaces the role carried by the token with the stored one so role
// changes and deactivation apply before the token expires.
func RefreshRole(lookup AccountLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID, ok := CurrentCustomerID(c)
		if !ok {
			RespondWithError(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		role, active, err := lookup(c.Request.Context(), customerID)
		switch {
		case errors.Is(err, ErrAccountNotFound), err == nil && !active:
			RespondWithError(c, http.StatusUnauthorized, "Account is disabled")
			return
		case err != nil:
			log.WithError(err).WithField("customer", customerID).Error("account lookup failed")
			RespondWithError(c, http.StatusInternalServerError, "Authorization failed")
			return
		}

		c.Set(ContextRole, role)
		c.Next()
	}
}
