package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"loyalty-backend/config"
	"loyalty-backend/models"
	"loyalty-backend/utils"
)

func currentCustomer(c *gin.Context) (uuid.UUID, bool) {
	id, ok := utils.CurrentCustomerID(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "Customer ID not found in context")
	}
	return id, ok
}

// LookupAccount reads the current role and active flag of a customer.
func LookupAccount(ctx context.Context, customerID uuid.UUID) (string, bool, error) {
	var account struct {
		Role     string
		IsActive bool
	}
	err := config.DB.WithContext(ctx).Model(&models.Customer{}).
		Select("role", "is_active").
		Where("id = ?", customerID).
		Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, utils.ErrAccountNotFound
	}
	return account.Role, account.IsActive, err
}

func isStaff(c *gin.Context) bool {
	role := utils.CurrentRole(c)
	return role == models.RoleStaff || role == models.RoleAdmin
}

func parseIDParam(c *gin.Context, name, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+resource+" ID format")
		return uuid.Nil, false
	}
	return id, true
}

// respondDBError maps lookup failures to 404 and everything else to a logged 500.
func respondDBError(c *gin.Context, err error, resource string) {
	var nf *utils.NotFoundError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.RespondWithError(c, http.StatusNotFound, capitalize(resource)+" not found")
	case errors.As(err, &nf):
		utils.RespondWithError(c, http.StatusNotFound, capitalize(nf.Resource)+" not found")
	default:
		log.WithError(err).WithFields(log.Fields{
			"resource": resource,
			"path":     c.FullPath(),
		}).Error("database error")
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// badRequestError carries a client-facing validation message out of a transaction.
type badRequestError string

func errBadRequest(msg string) error { return badRequestError(msg) }

func (e badRequestError) Error() string { return string(e) }
