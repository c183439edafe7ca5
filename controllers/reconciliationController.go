package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/config"
	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/models"
	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/utils"
	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/workflow"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// writeDomainError maps the domain error taxonomy onto HTTP statuses. Unknown
// errors are reported as 500 without leaking gorm internals to the client.
func writeDomainError(c *gin.Context, err error) {
	var validationErr *utils.ValidationError
	var transitionErr *utils.InvalidTransitionError
	var conflictErr *utils.ConflictError
	var notFoundErr *utils.NotFoundError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": validationErr.Message})
	case errors.As(err, &transitionErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": transitionErr.Error()})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"error": conflictErr.Error()})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func bindError(err error) interface{} {
	var bindingErrs validator.ValidationErrors
	if errors.As(err, &bindingErrs) {
		return utils.ProcessValidationErrors(bindingErrs)
	}
	return err.Error()
}

func CreateReconciliationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewReconciliation
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindError(err)})
			return
		}

		rec, err := models.CreateReconciliation(c.Request.Context(), &input)
		if err != nil {
			writeDomainError(c, err)
			return
		}

		c.JSON(http.StatusCreated, rec)
	}
}

func GetReconciliationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reconciliation id"})
			return
		}

		rec, err := models.GetReconciliation(c.Request.Context(), id)
		if err != nil {
			writeDomainError(c, err)
			return
		}

		c.JSON(http.StatusOK, rec)
	}
}

func ListReconciliationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter models.VarianceFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter"})
			return
		}
		if err := filter.Validate(); err != nil {
			writeDomainError(c, err)
			return
		}

		limit := intQuery(c, "limit", defaultPageSize)
		if limit <= 0 || limit > maxPageSize {
			limit = defaultPageSize
		}
		offset := intQuery(c, "offset", 0)
		if offset < 0 {
			offset = 0
		}

		recs, err := models.GetFilteredReconciliations(c.Request.Context(), &filter, limit, offset)
		if err != nil {
			writeDomainError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"reconciliations": recs,
			"limit":           limit,
			"offset":          offset,
			"count":           len(recs),
		})
	}
}

// ReconciliationActionHandler drives the approval workflow. Approve and reject
// are reviewer decisions, so they are restricted to manager and admin roles;
// investigate only flags a record for follow-up and stays open to any
// authenticated user.
func ReconciliationActionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reconciliation id"})
			return
		}

		var input workflow.ReconciliationActionInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindError(err)})
			return
		}

		if input.Action == models.ReconciliationActionApprove || input.Action == models.ReconciliationActionReject {
			role, _ := utils.GetRoleFromContext(c.Request.Context())
			if !strings.EqualFold(role, "manager") && !strings.EqualFold(role, "admin") {
				c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
		}

		rec, err := workflow.ProcessReconciliationAction(c.Request.Context(), config.GetLogger(), id, &input)
		if err != nil {
			writeDomainError(c, err)
			return
		}

		c.JSON(http.StatusOK, rec)
	}
}

func intQuery(c *gin.Context, key string, def int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
