package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"swiftaza/internal/apierror"
	"swiftaza/internal/middleware"
	"swiftaza/internal/repository"
	"swiftaza/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// gt=0 and required work on it.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string)
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps service and repository errors to a status and a safe
// message. Anything unrecognised is logged and answered with a bare 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrUnknownRole):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	case errors.Is(err, service.ErrCodeRejected):
		c.JSON(http.StatusUnauthorized, apierror.New("Code Expired"))
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidPin):
		c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, apierror.New("Not found"))
	case errors.Is(err, service.ErrDuplicateUser):
		c.JSON(http.StatusConflict, apierror.Conflict("New email or full name required to proceed"))
	case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrIntegrity):
		c.JSON(http.StatusConflict, apierror.Conflict("Request conflicts with existing data"))
	case errors.Is(err, service.ErrInsufficientFunds):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	default:
		log.Error().Err(err).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("path", c.FullPath()).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, apierror.New("An unexpected error occurred"))
	}
}

// caller returns the authenticated claims or answers 401.
func caller(c *gin.Context) (*middleware.JWTClaims, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, apierror.New("User is not logged in"))
		return nil, false
	}
	return claims, true
}

func pathParam(c *gin.Context, name string) (string, bool) {
	v := strings.TrimSpace(c.Param(name))
	if v == "" {
		c.JSON(http.StatusBadRequest, apierror.New(name+" is required"))
		return "", false
	}
	return v, true
}

// permManageUsers lets a caller act on accounts other than their own.
const permManageUsers = "adm101"

// isManager reports whether the caller may act on any account. On a checker
// failure it answers 500 and returns ok=false.
func isManager(c *gin.Context, guard middleware.PermissionChecker, claims *middleware.JWTClaims) (manager, ok bool) {
	if guard == nil {
		return false, true
	}
	manager, err := guard.HasAny(c.Request.Context(), claims.ID(), permManageUsers)
	if err != nil {
		respondError(c, err)
		return false, false
	}
	return manager, true
}

func forbidOtherAccount(c *gin.Context) {
	c.JSON(http.StatusForbidden, apierror.New("Not allowed to act on another account"))
}

// ownsKey reports whether key names the caller by id or by the email in the token.
func ownsKey(claims *middleware.JWTClaims, key string) bool {
	key = strings.TrimSpace(key)
	return key == claims.UserID || (claims.Email != "" && strings.EqualFold(key, claims.Email))
}
