package handler

import (
	"net/http"
	"reflect"

	"posledger/internal/apierror"
	"posledger/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// actor extracts the authenticated user and business ids from the JWT claims.
func actor(c *gin.Context) (userID, businessID uuid.UUID) {
	claims := middleware.GetClaims(c)
	userID, _ = uuid.Parse(claims.UserID)
	businessID, _ = uuid.Parse(claims.BusinessID)
	return userID, businessID
}

// fail maps a service error onto the right HTTP status and body.
func fail(c *gin.Context, err error) {
	status, body := apierror.FromErr(err)
	c.JSON(status, body)
}
