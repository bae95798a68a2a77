package handler

import (
	"errors"
	"strings"

	"excel_analytics/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the custom binding tags used by request models.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}
	return v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		_, err := model.ParseRole(fl.Field().String())
		return err == nil
	})
}

// validationErrors lists binding failures one entry per field
func validationErrors(err error) []gin.H {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []gin.H{{"msg": err.Error()}}
	}

	out := make([]gin.H, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
		out = append(out, gin.H{"field": field, "msg": validationMessage(field, fe)})
	}
	return out
}

func validationMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "Please include a valid email"
	case "min":
		return field + " must be at least " + fe.Param() + " characters"
	case "len":
		return field + " must be exactly " + fe.Param() + " characters"
	case "numeric":
		return field + " must contain only digits"
	case "role":
		return field + " must be one of user, admin"
	}
	return field + " is invalid"
}
