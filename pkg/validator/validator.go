package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var cedulaPattern = regexp.MustCompile(`^[0-9]{3}-?[0-9]{6,7}-?[0-9]{4}[A-Za-z]$`)

// RegisterCustom installs domain validators on gin's binding engine. Call
// once at startup.
func RegisterCustom() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("cedula", validCedula)
}

// validCedula accepts a national ID with or without dashes.
func validCedula(fl validator.FieldLevel) bool {
	return cedulaPattern.MatchString(fl.Field().String())
}
