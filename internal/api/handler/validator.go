package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/labstack/echo/v4"
)

// validationMessages maps "<StructField>.<tag>" to the message returned to
// the client.
var validationMessages = map[string]string{
	"Nome.notblank":       "Nome é obrigatório",
	"Email.notblank":      "Email é obrigatório",
	"Email.email":         "Email inválido",
	"Senha.notblank":      "Senha é obrigatória",
	"Endereco.notblank":   "Endereço é obrigatório",
	"SenhaAtual.notblank": "Senha atual é obrigatória",
	"NovaSenha.notblank":  "Nova senha é obrigatória",
	"IDUser.notblank":     "id é obrigatório",
	"Role.notblank":       "role é obrigatório",
}

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &echoValidator{v: v}
}

// Validate satisfies the echo.Validator interface. Only the first failing
// field is reported.
func (ev *echoValidator) Validate(i any) error {
	err := ev.v.Struct(i)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return echo.NewHTTPError(http.StatusBadRequest, fieldError(ve[0]))
	}
	return err
}

// fieldError converts a single FieldError into a client-facing message.
func fieldError(fe validator.FieldError) string {
	if msg, ok := validationMessages[fe.StructField()+"."+fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "notblank", "required":
		return fe.Field() + " é obrigatório"
	case "email":
		return fe.Field() + " inválido"
	default:
		return fmt.Sprintf("%s inválido (%s)", fe.Field(), fe.Tag())
	}
}

// bindAndValidate decodes the body into req and validates it.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Requisição inválida")
	}
	return c.Validate(req)
}
