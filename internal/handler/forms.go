package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := f.Tag.Get("form")
		if tag == "" {
			tag = f.Tag.Get("json")
		}
		name := strings.SplitN(tag, ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var fieldMessages = map[string]string{
	"required": "This field is required.",
	"email":    "Enter a valid email address.",
	"min":      "Must be at least %s characters.",
	"max":      "Must be no longer than %s characters.",
	"eqfield":  "Passwords do not match.",
	"gte":      "Must be at least %s.",
	"oneof":    "Must be one of: %s.",
}

// validateForm returns a message per invalid field, keyed by form name.
func validateForm(v any) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Tag()]
		if !ok {
			msg = "Invalid value."
		} else if strings.Contains(msg, "%s") {
			msg = fmt.Sprintf(msg, strings.ReplaceAll(fe.Param(), " ", ", "))
		}
		out[fe.Field()] = msg
	}
	return out
}

type loginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type signupForm struct {
	FullName        string `form:"full_name" validate:"required,max=100"`
	ContactNumber   string `form:"contact_number" validate:"required,max=30"`
	Email           string `form:"email" validate:"required,email,max=254"`
	Password        string `form:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

type resetRequestForm struct {
	Email string `form:"email" validate:"required,email"`
}

type resetConfirmForm struct {
	Token           string `form:"token" validate:"required"`
	Password        string `form:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

type viewModeForm struct {
	Mode string `form:"mode" validate:"required,oneof=admin member"`
}

// decodeForm fills the string fields of dst from the request form using
// their form tags. Values are trimmed, except passwords.
func decodeForm(r *http.Request, dst any) error {
	if err := r.ParseForm(); err != nil {
		return err
	}
	rv := reflect.ValueOf(dst).Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		name := f.Tag.Get("form")
		if name == "" || f.Type.Kind() != reflect.String {
			continue
		}
		val := r.FormValue(name)
		if !strings.Contains(name, "password") {
			val = strings.TrimSpace(val)
		}
		rv.Field(i).SetString(val)
	}
	return nil
}
