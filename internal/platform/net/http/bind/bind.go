// Package bind validates decoded request input with go-playground/validator
// messages are english and name fields by their json tag
package bind

import (
	stderrs "errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entrans "github.com/go-playground/validator/v10/translations/en"

	perr "stackscout/internal/platform/errors"
)

var (
	once  sync.Once
	valid *validator.Validate
	trans ut.Translator
)

func setup() {
	loc := en.New()
	trans, _ = ut.New(loc, loc).GetTranslator("en")

	valid = validator.New(validator.WithRequiredStructEnabled())
	valid.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = entrans.RegisterDefaultTranslations(valid, trans)

	short(valid, "gte", "{0} must be {1} or greater")
	short(valid, "oneof", "{0} must be one of [{1}]")
	_ = valid.RegisterValidation("full_name", func(fl validator.FieldLevel) bool {
		return IsFullName(fl.Field().String())
	})
	short(valid, "full_name", "{0} must look like owner/name")
}

// short swaps the stock translation of tag for a terser one
func short(v *validator.Validate, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(tag, fe.Field(), fe.Param())
			return msg
		},
	)
}

// IsFullName reports whether s is owner/name with both parts non empty
func IsFullName(s string) bool {
	owner, name, ok := strings.Cut(s, "/")
	return ok && owner != "" && name != "" && !strings.Contains(name, "/")
}

// Struct validates s and reports the first failing field
// failures are ErrorCodeValidation with the field attached
func Struct(s any) error {
	once.Do(setup)
	err := valid.Struct(s)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !stderrs.As(err, &fields) || len(fields) == 0 {
		return perr.Wrapf(err, perr.ErrorCodeValidation, "cannot validate %T", s)
	}
	fe := fields[0]
	return perr.WithField(perr.New(perr.ErrorCodeValidation, fe.Translate(trans)), fe.Field())
}
