package schema

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var tagValidate = validator.New(validator.WithRequiredStructEnabled())

// tagValidator turns a validator tag into an attribute validation hook.
// Unknown tags are rejected here rather than panicking on first use.
func tagValidator(tag string) (fn func(any) string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid validate tag %q: %v", tag, r)
		}
	}()
	_ = tagValidate.Var("", tag)

	required := slices.Contains(strings.Split(tag, ","), "required")
	return func(v any) string {
		if v == nil {
			if required {
				return "is required"
			}
			return ""
		}
		return describe(tagValidate.Var(v, tag))
	}, nil
}

func describe(err error) string {
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	if fe.Param() != "" {
		return fmt.Sprintf("must satisfy %s=%s", fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("must satisfy %s", fe.Tag())
}
