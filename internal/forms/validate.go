package forms

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	msgRequired     = "This field is required."
	msgInvalidEmail = "Enter a valid email address."
	msgUsername     = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
)

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}

// Lookup answers the uniqueness questions the account forms ask.
// except excludes the record being edited; uuid.Nil excludes nothing.
type Lookup interface {
	EmailTaken(ctx context.Context, email string, except uuid.UUID) (bool, error)
	UsernameTaken(ctx context.Context, username string, except uuid.UUID) (bool, error)
}

// check runs the struct tags of form and records one message per failing field.
func check(form interface{}, errs Errors) {
	err := validate.Struct(form)
	if err == nil {
		return
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.Add(NonField, err.Error())
		return
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), fieldMessage(fe))
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "email":
		return msgInvalidEmail
	case "username":
		return msgUsername
	case "max":
		n := utf8.RuneCountInString(fmt.Sprint(fe.Value()))
		return fmt.Sprintf("Ensure this value has at most %s characters (it has %d).", fe.Param(), n)
	case "min":
		n := utf8.RuneCountInString(fmt.Sprint(fe.Value()))
		return fmt.Sprintf("Ensure this value has at least %s characters (it has %d).", fe.Param(), n)
	default:
		return "Enter a valid value."
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// checkAccount validates the uniqueness of email and username unless those
// fields already failed.
func checkAccount(ctx context.Context, lookup Lookup, email, username string, except uuid.UUID, errs Errors) error {
	if _, bad := errs["email"]; !bad {
		taken, err := lookup.EmailTaken(ctx, email, except)
		if err != nil {
			return err
		}
		if taken {
			errs.Add("email", "A user with this email already exists.")
		}
	}
	if _, bad := errs["username"]; !bad && username != "" {
		taken, err := lookup.UsernameTaken(ctx, username, except)
		if err != nil {
			return err
		}
		if taken {
			errs.Add("username", "A user with that username already exists.")
		}
	}
	return nil
}
