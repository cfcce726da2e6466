package forms

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

const minPasswordLength = 8

// RegisterForm is the sign-up form.
type RegisterForm struct {
	Name      string `form:"name" json:"name" validate:"max=200"`
	Username  string `form:"username" json:"username" validate:"required,max=150,username"`
	Email     string `form:"email" json:"email" validate:"required,max=254,email"`
	Password1 string `form:"password1" json:"password1" validate:"required"`
	Password2 string `form:"password2" json:"password2" validate:"required"`
}

// Registration is a validated sign-up.
type Registration struct {
	Name     string
	Username string
	Email    string
	Password string
}

func (f RegisterForm) Validate(ctx context.Context, lookup Lookup) (*Registration, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Username = normalizeUsername(f.Username)
	f.Email = normalizeEmail(f.Email)

	errs := Errors{}
	check(f, errs)
	if err := checkAccount(ctx, lookup, f.Email, f.Username, uuid.Nil, errs); err != nil {
		return nil, err
	}
	checkPasswords(f.Password1, f.Password2, errs)

	if err := errs.orNil(); err != nil {
		return nil, err
	}
	return &Registration{Name: f.Name, Username: f.Username, Email: f.Email, Password: f.Password1}, nil
}

func checkPasswords(p1, p2 string, errs Errors) {
	if p1 == "" || p2 == "" {
		return
	}
	if p1 != p2 {
		errs.Add("password2", "The two password fields didn't match.")
		return
	}
	if utf8.RuneCountInString(p1) < minPasswordLength {
		errs.Add("password2", "This password is too short. It must contain at least 8 characters.")
	}
	if strings.IndexFunc(p1, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		errs.Add("password2", "This password is entirely numeric.")
	}
}

// UserForm edits the signed-in user's profile.
type UserForm struct {
	Name     string `form:"name" json:"name" validate:"max=200"`
	Username string `form:"username" json:"username" validate:"required,max=150,username"`
	Email    string `form:"email" json:"email" validate:"required,max=254,email"`
	Bio      string `form:"bio" json:"bio"`
}

// ProfileInput is a validated profile edit.
type ProfileInput struct {
	Name     string
	Username string
	Email    string
	Bio      string
}

// Validate checks the edit of the account identified by userID.
func (f UserForm) Validate(ctx context.Context, lookup Lookup, userID uuid.UUID) (*ProfileInput, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Username = normalizeUsername(f.Username)
	f.Email = normalizeEmail(f.Email)
	f.Bio = strings.TrimSpace(f.Bio)

	errs := Errors{}
	check(f, errs)
	if err := checkAccount(ctx, lookup, f.Email, f.Username, userID, errs); err != nil {
		return nil, err
	}
	if err := errs.orNil(); err != nil {
		return nil, err
	}
	return &ProfileInput{Name: f.Name, Username: f.Username, Email: f.Email, Bio: f.Bio}, nil
}

// LoginForm signs a user in by email.
type LoginForm struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate returns the normalized email when both fields are present.
func (f LoginForm) Validate() (string, error) {
	email := normalizeEmail(f.Email)
	if email == "" || f.Password == "" {
		errs := Errors{}
		errs.Add(NonField, "Please provide both email and password.")
		return "", errs
	}
	return email, nil
}
