package signup

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"authx-console/internal/authapi"
)

// Field names used as FieldErrors keys.
const (
	FieldUsername = "username"
	FieldPassword = "password"
)

// Inline field error messages.
const (
	MsgEmailRequired    = "Please enter your email address"
	MsgEmailInvalid     = "Please enter a valid email"
	MsgPasswordRequired = "Please enter a password"
	MsgPasswordShort    = "password must be at least 8 characters"
)

type credentials struct {
	Username string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate returns per-field errors for form; nil when the credentials are acceptable.
// The terms checkbox is not a field error; see Collect.
func Validate(form Form) map[string]string {
	err := validate.Struct(credentials{Username: form.Username, Password: form.Password})
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{FieldUsername: MsgEmailInvalid}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Field() {
		case "Username":
			if fe.Tag() == "required" {
				out[FieldUsername] = MsgEmailRequired
			} else {
				out[FieldUsername] = MsgEmailInvalid
			}
		case "Password":
			if fe.Tag() == "required" {
				out[FieldPassword] = MsgPasswordRequired
			} else {
				out[FieldPassword] = MsgPasswordShort
			}
		}
	}
	return out
}

// Collect validates form and builds the signup payload. It returns the field errors and, when the
// terms were not accepted, the notice to show. The request is only usable when both are empty.
// The referral id is kept on the form but the payload carries p.Ref.
func Collect(form Form, p Placeholders) (authapi.SignupRequest, map[string]string, string) {
	fieldErrs := Validate(form)
	notice := ""
	if !form.AgreeTerms {
		notice = NoticeAcceptTerms
	}
	req := authapi.SignupRequest{
		Username: form.Username,
		Password: form.Password,
		FullName: p.FullName,
		IsPool:   p.IsPool,
		Link:     p.Link,
		Ref:      p.Ref,
		Types:    p.Types,
	}
	return req, fieldErrs, notice
}
