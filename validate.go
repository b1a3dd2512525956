package guardkit

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// normalizeEmail lowercases and trims the login key so uniqueness and
// lookups agree on one canonical form.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (e *Engine) validateSignup(req SignupRequest) error {
	fields := e.structFields(req)

	if req.Password != req.PasswordConfirm {
		fields = append(fields, "password confirmation does not match")
	}
	fields = append(fields, policyViolations(e.config.Policy, req.Password)...)

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (e *Engine) validateLogin(req LoginRequest) error {
	if fields := e.structFields(req); len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// structFields runs tag-based validation and flattens the result into
// per-field messages.
func (e *Engine) structFields(req any) []string {
	err := e.validate.Struct(req)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			fields = append(fields, fmt.Sprintf("%s is required", strings.ToLower(fe.Field())))
		case "email":
			fields = append(fields, "email address is not valid")
		default:
			fields = append(fields, fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field())))
		}
	}
	return fields
}

// policyViolations checks a candidate password against the configured
// policy and returns one message per violated rule. An empty password is
// reported by the required tag instead.
func policyViolations(policy PasswordPolicy, pw string) []string {
	if pw == "" {
		return nil
	}

	var fields []string
	if len(pw) < policy.MinLength {
		fields = append(fields, fmt.Sprintf("password must be at least %d characters long", policy.MinLength))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if policy.RequireUppercase && !hasUpper {
		fields = append(fields, "password must include at least one uppercase character")
	}
	if policy.RequireLowercase && !hasLower {
		fields = append(fields, "password must include at least one lowercase character")
	}
	if policy.RequireDigit && !hasDigit {
		fields = append(fields, "password must include at least one digit")
	}
	return fields
}
