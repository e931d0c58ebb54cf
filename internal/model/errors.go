package model

import (
	"errors"
	"sort"
	"strings"
)

// Ошибки доменной логики. Проверяются через errors.Is на границе HTTP/бота.
var (
	ErrValidation        = errors.New("validation failed")
	ErrPermission        = errors.New("permission denied")
	ErrOverlap           = errors.New("time slot overlaps with existing slot")
	ErrSlotIndex         = errors.New("time slot index out of range")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotFound          = errors.New("not found")
	ErrAuth              = errors.New("authentication failed")
)

// ValidationError описывает ошибки полей формы (ключ - json имя поля)
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Коды ошибок провайдера идентификации
const (
	AuthCodeInvalidEmail        = "auth/invalid-email"
	AuthCodeUserDisabled        = "auth/user-disabled"
	AuthCodeUserNotFound        = "auth/user-not-found"
	AuthCodeWrongPassword       = "auth/wrong-password"
	AuthCodeEmailAlreadyInUse   = "auth/email-already-in-use"
	AuthCodeOperationNotAllowed = "auth/operation-not-allowed"
	AuthCodeWeakPassword        = "auth/weak-password"
	AuthCodeInvalidToken        = "auth/invalid-token"
)

// Операции, в которых может возникнуть AuthError
const (
	AuthOpSignIn = "sign_in"
	AuthOpSignUp = "sign_up"
	AuthOpVerify = "verify"
)

var authOpPrefixes = map[string]string{
	AuthOpSignIn: "Failed to sign in. ",
	AuthOpSignUp: "Failed to create account. ",
	AuthOpVerify: "",
}

var authCodeMessages = map[string]string{
	AuthCodeInvalidEmail:        "Invalid email address.",
	AuthCodeUserDisabled:        "This account has been disabled.",
	AuthCodeUserNotFound:        "No account found with this email.",
	AuthCodeWrongPassword:       "Incorrect password.",
	AuthCodeEmailAlreadyInUse:   "Email is already registered.",
	AuthCodeOperationNotAllowed: "Email/password accounts are not enabled.",
	AuthCodeWeakPassword:        "Password is too weak.",
	AuthCodeInvalidToken:        "Session is invalid or has expired.",
}

// AuthError ошибка провайдера идентификации с кодом
type AuthError struct {
	Code string
	Op   string
}

func NewAuthError(op, code string) *AuthError {
	return &AuthError{Code: code, Op: op}
}

func (e *AuthError) Error() string {
	return "auth " + e.Op + ": " + e.Code
}

func (e *AuthError) Unwrap() error {
	return ErrAuth
}

// Message возвращает человекочитаемый текст ошибки
func (e *AuthError) Message() string {
	text, ok := authCodeMessages[e.Code]
	if !ok {
		text = "Unexpected error (" + e.Code + ")."
	}
	return authOpPrefixes[e.Op] + text
}
