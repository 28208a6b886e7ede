package util

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// passwordSymbols - набор спецсимволов, из которых пароль обязан содержать хотя бы один
const passwordSymbols = `!@#$%^&*(),.?":{}|<>`

// defaultDenylist - базовый список запрещённых распространённых паролей
// Дополняется через PASSWORD_DENYLIST в конфигурации
var defaultDenylist = []string{
	"password", "password1", "password123", "passw0rd",
	"12345678", "123456789", "1234567890",
	"qwerty123", "qwertyuiop", "1q2w3e4r",
	"iloveyou", "admin123", "welcome1", "letmein1",
	"sunshine", "princess", "football", "baseball",
	"dragon123", "monkey123", "abc12345",
}

// PasswordPolicy описывает требования к паролю
// Чистая конфигурация без глобального состояния: проверка
// выполняется функцией ValidatePasswordStrength над этим значением
type PasswordPolicy struct {
	MinLength int
	denylist  map[string]struct{}
}

// NewPasswordPolicy создает политику паролей
// extraDenylist добавляется к базовому списку запрещённых паролей
func NewPasswordPolicy(minLength int, extraDenylist []string) PasswordPolicy {
	if minLength <= 0 {
		minLength = 8
	}

	denylist := make(map[string]struct{}, len(defaultDenylist)+len(extraDenylist))
	for _, p := range defaultDenylist {
		denylist[strings.ToLower(p)] = struct{}{}
	}
	for _, p := range extraDenylist {
		denylist[strings.ToLower(p)] = struct{}{}
	}

	return PasswordPolicy{
		MinLength: minLength,
		denylist:  denylist,
	}
}

// IsDenied проверяет, входит ли пароль в список запрещённых
// Сравнение без учёта регистра
func (p PasswordPolicy) IsDenied(password string) bool {
	_, ok := p.denylist[strings.ToLower(password)]
	return ok
}

var (
	ErrPasswordTooShort  = errors.New("password is too short")
	ErrPasswordNoUpper   = errors.New("password must contain at least 1 uppercase letter")
	ErrPasswordNoLower   = errors.New("password must contain at least 1 lowercase letter")
	ErrPasswordNoDigit   = errors.New("password must contain at least 1 digit")
	ErrPasswordNoSymbol  = errors.New("password must contain at least 1 special character")
	ErrPasswordTooCommon = errors.New("password is too common")
)

// ValidatePasswordStrength проверяет пароль против политики
// Требования: длина >= MinLength, хотя бы одна заглавная и строчная буква,
// цифра и спецсимвол из passwordSymbols; пароль не из списка запрещённых
func ValidatePasswordStrength(policy PasswordPolicy, password string) error {
	if len(password) < policy.MinLength {
		return ErrPasswordTooShort
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}

	if !hasUpper {
		return ErrPasswordNoUpper
	}
	if !hasLower {
		return ErrPasswordNoLower
	}
	if !hasDigit {
		return ErrPasswordNoDigit
	}
	if !hasSymbol {
		return ErrPasswordNoSymbol
	}

	if policy.IsDenied(password) {
		return ErrPasswordTooCommon
	}

	return nil
}

// HashPassword хэширует пароль с использованием bcrypt
func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedPassword), nil
}

// CheckPassword проверяет, соответствует ли пароль хэшу
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// NormalizeEmail приводит доменную часть email к нижнему регистру
// Локальная часть сохраняется как есть
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
