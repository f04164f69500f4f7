// Package validation содержит функции валидации входных данных.
package validation

import (
	"net/mail"
	"strings"
)

// IsValidEmail проверяет, что строка является одиночным адресом электронной почты без имени.
func IsValidEmail(email string) bool {
	if email == "" || strings.TrimSpace(email) != email {
		return false
	}

	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	if addr.Address != email {
		return false
	}

	at := strings.LastIndexByte(email, '@')
	return at > 0 && strings.Contains(email[at+1:], ".")
}

// IsBlank сообщает, что строка пуста или состоит из пробелов.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
