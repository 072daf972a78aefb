package usecase

import (
	"net/mail"
	"strings"

	uuid "github.com/google/uuid"
)

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	return name, nil
}

// normalizeEmail trims and lowercases email and rejects anything that is not
// a bare addr-spec.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "", ErrInvalidEmail
	}
	local, domainPart, ok := strings.Cut(email, "@")
	if !ok || local == "" || !strings.Contains(domainPart, ".") || strings.HasSuffix(domainPart, ".") {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func parseUserID(id string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", ErrInvalidUserID
	}
	return parsed.String(), nil
}
