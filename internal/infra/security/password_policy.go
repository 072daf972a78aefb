package security

import (
	"fmt"
	"strings"
	"unicode/utf8"

	zxcvbn "github.com/nbutton23/zxcvbn-go"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
	"github.com/arklim/reviewapp-auth/internal/core/port"
)

const (
	defaultMinPasswordLength = 8
	defaultMaxPasswordLength = 20
	maxStrengthScore         = 4
)

// PasswordViolation describes the first rule a password failed. Code is
// stable for tests and logs, Message is safe to return to clients.
type PasswordViolation struct {
	Code    string
	Message string
}

func (v *PasswordViolation) Error() string { return v.Message }

// passwordRule returns nil when the password passes.
type passwordRule func(password string, user domain.PasswordContext) *PasswordViolation

// PasswordPolicyConfig bounds accepted passwords. MinScore is a zxcvbn score
// (0..4); zero disables the strength check.
type PasswordPolicyConfig struct {
	MinLength int
	MaxLength int
	MinScore  int
}

// PasswordPolicy checks new passwords at sign-up and reset.
type PasswordPolicy struct {
	rules []passwordRule
}

// NewPasswordPolicy builds a policy; zero lengths fall back to 8..20 and a
// negative MaxLength removes the upper bound.
func NewPasswordPolicy(cfg PasswordPolicyConfig) *PasswordPolicy {
	if cfg.MinLength <= 0 {
		cfg.MinLength = defaultMinPasswordLength
	}
	if cfg.MaxLength == 0 {
		cfg.MaxLength = defaultMaxPasswordLength
	}

	rules := []passwordRule{notBlank, lengthBetween(cfg.MinLength, cfg.MaxLength)}
	if cfg.MinScore > 0 {
		rules = append(rules, minStrength(min(cfg.MinScore, maxStrengthScore)))
	}
	return &PasswordPolicy{rules: rules}
}

// Validate returns the first violation as a *PasswordViolation.
func (p *PasswordPolicy) Validate(password string, user domain.PasswordContext) error {
	if p == nil {
		return fmt.Errorf("password policy not configured")
	}
	for _, rule := range p.rules {
		if v := rule(password, user); v != nil {
			return v
		}
	}
	return nil
}

func notBlank(password string, _ domain.PasswordContext) *PasswordViolation {
	if strings.TrimSpace(password) == "" {
		return &PasswordViolation{Code: "missing", Message: "Password is Missing"}
	}
	return nil
}

func lengthBetween(lo, hi int) passwordRule {
	msg := fmt.Sprintf("Password must be at least %d characters long", lo)
	if hi > 0 {
		msg = fmt.Sprintf("Password must be %d to %d characters long", lo, hi)
	}
	return func(password string, _ domain.PasswordContext) *PasswordViolation {
		n := utf8.RuneCountInString(strings.TrimSpace(password))
		if n < lo || (hi > 0 && n > hi) {
			return &PasswordViolation{Code: "length", Message: msg}
		}
		return nil
	}
}

// minStrength feeds the user's name, email and mailbox to zxcvbn so
// passwords derived from them score lower.
func minStrength(score int) passwordRule {
	return func(password string, user domain.PasswordContext) *PasswordViolation {
		if zxcvbn.PasswordStrength(password, userInputs(user)).Score >= score {
			return nil
		}
		return &PasswordViolation{
			Code:    "weak_password",
			Message: "password is too weak; choose a more complex value",
		}
	}
}

func userInputs(user domain.PasswordContext) []string {
	inputs := make([]string, 0, 3)
	if name := strings.TrimSpace(user.Name); name != "" {
		inputs = append(inputs, name)
	}
	if email := strings.TrimSpace(user.Email); email != "" {
		inputs = append(inputs, email)
		if local, _, ok := strings.Cut(email, "@"); ok && local != "" {
			inputs = append(inputs, local)
		}
	}
	return inputs
}

var _ port.PasswordPolicyValidator = (*PasswordPolicy)(nil)
