package domain

import (
	"fmt"
	"regexp"
)

const (
	MinRegistrationNumberLength = 5
	MaxRegistrationNumberLength = 64
)

// safeNumberPattern is the full character set a normalized number may use.
// Markup and quoting characters are rejected outright.
var safeNumberPattern = regexp.MustCompile(`^[A-Z0-9/\-_. ]+$`)

// ValidationResult is the outcome of a syntactic check. Valid is false only
// for hard failures; warnings never block verification.
type ValidationResult struct {
	Valid    bool
	Error    string
	Warnings []string
}

// Validate checks a registration number against general safety rules and the
// jurisdiction's known format. The number is normalized first. It is a pure
// function: the same input always yields the same result.
func Validate(number string, jurisdiction Jurisdiction) ValidationResult {
	normalized := NormalizeRegistrationNumber(number)
	if normalized == "" {
		return ValidationResult{Error: "registration number is required"}
	}
	if !safeNumberPattern.MatchString(normalized) {
		return ValidationResult{Error: "registration number contains unsupported characters"}
	}
	if len(normalized) < MinRegistrationNumberLength {
		return ValidationResult{Error: fmt.Sprintf("registration number must be at least %d characters", MinRegistrationNumberLength)}
	}
	if len(normalized) > MaxRegistrationNumberLength {
		return ValidationResult{Error: fmt.Sprintf("registration number must be at most %d characters", MaxRegistrationNumberLength)}
	}

	rule, known := jurisdictionRules[jurisdiction]
	if !known {
		return ValidationResult{
			Valid:    true,
			Warnings: []string{fmt.Sprintf("no number format is known for jurisdiction %q; format was not checked", jurisdiction)},
		}
	}
	if !rule.pattern.MatchString(normalized) {
		return ValidationResult{
			Valid: true,
			Warnings: []string{fmt.Sprintf(
				"registration number does not match the usual %s format (for example %s)",
				jurisdiction, rule.example,
			)},
		}
	}
	return ValidationResult{Valid: true}
}
