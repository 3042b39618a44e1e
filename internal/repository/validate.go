package repository

import (
	"regexp"
	"strings"

	"smashtrack/internal/constants"
	"smashtrack/internal/domain"
)

var nameRe = regexp.MustCompile(`^[A-Za-z ]+$`)

func validateName(label, name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return domain.NewValidationError("%s name is required", label)
	}
	if !nameRe.MatchString(trimmed) {
		return domain.NewValidationError("%s name must contain only letters and spaces", label)
	}
	return nil
}

func validateMatchDate(d domain.Date) error {
	if d.IsZero() {
		return domain.NewValidationError("date is required")
	}
	if d.After(domain.Today()) {
		return domain.NewValidationError("date cannot be in the future")
	}
	return nil
}

func validateScores(own, opponent int) error {
	if own < 0 || opponent < 0 {
		return domain.NewValidationError("scores cannot be negative")
	}
	if own == opponent {
		return domain.NewValidationError("scores cannot be tied")
	}
	return nil
}

// validateLevel checks membership in the rating scale: 2.0 through 5.5 in
// half-point steps.
func validateLevel(label string, level float64) error {
	tenths := int(level*10 + 0.5)
	if level < constants.MinLevel || level > constants.MaxLevel || tenths%5 != 0 {
		return domain.NewValidationError("%s must be between %.1f and %.1f in %.1f increments",
			label, constants.MinLevel, constants.MaxLevel, constants.LevelStep)
	}
	return nil
}
