package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Baaaki/yamdb/internal/apperror"
	"github.com/Baaaki/yamdb/internal/repository"
)

const (
	maxUsernameLength    = 150
	maxEmailLength       = 254
	maxPersonNameLength  = 150
	maxNameLength        = 256
	maxSlugLength        = 50
	maxDescriptionLength = 2000
	minTitleYear         = 1600

	// reservedUsername is routed to the caller's own profile.
	reservedUsername = "me"
)

var (
	usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	slugRegex     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

func validateUsername(username string) error {
	if username == "" {
		return apperror.Validation("username", "username is required")
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return apperror.Validation("username", fmt.Sprintf("username must be at most %d characters", maxUsernameLength))
	}
	if !usernameRegex.MatchString(username) {
		return apperror.Validation("username", "username may contain only letters, digits and @/./+/-/_")
	}
	if strings.EqualFold(username, reservedUsername) {
		return apperror.Validation("username", `username "me" is reserved`)
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return apperror.Validation("email", "email is required")
	}
	if len(email) > maxEmailLength {
		return apperror.Validation("email", fmt.Sprintf("email must be at most %d characters", maxEmailLength))
	}
	if !emailRegex.MatchString(email) {
		return apperror.Validation("email", "invalid email format")
	}
	return nil
}

func validatePersonName(field, value string) error {
	if utf8.RuneCountInString(value) > maxPersonNameLength {
		return apperror.Validation(field, fmt.Sprintf("%s must be at most %d characters", field, maxPersonNameLength))
	}
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return apperror.Validation("name", "name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return apperror.Validation("name", fmt.Sprintf("name must be at most %d characters", maxNameLength))
	}
	return nil
}

func validateSlug(slug string) error {
	if slug == "" {
		return apperror.Validation("slug", "slug is required")
	}
	if len(slug) > maxSlugLength {
		return apperror.Validation("slug", fmt.Sprintf("slug must be at most %d characters", maxSlugLength))
	}
	if !slugRegex.MatchString(slug) {
		return apperror.Validation("slug", "slug may contain only latin letters, digits, hyphens and underscores")
	}
	return nil
}

func validateYear(year int) error {
	if year < minTitleYear {
		return apperror.Validation("year", fmt.Sprintf("year must be at least %d", minTitleYear))
	}
	if current := time.Now().Year(); year > current {
		return apperror.Validation("year", fmt.Sprintf("year must not be later than %d", current))
	}
	return nil
}

func validateDescription(description *string) error {
	if description != nil && utf8.RuneCountInString(*description) > maxDescriptionLength {
		return apperror.Validation("description", fmt.Sprintf("description must be at most %d characters", maxDescriptionLength))
	}
	return nil
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return apperror.Validation("text", "text is required")
	}
	return nil
}

// duplicateAsConflict maps a unique-index violation to a ConflictError.
func duplicateAsConflict(err error, field, message string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperror.Conflict(field, message).Wrap(err)
	}
	return err
}
