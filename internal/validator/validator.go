package validator

import (
	"errors"
	"regexp"
)

var (
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidDate     = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidMonth    = errors.New("invalid month, expected YYYY-MM")
)

var (
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
	dateRegex     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	monthRegex    = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrInvalidPassword
	}
	return nil
}

func ValidateDate(date string) error {
	if !dateRegex.MatchString(date) {
		return ErrInvalidDate
	}
	return nil
}

func ValidateMonth(month string) error {
	if !monthRegex.MatchString(month) {
		return ErrInvalidMonth
	}
	return nil
}
