package core

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

// DateLayout is the calendar date format used by the form and by date comparisons.
const DateLayout = "2006-01-02"

var (
	mobilePattern = regexp.MustCompile(`^[0-9]{10}$`)
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// IsValidMobile reports whether s is exactly 10 ASCII digits.
func IsValidMobile(s string) bool {
	return mobilePattern.MatchString(s)
}

// IsValidEmail reports whether s is empty or has a basic local@domain.tld shape.
func IsValidEmail(s string) bool {
	return s == "" || emailPattern.MatchString(s)
}

// SanitizeNamePart drops every rune that is not an ASCII letter or whitespace.
func SanitizeNamePart(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
}

// SanitizeDigits keeps only ASCII digits and truncates to maxLen when maxLen > 0.
func SanitizeDigits(s string, maxLen int) string {
	var b strings.Builder
	for _, r := range s {
		if r < '0' || r > '9' {
			continue
		}
		if maxLen > 0 && b.Len() >= maxLen {
			break
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsPastOrToday compares ISO dates lexically, which matches chronological order.
func IsPastOrToday(date, today string) bool {
	return date <= today
}

// Today formats the calendar date of now in its own location.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// SanitizePersonal applies the per-field input filters. The email is not
// filtered, so IsValidEmail sees it as typed.
func SanitizePersonal(p PersonalDetails) PersonalDetails {
	return PersonalDetails{
		FirstName:  SanitizeNamePart(p.FirstName),
		MiddleName: SanitizeNamePart(p.MiddleName),
		LastName:   SanitizeNamePart(p.LastName),
		MobileNo:   SanitizeDigits(p.MobileNo, 10),
		Email:      p.Email,
	}
}

func hasRequired(p PersonalDetails) bool {
	return p.FirstName != "" && p.LastName != "" && p.MobileNo != ""
}

// ValidateForUnlock runs the checks performed before the challenge is compared:
// required fields, then mobile, then email.
func ValidateForUnlock(p PersonalDetails) error {
	if !hasRequired(p) {
		return ErrMissingMandatory
	}
	if !IsValidMobile(p.MobileNo) {
		return ErrInvalidMobile
	}
	if !IsValidEmail(p.Email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateForSubmit runs the submit-time checks: entries, mobile, email, then
// required fields.
func ValidateForSubmit(p PersonalDetails, entries int) error {
	if entries == 0 {
		return ErrNoEntries
	}
	if !IsValidMobile(p.MobileNo) {
		return ErrInvalidMobile
	}
	if !IsValidEmail(p.Email) {
		return ErrInvalidEmail
	}
	if !hasRequired(p) {
		return ErrMissingClientInfo
	}
	return nil
}
