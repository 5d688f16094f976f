package validation

import (
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Field limits.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
	MaxNameLength        = 100
	MinAge               = 1
	MaxAge               = 150
)

// PhonePattern allows digits, spaces, and the usual separators.
var PhonePattern = regexp.MustCompile(`^\+?[0-9 ()-]{3,30}$`)

// ValidateTitle checks a request title.
func ValidateTitle(title string) (bool, string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return false, "title is required"
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return false, "title must be at most 200 characters"
	}
	return true, ""
}

// ValidateDescription checks a request description.
func ValidateDescription(desc string) (bool, string) {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return false, "description is required"
	}
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return false, "description must be at most 5000 characters"
	}
	return true, ""
}

// ValidateName checks a person or profile name.
func ValidateName(name string) (bool, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, "name is required"
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return false, "name must be at most 100 characters"
	}
	return true, ""
}

// NormalizeEmail trims and lowercases an email so comparisons are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email is a bare address (no display name).
func ValidateEmail(email string) (bool, string) {
	if email == "" {
		return false, "email is required"
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return false, "invalid email address"
	}
	return true, ""
}

// ValidatePhone checks an optional phone number.
func ValidatePhone(phone string) (bool, string) {
	if phone == "" {
		return true, ""
	}
	if !PhonePattern.MatchString(phone) {
		return false, "invalid phone number"
	}
	return true, ""
}

// ValidateAge checks an optional age; zero means unset.
func ValidateAge(age int) (bool, string) {
	if age == 0 {
		return true, ""
	}
	if age < MinAge || age > MaxAge {
		return false, "age must be between 1 and 150"
	}
	return true, ""
}

// ValidateURL checks if a URL is valid and uses an allowed scheme (http/https only).
func ValidateURL(urlStr string) (bool, string) {
	if urlStr == "" {
		return false, "URL is required"
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return false, "Invalid URL format"
	}

	// Check scheme - only allow http and https
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false, "URL must use http:// or https:// scheme"
	}

	if u.Host == "" {
		return false, "URL must have a valid host"
	}

	return true, ""
}

// IsLocalRedirect reports whether target is a same-origin path safe to
// redirect to after login. Scheme-relative and absolute URLs are rejected.
func IsLocalRedirect(target string) bool {
	if target == "" || !strings.HasPrefix(target, "/") {
		return false
	}
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return false
	}
	u, err := url.Parse(target)
	return err == nil && u.Scheme == "" && u.Host == ""
}
