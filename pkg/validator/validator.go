package validator

import (
	"net/mail"
	"regexp"
	"strings"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

const (
	maxTextLength    = 4000
	maxGroupName     = 100
	maxMediaPerSend  = 10
	maxCaptionLength = 500
)

func ValidateRegister(email, username, displayName, password string) ValidationErrors {
	errs := make(ValidationErrors)

	email = strings.TrimSpace(email)
	if email == "" {
		errs.Add("email", "Email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs.Add("email", "Invalid email address")
	}

	username = strings.TrimSpace(username)
	if username == "" {
		errs.Add("username", "Username is required")
	} else if len(username) < 3 {
		errs.Add("username", "Username must be at least 3 characters")
	} else if len(username) > 50 {
		errs.Add("username", "Username is too long")
	} else if !usernameRegex.MatchString(username) {
		errs.Add("username", "Username can only contain letters, numbers, _ and -")
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		errs.Add("display_name", "Display name is required")
	} else if len(displayName) > 100 {
		errs.Add("display_name", "Display name is too long")
	}

	if len(password) < 8 {
		errs.Add("password", "Password must be at least 8 characters")
	}

	return errs
}

func ValidateLogin(email, password string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(email) == "" {
		errs.Add("email", "Email is required")
	}
	if password == "" {
		errs.Add("password", "Password is required")
	}

	return errs
}

func ValidateMessageText(text string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(text) == "" {
		errs.Add("text", "Message text is required")
	} else if len(text) > maxTextLength {
		errs.Add("text", "Message text is too long")
	}

	return errs
}

func ValidateMediaURLs(urls []string) ValidationErrors {
	errs := make(ValidationErrors)

	if len(urls) == 0 {
		errs.Add("media_urls", "At least one media URL is required")
	} else if len(urls) > maxMediaPerSend {
		errs.Add("media_urls", "Too many media attachments")
	}
	for _, u := range urls {
		if strings.TrimSpace(u) == "" {
			errs.Add("media_urls", "Media URLs cannot be empty")
			break
		}
	}

	return errs
}

func ValidateGroupName(name string) ValidationErrors {
	errs := make(ValidationErrors)

	name = strings.TrimSpace(name)
	if name == "" {
		errs.Add("name", "Group name is required")
	} else if len(name) > maxGroupName {
		errs.Add("name", "Group name is too long")
	}

	return errs
}

func ValidateCaption(caption *string) ValidationErrors {
	errs := make(ValidationErrors)

	if caption != nil && len(*caption) > maxCaptionLength {
		errs.Add("caption", "Caption is too long")
	}

	return errs
}
