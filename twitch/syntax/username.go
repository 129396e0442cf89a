package syntax

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_]{0,24}$`)

// String type which represents a syntactically valid platform login name.
//
// Login names are case-insensitive: the lowercase form from [Username.Normalize]
// is the canonical map key used throughout this module. Always use
// [ParseUsername] instead of wrapping strings directly, especially when
// working with input.
type Username string

func ParseUsername(raw string) (Username, error) {
	if raw == "" {
		return "", errors.New("expected username, got empty string")
	}
	if len(raw) > 25 {
		return "", errors.New("username is too long (25 chars max)")
	}
	if !usernameRegex.MatchString(raw) {
		return "", fmt.Errorf("username syntax didn't validate via regex: %s", raw)
	}
	return Username(raw), nil
}

func (u Username) Normalize() Username {
	return Username(strings.ToLower(string(u)))
}

func (u Username) String() string {
	return string(u)
}

func (u Username) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

func (u *Username) UnmarshalText(text []byte) error {
	name, err := ParseUsername(string(text))
	if err != nil {
		return err
	}
	*u = name
	return nil
}
