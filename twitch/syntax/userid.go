package syntax

import (
	"errors"
	"fmt"
)

// String type which represents an opaque platform-assigned account
// identifier.
//
// The platform currently issues decimal ids, but callers must not rely on
// that: the only guarantees are non-emptiness and byte equality. Ids are
// stable across login name changes, which is why state-changing operations
// are keyed by id rather than by name.
type UserID string

func ParseUserID(raw string) (UserID, error) {
	if raw == "" {
		return "", errors.New("expected user id, got empty string")
	}
	if len(raw) > 64 {
		return "", errors.New("user id is too long (64 chars max)")
	}
	for _, c := range raw {
		if c <= ' ' || c > '~' {
			return "", fmt.Errorf("user id contains disallowed character: %q", raw)
		}
	}
	return UserID(raw), nil
}

func (i UserID) String() string {
	return string(i)
}

func (i UserID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *UserID) UnmarshalText(text []byte) error {
	id, err := ParseUserID(string(text))
	if err != nil {
		return err
	}
	*i = id
	return nil
}
