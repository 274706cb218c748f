package migration

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cast"
)

// ExportedUser is one record of a Firebase auth export.
type ExportedUser struct {
	LocalID       string
	Email         string
	DisplayName   string
	EmailVerified bool
}

type rawUser struct {
	LocalID       string `json:"localId"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	EmailVerified any    `json:"emailVerified"`
}

// ParseExport reads either {"users":[...]} or a bare array.
func ParseExport(r io.Reader) ([]ExportedUser, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}

	var users []rawUser
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		err = json.Unmarshal(raw, &users)
	} else {
		var wrapped struct {
			Users []rawUser `json:"users"`
		}
		err = json.Unmarshal(raw, &wrapped)
		users = wrapped.Users
	}
	if err != nil {
		return nil, fmt.Errorf("decoding export: %w", err)
	}

	out := make([]ExportedUser, 0, len(users))
	for _, u := range users {
		out = append(out, ExportedUser{
			LocalID:       u.LocalID,
			Email:         strings.TrimSpace(u.Email),
			DisplayName:   u.DisplayName,
			EmailVerified: verified(u.EmailVerified),
		})
	}
	return out, nil
}

// verified accepts true, "true" and "1".
func verified(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x == "true" || x == "1"
	case float64:
		return cast.ToInt(x) == 1
	}
	return false
}
