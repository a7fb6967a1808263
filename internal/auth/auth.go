// Package auth guards the chat routes with static API keys.
package auth

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// RoleChat allows sending messages and reading history.
const RoleChat = "chat"

type Identity struct {
	// KeyHint is a shortened form of the key, safe to log.
	KeyHint string
	Roles   []string
}

func (i Identity) HasRole(role string) bool {
	for _, candidate := range i.Roles {
		if candidate == role {
			return true
		}
	}
	return false
}

type APIKeyValidator interface {
	Validate(ctx context.Context, apiKey string) (Identity, bool)
}

type StaticAPIKeyValidator struct {
	keys map[string]Identity
}

// NewStaticAPIKeyValidator parses "key:role|role,key:role".
func NewStaticAPIKeyValidator(spec string) (*StaticAPIKeyValidator, error) {
	validator := &StaticAPIKeyValidator{keys: map[string]Identity{}}
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return validator, nil
	}

	for _, entry := range strings.Split(spec, ",") {
		key, rolesSpec, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok {
			return nil, fmt.Errorf("invalid static key entry %q: expected key:role|role", entry)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid static key entry %q: empty key", entry)
		}
		if _, dup := validator.keys[key]; dup {
			return nil, fmt.Errorf("duplicate static key entry for %q", keyHint(key))
		}
		roles := make([]string, 0, 2)
		for _, role := range strings.Split(rolesSpec, "|") {
			role = strings.TrimSpace(role)
			if role == "" {
				continue
			}
			roles = append(roles, role)
		}
		if len(roles) == 0 {
			return nil, fmt.Errorf("invalid static key entry %q: at least one role is required", keyHint(key))
		}
		sort.Strings(roles)
		validator.keys[key] = Identity{KeyHint: keyHint(key), Roles: roles}
	}

	return validator, nil
}

func (v *StaticAPIKeyValidator) Validate(_ context.Context, apiKey string) (Identity, bool) {
	identity, ok := v.keys[apiKey]
	return identity, ok
}

func keyHint(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "****"
}
