package auth

import "github.com/yourorg/authgate/internal/domain"

// FlattenScopes concatenates the scopes of every role into a single
// slice, preserving order and duplicates. A user holding two roles that
// both grant "read" ends up with "read" twice in the issued token;
// deduplicating here would change the wire format of every token.
func FlattenScopes(roles []domain.Role) []string {
	scopes := []string{}
	for _, role := range roles {
		scopes = append(scopes, role.Scopes...)
	}
	return scopes
}
