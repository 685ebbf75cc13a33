package auth

import (
	"strings"

	"github.com/dmitrijs2005/quizdeck/internal/common"
)

const bearerScheme = "bearer"

// ParseBearer returns the credential of an "Authorization: Bearer <token>"
// value. The scheme is case-insensitive; anything other than exactly one
// non-empty credential after it is common.ErrUnauthenticated.
func ParseBearer(header string) (string, error) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return "", common.ErrUnauthenticated
	}
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", common.ErrUnauthenticated
	}
	return token, nil
}
