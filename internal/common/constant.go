package common

const (
	// AuthorizationHeaderName carries "Bearer <token>" on protected requests.
	AuthorizationHeaderName = "Authorization"

	// TokenTypeBearer is the token_type label returned by the login endpoints.
	TokenTypeBearer = "bearer"
)
