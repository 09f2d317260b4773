package auth

// UserClaims identifies the authenticated caller behind a request. This
// system has a single identity source (a bearer JWT from the identity
// provider) and a single role (route owner), so the claims surface is
// deliberately narrow compared to a multi-tenant permission model.
type UserClaims interface {
	UserID() string
	Source() string
}

// JWTClaims is the claims shape extracted from a verified bearer token.
type JWTClaims struct {
	UserUUID string
}

func (c *JWTClaims) UserID() string { return c.UserUUID }
func (c *JWTClaims) Source() string { return "JWT" }
