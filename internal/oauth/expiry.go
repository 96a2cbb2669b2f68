package oauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryMargin is the safety margin applied when checking token expiry.
// A token about to lapse mid-operation is as good as expired.
const ExpiryMargin = 60 * time.Second

// IsExpired reports whether an access token is expired or will expire
// within ExpiryMargin. The JWT payload is decoded without signature
// verification: this is a client-side refresh-scheduling read, not a trust
// decision.
//
// Fail-closed: anything that is not a decodable three-segment JWT with a
// numeric exp claim counts as expired.
func IsExpired(accessToken string) bool {
	return isExpiredAt(accessToken, time.Now())
}

func isExpiredAt(accessToken string, now time.Time) bool {
	exp, ok := ExpiryTime(accessToken)
	if !ok {
		return true
	}
	return exp.Before(now.Add(ExpiryMargin))
}

// ExpiryTime returns the access token's exp claim as a time. The second
// return is false when the token is malformed or carries no exp claim.
func ExpiryTime(accessToken string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
