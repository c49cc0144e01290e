package services

import (
	"context"
	"errors"

	"google.golang.org/api/idtoken"
)

// GoogleIdentity is what we take from a verified Google ID token.
type GoogleIdentity struct {
	Audience string
	Email    string
	Name     string
	Picture  string
}

var ErrGoogleAudience = errors.New("Token not intended for this app")

// GoogleVerifier checks Google ID tokens. It is a variable so tests can
// replace it.
var GoogleVerifier = VerifyGoogleIDToken

// VerifyGoogleIDToken validates the token signature and expiry and, when
// clientIDs is non-empty, that it was issued to one of them. iOS and web
// sign-ins carry different client IDs.
func VerifyGoogleIDToken(ctx context.Context, token string, clientIDs []string) (*GoogleIdentity, error) {
	payload, err := idtoken.Validate(ctx, token, "")
	if err != nil {
		return nil, err
	}

	if len(clientIDs) > 0 {
		valid := false
		for _, id := range clientIDs {
			if id == payload.Audience {
				valid = true
				break
			}
		}
		if !valid {
			return nil, ErrGoogleAudience
		}
	}

	claim := func(key string) string {
		s, _ := payload.Claims[key].(string)
		return s
	}
	return &GoogleIdentity{
		Audience: payload.Audience,
		Email:    claim("email"),
		Name:     claim("name"),
		Picture:  claim("picture"),
	}, nil
}
