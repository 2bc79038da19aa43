package service

import (
	"errors"
	"fmt"
	"time"

	"asset-ledger/internal/core/ports"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// walletAudience marks tokens that may read and move a user's wallets and
// points. Tokens minted for any other audience are refused.
const walletAudience = "wallet-api"

// walletSessionClaims is the body of a wallet owner's session token. Scope
// lists what the bearer may do with the subject's wallets.
type walletSessionClaims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

const walletScope = "wallets:read wallets:transfer points:redeem"

// JWTTokenService issues and checks HS256 wallet session tokens.
type JWTTokenService struct {
	secret []byte
	expiry time.Duration
	issuer string
}

func NewJWTTokenService(secret string, expiry time.Duration, issuer string) *JWTTokenService {
	return &JWTTokenService{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
	}
}

// Generate mints a session for the wallet owner userID. Each token gets its
// own id so sessions can be told apart in logs.
func (s *JWTTokenService) Generate(userID uuid.UUID) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiry)

	claims := walletSessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{walletAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Scope: walletScope,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing wallet session: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate resolves a bearer token to the wallet owner it was issued for.
func (s *JWTTokenService) Validate(tokenString string) (*ports.TokenClaims, error) {
	claims := &walletSessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(walletAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing wallet session: %w", err)
	}
	if claims.Scope == "" {
		return nil, errors.New("wallet session has no scope")
	}

	ownerID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet owner in token: %w", err)
	}
	return &ports.TokenClaims{UserID: ownerID}, nil
}
