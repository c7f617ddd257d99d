package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskchat/internal/fault"
)

// JWTService valida bearer tokens firmados con el secreto compartido y
// deriva la identidad del tenant. Tambien puede emitir tokens (CLI y tests).
type JWTService struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

type Claims struct {
	TenantID string `json:"uid"`
	jwt.RegisteredClaims
}

var (
	ErrJWTInvalid = errors.New("jwt invalid")
	ErrJWTExpired = errors.New("jwt expired")
)

func NewJWTService(secret string, ttl time.Duration) *JWTService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "taskchat",
	}
}

// Verify parsea y valida el token; devuelve el tenant id del claim.
func (s *JWTService) Verify(token string) (string, error) {
	if len(s.secret) == 0 || strings.TrimSpace(token) == "" {
		return "", fault.Wrap(fault.Auth, "missing or invalid token", ErrJWTInvalid)
	}

	var claims Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(token, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fault.Wrap(fault.Auth, "token expired", ErrJWTExpired)
		}
		return "", fault.Wrap(fault.Auth, "missing or invalid token", ErrJWTInvalid)
	}

	if !s.isValidClaims(claims) {
		return "", fault.Wrap(fault.Auth, "missing or invalid token", ErrJWTInvalid)
	}
	return claims.TenantID, nil
}

// Issue firma un token de acceso para el tenant dado.
func (s *JWTService) Issue(tenantID string) (string, error) {
	if len(s.secret) == 0 || strings.TrimSpace(tenantID) == "" {
		return "", ErrJWTInvalid
	}
	now := time.Now().UTC()
	claims := Claims{
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   tenantID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) isValidClaims(claims Claims) bool {
	if strings.TrimSpace(claims.TenantID) == "" {
		return false
	}
	if claims.Subject != claims.TenantID {
		return false
	}
	return strings.TrimSpace(claims.Issuer) == s.issuer
}
