package utils // package utils provides helper functions for token creation and hashing

import (
    "errors" // sentinel errors for token parsing
    "fmt"    // error wrapping
    "time"   // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// RoleAdmin is the only role Digivite issues.  It is embedded in every
// access token so the role middleware can gate the admin API.
const RoleAdmin = "ADMIN"

// ErrInvalidToken is returned by ParseAccessToken for any token that fails
// signature, algorithm or expiry checks, or carries no subject.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp, which the auth handler also uses as the cookie expiry.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// AdminClaims is the decoded identity carried by an access token.
type AdminClaims struct {
    AdminID string
    Email   string
    Role    string
}

// NewAccessToken builds and signs an HS256 JWT for an admin.  The admin
// id is written to both "sub" and "id" so tokens issued by older clients
// that only read one of them keep working.
func NewAccessToken(secret, adminID, email string, ttlMin int) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":   adminID,
        "id":    adminID,
        "email": email,
        "role":  RoleAdmin,
        "exp":   exp.Unix(),
        "iat":   now.Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw with secret and extracts the admin
// identity.  Only HS256 is accepted.  The subject is read from "sub" and
// falls back to "id".
func ParseAccessToken(secret, raw string) (AdminClaims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if t.Method != jwt.SigningMethodHS256 {
            return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
        }
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
    if err != nil || !tok.Valid {
        return AdminClaims{}, ErrInvalidToken
    }
    mc, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return AdminClaims{}, ErrInvalidToken
    }
    out := AdminClaims{
        AdminID: claimString(mc, "sub"),
        Email:   claimString(mc, "email"),
        Role:    claimString(mc, "role"),
    }
    if out.AdminID == "" {
        out.AdminID = claimString(mc, "id")
    }
    if out.AdminID == "" {
        return AdminClaims{}, ErrInvalidToken
    }
    if out.Role == "" {
        out.Role = RoleAdmin
    }
    return out, nil
}

// claimString reads a claim as a string.  Numeric subjects, which JSON
// decodes as float64, are formatted without a fractional part.
func claimString(mc jwt.MapClaims, key string) string {
    switch v := mc[key].(type) {
    case string:
        return v
    case float64:
        return fmt.Sprintf("%.0f", v)
    default:
        return ""
    }
}
