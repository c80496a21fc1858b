package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/digivite/digivite/internal/model"
)

const (
	// QRTokenPrefix starts every issued check-in token.
	QRTokenPrefix = "q_"

	slugMaxBase    = 60
	slugSuffixLen  = 4
	slugAttempts   = 6
	placeholderLen = 12
	base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// NewQRToken returns "q_" followed by 32 hex characters from crypto/rand.
func NewQRToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return QRTokenPrefix + hex.EncodeToString(buf), nil
}

// NewPlaceholderToken returns a unique-looking token that marks a guest as
// not yet responded.
func NewPlaceholderToken() (string, error) {
	s, err := randomString(base62Alphabet, placeholderLen)
	if err != nil {
		return "", err
	}
	return model.PlaceholderTokenPrefix + s, nil
}

// NormalizeSlug lower-cases s, collapses every run of characters outside
// [a-z0-9] into one dash and trims the result to 60 characters.
func NormalizeSlug(s string) string {
	out := nonSlugChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	out = strings.Trim(out, "-")
	if len(out) > slugMaxBase {
		out = strings.TrimRight(out[:slugMaxBase], "-")
	}
	return out
}

// slugExistsFunc reports whether a candidate slug is taken.
type slugExistsFunc func(ctx context.Context, slug string) (bool, error)

// uniqueSlug returns base when it is free, otherwise base plus a random
// 4-character suffix, giving up after six attempts in favour of a
// timestamp suffix.
func uniqueSlug(ctx context.Context, base string, exists slugExistsFunc, now time.Time) (string, error) {
	candidate := base
	for i := 0; i < slugAttempts; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		suffix, err := randomString(base36Alphabet, slugSuffixLen)
		if err != nil {
			return "", err
		}
		candidate = base + "-" + suffix
	}
	return base + "-" + strconv.FormatInt(now.UnixMilli(), 36), nil
}

func randomString(alphabet string, n int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[idx.Int64()])
	}
	return b.String(), nil
}
