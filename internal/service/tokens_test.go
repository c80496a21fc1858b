package service

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestNewQRTokenFormat(t *testing.T) {
	re := regexp.MustCompile(`^q_[0-9a-f]{32}$`)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		tok, err := NewQRToken()
		if err != nil {
			t.Fatal(err)
		}
		if !re.MatchString(tok) || seen[tok] {
			t.Fatalf("bad or repeated token %q", tok)
		}
		seen[tok] = true
	}
}

func TestNormalizeSlug(t *testing.T) {
	cases := map[string]string{
		"Jane Doe":             "jane-doe",
		"  Ünïcode -- Name!! ": "n-code-name",
		"---":                  "",
		strings.Repeat("ab", 40): strings.Repeat("ab", 30),
	}
	for in, want := range cases {
		if got := NormalizeSlug(in); got != want {
			t.Errorf("NormalizeSlug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUniqueSlugRetriesThenFallsBack(t *testing.T) {
	ctx := context.Background()
	now := time.UnixMilli(1700000000000)

	free := func(context.Context, string) (bool, error) { return false, nil }
	got, err := uniqueSlug(ctx, "jane", free, now)
	if err != nil || got != "jane" {
		t.Fatalf("free base: %q, %v", got, err)
	}

	calls := 0
	takenOnce := func(_ context.Context, s string) (bool, error) {
		calls++
		return s == "jane", nil
	}
	got, err = uniqueSlug(ctx, "jane", takenOnce, now)
	if err != nil || !regexp.MustCompile(`^jane-[0-9a-z]{4}$`).MatchString(got) || calls != 2 {
		t.Fatalf("one collision: %q after %d calls, %v", got, calls, err)
	}

	alwaysTaken := func(context.Context, string) (bool, error) { return true, nil }
	got, err = uniqueSlug(ctx, "jane", alwaysTaken, now)
	if err != nil || got != "jane-"+"loyw3v28" {
		t.Fatalf("fallback: %q, %v", got, err)
	}
}
