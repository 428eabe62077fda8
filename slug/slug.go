// Package slug turns titles into URL-safe identifiers that are unique within a collection.
package slug

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"sitecms/apperr"
)

const (
	// Fallback is used when a title has no ASCII letters or digits left after normalization.
	Fallback = "untitled"
	// MaxAttempts bounds the "-N" suffix search.
	MaxAttempts = 10000
	// MaxLength caps the base slug before suffixes are appended.
	MaxLength = 96
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	pattern         = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// Checker reports whether slug is already held by a document other than excludeID.
// excludeID is empty on create.
type Checker interface {
	SlugExists(ctx context.Context, slug string, excludeID string) (bool, error)
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context, slug string, excludeID string) (bool, error)

func (f CheckerFunc) SlugExists(ctx context.Context, slug string, excludeID string) (bool, error) {
	return f(ctx, slug, excludeID)
}

// ToSlug lowercases text, strips diacritics and joins alphanumeric runs with single hyphens.
// "Guía de Migración 2024!" -> "guia-de-migracion-2024".
func ToSlug(text string) string {
	// decompose accented characters, then drop everything outside ASCII
	s := norm.NFKD.String(text)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)
	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > MaxLength {
		s = strings.TrimRight(s[:MaxLength], "-")
	}
	if s == "" {
		return Fallback
	}
	return s
}

// Valid reports whether s is already in canonical slug form.
func Valid(s string) bool {
	return pattern.MatchString(s)
}

// UniqueSlugFor returns ToSlug(text), or the first free "base-N" candidate when the base is taken.
// It fails with SLUG_EXHAUSTED after MaxAttempts suffixes.
func UniqueSlugFor(ctx context.Context, text string, checker Checker, excludeID string) (string, error) {
	base := ToSlug(text)

	taken, err := checker.SlugExists(ctx, base, excludeID)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}

	for n := 1; n <= MaxAttempts; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate := base + "-" + strconv.Itoa(n)
		taken, err := checker.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", apperr.SlugExhausted(base, MaxAttempts)
}
