package utils

import (
	"context"
	"fmt"

	"github.com/gosimple/slug"
)

// UniqueSlug slugifies title and appends -1, -2, ... until exists reports the slug as free.
func UniqueSlug(ctx context.Context, title string, exists func(context.Context, string) (bool, error)) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "listing"
	}

	candidate := base
	for i := 1; i <= 100; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", fmt.Errorf("no free slug for %q", title)
}
