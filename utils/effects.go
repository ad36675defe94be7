package utils

import (
	"context"
	"log"
)

// BestEffort runs a side effect whose failure must not fail the request.
// Errors and panics are logged and swallowed.
func BestEffort(ctx context.Context, name string, fn func(context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("%s panicked: %v", name, r)
		}
	}()
	if err := fn(ctx); err != nil {
		log.Printf("%s failed: %v", name, err)
	}
}
