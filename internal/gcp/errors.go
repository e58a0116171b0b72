package gcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/vietdv277/geowalk/pkg/provider"
)

// classify maps Google API errors onto the provider error taxonomy.
// The original error stays in the chain for errors.As.
func classify(err error, path string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusNotFound:
			return fmt.Errorf("%s: %w: %w", path, provider.ErrNotFound, err)
		case gerr.Code == http.StatusUnauthorized:
			return fmt.Errorf("%s: %w: %w", path, provider.ErrAuthFailed, err)
		case gerr.Code == http.StatusForbidden:
			return fmt.Errorf("%s: %w: %w", path, provider.ErrPermissionDenied, err)
		case gerr.Code == http.StatusTooManyRequests, gerr.Code >= 500:
			return fmt.Errorf("%s: %w: %w", path, provider.ErrTransient, err)
		}
		return fmt.Errorf("%s: %w", path, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%s: %w: %w", path, provider.ErrTransient, err)
	}

	return fmt.Errorf("%s: %w", path, err)
}
