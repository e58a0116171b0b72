package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/vietdv277/geowalk/pkg/provider"
)

// Profile is a named profile from ~/.aws/config or ~/.aws/credentials
type Profile struct {
	Name   string
	Region string // from the config file if set
}

// LookupProfile loads a shared config profile. A profile that is in neither
// file yields provider.ErrNotConfigured.
func LookupProfile(ctx context.Context, name string) (*Profile, error) {
	shared, err := config.LoadSharedConfigProfile(ctx, name)
	if err != nil {
		var missing config.SharedConfigProfileNotExistError
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("%w: aws profile %q not found in ~/.aws/config or ~/.aws/credentials", provider.ErrNotConfigured, name)
		}
		return nil, fmt.Errorf("failed to load aws profile %q: %w", name, err)
	}

	return &Profile{Name: shared.Profile, Region: shared.Region}, nil
}
