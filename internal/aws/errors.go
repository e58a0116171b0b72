package aws

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/vietdv277/geowalk/pkg/provider"
)

// classify maps S3 and STS failures onto the provider error taxonomy.
// HEAD requests carry no error body, so the HTTP status is checked as a fallback.
func classify(err error, path string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if sentinel := sentinelFor(err); sentinel != nil {
		return fmt.Errorf("%s: %w: %w", path, sentinel, err)
	}
	return fmt.Errorf("%s: %w", path, err)
}

func sentinelFor(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket", "NoSuchKey", "NotFound":
			return provider.ErrNotFound
		case "AccessDenied", "Forbidden", "AllAccessDisabled":
			return provider.ErrPermissionDenied
		case "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken", "InvalidToken", "InvalidClientTokenId":
			return provider.ErrAuthFailed
		case "SlowDown", "InternalError", "ServiceUnavailable", "RequestTimeout", "Throttling", "ThrottlingException":
			return provider.ErrTransient
		}
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		switch code := respErr.HTTPStatusCode(); {
		case code == http.StatusNotFound:
			return provider.ErrNotFound
		case code == http.StatusForbidden:
			return provider.ErrPermissionDenied
		case code == http.StatusUnauthorized:
			return provider.ErrAuthFailed
		case code == http.StatusTooManyRequests, code >= 500:
			return provider.ErrTransient
		}
	}

	return nil
}
