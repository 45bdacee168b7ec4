// Error taxonomy for catalog access. Request construction defects are
// ConfigError and never retried; network and HTTP status failures are
// TransportError; malformed payloads are DecodeError. StorefrontError tags a
// failure with the storefront it came from so callers of the aggregator can
// tell which regional fetch broke.
package catalog

import (
	"fmt"
	"time"
)

// ConfigError indicates a malformed request could not be built. It signals a
// programming defect rather than a transient condition, so callers should not
// retry.
type ConfigError struct {
	Op     string
	Detail string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("catalog: %s: %s", e.Op, e.Detail)
}

// TransportError wraps a network failure or a non-2xx HTTP response. Status is
// zero when the request never produced a response.
type TransportError struct {
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("catalog: transport: status %d", e.Status)
	}
	return fmt.Sprintf("catalog: transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError indicates the response body did not match the expected shape.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("catalog: decode: %v", e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }

// TimeoutError is returned by the aggregator when a configured per-call
// deadline expires before all storefront fetches finish.
type TimeoutError struct {
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("catalog: aggregation timed out after %s", e.Limit)
}

// StorefrontError tags an underlying fetch error with the storefront it
// occurred in. The aggregator reports failures exclusively through this type.
type StorefrontError struct {
	Storefront Storefront
	Err        error
}

func (e *StorefrontError) Error() string {
	return fmt.Sprintf("storefront %s: %v", e.Storefront, e.Err)
}

func (e *StorefrontError) Unwrap() error { return e.Err }
