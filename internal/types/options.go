package types

import "time"

// SetOptions carries the expiration for write-shaped operations. Either a
// relative TTL or an absolute ExpiresAt may be set; when both are present
// the absolute time wins. A nil *SetOptions means "backend default".
type SetOptions struct {
	TTL       time.Duration
	ExpiresAt time.Time
}

// Expiry resolves the options to a relative duration against now. Zero
// means no explicit expiration was requested.
func (o *SetOptions) Expiry() time.Duration {
	if o == nil {
		return 0
	}
	if !o.ExpiresAt.IsZero() {
		d := time.Until(o.ExpiresAt)
		if d < 0 {
			// Already expired; smallest positive TTL so backends drop it
			// rather than treating zero as "no expiry".
			return time.Nanosecond
		}
		return d
	}
	return o.TTL
}

// SetOption is a functional option for write-shaped operations.
type SetOption func(*SetOptions)

// ApplySetOptions folds functional options into a SetOptions value.
// Returns nil when no options were given so backends see "use defaults".
func ApplySetOptions(opts ...SetOption) *SetOptions {
	if len(opts) == 0 {
		return nil
	}
	options := &SetOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

func WithTTL(ttl time.Duration) SetOption {
	return func(o *SetOptions) {
		o.TTL = ttl
	}
}

func WithExpiresAt(at time.Time) SetOption {
	return func(o *SetOptions) {
		o.ExpiresAt = at
	}
}
