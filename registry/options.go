// Package registry provides release bundle distribution through an OCI registry.
// This file contains functional options for client configuration.
package registry

// ClientOptions contains configuration options for the Client.
type ClientOptions struct {
	// Auth holds static credentials, if any. When nil, anonymous access is used.
	Auth *AuthOptions

	// PlainHTTP enables HTTP instead of HTTPS for registry connections.
	// Useful for local registries that don't support TLS.
	PlainHTTP bool

	// ORASClient allows injecting a custom transport for testing.
	// If nil, the default ORAS implementation is used.
	ORASClient ORASClient
}

// AuthOptions holds static credentials for a specific registry.
type AuthOptions struct {
	// Registry is the registry hostname the credentials apply to (e.g., "ghcr.io").
	Registry string

	// Username for authentication.
	Username string

	// Password or token for authentication.
	Password string
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*ClientOptions)

// DefaultClientOptions returns the default client configuration.
func DefaultClientOptions() *ClientOptions {
	return &ClientOptions{}
}

// WithStaticAuth configures static credentials for a specific registry.
func WithStaticAuth(registry, username, password string) ClientOption {
	return func(opts *ClientOptions) {
		opts.Auth = &AuthOptions{
			Registry: registry,
			Username: username,
			Password: password,
		}
	}
}

// WithPlainHTTP enables plain HTTP registry connections.
func WithPlainHTTP(plain bool) ClientOption {
	return func(opts *ClientOptions) {
		opts.PlainHTTP = plain
	}
}

// WithORASClient configures the client to use a custom ORAS transport.
// This is primarily used for testing to inject mock implementations.
func WithORASClient(client ORASClient) ClientOption {
	return func(opts *ClientOptions) {
		opts.ORASClient = client
	}
}
