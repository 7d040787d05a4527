package s3

// Options configures New.
type Options struct {
	// Prefix is prepended to every object key.
	Prefix string
	// Region overrides the region from the default AWS configuration.
	Region string
	// Endpoint points the client at an S3-compatible endpoint and enables
	// path-style addressing.
	Endpoint string
	// Upload tunes multipart uploads.
	Upload UploadConfig
	// Client bypasses configuration loading entirely.
	Client Client
}

// Option configures New.
type Option func(*Options)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(o *Options) { o.Prefix = prefix }
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(o *Options) { o.Region = region }
}

// WithEndpoint sets a custom endpoint such as a local S3 emulator.
func WithEndpoint(endpoint string) Option {
	return func(o *Options) { o.Endpoint = endpoint }
}

// WithUploadConfig replaces DefaultUploadConfig.
func WithUploadConfig(cfg UploadConfig) Option {
	return func(o *Options) { o.Upload = cfg }
}

// WithClient supplies a preconfigured client.
func WithClient(c Client) Option {
	return func(o *Options) { o.Client = c }
}
