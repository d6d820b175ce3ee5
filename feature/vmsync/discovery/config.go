package discovery

// Config holds configuration for the discovery service client and the
// statically configured hypervisor endpoint.
type Config struct {
	// BaseURL is the discovery service address; requests go to {BaseURL}/discover.
	BaseURL string `mapstructure:"base_url" default:""`
	// EndpointURL is the management URL of the hypervisor to discover (e.g. a vCenter).
	// When empty the endpoint is looked up in the hypervisor_endpoints table.
	EndpointURL string `mapstructure:"endpoint_url" default:""`
	// EndpointName labels the configured endpoint in logs and reports.
	EndpointName string `mapstructure:"endpoint_name" default:"default"`
	// Platform is the hypervisor platform of the configured endpoint.
	Platform string `mapstructure:"platform" default:"vcenter"`
	// Token is sent as a bearer token to the discovery service.
	Token string `mapstructure:"token" default:""`
	// TimeoutSeconds bounds a single discovery call.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"60"`
	// InsecureSkipVerify disables TLS verification towards the discovery service.
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify" default:"false"`
	// BreakerFailureThreshold is the number of consecutive failures that open the breaker.
	BreakerFailureThreshold int `mapstructure:"breaker_failure_threshold" default:"3"`
	// BreakerTimeoutSeconds is how long an open breaker rejects calls before probing.
	BreakerTimeoutSeconds int `mapstructure:"breaker_timeout_seconds" default:"60"`
}
