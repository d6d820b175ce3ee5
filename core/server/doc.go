// Package server holds the HTTP server configuration.
//
// The Config struct defines the listen port, the API key protecting every
// route and the instance name. It is embedded by core/config and validated by
// the start command before Fiber starts listening.
package server
