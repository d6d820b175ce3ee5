// Package discovery is the client side of the external discovery service that
// enumerates virtual machines on a hypervisor endpoint.
//
// Client posts the endpoint descriptor to {base_url}/discover and decodes the
// response tolerantly: numbers may arrive as strings, field names may use
// camelCase or snake_case, and absent values are kept absent rather than zeroed.
// Every call goes through a Breaker so a dead discovery service is not hammered
// on every scheduled tick.
package discovery
