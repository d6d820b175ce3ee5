// Package integrity provides health checks for the inventory service.
//
// While vmsync keeps the inventory current, this package validates the
// infrastructure it depends on and the invariants it is supposed to uphold.
//
// # Checks Provided
//
//   - Structure: required folders (e.g. the sync report prefix) exist in the storage bucket.
//   - Schema: the inventory tables match the gorm models (columns, types).
//   - Inventory: no duplicate natural keys, no duplicate priorities per server,
//     no priority below 1, and the unique indexes enforcing this are present.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/structure : Runs structure check (supports ?fix=true).
//   - GET /integrity/schema : Runs schema check.
//   - GET /integrity/inventory : Runs the inventory audit.
package integrity
