// Package database handles database connections and schema inspection.
//
// It wraps GORM and configures either a MySQL connection (production) or a
// SQLite database (tests, single-node deployments) from the application
// configuration.
//
// # Connect
//
// Connect opens the configured driver, sets pool limits and pings the database
// within TimeoutSeconds. SQLite connections are limited to a single open
// connection so an in-memory database is shared by every caller.
//
// # Schema Inspection
//
// GetTableColumns and HasIndex back the schema integrity check, which compares
// the live tables against the gorm models of the inventory features.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", zap.Error(err))
//	}
//
//	columns, err := database.GetTableColumns(db, "virtual_machines")
package database
