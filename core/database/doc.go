// Package database handles database connections and schema inspection.
//
// It wraps GORM to configure MySQL or SQLite connections from the application's
// configuration. The database is owned by the host application; this service only
// reads the local order records from it.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns let the order store verify that the table it
// reads from has the expected shape before a reconciliation run relies on it.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "local_orders", []string{"order_id", "payment_id"})
package database
