package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/easysplit/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateTripTable()    // trips gained a per-trip base currency
	migrateExpenseTable() // expenses gained a free-form reference

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS trips (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		base_currency TEXT NOT NULL DEFAULT 'GBP',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS participants (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trip_id TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(trip_id) REFERENCES trips(id),
		UNIQUE(trip_id, name)
	);

	CREATE TABLE IF NOT EXISTS expenses (
		id TEXT PRIMARY KEY,
		trip_id TEXT NOT NULL,
		entry_date TEXT NOT NULL,
		reference TEXT,
		payer TEXT NOT NULL,
		currency TEXT NOT NULL,
		amount REAL NOT NULL,
		shared_by TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(trip_id) REFERENCES trips(id)
	);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

func migrateTripTable() {
	columnExists, ok := tableColumns("trips")
	if !ok {
		return
	}

	if _, exists := columnExists["base_currency"]; !exists {
		_, err := DB.Exec("ALTER TABLE trips ADD COLUMN base_currency TEXT NOT NULL DEFAULT 'GBP'")
		if err != nil {
			if logger.L != nil {
				logger.L.Error("Error adding 'base_currency' column to 'trips' table", "error", err)
			} else {
				stdlog.Printf("Error adding 'base_currency' column to 'trips' table: %v", err)
			}
		} else if logger.L != nil {
			logger.L.Info("Added 'base_currency' column to 'trips' table")
		} else {
			stdlog.Println("Added 'base_currency' column to 'trips' table")
		}
	}
}

func migrateExpenseTable() {
	columnExists, ok := tableColumns("expenses")
	if !ok {
		return
	}

	if _, exists := columnExists["reference"]; !exists {
		_, err := DB.Exec("ALTER TABLE expenses ADD COLUMN reference TEXT")
		if err != nil {
			if logger.L != nil {
				logger.L.Error("Error adding 'reference' column to 'expenses' table", "error", err)
			} else {
				stdlog.Printf("Error adding 'reference' column to 'expenses' table: %v", err)
			}
		} else if logger.L != nil {
			logger.L.Info("Added 'reference' column to 'expenses' table")
		} else {
			stdlog.Println("Added 'reference' column to 'expenses' table")
		}
	}
}

// tableColumns returns the column set of an existing table. The second
// return is false when the table does not exist yet or the schema could not
// be read; in both cases no migration should run.
func tableColumns(table string) (map[string]bool, bool) {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			if logger.L != nil {
				logger.L.Info("Table does not exist, no migration needed as table will be created.", "table", table)
			} else {
				stdlog.Printf("'%s' table does not exist, no migration needed as table will be created.", table)
			}
			return nil, false
		}
		if logger.L != nil {
			logger.L.Error("Error checking for table", "table", table, "error", err)
		} else {
			stdlog.Printf("Error checking for '%s' table: %v", table, err)
		}
		return nil, false
	}

	rows, err := DB.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema", "table", table, "error", err)
		} else {
			stdlog.Printf("Error querying table schema for '%s': %v", table, err)
		}
		return nil, false
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info", "table", table, "error", err)
			} else {
				stdlog.Printf("Error scanning column info for '%s': %v", table, err)
			}
			return nil, false
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info", "table", table, "error", err)
		} else {
			stdlog.Printf("Error iterating over column info for '%s': %v", table, err)
		}
		return nil, false
	}

	return columnExists, true
}
