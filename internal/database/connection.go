package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// Connect establishes a connection to the database.
// DB_TYPE selects the backend: "sqlite" (default, file under DB_PATH or
// data/bisbi.db) or "postgres" (DSN from DATABASE_URL).
func Connect() error {
	dbType := os.Getenv("DB_TYPE")
	if dbType == "" {
		dbType = "sqlite"
	}

	if dbType == "postgres" {
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return fmt.Errorf("DATABASE_URL environment variable is not set")
		}
		db, err := sqlx.Connect("postgres", dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %v", err)
		}
		DB = db
		// Postgres schema is provisioned externally
		return nil
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dataDir := "data"
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %v", err)
		}
		dbPath = filepath.Join(dataDir, "bisbi.db")
	}

	return OpenSQLite(dbPath)
}

// OpenSQLite opens a SQLite database at the given path (":memory:" allowed),
// enables foreign keys and initializes the schema.
func OpenSQLite(path string) error {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	// Cascade deletes depend on this pragma
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %v", err)
	}

	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	DB = db

	return initializeSchema()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema() error {
	// Create user_stats table (single row, fixed id = 1)
	_, err := DB.Exec(`
		CREATE TABLE IF NOT EXISTS user_stats (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			level INTEGER NOT NULL DEFAULT 1,
			current_xp INTEGER NOT NULL DEFAULT 0,
			xp_to_next_level INTEGER NOT NULL DEFAULT 100,
			day_streak INTEGER NOT NULL DEFAULT 0,
			last_login_date INTEGER,
			total_scans INTEGER NOT NULL DEFAULT 0,
			scenarios_mastered INTEGER NOT NULL DEFAULT 0,
			high_pronunciation_scores INTEGER NOT NULL DEFAULT 0,
			words_learned INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create user_stats table: %v", err)
	}

	// Create achievements table
	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS achievements (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			icon TEXT NOT NULL DEFAULT '',
			xp_reward INTEGER NOT NULL DEFAULT 0,
			is_unlocked INTEGER NOT NULL DEFAULT 0,
			unlock_date INTEGER,
			required_count INTEGER NOT NULL DEFAULT 1
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create achievements table: %v", err)
	}

	// Create detected_objects table
	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS detected_objects (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			detections TEXT NOT NULL,
			image_path TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			lat REAL NOT NULL DEFAULT 0,
			lng REAL NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create detected_objects table: %v", err)
	}

	// Create object_details table
	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS object_details (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			detected_object_id INTEGER NOT NULL,
			object_name_en TEXT NOT NULL,
			object_name_id TEXT NOT NULL,
			description_en TEXT NOT NULL,
			description_id TEXT NOT NULL,
			bounding_box TEXT NOT NULL,
			FOREIGN KEY (detected_object_id) REFERENCES detected_objects(id) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create object_details table: %v", err)
	}
	if _, err := DB.Exec(`CREATE INDEX IF NOT EXISTS idx_object_details_parent ON object_details(detected_object_id)`); err != nil {
		return fmt.Errorf("failed to create object_details index: %v", err)
	}

	// Create related_adjectives table
	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS related_adjectives (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			object_details_id INTEGER NOT NULL,
			adjective_en TEXT NOT NULL,
			adjective_id TEXT NOT NULL,
			FOREIGN KEY (object_details_id) REFERENCES object_details(id) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create related_adjectives table: %v", err)
	}
	if _, err := DB.Exec(`CREATE INDEX IF NOT EXISTS idx_related_adjectives_parent ON related_adjectives(object_details_id)`); err != nil {
		return fmt.Errorf("failed to create related_adjectives index: %v", err)
	}

	// Create example_sentences table
	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS example_sentences (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			object_details_id INTEGER NOT NULL,
			sentence_en TEXT NOT NULL,
			sentence_id TEXT NOT NULL,
			FOREIGN KEY (object_details_id) REFERENCES object_details(id) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create example_sentences table: %v", err)
	}
	if _, err := DB.Exec(`CREATE INDEX IF NOT EXISTS idx_example_sentences_parent ON example_sentences(object_details_id)`); err != nil {
		return fmt.Errorf("failed to create example_sentences index: %v", err)
	}

	// Create scenarios table
	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS scenarios (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			lesson_data TEXT NOT NULL,
			timestamp INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create scenarios table: %v", err)
	}

	// Create vocabulary table
	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS vocabulary (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			word_en TEXT NOT NULL,
			word_id TEXT NOT NULL,
			topic TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			UNIQUE(word_en, topic)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create vocabulary table: %v", err)
	}

	// Create card_progress table
	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS card_progress (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			word_id INTEGER NOT NULL,
			times_seen INTEGER NOT NULL DEFAULT 0,
			times_correct INTEGER NOT NULL DEFAULT 0,
			learned INTEGER NOT NULL DEFAULT 0,
			last_reviewed INTEGER NOT NULL DEFAULT 0,
			UNIQUE(word_id),
			FOREIGN KEY (word_id) REFERENCES vocabulary(id) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create card_progress table: %v", err)
	}

	return nil
}
