package db

import (
	"database/sql"
	"fmt"
	"log"

	"R2FM/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't exist.
// The users table is managed by GORM (see ConnectGormDB / AutoMigrateModels).
func InitDB() error {
	if err := createSongsTable(); err != nil {
		return err
	}
	log.Println("Database initialization completed.")
	return nil
}

func createSongsTable() error {
	// r2_id is the stable content key; every lookup outside the catalog page
	// queries goes through it, so it carries a unique index.
	query := `
	CREATE TABLE IF NOT EXISTS songs (
		id INT AUTO_INCREMENT PRIMARY KEY,
		r2_id VARCHAR(64) NOT NULL,
		song_title VARCHAR(255) NOT NULL,
		artist_name VARCHAR(255) NOT NULL,
		genre VARCHAR(100) NOT NULL DEFAULT 'Unknown',
		instruments TEXT,
		description TEXT,
		lyrics TEXT,
		uploader_user_id INT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT uq_songs_r2_id UNIQUE (r2_id),
		INDEX idx_songs_created_at (created_at)
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create songs table: %w", err)
	}
	log.Println("Songs table initialized successfully (or already exists).")
	return nil
}
