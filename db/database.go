package db

import (
	"database/sql"
	"fmt"

	"melodex/config"
	"melodex/logger"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// DB is the shared raw connection pool. The user and music repositories run
// on it; the playlist repository runs on the GORM handle in gorm.go.
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

	logger.Info("Successfully connected to the database")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't
// exist. The unique and cascading foreign key constraints declared here are
// the authoritative guards behind the Conflict and cascade semantics;
// application-level pre-checks are only an optimization.
func InitDB() error {
	statements := []struct {
		name  string
		query string
	}{
		{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(100) NOT NULL UNIQUE,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		);
		`},
		{"musics", `
		CREATE TABLE IF NOT EXISTS musics (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			artist VARCHAR(255) NOT NULL,
			link VARCHAR(767) NOT NULL,
			added_by BIGINT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			CONSTRAINT fk_music_user FOREIGN KEY (added_by) REFERENCES users(id) ON DELETE CASCADE,
			CONSTRAINT uq_title_artist UNIQUE (title, artist)
		);
		`},
		{"playlists", `
		CREATE TABLE IF NOT EXISTS playlists (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			owner_id BIGINT NOT NULL,
			private BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			CONSTRAINT fk_playlist_owner FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE,
			INDEX idx_playlist_owner (owner_id)
		);
		`},
		{"playlist_musics", `
		CREATE TABLE IF NOT EXISTS playlist_musics (
			playlist_id BIGINT NOT NULL,
			music_id BIGINT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (playlist_id, music_id),
			CONSTRAINT fk_pm_playlist FOREIGN KEY (playlist_id) REFERENCES playlists(id) ON DELETE CASCADE,
			CONSTRAINT fk_pm_music FOREIGN KEY (music_id) REFERENCES musics(id) ON DELETE CASCADE
		);
		`},
	}

	for _, stmt := range statements {
		if _, err := DB.Exec(stmt.query); err != nil {
			return fmt.Errorf("failed to create %s table: %w", stmt.name, err)
		}
		logger.Debug("Table initialized", logger.String("table", stmt.name))
	}

	logger.Info("Database schema initialization completed")
	return nil
}
