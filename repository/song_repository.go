package repository

import (
	"database/sql"
	"fmt"
	"time"

	"R2FM/model"
)

// SongRepository defines the interface for song catalog operations.
type SongRepository interface {
	CreateSong(song *model.Song) (int64, error)
	GetSongByContentKey(contentKey string) (*model.Song, error)
	ListSongs(offset, limit int) ([]model.Song, error)
}

// mysqlSongRepository implements SongRepository for MySQL.
type mysqlSongRepository struct {
	DB *sql.DB
}

// NewMySQLSongRepository creates a new instance of mysqlSongRepository.
func NewMySQLSongRepository(db *sql.DB) SongRepository {
	return &mysqlSongRepository{DB: db}
}

// CreateSong adds a new song to the catalog. The unique constraint on r2_id
// rejects duplicate content keys.
func (r *mysqlSongRepository) CreateSong(song *model.Song) (int64, error) {
	query := `INSERT INTO songs (r2_id, song_title, artist_name, genre, instruments, description, lyrics, uploader_user_id, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for CreateSong: %w", err)
	}
	defer stmt.Close()

	createdAt := song.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	res, err := stmt.Exec(song.ContentKey, song.Title, song.Artist, song.Genre,
		nullable(song.Instruments), nullable(song.Description), nullable(song.Lyrics),
		song.UploaderUserID, createdAt)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateSong: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateSong: %w", err)
	}
	return id, nil
}

// GetSongByContentKey retrieves a song by its content key. Returns nil when
// no song matches.
func (r *mysqlSongRepository) GetSongByContentKey(contentKey string) (*model.Song, error) {
	query := `SELECT id, r2_id, song_title, artist_name, genre, instruments, description, lyrics, uploader_user_id, created_at
	           FROM songs WHERE r2_id = ?`
	row := r.DB.QueryRow(query, contentKey)

	song, err := scanSong(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan song by content key %s: %w", contentKey, err)
	}
	return song, nil
}

// ListSongs returns one catalog page ordered newest-first by creation time.
func (r *mysqlSongRepository) ListSongs(offset, limit int) ([]model.Song, error) {
	query := `SELECT id, r2_id, song_title, artist_name, genre, instruments, description, lyrics, uploader_user_id, created_at
	           FROM songs ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.DB.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs page (offset %d, limit %d): %w", offset, limit, err)
	}
	defer rows.Close()

	songs := make([]model.Song, 0, limit)
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song in ListSongs: %w", err)
		}
		songs = append(songs, *song)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in ListSongs: %w", err)
	}

	return songs, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSong(row rowScanner) (*model.Song, error) {
	song := &model.Song{}
	var instruments, description, lyrics sql.NullString
	err := row.Scan(&song.ID, &song.ContentKey, &song.Title, &song.Artist, &song.Genre,
		&instruments, &description, &lyrics, &song.UploaderUserID, &song.CreatedAt)
	if err != nil {
		return nil, err
	}
	song.Instruments = fromNull(instruments)
	song.Description = fromNull(description)
	song.Lyrics = fromNull(lyrics)
	return song, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
