package model

import "time"

// Song represents one track's catalog metadata. The content key (r2Id) is
// assigned at upload time, doubles as the object-storage key and the offline
// cache key, and is unique across all records. The numeric ID is
// catalog-local and not stable across the cache/network boundary.
type Song struct {
	ID             int64     `json:"id"`
	ContentKey     string    `json:"r2Id"`
	Title          string    `json:"songTitle"`
	Artist         string    `json:"artistName"`
	Genre          string    `json:"genre"`
	Instruments    *string   `json:"instruments"`
	Description    *string   `json:"description"`
	Lyrics         *string   `json:"lyrics"`
	UploaderUserID int64     `json:"uploaderUserId"`
	CreatedAt      time.Time `json:"createdAt"`
}

// CachedSong is a Song plus its raw audio payload, as held by the offline
// cache store. Never mutated after creation.
type CachedSong struct {
	Song
	Audio []byte `json:"audio"`
}
