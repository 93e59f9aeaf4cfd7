package server

import (
	"net/http"
	"strconv"

	"R2FM/db"
	"R2FM/logger"
	"R2FM/model"

	"github.com/gorilla/mux"
)

const defaultPageSize = 32

// GetSongsHandler serves one catalog page, newest-first.
// GET /api/songs?offset=0&limit=32
func (h *APIHandler) GetSongsHandler(w http.ResponseWriter, r *http.Request) {
	offset := parseQueryInt(r, "offset", 0)
	limit := parseQueryInt(r, "limit", defaultPageSize)
	if offset < 0 || limit <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid offset or limit")
		return
	}

	songs, err := h.songRepo.ListSongs(offset, limit)
	if err != nil {
		logger.Error("[Songs] Failed to fetch catalog page",
			logger.Int("offset", offset), logger.Int("limit", limit), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch songs")
		return
	}

	respondJSON(w, http.StatusOK, map[string][]model.Song{"songs": songs})
}

// PlaySongHandler issues a presigned playback URL for a song's content key,
// valid for one hour. Issued URLs are cached in redis so repeated plays of
// the same song don't re-sign.
// GET /api/songs/play/{r2Id}
func (h *APIHandler) PlaySongHandler(w http.ResponseWriter, r *http.Request) {
	contentKey := mux.Vars(r)["r2Id"]
	if contentKey == "" {
		respondError(w, http.StatusBadRequest, "Invalid r2Id")
		return
	}

	song, err := h.songRepo.GetSongByContentKey(contentKey)
	if err != nil {
		logger.Error("[Play] Failed to look up song",
			logger.String("contentKey", contentKey), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if song == nil {
		respondError(w, http.StatusNotFound, "Song not found")
		return
	}

	if cached, err := db.GetCachedPlayURL(r.Context(), contentKey); err == nil && cached != "" {
		respondJSON(w, http.StatusOK, map[string]string{"url": cached})
		return
	}

	url, err := h.store.PresignedGetURL(r.Context(), song.ContentKey)
	if err != nil {
		logger.Error("[Play] Failed to generate presigned URL",
			logger.String("contentKey", contentKey), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to generate pre-signed URL")
		return
	}

	if err := db.SetCachedPlayURL(r.Context(), contentKey, url); err != nil {
		logger.Warn("[Play] Failed to cache presigned URL", logger.ErrorField(err))
	}

	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

// DownloadHandler issues a presigned GET URL for an arbitrary object key.
// GET /api/download/{objectId}
func (h *APIHandler) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	objectID := mux.Vars(r)["objectId"]
	if objectID == "" {
		respondError(w, http.StatusBadRequest, "Invalid objectId")
		return
	}

	url, err := h.store.PresignedGetURL(r.Context(), objectID)
	if err != nil {
		logger.Error("[Download] Failed to generate presigned URL",
			logger.String("objectId", objectID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to generate download URL")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

func parseQueryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
