package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"R2FM/logger"
	"R2FM/model"

	"github.com/google/uuid"
)

// signBatchSize bounds how many presign calls run concurrently.
const signBatchSize = 10

// confirmBatchSize bounds how many catalog inserts run concurrently.
const confirmBatchSize = 50

// SignUploadsRequest is the body for batch upload-URL issuance.
type SignUploadsRequest struct {
	Files []struct {
		FileName string `json:"fileName"`
		FileType string `json:"fileType"`
	} `json:"files"`
}

// SignedUpload pairs a presigned PUT URL with the content key assigned to
// the object.
type SignedUpload struct {
	URL  string `json:"url"`
	R2ID string `json:"r2Id"`
}

// SignUploadsHandler assigns a fresh content key per file and issues
// presigned PUT URLs in batches.
// POST /api/uploads/sign
func (h *APIHandler) SignUploadsHandler(w http.ResponseWriter, r *http.Request) {
	var req SignUploadsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Files) == 0 {
		respondError(w, http.StatusBadRequest, "No files to sign")
		return
	}

	signedUrls := make([]SignedUpload, 0, len(req.Files))

	for i := 0; i < len(req.Files); i += signBatchSize {
		end := i + signBatchSize
		if end > len(req.Files) {
			end = len(req.Files)
		}
		batch := req.Files[i:end]

		results := make([]SignedUpload, len(batch))
		errs := make([]error, len(batch))

		var wg sync.WaitGroup
		for j := range batch {
			wg.Add(1)
			go func(j int) {
				defer wg.Done()
				contentKey := uuid.NewString()
				url, err := h.store.PresignedPutURL(r.Context(), contentKey)
				if err != nil {
					errs[j] = err
					return
				}
				results[j] = SignedUpload{URL: url, R2ID: contentKey}
			}(j)
		}
		wg.Wait()

		for j := range batch {
			if errs[j] != nil {
				logger.Error("[Uploads] Failed to presign upload", logger.ErrorField(errs[j]))
				respondError(w, http.StatusInternalServerError, "Error processing the uploads")
				return
			}
			signedUrls = append(signedUrls, results[j])
		}
	}

	respondJSON(w, http.StatusOK, map[string][]SignedUpload{"signedUrls": signedUrls})
}

// ConfirmUpload is one confirmed upload's catalog metadata.
type ConfirmUpload struct {
	R2ID       string `json:"r2Id"`
	ArtistName string `json:"artistName"`
	SongTitle  string `json:"songTitle"`
	FileType   string `json:"fileType"`
}

// ConfirmUploadsRequest is the body for batch upload confirmation.
type ConfirmUploadsRequest struct {
	Uploads []ConfirmUpload `json:"uploads"`
}

type failedInsert struct {
	R2ID  string `json:"r2Id"`
	Error string `json:"error"`
}

// ConfirmUploadsHandler inserts catalog rows for uploaded objects. Rows are
// inserted in batches, collecting per-row failures; a partial failure
// answers 207.
// POST /api/uploads/confirm
func (h *APIHandler) ConfirmUploadsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req ConfirmUploadsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Uploads == nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload.")
		return
	}

	var mu sync.Mutex
	var failed []failedInsert

	for i := 0; i < len(req.Uploads); i += confirmBatchSize {
		end := i + confirmBatchSize
		if end > len(req.Uploads) {
			end = len(req.Uploads)
		}
		batch := req.Uploads[i:end]

		var wg sync.WaitGroup
		for _, upload := range batch {
			wg.Add(1)
			go func(upload ConfirmUpload) {
				defer wg.Done()

				if _, err := uuid.Parse(upload.R2ID); err != nil {
					mu.Lock()
					failed = append(failed, failedInsert{R2ID: upload.R2ID, Error: "Invalid UUID."})
					mu.Unlock()
					return
				}

				song := &model.Song{
					ContentKey:     upload.R2ID,
					Title:          upload.SongTitle,
					Artist:         upload.ArtistName,
					Genre:          "Unknown",
					UploaderUserID: userID,
					CreatedAt:      time.Now(),
				}
				if _, err := h.songRepo.CreateSong(song); err != nil {
					logger.Error("[Uploads] Failed to insert catalog row",
						logger.String("contentKey", upload.R2ID), logger.ErrorField(err))
					mu.Lock()
					failed = append(failed, failedInsert{R2ID: upload.R2ID, Error: err.Error()})
					mu.Unlock()
				}
			}(upload)
		}
		wg.Wait()
	}

	if len(failed) > 0 {
		respondJSON(w, http.StatusMultiStatus, map[string]interface{}{
			"error":         "Some database entries failed to create.",
			"failedInserts": failed,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "All uploads confirmed successfully."})
}
