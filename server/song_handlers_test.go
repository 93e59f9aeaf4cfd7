package server_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"R2FM/model"
	"R2FM/server"
)

type fakeSongRepo struct {
	songs   []model.Song
	listErr error

	gotOffset int
	gotLimit  int
}

func (f *fakeSongRepo) CreateSong(song *model.Song) (int64, error) {
	return 0, fmt.Errorf("not implemented")
}

func (f *fakeSongRepo) GetSongByContentKey(contentKey string) (*model.Song, error) {
	for i := range f.songs {
		if f.songs[i].ContentKey == contentKey {
			return &f.songs[i], nil
		}
	}
	return nil, nil
}

func (f *fakeSongRepo) ListSongs(offset, limit int) ([]model.Song, error) {
	f.gotOffset = offset
	f.gotLimit = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	if offset >= len(f.songs) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.songs) {
		end = len(f.songs)
	}
	return f.songs[offset:end], nil
}

func TestGetSongsHandlerDefaultsPageSize(t *testing.T) {
	t.Parallel()
	repo := &fakeSongRepo{songs: []model.Song{{ID: 1, ContentKey: "key-1"}}}
	h := server.NewAPIHandler(repo, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/songs", nil)
	rec := httptest.NewRecorder()
	h.GetSongsHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, repo.gotOffset)
	assert.Equal(t, 32, repo.gotLimit)

	var body struct {
		Songs []model.Song `json:"songs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Songs, 1)
	assert.Equal(t, "key-1", body.Songs[0].ContentKey)
}

func TestGetSongsHandlerPassesCursorThrough(t *testing.T) {
	t.Parallel()
	repo := &fakeSongRepo{songs: make([]model.Song, 40)}
	h := server.NewAPIHandler(repo, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/songs?offset=32&limit=32", nil)
	rec := httptest.NewRecorder()
	h.GetSongsHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 32, repo.gotOffset)
	assert.Equal(t, 32, repo.gotLimit)

	var body struct {
		Songs []model.Song `json:"songs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Songs, 8)
}

func TestGetSongsHandlerRejectsNegativeOffset(t *testing.T) {
	t.Parallel()
	h := server.NewAPIHandler(&fakeSongRepo{}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/songs?offset=-1", nil)
	rec := httptest.NewRecorder()
	h.GetSongsHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSongsHandlerReportsRepositoryFailure(t *testing.T) {
	t.Parallel()
	repo := &fakeSongRepo{listErr: fmt.Errorf("connection refused")}
	h := server.NewAPIHandler(repo, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/songs", nil)
	rec := httptest.NewRecorder()
	h.GetSongsHandler(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Error)
}
