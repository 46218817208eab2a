package importer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/video-analytics-bot/internal/models"
)

type memStore struct {
	videosCount    int64
	snapshotsCount int64
	countErr       error

	videos        []models.Video
	snapshots     []models.VideoSnapshot
	videoFlushes  int
	snapFlushes   int
	upsertVideoEr error
}

func (m *memStore) CountVideos() (int64, error)         { return m.videosCount, m.countErr }
func (m *memStore) CountVideoSnapshots() (int64, error) { return m.snapshotsCount, m.countErr }

func (m *memStore) UpsertVideos(videos []models.Video) error {
	if m.upsertVideoEr != nil {
		return m.upsertVideoEr
	}
	m.videoFlushes++
	m.videos = append(m.videos, videos...)
	return nil
}

func (m *memStore) UpsertVideoSnapshots(snapshots []models.VideoSnapshot) error {
	m.snapFlushes++
	m.snapshots = append(m.snapshots, snapshots...)
	return nil
}

const sampleJSON = `{
  "videos": [
    {
      "id": "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
      "creator_id": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
      "video_created_at": "2025-11-01T10:00:00+00:00",
      "views_count": 100,
      "likes_count": 10,
      "comments_count": 2,
      "reports_count": 0,
      "created_at": "2025-11-01T10:00:00+00:00",
      "updated_at": "2025-11-28T00:00:00+00:00",
      "snapshots": [
        {
          "id": "snap-1",
          "views_count": 50,
          "likes_count": 5,
          "comments_count": 1,
          "reports_count": 0,
          "delta_views_count": 50,
          "delta_likes_count": 5,
          "delta_comments_count": 1,
          "delta_reports_count": 0,
          "created_at": "2025-11-01T11:00:00+00:00",
          "updated_at": "2025-11-01T11:00:00+00:00"
        },
        {
          "id": null,
          "views_count": 0,
          "likes_count": 0,
          "comments_count": 0,
          "reports_count": 0,
          "delta_views_count": 0,
          "delta_likes_count": 0,
          "delta_comments_count": 0,
          "delta_reports_count": 0,
          "created_at": "2025-11-01T12:00:00+00:00",
          "updated_at": "2025-11-01T12:00:00+00:00"
        }
      ]
    },
    {
      "id": "не-uuid",
      "creator_id": "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
      "video_created_at": "2025-11-02T10:00:00+00:00",
      "views_count": 1,
      "likes_count": 0,
      "comments_count": 0,
      "reports_count": 0,
      "created_at": "2025-11-02T10:00:00+00:00",
      "updated_at": "2025-11-02T10:00:00+00:00",
      "snapshots": [
        {
          "id": "snap-orphan",
          "views_count": 1,
          "likes_count": 0,
          "comments_count": 0,
          "reports_count": 0,
          "delta_views_count": 1,
          "delta_likes_count": 0,
          "delta_comments_count": 0,
          "delta_reports_count": 0,
          "created_at": "2025-11-02T11:00:00+00:00",
          "updated_at": "2025-11-02T11:00:00+00:00"
        }
      ]
    },
    {
      "id": "6ba7b811-9dad-11d1-80b4-00c04fd430c8",
      "creator_id": "cccccccccccccccccccccccccccccccc",
      "video_created_at": "2025-11-03T10:00:00+00:00",
      "views_count": 7,
      "likes_count": 3,
      "comments_count": 0,
      "reports_count": 1,
      "created_at": "2025-11-03T10:00:00+00:00",
      "updated_at": "2025-11-03T10:00:00+00:00",
      "snapshots": []
    }
  ]
}`

func writeSample(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "videos.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportVideosSkipsInvalidRecords(t *testing.T) {
	store := &memStore{}
	im := New(store)

	require.NoError(t, im.ImportVideos(writeSample(t, sampleJSON)))

	// Видео с нечитаемым UUID и замер без id пропущены
	require.Len(t, store.videos, 2)
	require.Len(t, store.snapshots, 1)

	v := store.videos[0]
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", v.ID.String())
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", v.CreatorID)
	assert.Equal(t, time.Date(2025, 11, 1, 10, 0, 0, 0, time.UTC), v.VideoCreatedAt)
	assert.Equal(t, int64(100), v.ViewsCount)

	s := store.snapshots[0]
	assert.Equal(t, "snap-1", s.ID)
	assert.Equal(t, v.ID, s.VideoID)
	assert.Equal(t, int64(50), s.DeltaViewsCount)
}

func TestImportVideosBatches(t *testing.T) {
	store := &memStore{}
	im := &Importer{store: store, batchSize: 1}

	require.NoError(t, im.ImportVideos(writeSample(t, sampleJSON)))

	// При пачке из одного видео каждое валидное видео уходит отдельным вызовом
	assert.Equal(t, 2, store.videoFlushes)
	assert.Len(t, store.videos, 2)
	assert.Len(t, store.snapshots, 1)
}

func TestImportVideosPropagatesUpsertError(t *testing.T) {
	store := &memStore{upsertVideoEr: errors.New("нет соединения")}
	im := New(store)

	assert.Error(t, im.ImportVideos(writeSample(t, sampleJSON)))
}

func TestImportVideosRejectsBadTimestamp(t *testing.T) {
	bad := `{"videos": [{
		"id": "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		"creator_id": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"video_created_at": "вчера",
		"created_at": "2025-11-01T10:00:00+00:00",
		"updated_at": "2025-11-01T10:00:00+00:00",
		"snapshots": []
	}]}`
	store := &memStore{}
	im := New(store)

	assert.Error(t, im.ImportVideos(writeSample(t, bad)))
}

func TestEnsureImportedSkipsWhenCountsMatch(t *testing.T) {
	store := &memStore{videosCount: 2, snapshotsCount: 1}
	im := New(store)

	imported, err := im.EnsureImported(writeSample(t, sampleJSON))
	require.NoError(t, err)
	assert.False(t, imported)
	assert.Empty(t, store.videos)
}

func TestEnsureImportedRunsWhenBehind(t *testing.T) {
	store := &memStore{videosCount: 1, snapshotsCount: 0}
	im := New(store)

	imported, err := im.EnsureImported(writeSample(t, sampleJSON))
	require.NoError(t, err)
	assert.True(t, imported)
	assert.Len(t, store.videos, 2)
}

func TestEnsureImportedRunsWhenCountCheckFails(t *testing.T) {
	store := &memStore{countErr: errors.New("таблицы ещё нет")}
	im := New(store)

	imported, err := im.EnsureImported(writeSample(t, sampleJSON))
	require.NoError(t, err)
	assert.True(t, imported)
	assert.Len(t, store.videos, 2)
}

func TestEnsureImportedMissingFile(t *testing.T) {
	store := &memStore{videosCount: 0, snapshotsCount: 0}
	im := New(store)

	_, err := im.EnsureImported(filepath.Join(t.TempDir(), "нет.json"))
	assert.Error(t, err)
}
