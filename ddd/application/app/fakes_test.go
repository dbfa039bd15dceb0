package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"vod-service/ddd/domain/entity"
	"vod-service/ddd/domain/gateway"
	"vod-service/ddd/domain/repo"
	"vod-service/ddd/domain/vo"
	"vod-service/ddd/infrastructure/database/persistence"
	"vod-service/pkg/errno"
)

type fixture struct {
	db         *gorm.DB
	contents   repo.ContentRepository
	renditions repo.RenditionRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, persistence.AutoMigrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return &fixture{
		db:         db,
		contents:   persistence.NewContentRepository(db),
		renditions: persistence.NewRenditionRepository(db),
	}
}

func (f *fixture) seed(t *testing.T, attrs entity.ContentAssetAttrs) *entity.ContentAsset {
	t.Helper()
	if attrs.Title == "" {
		attrs.Title = "Title " + attrs.ID
	}
	if attrs.Status == "" {
		attrs.Status = entity.LifecyclePublished
	}
	a := entity.RestoreContentAsset(attrs)
	require.NoError(t, f.contents.Create(context.Background(), a))
	return a
}

func (f *fixture) setRecords(t *testing.T, contentID string, pairs ...interface{}) {
	t.Helper()
	var records []*entity.RenditionRecord
	for i := 0; i+1 < len(pairs); i += 2 {
		q := pairs[i].(vo.Quality)
		st := pairs[i+1].(vo.EncodingStatus)
		records = append(records, entity.NewRenditionRecord(contentID, q, st, "loc", 0))
	}
	require.NoError(t, f.renditions.ReplaceAll(context.Background(), contentID, records))
}

func (f *fixture) records(t *testing.T, contentID string) []*entity.RenditionRecord {
	t.Helper()
	list, err := f.renditions.ListByAsset(context.Background(), contentID)
	require.NoError(t, err)
	return list
}

func (f *fixture) asset(t *testing.T, contentID string) *entity.ContentAsset {
	t.Helper()
	a, err := f.contents.Get(context.Background(), contentID)
	require.NoError(t, err)
	return a
}

type fakeCDN struct {
	mu         sync.Mutex
	configured bool
	videos     map[string]*gateway.RemoteVideo
	deleted    []string
	seq        int
}

func newFakeCDN() *fakeCDN {
	return &fakeCDN{configured: true, videos: map[string]*gateway.RemoteVideo{}}
}

func (c *fakeCDN) Configured() bool { return c.configured }

func (c *fakeCDN) CreateVideo(_ context.Context, name string) (*gateway.RemoteVideo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	v := &gateway.RemoteVideo{ID: fmt.Sprintf("remote-%d", c.seq), Name: name, Status: "pending"}
	c.videos[v.ID] = v
	return v, nil
}

func (c *fakeCDN) GetUploadSession(_ context.Context, id string) (*gateway.UploadSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.videos[id]; !ok {
		return nil, errno.NotFound("video %s not found", id)
	}
	return &gateway.UploadSession{UploadURL: "https://upload.example.com/" + id, Token: "upload-token", Expires: 1700000000}, nil
}

func (c *fakeCDN) GetVideo(_ context.Context, id string) (*gateway.RemoteVideo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.videos[id]
	if !ok {
		return nil, errno.NotFound("video %s not found", id)
	}
	cp := *v
	return &cp, nil
}

func (c *fakeCDN) DeleteVideo(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.videos[id]; !ok {
		return errno.NotFound("video %s not found", id)
	}
	delete(c.videos, id)
	c.deleted = append(c.deleted, id)
	return nil
}

func (c *fakeCDN) put(v *gateway.RemoteVideo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.videos[v.ID] = v
}

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string]bool
	deleted []string
}

func newFakeBlobs(keys ...string) *fakeBlobs {
	b := &fakeBlobs{objects: map[string]bool{}}
	for _, k := range keys {
		b.objects[k] = true
	}
	return b
}

func (b *fakeBlobs) UploadFile(_ context.Context, _, key, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = true
	return nil
}

func (b *fakeBlobs) UploadBytes(_ context.Context, key string, _ []byte, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = true
	return nil
}

func (b *fakeBlobs) Download(context.Context, string, string) error { return nil }

func (b *fakeBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	b.deleted = append(b.deleted, key)
	return nil
}

func (b *fakeBlobs) DeletePrefix(_ context.Context, prefix string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for k := range b.objects {
		if strings.HasPrefix(k, prefix) {
			delete(b.objects, k)
		}
	}
	b.deleted = append(b.deleted, prefix)
	return nil
}

func (b *fakeBlobs) Exists(_ context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.objects[key], nil
}

func (b *fakeBlobs) PublicURL(key string) string {
	return "http://media.local/vod/" + key
}

func (b *fakeBlobs) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}
