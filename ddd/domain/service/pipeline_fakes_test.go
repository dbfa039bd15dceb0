package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"vod-service/ddd/domain/entity"
	"vod-service/ddd/domain/port"
	"vod-service/ddd/domain/vo"
	"vod-service/pkg/errno"
)

type memContents struct {
	mu     sync.Mutex
	assets map[string]*entity.ContentAsset
}

func newMemContents(assets ...*entity.ContentAsset) *memContents {
	m := &memContents{assets: map[string]*entity.ContentAsset{}}
	for _, a := range assets {
		m.assets[a.ID()] = a
	}
	return m
}

func (m *memContents) Create(_ context.Context, a *entity.ContentAsset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[a.ID()] = a
	return nil
}

func (m *memContents) Get(_ context.Context, id string) (*entity.ContentAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok {
		return nil, errno.NotFound("content %s not found", id)
	}
	return a, nil
}

func (m *memContents) FindByProviderRef(_ context.Context, ref string) (*entity.ContentAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assets {
		if a.ProviderAssetID() == ref {
			return a, nil
		}
	}
	return nil, errno.NotFound("provider asset %s not found", ref)
}

func (m *memContents) UpdateEncoding(_ context.Context, a *entity.ContentAsset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[a.ID()] = a
	return nil
}

func (m *memContents) ListByProviderAndStatus(context.Context, vo.ProviderTag, []vo.EncodingStatus, int) ([]*entity.ContentAsset, error) {
	return nil, nil
}

type memRenditions struct {
	mu      sync.Mutex
	records map[string][]*entity.RenditionRecord
}

func newMemRenditions() *memRenditions {
	return &memRenditions{records: map[string][]*entity.RenditionRecord{}}
}

func (m *memRenditions) ListByAsset(_ context.Context, id string) ([]*entity.RenditionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*entity.RenditionRecord(nil), m.records[id]...), nil
}

func (m *memRenditions) ListCompleted(ctx context.Context, id string) ([]*entity.RenditionRecord, error) {
	all, _ := m.ListByAsset(ctx, id)
	var out []*entity.RenditionRecord
	for _, r := range all {
		if r.Status() == vo.EncodingCompleted {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Quality().Rank() > out[j].Quality().Rank() })
	return out, nil
}

func (m *memRenditions) ReplaceAll(_ context.Context, id string, records []*entity.RenditionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[id] = append([]*entity.RenditionRecord(nil), records...)
	return nil
}

func (m *memRenditions) DeleteByAsset(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *memRenditions) UpdateStatusAll(_ context.Context, id string, status vo.EncodingStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.records[id]
	for i, r := range recs {
		recs[i] = entity.RestoreRenditionRecord(r.ID(), r.ContentID(), r.Quality(), status, r.Locator(), r.SizeBytes(), r.CreatedAt(), time.Now())
	}
	return int64(len(recs)), nil
}

type memBlobs struct {
	mu      sync.Mutex
	objects map[string]string
	failOn  string
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string]string{}}
}

func (m *memBlobs) put(key, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != "" && filepath.Base(key) == m.failOn {
		return errors.New("upload refused")
	}
	m.objects[key] = contentType
	return nil
}

func (m *memBlobs) UploadFile(_ context.Context, localPath, key, contentType string) error {
	if _, err := os.Stat(localPath); err != nil {
		return err
	}
	return m.put(key, contentType)
}

func (m *memBlobs) UploadBytes(_ context.Context, key string, _ []byte, contentType string) error {
	return m.put(key, contentType)
}

func (m *memBlobs) Download(_ context.Context, key, localPath string) error {
	m.mu.Lock()
	_, ok := m.objects[key]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("object %s not found", key)
	}
	return os.WriteFile(localPath, []byte("src"), 0o644)
}

func (m *memBlobs) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memBlobs) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.objects {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(m.objects, k)
		}
	}
	return nil
}

func (m *memBlobs) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *memBlobs) PublicURL(key string) string {
	return "http://blobs.local/vod/" + key
}

type fakeMedia struct {
	info         vo.MediaInfo
	probeErr     error
	thumbErr     error
	transcodeErr error
	thumbAt      float64
	transcoded   []vo.Quality
}

func (f *fakeMedia) Probe(context.Context, string) (vo.MediaInfo, error) {
	return f.info, f.probeErr
}

func (f *fakeMedia) ExtractThumbnail(_ context.Context, _, output string, at float64) error {
	f.thumbAt = at
	if f.thumbErr != nil {
		return f.thumbErr
	}
	return os.WriteFile(output, []byte("jpg"), 0o644)
}

func (f *fakeMedia) TranscodeHLS(_ context.Context, req port.HLSRequest) (*port.HLSOutput, error) {
	if f.transcodeErr != nil {
		return nil, f.transcodeErr
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, err
	}
	out := &port.HLSOutput{Playlist: filepath.Join(req.OutputDir, "index.m3u8")}
	for i := 0; i < 2; i++ {
		seg := filepath.Join(req.OutputDir, fmt.Sprintf("segment_%03d.ts", i))
		if err := os.WriteFile(seg, []byte("ts"), 0o644); err != nil {
			return nil, err
		}
		out.Segments = append(out.Segments, seg)
	}
	if err := os.WriteFile(out.Playlist, []byte("#EXTM3U"), 0o644); err != nil {
		return nil, err
	}
	if req.ProgressCb != nil {
		req.ProgressCb(50)
	}
	f.transcoded = append(f.transcoded, req.Preset.Quality)
	return out, nil
}
