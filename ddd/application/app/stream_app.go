package app

import (
	"context"
	"sync"
	"time"

	"vod-service/ddd/application/dto"
	"vod-service/ddd/domain/entity"
	"vod-service/ddd/domain/gateway"
	"vod-service/ddd/domain/repo"
	"vod-service/ddd/domain/service"
	"vod-service/ddd/domain/vo"
	"vod-service/ddd/infrastructure/cdn"
	"vod-service/ddd/infrastructure/database/persistence"
	"vod-service/internal/resource"
	"vod-service/pkg/assert"
	"vod-service/pkg/config"
	"vod-service/pkg/errno"
	"vod-service/pkg/logger"
	"vod-service/pkg/observability"
)

// HLSContentType 播放地址的 MIME
const HLSContentType = "application/vnd.apple.mpegurl"

var (
	singleStreamApp StreamApp
	onceStreamApp   sync.Once
)

// StreamApp 播放地址授权
type StreamApp interface {
	// GetStreamURL caller 为 nil 表示匿名
	GetStreamURL(ctx context.Context, contentID string, caller *vo.Caller) (*dto.StreamGrantDTO, error)
}

type streamAppImpl struct {
	contents    repo.ContentRepository
	renditions  repo.RenditionRepository
	entitlement service.EntitlementService
	blobs       gateway.BlobStore
	cdn         gateway.CDNGateway
	signer      *service.URLSigner
}

func DefaultStreamApp() StreamApp {
	assert.NotCircular()
	onceStreamApp.Do(func() {
		cfg := config.GetGlobalConfig()
		db := resource.DefaultDatabaseResource().MainDB()
		singleStreamApp = NewStreamApp(
			persistence.NewContentRepository(db),
			persistence.NewRenditionRepository(db),
			service.NewEntitlementService(persistence.NewEntitlementRepository(db)),
			resource.DefaultBlobStore(),
			cdn.NewClient(cfg.CDN),
			service.NewURLSigner(cfg.CDN.SigningSecret, time.Duration(cfg.Stream.URLExpiryHours)*time.Hour),
		)
	})
	assert.NotNil(singleStreamApp)
	return singleStreamApp
}

func NewStreamApp(
	contents repo.ContentRepository,
	renditions repo.RenditionRepository,
	entitlement service.EntitlementService,
	blobs gateway.BlobStore,
	gw gateway.CDNGateway,
	signer *service.URLSigner,
) StreamApp {
	return &streamAppImpl{
		contents:    contents,
		renditions:  renditions,
		entitlement: entitlement,
		blobs:       blobs,
		cdn:         gw,
		signer:      signer,
	}
}

func (s *streamAppImpl) GetStreamURL(ctx context.Context, contentID string, caller *vo.Caller) (*dto.StreamGrantDTO, error) {
	asset, err := s.contents.Get(ctx, contentID)
	if err != nil {
		return nil, err
	}
	completed, err := s.renditions.ListCompleted(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if !asset.HasProviderReference() && len(completed) == 0 {
		return nil, errno.NotFound("content %s has no video", contentID)
	}
	if len(completed) == 0 {
		return nil, errno.NotFound("video %s is not ready", contentID)
	}

	decision, err := s.entitlement.Check(ctx, asset, caller)
	if err != nil {
		return nil, err
	}
	if !decision.Granted {
		return nil, errno.Forbidden(decision.Reason)
	}

	qualities := entity.CompletedQualities(completed)
	maxQuality, _ := vo.MaxAllowedQuality(qualities, decision.AccessType)
	expiry := s.signer.Expiry()
	thumbnails := thumbnailList(asset.ThumbnailURL())

	var streamURL string
	if asset.IsCDN() {
		remote, err := s.cdn.GetVideo(ctx, asset.ProviderAssetID())
		if err != nil {
			return nil, err
		}
		manifest := remote.ManifestURL
		if manifest == "" {
			manifest = completed[0].Locator()
		}
		streamURL = s.signer.Sign(manifest, expiry)
		thumbnails = appendUnique(thumbnails, remote.Screenshots...)
	} else {
		streamURL = s.localManifestURL(contentID, completed)
	}

	observability.StreamGrantsTotal.WithLabelValues(string(decision.AccessType)).Inc()
	logger.Debugf("Stream granted content_id=%s access=%s max_quality=%s", contentID, decision.AccessType, maxQuality)

	return &dto.StreamGrantDTO{
		StreamURL:          streamURL,
		ExpiresAt:          expiry.UTC().Format(time.RFC3339),
		MaxQuality:         maxQuality.String(),
		AvailableQualities: vo.QualityStrings(qualities),
		ThumbnailURLs:      thumbnails,
		Duration:           asset.DurationSeconds(),
		Title:              asset.Title(),
		Description:        asset.Description(),
		ContentType:        HLSContentType,
		AccessType:         string(decision.AccessType),
	}, nil
}

// localManifestURL 本地产物走对象存储的公开地址，不签名
func (s *streamAppImpl) localManifestURL(contentID string, completed []*entity.RenditionRecord) string {
	if s.blobs != nil {
		return s.blobs.PublicURL(service.MasterKey(contentID))
	}
	return completed[0].Locator()
}

func thumbnailList(url string) []string {
	if url == "" {
		return []string{}
	}
	return []string{url}
}

func appendUnique(list []string, items ...string) []string {
	for _, item := range items {
		if item == "" {
			continue
		}
		dup := false
		for _, existing := range list {
			if existing == item {
				dup = true
				break
			}
		}
		if !dup {
			list = append(list, item)
		}
	}
	return list
}
