package app

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"strings"
	"sync"

	"vod-service/ddd/application/cqe"
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

var (
	singleCDNApp CDNApp
	onceCDNApp   sync.Once
)

// CDNApp 外部编码服务上的视频：上传凭证、状态同步、回调与删除
type CDNApp interface {
	// RequestUploadCredentials 创建远端视频并返回直传凭证
	RequestUploadCredentials(ctx context.Context, contentID string) (*dto.UploadCredentialsDTO, error)
	// SyncStatus 拉取远端状态并写回本地记录
	SyncStatus(ctx context.Context, contentID string) (*dto.VideoStatusDTO, error)
	// HandleWebhook 处理回调，任何情况下都返回确认
	HandleWebhook(ctx context.Context, rawBody []byte, signature string) *dto.WebhookAckDTO
	// DeleteVideo 删除远端视频与本地记录
	DeleteVideo(ctx context.Context, contentID string) error
	// ReconcilePending 轮询未结束的 CDN 视频，返回成功同步的数量
	ReconcilePending(ctx context.Context, limit int) (int, error)
}

type cdnAppImpl struct {
	contents      repo.ContentRepository
	renditions    repo.RenditionRepository
	cdn           gateway.CDNGateway
	blobs         gateway.BlobStore
	webhookSecret string
}

// DefaultCDNApp 使用全局资源构建
func DefaultCDNApp() CDNApp {
	assert.NotCircular()
	onceCDNApp.Do(func() {
		cfg := config.GetGlobalConfig()
		db := resource.DefaultDatabaseResource().MainDB()
		singleCDNApp = NewCDNApp(
			persistence.NewContentRepository(db),
			persistence.NewRenditionRepository(db),
			cdn.NewClient(cfg.CDN),
			resource.DefaultBlobStore(),
			cfg.CDN.WebhookSecret,
		)
	})
	assert.NotNil(singleCDNApp)
	return singleCDNApp
}

// NewCDNApp blobs 用于清理转到 CDN 前的本地产物，可为 nil；webhookSecret 为空时不校验签名
func NewCDNApp(contents repo.ContentRepository, renditions repo.RenditionRepository, gw gateway.CDNGateway, blobs gateway.BlobStore, webhookSecret string) CDNApp {
	return &cdnAppImpl{
		contents:      contents,
		renditions:    renditions,
		cdn:           gw,
		blobs:         blobs,
		webhookSecret: webhookSecret,
	}
}

func (a *cdnAppImpl) RequestUploadCredentials(ctx context.Context, contentID string) (*dto.UploadCredentialsDTO, error) {
	if a.cdn == nil || !a.cdn.Configured() {
		return nil, errno.InvalidRequest("cdn api key is not configured")
	}
	asset, err := a.contents.Get(ctx, contentID)
	if err != nil {
		return nil, err
	}

	// 旧的远端视频删不掉不影响重新上传
	if asset.IsCDN() && asset.HasProviderReference() {
		if err := a.cdn.DeleteVideo(ctx, asset.ProviderAssetID()); err != nil && !errno.IsNotFound(err) {
			logger.Warnf("Delete previous remote video failed content_id=%s provider_asset_id=%s error=%v", contentID, asset.ProviderAssetID(), err)
		}
	}

	if asset.Provider() == vo.ProviderLocal {
		a.dropLocalArtifacts(ctx, asset)
	}

	remote, err := a.cdn.CreateVideo(ctx, asset.Title())
	if err != nil {
		return nil, err
	}
	session, err := a.cdn.GetUploadSession(ctx, remote.ID)
	if err != nil {
		return nil, err
	}

	asset.LinkCDN(remote.ID)
	if err := a.contents.UpdateEncoding(ctx, asset); err != nil {
		return nil, err
	}
	if err := a.renditions.ReplaceAll(ctx, contentID, []*entity.RenditionRecord{entity.NewPlaceholderRecord(contentID)}); err != nil {
		return nil, err
	}

	logger.Infof("CDN upload credentials issued content_id=%s provider_asset_id=%s", contentID, remote.ID)
	return &dto.UploadCredentialsDTO{
		UploadURL:       session.UploadURL,
		Token:           session.Token,
		Expires:         session.Expires,
		ProviderAssetID: remote.ID,
	}, nil
}

// dropLocalArtifacts 本地转码产物改由 CDN 托管后不再引用，删除失败只记日志
func (a *cdnAppImpl) dropLocalArtifacts(ctx context.Context, asset *entity.ContentAsset) {
	if a.blobs != nil {
		if err := a.blobs.DeletePrefix(ctx, service.AssetPrefix(asset.ID())); err != nil {
			logger.Warnf("Delete local artifacts failed content_id=%s error=%v", asset.ID(), err)
		}
	}
	// 时长与封面由 CDN 同步时重新回填
	asset.ResetProvider()
}

func (a *cdnAppImpl) SyncStatus(ctx context.Context, contentID string) (*dto.VideoStatusDTO, error) {
	asset, err := a.contents.Get(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if !asset.HasProviderReference() {
		return &dto.VideoStatusDTO{
			ContentID:          contentID,
			Status:             vo.EncodingPending.String(),
			AvailableQualities: []string{},
		}, nil
	}
	if !asset.IsCDN() {
		return nil, errno.InvalidRequest("content %s is not encoded by the cdn provider", contentID)
	}
	if a.cdn == nil || !a.cdn.Configured() {
		return nil, errno.InvalidRequest("cdn api key is not configured")
	}

	remote, err := a.cdn.GetVideo(ctx, asset.ProviderAssetID())
	if err != nil {
		return nil, err
	}
	snap := mapRemote(remote)

	if snap.status == vo.EncodingCompleted && len(snap.ready) > 0 {
		records := entity.CompletedRecords(contentID, snap.ready, remote.ManifestURL, remote.TotalSize)
		if err := a.renditions.ReplaceAll(ctx, contentID, records); err != nil {
			return nil, err
		}
	}
	if _, err := a.renditions.UpdateStatusAll(ctx, contentID, snap.status); err != nil {
		return nil, err
	}
	if err := a.backfill(ctx, asset, remote); err != nil {
		return nil, err
	}

	return &dto.VideoStatusDTO{
		ContentID:          contentID,
		ProviderAssetID:    asset.ProviderAssetID(),
		Status:             snap.status.String(),
		AvailableQualities: vo.QualityStrings(snap.ready),
		Progress:           dto.IntPtr(snap.progress),
		ThumbnailURL:       asset.ThumbnailURL(),
		Duration:           dto.PositiveIntPtr(asset.DurationSeconds()),
	}, nil
}

func (a *cdnAppImpl) HandleWebhook(ctx context.Context, rawBody []byte, signature string) *dto.WebhookAckDTO {
	signature = strings.TrimSpace(signature)
	if a.webhookSecret != "" && signature != "" && !VerifyWebhookSignature(rawBody, signature, a.webhookSecret) {
		observability.WebhooksTotal.WithLabelValues("unknown", "invalid_signature").Inc()
		logger.Warnf("Webhook signature mismatch body_size=%d", len(rawBody))
		return &dto.WebhookAckDTO{Received: false, Message: "invalid signature"}
	}

	var event cqe.WebhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		observability.WebhooksTotal.WithLabelValues("unknown", "malformed").Inc()
		logger.Warnf("Webhook payload malformed error=%v", err)
		return &dto.WebhookAckDTO{Received: true, Message: "malformed payload ignored"}
	}

	outcome, err := a.applyWebhook(ctx, &event)
	if err != nil {
		// 回调一律确认，避免服务方无限重试
		outcome = "error"
		logger.Error("Webhook processing failed", map[string]interface{}{
			"event":             event.Event,
			"provider_asset_id": event.VideoID,
			"error":             err.Error(),
		})
	}
	observability.WebhooksTotal.WithLabelValues(eventLabel(event.Event), outcome).Inc()
	return &dto.WebhookAckDTO{Received: true, Message: outcome}
}

func (a *cdnAppImpl) applyWebhook(ctx context.Context, event *cqe.WebhookEvent) (string, error) {
	if event.VideoID == "" {
		return "ignored", nil
	}
	asset, err := a.contents.FindByProviderRef(ctx, event.VideoID)
	if errno.IsNotFound(err) {
		logger.Infof("Webhook for unknown asset ignored event=%s provider_asset_id=%s", event.Event, event.VideoID)
		return "unknown asset", nil
	}
	if err != nil {
		return "", err
	}
	contentID := asset.ID()
	remote := event.Remote()

	switch event.Event {
	case cqe.WebhookEncodingCompleted:
		snap := mapRemote(remote)
		qualities := snap.ready
		if len(qualities) == 0 && remote.ManifestURL != "" {
			qualities = []vo.Quality{vo.MidTierQuality()}
		}
		if len(qualities) == 0 {
			return "nothing to apply", nil
		}
		records := entity.CompletedRecords(contentID, qualities, remote.ManifestURL, remote.TotalSize)
		if err := a.renditions.ReplaceAll(ctx, contentID, records); err != nil {
			return "", err
		}
		if err := a.backfill(ctx, asset, remote); err != nil {
			return "", err
		}
		logger.Infof("CDN encoding completed content_id=%s qualities=%v", contentID, vo.QualityStrings(qualities))

	case cqe.WebhookEncodingFailed:
		if _, err := a.renditions.UpdateStatusAll(ctx, contentID, vo.EncodingFailed); err != nil {
			return "", err
		}
		logger.Warnf("CDN encoding failed content_id=%s provider_asset_id=%s", contentID, event.VideoID)

	case cqe.WebhookEncodingProgress:
		snap := mapRemote(remote)
		logger.Infof("CDN encoding progress content_id=%s progress=%d", contentID, snap.progress)
		if err := a.writeStatusUnlessCompleted(ctx, contentID, vo.EncodingProcessing); err != nil {
			return "", err
		}

	default:
		if err := a.writeStatusUnlessCompleted(ctx, contentID, vo.MapProviderStatus(event.Status)); err != nil {
			return "", err
		}
	}
	return "ok", nil
}

// writeStatusUnlessCompleted 乱序到达的回调不能把已完成的记录改回去
func (a *cdnAppImpl) writeStatusUnlessCompleted(ctx context.Context, contentID string, status vo.EncodingStatus) error {
	records, err := a.renditions.ListByAsset(ctx, contentID)
	if err != nil {
		return err
	}
	if entity.AllCompleted(records) {
		logger.Warnf("Ignore out-of-order webhook status content_id=%s status=%s", contentID, status)
		return nil
	}
	_, err = a.renditions.UpdateStatusAll(ctx, contentID, status)
	return err
}

func (a *cdnAppImpl) DeleteVideo(ctx context.Context, contentID string) error {
	asset, err := a.contents.Get(ctx, contentID)
	if err != nil {
		return err
	}
	if asset.HasProviderReference() && a.cdn != nil {
		if err := a.cdn.DeleteVideo(ctx, asset.ProviderAssetID()); err != nil && !errno.IsNotFound(err) {
			return err
		}
	}
	if err := a.renditions.DeleteByAsset(ctx, contentID); err != nil {
		return err
	}
	asset.ResetProvider()
	if err := a.contents.UpdateEncoding(ctx, asset); err != nil {
		return err
	}
	logger.Infof("CDN video deleted content_id=%s", contentID)
	return nil
}

func (a *cdnAppImpl) ReconcilePending(ctx context.Context, limit int) (int, error) {
	assets, err := a.contents.ListByProviderAndStatus(ctx, vo.ProviderCDN, []vo.EncodingStatus{vo.EncodingPending, vo.EncodingProcessing}, limit)
	if err != nil {
		return 0, err
	}
	synced := 0
	for _, asset := range assets {
		if ctx.Err() != nil {
			return synced, ctx.Err()
		}
		if _, err := a.SyncStatus(ctx, asset.ID()); err != nil {
			logger.Warnf("Reconcile CDN status failed content_id=%s error=%v", asset.ID(), err)
			continue
		}
		synced++
	}
	return synced, nil
}

// backfill 只补全为空的时长与封面
func (a *cdnAppImpl) backfill(ctx context.Context, asset *entity.ContentAsset, remote *gateway.RemoteVideo) error {
	thumb := remote.PosterURL
	if thumb == "" && len(remote.Screenshots) > 0 {
		thumb = remote.Screenshots[0]
	}
	if !asset.BackfillMedia(int(math.Round(remote.Duration)), thumb) {
		return nil
	}
	return a.contents.UpdateEncoding(ctx, asset)
}

// remoteSnapshot 远端状态映射到内部状态机后的结果
type remoteSnapshot struct {
	status   vo.EncodingStatus
	ready    []vo.Quality
	progress int
}

func mapRemote(v *gateway.RemoteVideo) remoteSnapshot {
	snap := remoteSnapshot{status: vo.MapProviderStatus(v.Status)}
	total := 0
	for _, r := range v.Renditions {
		total += r.Progress
		if vo.MapProviderStatus(r.Status) != vo.EncodingCompleted {
			continue
		}
		if q, ok := renditionQuality(r); ok {
			snap.ready = append(snap.ready, q)
		}
	}
	if n := len(v.Renditions); n > 0 {
		snap.progress = int(math.Round(float64(total) / float64(n)))
	}
	snap.ready = vo.SortQualitiesDesc(snap.ready)
	return snap
}

// renditionQuality 优先按名称识别，名称不规范时按高度
func renditionQuality(r gateway.RemoteRendition) (vo.Quality, bool) {
	if q, err := vo.ParseQuality(r.Name); err == nil {
		return q, true
	}
	return vo.QualityFromHeight(r.Height)
}

// VerifyWebhookSignature HMAC-SHA256(body) 的十六进制，常量时间比较
func VerifyWebhookSignature(body []byte, signature, secret string) bool {
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

func eventLabel(event string) string {
	switch event {
	case cqe.WebhookEncodingCompleted, cqe.WebhookEncodingFailed, cqe.WebhookEncodingProgress:
		return event
	default:
		return "other"
	}
}
