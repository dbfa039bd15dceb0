package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"vod-service/ddd/domain/entity"
	"vod-service/ddd/domain/gateway"
	"vod-service/ddd/domain/port"
	"vod-service/ddd/domain/repo"
	"vod-service/ddd/domain/vo"
	"vod-service/pkg/logger"
)

const (
	contentTypeHLS  = "application/vnd.apple.mpegurl"
	contentTypeTS   = "video/mp2t"
	contentTypeJPEG = "image/jpeg"
)

// TranscodePipeline 本地转码流水线，一个任务从探测到清理都在同一个 goroutine 内完成
type TranscodePipeline interface {
	Run(ctx context.Context, job *entity.TranscodeJob, report port.ProgressCallback) error
}

// PipelineOptions 流水线参数
type PipelineOptions struct {
	TempDir           string
	SegmentSeconds    int
	ThumbnailAt       float64
	UploadConcurrency int
}

type transcodePipelineImpl struct {
	media      port.MediaAdapter
	blobs      gateway.BlobStore
	contents   repo.ContentRepository
	renditions repo.RenditionRepository
	opts       PipelineOptions
}

// NewTranscodePipeline 创建流水线
func NewTranscodePipeline(media port.MediaAdapter, blobs gateway.BlobStore, contents repo.ContentRepository, renditions repo.RenditionRepository, opts PipelineOptions) TranscodePipeline {
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if opts.SegmentSeconds <= 0 {
		opts.SegmentSeconds = 6
	}
	if opts.ThumbnailAt <= 0 {
		opts.ThumbnailAt = 5
	}
	if opts.UploadConcurrency <= 0 {
		opts.UploadConcurrency = 4
	}
	return &transcodePipelineImpl{
		media:      media,
		blobs:      blobs,
		contents:   contents,
		renditions: renditions,
		opts:       opts,
	}
}

// Run 执行任务。失败时先把全部记录置为 FAILED 再返回错误，临时目录总会被清理
func (p *transcodePipelineImpl) Run(ctx context.Context, job *entity.TranscodeJob, report port.ProgressCallback) (err error) {
	if job == nil || job.ContentID == "" {
		return errors.New("invalid transcode job")
	}
	if report == nil {
		report = func(int) {}
	}
	contentID := job.ContentID

	workDir := filepath.Join(p.opts.TempDir, "jobs", workDirName(job))
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			logger.Warnf("清理临时目录失败 dir=%s err=%v", workDir, rmErr)
		}
	}()
	defer func() {
		if err == nil {
			return
		}
		// 使用独立 context，任务超时后仍要写入失败状态
		if _, markErr := p.renditions.UpdateStatusAll(context.WithoutCancel(ctx), contentID, vo.EncodingFailed); markErr != nil {
			logger.Error("标记转码失败状态出错", map[string]interface{}{
				"content_id": contentID,
				"error":      markErr.Error(),
			})
		}
	}()

	asset, err := p.contents.Get(ctx, contentID)
	if err != nil {
		return err
	}

	input, err := p.resolveSource(ctx, job.SourcePath, workDir)
	if err != nil {
		return err
	}

	info, err := p.media.Probe(ctx, input)
	if err != nil {
		return fmt.Errorf("probe %s: %w", contentID, err)
	}
	presets := vo.SelectRenditions(info.Height)
	logger.Infof("开始转码 content_id=%s job_id=%s source=%dx%d duration=%.1f renditions=%d",
		contentID, job.ID, info.Width, info.Height, info.Duration, len(presets))

	if _, err = p.renditions.UpdateStatusAll(ctx, contentID, vo.EncodingProcessing); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	if url := p.thumbnail(ctx, contentID, input, workDir, info); url != "" {
		asset.SetThumbnailURL(url)
	}

	total := len(presets)
	qualities := make([]vo.Quality, 0, total)
	for i, preset := range presets {
		done := i
		out, err := p.media.TranscodeHLS(ctx, port.HLSRequest{
			Input:          input,
			OutputDir:      filepath.Join(workDir, string(preset.Quality)),
			Preset:         preset,
			SegmentSeconds: p.opts.SegmentSeconds,
			ProgressCb: func(pct int) {
				report(scaledProgress(float64(done)+float64(pct)/100, total))
			},
		})
		if err != nil {
			return fmt.Errorf("transcode %s: %w", preset.Quality, err)
		}
		if err := p.uploadRendition(ctx, contentID, preset.Quality, out); err != nil {
			return fmt.Errorf("upload %s: %w", preset.Quality, err)
		}
		qualities = append(qualities, preset.Quality)
		report(scaledProgress(float64(i+1), total))
	}

	master, err := BuildMasterPlaylist(presets)
	if err != nil {
		return err
	}
	masterKey := MasterKey(contentID)
	if err := p.blobs.UploadBytes(ctx, masterKey, master, contentTypeHLS); err != nil {
		return fmt.Errorf("upload master playlist: %w", err)
	}
	report(95)

	if err := p.renditions.ReplaceAll(ctx, contentID, entity.CompletedRecords(contentID, qualities, masterKey, 0)); err != nil {
		return fmt.Errorf("replace renditions: %w", err)
	}

	asset.LinkLocal(info.DurationSeconds())
	if err := p.contents.UpdateEncoding(ctx, asset); err != nil {
		return fmt.Errorf("update content: %w", err)
	}
	report(100)

	logger.Infof("转码完成 content_id=%s job_id=%s qualities=%s", contentID, job.ID, strings.Join(vo.QualityStrings(qualities), ","))
	return nil
}

// resolveSource 本地路径直接使用，否则视为对象 key 下载到工作目录
func (p *transcodePipelineImpl) resolveSource(ctx context.Context, source, workDir string) (string, error) {
	if strings.TrimSpace(source) == "" {
		return "", errors.New("empty source path")
	}
	if st, err := os.Stat(source); err == nil && !st.IsDir() {
		return source, nil
	}
	local := filepath.Join(workDir, "source"+filepath.Ext(source))
	if err := p.blobs.Download(ctx, strings.TrimPrefix(source, "/"), local); err != nil {
		return "", fmt.Errorf("download source: %w", err)
	}
	return local, nil
}

// thumbnail 失败只记录日志
func (p *transcodePipelineImpl) thumbnail(ctx context.Context, contentID, input, workDir string, info vo.MediaInfo) string {
	out := filepath.Join(workDir, "thumbnail.jpg")
	if err := p.media.ExtractThumbnail(ctx, input, out, info.ThumbnailOffset(p.opts.ThumbnailAt)); err != nil {
		logger.Warnf("封面提取失败 content_id=%s err=%v", contentID, err)
		return ""
	}
	key := ThumbnailKey(contentID)
	if err := p.blobs.UploadFile(ctx, out, key, contentTypeJPEG); err != nil {
		logger.Warnf("封面上传失败 content_id=%s err=%v", contentID, err)
		return ""
	}
	return p.blobs.PublicURL(key)
}

// uploadRendition 并发上传分片，最后上传子播放列表
func (p *transcodePipelineImpl) uploadRendition(ctx context.Context, contentID string, q vo.Quality, out *port.HLSOutput) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.UploadConcurrency)
	for _, seg := range out.Segments {
		seg := seg
		g.Go(func() error {
			return p.blobs.UploadFile(gctx, seg, RenditionKey(contentID, q, filepath.Base(seg)), contentTypeTS)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return p.blobs.UploadFile(ctx, out.Playlist, RenditionKey(contentID, q, "index.m3u8"), contentTypeHLS)
}

func scaledProgress(done float64, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(90 * done / float64(total)))
}

func workDirName(job *entity.TranscodeJob) string {
	if job.ID != "" {
		return job.ContentID + "_" + job.ID
	}
	return job.ContentID
}
