package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"

	"vod-service/ddd/domain/gateway"
	"vod-service/pkg/logger"
)

// MinioStorage MinIO存储实现
type MinioStorage struct {
	client     *minio.Client
	bucketName string
	publicBase string
}

// NewMinioStorage 创建MinIO存储实例，publicBase 为空时使用 endpoint 拼接公开地址
func NewMinioStorage(client *minio.Client, bucketName, publicBase string) *MinioStorage {
	if publicBase == "" && client != nil {
		publicBase = client.EndpointURL().String()
	}
	return &MinioStorage{client: client, bucketName: bucketName, publicBase: publicBase}
}

var _ gateway.BlobStore = (*MinioStorage)(nil)

// UploadFile 上传本地文件
func (s *MinioStorage) UploadFile(ctx context.Context, localPath, key, contentType string) error {
	file, err := os.Open(localPath)
	if err != nil {
		logger.Error("Failed to open local file", map[string]interface{}{
			"local_path": localPath,
			"error":      err.Error(),
		})
		return fmt.Errorf("open local file failed: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return fmt.Errorf("get file info failed: %w", err)
	}
	if contentType == "" {
		contentType = ContentTypeFromExtension(key)
	}

	_, err = s.client.PutObject(ctx, s.bucketName, key, file, fileInfo.Size(), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		logger.Error("Failed to upload file to MinIO", map[string]interface{}{
			"local_path": localPath,
			"object_key": key,
			"error":      err.Error(),
		})
		return fmt.Errorf("upload file to minio failed: %w", err)
	}
	logger.Debug("Object uploaded", map[string]interface{}{
		"object_key": key,
		"size":       fileInfo.Size(),
	})
	return nil
}

// UploadBytes 上传内存数据
func (s *MinioStorage) UploadBytes(ctx context.Context, key string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = ContentTypeFromExtension(key)
	}
	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		logger.Error("Failed to upload bytes to MinIO", map[string]interface{}{
			"object_key": key,
			"error":      err.Error(),
		})
		return fmt.Errorf("upload object to minio failed: %w", err)
	}
	return nil
}

// Download 从MinIO下载文件到本地路径
func (s *MinioStorage) Download(ctx context.Context, key, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("create local directory failed: %w", err)
	}
	if err := s.client.FGetObject(ctx, s.bucketName, key, localPath, minio.GetObjectOptions{}); err != nil {
		logger.Error("Failed to download file from MinIO", map[string]interface{}{
			"object_key": key,
			"local_path": localPath,
			"error":      err.Error(),
		})
		return fmt.Errorf("download file from minio failed: %w", err)
	}
	return nil
}

// Delete 删除单个对象，MinIO 对不存在的 key 不返回错误
func (s *MinioStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

// DeletePrefix 删除前缀下所有对象
func (s *MinioStorage) DeletePrefix(ctx context.Context, prefix string) error {
	objectsCh := make(chan minio.ObjectInfo)
	go func() {
		defer close(objectsCh)
		for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
			if obj.Err != nil {
				logger.Warnf("list objects failed prefix=%s err=%v", prefix, obj.Err)
				return
			}
			objectsCh <- obj
		}
	}()

	var firstErr error
	for rErr := range s.client.RemoveObjects(ctx, s.bucketName, objectsCh, minio.RemoveObjectsOptions{}) {
		logger.Error("Failed to remove object", map[string]interface{}{
			"object_key": rErr.ObjectName,
			"error":      rErr.Err.Error(),
		})
		if firstErr == nil {
			firstErr = rErr.Err
		}
	}
	if firstErr != nil {
		return fmt.Errorf("remove prefix %s: %w", prefix, firstErr)
	}
	return nil
}

// Exists 对象是否存在
func (s *MinioStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, err
}

// PublicURL 对象公开地址
func (s *MinioStorage) PublicURL(key string) string {
	return PublicObjectURL(s.publicBase, s.bucketName, key)
}

// PublicObjectURL {base}/{bucket}/{key}
func PublicObjectURL(base, bucket, key string) string {
	key = strings.TrimLeft(key, "/")
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	if bucket == "" {
		return base + "/" + key
	}
	return base + "/" + bucket + "/" + key
}

// ContentTypeFromExtension 根据文件扩展名获取内容类型
func ContentTypeFromExtension(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp4":
		return "video/mp4"
	case ".m3u8":
		return "application/vnd.apple.mpegurl"
	case ".ts":
		return "video/mp2t"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".mov":
		return "video/quicktime"
	case ".mkv":
		return "video/x-matroska"
	case ".webm":
		return "video/webm"
	default:
		return "application/octet-stream"
	}
}
