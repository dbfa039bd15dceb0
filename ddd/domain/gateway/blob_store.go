package gateway

import "context"

// BlobStore 对象存储网关，key 不带 bucket
type BlobStore interface {
	// UploadFile 上传本地文件
	UploadFile(ctx context.Context, localPath, key, contentType string) error

	// UploadBytes 上传内存数据
	UploadBytes(ctx context.Context, key string, data []byte, contentType string) error

	// Download 下载到本地路径
	Download(ctx context.Context, key, localPath string) error

	// Delete 删除单个对象，对象不存在不算错误
	Delete(ctx context.Context, key string) error

	// DeletePrefix 删除前缀下所有对象
	DeletePrefix(ctx context.Context, prefix string) error

	// Exists 对象是否存在
	Exists(ctx context.Context, key string) (bool, error)

	// PublicURL 对象的公开访问地址
	PublicURL(key string) string
}
