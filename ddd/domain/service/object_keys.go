package service

import "vod-service/ddd/domain/vo"

// 对象存储 key 约定，均以 content_id 为前缀

func AssetPrefix(contentID string) string {
	return contentID + "/"
}

func MasterKey(contentID string) string {
	return contentID + "/master.m3u8"
}

func ThumbnailKey(contentID string) string {
	return contentID + "/thumbnail.jpg"
}

func RenditionKey(contentID string, q vo.Quality, name string) string {
	return contentID + "/" + string(q) + "/" + name
}
