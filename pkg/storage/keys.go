package storage

import (
	"fmt"
	"path"
)

const (
	// FolderVideos is the key prefix for uploaded source videos.
	FolderVideos = "videos"
	// FolderClips is the key prefix for derived clips.
	FolderClips = "clips"
)

// VideoKey returns the blob key for an upload: videos/user_{user_id}/video_{name}{ext}.
func VideoKey(userID int64, name, ext string) string {
	return path.Join(FolderVideos, fmt.Sprintf("user_%d", userID), "video_"+name+ext)
}

// ClipKey returns the blob key for a derived clip: clips/user_{user_id}/video_{video_id}/clip_{n}.mp4.
func ClipKey(userID, videoID int64, n int) string {
	return path.Join(FolderClips, fmt.Sprintf("user_%d", userID), fmt.Sprintf("video_%d", videoID), fmt.Sprintf("clip_%d.mp4", n))
}
