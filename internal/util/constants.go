package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 文件上传相关常量
const (
	MimeVideo = "video/"
	MimeImage = "image/"
	MimeAudio = "audio/"
)

var (
	AllowedVideoExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".webm"}
	AllowedAudioExtensions = []string{".mp3", ".m4a", ".wav", ".ogg"}
)

// 分页默认值
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)
