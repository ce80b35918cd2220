package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
	// ClockFormat 偏好设置中的时刻格式
	ClockFormat = "15:04"
)

const (
	StorageLocal  = "local"
	StorageMinio  = "minio"
	StorageMemory = "memory"
)

const MimeJSON = "application/json"
