package util

import "time"

// MillisToTime converts exchange millisecond timestamps to UTC time.
func MillisToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// TimeToMillis is the inverse of MillisToTime.
func TimeToMillis(t time.Time) int64 {
	return t.UnixMilli()
}
