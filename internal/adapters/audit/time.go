package audit

import "time"

func timeNow() time.Time {
	return time.Now().UTC()
}

func timeFromUnixNano(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}
