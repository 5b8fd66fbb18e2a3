package rushdb

import (
	"strconv"
	"strings"
	"time"
)

// Timestamp returns the creation time, in milliseconds since the Unix epoch,
// encoded in a record id.
//
// Record ids are time-ordered: the first hyphen-separated segment followed by
// the first four hex digits of the second segment form the millisecond
// timestamp. For "018f3a2b-1c4d-7000-..." that is 0x018f3a2b1c4d.
func Timestamp(id string) (int64, error) {
	parts := strings.SplitN(id, "-", 3)
	if len(parts) < 2 || len(parts[1]) < 4 || parts[0] == "" {
		return 0, &ValidationError{Field: "record id", Reason: "not a time-ordered id: " + strconv.Quote(id)}
	}
	ms, err := strconv.ParseInt(parts[0]+parts[1][:4], 16, 64)
	if err != nil {
		return 0, &ValidationError{Field: "record id", Reason: err.Error(), err: err}
	}
	return ms, nil
}

// Date returns the creation time encoded in a record id.
func Date(id string) (time.Time, error) {
	ms, err := Timestamp(id)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}
