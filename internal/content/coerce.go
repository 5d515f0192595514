package content

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidDate = errors.New("content: value is not a timestamp")
	ErrInvalidBool = errors.New("content: value is not a boolean")
)

// dateLayouts are tried in order when a date is written as a string.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02",
}

// ParseTime converts a metadata value into a timestamp. Nil yields the zero time.
func ParseTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case *time.Time:
		if v == nil {
			return time.Time{}, nil
		}
		return *v, nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, v)
	}
	return time.Time{}, fmt.Errorf("%w: %T", ErrInvalidDate, value)
}

// ParseBool converts a metadata value into a boolean. Strings accepted by
// strconv.ParseBool are coerced; nil yields false.
func ParseBool(value any) (bool, error) {
	switch v := value.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("%w: %q", ErrInvalidBool, v)
		}
		return b, nil
	}
	return false, fmt.Errorf("%w: %T", ErrInvalidBool, value)
}

func toTime(value any) (time.Time, bool) {
	t, err := ParseTime(value)
	return t, err == nil
}

func toBool(value any) (bool, bool) {
	b, err := ParseBool(value)
	return b, err == nil
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		if v == math.Trunc(v) {
			return int(v), true
		}
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	}
	return 0, false
}

// toStrings accepts a list of strings or a single string. The second result
// is false when any element is not a string.
func toStrings(value any) ([]string, bool) {
	switch v := value.(type) {
	case nil:
		return nil, true
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, true
		}
		return []string{v}, true
	case []string:
		return append([]string(nil), v...), true
	case []any:
		out := make([]string, 0, len(v))
		ok := true
		for _, item := range v {
			s, isString := item.(string)
			if !isString {
				ok = false
				continue
			}
			out = append(out, s)
		}
		return out, ok
	}
	return nil, false
}
