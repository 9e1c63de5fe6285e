package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Store field helpers
func Component(name string) Field {
	return String("component", name)
}

func Operation(op string) Field {
	return String("operation", op)
}

func Path(p string) Field {
	return String("path", p)
}

func Timestamp(ts uint64) Field {
	return Uint64("timestamp", ts)
}

func Index(i uint64) Field {
	return Uint64("index", i)
}

func Count(n uint64) Field {
	return Uint64("count", n)
}

func Bytes(n int64) Field {
	return Int64("bytes", n)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}
