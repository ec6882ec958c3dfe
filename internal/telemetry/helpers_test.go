package telemetry

import (
	"time"

	goredis "github.com/redis/go-redis/v9"
)

func newUnreachableClient() *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}
