package errx

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

// WrapRedis maps Redis errors to AppError with appropriate status codes.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, redis.Nil) {
		return newKind(KindNotFound, err, RedisNotFoundMessage)
	}

	return newKind(KindUpstream, err, RedisErrorMessage)
}
