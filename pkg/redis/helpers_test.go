package redis

import "github.com/echo-journal/echo-backend/pkg/config"

func configRedis(url string) config.RedisConfig {
	return config.RedisConfig{URL: url}
}
