package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// RateLimit 基于redis的按IP限流
// incr计数并设置1秒过期，计数超过qps则拒绝请求。
func RateLimit(redisClient *redis.Client, qps int) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "rate_limit:" + c.ClientIP()

		ctx := c.Request.Context()
		count, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("限流服务出错: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "限流服务异常"})
			c.Abort()
			return
		}
		if count == 1 {
			redisClient.Expire(ctx, key, time.Second)
		}

		if count > int64(qps) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "请求过于频繁，请稍后再试",
				"qps":   qps,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
