package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/Cang-Fang/xingchen-dialogue/config"
	"github.com/Cang-Fang/xingchen-dialogue/internal/domain"
	"github.com/Cang-Fang/xingchen-dialogue/internal/handler"
	"github.com/Cang-Fang/xingchen-dialogue/internal/middleware"
	"github.com/Cang-Fang/xingchen-dialogue/internal/service"
	"github.com/Cang-Fang/xingchen-dialogue/internal/session"
	"github.com/Cang-Fang/xingchen-dialogue/internal/spark"
	"github.com/Cang-Fang/xingchen-dialogue/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	client, err := spark.NewClient(
		spark.Credentials{
			AppID:     cfg.Spark.AppID,
			APIKey:    cfg.Spark.APIKey,
			APISecret: cfg.Spark.APISecret,
		},
		cfg.Spark.Host, cfg.Spark.Path,
		spark.Options{
			Domain:      cfg.Spark.ModelID,
			Temperature: cfg.Spark.Temperature,
			TopK:        cfg.Spark.TopK,
			MaxTokens:   cfg.Spark.MaxTokens,
		},
		cfg.WS.ConnectTimeout, cfg.WS.ResponseTimeout,
	)
	if err != nil {
		log.Fatalf("初始化模型客户端失败: %v", err)
	}
	defer client.Close()

	var convStore domain.ConversationStore
	var fileStore *storage.FileStore
	var redisClient *redis.Client
	switch cfg.Storage.Backend {
	case "redis":
		rs, err := storage.NewRedisStore(cfg.Redis.Address, cfg.Redis.Password,
			cfg.Redis.Database, cfg.Redis.Prefix, cfg.Storage.Retention)
		if err != nil {
			log.Fatalf("初始化Redis存储失败: %v", err)
		}
		convStore = rs
		redisClient = rs.Client()
	case "file":
		fs, err := storage.NewFileStore(cfg.Storage.Dir)
		if err != nil {
			log.Fatalf("初始化文件存储失败: %v", err)
		}
		convStore = fs
		fileStore = fs
	default:
		log.Fatalf("未知的存储后端: %s", cfg.Storage.Backend)
	}

	sessions := session.NewStore(cfg.Context.MaxHistory, cfg.Context.ExpireTime, convStore)
	chatSvc := service.NewChatService(sessions, client)

	// 定期清理过期会话
	go func() {
		ticker := time.NewTicker(cfg.Context.SweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			if n := sessions.SweepExpired(); n > 0 {
				log.Printf("清理了 %d 个过期会话", n)
			}
		}
	}()

	// 文件后端定期清理超过保留期的对话，redis靠TTL自行过期
	if fileStore != nil {
		go func() {
			ticker := time.NewTicker(24 * time.Hour)
			defer ticker.Stop()
			for range ticker.C {
				n, err := fileStore.CleanOld(cfg.Storage.Retention)
				if err != nil {
					log.Printf("清理历史对话失败: %v", err)
					continue
				}
				if n > 0 {
					log.Printf("清理了 %d 条历史对话", n)
				}
			}
		}()
	}

	r := gin.Default()
	if redisClient != nil && cfg.Redis.RateLimitQPS > 0 {
		r.Use(middleware.RateLimit(redisClient, cfg.Redis.RateLimitQPS))
	}

	api := r.Group("/api")
	{
		api.POST("/chat", handler.Chat(chatSvc))
		api.POST("/clear_context", handler.ClearContext(chatSvc))
		api.GET("/session_info", handler.SessionInfo(chatSvc))
		if fileStore != nil {
			api.GET("/export", handler.Export(fileStore))
		}
	}

	log.Printf("聊天机器人服务启动, 监听端口 %d", cfg.Port)
	log.Fatal(r.Run(fmt.Sprintf(":%d", cfg.Port)))
}
