// Package main 是应用程序入口
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Bodzaman/cottage-pos-backend/internal/common/cache"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/config"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/database"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/logger"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/tracing"
	"github.com/Bodzaman/cottage-pos-backend/pkg/mqtt"
)

func main() {
	// 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.GetLogger()

	log.Info("Starting Cottage POS Backend",
		zap.String("version", "1.0.0"),
		zap.String("env", cfg.Server.Mode),
	)

	// 初始化数据库连接
	db, err := database.Init(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// 初始化 Redis 连接
	redisClient, err := cache.Init(&cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Redis connected successfully")

	// 初始化链路追踪
	tracer, err := tracing.Init(&tracing.Config{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: "1.0.0",
		Environment:    cfg.Server.Mode,
		Endpoint:       cfg.Tracing.Endpoint,
		SampleRate:     cfg.Tracing.SampleRate,
		Enabled:        cfg.Tracing.Enabled,
	})
	if err != nil {
		log.Warn("Failed to init tracing", zap.Error(err))
	}

	// 初始化 MQTT 客户端（事件广播，连接失败不阻塞启动）
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		host, port := splitBroker(cfg.MQTT.Broker)
		mqttClient = mqtt.NewClient(&mqtt.Config{
			Broker:        host,
			Port:          port,
			ClientID:      cfg.MQTT.ClientIDPrefix + "-server",
			Username:      cfg.MQTT.Username,
			Password:      cfg.MQTT.Password,
			QoS:           cfg.MQTT.QoS,
			KeepAlive:     cfg.MQTT.KeepAlive,
			AutoReconnect: cfg.MQTT.AutoReconnect,
		})
		if err := mqttClient.Connect(); err != nil {
			log.Warn("Failed to connect MQTT broker, events disabled", zap.Error(err))
		} else {
			defer mqttClient.Disconnect()
		}
	}

	// 设置 Gin 模式
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.Server.Mode == "test" {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// 创建 Gin 引擎
	engine := gin.New()

	// 设置路由（含调度器）
	sched := setupRouter(engine, cfg, log, db, redisClient, mqttClient)
	sched.Start()
	defer sched.Stop()

	// 创建 HTTP 服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// 在 goroutine 中启动服务器
	go func() {
		log.Info("HTTP server starting",
			zap.String("addr", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// 创建超时上下文用于优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// 关闭追踪器
	if tracer != nil {
		if err := tracer.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown tracer", zap.Error(err))
		}
	}

	// 关闭数据库连接
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}

	log.Info("Server exited")
}

// splitBroker 拆分 broker 地址（可带 tcp:// 前缀），缺省端口 1883
func splitBroker(broker string) (string, int) {
	broker = strings.TrimPrefix(broker, "tcp://")
	host, portStr, err := net.SplitHostPort(broker)
	if err != nil {
		return broker, 1883
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 1883
	}
	return host, port
}
