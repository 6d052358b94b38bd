// Package main 是应用程序入口
package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/Bodzaman/cottage-pos-backend/docs"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/config"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/jwt"
	"github.com/Bodzaman/cottage-pos-backend/internal/common/metrics"
	commonMiddleware "github.com/Bodzaman/cottage-pos-backend/internal/common/middleware"
	authHandler "github.com/Bodzaman/cottage-pos-backend/internal/handler/auth"
	orderHandler "github.com/Bodzaman/cottage-pos-backend/internal/handler/order"
	reportHandler "github.com/Bodzaman/cottage-pos-backend/internal/handler/report"
	"github.com/Bodzaman/cottage-pos-backend/internal/middleware"
	"github.com/Bodzaman/cottage-pos-backend/internal/repository"
	"github.com/Bodzaman/cottage-pos-backend/internal/scheduler"
	authService "github.com/Bodzaman/cottage-pos-backend/internal/service/auth"
	"github.com/Bodzaman/cottage-pos-backend/internal/service/notify"
	orderService "github.com/Bodzaman/cottage-pos-backend/internal/service/order"
	reportService "github.com/Bodzaman/cottage-pos-backend/internal/service/report"
	"github.com/Bodzaman/cottage-pos-backend/pkg/mqtt"
	"github.com/Bodzaman/cottage-pos-backend/pkg/printer"
	"github.com/Bodzaman/cottage-pos-backend/pkg/sms"
)

// setupRouter 设置路由并装配服务，返回已注册任务的调度器
func setupRouter(
	r *gin.Engine,
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
	mqttClient *mqtt.Client,
) *scheduler.Scheduler {
	// 创建 JWT 管理器
	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            cfg.JWT.Secret,
		AccessExpireTime:  cfg.JWT.AccessTokenDuration(),
		RefreshExpireTime: cfg.JWT.RefreshTokenDuration(),
		Issuer:            cfg.JWT.Issuer,
	})

	// 初始化仓储
	staffRepo := repository.NewStaffRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	reportRepo := repository.NewReportRepository(db)
	drawerRepo := repository.NewDrawerRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// 营业日历
	calendar, err := reportService.NewBusinessCalendar(
		cfg.Business.Restaurant.Timezone,
		cfg.Business.Restaurant.DayCutoffHour,
	)
	if err != nil {
		logger.Fatal("invalid business calendar config", zap.Error(err))
	}

	// 事件广播与店主短信通知
	var publisher notify.EventPublisher
	if mqttClient != nil {
		publisher = mqtt.NewPublisher(mqttClient, cfg.MQTT.TopicPrefix, cfg.Server.Name)
	}
	var smsSender sms.Sender
	if cfg.SMS.Enabled {
		if cfg.SMS.Provider == "aliyun" && cfg.SMS.AccessKeyID != "" {
			sender, err := sms.NewAliyunSender(&sms.Config{
				AccessKeyID:     cfg.SMS.AccessKeyID,
				AccessKeySecret: cfg.SMS.AccessKeySecret,
				SignName:        cfg.SMS.SignName,
			})
			if err != nil {
				logger.Warn("sms sender init failed, falling back to mock", zap.Error(err))
				smsSender = sms.NewMockSender()
			} else {
				smsSender = sender
			}
		} else {
			smsSender = sms.NewMockSender()
		}
	}
	notifySvc := notify.NewService(&cfg.SMS, &cfg.Business, smsSender, publisher)

	// 初始化服务
	authSvc := authService.NewAuthService(db, staffRepo, jwtManager)
	reportSvc := reportService.NewReportService(db, reportRepo, orderRepo, drawerRepo, calendar, &cfg.Business, redisClient, notifySvc)
	orderSvc := orderService.NewOrderService(db, orderRepo, reportRepo, calendar, publisher)

	// 打印机客户端
	var printerClient printer.Client
	if cfg.Printer.Enabled {
		client, err := printer.NewNetworkClient(&printer.Config{
			Addr:    cfg.Printer.Addr(),
			Timeout: time.Duration(cfg.Printer.Timeout) * time.Second,
		})
		if err != nil {
			logger.Warn("printer init failed, printing disabled", zap.Error(err))
		} else {
			printerClient = client
		}
	}
	printSvc := reportService.NewPrintService(reportSvc, printerClient, &cfg.Business, cfg.Printer.Width)

	// 初始化处理器
	authH := authHandler.NewAuthHandler(authSvc)
	reportH := reportHandler.NewReportHandler(reportSvc, printSvc)
	orderH := orderHandler.NewOrderHandler(orderSvc)

	// 指标
	m := metrics.Init("")

	// 审计日志
	audit := commonMiddleware.NewAuditLogger(auditRepo)

	// 全局中间件
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(nil))
	r.Use(middleware.SecureHeaders())
	r.Use(m.Middleware())
	r.Use(commonMiddleware.Tracing(&commonMiddleware.TracingConfig{
		ServiceName: cfg.Tracing.ServiceName,
		SkipPaths:   []string{"/health", "/ping", "/ready", "/metrics"},
	}))
	r.Use(middleware.AccessLog(logger))

	// 健康检查（不需要认证）
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(db, redisClient))

	// Prometheus 指标
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metrics.Handler())
	}

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 路由组
	v1 := r.Group("/api/v1")
	v1.Use(audit.Log())
	{
		// 公开接口（无需认证）
		public := v1.Group("")
		{
			public.POST("/auth/login", middleware.LoginRateLimit(redisClient), authH.Login)
			public.POST("/auth/refresh", authH.RefreshToken)
			public.GET("/business-date", reportH.GetBusinessDate)
			public.GET("/pos-config", reportH.GetPOSConfig)
		}

		// 员工接口（需要认证）
		staff := v1.Group("")
		staff.Use(middleware.Auth(jwtManager))
		{
			staff.GET("/auth/me", authH.Me)

			// 日结报表
			staff.GET("/reports", reportH.GetReport)
			staff.POST("/reports/staff-count", reportH.SaveStaffCashCount)

			// 订单记账
			staff.POST("/orders", orderH.CreateOrder)
			staff.GET("/orders", orderH.ListOrders)
			staff.GET("/orders/:id", orderH.GetOrder)
			staff.POST("/orders/:id/refunds", orderH.RefundOrder)
		}

		// 管理员接口
		admin := v1.Group("")
		admin.Use(middleware.Auth(jwtManager), middleware.RequireAdmin())
		{
			admin.POST("/staff", authH.CreateStaff)

			// 钱箱与日结
			admin.GET("/reports/finalized", reportH.ListFinalizedReports)
			admin.POST("/reports/paid-outs", reportH.RecordPaidOut)
			admin.DELETE("/reports/operations/:id", reportH.DeleteDrawerOperation)
			admin.POST("/reports/cash-count", reportH.SaveCashCount)
			admin.POST("/reports/finalize", reportH.FinalizeReport)
			admin.POST("/reports/print", reportH.PrintReport)
		}
	}

	// 404 处理
	r.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"code":    404,
			"message": "接口不存在",
		})
	})

	// 定时任务：营业日切换 + 未日结提醒
	tasks := scheduler.NewTaskHandler(reportSvc, reportRepo, redisClient)
	sched := scheduler.NewScheduler()
	sched.AddTask("rollover_business_day", 5*time.Minute, tasks.RolloverBusinessDay)
	sched.AddTask("remind_unfinalized_report", time.Hour, tasks.RemindUnfinalizedReport)
	return sched
}
