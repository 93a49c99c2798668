package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"message-center/config"
	"message-center/internal/handler"
	"message-center/internal/model"
	"message-center/internal/repository"
	"message-center/internal/service"
	dbPkg "message-center/pkg/db"
	"message-center/pkg/jwt"
	"message-center/pkg/logger"
	redisPkg "message-center/pkg/redis"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	cfg := config.LoadConfig()

	// 2. 初始化日志系统
	log := logger.InitLogger(cfg.Log)
	defer log.Sync()

	log.Info("=== 消息中心启动 ===")
	log.Info("服务器配置信息",
		zap.String("port", cfg.Server.Port),
		zap.String("database_host", cfg.Database.Host),
		zap.Int("database_port", cfg.Database.Port),
		zap.String("database_name", cfg.Database.Database),
		zap.String("upload_dir", cfg.Upload.Dir),
		zap.Duration("jwt_expire_time", cfg.JWT.ExpireTime),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 初始化数据库连接
	if _, err := dbPkg.InitDB(cfg.Database); err != nil {
		log.Fatal("数据库连接失败", zap.Error(err))
	}
	defer func() {
		if err := dbPkg.CloseDB(); err != nil {
			log.Error("关闭数据库连接失败", zap.Error(err))
		}
	}()
	log.Info("数据库连接成功")

	// 3.1 自动迁移表结构
	if err := dbPkg.AutoMigrate(&model.User{}, &model.Message{}, &model.Attachment{}); err != nil {
		log.Fatal("自动迁移失败", zap.Error(err))
	}
	log.Info("自动迁移完成")

	// 3.2 初始化Redis（未读计数缓存，不可用时自动回源数据库）
	if err := redisPkg.InitRedis(cfg.Redis); err != nil {
		log.Warn("Redis连接失败，未读计数将直接查询数据库", zap.Error(err))
	} else {
		defer redisPkg.Close()
		log.Info("Redis连接成功")
	}

	// 3.3 初始化业务服务
	jwtSvc := jwt.NewJWTService(cfg.JWT)
	userRepo := repository.NewUserRepository(dbPkg.GetDB())
	messageRepo := repository.NewMessageRepository(dbPkg.GetDB())
	attachmentRepo := repository.NewAttachmentRepository(dbPkg.GetDB())
	userSvc := service.NewUserService(userRepo, jwtSvc)
	messageSvc := service.NewMessageService(messageRepo, userRepo)
	uploadSvc := service.NewUploadService(attachmentRepo, cfg.Upload)
	userHandler := handler.NewUserHandler(userSvc)
	messageHandler := handler.NewMessageHandler(messageSvc)
	uploadHandler := handler.NewUploadHandler(uploadSvc)

	// 4. 设置Gin模式
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 5. 创建Gin路由
	router := gin.New()

	// 使用中间件
	router.Use(logger.LoggerMiddleware())      // 自定义日志中间件
	router.Use(logger.ErrorLoggerMiddleware()) // 错误日志中间件

	// 6. 健康检查
	router.GET("/health", func(c *gin.Context) {
		status := "ok"
		if err := dbPkg.HealthCheck(); err != nil {
			status = "db-down"
		}
		c.JSON(http.StatusOK, gin.H{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// 6.1 附件静态访问
	router.Static(cfg.Upload.BaseURL, cfg.Upload.Dir)

	// 6.2 绑定业务路由
	api := router.Group("/api")
	{
		// 认证接口（无需登录）
		auth := api.Group("/auth")
		{
			auth.POST("/register", userHandler.Register)
			auth.POST("/login", userHandler.Login)
		}

		// 消息接口（需要认证）
		messages := api.Group("/messages")
		messages.Use(jwtSvc.AuthMiddleware())
		{
			messages.GET("", messageHandler.ListMessages)                // 消息列表(inbox/sent)
			messages.POST("", messageHandler.SendMessage)                // 发送消息
			messages.PATCH("", messageHandler.MarkRead)                  // 标记已读
			messages.DELETE("", messageHandler.DeleteMessage)            // 删除消息
			messages.POST("/upload", uploadHandler.UploadAttachment)     // 上传附件
			messages.GET("/unread-count", messageHandler.GetUnreadCount) // 未读数量
		}

		// 用户目录（需要认证）
		users := api.Group("/users")
		users.Use(jwtSvc.AuthMiddleware())
		{
			users.GET("", userHandler.ListUsers)
		}
	}

	// 7. 创建HTTP服务器
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 8. 启动HTTP服务器
	go func() {
		log.Info("HTTP服务器启动", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP服务器启动失败", zap.Error(err))
		}
	}()

	// 9. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("正在关闭服务器...")

	// 设置关闭超时
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 关闭HTTP服务器
	if err := server.Shutdown(ctx); err != nil {
		log.Error("HTTP服务器关闭失败", zap.Error(err))
	}

	log.Info("服务器已安全关闭")
}
