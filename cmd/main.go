package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resume-qa-go/internal/api/handler"
	"resume-qa-go/internal/api/router"
	"resume-qa-go/internal/config"
	"resume-qa-go/internal/constants"
	"resume-qa-go/internal/extractor"
	appCoreLogger "resume-qa-go/internal/logger"
	"resume-qa-go/internal/outbox"
	"resume-qa-go/internal/parser"
	"resume-qa-go/internal/processor"
	"resume-qa-go/internal/qa"
	"resume-qa-go/internal/ratelimit"
	"resume-qa-go/internal/storage"
	"resume-qa-go/internal/tracing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// 上传之外的表单字段和协议开销
const requestBodySlack = 1 << 20

func main() {
	_ = godotenv.Load()

	var configPath, samplePath string
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.StringVar(&samplePath, "write-sample-config", "", "Write a sample config file to the given path and exit")
	pflag.Parse()

	if samplePath != "" {
		if err := config.CreateSampleConfig(samplePath); err != nil {
			log.Fatalf("创建示例配置失败: %v", err)
		}
		return
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("配置校验失败: %v", err)
	}

	logCloser, err := appCoreLogger.Init(appCoreLogger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
		FilePath:     cfg.Logger.FilePath,
	})
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	if logCloser != nil {
		defer logCloser.Close()
	}
	glog.SetLogger(hertzadapter.From(appCoreLogger.Logger))
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.InitProvider(ctx, cfg.Tracing, constants.ServiceVersion)
	if err != nil {
		glog.Fatalf("初始化链路追踪失败: %v", err)
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	pdfExtractor, err := parser.NewEinoPDFTextExtractor(ctx,
		parser.WithEinoLogger(log.New(appCoreLogger.Logger, "[EinoPDF] ", log.LstdFlags)),
	)
	if err != nil {
		glog.Fatalf("创建Eino PDF提取器失败: %v", err)
	}
	normalizer := parser.NewNormalizer(pdfExtractor, parser.NewDocxTextExtractor())
	assembler := extractor.NewAssembler(extractor.WithLogger(appCoreLogger.Component("extractor")))

	answerer := qa.NewService(initChatModel(cfg),
		qa.WithTimeout(cfg.HFTimeout()),
		qa.WithServiceLogger(appCoreLogger.Component("qa")),
	)

	serviceOpts := []processor.ServiceOption{
		processor.WithLogger(appCoreLogger.Component("processor")),
		processor.WithEventRouting(cfg.RabbitMQ.CandidateEventsExchange, cfg.RabbitMQ.CandidateCreatedRoutingKey),
	}
	if storageManager.Redis != nil {
		serviceOpts = append(serviceOpts, processor.WithDedupCache(storageManager.Redis, true))
	}
	candidateService := processor.NewCandidateService(
		normalizer,
		assembler,
		storageManager.Objects,
		storageManager.MySQL,
		answerer,
		serviceOpts...,
	)
	glog.Info("候选人服务初始化成功")

	var messageRelay *outbox.MessageRelay
	if storageManager.RabbitMQ != nil {
		relayLogger := log.New(appCoreLogger.Logger, "[MessageRelay] ", log.LstdFlags|log.Lshortfile)
		messageRelay = outbox.NewMessageRelay(storageManager.MySQL.DB(), storageManager.RabbitMQ, relayLogger,
			outbox.WithPollingInterval(config.GetDuration(cfg.Outbox.PollInterval, 5*time.Second)),
			outbox.WithBatchSize(cfg.Outbox.BatchSize),
			outbox.WithMaxAttempts(cfg.Outbox.MaxAttempts),
		)
		messageRelay.Start()
		glog.Info("消息中继服务已启动")
	} else {
		glog.Warn("RabbitMQ未配置，候选人事件将保留在outbox表中")
	}

	tracer, tracingCfg := hertztracing.NewServerTracer()
	h := server.New(
		tracer,
		server.WithHostPorts(cfg.Server.Address),
		server.WithMaxRequestBodySize(int(cfg.MaxUploadBytes())+requestBodySlack),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(hertztracing.ServerMiddleware(tracingCfg))

	candidateHandler := handler.NewCandidateHandler(candidateService, cfg.MaxUploadBytes())
	router.RegisterRoutes(h, candidateHandler, appCoreLogger.Component("http"))
	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)

	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	if messageRelay != nil {
		messageRelay.Stop()
		glog.Info("消息中继服务已停止")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Errorf("服务器关闭失败: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		glog.Errorf("关闭链路追踪失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

// initChatModel 创建托管推理客户端，未配置 API 密钥时返回 nil，问答只使用兜底回答
func initChatModel(cfg *config.Config) model.BaseChatModel {
	chatModel, err := qa.NewHuggingFaceChatModel(
		cfg.HuggingFace.APIKey,
		cfg.HuggingFace.Model,
		cfg.HuggingFace.APIURL,
		qa.WithGenerationDefaults(cfg.HuggingFace.MaxNewTokens, float32(cfg.HuggingFace.Temperature)),
		qa.WithModelLogger(appCoreLogger.Component("huggingface")),
	)
	if err != nil {
		glog.Warnf("托管推理服务不可用，问答将只使用兜底回答: %v", err)
		return nil
	}
	if cfg.HuggingFace.QPM > 0 {
		glog.Infof("推理请求限流: %d 次/分钟", cfg.HuggingFace.QPM)
		return ratelimit.NewRateLimitedChatModel(chatModel, cfg.HuggingFace.QPM)
	}
	return chatModel
}
