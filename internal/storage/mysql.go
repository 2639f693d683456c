package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"resume-qa-go/internal/config"
	"resume-qa-go/internal/constants"
	"resume-qa-go/internal/storage/models"
	"resume-qa-go/internal/tracing"
	"resume-qa-go/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var mysqlTracer = otel.Tracer("resume-qa-go/storage/mysql")

// gormSpanKey 在 Statement.Context 中保存当前 span
type gormSpanKey struct{}

// GormTracingPlugin 为GORM操作创建OpenTelemetry span
type GormTracingPlugin struct {
	tracer         trace.Tracer
	dbName         string
	disableErrSkip bool
}

// NewGormTracingPlugin 创建一个新的GORM追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{
		tracer:         mysqlTracer,
		dbName:         dbName,
		disableErrSkip: true,
	}
}

// WithDisableErrSkip 设置是否跳过 SkipHooks 的语句
func (p *GormTracingPlugin) WithDisableErrSkip(disable bool) *GormTracingPlugin {
	p.disableErrSkip = disable
	return p
}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册GORM回调以启用追踪
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	type registerFunc func(name string, fn func(*gorm.DB)) error
	hooks := []struct {
		operation string
		name      string
		before    registerFunc
		after     registerFunc
	}{
		{"CREATE", "create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"SELECT", "query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"UPDATE", "update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"DELETE", "delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"ROW", "row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"RAW", "raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, h := range hooks {
		if err := h.before("otel:before_"+h.name, p.before(h.operation)); err != nil {
			return err
		}
		if err := h.after("otel:after_"+h.name, p.after()); err != nil {
			return err
		}
	}
	return nil
}

// before 在语句执行前开启 span
func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		if p.disableErrSkip && db.Statement.SkipHooks {
			return
		}
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}

		attrs := []attribute.KeyValue{
			semconv.DBSystemMySQL,
			attribute.String("db.name", p.dbName),
			attribute.String("db.operation", operation),
			attribute.String("db.sql.table", table),
		}

		newCtx, span := p.tracer.Start(ctx, operation+" "+table,
			trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
		db.Statement.Context = context.WithValue(newCtx, gormSpanKey{}, span)
	}
}

// after 结束 span 并记录影响行数与错误
func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		if db.Statement.Context == nil {
			return
		}
		span, ok := db.Statement.Context.Value(gormSpanKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		if attr, ok := sqlStatementAttribute(db.Statement.SQL.String()); ok {
			span.SetAttributes(attr)
		}
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
		switch {
		case db.Error == nil:
			span.SetStatus(codes.Ok, "")
		case errors.Is(db.Error, gorm.ErrRecordNotFound):
			// 查无记录属于正常业务分支
			span.SetAttributes(attribute.String("error.type", "record_not_found"))
			span.SetStatus(codes.Ok, "record not found")
		default:
			span.SetAttributes(attribute.String("error.type", "database_error"))
			span.RecordError(db.Error)
			span.SetStatus(codes.Error, db.Error.Error())
		}
	}
}

// sqlStatementAttribute SQL 在执行阶段才生成，截断后记录到 span
func sqlStatementAttribute(sql string) (attribute.KeyValue, bool) {
	if sql == "" {
		return attribute.KeyValue{}, false
	}
	return attribute.String("db.statement", tracing.SafeSQL(sql)), true
}

// CandidateRepository 候选人文档存储
type CandidateRepository interface {
	// InsertCandidate 在同一事务中写入候选人记录与 outbox 事件，返回记录ID
	InsertCandidate(ctx context.Context, doc types.CandidateDocument, event *models.OutboxMessage) (string, error)
	GetCandidate(ctx context.Context, candidateID string) (types.CandidateDocument, error)
	ListCandidates(ctx context.Context) ([]types.CandidateSummary, error)
}

// 确保MySQL实现了CandidateRepository接口
var _ CandidateRepository = (*MySQL)(nil)

// MySQL 提供关系数据库功能
type MySQL struct {
	db            *gorm.DB
	cfg           *config.MySQLConfig
	previewLength int
}

// NewMySQL 创建MySQL客户端并迁移表结构
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		PrepareStmt:                              true,
		TranslateError:                           true,
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: 连接MySQL失败: %v", ErrPersistenceFailure, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute)

	if err := db.Use(NewGormTracingPlugin(cfg.Database).WithDisableErrSkip(true)); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	m := NewMySQLWithDB(db, cfg)
	if err := m.autoMigrateSchema(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	log.Println("成功连接到MySQL并自动迁移数据库结构")
	return m, nil
}

// NewMySQLWithDB 使用已有的 gorm 连接创建仓库
func NewMySQLWithDB(db *gorm.DB, cfg *config.MySQLConfig) *MySQL {
	return &MySQL{db: db, cfg: cfg, previewLength: constants.IntroductionPreviewLength}
}

// WithPreviewLength 设置列表中 introduction 的截断长度
func (m *MySQL) WithPreviewLength(n int) *MySQL {
	if n > 0 {
		m.previewLength = n
	}
	return m
}

func gormLogLevel(level int) logger.LogLevel {
	switch level {
	case 1:
		return logger.Silent
	case 2:
		return logger.Error
	case 3:
		return logger.Warn
	default:
		return logger.Info
	}
}

// autoMigrateSchema 使用静默日志执行自动迁移
func (m *MySQL) autoMigrateSchema() error {
	silentLogger := logger.New(
		log.New(log.Writer(), "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	silentDB := m.db.Session(&gorm.Session{Logger: silentLogger})
	if err := silentDB.AutoMigrate(&models.CandidateRecord{}, &models.OutboxMessage{}); err != nil {
		return fmt.Errorf("GORM自动迁移失败: %w", err)
	}
	log.Println("GORM数据库结构迁移成功")
	return nil
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}

// NewCandidateCreatedOutbox 构建候选人创建事件的 outbox 消息
func NewCandidateCreatedOutbox(doc types.CandidateDocument, exchange, routingKey, eventType string) (*models.OutboxMessage, error) {
	payload, err := json.Marshal(types.CandidateCreatedEvent{
		CandidateID:      doc.CandidateID,
		Filename:         doc.Metadata.Filename,
		StorageFileID:    doc.Metadata.StorageFileID,
		Skills:           doc.Skills,
		ExtractionStatus: doc.ExtractionStatus,
		UploadTime:       doc.Metadata.UploadTime,
	})
	if err != nil {
		return nil, fmt.Errorf("序列化候选人事件失败: %w", err)
	}
	return &models.OutboxMessage{
		AggregateID:      doc.CandidateID,
		EventType:        eventType,
		Payload:          string(payload),
		TargetExchange:   exchange,
		TargetRoutingKey: routingKey,
		Status:           models.OutboxStatusPending,
	}, nil
}

// InsertCandidate 写入候选人记录，event 非空时在同一事务中写入 outbox
func (m *MySQL) InsertCandidate(ctx context.Context, doc types.CandidateDocument, event *models.OutboxMessage) (string, error) {
	ctx, span := mysqlTracer.Start(ctx, "MySQL.InsertCandidate", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("candidate.id", doc.CandidateID),
		attribute.Bool("outbox.enabled", event != nil),
	)

	record, err := models.NewCandidateRecord(doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		if event != nil {
			if err := tx.Create(event).Error; err != nil {
				return fmt.Errorf("写入outbox失败: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", fmt.Errorf("%w: %s", ErrDuplicateCandidate, doc.CandidateID)
		}
		return "", fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}

	span.SetStatus(codes.Ok, "")
	return fmt.Sprintf("%d", record.ID), nil
}

// GetCandidate 按 candidate_id 查询候选人
func (m *MySQL) GetCandidate(ctx context.Context, candidateID string) (types.CandidateDocument, error) {
	var record models.CandidateRecord
	err := m.db.WithContext(ctx).Where("candidate_id = ?", candidateID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.CandidateDocument{}, fmt.Errorf("%w: %s", ErrCandidateNotFound, candidateID)
		}
		return types.CandidateDocument{}, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}
	doc, err := record.ToDocument()
	if err != nil {
		return types.CandidateDocument{}, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}
	return doc, nil
}

// ListCandidates 按上传时间倒序列出全部候选人摘要
func (m *MySQL) ListCandidates(ctx context.Context) ([]types.CandidateSummary, error) {
	var records []models.CandidateRecord
	err := m.db.WithContext(ctx).
		Select("id", "candidate_id", "filename", "upload_time", "skills_json", "introduction").
		Order("upload_time DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}

	summaries := make([]types.CandidateSummary, 0, len(records))
	for i := range records {
		summaries = append(summaries, records[i].ToSummary(m.previewLength))
	}
	return summaries, nil
}
