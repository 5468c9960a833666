package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lms-core/config"
	"lms-core/internal/repository"
	"lms-core/internal/service"
	"lms-core/pkg/database"
	applogger "lms-core/pkg/logger"
	"lms-core/pkg/redis"
)

// app 命令执行期间共享的依赖，在 PersistentPreRunE 中初始化
type app struct {
	configPath string

	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	sqlDB  *sql.DB
	rdb    *redis.Client
	svc    *service.Service
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "lmsctl",
		Short:         "LMS 成绩与开课运维工具",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			a.close()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "配置文件路径")

	root.AddCommand(
		newMigrateCmd(a),
		newRecomputeCmd(a),
		newGPACmd(a),
		newValidateOfferingCmd(a),
	)
	return root
}

// init 加载配置 → 日志 → 数据库 → Redis（可选）→ Service
func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	a.cfg = cfg

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	a.logger = logger

	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("数据库连接失败: %w", err)
	}
	a.db = db

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	a.sqlDB = sqlDB

	var cache service.GPACache
	if cfg.Redis.Enabled {
		rdb, err := redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，GPA 缓存不可用", zap.Error(err))
		} else {
			a.rdb = rdb
			cache = rdb
		}
	}

	a.svc = service.NewService(cfg, repository.NewRepository(db), cache, logger)
	return nil
}

func (a *app) close() {
	if a.sqlDB != nil {
		a.sqlDB.Close()
	}
	if a.rdb != nil {
		a.rdb.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// printJSON 以缩进 JSON 输出结果
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
