package main

import (
	"flag"
	"fmt"

	"github.com/CarLinkRent/CarLinkRent/internal/auditlog"
	"github.com/CarLinkRent/CarLinkRent/internal/common/config"
	"github.com/CarLinkRent/CarLinkRent/internal/common/db"
	"github.com/CarLinkRent/CarLinkRent/internal/common/logger"
	"github.com/CarLinkRent/CarLinkRent/internal/common/middleware"
	"github.com/CarLinkRent/CarLinkRent/internal/common/server"
	"github.com/CarLinkRent/CarLinkRent/internal/common/tracing"
	"github.com/CarLinkRent/CarLinkRent/internal/handler"
	"github.com/CarLinkRent/CarLinkRent/internal/reservation"
	"github.com/CarLinkRent/CarLinkRent/internal/user"
	"github.com/CarLinkRent/CarLinkRent/internal/vehicle"
	"github.com/joho/godotenv"
)

var (
	configPath = flag.String("config", "configs/rental-service.json", "配置文件路径")
	consulKey  = flag.String("consul-config-key", "", "从 Consul KV 加载配置（优先于 -config）")
	consulHost = flag.String("consul-host", "localhost", "Consul 地址（配合 -consul-config-key）")
	consulPort = flag.Int("consul-port", 8500, "Consul 端口（配合 -consul-config-key）")
)

func main() {
	flag.Parse()

	// .env 只在开发环境存在，找不到不算错
	_ = godotenv.Load()

	// 加载配置（本地文件 或 Consul KV）
	var (
		cfg *config.Config
		err error
	)
	if *consulKey != "" {
		cfg, err = config.LoadConfigFromConsulKV(*consulHost, *consulPort, *consulKey)
	} else {
		cfg, err = config.LoadConfig(*configPath)
	}
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 初始化日志
	log, err := logger.NewLogger(cfg.Log.Driver, cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	// 初始化链路追踪
	tracer, closer, err := tracing.InitTracer(
		cfg.Server.Name,
		cfg.Jaeger.Endpoint,
		cfg.Jaeger.Sampler,
	)
	if err != nil {
		log.Warnf("failed to init tracer: %v", err)
	} else {
		defer closer.Close()
	}
	_ = tracer

	// 初始化数据库
	gormDB, err := db.NewMySQL(
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Database,
		cfg.Database.MaxIdle,
		cfg.Database.MaxOpen,
	)
	if err != nil {
		log.Fatalf("failed to init mysql: %v", err)
	}
	if err := gormDB.AutoMigrate(
		&user.User{},
		&vehicle.Vehicle{},
		&reservation.Reservation{},
		&auditlog.Entry{},
	); err != nil {
		log.Fatalf("failed to migrate mysql schema: %v", err)
	}

	// 装配领域服务
	audit := auditlog.NewRecorder(gormDB, log)
	users := user.NewService(user.NewRepo(gormDB), audit)
	vehicles := vehicle.NewService(vehicle.NewRepo(gormDB), audit)
	reservations := reservation.NewService(gormDB, audit)

	router := handler.NewRouter(handler.Deps{
		Cfg:          cfg,
		Log:          log,
		Limiter:      middleware.NewTokenBucket(200, 100),
		Users:        users,
		Vehicles:     vehicles,
		Reservations: reservations,
		Audit:        audit,
	})

	// 启动统一的 HTTP 服务模板（含 Consul 注册与 health 端口）
	if err := server.RunHTTPServer(cfg, log, router); err != nil {
		log.Fatalf("rental-service exited with error: %v", err)
	}
}
