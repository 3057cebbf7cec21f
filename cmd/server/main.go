package main

import (
	"github.com/d4rkarmy8/OffTheGrid/internal/config"
	"github.com/d4rkarmy8/OffTheGrid/internal/db"
	clog "github.com/d4rkarmy8/OffTheGrid/internal/log"
	"github.com/d4rkarmy8/OffTheGrid/internal/server"
	"github.com/d4rkarmy8/OffTheGrid/internal/ws"

	"github.com/rs/zerolog/log"
)

func main() {
	// main 函数负责加载配置、初始化日志、连接数据库并启动 Gin 服务。
	cfg := config.Load()
	clog.Init(cfg.Env)

	gdb, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	hub := ws.NewHub()
	r := server.SetupRouter(cfg, gdb, hub)
	log.Info().Str("port", cfg.Port).Msg("server listening")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server run")
	}
}
