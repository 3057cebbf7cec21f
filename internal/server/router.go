package server

import (
	"net/http"
	"time"

	"github.com/d4rkarmy8/OffTheGrid/internal/config"
	"github.com/d4rkarmy8/OffTheGrid/internal/metrics"
	"github.com/d4rkarmy8/OffTheGrid/internal/mw"
	"github.com/d4rkarmy8/OffTheGrid/internal/service"
	"github.com/d4rkarmy8/OffTheGrid/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// SetupRouter 组装 HTTP 层：健康检查、指标与 websocket 入口。
// 业务全部走 websocket 事件，HTTP 不暴露业务接口。
func SetupRouter(cfg config.Config, db *gorm.DB, hub *ws.Hub) *gin.Engine {
	users := service.NewUserService(db, cfg)
	deps := ws.Deps{
		Users:   users,
		Router:  service.NewMessageRouter(db, hub),
		Inbox:   service.NewInboxService(db),
		History: service.NewHistoryService(db),
		Keys:    service.NewKeyService(db),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.CORS(cfg.Env))
	// 限制单个 IP+路由的请求速率，升级后的 ws 流量不受影响。
	r.Use(mw.RateLimit(rate.Every(time.Second/20), 40))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", ws.Serve(hub, deps, cfg))

	return r
}
