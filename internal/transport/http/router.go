package apihttp

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"perpscan/internal/bot"
	"perpscan/internal/executor"
	"perpscan/internal/gateway/exchange"
	"perpscan/internal/gateway/notifier"
	"perpscan/internal/position"
	"perpscan/internal/scanner"
	"perpscan/internal/store"
	"perpscan/internal/store/recentlog"
)

// Router exposes the operator API: runtime state, live and historical
// signals, positions and the start/stop switches.
type Router struct {
	Controller *bot.Controller
	Scanner    *scanner.Scanner
	Tracker    *position.Tracker
	Executor   *executor.Executor
	Gateway    exchange.Gateway
	Store      *store.Store
	Logs       *recentlog.Ring
	Notify     *notifier.Manager
}

// Register mounts the API routes onto the given group.
func (r *Router) Register(group *gin.RouterGroup) {
	group.GET("/status", r.handleStatus)
	group.GET("/positions", r.handlePositions)
	group.GET("/signals", r.handleSignals)
	group.GET("/signals/history", r.handleSignalHistory)
	group.GET("/orders", r.handleOrders)
	group.GET("/stats", r.handleStats)
	group.GET("/balance", r.handleBalance)
	group.GET("/logs", r.handleLogs)

	group.POST("/bot/start", r.handleBotStart)
	group.POST("/bot/stop", r.handleBotStop)
	group.POST("/orders/start", r.handleOrdersStart)
	group.POST("/orders/stop", r.handleOrdersStop)
	group.POST("/signals/:id/execute", r.handleExecuteSignal)
	group.POST("/positions/:symbol/close", r.handleClosePosition)
}

func (r *Router) handleStatus(c *gin.Context) {
	st := r.Controller.Status()
	resp := gin.H{"status": st}
	if r.Notify != nil {
		resp["notify_channels"] = r.Notify.ChannelNames()
	}
	c.JSON(http.StatusOK, resp)
}

func (r *Router) handlePositions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"positions": r.Tracker.List()})
}

func (r *Router) handleSignals(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"signals": r.Scanner.Batch().List()})
}

func (r *Router) handleSignalHistory(c *gin.Context) {
	if r.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence disabled"})
		return
	}
	limit := queryInt(c, "limit", 50)
	rows, err := r.Store.RecentSignals(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"signals": rows})
}

func (r *Router) handleOrders(c *gin.Context) {
	if r.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence disabled"})
		return
	}
	limit := queryInt(c, "limit", 50)
	rows, err := r.Store.RecentOrders(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": rows})
}

func (r *Router) handleStats(c *gin.Context) {
	if r.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence disabled"})
		return
	}
	days := queryInt(c, "days", 7)
	rows, err := r.Store.DailyStats(days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": rows})
}

func (r *Router) handleBalance(c *gin.Context) {
	balances, err := r.Gateway.Balances(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"balances":       balances,
		"unrealized_pnl": r.Tracker.TotalUnrealized(),
	})
}

func (r *Router) handleLogs(c *gin.Context) {
	if r.Logs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "log buffer disabled"})
		return
	}
	limit := queryInt(c, "limit", 200)
	entries, err := r.Logs.List(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": entries})
}

func (r *Router) handleBotStart(c *gin.Context) {
	if err := r.Controller.Start(c.Request.Context()); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": r.Controller.Status()})
}

func (r *Router) handleBotStop(c *gin.Context) {
	if err := r.Controller.Stop(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": r.Controller.Status()})
}

func (r *Router) handleOrdersStart(c *gin.Context) {
	if err := r.Controller.StartOrders(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": r.Controller.Status()})
}

func (r *Router) handleOrdersStop(c *gin.Context) {
	if err := r.Controller.StopOrders(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": r.Controller.Status()})
}

func (r *Router) handleExecuteSignal(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	sig, ok := r.Scanner.Batch().Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "signal not found in current batch"})
		return
	}
	if r.Tracker.Has(sig.Symbol) {
		c.JSON(http.StatusConflict, gin.H{"error": "position already open for " + sig.Symbol})
		return
	}
	if err := r.Executor.ExecuteSignal(c.Request.Context(), sig); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	r.Scanner.Batch().Remove(sig.ID)
	c.JSON(http.StatusOK, gin.H{"executed": sig.ID, "symbol": sig.Symbol})
}

func (r *Router) handleClosePosition(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if err := r.Executor.ClosePosition(c.Request.Context(), symbol); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"closed": symbol})
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(def)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
