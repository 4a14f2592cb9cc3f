package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"blameja-pos/internal/models"
	"blameja-pos/internal/search"
	"blameja-pos/internal/services"
)

const (
	scopeSale     = "sale"
	scopeDispatch = "dispatch"
	scopeSupplier = "supplier"
	scopeBuyer    = "buyer"

	liveSearchWriteWait = 10 * time.Second
)

// LiveSearchHandler streams autocomplete suggestions over a WebSocket. The
// client sends one {"term": ...} message per keystroke and receives only the
// result of the latest term after the quiet period.
type LiveSearchHandler struct {
	search   services.SearchService
	debounce time.Duration
	logger   *zap.Logger
}

func NewLiveSearchHandler(search services.SearchService, debounce time.Duration, logger *zap.Logger) *LiveSearchHandler {
	return &LiveSearchHandler{search: search, debounce: debounce, logger: logger}
}

type liveSearchMessage struct {
	Seq   uint64 `json:"seq"`
	Term  string `json:"term"`
	Items any    `json:"items"`
	Error string `json:"error,omitempty"`
}

func (h *LiveSearchHandler) Serve(c *gin.Context) {
	scope := c.DefaultQuery("scope", scopeSale)
	switch scope {
	case scopeSale, scopeDispatch, scopeSupplier, scopeBuyer:
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "invalid request",
			"error":   "scope must be one of sale, dispatch, supplier, buyer",
		})
		return
	}

	logger := h.logger.With(zap.String("handler", "live_search"), zap.String("scope", scope))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	limit := queryInt(c, "limit", 0)
	switch scope {
	case scopeSale:
		serveLive(ctx, conn, h.debounce, logger, func(ctx context.Context, term string) ([]models.ProductStock, error) {
			return h.search.SaleSuggestions(ctx, term, limit)
		})
	case scopeDispatch:
		serveLive(ctx, conn, h.debounce, logger, func(ctx context.Context, term string) ([]models.Product, error) {
			return h.search.DispatchSuggestions(ctx, term, limit)
		})
	case scopeSupplier:
		serveLive(ctx, conn, h.debounce, logger, func(ctx context.Context, term string) ([]models.Supplier, error) {
			return h.search.Suppliers(ctx, term, limit)
		})
	case scopeBuyer:
		serveLive(ctx, conn, h.debounce, logger, func(ctx context.Context, term string) ([]models.Buyer, error) {
			return h.search.Buyers(ctx, term, limit)
		})
	}
}

// serveLive owns conn until the client goes away. Only the writer goroutine
// writes to conn.
func serveLive[T any](ctx context.Context, conn *websocket.Conn, debounce time.Duration, logger *zap.Logger, fetch search.Fetcher[T]) {
	session := search.NewSession(ctx, debounce, fetch)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range session.Results() {
			msg := liveSearchMessage{Seq: r.Seq, Term: r.Term, Items: r.Items}
			if r.Err != nil {
				logger.Warn("live search query failed", zap.String("term", r.Term), zap.Error(r.Err))
				msg.Error = "search failed"
			}
			conn.SetWriteDeadline(time.Now().Add(liveSearchWriteWait))
			if err := conn.WriteJSON(msg); err != nil {
				logger.Debug("live search write failed", zap.Error(err))
				conn.Close()
				return
			}
		}
	}()

	for {
		var q models.SearchQuery
		if err := conn.ReadJSON(&q); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("live search connection closed", zap.Error(err))
			}
			break
		}
		session.Input(q.Term)
	}

	session.Close()
	<-done
}
