package controller

import (
	"context"
	"net/http"
	"strings"
	"time"

	"structcheck/internal/check/kind"
	"structcheck/internal/check/model"
	"structcheck/internal/check/verdict"
	appErr "structcheck/pkg/errors"
	"structcheck/pkg/utils/logger"
	"structcheck/pkg/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	defaultPollInterval = 500 * time.Millisecond
	writeWait           = 5 * time.Second
)

// CheckService is the part of the check service used by the HTTP layer.
type CheckService interface {
	Check(ctx context.Context, req model.CheckRequest) (verdict.Verdict, error)
	Submit(ctx context.Context, req model.CheckRequest) (string, error)
	Status(ctx context.Context, checkID string) (verdict.Verdict, error)
	LatestCode(ctx context.Context, login string, k kind.Kind) (model.StructureInfo, error)
}

// CheckController handles structure check requests.
type CheckController struct {
	svc          CheckService
	pollInterval time.Duration
	upgrader     websocket.Upgrader
}

// NewCheckController creates a new controller. pollInterval sets how often a
// status stream looks for changes.
func NewCheckController(svc CheckService, pollInterval time.Duration) *CheckController {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &CheckController{
		svc:          svc,
		pollInterval: pollInterval,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(*http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
		},
	}
}

// SetOriginCheck replaces the websocket origin check, which accepts every
// origin by default.
func (h *CheckController) SetOriginCheck(fn func(r *http.Request) bool) {
	if fn != nil {
		h.upgrader.CheckOrigin = fn
	}
}

// Register mounts the routes on r. limit runs before the routes that start a
// check.
func (h *CheckController) Register(r gin.IRouter, limit ...gin.HandlerFunc) {
	structures := r.Group("/structures/:kind")
	limited := structures.Group("", limit...)
	limited.POST("/check", h.Check)
	limited.POST("/submissions", h.Submit)
	structures.GET("/code", h.LatestCode)

	checks := r.Group("/checks")
	checks.GET("/:id", h.GetStatus)
	checks.GET("/:id/stream", h.Stream)
}

type checkBody struct {
	Code  string `json:"code"`
	Login string `json:"login"`
}

type submitResponse struct {
	CheckID string `json:"checkId"`
}

// Check runs a check and returns its verdict.
func (h *CheckController) Check(c *gin.Context) {
	req, ok := bindRequest(c)
	if !ok {
		return
	}
	v, err := h.svc.Check(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, v)
}

// Submit enqueues a check and returns its id.
func (h *CheckController) Submit(c *gin.Context) {
	req, ok := bindRequest(c)
	if !ok {
		return
	}
	checkID, err := h.svc.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, submitResponse{CheckID: checkID})
}

// GetStatus returns the latest verdict of one check.
func (h *CheckController) GetStatus(c *gin.Context) {
	checkID := c.Param("id")
	if checkID == "" {
		response.BadRequest(c, "Invalid check id")
		return
	}
	v, err := h.svc.Status(c.Request.Context(), checkID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, v)
}

// LatestCode returns the code a login last saved for a kind.
func (h *CheckController) LatestCode(c *gin.Context) {
	k, err := kind.Parse(c.Param("kind"))
	if err != nil {
		response.Error(c, err)
		return
	}
	login := strings.TrimSpace(c.Query("login"))
	if login == "" {
		response.BadRequest(c, "login is required")
		return
	}
	info, err := h.svc.LatestCode(c.Request.Context(), login, k)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, info)
}

type streamFrame struct {
	Verdict *verdict.Verdict `json:"verdict,omitempty"`
	Error   string           `json:"error,omitempty"`
	Code    appErr.ErrorCode `json:"code,omitempty"`
}

// Stream pushes every status change of a check over a websocket until the
// check reaches a terminal status or the client goes away.
func (h *CheckController) Stream(c *gin.Context) {
	checkID := c.Param("id")
	ctx := c.Request.Context()
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(ctx, "websocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	// Reading is only needed to notice the client closing the connection.
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()
	var last *verdict.Verdict
	for {
		v, err := h.svc.Status(ctx, checkID)
		if err != nil {
			if ctx.Err() == nil {
				h.writeFrame(ctx, ws, streamFrame{Error: err.Error(), Code: appErr.GetCode(err)})
			}
			h.close(ws)
			return
		}
		if last == nil || last.Status != v.Status || !last.UpdatedAt.Equal(v.UpdatedAt) {
			if err := h.writeFrame(ctx, ws, streamFrame{Verdict: &v}); err != nil {
				return
			}
			last = &v
		}
		if v.Status.Terminal() {
			h.close(ws)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (h *CheckController) writeFrame(ctx context.Context, ws *websocket.Conn, frame streamFrame) error {
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteJSON(frame); err != nil {
		logger.Warn(ctx, "write websocket frame failed", zap.Error(err))
		return err
	}
	return nil
}

func (h *CheckController) close(ws *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

func bindRequest(c *gin.Context) (model.CheckRequest, bool) {
	k, err := kind.Parse(c.Param("kind"))
	if err != nil {
		response.Error(c, err)
		return model.CheckRequest{}, false
	}
	var body checkBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "Invalid request body")
		return model.CheckRequest{}, false
	}
	return model.CheckRequest{Kind: k, Code: body.Code, Login: strings.TrimSpace(body.Login)}, true
}
