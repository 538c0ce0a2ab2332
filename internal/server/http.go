package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/catanforge/catan-server-go/internal/config"
	"github.com/catanforge/catan-server-go/internal/game"
	"github.com/catanforge/catan-server-go/internal/game/state"
	"github.com/catanforge/catan-server-go/internal/repository"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// UserDirectory is the part of the user repository the HTTP API needs.
type UserDirectory interface {
	Register(ctx context.Context, username, password string) (*repository.User, error)
	GetByUsername(ctx context.Context, username string) (*repository.User, error)
}

// HTTPServer exposes the engine over a JSON API.
type HTTPServer struct {
	engine *game.Engine
	users  UserDirectory
	logger *zap.Logger
	router *gin.Engine
}

// NewHTTPServer builds the router. users may be nil, in which case seats are
// not checked against registered accounts and /users is not mounted.
func NewHTTPServer(engine *game.Engine, users UserDirectory, mode string, logger *zap.Logger) *HTTPServer {
	if mode != "" {
		gin.SetMode(mode)
	}
	s := &HTTPServer{
		engine: engine,
		users:  users,
		logger: logger,
		router: gin.New(),
	}
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// NewServer wraps the handler in an http.Server listening on cfg.Address.
func (s *HTTPServer) NewServer(cfg config.HTTPConfig) *http.Server {
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

func (s *HTTPServer) routes() {
	r := s.router
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "games": len(s.engine.Games()), "time": time.Now().UTC()})
	})

	if s.users != nil {
		r.POST("/users", s.registerUser)
	}

	g := r.Group("/games")
	g.POST("", s.createGame)
	g.GET("", s.listGames)
	g.GET("/:id", s.getSummary)
	g.GET("/:id/model", s.getModel)
	g.POST("/:id/actions", s.postAction)
	g.POST("/:id/moves/:type", s.postMove)
	g.GET("/:id/trade", s.getTrade)
	g.GET("/:id/replay/:version", s.getReplayState)
	g.GET("/:id/players/:index/resources", s.getResources)
	g.GET("/:id/players/:index/victory-points", s.getVictoryPoints)
	g.GET("/:id/players/:index/maritime-options", s.getMaritimeOptions)
}

func (s *HTTPServer) fail(c *gin.Context, err error) {
	status, _, body := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": body})
}

func (s *HTTPServer) badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": badRequest(msg)})
}

func (s *HTTPServer) readBody(c *gin.Context) ([]byte, bool) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		s.badRequest(c, "failed to read body")
		return nil, false
	}
	return data, true
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *HTTPServer) registerUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid user")
		return
	}
	u, err := s.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			s.fail(c, err)
			return
		}
		s.badRequest(c, err.Error())
		return
	}
	s.logger.Info("user registered", zap.String("username", u.Username))
	c.JSON(http.StatusCreated, u)
}

func (s *HTTPServer) createGame(c *gin.Context) {
	var setup state.Setup
	if err := c.ShouldBindJSON(&setup); err != nil {
		s.badRequest(c, "invalid game setup")
		return
	}
	if s.users != nil {
		for _, p := range setup.Players {
			if p.UserID == "" {
				continue
			}
			if _, err := s.users.GetByUsername(c.Request.Context(), p.UserID); err != nil {
				s.fail(c, err)
				return
			}
		}
	}
	g, err := s.engine.CreateGame(c.Request.Context(), setup)
	if err != nil {
		if errors.Is(err, game.ErrPersistence) {
			s.fail(c, err)
			return
		}
		s.badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (s *HTTPServer) listGames(c *gin.Context) {
	ids := s.engine.Games()
	out := make([]*game.Summary, 0, len(ids))
	for _, id := range ids {
		sum, err := s.engine.Summary(id)
		if err != nil {
			continue
		}
		out = append(out, sum)
	}
	c.JSON(http.StatusOK, gin.H{"games": out})
}

func (s *HTTPServer) getSummary(c *gin.Context) {
	sum, err := s.engine.Summary(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (s *HTTPServer) getModel(c *gin.Context) {
	version := -1
	if v := c.Query("version"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.badRequest(c, "version must be an integer")
			return
		}
		version = n
	}
	full, _ := strconv.ParseBool(c.Query("full"))
	res, err := s.engine.Sync(c.Param("id"), version, full)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *HTTPServer) submit(c *gin.Context, data []byte) {
	g, err := s.engine.SubmitJSON(c.Request.Context(), c.Param("id"), data)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (s *HTTPServer) postAction(c *gin.Context) {
	data, ok := s.readBody(c)
	if !ok {
		return
	}
	s.submit(c, data)
}

// postMove accepts the action body without its type and takes the type from
// the path.
func (s *HTTPServer) postMove(c *gin.Context) {
	data, ok := s.readBody(c)
	if !ok {
		return
	}
	fields := map[string]json.RawMessage{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &fields); err != nil {
			s.badRequest(c, "body must be a JSON object")
			return
		}
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	kind, _ := json.Marshal(c.Param("type"))
	fields["type"] = kind
	data, err := json.Marshal(fields)
	if err != nil {
		s.badRequest(c, err.Error())
		return
	}
	s.submit(c, data)
}

func (s *HTTPServer) getTrade(c *gin.Context) {
	offer, err := s.engine.PendingTrade(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tradeOffer": offer})
}

func (s *HTTPServer) getReplayState(c *gin.Context) {
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 0 {
		s.badRequest(c, "version must be a non-negative integer")
		return
	}
	r, err := s.engine.Replay(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	g, err := r.StateAt(version)
	if errors.Is(err, game.ErrReplayInconsistency) {
		s.fail(c, err)
		return
	}
	if err != nil {
		s.badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, g)
}

func (s *HTTPServer) playerIndex(c *gin.Context) (int, bool) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		s.badRequest(c, "player index must be an integer")
		return 0, false
	}
	return idx, true
}

func (s *HTTPServer) getResources(c *gin.Context) {
	idx, ok := s.playerIndex(c)
	if !ok {
		return
	}
	set, err := s.engine.Resources(c.Param("id"), idx)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"playerIndex": idx, "resources": set, "total": set.Total()})
}

func (s *HTTPServer) getVictoryPoints(c *gin.Context) {
	idx, ok := s.playerIndex(c)
	if !ok {
		return
	}
	vp, err := s.engine.VictoryPoints(c.Param("id"), idx)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"playerIndex": idx, "victoryPoints": vp})
}

func (s *HTTPServer) getMaritimeOptions(c *gin.Context) {
	idx, ok := s.playerIndex(c)
	if !ok {
		return
	}
	opts, err := s.engine.MaritimeOptions(c.Param("id"), idx)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, opts)
}
