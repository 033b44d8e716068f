package server

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"cvwidgets/media"
)

const (
	Success int = 0
	Failed  int = -1
)

// Server 结构体
type Server struct {
	router  *gin.Engine
	manager *PlayerManager
	hub     *hub
}

// ControlParams is the body of control requests and websocket commands.
type ControlParams struct {
	Command  string  `json:"command,omitempty"`
	Position int64   `json:"position"`
	URL      string  `json:"url,omitempty"`
	Rate     float64 `json:"rate,omitempty"`
}

type Ret struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// NewServer creates a server controlling player.
func NewServer(player media.Controllable) *Server {
	s := &Server{
		router:  gin.Default(),
		manager: NewPlayerManager(player),
		hub:     newHub(),
	}
	s.hub.watch(player)
	return s
}

// Manager is the player manager behind the routes.
func (s *Server) Manager() *PlayerManager {
	return s.manager
}

// Router exposes the gin engine, with routes once SetupRoutes ran.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// SetupRoutes configures the HTTP routes for the server.
func (s *Server) SetupRoutes() {
	s.router.GET("/", s.handleRoot)
	s.router.GET("/state", s.handleState)
	s.router.POST("/play", s.handlePlay)
	s.router.POST("/pause", s.handlePause)
	s.router.POST("/stop", s.handleStop)
	s.router.POST("/seek", s.handleSeek)
	s.router.POST("/source", s.handleSource)
	s.router.POST("/rate", s.handleRate)

	// 设置 WebSocket 路由
	s.router.GET("/ws", s.handleWebSocket)
}

// Run serves on port until the listener fails. A port <= 0 disables the
// server.
func (s *Server) Run(port int) error {
	if port <= 0 {
		log.Info("remote control disabled")
		return nil
	}
	addr := fmt.Sprintf(":%d", port)
	log.Infof("remote control listening on %s", addr)
	return errors.Wrap(s.router.Run(addr), "error starting server")
}

// Close disconnects all websocket clients, stops following the player and
// fails requests still waiting for the executor.
func (s *Server) Close() {
	s.manager.Close()
	s.hub.close()
}
