package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// handleRoot handles requests to the root endpoint.
func (s *Server) handleRoot(c *gin.Context) {
	ret := Ret{
		Code:    Success,
		Message: "Welcome to the server!",
		Data:    s.manager.State(),
	}

	c.JSON(http.StatusOK, ret)
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, Ret{
		Code:    Success,
		Message: "success",
		Data:    s.manager.State(),
	})
}

// reply writes the outcome of a control request with the resulting state.
func (s *Server) reply(c *gin.Context, err error) {
	var ret Ret
	if err != nil {
		ret.Code = Failed
		ret.Message = err.Error()
		c.JSON(http.StatusOK, ret)
		return
	}
	ret.Code = Success
	ret.Message = "success"
	ret.Data = s.manager.State()
	c.JSON(http.StatusOK, ret)
}

// bind parses the JSON body, answering 400 on failure.
func (s *Server) bind(c *gin.Context) (ControlParams, bool) {
	var params ControlParams
	if err := c.BindJSON(&params); err != nil {
		log.Error(err)
		c.JSON(http.StatusBadRequest, Ret{
			Code:    Failed,
			Message: fmt.Sprintf("Error parsing request: %s", err.Error()),
		})
		return params, false
	}
	// 在这里打印请求参数
	log.WithFields(log.Fields{"params": params}).Debug("Received request")
	return params, true
}

func (s *Server) handlePlay(c *gin.Context) {
	s.reply(c, s.manager.HandlePlay())
}

func (s *Server) handlePause(c *gin.Context) {
	s.reply(c, s.manager.HandlePause())
}

func (s *Server) handleStop(c *gin.Context) {
	s.reply(c, s.manager.HandleStop())
}

func (s *Server) handleSeek(c *gin.Context) {
	params, ok := s.bind(c)
	if !ok {
		return
	}
	s.reply(c, s.manager.HandleSeek(params.Position))
}

func (s *Server) handleSource(c *gin.Context) {
	params, ok := s.bind(c)
	if !ok {
		return
	}
	s.reply(c, s.manager.HandleSource(params.URL))
}

func (s *Server) handleRate(c *gin.Context) {
	params, ok := s.bind(c)
	if !ok {
		return
	}
	s.reply(c, s.manager.HandleRate(params.Rate))
}
