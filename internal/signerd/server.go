// Package signerd is the builder-signer microservice: a small HTTP API that
// computes attribution headers for outgoing trade requests without ever
// shipping the builder secret to a client.
package signerd

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rekonmarkets/rekon-go/builder"
)

// ServiceName is reported by the liveness probe.
const ServiceName = "builder-signer"

// Server holds the immutable credentials and wires the HTTP routes.
type Server struct {
	creds     builder.Credentials
	authToken string
	log       *logrus.Logger
	now       func() int64
}

// New builds a Server. creds must already be validated by the config layer;
// authToken may be empty, which disables the bearer gate on /sign.
func New(creds builder.Credentials, authToken string, log *logrus.Logger) *Server {
	return &Server{
		creds:     creds,
		authToken: authToken,
		log:       log,
		now:       builder.Now,
	}
}

// Engine assembles the gin engine with all routes registered.
func (s *Server) Engine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())

	r.GET("/", s.handleLiveness)
	r.POST("/sign", s.bearerAuth(), s.handleSign)

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		}).Info("request")
	}
}
