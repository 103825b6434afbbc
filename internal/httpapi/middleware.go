package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/greenleaf-shop/server/internal/auth"
	errx "github.com/greenleaf-shop/server/internal/core/error"
	logx "github.com/greenleaf-shop/server/pkg/logger"
)

const (
	headerUserID = "X-User-Id"
	ctxUserKey   = "greenleaf.user"
)

// requestLogger writes one zerolog line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		evt := logx.Info()
		switch {
		case status >= http.StatusInternalServerError:
			evt = logx.Error()
		case status >= http.StatusBadRequest:
			evt = logx.Warn()
		}
		if len(c.Errors) > 0 {
			evt = evt.Str("errors", c.Errors.String())
		}
		evt.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

// recovery turns a panic into a 500 with the generic error body.
func recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logx.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": errx.SystemErrorMessage})
	})
}

// cors allows browser clients from origins, or from any origin ("*") when
// origins is empty.
func cors(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowOrigin := ""
		switch {
		case origin == "":
		case len(allowed) == 0:
			allowOrigin = "*"
		case allowed[origin]:
			allowOrigin = origin
			c.Writer.Header().Add("Vary", "Origin")
		}
		if allowOrigin != "" {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", allowOrigin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, "+headerUserID)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// resolveUser identifies the caller by bearer token, falling back to the
// X-User-Id header (user id or email).
func (s *Server) resolveUser(c *gin.Context) (auth.User, error) {
	ctx := c.Request.Context()
	if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
		return s.deps.Auth.ResolveToken(ctx, token)
	}
	if ident := strings.TrimSpace(c.GetHeader(headerUserID)); ident != "" {
		return s.deps.Auth.UserByIdentifier(ctx, ident)
	}
	return auth.User{}, errx.Unauthenticated("user not authenticated")
}

// requireUser aborts with 401 unless the caller can be identified.
func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.resolveUser(c)
		if err != nil {
			if errx.KindOf(err) == errx.KindNotFound {
				err = errx.Unauthenticated("user not found")
			}
			abortWithError(c, err)
			return
		}
		c.Set(ctxUserKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) auth.User {
	u, _ := c.Get(ctxUserKey)
	user, _ := u.(auth.User)
	return user
}

// abortWithError renders err as {"error": message}. Internal details are
// logged, never sent.
func abortWithError(c *gin.Context, err error) {
	status, msg := errx.StatusOf(err)
	if status >= http.StatusInternalServerError {
		logx.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
