package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/verisense/internal/auth"
	"github.com/ppiankov/verisense/internal/store"
)

func (s *Server) register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	user, err := s.auth.Register(c.Request.Context(), req)
	if err != nil {
		c.JSON(authStatus(err), gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	result, err := s.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(authStatus(err), gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) verify(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
		Code  string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	session, err := s.auth.VerifyOTP(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		c.JSON(authStatus(err), gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session)
}

func (s *Server) me(c *gin.Context) {
	user, err := s.store.GetUserByID(c.Request.Context(), c.GetString(ctxUserID))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"err": "user not found"})
		return
	}
	if err != nil {
		slog.Error("[Server] Failed to load user", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to load user"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func authStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidName),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrPasswordMismatch),
		errors.Is(err, auth.ErrWeakPassword):
		return http.StatusUnprocessableEntity
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrOTPNotFound),
		errors.Is(err, auth.ErrOTPExpired),
		errors.Is(err, auth.ErrOTPMismatch),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	}
	slog.Error("[Server] Auth request failed", "error", err)
	return http.StatusInternalServerError
}
