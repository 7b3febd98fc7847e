package http

import (
	"errors"

	"github.com/gin-gonic/gin"

	"threadhub/internal/core"
	"threadhub/pkg/models"
)

// register handles user registration
func (s *Server) register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username and password are required")
		return
	}

	user, err := s.svc.Auth.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, core.ErrUsernameTaken) {
			respondError(c, models.NewBackendRejected(err.Error(), 409))
			return
		}
		respondError(c, err)
		return
	}

	respond(c, 201, "User registered successfully", gin.H{"user": user})
}

// login handles user authentication
func (s *Server) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username and password are required")
		return
	}

	resp, err := s.svc.Auth.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			respondError(c, models.NewError(models.KindUnauthenticated, "invalid credentials", nil))
			return
		}
		respondError(c, err)
		return
	}

	respond(c, 200, "Login successful", resp)
}

// updateUserRole allows admins to change user roles
func (s *Server) updateUserRole(c *gin.Context) {
	userID := c.Param("id")

	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	switch models.UserRole(req.Role) {
	case models.UserRoleUser, models.UserRoleModerator, models.UserRoleAdmin:
	default:
		badRequest(c, "invalid role: must be user, moderator, or admin")
		return
	}

	if err := s.svc.Auth.UpdateUserRole(c.Request.Context(), userID, models.UserRole(req.Role)); err != nil {
		respondError(c, err)
		return
	}

	respond(c, 200, "User role updated successfully", gin.H{"id": userID, "role": req.Role})
}
