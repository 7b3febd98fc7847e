package http

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"threadhub/pkg/models"
)

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// listComments returns the flat comment list of an article. The viewer is
// the authenticated user, or viewer_id for anonymous reads.
func (s *Server) listComments(c *gin.Context) {
	articleID, ok := parseID(c, "id")
	if !ok {
		return
	}

	viewerID, ok := GetUserID(c)
	if !ok {
		viewerID = c.Query("viewer_id")
	}

	list, err := s.svc.Comments.List(c.Request.Context(), articleID, viewerID)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, 200, "", models.CommentListResponse{Comments: list})
}

// createComment creates a comment or a reply
func (s *Server) createComment(c *gin.Context) {
	user, ok := GetUser(c)
	if !ok {
		respondError(c, models.ErrUnauthenticated)
		return
	}

	articleID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// A missing content field is the same mistake as blank content
		respondError(c, models.ErrEmptyContent)
		return
	}

	resp, err := s.svc.Comments.Create(c.Request.Context(), articleID, user, req)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, 201, "Comment created successfully", resp)
}

// deleteComment deletes a comment and its replies
func (s *Server) deleteComment(c *gin.Context) {
	user, ok := GetUser(c)
	if !ok {
		respondError(c, models.ErrUnauthenticated)
		return
	}

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	removed, err := s.svc.Comments.Delete(c.Request.Context(), id, user)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, 200, "Comment deleted successfully", gin.H{"removed": removed})
}
