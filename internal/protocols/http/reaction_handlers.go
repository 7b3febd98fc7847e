package http

import (
	"github.com/gin-gonic/gin"

	"threadhub/pkg/models"
)

// reactionTarget parses /reactions/:kind/:id and checks that a user_id
// supplied by the caller matches the token
func reactionTarget(c *gin.Context, claimedUser string) (models.Target, string, bool) {
	userID, ok := GetUserID(c)
	if !ok {
		respondError(c, models.ErrUnauthenticated)
		return models.Target{}, "", false
	}
	if claimedUser != "" && claimedUser != userID {
		respondError(c, models.NewBackendRejected("user_id does not match the signed-in user", 403))
		return models.Target{}, "", false
	}

	kind, err := models.ParseTargetKind(c.Param("kind"))
	if err != nil {
		badRequest(c, err.Error())
		return models.Target{}, "", false
	}
	id, ok := parseID(c, "id")
	if !ok {
		return models.Target{}, "", false
	}
	return models.Target{Kind: kind, ID: id}, userID, true
}

func reactionResponse(state models.ReactionState) models.ReactionResponse {
	state = state.Normalized()
	return models.ReactionResponse{
		LikeCount:    &state.LikeCount,
		DislikeCount: &state.DislikeCount,
		UserReaction: &state.UserReaction,
	}
}

// setReaction adds or replaces the caller's reaction
func (s *Server) setReaction(c *gin.Context) {
	var req models.SetReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	target, userID, ok := reactionTarget(c, req.UserID)
	if !ok {
		return
	}

	reaction, err := models.ParseReaction(string(req.Type))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	state, err := s.svc.Reactions.Set(c.Request.Context(), target, userID, reaction)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, 200, "", reactionResponse(state))
}

// clearReaction removes the caller's reaction
func (s *Server) clearReaction(c *gin.Context) {
	target, userID, ok := reactionTarget(c, c.Query("user_id"))
	if !ok {
		return
	}

	state, err := s.svc.Reactions.Clear(c.Request.Context(), target, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, 200, "", reactionResponse(state))
}

// getReaction returns a target's counters for the caller or viewer_id
func (s *Server) getReaction(c *gin.Context) {
	kind, err := models.ParseTargetKind(c.Param("kind"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	viewerID, ok := GetUserID(c)
	if !ok {
		viewerID = c.Query("viewer_id")
	}

	state, err := s.svc.Reactions.Get(c.Request.Context(), models.Target{Kind: kind, ID: id}, viewerID)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, 200, "", reactionResponse(state))
}
