package handlers

import (
	"net/http"
	"strconv"

	"trivia-service/internal/domain"
	"trivia-service/internal/middleware"
	"trivia-service/internal/models"
	"trivia-service/internal/service"

	"github.com/gin-gonic/gin"
)

type ResultHandler struct {
	Leaderboards *service.LeaderboardService
	Sessions     *service.SessionService
}

func NewResultHandler(leaderboards *service.LeaderboardService, sessions *service.SessionService) *ResultHandler {
	return &ResultHandler{Leaderboards: leaderboards, Sessions: sessions}
}

func limitParam(c *gin.Context) int {
	limit, _ := strconv.Atoi(c.Query("limit"))
	return limit
}

func (h *ResultHandler) GlobalLeaderboard(c *gin.Context) {
	entries, err := h.Leaderboards.Global(c.Request.Context(), limitParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

func (h *ResultHandler) TriviaLeaderboard(c *gin.Context) {
	entries, err := h.Leaderboards.ByTrivia(c.Request.Context(), c.Param("triviaId"), limitParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

func (h *ResultHandler) MyStats(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	stats, err := h.Leaderboards.UserStats(c.Request.Context(), caller.ID, true)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// UserStats exposes another user's stats to that user or an admin.
func (h *ResultHandler) UserStats(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	userID := c.Param("userId")
	if caller.ID != userID && caller.Role != models.RoleAdmin {
		respondError(c, domain.ErrForbidden)
		return
	}
	stats, err := h.Leaderboards.UserStats(c.Request.Context(), userID, true)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// Submit is the one-shot grading path: the whole answer set in a
// single request, persisted as a completed attempt.
func (h *ResultHandler) Submit(c *gin.Context) {
	var req struct {
		TriviaID string                     `json:"trivia_id" binding:"required"`
		Answers  []service.AnswerSubmission `json:"answers" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caller := middleware.CurrentUser(c)
	graded, err := h.Sessions.SubmitFullAnswerSet(c.Request.Context(), caller.ID, req.TriviaID, req.Answers)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "answers submitted", "result": graded})
}

func (h *ResultHandler) MyResults(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	results, err := h.Leaderboards.MyResults(c.Request.Context(), caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

func (h *ResultHandler) TriviaReport(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	report, err := h.Leaderboards.Report(c.Request.Context(), caller, c.Param("triviaId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ResultHandler) ResultDetail(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	result, err := h.Leaderboards.ResultDetail(c.Request.Context(), caller, c.Param("resultId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}
