package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"trivia-service/internal/middleware"
	"trivia-service/internal/service"

	"github.com/gin-gonic/gin"
)

type TriviaHandler struct {
	Trivias      *service.TriviaService
	Sessions     *service.SessionService
	Leaderboards *service.LeaderboardService
}

func NewTriviaHandler(trivias *service.TriviaService, sessions *service.SessionService, leaderboards *service.LeaderboardService) *TriviaHandler {
	return &TriviaHandler{Trivias: trivias, Sessions: sessions, Leaderboards: leaderboards}
}

func (h *TriviaHandler) List(c *gin.Context) {
	summaries, err := h.Trivias.List(c.Request.Context(), c.Query("category"), c.Query("difficulty"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trivias": summaries, "count": len(summaries)})
}

func (h *TriviaHandler) Get(c *gin.Context) {
	detail, err := h.Trivias.Get(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *TriviaHandler) Create(c *gin.Context) {
	var req service.CreateTriviaInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caller := middleware.CurrentUser(c)
	trivia, err := h.Trivias.Create(c.Request.Context(), caller, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "trivia created", "trivia": trivia})
}

func (h *TriviaHandler) Mine(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	trivias, err := h.Trivias.Mine(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trivias": trivias, "count": len(trivias)})
}

func (h *TriviaHandler) JoinByCode(c *gin.Context) {
	attempt, err := h.Trivias.JoinByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempt)
}

func (h *TriviaHandler) AddQuestion(c *gin.Context) {
	var req service.QuestionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caller := middleware.CurrentUser(c)
	question, err := h.Trivias.AddQuestion(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "question added", "question": question})
}

func (h *TriviaHandler) ToggleActive(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	active, err := h.Trivias.ToggleActive(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "trivia updated", "is_active": active})
}

func (h *TriviaHandler) Delete(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	if err := h.Trivias.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "trivia deleted"})
}

func (h *TriviaHandler) StartAttempt(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	attempt, err := h.Sessions.StartAttempt(c.Request.Context(), caller.ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempt)
}

func (h *TriviaHandler) SubmitAnswer(c *gin.Context) {
	var req struct {
		QuestionID     string `json:"question_id" binding:"required"`
		SelectedAnswer int    `json:"selected_answer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caller := middleware.CurrentUser(c)
	outcome, err := h.Sessions.SubmitAnswer(c.Request.Context(), caller.ID, c.Param("id"), req.QuestionID, req.SelectedAnswer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (h *TriviaHandler) CompleteAttempt(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	summary, err := h.Sessions.CompleteAttempt(c.Request.Context(), caller.ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "trivia completed", "summary": summary})
}

// DownloadResults streams the roster as CSV. Gated on ownership plus
// the trivia's allow_download_results flag.
func (h *TriviaHandler) DownloadResults(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	triviaID := c.Param("id")

	trivia, err := h.Trivias.CanDownloadResults(c.Request.Context(), caller, triviaID)
	if err != nil {
		respondError(c, err)
		return
	}
	roster, err := h.Leaderboards.Roster(c.Request.Context(), triviaID)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("trivia-%s-results.csv", trivia.Code)
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"name", "email", "score", "correct_answers", "total_questions", "percentage", "time_started", "completed_at", "elapsed_minutes", "status"})
	for _, entry := range roster {
		completedAt := ""
		if entry.CompletedAt != nil {
			completedAt = entry.CompletedAt.Format(time.RFC3339)
		}
		_ = w.Write([]string{
			entry.Name,
			entry.Email,
			strconv.Itoa(entry.Score),
			strconv.Itoa(entry.CorrectAnswers),
			strconv.Itoa(entry.TotalQuestions),
			strconv.Itoa(entry.Percentage),
			entry.TimeStarted.Format(time.RFC3339),
			completedAt,
			strconv.Itoa(entry.ElapsedMinutes),
			entry.Status,
		})
	}
	w.Flush()
}
