package service

import (
	"context"
	"math"
	"sort"
	"time"

	"trivia-service/internal/domain"
	"trivia-service/internal/models"
)

// DefaultLeaderboardLimit caps ranking responses when the caller does
// not ask for a specific size.
const DefaultLeaderboardLimit = 10

// LeaderboardService derives rankings and statistics from completed
// attempts. Every call recomputes from the stored results, so the
// output is always consistent with the attempt data.
type LeaderboardService struct {
	Results ResultStore
	Users   UserStore
	Trivias TriviaStore
}

func NewLeaderboardService(results ResultStore, users UserStore, trivias TriviaStore) *LeaderboardService {
	return &LeaderboardService{Results: results, Users: users, Trivias: trivias}
}

// Global groups all completed attempts by user and ranks them by total
// score, ties broken by average score. Equal aggregates fall back to
// user id so repeated calls over unchanged data order identically.
func (s *LeaderboardService) Global(ctx context.Context, limit int) ([]models.GlobalLeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	results, err := s.Results.FindCompleted(ctx)
	if err != nil {
		return nil, err
	}

	byUser := make(map[string]*models.GlobalLeaderboardEntry)
	for _, r := range results {
		e, ok := byUser[r.UserID]
		if !ok {
			e = &models.GlobalLeaderboardEntry{UserID: r.UserID}
			byUser[r.UserID] = e
		}
		e.TotalScore += r.Score
		e.TriviasCompleted++
		if r.Score > e.BestScore {
			e.BestScore = r.Score
		}
		if r.CompletedAt != nil && r.CompletedAt.After(e.LastActivity) {
			e.LastActivity = *r.CompletedAt
		}
	}

	entries := make([]models.GlobalLeaderboardEntry, 0, len(byUser))
	for _, e := range byUser {
		e.AverageScore = round1(float64(e.TotalScore) / float64(e.TriviasCompleted))
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		if entries[i].AverageScore != entries[j].AverageScore {
			return entries[i].AverageScore > entries[j].AverageScore
		}
		return entries[i].UserID < entries[j].UserID
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}

	s.attachNames(ctx, entries)
	return entries, nil
}

// ByTrivia ranks completed attempts for one trivia by score, earlier
// finishers placing above same-score later ones.
func (s *LeaderboardService) ByTrivia(ctx context.Context, triviaID string, limit int) ([]models.TriviaLeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if _, err := s.Trivias.FindByID(ctx, triviaID); err != nil {
		return nil, err
	}
	results, err := s.Results.FindCompletedByTrivia(ctx, triviaID)
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].CompletedAt.Before(*results[j].CompletedAt)
	})
	if len(results) > limit {
		results = results[:limit]
	}

	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.UserID)
	}
	users, _ := s.Users.FindByIDs(ctx, ids)

	entries := make([]models.TriviaLeaderboardEntry, 0, len(results))
	for i, r := range results {
		entries = append(entries, models.TriviaLeaderboardEntry{
			Position:    i + 1,
			UserID:      r.UserID,
			Name:        users[r.UserID].Name,
			Score:       r.Score,
			Percentage:  scorePercentage(r.Score, len(r.Answers)),
			CompletedAt: *r.CompletedAt,
		})
	}
	return entries, nil
}

// UserStats sums one user's completed attempts and, when asked,
// computes their global rank as 1 + the number of users with a
// strictly greater total. Ranking one user this way avoids sorting
// the whole board.
func (s *LeaderboardService) UserStats(ctx context.Context, userID string, includeRank bool) (*models.UserStats, error) {
	results, err := s.Results.FindCompletedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats := &models.UserStats{RecentActivity: []models.RecentActivity{}}
	if len(results) == 0 {
		return stats, nil
	}

	total := 0
	for _, r := range results {
		total += r.Score
		if r.Score > stats.BestScore {
			stats.BestScore = r.Score
		}
	}
	stats.TriviasCompleted = len(results)
	stats.TotalScore = total
	stats.AverageScore = round1(float64(total) / float64(len(results)))

	if includeRank {
		rank, err := s.rankForTotal(ctx, userID, total)
		if err != nil {
			return nil, err
		}
		stats.GlobalRank = rank
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].CompletedAt.After(*results[j].CompletedAt)
	})
	if len(results) > 5 {
		results = results[:5]
	}
	for _, r := range results {
		activity := models.RecentActivity{
			TriviaID:       r.TriviaID,
			Score:          r.Score,
			CorrectAnswers: r.CorrectCount(),
			CompletedAt:    *r.CompletedAt,
		}
		if trivia, err := s.Trivias.FindByID(ctx, r.TriviaID); err == nil {
			activity.TriviaTitle = trivia.Title
			activity.TotalQuestions = len(trivia.QuestionIDs)
		}
		if activity.TotalQuestions > 0 {
			activity.Percentage = int(math.Round(float64(activity.CorrectAnswers) / float64(activity.TotalQuestions) * 100))
		}
		stats.RecentActivity = append(stats.RecentActivity, activity)
	}
	return stats, nil
}

// UserRank returns only the caller's global position.
func (s *LeaderboardService) UserRank(ctx context.Context, userID string) (int, error) {
	results, err := s.Results.FindCompletedByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, r := range results {
		total += r.Score
	}
	return s.rankForTotal(ctx, userID, total)
}

func (s *LeaderboardService) rankForTotal(ctx context.Context, userID string, total int) (int, error) {
	all, err := s.Results.FindCompleted(ctx)
	if err != nil {
		return 0, err
	}
	totals := make(map[string]int)
	for _, r := range all {
		totals[r.UserID] += r.Score
	}
	better := 0
	for id, t := range totals {
		if id != userID && t > total {
			better++
		}
	}
	return better + 1, nil
}

// Statistics summarizes participation across one trivia. Elapsed time
// is completion minus start, floored to whole minutes.
func (s *LeaderboardService) Statistics(ctx context.Context, triviaID string) (*models.TriviaStatistics, error) {
	all, err := s.Results.FindByTrivia(ctx, triviaID)
	if err != nil {
		return nil, err
	}
	stats := &models.TriviaStatistics{TotalParticipants: len(all)}

	totalScore, totalElapsed := 0, 0
	first := true
	for _, r := range all {
		if !r.Completed() {
			continue
		}
		stats.CompletedParticipants++
		totalScore += r.Score
		totalElapsed += elapsedMinutes(r.TimeStarted, *r.CompletedAt)
		if first || r.Score > stats.HighestScore {
			stats.HighestScore = r.Score
		}
		if first || r.Score < stats.LowestScore {
			stats.LowestScore = r.Score
		}
		first = false
	}
	if stats.CompletedParticipants > 0 {
		stats.AverageScore = round1(float64(totalScore) / float64(stats.CompletedParticipants))
		stats.AverageElapsedMinutes = totalElapsed / stats.CompletedParticipants
	}
	return stats, nil
}

// RosterEntry is one participant row in the owner's results view and
// the CSV download.
type RosterEntry struct {
	ResultID       string     `json:"result_id"`
	UserID         string     `json:"user_id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Score          int        `json:"score"`
	CorrectAnswers int        `json:"correct_answers"`
	TotalQuestions int        `json:"total_questions"`
	Percentage     int        `json:"percentage"`
	TimeStarted    time.Time  `json:"time_started"`
	CompletedAt    *time.Time `json:"completed_at"`
	ElapsedMinutes int        `json:"elapsed_minutes"`
	Status         string     `json:"status"`
}

// Roster lists every attempt at a trivia, completed or not, sorted by
// score descending for the owner's dashboard.
func (s *LeaderboardService) Roster(ctx context.Context, triviaID string) ([]RosterEntry, error) {
	trivia, err := s.Trivias.FindByID(ctx, triviaID)
	if err != nil {
		return nil, err
	}
	results, err := s.Results.FindByTrivia(ctx, triviaID)
	if err != nil {
		return nil, err
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.UserID)
	}
	users, _ := s.Users.FindByIDs(ctx, ids)

	total := len(trivia.QuestionIDs)
	roster := make([]RosterEntry, 0, len(results))
	for _, r := range results {
		entry := RosterEntry{
			ResultID:       r.ID,
			UserID:         r.UserID,
			Name:           users[r.UserID].Name,
			Email:          users[r.UserID].Email,
			Score:          r.Score,
			CorrectAnswers: r.CorrectCount(),
			TotalQuestions: total,
			Percentage:     scorePercentage(r.Score, total),
			TimeStarted:    r.TimeStarted,
			CompletedAt:    r.CompletedAt,
			Status:         "in_progress",
		}
		if r.Completed() {
			entry.Status = "completed"
			entry.ElapsedMinutes = elapsedMinutes(r.TimeStarted, *r.CompletedAt)
		}
		roster = append(roster, entry)
	}
	return roster, nil
}

// MyResults lists the caller's completed attempts, newest first, with
// trivia titles attached.
func (s *LeaderboardService) MyResults(ctx context.Context, userID string) ([]models.RecentActivity, error) {
	results, err := s.Results.FindCompletedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CompletedAt.After(*results[j].CompletedAt)
	})

	out := make([]models.RecentActivity, 0, len(results))
	for _, r := range results {
		activity := models.RecentActivity{
			TriviaID:       r.TriviaID,
			Score:          r.Score,
			CorrectAnswers: r.CorrectCount(),
			CompletedAt:    *r.CompletedAt,
		}
		if trivia, err := s.Trivias.FindByID(ctx, r.TriviaID); err == nil {
			activity.TriviaTitle = trivia.Title
			activity.TotalQuestions = len(trivia.QuestionIDs)
		}
		if activity.TotalQuestions > 0 {
			activity.Percentage = scorePercentage(r.Score, activity.TotalQuestions)
		}
		out = append(out, activity)
	}
	return out, nil
}

// OwnerReport is the creator's dashboard for one trivia: the full
// roster plus aggregate statistics. Owner or admin only.
type OwnerReport struct {
	TriviaID   string                  `json:"trivia_id"`
	Title      string                  `json:"title"`
	Roster     []RosterEntry           `json:"roster"`
	Statistics models.TriviaStatistics `json:"statistics"`
}

func (s *LeaderboardService) Report(ctx context.Context, caller *models.User, triviaID string) (*OwnerReport, error) {
	trivia, err := s.Trivias.FindByID(ctx, triviaID)
	if err != nil {
		return nil, err
	}
	if trivia.CreatedBy != caller.ID && caller.Role != models.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	roster, err := s.Roster(ctx, triviaID)
	if err != nil {
		return nil, err
	}
	stats, err := s.Statistics(ctx, triviaID)
	if err != nil {
		return nil, err
	}
	return &OwnerReport{
		TriviaID:   trivia.ID,
		Title:      trivia.Title,
		Roster:     roster,
		Statistics: *stats,
	}, nil
}

// ResultDetail returns one attempt. Visible to the attempt's user, the
// trivia's creator, and admins.
func (s *LeaderboardService) ResultDetail(ctx context.Context, caller *models.User, resultID string) (*models.Result, error) {
	result, err := s.Results.FindByID(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if result.UserID == caller.ID || caller.Role == models.RoleAdmin {
		return result, nil
	}
	trivia, err := s.Trivias.FindByID(ctx, result.TriviaID)
	if err == nil && trivia.CreatedBy == caller.ID {
		return result, nil
	}
	return nil, domain.ErrForbidden
}

func (s *LeaderboardService) attachNames(ctx context.Context, entries []models.GlobalLeaderboardEntry) {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.UserID)
	}
	users, err := s.Users.FindByIDs(ctx, ids)
	if err != nil {
		return
	}
	for i := range entries {
		entries[i].Name = users[entries[i].UserID].Name
	}
}

func elapsedMinutes(start, end time.Time) int {
	return int(end.Sub(start).Minutes())
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
