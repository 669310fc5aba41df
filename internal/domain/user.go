package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// UserAggregate is the per-user quiz state.
type UserAggregate struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Avatar             string     `json:"avatar,omitempty"`
	Role               string     `json:"role"`
	ProvinceCode       string     `json:"provinceCode,omitempty"`
	Experience         int        `json:"experience"`
	WeeklyScore        int        `json:"weeklyScore"`
	LastWeeklyScore    int        `json:"lastWeeklyScore"`
	Streak             int        `json:"streak"`
	LastQuizCompletion *time.Time `json:"lastQuizCompletionDate,omitempty"`
	LastWeekRank       int        `json:"lastWeekRank"`
	WeeklyWins         int        `json:"lastWeekWinnerCount"`
}

// StreakAction is how a submission changes the daily streak.
type StreakAction string

const (
	StreakKeep      StreakAction = "keep"
	StreakIncrement StreakAction = "increment"
	StreakReset     StreakAction = "reset"
)

// StreakUpdate is applied atomically with the score increments. At is the new
// last-completion time and is ignored for StreakKeep.
type StreakUpdate struct {
	Action StreakAction
	At     time.Time
}

// QuizResultDelta is everything a submission changes on the user aggregate.
type QuizResultDelta struct {
	XP     int
	Weekly int
	Streak StreakUpdate
}

// Board selects the score a leaderboard is ordered by.
type Board string

const (
	BoardOverall    Board = "overall"
	BoardWeekly     Board = "weekly"
	BoardLastWeekly Board = "lastweekly"
)

// LeaderboardQuery filters a leaderboard read. ProvinceCode is optional.
type LeaderboardQuery struct {
	Board        Board
	ProvinceCode string
	Limit        int
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank         int    `json:"rank"`
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	Avatar       string `json:"avatar,omitempty"`
	ProvinceCode string `json:"provinceCode,omitempty"`
	Score        int    `json:"score"`
	LastWeekRank int    `json:"lastWeekRank,omitempty"`
}

// Score returns the value a board orders by.
func (u UserAggregate) Score(b Board) int {
	switch b {
	case BoardWeekly:
		return u.WeeklyScore
	case BoardLastWeekly:
		return u.LastWeeklyScore
	}
	return u.Experience
}

// RolloverResult summarizes one weekly rollover run.
type RolloverResult struct {
	UsersReset   int64    `json:"usersReset"`
	WinningScore int      `json:"winningScore"`
	Winners      []string `json:"winners"`
}
