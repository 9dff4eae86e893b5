package domain

import (
	"strings"
	"time"
)

type MissionStatus string

const (
	StatusOpen       MissionStatus = "open"
	StatusInProgress MissionStatus = "in_progress"
	StatusCompleted  MissionStatus = "completed"
	StatusCancelled  MissionStatus = "cancelled"
)

type MissionType string

const (
	TypeShort MissionType = "short"
	TypeLong  MissionType = "long"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type StepStatus string

const (
	StepLocked    StepStatus = "locked"
	StepOpen      StepStatus = "open"
	StepCompleted StepStatus = "completed"
)

type PaymentType string

const (
	PaymentImmediate PaymentType = "immediate"
	PaymentDeferred  PaymentType = "deferred"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Mission is a unit of work posted on the board.
type Mission struct {
	ID                string        `json:"id" yaml:"id"`
	Title             string        `json:"title" yaml:"title"`
	Description       string        `json:"description" yaml:"description"`
	ShortDescription  string        `json:"short_description,omitempty" yaml:"short_description"`
	Category          string        `json:"category" yaml:"category"`
	Tags              []string      `json:"tags" yaml:"tags"`
	Reward            float64       `json:"reward" yaml:"reward"`
	BonusPercentage   float64       `json:"bonus_percentage" yaml:"bonus_percentage"`
	Deadline          time.Time     `json:"deadline" yaml:"deadline"`
	CreatedAt         time.Time     `json:"created_at" yaml:"created_at"`
	Status            MissionStatus `json:"status" yaml:"status" enum:"open,in_progress,completed,cancelled"`
	Type              MissionType   `json:"type" yaml:"type" enum:"short,long"`
	Difficulty        Difficulty    `json:"difficulty" yaml:"difficulty" enum:"easy,medium,hard"`
	MaxCandidates     int           `json:"max_candidates" yaml:"max_candidates"`
	CurrentCandidates int           `json:"current_candidates" yaml:"current_candidates"`
	CreatedBy         string        `json:"created_by" yaml:"created_by"`
	Steps             []MissionStep `json:"steps,omitempty" yaml:"steps"`
}

type MissionStep struct {
	ID         string     `json:"id" yaml:"id"`
	Title      string     `json:"title" yaml:"title"`
	Reward     float64    `json:"reward" yaml:"reward"`
	Status     StepStatus `json:"status" yaml:"status" enum:"locked,open,completed"`
	Deadline   time.Time  `json:"deadline" yaml:"deadline"`
	AssigneeID *string    `json:"assignee_id,omitempty" yaml:"assignee_id"`
}

type Payment struct {
	ID         string        `json:"id" yaml:"id"`
	MissionID  string        `json:"mission_id" yaml:"mission_id"`
	UserID     string        `json:"user_id" yaml:"user_id"`
	Amount     float64       `json:"amount" yaml:"amount"`
	Type       PaymentType   `json:"type" yaml:"type" enum:"immediate,deferred"`
	Status     PaymentStatus `json:"status" yaml:"status" enum:"pending,completed,failed"`
	CreatedAt  time.Time     `json:"created_at" yaml:"created_at"`
	UnlockDate *time.Time    `json:"unlock_date,omitempty" yaml:"unlock_date"`
	TxHash     *string       `json:"tx_hash,omitempty" yaml:"tx_hash"`
	PaidAt     *time.Time    `json:"paid_at,omitempty" yaml:"paid_at"`
}

type UserStats struct {
	UserID             string  `json:"user_id" yaml:"user_id"`
	CompletedMissions  int     `json:"completed_missions" yaml:"completed_missions"`
	InProgressMissions int     `json:"in_progress_missions" yaml:"in_progress_missions"`
	TotalEarned        float64 `json:"total_earned" yaml:"total_earned"`
	PendingRewards     float64 `json:"pending_rewards" yaml:"pending_rewards"`
	SuccessRate        float64 `json:"success_rate" yaml:"success_rate"`
	Rank               int     `json:"rank" yaml:"rank"`
}

type DashboardStats struct {
	TotalMissions    int     `json:"total_missions" yaml:"total_missions"`
	OpenMissions     int     `json:"open_missions" yaml:"open_missions"`
	ActiveUsers      int     `json:"active_users" yaml:"active_users"`
	TotalRewardsPaid float64 `json:"total_rewards_paid" yaml:"total_rewards_paid"`
	AverageReward    float64 `json:"average_reward" yaml:"average_reward"`
	CompletionRate   float64 `json:"completion_rate" yaml:"completion_rate"`
}

// ParseDifficulty accepts both the data vocabulary (easy, medium, hard) and
// the display vocabulary (beginner, intermediate, expert).
func ParseDifficulty(s string) (Difficulty, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy", "beginner":
		return DifficultyEasy, true
	case "medium", "intermediate":
		return DifficultyMedium, true
	case "hard", "expert":
		return DifficultyHard, true
	}
	return "", false
}

// Label returns the display vocabulary for a difficulty.
func (d Difficulty) Label() string {
	switch d {
	case DifficultyEasy:
		return "beginner"
	case DifficultyMedium:
		return "intermediate"
	case DifficultyHard:
		return "expert"
	}
	if d == "" {
		return ""
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:])
}

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

func (s MissionStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (t MissionType) Valid() bool {
	return t == TypeShort || t == TypeLong
}

func (s StepStatus) Valid() bool {
	return s == StepLocked || s == StepOpen || s == StepCompleted
}

func (t PaymentType) Valid() bool {
	return t == PaymentImmediate || t == PaymentDeferred
}

func (s PaymentStatus) Valid() bool {
	return s == PaymentPending || s == PaymentCompleted || s == PaymentFailed
}
