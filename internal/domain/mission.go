package domain

import (
	"math"
	"time"
)

// Clone returns a deep copy so callers cannot reach shared tag or step slices.
func (m Mission) Clone() Mission {
	out := m
	if m.Tags != nil {
		out.Tags = append([]string(nil), m.Tags...)
	}
	if m.Steps != nil {
		out.Steps = make([]MissionStep, len(m.Steps))
		for i, s := range m.Steps {
			if s.AssigneeID != nil {
				id := *s.AssigneeID
				s.AssigneeID = &id
			}
			out.Steps[i] = s
		}
	}
	return out
}

// BonusAmount is the extra paid on a deferred payout.
func (m Mission) BonusAmount() float64 {
	return round2(m.Reward * m.BonusPercentage / 100)
}

// DeferredReward is the full deferred payout, bonus included.
func (m Mission) DeferredReward() float64 {
	return round2(m.Reward + m.BonusAmount())
}

func (m Mission) SpotsLeft() int {
	if left := m.MaxCandidates - m.CurrentCandidates; left > 0 {
		return left
	}
	return 0
}

func (m Mission) IsFull() bool {
	return m.CurrentCandidates >= m.MaxCandidates
}

// FillRate is the share of candidate slots taken, in [0,1] for consistent data.
func (m Mission) FillRate() float64 {
	if m.MaxCandidates <= 0 {
		return 0
	}
	return float64(m.CurrentCandidates) / float64(m.MaxCandidates)
}

func (m Mission) TimeLeft(now time.Time) time.Duration {
	return m.Deadline.Sub(now)
}

func (m Mission) Expired(now time.Time) bool {
	return !now.Before(m.Deadline)
}

type StepsSummary struct {
	Total       int          `json:"total"`
	Completed   int          `json:"completed"`
	TotalReward float64      `json:"total_reward"`
	NextOpen    *MissionStep `json:"next_open,omitempty"`
}

// StepsSummary folds the ordered steps into counts and the first open step.
func (m Mission) StepsSummary() StepsSummary {
	var sum StepsSummary
	for i := range m.Steps {
		s := m.Steps[i]
		sum.Total++
		sum.TotalReward += s.Reward
		if s.Status == StepCompleted {
			sum.Completed++
		}
		if sum.NextOpen == nil && s.Status == StepOpen {
			sum.NextOpen = &s
		}
	}
	sum.TotalReward = round2(sum.TotalReward)
	return sum
}

// Unlocked reports whether a deferred payment's funds are available at now.
// Immediate payments are always unlocked.
func (p Payment) Unlocked(now time.Time) bool {
	if p.Type != PaymentDeferred {
		return true
	}
	if p.UnlockDate == nil {
		return false
	}
	return !now.Before(*p.UnlockDate)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
