package repo

import (
	"context"
	"errors"
	"sort"

	"missionboard/internal/domain"
	"missionboard/internal/seed"
)

// Repo is a read-only view over one seed snapshot. Every read returns
// copies, so callers can never change what other readers see.
type Repo struct {
	snap *snapshot
}

var ErrNotFound = errors.New("not found")

type snapshot struct {
	missions  []domain.Mission
	byID      map[string]int
	payments  []domain.Payment
	users     map[string]domain.UserStats
	dashboard domain.DashboardStats
}

// New indexes data. It takes its own copy of every record.
func New(data seed.Data) Repo {
	s := &snapshot{
		missions:  make([]domain.Mission, 0, len(data.Missions)),
		byID:      make(map[string]int, len(data.Missions)),
		payments:  make([]domain.Payment, 0, len(data.Payments)),
		users:     make(map[string]domain.UserStats, len(data.Users)),
		dashboard: data.Dashboard,
	}
	for _, m := range data.Missions {
		if _, dup := s.byID[m.ID]; dup {
			continue
		}
		s.byID[m.ID] = len(s.missions)
		s.missions = append(s.missions, m.Clone())
	}
	for _, p := range data.Payments {
		s.payments = append(s.payments, clonePayment(p))
	}
	for _, u := range data.Users {
		s.users[u.UserID] = u
	}
	return Repo{snap: s}
}

func (r Repo) store() *snapshot {
	if r.snap == nil {
		return &snapshot{byID: map[string]int{}, users: map[string]domain.UserStats{}}
	}
	return r.snap
}

// ListMissions returns every mission in seed order.
func (r Repo) ListMissions(ctx context.Context) ([]domain.Mission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store()
	res := make([]domain.Mission, len(s.missions))
	for i, m := range s.missions {
		res[i] = m.Clone()
	}
	return res, nil
}

func (r Repo) GetMission(ctx context.Context, id string) (domain.Mission, error) {
	if err := ctx.Err(); err != nil {
		return domain.Mission{}, err
	}
	s := r.store()
	i, ok := s.byID[id]
	if !ok {
		return domain.Mission{}, ErrNotFound
	}
	return s.missions[i].Clone(), nil
}

func (r Repo) CountMissions() int {
	return len(r.store().missions)
}

type PaymentFilters struct {
	UserID    string
	MissionID string
	Status    domain.PaymentStatus
	Type      domain.PaymentType
}

// ListPayments returns matching payments, newest first. Ties keep seed order.
func (r Repo) ListPayments(ctx context.Context, f PaymentFilters) ([]domain.Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var res []domain.Payment
	for _, p := range r.store().payments {
		if f.UserID != "" && p.UserID != f.UserID {
			continue
		}
		if f.MissionID != "" && p.MissionID != f.MissionID {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.Type != "" && p.Type != f.Type {
			continue
		}
		res = append(res, clonePayment(p))
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

func (r Repo) GetUserStats(ctx context.Context, userID string) (domain.UserStats, error) {
	if err := ctx.Err(); err != nil {
		return domain.UserStats{}, err
	}
	u, ok := r.store().users[userID]
	if !ok {
		return domain.UserStats{}, ErrNotFound
	}
	return u, nil
}

func (r Repo) DashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	if err := ctx.Err(); err != nil {
		return domain.DashboardStats{}, err
	}
	return r.store().dashboard, nil
}

func clonePayment(p domain.Payment) domain.Payment {
	if p.UnlockDate != nil {
		t := *p.UnlockDate
		p.UnlockDate = &t
	}
	if p.PaidAt != nil {
		t := *p.PaidAt
		p.PaidAt = &t
	}
	if p.TxHash != nil {
		h := *p.TxHash
		p.TxHash = &h
	}
	return p
}
