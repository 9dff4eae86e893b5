package engine

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"missionboard/internal/config"
	"missionboard/internal/discovery"
	"missionboard/internal/domain"
	"missionboard/internal/imagery"
	"missionboard/internal/repo"
)

const (
	relatedLimit  = 3
	featuredLimit = 3
	latestLimit   = 6
)

type Engine struct {
	Repo     repo.Repo
	Pipeline discovery.Pipeline
	Images   imagery.Resolver
	Saved    *SavedLists
	Config   *config.Config
	Logger   *zap.Logger
	Now      func() time.Time
}

func New(r repo.Repo, cfg *config.Config, logger *zap.Logger) (Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	images, err := imagery.FromConfig(cfg)
	if err != nil {
		return Engine{}, err
	}
	return Engine{
		Repo: r,
		Pipeline: discovery.Pipeline{
			Taxonomy: discovery.NewTaxonomy(cfg.Taxonomy),
			PageSize: cfg.Board.PageSize,
		},
		Images: images,
		Saved:  NewSavedLists(cfg.Board.MaxSavedLists),
		Config: cfg,
		Logger: logger,
		Now:    time.Now,
	}, nil
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) logger() *zap.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return zap.NewNop()
}

// MissionCard is a mission plus everything a listing needs to render it.
type MissionCard struct {
	domain.Mission
	ImageURL        string  `json:"image_url"`
	DifficultyLabel string  `json:"difficulty_label"`
	SpotsLeft       int     `json:"spots_left"`
	FillRate        float64 `json:"fill_rate"`
	DeferredReward  float64 `json:"deferred_reward"`
	Expired         bool    `json:"expired"`
}

func (e Engine) card(m domain.Mission, now time.Time) MissionCard {
	return MissionCard{
		Mission:         m,
		ImageURL:        e.Images.Resolve(m.Category, m.Title),
		DifficultyLabel: m.Difficulty.Label(),
		SpotsLeft:       m.SpotsLeft(),
		FillRate:        m.FillRate(),
		DeferredReward:  m.DeferredReward(),
		Expired:         m.Expired(now),
	}
}

func (e Engine) cards(ms []domain.Mission) []MissionCard {
	now := e.now()
	out := make([]MissionCard, 0, len(ms))
	for _, m := range ms {
		out = append(out, e.card(m, now))
	}
	return out
}

type Listing struct {
	Items      []MissionCard   `json:"items"`
	TotalCount int             `json:"total_count"`
	TotalPages int             `json:"total_pages"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	RangeStart int             `json:"range_start"`
	RangeEnd   int             `json:"range_end"`
	Query      discovery.Query `json:"query"`
}

// Discover runs the listing pipeline over the repository.
func (e Engine) Discover(ctx context.Context, q discovery.Query) (Listing, error) {
	ms, err := e.Repo.ListMissions(ctx)
	if err != nil {
		return Listing{}, err
	}
	res := e.Pipeline.Discover(ms, q)
	e.logger().Debug("discover",
		zap.String("search", q.Search),
		zap.String("sort", string(q.Sort)),
		zap.Int("page", res.Page),
		zap.Int("total", res.TotalCount),
	)
	return Listing{
		Items:      e.cards(res.Items),
		TotalCount: res.TotalCount,
		TotalPages: res.TotalPages,
		Page:       res.Page,
		PageSize:   res.PageSize,
		RangeStart: res.RangeStart,
		RangeEnd:   res.RangeEnd,
		Query:      q,
	}, nil
}

type Payout struct {
	Immediate       float64 `json:"immediate"`
	Deferred        float64 `json:"deferred"`
	Bonus           float64 `json:"bonus"`
	BonusPercentage float64 `json:"bonus_percentage"`
}

type MissionDetail struct {
	Mission MissionCard         `json:"mission"`
	Payout  Payout              `json:"payout"`
	Steps   domain.StepsSummary `json:"steps"`
	Related []MissionCard       `json:"related"`
}

// Mission returns the detail view for id, or repo.ErrNotFound.
func (e Engine) Mission(ctx context.Context, id string) (MissionDetail, error) {
	m, err := e.Repo.GetMission(ctx, id)
	if err != nil {
		return MissionDetail{}, err
	}
	all, err := e.Repo.ListMissions(ctx)
	if err != nil {
		return MissionDetail{}, err
	}
	return MissionDetail{
		Mission: e.card(m, e.now()),
		Payout: Payout{
			Immediate:       m.Reward,
			Deferred:        m.DeferredReward(),
			Bonus:           m.BonusAmount(),
			BonusPercentage: m.BonusPercentage,
		},
		Steps:   m.StepsSummary(),
		Related: e.cards(related(m, all, relatedLimit)),
	}, nil
}

// related picks missions sharing m's category: open ones first, then newest.
func related(m domain.Mission, all []domain.Mission, limit int) []domain.Mission {
	var out []domain.Mission
	for _, other := range all {
		if other.ID != m.ID && other.Category == m.Category {
			out = append(out, other)
		}
	}
	discovery.SortMissions(out, discovery.SortNewest)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Status == domain.StatusOpen && out[j].Status != domain.StatusOpen
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

type CategoryCount struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon,omitempty"`
	Count int    `json:"count"`
}

type Home struct {
	Board      string                `json:"board"`
	Currency   string                `json:"currency"`
	Stats      domain.DashboardStats `json:"stats"`
	Featured   []MissionCard         `json:"featured"`
	Latest     []MissionCard         `json:"latest"`
	Categories []CategoryCount       `json:"categories"`
}

// Home assembles the landing page: stats, the best paid open missions, the
// newest missions and how many missions each main category matches.
func (e Engine) Home(ctx context.Context) (Home, error) {
	ms, err := e.Repo.ListMissions(ctx)
	if err != nil {
		return Home{}, err
	}
	stats, err := e.Repo.DashboardStats(ctx)
	if err != nil {
		return Home{}, err
	}
	featured := e.Pipeline.Discover(ms, discovery.Query{
		Status:   domain.StatusOpen,
		Sort:     discovery.SortHighestReward,
		Page:     1,
		PageSize: featuredLimit,
	})
	latest := e.Pipeline.Discover(ms, discovery.Query{
		Sort:     discovery.SortNewest,
		Page:     1,
		PageSize: latestLimit,
	})
	cats := e.Pipeline.Taxonomy.Categories()
	counts := make([]CategoryCount, 0, len(cats))
	for _, c := range cats {
		n := len(e.Pipeline.Filter(ms, discovery.NewQuery().WithMainCategory(c.ID)))
		counts = append(counts, CategoryCount{ID: c.ID, Name: c.Name, Icon: c.Icon, Count: n})
	}
	return Home{
		Board:      e.Config.Board.Name,
		Currency:   e.Config.Board.Currency,
		Stats:      stats,
		Featured:   e.cards(featured.Items),
		Latest:     e.cards(latest.Items),
		Categories: counts,
	}, nil
}

type PaymentView struct {
	domain.Payment
	Unlocked bool `json:"unlocked"`
}

func (e Engine) Payments(ctx context.Context, f repo.PaymentFilters) ([]PaymentView, error) {
	ps, err := e.Repo.ListPayments(ctx, f)
	if err != nil {
		return nil, err
	}
	now := e.now()
	out := make([]PaymentView, 0, len(ps))
	for _, p := range ps {
		out = append(out, PaymentView{Payment: p, Unlocked: p.Unlocked(now)})
	}
	return out, nil
}

func (e Engine) UserStats(ctx context.Context, userID string) (domain.UserStats, error) {
	return e.Repo.GetUserStats(ctx, userID)
}

func (e Engine) DashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	return e.Repo.DashboardStats(ctx)
}

// Taxonomy returns the main categories used by listing filters.
func (e Engine) Taxonomy() []config.MainCategory {
	return e.Pipeline.Taxonomy.Categories()
}

func (e Engine) ResolveImage(category, title string) string {
	return e.Images.Resolve(category, title)
}
