package server

import (
	"missionboard/internal/config"
	"missionboard/internal/discovery"
	"missionboard/internal/domain"
	"missionboard/internal/engine"
)

// Request payloads

// ListMissionsParams mirrors discovery.Query as query string parameters.
type ListMissionsParams struct {
	Search       string `query:"search" doc:"Case-insensitive text matched against title, description and tags"`
	Category     string `query:"category" doc:"Exact mission category"`
	Status       string `query:"status" enum:"open,in_progress,completed,cancelled"`
	Type         string `query:"type" enum:"short,long"`
	Difficulty   string `query:"difficulty" enum:"easy,medium,hard,beginner,intermediate,expert"`
	MainCategory string `query:"main_category" doc:"Taxonomy main category id"`
	Subcategory  string `query:"subcategory" doc:"Taxonomy specialty label"`
	Sort         string `query:"sort" enum:"newest,highest_reward,nearest_deadline,highestReward,nearestDeadline" default:"newest"`
	Page         int    `query:"page" default:"1"`
	PageSize     int    `query:"page_size" minimum:"0" maximum:"100"`
}

func (p ListMissionsParams) query() discovery.Query {
	q := discovery.NewQuery().
		WithSearch(p.Search).
		WithCategory(p.Category).
		WithStatus(domain.MissionStatus(p.Status)).
		WithType(domain.MissionType(p.Type)).
		WithDifficulty(domain.Difficulty(p.Difficulty)).
		WithMainCategory(p.MainCategory).
		WithSubcategory(p.Subcategory)
	if k, ok := discovery.ParseSortKey(p.Sort); ok {
		q = q.WithSort(k)
	}
	q = q.WithPage(p.Page)
	q.PageSize = p.PageSize
	return q
}

type PaymentsParams struct {
	UserID    string `query:"user_id"`
	MissionID string `query:"mission_id"`
	Status    string `query:"status" enum:"pending,completed,failed"`
	Type      string `query:"type" enum:"immediate,deferred"`
}

type CreateSavedListRequest struct {
	MissionIDs []string `json:"mission_ids,omitempty" doc:"Missions to bookmark right away"`
}

// Response payloads

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

type ImageResponse struct {
	Category string `json:"category"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Fallback bool   `json:"fallback" doc:"True when the category has no curated images"`
}

type TaxonomyResponse struct {
	Items []config.MainCategory `json:"items"`
}

type PaymentsResponse struct {
	Items []engine.PaymentView `json:"items"`
}

type listingBody struct {
	Body engine.Listing `json:"body"`
}

type missionBody struct {
	Body engine.MissionDetail `json:"body"`
}

type homeBody struct {
	Body engine.Home `json:"body"`
}

type savedListBody struct {
	Body engine.SavedList `json:"body"`
}
