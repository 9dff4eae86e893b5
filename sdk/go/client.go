package missionboardsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is a minimal mission board HTTP API client.
type Client struct {
	// BaseURL includes the API base path, e.g. http://localhost:8080/v0.
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Mission represents a listed mission (partial).
type Mission struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Category          string    `json:"category"`
	Tags              []string  `json:"tags"`
	Reward            float64   `json:"reward"`
	BonusPercentage   float64   `json:"bonus_percentage"`
	Deadline          time.Time `json:"deadline"`
	CreatedAt         time.Time `json:"created_at"`
	Status            string    `json:"status"`
	Type              string    `json:"type"`
	Difficulty        string    `json:"difficulty"`
	MaxCandidates     int       `json:"max_candidates"`
	CurrentCandidates int       `json:"current_candidates"`
	ImageURL          string    `json:"image_url"`
	DifficultyLabel   string    `json:"difficulty_label"`
	SpotsLeft         int       `json:"spots_left"`
}

// Listing is one page of discovery results.
type Listing struct {
	Items      []Mission `json:"items"`
	TotalCount int       `json:"total_count"`
	TotalPages int       `json:"total_pages"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	RangeStart int       `json:"range_start"`
	RangeEnd   int       `json:"range_end"`
}

// MissionDetail is the single mission view.
type MissionDetail struct {
	Mission Mission `json:"mission"`
	Payout  struct {
		Immediate       float64 `json:"immediate"`
		Deferred        float64 `json:"deferred"`
		Bonus           float64 `json:"bonus"`
		BonusPercentage float64 `json:"bonus_percentage"`
	} `json:"payout"`
	Related []Mission `json:"related"`
}

// ListOptions are the discovery filters. Zero values are omitted.
type ListOptions struct {
	Search       string
	Category     string
	Status       string
	Type         string
	Difficulty   string
	MainCategory string
	Subcategory  string
	Sort         string
	Page         int
	PageSize     int
}

func (o ListOptions) values() url.Values {
	v := url.Values{}
	set := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	set("search", o.Search)
	set("category", o.Category)
	set("status", o.Status)
	set("type", o.Type)
	set("difficulty", o.Difficulty)
	set("main_category", o.MainCategory)
	set("subcategory", o.Subcategory)
	set("sort", o.Sort)
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(o.PageSize))
	}
	return v
}

// Image is a resolved mission illustration.
type Image struct {
	Category string `json:"category"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Fallback bool   `json:"fallback"`
}

// MainCategory is a taxonomy entry.
type MainCategory struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Subcategories []string `json:"subcategories"`
}

// SavedList is a server-side bookmark list.
type SavedList struct {
	ID         string    `json:"id"`
	MissionIDs []string  `json:"mission_ids"`
	Missions   []Mission `json:"missions"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// ListMissions returns one page of missions matching opts.
func (c *Client) ListMissions(ctx context.Context, opts ListOptions) (Listing, error) {
	endpoint := "missions"
	if q := opts.values().Encode(); q != "" {
		endpoint += "?" + q
	}
	var resp Listing
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// GetMission fetches a mission detail by id.
func (c *Client) GetMission(ctx context.Context, id string) (MissionDetail, error) {
	var resp MissionDetail
	err := c.do(ctx, http.MethodGet, "missions/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// ResolveImage returns the illustration URL for a category and title.
func (c *Client) ResolveImage(ctx context.Context, category, title string) (Image, error) {
	v := url.Values{}
	v.Set("category", category)
	v.Set("title", title)
	var resp Image
	err := c.do(ctx, http.MethodGet, "images?"+v.Encode(), nil, &resp)
	return resp, err
}

// Taxonomy returns the main categories.
func (c *Client) Taxonomy(ctx context.Context) ([]MainCategory, error) {
	var resp struct {
		Items []MainCategory `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "taxonomy", nil, &resp)
	return resp.Items, err
}

// CreateSavedList creates a bookmark list, optionally pre-filled.
func (c *Client) CreateSavedList(ctx context.Context, missionIDs ...string) (SavedList, error) {
	body := map[string]any{}
	if len(missionIDs) > 0 {
		body["mission_ids"] = missionIDs
	}
	var resp SavedList
	err := c.do(ctx, http.MethodPost, "saved-lists", body, &resp)
	return resp, err
}

// SavedList fetches a bookmark list.
func (c *Client) SavedList(ctx context.Context, id string) (SavedList, error) {
	var resp SavedList
	err := c.do(ctx, http.MethodGet, "saved-lists/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// SaveMission adds a mission to a list.
func (c *Client) SaveMission(ctx context.Context, listID, missionID string) (SavedList, error) {
	var resp SavedList
	err := c.do(ctx, http.MethodPut, entryPath(listID, missionID), nil, &resp)
	return resp, err
}

// UnsaveMission removes a mission from a list.
func (c *Client) UnsaveMission(ctx context.Context, listID, missionID string) (SavedList, error) {
	var resp SavedList
	err := c.do(ctx, http.MethodDelete, entryPath(listID, missionID), nil, &resp)
	return resp, err
}

func entryPath(listID, missionID string) string {
	return fmt.Sprintf("saved-lists/%s/missions/%s", url.PathEscape(listID), url.PathEscape(missionID))
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var env struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &env) == nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
