package client

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
	"sync"
	"time"
)

// APIError is returned for any non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("skillswap api %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// UserSummary is the user returned alongside a login token.
type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	IsAdmin  bool   `json:"is_admin"`
}

// RegisterRequest is the payload for Register.
type RegisterRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name,omitempty"`
	Location     string `json:"location,omitempty"`
	Availability string `json:"availability,omitempty"`
}

// SearchResult is one row of SearchUsers.
type SearchResult struct {
	ID            int64    `json:"id"`
	Username      string   `json:"username"`
	Name          string   `json:"name"`
	Location      string   `json:"location"`
	Availability  string   `json:"availability"`
	SkillsOffered []string `json:"skills_offered"`
	SkillsWanted  []string `json:"skills_wanted"`
	Rating        *string  `json:"rating"`
}

// SkillRef is a skill attached to a profile.
type SkillRef struct {
	UserSkillID int64  `json:"user_skill_id,omitempty"`
	ID          int64  `json:"id"`
	Name        string `json:"name"`
}

// Profile is a user profile. Email is set only on the caller's own profile.
type Profile struct {
	ID            int64      `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email,omitempty"`
	Name          string     `json:"name"`
	Location      string     `json:"location"`
	ProfilePhoto  string     `json:"profile_photo"`
	IsPublic      bool       `json:"is_public"`
	Availability  string     `json:"availability"`
	SkillsOffered []SkillRef `json:"skills_offered"`
	SkillsWanted  []SkillRef `json:"skills_wanted"`
	Rating        *string    `json:"rating,omitempty"`
}

// ProfileUpdate is the payload for UpdateProfile.
type ProfileUpdate struct {
	Name         string `json:"name"`
	Location     string `json:"location"`
	IsPublic     bool   `json:"is_public"`
	Availability string `json:"availability"`
}

// Skill is a catalogue entry.
type Skill struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	IsApproved  bool   `json:"is_approved"`
}

// Swap is a swap request as listed by ListSwaps.
type Swap struct {
	ID                 int64      `json:"id"`
	RequesterID        int64      `json:"requester_id"`
	RecipientID        int64      `json:"recipient_id"`
	RequesterSkillID   int64      `json:"requester_skill_id"`
	RecipientSkillID   int64      `json:"recipient_skill_id"`
	Message            string     `json:"message"`
	Status             string     `json:"status"`
	TrackingStatus     string     `json:"tracking_status"`
	RequesterNotes     string     `json:"requester_notes"`
	RecipientNotes     string     `json:"recipient_notes"`
	RequesterCompleted bool       `json:"requester_completed"`
	RecipientCompleted bool       `json:"recipient_completed"`
	CompletedAt        *time.Time `json:"completed_at"`
	RequesterUsername  string     `json:"requester_username,omitempty"`
	RecipientUsername  string     `json:"recipient_username,omitempty"`
	RequesterSkillName string     `json:"requester_skill_name,omitempty"`
	RecipientSkillName string     `json:"recipient_skill_name,omitempty"`
}

// CreateSwapRequest is the payload for CreateSwap.
type CreateSwapRequest struct {
	RecipientID      int64  `json:"recipient_id"`
	RequesterSkillID int64  `json:"requester_skill_id"`
	RecipientSkillID int64  `json:"recipient_skill_id"`
	Message          string `json:"message,omitempty"`
}

// ProgressUpdate is the payload for UpdateProgress. Nil fields are omitted.
type ProgressUpdate struct {
	TrackingStatus *string `json:"tracking_status,omitempty"`
	Notes          *string `json:"notes,omitempty"`
	Completed      *bool   `json:"completed,omitempty"`
}

// Rating is a received rating.
type Rating struct {
	ID            int64     `json:"id"`
	SwapID        int64     `json:"swap_id"`
	RaterID       int64     `json:"rater_id"`
	Score         int       `json:"rating"`
	Feedback      string    `json:"feedback"`
	RaterUsername string    `json:"rater_username"`
	CreatedAt     time.Time `json:"created_at"`
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalUsers     int64 `json:"totalUsers"`
	ActiveUsers    int64 `json:"activeUsers"`
	TotalSkills    int64 `json:"totalSkills"`
	PendingSkills  int64 `json:"pendingSkills"`
	TotalSwaps     int64 `json:"totalSwaps"`
	AcceptedSwaps  int64 `json:"acceptedSwaps"`
	CompletedSwaps int64 `json:"completedSwaps"`
}

// LedgerStatus is the result of VerifyLedger.
type LedgerStatus struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Client is the SkillSwap API entry point.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *skillCache

	mu          sync.Mutex
	bearerToken string
}

// Option is a functional option for configuring a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = hc
		return nil
	}
}

// WithCacheTTL caches the approved skill catalogue for ttl.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) error {
		if ttl <= 0 {
			return fmt.Errorf("cache ttl must be positive")
		}
		c.cache = &skillCache{ttl: ttl}
		return nil
	}
}

// WithBearerToken attaches a session token obtained earlier, for example
// one loaded with LoadSession.
func WithBearerToken(token string) Option {
	return func(c *Client) error {
		c.bearerToken = token
		return nil
	}
}

// New creates a Client for the API server at baseURL, e.g.
// "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is like New but panics on error.
func MustNew(baseURL string, opts ...Option) *Client {
	c, err := New(baseURL, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Token returns the current session token, or "" before Login.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bearerToken
}

// Register creates an account and returns its id.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (int64, error) {
	var out struct {
		ID int64 `json:"id"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/register", req, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// Login signs in and keeps the returned token for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (*UserSummary, error) {
	var out struct {
		Token string      `json:"token"`
		User  UserSummary `json:"user"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.call(ctx, http.MethodPost, "/api/login", body, &out); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.bearerToken = out.Token
	c.mu.Unlock()
	return &out.User, nil
}

// SearchUsers lists public users. Empty filters are ignored.
func (c *Client) SearchUsers(ctx context.Context, skill, availability string) ([]SearchResult, error) {
	q := url.Values{}
	if skill != "" {
		q.Set("skill", skill)
	}
	if availability != "" {
		q.Set("availability", availability)
	}
	path := "/api/users"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []SearchResult
	return out, c.call(ctx, http.MethodGet, path, nil, &out)
}

// GetUser returns a public profile.
func (c *Client) GetUser(ctx context.Context, id int64) (*Profile, error) {
	var out Profile
	if err := c.call(ctx, http.MethodGet, "/api/users/"+itoa(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserRatings lists the ratings a user has received, newest first.
func (c *Client) UserRatings(ctx context.Context, id int64) ([]Rating, error) {
	var out []Rating
	return out, c.call(ctx, http.MethodGet, "/api/users/"+itoa(id)+"/ratings", nil, &out)
}

// Profile returns the signed-in user's own profile.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var out Profile
	if err := c.call(ctx, http.MethodGet, "/api/profile", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile overwrites the editable profile fields.
func (c *Client) UpdateProfile(ctx context.Context, p ProfileUpdate) error {
	return c.call(ctx, http.MethodPut, "/api/profile", p, nil)
}

// ListSkills returns the approved skill catalogue.
func (c *Client) ListSkills(ctx context.Context) ([]Skill, error) {
	if c.cache != nil {
		if skills, ok := c.cache.get(); ok {
			return skills, nil
		}
	}
	var out []Skill
	if err := c.call(ctx, http.MethodGet, "/api/skills", nil, &out); err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.set(out)
	}
	return out, nil
}

// ProposeSkill suggests a new catalogue entry. It is hidden until an admin
// approves it.
func (c *Client) ProposeSkill(ctx context.Context, name, category, description string) (int64, error) {
	body := map[string]string{"name": name, "category": category, "description": description}
	return c.create(ctx, "/api/skills", body)
}

// OfferSkill adds a skill to the caller's offered list.
func (c *Client) OfferSkill(ctx context.Context, skillID int64, description, proficiency string) (int64, error) {
	body := map[string]any{"skill_id": skillID, "description": description, "proficiency_level": proficiency}
	return c.create(ctx, "/api/user/skills/offered", body)
}

// WantSkill adds a skill to the caller's wanted list.
func (c *Client) WantSkill(ctx context.Context, skillID int64, description string) (int64, error) {
	body := map[string]any{"skill_id": skillID, "description": description}
	return c.create(ctx, "/api/user/skills/wanted", body)
}

// RemoveOffer deletes one of the caller's offered skills.
func (c *Client) RemoveOffer(ctx context.Context, id int64) (int64, error) {
	return c.count(ctx, http.MethodDelete, "/api/user/skills/offered/"+itoa(id), nil, "deleted")
}

// RemoveWant deletes one of the caller's wanted skills.
func (c *Client) RemoveWant(ctx context.Context, id int64) (int64, error) {
	return c.count(ctx, http.MethodDelete, "/api/user/skills/wanted/"+itoa(id), nil, "deleted")
}

// CreateSwap sends a swap request and returns its id.
func (c *Client) CreateSwap(ctx context.Context, req CreateSwapRequest) (int64, error) {
	return c.create(ctx, "/api/swaps", req)
}

// ListSwaps returns every swap the caller takes part in.
func (c *Client) ListSwaps(ctx context.Context) ([]Swap, error) {
	var out []Swap
	return out, c.call(ctx, http.MethodGet, "/api/swaps", nil, &out)
}

// GetSwap returns one swap.
func (c *Client) GetSwap(ctx context.Context, id int64) (*Swap, error) {
	var out Swap
	if err := c.call(ctx, http.MethodGet, "/api/swaps/"+itoa(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetSwapStatus accepts, rejects or cancels a swap. A zero result means the
// swap was no longer in a state that allows the change.
func (c *Client) SetSwapStatus(ctx context.Context, id int64, status string) (int64, error) {
	return c.count(ctx, http.MethodPatch, "/api/swaps/"+itoa(id), map[string]string{"status": status}, "changes")
}

// DeleteSwap removes one of the caller's pending requests.
func (c *Client) DeleteSwap(ctx context.Context, id int64) (int64, error) {
	return c.count(ctx, http.MethodDelete, "/api/swaps/"+itoa(id), nil, "deleted")
}

// UpdateProgress records progress on an accepted swap.
func (c *Client) UpdateProgress(ctx context.Context, id int64, u ProgressUpdate) (int64, error) {
	return c.count(ctx, http.MethodPatch, "/api/swaps/"+itoa(id)+"/progress", u, "changes")
}

// Rate rates the other participant of a completed swap.
func (c *Client) Rate(ctx context.Context, swapID, ratedUserID int64, score int, feedback string) (int64, error) {
	body := map[string]any{"swap_id": swapID, "rated_user_id": ratedUserID, "rating": score, "feedback": feedback}
	return c.create(ctx, "/api/ratings", body)
}

// Stats returns the admin dashboard counts.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := c.call(ctx, http.MethodGet, "/api/admin/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PendingSkills lists proposed skills awaiting review.
func (c *Client) PendingSkills(ctx context.Context) ([]Skill, error) {
	var out []Skill
	return out, c.call(ctx, http.MethodGet, "/api/admin/skills/pending", nil, &out)
}

// ApproveSkill approves or rejects a proposed skill.
func (c *Client) ApproveSkill(ctx context.Context, id int64, approved bool) (int64, error) {
	return c.count(ctx, http.MethodPatch, "/api/admin/skills/"+itoa(id), map[string]bool{"is_approved": approved}, "changes")
}

// DeduplicateSkills merges skills whose names differ only by case or
// surrounding whitespace. It returns the number of merged groups.
func (c *Client) DeduplicateSkills(ctx context.Context) (int, error) {
	var out struct {
		Merged int `json:"merged"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/admin/skills/deduplicate", nil, &out); err != nil {
		return 0, err
	}
	return out.Merged, nil
}

// SetUserFlags bans, unbans, promotes or demotes a user. Nil leaves a flag
// unchanged.
func (c *Client) SetUserFlags(ctx context.Context, id int64, banned, admin *bool) (int64, error) {
	body := map[string]*bool{}
	if banned != nil {
		body["is_banned"] = banned
	}
	if admin != nil {
		body["is_admin"] = admin
	}
	return c.count(ctx, http.MethodPatch, "/api/admin/users/"+itoa(id), body, "changes")
}

// PostMessage stores an announcement and starts the email broadcast.
func (c *Client) PostMessage(ctx context.Context, title, message string) (int64, error) {
	return c.create(ctx, "/api/admin/messages", map[string]string{"title": title, "message": message})
}

// DownloadReport writes the CSV report of the given type to w. userID of 0
// requests the unscoped report.
func (c *Client) DownloadReport(ctx context.Context, reportType string, userID int64, w io.Writer) error {
	q := url.Values{"format": {"csv"}}
	if userID > 0 {
		q.Set("user_id", itoa(userID))
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/api/admin/reports/"+url.PathEscape(reportType)+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	c.authorize(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return apiError(resp.StatusCode, body)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("read report: %w", err)
	}
	return nil
}

// VerifyLedger asks the server to walk the audit chain.
func (c *Client) VerifyLedger(ctx context.Context) (*LedgerStatus, error) {
	var out LedgerStatus
	if err := c.call(ctx, http.MethodGet, "/api/admin/ledger/verify", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Subscribe registers a webhook URL for the given swap events and returns
// the subscription id and its signing secret.
func (c *Client) Subscribe(ctx context.Context, hookURL string, events []string) (id, secret string, err error) {
	var out struct {
		Subscription struct {
			ID string `json:"id"`
		} `json:"subscription"`
		Secret string `json:"secret"`
	}
	body := map[string]any{"url": hookURL, "events": events}
	if err := c.call(ctx, http.MethodPost, "/api/webhooks", body, &out); err != nil {
		return "", "", err
	}
	return out.Subscription.ID, out.Secret, nil
}

// create posts body and returns the id of the created resource.
func (c *Client) create(ctx context.Context, path string, body any) (int64, error) {
	var out struct {
		ID int64 `json:"id"`
	}
	if err := c.call(ctx, http.MethodPost, path, body, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// count runs a conditional mutation and returns the row count reported
// under key.
func (c *Client) count(ctx context.Context, method, path string, body any, key string) (int64, error) {
	var out map[string]int64
	if err := c.call(ctx, method, path, body, &out); err != nil {
		return 0, err
	}
	return out[key], nil
}

func (c *Client) call(ctx context.Context, method, path string, reqBody, respBody any) error {
	var r io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, method, path, r)
	if err != nil {
		return err
	}
	body, err := c.do(req)
	if err != nil {
		return err
	}
	if respBody == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, respBody); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) authorize(req *http.Request) {
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
}

// do executes an HTTP request, attaching the Bearer token if present.
func (c *Client) do(req *http.Request) ([]byte, error) {
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, apiError(resp.StatusCode, body)
	}
	return body, nil
}

func apiError(status int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	return &APIError{StatusCode: status, Message: msg}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

// --- approved skill catalogue cache ---

type skillCache struct {
	mu        sync.RWMutex
	skills    []Skill
	expiresAt time.Time
	ttl       time.Duration
}

func (sc *skillCache) get() ([]Skill, bool) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	if sc.skills == nil || time.Now().After(sc.expiresAt) {
		return nil, false
	}
	return sc.skills, true
}

func (sc *skillCache) set(skills []Skill) {
	if skills == nil {
		skills = []Skill{}
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.skills = skills
	sc.expiresAt = time.Now().Add(sc.ttl)
}
