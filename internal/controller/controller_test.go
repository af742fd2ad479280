package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"uplook_backend/internal/model"
	"uplook_backend/internal/service"
	"uplook_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
}

// withUser 模拟鉴权中间件写入的 claims
func withUser(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user", &util.Claims{UserID: userID, Role: model.RoleUser})
		c.Next()
	}
}

func doRequest(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, util.Response) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp util.Response
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, resp
}

type fakeContentStore struct {
	items   []model.Content
	filters []model.ContentFilter
}

func (f *fakeContentStore) FindContent(ctx context.Context, filter model.ContentFilter) ([]model.Content, error) {
	f.filters = append(f.filters, filter)
	var out []model.Content
	for _, c := range f.items {
		if filter.Category != "" && c.Category != filter.Category {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeContentStore) Count(ctx context.Context, filter model.ContentFilter) (int64, error) {
	items, _ := f.FindContent(ctx, filter)
	return int64(len(items)), nil
}

func (f *fakeContentStore) FindByID(ctx context.Context, id uint) (*model.Content, error) {
	for i := range f.items {
		if f.items[i].ID == id {
			c := f.items[i]
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeContentStore) Create(ctx context.Context, c *model.Content) error {
	c.ID = uint(len(f.items) + 1)
	f.items = append(f.items, *c)
	return nil
}

func (f *fakeContentStore) Update(ctx context.Context, c *model.Content) error { return nil }

func (f *fakeContentStore) Delete(ctx context.Context, id uint) error {
	return gorm.ErrRecordNotFound
}

func contentFixture() *fakeContentStore {
	items := []model.Content{
		{Title: "Body scan", ContentType: model.ContentMeditation, Category: model.CategorySleep},
		{Title: "Breathing", ContentType: model.ContentMeditation, Category: model.CategoryAnxiety},
		{Title: "Wind down", ContentType: model.ContentArticle, Category: model.CategorySleep},
	}
	for i := range items {
		items[i].ID = uint(i + 1)
	}
	return &fakeContentStore{items: items}
}

func contentRouter(store *fakeContentStore) *gin.Engine {
	ctrl := NewContentController(service.NewContentService(store, nil, nil, ""))
	r := gin.New()
	r.GET("/content/explore", ctrl.Explore)
	r.GET("/content/categories", ctrl.Categories)
	r.GET("/content/:id", ctrl.Detail)
	r.POST("/admin/content", withUser(9), ctrl.Create)
	r.DELETE("/admin/content/:id", ctrl.Delete)
	return r
}

func TestContentController_ExploreFiltersByCategory(t *testing.T) {
	store := contentFixture()
	w, resp := doRequest(t, contentRouter(store), http.MethodGet, "/content/explore?category=SLEEP&limit=10&offset=10", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	page, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("expected page object, got %T", resp.Data)
	}
	if page["total"].(float64) != 2 {
		t.Errorf("expected 2 sleep items, got %v", page["total"])
	}
	if page["page"].(float64) != 2 {
		t.Errorf("expected page 2 for offset 10 / limit 10, got %v", page["page"])
	}
	if got := store.filters[0]; got.Category != model.CategorySleep || got.Limit != 10 || got.Offset != 10 {
		t.Errorf("unexpected filter passed to store: %+v", got)
	}
}

func TestContentController_ExploreRejectsUnknownFilters(t *testing.T) {
	r := contentRouter(contentFixture())

	for _, path := range []string{
		"/content/explore?category=fitness",
		"/content/explore?type=video,podcast",
	} {
		w, _ := doRequest(t, r, http.MethodGet, path, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, w.Code)
		}
	}
}

func TestContentController_Categories(t *testing.T) {
	w, resp := doRequest(t, contentRouter(contentFixture()), http.MethodGet, "/content/categories", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	items := resp.Data.([]interface{})
	if len(items) != len(model.Categories) {
		t.Fatalf("expected %d categories, got %d", len(model.Categories), len(items))
	}
	last := items[2].(map[string]interface{})
	if last["value"] != "self_confidence" || last["label"] != "Self Confidence" {
		t.Errorf("unexpected category item: %v", last)
	}
}

func TestContentController_DetailNotFound(t *testing.T) {
	r := contentRouter(contentFixture())

	w, _ := doRequest(t, r, http.MethodGet, "/content/99", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing content, got %d", w.Code)
	}
	w, _ = doRequest(t, r, http.MethodGet, "/content/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad id, got %d", w.Code)
	}
	w, _ = doRequest(t, r, http.MethodDelete, "/admin/content/99", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 deleting missing content, got %d", w.Code)
	}
}

func TestContentController_CreateValidatesBody(t *testing.T) {
	store := contentFixture()
	r := contentRouter(store)

	w, _ := doRequest(t, r, http.MethodPost, "/admin/content", map[string]interface{}{
		"title": "Podcast", "contentType": "podcast", "category": "sleep", "url": "https://x",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown content type, got %d", w.Code)
	}

	w, resp := doRequest(t, r, http.MethodPost, "/admin/content", map[string]interface{}{
		"title": "  Night sounds ", "contentType": "music", "category": "sleep", "url": "https://x/a.mp3",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := resp.Data.(map[string]interface{})
	if created["title"] != "Night sounds" || created["createdBy"].(float64) != 9 {
		t.Errorf("unexpected created content: %v", created)
	}
}

type fakeRecorder struct {
	user model.User
}

func (f *fakeRecorder) RecordCompletion(ctx context.Context, userID, contentID uint, at time.Time, apply func(user *model.User)) (*model.User, error) {
	apply(&f.user)
	u := f.user
	return &u, nil
}

func (f *fakeRecorder) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]model.ActivityLog, error) {
	return nil, nil
}

func activityRouter() *gin.Engine {
	svc := service.NewActivityService(&fakeRecorder{user: model.User{BaseModel: model.BaseModel{ID: 1}}}, contentFixture(), nil, nil)
	ctrl := NewActivityController(svc)
	r := gin.New()
	r.Use(withUser(1))
	r.POST("/activity/log", ctrl.LogActivity)
	r.GET("/activity/logs", ctrl.ListLogs)
	r.POST("/home/activity/:contentId/complete", ctrl.CompleteFromHome)
	return r
}

func TestActivityController_LogActivity(t *testing.T) {
	r := activityRouter()

	w, resp := doRequest(t, r, http.MethodPost, "/activity/log", map[string]uint{"contentId": 1})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	result := resp.Data.(map[string]interface{})
	if result["success"] != true || result["streak"].(float64) != 1 {
		t.Errorf("unexpected completion result: %v", result)
	}

	w, resp = doRequest(t, r, http.MethodPost, "/home/activity/42/complete", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown content, got %d", w.Code)
	}
	if resp.Message != util.ErrContentNotFound.Error() {
		t.Errorf("expected content not found message, got %q", resp.Message)
	}
}

func TestActivityController_ListLogsNeverNull(t *testing.T) {
	w, _ := doRequest(t, activityRouter(), http.MethodGet, "/activity/logs", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"data":[]`) {
		t.Errorf("expected empty list, got %s", w.Body.String())
	}
}

func TestActivityController_RequiresUser(t *testing.T) {
	svc := service.NewActivityService(&fakeRecorder{}, contentFixture(), nil, nil)
	r := gin.New()
	r.POST("/activity/log", NewActivityController(svc).LogActivity)

	w, _ := doRequest(t, r, http.MethodPost, "/activity/log", map[string]uint{"contentId": 1})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without user, got %d", w.Code)
	}
}

// fakePlanStore 只实现计划归属与会话查询，其余路径不应被调用
type fakePlanStore struct {
	service.PlanStore
	reviewed bool
}

func (f *fakePlanStore) FindForUser(ctx context.Context, planID, userID uint) (*model.Plan, error) {
	if planID == 10 && userID == 1 {
		return &model.Plan{BaseModel: model.BaseModel{ID: 10}, UserID: 1}, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePlanStore) FindSessionForUser(ctx context.Context, sessionID, userID uint) (*model.ReviewSession, error) {
	switch sessionID {
	case 5:
		return &model.ReviewSession{BaseModel: model.BaseModel{ID: 5}, UserID: userID, PlanID: 10}, nil
	case 6:
		ended := time.Now()
		return &model.ReviewSession{BaseModel: model.BaseModel{ID: 6}, UserID: userID, PlanID: 10, EndedAt: &ended}, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePlanStore) ReviewCard(ctx context.Context, cardID, sessionID uint, next func(card model.PlanCard) (model.PlanCard, model.CardReview)) (*model.PlanCard, error) {
	f.reviewed = true
	card, _ := next(model.NewPlanCard(10))
	return &card, nil
}

func (f *fakePlanStore) Analytics(ctx context.Context, planID uint) (*model.PlanAnalytics, error) {
	return &model.PlanAnalytics{PlanID: planID}, nil
}

func planRouter(store *fakePlanStore) *gin.Engine {
	ctrl := NewPlanController(service.NewPlanService(store, 50))
	r := gin.New()
	r.Use(withUser(1))
	r.GET("/plans/:planId/analytics", ctrl.Analytics)
	r.POST("/plans/sessions/:sessionId/reviews", ctrl.SubmitReview)
	return r
}

func TestPlanController_SubmitReviewValidatesGrade(t *testing.T) {
	store := &fakePlanStore{}
	r := planRouter(store)

	w, _ := doRequest(t, r, http.MethodPost, "/plans/sessions/5/reviews", map[string]interface{}{
		"cardId": 3, "response": "perfect", "responseTimeSeconds": 2.5,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown grade, got %d", w.Code)
	}
	if store.reviewed {
		t.Error("invalid grade must not reach the store")
	}

	w, resp := doRequest(t, r, http.MethodPost, "/plans/sessions/5/reviews", map[string]interface{}{
		"cardId": 3, "response": "good", "responseTimeSeconds": 2.5,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	card := resp.Data.(map[string]interface{})
	if card["repetitions"].(float64) != 1 || card["intervalDays"].(float64) != 1 {
		t.Errorf("expected first good review to schedule 1 day, got %v", card)
	}
}

func TestPlanController_ErrorMapping(t *testing.T) {
	r := planRouter(&fakePlanStore{})

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"foreign plan", http.MethodGet, "/plans/11/analytics", nil, http.StatusNotFound},
		{"own plan", http.MethodGet, "/plans/10/analytics", nil, http.StatusOK},
		{"missing session", http.MethodPost, "/plans/sessions/7/reviews", map[string]interface{}{"cardId": 1, "response": "easy"}, http.StatusNotFound},
		{"ended session", http.MethodPost, "/plans/sessions/6/reviews", map[string]interface{}{"cardId": 1, "response": "easy"}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := doRequest(t, r, tt.method, tt.path, tt.body)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestTrendDays(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", defaultTrendDays},
		{"days=7", 7},
		{"days=0", defaultTrendDays},
		{"days=abc", defaultTrendDays},
		{"days=1000", maxTrendDays},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
		if got := trendDays(c); got != tt.want {
			t.Errorf("trendDays(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}
