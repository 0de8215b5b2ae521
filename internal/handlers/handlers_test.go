package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/foxxcyber/aisle-list/internal/config"
	"github.com/foxxcyber/aisle-list/internal/database"
	"github.com/foxxcyber/aisle-list/internal/middleware"
	"github.com/foxxcyber/aisle-list/internal/models"
	"github.com/foxxcyber/aisle-list/internal/services"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Meta    *Meta           `json:"meta"`
}

type fakeLists struct {
	mu      sync.Mutex
	lists   map[string]*models.ShoppingListWithItems
	nextID  int
	inUse   bool
	replace int
}

func newFakeLists() *fakeLists {
	return &fakeLists{lists: make(map[string]*models.ShoppingListWithItems)}
}

func (f *fakeLists) ListShoppingLists(_ context.Context, params *models.ListListParams) ([]*models.ShoppingListSummary, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]string, 0, len(f.lists))
	for id := range f.lists {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []*models.ShoppingListSummary
	for i, id := range ids {
		if i < params.Offset || len(out) >= params.Limit {
			continue
		}
		l := f.lists[id]
		out = append(out, &models.ShoppingListSummary{ID: l.ID, Title: l.Title, ItemCount: len(l.Items)})
	}
	return out, len(ids), nil
}

func (f *fakeLists) GetShoppingListByID(_ context.Context, id string) (*models.ShoppingListWithItems, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	l, ok := f.lists[id]
	if !ok {
		return nil, database.ErrListNotFound
	}
	cp := *l
	cp.Items = append([]models.ShoppingItem(nil), l.Items...)
	return &cp, nil
}

func (f *fakeLists) CreateShoppingList(_ context.Context, req *models.CreateListRequest) (*models.ShoppingList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	list := models.ShoppingList{
		ID:            fmt.Sprintf("list-%d", f.nextID),
		Title:         req.Title,
		ImageHash:     req.ImageHash,
		ImageKey:      req.ImageKey,
		ThumbnailKey:  req.ThumbnailKey,
		RawText:       req.RawText,
		UsedMagicMode: req.UsedMagicMode,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	f.lists[list.ID] = &models.ShoppingListWithItems{
		ShoppingList: list,
		Items:        append([]models.ShoppingItem(nil), req.Items...),
	}
	return &list, nil
}

func (f *fakeLists) ReplaceListItems(_ context.Context, listID string, items []models.ShoppingItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	l, ok := f.lists[listID]
	if !ok {
		return database.ErrListNotFound
	}
	f.replace++
	l.Items = append([]models.ShoppingItem(nil), items...)
	return nil
}

func (f *fakeLists) UpdateListItem(_ context.Context, listID string, item *models.ShoppingItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	l, ok := f.lists[listID]
	if !ok {
		return database.ErrListNotFound
	}
	for i := range l.Items {
		if l.Items[i].ID == item.ID {
			l.Items[i] = *item
			return nil
		}
	}
	return database.ErrListItemNotFound
}

func (f *fakeLists) DeleteShoppingList(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.lists[id]; !ok {
		return database.ErrListNotFound
	}
	delete(f.lists, id)
	return nil
}

func (f *fakeLists) ImageHashInUse(context.Context, string) (bool, error) {
	return f.inUse, nil
}

type fakeVisionKeys struct {
	key string
}

func (f *fakeVisionKeys) UserVisionKey(context.Context) (string, error) { return f.key, nil }

func (f *fakeVisionKeys) SetUserVisionKey(_ context.Context, key string) error {
	f.key = key
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		MaxUploadMB: 10,
		ScanTimeout: 10 * time.Second,
		JWTSecret:   "handler-test-secret",
		JWTExpiry:   time.Hour,
	}
}

func newTestApp(t *testing.T, cfg *config.Config, deps Dependencies) *fiber.App {
	t.Helper()

	rules := services.MustDefaultLayoutRules()
	builder := services.NewListBuilderForRules(rules)
	logger := zaptest.NewLogger(t)

	if deps.Builder == nil {
		deps.Builder = builder
	}
	if deps.Mapper == nil {
		deps.Mapper = services.NewMagicMapper(builder.Parser(), builder.Categorizer(), rules)
	}
	if deps.Exporter == nil {
		deps.Exporter = services.NewChecklistExporter(builder.Ordering(), logger)
	}
	deps.Logger = logger

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(middleware.RequestID())
	New(cfg, deps).RegisterRoutes(app)
	return app
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, envelope) {
	t.Helper()

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	if resp.Header.Get(fiber.HeaderContentType) == fiber.MIMEApplicationJSON {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, headers ...string) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return doRequest(t, app, req)
}

func decodeData(t *testing.T, env envelope, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v), string(env.Data))
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, testConfig(), Dependencies{Lists: newFakeLists()})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["ocr"])
	assert.Equal(t, true, body["persistence"])
}

func TestParseText(t *testing.T) {
	app := newTestApp(t, testConfig(), Dependencies{})

	resp, env := doJSON(t, app, http.MethodPost, "/api/parse/text", TextRequest{Text: "milk\n2 bananas\nmilk (cold)"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)

	var checklist services.Checklist
	decodeData(t, env, &checklist)
	require.Len(t, checklist.Items, 2)
	assert.Equal(t, "bananas", checklist.Items[0].CanonicalName)
	assert.Equal(t, models.SourceManual, checklist.Items[0].Source)
	assert.Equal(t, "milk", checklist.Items[1].CanonicalName)
	assert.Equal(t, "cold", *checklist.Items[1].Notes)
	assert.Len(t, checklist.Sections, 2)
}

func TestSplitLinesAndQuantity(t *testing.T) {
	app := newTestApp(t, testConfig(), Dependencies{})

	resp, env := doJSON(t, app, http.MethodPost, "/api/parse/lines", TextRequest{Text: "- eggs\n\nbread, jam"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var lines struct {
		Lines []string `json:"lines"`
	}
	decodeData(t, env, &lines)
	assert.Equal(t, []string{"eggs", "bread", "jam"}, lines.Lines)

	resp, env = doJSON(t, app, http.MethodPost, "/api/parse/quantity", LineRequest{Line: "3 x limes (ripe)"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var parsed models.ParsedLine
	decodeData(t, env, &parsed)
	assert.Equal(t, "limes", parsed.Name)
	assert.Equal(t, "3", *parsed.Quantity)
	assert.Equal(t, "ripe", *parsed.Notes)
}

func TestCategorize(t *testing.T) {
	app := newTestApp(t, testConfig(), Dependencies{})

	resp, env := doJSON(t, app, http.MethodPost, "/api/categorize", CategorizeRequest{Name: "miik"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var one models.CategorizedName
	decodeData(t, env, &one)
	assert.Equal(t, models.CategoryDairyEggs, one.CategoryID)
	assert.Equal(t, models.TierExact, one.MatchTier)

	resp, env = doJSON(t, app, http.MethodPost, "/api/categorize", CategorizeRequest{Names: []string{"bananas", "xylophone"}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var many []models.CategorizedName
	decodeData(t, env, &many)
	require.Len(t, many, 2)
	assert.Equal(t, models.CategoryProduce, many[0].CategoryID)
	assert.Equal(t, models.CategoryOther, many[1].CategoryID)

	resp, env = doJSON(t, app, http.MethodPost, "/api/categorize", CategorizeRequest{Name: "  "})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Equal(t, "name is required", env.Error)
}

func TestItemEndpoints(t *testing.T) {
	app := newTestApp(t, testConfig(), Dependencies{})
	builder := services.NewListBuilderForRules(services.MustDefaultLayoutRules())
	items := builder.BuildItems([]string{"milk", "bananas"}, models.SourceManual)
	dup := items[0]
	dup.ID = "dup"
	dup.Quantity = strPtr("2")
	withDup := append(append([]models.ShoppingItem(nil), items...), dup)

	resp, env := doJSON(t, app, http.MethodPost, "/api/items/dedupe", ItemsRequest{Items: withDup})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var deduped struct {
		Items []models.ShoppingItem `json:"items"`
	}
	decodeData(t, env, &deduped)
	require.Len(t, deduped.Items, 2)
	assert.Equal(t, "2", *deduped.Items[0].Quantity)

	resp, env = doJSON(t, app, http.MethodPost, "/api/items/order", ItemsRequest{Items: items})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var ordered struct {
		Items []models.ShoppingItem `json:"items"`
	}
	decodeData(t, env, &ordered)
	require.Len(t, ordered.Items, 2)
	assert.Equal(t, "bananas", ordered.Items[0].CanonicalName)

	resp, env = doJSON(t, app, http.MethodPost, "/api/items/sections", ItemsRequest{Items: items})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var sections struct {
		Sections []models.Section `json:"sections"`
	}
	decodeData(t, env, &sections)
	require.Len(t, sections.Sections, 2)
	assert.Equal(t, "Produce", sections.Sections[0].Title)
}

func TestScaleQuantity(t *testing.T) {
	app := newTestApp(t, testConfig(), Dependencies{})

	resp, env := doJSON(t, app, http.MethodPost, "/api/quantity/scale", ScaleRequest{Quantity: strPtr("2 lb"), Multiplier: 1.5})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out struct {
		Quantity *string `json:"quantity"`
	}
	decodeData(t, env, &out)
	assert.Equal(t, "3 lb", *out.Quantity)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/quantity/scale", ScaleRequest{Quantity: strPtr("2"), Multiplier: 0})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestScaffoldIsPublic(t *testing.T) {
	cfg := testConfig()
	cfg.AccessPasswordHash = "$2a$04$placeholderplaceholderplaceholderplaceholderpla"
	app := newTestApp(t, cfg, Dependencies{})

	resp, env := doJSON(t, app, http.MethodGet, "/api/scaffold", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out struct {
		Sections []services.MajorSection `json:"sections"`
		Prompt   string                  `json:"prompt"`
	}
	decodeData(t, env, &out)
	assert.Len(t, out.Sections, len(services.MajorSections()))
	assert.NotEmpty(t, out.Prompt)
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("open sesame"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.AccessPasswordHash = string(hash)
	app := newTestApp(t, cfg, Dependencies{Lists: newFakeLists()})

	resp, _ := doJSON(t, app, http.MethodGet, "/api/lists", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, env := doJSON(t, app, http.MethodPost, "/api/auth/login", LoginRequest{Password: "wrong"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid credentials", env.Error)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/login", LoginRequest{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, env = doJSON(t, app, http.MethodPost, "/api/auth/login", LoginRequest{Password: "open sesame"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var auth AuthResponse
	decodeData(t, env, &auth)
	require.NotEmpty(t, auth.Token)
	assert.True(t, auth.ExpiresAt.After(time.Now()))

	resp, _ = doJSON(t, app, http.MethodGet, "/api/lists", nil, fiber.HeaderAuthorization, "Bearer "+auth.Token)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestLoginDisabledWithoutPassword(t *testing.T) {
	app := newTestApp(t, testConfig(), Dependencies{})

	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/login", LoginRequest{Password: "anything"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func strPtr(s string) *string { return &s }
