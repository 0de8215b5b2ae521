package handlers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/aisle-list/internal/models"
	"github.com/foxxcyber/aisle-list/internal/services"
)

const testUserKey = "sk-handlertestkey0123456789"

type fakeScanner struct {
	mu     sync.Mutex
	lines  []string
	err    error
	calls  int
	hashes []string
}

func (f *fakeScanner) ProcessPrepared(_ context.Context, prepared *services.PreparedImage, onProgress services.ProgressFunc) (*models.ScanResult, error) {
	f.mu.Lock()
	f.calls++
	f.hashes = append(f.hashes, prepared.Hash)
	f.mu.Unlock()

	if onProgress != nil {
		onProgress(models.PipelineProgress{Status: models.StatusOCR, Progress: 0.5})
	}
	if f.err != nil {
		return nil, f.err
	}

	builder := services.NewListBuilderForRules(services.MustDefaultLayoutRules())
	checklist := builder.Finalize(builder.BuildItems(f.lines, models.SourceOCR))
	return &models.ScanResult{
		Items:         checklist.Items,
		Sections:      checklist.Sections,
		OCRConfidence: 0.8,
		ImageHash:     prepared.Hash,
	}, nil
}

type fakeVision struct {
	resp    *models.MagicResponse
	err     error
	apiKeys []string
}

func (f *fakeVision) Parse(_ context.Context, _ []byte, _ string, apiKey string) (*models.MagicResponse, error) {
	f.apiKeys = append(f.apiKeys, apiKey)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fakeStorage struct {
	mu      sync.Mutex
	saved   []string
	deleted []string
	err     error
}

func (f *fakeStorage) SaveScan(_ context.Context, imageHash string, _ []byte, contentType string, _ []byte) (*services.ScanObjects, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.saved = append(f.saved, imageHash)
	keys := services.ScanObjectKeys(imageHash, contentType)
	return &keys, nil
}

func (f *fakeStorage) GetPresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://objects.example.test/" + key + "?sig=abc", nil
}

func (f *fakeStorage) DeleteScan(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, keys...)
	return nil
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 60, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 60; x++ {
			c := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			if y%8 < 2 {
				c = color.NRGBA{A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// uploadRequest builds a multipart request with the photo under "image".
// An empty contentType leaves the file out.
func uploadRequest(t *testing.T, path string, data []byte, contentType string, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if contentType != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="image"; filename="list.png"`)
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

func TestScanUnavailable(t *testing.T) {
	app := newTestApp(t, testConfig(), Dependencies{})

	resp, env := doRequest(t, app, uploadRequest(t, "/api/scan", testPNG(t), "image/png", nil))
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "OCR is not configured", env.Error)
}

func TestScan(t *testing.T) {
	scanner := &fakeScanner{lines: []string{"milk", "2 bananas"}}
	storage := &fakeStorage{}
	app := newTestApp(t, testConfig(), Dependencies{Scanner: scanner, Storage: storage})

	resp, env := doRequest(t, app, uploadRequest(t, "/api/scan", testPNG(t), "image/png", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode, env.Error)

	var result models.ScanResult
	decodeData(t, env, &result)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "bananas", result.Items[0].CanonicalName)
	assert.Len(t, result.ImageHash, 64)

	require.NotNil(t, result.ImageKey)
	assert.Equal(t, "scans/"+result.ImageHash+"/original.png", *result.ImageKey)
	assert.Equal(t, "scans/"+result.ImageHash+"/thumb.jpg", *result.ThumbnailKey)
	assert.Equal(t, []string{result.ImageHash}, storage.saved)
	assert.Equal(t, 1, scanner.calls)
}

func TestScanStorageFailureStillReturnsResult(t *testing.T) {
	scanner := &fakeScanner{lines: []string{"eggs"}}
	app := newTestApp(t, testConfig(), Dependencies{Scanner: scanner, Storage: &fakeStorage{err: fmt.Errorf("bucket gone")}})

	resp, env := doRequest(t, app, uploadRequest(t, "/api/scan", testPNG(t), "image/png", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result models.ScanResult
	decodeData(t, env, &result)
	assert.Len(t, result.Items, 1)
	assert.Nil(t, result.ImageKey)
}

func TestScanErrors(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		contentType string
		scanErr     error
		wantStatus  int
		wantError   string
	}{
		{"missing file", nil, "", nil, fiber.StatusBadRequest, "image file is required"},
		{"wrong type", []byte("hello"), "text/plain", nil, fiber.StatusBadRequest, "invalid image type. Supported: JPEG, PNG, WebP"},
		{"undecodable", []byte("not an image"), "image/png", nil, fiber.StatusBadRequest, "could not decode image"},
		{"cancelled", nil, "image/png", services.ErrScanCancelled, fiber.StatusRequestTimeout, "scan was cancelled or timed out"},
		{"deadline", nil, "image/png", context.DeadlineExceeded, fiber.StatusRequestTimeout, "scan was cancelled or timed out"},
		{"unexpected", nil, "image/png", fmt.Errorf("engine crashed"), fiber.StatusInternalServerError, "scan failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.data
			if data == nil {
				data = testPNG(t)
			}
			app := newTestApp(t, testConfig(), Dependencies{Scanner: &fakeScanner{err: tt.scanErr}})

			resp, env := doRequest(t, app, uploadRequest(t, "/api/scan", data, tt.contentType, nil))
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantError, env.Error)
		})
	}
}

func TestScanTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadMB = 0
	app := newTestApp(t, cfg, Dependencies{Scanner: &fakeScanner{}})

	resp, env := doRequest(t, app, uploadRequest(t, "/api/scan", testPNG(t), "image/png", nil))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, env.Error, "file too large")
}

func magicResponse() *models.MagicResponse {
	title := "Saturday"
	section := "perimeter_refrigerated_wall"
	return &models.MagicResponse{
		ListTitle: &title,
		Items: []models.MagicItem{
			{RawText: "2 milk", CanonicalName: "milk", Quantity: strPtr("2"), MajorSection: &section},
			{RawText: "bananas", CanonicalName: "bananas"},
		},
	}
}

func TestMagicScan(t *testing.T) {
	vision := &fakeVision{resp: magicResponse()}
	app := newTestApp(t, testConfig(), Dependencies{
		Vision:   vision,
		Resolver: services.NewVisionKeyResolver("", 5, nil, nil),
	})

	req := uploadRequest(t, "/api/scan/magic", testPNG(t), "image/png", nil)
	req.Header.Set(VisionKeyHeader, testUserKey)
	resp, env := doRequest(t, app, req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, env.Error)

	var result map[string]any
	decodeData(t, env, &result)
	assert.Equal(t, "Saturday", result["list_title"])
	assert.Equal(t, []any{}, result["warnings"])
	assert.Equal(t, false, result["used_shared_key"])

	var typed models.MagicScanResult
	decodeData(t, env, &typed)
	require.Len(t, typed.Items, 2)
	assert.Equal(t, "milk", typed.Items[0].CanonicalName, "placed items lead")
	assert.Equal(t, "perimeter_refrigerated_wall", *typed.Items[0].MajorSectionID)
	assert.Equal(t, "2", *typed.Items[0].Quantity)
	assert.Equal(t, models.SourceMagic, typed.Items[0].Source)
	assert.Equal(t, "bananas", typed.Items[1].CanonicalName)

	assert.Equal(t, []string{testUserKey}, vision.apiKeys)
}

func TestMagicScanFormKey(t *testing.T) {
	vision := &fakeVision{resp: magicResponse()}
	app := newTestApp(t, testConfig(), Dependencies{
		Vision:   vision,
		Resolver: services.NewVisionKeyResolver("", 5, nil, nil),
	})

	req := uploadRequest(t, "/api/scan/magic", testPNG(t), "image/png", map[string]string{"api_key": testUserKey})
	resp, _ := doRequest(t, app, req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{testUserKey}, vision.apiKeys)
}

func TestMagicScanErrors(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		visionErr  error
		wantStatus int
	}{
		{"no key available", "", nil, fiber.StatusBadRequest},
		{"invalid key", "not-a-key", nil, fiber.StatusBadRequest},
		{"malformed answer", testUserKey, fmt.Errorf("%w: items missing", services.ErrVisionMalformed), fiber.StatusBadGateway},
		{"request failed", testUserKey, fmt.Errorf("%w: status 500", services.ErrVisionRequest), fiber.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vision := &fakeVision{resp: magicResponse(), err: tt.visionErr}
			app := newTestApp(t, testConfig(), Dependencies{
				Vision:   vision,
				Resolver: services.NewVisionKeyResolver("", 5, nil, nil),
			})

			req := uploadRequest(t, "/api/scan/magic", testPNG(t), "image/png", nil)
			if tt.key != "" {
				req.Header.Set(VisionKeyHeader, tt.key)
			}
			resp, env := doRequest(t, app, req)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.False(t, env.Success)
		})
	}
}

func TestMagicScanUnavailable(t *testing.T) {
	app := newTestApp(t, testConfig(), Dependencies{Vision: &fakeVision{}})

	resp, env := doRequest(t, app, uploadRequest(t, "/api/scan/magic", testPNG(t), "image/png", nil))
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "magic mode is not configured", env.Error)
}
