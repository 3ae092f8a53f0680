package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"potterylog/internal/auth"
	"potterylog/internal/db"
	"potterylog/internal/domain"
	"potterylog/internal/logging"
	"potterylog/internal/photostore"
	"potterylog/internal/service"
	"potterylog/internal/signedurl"
	"potterylog/internal/store"
	"potterylog/internal/web"
)

// minimalJPEG is 512 bytes with the JPEG magic bytes header followed by zeros.
// http.DetectContentType identifies JPEG from the leading 0xFF 0xD8 bytes.
var minimalJPEG = func() []byte {
	b := make([]byte, 512)
	b[0] = 0xFF
	b[1] = 0xD8
	b[2] = 0xFF
	b[3] = 0xE0
	return b
}()

// memPhotoStore is a simple in-memory implementation of photostore.PhotoStore.
type memPhotoStore struct {
	mu    sync.Mutex
	data  map[string][]byte
	mimes map[string]string
}

func newMemPhotoStore() *memPhotoStore {
	return &memPhotoStore{
		data:  make(map[string][]byte),
		mimes: make(map[string]string),
	}
}

func (m *memPhotoStore) Save(_ context.Context, key, mimeType string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	m.mimes[key] = mimeType
	return nil
}

func (m *memPhotoStore) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	if !ok {
		return nil, "", photostore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), m.mimes[key], nil
}

func (m *memPhotoStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		return photostore.ErrNotFound
	}
	delete(m.data, key)
	delete(m.mimes, key)
	return nil
}

const testSecret = "integration-test-secret"

// newTestServer sets up a real web.Server backed by in-memory SQLite, an
// in-memory photo store, and no captioner.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	database, err := db.OpenForTesting()
	require.NoError(t, err)

	logger := logging.Discard()
	catalog := service.NewCatalogService(
		store.NewItemStore(database),
		store.NewPhotoStore(database),
		newMemPhotoStore(),
		nil,
		logger,
	)
	srv := httptest.NewServer(web.NewServer(
		catalog,
		store.NewUserStore(database),
		auth.NewTokenIssuer(testSecret, time.Hour),
		signedurl.New(testSecret, 15*time.Minute, "/photos"),
		"1.2.0",
		logger,
	))
	t.Cleanup(func() {
		srv.Close()
		_ = database.Close()
	})

	// Seed a user for the token flow.
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	_, err = store.NewUserStore(database).Create(context.Background(), &domain.User{
		Username:       "maria",
		HashedPassword: hash,
	})
	require.NoError(t, err)

	return srv
}

// login obtains a bearer token for the seeded user.
func login(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, err := http.PostForm(srv.URL+"/api/token", url.Values{
		"username": {"maria"},
		"password": {"correct horse"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "bearer", body.TokenType)
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

// doJSON performs an authenticated request with an optional JSON body and
// decodes the response into out when out is non-nil.
func doJSON(t *testing.T, srv *httptest.Server, token, method, path string, reqBody, out any) *http.Response {
	t.Helper()
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, srv.URL+path, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

type photoJSON struct {
	ID         string `json:"id"`
	Stage      string `json:"stage"`
	ImageNote  string `json:"imageNote"`
	FileName   string `json:"fileName"`
	SignedURL  string `json:"signedUrl"`
	IsPrimary  bool   `json:"isPrimary"`
	UploadedAt string `json:"uploadedAt"`
}

type itemJSON struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	Name          string      `json:"name"`
	ClayType      string      `json:"clayType"`
	Glaze         string      `json:"glaze"`
	Location      string      `json:"location"`
	CurrentStatus string      `json:"currentStatus"`
	Photos        []photoJSON `json:"photos"`
}

func newItemBody(name string) map[string]any {
	return map[string]any{
		"name":            name,
		"clayType":        "Stoneware",
		"location":        "Studio shelf",
		"createdDateTime": time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC).Format(time.RFC3339),
	}
}

// uploadPhoto posts a multipart photo to an item and returns the response.
func uploadPhoto(t *testing.T, srv *httptest.Server, token, itemID string, imageData []byte, stage, note string) *http.Response {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("photo_stage", stage))
	if note != "" {
		require.NoError(t, w.WriteField("photo_note", note))
	}
	fw, err := w.CreateFormFile("file", "IMG_0001.jpg")
	require.NoError(t, err)
	_, err = fw.Write(imageData)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/items/"+itemID+"/photos/", body)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestIntegration_Health(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Pottery Log")
}

func TestIntegration_Version(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)

	var body struct {
		BackendVersion     string `json:"backend_version"`
		MinFrontendVersion string `json:"min_frontend_version"`
		UpdateRequired     *bool  `json:"update_required"`
	}
	resp := doJSON(t, srv, "", http.MethodGet, "/api/version", nil, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body.BackendVersion)
	assert.Equal(t, "1.2.0", body.MinFrontendVersion)
	assert.Nil(t, body.UpdateRequired)

	body.UpdateRequired = nil
	resp = doJSON(t, srv, "", http.MethodGet, "/api/version?client_version=1.0.0", nil, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, body.UpdateRequired)
	assert.True(t, *body.UpdateRequired)

	body.UpdateRequired = nil
	resp = doJSON(t, srv, "", http.MethodGet, "/api/version?client_version=1.2.0", nil, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, body.UpdateRequired)
	assert.False(t, *body.UpdateRequired)

	resp = doJSON(t, srv, "", http.MethodGet, "/api/version?client_version=banana", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIntegration_Token(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)

	token := login(t, srv)
	assert.NotEmpty(t, token)

	resp, err := http.PostForm(srv.URL+"/api/token", url.Values{
		"username": {"maria"},
		"password": {"wrong"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))

	resp, err = http.PostForm(srv.URL+"/api/token", url.Values{
		"username": {"nobody"},
		"password": {"whatever"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_ItemsRequireAuth(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)

	resp := doJSON(t, srv, "", http.MethodGet, "/api/items", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, srv, "garbage-token", http.MethodGet, "/api/items", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_ItemCRUD(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)
	token := login(t, srv)

	// Create.
	var created itemJSON
	resp := doJSON(t, srv, token, http.MethodPost, "/api/items", newItemBody("Tall Vase"), &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Tall Vase", created.Name)
	assert.Equal(t, "greenware", created.CurrentStatus)
	assert.Empty(t, created.Photos)

	// Validation.
	bad := newItemBody("")
	resp = doJSON(t, srv, token, http.MethodPost, "/api/items", bad, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// List.
	var items []itemJSON
	resp = doJSON(t, srv, token, http.MethodGet, "/api/items", nil, &items)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, items, 1)

	// Get.
	var got itemJSON
	resp = doJSON(t, srv, token, http.MethodGet, "/api/items/"+created.ID, nil, &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created.ID, got.ID)

	resp = doJSON(t, srv, token, http.MethodGet, "/api/items/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Update.
	update := newItemBody("Tall Vase")
	update["currentStatus"] = "final"
	update["glaze"] = "Celadon"
	var updated itemJSON
	resp = doJSON(t, srv, token, http.MethodPut, "/api/items/"+created.ID, update, &updated)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "final", updated.CurrentStatus)
	assert.Equal(t, "Celadon", updated.Glaze)

	resp = doJSON(t, srv, token, http.MethodPut, "/api/items/missing", update, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Delete.
	resp = doJSON(t, srv, token, http.MethodDelete, "/api/items/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, srv, token, http.MethodGet, "/api/items/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIntegration_PhotoLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)
	token := login(t, srv)

	var item itemJSON
	resp := doJSON(t, srv, token, http.MethodPost, "/api/items", newItemBody("Teapot"), &item)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Upload. The first photo becomes primary.
	resp = uploadPhoto(t, srv, token, item.ID, minimalJPEG, "greenware", "freshly thrown")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var first photoJSON
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&first))
	assert.True(t, first.IsPrimary)
	assert.Equal(t, "greenware", first.Stage)
	assert.Equal(t, "freshly thrown", first.ImageNote)
	assert.NotEmpty(t, first.SignedURL)

	// The signed URL serves the binary.
	mediaResp, err := http.Get(srv.URL + first.SignedURL)
	require.NoError(t, err)
	defer mediaResp.Body.Close()
	require.Equal(t, http.StatusOK, mediaResp.StatusCode)
	assert.Equal(t, "image/jpeg", mediaResp.Header.Get("Content-Type"))
	data, _ := io.ReadAll(mediaResp.Body)
	assert.Equal(t, minimalJPEG, data)

	// A tampered signature is rejected.
	tampered := strings.Replace(first.SignedURL, "signature=", "signature=ff", 1)
	forgedResp, err := http.Get(srv.URL + tampered)
	require.NoError(t, err)
	defer forgedResp.Body.Close()
	assert.Equal(t, http.StatusForbidden, forgedResp.StatusCode)

	// Second photo is not primary.
	resp = uploadPhoto(t, srv, token, item.ID, minimalJPEG, "bisque", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var second photoJSON
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&second))
	assert.False(t, second.IsPrimary)

	// Update metadata.
	var patched photoJSON
	resp = doJSON(t, srv, token, http.MethodPut,
		fmt.Sprintf("/api/items/%s/photos/%s", item.ID, second.ID),
		map[string]any{"imageNote": "after bisque firing"}, &patched)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "after bisque firing", patched.ImageNote)
	assert.Equal(t, "bisque", patched.Stage)

	// An empty update body is a 400.
	resp = doJSON(t, srv, token, http.MethodPut,
		fmt.Sprintf("/api/items/%s/photos/%s", item.ID, second.ID),
		map[string]any{}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Promote the second photo; the first loses its primary flag.
	var promoted photoJSON
	resp = doJSON(t, srv, token, http.MethodPatch,
		fmt.Sprintf("/api/items/%s/photos/%s/primary", item.ID, second.ID), nil, &promoted)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, promoted.IsPrimary)

	var got itemJSON
	resp = doJSON(t, srv, token, http.MethodGet, "/api/items/"+item.ID, nil, &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, got.Photos, 2)
	for _, p := range got.Photos {
		assert.Equal(t, p.ID == second.ID, p.IsPrimary)
	}

	// Delete.
	resp = doJSON(t, srv, token, http.MethodDelete,
		fmt.Sprintf("/api/items/%s/photos/%s", item.ID, second.ID), nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, srv, token, http.MethodDelete,
		fmt.Sprintf("/api/items/%s/photos/%s", item.ID, second.ID), nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIntegration_UploadRejectsNonImage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)
	token := login(t, srv)

	var item itemJSON
	resp := doJSON(t, srv, token, http.MethodPost, "/api/items", newItemBody("Bowl"), &item)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = uploadPhoto(t, srv, token, item.ID, []byte("definitely not an image"), "greenware", "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = uploadPhoto(t, srv, token, item.ID, minimalJPEG, "sintered", "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
