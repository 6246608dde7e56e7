package v1

import (
	"bytes"
	"encoding/json"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/bonsai-go/internal/archive"
	"github.com/tphakala/bonsai-go/internal/collection"
	"github.com/tphakala/bonsai-go/internal/datastore/entities"
	"github.com/tphakala/bonsai-go/internal/imagestore"
	"github.com/tphakala/bonsai-go/internal/testutil"
)

var testNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

type testAPI struct {
	e       *echo.Echo
	service *collection.Service
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	settings := testutil.Settings(t)
	store := testutil.NewSQLiteStoreWithSettings(t, settings)
	images, err := imagestore.New(&settings.Images)
	require.NoError(t, err)

	codec := archive.NewCodec(store, settings, images, "test")
	service := collection.NewService(store, images,
		collection.WithArchiver(codec),
		collection.WithClock(func() time.Time { return testNow }))

	e := echo.New()
	New(e, service)
	return &testAPI{e: e, service: service}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, Prefix+path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) multipart(t *testing.T, path string, fields map[string]string, fileField string, files map[string][]byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for name, data := range files {
		fw, err := w.CreateFormFile(fileField, name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, Prefix+path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (a *testAPI) createTree(t *testing.T, name string) TreeResponse {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/trees", TreeRequest{
		TreeName:     name,
		Species:      "Juniperus procumbens",
		DateAcquired: "2020-06-10",
		OriginDate:   "2010-06-10",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[TreeResponse](t, rec)
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	return testutil.WriteJPEG(t, filepath.Join(t.TempDir(), "p.jpg"), color.RGBA{R: 90, G: 140, A: 255})
}

func TestCreateAndGetTree(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)

	created := api.createTree(t, "Old Man")
	assert.Equal(t, "BON-001", created.TreeNumber)
	assert.Equal(t, "Juniperus procumbens", created.SpeciesName)
	assert.InDelta(t, 4.0, created.TrainingAge, 0.05)
	assert.InDelta(t, 14.0, created.TrueAge, 0.05)

	rec := api.do(t, http.MethodGet, "/trees/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[map[string]any](t, rec)
	assert.Equal(t, "Old Man", detail["tree_name"])
	assert.Contains(t, detail, "updates")

	rec = api.do(t, http.MethodGet, "/trees/number/BON-001", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/trees/next-number", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"tree_number": "BON-002"}, decode[map[string]string](t, rec))
}

func TestErrorStatusCodes(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)
	api.createTree(t, "Old Man")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing field", http.MethodPost, "/trees", TreeRequest{TreeName: "No Dates", Species: "Acer"}, http.StatusBadRequest},
		{"bad date", http.MethodPost, "/trees", TreeRequest{TreeName: "X", Species: "Acer", DateAcquired: "10/06/2020", OriginDate: "2010-01-01"}, http.StatusBadRequest},
		{"duplicate name", http.MethodPost, "/trees", TreeRequest{TreeName: "Old Man", Species: "Acer", DateAcquired: "2020-01-01", OriginDate: "2010-01-01"}, http.StatusConflict},
		{"unknown tree", http.MethodGet, "/trees/99", nil, http.StatusNotFound},
		{"bad id", http.MethodGet, "/trees/abc", nil, http.StatusBadRequest},
		{"species in use", http.MethodDelete, "/species/1", nil, http.StatusConflict},
		{"import without confirm", http.MethodPost, "/import", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())

			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, tt.want, resp.Code)
			assert.Len(t, resp.CorrelationID, 8)
		})
	}
}

func TestRecordUpdateWithPhotoAndReminder(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)
	api.createTree(t, "Old Man")

	rec := api.multipart(t, "/trees/1/updates", map[string]string{
		"update_date":      "2024-06-01",
		"girth":            "7.5",
		"work_performed":   "Repotted",
		"reminder_date":    "2024-06-05",
		"reminder_message": "Check drainage",
	}, PhotoField, map[string][]byte{"after.jpg": jpegBytes(t)})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/trees/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		CurrentGirth *float64             `json:"current_girth"`
		Updates      []entities.TreeUpdate `json:"updates"`
		Photos       []entities.Photo      `json:"photos"`
		Reminders    []entities.Reminder   `json:"reminders"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	require.NotNil(t, detail.CurrentGirth)
	assert.InDelta(t, 7.5, *detail.CurrentGirth, 0.001)
	require.Len(t, detail.Updates, 1)
	require.Len(t, detail.Photos, 1)
	assert.Equal(t, "Repotted", detail.Photos[0].Description)
	require.Len(t, detail.Reminders, 1)

	photoID := detail.Photos[0].ID
	rec = api.do(t, http.MethodGet, "/photos/"+itoa(photoID)+"/file", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get(echo.HeaderContentType))

	rec = api.do(t, http.MethodPut, "/photos/"+itoa(photoID)+"/star", StarRequest{Starred: true})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	photos, err := api.service.ListPhotos(t.Context(), 1)
	require.NoError(t, err)
	assert.True(t, photos[0].IsStarred)
}

func TestRecordUpdateRejectsHalfReminder(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)
	api.createTree(t, "Old Man")

	rec := api.do(t, http.MethodPost, "/trees/1/updates", UpdateRequest{
		WorkPerformed: "Pruned",
		ReminderDate:  "2024-07-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	updates, err := api.service.ListUpdates(t.Context(), 1)
	require.NoError(t, err)
	assert.Empty(t, updates)
}

func TestReminderLifecycle(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)
	api.createTree(t, "Old Man")

	rec := api.do(t, http.MethodPost, "/trees/1/reminders", ReminderRequest{ReminderDate: "2024-06-01", Message: "Feed"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = api.do(t, http.MethodPost, "/trees/1/reminders", ReminderRequest{ReminderDate: "2024-09-01", Message: "Wire"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodGet, "/reminders/due", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	due := decode[[]entities.Reminder](t, rec)
	require.Len(t, due, 1)
	assert.Equal(t, "Feed", due[0].Message)

	rec = api.do(t, http.MethodPost, "/reminders/"+itoa(due[0].ID)+"/complete", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodGet, "/reminders/due", nil)
	assert.Empty(t, decode[[]entities.Reminder](t, rec))

	rec = api.do(t, http.MethodGet, "/reminders?include_completed=true", nil)
	assert.Len(t, decode[[]entities.Reminder](t, rec), 2)
}

func TestArchiveAndListFilters(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)
	api.createTree(t, "Old Man")
	api.createTree(t, "Red Maple")

	rec := api.do(t, http.MethodPost, "/trees/2/archive", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	active := decode[[]TreeResponse](t, api.do(t, http.MethodGet, "/trees", nil))
	require.Len(t, active, 1)
	assert.Equal(t, "Old Man", active[0].TreeName)

	graveyard := decode[[]TreeResponse](t, api.do(t, http.MethodGet, "/trees?archived=true", nil))
	require.Len(t, graveyard, 1)
	assert.Equal(t, "Red Maple", graveyard[0].TreeName)

	all := decode[[]TreeResponse](t, api.do(t, http.MethodGet, "/trees?include_archived=true", nil))
	assert.Len(t, all, 2)

	names := decode[[]string](t, api.do(t, http.MethodGet, "/species/names", nil))
	assert.Equal(t, []string{"Juniperus procumbens"}, names)
}

func TestSettingsRoundTrip(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPut, "/settings", SettingsRequest{AppTitle: "  Greenhouse  "})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[entities.AppSetting](t, api.do(t, http.MethodGet, "/settings", nil))
	assert.Equal(t, "Greenhouse", got.AppTitle)
}

func TestExportThenImport(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)
	api.createTree(t, "Old Man")

	rec := api.do(t, http.MethodPost, "/export", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	exported := decode[ExportResponse](t, rec)
	assert.True(t, strings.HasSuffix(exported.Archive, ".zip"))
	assert.Positive(t, exported.SizeBytes)

	api.createTree(t, "Added Later")

	data, err := os.ReadFile(exported.Archive)
	require.NoError(t, err)
	rec = api.multipart(t, "/import", map[string]string{"confirm": "true"}, ArchiveField,
		map[string][]byte{filepath.Base(exported.Archive): data})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	result := decode[collection.ImportResult](t, rec)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Trees)

	trees, err := api.service.ListTrees(t.Context(), collection.TreeFilter{IncludeArchived: true})
	require.NoError(t, err)
	require.Len(t, trees, 1)
	assert.Equal(t, "Old Man", trees[0].TreeName)
}

func TestImportRejectsGarbage(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)
	api.createTree(t, "Old Man")

	rec := api.multipart(t, "/import", map[string]string{"confirm": "true"}, ArchiveField,
		map[string][]byte{"junk.zip": []byte("not a zip")})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.False(t, decode[collection.ImportResult](t, rec).Success)

	trees, err := api.service.ListTrees(t.Context(), collection.TreeFilter{})
	require.NoError(t, err)
	assert.Len(t, trees, 1)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
