package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"catalog/internal/middleware"
	"catalog/internal/model"
	"catalog/internal/repository"
	"catalog/internal/service"
	"catalog/internal/testutil"
	"catalog/internal/upstream"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	testSecret       = "handler-test-secret"
	testServiceToken = "sync-me"
)

type apiFixture struct {
	db          *gorm.DB
	router      *gin.Engine
	packages    []model.Package
	upstreamOK  atomic.Bool
	upstreamHit atomic.Int32
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &apiFixture{db: testutil.NewDB(t)}
	f.upstreamOK.Store(true)
	_, f.packages = testutil.SeedProduct(t, f.db, "RENTVIX", "Basic", "Pro")
	testutil.SeedNodes(t, f.db, "RENTVIX", model.KindFeature, "F1", "F2")

	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.upstreamHit.Add(1)
		if !f.upstreamOK.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"id":1,"parent_id":null,"title":"Dashboard"},
			{"id":2,"parent_id":1,"title":"Reports"},
			{"id":3,"parent_id":2,"title":"Daily"}
		]}`))
	}))
	t.Cleanup(source.Close)

	hash, err := bcrypt.GenerateFromPassword([]byte(testServiceToken), bcrypt.MinCost)
	require.NoError(t, err)
	auth := middleware.NewAuthenticator(testSecret, string(hash))

	products := repository.NewProductRepository(f.db)
	txManager := repository.NewTransactionManager(f.db)
	hierarchySvc := service.NewHierarchyService(service.HierarchyDeps{
		Products:  products,
		Nodes:     repository.NewNodeRepository(f.db),
		SyncRuns:  repository.NewSyncRunRepository(f.db),
		TxManager: txManager,
		Source:    upstream.NewClient(source.URL, "", 5*time.Second, nil),
	})
	matrixSvc := service.NewMatrixService(service.MatrixDeps{
		Products:  products,
		Packages:  repository.NewPackageRepository(f.db),
		Nodes:     repository.NewNodeRepository(f.db),
		Matrix:    repository.NewMatrixRepository(f.db),
		Audit:     repository.NewAuditRepository(f.db),
		TxManager: txManager,
	})
	auditSvc := service.NewAuditService(products, repository.NewAuditRepository(f.db))

	f.router = gin.New()
	api := f.router.Group("")
	NewMatrixHandler(matrixSvc, auth.RequireRole("admin")).RegisterRoutes(api)
	NewAuditHandler(auditSvc, auth.RequireRole("admin")).RegisterRoutes(api)
	NewHierarchyHandler(hierarchySvc, auth.RequireRole("admin"), auth.RequireRoleOrServiceToken("admin")).RegisterRoutes(api)
	return f
}

func adminToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "admin-1",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func (f *apiFixture) admin(t *testing.T) map[string]string {
	return map[string]string{"Authorization": "Bearer " + adminToken(t)}
}

func TestBulkUpsertRejectsForeignPackage(t *testing.T) {
	f := newAPIFixture(t)
	body := map[string]interface{}{"changes": []map[string]interface{}{
		{"item_type": "feature", "item_id": "F1", "package_id": f.packages[0].ID, "enabled": true},
		{"item_type": "feature", "item_id": "F1", "package_id": 999, "enabled": true},
	}}

	w, res := f.do(t, http.MethodPost, "/catalog/products/RENTVIX/matrix/bulk", body, f.admin(t))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, false, res["success"])
	assert.Equal(t, service.CodeValidation, res["code"])
	details := res["details"].(map[string]interface{})
	assert.Equal(t, []interface{}{float64(999)}, details["invalid_package_ids"])

	var n int64
	require.NoError(t, f.db.Model(&model.MatrixEntry{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestBulkUpsertRequiresAuth(t *testing.T) {
	f := newAPIFixture(t)
	body := map[string]interface{}{"changes": []map[string]interface{}{
		{"item_type": "feature", "item_id": "F1", "package_id": f.packages[0].ID, "enabled": true},
	}}

	w, _ := f.do(t, http.MethodPost, "/catalog/products/RENTVIX/matrix/bulk", body, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = f.do(t, http.MethodPost, "/catalog/products/RENTVIX/matrix/bulk", body,
		map[string]string{middleware.ServiceTokenHeader: testServiceToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBulkUpsertAndReadBack(t *testing.T) {
	f := newAPIFixture(t)
	body := map[string]interface{}{"changes": []map[string]interface{}{
		{"item_type": "feature", "item_id": "F1", "package_id": f.packages[0].ID, "enabled": true},
		{"item_type": "feature", "item_id": "F2", "package_id": f.packages[1].ID, "enabled": false},
	}}

	w, res := f.do(t, http.MethodPost, "/catalog/products/RENTVIX/matrix/bulk", body, f.admin(t))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, res["success"])
	assert.Equal(t, float64(2), res["count"])

	w, res = f.do(t, http.MethodGet, "/catalog/products/rentvix/matrix", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := res["data"].(map[string]interface{})
	assert.Len(t, data["packages"], 2)
	assert.Len(t, data["features"], 2)
	assert.Len(t, data["matrix"], 2)

	w, res = f.do(t, http.MethodGet, "/catalog/products/RENTVIX/matrix/audit", nil, f.admin(t))
	require.Equal(t, http.StatusOK, w.Code)
	page := res["data"].(map[string]interface{})
	assert.Equal(t, float64(1), page["total"])
}

func TestBulkUpsertBodyValidation(t *testing.T) {
	f := newAPIFixture(t)

	bodies := map[string]interface{}{
		"empty changes":   map[string]interface{}{"changes": []interface{}{}},
		"missing enabled": map[string]interface{}{"changes": []map[string]interface{}{{"item_type": "feature", "item_id": "F1", "package_id": 1}}},
		"not json":        "nope",
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			w, res := f.do(t, http.MethodPost, "/catalog/products/RENTVIX/matrix/bulk", body, f.admin(t))
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Equal(t, service.CodeValidation, res["code"])
		})
	}
}

func TestToggle(t *testing.T) {
	f := newAPIFixture(t)
	body := map[string]interface{}{"item_type": "feature", "item_id": "F2", "package_id": f.packages[1].ID, "enabled": false}

	w, res := f.do(t, http.MethodPatch, "/catalog/products/RENTVIX/matrix/toggle", body, f.admin(t))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, res["success"])
	assert.Equal(t, false, res["data"].(map[string]interface{})["enabled"])

	body["item_id"] = "F404"
	w, _ = f.do(t, http.MethodPatch, "/catalog/products/RENTVIX/matrix/toggle", body, f.admin(t))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetMatrixUnknownProduct(t *testing.T) {
	f := newAPIFixture(t)
	w, res := f.do(t, http.MethodGet, "/catalog/products/NOPE/matrix", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, float64(http.StatusNotFound), res["status_code"])
}

func TestPackageItems(t *testing.T) {
	f := newAPIFixture(t)

	w, _ := f.do(t, http.MethodGet, "/catalog/products/RENTVIX/packages/abc/items", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, res := f.do(t, http.MethodGet, "/catalog/products/RENTVIX/packages/1/items", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{}, res["data"].(map[string]interface{})["features"])
}

func TestSyncMenusWithServiceToken(t *testing.T) {
	f := newAPIFixture(t)

	w, res := f.do(t, http.MethodPost, "/catalog/products/RENTVIX/menus/sync", nil,
		map[string]string{middleware.ServiceTokenHeader: testServiceToken})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, res["success"])
	assert.Equal(t, float64(3), res["count"])
	assert.Contains(t, res["message"], "RENTVIX")

	var leaf model.Node
	require.NoError(t, f.db.Where("scope_code = ? AND kind = ? AND id = ?", "RENTVIX", model.KindMenu, "3").First(&leaf).Error)
	assert.Equal(t, 3, leaf.Level)
}

func TestSyncMenusUpstreamDown(t *testing.T) {
	f := newAPIFixture(t)
	f.upstreamOK.Store(false)

	w, res := f.do(t, http.MethodPost, "/catalog/products/RENTVIX/menus/sync", nil, f.admin(t))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, service.CodeUpstreamUnavailable, res["code"])

	var n int64
	require.NoError(t, f.db.Model(&model.Node{}).Where("kind = ?", model.KindMenu).Count(&n).Error)
	assert.Zero(t, n)

	w, res = f.do(t, http.MethodGet, "/catalog/products/RENTVIX/sync-runs", nil, f.admin(t))
	require.Equal(t, http.StatusOK, w.Code)
	page := res["data"].(map[string]interface{})
	assert.Equal(t, float64(1), page["total"])
	run := page["items"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, model.SyncStatusFailed, run["status"])
}

func TestGetMenusAutoSyncsOnce(t *testing.T) {
	f := newAPIFixture(t)

	w, res := f.do(t, http.MethodGet, "/catalog/products/RENTVIX/menus", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := res["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["count"])
	items := data["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "Dashboard", items[0].(map[string]interface{})["title"])

	f.do(t, http.MethodGet, "/catalog/products/RENTVIX/menus", nil, nil)
	assert.EqualValues(t, 1, f.upstreamHit.Load())

	f.do(t, http.MethodGet, "/catalog/products/RENTVIX/menus?refresh=1", nil, nil)
	assert.EqualValues(t, 2, f.upstreamHit.Load())
}
