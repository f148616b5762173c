package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authsvc "meterinstall-backend/internal/application/auth"
	"meterinstall-backend/internal/config"
	"meterinstall-backend/internal/domain"
	"meterinstall-backend/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const jwtSecret = "router-test-secret"

type harness struct {
	app    *fiber.App
	db     *gorm.DB
	branch domain.Branch
	itype  domain.InstallationType
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.OpenDB(t)
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	app, err := NewApp(&config.Config{JWTSecret: jwtSecret, JWTTokenTTL: time.Hour, HealthAdminKey: "k"}, db, rdb)
	require.NoError(t, err)
	return &harness{
		app:    app,
		db:     db,
		branch: testutil.SeedBranch(t, db, "B1", "Bang Kapi"),
		itype:  testutil.SeedInstallationType(t, db, "T1", "Permanent"),
	}
}

func (h *harness) token(t *testing.T, roles ...string) string {
	t.Helper()
	u := testutil.SeedUser(t, h.db, "u-"+roles[0], "Test", roles[0], roles...)
	tok, err := authsvc.IssueToken(jwtSecret, time.Hour, authsvc.PrincipalFromUser(&u), time.Now())
	require.NoError(t, err)
	return tok
}

func (h *harness) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func data(out map[string]interface{}) map[string]interface{} {
	d, _ := out["data"].(map[string]interface{})
	return d
}

func TestTargets_RequireAuth(t *testing.T) {
	h := newHarness(t)
	status, out := h.do(t, http.MethodGet, "/api/v1/targets", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "error", out["status"])
}

func TestTargets_Lifecycle(t *testing.T) {
	h := newHarness(t)
	manager := h.token(t, "manager")
	admin := h.token(t, "admin")
	viewer := h.token(t, "user")

	body := map[string]interface{}{
		"year": 2024, "month": 3,
		"branch_id": h.branch.ID, "installation_type_id": h.itype.ID,
		"target_count": 10, "target_days": 5,
	}
	status, _ := h.do(t, http.MethodPost, "/api/v1/targets", viewer, body)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, out := h.do(t, http.MethodPost, "/api/v1/targets", manager, body)
	require.Equal(t, fiber.StatusCreated, status)
	created := data(out)
	id := created["id"].(string)
	assert.Equal(t, "Bang Kapi", created["branch_name"])
	assert.Equal(t, "Test manager", created["created_by_name"])

	status, out = h.do(t, http.MethodPost, "/api/v1/targets", manager, body)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "conflict", out["error"].(map[string]interface{})["kind"])

	completed := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	for _, d := range []int{1, 2, 3, 4, 6, 7, 9} {
		testutil.SeedFact(t, h.db, h.branch.ID, h.itype.ID, completed, testutil.Days(d))
	}

	status, out = h.do(t, http.MethodGet, "/api/v1/targets/"+id+"/progress", viewer, nil)
	require.Equal(t, fiber.StatusOK, status)
	p := data(out)
	assert.EqualValues(t, 7, p["completed_count"])
	assert.EqualValues(t, 70, p["completion_percentage"])
	assert.EqualValues(t, 57.14, p["on_time_percentage"])

	status, out = h.do(t, http.MethodGet, "/api/v1/targets/with-progress?year=2024", viewer, nil)
	require.Equal(t, fiber.StatusOK, status)
	page := data(out)
	assert.EqualValues(t, 1, page["total"])
	assert.EqualValues(t, 1, page["page"])
	assert.EqualValues(t, 100, page["page_size"])
	require.Len(t, page["items"], 1)

	status, out = h.do(t, http.MethodPut, "/api/v1/targets/"+id, manager, map[string]interface{}{"target_count": 20})
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 20, data(out)["target_count"])
	assert.NotNil(t, data(out)["updated_at"])

	status, _ = h.do(t, http.MethodDelete, "/api/v1/targets/"+id, manager, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	status, _ = h.do(t, http.MethodDelete, "/api/v1/targets/"+id, admin, nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = h.do(t, http.MethodGet, "/api/v1/targets/"+id, viewer, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestTargets_BadInput(t *testing.T) {
	h := newHarness(t)
	manager := h.token(t, "manager")

	status, out := h.do(t, http.MethodPost, "/api/v1/targets", manager, map[string]interface{}{
		"year": 2024, "month": 13, "branch_id": h.branch.ID, "installation_type_id": h.itype.ID, "target_count": 1,
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	details := out["error"].(map[string]interface{})["details"].(map[string]interface{})
	assert.Equal(t, "lte=12", details["month"])

	status, _ = h.do(t, http.MethodGet, "/api/v1/targets/not-a-uuid", manager, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = h.do(t, http.MethodGet, "/api/v1/targets?limit=500", manager, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = h.do(t, http.MethodGet, "/api/v1/targets?year=abc", manager, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestReportsAndReference(t *testing.T) {
	h := newHarness(t)
	viewer := h.token(t, "user")

	status, out := h.do(t, http.MethodGet, "/api/v1/reports/target-vs-actual", viewer, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, out = h.do(t, http.MethodGet, "/api/v1/reports/target-vs-actual?year=2024", viewer, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 0, data(out)["overall_achievement"])

	status, out = h.do(t, http.MethodGet, "/api/v1/branches", viewer, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, out["data"], 1)
}

func TestSLAAndPerformanceReports(t *testing.T) {
	h := newHarness(t)
	viewer := h.token(t, "user")
	completed := time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)
	testutil.SeedFact(t, h.db, h.branch.ID, h.itype.ID, completed, testutil.Days(3))
	testutil.SeedFact(t, h.db, h.branch.ID, h.itype.ID, completed, testutil.Days(30))

	status, out := h.do(t, http.MethodGet, "/api/v1/reports/sla-performance?start_date=2024-03-01&end_date=2024-03-31", viewer, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 22, data(out)["sla_days"])
	assert.EqualValues(t, 2, data(out)["total_requests"])
	assert.EqualValues(t, 50, data(out)["overall_performance"])

	status, _ = h.do(t, http.MethodGet, "/api/v1/reports/sla-performance?start_date=2024-03-31&end_date=2024-03-01", viewer, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = h.do(t, http.MethodGet, "/api/v1/reports/sla-performance?start_date=March", viewer, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, out = h.do(t, http.MethodGet, "/api/v1/reports/branch-performance?year=2024", viewer, nil)
	require.Equal(t, fiber.StatusOK, status)
	branches := data(out)["branches"].([]interface{})
	require.Len(t, branches, 1)
	assert.Equal(t, "Bang Kapi", branches[0].(map[string]interface{})["branch_name"])
	status, _ = h.do(t, http.MethodGet, "/api/v1/reports/branch-performance", viewer, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, out = h.do(t, http.MethodGet, "/api/v1/reports/installation-trend?start_date=2024-03-01&end_date=2024-03-31", viewer, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 2, data(out)["total_in_period"])
	status, _ = h.do(t, http.MethodGet, "/api/v1/reports/installation-trend?start_date=2024-03-01", viewer, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)
	status, out := h.do(t, http.MethodGet, "/health/json", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", out["status"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "meterinstall_http_requests_total")
}
