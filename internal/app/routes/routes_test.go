package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/edutrack/adminportal/internal/app/models"
	"github.com/edutrack/adminportal/internal/app/models/dto"
	"github.com/edutrack/adminportal/internal/bootstrap"
	"github.com/edutrack/adminportal/internal/pkg/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	superAdmin   = "root@edutrack.lk"
	importHeader = "Full Name,Class,Section,Date of Birth,Sex,Parent/Guardian Name,Parent Phone Number,Subjects,Student Photo"
)

type apiClient struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func newClient(t *testing.T) *apiClient {
	t.Helper()
	dir := t.TempDir()
	body := "server:\n  mode: production\n  storage_path: " + filepath.Join(dir, "uploads") + "\n" +
		"database:\n  driver: memory\n" +
		"jwt:\n  secret: routes-secret\n" +
		"super_admin:\n  email: " + superAdmin + "\n" +
		"import:\n  max_upload_bytes: 4096\n" +
		"logging:\n  level: error\n"
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := bootstrap.LoadConfigAndSetupLogger(path)
	require.NoError(t, err)
	deps, err := bootstrap.BuildDependencies(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(deps.Close)

	token, _, err := deps.JWTService.GenerateToken(superAdmin, auth.RoleSuperAdmin)
	require.NoError(t, err)

	return &apiClient{t: t, router: bootstrap.SetupRouter(cfg, deps), token: token}
}

func (c *apiClient) do(method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

func (c *apiClient) doJSON(method, path string, payload interface{}) *httptest.ResponseRecorder {
	c.t.Helper()
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(c.t, err)
	}
	return c.do(method, path, "application/json", body)
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	require.True(t, envelope.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorCode {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	require.NotNil(t, body.Error)
	return body.Error.Code
}

func (c *apiClient) createTenant() string {
	c.t.Helper()
	w := c.doJSON(http.MethodPost, "/api/v1/tenants", dto.CreateTenantRequest{
		Email:       "admin@bright.lk",
		Password:    "secret123",
		Name:        "Kamal Silva",
		AcademyName: "Bright Future Academy",
	})
	require.Equal(c.t, http.StatusCreated, w.Code, w.Body.String())

	var tenant dto.TenantResponse
	decodeData(c.t, w, &tenant)
	require.NotEmpty(c.t, tenant.ID)
	return tenant.ID
}

func csvBody(rows ...string) string {
	return importHeader + "\n" + strings.Join(rows, "\n") + "\n"
}

func studentRow(name string) string {
	return name + `,Grade 10,A,05/15/2010,Male,Sunil Perera,0771234567,"Mathematics, Science",`
}

func TestHealthIsPublic(t *testing.T) {
	c := newClient(t)
	c.token = ""

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/v1/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/metrics", "", nil).Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	c := newClient(t)
	c.token = ""

	w := c.do(http.MethodGet, "/api/v1/tenants", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoutesRejectOtherUsers(t *testing.T) {
	c := newClient(t)
	svc := auth.NewJWTService(auth.JWTConfig{SecretKey: "routes-secret", AccessTokenExp: time.Hour, TokenIssuer: "edutrack.admin"})
	token, _, err := svc.GenerateToken("admin@bright.lk", "ADMIN")
	require.NoError(t, err)
	c.token = token

	w := c.do(http.MethodGet, "/api/v1/tenants", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrorCodeForbidden, errorCode(t, w))
}

func TestTenantLifecycle(t *testing.T) {
	c := newClient(t)
	id := c.createTenant()

	w := c.doJSON(http.MethodPost, "/api/v1/tenants", dto.CreateTenantRequest{
		Email: "admin@bright.lk", Password: "secret123", Name: "Other", AcademyName: "Other Academy",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = c.doJSON(http.MethodPatch, "/api/v1/tenants/"+id, map[string]interface{}{"academyName": "Bright Academy"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated dto.TenantResponse
	decodeData(t, w, &updated)
	assert.Equal(t, "Bright Academy", updated.AcademyName)
	assert.NotContains(t, w.Body.String(), "secret123")

	w = c.do(http.MethodDelete, "/api/v1/tenants/"+id, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = c.do(http.MethodGet, "/api/v1/tenants/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestImportStudents_JSON(t *testing.T) {
	c := newClient(t)
	id := c.createTenant()

	w := c.doJSON(http.MethodPost, "/api/v1/tenants/"+id+"/students/import", dto.ImportStudentsRequest{
		CSVData: csvBody(studentRow("Nimal Perera"), ",Grade 10,A,05/15/2010,Male,P,077,Maths,", studentRow("Nimal Perera")),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var outcome models.ImportOutcome
	decodeData(t, w, &outcome)
	assert.Equal(t, 2, outcome.Success)
	assert.Equal(t, 1, outcome.Failed)
	require.Len(t, outcome.Errors, 1)
	assert.Equal(t, 3, outcome.Errors[0].Row)
	require.Len(t, outcome.SkippedDuplicates, 1)
	assert.Equal(t, "Duplicate detected (original: MEC1001), assigned new index: MEC1002", outcome.SkippedDuplicates[0].Reason)
	assert.Contains(t, w.Body.String(), "Import completed: 2 succeeded, 1 failed, 1 duplicates assigned new index numbers")
}

func TestImportStudents_Multipart(t *testing.T) {
	c := newClient(t)
	id := c.createTenant()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "students.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csvBody(studentRow("Nimal Perera"), studentRow("Kasun Fernando"))))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := c.do(http.MethodPost, "/api/v1/tenants/"+id+"/students/import", mw.FormDataContentType(), body.Bytes())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var outcome models.ImportOutcome
	decodeData(t, w, &outcome)
	assert.Equal(t, 2, outcome.Success)
	require.Len(t, outcome.SuccessfulStudents, 2)
	assert.Equal(t, "MEC1001", outcome.SuccessfulStudents[0].IndexNumber)
	assert.Equal(t, "MEC1002", outcome.SuccessfulStudents[1].IndexNumber)
}

func TestImportStudents_Rejections(t *testing.T) {
	c := newClient(t)
	id := c.createTenant()

	w := c.doJSON(http.MethodPost, "/api/v1/tenants/"+id+"/students/import", dto.ImportStudentsRequest{
		CSVData: "Full Name,Class\n\"Nimal,Grade 10\n",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrorCodeImportUnparseable, errorCode(t, w))

	w = c.doJSON(http.MethodPost, "/api/v1/tenants/missing/students/import", dto.ImportStudentsRequest{
		CSVData: csvBody(studentRow("Nimal Perera")),
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = c.doJSON(http.MethodPost, "/api/v1/tenants/"+id+"/students/import", dto.ImportStudentsRequest{
		CSVData: csvBody(strings.Repeat(studentRow("Nimal Perera")+"\n", 100)),
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, dto.ErrorCodeImportTooLarge, errorCode(t, w))
}

func TestStudentRoutes(t *testing.T) {
	c := newClient(t)
	id := c.createTenant()
	base := "/api/v1/tenants/" + id + "/students"

	request := dto.CreateStudentRequest{
		Name: "Nimal Perera", Class: "Grade 10", Section: "A", Subjects: []string{"Mathematics"},
		DateOfBirth: "2010-05-15", Sex: "Male", ParentName: "Sunil Perera", ParentPhone: "0771234567",
	}
	w := c.doJSON(http.MethodPost, base, request)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.Student
	decodeData(t, w, &created)
	assert.Equal(t, "MEC1001", created.IndexNumber)

	// Manual creation never checks for duplicates
	w = c.doJSON(http.MethodPost, base, request)
	require.Equal(t, http.StatusCreated, w.Code)

	w = c.doJSON(http.MethodPost, base, dto.CreateStudentRequest{Name: "Only Name"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrorCodeValidationFailed, errorCode(t, w))

	w = c.do(http.MethodGet, base+"?page=2&size=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list dto.StudentListResponse
	decodeData(t, w, &list)
	assert.Equal(t, 2, list.Total)
	require.Len(t, list.Students, 1)
	assert.Equal(t, "MEC1002", list.Students[0].IndexNumber)
	require.NotNil(t, list.Pagination)
	assert.Equal(t, 2, list.Pagination.TotalPages)

	w = c.do(http.MethodGet, base+"/duplicates", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report dto.DuplicateReportResponse
	decodeData(t, w, &report)
	assert.Equal(t, 1, report.TotalExtra)

	w = c.do(http.MethodGet, base+"/export", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Body.String(), "MEC1002")

	w = c.do(http.MethodGet, base+"/"+created.ID, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = c.do(http.MethodDelete, base+"/"+created.ID, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = c.do(http.MethodGet, base+"/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
