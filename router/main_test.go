package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educa-api/database"
	"github.com/sahilchouksey/educa-api/model"
	"github.com/sahilchouksey/educa-api/utils"
	"github.com/sahilchouksey/educa-api/utils/auth"
	"github.com/sahilchouksey/educa-api/utils/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	app   *fiber.App
	db    *gorm.DB
	jwt   *auth.JWTManager
	store *testutil.MemoryStorage
	audit *bytes.Buffer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	auth.Cost = 4

	db := testutil.NewTestDB(t)
	srv := &testServer{
		app:   fiber.New(),
		db:    db,
		jwt:   auth.NewJWTManager(auth.JWTConfig{Secret: "test-secret", Issuer: "educa-test"}),
		store: testutil.NewMemoryStorage(),
		audit: &bytes.Buffer{},
	}

	SetupRoutes(srv.app, database.NewGORMStore(db), Options{
		JWTManager:     srv.jwt,
		Storage:        srv.store,
		AuditLog:       utils.NewLoggerTo(srv.audit),
		AllowedOrigins: "*",
	})
	return srv
}

func (s *testServer) token(t *testing.T, user *model.User) string {
	t.Helper()
	pair, err := s.jwt.IssuePair(user)
	require.NoError(t, err)
	return pair.AccessToken
}

// do sends a JSON request and decodes the JSON reply into a map
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			encoded, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(encoded)
		}
		reader = bytes.NewBufferString(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	payload := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &payload)
	}
	return resp.StatusCode, payload
}

type fixture struct {
	owner   *model.User
	other   *model.User
	student *model.User
	course  *model.Course
	module  *model.Module
}

func seed(t *testing.T, s *testServer) *fixture {
	t.Helper()
	f := &fixture{
		owner:   testutil.CreateUser(t, s.db, "owner@example.com", model.RoleInstructor),
		other:   testutil.CreateUser(t, s.db, "other@example.com", model.RoleInstructor),
		student: testutil.CreateUser(t, s.db, "student@example.com", model.RoleStudent),
	}
	subject := testutil.CreateSubject(t, s.db, "Programming", "programming")
	f.course = testutil.CreateCourse(t, s.db, f.owner, subject, "go-basics")
	f.module = testutil.CreateModule(t, s.db, f.course, "Syntax", 0)
	return f
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestOwnerRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	status, _ := s.do(t, http.MethodGet, "/course/mine/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodGet, "/course/mine/", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/accounts/register/", "", map[string]string{
		"email":    "New@Example.com",
		"password": "s3cret-pass",
		"name":     "New Student",
	})
	require.Equal(t, http.StatusCreated, status)
	data := body["data"].(map[string]interface{})
	assert.NotEmpty(t, data["access_token"])

	status, _ = s.do(t, http.MethodPost, "/accounts/register/", "", map[string]string{
		"email":    "new@example.com",
		"password": "s3cret-pass",
		"name":     "Again",
	})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = s.do(t, http.MethodPost, "/accounts/login/", "", map[string]string{
		"email":    "new@example.com",
		"password": "wrong-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = s.do(t, http.MethodPost, "/accounts/login/", "", map[string]string{
		"email":    "new@example.com",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, status)
	token := body["data"].(map[string]interface{})["access_token"].(string)

	status, body = s.do(t, http.MethodGet, "/accounts/profile/", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "student", body["data"].(map[string]interface{})["role"])

	status, _ = s.do(t, http.MethodPost, "/accounts/logout/", token, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = s.do(t, http.MethodGet, "/accounts/profile/", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestStudentCannotCreateCourse(t *testing.T) {
	s := newTestServer(t)
	f := seed(t, s)

	status, _ := s.do(t, http.MethodPost, "/course/create/", s.token(t, f.student), map[string]interface{}{
		"subject_id": f.course.SubjectID,
		"title":      "Sneaky",
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, body := s.do(t, http.MethodPost, "/course/create/", s.token(t, f.owner), map[string]interface{}{
		"subject_id": f.course.SubjectID,
		"title":      "Advanced Go",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "advanced-go", body["data"].(map[string]interface{})["slug"])
}

func TestForeignCourseLooksMissing(t *testing.T) {
	s := newTestServer(t)
	f := seed(t, s)
	path := fmt.Sprintf("/course/%d/edit/", f.course.ID)

	status, _ := s.do(t, http.MethodGet, path, s.token(t, f.other), nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, http.MethodGet, path, s.token(t, f.owner), nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestReorderByNonOwnerIsAcknowledgedButIgnored(t *testing.T) {
	s := newTestServer(t)
	f := seed(t, s)
	second := testutil.CreateModule(t, s.db, f.course, "Types", 1)

	status, body := s.do(t, http.MethodPost, "/course/module/order/", s.token(t, f.other), map[string]int{
		fmt.Sprint(f.module.ID): 1,
		fmt.Sprint(second.ID):   0,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]interface{}{"saved": "OK"}, body)

	var orders []int
	require.NoError(t, s.db.Model(&model.Module{}).Order("id").Pluck("sort_order", &orders).Error)
	assert.Equal(t, []int{0, 1}, orders)
	assert.Contains(t, s.audit.String(), "skipped 2")

	status, body = s.do(t, http.MethodPost, "/course/module/order/", s.token(t, f.owner), map[string]int{
		fmt.Sprint(f.module.ID): 1,
		fmt.Sprint(second.ID):   0,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", body["saved"])

	orders = nil
	require.NoError(t, s.db.Model(&model.Module{}).Order("id").Pluck("sort_order", &orders).Error)
	assert.Equal(t, []int{1, 0}, orders)
}

func TestReorderRejectsNonObjectBody(t *testing.T) {
	s := newTestServer(t)
	f := seed(t, s)

	status, _ := s.do(t, http.MethodPost, "/course/content/order/", s.token(t, f.owner), "[1, 2]")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestContentLifecycle(t *testing.T) {
	s := newTestServer(t)
	f := seed(t, s)
	token := s.token(t, f.owner)
	base := fmt.Sprintf("/course/module/%d/content", f.module.ID)

	status, _ := s.do(t, http.MethodGet, base+"/audio/create/", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = s.do(t, http.MethodPost, base+"/audio/create/", token, map[string]string{"title": "Song"})
	assert.Equal(t, http.StatusNotFound, status)

	status, body := s.do(t, http.MethodPost, base+"/text/create/", token, map[string]string{"content": "no title"})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	form := body["data"].(map[string]interface{})
	assert.Contains(t, form["fields"], "title")

	status, body = s.do(t, http.MethodPost, base+"/text/create/", token, map[string]string{
		"title":   "Variables",
		"content": "<p>var x int</p>",
	})
	require.Equal(t, http.StatusCreated, status)
	created := body["data"].(map[string]interface{})
	contentID := uint(created["id"].(float64))
	itemID := uint(created["item_id"].(float64))

	itemPath := fmt.Sprintf("%s/text/%d/", base, itemID)
	status, _ = s.do(t, http.MethodPost, itemPath, token, map[string]string{"title": "Vars", "content": "x := 1"})
	require.Equal(t, http.StatusOK, status)
	status, _ = s.do(t, http.MethodPost, fmt.Sprintf("%s/audio/%d/", base, itemID), token, map[string]string{"title": "x"})
	assert.Equal(t, http.StatusNotFound, status)

	var wrappers int64
	require.NoError(t, s.db.Model(&model.Content{}).Count(&wrappers).Error)
	assert.Equal(t, int64(1), wrappers)

	status, body = s.do(t, http.MethodGet, fmt.Sprintf("/course/module/%d/", f.module.ID), token, nil)
	require.Equal(t, http.StatusOK, status)
	contents := body["data"].(map[string]interface{})["contents"].([]interface{})
	require.Len(t, contents, 1)

	deletePath := fmt.Sprintf("/course/content/%d/delete/", contentID)
	status, _ = s.do(t, http.MethodPost, deletePath, s.token(t, f.other), nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = s.do(t, http.MethodPost, deletePath, token, nil)
	require.Equal(t, http.StatusOK, status)

	require.NoError(t, s.db.Model(&model.Content{}).Count(&wrappers).Error)
	assert.Zero(t, wrappers)
	var texts int64
	require.NoError(t, s.db.Model(&model.TextItem{}).Count(&texts).Error)
	assert.Zero(t, texts)
}

func TestCatalogRoutes(t *testing.T) {
	s := newTestServer(t)
	seed(t, s)

	status, body := s.do(t, http.MethodGet, "/course/subject/", "", nil)
	require.Equal(t, http.StatusOK, status)
	subjects := body["data"].([]interface{})
	require.Len(t, subjects, 1)
	assert.Equal(t, float64(1), subjects[0].(map[string]interface{})["total_courses"])

	status, _ = s.do(t, http.MethodGet, "/course/subject/astronomy/", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, http.MethodGet, "/course/go-basics/", "", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = s.do(t, http.MethodGet, "/course/missing/", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestEnrollmentRoutes(t *testing.T) {
	s := newTestServer(t)
	f := seed(t, s)
	token := s.token(t, f.student)
	viewPath := fmt.Sprintf("/students/course/%d/", f.course.ID)

	status, _ := s.do(t, http.MethodGet, viewPath, token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, http.MethodPost, "/students/enroll-course/", token, map[string]uint{"course_id": 0})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPost, "/students/enroll-course/", token, map[string]uint{"course_id": f.course.ID})
	require.Equal(t, http.StatusCreated, status)
	status, _ = s.do(t, http.MethodPost, "/students/enroll-course/", token, map[string]uint{"course_id": f.course.ID})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = s.do(t, http.MethodGet, viewPath, token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, body := s.do(t, http.MethodGet, "/students/courses/", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)
}

func TestAssignmentUpload(t *testing.T) {
	s := newTestServer(t)
	f := seed(t, s)
	token := s.token(t, f.student)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.WriteField("title", "Week 1"))
	require.NoError(t, form.WriteField("assignment_name", "Loops"))
	part, err := form.CreateFormFile("assignment", "loops.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("for {}"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/course/assignment/create/", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 1, s.store.Len())

	status, body := s.do(t, http.MethodGet, "/course/assignment_list/", token, nil)
	require.Equal(t, http.StatusOK, status)
	list := body["data"].([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, "loops.txt", list[0].(map[string]interface{})["filename"])

	status, _ = s.do(t, http.MethodGet, "/course/assignment_list/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

// register signs up through the public endpoint and returns the new id and access token
func (s *testServer) register(t *testing.T, email, password string, extra map[string]string) (uint, string) {
	t.Helper()
	body := map[string]string{"email": email, "password": password, "name": "Someone"}
	for k, v := range extra {
		body[k] = v
	}
	status, reply := s.do(t, http.MethodPost, "/accounts/register/", "", body)
	require.Equal(t, http.StatusCreated, status)
	data := reply["data"].(map[string]interface{})
	user := data["user"].(map[string]interface{})
	return uint(user["id"].(float64)), data["access_token"].(string)
}

func (s *testServer) login(t *testing.T, email, password string) (int, string) {
	t.Helper()
	status, reply := s.do(t, http.MethodPost, "/accounts/login/", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if status != http.StatusOK {
		return status, ""
	}
	return status, reply["data"].(map[string]interface{})["access_token"].(string)
}

func TestSelfRegisteredUserNeedsAdminGrant(t *testing.T) {
	s := newTestServer(t)
	f := seed(t, s)
	admin := testutil.CreateUser(t, s.db, "admin@example.com", model.RoleAdmin)
	newCourse := map[string]interface{}{"subject_id": f.course.SubjectID, "title": "Self Made"}

	userID, token := s.register(t, "eager@example.com", "s3cret-pass", map[string]string{"role": "instructor"})

	status, body := s.do(t, http.MethodGet, "/accounts/profile/", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "student", body["data"].(map[string]interface{})["role"])

	status, _ = s.do(t, http.MethodPost, "/course/create/", token, newCourse)
	assert.Equal(t, http.StatusForbidden, status)

	grant := fmt.Sprintf("/admin/users/%d/role/", userID)
	status, _ = s.do(t, http.MethodPut, grant, s.token(t, f.owner), map[string]string{"role": "instructor"})
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = s.do(t, http.MethodPut, grant, s.token(t, admin), map[string]string{"role": "wizard"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	status, _ = s.do(t, http.MethodPut, fmt.Sprintf("/admin/users/%d/role/", admin.ID), s.token(t, admin), map[string]string{"role": "student"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = s.do(t, http.MethodPut, grant, s.token(t, admin), map[string]string{"role": "instructor"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "instructor", body["data"].(map[string]interface{})["role"])

	// tokens issued under the old role no longer authenticate
	status, _ = s.do(t, http.MethodPost, "/course/create/", token, newCourse)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, token = s.login(t, "eager@example.com", "s3cret-pass")
	require.Equal(t, http.StatusOK, status)
	status, _ = s.do(t, http.MethodPost, "/course/create/", token, newCourse)
	assert.Equal(t, http.StatusCreated, status)
}

func TestAdminListUsers(t *testing.T) {
	s := newTestServer(t)
	f := seed(t, s)
	admin := testutil.CreateUser(t, s.db, "admin@example.com", model.RoleAdmin)

	status, _ := s.do(t, http.MethodGet, "/admin/users/", s.token(t, f.student), nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := s.do(t, http.MethodGet, "/admin/users/?role=instructor", s.token(t, admin), nil)
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Len(t, data["users"], 2)
	assert.Equal(t, float64(2), data["pagination"].(map[string]interface{})["total"])

	status, body = s.do(t, http.MethodGet, "/admin/users/?search=STUDENT", s.token(t, admin), nil)
	require.Equal(t, http.StatusOK, status)
	users := body["data"].(map[string]interface{})["users"].([]interface{})
	require.Len(t, users, 1)
	assert.Equal(t, "student@example.com", users[0].(map[string]interface{})["email"])
}

func TestChangePassword(t *testing.T) {
	s := newTestServer(t)
	_, token := s.register(t, "mover@example.com", "old-pass-1", nil)

	status, _ := s.do(t, http.MethodPut, "/accounts/password/", token, map[string]string{
		"old_password": "not-it-at-all",
		"new_password": "new-pass-2",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPut, "/accounts/password/", token, map[string]string{
		"old_password": "old-pass-1",
		"new_password": "12345678",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPut, "/accounts/password/", token, map[string]string{
		"old_password": "old-pass-1",
		"new_password": "new-pass-2",
	})
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodGet, "/accounts/profile/", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.login(t, "mover@example.com", "old-pass-1")
	assert.Equal(t, http.StatusUnauthorized, status)
	status, token = s.login(t, "mover@example.com", "new-pass-2")
	require.Equal(t, http.StatusOK, status)
	status, _ = s.do(t, http.MethodGet, "/accounts/profile/", token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestCourseDetailReportsEnrollment(t *testing.T) {
	s := newTestServer(t)
	f := seed(t, s)
	token := s.token(t, f.student)

	status, body := s.do(t, http.MethodGet, "/course/go-basics/", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, body["data"], "enrolled")

	status, body = s.do(t, http.MethodGet, "/course/go-basics/", "expired-or-bogus", nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, body["data"], "enrolled")

	status, body = s.do(t, http.MethodGet, "/course/go-basics/", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["data"].(map[string]interface{})["enrolled"])

	status, _ = s.do(t, http.MethodPost, "/students/enroll-course/", token, map[string]uint{"course_id": f.course.ID})
	require.Equal(t, http.StatusCreated, status)

	status, body = s.do(t, http.MethodGet, "/course/go-basics/", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["data"].(map[string]interface{})["enrolled"])
}

func TestReorderAcceptsLooseOrderValues(t *testing.T) {
	s := newTestServer(t)
	f := seed(t, s)
	second := testutil.CreateModule(t, s.db, f.course, "Types", 1)

	raw := fmt.Sprintf(`{"%d": "5", "%d": "soon"}`, f.module.ID, second.ID)
	status, body := s.do(t, http.MethodPost, "/course/module/order/", s.token(t, f.owner), raw)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]interface{}{"saved": "OK"}, body)

	var orders []int
	require.NoError(t, s.db.Model(&model.Module{}).Order("id").Pluck("sort_order", &orders).Error)
	assert.Equal(t, []int{5, 1}, orders)
	assert.Contains(t, s.audit.String(), "skipped 1")
}
