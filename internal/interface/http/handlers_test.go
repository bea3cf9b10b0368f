package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "github.com/oksasatya/mother-community/internal/application"
	"github.com/oksasatya/mother-community/internal/domain/directory"
	"github.com/oksasatya/mother-community/internal/domain/entity"
	repo "github.com/oksasatya/mother-community/internal/domain/repository"
	"github.com/oksasatya/mother-community/pkg/helpers"
	"github.com/oksasatya/mother-community/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Init()
}

// newRouter returns an engine that treats every request as coming from uid.
func newRouter(uid string) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if uid != "" {
			c.Set("userID", uid)
		}
		c.Next()
	})
	return r
}

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
	Error   map[string]any  `json:"error"`
}

func do(t *testing.T, r http.Handler, method, path string, body io.Reader, contentType string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func jsonBody(v any) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

// ---- fakes ----

type fakeAuth struct {
	registered []app.RegisterInput
	registerFn func(in app.RegisterInput) (*entity.User, error)
	loginErr   error
	loggedOut  []string
}

func (f *fakeAuth) Register(_ context.Context, in app.RegisterInput) (*entity.User, error) {
	f.registered = append(f.registered, in)
	if f.registerFn != nil {
		return f.registerFn(in)
	}
	return &entity.User{ID: "u-1", Email: in.Email}, nil
}

func (f *fakeAuth) Login(_ context.Context, email, _ string) (*app.LoginResult, app.TokenPair, error) {
	if f.loginErr != nil {
		return nil, app.TokenPair{}, f.loginErr
	}
	exp := time.Now().Add(time.Hour)
	return &app.LoginResult{UserID: "u-1", Email: email, ProfileComplete: false, Next: app.PathDashboard},
		app.TokenPair{AccessToken: "acc", AccessTokenExpiry: exp, RefreshToken: "ref", RefreshTokenExpiry: exp}, nil
}

func (f *fakeAuth) Refresh(_ context.Context, token string) (app.TokenPair, string, error) {
	if token != "ref" {
		return app.TokenPair{}, "", errors.New("bad token")
	}
	exp := time.Now().Add(time.Hour)
	return app.TokenPair{AccessToken: "acc2", AccessTokenExpiry: exp, RefreshToken: "ref2", RefreshTokenExpiry: exp}, "u-1", nil
}

func (f *fakeAuth) Logout(_ context.Context, uid string) error {
	f.loggedOut = append(f.loggedOut, uid)
	return nil
}

func (f *fakeAuth) GetUser(_ context.Context, uid string) (*entity.User, error) {
	if uid == "" {
		return nil, app.ErrUserNotFound
	}
	return &entity.User{ID: uid, Email: uid + "@example.com"}, nil
}

func (f *fakeAuth) ChangePassword(_ context.Context, _, pw, confirm string) error {
	if pw != confirm {
		return app.ErrPasswordMismatch
	}
	return nil
}

type fakeProfileSvc struct {
	profiles map[string]*entity.Profile
	updated  *app.UpdateProfileInput
	uploaded string
}

func (f *fakeProfileSvc) Own(_ context.Context, uid string) (*entity.Profile, error) {
	if p, ok := f.profiles[uid]; ok {
		return p, nil
	}
	return &entity.Profile{ID: uid}, nil
}

func (f *fakeProfileSvc) Get(_ context.Context, id string) (*entity.Profile, error) {
	if p, ok := f.profiles[id]; ok {
		return p, nil
	}
	return nil, app.ErrProfileNotFound
}

func (f *fakeProfileSvc) Update(_ context.Context, uid string, in app.UpdateProfileInput) (*entity.Profile, error) {
	f.updated = &in
	p := &entity.Profile{ID: uid, Email: "me@example.com", FullName: entity.StrPtr(in.FullName), Birthdate: in.Birthdate, City: entity.StrPtr(in.City), Children: in.Children}
	return p, nil
}

func (f *fakeProfileSvc) UploadAvatar(_ context.Context, uid string, r io.Reader, name, _ string) (string, error) {
	b, _ := io.ReadAll(r)
	f.uploaded = string(b)
	return "https://cdn.test/avatars/" + uid + "/" + name, nil
}

type fakeDirectory struct {
	got      directory.Criteria
	profiles []entity.Profile
}

func (f *fakeDirectory) List(_ context.Context, _ string, c directory.Criteria) ([]entity.Profile, error) {
	f.got = c
	return f.profiles, nil
}

func (f *fakeDirectory) Search(_ context.Context, q string, _ int) ([]repo.ProfileHit, error) {
	return []repo.ProfileHit{{ID: "p-1", FullName: q}}, nil
}

type fakeDeleter struct {
	err   error
	calls [][2]string
}

func (f *fakeDeleter) DeleteAs(_ context.Context, requester, member string) error {
	f.calls = append(f.calls, [2]string{requester, member})
	return f.err
}

type fakeEventSvc struct {
	created *app.CreateEventInput
	image   string
	err     error
}

func (f *fakeEventSvc) ListUpcoming(context.Context) ([]entity.Event, error) {
	return []entity.Event{{ID: "e-1", Title: "Krabbelgruppe", Date: time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC)}}, nil
}

func (f *fakeEventSvc) Create(_ context.Context, creator string, in app.CreateEventInput) (*entity.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = &in
	if in.Image != nil {
		b, _ := io.ReadAll(in.Image)
		f.image = string(b)
	}
	return &entity.Event{ID: "e-2", CreatorID: creator, Title: in.Title, Date: in.Date, IsFree: in.IsFree}, nil
}

// ---- tests ----

func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{app.ErrInvalidCredentials, http.StatusUnauthorized},
		{app.ErrForbidden, http.StatusForbidden},
		{app.ErrProfileNotFound, http.StatusNotFound},
		{app.ErrEmailTaken, http.StatusConflict},
		{app.ErrEmptyMessage, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		writeError(c, nil, "failed", tc.err)
		assert.Equal(t, tc.want, w.Code, tc.err.Error())
	}
}

func TestWriteError_DeletionErrorCarriesStep(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	writeError(c, nil, "account deletion failed", &app.DeletionError{Step: app.StepProfile, Err: errors.New("db down")})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, float64(2), env.Error["step"])
	assert.Equal(t, "profile", env.Error["step_name"])
}

func TestAuthHandler_RegisterValidation(t *testing.T) {
	svc := &fakeAuth{}
	h := NewAuthHandler(svc, nil, "localhost", false)
	r := newRouter("")
	r.POST("/register", h.Register)

	w, env := do(t, r, http.MethodPost, "/register", jsonBody(map[string]string{"email": "not-an-email", "password": "secret123", "confirm_password": "secret123"}), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error, "email")
	assert.Empty(t, svc.registered)

	svc.registerFn = func(app.RegisterInput) (*entity.User, error) { return nil, app.ErrPasswordMismatch }
	w, _ = do(t, r, http.MethodPost, "/register", jsonBody(map[string]string{"email": "a@example.com", "password": "secret123", "confirm_password": "other"}), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_LoginSetsCookies(t *testing.T) {
	h := NewAuthHandler(&fakeAuth{}, nil, "localhost", false)
	r := newRouter("")
	r.POST("/login", h.Login)

	w, env := do(t, r, http.MethodPost, "/login", jsonBody(map[string]string{"email": "a@example.com", "password": "secret123"}), "application/json")
	require.Equal(t, http.StatusOK, w.Code)

	cookies := map[string]string{}
	for _, ck := range w.Result().Cookies() {
		cookies[ck.Name] = ck.Value
	}
	assert.Equal(t, "acc", cookies[helpers.AccessCookie])
	assert.Equal(t, "ref", cookies[helpers.RefreshCookie])

	var res app.LoginResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, app.PathDashboard, res.Next)
}

func TestAuthHandler_LoginWrongPassword(t *testing.T) {
	h := NewAuthHandler(&fakeAuth{loginErr: app.ErrInvalidCredentials}, nil, "localhost", false)
	r := newRouter("")
	r.POST("/login", h.Login)

	w, _ := do(t, r, http.MethodPost, "/login", jsonBody(map[string]string{"email": "a@example.com", "password": "wrong"}), "application/json")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestAuthHandler_Refresh(t *testing.T) {
	h := NewAuthHandler(&fakeAuth{}, nil, "localhost", false)
	r := newRouter("")
	r.POST("/refresh", h.Refresh)

	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	req.AddCookie(&http.Cookie{Name: helpers.RefreshCookie, Value: "ref"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/refresh", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_LogoutClearsCookies(t *testing.T) {
	svc := &fakeAuth{}
	h := NewAuthHandler(svc, nil, "localhost", false)
	r := newRouter("u-1")
	r.POST("/logout", h.Logout)

	w, _ := do(t, r, http.MethodPost, "/logout", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"u-1"}, svc.loggedOut)
	for _, ck := range w.Result().Cookies() {
		assert.Empty(t, ck.Value)
		assert.Less(t, ck.MaxAge, 0)
	}
}

func TestProfileHandler_UpdateParsesChildren(t *testing.T) {
	svc := &fakeProfileSvc{}
	h := NewProfileHandler(svc, nil)
	h.Now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	r := newRouter("u-1")
	r.PUT("/profile", h.Update)

	w, env := do(t, r, http.MethodPut, "/profile", jsonBody(map[string]any{
		"full_name": "Anna Schmidt",
		"birthdate": "1990-07-15",
		"city":      "Berlin",
		"children":  []map[string]any{{"age": 3, "gender": "mädchen"}, {"age": 5, "gender": "male"}},
	}), "application/json")
	require.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, svc.updated)
	require.Len(t, svc.updated.Children, 2)
	assert.Equal(t, entity.GenderFemale, svc.updated.Children[0].Gender)
	assert.Equal(t, entity.GenderMale, svc.updated.Children[1].Gender)

	var dto profileDTO
	require.NoError(t, json.Unmarshal(env.Data, &dto))
	assert.True(t, dto.Complete)
	require.NotNil(t, dto.Age)
	assert.Equal(t, 33, *dto.Age)
	assert.Equal(t, "me@example.com", dto.Email)
	assert.Equal(t, app.PathMain, env.Meta["next"])
}

func TestProfileHandler_UpdateRejectsBadInput(t *testing.T) {
	svc := &fakeProfileSvc{}
	h := NewProfileHandler(svc, nil)
	r := newRouter("u-1")
	r.PUT("/profile", h.Update)

	w, env := do(t, r, http.MethodPut, "/profile", jsonBody(map[string]any{
		"birthdate": "15.07.1990",
		"children":  []map[string]any{{"age": 3, "gender": "robot"}},
	}), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error, "birthdate")
	assert.Nil(t, svc.updated)
}

func TestProfileHandler_GetHidesEmailOfOthers(t *testing.T) {
	svc := &fakeProfileSvc{profiles: map[string]*entity.Profile{
		"p-2": {ID: "p-2", Email: "other@example.com", FullName: entity.StrPtr("Berta")},
	}}
	h := NewProfileHandler(svc, nil)
	r := newRouter("u-1")
	r.GET("/profiles/:id", h.Get)

	w, env := do(t, r, http.MethodGet, "/profiles/p-2", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, string(env.Data), "other@example.com")

	w, _ = do(t, r, http.MethodGet, "/profiles/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfileHandler_UploadAvatar(t *testing.T) {
	svc := &fakeProfileSvc{}
	h := NewProfileHandler(svc, nil)
	r := newRouter("u-1")
	r.POST("/avatar", h.UploadAvatar)

	body, ct := multipartFile(t, "file", "me.png", "image/png", "PNGDATA", nil)
	w, env := do(t, r, http.MethodPost, "/avatar", body, ct)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PNGDATA", svc.uploaded)
	assert.Contains(t, string(env.Data), "avatars/u-1/me.png")

	body, ct = multipartFile(t, "file", "notes.txt", "text/plain", "hello", nil)
	w, _ = do(t, r, http.MethodPost, "/avatar", body, ct)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestParseCriteria(t *testing.T) {
	parse := func(q string) (directory.Criteria, map[string]string) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/profiles?"+q, nil)
		return parseCriteria(c)
	}

	crit, details := parse("")
	assert.Empty(t, details)
	assert.True(t, crit.IsEmpty())

	crit, details = parse("name=anna&city=&gender=junge&min_child_age=2&max_child_age=&max_distance=12.5&sort=distance")
	require.Empty(t, details)
	require.NotNil(t, crit.Name)
	assert.Equal(t, "anna", *crit.Name)
	assert.Nil(t, crit.City)
	require.NotNil(t, crit.ChildGender)
	assert.Equal(t, entity.GenderMale, *crit.ChildGender)
	require.NotNil(t, crit.MinChildAge)
	assert.Equal(t, 2, *crit.MinChildAge)
	assert.Nil(t, crit.MaxChildAge)
	require.NotNil(t, crit.MaxDistanceKm)
	assert.Equal(t, 12.5, *crit.MaxDistanceKm)
	assert.True(t, crit.SortByDistance)

	for _, bad := range []string{"NaN", "Inf", "-Inf", "+Inf", "1e400"} {
		crit, details = parse("max_distance=" + url.QueryEscape(bad))
		assert.Contains(t, details, "max_distance", bad)
		assert.Nil(t, crit.MaxDistanceKm, bad)
	}

	_, details = parse("min_mother_age=abc&max_distance=-1&sort=name&gender=x")
	assert.Contains(t, details, "min_mother_age")
	assert.Contains(t, details, "max_distance")
	assert.Contains(t, details, "sort")
	assert.Contains(t, details, "gender")
}

func TestDirectoryHandler_ListAddsDistance(t *testing.T) {
	lat, lon := 52.52, 13.405
	hLat, hLon := 53.5511, 9.9937
	dir := &fakeDirectory{profiles: []entity.Profile{
		{ID: "p-2", Email: "hamburg@example.com", Latitude: &hLat, Longitude: &hLon},
		{ID: "p-3"},
	}}
	prof := &fakeProfileSvc{profiles: map[string]*entity.Profile{"u-1": {ID: "u-1", Latitude: &lat, Longitude: &lon}}}
	h := NewDirectoryHandler(dir, prof, nil)
	r := newRouter("u-1")
	r.GET("/profiles", h.List)

	w, env := do(t, r, http.MethodGet, "/profiles?max_distance=500", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, dir.got.MaxDistanceKm)

	var out []profileDTO
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.Len(t, out, 2)
	require.NotNil(t, out[0].DistanceKm)
	assert.InDelta(t, 255, *out[0].DistanceKm, 5)
	assert.Empty(t, out[0].Email)
	assert.Nil(t, out[1].DistanceKm)

	w, _ = do(t, r, http.MethodGet, "/profiles?max_child_age=zwei", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDirectoryHandler_Search(t *testing.T) {
	h := NewDirectoryHandler(&fakeDirectory{}, &fakeProfileSvc{}, nil)
	r := newRouter("u-1")
	r.GET("/search", h.Search)

	w, env := do(t, r, http.MethodGet, "/search?q=anna", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "anna")

	w, _ = do(t, r, http.MethodGet, "/search?q=+", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccountHandler_DeleteOwn(t *testing.T) {
	del := &fakeDeleter{}
	h := NewAccountHandler(del, nil, "localhost", false)
	r := newRouter("u-1")
	r.DELETE("/account", h.DeleteOwn)

	w, _ := do(t, r, http.MethodDelete, "/account", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, [][2]string{{"u-1", "u-1"}}, del.calls)
	assert.NotEmpty(t, w.Result().Cookies())
}

func TestAccountHandler_PartialFailureReportsStep(t *testing.T) {
	del := &fakeDeleter{err: &app.DeletionError{Step: app.StepAuthAccount, Err: errors.New("auth down")}}
	h := NewAccountHandler(del, nil, "localhost", false)
	r := newRouter("u-1")
	r.DELETE("/account", h.DeleteOwn)

	w, env := do(t, r, http.MethodDelete, "/account", nil, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, float64(3), env.Error["step"])
	assert.Empty(t, w.Result().Cookies())
}

func TestAccountHandler_DeleteMemberForbidden(t *testing.T) {
	h := NewAccountHandler(&fakeDeleter{err: app.ErrForbidden}, nil, "localhost", false)
	r := newRouter("u-1")
	r.DELETE("/admin/accounts/:id", h.DeleteMember)

	w, _ := do(t, r, http.MethodDelete, "/admin/accounts/u-2", nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAccountHandler_DeleteMemberUnknown(t *testing.T) {
	h := NewAccountHandler(&fakeDeleter{err: app.ErrUserNotFound}, nil, "localhost", false)
	r := newRouter("admin")
	r.DELETE("/admin/accounts/:id", h.DeleteMember)

	w, _ := do(t, r, http.MethodDelete, "/admin/accounts/ghost", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEventHandler_List(t *testing.T) {
	h := NewEventHandler(&fakeEventSvc{}, nil)
	r := newRouter("")
	r.GET("/events", h.List)

	w, env := do(t, r, http.MethodGet, "/events", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var out []eventDTO
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.Len(t, out, 1)
	assert.Equal(t, "2030-05-01", out[0].Date)
}

func TestEventHandler_CreateWithImage(t *testing.T) {
	svc := &fakeEventSvc{}
	h := NewEventHandler(svc, nil)
	r := newRouter("u-1")
	r.POST("/events", h.Create)

	fields := map[string]string{
		"title":       "Spielplatztreffen",
		"description": "Gemeinsam in den Park",
		"location":    "Volkspark",
		"date":        "2030-06-01",
		"time":        "15:30",
		"is_free":     "true",
	}
	body, ct := multipartFile(t, "image", "park.jpg", "image/jpeg", "JPEG", fields)
	w, _ := do(t, r, http.MethodPost, "/events", body, ct)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.created)
	assert.True(t, svc.created.IsFree)
	assert.Equal(t, "15:30", svc.created.Time)
	assert.Equal(t, "JPEG", svc.image)
}

func TestEventHandler_CreateValidation(t *testing.T) {
	svc := &fakeEventSvc{}
	h := NewEventHandler(svc, nil)
	r := newRouter("u-1")
	r.POST("/events", h.Create)

	body, ct := multipartFile(t, "", "", "", "", map[string]string{"title": "x", "date": "01.06.2030"})
	w, env := do(t, r, http.MethodPost, "/events", body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error, "date")
	assert.Nil(t, svc.created)
}

func TestEventHandler_FailedUploadAborts(t *testing.T) {
	svc := &fakeEventSvc{err: errors.New("upload event image: bucket gone")}
	h := NewEventHandler(svc, nil)
	r := newRouter("u-1")
	r.POST("/events", h.Create)

	fields := map[string]string{"title": "a", "description": "b", "location": "c", "date": "2030-06-01"}
	body, ct := multipartFile(t, "image", "a.png", "image/png", "PNG", fields)
	w, _ := do(t, r, http.MethodPost, "/events", body, ct)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// multipartFile builds a multipart body with optional form fields and an
// optional file part (skipped when field is empty).
func multipartFile(t *testing.T, field, filename, contentType, content string, fields map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if field != "" {
		hdr := make(map[string][]string)
		hdr["Content-Disposition"] = []string{`form-data; name="` + field + `"; filename="` + filename + `"`}
		hdr["Content-Type"] = []string{contentType}
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = io.Copy(part, strings.NewReader(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}
