package pathwise_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pathwise "github.com/pathwise-edu/pathwise"
)

type fakeUploader struct {
	lastFilename string
	uploads      int
}

func (u *fakeUploader) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	if _, err := pathwise.ValidateImagePayload(data); err != nil {
		return "", err
	}
	u.lastFilename = filename
	u.uploads++
	return "https://cdn.example.com/uploads/" + filename, nil
}

type testEnv struct {
	app      *fiber.App
	store    *memoryUserStore
	repo     *fakeRepoManager
	subjects *fakeSubjectStore
	uploader *fakeUploader
}

func newTestEnv(t *testing.T, users ...*pathwise.User) *testEnv {
	t.Helper()

	store := newMemoryUserStore(users...)
	repo := newFakeRepoManager(store)
	subjects := newFakeSubjectStore()
	uploader := &fakeUploader{}

	auther := newTestAuthenticator(store)

	controller := pathwise.NewAPIController(
		pathwise.WithRepository(repo),
		pathwise.WithAuthenticator(auther),
		pathwise.WithConfig(newTestConfig()),
		pathwise.WithGDPRService(pathwise.NewGDPRService(subjects)),
		pathwise.WithUploader(uploader),
		pathwise.WithControllerLogger(newQuietLogger()),
	)

	app := fiber.New()
	controller.RegisterRoutes(app)

	return &testEnv{
		app:      app,
		store:    store,
		repo:     repo,
		subjects: subjects,
		uploader: uploader,
	}
}

func (e *testEnv) postJSON(t *testing.T, path, body string, headers ...map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, h := range headers {
		for k, v := range h {
			req.Header.Set(k, v)
		}
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) get(t *testing.T, path string, headers ...map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, h := range headers {
		for k, v := range h {
			req.Header.Set(k, v)
		}
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func (e *testEnv) loginToken(t *testing.T, email, password string) string {
	t.Helper()

	resp := e.postJSON(t, "/login", `{"email":"`+email+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &body)
	require.NotEmpty(t, body.Token)
	return body.Token
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestLoginEndpointSuccess(t *testing.T) {
	user := newActiveUser("student@example.com", "correct-horse-battery", pathwise.RoleStudent)
	env := newTestEnv(t, user)

	resp := env.postJSON(t, "/login", `{"email":"student@example.com","password":"correct-horse-battery"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
		User    struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	decodeBody(t, resp, &body)

	assert.True(t, body.Success)
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, user.ID.String(), body.User.ID)
	assert.Equal(t, "student@example.com", body.User.Email)
	assert.Equal(t, "student", body.User.Role)
}

func TestLoginEndpointRejectsMissingFields(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []string{
		`{}`,
		`{"email":"student@example.com"}`,
		`{"password":"correct-horse-battery"}`,
		`{"email":"not-an-email","password":"x"}`,
	} {
		resp := env.postJSON(t, "/login", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestLoginEndpointWrongCredentialsIs401(t *testing.T) {
	user := newActiveUser("student@example.com", "correct-horse-battery", pathwise.RoleStudent)
	env := newTestEnv(t, user)

	wrongPassword := env.postJSON(t, "/login", `{"email":"student@example.com","password":"nope-nope-nope"}`)
	unknownEmail := env.postJSON(t, "/login", `{"email":"nobody@example.com","password":"nope-nope-nope"}`)

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.StatusCode)

	// Identical bodies: the response must not reveal which field was wrong.
	first, _ := io.ReadAll(wrongPassword.Body)
	second, _ := io.ReadAll(unknownEmail.Body)
	assert.Equal(t, string(first), string(second))
}

func TestRegisterEndpointCreatesStudent(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postJSON(t, "/register", `{
		"first_name": "Ada",
		"last_name": "Lovelace",
		"email": "ada@example.com",
		"password": "very-secure-password",
		"confirm_password": "very-secure-password",
		"target_degree": "MSc"
	}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
		User    struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	decodeBody(t, resp, &body)

	assert.True(t, body.Success)
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, "student", body.User.Role)
	assert.Len(t, env.store.createdProfiles, 1)
}

func TestRegisterEndpointDuplicateEmailLooksLikeValidationFailure(t *testing.T) {
	existing := newActiveUser("taken@example.com", "some-password-here", pathwise.RoleStudent)
	env := newTestEnv(t, existing)

	payload := `{
		"first_name": "Eve",
		"last_name": "Mallory",
		"email": "taken@example.com",
		"password": "another-password-1",
		"confirm_password": "another-password-1"
	}`

	resp := env.postJSON(t, "/register", payload)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	decodeBody(t, resp, &body)

	assert.False(t, body.Success)
	// Generic body: no mention of the email being taken, no conflict code.
	assert.NotContains(t, strings.ToLower(body.Error.Message), "email")
	assert.NotContains(t, strings.ToLower(body.Error.Message), "taken")
	assert.Empty(t, body.Error.Code)
}

func TestRegisterEndpointPasswordMismatch(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postJSON(t, "/register", `{
		"first_name": "Ada",
		"last_name": "Lovelace",
		"email": "ada@example.com",
		"password": "very-secure-password",
		"confirm_password": "different-password-1"
	}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMeEndpointRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/me")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMeEndpointReturnsIdentity(t *testing.T) {
	user := newActiveUser("student@example.com", "correct-horse-battery", pathwise.RoleStudent)
	env := newTestEnv(t, user)

	token := env.loginToken(t, "student@example.com", "correct-horse-battery")

	resp := env.get(t, "/me", bearer(token))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool `json:"success"`
		User    struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, user.ID.String(), body.User.ID)
	assert.Equal(t, "student@example.com", body.User.Email)
}

func TestMeEndpointRejectsTamperedToken(t *testing.T) {
	user := newActiveUser("student@example.com", "correct-horse-battery", pathwise.RoleStudent)
	env := newTestEnv(t, user)

	token := env.loginToken(t, "student@example.com", "correct-horse-battery")
	tampered := token[:len(token)-3] + "abc"

	resp := env.get(t, "/me", bearer(tampered))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUniversitiesEndpointListsActiveSorted(t *testing.T) {
	env := newTestEnv(t)
	env.repo.universities.active = []*pathwise.University{
		{ID: uuid.New(), Name: "Aalto University", Active: true},
		{ID: uuid.New(), Name: "MIT", Active: true},
	}

	resp := env.get(t, "/universities")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	decodeBody(t, resp, &body)

	require.Len(t, body, 2)
	assert.Equal(t, "Aalto University", body[0].Name)
	assert.Equal(t, "MIT", body[1].Name)
	assert.NotEmpty(t, body[0].ID)
}

func TestAdminUniversitiesRequiresAdminRole(t *testing.T) {
	student := newActiveUser("student@example.com", "correct-horse-battery", pathwise.RoleStudent)
	admin := newActiveUser("admin@example.com", "correct-horse-battery", pathwise.RoleAdmin)
	env := newTestEnv(t, student, admin)
	env.repo.universities.active = []*pathwise.University{
		{ID: uuid.New(), Name: "MIT", Active: true},
	}

	// No token at all.
	resp := env.get(t, "/admin/universities")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Valid session, wrong role.
	studentToken := env.loginToken(t, "student@example.com", "correct-horse-battery")
	resp = env.get(t, "/admin/universities", bearer(studentToken))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Admin gets through.
	adminToken := env.loginToken(t, "admin@example.com", "correct-horse-battery")
	resp = env.get(t, "/admin/universities", bearer(adminToken))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body []struct {
		Name string `json:"name"`
	}
	decodeBody(t, resp, &body)
	require.Len(t, body, 1)
	assert.Equal(t, "MIT", body[0].Name)
}

func TestGDPRExportEndpoint(t *testing.T) {
	env := newTestEnv(t)
	seedSubject(env.subjects, "student@example.com")

	resp := env.postJSON(t, "/gdpr/export", `{"email":"student@example.com"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Email      string           `json:"email"`
			Account    *json.RawMessage `json:"account"`
			Applicants []any            `json:"applicants"`
		} `json:"data"`
	}
	decodeBody(t, resp, &body)

	assert.True(t, body.Success)
	assert.Equal(t, "student@example.com", body.Data.Email)
	assert.NotNil(t, body.Data.Account)
	assert.Len(t, body.Data.Applicants, 1)
}

func TestGDPRDeleteEndpointWrongConfirmation(t *testing.T) {
	env := newTestEnv(t)
	seedSubject(env.subjects, "student@example.com")

	resp := env.postJSON(t, "/gdpr/delete", `{"email":"student@example.com","confirmation":"delete"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, env.subjects.eraseCalls)
}

func TestGDPRDeleteEndpointSuccess(t *testing.T) {
	env := newTestEnv(t)
	seedSubject(env.subjects, "student@example.com")

	resp := env.postJSON(t, "/gdpr/delete", `{"email":"student@example.com","confirmation":"DELETE"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	decodeBody(t, resp, &body)
	assert.True(t, body.Success)
	assert.Equal(t, 1, env.subjects.eraseCalls)
}

func TestInquiryEndpointRecordsApplicantAndConsent(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postJSON(t, "/inquiries", `{
		"name": "Curious Visitor",
		"email": "visitor@example.com",
		"message": "How do I apply?",
		"consent_purpose": "contact",
		"consent_granted": true
	}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.Len(t, env.repo.applicants.created, 1)
	assert.Equal(t, "visitor@example.com", env.repo.applicants.created[0].Email)
	assert.Equal(t, "Curious Visitor", env.repo.applicants.created[0].FullName)

	require.Len(t, env.repo.consents.created, 1)
	assert.Equal(t, "contact", env.repo.consents.created[0].Purpose)
	assert.True(t, env.repo.consents.created[0].Granted)
}

func multipartUpload(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return buf, writer.FormDataContentType()
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestAdminUploadAcceptsImage(t *testing.T) {
	admin := newActiveUser("admin@example.com", "correct-horse-battery", pathwise.RoleAdmin)
	env := newTestEnv(t, admin)
	token := env.loginToken(t, "admin@example.com", "correct-horse-battery")

	buf, contentType := multipartUpload(t, "file", "logo.png", pngHeader)

	req := httptest.NewRequest(http.MethodPost, "/admin/upload", buf)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool   `json:"success"`
		URL     string `json:"url"`
	}
	decodeBody(t, resp, &body)
	assert.True(t, body.Success)
	assert.Contains(t, body.URL, "logo.png")
	assert.Equal(t, 1, env.uploader.uploads)
}

func TestAdminUploadRejectsNonImage(t *testing.T) {
	admin := newActiveUser("admin@example.com", "correct-horse-battery", pathwise.RoleAdmin)
	env := newTestEnv(t, admin)
	token := env.loginToken(t, "admin@example.com", "correct-horse-battery")

	buf, contentType := multipartUpload(t, "file", "notes.txt", []byte("plain text, not an image"))

	req := httptest.NewRequest(http.MethodPost, "/admin/upload", buf)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, env.uploader.uploads)
}

func TestAdminUploadRequiresFile(t *testing.T) {
	admin := newActiveUser("admin@example.com", "correct-horse-battery", pathwise.RoleAdmin)
	env := newTestEnv(t, admin)
	token := env.loginToken(t, "admin@example.com", "correct-horse-battery")

	resp := env.postJSON(t, "/admin/upload", `{}`, bearer(token))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminUploadBlockedForStudents(t *testing.T) {
	student := newActiveUser("student@example.com", "correct-horse-battery", pathwise.RoleStudent)
	env := newTestEnv(t, student)
	token := env.loginToken(t, "student@example.com", "correct-horse-battery")

	buf, contentType := multipartUpload(t, "file", "logo.png", pngHeader)

	req := httptest.NewRequest(http.MethodPost, "/admin/upload", buf)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
