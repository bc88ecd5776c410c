package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/techchallenge/usuarios-api/internal/api/handler"
	"github.com/techchallenge/usuarios-api/internal/core/domain"
	"github.com/techchallenge/usuarios-api/internal/core/service"
	"github.com/techchallenge/usuarios-api/internal/infrastructure/db/sqlite"
	"github.com/techchallenge/usuarios-api/internal/infrastructure/security"
)

const (
	testSecret    = "0123456789abcdef0123456789abcdef"
	adminPassword = "123456"
)

type testServer struct {
	e      *echo.Echo
	codec  *security.JWTCodec
	users  *sqlite.UserRepository
	hasher *security.BcryptHasher
}

func newTestServer(t *testing.T, storeRoles bool) *testServer {
	t.Helper()
	return newTestServerAt(t, sqlite.MemoryPath, storeRoles)
}

// newTestServerAt backs the router with the sqlite database at path. A file
// path gives the store a real connection pool.
func newTestServerAt(t *testing.T, path string, storeRoles bool) *testServer {
	t.Helper()
	ctx := context.Background()
	log := zerolog.Nop()

	repo, err := sqlite.Open(ctx, path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	codec, err := security.NewJWTCodec(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	if err := service.SeedAdministrators(ctx, repo, hasher, security.SHA256Hex, adminPassword, log); err != nil {
		t.Fatalf("seed: %v", err)
	}

	deps := Dependencies{
		Log:       log,
		Auth:      service.NewAuthService(repo, hasher, codec, log),
		Users:     service.NewUserService(repo, hasher, nil, log),
		Tokens:    codec,
		Readiness: map[string]handler.Checker{"sqlite": repo.Ping},
	}
	if storeRoles {
		deps.Roles = service.NewRoleResolver(repo, nil, log)
	}
	return &testServer{e: NewRouter(deps), codec: codec, users: repo, hasher: hasher}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/v1/api/auth/login", "", `{"email":"`+email+`","password":"`+password+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", email, rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp.Token
}

func (s *testServer) register(t *testing.T, name, email, password string) int64 {
	t.Helper()
	body := `{"nome":"` + name + `","email":"` + email + `","senha":"` + password + `","endereco":"Rua 1"}`
	rec := s.do(t, http.MethodPost, "/v1/api/usuarios/registrar", "", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("register %s: expected 200, got %d: %s", email, rec.Code, rec.Body.String())
	}
	var resp struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp.ID
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid error json %q: %v", rec.Body.String(), err)
	}
	if resp.Status != rec.Code {
		t.Fatalf("body status %d does not match response code %d", resp.Status, rec.Code)
	}
	return resp
}

func TestLogin_Success(t *testing.T) {
	s := newTestServer(t, false)

	token := s.login(t, "admin@tech.com", adminPassword)
	claims, err := s.codec.Parse(token, time.Now())
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.Subject != "admin@tech.com" || claims.Role != "ADMIN" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(t, http.MethodPost, "/v1/api/auth/login", "", `{"email":"admin@tech.com","password":"xxx"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Message != "Senha inválida" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(t, http.MethodPost, "/v1/api/auth/login", "", `{"email":"ghost@x.com","password":"xxx"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Message != "Usuário não encontrado" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestLogin_DigestSeededAccount(t *testing.T) {
	s := newTestServer(t, false)
	s.login(t, "admin2@tech.com", adminPassword)
}

func TestMe_ExpiredToken(t *testing.T) {
	s := newTestServer(t, false)

	token, err := s.codec.Issue("admin@tech.com", "ADMIN", time.Now().Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rec := s.do(t, http.MethodGet, "/v1/api/auth/me", token, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); !strings.HasPrefix(resp.Message, "Token expirado") {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestMe_ReturnsIdentity(t *testing.T) {
	s := newTestServer(t, false)
	id := s.register(t, "Ana", "ana@x.com", "s3nha")
	token := s.login(t, "ana@x.com", "s3nha")

	rec := s.do(t, http.MethodGet, "/v1/api/auth/me", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["email"] != "ana@x.com" || resp["role"] != "CLIENT" || resp["nome"] != "Ana" {
		t.Fatalf("unexpected identity %v", resp)
	}
	if resp["idUser"] != float64(id) {
		t.Fatalf("expected idUser %d, got %v", id, resp["idUser"])
	}
}

func TestOwnership_ClientCannotUpdateOtherUser(t *testing.T) {
	s := newTestServer(t, false)
	s.register(t, "U1", "u1@x.com", "p1")
	u2 := s.register(t, "U2", "u2@x.com", "p2")
	token := s.login(t, "u1@x.com", "p1")

	body := `{"nome":"Hacked","email":"u2@x.com","endereco":"Rua 2"}`
	rec := s.do(t, http.MethodPut, "/v1/api/usuarios/"+strconv.FormatInt(u2, 10), token, body)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	decodeError(t, rec)

	stored, err := s.users.FindByID(context.Background(), u2)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.Name != "U2" {
		t.Fatalf("target must be unchanged, got %q", stored.Name)
	}
}

func TestOwnership_Matrix(t *testing.T) {
	s := newTestServer(t, false)
	aID := s.register(t, "A", "a@x.com", "pa")
	s.register(t, "B", "b@x.com", "pb")
	aToken := s.login(t, "a@x.com", "pa")
	bToken := s.login(t, "b@x.com", "pb")
	adminToken := s.login(t, "admin@tech.com", adminPassword)

	path := "/v1/api/usuarios/" + strconv.FormatInt(aID, 10)
	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"owner", aToken, http.StatusOK},
		{"other client", bToken, http.StatusForbidden},
		{"admin", adminToken, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := s.do(t, http.MethodGet, path, tc.token, ""); rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestUpdateRole_NonAdminForbidden(t *testing.T) {
	s := newTestServer(t, false)
	id := s.register(t, "Ana", "ana@x.com", "s3nha")
	token := s.login(t, "ana@x.com", "s3nha")

	body := `{"idUser":"` + strconv.FormatInt(id, 10) + `","role":"ADMIN"}`
	rec := s.do(t, http.MethodPatch, "/v1/api/usuarios/role", token, body)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Message != "Acesso negado" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestUpdateRole_AdminPromotes(t *testing.T) {
	s := newTestServer(t, false)
	id := s.register(t, "Ana", "ana@x.com", "s3nha")
	adminToken := s.login(t, "admin@tech.com", adminPassword)

	body := `{"idUser":"` + strconv.FormatInt(id, 10) + `","role":"dono"}`
	rec := s.do(t, http.MethodPatch, "/v1/api/usuarios/role", adminToken, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPatch, "/v1/api/usuarios/role", adminToken, `{"idUser":"abc","role":"ADMIN"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id, got %d", rec.Code)
	}
	rec = s.do(t, http.MethodPatch, "/v1/api/usuarios/role", adminToken, `{"idUser":"9999","role":"ADMIN"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", rec.Code)
	}
	rec = s.do(t, http.MethodPatch, "/v1/api/usuarios/role", adminToken, `{"idUser":"`+strconv.FormatInt(id, 10)+`","role":"ROOT"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown role, got %d", rec.Code)
	}
}

func TestStoreRoleSource_SeesRoleChangeImmediately(t *testing.T) {
	s := newTestServer(t, true)
	id := s.register(t, "Ana", "ana@x.com", "s3nha")
	token := s.login(t, "ana@x.com", "s3nha")

	if rec := s.do(t, http.MethodGet, "/v1/api/usuarios/todos", token, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 before promotion, got %d", rec.Code)
	}

	adminToken := s.login(t, "admin@tech.com", adminPassword)
	body := `{"idUser":"` + strconv.FormatInt(id, 10) + `","role":"ADMIN"}`
	if rec := s.do(t, http.MethodPatch, "/v1/api/usuarios/role", adminToken, body); rec.Code != http.StatusOK {
		t.Fatalf("promote: expected 200, got %d", rec.Code)
	}

	if rec := s.do(t, http.MethodGet, "/v1/api/usuarios/todos", token, ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with the old token after promotion, got %d", rec.Code)
	}
}

func TestStoreRoleSource_DeletedUserRejected(t *testing.T) {
	s := newTestServer(t, true)
	id := s.register(t, "Ana", "ana@x.com", "s3nha")
	token := s.login(t, "ana@x.com", "s3nha")

	path := "/v1/api/usuarios/" + strconv.FormatInt(id, 10)
	if rec := s.do(t, http.MethodDelete, path, token, ""); rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, path, token, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a deleted subject, got %d", rec.Code)
	}
}

func TestPublicPaths(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(t, http.MethodPost, "/v1/api/auth/login", "", `{"email":"admin@tech.com","password":"`+adminPassword+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login without Authorization: expected 200, got %d", rec.Code)
	}
	rec = s.do(t, http.MethodPost, "/v1/api/usuarios/registrar", "", `{"nome":"Ana","email":"ana@x.com","senha":"s","endereco":"Rua"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("register without Authorization: expected 200, got %d", rec.Code)
	}

	protected := []struct{ method, path string }{
		{http.MethodGet, "/v1/api/auth/me"},
		{http.MethodGet, "/v1/api/usuarios/todos"},
		{http.MethodGet, "/v1/api/usuarios/buscar?nome=a"},
		{http.MethodGet, "/v1/api/usuarios/1"},
		{http.MethodPut, "/v1/api/usuarios/1"},
		{http.MethodDelete, "/v1/api/usuarios/1"},
		{http.MethodPatch, "/v1/api/usuarios/1/senha"},
		{http.MethodPatch, "/v1/api/usuarios/role"},
	}
	for _, p := range protected {
		rec := s.do(t, p.method, p.path, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", p.method, p.path, rec.Code)
		}
		if resp := decodeError(t, rec); !strings.HasPrefix(resp.Message, "Token ausente") {
			t.Fatalf("%s %s: unexpected message %q", p.method, p.path, resp.Message)
		}
	}
}

func TestRegister_DuplicateEmailCaseInsensitive(t *testing.T) {
	s := newTestServer(t, false)
	s.register(t, "Ana", "ana@x.com", "s")

	rec := s.do(t, http.MethodPost, "/v1/api/usuarios/registrar", "", `{"nome":"Ana 2","email":"ANA@x.com","senha":"s","endereco":"Rua"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Message != domain.ErrEmailInUse.Error() {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestRegister_ConcurrentSameEmail(t *testing.T) {
	s := newTestServerAt(t, filepath.Join(t.TempDir(), "usuarios.db"), false)

	const clients = 6
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		codes = make([]int, clients)
		msgs  = make([]string, clients)
	)
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			body := `{"nome":"Ana","email":"ana@x.com","senha":"s","endereco":"Rua"}`
			req := httptest.NewRequest(http.MethodPost, "/v1/api/usuarios/registrar", strings.NewReader(body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			s.e.ServeHTTP(rec, req)
			codes[i] = rec.Code
			var resp errorResponse
			_ = json.Unmarshal(rec.Body.Bytes(), &resp)
			msgs[i] = resp.Message
		}(i)
	}
	close(start)
	wg.Wait()

	created := 0
	for i, code := range codes {
		switch code {
		case http.StatusOK:
			created++
		case http.StatusBadRequest:
			if msgs[i] != domain.ErrEmailInUse.Error() {
				t.Fatalf("unexpected rejection message %q", msgs[i])
			}
		default:
			t.Fatalf("unexpected status %d (%s)", code, msgs[i])
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly one account, got %d", created)
	}

	all, err := s.users.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// two seeded administrators plus the one registration
	if len(all) != 3 {
		t.Fatalf("expected 3 users, got %d", len(all))
	}
}

func TestSearchAndPasswordChange(t *testing.T) {
	s := newTestServer(t, false)
	id := s.register(t, "Ana Souza", "ana@x.com", "old")
	s.register(t, "Bruno", "bruno@x.com", "p")
	token := s.login(t, "ana@x.com", "old")

	rec := s.do(t, http.MethodGet, "/v1/api/usuarios/buscar?nome=SOUZA", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("search: expected 200, got %d", rec.Code)
	}
	var found []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &found); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(found) != 1 || found[0]["email"] != "ana@x.com" {
		t.Fatalf("unexpected search result %v", found)
	}

	if rec := s.do(t, http.MethodGet, "/v1/api/usuarios/buscar?nome=", token, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("blank search: expected 400, got %d", rec.Code)
	}

	path := "/v1/api/usuarios/" + strconv.FormatInt(id, 10) + "/senha"
	if rec := s.do(t, http.MethodPatch, path, token, `{"senhaAtual":"wrong","novaSenha":"new"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("wrong current password: expected 400, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPatch, path, token, `{"senhaAtual":"old","novaSenha":"new"}`); rec.Code != http.StatusOK {
		t.Fatalf("password change: expected 200, got %d", rec.Code)
	}
	s.login(t, "ana@x.com", "new")
}

func TestOperationalRoutes(t *testing.T) {
	s := newTestServer(t, false)

	for _, path := range []string{"/health", "/health/ready", "/metrics", "/v3/api-docs"} {
		if rec := s.do(t, http.MethodGet, path, "", ""); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestPreflightAnsweredWith200(t *testing.T) {
	s := newTestServer(t, false)

	cases := []struct {
		name   string
		origin string
	}{
		{"cors preflight", "http://localhost:3000"},
		{"bare options", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/v1/api/usuarios/todos", nil)
			if tc.origin != "" {
				req.Header.Set(echo.HeaderOrigin, tc.origin)
				req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
			}
			rec := httptest.NewRecorder()
			s.e.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if tc.origin != "" && rec.Header().Get(echo.HeaderAccessControlAllowOrigin) == "" {
				t.Fatalf("missing CORS allow-origin header")
			}
		})
	}
}

func TestUnauthorizedResponseKeepsCORSHeaders(t *testing.T) {
	s := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/v1/api/usuarios/todos", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec.Header().Get(echo.HeaderAccessControlAllowOrigin) == "" {
		t.Fatalf("missing CORS allow-origin header on 401")
	}
}
