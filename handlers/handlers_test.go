package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"saadSocialAPI/internal/account"
	"saadSocialAPI/internal/ai"
	"saadSocialAPI/internal/auth"
	"saadSocialAPI/internal/store/memory"
	"saadSocialAPI/middleware"
	"saadSocialAPI/services"
)

type testAPI struct {
	router  *mux.Router
	svc     *services.DataService
	backend *memory.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	backend := memory.New()
	t.Cleanup(func() { backend.Close() })
	provider := auth.NewLocal("handler-secret", time.Hour).WithCost(bcrypt.MinCost)
	svc := services.NewDataService(backend, provider)
	advisor := ai.NewAdvisor(nil, "", "")

	authHandler := NewAuthHandler(svc)
	userHandler := NewUserHandler(svc)
	feedHandler := NewFeedHandler(svc, advisor)
	messageHandler := NewMessageHandler(svc, advisor)
	assistantHandler := NewAssistantHandler(svc, advisor)

	r := mux.NewRouter()
	r.HandleFunc("/health", NewHealthHandler(backend).Health).Methods("GET")

	public := r.PathPrefix("/api/v1").Subrouter()
	public.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	public.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	public.HandleFunc("/locale/{lang}", GetLocale).Methods("GET")

	protected := r.PathPrefix("/api/v1").Subrouter()
	protected.Use(middleware.AuthMiddleware(svc))
	protected.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST")
	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/profile", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user/search", userHandler.SearchUsers).Methods("GET")
	protected.HandleFunc("/user/friend-requests", userHandler.SendFriendRequest).Methods("POST")
	protected.HandleFunc("/user/friend-requests/{id}/accept", userHandler.AcceptFriendRequest).Methods("POST")
	protected.HandleFunc("/posts", feedHandler.CreatePost).Methods("POST")
	protected.HandleFunc("/posts/{id}/reactions", feedHandler.AddReaction).Methods("POST")
	protected.HandleFunc("/posts/{id}/comments", feedHandler.AddComment).Methods("POST")
	protected.HandleFunc("/messages", messageHandler.SendMessage).Methods("POST")
	protected.HandleFunc("/messages/{peer}/read", messageHandler.MarkRead).Methods("POST")
	protected.HandleFunc("/messages/{peer}/suggestions", messageHandler.Suggestions).Methods("GET")
	protected.HandleFunc("/assistant/greeting", assistantHandler.Greeting).Methods("GET")

	return &testAPI{router: r, svc: svc, backend: backend}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) register(t *testing.T, name, email, phone string) account.LoginResponse {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/auth/register", "", account.RegisterRequest{
		Name: name, Email: email, Phone: phone, Password: "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp account.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRegisterLoginAndProfile(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register(t, "Alice", "a@x.com", "+1000")
	assert.NotEmpty(t, alice.Token)
	assert.Equal(t, "Alice", alice.Account.Name)

	rec := api.do(t, http.MethodPost, "/api/v1/auth/login", "", account.LoginRequest{Email: "a@x.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[account.LoginResponse](t, rec)
	assert.Equal(t, alice.Account.ID, login.Account.ID)

	rec = api.do(t, http.MethodGet, "/api/v1/user", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@x.com", decode[account.Account](t, rec).Email)

	bio := "Coffee first"
	rec = api.do(t, http.MethodPut, "/api/v1/user/profile", login.Token, account.ProfileUpdate{Bio: &bio})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, bio, decode[account.Account](t, rec).Bio)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/api/v1/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/user", "forged", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register(t, "Alice", "a@x.com", "+1000")

	rec := api.do(t, http.MethodPost, "/api/v1/auth/logout", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/user", alice.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDuplicatePhoneIsLocalized(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "Alice", "a@x.com", "+1000")
	body := account.RegisterRequest{Name: "Bob", Email: "b@x.com", Phone: "+1000", Password: "secret2"}

	rec := api.do(t, http.MethodPost, "/api/v1/auth/register", "", body)
	require.Equal(t, http.StatusConflict, rec.Code)
	en := decode[map[string]string](t, rec)
	assert.Equal(t, "Phone number already registered.", en["error"])
	assert.Equal(t, "error_duplicate_phone", en["key"])
	assert.Equal(t, "DuplicatePhone", en["kind"])

	rec = api.do(t, http.MethodPost, "/api/v1/auth/register?lang=ar", "", body)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "رقم الهاتف مسجل مسبقاً.", decode[map[string]string](t, rec)["error"])
}

func TestInvalidBody(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchAndFriendRequestFlow(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register(t, "Alice", "a@x.com", "+1000")
	bob := api.register(t, "Bob", "b@x.com", "+2000")

	rec := api.do(t, http.MethodGet, "/api/v1/user/search?q=", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	everyone := decode[[]account.SearchResult](t, rec)
	require.Len(t, everyone, 1, "an empty term lists everyone but the caller")
	assert.Equal(t, bob.Account.ID, everyone[0].Account.ID)
	assert.Equal(t, "Connect", everyone[0].Label)

	rec = api.do(t, http.MethodGet, "/api/v1/user/search?q=bo", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	results := decode[[]account.SearchResult](t, rec)
	require.Len(t, results, 1)
	assert.Equal(t, "Connect", results[0].Label)

	rec = api.do(t, http.MethodPost, "/api/v1/user/friend-requests", alice.Token, account.FriendRequestBody{TargetID: bob.Account.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodPost, "/api/v1/user/friend-requests", alice.Token, account.FriendRequestBody{TargetID: bob.Account.ID})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/user/search?q=bo", alice.Token, nil)
	assert.Equal(t, "Sent", decode[[]account.SearchResult](t, rec)[0].Label)

	rec = api.do(t, http.MethodPost, "/api/v1/user/friend-requests/"+alice.Account.ID+"/accept", bob.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/api/v1/user", alice.Token, nil)
	assert.Contains(t, decode[account.Account](t, rec).Friends, bob.Account.ID)
}

func TestPostsReactionsAndComments(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register(t, "Alice", "a@x.com", "+1000")

	rec := api.do(t, http.MethodPost, "/api/v1/posts", alice.Token, map[string]string{"text": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/posts", alice.Token, map[string]string{"text": "hello world"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[map[string]string](t, rec)["id"]
	require.NotEmpty(t, id)

	rec = api.do(t, http.MethodPost, "/api/v1/posts/"+id+"/reactions", alice.Token, map[string]string{"kind": "wow"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/posts/"+id+"/reactions", alice.Token, map[string]string{"kind": "love"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/posts/"+id+"/comments", alice.Token, map[string]string{"text": "first!"})
	require.Equal(t, http.StatusCreated, rec.Code)

	p, err := api.backend.Posts().Get(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.Account.ID}, p.Reactions.Love)
	require.Len(t, p.Comments, 1)
	assert.Equal(t, "Alice", p.Comments[0].AuthorName)
}

func TestMessagesAndSuggestions(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register(t, "Alice", "a@x.com", "+1000")
	bob := api.register(t, "Bob", "b@x.com", "+2000")

	rec := api.do(t, http.MethodPost, "/api/v1/messages", bob.Token, map[string]string{"receiverId": alice.Account.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/messages", bob.Token, map[string]string{"receiverId": alice.Account.ID, "text": "are you free tonight?"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/messages/"+bob.Account.ID+"/suggestions", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ai.FallbackReplies(), decode[map[string][]string](t, rec)["suggestions"])

	rec = api.do(t, http.MethodGet, "/api/v1/messages/"+alice.Account.ID+"/suggestions", bob.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[map[string][]string](t, rec)["suggestions"], "last message is the caller's own")

	rec = api.do(t, http.MethodPost, "/api/v1/messages/"+bob.Account.ID+"/read", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ids, err := api.backend.Messages().FindUnread(t.Context(), alice.Account.ID, bob.Account.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestAssistantGreeting(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register(t, "Alice", "a@x.com", "+1000")

	rec := api.do(t, http.MethodGet, "/api/v1/assistant/greeting", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	turn := decode[ai.Turn](t, rec)
	assert.Equal(t, ai.RoleModel, turn.Role)
	assert.Contains(t, turn.Text, "Alice")
}

func TestLocaleAndHealth(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/locale/ar", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ar := decode[localeResponse](t, rec)
	assert.Equal(t, "rtl", ar.Dir)
	assert.NotEmpty(t, ar.Strings)

	rec = api.do(t, http.MethodGet, "/api/v1/locale/fr", "", nil)
	fr := decode[localeResponse](t, rec)
	assert.Equal(t, account.LanguageEnglish, fr.Language)
	assert.Equal(t, "ltr", fr.Dir)

	rec = api.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRequestLanguage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, account.LanguageEnglish, requestLanguage(req))

	req.Header.Set("Accept-Language", "ar-EG,ar;q=0.9,en;q=0.8")
	assert.Equal(t, account.LanguageArabic, requestLanguage(req))

	req = httptest.NewRequest(http.MethodGet, "/?lang=en", nil)
	req.Header.Set("Accept-Language", "ar")
	assert.Equal(t, account.LanguageEnglish, requestLanguage(req))
}
