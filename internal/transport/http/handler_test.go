package http

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/questroom/progress-service/internal/domain"
	"github.com/questroom/progress-service/internal/security"
	"github.com/questroom/progress-service/internal/service"
	"github.com/questroom/progress-service/internal/transport/ws"

	"github.com/stretchr/testify/require"
)

// stubBackend backs every service interface the handlers need, with one
// mutex standing in for the store's transactions.
type stubBackend struct {
	mu sync.Mutex

	users       map[int64]*domain.User
	usersByName map[string]*domain.User
	nextUserID  int64

	rooms      map[string]*domain.Room
	roomsByCod map[string]*domain.Room
	nextRoomID int

	members     map[string]map[int64]bool
	current     map[int64]string
	completions map[int64]map[int]bool
	aggregates  map[string]map[int]bool
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		users:       make(map[int64]*domain.User),
		usersByName: make(map[string]*domain.User),
		rooms:       make(map[string]*domain.Room),
		roomsByCod:  make(map[string]*domain.Room),
		members:     make(map[string]map[int64]bool),
		current:     make(map[int64]string),
		completions: make(map[int64]map[int]bool),
		aggregates:  make(map[string]map[int]bool),
	}
}

// UserStore

func (b *stubBackend) Create(_ context.Context, u *domain.User) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.usersByName[u.Username]; ok {
		return domain.ErrUserExists
	}
	b.nextUserID++
	u.ID = b.nextUserID
	u.CreatedAt = time.Now()
	b.users[u.ID] = u
	b.usersByName[u.Username] = u
	return nil
}

func (b *stubBackend) Get(_ context.Context, id int64) (*domain.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if u, ok := b.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (b *stubBackend) GetByUsername(_ context.Context, name string) (*domain.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if u, ok := b.usersByName[name]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

// RoomStore (Create collides with UserStore.Create, so rooms get their own
// adapter below)

type stubRooms struct{ b *stubBackend }

func (s stubRooms) Create(_ context.Context, room *domain.Room) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if _, ok := s.b.roomsByCod[room.Code]; ok {
		return domain.ErrRoomCodeTaken
	}
	s.b.nextRoomID++
	room.ID = fmt.Sprintf("room-%d", s.b.nextRoomID)
	room.CreatedAt = time.Now()
	s.b.rooms[room.ID] = room
	s.b.roomsByCod[room.Code] = room
	s.b.members[room.ID] = make(map[int64]bool)
	s.b.aggregates[room.ID] = make(map[int]bool)
	return nil
}

func (s stubRooms) Get(_ context.Context, id string) (*domain.Room, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if r, ok := s.b.rooms[id]; ok {
		return r, nil
	}
	return nil, domain.ErrRoomNotFound
}

func (s stubRooms) GetByCode(_ context.Context, code string) (*domain.Room, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if r, ok := s.b.roomsByCod[code]; ok {
		return r, nil
	}
	return nil, domain.ErrRoomNotFound
}

func (s stubRooms) List(context.Context) ([]domain.RoomSummary, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	out := make([]domain.RoomSummary, 0, len(s.b.rooms))
	for _, r := range s.b.rooms {
		out = append(out, domain.RoomSummary{Room: *r, MemberCount: len(s.b.members[r.ID])})
	}
	return out, nil
}

func (s stubRooms) EnsureDemoRoom(ctx context.Context) (*domain.Room, error) {
	if r, err := s.GetByCode(ctx, domain.DemoRoomCode); err == nil {
		return r, nil
	}
	r := &domain.Room{Code: domain.DemoRoomCode, Name: domain.DemoRoomName, IsProtected: true}
	if err := s.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s stubRooms) IsProtected(_ context.Context, id string) (bool, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	r, ok := s.b.rooms[id]
	if !ok {
		return false, domain.ErrRoomNotFound
	}
	return r.IsProtected, nil
}

// MembershipManager + MembershipStore

func (b *stubBackend) Join(_ context.Context, m *domain.Membership) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.current[m.UserID]; ok {
		return domain.ErrAlreadyJoined
	}
	b.members[m.RoomID][m.UserID] = true
	b.current[m.UserID] = m.RoomID
	return nil
}

func (b *stubBackend) Leave(_ context.Context, roomID string, userID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current[userID] != roomID {
		return domain.ErrNotInRoom
	}
	delete(b.members[roomID], userID)
	delete(b.current, userID)
	return nil
}

func (b *stubBackend) CurrentRoom(_ context.Context, userID int64) (*domain.Membership, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	roomID, ok := b.current[userID]
	if !ok {
		return nil, domain.ErrNotInRoom
	}
	return &domain.Membership{RoomID: roomID, UserID: userID}, nil
}

func (b *stubBackend) IsMember(_ context.Context, roomID string, userID int64) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.members[roomID][userID], nil
}

func (b *stubBackend) Members(_ context.Context, roomID string) ([]domain.Membership, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Membership, 0, len(b.members[roomID]))
	for uid := range b.members[roomID] {
		out = append(out, domain.Membership{RoomID: roomID, UserID: uid})
	}
	return out, nil
}

func (b *stubBackend) MembersDetailed(_ context.Context, roomID string) ([]domain.RoomMember, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.RoomMember, 0, len(b.members[roomID]))
	for uid := range b.members[roomID] {
		m := domain.RoomMember{UserID: uid}
		if u, ok := b.users[uid]; ok {
			m.Username = u.Username
			m.Role = u.Role
		}
		out = append(out, m)
	}
	return out, nil
}

// ProgressLedger

func (b *stubBackend) RecordCompletion(_ context.Context, userID int64, module int) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.completions[userID] == nil {
		b.completions[userID] = make(map[int]bool)
	}
	if b.completions[userID][module] {
		return false, nil
	}
	b.completions[userID][module] = true
	return true, nil
}

func (b *stubBackend) UserCompletions(_ context.Context, userID int64) ([]int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]int, 0, len(b.completions[userID]))
	for m := range b.completions[userID] {
		out = append(out, m)
	}
	return out, nil
}

func (b *stubBackend) MemberProgress(_ context.Context, roomID string) ([]domain.MemberProgress, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.MemberProgress, 0, len(b.members[roomID]))
	for uid := range b.members[roomID] {
		modules := make([]int, 0, len(b.completions[uid]))
		for m := range b.completions[uid] {
			modules = append(modules, m)
		}
		out = append(out, domain.MemberProgress{UserID: uid, CompletedModules: modules})
	}
	return out, nil
}

// AggregateStore + LifecycleStore + RoomDeleter

func (b *stubBackend) Evaluate(_ context.Context, roomID string, module int) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.rooms[roomID]; !ok {
		return false, domain.ErrRoomNotFound
	}
	if len(b.members[roomID]) == 0 {
		return false, nil
	}
	for uid := range b.members[roomID] {
		if !b.completions[uid][module] {
			return false, nil
		}
	}
	if b.aggregates[roomID][module] {
		return false, nil
	}
	b.aggregates[roomID][module] = true
	return true, nil
}

func (b *stubBackend) IsModuleComplete(_ context.Context, roomID string, module int) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.aggregates[roomID][module], nil
}

func (b *stubBackend) CompletedModules(_ context.Context, roomID string) ([]domain.RoomModuleCompletion, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.RoomModuleCompletion, 0, len(b.aggregates[roomID]))
	for m := range b.aggregates[roomID] {
		out = append(out, domain.RoomModuleCompletion{RoomID: roomID, ModuleNumber: m})
	}
	return out, nil
}

func (b *stubBackend) CheckFullCompletion(_ context.Context, roomID string, totalModules int) (domain.Transition, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	room, ok := b.rooms[roomID]
	if !ok {
		return domain.TransitionNone, nil
	}
	if len(b.aggregates[roomID]) < totalModules {
		return domain.TransitionNone, nil
	}
	b.aggregates[roomID] = make(map[int]bool)
	if room.IsProtected {
		for uid := range b.members[roomID] {
			b.completions[uid] = make(map[int]bool)
		}
		return domain.TransitionReset, nil
	}
	for uid := range b.members[roomID] {
		b.completions[uid] = make(map[int]bool)
		delete(b.current, uid)
	}
	delete(b.members, roomID)
	delete(b.roomsByCod, room.Code)
	delete(b.rooms, roomID)
	return domain.TransitionTeardown, nil
}

func (b *stubBackend) DeleteRoom(_ context.Context, roomID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	room, ok := b.rooms[roomID]
	if !ok {
		return domain.ErrRoomNotFound
	}
	if room.IsProtected {
		return domain.ErrRoomProtected
	}
	for uid := range b.members[roomID] {
		delete(b.current, uid)
	}
	delete(b.members, roomID)
	delete(b.roomsByCod, room.Code)
	delete(b.rooms, roomID)
	return nil
}

// glossary and quizzes are exercised in their own service tests; the handler
// tests stub them out empty
type emptyGlossary struct{}

func (emptyGlossary) Create(context.Context, *domain.GlossaryEntry) error { return nil }
func (emptyGlossary) Get(context.Context, int64) (*domain.GlossaryEntry, error) {
	return nil, domain.ErrEntryNotFound
}
func (emptyGlossary) ListByRoom(context.Context, string, string) ([]domain.GlossaryEntry, error) {
	return nil, nil
}
func (emptyGlossary) Update(context.Context, int64, string, string) error { return nil }
func (emptyGlossary) Delete(context.Context, int64) error                 { return nil }
func (emptyGlossary) Stats(context.Context, string) (*domain.GlossaryStats, error) {
	return &domain.GlossaryStats{}, nil
}

type emptyQuizzes struct{}

func (emptyQuizzes) List(context.Context) ([]domain.Quiz, error) { return nil, nil }
func (emptyQuizzes) Get(context.Context, int64) (*domain.Quiz, error) {
	return nil, domain.ErrQuizNotFound
}
func (emptyQuizzes) CreateAttempt(context.Context, *domain.Attempt) error { return nil }
func (emptyQuizzes) AttemptsByUser(context.Context, int64) ([]domain.Attempt, error) {
	return nil, nil
}
func (emptyQuizzes) Leaderboard(context.Context, int64) ([]domain.LeaderboardRow, error) {
	return nil, nil
}

type testEnv struct {
	srv     *httptest.Server
	backend *stubBackend
	authSvc *service.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	signer := security.NewJWTSigner(key, &key.PublicKey, "progress-service", time.Hour, 30*time.Second)

	b := newStubBackend()
	rooms := stubRooms{b: b}

	authSvc := service.NewAuthService(b, signer, security.BcryptConfig{Cost: 4, MinLength: 6}, time.Now)
	roomSvc := service.NewRoomService(rooms, b, b)
	progressSvc := service.NewProgressService(b, b, b, b, nil, 6)
	glossarySvc := service.NewGlossaryService(emptyGlossary{}, rooms, b)
	quizSvc := service.NewQuizService(emptyQuizzes{})

	hub := ws.NewHub()
	wsServer := ws.NewServer(hub, authSvc, roomSvc, progressSvc)

	handler := NewHandler(authSvc, roomSvc, progressSvc, glossarySvc, quizSvc)
	router := NewRouter(handler, authSvc, wsServer, []string{"*"})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, backend: b, authSvc: authSvc}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body, out any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func (e *testEnv) register(t *testing.T, username string) AuthResponse {
	t.Helper()
	var out AuthResponse
	resp := e.do(t, http.MethodPost, "/auth/register", "", RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "sekrit1",
	}, &out)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return out
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	out := e.register(t, "admin")
	e.backend.mu.Lock()
	e.backend.usersByName["admin"].Role = domain.RoleAdmin
	e.backend.mu.Unlock()

	// re-login so the token carries the admin role
	var login AuthResponse
	resp := e.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Username: "admin", Password: "sekrit1"}, &login)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEqual(t, out.User.ID, 0)
	return login.AccessToken
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)

	reg := env.register(t, "alice")
	require.Equal(t, "student", reg.User.Role)
	require.NotEmpty(t, reg.AccessToken)

	var me MeResponse
	resp := env.do(t, http.MethodGet, "/auth/me", reg.AccessToken, nil, &me)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "alice", me.User.Username)
	require.Empty(t, me.CompletedModules)

	resp = env.do(t, http.MethodGet, "/auth/me", "garbage", nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Username: "alice", Password: "wrong"}, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRoomFlow(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminToken(t)
	student := env.register(t, "bob").AccessToken

	// only admins create rooms
	resp := env.do(t, http.MethodPost, "/rooms", student, CreateRoomRequest{Name: "Cohort A"}, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	var room RoomItem
	resp = env.do(t, http.MethodPost, "/rooms", admin, CreateRoomRequest{Name: "Cohort A"}, &room)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, room.Code, 6)

	var joined RoomItem
	resp = env.do(t, http.MethodPost, "/rooms/join", student, JoinRoomRequest{RoomCode: room.Code}, &joined)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, room.ID, joined.ID)

	// second join is a conflict
	resp = env.do(t, http.MethodPost, "/rooms/join", student, JoinRoomRequest{RoomCode: room.Code}, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var members MembersResponse
	resp = env.do(t, http.MethodGet, "/rooms/"+room.ID+"/members", student, nil, &members)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, members.Items, 1)
	require.Equal(t, "bob", members.Items[0].Username)
}

func TestCompleteModuleFlow(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminToken(t)
	student := env.register(t, "carol").AccessToken

	var room RoomItem
	resp := env.do(t, http.MethodPost, "/rooms", admin, CreateRoomRequest{Name: "Cohort A"}, &room)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = env.do(t, http.MethodPost, "/rooms/join", student, JoinRoomRequest{RoomCode: room.Code}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// out-of-range module
	resp = env.do(t, http.MethodPost, "/progress/complete", student, CompleteModuleRequest{ModuleNumber: 7}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// sole member: completing a module completes it room-wide
	var done CompleteModuleResponse
	resp = env.do(t, http.MethodPost, "/progress/complete", student, CompleteModuleRequest{ModuleNumber: 1}, &done)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, done.ModuleComplete)
	require.False(t, done.RoomComplete)
	require.Equal(t, "Module 1 completed by entire room!", done.Message)

	// duplicate submission
	resp = env.do(t, http.MethodPost, "/progress/complete", student, CompleteModuleRequest{ModuleNumber: 1}, &done)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, done.AlreadyCompleted)

	var progress RoomProgressResponse
	resp = env.do(t, http.MethodGet, "/rooms/"+room.ID+"/progress", student, nil, &progress)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 6, progress.TotalModules)
	require.Equal(t, []int{1}, progress.CompletedModules)

	// finishing all six tears the ordinary room down
	for m := 2; m <= 6; m++ {
		resp = env.do(t, http.MethodPost, "/progress/complete", student, CompleteModuleRequest{ModuleNumber: m}, &done)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	require.True(t, done.RoomComplete)
	require.False(t, done.IsDemo)

	resp = env.do(t, http.MethodGet, "/rooms/"+room.ID, student, nil, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCompleteModule_NotInRoom(t *testing.T) {
	env := newTestEnv(t)
	student := env.register(t, "dora").AccessToken

	resp := env.do(t, http.MethodPost, "/progress/complete", student, CompleteModuleRequest{ModuleNumber: 1}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteRoom(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminToken(t)

	var room RoomItem
	resp := env.do(t, http.MethodPost, "/rooms", admin, CreateRoomRequest{Name: "Cohort A"}, &room)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/rooms/"+room.ID, admin, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/rooms/"+room.ID, admin, nil, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
