package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/ginext"

	"github.com/dabidkayl/metro-backend/internal/dto"
	"github.com/dabidkayl/metro-backend/internal/model"
	"github.com/dabidkayl/metro-backend/internal/repo"
)

// fakeRepo keeps everything in memory and enforces the same storage
// invariants the Postgres schema does: unique (user_id, event_id)
// participation, at most one Pending request per user, terminal guard
// on request resolution.
type fakeRepo struct {
	users          map[int64]*model.User
	events         map[int64]*model.Event
	participations []model.Participation
	requests       map[int64]*model.OrganizerRequest

	nextUserID    int64
	nextEventID   int64
	nextPartID    int64
	nextRequestID int64

	failCounterUpdate bool
	failRoleUpdate    bool
	storageErr        error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:    make(map[int64]*model.User),
		events:   make(map[int64]*model.Event),
		requests: make(map[int64]*model.OrganizerRequest),
	}
}

func (f *fakeRepo) addUser(email, role string) *model.User {
	f.nextUserID++
	u := &model.User{
		ID:        int(f.nextUserID),
		Email:     email,
		Name:      "User " + email,
		Role:      role,
		CreatedAt: time.Now(),
	}
	f.users[f.nextUserID] = u
	return u
}

func (f *fakeRepo) addEvent(name string, organizerID int) *model.Event {
	f.nextEventID++
	e := &model.Event{
		ID:          int(f.nextEventID),
		Name:        name,
		Date:        time.Now().Add(24 * time.Hour),
		OrganizerID: organizerID,
		Status:      model.EventStatusOpen,
	}
	f.events[f.nextEventID] = e
	return e
}

func (f *fakeRepo) CreateUser(_ context.Context, u *model.User) (int64, error) {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return 0, repo.ErrEmailTaken
		}
	}
	f.nextUserID++
	u.ID = int(f.nextUserID)
	u.CreatedAt = time.Now()
	f.users[f.nextUserID] = u
	return f.nextUserID, nil
}

func (f *fakeRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repo.ErrUserNotFound
}

func (f *fakeRepo) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repo.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeRepo) GetAllUsers(_ context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeRepo) CreateEvent(_ context.Context, e *model.Event) (int64, error) {
	f.nextEventID++
	e.ID = int(f.nextEventID)
	f.events[f.nextEventID] = e
	return f.nextEventID, nil
}

func (f *fakeRepo) GetEventByID(_ context.Context, id int64) (*model.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, repo.ErrEventNotFound
	}
	return e, nil
}

func (f *fakeRepo) GetAllEvents(_ context.Context) ([]model.Event, error) {
	out := make([]model.Event, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeRepo) GetParticipationsByEventID(_ context.Context, eventID int64) ([]model.Participation, error) {
	var out []model.Participation
	for _, p := range f.participations {
		if int64(p.EventID) == eventID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) CountParticipations(_ context.Context, eventID int64) (int, error) {
	count := 0
	for _, p := range f.participations {
		if int64(p.EventID) == eventID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) JoinEventTx(_ context.Context, p *model.Participation) (int64, bool, error) {
	if f.storageErr != nil {
		return 0, false, f.storageErr
	}
	event, ok := f.events[int64(p.EventID)]
	if !ok {
		return 0, false, repo.ErrEventNotFound
	}
	if _, ok := f.users[int64(p.UserID)]; !ok {
		return 0, false, repo.ErrUserNotFound
	}
	for _, existing := range f.participations {
		if existing.UserID == p.UserID && existing.EventID == p.EventID {
			return 0, true, nil
		}
	}
	if f.failCounterUpdate {
		return 0, false, repo.ErrPartialEnrollment
	}
	f.nextPartID++
	p.ID = int(f.nextPartID)
	p.CreatedAt = time.Now()
	f.participations = append(f.participations, *p)
	event.ParticipantCount++
	return f.nextPartID, false, nil
}

func (f *fakeRepo) CreatePendingRequest(_ context.Context, userID int64) (int64, bool, error) {
	if _, ok := f.users[userID]; !ok {
		return 0, false, repo.ErrUserNotFound
	}
	for _, r := range f.requests {
		if int64(r.UserID) == userID && r.Status == model.RequestStatusPending {
			return 0, true, nil
		}
	}
	f.nextRequestID++
	f.requests[f.nextRequestID] = &model.OrganizerRequest{
		ID:          int(f.nextRequestID),
		UserID:      int(userID),
		Status:      model.RequestStatusPending,
		RequestDate: time.Now(),
	}
	return f.nextRequestID, false, nil
}

func (f *fakeRepo) GetRequestByID(_ context.Context, id int64) (*model.OrganizerRequest, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, repo.ErrRequestNotFound
	}
	return r, nil
}

func (f *fakeRepo) GetAllRequests(_ context.Context) ([]model.OrganizerRequest, error) {
	out := make([]model.OrganizerRequest, 0, len(f.requests))
	for _, r := range f.requests {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRepo) ResolveRequestTx(_ context.Context, requestID int64, newStatus string) (*model.OrganizerRequest, error) {
	if f.storageErr != nil {
		return nil, f.storageErr
	}
	req, ok := f.requests[requestID]
	if !ok {
		return nil, repo.ErrRequestNotFound
	}
	if model.RequestStatusTerminal(req.Status) {
		return nil, repo.ErrInvalidState
	}
	if newStatus == model.RequestStatusApproved && f.failRoleUpdate {
		return nil, repo.ErrPartialPromotion
	}
	now := time.Now()
	req.Status = newStatus
	req.DateReviewed = &now
	if newStatus == model.RequestStatusApproved {
		if u, ok := f.users[int64(req.UserID)]; ok {
			u.Role = model.RoleOrganizer
		}
	}
	copied := *req
	return &copied, nil
}

func (f *fakeRepo) MigrateUp(string) error   { return nil }
func (f *fakeRepo) MigrateDown(string) error { return nil }

var _ repo.Repository = (*fakeRepo)(nil)

type fakeNotifier struct {
	published []dto.NotificationMessage
	fail      bool
}

func (n *fakeNotifier) Publish(message []byte) error {
	if n.fail {
		return errors.New("broker down")
	}
	var msg dto.NotificationMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return err
	}
	n.published = append(n.published, msg)
	return nil
}

type envelope struct {
	Status string `json:"status"`
	Error  *struct {
		Code string `json:"code"`
		Desc string `json:"desc"`
	} `json:"error"`
	Data json.RawMessage `json:"data"`
}

func newTestRouter(r repo.Repository, n Notifier) *ginext.Engine {
	log := zerolog.Nop()
	svc := NewService(r, &log, n)

	app := ginext.New("release")
	group := app.Group("/v1")
	group.POST("/register", svc.Register)
	group.POST("/login", svc.Login)
	group.GET("/users", svc.GetAllUsers)
	group.POST("/events", svc.CreateEvent)
	group.GET("/events", svc.GetAllEvents)
	group.GET("/events/:id", svc.GetEvent)
	group.POST("/join-event", svc.JoinEvent)
	group.POST("/request", svc.SubmitRequest)
	group.POST("/request-action", svc.ResolveRequest)
	group.GET("/requests", svc.GetAllRequests)
	return app
}

func doJSON(t *testing.T, app *ginext.Engine, method, path string, body any) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w.Code, env
}

func actionResult(t *testing.T, env envelope) dto.ActionResponse {
	t.Helper()
	var res dto.ActionResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	return res
}

func joinBody(userID, eventID int) map[string]any {
	return map[string]any{
		"user_id":  userID,
		"event_id": eventID,
		"participant_details": map[string]any{
			"full_name": "Alice Example",
			"email":     "alice@example.com",
			"phone":     "+1555000111",
			"age":       30,
			"gender":    "female",
		},
	}
}

func TestJoinEventIdempotent(t *testing.T) {
	f := newFakeRepo()
	user := f.addUser("alice@example.com", model.RoleParticipant)
	organizer := f.addUser("org@example.com", model.RoleOrganizer)
	event := f.addEvent("Metro Gala", organizer.ID)
	app := newTestRouter(f, nil)

	code, env := doJSON(t, app, http.MethodPost, "/v1/join-event", joinBody(user.ID, event.ID))
	require.Equal(t, http.StatusCreated, code)
	res := actionResult(t, env)
	require.True(t, res.Success)
	require.Contains(t, res.Message, "joined")
	require.Equal(t, 1, event.ParticipantCount)

	code, env = doJSON(t, app, http.MethodPost, "/v1/join-event", joinBody(user.ID, event.ID))
	require.Equal(t, http.StatusOK, code)
	res = actionResult(t, env)
	require.True(t, res.Success)
	require.Contains(t, res.Message, "already")

	require.Len(t, f.participations, 1)
	require.Equal(t, 1, event.ParticipantCount)
}

func TestJoinEventCounterMatchesRows(t *testing.T) {
	f := newFakeRepo()
	organizer := f.addUser("org@example.com", model.RoleOrganizer)
	event := f.addEvent("Metro Gala", organizer.ID)
	app := newTestRouter(f, nil)

	for i := 0; i < 5; i++ {
		u := f.addUser(fmt.Sprintf("user%d@example.com", i), model.RoleParticipant)
		code, _ := doJSON(t, app, http.MethodPost, "/v1/join-event", joinBody(u.ID, event.ID))
		require.Equal(t, http.StatusCreated, code)
	}

	count, err := f.CountParticipations(context.Background(), int64(event.ID))
	require.NoError(t, err)
	require.Equal(t, event.ParticipantCount, count)
}

func TestJoinEventUnknownIDs(t *testing.T) {
	f := newFakeRepo()
	user := f.addUser("alice@example.com", model.RoleParticipant)
	organizer := f.addUser("org@example.com", model.RoleOrganizer)
	event := f.addEvent("Metro Gala", organizer.ID)
	app := newTestRouter(f, nil)

	code, env := doJSON(t, app, http.MethodPost, "/v1/join-event", joinBody(user.ID, event.ID+100))
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, dto.EventNotFound, env.Error.Code)

	code, env = doJSON(t, app, http.MethodPost, "/v1/join-event", joinBody(user.ID+100, event.ID))
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, dto.UserNotFound, env.Error.Code)
}

func TestJoinEventPartialEnrollmentSurfaced(t *testing.T) {
	f := newFakeRepo()
	user := f.addUser("alice@example.com", model.RoleParticipant)
	organizer := f.addUser("org@example.com", model.RoleOrganizer)
	event := f.addEvent("Metro Gala", organizer.ID)
	f.failCounterUpdate = true
	app := newTestRouter(f, nil)

	code, env := doJSON(t, app, http.MethodPost, "/v1/join-event", joinBody(user.ID, event.ID))
	require.Equal(t, http.StatusInternalServerError, code)
	require.Equal(t, dto.DataInconsistent, env.Error.Code)
}

func TestJoinEventStorageFailureNotMaskedAsNotFound(t *testing.T) {
	f := newFakeRepo()
	user := f.addUser("alice@example.com", model.RoleParticipant)
	organizer := f.addUser("org@example.com", model.RoleOrganizer)
	event := f.addEvent("Metro Gala", organizer.ID)
	f.storageErr = fmt.Errorf("failed to lock event: %w", errors.New("connection reset by peer"))
	app := newTestRouter(f, nil)

	code, env := doJSON(t, app, http.MethodPost, "/v1/join-event", joinBody(user.ID, event.ID))
	require.Equal(t, http.StatusInternalServerError, code)
	require.Equal(t, dto.ServiceUnavailable, env.Error.Code)
}

func TestJoinEventPublishesNotification(t *testing.T) {
	f := newFakeRepo()
	user := f.addUser("alice@example.com", model.RoleParticipant)
	organizer := f.addUser("org@example.com", model.RoleOrganizer)
	event := f.addEvent("Metro Gala", organizer.ID)
	n := &fakeNotifier{}
	app := newTestRouter(f, n)

	code, _ := doJSON(t, app, http.MethodPost, "/v1/join-event", joinBody(user.ID, event.ID))
	require.Equal(t, http.StatusCreated, code)
	require.Len(t, n.published, 1)
	require.Equal(t, "joined", n.published[0].Kind)
	require.Equal(t, "alice@example.com", n.published[0].Email)
}

func TestJoinEventNotifierFailureDoesNotFailRequest(t *testing.T) {
	f := newFakeRepo()
	user := f.addUser("alice@example.com", model.RoleParticipant)
	organizer := f.addUser("org@example.com", model.RoleOrganizer)
	event := f.addEvent("Metro Gala", organizer.ID)
	app := newTestRouter(f, &fakeNotifier{fail: true})

	code, env := doJSON(t, app, http.MethodPost, "/v1/join-event", joinBody(user.ID, event.ID))
	require.Equal(t, http.StatusCreated, code)
	require.True(t, actionResult(t, env).Success)
}

func TestSubmitRequestDuplicate(t *testing.T) {
	f := newFakeRepo()
	user := f.addUser("seven@example.com", model.RoleParticipant)
	app := newTestRouter(f, nil)

	body := map[string]any{"user_id": user.ID}

	code, env := doJSON(t, app, http.MethodPost, "/v1/request", body)
	require.Equal(t, http.StatusCreated, code)
	require.True(t, actionResult(t, env).Success)

	code, env = doJSON(t, app, http.MethodPost, "/v1/request", body)
	require.Equal(t, http.StatusOK, code)
	res := actionResult(t, env)
	require.False(t, res.Success)
	require.Contains(t, res.Message, "Duplicate")
	require.Len(t, f.requests, 1)
}

func TestSubmitRequestAllowedAfterResolution(t *testing.T) {
	f := newFakeRepo()
	user := f.addUser("seven@example.com", model.RoleParticipant)
	app := newTestRouter(f, nil)

	body := map[string]any{"user_id": user.ID}
	code, _ := doJSON(t, app, http.MethodPost, "/v1/request", body)
	require.Equal(t, http.StatusCreated, code)

	code, _ = doJSON(t, app, http.MethodPost, "/v1/request-action", map[string]any{
		"request_id": 1, "action": "Decline", "user_id": user.ID,
	})
	require.Equal(t, http.StatusOK, code)

	// The Pending slot is free again once the first request is terminal.
	code, env := doJSON(t, app, http.MethodPost, "/v1/request", body)
	require.Equal(t, http.StatusCreated, code)
	require.True(t, actionResult(t, env).Success)
}

func TestResolveRequestApprovePromotesUser(t *testing.T) {
	f := newFakeRepo()
	user := f.addUser("nine@example.com", model.RoleParticipant)
	n := &fakeNotifier{}
	app := newTestRouter(f, n)

	code, _ := doJSON(t, app, http.MethodPost, "/v1/request", map[string]any{"user_id": user.ID})
	require.Equal(t, http.StatusCreated, code)

	code, env := doJSON(t, app, http.MethodPost, "/v1/request-action", map[string]any{
		"request_id": 1, "action": "Approve", "user_id": user.ID,
	})
	require.Equal(t, http.StatusOK, code)
	res := actionResult(t, env)
	require.True(t, res.Success)
	require.Contains(t, res.Message, "approved")

	require.Equal(t, model.RoleOrganizer, user.Role)
	req := f.requests[1]
	require.Equal(t, model.RequestStatusApproved, req.Status)
	require.NotNil(t, req.DateReviewed)

	require.Len(t, n.published, 1)
	require.Equal(t, "request_Approved", n.published[0].Kind)
}

func TestResolveRequestPartialPromotionSurfaced(t *testing.T) {
	f := newFakeRepo()
	user := f.addUser("nine@example.com", model.RoleParticipant)
	app := newTestRouter(f, nil)

	code, _ := doJSON(t, app, http.MethodPost, "/v1/request", map[string]any{"user_id": user.ID})
	require.Equal(t, http.StatusCreated, code)

	f.failRoleUpdate = true
	code, env := doJSON(t, app, http.MethodPost, "/v1/request-action", map[string]any{
		"request_id": 1, "action": "Approve", "user_id": user.ID,
	})
	require.Equal(t, http.StatusInternalServerError, code)
	require.Equal(t, dto.DataInconsistent, env.Error.Code)

	// Rolled back: nothing committed halfway.
	require.Equal(t, model.RoleParticipant, user.Role)
	require.Equal(t, model.RequestStatusPending, f.requests[1].Status)
}

func TestResolveRequestStorageFailureNotMaskedAsNotFound(t *testing.T) {
	f := newFakeRepo()
	user := f.addUser("nine@example.com", model.RoleParticipant)
	app := newTestRouter(f, nil)

	code, _ := doJSON(t, app, http.MethodPost, "/v1/request", map[string]any{"user_id": user.ID})
	require.Equal(t, http.StatusCreated, code)

	f.storageErr = fmt.Errorf("failed to lock organizer request: %w", errors.New("connection reset by peer"))
	code, env := doJSON(t, app, http.MethodPost, "/v1/request-action", map[string]any{
		"request_id": 1, "action": "Approve", "user_id": user.ID,
	})
	require.Equal(t, http.StatusInternalServerError, code)
	require.Equal(t, dto.ServiceUnavailable, env.Error.Code)
}

func TestResolveRequestDeclineKeepsRole(t *testing.T) {
	f := newFakeRepo()
	user := f.addUser("nine@example.com", model.RoleParticipant)
	app := newTestRouter(f, nil)

	code, _ := doJSON(t, app, http.MethodPost, "/v1/request", map[string]any{"user_id": user.ID})
	require.Equal(t, http.StatusCreated, code)

	code, env := doJSON(t, app, http.MethodPost, "/v1/request-action", map[string]any{
		"request_id": 1, "action": "Decline", "user_id": user.ID,
	})
	require.Equal(t, http.StatusOK, code)
	require.True(t, actionResult(t, env).Success)

	require.Equal(t, model.RoleParticipant, user.Role)
	req := f.requests[1]
	require.Equal(t, model.RequestStatusDeclined, req.Status)
	require.NotNil(t, req.DateReviewed)
}

func TestResolveRequestTerminalStateGuard(t *testing.T) {
	f := newFakeRepo()
	user := f.addUser("nine@example.com", model.RoleParticipant)
	app := newTestRouter(f, nil)

	code, _ := doJSON(t, app, http.MethodPost, "/v1/request", map[string]any{"user_id": user.ID})
	require.Equal(t, http.StatusCreated, code)

	code, _ = doJSON(t, app, http.MethodPost, "/v1/request-action", map[string]any{
		"request_id": 1, "action": "Approve", "user_id": user.ID,
	})
	require.Equal(t, http.StatusOK, code)

	code, env := doJSON(t, app, http.MethodPost, "/v1/request-action", map[string]any{
		"request_id": 1, "action": "Decline", "user_id": user.ID,
	})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, dto.InvalidState, env.Error.Code)

	// The decision stands.
	require.Equal(t, model.RequestStatusApproved, f.requests[1].Status)
	require.Equal(t, model.RoleOrganizer, user.Role)
}

func TestResolveRequestInvalidAction(t *testing.T) {
	f := newFakeRepo()
	user := f.addUser("nine@example.com", model.RoleParticipant)
	app := newTestRouter(f, nil)

	code, _ := doJSON(t, app, http.MethodPost, "/v1/request", map[string]any{"user_id": user.ID})
	require.Equal(t, http.StatusCreated, code)

	code, env := doJSON(t, app, http.MethodPost, "/v1/request-action", map[string]any{
		"request_id": 1, "action": "Reject", "user_id": user.ID,
	})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, dto.InvalidAction, env.Error.Code)

	// Rejected before any mutation.
	require.Equal(t, model.RequestStatusPending, f.requests[1].Status)
	require.Equal(t, model.RoleParticipant, user.Role)
}

func TestResolveRequestNotFound(t *testing.T) {
	f := newFakeRepo()
	f.addUser("nine@example.com", model.RoleParticipant)
	app := newTestRouter(f, nil)

	code, env := doJSON(t, app, http.MethodPost, "/v1/request-action", map[string]any{
		"request_id": 12, "action": "Approve", "user_id": 9,
	})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, dto.RequestNotFound, env.Error.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFakeRepo()
	app := newTestRouter(f, nil)

	code, env := doJSON(t, app, http.MethodPost, "/v1/register", map[string]any{
		"email":    "new@example.com",
		"password": "secret123",
		"name":     "New User",
	})
	require.Equal(t, http.StatusCreated, code)
	var created dto.UserResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Equal(t, model.RoleParticipant, created.Role)

	code, env = doJSON(t, app, http.MethodPost, "/v1/login", map[string]any{
		"email":    "new@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, code)
	res := actionResult(t, env)
	require.True(t, res.Success)
	require.Equal(t, "Success", res.Message)

	code, env = doJSON(t, app, http.MethodPost, "/v1/login", map[string]any{
		"email":    "new@example.com",
		"password": "wrongpass",
	})
	require.Equal(t, http.StatusOK, code)
	res = actionResult(t, env)
	require.False(t, res.Success)
	require.Equal(t, "Failed", res.Message)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFakeRepo()
	app := newTestRouter(f, nil)

	body := map[string]any{
		"email":    "dup@example.com",
		"password": "secret123",
		"name":     "Dup User",
	}
	code, _ := doJSON(t, app, http.MethodPost, "/v1/register", body)
	require.Equal(t, http.StatusCreated, code)

	code, env := doJSON(t, app, http.MethodPost, "/v1/register", body)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, dto.EmailTaken, env.Error.Code)
}

func TestCreateEventRequiresOrganizer(t *testing.T) {
	f := newFakeRepo()
	participant := f.addUser("plain@example.com", model.RoleParticipant)
	organizer := f.addUser("org@example.com", model.RoleOrganizer)
	app := newTestRouter(f, nil)

	body := func(organizerID int) map[string]any {
		return map[string]any{
			"name":         "Metro Gala",
			"location":     "Central Station",
			"date":         time.Now().Add(48 * time.Hour).Format(time.RFC3339),
			"organizer_id": organizerID,
		}
	}

	code, env := doJSON(t, app, http.MethodPost, "/v1/events", body(participant.ID))
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, dto.NotOrganizer, env.Error.Code)

	code, env = doJSON(t, app, http.MethodPost, "/v1/events", body(organizer.ID))
	require.Equal(t, http.StatusCreated, code)
	var created dto.EventResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Equal(t, model.EventStatusOpen, created.Status)
	require.Equal(t, 0, created.ParticipantCount)
}

func TestGetEventAdminViewIncludesParticipations(t *testing.T) {
	f := newFakeRepo()
	user := f.addUser("alice@example.com", model.RoleParticipant)
	organizer := f.addUser("org@example.com", model.RoleOrganizer)
	event := f.addEvent("Metro Gala", organizer.ID)
	app := newTestRouter(f, nil)

	code, _ := doJSON(t, app, http.MethodPost, "/v1/join-event", joinBody(user.ID, event.ID))
	require.Equal(t, http.StatusCreated, code)

	code, env := doJSON(t, app, http.MethodGet, fmt.Sprintf("/v1/events/%d?admin=true", event.ID), nil)
	require.Equal(t, http.StatusOK, code)
	var resp dto.EventAdminResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.Equal(t, 1, resp.ParticipantCount)
	require.Len(t, resp.Participations, 1)
	require.Equal(t, user.ID, resp.Participations[0].UserID)
}
