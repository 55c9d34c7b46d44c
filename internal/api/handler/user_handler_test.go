package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/taskhub/platform/internal/core/domain"
)

type stubUserService struct {
	users map[string]*domain.User
}

func (s *stubUserService) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	u, ok := s.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *stubUserService) List(_ context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *stubUserService) Delete(_ context.Context, id int64) error {
	for name, u := range s.users {
		if u.ID == id {
			delete(s.users, name)
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func newStubUsers() *stubUserService {
	return &stubUserService{users: map[string]*domain.User{
		"alice": {ID: 7, Username: "alice", Role: domain.RoleUser, PasswordHash: "secret-hash"},
	}}
}

func TestUserHandler_GetByUsername(t *testing.T) {
	e := newEcho()
	handler := NewUserHandler(newStubUsers())

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/users/alice", nil), rec)
	c.SetParamNames("username")
	c.SetParamValues("alice")

	if err := handler.GetByUsername(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.ID != 7 || resp.Username != "alice" {
		t.Fatalf("unexpected payload %+v", resp)
	}
}

func TestUserHandler_GetByUsername_NotFound(t *testing.T) {
	e := newEcho()
	handler := NewUserHandler(newStubUsers())

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/users/Alice", nil), rec)
	c.SetParamNames("username")
	c.SetParamValues("Alice")

	if err := handler.GetByUsername(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUserHandler_GetByUsername_EscapedSlash(t *testing.T) {
	e := newEcho()
	users := newStubUsers()
	users.users["a/b"] = &domain.User{ID: 9, Username: "a/b", Role: domain.RoleUser}
	handler := NewUserHandler(users)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/users/a%2Fb", nil), rec)
	c.SetParamNames("username")
	c.SetParamValues("a%2Fb")

	if err := handler.GetByUsername(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	var resp userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.ID != 9 {
		t.Fatalf("unexpected payload %s (%v)", rec.Body.String(), err)
	}
}

func TestUserHandler_List(t *testing.T) {
	e := newEcho()
	handler := NewUserHandler(newStubUsers())

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/users", nil), rec)

	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp []userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || len(resp) != 1 {
		t.Fatalf("unexpected payload %s (%v)", rec.Body.String(), err)
	}
}

func TestUserHandler_Delete(t *testing.T) {
	e := newEcho()
	handler := NewUserHandler(newStubUsers())

	cases := []struct {
		id   string
		want int
	}{
		{"abc", http.StatusBadRequest},
		{"0", http.StatusBadRequest},
		{"99", http.StatusNotFound},
		{"7", http.StatusNoContent},
		{"7", http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/users/"+tc.id, nil), rec)
		c.SetParamNames("id")
		c.SetParamValues(tc.id)

		if err := handler.Delete(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != tc.want {
			t.Fatalf("DELETE /users/%s: expected %d, got %d", tc.id, tc.want, rec.Code)
		}
	}
}
