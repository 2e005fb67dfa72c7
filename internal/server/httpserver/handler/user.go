package handler

import (
	"net/http"

	"github.com/yndnr/storefront-go/internal/core/domain"
	"github.com/yndnr/storefront-go/internal/core/service"
)

// UserGroup serves /api/user.
type UserGroup struct {
	*Router
	users *service.UserService
}

// NewUserGroup creates the user route group.
func NewUserGroup(users *service.UserService) *UserGroup {
	g := &UserGroup{Router: NewRouter(), users: users}
	g.Handle("POST /register", g.register)
	g.Handle("POST /login", g.login)
	g.Handle("GET /{id}", g.get)
	return g
}

// register handles POST /register.
func (g *UserGroup) register(w http.ResponseWriter, r *http.Request) error {
	var req RegisterRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	user, err := g.users.Register(r.Context(), &service.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	WriteJSON(w, r, http.StatusCreated, user.Profile())
	return nil
}

// login handles POST /login. It only checks credentials; no session is
// issued.
func (g *UserGroup) login(w http.ResponseWriter, r *http.Request) error {
	var req LoginRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return domain.ErrMissingArgument.WithDetails("email and password are required")
	}
	user, err := g.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	WriteJSON(w, r, http.StatusOK, user.Profile())
	return nil
}

// get handles GET /{id}.
func (g *UserGroup) get(w http.ResponseWriter, r *http.Request) error {
	user, err := g.users.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		return err
	}
	WriteJSON(w, r, http.StatusOK, user.Profile())
	return nil
}
