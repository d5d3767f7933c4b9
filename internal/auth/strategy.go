package auth

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/config"
)

const (
	adminToken  = "admin-token"
	adminName   = "Admin"
	adminRole   = "admin"
	adminAvatar = "https://api.dicebear.com/7.x/avataaars/svg?seed=admin"
)

// Strategy authenticates one kind of credential. The store tries its
// strategies in order and uses the first that matches.
type Strategy interface {
	Matches(creds Credentials) bool
	Authenticate(ctx context.Context, creds Credentials) (State, error)
}

// AdminStrategy accepts the configured back-office pair without a network call.
type AdminStrategy struct {
	email    string
	password string
}

func NewAdminStrategy(cfg config.AdminConfig) *AdminStrategy {
	return &AdminStrategy{email: cfg.Email, password: cfg.Password}
}

func (a *AdminStrategy) Matches(creds Credentials) bool {
	if a.email == "" || a.password == "" {
		return false
	}
	emailOK := subtle.ConstantTimeCompare([]byte(creds.Email), []byte(a.email)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(creds.Password), []byte(a.password)) == 1
	return emailOK && passOK
}

func (a *AdminStrategy) Authenticate(context.Context, Credentials) (State, error) {
	token := adminToken
	return State{
		User: &catalog.User{
			ID:     0,
			Email:  a.email,
			Name:   adminName,
			Role:   adminRole,
			Avatar: adminAvatar,
		},
		Token:   &token,
		IsAdmin: true,
	}, nil
}

// Accounts is the slice of the catalog client the auth store needs.
type Accounts interface {
	Login(ctx context.Context, email, password string) (*catalog.AuthResponse, error)
	CreateUser(ctx context.Context, email, password, name string) (*catalog.User, error)
	GetProfile(ctx context.Context, token string) (*catalog.User, error)
	UpdateProfile(ctx context.Context, token string, patch catalog.ProfileUpdate) (*catalog.User, error)
}

// RemoteStrategy logs in against the remote API and loads the profile.
// It matches any credentials, so it belongs last.
type RemoteStrategy struct {
	api Accounts
}

func NewRemoteStrategy(api Accounts) *RemoteStrategy {
	return &RemoteStrategy{api: api}
}

func (r *RemoteStrategy) Matches(Credentials) bool { return true }

func (r *RemoteStrategy) Authenticate(ctx context.Context, creds Credentials) (State, error) {
	resp, err := r.api.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		return State{}, err
	}
	if resp == nil || resp.AccessToken == "" {
		return State{}, fmt.Errorf("login returned no access token")
	}
	user, err := r.api.GetProfile(ctx, resp.AccessToken)
	if err != nil {
		return State{}, err
	}
	token := resp.AccessToken
	return State{User: user, Token: &token, IsAdmin: false}, nil
}
