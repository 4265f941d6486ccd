package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/culinamarket/internal/models"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// LocalUsers is the fallback user listing.
type LocalUsers interface {
	List(ctx context.Context) ([]models.User, error)
}

type hostedUser struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	CreatedAt    time.Time  `json:"created_at"`
	LastSignInAt *time.Time `json:"last_sign_in_at"`
	UserMetadata struct {
		Name     string `json:"name"`
		FullName string `json:"full_name"`
		IsAdmin  bool   `json:"is_admin"`
	} `json:"user_metadata"`
	AppMetadata AppMetadata `json:"app_metadata"`
}

// Directory lists user accounts for the admin back office.
type Directory struct {
	client *resty.Client
	local  LocalUsers
	log    *zap.Logger
}

// NewDirectory talks to the hosted auth admin API at baseURL with the
// service-role key. An empty baseURL or key disables the remote call.
func NewDirectory(baseURL, serviceKey string, local LocalUsers, log *zap.Logger) *Directory {
	d := &Directory{local: local, log: log}
	if baseURL != "" && serviceKey != "" {
		d.client = resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetHeader("apikey", serviceKey).
			SetAuthToken(serviceKey).
			SetTimeout(10 * time.Second)
	}
	return d
}

// ListUsers prefers the hosted directory and falls back to the local users
// table, newest first.
func (d *Directory) ListUsers(ctx context.Context) ([]models.User, error) {
	if d.client != nil {
		users, err := d.listHosted(ctx)
		if err == nil {
			return users, nil
		}
		d.log.Warn("auth: hosted user listing failed, using local users", zap.Error(err))
	}
	return d.local.List(ctx)
}

func (d *Directory) listHosted(ctx context.Context) ([]models.User, error) {
	var body struct {
		Users []hostedUser `json:"users"`
	}
	resp, err := d.client.R().
		SetContext(ctx).
		SetQueryParam("per_page", "1000").
		SetResult(&body).
		Get("/auth/v1/admin/users")
	if err != nil {
		return nil, fmt.Errorf("list hosted users: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list hosted users: status %d", resp.StatusCode())
	}

	users := make([]models.User, 0, len(body.Users))
	for _, u := range body.Users {
		name := u.UserMetadata.Name
		if name == "" {
			name = u.UserMetadata.FullName
		}
		users = append(users, models.User{
			ID:           u.ID,
			Email:        u.Email,
			Name:         name,
			IsAdmin:      u.UserMetadata.IsAdmin || u.AppMetadata.Role == adminRole,
			CreatedAt:    u.CreatedAt,
			LastSignInAt: u.LastSignInAt,
		})
	}
	return users, nil
}
