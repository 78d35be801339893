// Package session assigns every visitor a storage namespace through a cookie.
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// DefaultCookieName is the cookie that carries the visitor namespace.
const DefaultCookieName = "grantforms_session"

// Config controls the session cookie.
type Config struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
	Path       string
}

// Manager issues and reads session cookies.
type Manager struct {
	cfg   Config
	newID func() string
}

type contextKey struct{}

// NewManager applies defaults to cfg and returns a manager.
func NewManager(cfg Config) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * 24 * time.Hour
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	return &Manager{cfg: cfg, newID: func() string { return uuid.NewString() }}
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// Middleware ensures the request carries a namespace. New visitors get a
// fresh cookie; returning visitors get their expiry extended.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		namespace, ok := m.read(r)
		if !ok {
			namespace = m.newID()
		}
		http.SetCookie(w, m.cookie(namespace))
		next.ServeHTTP(w, r.WithContext(WithNamespace(r.Context(), namespace)))
	})
}

// Clear expires the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	cookie := m.cookie("")
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	http.SetCookie(w, cookie)
}

func (m *Manager) read(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return "", false
	}
	id, err := uuid.Parse(cookie.Value)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func (m *Manager) cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     m.cfg.Path,
		MaxAge:   int(m.cfg.TTL / time.Second),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// WithNamespace stores namespace on ctx.
func WithNamespace(ctx context.Context, namespace string) context.Context {
	return context.WithValue(ctx, contextKey{}, namespace)
}

// FromContext returns the namespace placed on ctx by the middleware.
func FromContext(ctx context.Context) (string, bool) {
	namespace, ok := ctx.Value(contextKey{}).(string)
	return namespace, ok && namespace != ""
}
