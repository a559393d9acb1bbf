package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// User is the authenticated identity as reported by the auth service
type User struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"user_metadata,omitempty"`
}

// Session is an authenticated session snapshot
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	User         *User  `json:"user"`
}

// Auth is the session provider. It keeps the current session persisted at
// ~/.daily-task/session.json and notifies subscribers on every transition.
type Auth struct {
	baseURL     string
	apiKey      string
	sessionPath string
	httpClient  *http.Client

	mu        sync.Mutex
	session   *Session
	listeners []func(*Session)
}

// NewAuth creates a session provider, restoring any persisted session
func NewAuth(baseURL, apiKey string) (*Auth, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewAuthWithPath(baseURL, apiKey, filepath.Join(home, ".daily-task", "session.json")), nil
}

// NewAuthWithPath creates a session provider persisting at sessionPath.
// An empty path keeps the session in memory only.
func NewAuthWithPath(baseURL, apiKey, sessionPath string) *Auth {
	a := &Auth{
		baseURL:     baseURL,
		apiKey:      apiKey,
		sessionPath: sessionPath,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
	a.loadSession()

	return a
}

func (a *Auth) loadSession() {
	if a.sessionPath == "" {
		return
	}
	data, err := os.ReadFile(a.sessionPath)
	if err != nil {
		return
	}
	s := &Session{}
	if err := json.Unmarshal(data, s); err == nil && s.AccessToken != "" {
		a.session = s
	}
}

func (a *Auth) saveSession() error {
	if a.sessionPath == "" {
		return nil
	}
	if a.session == nil {
		if err := os.Remove(a.sessionPath); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(a.sessionPath), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(a.session, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(a.sessionPath, data, 0600)
}

// Session returns the current session snapshot, nil when signed out
func (a *Auth) Session() *Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

// User returns the current identity, nil when signed out
func (a *Auth) User() *User {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return nil
	}
	return a.session.User
}

// Token returns the current access token, empty when signed out
func (a *Auth) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return ""
	}
	return a.session.AccessToken
}

// OnChange subscribes to session transitions. The callback receives the new
// session snapshot (nil on sign-out).
func (a *Auth) OnChange(fn func(*Session)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

func (a *Auth) setSession(s *Session) error {
	a.mu.Lock()
	a.session = s
	err := a.saveSession()
	listeners := append([]func(*Session){}, a.listeners...)
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
	return err
}

// SetSession adopts an externally obtained session (e.g. a refreshed token)
// and notifies subscribers
func (a *Auth) SetSession(s *Session) error {
	return a.setSession(s)
}

// SignIn authenticates with email and password
func (a *Auth) SignIn(ctx context.Context, email, password string) error {
	body, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})

	url := a.baseURL + "/auth/v1/token?grant_type=password"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sign in failed: %s", string(respBody))
	}

	s := &Session{}
	if err := json.NewDecoder(resp.Body).Decode(s); err != nil {
		return err
	}

	return a.setSession(s)
}

// SignOut clears the session and notifies subscribers
func (a *Auth) SignOut() error {
	return a.setSession(nil)
}
