package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
)

type persistedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// cookieStore mirrors the session cookies for the backend host into a file so
// a login survives restarts of the CLI.
type cookieStore struct {
	path string
	jar  *cookiejar.Jar
	base *url.URL
	mu   sync.Mutex
	last string
}

func (s *cookieStore) load() error {
	if s == nil || s.path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	var stored []persistedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		_ = os.Remove(s.path)
		return err
	}
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, cookie := range stored {
		if cookie.Name == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: cookie.Name, Value: cookie.Value, Path: "/"})
	}
	s.jar.SetCookies(s.base, cookies)
	s.last = string(data)
	return nil
}

func (s *cookieStore) save() error {
	if s == nil || s.path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.jar.Cookies(s.base)
	stored := make([]persistedCookie, 0, len(current))
	for _, cookie := range current {
		stored = append(stored, persistedCookie{Name: cookie.Name, Value: cookie.Value})
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	if string(data) == s.last {
		return nil
	}
	if len(stored) == 0 {
		s.last = string(data)
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return err
	}
	s.last = string(data)
	return nil
}

// reset drops every cookie for the backend host.
func (s *cookieStore) reset() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	expired := make([]*http.Cookie, 0)
	for _, cookie := range s.jar.Cookies(s.base) {
		expired = append(expired, &http.Cookie{Name: cookie.Name, Value: "", Path: "/", MaxAge: -1})
	}
	s.jar.SetCookies(s.base, expired)
	s.mu.Unlock()
	return s.save()
}
