package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/geotrack/tracker-client/internal/client/repositories/metadata"
	"golang.org/x/net/publicsuffix"
)

const cookiesKey = "transport_cookies"

// CookieStore persists the authority's cookies between runs.
type CookieStore interface {
	LoadCookies(ctx context.Context) ([]*http.Cookie, error)
	SaveCookies(ctx context.Context, cookies []*http.Cookie) error
}

// storedCookie keeps the attributes the jar needs to scope and expire a
// cookie after a restart. A missing Expires means a session cookie.
type storedCookie struct {
	Name     string     `json:"name"`
	Value    string     `json:"value"`
	Path     string     `json:"path,omitempty"`
	Domain   string     `json:"domain,omitempty"`
	Expires  *time.Time `json:"expires,omitempty"`
	Secure   bool       `json:"secure,omitempty"`
	HttpOnly bool       `json:"http_only,omitempty"`
}

func toStored(c *http.Cookie) storedCookie {
	sc := storedCookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Domain:   c.Domain,
		Secure:   c.Secure,
		HttpOnly: c.HttpOnly,
	}
	if !c.Expires.IsZero() {
		exp := c.Expires.UTC()
		sc.Expires = &exp
	}
	return sc
}

func (sc storedCookie) cookie() *http.Cookie {
	c := &http.Cookie{
		Name:     sc.Name,
		Value:    sc.Value,
		Path:     sc.Path,
		Domain:   sc.Domain,
		Secure:   sc.Secure,
		HttpOnly: sc.HttpOnly,
	}
	if sc.Expires != nil {
		c.Expires = *sc.Expires
	}
	return c
}

// MetadataCookieStore keeps cookies as one JSON row of the metadata table.
type MetadataCookieStore struct {
	repo metadata.Repository
}

func NewMetadataCookieStore(repo metadata.Repository) *MetadataCookieStore {
	return &MetadataCookieStore{repo: repo}
}

func (s *MetadataCookieStore) LoadCookies(ctx context.Context) ([]*http.Cookie, error) {
	data, err := s.repo.Get(ctx, cookiesKey)
	if err != nil || data == nil {
		return nil, err
	}

	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode cookies: %w", err)
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, c.cookie())
	}
	return cookies, nil
}

func (s *MetadataCookieStore) SaveCookies(ctx context.Context, cookies []*http.Cookie) error {
	if len(cookies) == 0 {
		return s.repo.Delete(ctx, cookiesKey)
	}

	stored := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, toStored(c))
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode cookies: %w", err)
	}
	return s.repo.Set(ctx, cookiesKey, data)
}

// issuedCookies remembers the attributes the authority sent with each
// cookie. http.CookieJar only hands back name and value, so without this a
// restored cookie would lose its expiry and scope.
type issuedCookies struct {
	mu     sync.Mutex
	byName map[string]*http.Cookie
}

func newIssuedCookies() *issuedCookies {
	return &issuedCookies{byName: make(map[string]*http.Cookie)}
}

// remember records Set-Cookie attributes. Max-Age is turned into an absolute
// expiry relative to now; a deleting cookie is forgotten.
func (ic *issuedCookies) remember(cookies []*http.Cookie, now time.Time) {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	for _, c := range cookies {
		if c.MaxAge < 0 || (!c.Expires.IsZero() && !c.Expires.After(now)) {
			delete(ic.byName, c.Name)
			continue
		}
		cp := *c
		if c.MaxAge > 0 {
			cp.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
			cp.MaxAge = 0
		}
		ic.byName[c.Name] = &cp
	}
}

// annotate merges remembered attributes into the jar's name/value pairs.
// The jar stays the authority on which cookies are live.
func (ic *issuedCookies) annotate(live []*http.Cookie) []*http.Cookie {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	out := make([]*http.Cookie, 0, len(live))
	for _, c := range live {
		if attrs, ok := ic.byName[c.Name]; ok {
			cp := *attrs
			cp.Value = c.Value
			out = append(out, &cp)
			continue
		}
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

func (ic *issuedCookies) reset() {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	ic.byName = make(map[string]*http.Cookie)
}

// resettableJar is an http.CookieJar that can be emptied atomically, which
// is how logout drops the session credential.
type resettableJar struct {
	mu  sync.RWMutex
	jar *cookiejar.Jar
}

func newResettableJar() (*resettableJar, error) {
	jar, err := newJar()
	if err != nil {
		return nil, err
	}
	return &resettableJar{jar: jar}, nil
}

func newJar() (*cookiejar.Jar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

func (j *resettableJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	j.jar.SetCookies(u, cookies)
}

func (j *resettableJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.jar.Cookies(u)
}

func (j *resettableJar) Reset() error {
	jar, err := newJar()
	if err != nil {
		return err
	}
	j.mu.Lock()
	j.jar = jar
	j.mu.Unlock()
	return nil
}
