package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	cookieName = "storefront"
	sidField   = "sid"
	adminField = "admin"
)

// CookieManager ties a browser to its Session through a signed cookie that
// only carries the opaque session id and the admin flag.
type CookieManager struct {
	store   *sessions.CookieStore
	storage Storage
}

func NewCookieManager(key []byte, storage Storage, ttl time.Duration, secure bool) *CookieManager {
	store := sessions.NewCookieStore(key)
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode
	store.Options.Path = "/"
	store.Options.MaxAge = int(ttl.Seconds())
	return &CookieManager{store: store, storage: storage}
}

// cookie returns the gorilla session cached for r. An undecodable cookie
// yields a fresh session, so the decode error is dropped.
func (m *CookieManager) cookie(r *http.Request) *sessions.Session {
	sess, _ := m.store.Get(r, cookieName)
	return sess
}

// Session resolves the caller's session, minting a new id (and cookie) on
// the first request.
func (m *CookieManager) Session(w http.ResponseWriter, r *http.Request) (*Session, error) {
	sess := m.cookie(r)
	if sid, ok := sess.Values[sidField].(string); ok && sid != "" {
		return New(sid, m.storage), nil
	}

	sid := uuid.NewString()
	sess.Values[sidField] = sid
	if err := sess.Save(r, w); err != nil {
		return nil, err
	}
	return New(sid, m.storage), nil
}

func (m *CookieManager) SetAdmin(w http.ResponseWriter, r *http.Request, email string) error {
	sess := m.cookie(r)
	sess.Values[adminField] = email
	return sess.Save(r, w)
}

func (m *CookieManager) IsAdmin(r *http.Request) bool {
	email, ok := m.cookie(r).Values[adminField].(string)
	return ok && email != ""
}

func (m *CookieManager) ClearAdmin(w http.ResponseWriter, r *http.Request) error {
	sess := m.cookie(r)
	delete(sess.Values, adminField)
	return sess.Save(r, w)
}
