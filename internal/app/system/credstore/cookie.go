package credstore

import (
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
	"golang.org/x/crypto/hkdf"
)

// tokenKey is the well-known slot inside the cookie session.
const tokenKey = "token"

// CookieConfig configures the browser cookie that carries the token.
type CookieConfig struct {
	Secret string // signing secret; the encryption key is derived from it
	Name   string // cookie name
	Domain string // blank means current host
	MaxAge int    // seconds; 0 keeps the gorilla default (30 days)
	Secure bool   // production: Secure + SameSite=None
}

// CookieBackend owns the gorilla cookie store shared by every request.
// The token is both signed and encrypted because it is a bearer credential.
type CookieBackend struct {
	store *sessions.CookieStore
	name  string
}

// NewCookieBackend builds the cookie store. The secret must be non-empty;
// short secrets are accepted with a warning so local development works.
func NewCookieBackend(cfg CookieConfig, logger *zap.Logger) (*CookieBackend, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(cfg.Secret) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(cfg.Secret)))
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("session cookie name is empty")
	}

	hashKey, blockKey, err := deriveKeys(cfg.Secret)
	if err != nil {
		return nil, err
	}

	store := sessions.NewCookieStore(hashKey, blockKey)
	opts := &sessions.Options{
		Domain:   cfg.Domain,
		Path:     "/",
		MaxAge:   86400 * 30,
		Secure:   cfg.Secure,
		HttpOnly: true,
	}
	if cfg.MaxAge > 0 {
		opts.MaxAge = cfg.MaxAge
	}

	// In prod with Secure cookies, we use None so cookies can be sent in
	// cross-site contexts. In dev, Lax is fine.
	if cfg.Secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts
	store.MaxAge(opts.MaxAge)

	logger.Info("cookie credential store initialized",
		zap.String("name", cfg.Name),
		zap.Bool("secure", cfg.Secure),
		zap.String("domain", cfg.Domain))

	return &CookieBackend{store: store, name: cfg.Name}, nil
}

// deriveKeys expands the configured secret into an HMAC key and an AES-256
// key so operators only manage one value.
func deriveKeys(secret string) (hashKey, blockKey []byte, err error) {
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("coophub session cookie"))
	hashKey = make([]byte, 64)
	blockKey = make([]byte, 32)
	if _, err := io.ReadFull(kdf, hashKey); err != nil {
		return nil, nil, fmt.Errorf("derive cookie hash key: %w", err)
	}
	if _, err := io.ReadFull(kdf, blockKey); err != nil {
		return nil, nil, fmt.Errorf("derive cookie block key: %w", err)
	}
	return hashKey, blockKey, nil
}

// Name returns the cookie name.
func (b *CookieBackend) Name() string { return b.name }

// Options returns the cookie options new sessions start with.
func (b *CookieBackend) Options() *sessions.Options { return b.store.Options }

// Session returns the request's cookie session. A cookie that fails to
// decode (rotated key, tampering) yields a fresh empty session plus the
// decode error, which callers may log and otherwise ignore.
func (b *CookieBackend) Session(r *http.Request) (*sessions.Session, error) {
	return b.store.Get(r, b.name)
}

// Store binds the token slot to one request/response pair.
func (b *CookieBackend) Store(w http.ResponseWriter, r *http.Request) *CookieStore {
	sess, _ := b.Session(r)
	return &CookieStore{sess: sess, w: w, r: r}
}

// CookieStore is the Store for a single browser request. Writes emit a
// Set-Cookie header, so Set and Clear must run before the response body.
type CookieStore struct {
	sess *sessions.Session
	w    http.ResponseWriter
	r    *http.Request
}

func (c *CookieStore) Get() (string, bool) {
	tok, _ := c.sess.Values[tokenKey].(string)
	return tok, tok != ""
}

func (c *CookieStore) Set(token string) error {
	c.sess.Values[tokenKey] = token
	if err := c.sess.Save(c.r, c.w); err != nil {
		return fmt.Errorf("save token cookie: %w", err)
	}
	return nil
}

// Clear drops only the token; other values in the cookie (pending flash
// notifications) survive so the next page can still show them.
func (c *CookieStore) Clear() error {
	if _, ok := c.sess.Values[tokenKey]; !ok {
		return nil
	}
	delete(c.sess.Values, tokenKey)
	if err := c.sess.Save(c.r, c.w); err != nil {
		return fmt.Errorf("clear token cookie: %w", err)
	}
	return nil
}
