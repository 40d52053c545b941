package hostsession

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-session-relay/credential"
)

// DefaultChunkSize keeps each cookie, name and attributes included, under the
// 4096 byte browser limit.
const DefaultChunkSize = 3900

// CookieJar reads and writes the sealed session value, splitting it across
// name.0, name.1, ... when it does not fit one cookie.
type CookieJar struct {
	name      string
	maxAge    time.Duration
	chunkSize int
}

// JarOption configures a CookieJar.
type JarOption func(*CookieJar)

// WithChunkSize overrides DefaultChunkSize.
func WithChunkSize(n int) JarOption {
	return func(j *CookieJar) {
		if n > 0 {
			j.chunkSize = n
		}
	}
}

// NewCookieJar creates a CookieJar for the cookie called name.
func NewCookieJar(name string, maxAge time.Duration, opts ...JarOption) *CookieJar {
	j := &CookieJar{name: name, maxAge: maxAge, chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

var _ credential.Extractor = (*CookieJar)(nil)

// Extract returns the sealed value exactly as the browser sent it.
func (j *CookieJar) Extract(r *http.Request) (credential.Opaque, bool) {
	v, ok := j.read(r)
	if !ok {
		return nil, false
	}
	return credential.Opaque(v), true
}

func (j *CookieJar) read(r *http.Request) (string, bool) {
	if c, err := r.Cookie(j.name); err == nil && c.Value != "" {
		return c.Value, true
	}

	chunks := j.chunks(r)
	if len(chunks) == 0 {
		return "", false
	}
	var b strings.Builder
	for i, c := range chunks {
		// A gap means a chunk went missing; a partial value is no value.
		if c.index != i {
			return "", false
		}
		b.WriteString(c.value)
	}
	return b.String(), true
}

type chunk struct {
	index int
	value string
}

func (j *CookieJar) chunks(r *http.Request) []chunk {
	prefix := j.name + "."
	var out []chunk
	for _, c := range r.Cookies() {
		if !strings.HasPrefix(c.Name, prefix) {
			continue
		}
		i, err := strconv.Atoi(strings.TrimPrefix(c.Name, prefix))
		if err != nil || i < 0 {
			continue
		}
		out = append(out, chunk{index: i, value: c.Value})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].index < out[b].index })
	return out
}

// Write stores value, replacing whatever the request carried.
func (j *CookieJar) Write(w http.ResponseWriter, r *http.Request, value string) {
	maxAge := int(j.maxAge.Seconds())
	written := map[string]bool{}

	if len(value) <= j.chunkSize {
		http.SetCookie(w, j.cookie(r, j.name, value, maxAge))
		written[j.name] = true
	} else {
		for i := 0; len(value) > 0; i++ {
			n := min(j.chunkSize, len(value))
			name := j.name + "." + strconv.Itoa(i)
			http.SetCookie(w, j.cookie(r, name, value[:n], maxAge))
			written[name] = true
			value = value[n:]
		}
	}

	j.expireExcept(w, r, written)
}

// Clear expires every cookie that makes up the session.
func (j *CookieJar) Clear(w http.ResponseWriter, r *http.Request) {
	j.expireExcept(w, r, nil)
	// Always send the base cookie expiry, the browser may hold it even when
	// this request did not.
	if _, err := r.Cookie(j.name); err != nil {
		http.SetCookie(w, j.cookie(r, j.name, "", -1))
	}
}

func (j *CookieJar) expireExcept(w http.ResponseWriter, r *http.Request, keep map[string]bool) {
	if _, err := r.Cookie(j.name); err == nil && !keep[j.name] {
		http.SetCookie(w, j.cookie(r, j.name, "", -1))
	}
	for _, c := range j.chunks(r) {
		name := j.name + "." + strconv.Itoa(c.index)
		if !keep[name] {
			http.SetCookie(w, j.cookie(r, name, "", -1))
		}
	}
}

func (j *CookieJar) cookie(r *http.Request, name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}

func isSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return r.Header.Get("X-Forwarded-Proto") == "https"
}
