package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"poll-be/pkg/logger"
)

// CORSConfig is the cross-origin policy of the poll API
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// NewCORSConfig returns the policy for browsers on origins. An empty origin
// list accepts every origin.
func NewCORSConfig(origins []string) *CORSConfig {
	return &CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"Authorization",
			"X-Requested-With",
			RequestIDHeader,
		},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           86400,
	}
}

// corsPolicy is a CORSConfig with its response headers rendered once
type corsPolicy struct {
	anyOrigin bool
	origins   map[string]struct{}
	static    map[string]string
}

func newCORSPolicy(cfg *CORSConfig) *corsPolicy {
	p := &corsPolicy{
		anyOrigin: len(cfg.AllowedOrigins) == 0,
		origins:   make(map[string]struct{}, len(cfg.AllowedOrigins)),
		static:    make(map[string]string),
	}
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			p.anyOrigin = true
		}
		p.origins[origin] = struct{}{}
	}

	if cfg.AllowCredentials {
		p.static["Access-Control-Allow-Credentials"] = "true"
	}
	if len(cfg.AllowedMethods) > 0 {
		p.static["Access-Control-Allow-Methods"] = strings.Join(cfg.AllowedMethods, ", ")
	}
	if len(cfg.AllowedHeaders) > 0 {
		p.static["Access-Control-Allow-Headers"] = strings.Join(cfg.AllowedHeaders, ", ")
	}
	if len(cfg.ExposedHeaders) > 0 {
		p.static["Access-Control-Expose-Headers"] = strings.Join(cfg.ExposedHeaders, ", ")
	}
	if cfg.MaxAge > 0 {
		p.static["Access-Control-Max-Age"] = strconv.Itoa(cfg.MaxAge)
	}
	return p
}

func (p *corsPolicy) allows(origin string) bool {
	if p.anyOrigin {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

// CORS answers preflight requests and decorates responses to allowed origins.
// Requests without an Origin header pass through untouched.
func CORS(config *CORSConfig, log *logger.Logger) func(http.Handler) http.Handler {
	if config == nil {
		config = NewCORSConfig(nil)
	}
	policy := newCORSPolicy(config)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				h := w.Header()
				h.Add("Vary", "Origin")
				if policy.allows(origin) {
					h.Set("Access-Control-Allow-Origin", origin)
					for k, v := range policy.static {
						h.Set(k, v)
					}
				} else {
					log.WithFields(map[string]interface{}{
						"origin": origin,
						"path":   r.URL.Path,
					}).Debug("Rejected cross-origin request")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
