package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/autoparts-backend/api/responses"
	"github.com/angelmondragon/autoparts-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/autoparts-backend/pkg/errors"
	"github.com/angelmondragon/autoparts-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/autoparts-backend/pkg/redis"
)

// maxRateLimitBody caps how much of an auth payload is buffered to find the email.
const maxRateLimitBody = 16 << 10

// AuthRateLimitPolicy defines the throttling parameters for a traffic surface.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
	proxyHops  int
}

// NewAuthRateLimitPolicy builds a policy with the supplied window and limits.
func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	return AuthRateLimitPolicy{
		name:       strings.ToLower(strings.TrimSpace(name)),
		window:     window,
		ipLimit:    ipLimit,
		emailLimit: emailLimit,
	}
}

// WithTrustedProxyHops makes the IP counter read the client address that the
// outermost of hops trusted proxies appended to X-Forwarded-For.
func (p AuthRateLimitPolicy) WithTrustedProxyHops(hops int) AuthRateLimitPolicy {
	p.proxyHops = max(hops, 0)
	return p
}

// AuthRateLimitPolicies are the per-endpoint auth policies built from config.
type AuthRateLimitPolicies struct {
	Login    AuthRateLimitPolicy
	Register AuthRateLimitPolicy
	Resend   AuthRateLimitPolicy
	Verify   AuthRateLimitPolicy
}

func PoliciesFromConfig(cfg config.AuthRateLimitConfig) AuthRateLimitPolicies {
	hops := cfg.TrustedProxyHops
	return AuthRateLimitPolicies{
		Login:    NewAuthRateLimitPolicy("login", cfg.LoginWindow, cfg.LoginIPLimit, cfg.LoginEmailLimit).WithTrustedProxyHops(hops),
		Register: NewAuthRateLimitPolicy("register", cfg.RegisterWindow, cfg.RegisterIPLimit, cfg.RegisterEmailLimit).WithTrustedProxyHops(hops),
		Resend:   NewAuthRateLimitPolicy("resend", cfg.ResendWindow, cfg.ResendIPLimit, cfg.ResendEmailLimit).WithTrustedProxyHops(hops),
		Verify:   NewAuthRateLimitPolicy("verify", cfg.VerifyWindow, cfg.VerifyIPLimit, cfg.VerifyEmailLimit).WithTrustedProxyHops(hops),
	}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

func (p AuthRateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "auth"
	}
	return p.name
}

func (p AuthRateLimitPolicy) scope(kind, value string) string {
	return p.normalizedName() + ":" + kind + ":" + value
}

// AuthRateLimit enforces fixed-window counters per client IP and per hashed
// email for auth endpoints. Raw emails never reach Redis keys or logs.
func AuthRateLimit(policy AuthRateLimitPolicy, limiter pkgredis.RateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if ip := clientIP(r, policy.proxyHops); policy.ipLimit > 0 && ip != "" {
				allowed, count, err := limiter.FixedWindowAllow(ctx, policy.scope("ip", ip), int64(policy.ipLimit), policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					respondRateLimited(ctx, logg, w, policy, map[string]any{"scope": "ip", "ip": ip, "attempts": count, "limit": policy.ipLimit})
					return
				}
			}

			if policy.emailLimit > 0 && r.Body != nil {
				body, err := io.ReadAll(io.LimitReader(r.Body, maxRateLimitBody))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
					return
				}
				r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))

				if email := normalizeEmail(extractEmail(body)); email != "" {
					hash := hashValue(email)
					allowed, count, err := limiter.FixedWindowAllow(ctx, policy.scope("email", hash), int64(policy.emailLimit), policy.window)
					if err != nil {
						responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
						return
					}
					if !allowed {
						respondRateLimited(ctx, logg, w, policy, map[string]any{"scope": "email", "email_hash": hash, "attempts": count, "limit": policy.emailLimit})
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func respondRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy AuthRateLimitPolicy, fields map[string]any) {
	retryAfter := int(policy.window.Seconds())
	if logg != nil {
		fields["policy"] = policy.normalizedName()
		fields["window_seconds"] = retryAfter
		logg.Warn(logg.WithFields(ctx, fields), "auth.rate_limit.blocked")
	}
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	}
	err := pkgerrors.New(pkgerrors.CodeRateLimit, "Too many attempts, please try again later")
	responses.WriteError(ctx, nil, w, err)
}

// clientIP returns the peer address, or with trusted proxies the entry the
// outermost one appended. Entries left of it are client-controlled.
func clientIP(r *http.Request, trustedHops int) string {
	if r == nil {
		return ""
	}
	if trustedHops > 0 {
		var hops []string
		for _, part := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				hops = append(hops, ip)
			}
		}
		if len(hops) > 0 {
			return hops[max(len(hops)-trustedHops, 0)]
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func extractEmail(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return body.Email
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
