package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/retailpos-backend/api/responses"
	pkgerrors "github.com/angelmondragon/retailpos-backend/pkg/errors"
	"github.com/angelmondragon/retailpos-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/retailpos-backend/pkg/redis"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	replayedHeader       = "Idempotent-Replayed"

	adminReplayTTL = 24 * time.Hour
	saleReplayTTL  = 7 * 24 * time.Hour

	// pending claims expire long before the replay window
	pendingClaimTTL = 2 * time.Minute

	maxIdempotentBody = 1 << 20
)

// idempotentRoute lists a write endpoint that must carry an Idempotency-Key.
// Segments written as {name} match any single path segment.
type idempotentRoute struct {
	method   string
	segments []string
	ttl      time.Duration
}

func route(method, path string, ttl time.Duration) idempotentRoute {
	return idempotentRoute{method: method, segments: splitPath(path), ttl: ttl}
}

var idempotentRoutes = []idempotentRoute{
	route(http.MethodPost, "/api/v1/pos/sales", saleReplayTTL),
	route(http.MethodPost, "/api/v1/pos/carts/{cartId}/checkout", saleReplayTTL),
	route(http.MethodPost, "/api/v1/reservations", saleReplayTTL),
	route(http.MethodPost, "/api/v1/admin/orders/{code}/pickup", adminReplayTTL),
	route(http.MethodPost, "/api/v1/admin/stock/adjustments", adminReplayTTL),
}

func (rt idempotentRoute) matches(method string, segments []string) bool {
	if rt.method != method || len(rt.segments) != len(segments) {
		return false
	}
	for i, want := range rt.segments {
		if strings.HasPrefix(want, "{") {
			continue
		}
		if want != segments[i] {
			return false
		}
	}
	return true
}

func splitPath(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

// storedResponse is what a key resolves to. A record without a status is a
// claim held by a request that is still running.
type storedResponse struct {
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
	RequestHash string `json:"request_hash"`
}

func (s storedResponse) pending() bool { return s.Status == 0 }

// Idempotency claims the key before running the handler, stores the final
// response for the route's replay window and replays it for retries with
// the same body. Server errors release the claim so the client may retry.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, ok := replayWindow(r)
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
			if clientKey == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxIdempotentBody))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "request body too large").
						WithDetails(map[string]any{"limit_bytes": tooLarge.Limit}))
					return
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			sum := sha256.Sum256(body)
			hash := hex.EncodeToString(sum[:])
			key := store.IdempotencyKey(requestScope(r), clientKey)

			claim, _ := json.Marshal(storedResponse{RequestHash: hash})
			claimed, err := store.SetNX(ctx, key, string(claim), pendingClaimTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key"))
				return
			}
			if !claimed {
				replayStored(w, r, store, key, hash, logg)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			status := capture.statusCode()
			if status >= http.StatusInternalServerError {
				if delErr := store.Del(ctx, key); delErr != nil && logg != nil {
					logg.Error(ctx, "release idempotency claim", delErr)
				}
				return
			}

			payload, _ := json.Marshal(storedResponse{
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
				RequestHash: hash,
			})
			if setErr := store.Set(ctx, key, string(payload), ttl); setErr != nil && logg != nil {
				logg.Error(ctx, "store idempotent response", setErr)
			}
		})
	}
}

func replayStored(w http.ResponseWriter, r *http.Request, store pkgredis.IdempotencyStore, key, hash string, logg *logger.Logger) {
	ctx := r.Context()
	raw, err := store.Get(ctx, key)
	if err != nil && !pkgredis.IsNil(err) {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load idempotent response"))
		return
	}
	if raw == "" {
		// claim expired between SETNX and GET
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request with this Idempotency-Key is being retried, try again"))
		return
	}

	var stored storedResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotent response"))
		return
	}
	if stored.RequestHash != hash {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
		return
	}
	if stored.pending() {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request with this Idempotency-Key is still in progress"))
		return
	}

	if stored.ContentType != "" {
		w.Header().Set("Content-Type", stored.ContentType)
	}
	w.Header().Set(replayedHeader, "true")
	w.WriteHeader(stored.Status)
	_, _ = w.Write(stored.Body)
}

// requestScope keeps keys from different operators and endpoints apart.
func requestScope(r *http.Request) string {
	operator := "anonymous"
	if id, ok := OperatorIDFromContext(r.Context()); ok {
		operator = id.String()
	}
	return operator + "|" + r.Method + "|" + r.URL.Path
}

func replayWindow(r *http.Request) (time.Duration, bool) {
	segments := splitPath(routePath(r))
	for _, rt := range idempotentRoutes {
		if rt.matches(r.Method, segments) {
			return rt.ttl, true
		}
	}
	return 0, false
}

func routePath(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		// mounted groups only see a partial "/prefix/*" pattern before routing completes
		if pattern := rc.RoutePattern(); pattern != "" && !strings.HasSuffix(pattern, "*") {
			return pattern
		}
	}
	return r.URL.Path
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
