package pay

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"time"

	"doctorsportal/db"
	"doctorsportal/logger"
	"doctorsportal/middleware"
	"doctorsportal/models"
	"doctorsportal/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
	maxBodyBytes      = 1 << 20
)

func computeRequestHash(r *http.Request, body []byte) string {
	h := sha256.New()
	h.Write([]byte(r.Method + ":" + r.URL.Path + ":"))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// CaptureResponseWriter wraps http.ResponseWriter to capture status and body.
type CaptureResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	buf         bytes.Buffer
	wroteHeader bool
}

func NewCaptureResponseWriter(w http.ResponseWriter) *CaptureResponseWriter {
	return &CaptureResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (c *CaptureResponseWriter) WriteHeader(statusCode int) {
	if !c.wroteHeader {
		c.statusCode = statusCode
		c.ResponseWriter.WriteHeader(statusCode)
		c.wroteHeader = true
	}
}

func (c *CaptureResponseWriter) Write(b []byte) (int, error) {
	c.buf.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *CaptureResponseWriter) Status() int { return c.statusCode }

func (c *CaptureResponseWriter) BodyBytes() []byte { return c.buf.Bytes() }

// Idempotency replays the first response for a repeated Idempotency-Key.
type Idempotency struct {
	store db.Store
	now   func() time.Time
}

func NewIdempotency(store db.Store) *Idempotency {
	return &Idempotency{store: store, now: time.Now}
}

// Wrap guards a mutating route that has no authenticated caller. Without
// the header requests pass through. A key reused with a different request,
// or while the first request is still running, gets 409.
func (m *Idempotency) Wrap(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		m.serve(w, r, "", func(w http.ResponseWriter) { next(w, r, ps) })
	}
}

// WrapGuarded is Wrap for routes behind middleware.Guard. Keys are scoped to
// the principal, so one caller never sees another caller's response.
func (m *Idempotency) WrapGuarded(next middleware.Handle) middleware.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params, p middleware.Principal) {
		m.serve(w, r, p.Email, func(w http.ResponseWriter) { next(w, r, ps, p) })
	}
}

func (m *Idempotency) serve(w http.ResponseWriter, r *http.Request, scope string, run func(w http.ResponseWriter)) {
	key := r.Header.Get(idempotencyHeader)
	if key == "" {
		run(w)
		return
	}
	if scope != "" {
		key = scope + ":" + key
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	ctx := r.Context()
	hash := computeRequestHash(r, body)

	claimed, existing, err := m.claim(ctx, r, key, hash)
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).Str("key", key).Msg("idempotency lookup failed")
		utils.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !claimed {
		switch {
		case existing.RequestHash != hash:
			utils.RespondWithError(w, http.StatusConflict, "idempotency key reused with a different request")
		case !existing.Completed:
			utils.RespondWithError(w, http.StatusConflict, "a request with this idempotency key is in progress")
		default:
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(existing.Status)
			w.Write(existing.Body)
		}
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			m.release(ctx, key)
			panic(rec)
		}
	}()

	crw := NewCaptureResponseWriter(w)
	run(crw)
	m.finish(ctx, key, crw)
}

// retryable responses are not stored, so the same key can be used again.
func retryable(status int) bool {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		return true
	}
	return status >= http.StatusInternalServerError
}

// claim inserts a placeholder for key. When the key is taken it returns the
// stored record instead. Expired records are replaced.
func (m *Idempotency) claim(ctx context.Context, r *http.Request, key, hash string) (bool, models.IdempotencyRecord, error) {
	now := m.now()
	rec := models.IdempotencyRecord{
		Key:         key,
		Method:      r.Method,
		Path:        r.URL.Path,
		RequestHash: hash,
		CreatedAt:   now,
		ExpiresAt:   now.Add(idempotencyTTL),
	}

	for attempt := 0; attempt < 2; attempt++ {
		_, err := m.store.InsertOne(ctx, db.Idempotency, rec)
		if err == nil {
			return true, rec, nil
		}
		if !errors.Is(err, db.ErrDuplicateKey) {
			return false, rec, err
		}

		var existing models.IdempotencyRecord
		err = m.store.FindOne(ctx, db.Idempotency, bson.M{"key": key}, &existing)
		if errors.Is(err, db.ErrNotFound) {
			continue
		}
		if err != nil {
			return false, rec, err
		}
		if existing.ExpiresAt.After(now) {
			return false, existing, nil
		}
		if _, err := m.store.DeleteOne(ctx, db.Idempotency, bson.M{"key": key}); err != nil {
			return false, rec, err
		}
	}
	return false, rec, errors.New("idempotency key contended")
}

func (m *Idempotency) finish(ctx context.Context, key string, crw *CaptureResponseWriter) {
	if retryable(crw.Status()) {
		m.release(ctx, key)
		return
	}

	// Detached so a client hang-up does not leave the key locked.
	ctx = context.WithoutCancel(ctx)
	_, err := m.store.UpdateOne(ctx, db.Idempotency,
		bson.M{"key": key},
		bson.M{"completed": true, "status": crw.Status(), "body": crw.BodyBytes()},
		false,
	)
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).Str("key", key).Msg("failed to store idempotent response")
	}
}

func (m *Idempotency) release(ctx context.Context, key string) {
	ctx = context.WithoutCancel(ctx)
	if _, err := m.store.DeleteOne(ctx, db.Idempotency, bson.M{"key": key}); err != nil {
		logger.FromContext(ctx).Error().Err(err).Str("key", key).Msg("failed to release idempotency key")
	}
}
