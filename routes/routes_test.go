package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"doctorsportal/auth"
	"doctorsportal/booking"
	"doctorsportal/db"
	"doctorsportal/directory"
	"doctorsportal/models"
	"doctorsportal/mq"
	"doctorsportal/pay"
	"doctorsportal/ratelim"
	"doctorsportal/stripe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type portal struct {
	handler http.Handler
	store   *db.MemoryStore
	tokens  *auth.TokenService
}

func newPortal(t *testing.T) *portal {
	t.Helper()
	ctx := context.Background()
	store := db.NewMemoryStore()
	require.NoError(t, db.EnsureIndexes(ctx, store))
	_, err := booking.Seed(ctx, store, []models.AppointmentOption{
		{Name: "Teeth Cleaning", Price: 55, Slots: []string{"08.00", "08.30", "09.00"}},
	})
	require.NoError(t, err)

	bus := mq.NewLocalBus()
	tokens := auth.NewTokenService("secret", time.Hour, store)
	d := Deps{
		Tokens:      tokens,
		Bookings:    booking.NewService(store, bus),
		Payments:    pay.NewService(store, stripe.Stub{}, bus),
		Directory:   directory.NewService(store),
		Hub:         booking.NewHub(),
		Idempotency: pay.NewIdempotency(store),
		RateLimiter: ratelim.NewRateLimiter(1000, 1000),
	}
	return &portal{handler: NewRouter(d), store: store, tokens: tokens}
}

func (p *portal) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	p.handler.ServeHTTP(w, req)
	return w
}

func (p *portal) register(t *testing.T, name, email string) string {
	t.Helper()
	w := p.do(t, http.MethodPost, "/user", "", `{"name":"`+name+`","email":"`+email+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = p.do(t, http.MethodGet, "/jwt?email="+email, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out["accessToken"]
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	p := newPortal(t)
	w := p.do(t, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hospital server code start", w.Body.String())
}

func TestBookingFlow(t *testing.T) {
	p := newPortal(t)
	token := p.register(t, "Ann", "ann@example.com")

	bookingBody := `{"patientEmail":"ann@example.com","patientName":"Ann","appointmentDate":"Oct 15, 2026",` +
		`"treatmentName":"Teeth Cleaning","slot":"08.30","price":55}`

	// Booking needs a token.
	w := p.do(t, http.MethodPost, "/bookings", "", bookingBody)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = p.do(t, http.MethodPost, "/bookings", token, bookingBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := decode[map[string]any](t, w)
	assert.Equal(t, true, created["acknowledged"])
	bookingID, _ := created["insertedId"].(string)
	require.Len(t, bookingID, 24)

	w = p.do(t, http.MethodPost, "/bookings", token, bookingBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"acknowledged":false,"message":"Teeth Cleaning already booked for Oct 15, 2026"}`, w.Body.String())

	w = p.do(t, http.MethodGet, "/appointmentOptions?date=Oct%2015,%202026", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	options := decode[[]models.AppointmentOption](t, w)
	require.Len(t, options, 1)
	assert.Equal(t, []string{"08.00", "09.00"}, options[0].Slots)

	w = p.do(t, http.MethodGet, "/appointment/"+bookingID, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "08.30", decode[models.Booking](t, w).Slot)

	w = p.do(t, http.MethodGet, "/appointment/"+strings.Repeat("0", 24), "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", strings.TrimSpace(w.Body.String()))

	w = p.do(t, http.MethodGet, "/appointment/xyz", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = p.do(t, http.MethodGet, "/patientAppointments?email=ann@example.com&date=Oct%2015,%202026", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	lists := decode[[][]models.Booking](t, w)
	require.Len(t, lists, 2)
	assert.Len(t, lists[0], 1)
	assert.Len(t, lists[1], 1)

	w = p.do(t, http.MethodGet, "/patientAppointments?email=bob@example.com", token, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = p.do(t, http.MethodGet, "/appointment/"+bookingID+"/receipt", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))

	// Payment marks the booking paid.
	w = p.do(t, http.MethodPost, "/create-payment-intent", "", `{"price":55}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[map[string]string](t, w)["clientSecret"])

	w = p.do(t, http.MethodPost, "/create-payment-intent", "", `{"price":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = p.do(t, http.MethodPost, "/payment", "", `{"appointmentId":"`+bookingID+`","transactionId":"pi_1","price":55}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.Booking
	require.NoError(t, p.store.FindOne(context.Background(), db.Bookings, bson.M{"paymentId": "pi_1"}, &stored))
	assert.True(t, stored.Paid)

	// Same transaction id again, without an idempotency key.
	w = p.do(t, http.MethodPost, "/payment", "", `{"appointmentId":"`+bookingID+`","transactionId":"pi_1","price":55}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = p.do(t, http.MethodPost, "/payment", "", `{"appointmentId":"`+strings.Repeat("a", 24)+`","transactionId":"pi_2"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJWT(t *testing.T) {
	p := newPortal(t)
	p.register(t, "Ann", "ann@example.com")

	w := p.do(t, http.MethodGet, "/jwt?email=ghost@example.com", "", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"accessToken":""}`, w.Body.String())
}

func TestAdminRoutes(t *testing.T) {
	p := newPortal(t)
	userToken := p.register(t, "Ann", "ann@example.com")
	adminToken := p.register(t, "Root", "root@example.com")

	w := p.do(t, http.MethodPost, "/user", "", `{"name":"Ann","email":"ann@example.com"}`)
	assert.JSONEq(t, `{"isAlreadyRegistered":true}`, w.Body.String())

	w = p.do(t, http.MethodGet, "/users", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = p.do(t, http.MethodGet, "/users", "bogus", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = p.do(t, http.MethodGet, "/users", userToken, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	_, err := p.store.UpdateOne(context.Background(), db.Users, bson.M{"email": "root@example.com"}, bson.M{"role": "admin"}, false)
	require.NoError(t, err)

	w = p.do(t, http.MethodGet, "/users/checkIsAdmin/root@example.com", "", "")
	assert.JSONEq(t, `{"isAdmin":true}`, w.Body.String())

	w = p.do(t, http.MethodGet, "/users", adminToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	users := decode[[]models.User](t, w)
	require.Len(t, users, 2)

	w = p.do(t, http.MethodPut, "/users/makeAdmin/"+users[0].ID.Hex(), adminToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode[map[string]any](t, w)["modifiedCount"])

	w = p.do(t, http.MethodPost, "/doctor", adminToken, `{"name":"Dr. Rahman","specialty":"Teeth Cleaning"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	doctorID := decode[map[string]any](t, w)["insertedId"].(string)

	w = p.do(t, http.MethodGet, "/doctors", adminToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Doctor](t, w), 1)

	w = p.do(t, http.MethodDelete, "/doctor?_id="+doctorID, adminToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"acknowledged":true,"deletedCount":1}`, w.Body.String())

	w = p.do(t, http.MethodDelete, "/user?_id="+users[0].ID.Hex(), adminToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"acknowledged":true,"deletedCount":1}`, w.Body.String())

	w = p.do(t, http.MethodGet, "/specialties", "", "")
	assert.JSONEq(t, `[{"name":"Teeth Cleaning"}]`, w.Body.String())
}

func TestBookingIdempotencyAfterAuth(t *testing.T) {
	p := newPortal(t)
	token := p.register(t, "Ann", "ann@example.com")

	bookingBody := `{"patientEmail":"ann@example.com","patientName":"Ann","appointmentDate":"Oct 16, 2026",` +
		`"treatmentName":"Teeth Cleaning","slot":"08.00","price":55}`
	send := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(bookingBody))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", "book-1")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		p.handler.ServeHTTP(w, req)
		return w
	}

	w := send("")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = send(token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, w.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, true, decode[map[string]any](t, w)["acknowledged"])

	w = send(token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get("Idempotent-Replayed"))
}
