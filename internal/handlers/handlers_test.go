package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"localserve/internal/cart"
	"localserve/internal/database"
	"localserve/internal/idempotency"
	"localserve/internal/middleware"
	"localserve/internal/models"
	"localserve/internal/pricing"
	"localserve/internal/tracker"
)

const testSecret = "handler-test-secret"

type fakeOrderRepo struct {
	mu        sync.Mutex
	orders      map[primitive.ObjectID]models.Order
	insertErr   error
	insertPanic bool
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[primitive.ObjectID]models.Order)}
}

func (f *fakeOrderRepo) Insert(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertPanic {
		panic("order store crashed")
	}
	if f.insertErr != nil {
		return f.insertErr
	}
	order.ID = primitive.NewObjectID()
	f.orders[order.ID] = *order
	return nil
}

func (f *fakeOrderRepo) FindByID(_ context.Context, id primitive.ObjectID) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return models.Order{}, database.ErrNotFound
	}
	return order, nil
}

func (f *fakeOrderRepo) sorted() []models.Order {
	out := make([]models.Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeOrderRepo) ListForCustomer(_ context.Context, userID *primitive.ObjectID, owner string, limit int64) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Order{}
	for _, o := range f.sorted() {
		mine := o.CartOwner == owner
		if userID != nil {
			mine = o.UserID != nil && *o.UserID == *userID
		}
		if mine && int64(len(out)) < limit {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) List(_ context.Context, status tracker.Status, page, limit int64) ([]models.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []models.Order
	for _, o := range f.sorted() {
		if status == "" || o.Status == status {
			matched = append(matched, o)
		}
	}
	start := (page - 1) * limit
	if start > int64(len(matched)) {
		start = int64(len(matched))
	}
	end := start + limit
	if end > int64(len(matched)) {
		end = int64(len(matched))
	}
	return matched[start:end], int64(len(matched)), nil
}

func (f *fakeOrderRepo) UpdateTracking(_ context.Context, order models.Order, from tracker.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.orders[order.ID]
	if !ok || stored.Status != from {
		return database.ErrStale
	}
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[id]; !ok {
		return database.ErrNotFound
	}
	delete(f.orders, id)
	return nil
}

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[primitive.ObjectID]models.Booking
}

func (f *fakeBookingRepo) Insert(_ context.Context, booking *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking.ID = primitive.NewObjectID()
	f.bookings[booking.ID] = *booking
	return nil
}

func (f *fakeBookingRepo) FindByID(_ context.Context, id primitive.ObjectID) (models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return models.Booking{}, database.ErrNotFound
	}
	return b, nil
}

type fakeAddressRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID][]models.Address
}

func (f *fakeAddressRepo) Addresses(_ context.Context, userID primitive.ObjectID) ([]models.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	addresses, ok := f.users[userID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return append([]models.Address(nil), addresses...), nil
}

func (f *fakeAddressRepo) SaveAddresses(_ context.Context, userID primitive.ObjectID, addresses []models.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[userID]; !ok {
		return database.ErrNotFound
	}
	f.users[userID] = addresses
	return nil
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[primitive.ObjectID]models.User
	findErr  error
}

func (f *fakeAccountRepo) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.accounts {
		if u.Email == user.Email {
			return database.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	f.accounts[user.ID] = *user
	return nil
}

func (f *fakeAccountRepo) FindByEmail(_ context.Context, email, role string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return models.User{}, f.findErr
	}
	for _, u := range f.accounts {
		if u.Email == email && (role == "" || u.Role == role) {
			return u, nil
		}
	}
	return models.User{}, database.ErrNotFound
}

func (f *fakeAccountRepo) FindByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return models.User{}, f.findErr
	}
	u, ok := f.accounts[id]
	if !ok {
		return models.User{}, database.ErrNotFound
	}
	return u, nil
}

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[primitive.ObjectID]models.RefreshToken
}

func (f *fakeTokenRepo) Insert(_ context.Context, token *models.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	token.ID = primitive.NewObjectID()
	f.tokens[token.ID] = *token
	return nil
}

func (f *fakeTokenRepo) FindByHash(_ context.Context, hash string) (models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.TokenHash == hash {
			return t, nil
		}
	}
	return models.RefreshToken{}, database.ErrNotFound
}

func (f *fakeTokenRepo) Rotate(_ context.Context, id, replacedBy primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[id]
	if !ok || t.RevokedAt != nil {
		return database.ErrStale
	}
	t.RevokedAt = &at
	t.ReplacedBy = &replacedBy
	f.tokens[id] = t
	return nil
}

func (f *fakeTokenRepo) Revoke(_ context.Context, id primitive.ObjectID, at time.Time) error {
	return f.revokeWhere(func(t models.RefreshToken) bool { return t.ID == id }, at)
}

func (f *fakeTokenRepo) RevokeByHash(_ context.Context, hash string, at time.Time) error {
	return f.revokeWhere(func(t models.RefreshToken) bool { return t.TokenHash == hash }, at)
}

func (f *fakeTokenRepo) RevokeAllForUser(_ context.Context, userID primitive.ObjectID, at time.Time) error {
	_ = f.revokeWhere(func(t models.RefreshToken) bool { return t.UserID == userID }, at)
	return nil
}

func (f *fakeTokenRepo) revokeWhere(match func(models.RefreshToken) bool, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	found := false
	for id, t := range f.tokens {
		if t.RevokedAt == nil && match(t) {
			t.RevokedAt = &at
			f.tokens[id] = t
			found = true
		}
	}
	if !found {
		return database.ErrNotFound
	}
	return nil
}

// active counts the unrevoked tokens of a user.
func (f *fakeTokenRepo) active(userID primitive.ObjectID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			n++
		}
	}
	return n
}

type testEnv struct {
	router   *gin.Engine
	carts    *cart.MemoryStore
	orders   *fakeOrderRepo
	bookings *fakeBookingRepo
	users    *fakeAddressRepo
	accounts *fakeAccountRepo
	tokens   *fakeTokenRepo
	pingErr  error
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		carts:    cart.NewMemoryStore(),
		orders:   newFakeOrderRepo(),
		bookings: &fakeBookingRepo{bookings: make(map[primitive.ObjectID]models.Booking)},
		users:    &fakeAddressRepo{users: make(map[primitive.ObjectID][]models.Address)},
		accounts: &fakeAccountRepo{accounts: make(map[primitive.ObjectID]models.User)},
		tokens:   &fakeTokenRepo{tokens: make(map[primitive.ObjectID]models.RefreshToken)},
	}

	r := gin.New()
	RegisterRoutes(r, Deps{
		Ping:          func(context.Context) error { return env.pingErr },
		Tokens:        TokenConfig{Secret: testSecret, AccessTTL: time.Hour, RefreshTTL: time.Hour},
		Accounts:      env.accounts,
		RefreshTokens: env.tokens,
		Carts:         env.carts,
		Orders:        env.orders,
		Bookings:      env.bookings,
		Users:         env.users,
		Claims:        idempotency.NewMemoryStore(10 * time.Minute),
		Rates:         pricing.DefaultRates(),
	})
	env.router = r
	return env
}

// addUser registers a user with the given addresses and returns a bearer
// header value for it.
func (e *testEnv) addUser(t *testing.T, role string, addresses ...models.Address) (primitive.ObjectID, string) {
	t.Helper()
	id := primitive.NewObjectID()
	e.users.users[id] = addresses

	token, err := signAccessToken(models.User{ID: id, Email: "u@example.com", Role: role}, testSecret, time.Hour, time.Now())
	require.NoError(t, err)
	return id, "Bearer " + token
}

type request struct {
	method  string
	path    string
	body    any
	headers map[string]string
}

func (e *testEnv) do(t *testing.T, req request) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if req.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(req.body))
	}

	httpReq := httptest.NewRequest(req.method, req.path, &body)
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httpReq)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func guest(session string) map[string]string {
	return map[string]string{middleware.CartSessionHeader: session}
}

func floatPtr(v float64) *float64 { return &v }
