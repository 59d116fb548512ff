package tube_test

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-router"
	"github.com/goliatone/go-tube"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// quietLogger drops everything so flow tests stay readable.
type quietLogger struct{}

func (quietLogger) Debug(format string, args ...any) {}
func (quietLogger) Info(format string, args ...any)  {}
func (quietLogger) Warn(format string, args ...any)  {}
func (quietLogger) Error(format string, args ...any) {}

// testConfig implements tube.Config with sane defaults for tests.
type testConfig struct {
	accessSecret  string
	refreshSecret string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	audience      []string
}

func newTestConfig() *testConfig {
	return &testConfig{
		accessSecret:  "test-access-secret",
		refreshSecret: "test-refresh-secret",
		accessTTL:     15 * time.Minute,
		refreshTTL:    240 * time.Hour,
		issuer:        "test-issuer",
		audience:      []string{"test-audience"},
	}
}

func (c *testConfig) GetAccessTokenSecret() string             { return c.accessSecret }
func (c *testConfig) GetRefreshTokenSecret() string            { return c.refreshSecret }
func (c *testConfig) GetAccessTokenExpiration() time.Duration  { return c.accessTTL }
func (c *testConfig) GetRefreshTokenExpiration() time.Duration { return c.refreshTTL }
func (c *testConfig) GetIssuer() string                        { return c.issuer }
func (c *testConfig) GetAudience() []string                    { return c.audience }
func (c *testConfig) GetContextKey() string                    { return "user" }
func (c *testConfig) GetTokenLookup() string {
	return "header:Authorization,cookie:accessToken"
}
func (c *testConfig) GetAuthScheme() string { return "Bearer" }

// memIdentityStore is an in-memory tube.IdentityStore with failure injection.
type memIdentityStore struct {
	users    map[uuid.UUID]*tube.User
	findErr  error
	writeErr error
}

func newMemIdentityStore(users ...*tube.User) *memIdentityStore {
	s := &memIdentityStore{users: map[uuid.UUID]*tube.User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memIdentityStore) FindByIdentifier(ctx context.Context, identifier string) (*tube.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}

	needle := strings.ToLower(strings.TrimSpace(identifier))
	for _, u := range s.users {
		if strings.ToLower(u.Username) == needle || strings.ToLower(u.Email) == needle {
			return u, nil
		}
	}

	return nil, tube.ErrIdentityNotFound
}

func (s *memIdentityStore) FindByID(ctx context.Context, id uuid.UUID) (*tube.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}

	if u, ok := s.users[id]; ok {
		return u, nil
	}

	return nil, tube.ErrIdentityNotFound
}

func (s *memIdentityStore) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	if s.writeErr != nil {
		return s.writeErr
	}

	u, ok := s.users[id]
	if !ok {
		return tube.ErrIdentityNotFound
	}

	u.PasswordHash = passwordHash
	return nil
}

// memSessionStore is an in-memory tube.SessionStore with failure injection.
type memSessionStore struct {
	slots    map[uuid.UUID]string
	getErr   error
	setErr   error
	clearErr error
	setCalls int
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{slots: map[uuid.UUID]string{}}
}

func (s *memSessionStore) Get(ctx context.Context, userID uuid.UUID) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	return s.slots[userID], nil
}

func (s *memSessionStore) Set(ctx context.Context, userID uuid.UUID, token string) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.setCalls++
	s.slots[userID] = token
	return nil
}

func (s *memSessionStore) Clear(ctx context.Context, userID uuid.UUID) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	delete(s.slots, userID)
	return nil
}

// MockContext mocks router.Context
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}
