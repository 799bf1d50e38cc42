package brainstorm

import (
	"crypto/rand"
	"testing"
	"time"

	"traveler/cmd/server/ctxkeys"
	"traveler/cmd/server/testutil"
	"traveler/internal/services/brainstorm"

	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// MockHub implements the Hub interface for testing
type MockHub struct {
	subscribers    map[ulid.ULID]*brainstorm.Subscriber
	subscribeCount int
}

func NewMockHub() *MockHub {
	return &MockHub{
		subscribers: make(map[ulid.ULID]*brainstorm.Subscriber),
	}
}

func (m *MockHub) Subscribe(connULID ulid.ULID, tripID bson.ObjectID) (*brainstorm.Subscriber, func()) {
	sub := &brainstorm.Subscriber{
		TripID: tripID,
		Ch:     make(chan brainstorm.Event, 10),
		Done:   make(chan struct{}),
	}
	m.subscribers[connULID] = sub
	m.subscribeCount++

	cancel := func() {
		m.Unsubscribe(connULID)
	}
	return sub, cancel
}

func (m *MockHub) Unsubscribe(connULID ulid.ULID) {
	if sub, exists := m.subscribers[connULID]; exists {
		close(sub.Ch)
		close(sub.Done)
		delete(m.subscribers, connULID)
	}
}

func (m *MockHub) GetSubscriberCount() int {
	return len(m.subscribers)
}

// WebSocketTestConfig holds configuration for WebSocket tests
type WebSocketTestConfig struct {
	Secret        string
	MaxSessionSec int
}

// DefaultWebSocketTestConfig returns a default test configuration
func DefaultWebSocketTestConfig() WebSocketTestConfig {
	return WebSocketTestConfig{
		Secret:        "test-secret-key-with-32-characters",
		MaxSessionSec: 900,
	}
}

// SetupWebSocketHandlersApp creates a test app with WebSocket handlers
func SetupWebSocketHandlersApp(t *testing.T, config WebSocketTestConfig) (*fiber.App, *MockHub, *WebSocketHandlers) {
	t.Helper()

	app := testutil.CreateTestApp(t)
	hub := NewMockHub()
	wsHandlers := NewWebSocketHandlers(hub, config.Secret, config.MaxSessionSec)

	app.Get("/ws/trips/:tripId/brainstorm", wsHandlers.WSUpgrade, func(c *fiber.Ctx) error {
		userID := c.Locals(ctxkeys.UserIDKey).(string)
		tripID := c.Locals(tripIDLocalKey).(string)
		return c.JSON(fiber.Map{
			"user_id": userID,
			"trip_id": tripID,
		})
	})

	return app, hub, wsHandlers
}

// CreateTestJWTForWebSocket creates a JWT token for WebSocket testing
func CreateTestJWTForWebSocket(userID, name, secret string, expiry time.Duration) (string, error) {
	return testutil.CreateTestJWT(userID, name, []byte(secret), expiry)
}

// WSUpgradeTestCase represents a WebSocket upgrade test case
type WSUpgradeTestCase struct {
	Name           string
	Token          *string // nil means no token
	ExpectedStatus int
}

// GetStandardWSUpgradeTestCases returns common WebSocket upgrade test cases
func GetStandardWSUpgradeTestCases(t *testing.T, secret string) []WSUpgradeTestCase {
	t.Helper()

	userID := bson.NewObjectID().Hex()

	validToken, err := CreateTestJWTForWebSocket(userID, "Maya", secret, time.Hour)
	require.NoError(t, err)

	expiredToken, err := CreateTestJWTForWebSocket(userID, "Maya", secret, -time.Hour)
	require.NoError(t, err)

	invalidToken := "invalid-token"

	return []WSUpgradeTestCase{
		{
			Name:           "ValidToken",
			Token:          &validToken,
			ExpectedStatus: 200,
		},
		{
			Name:           "MissingToken",
			Token:          nil,
			ExpectedStatus: 401,
		},
		{
			Name:           "InvalidToken",
			Token:          &invalidToken,
			ExpectedStatus: 401,
		},
		{
			Name:           "ExpiredToken",
			Token:          &expiredToken,
			ExpectedStatus: 401,
		},
	}
}

// WebSocketConnectionTest subscribes a fresh connection with cleanup
func WebSocketConnectionTest(t *testing.T, hub *MockHub, tripID bson.ObjectID) *brainstorm.Subscriber {
	t.Helper()

	now := time.Now().UTC()
	connULID := ulid.MustNew(ulid.Timestamp(now), rand.Reader)

	sub, cancel := hub.Subscribe(connULID, tripID)

	t.Cleanup(cancel)

	return sub
}
