//go:build e2e

package test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestBrainstormBoardE2E(t *testing.T) {
	env := SetupTestEnvironment(t)

	userID := bson.NewObjectID()
	tripID := bson.NewObjectID().Hex()
	token := mintE2EToken(t, userID, "Maya")
	authHdr := map[string]string{"Authorization": "Bearer " + token}

	t.Run("requests without token are rejected", func(t *testing.T) {
		resp, err := httpJSON(http.MethodGet, env.BaseURL+itemsEndpoint(tripID), nil, nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("items without position land on the spiral", func(t *testing.T) {
		first := ExecuteHTTPJSONStep(t, HTTPJSONStep{
			Name:           "create first item",
			Method:         http.MethodPost,
			URL:            itemsEndpoint(tripID),
			Body:           map[string]any{"type": "idea", "title": "Ramen crawl"},
			Headers:        authHdr,
			ExpectedStatus: http.StatusCreated,
			Validator: ItemFieldValidator(func(t *testing.T, item map[string]any) {
				assert.Equal(t, 100.0, item["position_x"])
				assert.Equal(t, 100.0, item["position_y"])
			}),
		}, env.BaseURL)

		ExecuteHTTPJSONStep(t, HTTPJSONStep{
			Name:           "second item avoids the first",
			Method:         http.MethodPost,
			URL:            itemsEndpoint(tripID),
			Body:           map[string]any{"type": "note", "title": "Check opening hours"},
			Headers:        authHdr,
			ExpectedStatus: http.StatusCreated,
			Validator: ItemFieldValidator(func(t *testing.T, item map[string]any) {
				assert.Equal(t, 360.0, item["position_x"])
				assert.Equal(t, 100.0, item["position_y"])
			}),
		}, env.BaseURL)

		firstID := GetItemID(t, first)

		list := ExecuteHTTPJSONStep(t, HTTPJSONStep{
			Name:           "list returns newest first",
			Method:         http.MethodGet,
			URL:            itemsEndpoint(tripID),
			Headers:        authHdr,
			ExpectedStatus: http.StatusOK,
		}, env.BaseURL)

		items, ok := list["items"].([]any)
		require.True(t, ok)
		require.Len(t, items, 2)
		newest := items[0].(map[string]any)
		assert.Equal(t, "Check opening hours", newest["title"])

		ExecuteHTTPJSONStep(t, HTTPJSONStep{
			Name:           "move clamps negative coordinates",
			Method:         http.MethodPatch,
			URL:            "/api/v1/brainstorm/items/" + firstID + "/position",
			Body:           map[string]any{"position_x": -30, "position_y": 420},
			Headers:        authHdr,
			ExpectedStatus: http.StatusOK,
			Validator: ItemFieldValidator(func(t *testing.T, item map[string]any) {
				assert.Equal(t, 0.0, item["position_x"])
				assert.Equal(t, 420.0, item["position_y"])
			}),
		}, env.BaseURL)

		ExecuteHTTPJSONStep(t, HTTPJSONStep{
			Name:           "update patches fields and sanitizes markup",
			Method:         http.MethodPatch,
			URL:            "/api/v1/brainstorm/items/" + firstID,
			Body:           map[string]any{"title": "Ramen crawl <script>alert(1)</script>"},
			Headers:        authHdr,
			ExpectedStatus: http.StatusOK,
			Validator: ItemFieldValidator(func(t *testing.T, item map[string]any) {
				title := item["title"].(string)
				assert.NotContains(t, title, "<script>")
				assert.Contains(t, title, "Ramen crawl")
				// Position survives a field update untouched.
				assert.Equal(t, 0.0, item["position_x"])
			}),
		}, env.BaseURL)

		resp, err := httpJSON(http.MethodDelete, env.BaseURL+"/api/v1/brainstorm/items/"+firstID, nil, authHdr)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		ExecuteHTTPJSONStep(t, HTTPJSONStep{
			Name:           "deleting again maps to 404",
			Method:         http.MethodDelete,
			URL:            "/api/v1/brainstorm/items/" + firstID,
			Headers:        authHdr,
			ExpectedStatus: http.StatusNotFound,
		}, env.BaseURL)
	})

	t.Run("group lifecycle", func(t *testing.T) {
		created := ExecuteHTTPJSONStep(t, HTTPJSONStep{
			Name:           "create group with defaulted geometry",
			Method:         http.MethodPost,
			URL:            groupsEndpoint(tripID),
			Body:           map[string]any{"title": "Day 2: Asakusa", "position_x": 40, "position_y": 60},
			Headers:        authHdr,
			ExpectedStatus: http.StatusCreated,
			Validator: func(t *testing.T, respData map[string]any) {
				group := respData["group"].(map[string]any)
				assert.Equal(t, 320.0, group["width"])
				assert.Equal(t, 240.0, group["height"])
				assert.Equal(t, "#93C5FD", group["color"])
			},
		}, env.BaseURL)

		groupID := GetGroupID(t, created)

		ExecuteHTTPJSONStep(t, HTTPJSONStep{
			Name:           "resize group",
			Method:         http.MethodPatch,
			URL:            "/api/v1/brainstorm/groups/" + groupID,
			Body:           map[string]any{"width": 500, "height": 300},
			Headers:        authHdr,
			ExpectedStatus: http.StatusOK,
			Validator: func(t *testing.T, respData map[string]any) {
				group := respData["group"].(map[string]any)
				assert.Equal(t, 500.0, group["width"])
				assert.Equal(t, "Day 2: Asakusa", group["title"])
			},
		}, env.BaseURL)

		resp, err := httpJSON(http.MethodDelete, env.BaseURL+"/api/v1/brainstorm/groups/"+groupID, nil, authHdr)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})
}

// wsEvent mirrors the broadcast frame shape
type wsEvent struct {
	Type string `json:"type"`
	Item *struct {
		ID        string  `json:"id"`
		Title     string  `json:"title"`
		PositionX float64 `json:"position_x"`
		PositionY float64 `json:"position_y"`
	} `json:"item"`
	ConnID string `json:"conn_id"`
}

func dialBoardWS(t *testing.T, baseURL, tripID, token string) (*gorillaws.Conn, string) {
	t.Helper()

	wsURL := strings.Replace(baseURL, "http://", "ws://", 1) +
		"/ws/trips/" + tripID + "/brainstorm?token=" + token

	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	// First frame is the hello with this connection's id
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var hello wsEvent
	require.NoError(t, conn.ReadJSON(&hello))
	require.Equal(t, "connected", hello.Type)
	require.NotEmpty(t, hello.ConnID)

	return conn, hello.ConnID
}

func readEvent(t *testing.T, conn *gorillaws.Conn, timeout time.Duration) (wsEvent, error) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	var ev wsEvent
	err := conn.ReadJSON(&ev)
	return ev, err
}

func TestBrainstormWSFanoutE2E(t *testing.T) {
	env := SetupTestEnvironment(t)

	tripID := bson.NewObjectID().Hex()
	tokenA := mintE2EToken(t, bson.NewObjectID(), "Maya")
	tokenB := mintE2EToken(t, bson.NewObjectID(), "Ben")

	connA, connIDA := dialBoardWS(t, env.BaseURL, tripID, tokenA)
	connB, _ := dialBoardWS(t, env.BaseURL, tripID, tokenB)

	// A third client on a different trip must never see this trip's events.
	otherTrip := bson.NewObjectID().Hex()
	connOther, _ := dialBoardWS(t, env.BaseURL, otherTrip, tokenB)

	// Client A creates an item, naming its own connection as the origin.
	resp, err := httpJSON(http.MethodPost, env.BaseURL+itemsEndpoint(tripID),
		map[string]any{"type": "idea", "title": "Onsen day"},
		map[string]string{
			"Authorization": "Bearer " + tokenA,
			"X-Client-ID":   connIDA,
		})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var createResp struct {
		Item struct {
			ID string `json:"id"`
		} `json:"item"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&createResp))
	require.NoError(t, resp.Body.Close())

	// B receives the created event.
	ev, err := readEvent(t, connB, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "item.created", ev.Type)
	require.NotNil(t, ev.Item)
	assert.Equal(t, createResp.Item.ID, ev.Item.ID)
	assert.Equal(t, "Onsen day", ev.Item.Title)

	// A named itself as origin, so it gets no echo.
	_, err = readEvent(t, connA, 1*time.Second)
	assert.Error(t, err, "origin connection must not receive its own event")

	// Moves fan out with the minimal payload.
	moveResp, err := httpJSON(http.MethodPatch,
		env.BaseURL+"/api/v1/brainstorm/items/"+createResp.Item.ID+"/position",
		map[string]any{"position_x": 360, "position_y": 100},
		map[string]string{"Authorization": "Bearer " + tokenA})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, moveResp.StatusCode)
	require.NoError(t, moveResp.Body.Close())

	// Without an origin header both subscribers get the event.
	for _, conn := range []*gorillaws.Conn{connA, connB} {
		ev, err := readEvent(t, conn, 5*time.Second)
		require.NoError(t, err)
		assert.Equal(t, "item.moved", ev.Type)
		require.NotNil(t, ev.Item)
		assert.Equal(t, 360.0, ev.Item.PositionX)
		assert.Equal(t, 100.0, ev.Item.PositionY)
		assert.Empty(t, ev.Item.Title, "move events carry only id and position")
	}

	// The other trip's subscriber saw nothing at all.
	_, err = readEvent(t, connOther, 1*time.Second)
	assert.Error(t, err, "events must stay scoped to their trip")
}
