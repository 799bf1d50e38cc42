// cmd/seed/main.go
//
// Seeds a demo brainstorm board over the HTTP API. Intended for local
// development:
//
//	JWT_SECRET=... go run ./cmd/seed -n 40
package main

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// ----------------------------------------------------------------------------
// Config ---------------------------------------------------------------------
var (
	baseURL = flag.String("url", env("API_BASE_URL", "http://localhost:8080"), "Server base URL")
	tripID  = flag.String("trip", env("TRIP_ID", ""), "Trip ID to seed (random when empty)")
	secret  = flag.String("secret", env("JWT_SECRET", ""), "JWT secret shared with the server")
	nItems  = flag.Int("n", envInt("COUNT", 30), "How many items to create")
	nGroups = flag.Int("groups", envInt("GROUPS", 3), "How many groups to create")
)

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil && i > 0 {
			return i
		}
	}
	return def
}

// itemTypes weights idea/note heavier; places get coordinates so the map
// companion view has markers to show.
var itemTypes = []string{"idea", "idea", "note", "note", "place", "place", "link"}

// ----------------------------------------------------------------------------
// HTTP helpers ---------------------------------------------------------------
func postJSON(path string, body any, token string) (*http.Response, error) {
	b, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, *baseURL+path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	return http.DefaultClient.Do(req)
}

func drain(body io.ReadCloser) []byte {
	defer body.Close()
	data, _ := io.ReadAll(body)
	return data
}

// mintToken signs a short-lived access token the way the main travel app
// would. Requires the server's JWT_SECRET.
func mintToken(userID bson.ObjectID) (string, error) {
	if *secret == "" {
		return "", fmt.Errorf("JWT_SECRET is required (flag -secret or env)")
	}
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.Hex(),
		"name":    gofakeit.Name(),
		"exp":     now.Add(time.Hour).Unix(),
		"iat":     now.Unix(),
	})
	return token.SignedString([]byte(*secret))
}

// ----------------------------------------------------------------------------
// Main -----------------------------------------------------------------------
func main() {
	flag.Parse()
	gofakeit.Seed(time.Now().UnixNano())

	trip := *tripID
	if trip == "" {
		trip = bson.NewObjectID().Hex()
	}

	fmt.Printf("Seeding trip %s (items=%d groups=%d) on %s\n", trip, *nItems, *nGroups, *baseURL)

	token, err := mintToken(bson.NewObjectID())
	if err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		os.Exit(1)
	}

	if err := createGroups(token, trip, *nGroups); err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		os.Exit(1)
	}
	if err := createItems(token, trip, *nItems); err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		os.Exit(1)
	}

	fmt.Println("done, trip:", trip)
}

func createGroups(token, trip string, n int) error {
	for i := 0; i < n; i++ {
		payload := map[string]any{
			"title":      fmt.Sprintf("Day %d: %s", i+1, gofakeit.City()),
			"position_x": float64(i * 600),
			"position_y": 40.0,
		}
		resp, err := postJSON("/api/v1/trips/"+trip+"/brainstorm/groups", payload, token)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 300 {
			return fmt.Errorf("create group: HTTP %d: %s", resp.StatusCode, drain(resp.Body))
		}
		drain(resp.Body)
	}
	fmt.Printf("• created %d groups\n", n)
	return nil
}

func createItems(token, trip string, n int) error {
	var b [1]byte
	for i := 0; i < n; i++ {
		_, _ = rand.Read(b[:])
		itemType := itemTypes[int(b[0])%len(itemTypes)]

		payload := map[string]any{
			"type":  itemType,
			"title": gofakeit.Sentence(3),
		}
		switch itemType {
		case "note":
			payload["content"] = gofakeit.Paragraph(1, 2, 12, " ")
		case "place":
			payload["location_name"] = gofakeit.City() + ", " + gofakeit.Country()
			payload["latitude"] = gofakeit.Latitude()
			payload["longitude"] = gofakeit.Longitude()
		case "link":
			payload["url"] = gofakeit.URL()
		}

		resp, err := postJSON("/api/v1/trips/"+trip+"/brainstorm/items", payload, token)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 300 {
			return fmt.Errorf("create item: HTTP %d: %s", resp.StatusCode, drain(resp.Body))
		}
		drain(resp.Body)

		if (i+1)%10 == 0 {
			fmt.Printf("• %d/%d items\n", i+1, n)
		}
	}
	fmt.Printf("• created %d items\n", n)
	return nil
}
