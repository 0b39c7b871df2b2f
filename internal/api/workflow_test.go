package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chatroom-backend/internal/api"
	"chatroom-backend/internal/auth"
	"chatroom-backend/internal/chat"
	"chatroom-backend/internal/config"
	"chatroom-backend/internal/database"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func setupTestServer(t *testing.T) (*gin.Engine, *database.Database) {
	t.Helper()

	_ = godotenv.Load("../../.env")
	cfg := config.New()

	db, err := database.NewConnection(cfg)
	if err != nil {
		t.Skipf("database unavailable: %v", err)
	}

	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	store := chat.NewStore(db, auth.DefaultPasswordPolicy())

	gin.SetMode(gin.TestMode)
	router := gin.New()
	api.SetupRoutes(router, store, cfg)

	return router, db
}

func doJSON(router *gin.Engine, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		json.NewEncoder(&body).Encode(payload)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestChatWorkflow(t *testing.T) {
	router, db := setupTestServer(t)
	defer db.Close()

	username := fmt.Sprintf("alice_%d", time.Now().UnixNano())
	password := "Str0ngPass!"

	defer db.Exec(context.Background(), "DELETE FROM users WHERE username LIKE $1", username+"%")

	// 1. Register
	w := doJSON(router, "POST", "/api/v1/auth/register", "", map[string]string{
		"username":              username,
		"email":                 username + "@test.com",
		"password":              password,
		"password_confirmation": password,
		"display_name":          "Alice",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to register: %d - %s", w.Code, w.Body.String())
	}

	var registerResp struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	json.Unmarshal(w.Body.Bytes(), &registerResp)
	if registerResp.Token == "" {
		t.Fatal("Registration returned no token")
	}

	// 2. Duplicate registration is rejected
	w = doJSON(router, "POST", "/api/v1/auth/register", "", map[string]string{
		"username":              username,
		"email":                 "dup@test.com",
		"password":              password,
		"password_confirmation": password,
		"display_name":          "Impostor",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("Duplicate register should be 409, got %d - %s", w.Code, w.Body.String())
	}

	// 3. Login returns the identical token (get-or-create)
	w = doJSON(router, "POST", "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Failed to login: %d - %s", w.Code, w.Body.String())
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	json.Unmarshal(w.Body.Bytes(), &loginResp)
	if loginResp.Token != registerResp.Token {
		t.Fatalf("Login minted a new token: %s != %s", loginResp.Token, registerResp.Token)
	}
	token := loginResp.Token

	// 4. Wrong password is rejected
	w = doJSON(router, "POST", "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": "wrong password",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Wrong password should be 401, got %d - %s", w.Code, w.Body.String())
	}

	// 5. Post to the public channel
	w = doJSON(router, "POST", "/api/v1/chat/public", token, map[string]string{
		"content": "hello everyone",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to post public message: %d - %s", w.Code, w.Body.String())
	}

	w = doJSON(router, "GET", "/api/v1/chat/public", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Failed to list public messages: %d - %s", w.Code, w.Body.String())
	}

	// 6. Register a second user and exchange a private message
	bobName := fmt.Sprintf("bob_%d", time.Now().UnixNano())
	defer db.Exec(context.Background(), "DELETE FROM users WHERE username = $1", bobName)

	w = doJSON(router, "POST", "/api/v1/auth/register", "", map[string]string{
		"username":              bobName,
		"email":                 bobName + "@test.com",
		"password":              password,
		"password_confirmation": password,
		"display_name":          "Bob",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to register bob: %d - %s", w.Code, w.Body.String())
	}
	var bobResp struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	json.Unmarshal(w.Body.Bytes(), &bobResp)

	w = doJSON(router, "POST", "/api/v1/chat/private", token, map[string]string{
		"receiver_id": bobResp.User.ID,
		"content":     "hi bob",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to send private message: %d - %s", w.Code, w.Body.String())
	}
	var privateMsg struct {
		ID string `json:"id"`
	}
	json.Unmarshal(w.Body.Bytes(), &privateMsg)

	// Only the receiver may mark it read
	w = doJSON(router, "POST", "/api/v1/chat/private/"+privateMsg.ID+"/read", token, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("Sender marking read should be 403, got %d - %s", w.Code, w.Body.String())
	}
	w = doJSON(router, "POST", "/api/v1/chat/private/"+privateMsg.ID+"/read", bobResp.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Receiver failed to mark read: %d - %s", w.Code, w.Body.String())
	}

	// 7. Groups: create, join, post
	w = doJSON(router, "POST", "/api/v1/groups", token, map[string]interface{}{
		"name":             "workflow test room",
		"max_participants": 5,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to create group: %d - %s", w.Code, w.Body.String())
	}
	var group struct {
		ID string `json:"id"`
	}
	json.Unmarshal(w.Body.Bytes(), &group)

	// Bob cannot post before joining
	w = doJSON(router, "POST", "/api/v1/groups/"+group.ID+"/messages", bobResp.Token, map[string]string{
		"content": "knock knock",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("Non-member post should be 403, got %d - %s", w.Code, w.Body.String())
	}

	w = doJSON(router, "POST", "/api/v1/groups/"+group.ID+"/join", bobResp.Token, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to join group: %d - %s", w.Code, w.Body.String())
	}

	w = doJSON(router, "POST", "/api/v1/groups/"+group.ID+"/messages", bobResp.Token, map[string]string{
		"content": "made it",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to post group message: %d - %s", w.Code, w.Body.String())
	}

	// 8. Logout revokes the token
	w = doJSON(router, "POST", "/api/v1/auth/logout", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Failed to logout: %d - %s", w.Code, w.Body.String())
	}
	w = doJSON(router, "GET", "/api/v1/profile", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Revoked token should be 401, got %d - %s", w.Code, w.Body.String())
	}
}
