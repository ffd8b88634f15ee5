package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/tracker/pkg/tracker/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testTokens = NewTokens("test-secret", time.Hour, "tracker-test")

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(db, testTokens, zap.NewNop())
	auth := r.Group("/auth")
	handler.RegisterRoutes(auth)
	return r
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	jsonBody, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestPasswordHashing(t *testing.T) {
	password := "correct horse battery"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if hash == password {
		t.Error("Hash should not equal plain password")
	}

	if !CheckPassword(password, hash) {
		t.Error("CheckPassword should return true for correct password")
	}

	if CheckPassword("wrongpassword", hash) {
		t.Error("CheckPassword should return false for incorrect password")
	}
}

func TestJWTToken(t *testing.T) {
	token, err := testTokens.Generate(1, "test@example.com")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := testTokens.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if claims.UserID != 1 {
		t.Errorf("Expected UserID 1, got %d", claims.UserID)
	}

	if claims.Username != "test@example.com" {
		t.Errorf("Expected username test@example.com, got %s", claims.Username)
	}

	if claims.Issuer != "tracker-test" {
		t.Errorf("Expected issuer tracker-test, got %s", claims.Issuer)
	}
}

func TestInvalidToken(t *testing.T) {
	if _, err := testTokens.Validate("invalid-token"); err != ErrInvalidToken {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}

	other := NewTokens("other-secret", time.Hour, "tracker-test")
	token, _ := other.Generate(1, "test@example.com")
	if _, err := testTokens.Validate(token); err != ErrInvalidToken {
		t.Errorf("Expected ErrInvalidToken for foreign signature, got %v", err)
	}
}

func TestExpiredToken(t *testing.T) {
	expired := &Tokens{secret: []byte("test-secret"), ttl: -time.Minute, issuer: "tracker-test"}
	token, _ := expired.Generate(1, "test@example.com")

	if _, err := testTokens.Validate(token); err != ErrExpiredToken {
		t.Errorf("Expected ErrExpiredToken, got %v", err)
	}
}

func TestRegister(t *testing.T) {
	db := testutil.OpenDB(t)
	router := setupTestRouter(db)

	resp := postJSON(router, "/auth/register", RegisterRequest{
		Username:    "Test@Example.com",
		Password:    "password1234",
		DisplayName: "Test User",
	})

	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var response AuthResponse
	json.Unmarshal(resp.Body.Bytes(), &response)

	if response.Token == "" {
		t.Error("Expected token in response")
	}

	if response.User.Username != "test@example.com" {
		t.Errorf("Expected username test@example.com, got %s", response.User.Username)
	}

	if response.User.PreferredLang != "en" {
		t.Errorf("Expected preferred language en, got %s", response.User.PreferredLang)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	db := testutil.OpenDB(t)
	router := setupTestRouter(db)

	body := RegisterRequest{
		Username:    "test@example.com",
		Password:    "password1234",
		DisplayName: "Test User",
	}
	postJSON(router, "/auth/register", body)
	resp := postJSON(router, "/auth/register", body)

	if resp.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", resp.Code)
	}
}

func TestLoginAndMe(t *testing.T) {
	db := testutil.OpenDB(t)
	router := setupTestRouter(db)

	postJSON(router, "/auth/register", RegisterRequest{
		Username:      "test@example.com",
		Password:      "password1234",
		DisplayName:   "Test User",
		PreferredLang: "fr",
	})

	resp := postJSON(router, "/auth/login", LoginRequest{Username: "test@example.com", Password: "password1234"})
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var login AuthResponse
	json.Unmarshal(resp.Body.Bytes(), &login)

	req, _ := http.NewRequest("GET", "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	me := httptest.NewRecorder()
	router.ServeHTTP(me, req)

	if me.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", me.Code, me.Body.String())
	}
	var user UserResponse
	json.Unmarshal(me.Body.Bytes(), &user)
	if user.PreferredLang != "fr" {
		t.Errorf("Expected preferred language fr, got %s", user.PreferredLang)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	db := testutil.OpenDB(t)
	router := setupTestRouter(db)

	postJSON(router, "/auth/register", RegisterRequest{
		Username:    "test@example.com",
		Password:    "password1234",
		DisplayName: "Test User",
	})

	resp := postJSON(router, "/auth/login", LoginRequest{Username: "test@example.com", Password: "wrongpassword"})
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", resp.Code)
	}
}

func TestMiddlewareRejectsMissingHeader(t *testing.T) {
	db := testutil.OpenDB(t)
	router := setupTestRouter(db)

	req, _ := http.NewRequest("GET", "/auth/me", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", resp.Code)
	}
}
