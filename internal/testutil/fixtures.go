package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dom/kavholm-api/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AccountBuilder creates test accounts with a builder pattern
type AccountBuilder struct {
	username  string
	email     string
	firstName string
	lastName  string
	password  string
	isAdmin   bool
}

// NewAccountBuilder creates a new AccountBuilder with unique defaults
func NewAccountBuilder() *AccountBuilder {
	suffix := uuid.New().String()[:8]
	return &AccountBuilder{
		username:  "user_" + suffix,
		email:     fmt.Sprintf("user_%s@kavholm.test", suffix),
		firstName: "Test",
		lastName:  "Tester",
		password:  "testpassword123",
	}
}

func (b *AccountBuilder) WithUsername(username string) *AccountBuilder {
	b.username = username
	return b
}

func (b *AccountBuilder) WithEmail(email string) *AccountBuilder {
	b.email = email
	return b
}

func (b *AccountBuilder) WithPassword(password string) *AccountBuilder {
	b.password = password
	return b
}

func (b *AccountBuilder) AsAdmin() *AccountBuilder {
	b.isAdmin = true
	return b
}

// Build inserts the account directly and returns it with the raw password
func (b *AccountBuilder) Build(t *testing.T, db *gorm.DB) (*domain.Account, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	account := &domain.Account{
		Username:     b.username,
		Email:        b.email,
		PasswordHash: string(hashedPassword),
		FirstName:    b.firstName,
		LastName:     b.lastName,
		IsAdmin:      b.isAdmin,
		CreatedAt:    time.Now(),
	}

	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create account: %v", err)
	}

	return account, b.password
}

// BuildAndAuthenticate registers the account via the API and logs in as it.
// Admin accounts are inserted directly, since the API cannot create them.
func (b *AccountBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.Account, string) {
	t.Helper()

	if b.isAdmin {
		b.Build(t, ts.DB.DB)
	} else {
		resp := PostJSON(t, ts.URL("/auth/register"), map[string]string{
			"username":  b.username,
			"email":     b.email,
			"firstName": b.firstName,
			"lastName":  b.lastName,
			"password":  b.password,
		})
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("unexpected register status code: %d", resp.StatusCode)
		}
	}

	resp := PostJSON(t, ts.URL("/auth/login"), map[string]string{
		"email":    b.email,
		"password": b.password,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected login status code: %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	account := &domain.Account{
		ID:        authResp.User.ID,
		Username:  authResp.User.Username,
		Email:     authResp.User.Email,
		FirstName: authResp.User.FirstName,
		LastName:  authResp.User.LastName,
		IsAdmin:   authResp.User.IsAdmin,
		CreatedAt: authResp.User.CreatedAt,
	}
	return account, authResp.Token
}

// AuthResponse matches the API auth response
type AuthResponse struct {
	User  domain.PublicAccount `json:"user"`
	Token string               `json:"token"`
}

// ErrorResponse matches the API error envelope
type ErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Status  int    `json:"status"`
	} `json:"error"`
}

// SetResetCredential writes a reset credential straight into the database.
func SetResetCredential(t *testing.T, db *gorm.DB, accountID int64, token string, expiresAt time.Time) {
	t.Helper()

	err := db.Model(&domain.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"password_reset_token":        token,
			"password_reset_token_expiry": expiresAt,
		}).Error
	if err != nil {
		t.Fatalf("failed to set reset credential: %v", err)
	}
}

// LoadAccount reads an account straight from the database.
func LoadAccount(t *testing.T, db *gorm.DB, accountID int64) *domain.Account {
	t.Helper()

	var account domain.Account
	if err := db.First(&account, "id = ?", accountID).Error; err != nil {
		t.Fatalf("failed to load account: %v", err)
	}
	return &account
}

// PostJSON posts body as JSON to url
func PostJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()

	req := CreateAuthenticatedRequest(t, http.MethodPost, url, body, "")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request to %s failed: %v", url, err)
	}
	return resp
}

// CreateAuthenticatedRequest creates an HTTP request with auth token
func CreateAuthenticatedRequest(t *testing.T, method, url string, body interface{}, token string) *http.Request {
	t.Helper()

	var bodyReader *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	} else {
		bodyReader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}
