package auth

import (
	"testing"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid password", "password123", false},
		{"empty password", "", false},
		{"long password", "a" + string(make([]byte, 70)), false}, // bcrypt max is 72 bytes
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("HashPassword() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && hash == "" {
				t.Error("HashPassword() returned empty hash")
			}
		})
	}
}

func TestVerifyPassword(t *testing.T) {
	password := "testpassword123"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	tests := []struct {
		name     string
		hash     string
		password string
		want     bool
	}{
		{"correct password", hash, password, true},
		{"wrong password", hash, "wrongpassword", false},
		{"empty password", hash, "", false},
		{"invalid hash", "invalidhash", password, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyPassword(tt.hash, tt.password); got != tt.want {
				t.Errorf("VerifyPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerateToken(t *testing.T) {
	tests := []struct {
		name       string
		userID     string
		username   string
		secret     string
		ttlMinutes int
		wantErr    bool
	}{
		{"valid token", "u-1", "alice", "test-secret", 60, false},
		{"empty user id", "", "alice", "test-secret", 60, false},
		{"empty secret", "u-1", "alice", "", 60, false},
		{"zero ttl", "u-1", "alice", "test-secret", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateToken(tt.userID, tt.username, tt.secret, tt.ttlMinutes)
			if (err != nil) != tt.wantErr {
				t.Errorf("GenerateToken() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && token == "" {
				t.Error("GenerateToken() returned empty token")
			}
		})
	}
}

func TestParseToken(t *testing.T) {
	secret := "test-secret-key"
	token, err := GenerateToken("u-42", "Alice", secret, 60)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	tests := []struct {
		name     string
		token    string
		secret   string
		wantUID  string
		wantName string
		wantErr  bool
	}{
		{"valid token", token, secret, "u-42", "Alice", false},
		{"wrong secret", token, "wrong-secret", "", "", true},
		{"invalid token", "invalid.token.here", secret, "", "", true},
		{"empty token", "", secret, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ParseToken(tt.token, tt.secret)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseToken() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if claims.UserID != tt.wantUID {
				t.Errorf("ParseToken() UserID = %v, want %v", claims.UserID, tt.wantUID)
			}
			if claims.Username != tt.wantName {
				t.Errorf("ParseToken() Username = %v, want %v", claims.Username, tt.wantName)
			}
		})
	}
}

func TestParseToken_Expired(t *testing.T) {
	secret := "test-secret"
	// TTL 为负的令牌签发即过期
	token, err := GenerateToken("u-1", "alice", secret, -1)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := ParseToken(token, secret)
	if err == nil {
		t.Error("ParseToken() should return error for expired token")
	}
	if claims != nil {
		t.Error("ParseToken() should return nil claims for expired token")
	}
}

func TestParseToken_PreservesIdentityCasing(t *testing.T) {
	secret := "test-secret"
	token, err := GenerateToken("u-7", "MixedCase", secret, 60)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	claims, err := ParseToken(token, secret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Username != "MixedCase" {
		t.Errorf("ParseToken() Username = %q, want original casing preserved", claims.Username)
	}
}
