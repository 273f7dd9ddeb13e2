package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func protected(j *JWTAuth, seen *int64) http.Handler {
	return j.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body.Error.Code
}

func TestGenerateAndParseAccessToken(t *testing.T) {
	j := NewJWTAuth("secret")

	token, err := j.GenerateAccessToken(42, "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	userID, err := j.ParseUserID(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if userID != 42 {
		t.Fatalf("expected 42, got %d", userID)
	}
}

func TestParseUserID_RejectsForeignSecret(t *testing.T) {
	token, _ := NewJWTAuth("other").GenerateAccessToken(42, "alice")
	if _, err := NewJWTAuth("secret").ParseUserID(token); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestParseUserID_RejectsNoneAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": 42, "exp": time.Now().Add(time.Hour).Unix()})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewJWTAuth("secret").ParseUserID(signed); err == nil {
		t.Fatal("expected unsigned token to be rejected")
	}
}

func TestUserIDFromClaim(t *testing.T) {
	tests := []struct {
		name  string
		claim interface{}
		want  int64
		ok    bool
	}{
		{"float", float64(7), 7, true},
		{"string", "9", 9, true},
		{"json number", json.Number("11"), 11, true},
		{"fractional", 1.5, 0, false},
		{"zero", float64(0), 0, false},
		{"garbage string", "abc", 0, false},
		{"missing", nil, 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := userIDFromClaim(tc.claim)
			if tc.ok && (err != nil || got != tc.want) {
				t.Fatalf("expected %d, got %d (%v)", tc.want, got, err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected error, got %d", got)
			}
		})
	}
}

func TestMiddleware_AttachesUserID(t *testing.T) {
	j := NewJWTAuth("secret")
	token, _ := j.GenerateAccessToken(42, "alice")

	var seen int64
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	protected(j, &seen).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || seen != 42 {
		t.Fatalf("expected 200 with user 42, got %d with %d", rr.Code, seen)
	}
}

func TestMiddleware_Rejections(t *testing.T) {
	j := NewJWTAuth("secret")
	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 42,
		"exp":     time.Now().Add(-time.Minute).Unix(),
	}).SignedString(j.Secret)
	badClaim, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "not-a-number",
		"exp":     time.Now().Add(time.Minute).Unix(),
	}).SignedString(j.Secret)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", "UNAUTHORIZED"},
		{"wrong scheme", "Basic abc", "UNAUTHORIZED"},
		{"garbage token", "Bearer abc", "UNAUTHORIZED"},
		{"expired", "Bearer " + expired, "TOKEN_EXPIRED"},
		{"bad claim", "Bearer " + badClaim, "UNAUTHORIZED"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var seen int64
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			protected(j, &seen).ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rr.Code)
			}
			if code := errorCode(t, rr); code != tc.code {
				t.Fatalf("expected %s, got %s", tc.code, code)
			}
			if seen != 0 {
				t.Fatal("handler must not run")
			}
		})
	}
}
