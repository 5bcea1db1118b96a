package helpers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signUpDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

type bookingDTO struct {
	Email string `json:"email" validate:"required,email"`
	Note  string `json:"note"`
}

// Validate implements Validator with a cross-field rule tags cannot express.
func (b bookingDTO) Validate() []string {
	if b.Note == "forbidden-note" {
		return []string{"note is not allowed"}
	}
	return nil
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var envelope APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	return envelope
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantOK     bool
		wantSubstr string
	}{
		{
			name:   "valid body",
			body:   `{"email":"dev@example.com","password":"longenough","name":"Dev"}`,
			wantOK: true,
		},
		{
			name:       "invalid json",
			body:       `{not json`,
			wantOK:     false,
			wantSubstr: "invalid",
		},
		{
			name:       "unknown field rejected",
			body:       `{"email":"dev@example.com","password":"longenough","name":"Dev","admin":true}`,
			wantOK:     false,
			wantSubstr: "unknown field",
		},
		{
			name:       "missing email",
			body:       `{"password":"longenough","name":"Dev"}`,
			wantOK:     false,
			wantSubstr: "email is required",
		},
		{
			name:       "malformed email",
			body:       `{"email":"not-an-email","password":"longenough","name":"Dev"}`,
			wantOK:     false,
			wantSubstr: "email must be a valid email address",
		},
		{
			name:       "short password",
			body:       `{"email":"dev@example.com","password":"short","name":"Dev"}`,
			wantOK:     false,
			wantSubstr: "password must be at least 8 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()

			var dto signUpDTO
			ok := DecodeAndValidate(rr, req, &dto)

			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Equal(t, http.StatusBadRequest, rr.Code)
				envelope := decodeEnvelope(t, rr)
				require.NotNil(t, envelope.Error)
				assert.Equal(t, ErrCodeBadRequest, envelope.Error.Code)
				assert.Contains(t, envelope.Error.Message, tt.wantSubstr)
			}
		})
	}
}

func TestDecodeAndValidate_ValidatorHook(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/bookings",
		bytes.NewBufferString(`{"email":"dev@example.com","note":"forbidden-note"}`))
	rr := httptest.NewRecorder()

	var dto bookingDTO
	ok := DecodeAndValidate(rr, req, &dto)

	require.False(t, ok)
	envelope := decodeEnvelope(t, rr)
	require.NotNil(t, envelope.Error)
	assert.Contains(t, envelope.Error.Message, "note is not allowed")
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct passes", func(t *testing.T) {
		rr := httptest.NewRecorder()
		ok := ValidateStruct(rr, &bookingDTO{Email: "dev@example.com"})
		assert.True(t, ok)
	})

	t.Run("tag failure writes 400", func(t *testing.T) {
		rr := httptest.NewRecorder()
		ok := ValidateStruct(rr, &bookingDTO{Email: "nope"})
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
