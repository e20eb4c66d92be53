package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVerify(t *testing.T) {
	m := NewManager("secret", "chirp", time.Hour)
	token, err := m.Generate(Identity{ID: "u1", Name: "Ann", Email: "ann@example.com", Image: "https://img/a.png"})
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "Ann", claims.Name)
	assert.Equal(t, "ann@example.com", claims.Email)
	assert.Equal(t, "https://img/a.png", claims.Image)
	assert.Equal(t, "u1", claims.Subject)
}

func TestVerify_Rejects(t *testing.T) {
	m := NewManager("secret", "chirp", time.Hour)
	good, err := m.Generate(Identity{ID: "u1"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token func() string
	}{
		{"wrong secret", func() string {
			tok, _ := NewManager("other", "chirp", time.Hour).Generate(Identity{ID: "u1"})
			return tok
		}},
		{"wrong issuer", func() string {
			tok, _ := NewManager("secret", "someone-else", time.Hour).Generate(Identity{ID: "u1"})
			return tok
		}},
		{"expired", func() string {
			expired := &Manager{secret: []byte("secret"), issuer: "chirp", ttl: -time.Minute}
			tok, _ := expired.Generate(Identity{ID: "u1"})
			return tok
		}},
		{"missing user", func() string {
			tok, _ := m.Generate(Identity{})
			return tok
		}},
		{"garbage", func() string { return "not-a-token" }},
		{"tampered", func() string { return good + "x" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Verify(tt.token())
			assert.Error(t, err)
		})
	}
}
