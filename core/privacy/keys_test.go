package privacy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSensitiveKey(t *testing.T) {
	sensitive := []string{
		"password", "PASSWORD", "user_password", "db_password",
		"token", "access_token", "refresh_token", "api_token",
		"api_key", "apikey", "API_KEY", "openai_api_key", "Api-Key",
		"email", "user_email", "e-mail", "E-Mail",
		"credit-card", "ssn", "Authorization", "X-Session-Id",
	}
	for _, k := range sensitive {
		assert.Truef(t, IsSensitiveKey(k), "%q should be sensitive", k)
	}

	plain := []string{"name", "count", "status", "version", "debug", "lineno", ""}
	for _, k := range plain {
		assert.Falsef(t, IsSensitiveKey(k), "%q should not be sensitive", k)
	}
}

func TestIsSensitiveKeyCaseInsensitive(t *testing.T) {
	keys := append(SensitiveKeys(), "name", "Status", "user_Password", "mixed-Case-token")
	for _, k := range keys {
		assert.Equal(t, IsSensitiveKey(k), IsSensitiveKey(strings.ToUpper(k)), k)
		assert.Equal(t, IsSensitiveKey(k), IsSensitiveKey(strings.ToLower(k)), k)
	}
}

func TestSensitiveKeysReturnsCopy(t *testing.T) {
	keys := SensitiveKeys()
	keys[0] = "mutated"
	assert.Equal(t, "password", SensitiveKeys()[0])
}
