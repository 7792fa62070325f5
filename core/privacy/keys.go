package privacy

import "strings"

// sensitiveKeys holds lowercase fragments of field names whose values must
// never leave the process. Matching is substring based, so "user_password"
// and "openai_api_key" are both caught.
var sensitiveKeys = []string{
	// Authentication
	"password",
	"passwd",
	"pwd",
	"secret",
	"token",
	"api_key",
	"apikey",
	"api-key",
	"access_token",
	"refresh_token",
	"auth",
	"authorization",
	"bearer",
	"credential",
	"credentials",
	// Session/cookies
	"cookie",
	"session",
	"session_id",
	"sessionid",
	"csrf",
	"csrf_token",
	// Personal information
	"email",
	"e-mail",
	"mail",
	"phone",
	"telephone",
	"mobile",
	"address",
	"street",
	"city",
	"zip",
	"zipcode",
	"postal",
	"ssn",
	"social_security",
	"tax_id",
	// Financial
	"credit_card",
	"creditcard",
	"card_number",
	"cvv",
	"cvc",
	"expiry",
	"bank_account",
	"routing_number",
	// Database
	"database_url",
	"db_password",
	"connection_string",
	// Cloud/API
	"aws_secret",
	"aws_access_key",
	"private_key",
	"public_key",
	"encryption_key",
	"signing_key",
}

// SensitiveKeys returns a copy of the key fragments used by IsSensitiveKey.
func SensitiveKeys() []string {
	out := make([]string, len(sensitiveKeys))
	copy(out, sensitiveKeys)
	return out
}

// IsSensitiveKey reports whether a field name suggests sensitive data. The key
// is lowercased and hyphens are normalized to underscores before matching.
func IsSensitiveKey(key string) bool {
	normalized := strings.ReplaceAll(strings.ToLower(key), "-", "_")
	for _, fragment := range sensitiveKeys {
		if strings.Contains(normalized, fragment) {
			return true
		}
	}
	return false
}
