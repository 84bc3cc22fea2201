package copilot

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// KeyName is the credential name looked up by every provider.
const KeyName = "OPENROUTER_API_KEY"

// CredentialProvider yields an API key, or "" when it has none.
type CredentialProvider func() string

// ResolveKey returns the first non-empty key from providers, in order.
func ResolveKey(providers ...CredentialProvider) string {
	for _, p := range providers {
		if p == nil {
			continue
		}
		if key := strings.TrimSpace(p()); key != "" {
			return key
		}
	}
	return ""
}

// EnvProvider reads the key from the process environment.
func EnvProvider(name string) CredentialProvider {
	return func() string { return os.Getenv(name) }
}

// SecretsFileProvider reads the key from a flat YAML secrets file
// (name: value). A missing or unreadable file yields "".
func SecretsFileProvider(path, name string) CredentialProvider {
	return func() string {
		if path == "" {
			return ""
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return ""
		}
		var secrets map[string]string
		if err := yaml.Unmarshal(data, &secrets); err != nil {
			return ""
		}
		return secrets[name]
	}
}

// DotEnvProvider reads the key from a .env file without touching the
// process environment. A missing file yields "".
func DotEnvProvider(path, name string) CredentialProvider {
	return func() string {
		if path == "" {
			return ""
		}
		vals, err := godotenv.Read(path)
		if err != nil {
			return ""
		}
		return vals[name]
	}
}

// DefaultProviders is the standard lookup order: hosted-secrets file,
// environment, then .env file.
func DefaultProviders(secretsFile, dotEnvFile, name string) []CredentialProvider {
	if name == "" {
		name = KeyName
	}
	return []CredentialProvider{
		SecretsFileProvider(secretsFile, name),
		EnvProvider(name),
		DotEnvProvider(dotEnvFile, name),
	}
}
