package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays ACCOUNTS_* environment variables. Values that fail to
// parse are ignored.
func parseEnv(config *Config) {
	vars := map[string]*string{
		"ACCOUNTS_HTTP_ADDR":        &config.EndpointAddrHTTP,
		"ACCOUNTS_GRPC_ADDR":        &config.EndpointAddrGRPC,
		"ACCOUNTS_DATABASE_DSN":     &config.DatabaseDSN,
		"ACCOUNTS_SECRET_KEY":       &config.SecretKey,
		"ACCOUNTS_TOKEN_ISSUER":     &config.TokenIssuer,
		"ACCOUNTS_BASE_URL":         &config.BaseURL,
		"ACCOUNTS_S3_ROOT_USER":     &config.S3RootUser,
		"ACCOUNTS_S3_ROOT_PASSWORD": &config.S3RootPassword,
		"ACCOUNTS_S3_BUCKET":        &config.S3Bucket,
		"ACCOUNTS_S3_REGION":        &config.S3Region,
		"ACCOUNTS_S3_BASE_ENDPOINT": &config.S3BaseEndpoint,
		"ACCOUNTS_S3_PUBLIC_URL":    &config.S3PublicURL,
		"ACCOUNTS_SMTP_HOST":        &config.SMTPHost,
		"ACCOUNTS_SMTP_USER":        &config.SMTPUser,
		"ACCOUNTS_SMTP_PASSWORD":    &config.SMTPPassword,
		"ACCOUNTS_MAIL_FROM":        &config.MailFrom,
		"ACCOUNTS_LOG_LEVEL":        &config.LogLevel,
	}
	for key, dst := range vars {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("ACCOUNTS_TOKEN_VALIDITY"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.TokenValidityDuration = d
		}
	}
	if v, ok := os.LookupEnv("ACCOUNTS_SMTP_SKIP_VERIFY"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			config.SMTPSkipVerify = b
		}
	}
	if v, ok := os.LookupEnv("ACCOUNTS_BCRYPT_COST"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			config.BcryptCost = n
		}
	}
}
