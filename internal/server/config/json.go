package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/accounts/internal/flagx"
	"github.com/dmitrijs2005/accounts/internal/timex"
)

// configFileEnv names the variable consulted when no -c/-config flag is given.
const configFileEnv = "ACCOUNTS_CONFIG"

// JsonConfig is the on-disk shape of the config file. Only fields present in
// the file override the current values; durations accept "24h" or
// nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP      *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC      *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN           *string         `json:"database_dsn"`
	SecretKey             *string         `json:"secret_key"`
	TokenIssuer           *string         `json:"token_issuer"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration"`
	BaseURL               *string         `json:"base_url"`
	S3RootUser            *string         `json:"s3_root_user"`
	S3RootPassword        *string         `json:"s3_root_password"`
	S3Bucket              *string         `json:"s3_bucket"`
	S3Region              *string         `json:"s3_region"`
	S3BaseEndpoint        *string         `json:"s3_base_endpoint"`
	S3PublicURL           *string         `json:"s3_public_url"`
	SMTPHost              *string         `json:"smtp_host"`
	SMTPUser              *string         `json:"smtp_user"`
	SMTPPassword          *string         `json:"smtp_password"`
	SMTPSkipVerify        *bool           `json:"smtp_skip_verify"`
	MailFrom              *string         `json:"mail_from"`
	LogLevel              *string         `json:"log_level"`
	BcryptCost            *int            `json:"bcrypt_cost"`
	MaxProfileBytes       *int64          `json:"max_profile_bytes"`
}

// parseJson loads the file named by -c/-config (or ACCOUNTS_CONFIG) into
// config. Nothing happens when no file is named; an unreadable file or
// invalid JSON panics.
func parseJson(config *Config, args []string) {
	jsonConfigFile := flagx.ConfigFile(args, configFileEnv)
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.TokenIssuer, c.TokenIssuer)
	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	setString(&config.BaseURL, c.BaseURL)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicURL, c.S3PublicURL)
	setString(&config.SMTPHost, c.SMTPHost)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	if c.SMTPSkipVerify != nil {
		config.SMTPSkipVerify = *c.SMTPSkipVerify
	}
	setString(&config.MailFrom, c.MailFrom)
	setString(&config.LogLevel, c.LogLevel)
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	if c.MaxProfileBytes != nil {
		config.MaxProfileBytes = *c.MaxProfileBytes
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
