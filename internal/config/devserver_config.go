package config

import (
	"fmt"
	"time"
)

const (
	portEnvVar         = "PORT"
	dataSourceVar      = "DATA_SOURCE"
	tokenSecretVar     = "TOKEN_SECRET"
	accessTokenTTLVar  = "ACCESS_TOKEN_TTL"
	refreshTokenTTLVar = "REFRESH_TOKEN_TTL"
	adminEmailVar      = "ADMIN_EMAIL"
	adminPasswordVar   = "ADMIN_PASSWORD"
)

// DevServerConfig configures the local stand-in for the auth and admin APIs.
type DevServerConfig interface {
	GetPort() string
	GetDataSource() string
	GetTokenSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
	GetAdminEmail() string
	GetAdminPassword() string
}

type DevServer struct{}

var _ DevServerConfig = DevServer{}

func (DevServer) GetPort() string {
	port := GetEnv(portEnvVar, "3008")
	if port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

// GetDataSource returns a SQLite DSN; empty selects the in-memory store.
func (DevServer) GetDataSource() string {
	return GetEnv(dataSourceVar, "")
}

func (DevServer) GetTokenSecret() string {
	return GetEnv(tokenSecretVar, "dev-secret-change-me")
}

func (DevServer) GetAccessTokenExpiry() time.Duration {
	return GetEnvDuration(accessTokenTTLVar, 15*time.Minute)
}

func (DevServer) GetRefreshTokenExpiry() time.Duration {
	return GetEnvDuration(refreshTokenTTLVar, 7*24*time.Hour)
}

func (DevServer) GetRefreshTokenLength() int {
	return 32 // 32 bytes = 256 bits
}

func (DevServer) GetAdminEmail() string {
	return GetEnv(adminEmailVar, "admin@livee.local")
}

// GetAdminPassword returns "" when unset so the bootstrap generates one.
func (DevServer) GetAdminPassword() string {
	return GetEnv(adminPasswordVar, "")
}
