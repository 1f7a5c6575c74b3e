package store

import (
	"context"
	"database/sql"
)

// Keys under which the upstream credentials live in the settings table.
// They mirror the browser panel's persistent storage keys.
const (
	KeyAuthToken = "authToken"
	KeyAdminUser = "adminUser"
)

// GetToken returns the persisted upstream bearer token, or "" if none.
func GetToken(ctx context.Context, db *sql.DB) (string, error) {
	return GetSetting(ctx, db, KeyAuthToken)
}

// SetToken persists the upstream bearer token.
func SetToken(ctx context.Context, db *sql.DB, token string) error {
	return SetSetting(ctx, db, KeyAuthToken, token)
}

// RemoveToken clears the persisted upstream bearer token. Idempotent.
func RemoveToken(ctx context.Context, db *sql.DB) error {
	return RemoveSetting(ctx, db, KeyAuthToken)
}

// GetProfile returns the serialized admin profile blob, or "" if none.
func GetProfile(ctx context.Context, db *sql.DB) (string, error) {
	return GetSetting(ctx, db, KeyAdminUser)
}

// SetProfile persists the serialized admin profile blob.
func SetProfile(ctx context.Context, db *sql.DB, profile string) error {
	return SetSetting(ctx, db, KeyAdminUser, profile)
}

// RemoveProfile clears the persisted admin profile. Idempotent.
func RemoveProfile(ctx context.Context, db *sql.DB) error {
	return RemoveSetting(ctx, db, KeyAdminUser)
}
