package app

import (
	"fmt"

	"events-client/internal/common/logging"
	"events-client/internal/config"
	"events-client/internal/crypto"
	"events-client/internal/tokenstore"
)

func (app *App) initializeEncryption() error {
	if app.Config.TokenEncryptionKey == "" {
		return nil
	}
	enc, err := crypto.NewEncryptor(app.Config.TokenEncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to initialize session encryption: %w", err)
	}
	app.Encryptor = enc
	return nil
}

func (app *App) initializeTokenStore() error {
	switch app.Config.TokenStore {
	case config.TokenStoreMemory:
		app.Logger.Info("Session storage: memory (not persisted)")
		app.Tokens = tokenstore.NewMemoryStore()

	case config.TokenStoreFile:
		store := tokenstore.NewFileStore(app.Config.TokenFile, app.Encryptor)
		app.Logger.Info("Session storage: file",
			logging.Field{Key: "path", Value: store.Path()},
			logging.Field{Key: "encrypted", Value: app.Encryptor != nil},
		)
		app.Tokens = store

	case config.TokenStoreRedis:
		if app.RedisClient == nil {
			return fmt.Errorf("redis token store requested but redis is not connected")
		}
		store := tokenstore.NewRedisStore(app.RedisClient, app.Config.TokenProfile, tokenstore.DefaultRedisTTL)
		app.Logger.Info("Session storage: redis", logging.Field{Key: "key", Value: store.Key()})
		app.Tokens = store

	default:
		return fmt.Errorf("unknown token store %q", app.Config.TokenStore)
	}
	return nil
}
