// Package app wires the storage backend, keychain, key helper and provider
// from the configuration. Both the daemon and the shell are built on it.
package app

import (
	"database/sql"
	"fmt"

	"github.com/atinyakov/WalletKeeper/internal/biometrics"
	"github.com/atinyakov/WalletKeeper/internal/config"
	"github.com/atinyakov/WalletKeeper/internal/db"
	"github.com/atinyakov/WalletKeeper/internal/downgrade"
	"github.com/atinyakov/WalletKeeper/internal/keychain"
	"github.com/atinyakov/WalletKeeper/internal/keys"
	"github.com/atinyakov/WalletKeeper/internal/models"
	"github.com/atinyakov/WalletKeeper/internal/repository"
	"github.com/atinyakov/WalletKeeper/internal/securityconfig"
	"github.com/atinyakov/WalletKeeper/internal/service"
	"github.com/atinyakov/WalletKeeper/internal/storage"
	"go.uber.org/zap"
)

var kdfParams = keys.DefaultKDFParams()

// App is a wired provider and the resources it holds.
type App struct {
	Provider *service.Provider
	Keys     *keys.Helper

	conn *sql.DB
}

// DeviceState builds the biometric capability report described by opts.
func DeviceState(opts *config.Options) (models.BiometricState, error) {
	level, err := models.ParseSecurityLevel(opts.DeviceSecurityLevel)
	if err != nil {
		return models.BiometricState{}, err
	}
	return models.BiometricState{
		HasHardware:          level == models.SecurityBiometric,
		IsDeviceEnrolled:     opts.DeviceEnrolled,
		CurrentSecurityLevel: level,
	}, nil
}

// New opens the storage backend selected by opts.StorageDSN and builds a
// provider on top of it. Prompts go through auth.
func New(opts *config.Options, auth biometrics.Authenticator, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	conn, dialect, err := db.Open(opts.StorageDSN)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	var repo storage.Repository
	if dialect == db.Memory {
		repo = repository.NewMemoryKVRepository()
	} else {
		repo = repository.NewSQLKVRepository(conn, dialect)
	}
	log.Info("storage backend ready", zap.String("dialect", string(dialect)))

	var kcArea storage.Area = storage.NewArea(repo, models.AreaKeychain)
	if opts.KeychainKey != "" {
		enc, err := storage.NewEncrypted(kcArea, opts.KeychainKey)
		if err != nil {
			return nil, fmt.Errorf("keychain: %w", err)
		}
		kcArea = enc
	}
	kc := keychain.New(kcArea, auth, log.Named("keychain"))

	helper := keys.NewHelper(kc, kdfParams, log.Named("keys"))
	cfg := securityconfig.New(storage.NewArea(repo, models.AreaSecurityConfig))

	p, err := service.NewProvider(service.Deps{
		Repo:     repo,
		Keys:     helper,
		Backup:   keys.NewBackup(helper),
		Config:   cfg,
		Detector: downgrade.New(cfg, log.Named("downgrade")),
		Auth:     auth,
		Log:      log.Named("provider"),
	}, service.Options{
		BiometricAttempts: opts.BiometricAttempts,
		MigrationRetries:  opts.MigrationRetries,
	})
	if err != nil {
		return nil, err
	}

	return &App{Provider: p, Keys: helper, conn: conn}, nil
}

// Close releases the storage backend.
func (a *App) Close() error {
	if a.conn == nil {
		return nil
	}
	return a.conn.Close()
}
