package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/atinyakov/WalletKeeper/internal/biometrics"
	"github.com/atinyakov/WalletKeeper/internal/downgrade"
	"github.com/atinyakov/WalletKeeper/internal/models"
	"github.com/atinyakov/WalletKeeper/internal/onboarding"
	"github.com/atinyakov/WalletKeeper/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrSamePin is returned when a PIN change keeps the current PIN.
var ErrSamePin = errors.New("new pin matches the current pin")

// KeyHelper derives and stores the storage encryption key set.
type KeyHelper interface {
	// Get derives the keys, prompting for biometrics or opening them with pin.
	Get(ctx context.Context, pin string) (*models.StorageEncryptionKeys, error)
	// Set stores keys sealed for level.
	Set(ctx context.Context, keys *models.StorageEncryptionKeys, level models.SecurityLevel, pin string) error
	// Init generates and stores a fresh key set.
	Init(ctx context.Context, level models.SecurityLevel, pin string) (*models.StorageEncryptionKeys, error)
	// Remove deletes the stored key set.
	Remove(ctx context.Context) error
	// Exists reports whether a key set is stored, without prompting.
	Exists(ctx context.Context) (bool, error)
}

// BackupStore keeps the key set while the security method changes.
type BackupStore interface {
	// Get returns the backed-up keys, or nil when pin does not open a backup.
	Get(ctx context.Context, pin string) (*models.StorageEncryptionKeys, error)
	Save(ctx context.Context, keys *models.StorageEncryptionKeys, level models.SecurityLevel, pin string) error
	Clear(ctx context.Context) error
}

// SecurityConfig persists the selected security level.
type SecurityConfig interface {
	Get(ctx context.Context) (models.SecurityLevel, error)
	Set(ctx context.Context, level models.SecurityLevel) error
	Remove(ctx context.Context) error
}

// DowngradeDetector flags drops in device capability.
type DowngradeDetector interface {
	Evaluate(ctx context.Context, in downgrade.Input) (downgrade.Result, error)
}

// Options tune the provider.
type Options struct {
	// BiometricAttempts bounds the prompts shown for one unlock.
	BiometricAttempts int
	// MigrationRetries is the number of extra onboarding migration attempts
	// before the application is reset.
	MigrationRetries int
}

// Deps are the collaborators of the provider.
type Deps struct {
	Repo     storage.Repository
	Keys     KeyHelper
	Backup   BackupStore
	Config   SecurityConfig
	Detector DowngradeDetector
	Auth     biometrics.Authenticator
	Log      *zap.Logger
}

// State is the value handed to the rest of the application. The handles
// are nil unless their key is known.
type State struct {
	Redux    *storage.EncryptedStorage `json:"-"`
	Images   *storage.EncryptedStorage `json:"-"`
	Metadata *storage.EncryptedStorage `json:"-"`

	WalletStatus models.WalletStatus  `json:"walletStatus"`
	SecurityType models.SecurityLevel `json:"securityType"`
	IsAppReady   bool                 `json:"isAppReady"`
	// ReduxArea is the area the redux handle points at: onboarding while
	// onboarding, redux once unlocked.
	ReduxArea models.StorageArea `json:"reduxArea,omitempty"`
	// AuthenticationCancelled offers a retry after a dismissed prompt.
	AuthenticationCancelled bool `json:"authenticationCancelled"`
	// BiometricsDisabled blocks the app: biometric keys on a device
	// that no longer offers biometrics.
	BiometricsDisabled bool `json:"biometricsDisabled"`
	// SecurityDowngrade forces a re-confirmation flow.
	SecurityDowngrade bool `json:"securityDowngrade"`
	// MigrationFailed reports that the last onboarding migration failed
	// and the application was reset to onboarding.
	MigrationFailed bool   `json:"migrationFailed"`
	Session         string `json:"session"`
}

// Handle returns the bound handle of area, or nil.
func (s State) Handle(area models.StorageArea) *storage.EncryptedStorage {
	switch area {
	case models.AreaRedux:
		return s.Redux
	case models.AreaImages:
		return s.Images
	case models.AreaMetadata:
		return s.Metadata
	}
	return nil
}

// Provider is the wallet security state machine. Operations are serialised:
// at most one unlock, migration, reset or security change runs at a time.
type Provider struct {
	op sync.Mutex // serialises operations
	mu sync.RWMutex

	repo     storage.Repository
	keys     KeyHelper
	backup   BackupStore
	config   SecurityConfig
	detector DowngradeDetector
	auth     biometrics.Authenticator
	log      *zap.Logger
	opts     Options
	now      func() time.Time

	status             models.WalletStatus
	securityType       models.SecurityLevel
	redux              *storage.EncryptedStorage
	images             *storage.EncryptedStorage
	metadata           *storage.EncryptedStorage
	onboardingKey      string
	session            string
	isAppReady         bool
	authCancelled      bool
	biometricsDisabled bool
	securityDowngrade  bool
	migrationFailed    bool
	userKey            string
	lastActivity       time.Time
}

// NewProvider builds a provider in the NotInitialised status with a fresh
// onboarding key.
func NewProvider(deps Deps, opts Options) (*Provider, error) {
	if deps.Repo == nil || deps.Keys == nil || deps.Backup == nil || deps.Config == nil {
		return nil, errors.New("provider: repository, key helper, backup and config are required")
	}
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	p := &Provider{
		repo:         deps.Repo,
		keys:         deps.Keys,
		backup:       deps.Backup,
		config:       deps.Config,
		detector:     deps.Detector,
		auth:         deps.Auth,
		log:          log,
		opts:         opts,
		now:          time.Now,
		status:       models.NotInitialised,
		securityType: models.SecurityNone,
	}
	if err := p.newOnboardingKey(); err != nil {
		return nil, err
	}
	p.lastActivity = p.now()
	return p, nil
}

// Context returns a snapshot of the provider state.
func (p *Provider) Context() State {
	p.mu.RLock()
	defer p.mu.RUnlock()

	st := State{
		Redux:                   p.redux,
		Images:                  p.images,
		Metadata:                p.metadata,
		WalletStatus:            p.status,
		SecurityType:            p.securityType,
		IsAppReady:              p.isAppReady,
		AuthenticationCancelled: p.authCancelled,
		BiometricsDisabled:      p.biometricsDisabled,
		SecurityDowngrade:       p.securityDowngrade,
		MigrationFailed:         p.migrationFailed,
		Session:                 p.session,
	}
	if p.redux != nil {
		st.ReduxArea = p.redux.Name()
	}
	return st
}

// Status returns the current wallet status.
func (p *Provider) Status() models.WalletStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// Initialise inspects permanent storage and moves out of NotInitialised:
// to FirstTimeAccess when nothing is stored, otherwise to Locked, and on to
// Unlocked when the keys can be derived without a PIN. Authentication
// problems are reported through the State flags, not as errors.
func (p *Provider) Initialise(ctx context.Context) error {
	p.op.Lock()
	defer p.op.Unlock()

	if p.Status() != models.NotInitialised {
		return nil
	}

	device := p.deviceState(ctx)

	stored, err := p.area(models.AreaRedux).GetAllKeys(ctx)
	if err != nil {
		return fmt.Errorf("initialise: %w", err)
	}
	// a migrated wallet may have no redux entries yet, but its keys are stored
	keysStored, err := p.keys.Exists(ctx)
	if err != nil {
		return fmt.Errorf("initialise: %w", err)
	}
	onboarded := len(stored) > 0 || keysStored

	securityType, err := p.config.Get(ctx)
	if err != nil {
		return fmt.Errorf("initialise: read security config: %w", err)
	}

	p.evaluateDowngrade(ctx, securityType, device, onboarded)

	if !onboarded {
		p.log.Info("no keys found in encrypted storage, user is onboarding")
		// entries left by an earlier session are sealed with a key that is gone
		if err := onboarding.Prune(ctx, p.area(models.AreaOnboarding)); err != nil {
			return fmt.Errorf("initialise: %w", err)
		}
		if err := p.bindOnboarding(); err != nil {
			return err
		}
		return p.apply(EventNoKeysFound)
	}

	if err := p.apply(EventKeysFound); err != nil {
		return err
	}
	p.mu.Lock()
	p.securityType = securityType
	p.mu.Unlock()

	switch securityType {
	case models.SecuritySecret:
		// the PIN is needed to open the keys
		return nil
	case models.SecurityBiometric:
		if device == nil {
			p.log.Warn("biometric state unknown, waiting for an explicit unlock")
			return nil
		}
		if !device.BiometricsUsable() {
			p.log.Warn("biometrics disabled on device, blocking app")
			p.mu.Lock()
			p.biometricsDisabled = true
			p.mu.Unlock()
			return nil
		}
	}

	err = p.unlockLocked(ctx, "")
	if errors.Is(err, models.ErrAuthenticationCancelled) || errors.Is(err, models.ErrAuthenticationFailed) {
		p.log.Info("automatic unlock not completed", zap.Error(err))
		return nil
	}
	return err
}

// Unlock derives the keys and binds the permanent storages. With a pin, an
// interrupted security change is first rolled back from its backup. A
// wrong pin returns models.ErrInvalidCredential and leaves the status
// unchanged; a dismissed prompt sets AuthenticationCancelled.
func (p *Provider) Unlock(ctx context.Context, pin string) error {
	p.op.Lock()
	defer p.op.Unlock()
	return p.unlockLocked(ctx, pin)
}

func (p *Provider) unlockLocked(ctx context.Context, pin string) error {
	switch p.Status() {
	case models.Unlocked:
		return nil
	case models.FirstTimeAccess:
		return fmt.Errorf("unlock: %w: wallet is onboarding", models.ErrInvalidTransition)
	}

	var keys *models.StorageEncryptionKeys
	if pin != "" {
		backupKeys, err := p.backup.Get(ctx, pin)
		if err != nil {
			return fmt.Errorf("unlock: read backup: %w", err)
		}
		if backupKeys != nil {
			// opening the backup proves the pin
			if err := p.restoreBackup(ctx, backupKeys, pin); err != nil {
				return err
			}
			keys = backupKeys
		}
	}

	if keys == nil {
		err := biometrics.Retry(ctx, p.opts.BiometricAttempts, func(attempt int) error {
			if attempt > 1 {
				p.log.Info("biometric prompt cancelled, retrying", zap.Int("attempt", attempt))
			}
			k, err := p.keys.Get(ctx, pin)
			keys = k
			return err
		})
		if errors.Is(err, models.ErrAuthenticationCancelled) {
			p.mu.Lock()
			p.authCancelled = true
			p.mu.Unlock()
		}
		if err != nil {
			return fmt.Errorf("unlock: %w", err)
		}
	}

	if err := p.bindPermanent(keys); err != nil {
		return err
	}
	p.mu.Lock()
	p.authCancelled = false
	p.biometricsDisabled = false
	securityType := p.securityType
	p.mu.Unlock()
	p.Touch()
	if err := p.apply(EventUnlocked); err != nil {
		return err
	}
	p.evaluateDowngrade(ctx, securityType, p.deviceState(ctx), true)
	return nil
}

func (p *Provider) restoreBackup(ctx context.Context, keys *models.StorageEncryptionKeys, pin string) error {
	p.log.Warn("restoring keys from security upgrade backup")
	if err := p.keys.Set(ctx, keys, models.SecuritySecret, pin); err != nil {
		return fmt.Errorf("unlock: restore backup: %w", err)
	}
	if err := p.config.Set(ctx, models.SecuritySecret); err != nil {
		return fmt.Errorf("unlock: restore backup: %w", err)
	}
	if err := p.backup.Clear(ctx); err != nil {
		p.log.Error("failed to clear security upgrade backup", zap.Error(err))
	}
	p.mu.Lock()
	p.securityType = models.SecuritySecret
	p.mu.Unlock()
	return nil
}

// MigrateOnboarding commits the onboarding session to permanent storage
// under the chosen security level. On any failure the whole application is
// reset and the error, wrapping models.ErrMigrationFailure, is returned.
// State.MigrationFailed is raised only when that reset succeeded.
func (p *Provider) MigrateOnboarding(ctx context.Context, level models.SecurityLevel, pin string) error {
	p.op.Lock()
	defer p.op.Unlock()

	if st := p.Status(); st != models.FirstTimeAccess {
		return fmt.Errorf("migrate onboarding: %w: status is %s", models.ErrInvalidTransition, st)
	}
	if !level.Valid() {
		return fmt.Errorf("migrate onboarding: invalid security level %q", level)
	}
	if level == models.SecuritySecret && pin == "" {
		return fmt.Errorf("migrate onboarding: %w: pin required", models.ErrInvalidCredential)
	}

	err := p.migrate(ctx, level, pin)
	if err == nil {
		return nil
	}

	p.log.Error("onboarding migration failed, resetting application", zap.Error(err))
	if resetErr := p.resetLocked(ctx); resetErr != nil {
		return multierr.Append(err, fmt.Errorf("reset after failed migration: %w", resetErr))
	}
	if trErr := p.apply(EventMigrationFailed); trErr != nil {
		return multierr.Append(err, trErr)
	}
	// the reset succeeded; callers may present the fresh onboarding state
	p.mu.Lock()
	p.migrationFailed = true
	p.mu.Unlock()
	return err
}

func (p *Provider) migrate(ctx context.Context, level models.SecurityLevel, pin string) error {
	if err := p.config.Set(ctx, level); err != nil {
		return fmt.Errorf("%w: %w", models.ErrMigrationFailure, err)
	}

	keys, err := p.keys.Init(ctx, level, pin)
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrMigrationFailure, err)
	}

	p.mu.RLock()
	onboardingKey := p.onboardingKey
	p.mu.RUnlock()

	params := onboarding.Params{
		OnboardingStorage: p.area(models.AreaOnboarding),
		EncryptedStorage:  p.area(models.AreaRedux),
		EncryptionKey:     keys.Redux,
		OnboardingKey:     onboardingKey,
	}
	// entries are upserted, so a repeated attempt overwrites a partial copy
	for attempt := 0; ; attempt++ {
		err = onboarding.MigrateState(ctx, params)
		if err == nil || attempt >= p.opts.MigrationRetries {
			break
		}
		p.log.Warn("onboarding migration attempt failed", zap.Int("attempt", attempt+1), zap.Error(err))
	}
	if err != nil {
		return err
	}

	if err := onboarding.Prune(ctx, params.OnboardingStorage); err != nil {
		return fmt.Errorf("%w: %w", models.ErrMigrationFailure, err)
	}
	if err := p.bindPermanent(keys); err != nil {
		return fmt.Errorf("%w: %w", models.ErrMigrationFailure, err)
	}

	p.mu.Lock()
	p.securityType = level
	p.migrationFailed = false
	p.mu.Unlock()
	p.Touch()
	return p.apply(EventMigrated)
}

// ResetApplication clears every store, the keys and the security config,
// generates a new onboarding key and returns to FirstTimeAccess. It is
// idempotent. Cleanup failures are aggregated; the in-memory state is reset
// regardless.
func (p *Provider) ResetApplication(ctx context.Context) error {
	p.op.Lock()
	defer p.op.Unlock()
	return p.resetLocked(ctx)
}

func (p *Provider) resetLocked(ctx context.Context) error {
	var errs error
	for _, area := range []models.StorageArea{models.AreaRedux, models.AreaImages, models.AreaMetadata, models.AreaOnboarding} {
		multierr.AppendInto(&errs, p.area(area).ClearAll(ctx))
	}
	multierr.AppendInto(&errs, p.keys.Remove(ctx))
	multierr.AppendInto(&errs, p.backup.Clear(ctx))
	multierr.AppendInto(&errs, p.config.Remove(ctx))

	p.mu.Lock()
	p.images, p.metadata, p.redux = nil, nil, nil
	p.userKey = ""
	p.securityType = models.SecurityNone
	p.migrationFailed = false
	p.isAppReady = false
	p.authCancelled = false
	p.biometricsDisabled = false
	p.securityDowngrade = false
	p.mu.Unlock()

	if err := p.newOnboardingKey(); err != nil {
		return multierr.Append(errs, err)
	}
	multierr.AppendInto(&errs, p.bindOnboarding())
	multierr.AppendInto(&errs, p.apply(EventReset))

	if errs != nil {
		p.log.Error("application reset completed with errors", zap.Error(errs))
	}
	return errs
}

// UpdateSecurityMethod re-seals the keys for a new method: SECRET when
// newPin is set, BIOMETRIC otherwise. currentPin must open the current keys
// (it is ignored for biometric keys, which prompt instead). On failure the
// previous sealing is restored so the keys are never lost.
func (p *Provider) UpdateSecurityMethod(ctx context.Context, currentPin, newPin string) error {
	p.op.Lock()
	defer p.op.Unlock()

	if st := p.Status(); st != models.Unlocked {
		return fmt.Errorf("update security method: %w: status is %s", models.ErrInvalidTransition, st)
	}

	newLevel := models.SecurityBiometric
	if newPin != "" {
		newLevel = models.SecuritySecret
	}

	p.mu.RLock()
	oldLevel := p.securityType
	p.mu.RUnlock()

	if oldLevel == models.SecuritySecret && newLevel == models.SecuritySecret && newPin == currentPin {
		return ErrSamePin
	}
	if newLevel == models.SecurityBiometric {
		if p.auth == nil {
			return models.ErrBiometricsUnavailable
		}
		st, err := p.auth.State(ctx)
		if err != nil || !st.BiometricsUsable() {
			return models.ErrBiometricsUnavailable
		}
	}

	keys, err := p.keys.Get(ctx, currentPin)
	if err != nil {
		return fmt.Errorf("update security method: %w", err)
	}

	// only a PIN-sealed backup can be restored by a later unlock
	if oldLevel == models.SecuritySecret {
		if err := p.backup.Save(ctx, keys, oldLevel, currentPin); err != nil {
			return fmt.Errorf("update security method: write backup: %w", err)
		}
	}

	if err := p.keys.Set(ctx, keys, newLevel, newPin); err != nil {
		return p.restoreSecurity(ctx, keys, oldLevel, currentPin, fmt.Errorf("update security method: %w", err))
	}
	if err := p.config.Set(ctx, newLevel); err != nil {
		return p.restoreSecurity(ctx, keys, oldLevel, currentPin, fmt.Errorf("update security method: write config: %w", err))
	}
	if err := p.backup.Clear(ctx); err != nil {
		p.log.Error("failed to clear security upgrade backup", zap.Error(err))
	}

	p.mu.Lock()
	p.securityType = newLevel
	// the user re-confirmed the unlock method
	p.securityDowngrade = false
	p.mu.Unlock()
	p.log.Info("security method updated",
		zap.String("from", string(oldLevel)),
		zap.String("to", string(newLevel)),
	)
	return nil
}

// restoreSecurity re-seals keys under the previous method after a failed
// change and returns cause. The config was never changed, or its write failed.
func (p *Provider) restoreSecurity(ctx context.Context, keys *models.StorageEncryptionKeys, level models.SecurityLevel, pin string, cause error) error {
	p.log.Warn("security method change failed, restoring previous keys", zap.Error(cause))
	if err := p.keys.Set(ctx, keys, level, pin); err != nil {
		// the backup stays in place; the next unlock with pin restores it
		return multierr.Append(cause, fmt.Errorf("restore previous keys: %w", err))
	}
	if err := p.backup.Clear(ctx); err != nil {
		p.log.Error("failed to clear security upgrade backup", zap.Error(err))
	}
	return cause
}

// LockApplication drops the permanent handles of an unlocked wallet and
// returns it to NotInitialised. It is a no-op in any other status.
func (p *Provider) LockApplication() {
	p.op.Lock()
	defer p.op.Unlock()

	if p.Status() != models.Unlocked {
		return
	}
	p.mu.Lock()
	p.redux, p.images, p.metadata = nil, nil, nil
	p.userKey = ""
	p.isAppReady = false
	p.mu.Unlock()
	_ = p.apply(EventLock)
}

// TriggerAutoLock locks an unlocked wallet when the app is no longer active.
func (p *Provider) TriggerAutoLock(appActive bool) {
	if appActive {
		return
	}
	p.LockApplication()
}

// SetWalletStatus forces the status. Unlocked is only accepted while the
// permanent handles are bound; NotInitialised and Locked drop them.
func (p *Provider) SetWalletStatus(status models.WalletStatus) error {
	p.op.Lock()
	defer p.op.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	switch status {
	case models.Unlocked:
		if p.images == nil || p.metadata == nil || p.redux == nil || p.redux.Name() != models.AreaRedux {
			return fmt.Errorf("%w: storage handles are not bound", models.ErrInvalidTransition)
		}
	case models.FirstTimeAccess:
		if p.redux == nil || p.redux.Name() != models.AreaOnboarding {
			return fmt.Errorf("%w: onboarding storage is not bound", models.ErrInvalidTransition)
		}
	case models.NotInitialised, models.Locked:
		p.redux, p.images, p.metadata = nil, nil, nil
		p.userKey = ""
		p.isAppReady = false
	default:
		return fmt.Errorf("%w: unknown status %d", models.ErrInvalidTransition, int(status))
	}

	p.log.Warn("wallet status forced", zap.Stringer("from", p.status), zap.Stringer("to", status))
	p.status = status
	return nil
}

// UserKey returns the wallet's user key. It is only available while the
// wallet is unlocked.
func (p *Provider) UserKey() (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.status != models.Unlocked || p.userKey == "" {
		return "", models.ErrStorageLocked
	}
	return p.userKey, nil
}

// SetIsAppReady records that the consumers finished loading the state.
func (p *Provider) SetIsAppReady(ready bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.isAppReady = ready
}

// Touch records user activity for the auto-lock watcher.
func (p *Provider) Touch() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastActivity = p.now()
}

// IdleFor returns the time since the last recorded activity.
func (p *Provider) IdleFor() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.now().Sub(p.lastActivity)
}

func (p *Provider) evaluateDowngrade(ctx context.Context, level models.SecurityLevel, device *models.BiometricState, onboarded bool) {
	if p.detector == nil {
		return
	}
	res, err := p.detector.Evaluate(ctx, downgrade.Input{
		UserSelectedSecurity: level,
		Device:               device,
		UserHasOnboarded:     onboarded,
	})
	if err != nil {
		p.log.Error("security downgrade check failed", zap.Error(err))
		return
	}
	if res.Upgrade {
		p.log.Info("device security level increased")
	}
	if !res.Downgrade {
		return
	}
	// stays raised until the user picks a method again or resets
	p.mu.Lock()
	p.securityDowngrade = true
	p.mu.Unlock()
}

// deviceState returns nil when the authenticator cannot report the device.
func (p *Provider) deviceState(ctx context.Context) *models.BiometricState {
	if p.auth == nil {
		return nil
	}
	st, err := p.auth.State(ctx)
	if err != nil {
		p.log.Warn("biometric state unavailable", zap.Error(err))
		return nil
	}
	return &st
}

func (p *Provider) apply(ev Event) error {
	p.mu.Lock()
	from := p.status
	to, err := Transition(from, ev)
	if err == nil {
		p.status = to
	}
	session := p.session
	p.mu.Unlock()

	if err != nil {
		p.log.Error("rejected wallet status transition", zap.String("event", string(ev)), zap.Error(err))
		return err
	}
	p.log.Info("wallet status transition",
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.String("event", string(ev)),
		zap.String("session", session),
	)
	return nil
}

func (p *Provider) area(name models.StorageArea) storage.Area {
	return storage.NewArea(p.repo, name)
}

func (p *Provider) newOnboardingKey() error {
	key, err := storage.GenerateKey()
	if err != nil {
		return fmt.Errorf("onboarding key: %w", err)
	}
	p.mu.Lock()
	p.onboardingKey = key
	p.session = uuid.NewString()
	p.mu.Unlock()
	return nil
}

func (p *Provider) bindOnboarding() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	h, err := storage.NewEncrypted(p.area(models.AreaOnboarding), p.onboardingKey)
	if err != nil {
		return err
	}
	p.redux, p.images, p.metadata = h, nil, nil
	p.userKey = ""
	return nil
}

// bindPermanent binds all three permanent handles or none.
func (p *Provider) bindPermanent(keys *models.StorageEncryptionKeys) error {
	handles := make([]*storage.EncryptedStorage, len(models.PermanentAreas))
	for i, area := range models.PermanentAreas {
		h, err := storage.NewEncrypted(p.area(area), keys.For(area))
		if err != nil {
			return err
		}
		handles[i] = h
	}

	p.mu.Lock()
	p.redux, p.images, p.metadata = handles[0], handles[1], handles[2]
	p.userKey = keys.UserKey
	p.mu.Unlock()
	return nil
}
