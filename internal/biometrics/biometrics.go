// Package biometrics models the platform biometric-authentication API: a
// prompt that succeeds, fails or is cancelled, and a capability report.
package biometrics

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/atinyakov/WalletKeeper/internal/models"
)

// Authenticator is the device biometric collaborator.
type Authenticator interface {
	// Authenticate shows a prompt. It returns nil on success,
	// models.ErrAuthenticationCancelled when the user dismisses it and
	// models.ErrAuthenticationFailed when the user is rejected.
	Authenticate(ctx context.Context, prompt string) error
	// State reports the current capability of the device.
	State(ctx context.Context) (models.BiometricState, error)
}

// DefaultAttempts bounds the retry loop when no explicit limit is configured.
const DefaultAttempts = 3

// Retry runs fn until it succeeds, returns an error other than a cancelled
// prompt, or maxAttempts is reached. A cancellation on the last attempt is
// returned wrapped, so errors.Is(err, models.ErrAuthenticationCancelled)
// still holds for the caller.
func Retry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	if maxAttempts < 1 {
		maxAttempts = DefaultAttempts
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = fn(attempt)
		if err == nil || !errors.Is(err, models.ErrAuthenticationCancelled) {
			return err
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", maxAttempts, err)
}

// Static is an Authenticator with a fixed capability report. Prompts
// succeed when the device is enrolled and fail with
// models.ErrBiometricsUnavailable otherwise.
type Static struct {
	Device models.BiometricState
}

// Authenticate implements Authenticator.
func (s Static) Authenticate(ctx context.Context, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.Device.IsDeviceEnrolled {
		return models.ErrBiometricsUnavailable
	}
	return nil
}

// State implements Authenticator.
func (s Static) State(context.Context) (models.BiometricState, error) {
	return s.Device, nil
}

// Scripted replays a queue of prompt outcomes; once the queue is drained
// every prompt succeeds. It is safe for concurrent use.
type Scripted struct {
	mu       sync.Mutex
	device   models.BiometricState
	outcomes []error
	prompts  int
}

// NewScripted returns a Scripted authenticator for device that answers the
// first prompts with outcomes, in order.
func NewScripted(device models.BiometricState, outcomes ...error) *Scripted {
	return &Scripted{device: device, outcomes: outcomes}
}

// Authenticate implements Authenticator.
func (s *Scripted) Authenticate(context.Context, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts++
	if len(s.outcomes) == 0 {
		return nil
	}
	next := s.outcomes[0]
	s.outcomes = s.outcomes[1:]
	return next
}

// State implements Authenticator.
func (s *Scripted) State(context.Context) (models.BiometricState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device, nil
}

// SetDevice replaces the capability report.
func (s *Scripted) SetDevice(device models.BiometricState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.device = device
}

// Queue appends prompt outcomes.
func (s *Scripted) Queue(outcomes ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, outcomes...)
}

// Prompts returns how many prompts were shown.
func (s *Scripted) Prompts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompts
}
