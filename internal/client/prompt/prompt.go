// Package prompt reads wallet input from a terminal: PINs, the security
// type chosen at onboarding, storage values and biometric confirmations.
package prompt

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atinyakov/WalletKeeper/internal/models"
)

// ErrNoInput is returned when the input is exhausted.
var ErrNoInput = errors.New("no input")

// Prompter asks questions on Out and reads answers line by line from In.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// New returns a Prompter over in and out.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

// Stdio returns a Prompter over the process terminal.
func Stdio() *Prompter {
	return New(os.Stdin, os.Stdout)
}

// Line prints label and returns the next trimmed input line.
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", ErrNoInput
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// PIN asks for a PIN. Only digits are accepted.
func (p *Prompter) PIN(label string) (string, error) {
	pin, err := p.Line(label)
	if err != nil {
		return "", err
	}
	if pin == "" || strings.Trim(pin, "0123456789") != "" {
		return "", fmt.Errorf("%w: pin must be digits", models.ErrInvalidCredential)
	}
	return pin, nil
}

// NewPIN asks for a PIN twice and fails when the entries differ.
func (p *Prompter) NewPIN() (string, error) {
	pin, err := p.PIN("Choose a PIN: ")
	if err != nil {
		return "", err
	}
	again, err := p.PIN("Repeat the PIN: ")
	if err != nil {
		return "", err
	}
	if pin != again {
		return "", fmt.Errorf("%w: pins do not match", models.ErrInvalidCredential)
	}
	return pin, nil
}

// SecurityType asks how the wallet should be unlocked.
func (p *Prompter) SecurityType() (models.SecurityLevel, error) {
	answer, err := p.Line("Unlock with (pin/biometrics/none): ")
	if err != nil {
		return "", err
	}
	return models.ParseSecurityLevel(answer)
}

// Value asks for a JSON document.
func (p *Prompter) Value() ([]byte, error) {
	answer, err := p.Line("Enter JSON value: ")
	if err != nil {
		return nil, err
	}
	if !json.Valid([]byte(answer)) {
		return nil, fmt.Errorf("invalid JSON: %q", answer)
	}
	return []byte(answer), nil
}

// Authenticator is a biometric authenticator that asks the user to confirm
// on the terminal: "y" passes, "n" fails and anything else cancels.
type Authenticator struct {
	Prompter *Prompter
	Device   models.BiometricState
}

// Authenticate implements biometrics.Authenticator.
func (a *Authenticator) Authenticate(ctx context.Context, prompt string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !a.Device.IsDeviceEnrolled {
		return models.ErrBiometricsUnavailable
	}
	answer, err := a.Prompter.Line(prompt + " [y/n/c]: ")
	if err != nil {
		return models.ErrAuthenticationCancelled
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return nil
	case "n", "no":
		return models.ErrAuthenticationFailed
	}
	return models.ErrAuthenticationCancelled
}

// State implements biometrics.Authenticator.
func (a *Authenticator) State(context.Context) (models.BiometricState, error) {
	return a.Device, nil
}
