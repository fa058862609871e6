// Package main runs an interactive WalletKeeper shell with an in-process
// provider. Biometric prompts are confirmed on the terminal.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/atinyakov/WalletKeeper/internal/app"
	"github.com/atinyakov/WalletKeeper/internal/client/prompt"
	"github.com/atinyakov/WalletKeeper/internal/config"
	"github.com/atinyakov/WalletKeeper/internal/models"
	"github.com/atinyakov/WalletKeeper/internal/service"
	"github.com/atinyakov/WalletKeeper/internal/storage"
	"go.uber.org/zap"
)

var (
	version   string
	buildDate string
)

const help = `Available commands:
  status                 show the wallet state
  unlock                 unlock with PIN or biometrics
  onboard                choose a security type and save the onboarding data
  list <area>            list keys of redux, images or metadata
  get <area> <key>       print a value
  set <area> <key>       store a JSON value
  delete <area> <key>    delete a value
  security               change the unlock method
  lock                   lock the wallet
  reset                  wipe everything and start over
  exit`

// shell holds the interactive session.
type shell struct {
	p  *service.Provider
	wa *app.App
	in *prompt.Prompter
}

func (s *shell) handle(ctx context.Context, args []string) error {
	switch args[0] {
	case "help":
		fmt.Println(help)
	case "status":
		b, _ := json.MarshalIndent(s.p.Context(), "", "  ")
		fmt.Println(string(b))
	case "unlock":
		return s.unlock(ctx)
	case "onboard":
		return s.onboard(ctx)
	case "list", "get", "set", "delete":
		return s.storage(ctx, args)
	case "security":
		return s.security(ctx)
	case "lock":
		s.p.LockApplication()
		fmt.Println("Wallet locked")
	case "reset":
		answer, err := s.in.Line("This deletes all wallet data. Type 'reset' to confirm: ")
		if err != nil || answer != "reset" {
			fmt.Println("Cancelled")
			return nil
		}
		return s.p.ResetApplication(ctx)
	default:
		fmt.Println("Unknown command. Type 'help' for a list of commands.")
	}
	return nil
}

func (s *shell) unlock(ctx context.Context) error {
	if s.p.Status() == models.NotInitialised {
		if err := s.p.Initialise(ctx); err != nil {
			return err
		}
		if s.p.Status() != models.Locked {
			fmt.Println("Wallet is", s.p.Status())
			return nil
		}
	}

	var pin string
	if s.p.Context().SecurityType == models.SecuritySecret {
		var err error
		if pin, err = s.in.PIN("PIN: "); err != nil {
			return err
		}
	}
	if err := s.p.Unlock(ctx, pin); err != nil {
		return err
	}
	s.p.SetIsAppReady(true)
	fmt.Println("Wallet unlocked")
	return nil
}

func (s *shell) onboard(ctx context.Context) error {
	level, err := s.in.SecurityType()
	if err != nil {
		return err
	}
	var pin string
	if level == models.SecuritySecret {
		if pin, err = s.in.NewPIN(); err != nil {
			return err
		}
	}
	err = s.p.MigrateOnboarding(ctx, level, pin)
	if errors.Is(err, models.ErrMigrationFailure) && s.p.Context().MigrationFailed {
		fmt.Println("Could not save the wallet, onboarding restarted")
		return nil
	}
	if err != nil {
		return err
	}
	s.p.SetIsAppReady(true)
	fmt.Println("Wallet created")
	return nil
}

func (s *shell) security(ctx context.Context) error {
	var current string
	if s.p.Context().SecurityType == models.SecuritySecret {
		var err error
		if current, err = s.in.PIN("Current PIN: "); err != nil {
			return err
		}
		ok, err := s.wa.Keys.ValidatePin(ctx, current)
		if err != nil {
			return err
		}
		if !ok {
			return models.ErrInvalidCredential
		}
	}

	level, err := s.in.SecurityType()
	if err != nil {
		return err
	}
	var next string
	switch level {
	case models.SecuritySecret:
		if next, err = s.in.NewPIN(); err != nil {
			return err
		}
	case models.SecurityBiometric:
	default:
		return errors.New("only pin or biometrics can be selected")
	}

	if err := s.p.UpdateSecurityMethod(ctx, current, next); err != nil {
		return err
	}
	fmt.Println("Security method updated")
	return nil
}

func (s *shell) storage(ctx context.Context, args []string) error {
	usage := fmt.Sprintf("Usage: %s <area> <key>", args[0])
	if args[0] == "list" {
		usage = "Usage: list <area>"
	}
	if len(args) < 2 || (args[0] != "list" && len(args) < 3) {
		fmt.Println(usage)
		return nil
	}

	h := s.p.Context().Handle(models.StorageArea(args[1]))
	if h == nil {
		return fmt.Errorf("%w: %s", models.ErrStorageLocked, args[1])
	}

	switch args[0] {
	case "list":
		keys, err := h.GetAllKeys(ctx)
		if err != nil {
			return err
		}
		fmt.Println(strings.Join(keys, "\n"))
	case "get":
		return printValue(ctx, h, args[2])
	case "set":
		v, err := s.in.Value()
		if err != nil {
			return err
		}
		return h.Set(ctx, args[2], v)
	case "delete":
		return h.Delete(ctx, args[2])
	}
	return nil
}

func printValue(ctx context.Context, h *storage.EncryptedStorage, key string) error {
	v, err := h.Get(ctx, key)
	if errors.Is(err, models.ErrNotFound) {
		fmt.Println("Value not found")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Println(string(v))
	return nil
}

// repl runs the interactive shell loop.
func (s *shell) repl(ctx context.Context) {
	for {
		line, err := s.in.Line(fmt.Sprintf("walletkeeper [%s]> ", s.p.Status()))
		if err != nil {
			return
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			fmt.Println("Bye")
			return
		}
		s.p.Touch()
		if err := s.handle(ctx, args); err != nil {
			fmt.Println("Error:", err)
		}
	}
}

func main() {
	options := config.Parse()
	fmt.Printf("WalletKeeper shell %s (%s)\n", version, buildDate)

	device, err := app.DeviceState(options)
	if err != nil {
		log.Fatal(err)
	}
	in := prompt.Stdio()
	auth := &prompt.Authenticator{Prompter: in, Device: device}

	wa, err := app.New(options, auth, zap.NewNop())
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = wa.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := wa.Provider
	if err := p.Initialise(ctx); err != nil {
		log.Printf("initialise: %v", err)
	}
	service.StartAutoLock(ctx, p, options.AutoLock.Duration, 0, zap.NewNop())

	s := &shell{p: p, wa: wa, in: in}
	switch st := p.Context(); {
	case st.WalletStatus == models.FirstTimeAccess:
		fmt.Println("New wallet. Store some data, then run 'onboard'.")
	case st.BiometricsDisabled:
		fmt.Println("Biometrics are no longer available on this device. Run 'reset' to start over.")
	case st.SecurityDowngrade:
		fmt.Println("Device security was lowered since the last launch.")
	case st.WalletStatus == models.Locked:
		fmt.Println("Wallet is locked. Run 'unlock'.")
	}
	s.repl(ctx)
}
