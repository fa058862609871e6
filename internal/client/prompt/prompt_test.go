package prompt

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/atinyakov/WalletKeeper/internal/biometrics"
	"github.com/atinyakov/WalletKeeper/internal/models"
)

var _ biometrics.Authenticator = (*Authenticator)(nil)

func TestPrompter_PIN(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr error
	}{
		{"111111\n", "111111", nil},
		{"  42 \n", "42", nil},
		{"12ab\n", "", models.ErrInvalidCredential},
		{"\n", "", models.ErrInvalidCredential},
		{"", "", ErrNoInput},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got, err := New(strings.NewReader(tt.input), &out).PIN("PIN: ")
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("PIN(%q) err = %v; want %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("PIN(%q) = %q; want %q", tt.input, got, tt.want)
		}
		if out.String() != "PIN: " {
			t.Errorf("output = %q", out.String())
		}
	}
}

func TestPrompter_NewPIN(t *testing.T) {
	pin, err := New(strings.NewReader("1234\n1234\n"), &bytes.Buffer{}).NewPIN()
	if err != nil || pin != "1234" {
		t.Errorf("NewPIN = %q, %v", pin, err)
	}

	_, err = New(strings.NewReader("1234\n4321\n"), &bytes.Buffer{}).NewPIN()
	if !errors.Is(err, models.ErrInvalidCredential) {
		t.Errorf("mismatch err = %v", err)
	}
}

func TestPrompter_SecurityType(t *testing.T) {
	p := New(strings.NewReader("pin\nBiometrics\n\nface\n"), &bytes.Buffer{})
	for _, want := range []models.SecurityLevel{models.SecuritySecret, models.SecurityBiometric, models.SecurityNone} {
		got, err := p.SecurityType()
		if err != nil || got != want {
			t.Errorf("SecurityType = %q, %v; want %q", got, err, want)
		}
	}
	if _, err := p.SecurityType(); err == nil {
		t.Error("expected an error for an unknown type")
	}
}

func TestPrompter_Value(t *testing.T) {
	p := New(strings.NewReader("{\"a\":1}\nnope\n"), &bytes.Buffer{})
	v, err := p.Value()
	if err != nil || string(v) != `{"a":1}` {
		t.Errorf("Value = %q, %v", v, err)
	}
	if _, err := p.Value(); err == nil {
		t.Error("expected invalid JSON to be rejected")
	}
}

func TestAuthenticator(t *testing.T) {
	device := models.BiometricState{HasHardware: true, IsDeviceEnrolled: true, CurrentSecurityLevel: models.SecurityBiometric}
	a := &Authenticator{
		Prompter: New(strings.NewReader("y\nn\nc\n"), &bytes.Buffer{}),
		Device:   device,
	}
	ctx := context.Background()

	for _, want := range []error{nil, models.ErrAuthenticationFailed, models.ErrAuthenticationCancelled, models.ErrAuthenticationCancelled} {
		if err := a.Authenticate(ctx, "Unlock"); !errors.Is(err, want) {
			t.Errorf("Authenticate err = %v; want %v", err, want)
		}
	}

	a.Device.IsDeviceEnrolled = false
	if err := a.Authenticate(ctx, "Unlock"); !errors.Is(err, models.ErrBiometricsUnavailable) {
		t.Errorf("not enrolled err = %v", err)
	}
	st, _ := a.State(ctx)
	if st.IsDeviceEnrolled {
		t.Error("State must report the configured device")
	}
}
