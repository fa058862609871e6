package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atinyakov/WalletKeeper/internal/biometrics"
	"github.com/atinyakov/WalletKeeper/internal/downgrade"
	"github.com/atinyakov/WalletKeeper/internal/keychain"
	"github.com/atinyakov/WalletKeeper/internal/keys"
	"github.com/atinyakov/WalletKeeper/internal/models"
	"github.com/atinyakov/WalletKeeper/internal/repository"
	"github.com/atinyakov/WalletKeeper/internal/securityconfig"
	handler "github.com/atinyakov/WalletKeeper/internal/server/handler/http"
	"github.com/atinyakov/WalletKeeper/internal/service"
	"github.com/atinyakov/WalletKeeper/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	repo := repository.NewMemoryKVRepository()
	auth := biometrics.Static{Device: models.BiometricState{HasHardware: true, IsDeviceEnrolled: true, CurrentSecurityLevel: models.SecurityBiometric}}
	kc := keychain.New(storage.NewArea(repo, models.AreaKeychain), auth, nil)
	helper := keys.NewHelper(kc, keys.LightKDFParams(), nil)
	cfg := securityconfig.New(storage.NewArea(repo, models.AreaSecurityConfig))

	p, err := service.NewProvider(service.Deps{
		Repo:     repo,
		Keys:     helper,
		Backup:   keys.NewBackup(helper),
		Config:   cfg,
		Detector: downgrade.New(cfg, nil),
		Auth:     auth,
	}, service.Options{})
	require.NoError(t, err)

	r := handler.NewRouter(
		&handler.WalletHandler{Wallet: p},
		&handler.StorageHandler{Source: p},
		p,
		zap.NewNop(),
	)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, string) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, srv.URL+path, rd)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func walletStatus(t *testing.T, body string) string {
	t.Helper()
	var st map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &st))
	s, _ := st["walletStatus"].(string)
	return s
}

func TestRouter_WalletLifecycle(t *testing.T) {
	srv := newServer(t)

	code, _ := do(t, srv, http.MethodGet, "/api/storage/redux/wallet", "")
	assert.Equal(t, http.StatusLocked, code, "storage is gated before init")

	code, body := do(t, srv, http.MethodPost, "/api/init", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "FIRST_TIME_ACCESS", walletStatus(t, body))

	code, _ = do(t, srv, http.MethodPut, "/api/storage/redux/wallet", `{"accounts":1}`)
	require.Equal(t, http.StatusNoContent, code)
	code, _ = do(t, srv, http.MethodGet, "/api/storage/images/logo", "")
	assert.Equal(t, http.StatusLocked, code, "images are not bound while onboarding")

	code, body = do(t, srv, http.MethodPost, "/api/onboarding", `{"securityType":"SECRET","pin":"111111"}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "UNLOCKED", walletStatus(t, body))

	code, body = do(t, srv, http.MethodGet, "/api/storage/redux/wallet", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"accounts":1}`, body)

	code, body = do(t, srv, http.MethodGet, "/api/storage/redux", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"keys":["wallet"]}`, body)

	code, _ = do(t, srv, http.MethodPost, "/api/lock", "")
	require.Equal(t, http.StatusOK, code)
	code, _ = do(t, srv, http.MethodGet, "/api/storage/redux/wallet", "")
	assert.Equal(t, http.StatusLocked, code)

	code, _ = do(t, srv, http.MethodPost, "/api/unlock", `{"pin":"000000"}`)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = do(t, srv, http.MethodPost, "/api/unlock", `{"pin":"111111"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "UNLOCKED", walletStatus(t, body))

	code, _ = do(t, srv, http.MethodPost, "/api/security", `{"currentPin":"111111","newPin":"111111"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, srv, http.MethodDelete, "/api/storage/redux/wallet", "")
	require.Equal(t, http.StatusNoContent, code)
	code, _ = do(t, srv, http.MethodGet, "/api/storage/redux/wallet", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, body = do(t, srv, http.MethodPost, "/api/reset", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "FIRST_TIME_ACCESS", walletStatus(t, body))
}

func TestRouter_RejectsBadInput(t *testing.T) {
	srv := newServer(t)
	code, _ := do(t, srv, http.MethodPost, "/api/init", "")
	require.Equal(t, http.StatusOK, code)

	code, _ = do(t, srv, http.MethodPut, "/api/storage/redux/wallet", `not json`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, srv, http.MethodGet, "/api/storage/keychain/storage_encryption_keys", "")
	assert.Equal(t, http.StatusNotFound, code, "only app areas are served")

	code, _ = do(t, srv, http.MethodPost, "/api/unlock", `{"pin":"1"}`)
	assert.Equal(t, http.StatusConflict, code, "unlock while onboarding")
}
