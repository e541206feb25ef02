package server

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/guardrail-labs/guardrail-api/internal/admin"
	"github.com/guardrail-labs/guardrail-api/internal/engine"
	"github.com/guardrail-labs/guardrail-api/internal/logger"
)

func newSeedTestEngine() *engine.Engine {
	return engine.New(engine.Config{
		DomainID:      1,
		HandlerTarget: common.HexToAddress("0x00000000000000000000000000000000000000cc"),
		Invoker:       engine.NewCallbackInvoker(),
		Logger:        zap.NewNop(),
	})
}

func writeSeedFile(t *testing.T, batch admin.Batch) string {
	t.Helper()
	data, err := json.Marshal(batch)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestBootstrapFromFileAppliesSeed(t *testing.T) {
	logger.InitLogger("local")
	eng := newSeedTestEngine()
	path := writeSeedFile(t, admin.Batch{
		admin.MustAction(admin.KindCreateRole, admin.CreateRolePayload{Name: "OPERATORS", MaxMembers: 3}),
	})

	require.NoError(t, bootstrapFromFile(context.Background(), eng, path))
	roles := eng.Roles()
	require.Len(t, roles, 1)
	assert.Equal(t, "OPERATORS", roles[0].Name)
}

func TestBootstrapFromFileSkipsSeededRegistry(t *testing.T) {
	logger.InitLogger("local")
	eng := newSeedTestEngine()
	require.NoError(t, eng.Bootstrap(context.Background(), admin.Batch{
		admin.MustAction(admin.KindCreateRole, admin.CreateRolePayload{Name: "OPERATORS", MaxMembers: 3}),
	}))

	// A second start with a different seed file must leave the live
	// registry untouched and report success.
	path := writeSeedFile(t, admin.Batch{
		admin.MustAction(admin.KindCreateRole, admin.CreateRolePayload{Name: "AUDITORS", MaxMembers: 3}),
	})
	require.NoError(t, bootstrapFromFile(context.Background(), eng, path))

	roles := eng.Roles()
	require.Len(t, roles, 1)
	assert.Equal(t, "OPERATORS", roles[0].Name)
}

func TestBootstrapFromFileRejectsMalformedSeed(t *testing.T) {
	logger.InitLogger("local")
	eng := newSeedTestEngine()
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	require.Error(t, bootstrapFromFile(context.Background(), eng, path))
	assert.Empty(t, eng.Roles())
}
