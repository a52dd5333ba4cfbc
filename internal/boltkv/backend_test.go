package boltkv

import (
	"testing"

	"github.com/mesh-intelligence/statekit/internal/kvtest"
	"github.com/mesh-intelligence/statekit/pkg/types"
)

func TestBackendContract(t *testing.T) {
	cfg := types.Config{Backend: types.BackendBolt, DataDir: t.TempDir()}
	kvtest.Run(t, func() types.Backend { return NewBackend() }, cfg, true)
}
