package memkv

import (
	"testing"

	"github.com/mesh-intelligence/statekit/internal/kvtest"
	"github.com/mesh-intelligence/statekit/pkg/types"
)

func TestBackendContract(t *testing.T) {
	kvtest.Run(t, func() types.Backend { return NewBackend() }, types.Config{Backend: types.BackendMemory}, false)
}
