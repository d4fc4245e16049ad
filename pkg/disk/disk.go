package disk

import (
	"fmt"

	"github.com/dbferry/dbferry/pkg/lifecycle"
	"github.com/shirou/gopsutil/disk"
)

// EnsureFree fails fast with ResourceExhausted when the filesystem holding
// path cannot hold need more bytes. Staging copies are refused up front
// rather than risking a destructive in-place operation.
func EnsureFree(path string, need int64) error {
	usage, err := disk.Usage(path)
	if err != nil {
		// Unknown usage is not treated as exhaustion
		return nil
	}

	if usage.Free < uint64(need) {
		return fmt.Errorf("%w: need %d bytes, %d free at %s",
			lifecycle.ErrResourceExhausted, need, usage.Free, path)
	}

	return nil
}
