package scanner

import (
	"github.com/docker/docker/client"

	"github.com/dbferry/dbferry/config"
)

// ScanApi drives the external scanning engine. The engine is opaque: it is
// handed an image reference and the active dataset location and returns a
// report; its findings are never inspected beyond summary counting.
type ScanApi struct {
	DCli *client.Client
	Conf *config.LifecycleConfig
}

func NewScanApi(conf *config.LifecycleConfig) (*ScanApi, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}

	return &ScanApi{DCli: cli, Conf: conf}, nil
}

// Options narrows the scan to the caller's interest.
type Options struct {
	Format     string
	Severities []string
}
