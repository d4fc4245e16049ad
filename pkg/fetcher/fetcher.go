package fetcher

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"github.com/dbferry/dbferry/config"
	"github.com/dbferry/dbferry/pkg/dataset"
)

// Origin images keep the dataset under a fixed directory.
const (
	primaryImagePath = "/trivy-db"
	auxImagePath     = "/trivy-java-db"
)

// Fetcher retrieves dataset snapshots from origin OCI images into isolated
// staging directories, never touching the active dataset.
type Fetcher struct {
	DCli *client.Client
	Conf *config.LifecycleConfig
}

func NewFetcher(conf *config.LifecycleConfig) (*Fetcher, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}

	return &Fetcher{DCli: cli, Conf: conf}, nil
}

// FetchPrimary retrieves the primary dataset into destDir and returns the
// loaded snapshot. A partial result fails with ErrFetchIncomplete and the
// caller discards destDir wholesale.
func (f *Fetcher) FetchPrimary(ctx context.Context, destDir string) (*dataset.Snapshot, error) {
	if err := f.extractImage(ctx, f.Conf.OriginImage, primaryImagePath, destDir); err != nil {
		return nil, err
	}

	return dataset.LoadSnapshot(destDir)
}

// FetchAuxiliary retrieves the optional extended dataset. Callers treat any
// error as a degraded-mode condition, never as a cycle failure.
func (f *Fetcher) FetchAuxiliary(ctx context.Context, destDir string) error {
	return f.extractImage(ctx, f.Conf.AuxOriginImage, auxImagePath, destDir)
}

// extractImage pulls the origin image and copies the dataset directory out
// of a stopped container into destDir.
func (f *Fetcher) extractImage(ctx context.Context, image, srcPath, destDir string) error {
	if err := f.pull(ctx, image); err != nil {
		return err
	}

	created, err := f.DCli.ContainerCreate(ctx, &container.Config{Image: image}, nil, nil, nil, "")
	if err != nil {
		return err
	}

	defer func() {
		rmErr := f.DCli.ContainerRemove(ctx, created.ID, types.ContainerRemoveOptions{Force: true})
		if rmErr != nil {
			log.Printf("failed to remove container %s: %v", created.ID[:12], rmErr)
		}
	}()

	reader, _, err := f.DCli.CopyFromContainer(ctx, created.ID, srcPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	if err := dataset.MkFolder(destDir); err != nil {
		return err
	}

	return untarStrip(reader, destDir)
}

// pull retries transient registry failures with exponential backoff.
func (f *Fetcher) pull(ctx context.Context, image string) error {
	op := func() error {
		out, err := f.DCli.ImagePull(ctx, image, types.ImagePullOptions{})
		if err != nil {
			return err
		}
		defer out.Close()

		// Drain the progress stream; the pull is not done until EOF
		_, err = io.Copy(io.Discard, out)
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 3 * time.Minute

	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}

// StagingPath returns an isolated staging directory for one fetch target.
func StagingPath(conf *config.LifecycleConfig, name string) string {
	return filepath.Join(conf.StagingDir(), name)
}
