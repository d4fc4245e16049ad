package scanner

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/dbferry/dbferry/pkg/dataset"
)

// ScanImage runs the scanning engine against imageRef using only the
// offline dataset: updates are disabled and the database repository points
// at the mounted active dataset.
func (sa *ScanApi) ScanImage(ctx context.Context, imageRef string, opts Options) (string, error) {
	if !dataset.Present(sa.Conf.ActiveDir()) {
		return "", fmt.Errorf("no active dataset found, run setup first")
	}

	format := opts.Format
	if format == "" {
		format = "table"
	}

	cmd := []string{"image", "--format", format}
	if len(opts.Severities) > 0 {
		cmd = append(cmd, "--severity", strings.ToUpper(strings.Join(opts.Severities, ",")))
	}
	cmd = append(cmd, imageRef)

	conf := &container.Config{
		Image: sa.Conf.ScannerImage,
		Cmd:   cmd,
		Env: []string{
			"TRIVY_CACHE_DIR=/root/.cache/trivy",
			"TRIVY_DB_REPOSITORY=file:///trivy-db",
			"TRIVY_SKIP_UPDATE=true",
		},
	}

	hostConf := &container.HostConfig{
		Binds: []string{
			"/var/run/docker.sock:/var/run/docker.sock:ro",
			sa.Conf.CacheDir() + ":/root/.cache/trivy",
			sa.Conf.ActiveDir() + ":/trivy-db:ro",
		},
	}

	created, err := sa.DCli.ContainerCreate(ctx, conf, hostConf, nil, nil, "")
	if err != nil {
		return "", err
	}

	defer func() {
		rmErr := sa.DCli.ContainerRemove(ctx, created.ID, types.ContainerRemoveOptions{Force: true})
		if rmErr != nil {
			log.Printf("failed to remove scan container: %v", rmErr)
		}
	}()

	if err := sa.DCli.ContainerStart(ctx, created.ID, types.ContainerStartOptions{}); err != nil {
		return "", err
	}

	statusCh, errCh := sa.DCli.ContainerWait(ctx, created.ID, container.WaitConditionNotRunning)

	var exitCode int64
	select {
	case err := <-errCh:
		if err != nil {
			return "", err
		}
	case status := <-statusCh:
		exitCode = status.StatusCode
	}

	logs, err := sa.DCli.ContainerLogs(ctx, created.ID, types.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return "", err
	}
	defer logs.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, logs); err != nil {
		return "", err
	}

	if exitCode != 0 {
		return "", fmt.Errorf("scan failed: %s", strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}
