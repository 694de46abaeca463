package supervisor

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
)

// containerConfigPath is where the miner config is mounted inside the container.
const containerConfigPath = "/etc/signum-miner/config.yaml"

// DockerLauncher runs the miner in a container, for operators without a
// local miner binary.
type DockerLauncher struct {
	client *client.Client
	image  string
}

// NewDockerLauncher creates a Docker-based launcher for the given miner image.
func NewDockerLauncher(imageRef string) (*DockerLauncher, error) {
	// Initializes client from standard environment variables (DOCKER_HOST, etc.)
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}
	return &DockerLauncher{client: cli, image: imageRef}, nil
}

// Start implements Launcher.Start using Docker containers. The config
// document is bind-mounted read-only so the in-container miner sees the
// same file the panel edits.
func (d *DockerLauncher) Start(ctx context.Context, spec StartSpec) (Handle, error) {
	// Check if the image exists locally first to save time.
	_, err := d.client.ImageInspect(ctx, d.image)
	if err != nil {
		reader, err := d.client.ImagePull(ctx, d.image, image.PullOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to pull image %s: %w", d.image, err)
		}
		defer reader.Close()
		io.Copy(io.Discard, reader)
	}

	configPath, err := filepath.Abs(spec.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	containerConfig := &container.Config{
		Image: d.image,
		Cmd:   []string{"-c", containerConfigPath},
		Tty:   true,
	}
	hostConfig := &container.HostConfig{
		Binds: []string{configPath + ":" + containerConfigPath + ":ro"},
	}
	resp, err := d.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	if err := d.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	return &DockerHandle{client: d.client, containerID: resp.ID}, nil
}

// DockerHandle represents a miner running in a container.
type DockerHandle struct {
	client      *client.Client
	containerID string
}

// StreamOutput follows the container's combined stdout+stderr.
func (h *DockerHandle) StreamOutput(ctx context.Context) (io.ReadCloser, error) {
	return h.client.ContainerLogs(ctx, h.containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
}

// Signal asks the containerized miner to terminate gracefully.
func (h *DockerHandle) Signal(ctx context.Context) error {
	return h.client.ContainerKill(ctx, h.containerID, "SIGTERM")
}

// Kill forcefully terminates the container.
func (h *DockerHandle) Kill(ctx context.Context) error {
	return h.client.ContainerKill(ctx, h.containerID, "SIGKILL")
}

// Wait blocks until the container stops.
func (h *DockerHandle) Wait(ctx context.Context) ExitResult {
	statusCh, errCh := h.client.ContainerWait(ctx, h.containerID, container.WaitConditionNotRunning)

	select {
	case err := <-errCh:
		return ExitResult{ExitCode: -1, Err: err}
	case status := <-statusCh:
		if status.Error != nil {
			return ExitResult{
				ExitCode: int(status.StatusCode),
				Err:      fmt.Errorf("%s", status.Error.Message),
			}
		}
		return ExitResult{ExitCode: int(status.StatusCode)}
	case <-ctx.Done():
		return ExitResult{ExitCode: -1, Err: ctx.Err()}
	}
}
