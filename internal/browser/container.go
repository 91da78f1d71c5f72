package browser

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const devtoolsPort = "3000/tcp"

// ContainerInstance is a running browserless container.
type ContainerInstance struct {
	ContainerID string
	ConnectURL  string
	Port        string
}

// ContainerLauncher runs the shared engine inside a browserless container.
type ContainerLauncher struct {
	client      *client.Client
	http        *resty.Client
	image       string
	maxSessions int64
	log         *zap.Logger
}

// NewContainerLauncher connects to the local docker daemon.
func NewContainerLauncher(img string, maxSessions int64, log *zap.Logger) (*ContainerLauncher, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	httpClient := resty.New().
		SetTimeout(2 * time.Second).
		SetRetryCount(20).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() != 200
		})

	return &ContainerLauncher{
		client:      cli,
		http:        httpClient,
		image:       img,
		maxSessions: maxSessions,
		log:         log,
	}, nil
}

// Launch starts one container sized for maxSessions concurrent contexts and
// waits until its devtools endpoint answers.
func (l *ContainerLauncher) Launch(ctx context.Context) (*ContainerInstance, error) {
	if err := l.EnsureImage(ctx); err != nil {
		return nil, err
	}

	containerConfig := &container.Config{
		Image: l.image,
		Labels: map[string]string{
			"managed-by": "courtscout",
			"role":       "engine",
		},
		Env: []string{
			"CONNECTION_TIMEOUT=-1",
			"MAX_CONCURRENT_SESSIONS=" + strconv.FormatInt(l.maxSessions, 10),
			"PREBOOT_CHROME=true",
			"KEEP_ALIVE=true",
			"EXIT_ON_HEALTH_FAILURE=false",
		},
		ExposedPorts: nat.PortSet{
			devtoolsPort: struct{}{},
		},
	}

	hostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			devtoolsPort: []nat.PortBinding{
				{
					HostIP:   "127.0.0.1",
					HostPort: "0",
				},
			},
		},
		AutoRemove: false,
		ShmSize:    1 << 30,
	}

	resp, err := l.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	if err := l.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		l.remove(resp.ID)
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	inspect, err := l.client.ContainerInspect(ctx, resp.ID)
	if err != nil {
		l.remove(resp.ID)
		return nil, fmt.Errorf("failed to inspect container: %w", err)
	}

	bindings := inspect.NetworkSettings.Ports[devtoolsPort]
	if len(bindings) == 0 {
		l.remove(resp.ID)
		return nil, fmt.Errorf("container %s exposes no devtools port", resp.ID[:12])
	}
	port := bindings[0].HostPort

	if err := l.waitForReady(ctx, port); err != nil {
		l.remove(resp.ID)
		return nil, fmt.Errorf("browser failed to become ready: %w", err)
	}

	l.log.Info("✓ engine container ready",
		zap.String("container", resp.ID[:12]),
		zap.String("port", port))

	return &ContainerInstance{
		ContainerID: resp.ID,
		ConnectURL:  fmt.Sprintf("ws://localhost:%s", port),
		Port:        port,
	}, nil
}

// Stop stops and removes a container.
func (l *ContainerLauncher) Stop(ctx context.Context, containerID string) error {
	timeout := 10
	if err := l.client.ContainerStop(ctx, containerID, container.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("failed to stop container: %w", err)
	}
	if err := l.client.ContainerRemove(ctx, containerID, container.RemoveOptions{}); err != nil {
		return fmt.Errorf("failed to remove container: %w", err)
	}
	return nil
}

// IsHealthy reports whether the container is still running.
func (l *ContainerLauncher) IsHealthy(ctx context.Context, containerID string) bool {
	inspect, err := l.client.ContainerInspect(ctx, containerID)
	if err != nil {
		return false
	}
	return inspect.State != nil && inspect.State.Running
}

// EnsureImage pulls the engine image unless it is already present.
func (l *ContainerLauncher) EnsureImage(ctx context.Context) error {
	images, err := l.client.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}

	for _, img := range images {
		for _, tag := range img.RepoTags {
			if tag == l.image {
				return nil
			}
		}
	}

	l.log.Info("⏳ pulling engine image", zap.String("image", l.image))
	reader, err := l.client.ImagePull(ctx, l.image, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()

	_, err = io.Copy(io.Discard, reader)
	return err
}

// Close releases the docker client.
func (l *ContainerLauncher) Close() error {
	return l.client.Close()
}

func (l *ContainerLauncher) remove(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := l.client.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true}); err != nil {
		l.log.Warn("failed to remove engine container", zap.String("container", containerID), zap.Error(err))
	}
}

// waitForReady polls /json/version until the browser answers.
func (l *ContainerLauncher) waitForReady(ctx context.Context, port string) error {
	resp, err := l.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("http://localhost:%s/json/version", port))
	if err != nil {
		return err
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("devtools endpoint answered %d", resp.StatusCode())
	}
	// websocket side lags the HTTP side slightly
	time.Sleep(500 * time.Millisecond)
	return nil
}
