package common

import (
	"context"
	"strings"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/quintans/faults"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const portPlaceholder = "<port>"

var _ wait.Strategy = (*DbStrategy)(nil)

// DbStrategy waits until the database inside the container accepts connections
type DbStrategy struct {
	startupTimeout time.Duration
	driverName     string
	// dataSourceName carries a <port> placeholder, replaced by the mapped port
	dataSourceName string
	port           nat.Port
	PollInterval   time.Duration
}

func ForDb(driverName string, dataSourceName string, port string) *DbStrategy {
	return &DbStrategy{
		startupTimeout: time.Minute,
		driverName:     driverName,
		dataSourceName: dataSourceName,
		port:           nat.Port(port),
		PollInterval:   500 * time.Millisecond,
	}
}

func (ws *DbStrategy) WithStartupTimeout(startupTimeout time.Duration) *DbStrategy {
	ws.startupTimeout = startupTimeout
	return ws
}

func (ws *DbStrategy) WithPollInterval(pollInterval time.Duration) *DbStrategy {
	ws.PollInterval = pollInterval
	return ws
}

// WaitUntilReady pings the database until it answers or the startup timeout expires
func (ws *DbStrategy) WaitUntilReady(ctx context.Context, target wait.StrategyTarget) error {
	if !strings.Contains(ws.dataSourceName, portPlaceholder) {
		return faults.Errorf("missing placeholder %s in %s", portPlaceholder, ws.dataSourceName)
	}

	ctx, cancel := context.WithTimeout(ctx, ws.startupTimeout)
	defer cancel()

	ticker := time.NewTicker(ws.PollInterval)
	defer ticker.Stop()

	var dsn string
	for {
		if dsn == "" {
			if port, err := target.MappedPort(ctx, ws.port); err == nil {
				dsn = strings.ReplaceAll(ws.dataSourceName, portPlaceholder, port.Port())
			}
		}
		if dsn != "" {
			if conn, err := Connect(ws.driverName, dsn); err == nil {
				conn.Close()
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return faults.Wrap(ctx.Err())
		case <-ticker.C:
		}
	}
}

// Container starts the image and waits for its database.
// timeout is the startup timeout in minutes.
func Container(
	image string,
	exPort string,
	env map[string]string,
	driverName string,
	dataSourceName string,
	timeout int,
) (context.Context, testcontainers.Container, nat.Port, error) {
	ctx := context.Background()
	server, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{exPort},
			Env:          env,
			WaitingFor: ForDb(driverName, dataSourceName, exPort).
				WithStartupTimeout(time.Duration(timeout) * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		return nil, nil, "", faults.Wrap(err)
	}

	port, err := server.MappedPort(ctx, nat.Port(exPort))
	if err != nil {
		server.Terminate(ctx)
		return nil, nil, "", faults.Wrap(err)
	}
	return ctx, server, port, nil
}
