// Package orthanc provides a testcontainers harness around the Orthanc
// PACS for integration testing the upper layer against a real peer.
package orthanc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Container wraps a testcontainers Orthanc instance
type Container struct {
	Container testcontainers.Container
	DICOMHost string
	DICOMPort string
	HTTPHost  string
	HTTPPort  string
}

// Start starts an Orthanc PACS container for testing
func Start(ctx context.Context) (*Container, error) {
	req := testcontainers.ContainerRequest{
		Image:        "orthancteam/orthanc:latest",
		ExposedPorts: []string{"4242/tcp", "8042/tcp"}, // DICOM and HTTP ports
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("8042/tcp"),
			wait.ForHTTP("/system").WithPort("8042/tcp").WithStartupTimeout(60*time.Second),
		),
		Env: map[string]string{
			"ORTHANC__DICOM_AET":                  "ORTHANC",
			"ORTHANC__DICOM_CHECK_CALLED_AET":     "false",
			"ORTHANC__AUTHENTICATION_ENABLED":     "false",
			"ORTHANC__DICOM_ALWAYS_ALLOW_ECHO":    "true",
			"ORTHANC__DICOM_ALWAYS_ALLOW_STORE":   "true",
			"ORTHANC__REMOTE_ACCESS_ALLOWED":      "true",
			"ORTHANC__UNKNOWN_SOP_CLASS_ACCEPTED": "true",
		},
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start Orthanc container: %w", err)
	}

	dicomHost, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get DICOM host: %w", err)
	}
	dicomPort, err := container.MappedPort(ctx, "4242")
	if err != nil {
		return nil, fmt.Errorf("failed to get DICOM port: %w", err)
	}
	httpHost, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get HTTP host: %w", err)
	}
	httpPort, err := container.MappedPort(ctx, "8042")
	if err != nil {
		return nil, fmt.Errorf("failed to get HTTP port: %w", err)
	}

	return &Container{
		Container: container,
		DICOMHost: dicomHost,
		DICOMPort: dicomPort.Port(),
		HTTPHost:  httpHost,
		HTTPPort:  httpPort.Port(),
	}, nil
}

// Stop terminates the Orthanc container
func (oc *Container) Stop(ctx context.Context) error {
	if oc.Container != nil {
		return oc.Container.Terminate(ctx)
	}
	return nil
}

// DICOMAddress returns the full DICOM address (host:port)
func (oc *Container) DICOMAddress() string {
	return fmt.Sprintf("%s:%s", oc.DICOMHost, oc.DICOMPort)
}

// HTTPBaseURL returns the HTTP base URL
func (oc *Container) HTTPBaseURL() string {
	return fmt.Sprintf("http://%s:%s", oc.HTTPHost, oc.HTTPPort)
}

// System fetches the /system document from the Orthanc REST API, a cheap
// liveness check for the harness itself.
func (oc *Container) System(ctx context.Context) (map[string]any, error) {
	url := fmt.Sprintf("%s/system", oc.HTTPBaseURL())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get system info: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var system map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&system); err != nil {
		return nil, fmt.Errorf("failed to parse system info: %w", err)
	}

	return system, nil
}
