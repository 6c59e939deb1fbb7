package testutil

import (
	"fmt"
	"net"
	"testing"
)

// DefraTestConfig describes a throwaway DefraDB container. It mirrors
// defra.DockerConfig without importing the defra package, so defra's own
// tests can use it.
type DefraTestConfig struct {
	ContainerName string
	HostPort      string
	DataPath      string
	Labels        map[string]string
}

// URL returns the node's API URL on the host.
func (c DefraTestConfig) URL() string {
	return "http://localhost:" + c.HostPort
}

// NewDefraConfig reserves a container name, a free port and a data directory
// for one test. It skips the test when Docker integration is not enabled.
func NewDefraConfig(t *testing.T) DefraTestConfig {
	t.Helper()

	_ = DockerClient(t)

	port, err := FindFreePort()
	if err != nil {
		t.Fatalf("failed to find free port for DefraDB: %v", err)
	}

	return DefraTestConfig{
		ContainerName: UniqueContainerName(t, "defra"),
		HostPort:      port,
		DataPath:      t.TempDir(),
		Labels:        ContainerLabels(t),
	}
}

// FindFreePort finds an available TCP port and returns it as a string.
func FindFreePort() (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer listener.Close()
	return fmt.Sprintf("%d", listener.Addr().(*net.TCPAddr).Port), nil
}
