package notewirews

import (
	notewirecli "github.com/notewire/notewire-realtime/notewire-cli"
	"github.com/notewire/notewire-realtime/notewire-ws/connectiondao"
	"github.com/urfave/cli/v2"
)

var WSOpts struct {
	Endpoint  string
	TableName string
	ChunkSize int
}

var EndpointFlag = notewirecli.StringFlag("ws-endpoint", "The API Gateway management endpoint for pushing to connections", &WSOpts.Endpoint)
var TableNameFlag = notewirecli.StringFlag("connections-table", "Override the connections table name", &WSOpts.TableName)
var ChunkSizeFlag = notewirecli.IntFlag("chunk-size", "Max concurrent pushes per broadcast chunk", DefaultChunkSize, &WSOpts.ChunkSize)

var WSFlags = []cli.Flag{
	EndpointFlag,
	TableNameFlag,
	ChunkSizeFlag,
}

// ConnectionsTable resolves the table name, falling back to the standard
// name for the environment.
func ConnectionsTable(env string) string {
	if WSOpts.TableName != "" {
		return WSOpts.TableName
	}
	return connectiondao.TableName(env)
}

// RequireEndpoint fails fast before any directory or transport call when the
// management endpoint is not configured.
func RequireEndpoint() error {
	if WSOpts.Endpoint == "" {
		return &ConfigError{Name: "ws-endpoint"}
	}
	return nil
}
