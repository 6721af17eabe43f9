package notewirerest

import (
	notewirecli "github.com/notewire/notewire-realtime/notewire-cli"
	"github.com/urfave/cli/v2"
)

var RESTOpts struct {
	AllowedOrigin string
}

var AllowedOriginFlag = notewirecli.StringFlag("allowed-origin", "The CORS allow-origin for this deployment", &RESTOpts.AllowedOrigin)

var RESTFlags = []cli.Flag{
	AllowedOriginFlag,
}
