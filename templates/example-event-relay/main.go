package main

import (
	"log"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/urfave/cli/v2"

	notewirecli "github.com/notewire/notewire-realtime/notewire-cli"
	notewireddb "github.com/notewire/notewire-realtime/notewire-ddb"
	notewirews "github.com/notewire/notewire-realtime/notewire-ws"
	"github.com/notewire/notewire-realtime/notewire-ws/connectiondao"
)

// Consumes broadcast requests from the events stream and fans them out to
// every live connection.

var service = notewirecli.NewService("event-relay")

func main() {
	app := notewirecli.App(
		service,
		action,
		append(notewirecli.CommonFlags, notewirews.WSFlags...)...,
	)
	if err := app.Run(os.Args); err != nil {
		log.Fatalln(err)
	}
}

func action(_ *cli.Context) error {
	logger := notewirecli.Logger(service)

	if err := notewirews.RequireEndpoint(); err != nil {
		return err
	}

	sess := session.Must(session.NewSession(aws.NewConfig()))
	api, err := notewireddb.DynamoDBAPI(sess)
	if err != nil {
		return err
	}

	relay := &notewirews.Relay{
		Broadcaster: &notewirews.Broadcaster{
			Connections: connectiondao.New(api, notewirews.ConnectionsTable(notewirecli.CommonOpts.Env)),
			Pusher:      notewirews.BuildPusher(notewirews.WSOpts.Endpoint),
			Logger:      logger,
			ChunkSize:   notewirews.WSOpts.ChunkSize,
		},
		Logger: logger,
	}
	return relay.Start()
}
