package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/urfave/cli/v2"

	notewirecli "github.com/notewire/notewire-realtime/notewire-cli"
	notewireddb "github.com/notewire/notewire-realtime/notewire-ddb"
	notewirews "github.com/notewire/notewire-realtime/notewire-ws"
	"github.com/notewire/notewire-realtime/notewire-ws/connectiondao"
	"github.com/notewire/notewire-realtime/notewire-ws/localhub"
)

var service = notewirecli.NewService("ws-handler")

func main() {
	app := notewirecli.App(
		service,
		action,
		append(
			append(notewirecli.CommonFlags, notewirecli.PortFlag(3001)),
			notewirews.WSFlags...,
		)...,
	)
	if err := app.Run(os.Args); err != nil {
		log.Fatalln(err)
	}
}

func action(_ *cli.Context) error {
	logger := notewirecli.Logger(service)

	sess := session.Must(session.NewSession(aws.NewConfig()))
	api, err := notewireddb.DynamoDBAPI(sess)
	if err != nil {
		return err
	}
	connections := connectiondao.New(api, notewirews.ConnectionsTable(notewirecli.CommonOpts.Env))

	if notewirecli.CommonOpts.Console {
		// Local development: serve real WebSockets in-process instead of
		// API Gateway, with the hub doubling as the pusher.
		hub := localhub.New(logger)
		hub.Handler = &notewirews.Handler{
			Connections: connections,
			Pusher:      hub,
			Logger:      logger,
		}
		addr := fmt.Sprintf(":%v", notewirecli.CommonOpts.Port)
		logger.Info().Str("addr", addr).Msg("starting local websocket server")
		return http.ListenAndServe(addr, hub)
	}

	if err := notewirews.RequireEndpoint(); err != nil {
		return err
	}
	handler := &notewirews.Handler{
		Connections: connections,
		Pusher:      notewirews.BuildPusher(notewirews.WSOpts.Endpoint),
		Logger:      logger,
	}
	lambda.Start(handler.HandleEvent)
	return nil
}
