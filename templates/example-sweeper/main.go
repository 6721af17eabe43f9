package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/urfave/cli/v2"

	notewirecli "github.com/notewire/notewire-realtime/notewire-cli"
	notewirecron "github.com/notewire/notewire-realtime/notewire-cron"
	notewireddb "github.com/notewire/notewire-realtime/notewire-ddb"
	notewirews "github.com/notewire/notewire-realtime/notewire-ws"
	"github.com/notewire/notewire-realtime/notewire-ws/connectiondao"
)

// Scheduled sweep of connection records past their TTL. DynamoDB expires
// them lazily on its own; this keeps broadcast scans from wading through
// long-dead connections in the meantime.

var service = notewirecli.NewService("connection-sweeper")

var connections *connectiondao.DAO

func main() {
	app := notewirecli.App(
		service,
		action,
		append(notewirecli.CommonFlags, notewirews.TableNameFlag)...,
	)
	if err := app.Run(os.Args); err != nil {
		log.Fatalln(err)
	}
}

func action(_ *cli.Context) error {
	sess := session.Must(session.NewSession(aws.NewConfig()))
	api, err := notewireddb.DynamoDBAPI(sess)
	if err != nil {
		return err
	}
	connections = connectiondao.New(api, notewirews.ConnectionsTable(notewirecli.CommonOpts.Env))

	handler := notewirecron.NewHandler(service, sweep)
	return handler.Start()
}

func sweep(ctx context.Context) error {
	logger := notewirecli.Logger(service)
	now := time.Now().Unix()

	var removed int
	err := connections.ScanAll(ctx, func(conn connectiondao.Connection) error {
		if conn.TTL >= now {
			return nil
		}
		if notewirecli.CommonOpts.Dry {
			removed++
			return nil
		}
		if err := connections.Delete(ctx, conn.ConnectionID); err != nil {
			return err
		}
		removed++
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info().Int("removed", removed).Msg("swept expired connections")
	return nil
}
