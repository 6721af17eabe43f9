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
	notewireddb "github.com/notewire/notewire-realtime/notewire-ddb"
	notewirereport "github.com/notewire/notewire-realtime/notewire-report"
	notewirews "github.com/notewire/notewire-realtime/notewire-ws"
	"github.com/notewire/notewire-realtime/notewire-ws/connectiondao"
)

// Hourly operational snapshot of the connection directory, written to S3.

var service = notewirecli.NewService("connections-report")

var connections *connectiondao.DAO

func main() {
	flags := append(notewirecli.CommonFlags, notewirews.TableNameFlag)
	flags = append(flags, notewirereport.ReportFlags...)
	app := notewirecli.App(service, action, flags...)
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

	handler := notewirereport.NewHandler(service, "connections", generate)
	return handler.Start()
}

func generate(ctx context.Context) (interface{}, error) {
	var report struct {
		GeneratedAt string `json:"generatedAt"`
		Total       int    `json:"total"`
		Expired     int    `json:"expired"`
		OldestAge   string `json:"oldestAge,omitempty"`
	}

	now := time.Now()
	var oldest int64
	err := connections.ScanAll(ctx, func(conn connectiondao.Connection) error {
		report.Total++
		if conn.TTL < now.Unix() {
			report.Expired++
		}
		if oldest == 0 || conn.ConnectedAt < oldest {
			oldest = conn.ConnectedAt
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	report.GeneratedAt = now.UTC().Format(time.RFC3339)
	if oldest > 0 {
		report.OldestAge = now.Sub(time.Unix(oldest, 0)).Round(time.Second).String()
	}
	return report, nil
}
