package main

import (
	"log"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/go-chi/chi/v5"
	"github.com/urfave/cli/v2"

	notewirecli "github.com/notewire/notewire-realtime/notewire-cli"
	notewireddb "github.com/notewire/notewire-realtime/notewire-ddb"
	notewirerest "github.com/notewire/notewire-realtime/notewire-rest"
	notewiresecret "github.com/notewire/notewire-realtime/notewire-secret"
	notewirews "github.com/notewire/notewire-realtime/notewire-ws"
	"github.com/notewire/notewire-realtime/notewire-ws/connectiondao"
)

var service = notewirecli.NewService("broadcast-api")

var opts struct {
	SecretName string
}

var secretNameFlag = notewirecli.StringFlag("ingress-secret", "Secrets Manager secret holding the broadcast token", &opts.SecretName)

func main() {
	flags := append(notewirecli.CommonFlags, notewirecli.PortFlag(3002), secretNameFlag)
	flags = append(flags, notewirews.WSFlags...)
	flags = append(flags, notewirerest.RESTFlags...)
	app := notewirecli.App(service, action, flags...)
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

	metrics := notewirecli.NewMetrics(service, cloudwatch.New(sess))
	broadcaster := &notewirews.Broadcaster{
		Connections: connectiondao.New(api, notewirews.ConnectionsTable(notewirecli.CommonOpts.Env)),
		Pusher:      notewirews.BuildPusher(notewirews.WSOpts.Endpoint),
		Logger:      logger,
		ChunkSize:   notewirews.WSOpts.ChunkSize,
		Metrics:     &metrics,
	}

	routes := chi.NewRouter()
	notewirerest.Middlewares(service, routes)

	handler := notewirews.IngressHandler(broadcaster)
	if opts.SecretName != "" {
		var secret struct {
			Token string `json:"token"`
		}
		if err := notewiresecret.LoadSecret(sess, opts.SecretName, &secret); err != nil {
			return err
		}
		handler = requireToken(secret.Token, handler)
	}
	routes.Post("/broadcast", handler)

	return notewirerest.Webserver(service, routes)
}

func requireToken(token string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("X-Api-Key") != token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, req)
	}
}
