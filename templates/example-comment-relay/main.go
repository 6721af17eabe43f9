package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/urfave/cli/v2"

	notewirecli "github.com/notewire/notewire-realtime/notewire-cli"
	notewireddb "github.com/notewire/notewire-realtime/notewire-ddb"
	notewirews "github.com/notewire/notewire-realtime/notewire-ws"
	"github.com/notewire/notewire-realtime/notewire-ws/publish"
)

// Watches the comments table's change stream and publishes a broadcast
// request for every comment a client creates or removes.

var service = notewirecli.NewService("comment-relay")

var publisher *publish.Publisher

func main() {
	app := notewirecli.App(
		service,
		action,
		append(notewirecli.CommonFlags, notewireddb.DDBFlags...)...,
	)
	if err := app.Run(os.Args); err != nil {
		log.Fatalln(err)
	}
}

func action(_ *cli.Context) error {
	publisher = publish.Build(notewirecli.CommonOpts.Env)
	handler := notewireddb.NewHandler(service, onInsert, nil, onDelete)
	return handler.Start()
}

type comment struct {
	CommentID string `dynamodbav:"pk" json:"commentId"`
	NoteID    string `dynamodbav:"note_id" json:"noteId"`
	Author    string `dynamodbav:"author" json:"author"`
	Body      string `dynamodbav:"body" json:"body"`
}

func onInsert(ctx context.Context, newValue map[string]*dynamodb.AttributeValue) error {
	return send(ctx, "comment.created", newValue)
}

func onDelete(ctx context.Context, oldValue map[string]*dynamodb.AttributeValue) error {
	return send(ctx, "comment.deleted", oldValue)
}

func send(ctx context.Context, eventType string, item map[string]*dynamodb.AttributeValue) error {
	var c comment
	if err := notewireddb.ParseItem(item, &c); err != nil {
		return err
	}
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if notewirecli.CommonOpts.Dry {
		return nil
	}
	return publisher.Send(ctx, eventType, notewirews.BroadcastRequest{
		Type: eventType,
		Data: data,
	})
}
