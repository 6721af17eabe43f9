package notewirereport

import (
	notewirecli "github.com/notewire/notewire-realtime/notewire-cli"
	"github.com/urfave/cli/v2"
)

var ReportOpts struct {
	Bucket string
}

var BucketFlag = notewirecli.StringFlag("bucket", "The bucket to write the report to", &ReportOpts.Bucket)

var ReportFlags = []cli.Flag{
	BucketFlag,
}
