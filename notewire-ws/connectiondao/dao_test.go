package connectiondao

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/savaki/ddb"
	"github.com/tj/assert"
)

func withTable(t *testing.T, callback func(ctx context.Context, dao *DAO)) {
	var (
		s = session.Must(session.NewSession(aws.NewConfig().
			WithCredentials(credentials.NewStaticCredentials("blah", "blah", "")).
			WithEndpoint("http://localhost:8000").
			WithRegion("us-west-2")))
		api       = dynamodb.New(s)
		client    = ddb.New(api)
		tableName = fmt.Sprintf("table-%v", time.Now().UnixNano())
		table     = client.MustTable(tableName, Connection{})
		dao       = New(api, tableName)
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := table.CreateTableIfNotExists(ctx)
	assert.Nil(t, err)
	defer table.DeleteTableIfExists(ctx)

	callback(ctx, dao)
}

func TestDAO(t *testing.T) {
	withTable(t, func(ctx context.Context, dao *DAO) {
		now := time.Now()

		// put then read back
		err := dao.Put(ctx, Connection{
			ConnectionID: "c1",
			ConnectedAt:  now.Unix(),
			TTL:          now.Add(24 * time.Hour).Unix(),
		})
		assert.Nil(t, err)

		conn, err := dao.Get(ctx, "c1")
		assert.Nil(t, err)
		assert.NotNil(t, conn)
		assert.Equal(t, now.Unix(), conn.ConnectedAt)

		// put by the same id overwrites
		err = dao.Put(ctx, Connection{ConnectionID: "c1", ConnectedAt: now.Unix() + 1})
		assert.Nil(t, err)
		conn, err = dao.Get(ctx, "c1")
		assert.Nil(t, err)
		assert.Equal(t, now.Unix()+1, conn.ConnectedAt)

		// absent lookups return nil, not an error
		conn, err = dao.Get(ctx, "nope")
		assert.Nil(t, err)
		assert.Nil(t, conn)

		// scan sees every record
		for i := 2; i <= 5; i++ {
			err = dao.Put(ctx, Connection{ConnectionID: fmt.Sprintf("c%v", i)})
			assert.Nil(t, err)
		}
		var ids []string
		err = dao.ScanAll(ctx, func(conn Connection) error {
			ids = append(ids, conn.ConnectionID)
			return nil
		})
		assert.Nil(t, err)
		assert.Len(t, ids, 5)

		// delete is idempotent
		err = dao.Delete(ctx, "c1")
		assert.Nil(t, err)
		err = dao.Delete(ctx, "c1")
		assert.Nil(t, err)
		conn, err = dao.Get(ctx, "c1")
		assert.Nil(t, err)
		assert.Nil(t, conn)

		// iteration stops at the first callback error
		count := 0
		err = dao.ScanAll(ctx, func(Connection) error {
			count++
			return fmt.Errorf("stop")
		})
		assert.NotNil(t, err)
		assert.Equal(t, 1, count)
	})
}
