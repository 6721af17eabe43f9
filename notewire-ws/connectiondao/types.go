package connectiondao

// Connection represents one live WebSocket connection stored in DynamoDB.
// The TTL attribute lets the table passively expire records for connections
// that dropped without a clean $disconnect.
type Connection struct {
	ConnectionID string `dynamodbav:"pk" ddb:"hash"`
	ConnectedAt  int64  `dynamodbav:"connected_at"`
	TTL          int64  `dynamodbav:"ttl"`
}
