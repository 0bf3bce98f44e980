package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/orderdesk/orderdesk/pkg/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func bsonField(f model.Field) string {
	if f == model.FieldCode {
		return "_id"
	}
	return string(f)
}

// sortField is the document path of f's sort key.
func sortField(f model.Field) string {
	return "_sort." + string(f)
}

func indexName(f model.Field) string {
	return "idx_" + string(f) + "_id"
}

// supportsTransactions reports whether the connected deployment is a replica
// set member or a mongos router.
func supportsTransactions(ctx context.Context, client *mongo.Client) (bool, error) {
	var hello helloReply
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		return false, fmt.Errorf("query topology: %w", err)
	}
	return hello.canTransact(), nil
}

type helloReply struct {
	SetName string `bson:"setName"`
	Msg     string `bson:"msg"`
}

func (h helloReply) canTransact() bool {
	return h.SetName != "" || h.Msg == "isdbgrid"
}

// isBadHint reports whether the server refused a query because the hinted
// index does not exist.
func isBadHint(err error) bool {
	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorCode(2) && strings.Contains(err.Error(), "hint") {
		return true
	}
	return strings.Contains(err.Error(), "hint provided does not correspond to an existing index")
}
