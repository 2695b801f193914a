package ddbstore

import (
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// IsExpired checks if an item has a TTL at or before now (is marked for deletion).
func IsExpired(item map[string]types.AttributeValue, ttlAttr string) bool {
	ttl, ok := ttlOf(item, ttlAttr)
	if !ok {
		return false // No TTL = active
	}
	return ttl <= time.Now().Unix()
}

// ttlOf returns the numeric TTL of an item.
func ttlOf(item map[string]types.AttributeValue, ttlAttr string) (int64, bool) {
	n, ok := item[ttlAttr].(*types.AttributeValueMemberN)
	if !ok {
		return 0, false
	}
	ttl, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, false
	}
	return ttl, true
}

// nowValue returns the current Unix time as a number attribute.
func nowValue() *types.AttributeValueMemberN {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(time.Now().Unix(), 10)}
}
