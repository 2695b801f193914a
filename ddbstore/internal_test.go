package ddbstore

import (
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/tether/store"
)

// --- buildUpdate Tests ---

func TestBuildUpdate_SortedClauses(t *testing.T) {
	s := New(nil, DefaultConfig())

	in, err := s.buildUpdate("1", store.Record{"message": "sos", "color": "red"})
	if err != nil {
		t.Fatalf("buildUpdate() failed: %v", err)
	}

	expected := "SET #attr0 = :val0, #attr1 = :val1 REMOVE #ttl"
	if aws.ToString(in.UpdateExpression) != expected {
		t.Errorf("expected %q, got %q", expected, aws.ToString(in.UpdateExpression))
	}
	if in.ExpressionAttributeNames["#attr0"] != "color" || in.ExpressionAttributeNames["#attr1"] != "message" {
		t.Errorf("unexpected names %v", in.ExpressionAttributeNames)
	}
	if v, ok := in.ExpressionAttributeValues[":val0"].(*types.AttributeValueMemberS); !ok || v.Value != "red" {
		t.Errorf("expected :val0 = 'red', got %v", in.ExpressionAttributeValues[":val0"])
	}
	if in.ExpressionAttributeNames["#ttl"] != "ttl" {
		t.Errorf("expected #ttl name, got %v", in.ExpressionAttributeNames)
	}
}

func TestBuildUpdate_SkipsManagedFields(t *testing.T) {
	s := New(nil, DefaultConfig())

	in, err := s.buildUpdate("1", store.Record{"id": "1", "ttl": 5, "color": "red"})
	if err != nil {
		t.Fatalf("buildUpdate() failed: %v", err)
	}

	if aws.ToString(in.UpdateExpression) != "SET #attr0 = :val0 REMOVE #ttl" {
		t.Errorf("unexpected expression %q", aws.ToString(in.UpdateExpression))
	}
	if len(in.ExpressionAttributeValues) != 1 {
		t.Errorf("expected 1 value, got %d", len(in.ExpressionAttributeValues))
	}
}

func TestBuildUpdate_KeyOnly(t *testing.T) {
	s := New(nil, DefaultConfig())

	in, err := s.buildUpdate("1", store.Record{"id": "1"})
	if err != nil {
		t.Fatalf("buildUpdate() failed: %v", err)
	}

	if aws.ToString(in.UpdateExpression) != "REMOVE #ttl" {
		t.Errorf("expected 'REMOVE #ttl', got %q", aws.ToString(in.UpdateExpression))
	}
	if in.ExpressionAttributeValues != nil {
		t.Error("expected no expression values")
	}
}

func TestBuildUpdate_NestedValues(t *testing.T) {
	s := New(nil, DefaultConfig())

	in, err := s.buildUpdate("1", store.Record{
		"tags": []string{"a", "b"},
		"meta": map[string]any{"n": 1},
		"none": nil,
	})
	if err != nil {
		t.Fatalf("buildUpdate() failed: %v", err)
	}

	// meta, none, tags in sorted order
	if _, ok := in.ExpressionAttributeValues[":val0"].(*types.AttributeValueMemberM); !ok {
		t.Errorf("expected map attribute, got %T", in.ExpressionAttributeValues[":val0"])
	}
	if _, ok := in.ExpressionAttributeValues[":val1"].(*types.AttributeValueMemberNULL); !ok {
		t.Errorf("expected NULL attribute, got %T", in.ExpressionAttributeValues[":val1"])
	}
	if _, ok := in.ExpressionAttributeValues[":val2"].(*types.AttributeValueMemberL); !ok {
		t.Errorf("expected list attribute, got %T", in.ExpressionAttributeValues[":val2"])
	}
}

func TestBuildUpdate_CustomConfig(t *testing.T) {
	s := New(nil, Config{TableName: "todos", PrimaryKey: "slug", TTLAttribute: "expires_at"})

	in, _ := s.buildUpdate("x", store.Record{"slug": "x", "expires_at": 1, "title": "t"})

	if aws.ToString(in.TableName) != "todos" {
		t.Errorf("expected table 'todos', got %q", aws.ToString(in.TableName))
	}
	if v, ok := in.Key["slug"].(*types.AttributeValueMemberS); !ok || v.Value != "x" {
		t.Errorf("expected key slug=x, got %v", in.Key)
	}
	if in.ExpressionAttributeNames["#ttl"] != "expires_at" {
		t.Errorf("expected #ttl -> expires_at, got %v", in.ExpressionAttributeNames)
	}
	if len(in.ExpressionAttributeValues) != 1 {
		t.Errorf("expected only title to be set, got %v", in.ExpressionAttributeValues)
	}
}

// --- TTL Tests ---

func TestIsExpired(t *testing.T) {
	now := time.Now().Unix()
	tests := []struct {
		name     string
		item     map[string]types.AttributeValue
		expected bool
	}{
		{
			name:     "no TTL attribute",
			item:     map[string]types.AttributeValue{},
			expected: false,
		},
		{
			name:     "TTL in past",
			item:     map[string]types.AttributeValue{"ttl": &types.AttributeValueMemberN{Value: "1000000000"}},
			expected: true,
		},
		{
			name:     "TTL in future",
			item:     map[string]types.AttributeValue{"ttl": &types.AttributeValueMemberN{Value: itoa(now + 3600)}},
			expected: false,
		},
		{
			name:     "TTL is now",
			item:     map[string]types.AttributeValue{"ttl": &types.AttributeValueMemberN{Value: itoa(now)}},
			expected: true,
		},
		{
			name:     "TTL not a number",
			item:     map[string]types.AttributeValue{"ttl": &types.AttributeValueMemberS{Value: "soon"}},
			expected: false,
		},
		{
			name:     "TTL unparseable",
			item:     map[string]types.AttributeValue{"ttl": &types.AttributeValueMemberN{Value: "1.5e9"}},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsExpired(tt.item, "ttl"); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestUnmarshalRecord_DropsTTL(t *testing.T) {
	s := New(nil, DefaultConfig())

	rec, err := s.unmarshalRecord(map[string]types.AttributeValue{
		"id":  &types.AttributeValueMemberS{Value: "1"},
		"ttl": &types.AttributeValueMemberN{Value: "1"},
	})
	if err != nil {
		t.Fatalf("unmarshalRecord() failed: %v", err)
	}
	if rec.Has("ttl") || rec["id"] != "1" {
		t.Errorf("expected {id: 1}, got %v", rec)
	}
}

func TestUnmarshalRecord_Empty(t *testing.T) {
	s := New(nil, DefaultConfig())

	rec, err := s.unmarshalRecord(nil)
	if err != nil {
		t.Fatalf("unmarshalRecord() failed: %v", err)
	}
	if rec == nil || len(rec) != 0 {
		t.Errorf("expected empty record, got %v", rec)
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
