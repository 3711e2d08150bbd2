package mongox

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMatchIDAcceptsBothForms(t *testing.T) {
	oid, hex := NewID()
	cond, ok := MatchID(hex).(bson.M)
	if !ok {
		t.Fatalf("hex id should match both forms, got %v", MatchID(hex))
	}
	vals := cond["$in"].(bson.A)
	if len(vals) != 2 || vals[0] != oid || vals[1] != hex {
		t.Fatalf("unexpected condition %v", cond)
	}
}

func TestMatchIDKeepsPlainStrings(t *testing.T) {
	if got := MatchID("sku-42"); got != "sku-42" {
		t.Fatalf("non-hex id should match as a string, got %v", got)
	}
}

func TestMatchIDs(t *testing.T) {
	oid := primitive.NewObjectID()
	vals := MatchIDs([]string{oid.Hex(), "plain"})["$in"].(bson.A)
	if len(vals) != 3 || vals[0] != oid || vals[1] != oid.Hex() || vals[2] != "plain" {
		t.Fatalf("unexpected values %v", vals)
	}
}
