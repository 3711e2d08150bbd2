// Package mongox holds helpers shared by the mongo-backed stores.
package mongox

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewID returns a fresh ObjectID and its hex form. ObjectIDs sort in creation
// order, which the listings rely on.
func NewID() (primitive.ObjectID, string) {
	oid := primitive.NewObjectID()
	return oid, oid.Hex()
}

// MatchID is the _id condition for an id received as a string. A valid hex id
// matches both the ObjectID it encodes and the literal string.
func MatchID(id string) interface{} {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"$in": bson.A{oid, id}}
	}
	return id
}

// MatchIDs is the _id condition matching any of ids, in either stored form.
func MatchIDs(ids []string) bson.M {
	vals := make(bson.A, 0, 2*len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			vals = append(vals, oid)
		}
		vals = append(vals, id)
	}
	return bson.M{"$in": vals}
}
