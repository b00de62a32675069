package txn

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/vidcollab/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("some random error"), false},
		{"illegal operation code", mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member"}, true},
		{"legacy standalone code", mongo.CommandError{Code: 51, Message: "Illegal operation"}, true},
		{"not supported in transaction code", mongo.CommandError{Code: 263, Message: "Cannot run in a multi-document transaction"}, true},
		{"other command error", mongo.CommandError{Code: 100, Message: "Some other error"}, false},
		{"wrapped command error", errors.Join(errors.New("delete video"), mongo.CommandError{Code: 20}), true},
		{"replica set message", errors.New("transaction failed because this is not a replica set member"), true},
		{"session not supported", errors.New("session operations are not supported on this server"), true},
		{"transaction alone", errors.New("transaction failed"), false},
		{"transaction and session", errors.New("cannot start transaction in current session state"), true},
		{"upper case", errors.New("TRANSACTION FAILED on REPLICA SET"), true},
		{"duplicate key", errors.New("E11000 duplicate key error"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// Run must apply every write on either a replica set (transaction) or a
// standalone server (fallback).
func TestRun_AppliesWrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := Run(ctx, db, zap.NewNop(), func(ctx context.Context) error {
		if _, err := db.Collection("videos").InsertOne(ctx, bson.M{"title": "a"}); err != nil {
			return err
		}
		_, err := db.Collection("comments").InsertOne(ctx, bson.M{"text": "b"})
		return err
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, c := range []string{"videos", "comments"} {
		n, err := db.Collection(c).CountDocuments(ctx, bson.M{})
		if err != nil {
			t.Fatalf("count %s: %v", c, err)
		}
		if n != 1 {
			t.Errorf("%s count = %d, want 1", c, n)
		}
	}
}

func TestRun_ReturnsCallbackError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	boom := errors.New("boom")
	err := Run(ctx, db, zap.NewNop(), func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("Run error = %v, want boom", err)
	}
}
