package indexes_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dalemusser/taskhub/internal/app/store/activity"
	taskstore "github.com/dalemusser/taskhub/internal/app/store/tasks"
	"github.com/dalemusser/taskhub/internal/app/system/indexes"
	"github.com/dalemusser/taskhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type fakeStore struct {
	err   error
	calls int
}

func (f *fakeStore) EnsureIndexes(context.Context) error {
	f.calls++
	return f.err
}

func TestEnsureAll_AggregatesErrors(t *testing.T) {
	ok := &fakeStore{}
	bad1 := &fakeStore{err: errors.New("boom")}
	bad2 := &fakeStore{err: errors.New("bang")}

	err := indexes.EnsureAll(context.Background(), zap.NewNop(),
		indexes.Collection{Name: "a", Store: bad1},
		indexes.Collection{Name: "b", Store: ok},
		indexes.Collection{Name: "c", Store: bad2},
	)
	if err == nil {
		t.Fatal("expected error")
	}
	if msg := err.Error(); !strings.Contains(msg, "a: boom") || !strings.Contains(msg, "c: bang") {
		t.Errorf("error should name both failures, got %q", msg)
	}
	if ok.calls != 1 {
		t.Errorf("later stores must still run: calls=%d", ok.calls)
	}
}

func TestEnsureAll_RealStores(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	colls := []indexes.Collection{
		{Name: "tasks", Store: taskstore.New(db)},
		{Name: "activities", Store: activity.New(db)},
	}
	for i := 0; i < 2; i++ {
		if err := indexes.EnsureAll(ctx, nil, colls...); err != nil {
			t.Fatalf("EnsureAll (pass %d) failed: %v", i+1, err)
		}
	}

	cur, err := db.Collection("tasks").Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	var idx []bson.M
	if err := cur.All(ctx, &idx); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	found := false
	for _, ix := range idx {
		if ix["name"] == "uniq_project_number" {
			found = ix["unique"] == true
		}
	}
	if !found {
		t.Errorf("expected unique uniq_project_number index, got %v", idx)
	}
}
