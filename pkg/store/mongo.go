package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	perrors "github.com/matzehuels/panegrid/pkg/errors"
	"github.com/matzehuels/panegrid/pkg/placement"
	"github.com/matzehuels/panegrid/pkg/registry"
)

const mongoCollection = "layouts"

// MongoStore keeps one document per layout.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// layoutDoc is the MongoDB representation of a layout.
type layoutDoc struct {
	Name      string      `bson:"_id"`
	Windows   []windowDoc `bson:"windows"`
	UpdatedAt time.Time   `bson:"updated_at"`
}

type windowDoc struct {
	ID   string          `bson:"id"`
	Pos  placement.Point `bson:"pos"`
	Size registry.Size   `bson:"size"`
}

// NewMongoStore connects to MongoDB at uri and pings it, retrying with
// backoff.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeStoreUnavailable, err, "connect to mongodb")
	}

	err = RetryWithBackoff(ctx, func() error {
		return Retryable(client.Ping(ctx, nil))
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, perrors.Wrap(perrors.ErrCodeStoreUnavailable, err, "ping mongodb")
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(mongoCollection),
	}, nil
}

func (s *MongoStore) Load(ctx context.Context, layout string) (registry.Snapshot, error) {
	if err := perrors.ValidateLayoutName(layout); err != nil {
		return nil, err
	}

	var doc layoutDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": layout}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return registry.Snapshot{}, nil
	}
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeStoreUnavailable, err, "mongodb find %s", layout)
	}
	return fromLayoutDoc(doc), nil
}

func (s *MongoStore) Save(ctx context.Context, layout string, snap registry.Snapshot) error {
	if err := perrors.ValidateLayoutName(layout); err != nil {
		return err
	}

	doc := toLayoutDoc(layout, snap)
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": layout}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return perrors.Wrap(perrors.ErrCodeStoreUnavailable, err, "mongodb replace %s", layout)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, layout string) error {
	if err := perrors.ValidateLayoutName(layout); err != nil {
		return err
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": layout}); err != nil {
		return perrors.Wrap(perrors.ErrCodeStoreUnavailable, err, "mongodb delete %s", layout)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	ids, err := s.coll.Distinct(ctx, "_id", bson.D{})
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeStoreUnavailable, err, "mongodb list layouts")
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, fmt.Sprint(id))
	}
	slices.Sort(names)
	return names, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func toLayoutDoc(layout string, snap registry.Snapshot) layoutDoc {
	doc := layoutDoc{
		Name:      layout,
		Windows:   make([]windowDoc, len(snap)),
		UpdatedAt: time.Now().UTC(),
	}
	for i, e := range snap {
		doc.Windows[i] = windowDoc{ID: e.ID, Pos: e.State.Pos, Size: e.State.Size}
	}
	return doc
}

func fromLayoutDoc(doc layoutDoc) registry.Snapshot {
	snap := make(registry.Snapshot, len(doc.Windows))
	for i, w := range doc.Windows {
		snap[i] = registry.Entry{ID: w.ID, State: registry.State{Pos: w.Pos, Size: w.Size}}
	}
	return snap
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
