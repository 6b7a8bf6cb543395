package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	config "example.com/blogposts/internal/init"
	"example.com/blogposts/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const (
	postsCollection  = "posts"
	eventsCollection = "post_events"
)

// MongoStore keeps each post as one BSON document with an embedded author.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	posts  *mongo.Collection
	events *mongo.Collection
}

// NewMongo connects to cfg.URL. The database named in the URL wins over
// cfg.Database.
func NewMongo(ctx context.Context, cfg config.StoreConfig) (*MongoStore, error) {
	if cfg.URL == "" {
		return nil, errors.New("mongo store requires a connection string")
	}

	cs, err := connstring.ParseAndValidate(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mongo connection string: %w", err)
	}
	dbName := cs.Database
	if dbName == "" {
		dbName = cfg.Database
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	logg.Info("store", "Connected to MongoDB (host anonymized)")
	return newMongoStore(client, client.Database(dbName)), nil
}

func newMongoStore(client *mongo.Client, db *mongo.Database) *MongoStore {
	return &MongoStore{
		client: client,
		db:     db,
		posts:  db.Collection(postsCollection),
		events: db.Collection(eventsCollection),
	}
}

func (s *MongoStore) Close() {
	if s.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		logg.Error("store", "Failed to disconnect from MongoDB", err)
		return
	}
	logg.Info("store", "MongoDB client disconnected")
}

func (s *MongoStore) ListPosts(ctx context.Context) ([]models.Post, error) {
	cur, err := s.posts.Find(ctx, bson.D{})
	if err != nil {
		logg.Error("store", "Failed to list posts", err)
		return nil, opErr("list posts", err)
	}
	defer cur.Close(ctx)

	var res []models.Post
	if err := cur.All(ctx, &res); err != nil {
		logg.Error("store", "Failed to decode posts", err)
		return nil, opErr("list posts", err)
	}
	for i := range res {
		res[i].Created = res[i].Created.UTC()
	}
	return res, nil
}

func (s *MongoStore) GetPost(ctx context.Context, id string) (models.Post, error) {
	var p models.Post
	if err := s.posts.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Post{}, ErrNotFound
		}
		logg.Error("store", "Failed to query post by id", err)
		return models.Post{}, opErr("get post", err)
	}
	p.Created = p.Created.UTC()
	return p, nil
}

func (s *MongoStore) CreatePost(ctx context.Context, post models.Post) (models.Post, error) {
	post = prepare(post, time.Now())
	if _, err := s.posts.InsertOne(ctx, post); err != nil {
		logg.Error("store", "Failed to add post", err)
		return models.Post{}, opErr("create post", err)
	}
	return post, nil
}

// InsertPosts inserts the batch in one ordered insertMany.
func (s *MongoStore) InsertPosts(ctx context.Context, posts []models.Post) ([]models.Post, error) {
	prepared := prepareAll(posts)
	if len(prepared) == 0 {
		return prepared, nil
	}

	docs := make([]interface{}, len(prepared))
	for i, p := range prepared {
		docs[i] = p
	}
	if _, err := s.posts.InsertMany(ctx, docs); err != nil {
		logg.Error("store", "Failed to insert post batch", err)
		return nil, opErr("insert posts", err)
	}
	return prepared, nil
}

// mongoSet builds the $set document for the supplied fields.
func mongoSet(upd models.PostUpdate) bson.D {
	set := bson.D{}
	if upd.Author != nil {
		set = append(set, bson.E{Key: "author", Value: *upd.Author})
	}
	if upd.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *upd.Title})
	}
	if upd.Content != nil {
		set = append(set, bson.E{Key: "content", Value: *upd.Content})
	}
	return set
}

func (s *MongoStore) UpdatePost(ctx context.Context, id string, upd models.PostUpdate) (models.Post, error) {
	set := mongoSet(upd)
	if len(set) == 0 {
		return s.GetPost(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Post
	err := s.posts.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: set}},
		opts,
	).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Post{}, ErrNotFound
		}
		logg.Error("store", "Failed to update post", err)
		return models.Post{}, opErr("update post", err)
	}
	p.Created = p.Created.UTC()
	return p, nil
}

func (s *MongoStore) DeletePost(ctx context.Context, id string) (bool, error) {
	res, err := s.posts.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		logg.Error("store", "Failed to delete post", err)
		return false, opErr("delete post", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoStore) AppendEvent(ctx context.Context, ev models.PostEvent) error {
	if _, err := s.events.InsertOne(ctx, ev); err != nil {
		logg.Error("store", "Failed to append post event", err)
		return opErr("append event", err)
	}
	return nil
}

// DropAll drops the whole database, posts and audit trail alike.
func (s *MongoStore) DropAll(ctx context.Context) error {
	if err := s.db.Drop(ctx); err != nil {
		logg.Error("store", "Failed to drop database", err)
		return opErr("drop all", err)
	}
	return nil
}
