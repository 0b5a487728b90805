package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/ppiankov/verisense/internal/model"
)

const serverSelectionTimeout = 3 * time.Second

// MongoStore keeps users and history in MongoDB
type MongoStore struct {
	client  *mongo.Client
	users   *mongo.Collection
	history *mongo.Collection
	limit   int
}

// NewMongoStore connects, pings and ensures indexes
func NewMongoStore(ctx context.Context, cfg model.DatabaseConfig) (*MongoStore, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(serverSelectionTimeout).
		SetConnectTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(valueOr(cfg.Name, "verisense"))
	s := &MongoStore{
		client:  client,
		users:   db.Collection(valueOr(cfg.UsersCollection, "users")),
		history: db.Collection(valueOr(cfg.HistoryCollection, "news_logs")),
		limit:   normalizeLimit(cfg.HistoryLimit, defaultHistoryLimit),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	slog.Info("[Store] Successfully connected to MongoDB", "database", db.Name())
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users index: %w", err)
	}

	_, err = s.history.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create history index: %w", err)
	}
	return nil
}

// Backend returns the backend name
func (s *MongoStore) Backend() string { return BackendMongo }

// CreateUser inserts a new account
func (s *MongoStore) CreateUser(ctx context.Context, u *model.User) error {
	prepareUser(u)
	if _, err := s.users.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByEmail looks up an account by its normalized email
func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

// GetUserByID looks up an account by ID
func (s *MongoStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*model.User, error) {
	var u model.User
	if err := s.users.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// UpdateLastLogin stamps the current time on the account
func (s *MongoStore) UpdateLastLogin(ctx context.Context, id string) error {
	res, err := s.users.UpdateByID(ctx, id, bson.M{"$set": bson.M{"last_login": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveAnalysis inserts a history record
func (s *MongoStore) SaveAnalysis(ctx context.Context, rec *model.HistoryRecord) error {
	prepareRecord(rec)
	if _, err := s.history.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// ListHistory returns a user's records, newest first
func (s *MongoStore) ListHistory(ctx context.Context, userID string, limit int) ([]model.HistoryRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(normalizeLimit(limit, s.limit)))

	cursor, err := s.history.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find history: %w", err)
	}

	records := []model.HistoryRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return records, nil
}

// GetAnalysis returns one of the user's records
func (s *MongoStore) GetAnalysis(ctx context.Context, userID, id string) (*model.HistoryRecord, error) {
	var rec model.HistoryRecord
	err := s.history.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find analysis: %w", err)
	}
	return &rec, nil
}

// DeleteAnalysis removes one of the user's records
func (s *MongoStore) DeleteAnalysis(ctx context.Context, userID, id string) error {
	res, err := s.history.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("delete analysis: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping checks the server is reachable
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects from the server
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func prepareUser(u *model.User) {
	now := time.Now().UTC()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.LastLogin.IsZero() {
		u.LastLogin = now
	}
}

func prepareRecord(rec *model.HistoryRecord) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
