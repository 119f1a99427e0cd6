package mongodb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/stepworks/streakd/internal/constants"
	"github.com/stepworks/streakd/internal/logger"
	"github.com/stepworks/streakd/internal/models"
	"github.com/stepworks/streakd/internal/storage"
)

const (
	collectionName = "streaks"
	connectTimeout = 10 * time.Second
)

// Store keeps one document per streak record in the streaks collection.
type Store struct {
	uri    string
	dbName string
	client *mongo.Client
	coll   *mongo.Collection
}

// IsConnString reports whether config names a MongoDB deployment.
func IsConnString(config string) bool {
	return strings.HasPrefix(config, "mongodb://") || strings.HasPrefix(config, "mongodb+srv://")
}

func New(uri string) *Store {
	return &Store{
		uri:    uri,
		dbName: databaseName(uri),
	}
}

// databaseName takes the database from the URI path, defaulting to the app name.
func databaseName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return constants.AppName
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return constants.AppName
}

func (s *Store) connect(ctx context.Context) error {
	if s.client != nil {
		return nil
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.uri).SetAppName(constants.AppName))
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("failed to reach mongodb: %w", err)
	}
	s.client = client
	s.coll = client.Database(s.dbName).Collection(collectionName)
	return nil
}

func (s *Store) Init() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := s.connect(ctx); err != nil {
		return err
	}

	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "journal_type", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("user_journal_unique"),
		},
		{
			Keys:    bson.D{{Key: "last_entry_date", Value: 1}},
			Options: options.Index().SetName("last_entry_date"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	logger.Info("MongoDB collection ready", "database", s.dbName, "collection", collectionName)
	return nil
}

func (s *Store) Load() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.connect(ctx)
}

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	err := s.client.Disconnect(ctx)
	s.client, s.coll = nil, nil
	return err
}

func (s *Store) GetStreak(ctx context.Context, userID, journalType string) (models.StreakRecord, error) {
	if s.coll == nil {
		return models.StreakRecord{}, storage.ErrNotLoaded
	}

	var rec models.StreakRecord
	err := s.coll.FindOne(ctx, bson.M{"user_id": userID, "journal_type": journalType}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.StreakRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return models.StreakRecord{}, err
	}
	return normalize(rec), nil
}

func (s *Store) SaveStreak(ctx context.Context, rec models.StreakRecord, expectedVersion int64) (models.StreakRecord, error) {
	if s.coll == nil {
		return models.StreakRecord{}, storage.ErrNotLoaded
	}

	saved := normalize(rec.Clone())
	saved.Version = expectedVersion + 1

	if expectedVersion == 0 {
		if _, err := s.coll.InsertOne(ctx, saved); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return models.StreakRecord{}, storage.ErrVersionConflict
			}
			return models.StreakRecord{}, fmt.Errorf("failed to insert streak: %w", err)
		}
		return saved, nil
	}

	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": rec.ID, "version": expectedVersion}, saved)
	if err != nil {
		return models.StreakRecord{}, fmt.Errorf("failed to replace streak: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.StreakRecord{}, storage.ErrVersionConflict
	}
	return saved, nil
}

func (s *Store) ListStreaks(ctx context.Context) ([]models.StreakRecord, error) {
	if s.coll == nil {
		return nil, storage.ErrNotLoaded
	}

	opts := options.Find().SetSort(bson.D{{Key: "user_id", Value: 1}, {Key: "journal_type", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}

	var recs []models.StreakRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, err
	}
	out := make([]models.StreakRecord, 0, len(recs))
	for _, rec := range recs {
		out = append(out, normalize(rec))
	}
	return out, nil
}

func (s *Store) GetConfigPath() string {
	return "mongodb"
}

// normalize restores empty slices that BSON turns into null.
func normalize(rec models.StreakRecord) models.StreakRecord {
	if rec.Milestones == nil {
		rec.Milestones = []models.Milestone{}
	}
	if rec.StreakHistory == nil {
		rec.StreakHistory = []models.HistoryEntry{}
	}
	if rec.VisualProgress.UnlockedElements == nil {
		rec.VisualProgress.UnlockedElements = []string{}
	}
	return rec
}
