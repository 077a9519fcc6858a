package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"userservice-backend/internal/models"
)

// indexRetryInterval is how often a failed index build is retried
const indexRetryInterval = 10 * time.Second

// MongoConfig holds MongoDB connection settings
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// MongoStore keeps profiles and preferences in two MongoDB collections
type MongoStore struct {
	db          *mongo.Database
	profiles    *mongoProfiles
	preferences *mongoPreferences
	log         *zap.Logger
	cancel      context.CancelFunc
}

// OpenMongo connects to MongoDB. An unreachable server is not fatal: the
// failure is logged, the health check reports it, and the unique username
// indexes are retried in the background until they are built.
func OpenMongo(ctx context.Context, cfg MongoConfig, log *zap.Logger) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	s := NewMongoStore(client.Database(cfg.Database), log)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := s.Ping(pingCtx); err != nil {
		s.log.Error("mongodb connection error", zap.Error(err))
	} else {
		s.log.Info("connected to mongodb", zap.String("database", cfg.Database))
	}

	if err := s.EnsureIndexes(pingCtx); err != nil {
		s.log.Warn("failed to build username indexes, retrying in background", zap.Error(err))
		bg, stop := context.WithCancel(context.Background())
		s.cancel = stop
		go s.retryIndexes(bg)
	}

	return s, nil
}

// NewMongoStore wraps an already connected database
func NewMongoStore(db *mongo.Database, log *zap.Logger) *MongoStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &MongoStore{
		db:          db,
		profiles:    &mongoProfiles{coll: db.Collection(ProfilesCollection)},
		preferences: &mongoPreferences{coll: db.Collection(PreferencesCollection)},
		log:         log,
	}
}

func (s *MongoStore) Profiles() ProfileStore        { return s.profiles }
func (s *MongoStore) Preferences() PreferenceStore { return s.preferences }

// Ping checks that the primary is reachable
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

// Close stops background work and disconnects the client
func (s *MongoStore) Close(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	return s.db.Client().Disconnect(ctx)
}

// EnsureIndexes creates the unique username index on both collections. The
// index is what makes concurrent profile creation safe.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	model := mongo.IndexModel{
		Keys:    bson.D{{Key: models.FieldUsername, Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	}
	for _, coll := range []*mongo.Collection{s.profiles.coll, s.preferences.coll} {
		if _, err := coll.Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (s *MongoStore) retryIndexes(ctx context.Context) {
	ticker := time.NewTicker(indexRetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			attempt, cancel := context.WithTimeout(ctx, indexRetryInterval)
			err := s.EnsureIndexes(attempt)
			cancel()
			if err == nil {
				s.log.Info("username indexes built")
				return
			}
			s.log.Debug("index build still failing", zap.Error(err))
		}
	}
}

type mongoProfiles struct {
	coll *mongo.Collection
}

func (r *mongoProfiles) Get(ctx context.Context, username string) (*models.Profile, error) {
	var profile models.Profile
	err := r.coll.FindOne(ctx, bson.M{models.FieldUsername: username}).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &profile, nil
}

func (r *mongoProfiles) Create(ctx context.Context, username string, fields map[string]any) (*models.Profile, error) {
	if _, err := r.Get(ctx, username); err == nil {
		return nil, ErrProfileExists
	} else if !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	profile := models.NewProfile(username, fields, utcNow())
	if _, err := r.coll.InsertOne(ctx, profile); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrProfileExists
		}
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	return profile, nil
}

func (r *mongoProfiles) Update(ctx context.Context, username string, fields map[string]any) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{models.FieldUsername: username},
		bson.M{"$set": fields},
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrProfileNotFound
	}
	return nil
}

type mongoPreferences struct {
	coll *mongo.Collection
}

func (r *mongoPreferences) Get(ctx context.Context, username string) (*models.Preferences, error) {
	prefs := models.BlankPreferences(username)
	err := r.coll.FindOne(ctx, bson.M{models.FieldUsername: username}).Decode(prefs)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DefaultPreferences(username), nil
	}
	if err != nil {
		return nil, fmt.Errorf("find preferences: %w", err)
	}

	prefs.UIPreferences = plainDocument(prefs.UIPreferences)
	prefs.RiskPreferences = plainDocument(prefs.RiskPreferences)
	prefs.FillDefaults()
	return prefs, nil
}

// Update upserts. The username equality in the filter is copied into the
// document when the upsert inserts, so one write is enough.
func (r *mongoPreferences) Update(ctx context.Context, username string, fields map[string]any) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{models.FieldUsername: username},
		bson.M{"$set": fields},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}

func (r *mongoPreferences) AddFavorite(ctx context.Context, username, symbol string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{models.FieldUsername: username},
		bson.M{
			"$addToSet": bson.M{models.FieldFavoriteSymbols: models.NormalizeSymbol(symbol)},
			"$set":      bson.M{models.FieldUpdatedAt: utcNow()},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

func (r *mongoPreferences) RemoveFavorite(ctx context.Context, username, symbol string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{models.FieldUsername: username},
		bson.M{
			"$pull": bson.M{models.FieldFavoriteSymbols: models.NormalizeSymbol(symbol)},
			"$set":  bson.M{models.FieldUpdatedAt: utcNow()},
		},
	)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrPreferencesNotFound
	}
	return nil
}

// plainDocument converts nested BSON container types to plain maps and
// slices so they encode as JSON objects and arrays.
func plainDocument(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = plainValue(v)
	}
	return out
}

func plainValue(v any) any {
	switch val := v.(type) {
	case primitive.D:
		out := make(map[string]any, len(val))
		for _, e := range val {
			out[e.Key] = plainValue(e.Value)
		}
		return out
	case primitive.M:
		return plainDocument(val)
	case map[string]any:
		return plainDocument(val)
	case primitive.A:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = plainValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = plainValue(item)
		}
		return out
	}
	return v
}
