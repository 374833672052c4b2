package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hirelane/portal/internal/core/ports"
)

const sessionCollection = "portal_sessions"

// SessionBackend stores one document per browser session:
//
//	{_id: <session_id>, values: {<key>: <value>}, updated_at: <date>}
//
// Documents untouched for idleTTL are removed by a TTL index on updated_at.
type SessionBackend struct {
	coll    *mongo.Collection
	idleTTL time.Duration
	now     func() time.Time
}

func NewSessionBackend(db *mongo.Database, idleTTL time.Duration) *SessionBackend {
	return &SessionBackend{coll: db.Collection(sessionCollection), idleTTL: idleTTL, now: time.Now}
}

// EnsureIndexes creates the expiry index. A zero idleTTL keeps sessions
// until they are cleared.
func (b *SessionBackend) EnsureIndexes(ctx context.Context) error {
	if b.idleTTL <= 0 {
		return nil
	}
	if _, err := b.coll.Indexes().CreateOne(ctx, expiryIndex(b.idleTTL)); err != nil {
		return fmt.Errorf("create session expiry index: %w", err)
	}
	return nil
}

func expiryIndex(idleTTL time.Duration) mongo.IndexModel {
	secs := int32(idleTTL / time.Second)
	if secs < 1 {
		secs = 1
	}
	return mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(secs).SetName("expire_updated_at"),
	}
}

func (b *SessionBackend) Scope(sessionID string) ports.SessionStore {
	return &SessionStore{backend: b, id: sessionID}
}

// Ping checks the database answers for readiness probes.
func (b *SessionBackend) Ping(ctx context.Context) error {
	return b.coll.Database().RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

type sessionDoc struct {
	ID        string            `bson:"_id"`
	Values    map[string]string `bson:"values"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

type SessionStore struct {
	backend *SessionBackend
	id      string
}

func (s *SessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	var doc sessionDoc
	opts := options.FindOne().SetProjection(bson.M{"values." + key: 1})
	err := s.backend.coll.FindOne(ctx, bson.M{"_id": s.id}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("session get %s: %w", key, err)
	}
	v, ok := doc.Values[key]
	return v, ok, nil
}

func (s *SessionStore) Set(ctx context.Context, key, value string) error {
	update := bson.M{"$set": bson.M{
		"values." + key: value,
		"updated_at":    s.backend.now().UTC(),
	}}
	_, err := s.backend.coll.UpdateOne(ctx, bson.M{"_id": s.id}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("session set %s: %w", key, err)
	}
	return nil
}

func (s *SessionStore) Remove(ctx context.Context, key string) error {
	return s.unset(ctx, key)
}

func (s *SessionStore) Clear(ctx context.Context, authKeysOnly bool) error {
	if authKeysOnly {
		return s.unset(ctx, ports.AuthKeys...)
	}
	if _, err := s.backend.coll.DeleteOne(ctx, bson.M{"_id": s.id}); err != nil {
		return fmt.Errorf("session clear: %w", err)
	}
	return nil
}

func (s *SessionStore) unset(ctx context.Context, keys ...string) error {
	fields := make(bson.M, len(keys))
	for _, k := range keys {
		fields["values."+k] = ""
	}
	update := bson.M{
		"$unset": fields,
		"$set":   bson.M{"updated_at": s.backend.now().UTC()},
	}
	if _, err := s.backend.coll.UpdateOne(ctx, bson.M{"_id": s.id}, update); err != nil {
		return fmt.Errorf("session unset: %w", err)
	}
	return nil
}
