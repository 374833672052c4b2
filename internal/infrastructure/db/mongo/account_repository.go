package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hirelane/portal/internal/mockapi"
)

const (
	accountCollection = "mockapi_accounts"
	counterCollection = "mockapi_counters"
	candidateCounter  = "candidate_id"
)

// AccountRepository keeps the development API's accounts in MongoDB. The
// login key ("candidate:<email>" or "client:<client_id>") carries a unique
// index; candidate ids come from a counter document.
type AccountRepository struct {
	coll     *mongo.Collection
	counters *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{
		coll:     db.Collection(accountCollection),
		counters: db.Collection(counterCollection),
	}
}

// EnsureIndexes creates the unique login key index.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "login_key", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_login_key"),
	})
	if err != nil {
		return fmt.Errorf("create account index: %w", err)
	}
	return nil
}

type mongoAccount struct {
	ID           string `bson:"_id"`
	LoginKey     string `bson:"login_key"`
	Kind         string `bson:"kind"`
	Email        string `bson:"email,omitempty"`
	ClientID     string `bson:"client_id,omitempty"`
	CandidateID  int64  `bson:"candidate_id,omitempty"`
	Name         string `bson:"name,omitempty"`
	CompanyName  string `bson:"company_name,omitempty"`
	Phone        string `bson:"phone,omitempty"`
	PasswordHash string `bson:"password_hash"`
	CreatedAt    int64  `bson:"created_at"`
}

func (r *AccountRepository) Create(ctx context.Context, a *mockapi.Account) error {
	if a.Kind == mockapi.KindCandidate {
		id, err := r.nextCandidateID(ctx)
		if err != nil {
			return err
		}
		a.CandidateID = id
	}

	doc := mongoAccount{
		ID:           a.ID,
		LoginKey:     loginKey(a.LoginKey()),
		Kind:         string(a.Kind),
		Email:        a.Email,
		ClientID:     a.ClientID,
		CandidateID:  a.CandidateID,
		Name:         a.Name,
		CompanyName:  a.CompanyName,
		Phone:        a.Phone,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt.Unix(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return mockapi.ErrAccountExists
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *AccountRepository) Find(ctx context.Context, kind mockapi.Kind, login string) (*mockapi.Account, error) {
	var doc mongoAccount
	err := r.coll.FindOne(ctx, bson.M{"login_key": loginKey(mockapi.LoginKey(kind, login))}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mockapi.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}

	return &mockapi.Account{
		ID:           doc.ID,
		Kind:         mockapi.Kind(doc.Kind),
		Email:        doc.Email,
		ClientID:     doc.ClientID,
		CandidateID:  doc.CandidateID,
		Name:         doc.Name,
		CompanyName:  doc.CompanyName,
		Phone:        doc.Phone,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    unixToTime(doc.CreatedAt),
	}, nil
}

// nextCandidateID increments the candidate counter atomically.
func (r *AccountRepository) nextCandidateID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": candidateCounter},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next candidate id: %w", err)
	}
	return counter.Seq, nil
}

func loginKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
