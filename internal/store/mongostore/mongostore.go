// Package mongostore reads chats and writes presence in the MongoDB document
// layout used by the chat web application: a "chats" collection whose
// documents carry participants [{userId}] and a "users" collection holding
// isOnline and lastSeen. Ids that parse as ObjectIDs are queried as such.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Tyrowin/gochat-relay/internal/store"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	chatsCollection = "chats"
	usersCollection = "users"
)

type participantDoc struct {
	UserID any `bson:"userId"`
}

type chatDoc struct {
	Participants []participantDoc `bson:"participants"`
}

type userDoc struct {
	IsOnline bool      `bson:"isOnline"`
	LastSeen time.Time `bson:"lastSeen"`
}

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

// docID converts a textual id to the _id value stored by the application.
func docID(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

func idString(v any) (string, bool) {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex(), true
	case string:
		return id, id != ""
	}
	return "", false
}

func (s *Store) GetParticipants(ctx context.Context, chatID string) ([]string, error) {
	var doc chatDoc
	err := s.db.Collection(chatsCollection).
		FindOne(ctx, bson.M{"_id": docID(chatID)}).
		Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find chat %s: %w", chatID, err)
	}

	participants := lo.FilterMap(doc.Participants, func(p participantDoc, _ int) (string, bool) {
		return idString(p.UserID)
	})
	return lo.Uniq(participants), nil
}

func (s *Store) PutChat(ctx context.Context, chatID string, participants []string) error {
	docs := lo.Map(lo.Uniq(participants), func(userID string, _ int) bson.M {
		return bson.M{"userId": docID(userID)}
	})
	_, err := s.db.Collection(chatsCollection).UpdateOne(ctx,
		bson.M{"_id": docID(chatID)},
		bson.M{"$set": bson.M{"participants": docs}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("put chat %s: %w", chatID, err)
	}
	return nil
}

func (s *Store) SetUserOnline(ctx context.Context, userID string, online bool, at time.Time) error {
	_, err := s.db.Collection(usersCollection).UpdateOne(ctx,
		bson.M{"_id": docID(userID)},
		bson.M{"$set": bson.M{"isOnline": online, "lastSeen": at.UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("set presence %s: %w", userID, err)
	}
	return nil
}

func (s *Store) GetPresence(ctx context.Context, userID string) (store.Presence, error) {
	var doc userDoc
	err := s.db.Collection(usersCollection).
		FindOne(ctx, bson.M{"_id": docID(userID)}, options.FindOne().SetProjection(bson.M{"isOnline": 1, "lastSeen": 1})).
		Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.Presence{}, store.ErrUserNotFound
	}
	if err != nil {
		return store.Presence{}, fmt.Errorf("get presence %s: %w", userID, err)
	}

	return presenceFromDoc(userID, doc), nil
}

// presenceFromDoc leaves LastSeen nil for documents that never recorded one.
func presenceFromDoc(userID string, doc userDoc) store.Presence {
	p := store.Presence{UserID: userID, IsOnline: doc.IsOnline}
	if !doc.LastSeen.IsZero() {
		seen := doc.LastSeen.UTC()
		p.LastSeen = &seen
	}
	return p
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
