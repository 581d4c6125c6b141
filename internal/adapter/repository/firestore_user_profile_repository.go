package repository

import (
	"context"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"muzmates/internal/domain/entity"
	"muzmates/internal/domain/repository"
	"muzmates/internal/infrastructure/realtime"
	"muzmates/pkg/errors"
)

const (
	UsersCollection    = "users"
	ListingsCollection = "listings"
)

type firestoreUserProfileRepository struct {
	client *firestore.Client
}

func NewFirestoreUserProfileRepository(client *firestore.Client) repository.UserProfileRepository {
	return &firestoreUserProfileRepository{
		client: client,
	}
}

// Create writes users/{uid}. The document id is always the identity id.
func (r *firestoreUserProfileRepository) Create(ctx context.Context, profile *entity.UserProfile) error {
	profile.DocID = profile.UserID

	_, err := r.client.Collection(UsersCollection).Doc(profile.DocID).Set(ctx, profile)
	if err != nil {
		return errors.Internal("Failed to create user profile", err)
	}
	return nil
}

func (r *firestoreUserProfileRepository) GetByID(ctx context.Context, docID string) (*entity.UserProfile, error) {
	doc, err := r.client.Collection(UsersCollection).Doc(docID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("User profile", err)
		}
		return nil, errors.Internal("Failed to get user profile", err)
	}

	return DecodeUserProfile(doc)
}

func (r *firestoreUserProfileRepository) Update(ctx context.Context, docID string, fields map[string]interface{}) error {
	_, err := r.client.Collection(UsersCollection).Doc(docID).Update(ctx, toUpdates(fields))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("User profile", err)
		}
		return errors.Internal("Failed to update user profile", err)
	}
	return nil
}

func (r *firestoreUserProfileRepository) Delete(ctx context.Context, docID string) error {
	_, err := r.client.Collection(UsersCollection).Doc(docID).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete user profile", err)
	}
	return nil
}

func DecodeUserProfile(doc *firestore.DocumentSnapshot) (*entity.UserProfile, error) {
	var profile entity.UserProfile
	if err := doc.DataTo(&profile); err != nil {
		return nil, errors.Internal("Failed to parse user profile data", err)
	}
	profile.DocID = doc.Ref.ID
	return &profile, nil
}

// NewUsersFeed watches the whole users collection.
func NewUsersFeed(client *firestore.Client) realtime.Source[*entity.UserProfile] {
	return realtime.NewQuerySource[*entity.UserProfile](client.Collection(UsersCollection).Query, DecodeUserProfile)
}

// NewProfileFeed watches users/{uid}.
func NewProfileFeed(client *firestore.Client, uid string) realtime.Source[*entity.UserProfile] {
	return realtime.NewDocumentSource[*entity.UserProfile](client.Collection(UsersCollection).Doc(uid), DecodeUserProfile)
}

// toUpdates keeps field order stable so identical mutations produce identical requests.
func toUpdates(fields map[string]interface{}) []firestore.Update {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	updates := make([]firestore.Update, 0, len(keys))
	for _, key := range keys {
		updates = append(updates, firestore.Update{Path: key, Value: fields[key]})
	}
	return updates
}
