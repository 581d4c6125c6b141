package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"muzmates/internal/domain/entity"
	"muzmates/internal/domain/repository"
	"muzmates/internal/infrastructure/realtime"
	"muzmates/pkg/errors"
	"muzmates/pkg/logger"
)

type firestoreListingRepository struct {
	client *firestore.Client
}

func NewFirestoreListingRepository(client *firestore.Client) repository.ListingRepository {
	return &firestoreListingRepository{
		client: client,
	}
}

func (r *firestoreListingRepository) Create(ctx context.Context, listing *entity.Listing) error {
	doc := r.client.Collection(ListingsCollection).NewDoc()
	listing.DocID = doc.ID

	// createdAt is left zero so the serverTimestamp tag assigns it.
	if _, err := doc.Create(ctx, listing); err != nil {
		return errors.Internal("Failed to create listing", err)
	}
	return nil
}

func (r *firestoreListingRepository) GetByID(ctx context.Context, docID string) (*entity.Listing, error) {
	doc, err := r.client.Collection(ListingsCollection).Doc(docID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Listing", err)
		}
		return nil, errors.Internal("Failed to get listing", err)
	}

	return DecodeListing(doc)
}

func (r *firestoreListingRepository) Update(ctx context.Context, docID string, fields map[string]interface{}) error {
	_, err := r.client.Collection(ListingsCollection).Doc(docID).Update(ctx, toUpdates(fields))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Listing", err)
		}
		return errors.Internal("Failed to update listing", err)
	}
	return nil
}

func (r *firestoreListingRepository) Delete(ctx context.Context, docID string) error {
	_, err := r.client.Collection(ListingsCollection).Doc(docID).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete listing", err)
	}
	return nil
}

func (r *firestoreListingRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Listing, error) {
	iter := r.ownerQuery(ownerID).Documents(ctx)
	defer iter.Stop()

	var listings []*entity.Listing
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate owner listings", err)
		}

		listing, err := DecodeListing(doc)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}

	return listings, nil
}

// DeleteByOwner removes every listing whose owner field matches ownerID and reports how many were deleted.
func (r *firestoreListingRepository) DeleteByOwner(ctx context.Context, ownerID string) (int, error) {
	docs, err := r.ownerQuery(ownerID).Documents(ctx).GetAll()
	if err != nil {
		return 0, errors.Internal("Failed to load owner listings", err)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	bw := r.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(docs))
	for _, doc := range docs {
		job, err := bw.Delete(doc.Ref)
		if err != nil {
			bw.End()
			return 0, errors.Internal("Failed to queue listing delete", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	deleted := 0
	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			logger.Error("Failed to delete listing %s: %v", docs[i].Ref.ID, err)
			continue
		}
		deleted++
	}
	if deleted != len(docs) {
		return deleted, errors.Internal("Failed to delete every owner listing", nil)
	}

	return deleted, nil
}

func (r *firestoreListingRepository) ownerQuery(ownerID string) firestore.Query {
	return r.client.Collection(ListingsCollection).Where("id", "==", ownerID)
}

// listingDocument reads listingPrice untyped. The outer field shadows the embedded one.
type listingDocument struct {
	entity.Listing
	Price interface{} `firestore:"listingPrice"`
}

func (d *listingDocument) toListing(docID string) (*entity.Listing, error) {
	price, err := entity.PriceValue(d.Price)
	if err != nil {
		return nil, errors.Internal("Failed to parse listing price", err)
	}
	listing := d.Listing
	listing.ListingPrice = price
	listing.DocID = docID
	return &listing, nil
}

func DecodeListing(doc *firestore.DocumentSnapshot) (*entity.Listing, error) {
	var raw listingDocument
	if err := doc.DataTo(&raw); err != nil {
		return nil, errors.Internal("Failed to parse listing data", err)
	}
	return raw.toListing(doc.Ref.ID)
}

// NewListingsFeed watches the whole listings collection.
func NewListingsFeed(client *firestore.Client) realtime.Source[*entity.Listing] {
	return realtime.NewQuerySource[*entity.Listing](client.Collection(ListingsCollection).Query, DecodeListing)
}
