package realtime

import (
	"context"

	"cloud.google.com/go/firestore"

	"muzmates/pkg/logger"
)

// Decoder turns a Firestore document into a snapshot item tagged with its document id.
type Decoder[T any] func(doc *firestore.DocumentSnapshot) (T, error)

type querySource[T any] struct {
	query  firestore.Query
	decode Decoder[T]
}

// NewQuerySource watches a collection or a filtered query. Items keep the order the backend returns.
func NewQuerySource[T any](query firestore.Query, decode Decoder[T]) Source[T] {
	return &querySource[T]{query: query, decode: decode}
}

func (s *querySource[T]) Open(ctx context.Context) (Stream[T], error) {
	return &queryStream[T]{
		it:     s.query.Snapshots(ctx),
		decode: s.decode,
	}, nil
}

type queryStream[T any] struct {
	it     *firestore.QuerySnapshotIterator
	decode Decoder[T]
}

func (s *queryStream[T]) Next() ([]T, error) {
	snap, err := s.it.Next()
	if err != nil {
		return nil, err
	}

	docs, err := snap.Documents.GetAll()
	if err != nil {
		return nil, err
	}

	return decodeAll(docs, s.decode), nil
}

// decodeAll skips documents that fail to decode, so one malformed document neither hides
// the rest of a snapshot nor forces the subscriber to reconnect.
func decodeAll[T any](docs []*firestore.DocumentSnapshot, decode Decoder[T]) []T {
	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		item, err := decode(doc)
		if err != nil {
			logger.Warn("Skipping document %s: %v", doc.Ref.Path, err)
			continue
		}
		items = append(items, item)
	}
	return items
}

func (s *queryStream[T]) Stop() {
	s.it.Stop()
}

type documentSource[T any] struct {
	ref    *firestore.DocumentRef
	decode Decoder[T]
}

// NewDocumentSource watches a single document. A snapshot has one item when the
// document exists and decodes, and none otherwise.
func NewDocumentSource[T any](ref *firestore.DocumentRef, decode Decoder[T]) Source[T] {
	return &documentSource[T]{ref: ref, decode: decode}
}

func (s *documentSource[T]) Open(ctx context.Context) (Stream[T], error) {
	return &documentStream[T]{
		it:     s.ref.Snapshots(ctx),
		decode: s.decode,
	}, nil
}

type documentStream[T any] struct {
	it     *firestore.DocumentSnapshotIterator
	decode Decoder[T]
}

func (s *documentStream[T]) Next() ([]T, error) {
	snap, err := s.it.Next()
	if err != nil {
		return nil, err
	}
	if !snap.Exists() {
		return []T{}, nil
	}

	return decodeAll([]*firestore.DocumentSnapshot{snap}, s.decode), nil
}

func (s *documentStream[T]) Stop() {
	s.it.Stop()
}
