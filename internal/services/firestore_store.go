package services

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// documentStore is the persistent cache level behind the in-memory maps
type documentStore interface {
	Load(ctx context.Context, collection, key string, dst interface{}) error
	Save(ctx context.Context, collection, key string, doc interface{}) error
	DeleteAll(ctx context.Context, collection string) error
	Close() error
}

type firestoreStore struct {
	client *firestore.Client
}

func (s *firestoreStore) Load(ctx context.Context, collection, key string, dst interface{}) error {
	doc, err := s.client.Collection(collection).Doc(key).Get(ctx)
	if err != nil {
		return err
	}
	return doc.DataTo(dst)
}

func (s *firestoreStore) Save(ctx context.Context, collection, key string, doc interface{}) error {
	_, err := s.client.Collection(collection).Doc(key).Set(ctx, doc)
	return err
}

// DeleteAll removes every document in the collection through a BulkWriter
func (s *firestoreStore) DeleteAll(ctx context.Context, collection string) error {
	bw := s.client.BulkWriter(ctx)
	refs := s.client.Collection(collection).DocumentRefs(ctx)

	var jobs []*firestore.BulkWriterJob
	for {
		ref, err := refs.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			bw.End()
			return err
		}
		job, err := bw.Delete(ref)
		if err != nil {
			bw.End()
			return err
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return err
		}
	}
	return nil
}

func (s *firestoreStore) Close() error {
	return s.client.Close()
}
