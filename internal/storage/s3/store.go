package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"pcmdec/internal/storage"
)

// Client is the subset of *s3.Client used by Store.
type Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type Store struct {
	client Client
	config storage.Config
}

func New(client Client, config storage.Config) *Store {
	return &Store{
		client: client,
		config: config,
	}
}

var _ storage.Store = (*Store)(nil)

func (s *Store) key(parts ...string) string {
	return path.Join(append([]string{s.config.Prefix}, parts...)...)
}

func (s *Store) StoreVideo(ctx context.Context, videoData io.Reader, metadata storage.VideoMetadata) (storage.VideoMetadata, error) {
	if metadata.ID == "" {
		metadata.ID = uuid.New().String()
	}

	// Store decrypted video data
	videoKey := s.key(s.config.VideoPrefix, metadata.ID)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.BucketName),
		Key:         aws.String(videoKey),
		Body:        videoData,
		ContentType: aws.String(metadata.ContentType),
	})
	if err != nil {
		return metadata, fmt.Errorf("failed to store video: %w", err)
	}

	// Store metadata
	metadataKey := s.key(s.config.MetadataPrefix, metadata.ID+".json")
	metadataBytes, err := json.Marshal(metadata)
	if err != nil {
		return metadata, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.BucketName),
		Key:         aws.String(metadataKey),
		Body:        bytes.NewReader(metadataBytes),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return metadata, fmt.Errorf("failed to store metadata: %w", err)
	}

	return metadata, nil
}

func (s *Store) GetMetadata(ctx context.Context, id string) (storage.VideoMetadata, error) {
	data, err := s.get(ctx, s.key(s.config.MetadataPrefix, id+".json"))
	if err != nil {
		return storage.VideoMetadata{}, fmt.Errorf("failed to get metadata: %w", err)
	}

	var metadata storage.VideoMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return storage.VideoMetadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return metadata, nil
}

func (s *Store) GetDocument(ctx context.Context, token, name string) ([]byte, error) {
	data, err := s.get(ctx, s.key(s.config.DocumentPrefix, token, name))
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", name, err)
	}
	return data, nil
}

func (s *Store) PutDocument(ctx context.Context, token, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.BucketName),
		Key:         aws.String(s.key(s.config.DocumentPrefix, token, name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/xml"),
	})
	if err != nil {
		return fmt.Errorf("failed to store document %s: %w", name, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer result.Body.Close()

	return io.ReadAll(result.Body)
}

// GetConfig returns the store configuration
func (s *Store) GetConfig() storage.Config {
	return s.config
}
