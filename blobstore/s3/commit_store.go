package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/ragindex/blobstore"
)

// Compile-time check to ensure CommitStore satisfies the BlobStore interface.
var _ blobstore.BlobStore = (*CommitStore)(nil)

// ErrConcurrentModification is returned when a concurrent write is detected.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// CommitStore is a Store whose CURRENT pointer lives in DynamoDB.
//
// Every Put of blobstore.Current appends version n+1 with a conditional
// write, so two publishers racing on the same version cannot both win.
//
// Table schema:
//   - Partition key: base_uri (string), the bucket and prefix
//   - Sort key: version (number), monotonically increasing
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name ragindex-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type CommitStore struct {
	*Store
	ddb       DDBClient
	tableName string
	baseURI   string
}

// NewCommitStore creates a new S3+DynamoDB commit store.
func NewCommitStore(store *Store, ddb DDBClient, tableName string) *CommitStore {
	return &CommitStore{
		Store:     store,
		ddb:       ddb,
		tableName: tableName,
		baseURI:   fmt.Sprintf("s3://%s/%s", store.bucket, store.prefix),
	}
}

// Open opens a blob for reading. CURRENT is served from DynamoDB.
func (s *CommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if name != blobstore.Current {
		return s.Store.Open(ctx, name)
	}

	version, target, err := s.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, blobstore.ErrNotFound
	}
	return blobstore.NewBytesBlob([]byte(target)), nil
}

// Put writes a blob. CURRENT is committed to DynamoDB.
func (s *CommitStore) Put(ctx context.Context, name string, data []byte) error {
	if name == blobstore.Current {
		return s.commit(ctx, string(data))
	}
	return s.Store.Put(ctx, name, data)
}

// Latest returns the latest committed version and the blob name it points at.
// Version 0 means nothing has been committed.
func (s *CommitStore) Latest(ctx context.Context) (uint64, string, error) {
	resp, err := s.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.baseURI},
		},
		ScanIndexForward: aws.Bool(false), // Descending order
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("s3: query commits: %w", err)
	}

	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("s3: invalid version attribute in commit table")
	}
	targetAttr, ok := item["target"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("s3: invalid target attribute in commit table")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("s3: parse version: %w", err)
	}

	return version, targetAttr.Value, nil
}

// commit atomically appends a new version using a DynamoDB conditional write.
func (s *CommitStore) commit(ctx context.Context, target string) error {
	current, _, err := s.Latest(ctx)
	if err != nil {
		return err
	}

	_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: s.baseURI},
			"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(current+1, 10)},
			"target":   &types.AttributeValueMemberS{Value: target},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("s3: commit version: %w", err)
	}

	return nil
}
