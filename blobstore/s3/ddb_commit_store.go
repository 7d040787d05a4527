package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/bsi/blobstore"
)

// currentName is the pointer blob the snapshot manager rewrites on every
// commit.
const currentName = "CURRENT"

// DDBCommitStore is an S3 store that keeps CURRENT pointers in DynamoDB.
// Every pointer update becomes a new item written with a conditional put,
// and writers racing on the same snapshot name see ErrConcurrentModification
// instead of silently overwriting each other.
//
// Table schema:
//   - Partition key: base_uri (string), the base URI plus the snapshot name
//   - Sort key: version (number), incremented on every commit
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name bsi-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBCommitStore struct {
	s3Store   *Store
	ddbClient DDBClient
	tableName string
	baseURI   string
}

var (
	_ blobstore.BlobStore        = (*DDBCommitStore)(nil)
	_ blobstore.ConditionalStore = (*DDBCommitStore)(nil)
	_ blobstore.SwapStore        = (*DDBCommitStore)(nil)
)

// DDBClient is the subset of the DynamoDB API the commit store uses.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

var _ DDBClient = (*dynamodb.Client)(nil)

// ErrConcurrentModification is returned when another writer committed the
// same pointer version first.
var ErrConcurrentModification = errors.New("s3: concurrent modification detected")

// NewDDBCommitStore wraps s3Store. baseURI, typically "s3://bucket/prefix",
// namespaces the items of this store in the table.
func NewDDBCommitStore(s3Store *Store, ddbClient DDBClient, tableName, baseURI string) *DDBCommitStore {
	return &DDBCommitStore{
		s3Store:   s3Store,
		ddbClient: ddbClient,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

func isCurrent(name string) bool {
	return path.Base(name) == currentName
}

func (s *DDBCommitStore) partition(name string) string {
	dir := path.Dir(name)
	if dir == "." {
		return s.baseURI
	}
	return s.baseURI + "/" + dir
}

// Open reads CURRENT pointers from DynamoDB and everything else from S3.
func (s *DDBCommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if !isCurrent(name) {
		return s.s3Store.Open(ctx, name)
	}
	version, content, err := s.latest(ctx, s.partition(name))
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, blobstore.ErrNotFound
	}
	return &pointerBlob{content: []byte(content)}, nil
}

// Put commits CURRENT pointers through DynamoDB and writes everything else
// to S3.
func (s *DDBCommitStore) Put(ctx context.Context, name string, data []byte) error {
	if isCurrent(name) {
		return s.commit(ctx, s.partition(name), string(data))
	}
	return s.s3Store.Put(ctx, name, data)
}

// PutIfNotExists delegates to the S3 conditional write.
func (s *DDBCommitStore) PutIfNotExists(ctx context.Context, name string, data []byte) error {
	return s.s3Store.PutIfNotExists(ctx, name, data)
}

// CompareAndSwap commits a CURRENT pointer only if the latest committed
// pointer equals old. The commit itself is a conditional put on the next
// version, so a writer racing in between also fails with ErrConflict.
// Other blobs use the S3 If-Match swap.
func (s *DDBCommitStore) CompareAndSwap(ctx context.Context, name string, old, data []byte) error {
	if !isCurrent(name) {
		return s.s3Store.CompareAndSwap(ctx, name, old, data)
	}
	partition := s.partition(name)
	version, content, err := s.latest(ctx, partition)
	if err != nil {
		return err
	}
	if (version == 0) != (old == nil) || (old != nil && content != string(old)) {
		return blobstore.ErrConflict
	}
	err = s.commitAt(ctx, partition, version+1, string(data))
	if errors.Is(err, ErrConcurrentModification) {
		return fmt.Errorf("%w: %w", blobstore.ErrConflict, err)
	}
	return err
}

func (s *DDBCommitStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	return s.s3Store.Create(ctx, name)
}

// Delete removes S3 objects. The commit history of a pointer is kept.
func (s *DDBCommitStore) Delete(ctx context.Context, name string) error {
	if isCurrent(name) {
		return nil
	}
	return s.s3Store.Delete(ctx, name)
}

func (s *DDBCommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.s3Store.List(ctx, prefix)
}

func (s *DDBCommitStore) latest(ctx context.Context, partition string) (uint64, string, error) {
	resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: partition},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("s3: query commit table: %w", err)
	}
	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("s3: commit item lacks a numeric version")
	}
	pointerAttr, ok := item["pointer"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("s3: commit item lacks a pointer")
	}
	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("s3: parse commit version: %w", err)
	}
	return version, pointerAttr.Value, nil
}

func (s *DDBCommitStore) commit(ctx context.Context, partition, pointer string) error {
	current, _, err := s.latest(ctx, partition)
	if err != nil {
		return err
	}
	return s.commitAt(ctx, partition, current+1, pointer)
}

func (s *DDBCommitStore) commitAt(ctx context.Context, partition string, version uint64, pointer string) error {
	_, err := s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: partition},
			"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(version, 10)},
			"pointer":  &types.AttributeValueMemberS{Value: pointer},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("s3: commit pointer: %w", err)
	}
	return nil
}

// pointerBlob serves a CURRENT pointer read from the commit table.
type pointerBlob struct {
	content []byte
}

func (b *pointerBlob) Close() error { return nil }

func (b *pointerBlob) Size() int64 { return int64(len(b.content)) }

func (b *pointerBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	return bytes.NewReader(b.content).ReadAt(p, off)
}

func (b *pointerBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	size := int64(len(b.content))
	if off < 0 || off >= size {
		return nil, io.EOF
	}
	end := min(off+length, size)
	return io.NopCloser(bytes.NewReader(b.content[off:end])), nil
}
