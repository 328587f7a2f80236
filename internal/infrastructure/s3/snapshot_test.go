package s3infra

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/community-hub/internal/domain"
	"github.com/community-hub/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBucket keeps objects in a map keyed by bucket/key.
type fakeBucket struct {
	objects map[string][]byte
	getErr  error
}

func (f *fakeBucket) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	b, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeBucket) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Bucket+"/"+*in.Key] = b
	return &s3.PutObjectOutput{}, nil
}

func TestSnapshotStore_LoadMissingReturnsNil(t *testing.T) {
	store := NewSnapshotStore(&fakeBucket{objects: map[string][]byte{}}, "hub", "snap.json")
	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSnapshotStore_SaveThenLoad(t *testing.T) {
	bucket := &fakeBucket{objects: map[string][]byte{}}
	store := NewSnapshotStore(bucket, "hub", "snap.json")
	at := time.Date(2023, 6, 15, 10, 30, 0, 0, time.UTC)
	in := memory.Snapshot{
		Requests: []domain.ServiceRequest{{
			RequestID:     "r1",
			Title:         "Leak",
			Status:        domain.StatusPending,
			StatusHistory: []domain.StatusUpdate{{UpdateID: "u1", Status: domain.StatusPending, Timestamp: at}},
			Comments:      []domain.Comment{},
			CreatedAt:     at,
			UpdatedAt:     at,
		}},
		Notifications: []domain.Notification{{NotificationID: "n1", Title: "Water", Type: domain.TypeAlert, CreatedAt: at}},
	}

	require.NoError(t, store.Save(context.Background(), in))
	assert.Contains(t, bucket.objects, "hub/snap.json")

	out, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Len(t, out.Requests, 1)
	assert.Equal(t, "Leak", out.Requests[0].Title)
	assert.True(t, at.Equal(out.Requests[0].StatusHistory[0].Timestamp))
	require.Len(t, out.Notifications, 1)
	assert.Equal(t, "Water", out.Notifications[0].Title)
}

func TestSnapshotStore_LoadPropagatesErrors(t *testing.T) {
	store := NewSnapshotStore(&fakeBucket{getErr: errors.New("access denied")}, "hub", "snap.json")
	_, err := store.Load(context.Background())
	assert.ErrorContains(t, err, "access denied")

	corrupt := &fakeBucket{objects: map[string][]byte{"hub/snap.json": []byte("{")}}
	_, err = NewSnapshotStore(corrupt, "hub", "snap.json").Load(context.Background())
	assert.Error(t, err)
}
