package stores

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/suriyel/AgentFramework/pkg/task"
)

/*
Archive writes terminal task states to an S3-compatible object store, one
JSON object per task. The engine calls it best-effort once a task reaches
succeeded or failed; live state stays in the TaskStore.
*/
type Archive struct {
	client *minio.Client
	bucket string
}

type ArchiveConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func NewArchive(ctx context.Context, cfg ArchiveConfig) (*Archive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to object store: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &Archive{client: client, bucket: cfg.Bucket}, nil
}

// Put stores one terminal task state under tasks/<id>.json.
func (a *Archive) Put(ctx context.Context, state *task.State) error {
	buf, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal task %s: %w", state.ID, err)
	}

	key := fmt.Sprintf("tasks/%s.json", state.ID)
	_, err = a.client.PutObject(
		ctx, a.bucket, key,
		bytes.NewReader(buf), int64(len(buf)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return fmt.Errorf("failed to archive task %s: %w", state.ID, err)
	}

	log.Debug("task archived", "task_id", state.ID, "key", key)
	return nil
}

// Get loads an archived task state by id.
func (a *Archive) Get(ctx context.Context, id string) (*task.State, error) {
	key := fmt.Sprintf("tasks/%s.json", id)
	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to read archived task %s: %w", id, err)
	}
	defer obj.Close()

	var state task.State
	if err := json.NewDecoder(obj).Decode(&state); err != nil {
		return nil, fmt.Errorf("failed to decode archived task %s: %w", id, err)
	}
	return &state, nil
}
