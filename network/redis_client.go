package network

import (
	"context"
	"fmt"
	"sort"

	"github.com/APTrust/storage-gateway/constants"
	"github.com/APTrust/storage-gateway/models/registry"
	"github.com/go-redis/redis/v7"
)

// RedisClient keeps work records and the connector registry in Redis.
//
// Layout:
//
//	work:<id>                 JSON Work
//	works:source:<sourceID>   set of work ids for a file id or export path
//	connectors                hash of internal id -> JSON Connector
type RedisClient struct {
	client *redis.Client
}

const connectorsKey = "connectors"

func NewRedisClient(address, password string, db int) *RedisClient {
	return &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr:     address,
			Password: password,
			DB:       db,
		}),
	}
}

func (c *RedisClient) Ping() (string, error) {
	return c.client.Ping().Result()
}

func (c *RedisClient) Close() error {
	return c.client.Close()
}

func workKey(id string) string {
	return fmt.Sprintf("work:%s", id)
}

func sourceKey(sourceID string) string {
	return fmt.Sprintf("works:source:%s", sourceID)
}

// WorkSave stores the work and indexes it under its source id.
func (c *RedisClient) WorkSave(ctx context.Context, work *registry.Work) error {
	jsonData, err := work.ToJSON()
	if err != nil {
		return err
	}
	_, err = c.client.WithContext(ctx).TxPipelined(func(pipe redis.Pipeliner) error {
		pipe.Set(workKey(work.ID), jsonData, 0)
		pipe.SAdd(sourceKey(work.SourceID), work.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("WorkSave (%s): %w", work.ID, err)
	}
	return nil
}

// WorkGet returns the work with the given id.
func (c *RedisClient) WorkGet(ctx context.Context, id string) (*registry.Work, error) {
	data, err := c.client.WithContext(ctx).Get(workKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("WorkGet (%s): %w", id, err)
	}
	return registry.WorkFromJSON([]byte(data))
}

// WorksForSource returns all works recorded for sourceID, oldest first.
// Ids in the index whose work record has gone are skipped.
func (c *RedisClient) WorksForSource(ctx context.Context, sourceID string) ([]*registry.Work, error) {
	client := c.client.WithContext(ctx)
	ids, err := client.SMembers(sourceKey(sourceID)).Result()
	if err != nil {
		return nil, fmt.Errorf("WorksForSource (%s): %w", sourceID, err)
	}
	works := make([]*registry.Work, 0, len(ids))
	for _, id := range ids {
		data, err := client.Get(workKey(id)).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("WorksForSource (%s): %w", sourceID, err)
		}
		work, err := registry.WorkFromJSON([]byte(data))
		if err != nil {
			return nil, err
		}
		works = append(works, work)
	}
	sort.SliceStable(works, func(i, j int) bool {
		return works[i].CreatedAt.Before(works[j].CreatedAt)
	})
	return works, nil
}

// CreateWork records a new import work for a connector processing
// the file identified by sourceID.
func (c *RedisClient) CreateWork(ctx context.Context, user *registry.User, connector *registry.Connector, name, sourceID string) (*registry.Work, error) {
	work := registry.NewWork(constants.WorkTypeImport, name, connector.ID, sourceID, user.GetID())
	if err := c.WorkSave(ctx, work); err != nil {
		return nil, err
	}
	return work, nil
}

// DeleteWorkForFile removes every work recorded for fileID.
func (c *RedisClient) DeleteWorkForFile(ctx context.Context, fileID string) error {
	client := c.client.WithContext(ctx)
	ids, err := client.SMembers(sourceKey(fileID)).Result()
	if err != nil {
		return fmt.Errorf("DeleteWorkForFile (%s): %w", fileID, err)
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, workKey(id))
	}
	keys = append(keys, sourceKey(fileID))
	_, err = client.Del(keys...).Result()
	if err != nil {
		return fmt.Errorf("DeleteWorkForFile (%s): %w", fileID, err)
	}
	return nil
}

// ExportWorksForSource returns the export works still running for
// the storage path.
func (c *RedisClient) ExportWorksForSource(ctx context.Context, path string) ([]*registry.Work, error) {
	works, err := c.WorksForSource(ctx, path)
	if err != nil {
		return nil, err
	}
	exports := make([]*registry.Work, 0, len(works))
	for _, work := range works {
		if work.Type == constants.WorkTypeExport && work.InFlight() {
			exports = append(exports, work)
		}
	}
	return exports, nil
}

// ConnectorSave registers or updates a connector.
func (c *RedisClient) ConnectorSave(ctx context.Context, connector *registry.Connector) error {
	jsonData, err := connector.ToJSON()
	if err != nil {
		return err
	}
	_, err = c.client.WithContext(ctx).HSet(connectorsKey, connector.InternalID, jsonData).Result()
	return err
}

// ConnectorDelete removes a connector from the registry.
func (c *RedisClient) ConnectorDelete(ctx context.Context, internalID string) error {
	_, err := c.client.WithContext(ctx).HDel(connectorsKey, internalID).Result()
	return err
}

// ConnectorsForImport returns the active import connectors that accept
// mimeType, sorted by name. If onlyAuto is true, only connectors set
// to trigger automatically are returned.
func (c *RedisClient) ConnectorsForImport(ctx context.Context, mimeType string, onlyAuto bool) ([]*registry.Connector, error) {
	all, err := c.client.WithContext(ctx).HGetAll(connectorsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("ConnectorsForImport (%s): %w", mimeType, err)
	}
	connectors := make([]*registry.Connector, 0)
	for _, data := range all {
		connector, err := registry.ConnectorFromJSON([]byte(data))
		if err != nil {
			return nil, err
		}
		if connector.AcceptsImport(mimeType, onlyAuto) {
			connectors = append(connectors, connector)
		}
	}
	sort.Slice(connectors, func(i, j int) bool {
		if connectors[i].Name == connectors[j].Name {
			return connectors[i].InternalID < connectors[j].InternalID
		}
		return connectors[i].Name < connectors[j].Name
	})
	return connectors, nil
}
