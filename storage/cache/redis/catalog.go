package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/dewinurmalitasari/geoviz-server/core"
	"github.com/dewinurmalitasari/geoviz-server/core/statistic"
)

// Client is the part of *redis.Client the cache uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

var _ Client = (*redis.Client)(nil)

// NewClient connects to the configured redis server and checks that it answers.
func NewClient(ctx context.Context, conf core.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "pinging redis at %s", conf.Addr)
	}
	return client, nil
}

// CatalogCache keeps JSON snapshots of the materials catalog and the practice-code universe.
// Reads fall back to the wrapped stores on a miss or a redis failure.
type CatalogCache struct {
	client    Client
	materials statistic.MaterialCatalog
	practices statistic.PracticeCatalog
	logger    core.Logger
	ttl       time.Duration

	materialsKey string
	codesKey     string
}

var (
	_ statistic.MaterialCatalog    = (*CatalogCache)(nil)
	_ statistic.PracticeCatalog    = (*CatalogCache)(nil)
	_ statistic.CatalogInvalidator = (*CatalogCache)(nil)
)

func NewCatalogCache(
	client Client,
	materials statistic.MaterialCatalog,
	practices statistic.PracticeCatalog,
	logger core.Logger,
	conf core.RedisConfig,
) *CatalogCache {
	prefix := conf.KeyPrefix
	if prefix == "" {
		prefix = "geoviz"
	}
	return &CatalogCache{
		client:       client,
		materials:    materials,
		practices:    practices,
		logger:       logger,
		ttl:          conf.CatalogTTL,
		materialsKey: prefix + ":catalog:materials",
		codesKey:     prefix + ":catalog:practice_codes",
	}
}

// load reads key into dest and reports whether it was found.
func (c *CatalogCache) load(ctx context.Context, key string, dest interface{}) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("reading catalog cache", errors.Wrapf(err, "GET %s", key))
		}
		return false
	}
	if err = json.Unmarshal(data, dest); err != nil {
		c.logger.Warn("decoding catalog cache", errors.Wrapf(err, "GET %s", key))
		return false
	}
	return true
}

func (c *CatalogCache) store(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err = c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("writing catalog cache", errors.Wrapf(err, "SET %s", key))
	}
}

func (c *CatalogCache) ListCatalogMaterials(ctx context.Context) ([]statistic.CatalogMaterial, error) {
	var catalog []statistic.CatalogMaterial
	if c.load(ctx, c.materialsKey, &catalog) {
		return catalog, nil
	}
	catalog, err := c.materials.ListCatalogMaterials(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, c.materialsKey, catalog)
	return catalog, nil
}

func (c *CatalogCache) CountMaterials(ctx context.Context) (int, error) {
	catalog, err := c.ListCatalogMaterials(ctx)
	return len(catalog), err
}

func (c *CatalogCache) ListPracticeCodes(ctx context.Context) ([]string, error) {
	var codes []string
	if c.load(ctx, c.codesKey, &codes) {
		return codes, nil
	}
	codes, err := c.practices.ListPracticeCodes(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, c.codesKey, codes)
	return codes, nil
}

func (c *CatalogCache) CountPracticeCodes(ctx context.Context) (int, error) {
	codes, err := c.ListPracticeCodes(ctx)
	return len(codes), err
}

// InvalidateCatalog drops both snapshots; the next read repopulates them.
func (c *CatalogCache) InvalidateCatalog(ctx context.Context) error {
	if err := c.client.Del(ctx, c.materialsKey, c.codesKey).Err(); err != nil {
		return errors.Wrap(err, "deleting catalog cache keys")
	}
	return nil
}
