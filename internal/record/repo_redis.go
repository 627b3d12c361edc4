package record

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each record in a hash at <prefix><table>:<id>.
// Attribute values are stored as strings; a nil value means the field is absent.

type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

const defaultRedisPrefix = "ipstamp:record:"

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

var insertIfAbsentScript = redis.NewScript(`
-- KEYS[1] = record key
-- ARGV = field, value, field, value, ...
--
-- Returns:
--  1 if created
--  0 if the key already exists
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV))
return 1
`)

var updateIfExistsScript = redis.NewScript(`
-- KEYS[1] = record key
-- ARGV[1] = number of fields to set (n)
-- ARGV[2 .. 2n+1] = field, value pairs to set
-- ARGV[2n+2 ..] = fields to delete
--
-- Returns:
--  1 if updated
--  0 if the record does not exist
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
local n = tonumber(ARGV[1])
if n > 0 then
  redis.call('HSET', KEYS[1], unpack(ARGV, 2, 2 * n + 1))
end
if #ARGV > 2 * n + 1 then
  redis.call('HDEL', KEYS[1], unpack(ARGV, 2 * n + 2))
end
return 1
`)

func (s *RedisStore) Insert(ctx context.Context, table string, row Row) error {
	args := make([]any, 0, 2*len(row.Attributes)+4)
	args = append(args, ColumnID, row.ID, ColumnCreatedAt, row.CreatedAt.UTC().Format(time.RFC3339Nano))
	set, _ := splitFields(row.Attributes)
	args = append(args, set...)

	res, err := insertIfAbsentScript.Run(ctx, s.rdb, []string{s.key(table, row.ID)}, args...).Int()
	if err != nil {
		return err
	}
	if res == 0 {
		return ErrDuplicate
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, table, id string) (Row, error) {
	fields, err := s.rdb.HGetAll(ctx, s.key(table, id)).Result()
	if err != nil {
		return Row{}, err
	}
	if len(fields) == 0 {
		return Row{}, ErrNotFound
	}

	out := Row{ID: id, Attributes: make(map[string]any, len(fields))}
	for k, v := range fields {
		switch k {
		case ColumnID:
		case ColumnCreatedAt:
			t, err := time.Parse(time.RFC3339Nano, v)
			if err != nil {
				return Row{}, fmt.Errorf("record: %s.%s created_at: %w", table, id, err)
			}
			out.CreatedAt = t
		default:
			out.Attributes[k] = v
		}
	}
	return out, nil
}

// UpdateAttributes writes only the given hash fields, atomically failing with ErrNotFound
// when the record does not exist.
func (s *RedisStore) UpdateAttributes(ctx context.Context, table, id string, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	set, del := splitFields(values)
	args := make([]any, 0, 1+len(set)+len(del))
	args = append(args, len(set)/2)
	args = append(args, set...)
	args = append(args, del...)

	res, err := updateIfExistsScript.Run(ctx, s.rdb, []string{s.key(table, id)}, args...).Int()
	if err != nil {
		return err
	}
	if res == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) key(table, id string) string {
	return s.prefix + table + ":" + id
}

// splitFields returns field/value pairs to set and the names of nil fields to drop.
func splitFields(values map[string]any) (set []any, del []any) {
	for _, k := range sortedKeys(values) {
		v := values[k]
		if v == nil {
			del = append(del, k)
			continue
		}
		if s, ok := v.(string); ok {
			set = append(set, k, s)
			continue
		}
		set = append(set, k, fmt.Sprint(v))
	}
	return set, del
}
