package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bibhubhatta/wecare/internal/db"

	"github.com/redis/go-redis/v9"
)

// ErrNoCredential is returned by a Store that holds no credential under a name.
var ErrNoCredential = errors.New("no stored credential")

// Credential is a server issued session token and its expiry in unix seconds.
type Credential struct {
	Name   string `json:"name"`
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"`
}

// Valid reports whether the credential can still be used at now.
func (c Credential) Valid(now time.Time) bool {
	return c.Token != "" && c.Expiry > now.Unix()
}

// Store persists credentials across process restarts.
type Store interface {
	Load(ctx context.Context, name string) (Credential, error)
	Save(ctx context.Context, cred Credential) error
	Delete(ctx context.Context, name string) error
}

// SqliteStore keeps credentials in the session_credential table.
type SqliteStore struct {
	qry *db.Queries
}

func NewSqliteStore(database db.DBTX) SqliteStore {
	return SqliteStore{qry: db.New(database)}
}

func (s SqliteStore) Load(ctx context.Context, name string) (Credential, error) {
	row, err := s.qry.GetSessionCredential(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return Credential{}, ErrNoCredential
	}
	if err != nil {
		return Credential{}, err
	}
	return Credential{Name: row.Name, Token: row.Token, Expiry: row.ExpiresAt}, nil
}

func (s SqliteStore) Save(ctx context.Context, cred Credential) error {
	return s.qry.SaveSessionCredential(ctx, db.SaveSessionCredentialParams{
		Name:      cred.Name,
		Token:     cred.Token,
		ExpiresAt: cred.Expiry,
	})
}

func (s SqliteStore) Delete(ctx context.Context, name string) error {
	return s.qry.DeleteSessionCredential(ctx, name)
}

// RedisStore shares credentials between processes through redis, entries
// expire on their own when the credential does.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) RedisStore {
	if prefix == "" {
		prefix = "pantry:session:"
	}
	return RedisStore{client: client, prefix: prefix}
}

func (s RedisStore) key(name string) string {
	return s.prefix + name
}

func (s RedisStore) Load(ctx context.Context, name string) (Credential, error) {
	raw, err := s.client.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Credential{}, ErrNoCredential
	}
	if err != nil {
		return Credential{}, err
	}
	var cred Credential
	err = json.Unmarshal(raw, &cred)
	if err != nil {
		return Credential{}, fmt.Errorf("decode credential: %w", err)
	}
	return cred, nil
}

func (s RedisStore) Save(ctx context.Context, cred Credential) error {
	ttl := time.Until(time.Unix(cred.Expiry, 0))
	if ttl <= 0 {
		return s.Delete(ctx, cred.Name)
	}
	raw, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(cred.Name), raw, ttl).Err()
}

func (s RedisStore) Delete(ctx context.Context, name string) error {
	return s.client.Del(ctx, s.key(name)).Err()
}
