// Package client wraps the go-redis library behind the small capability set
// the benchmark engine needs. Two adapter variants exist, one per deployment
// mode; the engine never branches on the mode after construction.
package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const connectTimeout = 5 * time.Second

// Client is the capability set a benchmark worker uses. Each worker owns its
// own Client exclusively; connections are never shared between workers.
type Client interface {
	// Set writes value under key.
	Set(ctx context.Context, key, value string) error
	// Get reads key. A missing key is reported as found=false, not an error.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Do issues an arbitrary command, e.g. []interface{}{"INCR", "counter"}.
	Do(ctx context.Context, args ...interface{}) (interface{}, error)
	// Eval runs a server-side Lua script.
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)
	Close() error
}

// Options carries everything needed to connect to the target server.
type Options struct {
	Host            string
	Port            int
	Password        string
	DB              int
	UseTLS          bool
	TLSSkipVerify   bool
	Cluster         bool
	ReadFromReplica bool

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Addr returns the host:port pair the client connects to.
func (o Options) Addr() string {
	host := o.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := o.Port
	if port == 0 {
		port = 6379
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func (o Options) tlsConfig() *tls.Config {
	if !o.UseTLS {
		return nil
	}
	return &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: o.TLSSkipVerify,
	}
}

// New connects a client according to opts and verifies the connection with a
// PING. A failure here is fatal to the run; no partial benchmark is attempted.
func New(opts Options) (Client, error) {
	if opts.Cluster {
		return newCluster(opts)
	}
	return newStandalone(opts)
}

// standaloneClient adapts a single-node go-redis client.
type standaloneClient struct {
	rdb *redis.Client
}

func newStandalone(opts Options) (Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr(),
		Password:     opts.Password,
		DB:           opts.DB,
		TLSConfig:    opts.tlsConfig(),
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	})
	if err := ping(rdb); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect %s: %w", opts.Addr(), err)
	}
	return &standaloneClient{rdb: rdb}, nil
}

func (c *standaloneClient) Set(ctx context.Context, key, value string) error {
	return c.rdb.Set(ctx, key, value, 0).Err()
}

func (c *standaloneClient) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (c *standaloneClient) Do(ctx context.Context, args ...interface{}) (interface{}, error) {
	return c.rdb.Do(ctx, args...).Result()
}

func (c *standaloneClient) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	return c.rdb.Eval(ctx, script, keys, args...).Result()
}

func (c *standaloneClient) Close() error {
	return c.rdb.Close()
}

// clusterClient adapts a cluster-mode go-redis client. Slot routing and
// topology discovery are the library's concern; with ReadFromReplica the
// cluster client serves reads from replicas and spreads them randomly.
type clusterClient struct {
	rdb *redis.ClusterClient
}

func newCluster(opts Options) (Client, error) {
	rdb := redis.NewClusterClient(&redis.ClusterOptions{
		Addrs:         []string{opts.Addr()},
		Password:      opts.Password,
		TLSConfig:     opts.tlsConfig(),
		ReadOnly:      opts.ReadFromReplica,
		RouteRandomly: opts.ReadFromReplica,
		DialTimeout:   opts.DialTimeout,
		ReadTimeout:   opts.ReadTimeout,
		WriteTimeout:  opts.WriteTimeout,
	})
	if err := ping(rdb); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect cluster %s: %w", opts.Addr(), err)
	}
	return &clusterClient{rdb: rdb}, nil
}

func (c *clusterClient) Set(ctx context.Context, key, value string) error {
	return c.rdb.Set(ctx, key, value, 0).Err()
}

func (c *clusterClient) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (c *clusterClient) Do(ctx context.Context, args ...interface{}) (interface{}, error) {
	return c.rdb.Do(ctx, args...).Result()
}

func (c *clusterClient) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	return c.rdb.Eval(ctx, script, keys, args...).Result()
}

func (c *clusterClient) Close() error {
	return c.rdb.Close()
}

func ping(rdb interface {
	Ping(ctx context.Context) *redis.StatusCmd
}) error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return rdb.Ping(ctx).Err()
}
