// Package redis connects to the Redis server that caches tenant connection
// configuration.
//
// It wraps github.com/redis/go-redis/v9 with a retrying Connect and a
// Healthcheck suitable for readiness probes:
//
//	client, err := redis.Connect(ctx, cfg)
//	if errors.Is(err, redis.ErrEmptyConnectionURL) {
//	    // cache disabled
//	}
//	defer client.Close()
//
//	check := redis.Healthcheck(client)
package redis
