// Package tenantsource provides tenantdb.Source implementations that read
// tenant connection parameters from the tenant registry.
//
//   • Postgres reads the tenants table of the master database.
//   • File reads a YAML file, for development and bootstrap.
//   • Static serves a fixed map, for tests.
//   • Cached puts a Redis read-through cache in front of another source.
//   • Decrypting decrypts the stored password with pkg/secrets.
//
// Passwords are stored encrypted, so the cache must sit below the decryptor:
//
//	pg, err := tenantsource.NewPostgres(master)
//	if err != nil {
//	    return err
//	}
//	src := tenantsource.NewDecrypting(tenantsource.NewCached(pg, redisClient), cipher)
//
// Build assembles that chain from Config.
package tenantsource
