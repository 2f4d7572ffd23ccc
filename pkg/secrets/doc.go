// Package secrets encrypts and decrypts tenant database credentials.
//
// Passwords are sealed with AES-256-GCM under a key derived with HKDF-SHA256
// from the application key and a per-tenant key. A password encrypted for
// one tenant cannot be decrypted under another tenant's id, so copying a
// ciphertext between tenant records is detected.
//
// # Usage
//
//	appKey, err := secrets.ParseKey(os.Getenv("TENANT_SECRETS_KEY"))
//	if err != nil {
//	    return err
//	}
//	cipher, err := secrets.NewCipher(appKey)
//	if err != nil {
//	    return err
//	}
//
//	sealed, err := cipher.EncryptString("acme", "db-password")
//	plain, err := cipher.DecryptString("acme", sealed)
//
// Ciphertexts are base64 encoded and carry the GCM nonce as a prefix.
package secrets
