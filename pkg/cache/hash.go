package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash fingerprints raw content as a hex SHA-256 string. It is the shared
// content address for paper text, markup sources, and stored records: two
// byte-identical papers map to the same analysis entry no matter where they
// came from.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// keyFor builds a namespaced cache key of the form
// "<namespace>:<sha256 of qualifiers>". Qualifiers are JSON-serialized so a
// key opts struct qualifies the key without manual string assembly, and the
// full digest keeps inspections of different pages from colliding.
func keyFor(namespace string, qualifiers ...any) string {
	data, _ := json.Marshal(qualifiers)
	sum := sha256.Sum256(data)
	return namespace + ":" + hex.EncodeToString(sum[:])
}
