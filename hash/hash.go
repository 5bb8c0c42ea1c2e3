package hash

// Hasher is an interface for hashing byte slices, objects, or strings.
// SHA256 is used for the request payload commitment while MD5 provides
// the attachment content identity. Neither use carries a security
// requirement beyond collision resistance for identity.
type Hasher interface {

	// Bytes returns the hex hash of the given bytes
	Bytes(b []byte) string

	// Object returns the hex hash of the JSON form of a given object
	Object(obj interface{}) (string, error)

	// String returns the hex hash of a given string
	String(s string) string
}
