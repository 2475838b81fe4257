package gosnip

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"path/filepath"
	"strconv"
)

// IdentityHash computes the SHA-256 of the cleaned source location. Two
// snippets resolving to the same file share an identity.
func IdentityHash(path, file string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(filepath.Join(path, file))))
	return hex.EncodeToString(sum[:])
}

// SourceVersion derives a version string from the source file's
// modification time and size. An edit that keeps the size and lands within
// the same mtime tick (coarse timestamps, tools that restore mtime) leaves
// it unchanged; use ContentVersion when that matters.
func SourceVersion(info fs.FileInfo) string {
	return strconv.FormatInt(info.ModTime().UnixNano(), 10) + "." + strconv.FormatInt(info.Size(), 10)
}

// CacheKey generates a cache key from an identity hash and source version.
func CacheKey(identity, version string) string {
	return identity + ":" + version
}

// ContentVersion extends SourceVersion with a digest of the source bytes, so
// any change to the content changes the version.
func ContentVersion(info fs.FileInfo, content []byte) string {
	sum := sha256.Sum256(content)
	return SourceVersion(info) + "." + hex.EncodeToString(sum[:8])
}
