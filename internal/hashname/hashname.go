// Package hashname substitutes content hashes into output filename patterns
// and prunes stale hashed siblings left behind by earlier runs.
package hashname

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Token is the placeholder replaced by the content hash in output filenames.
const Token = "[hash]"

// hashWidth is the number of hex characters embedded in filenames. Fixed so
// stale-sibling matching can be scoped to exactly one pattern.
const hashWidth = 12

// Hash returns the deterministic lower-case hex content digest used for
// filename substitution and change detection.
func Hash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:hashWidth]
}

// HasToken reports whether an output path requests content hashing.
// The token is only honored in the filename, never in the directory.
func HasToken(outputPath string) bool {
	return strings.Contains(filepath.Base(outputPath), Token)
}

// Resolve substitutes the content hash into the template's filename. When the
// template carries no token it is returned unchanged.
func Resolve(template string, content []byte) string {
	if !HasToken(template) {
		return template
	}
	dir, name := filepath.Split(template)
	return dir + strings.Replace(name, Token, Hash(content), 1)
}

// siblingPattern compiles a matcher for any hash value substituted into the
// template's filename.
func siblingPattern(name string) (*regexp.Regexp, error) {
	idx := strings.Index(name, Token)
	if idx < 0 {
		return nil, nil
	}
	prefix := regexp.QuoteMeta(name[:idx])
	suffix := regexp.QuoteMeta(name[idx+len(Token):])
	return regexp.Compile(fmt.Sprintf("^%s[0-9a-f]{%d}%s$", prefix, hashWidth, suffix))
}

// PruneStale removes files in the template's directory whose names match the
// template with any other hash substituted, keeping keptPath. It returns the
// removed paths. With dryRun set, candidates are reported but left in place.
// Pruning is idempotent and a no-op for templates without a token.
func PruneStale(template, keptPath string, dryRun bool) ([]string, error) {
	dir, name := filepath.Split(template)
	if dir == "" {
		dir = "."
	}
	pattern, err := siblingPattern(name)
	if pattern == nil || err != nil {
		return nil, err
	}

	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return nil, nil
		}
		return nil, readErr
	}

	keptName := filepath.Base(keptPath)
	var removed []string
	for _, e := range entries {
		if e.IsDir() || e.Name() == keptName || !pattern.MatchString(e.Name()) {
			continue
		}
		stale := filepath.Join(dir, e.Name())
		if !dryRun {
			if err := os.Remove(stale); err != nil {
				return removed, err
			}
		}
		removed = append(removed, stale)
	}
	return removed, nil
}
