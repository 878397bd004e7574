package badger

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/corpus/core"
)

// Key prefixes for different data types
const (
	jobRecordPrefix   = "ingjob"
	jobDocumentPrefix = "ingjobdoc"
	jobPathPrefix     = "ingjobpath"
	jobRepoPrefix     = "ingjobrepo"
	jobDeletingPrefix = "ingjobdel"
	docRecordPrefix   = "docrec"
	docRepoPrefix     = "docrepo"
)

// escapeSegment makes a caller-supplied value safe inside a composite key.
// Paths and repository identifiers may legally contain the segment
// delimiter; without escaping, a prefix scan for "a" would also match keys
// written for "a:b".
func escapeSegment(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, ":", `\:`)
}

// makeJobKey generates a key for a job record by ID.
func makeJobKey(id core.JobID) []byte {
	return []byte(fmt.Sprintf("%s:%s", jobRecordPrefix, id))
}

// makeJobDocumentKey generates the key tracking the single non-terminal job
// for a document. Format: prefix:documentID
func makeJobDocumentKey(id core.DocumentID) []byte {
	prefix := jobDocumentPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeJobPathKey generates a composite key for the path audit index.
// Format: prefix:escaped-path:jobID
func makeJobPathKey(sourcePath string, id core.JobID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", jobPathPrefix, escapeSegment(sourcePath), id))
}

// makePartialJobPathKey generates a partial key for path audit queries.
func makePartialJobPathKey(sourcePath string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", jobPathPrefix, escapeSegment(sourcePath)))
}

// makeJobRepoKey generates a composite key for the repository listing index.
// Format: prefix:escaped-repositoryID:timestamp+jobID
// The timestamp is written in BigEndian so lexicographic sort yields
// creation order.
func makeJobRepoKey(repositoryID string, createdAt time.Time, id core.JobID) []byte {
	prefix := fmt.Sprintf("%s:%s:", jobRepoPrefix, escapeSegment(repositoryID))
	buf := make([]byte, len(prefix)+8+len(id))
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	copy(buf[offset:], []byte(id))
	return buf
}

// makePartialJobRepoKey generates the scan prefix for a repository's jobs.
func makePartialJobRepoKey(repositoryID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", jobRepoPrefix, escapeSegment(repositoryID)))
}

// makeJobDeletingKey generates the key marking a job as actively deleting.
// Format: prefix:escaped-repositoryID:jobID
func makeJobDeletingKey(repositoryID string, id core.JobID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", jobDeletingPrefix, escapeSegment(repositoryID), id))
}

// makePartialJobDeletingKey generates the scan prefix for a repository's
// actively deleting jobs.
func makePartialJobDeletingKey(repositoryID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", jobDeletingPrefix, escapeSegment(repositoryID)))
}

// makeDocumentKey generates a key for a document record by ID.
func makeDocumentKey(id core.DocumentID) []byte {
	prefix := docRecordPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeDocumentRepoKey generates a composite key for the per-repository
// document listing index. Format: prefix:escaped-repositoryID:escaped-path
func makeDocumentRepoKey(repositoryID, sourcePath string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", docRepoPrefix, escapeSegment(repositoryID), escapeSegment(sourcePath)))
}

// makePartialDocumentRepoKey generates the scan prefix for a repository's
// documents.
func makePartialDocumentRepoKey(repositoryID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", docRepoPrefix, escapeSegment(repositoryID)))
}
