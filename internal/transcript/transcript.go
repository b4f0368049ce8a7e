// Package transcript locates and reads Claude Code session transcripts.
//
// Transcripts are JSONL message logs written by the host, one file per
// session, under a per-project directory derived from the working directory
// path. The enforcer only needs the readable text of a transcript for marker
// search, so parsing is best-effort: malformed lines are kept as raw text
// rather than dropped.
package transcript

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// maxScanTokenSize bounds a single transcript line (large tool results).
const maxScanTokenSize = 10 * 1024 * 1024 // 10MB

// Locator enumerates candidate transcript files for a session.
type Locator struct {
	homeDir    string
	extraRoots []string
}

// NewLocator creates a locator. homeDir may be empty to use the current
// user's home directory. extraRoots are checked after the built-in Claude
// Code locations.
func NewLocator(homeDir string, extraRoots []string) *Locator {
	if homeDir == "" {
		homeDir, _ = os.UserHomeDir()
	}
	return &Locator{homeDir: homeDir, extraRoots: extraRoots}
}

// Candidates returns the ordered candidate transcript paths for sessionID
// scoped to workDir. Paths are returned whether or not they exist; callers
// decide how to treat missing files. When explicitPath is non-empty (the host
// passed a transcript path in the hook payload) it sorts first.
func (l *Locator) Candidates(sessionID, workDir, explicitPath string) []string {
	var paths []string
	if explicitPath != "" {
		paths = append(paths, explicitPath)
	}
	if sessionID == "" {
		return paths
	}

	file := sessionID + ".jsonl"
	project := ProjectDirName(workDir)

	roots := []string{
		filepath.Join(l.homeDir, ".claude", "projects"),
		filepath.Join(l.homeDir, ".config", "claude", "projects"),
	}
	roots = append(roots, l.extraRoots...)

	for _, root := range roots {
		if project != "" {
			paths = append(paths, filepath.Join(root, project, file))
		}
		paths = append(paths, filepath.Join(root, file))
	}
	return paths
}

// ProjectDirName converts a working directory path to the per-project
// transcript directory name used by Claude Code: every path separator and
// dot becomes a dash.
func ProjectDirName(workDir string) string {
	if workDir == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range filepath.ToSlash(workDir) {
		if r == '/' || r == '.' {
			b.WriteRune('-')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// jsonlLine is the subset of a transcript line the enforcer cares about.
type jsonlLine struct {
	Type    string          `json:"type"`
	Message json.RawMessage `json:"message,omitempty"`
}

// message is the nested message structure.
type message struct {
	Role    string         `json:"role"`
	Content json.RawMessage `json:"content"`
}

// contentBlock is a single content block in a structured message.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ReadText returns the readable text of a transcript file.
//
// JSONL files are decoded line by line and the text of user/assistant
// messages is extracted; lines that fail to decode contribute their raw text
// so a marker is never lost to a format quirk. Non-JSONL files are returned
// verbatim.
func ReadText(path string) (string, error) {
	if filepath.Ext(path) != ".jsonl" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var b strings.Builder
	scanner := bufio.NewScanner(f)
	buf := make([]byte, maxScanTokenSize)
	scanner.Buffer(buf, maxScanTokenSize)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		var jl jsonlLine
		if err := json.Unmarshal([]byte(line), &jl); err != nil {
			b.WriteString(line)
			b.WriteByte('\n')
			continue
		}
		if jl.Type != "user" && jl.Type != "assistant" {
			continue
		}

		text := extractText(jl.Message)
		if text == "" {
			// Keep the raw line; markers inside unrecognized shapes still
			// count for substring search.
			b.WriteString(line)
			b.WriteByte('\n')
			continue
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	return b.String(), nil
}

// extractText pulls text content out of a message payload. Handles both the
// plain-string form and the content-block-array form.
func extractText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var m message
	if err := json.Unmarshal(raw, &m); err != nil {
		return ""
	}

	// Content may be a bare string or a block array.
	var s string
	if err := json.Unmarshal(m.Content, &s); err == nil {
		return s
	}

	var blocks []contentBlock
	if err := json.Unmarshal(m.Content, &blocks); err != nil {
		return ""
	}
	var parts []string
	for _, block := range blocks {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}
