package mcptools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/grippy-ci/grippy/internal/codebase"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	regexSearchTimeout = 10 * time.Second
	regexMatchCap      = 50
)

// SemanticSearchArgs are the arguments for the semantic_search tool.
type SemanticSearchArgs struct {
	Query string `json:"query" jsonschema:"Natural-language or code query to search for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"Number of results to return,default=5"`
}

// SemanticSearchResult is the result of the semantic_search tool.
type SemanticSearchResult struct {
	Output string `json:"output"`
}

func (s *Server) handleSemanticSearch(ctx context.Context,
	_ *mcp.CallToolRequest, args SemanticSearchArgs) (*mcp.CallToolResult,
	SemanticSearchResult, error) {

	topK := args.TopK
	if topK <= 0 {
		topK = 5
	}

	out, err := codebase.SemanticSearch(ctx, s.vec, s.embed, args.Query, topK)
	if err != nil {
		return nil, SemanticSearchResult{}, err
	}
	return nil, SemanticSearchResult{Output: out}, nil
}

// RegexSearchArgs are the arguments for the regex_search tool.
type RegexSearchArgs struct {
	Pattern string `json:"pattern" jsonschema:"Regular expression to search for"`
	Context int    `json:"context,omitempty" jsonschema:"Lines of context around each match,default=2"`
}

// RegexSearchResult is the result of the regex_search tool.
type RegexSearchResult struct {
	Output string `json:"output"`
}

// A subprocess timeout is a tool-level error, not a pipeline abort: the
// caller sees a failed tool call, not a fatal error.
func (s *Server) handleRegexSearch(ctx context.Context,
	_ *mcp.CallToolRequest, args RegexSearchArgs) (*mcp.CallToolResult,
	RegexSearchResult, error) {

	lines := args.Context
	if lines <= 0 {
		lines = 2
	}

	ctx, cancel := context.WithTimeout(ctx, regexSearchTimeout)
	defer cancel()

	out, err := runGrep(ctx, s.repoRoot, args.Pattern, lines)
	if err != nil {
		return nil, RegexSearchResult{}, fmt.Errorf("regex search failed: %w", err)
	}

	return nil, RegexSearchResult{
		Output: codebase.Truncate(capMatches(out, regexMatchCap), 12000),
	}, nil
}

func runGrep(ctx context.Context, repoRoot, pattern string, contextLines int) (string, error) {
	grepArgs := []string{"-rn", "-C", strconv.Itoa(contextLines), "-E", pattern, "."}
	rgArgs := []string{"-n", "-C", strconv.Itoa(contextLines), "-e", pattern, "."}

	for _, bin := range []string{"rg", "grep"} {
		args := grepArgs
		if bin == "rg" {
			args = rgArgs
		}
		cmd := exec.CommandContext(ctx, bin, args...)
		cmd.Dir = repoRoot

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		err := cmd.Run()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("search timed out after %s", regexSearchTimeout)
		}
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
				// Exit code 1 means "no matches", not a failure.
				return "", nil
			}
			if errors.Is(err, exec.ErrNotFound) {
				continue
			}
			return "", fmt.Errorf("%s: %w: %s", bin, err, stderr.String())
		}
		return stdout.String(), nil
	}

	return "", fmt.Errorf("neither rg nor grep is available")
}

func capMatches(output string, max int) string {
	lines := strings.Split(output, "\n")
	if len(lines) <= max {
		return output
	}
	return strings.Join(lines[:max], "\n")
}

// ReadFileArgs are the arguments for the read_file tool.
type ReadFileArgs struct {
	Path      string `json:"path" jsonschema:"Repository-relative file path"`
	StartLine int    `json:"start_line,omitempty" jsonschema:"1-based first line to read,default=1"`
	EndLine   int    `json:"end_line,omitempty" jsonschema:"1-based last line to read (inclusive); 0 means end of file"`
}

// ReadFileResult is the result of the read_file tool.
type ReadFileResult struct {
	Output string `json:"output"`
}

func (s *Server) handleReadFile(_ context.Context, _ *mcp.CallToolRequest,
	args ReadFileArgs) (*mcp.CallToolResult, ReadFileResult, error) {

	abs, err := resolveUnderRoot(s.repoRoot, args.Path)
	if err != nil {
		return nil, ReadFileResult{}, err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, ReadFileResult{}, fmt.Errorf("failed to read %s: %w", args.Path, err)
	}

	start := args.StartLine
	if start <= 0 {
		start = 1
	}

	lines := strings.Split(string(data), "\n")
	end := args.EndLine
	if end <= 0 || end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return nil, ReadFileResult{}, fmt.Errorf("start_line %d is past end_line %d", start, end)
	}

	var b strings.Builder
	for i := start; i <= end; i++ {
		fmt.Fprintf(&b, "%d: %s\n", i, lines[i-1])
	}

	return nil, ReadFileResult{
		Output: codebase.Truncate(b.String(), 12000),
	}, nil
}

// ListFilesArgs are the arguments for the list_files tool.
type ListFilesArgs struct {
	Glob string `json:"glob" jsonschema:"Doublestar glob pattern, e.g. internal/**/*.go"`
}

// ListFilesResult is the result of the list_files tool.
type ListFilesResult struct {
	Output string `json:"output"`
}

func (s *Server) handleListFiles(ctx context.Context, _ *mcp.CallToolRequest,
	args ListFilesArgs) (*mcp.CallToolResult, ListFilesResult, error) {

	var matched []string
	err := filepathWalk(s.repoRoot, func(rel string, isDir bool) {
		if !codebase.MatchGlob(args.Glob, rel) {
			return
		}
		if isDir {
			rel += "/"
		}
		matched = append(matched, rel)
	})
	if err != nil {
		return nil, ListFilesResult{}, err
	}

	return nil, ListFilesResult{
		Output: codebase.Truncate(strings.Join(matched, "\n"), 12000),
	}, nil
}

// resolveUnderRoot resolves rel against root and rejects the result
// unless its canonical form is still under root's canonical form, guarding
// against a path-traversal escape out of the repository.
func resolveUnderRoot(root, rel string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve repo root: %w", err)
	}

	candidate, err := filepath.Abs(filepath.Join(absRoot, rel))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("failed to resolve repo root: %w", err)
	}
	realCandidate, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if realCandidate != realRoot && !strings.HasPrefix(realCandidate, realRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes repository root", rel)
	}
	return candidate, nil
}

func filepathWalk(root string, visit func(rel string, isDir bool)) error {
	return walkDir(root, root, visit)
}
