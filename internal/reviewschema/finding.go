package reviewschema

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
)

// Finding is a single reviewer observation. It is frozen once constructed:
// NewFinding is the only way to build one, and there are deliberately no
// setter methods. Compare findings by content with Equal; == and
// reflect.DeepEqual also see the memoized fingerprint cache.
type Finding struct {
	id          string
	severity    Severity
	confidence  int
	category    Category
	file        string
	lineStart   int
	lineEnd     int
	title       string
	description string
	suggestion  string
	ruleID      string // empty means "no governance rule"
	evidence    string
	note        string // <= 280 chars

	fpOnce sync.Once
	fpVal  string
}

// FindingInput is the plain-data shape used to construct and to
// marshal/unmarshal a Finding. It exists because Finding's fields are
// unexported (to keep the record frozen after construction) while the
// wire format and the constructor both need an ordinary struct.
type FindingInput struct {
	ID          string   `json:"id"`
	Severity    Severity `json:"severity"`
	Confidence  int      `json:"confidence"`
	Category    Category `json:"category"`
	File        string   `json:"file"`
	LineStart   int      `json:"line_start"`
	LineEnd     int      `json:"line_end"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Suggestion  string   `json:"suggestion"`
	RuleID      string   `json:"rule_id,omitempty"`
	Evidence    string   `json:"evidence,omitempty"`
	Note        string   `json:"note,omitempty"`
}

const maxNoteLen = 280

// NewFinding validates in and returns a frozen Finding, or a *SchemaError
// describing the first constraint violated.
func NewFinding(in FindingInput) (Finding, error) {
	if strings.TrimSpace(in.ID) == "" {
		return Finding{}, newSchemaError("id", "must not be empty")
	}
	if !in.Severity.valid() {
		return Finding{}, newSchemaError("severity",
			"must be one of CRITICAL, HIGH, MEDIUM, LOW")
	}
	if in.Confidence < 0 || in.Confidence > 100 {
		return Finding{}, newSchemaError("confidence",
			"must be between 0 and 100")
	}
	if !in.Category.valid() {
		return Finding{}, newSchemaError("category",
			"must be one of security, logic, governance, "+
				"reliability, observability")
	}
	if strings.TrimSpace(in.File) == "" {
		return Finding{}, newSchemaError("file", "must not be empty")
	}
	if in.LineStart <= 0 {
		return Finding{}, newSchemaError("line_start",
			"must be a positive line number")
	}
	if in.LineEnd < in.LineStart {
		return Finding{}, newSchemaError("line_end",
			"must be >= line_start")
	}
	if strings.TrimSpace(in.Title) == "" {
		return Finding{}, newSchemaError("title", "must not be empty")
	}
	if len(in.Note) > maxNoteLen {
		return Finding{}, newSchemaError("note",
			"must be at most 280 characters")
	}

	return Finding{
		id:          in.ID,
		severity:    in.Severity,
		confidence:  in.Confidence,
		category:    in.Category,
		file:        in.File,
		lineStart:   in.LineStart,
		lineEnd:     in.LineEnd,
		title:       in.Title,
		description: in.Description,
		suggestion:  in.Suggestion,
		ruleID:      in.RuleID,
		evidence:    in.Evidence,
		note:        in.Note,
	}, nil
}

// Accessors. There are intentionally no corresponding setters: a Finding
// is immutable once NewFinding returns it.

func (f Finding) ID() string          { return f.id }
func (f Finding) Severity() Severity  { return f.severity }
func (f Finding) Confidence() int     { return f.confidence }
func (f Finding) Category() Category  { return f.category }
func (f Finding) File() string        { return f.file }
func (f Finding) LineStart() int      { return f.lineStart }
func (f Finding) LineEnd() int        { return f.lineEnd }
func (f Finding) Title() string       { return f.title }
func (f Finding) Description() string { return f.description }
func (f Finding) Suggestion() string  { return f.suggestion }
func (f Finding) RuleID() string      { return f.ruleID }
func (f Finding) Evidence() string    { return f.evidence }
func (f Finding) Note() string        { return f.note }

// HasRule reports whether a governance rule identifier is attached.
func (f Finding) HasRule() bool { return f.ruleID != "" }

// Fingerprint returns the finding's stable 12-hex-character identity
// digest, computed lazily and memoized on first access. It is a pure
// function of (file, category, title) only; line numbers, severity,
// confidence, description, suggestion, evidence, and note never affect
// it, which is what makes cross-round resolution possible.
func (f *Finding) Fingerprint() string {
	f.fpOnce.Do(func() {
		f.fpVal = ComputeFingerprint(f.file, string(f.category), f.title)
	})
	return f.fpVal
}

// ComputeFingerprint implements the digest formula directly, for callers
// (e.g. the resolver, comparing against persisted prior findings) that
// only have the three identity-forming strings on hand rather than a
// live Finding.
func ComputeFingerprint(file, category, title string) string {
	key := strings.TrimSpace(file) + ":" + category + ":" +
		strings.ToLower(strings.TrimSpace(title))
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:12]
}

// Input returns the plain-data representation of the finding, suitable
// for JSON marshaling or for feeding back into NewFinding.
func (f Finding) Input() FindingInput {
	return FindingInput{
		ID:          f.id,
		Severity:    f.severity,
		Confidence:  f.confidence,
		Category:    f.category,
		File:        f.file,
		LineStart:   f.lineStart,
		LineEnd:     f.lineEnd,
		Title:       f.title,
		Description: f.description,
		Suggestion:  f.suggestion,
		RuleID:      f.ruleID,
		Evidence:    f.evidence,
		Note:        f.note,
	}
}

// MarshalJSON implements json.Marshaler.
func (f Finding) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Input())
}

// UnmarshalJSON implements json.Unmarshaler. It validates the decoded
// input against the schema, returning a *SchemaError on violation.
func (f *Finding) UnmarshalJSON(data []byte) error {
	var in FindingInput
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	built, err := NewFinding(in)
	if err != nil {
		return err
	}

	*f = built
	return nil
}

// Equal reports whether two findings are equal by content, ignoring the
// memoized fingerprint cache.
func (f Finding) Equal(other Finding) bool {
	return f.Input() == other.Input()
}
