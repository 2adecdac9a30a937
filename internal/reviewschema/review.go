package reviewschema

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ScoreBreakdown is the five-axis 0-100 score breakdown.
type ScoreBreakdown struct {
	Security      int `json:"security"`
	Logic         int `json:"logic"`
	Governance    int `json:"governance"`
	Reliability   int `json:"reliability"`
	Observability int `json:"observability"`
}

// DeductionCounts tallies how many deductions were applied per severity.
type DeductionCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Score is the review's overall numeric assessment.
type Score struct {
	Overall     int             `json:"overall"`
	Breakdown   ScoreBreakdown  `json:"breakdown"`
	Deductions  DeductionCounts `json:"deductions"`
}

func (s Score) validate() error {
	if s.Overall < 0 || s.Overall > 100 {
		return newSchemaError("score.overall", "must be between 0 and 100")
	}
	axes := map[string]int{
		"score.breakdown.security":      s.Breakdown.Security,
		"score.breakdown.logic":         s.Breakdown.Logic,
		"score.breakdown.governance":    s.Breakdown.Governance,
		"score.breakdown.reliability":   s.Breakdown.Reliability,
		"score.breakdown.observability": s.Breakdown.Observability,
	}
	for field, v := range axes {
		if v < 0 || v > 100 {
			return newSchemaError(field, "must be between 0 and 100")
		}
	}
	return nil
}

// Verdict is the review's final pass/fail call.
type Verdict struct {
	Status        VerdictStatus `json:"status"`
	Threshold     int           `json:"threshold"`
	MergeBlocking bool          `json:"merge_blocking"`
	Summary       string        `json:"summary"`
}

func (v Verdict) validate() error {
	if !v.Status.valid() {
		return newSchemaError("verdict.status",
			"must be one of PASS, FAIL, PROVISIONAL")
	}
	return nil
}

// Scope describes what the review covered.
type Scope struct {
	FilesInDiff      []string `json:"files_in_diff"`
	FilesReviewed    []string `json:"files_reviewed"`
	CoverageFraction float64  `json:"coverage_fraction"`
	GovernanceRules  []string `json:"governance_rules,omitempty"`
	ActiveModes      []string `json:"active_modes,omitempty"`
}

// PRMeta is the subset of pull-request metadata the review carries.
type PRMeta struct {
	Title          string         `json:"title"`
	Author         string         `json:"author"`
	Branch         string         `json:"branch"`
	ComplexityTier ComplexityTier `json:"complexity_tier"`
}

func (p PRMeta) validate() error {
	if !p.ComplexityTier.valid() {
		return newSchemaError("pr.complexity_tier",
			"must be one of TRIVIAL, STANDARD, COMPLEX, CRITICAL")
	}
	return nil
}

// Personality carries the opaque tone/register fields passed through
// verbatim by the core; it never inspects or validates their content
// beyond being strings.
type Personality struct {
	ToneRegister string `json:"tone_register,omitempty"`
	OpeningLine  string `json:"opening_line,omitempty"`
	ClosingLine  string `json:"closing_line,omitempty"`
}

// RunMeta carries operational metadata about the run that produced the
// review.
type RunMeta struct {
	DurationSeconds  float64 `json:"duration_seconds"`
	TokensUsed       int     `json:"tokens_used"`
	SuppressedCount  int     `json:"suppressed_count"`
}

// Escalation is a flagged condition that did not rise to the level of a
// Finding but is still surfaced in the review.
type Escalation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ReviewInput is the plain-data shape used to construct and to
// marshal/unmarshal a Review, mirroring FindingInput's role for Finding.
type ReviewInput struct {
	SchemaVersion string       `json:"schema_version"`
	AuditKind     AuditKind    `json:"audit_kind"`
	Timestamp     string       `json:"timestamp"`
	Model         string       `json:"model"`
	PR            PRMeta       `json:"pr"`
	Scope         Scope        `json:"scope"`
	Findings      []Finding    `json:"findings"`
	Escalations   []Escalation `json:"escalations,omitempty"`
	Score         Score        `json:"score"`
	Verdict       Verdict      `json:"verdict"`
	Personality   Personality  `json:"personality,omitempty"`
	RunMeta       RunMeta      `json:"run_meta"`
}

// Review is the frozen, schema-validated output of a single pipeline
// invocation. Construct with NewReview; there are no setters, and
// UnmarshalJSON routes through the same validation as NewReview.
type Review struct {
	in ReviewInput
}

// NewReview validates in and returns a frozen Review, or a *SchemaError
// describing the first constraint violated.
func NewReview(in ReviewInput) (Review, error) {
	if strings.TrimSpace(in.SchemaVersion) == "" {
		return Review{}, newSchemaError("schema_version", "must not be empty")
	}
	if !in.AuditKind.valid() {
		return Review{}, newSchemaError("audit_kind",
			"must be one of pr_review, security_audit, "+
				"governance_check, surprise_audit")
	}
	if strings.TrimSpace(in.Timestamp) == "" {
		return Review{}, newSchemaError("timestamp", "must not be empty")
	}
	if err := in.PR.validate(); err != nil {
		return Review{}, err
	}
	if err := in.Score.validate(); err != nil {
		return Review{}, err
	}
	if err := in.Verdict.validate(); err != nil {
		return Review{}, err
	}
	for i, f := range in.Findings {
		if f.Confidence() < 0 || f.Confidence() > 100 {
			return Review{}, newSchemaError(
				"findings["+strconv.Itoa(i)+"].confidence",
				"must be between 0 and 100")
		}
	}

	return Review{in: in}, nil
}

// Accessors. No setters: a Review is immutable once NewReview returns it.

func (r Review) SchemaVersion() string    { return r.in.SchemaVersion }
func (r Review) AuditKind() AuditKind     { return r.in.AuditKind }
func (r Review) Timestamp() string        { return r.in.Timestamp }
func (r Review) Model() string            { return r.in.Model }
func (r Review) PR() PRMeta               { return r.in.PR }
func (r Review) Scope() Scope             { return r.in.Scope }
func (r Review) Findings() []Finding      { return r.in.Findings }
func (r Review) Escalations() []Escalation { return r.in.Escalations }
func (r Review) Score() Score             { return r.in.Score }
func (r Review) Verdict() Verdict         { return r.in.Verdict }
func (r Review) Personality() Personality { return r.in.Personality }
func (r Review) RunMeta() RunMeta         { return r.in.RunMeta }

// Input returns the plain-data representation of the review, suitable
// for JSON marshaling or for feeding back into NewReview.
func (r Review) Input() ReviewInput { return r.in }

// WithModel returns a copy of the review with Model overwritten. This is
// the orchestrator's "model override" stage (§4.9 step 8): the LLM
// frequently self-reports an incorrect model identifier, so the
// orchestrator replaces it with the configured one after validation.
func (r Review) WithModel(model string) Review {
	next := r.in
	next.Model = model
	return Review{in: next}
}

// MarshalJSON implements json.Marshaler.
func (r Review) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.in)
}

// UnmarshalJSON implements json.Unmarshaler, validating the decoded input
// against the schema.
func (r *Review) UnmarshalJSON(data []byte) error {
	var in ReviewInput
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	built, err := NewReview(in)
	if err != nil {
		return err
	}

	*r = built
	return nil
}
