// Package structurer turns a free-text persona critique into a structured
// analysis record. Every extraction is best effort: unmatched sections
// degrade to defaults or empty lists and Structure never fails.
package structurer

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultScore is reported when no SCORE line can be parsed.
const DefaultScore = 0.5

const (
	defaultAccessConsideration   = "Detailed access analysis not provided"
	defaultLiteracyConsideration = "Detailed literacy analysis not provided"
	defaultRiskConsideration     = "Risk analysis not provided"
	defaultControlConsideration  = "Control analysis not provided"
)

// Fixed perspectives the persona holds for each expectation dimension.
const (
	PerspectiveTechnologyAccess  = "Expects latest devices and reliable high-speed internet"
	PerspectiveTechnicalLiteracy = "Comfortable with complex technical documentation"
	PerspectiveRiskComfort       = "Highly comfortable exploring new features"
	PerspectiveControl           = "Expects full control over technology"
)

// Facet keys, in report order.
const (
	FacetTechnologyAccess = "technology_access"
	FacetCommunication    = "communication"
	FacetRiskAssessment   = "risk_assessment"
	FacetPrivacySecurity  = "privacy_security"
	FacetControlAuthority = "control_authority"
	FacetEducationCulture = "education_culture"
)

type facetSection struct {
	key   string
	title string
}

var facetSections = []facetSection{
	{key: FacetTechnologyAccess, title: "Technology Access & Reliability"},
	{key: FacetCommunication, title: "Technical Language & Complexity"},
	{key: FacetRiskAssessment, title: "Risk & Exploration Requirements"},
	{key: FacetPrivacySecurity, title: "Privacy & Security"},
	{key: FacetControlAuthority, title: "Control & Authority Assumptions"},
	{key: FacetEducationCulture, title: "Educational & Cultural Prerequisites"},
}

// FacetKeys returns the six facet keys in report order.
func FacetKeys() []string {
	keys := make([]string, 0, len(facetSections))
	for _, f := range facetSections {
		keys = append(keys, f.key)
	}
	return keys
}

var (
	scoreRe         = regexp.MustCompile(`SCORE:\s*(\d*\.?\d+)`)
	justificationRe = regexp.MustCompile(`JUSTIFICATION:\s*([^\n]+)`)
	accessRe        = regexp.MustCompile(`ACCESS CONSIDERATIONS:\s*([^\n]+)`)
	literacyRe      = regexp.MustCompile(`LITERACY REQUIREMENTS:\s*([^\n]+)`)

	concernsRe  = regexp.MustCompile(`(?s)MAJOR CONCERNS:?(.*?)(?:\n\n|POSITIVE ASPECTS|\z)`)
	positivesRe = regexp.MustCompile(`(?s)POSITIVE ASPECTS:?(.*?)(?:\n\n|\z)`)
	riskRe      = regexp.MustCompile(`(?s)Risk & Exploration Requirements(.*?)(?:\n\n|\z)`)
	controlRe   = regexp.MustCompile(`(?s)Control & Authority Assumptions(.*?)(?:\n\n|\z)`)

	recommendationRes = []*regexp.Regexp{
		regexp.MustCompile(`(?is)(?:Fee's )?recommendations?:?(.*?)(?:\n\n|\z)`),
		regexp.MustCompile(`(?is)(?:Fee )?suggests?:?(.*?)(?:\n\n|\z)`),
		regexp.MustCompile(`(?is)(?:Fee )?would recommend:?(.*?)(?:\n\n|\z)`),
	}

	// listItemRe matches a bulleted or numbered line.
	listItemRe = regexp.MustCompile(`(?:^|\n)\s*(?:[-•*]|\d+\.)\s*([^\n]+)`)
	// inlineBulletRe matches a bullet glyph anywhere and takes the rest of the line.
	inlineBulletRe = regexp.MustCompile(`[-•*]\s*([^\n]+)`)
	facetEndRe     = regexp.MustCompile(`\n\n[a-zA-Z]`)

	assumptionItemRe     = labeledItemRe("assumptions")
	issueItemRe          = labeledItemRe("issues|problems|barriers")
	recommendationItemRe = labeledItemRe("recommendations|suggestions")
)

func labeledItemRe(labels string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|\n)\s*(?:[-•*]|\d+\.)\s*(?:(?:` + labels + `):?\s*)?([^\n]+)`)
}

// Result is the structured analysis record.
type Result struct {
	OverallAssessment  OverallAssessment  `json:"overall_assessment"`
	PersonaPerspective PersonaPerspective `json:"persona_perspective"`
	FacetAnalysis      map[string]Facet   `json:"facet_analysis"`
	RawAnalysis        string             `json:"raw_analysis"`
}

type OverallAssessment struct {
	InclusivityScore   float64  `json:"inclusivity_score"`
	ScoreJustification *string  `json:"score_justification"`
	MajorConcerns      []string `json:"major_concerns"`
	PositiveAspects    []string `json:"positive_aspects"`
}

type PersonaPerspective struct {
	Expectations    Expectations `json:"expectations"`
	Recommendations []string     `json:"recommendations"`
}

type Expectations struct {
	TechnologyAccess  Expectation `json:"technology_access"`
	TechnicalLiteracy Expectation `json:"technical_literacy"`
	RiskComfort       Expectation `json:"risk_comfort"`
	Control           Expectation `json:"control"`
}

type Expectation struct {
	Perspective   string `json:"perspective"`
	Consideration string `json:"consideration"`
}

type Facet struct {
	Assumptions     []string `json:"assumptions"`
	PotentialIssues []string `json:"potential_issues"`
	Recommendations []string `json:"recommendations"`
}

// Structure builds the full record from one raw completion.
func Structure(raw string) Result {
	return Result{
		OverallAssessment: OverallAssessment{
			InclusivityScore:   Score(raw),
			ScoreJustification: Justification(raw),
			MajorConcerns:      MajorConcerns(raw),
			PositiveAspects:    PositiveAspects(raw),
		},
		PersonaPerspective: PersonaPerspective{
			Expectations: Expectations{
				TechnologyAccess: Expectation{
					Perspective:   PerspectiveTechnologyAccess,
					Consideration: orDefault(AccessConsiderations(raw), defaultAccessConsideration),
				},
				TechnicalLiteracy: Expectation{
					Perspective:   PerspectiveTechnicalLiteracy,
					Consideration: orDefault(LiteracyRequirements(raw), defaultLiteracyConsideration),
				},
				RiskComfort: Expectation{
					Perspective:   PerspectiveRiskComfort,
					Consideration: RiskConsiderations(raw),
				},
				Control: Expectation{
					Perspective:   PerspectiveControl,
					Consideration: ControlConsiderations(raw),
				},
			},
			Recommendations: Recommendations(raw),
		},
		FacetAnalysis: Facets(raw),
		RawAnalysis:   raw,
	}
}

// Score returns the first SCORE value, or DefaultScore. The value is not clamped.
func Score(text string) float64 {
	m := scoreRe.FindStringSubmatch(text)
	if m == nil {
		return DefaultScore
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return DefaultScore
	}
	return v
}

func Justification(text string) *string { return firstLine(justificationRe, text) }

func AccessConsiderations(text string) *string { return firstLine(accessRe, text) }

func LiteracyRequirements(text string) *string { return firstLine(literacyRe, text) }

func MajorConcerns(text string) []string { return sectionItems(concernsRe, text) }

func PositiveAspects(text string) []string { return sectionItems(positivesRe, text) }

func RiskConsiderations(text string) string {
	return joinedBullets(riskRe, text, defaultRiskConsideration)
}

func ControlConsiderations(text string) string {
	return joinedBullets(controlRe, text, defaultControlConsideration)
}

// Recommendations concatenates the items of every recommendation-style
// section, in pattern order. Duplicates are kept.
func Recommendations(text string) []string {
	out := []string{}
	for _, re := range recommendationRes {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		out = append(out, items(listItemRe, m[1])...)
	}
	return out
}

// Facets returns all six facets; a facet whose title is absent has empty lists.
func Facets(text string) map[string]Facet {
	out := make(map[string]Facet, len(facetSections))
	for _, f := range facetSections {
		span, ok := facetSpan(text, f.title)
		if !ok {
			out[f.key] = emptyFacet()
			continue
		}
		out[f.key] = Facet{
			Assumptions:     items(assumptionItemRe, span),
			PotentialIssues: items(issueItemRe, span),
			Recommendations: items(recommendationItemRe, span),
		}
	}
	return out
}

// facetSpan returns the text after title up to the first blank line that is
// followed by a letter, or the end of text.
func facetSpan(text, title string) (string, bool) {
	idx := strings.Index(text, title)
	if idx < 0 {
		return "", false
	}
	span := text[idx+len(title):]
	if loc := facetEndRe.FindStringIndex(span); loc != nil {
		span = span[:loc[0]]
	}
	return span, true
}

func emptyFacet() Facet {
	return Facet{
		Assumptions:     []string{},
		PotentialIssues: []string{},
		Recommendations: []string{},
	}
}

func firstLine(re *regexp.Regexp, text string) *string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v := strings.TrimSpace(m[1])
	return &v
}

func sectionItems(section *regexp.Regexp, text string) []string {
	m := section.FindStringSubmatch(text)
	if m == nil {
		return []string{}
	}
	return items(listItemRe, m[1])
}

func joinedBullets(section *regexp.Regexp, text, fallback string) string {
	m := section.FindStringSubmatch(text)
	if m == nil {
		return fallback
	}
	found := items(inlineBulletRe, m[1])
	if len(found) == 0 {
		return fallback
	}
	return strings.Join(found, "; ")
}

func items(re *regexp.Regexp, text string) []string {
	out := []string{}
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if item := strings.TrimSpace(m[1]); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func orDefault(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}
