package catalog

import (
	"crypto/md5"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrUnknownTemplate indicates the requested template id is not registered.
var ErrUnknownTemplate = errors.New("unknown template")

// Attachment is a generated artefact inlined as a data URI.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Resolved is the outcome of resolving a template for a round and seed:
// brief and checks with placeholders substituted, generated attachments, and
// the numeric fact (if any) the attachments embed.
type Resolved struct {
	Brief       string
	Checks      []string
	Attachments []Attachment
	Result      *float64
}

// Instance is one concrete task ready for dispatch.
type Instance struct {
	Email         string
	TemplateID    string
	Task          string
	Round         int
	Nonce         string
	Seed          string
	Brief         string
	Checks        []string
	Attachments   []Attachment
	EvaluationURL string
	Result        *float64
}

// Catalog holds the immutable task templates and their attachment
// generators. It is loaded once at startup.
type Catalog struct {
	templates  map[string]Template
	generators map[string]GeneratorFunc
	logger     zerolog.Logger
}

// New builds a catalog with the built-in templates and generators.
func New(logger zerolog.Logger) *Catalog {
	return &Catalog{
		templates:  builtinTemplates(),
		generators: builtinGenerators(),
		logger:     logger.With().Str("component", "catalog").Logger(),
	}
}

// TemplateIDs lists registered template identifiers in stable order.
func (c *Catalog) TemplateIDs() []string {
	ids := make([]string, 0, len(c.templates))
	for id := range c.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Resolve materialises a template's content for the given round and seed.
// Round 1 uses the base brief and checks; later rounds select one round-2
// variant with a generator seeded by seed+round, so repeated calls always
// return the same variant and the same attachment content.
func (c *Catalog) Resolve(templateID string, round int, seed string) (Resolved, error) {
	template, ok := c.templates[templateID]
	if !ok {
		return Resolved{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, templateID)
	}

	brief := template.Brief
	checks := template.Checks
	specs := template.Attachments

	if round >= 2 {
		if len(template.Round2) == 0 {
			return Resolved{}, fmt.Errorf("template %s has no round-2 variants", templateID)
		}
		rng := NewRNG(seed + strconv.Itoa(round))
		variant := template.Round2[rng.Intn(len(template.Round2))]
		brief = variant.Brief
		checks = variant.Checks
		specs = variant.Attachments
	}

	attachments := make([]Attachment, 0, len(specs))
	var result *float64

	for _, spec := range specs {
		generate, ok := c.generators[spec.Generator]
		if !ok {
			c.logger.Warn().Str("generator", spec.Generator).Msg("skipping attachment with unknown generator")
			continue
		}

		generated := generate(seed)
		if generated.Result != nil {
			result = generated.Result
		}

		attachments = append(attachments, Attachment{
			Name: spec.Name,
			URL: fmt.Sprintf("data:%s;base64,%s", mimeFor(spec.Name),
				base64.StdEncoding.EncodeToString([]byte(generated.Content))),
		})
	}

	resolved := Resolved{
		Brief:       substitute(brief, seed, result),
		Checks:      make([]string, 0, len(checks)),
		Attachments: attachments,
		Result:      result,
	}
	for _, check := range checks {
		resolved.Checks = append(resolved.Checks, substitute(check, seed, result))
	}

	return resolved, nil
}

// Materialize builds a dispatchable task instance for a participant. An
// empty bucket derives the seed from the current hour; passing a bucket pins
// the seed for reproducible reruns.
func (c *Catalog) Materialize(templateID, email string, round int, evaluationURL, bucket string) (Instance, error) {
	template, ok := c.templates[templateID]
	if !ok {
		return Instance{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, templateID)
	}

	seed := Seed(email, bucket)

	resolved, err := c.Resolve(templateID, round, seed)
	if err != nil {
		return Instance{}, err
	}

	// Task id hashes the base brief so round 1 and round 2 instances of the
	// same template share a prefix-stable identifier.
	briefSum := md5.Sum([]byte(template.Brief))
	taskID := fmt.Sprintf("%s-%x", templateID, briefSum)[:len(templateID)+6]

	return Instance{
		Email:         email,
		TemplateID:    templateID,
		Task:          taskID,
		Round:         round,
		Nonce:         uuid.NewString(),
		Seed:          seed,
		Brief:         resolved.Brief,
		Checks:        resolved.Checks,
		Attachments:   resolved.Attachments,
		EvaluationURL: evaluationURL,
		Result:        resolved.Result,
	}, nil
}

// substitute applies {seed} and {result} placeholder replacement. A missing
// result degrades to the literal "0" instead of failing.
func substitute(text, seed string, result *float64) string {
	resultText := "0"
	if result != nil {
		resultText = strconv.FormatFloat(*result, 'f', -1, 64)
	}

	text = strings.ReplaceAll(text, "{seed}", seed)
	return strings.ReplaceAll(text, "{result}", resultText)
}

func mimeFor(name string) string {
	switch {
	case strings.HasSuffix(name, ".csv"):
		return "text/csv"
	case strings.HasSuffix(name, ".json"):
		return "application/json"
	default:
		return "text/markdown"
	}
}
