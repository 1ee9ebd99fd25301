// Package contextbuild turns a ResolvedContext into the artifact the
// rest of the application consumes: a prompt-injectable context
// block, an entity map for tool-call parameter substitution, an
// optional clarification prompt, and the network-traversal decision.
// Everything here is a pure transform with no I/O.
package contextbuild

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/scrypster/grounder/pkg/types"
)

// personNameRe is a cheap heuristic for "looks like a person's name":
// a single or double capitalized word. An unresolved mention of this
// shape might be a searchable-but-not-yet-indexed person, which keeps
// the request inside the entity graph.
var personNameRe = regexp.MustCompile(`^[A-Z][a-z]+( [A-Z][a-z]+)?$`)

// generalKnowledgeRes match inputs answerable from general world
// knowledge: unit conversion, definitions, historical facts, how-to
// phrasing, arithmetic, weather, and timezone queries. Read-only
// process-wide constants.
var generalKnowledgeRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bhow many\b.*\b(in|per)\b`),
	regexp.MustCompile(`(?i)\bconvert\b.*\bto\b`),
	regexp.MustCompile(`(?i)\bwhat('s| is) (a|an|the)\b`),
	regexp.MustCompile(`(?i)\bwhen (was|were|did)\b.*\b(born|founded|invented|created|established|discovered)\b`),
	regexp.MustCompile(`(?i)\bwho (invented|discovered|founded|created|wrote)\b`),
	regexp.MustCompile(`(?i)\bhow (do|does|can|to)\b`),
	regexp.MustCompile(`(?i)\bwhat('s| is) [\d(]`),
	regexp.MustCompile(`^[\d\s+\-*/().%^=]+\??$`),
	regexp.MustCompile(`(?i)\bweather\b`),
	regexp.MustCompile(`(?i)\b(timezone|time zone|what time is it)\b`),
}

// Build produces the InjectedContext for a resolution result.
func Build(rc *types.ResolvedContext) *types.InjectedContext {
	out := &types.InjectedContext{
		SystemContext:      buildSystemContext(rc),
		EntityMap:          buildEntityMap(rc),
		CanTraverseNetwork: canTraverseNetwork(rc),
	}

	if len(rc.AmbiguousEntities) > 0 {
		out.ClarificationNeeded = true
		out.ClarificationPrompt = buildClarificationPrompt(rc.AmbiguousEntities[0])
	}

	return out
}

// buildSystemContext emits the prose block for prompt injection: a
// "Resolved Entities" section when anything was grounded, and an
// "Unresolved Mentions" section when anything was not. Both sections
// are optional and independent.
func buildSystemContext(rc *types.ResolvedContext) string {
	var b strings.Builder

	if len(rc.GroundedEntities) > 0 {
		b.WriteString("Resolved Entities:\n")
		for _, e := range rc.GroundedEntities {
			fmt.Fprintf(&b, "- %s (%s) — id: %s, slug: %s\n", e.Name, e.Type, e.EntityID, e.Slug)
		}
		b.WriteString("Use the entity id or slug above, not the raw mention text, when invoking tools.\n")
	}

	if len(rc.UnresolvedMentions) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Unresolved Mentions:\n")
		for _, m := range rc.UnresolvedMentions {
			fmt.Fprintf(&b, "- %q\n", m)
		}
		b.WriteString("These could not be matched to known entities; you may need to ask for clarification or search explicitly.\n")
	}

	return b.String()
}

// buildEntityMap registers every mention key whose resolution selected
// a grounded entity, so multiple surface forms of the same entity all
// land on one record.
func buildEntityMap(rc *types.ResolvedContext) map[string]types.EntityRef {
	out := make(map[string]types.EntityRef)

	for _, e := range rc.GroundedEntities {
		for key, resolution := range rc.Resolutions {
			if resolution.SelectedEntity == nil || resolution.SelectedEntity.EntityID != e.EntityID {
				continue
			}
			out[key] = types.EntityRef{
				ID:   e.EntityID,
				Slug: e.Slug,
				Name: e.Name,
				Type: e.Type,
			}
		}
	}

	return out
}

// buildClarificationPrompt synthesizes a numbered-list question for
// the first ambiguous mention. Callers needing to settle several
// ambiguities re-invoke after the first answer.
func buildClarificationPrompt(am types.AmbiguousMention) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Multiple entities match %q:\n", am.Mention)
	for i, c := range am.Candidates {
		fmt.Fprintf(&b, "%d. %s (%s, %s)\n", i+1, c.Name, c.Type, c.Slug)
	}
	b.WriteString("Which one did you mean?")
	return b.String()
}

// canTraverseNetwork decides whether the request may be answered from
// general knowledge rather than the entity graph. Grounded entities
// pin the request to the graph; so does any unresolved mention that
// looks like a person's name. Otherwise only recognizably
// general-knowledge phrasings qualify — by default an unmatched input
// is assumed to be an unindexed-entity problem.
func canTraverseNetwork(rc *types.ResolvedContext) bool {
	if len(rc.GroundedEntities) > 0 {
		return false
	}

	for _, m := range rc.UnresolvedMentions {
		if personNameRe.MatchString(m) {
			return false
		}
	}

	for _, re := range generalKnowledgeRes {
		if re.MatchString(rc.OriginalText) {
			return true
		}
	}

	return false
}

// SubstituteParams replaces string parameter values that case-fold to
// a known mention key with the entity field implied by the parameter
// name: keys containing "id" get the entity id, "slug" the slug,
// "name" the display name, anything else the slug. Nested maps are
// recursed into; arrays and non-string leaves pass through unchanged.
func SubstituteParams(params map[string]interface{}, entityMap map[string]types.EntityRef) map[string]interface{} {
	if params == nil {
		return nil
	}

	out := make(map[string]interface{}, len(params))
	for key, value := range params {
		switch v := value.(type) {
		case string:
			if ref, ok := entityMap[strings.ToLower(strings.TrimSpace(v))]; ok {
				out[key] = fieldForKey(key, ref)
			} else {
				out[key] = v
			}
		case map[string]interface{}:
			out[key] = SubstituteParams(v, entityMap)
		default:
			out[key] = v
		}
	}
	return out
}

// fieldForKey picks the entity field a parameter name asks for.
func fieldForKey(key string, ref types.EntityRef) string {
	lower := strings.ToLower(key)
	switch {
	case strings.Contains(lower, "id"):
		return ref.ID
	case strings.Contains(lower, "slug"):
		return ref.Slug
	case strings.Contains(lower, "name"):
		return ref.Name
	default:
		return ref.Slug
	}
}
