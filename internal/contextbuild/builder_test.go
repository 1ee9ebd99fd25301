package contextbuild

import (
	"strings"
	"testing"

	"github.com/scrypster/grounder/pkg/types"
)

func groundedContext() *types.ResolvedContext {
	scott := types.ResolvedEntity{
		EntityID:    "e-123",
		Slug:        "scott-leese",
		Name:        "Scott Leese",
		Type:        types.EntityTypePerson,
		MatchSource: types.MatchEntityFuzzy,
		Confidence:  0.82,
	}
	return &types.ResolvedContext{
		ResolutionID:     "r-1",
		OriginalText:     "remind me to call Scott lease about hanging",
		GroundedEntities: []types.ResolvedEntity{scott},
		Resolutions: map[string]*types.EntityResolution{
			"scott lease": {
				Mention:        types.EntityMention{Text: "Scott lease"},
				Resolved:       true,
				SelectedEntity: &scott,
			},
		},
	}
}

func TestBuildGrounded(t *testing.T) {
	out := Build(groundedContext())

	if !strings.Contains(out.SystemContext, "Resolved Entities:") {
		t.Errorf("missing resolved entities block:\n%s", out.SystemContext)
	}
	if !strings.Contains(out.SystemContext, "Scott Leese (person)") {
		t.Errorf("missing entity line:\n%s", out.SystemContext)
	}

	ref, ok := out.EntityMap["scott lease"]
	if !ok {
		t.Fatalf("expected scott lease in entity map, got %v", out.EntityMap)
	}
	if ref.ID != "e-123" || ref.Slug != "scott-leese" {
		t.Errorf("unexpected ref: %+v", ref)
	}

	if out.ClarificationNeeded {
		t.Error("no ambiguity, clarification must not be needed")
	}
	if out.CanTraverseNetwork {
		t.Error("grounded entities must pin the request to the graph")
	}
}

func TestBuildClarificationPrompt(t *testing.T) {
	rc := &types.ResolvedContext{
		OriginalText: "schedule a call with Acme",
		AmbiguousEntities: []types.AmbiguousMention{
			{
				Mention: "Acme",
				Candidates: []types.ResolvedEntity{
					{EntityID: "e-2", Slug: "acme-inc", Name: "Acme Inc", Type: types.EntityTypeCompany, Confidence: 0.85},
					{EntityID: "e-3", Slug: "acme-corp", Name: "Acme Corp", Type: types.EntityTypeCompany, Confidence: 0.85},
				},
			},
		},
	}

	out := Build(rc)

	if !out.ClarificationNeeded {
		t.Fatal("expected clarification needed")
	}
	for _, want := range []string{
		`Multiple entities match "Acme":`,
		"1. Acme Inc (company, acme-inc)",
		"2. Acme Corp (company, acme-corp)",
		"Which one did you mean?",
	} {
		if !strings.Contains(out.ClarificationPrompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, out.ClarificationPrompt)
		}
	}
}

func TestBuildUnresolvedSection(t *testing.T) {
	rc := &types.ResolvedContext{
		OriginalText:       "What is Jared Kim working on?",
		UnresolvedMentions: []string{"Jared Kim"},
	}

	out := Build(rc)

	if !strings.Contains(out.SystemContext, "Unresolved Mentions:") {
		t.Errorf("missing unresolved block:\n%s", out.SystemContext)
	}
	if out.CanTraverseNetwork {
		t.Error("an unresolved person-shaped mention must stay in the graph")
	}
}

func TestCanTraverseNetwork(t *testing.T) {
	tests := []struct {
		name string
		rc   *types.ResolvedContext
		want bool
	}{
		{
			"unit conversion",
			&types.ResolvedContext{OriginalText: "How many ounces in a pound?"},
			true,
		},
		{
			"weather",
			&types.ResolvedContext{OriginalText: "what's the weather like today"},
			true,
		},
		{
			"how-to",
			&types.ResolvedContext{OriginalText: "How do I merge two branches?"},
			true,
		},
		{
			"arithmetic",
			&types.ResolvedContext{OriginalText: "12 * 7 = ?"},
			true,
		},
		{
			"default pinned",
			&types.ResolvedContext{OriginalText: "find my notes from last week"},
			false,
		},
		{
			"grounded",
			groundedContext(),
			false,
		},
		{
			"person-shaped unresolved",
			&types.ResolvedContext{
				OriginalText:       "What is Jared Kim working on?",
				UnresolvedMentions: []string{"Jared Kim"},
			},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := canTraverseNetwork(tt.rc); got != tt.want {
				t.Errorf("canTraverseNetwork(%q) = %v, want %v", tt.rc.OriginalText, got, tt.want)
			}
		})
	}
}

func TestSubstituteParams(t *testing.T) {
	entityMap := map[string]types.EntityRef{
		"scott lease": {ID: "e-123", Slug: "scott-leese", Name: "Scott Leese", Type: types.EntityTypePerson},
	}

	params := map[string]interface{}{
		"contactId":   "Scott lease",
		"contactSlug": "scott lease",
		"displayName": "SCOTT LEASE",
		"note":        "unrelated text",
		"count":       3,
		"nested": map[string]interface{}{
			"assignee": "scott lease",
		},
	}

	out := SubstituteParams(params, entityMap)

	if out["contactId"] != "e-123" {
		t.Errorf("contactId = %v", out["contactId"])
	}
	if out["contactSlug"] != "scott-leese" {
		t.Errorf("contactSlug = %v", out["contactSlug"])
	}
	if out["displayName"] != "Scott Leese" {
		t.Errorf("displayName = %v", out["displayName"])
	}
	if out["note"] != "unrelated text" {
		t.Errorf("non-mention strings must pass through, got %v", out["note"])
	}
	if out["count"] != 3 {
		t.Errorf("non-string values must pass through, got %v", out["count"])
	}

	nested := out["nested"].(map[string]interface{})
	if nested["assignee"] != "scott-leese" {
		t.Errorf("nested assignee = %v", nested["assignee"])
	}
}

func TestSubstituteParamsNil(t *testing.T) {
	if out := SubstituteParams(nil, nil); out != nil {
		t.Errorf("expected nil, got %v", out)
	}
}
