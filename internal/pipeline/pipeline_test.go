package pipeline

import (
	"strings"
	"testing"
)

func TestShape_None_DropsReasoning(t *testing.T) {
	got := Shape(Result{Content: "hi", Reasoning: "because", FinishReason: "stop"}, "none")
	if got.Content != "hi" || got.ReasoningContent != "" {
		t.Errorf("got %+v", got)
	}
}

func TestShape_Prefix_WrapsContentInThinkBlock(t *testing.T) {
	got := Shape(Result{Content: "hi", Reasoning: "because", FinishReason: "stop"}, "prefix")
	want := "<think>\nbecause\n</think>\n\nhi"
	if got.Content != want {
		t.Errorf("Content = %q, want %q", got.Content, want)
	}
	if got.ReasoningContent != "" {
		t.Errorf("ReasoningContent = %q, want empty in prefix mode", got.ReasoningContent)
	}
}

func TestShape_Field_SideFieldOnly(t *testing.T) {
	got := Shape(Result{Content: "hi", Reasoning: "because"}, "field")
	if got.Content != "hi" {
		t.Errorf("Content = %q, want unchanged", got.Content)
	}
	if got.ReasoningContent != "because" {
		t.Errorf("ReasoningContent = %q, want because", got.ReasoningContent)
	}
}

func TestShape_Both_AppliesBothTransforms(t *testing.T) {
	got := Shape(Result{Content: "hi", Reasoning: "because"}, "both")
	if !strings.Contains(got.Content, "because") {
		t.Errorf("Content missing reasoning prefix: %q", got.Content)
	}
	if got.ReasoningContent != "because" {
		t.Errorf("ReasoningContent = %q, want because", got.ReasoningContent)
	}
}

func TestShape_EmptyReasoningLeavesContentUnchanged(t *testing.T) {
	got := Shape(Result{Content: "hi"}, "prefix")
	if got.Content != "hi" {
		t.Errorf("Content = %q, want unchanged for empty reasoning", got.Content)
	}
}

func TestEstimateUsage_CeilsToNearestFourChars(t *testing.T) {
	u := EstimateUsage(10, 5)
	if u.PromptTokens != 3 { // ceil(10/4) = 3
		t.Errorf("PromptTokens = %d, want 3", u.PromptTokens)
	}
	if u.CompletionTokens != 2 { // ceil(5/4) = 2
		t.Errorf("CompletionTokens = %d, want 2", u.CompletionTokens)
	}
	if u.TotalTokens != 5 {
		t.Errorf("TotalTokens = %d, want 5", u.TotalTokens)
	}
}

func TestChunkContent_SplitsByUnicodeScalar(t *testing.T) {
	got := ChunkContent("héllo", 2)
	want := []string{"hé", "ll", "o"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestChunkContent_EmptyStringYieldsNoChunks(t *testing.T) {
	if got := ChunkContent("", 4); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestChunkContent_ZeroOrNegativeSizeCoercedToOne(t *testing.T) {
	got := ChunkContent("ab", 0)
	if len(got) != 2 {
		t.Fatalf("got %v, want 2 chunks of size 1", got)
	}
}
