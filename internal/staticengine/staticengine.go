// Package staticengine evaluates a static model's ordered rules against an
// incoming request's match text and picks one reply from the winning rule.
// Grounded on the condition-group evaluation shape of the teacher's
// nodes/conditional.go (a boolean expression gating a branch) generalized
// into the fixed contains/equals/starts_with/ends_with/regex predicate
// grammar spec.md §4.3 defines, and on the atomic round-robin counters the
// teacher keeps in internal/server/server.go for its own registries.
package staticengine

import (
	"math/rand"
	"strings"

	"github.com/rakunlabs/mockllm/internal/snapshot"
	"github.com/rakunlabs/mockllm/internal/wire"
)

// Result is the engine's output before response-pipeline shaping.
type Result struct {
	Content      string
	Reasoning    string
	FinishReason string
}

// MatchText builds the text condition predicates are evaluated against:
// the content of every user-role message, submission order, joined by "\n".
// Non-string content was already JSON-serialized by wire.Message.ContentText.
func MatchText(messages []wire.Message) string {
	var b strings.Builder
	first := true
	for _, m := range messages {
		if m.Role != "user" {
			continue
		}
		if !first {
			b.WriteByte('\n')
		}
		first = false
		b.WriteString(m.ContentText())
	}
	return b.String()
}

// Evaluate runs the static model's rules in declaration order against
// matchText, picks a reply from the first matching rule (or the default
// rule if none match), and selects one reply per the rule's pick strategy.
func Evaluate(model *snapshot.Model, matchText string) Result {
	body := model.Static

	var winner *snapshot.Rule
	for i := range body.Rules {
		r := &body.Rules[i]
		if r.Default {
			continue
		}
		if ruleMatches(r, matchText) {
			winner = r
			break
		}
	}
	if winner == nil {
		for i := range body.Rules {
			if body.Rules[i].Default {
				winner = &body.Rules[i]
				break
			}
		}
	}
	if winner == nil {
		// Unreachable if the snapshot was built by internal/catalog (I2
		// guarantees exactly one default rule), but cheap to guard.
		return Result{FinishReason: "stop"}
	}

	pick := winner.Pick
	if pick == "" {
		pick = body.Pick
	}
	reply := pickReply(winner, pick)

	return Result{Content: reply.Content, Reasoning: reply.Reasoning, FinishReason: "stop"}
}

func ruleMatches(r *snapshot.Rule, text string) bool {
	g := r.When
	return evalAll(g.All, text) && evalAny(g.Any, text) && evalNone(g.None, text)
}

func evalAll(conds []snapshot.Condition, text string) bool {
	for _, c := range conds {
		if !evalCondition(c, text) {
			return false
		}
	}
	return true
}

func evalAny(conds []snapshot.Condition, text string) bool {
	if len(conds) == 0 {
		return true
	}
	for _, c := range conds {
		if evalCondition(c, text) {
			return true
		}
	}
	return false
}

func evalNone(conds []snapshot.Condition, text string) bool {
	for _, c := range conds {
		if evalCondition(c, text) {
			return false
		}
	}
	return true
}

func evalCondition(c snapshot.Condition, text string) bool {
	if c.Regex != nil {
		if c.Compiled == nil {
			return false
		}
		return c.Compiled.MatchString(text)
	}

	subject := text
	fold := c.Case == snapshot.CaseInsensitive

	switch {
	case c.Contains != nil:
		return containsFold(subject, *c.Contains, fold)
	case c.Equals != nil:
		return equalsFold(subject, *c.Equals, fold)
	case c.StartsWith != nil:
		return startsWithFold(subject, *c.StartsWith, fold)
	case c.EndsWith != nil:
		return endsWithFold(subject, *c.EndsWith, fold)
	}
	return false
}

func containsFold(subject, needle string, fold bool) bool {
	if fold {
		return strings.Contains(strings.ToLower(subject), strings.ToLower(needle))
	}
	return strings.Contains(subject, needle)
}

func equalsFold(subject, value string, fold bool) bool {
	if fold {
		return strings.EqualFold(subject, value)
	}
	return subject == value
}

func startsWithFold(subject, prefix string, fold bool) bool {
	if fold {
		return strings.HasPrefix(strings.ToLower(subject), strings.ToLower(prefix))
	}
	return strings.HasPrefix(subject, prefix)
}

func endsWithFold(subject, suffix string, fold bool) bool {
	if fold {
		return strings.HasSuffix(strings.ToLower(subject), strings.ToLower(suffix))
	}
	return strings.HasSuffix(subject, suffix)
}

func pickReply(r *snapshot.Rule, pick snapshot.PickStrategy) snapshot.Reply {
	replies := r.Replies
	if len(replies) == 1 {
		return replies[0]
	}

	switch pick {
	case snapshot.PickRandom:
		return replies[rand.Intn(len(replies))]
	case snapshot.PickWeighted:
		return pickWeighted(replies)
	default: // round_robin
		idx := r.Counter().Add(1) - 1
		return replies[idx%uint64(len(replies))]
	}
}

func pickWeighted(replies []snapshot.Reply) snapshot.Reply {
	total := 0
	for _, rep := range replies {
		w := rep.Weight
		if w <= 0 {
			w = 1
		}
		total += w
	}
	if total <= 0 {
		return replies[0]
	}
	roll := rand.Intn(total)
	for _, rep := range replies {
		w := rep.Weight
		if w <= 0 {
			w = 1
		}
		if roll < w {
			return rep
		}
		roll -= w
	}
	return replies[len(replies)-1]
}
