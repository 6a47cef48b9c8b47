package analyze

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Result is the canonical analysis shape. Every field is always populated:
// tags holds at most 3 entries, emojis exactly 3.
type Result struct {
	Interpretation string   `json:"interpretation"`
	Insight        string   `json:"insight"`
	Tags           []string `json:"tags"`
	Emojis         []string `json:"emojis"`
}

const (
	placeholderInterpretation = "메시지의 의도를 해석하지 못했어요."
	placeholderInsight        = "조금 더 대화를 나누며 상대의 마음을 확인해보세요."
	placeholderTag            = "감정"
	fillerEmoji               = "🙂"

	maxTags        = 3
	emojiCount     = 3
	insightRuneCap = 60
)

// rawPayload accepts both the canonical JSON shape and the legacy
// emotions/reason shape in one decode.
type rawPayload struct {
	Interpretation string   `json:"interpretation"`
	Insight        string   `json:"insight"`
	Tags           []string `json:"tags"`
	Emojis         []string `json:"emojis"`
	Emotions       []string `json:"emotions"`
	Reason         string   `json:"reason"`
}

var sectionHeaderRe = regexp.MustCompile(`(?m)^\s*\[([^\[\]]+)\]\s*$`)

// Normalize parses raw model output into the canonical Result. The parser
// chain is total: JSON shape first, then labeled sections, then the fixed
// placeholder result. It never fails.
func Normalize(raw string) Result {
	if r, ok := parseJSON(raw); ok {
		return clamp(r)
	}
	if r, ok := parseSections(raw); ok {
		return clamp(r)
	}
	return clamp(Result{})
}

func parseJSON(raw string) (Result, bool) {
	span, ok := extractObject(raw)
	if !ok {
		return Result{}, false
	}

	var payload rawPayload
	if err := json.Unmarshal([]byte(span), &payload); err != nil {
		return Result{}, false
	}

	if payload.Interpretation != "" || payload.Insight != "" ||
		len(payload.Tags) > 0 || len(payload.Emojis) > 0 {
		return Result{
			Interpretation: payload.Interpretation,
			Insight:        payload.Insight,
			Tags:           payload.Tags,
			Emojis:         payload.Emojis,
		}, true
	}

	if len(payload.Emotions) > 0 || payload.Reason != "" {
		return Result{
			Interpretation: payload.Reason,
			Insight:        truncateRunes(payload.Reason, insightRuneCap),
			Tags:           payload.Emotions,
		}, true
	}

	return Result{}, false
}

// extractObject finds the outermost balanced {...} span, skipping code-fence
// markers and any surrounding prose the model wrapped around the object.
func extractObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}

	return "", false
}

func parseSections(raw string) (Result, bool) {
	matches := sectionHeaderRe.FindAllStringSubmatchIndex(raw, -1)
	if len(matches) == 0 {
		return Result{}, false
	}

	var r Result
	found := false
	for i, m := range matches {
		header := strings.ToLower(strings.TrimSpace(raw[m[2]:m[3]]))
		bodyStart := m[1]
		bodyEnd := len(raw)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}
		body := strings.TrimSpace(raw[bodyStart:bodyEnd])

		switch header {
		case "interpretation", "해석":
			r.Interpretation = body
			found = true
		case "insight", "인사이트", "조언":
			r.Insight = body
			found = true
		case "tags", "태그":
			r.Tags = splitList(body)
			found = true
		case "emojis", "이모지":
			r.Emojis = splitList(body)
			found = true
		}
	}

	return r, found
}

func splitList(body string) []string {
	parts := strings.FieldsFunc(body, func(r rune) bool {
		return r == ',' || r == '\n' || r == ' ' || r == '\t'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "#-·")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func clamp(r Result) Result {
	r.Interpretation = strings.TrimSpace(r.Interpretation)
	r.Insight = strings.TrimSpace(r.Insight)
	if r.Interpretation == "" {
		r.Interpretation = placeholderInterpretation
	}
	if r.Insight == "" {
		r.Insight = placeholderInsight
	}

	r.Tags = cleanList(r.Tags, maxTags)
	if len(r.Tags) == 0 {
		r.Tags = []string{placeholderTag}
	}

	r.Emojis = cleanList(r.Emojis, emojiCount)
	for len(r.Emojis) < emojiCount {
		r.Emojis = append(r.Emojis, fillerEmoji)
	}

	return r
}

func cleanList(in []string, limit int) []string {
	out := make([]string, 0, limit)
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out
}

func truncateRunes(s string, limit int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "…"
}
