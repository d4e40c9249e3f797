package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	types "github.com/yungbote/glossary-backend/internal/domain"
	"github.com/yungbote/glossary-backend/internal/jobs/runtime"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
	"github.com/yungbote/glossary-backend/internal/platform/openai"
)

const (
	DefaultBatchSize   = 10
	DefaultConcurrency = 4

	maxChunkChars   = 12000
	snippetRadius   = 200
	maxSnippets     = 3
)

// Deps is shared by every glossary stage.
type Deps struct {
	LLM     openai.Client
	Prompts *Prompts
	Log     *logger.Logger

	// BatchSize is the number of items processed between cancellation checkpoints.
	BatchSize int
	// Concurrency caps LLM calls in flight inside one batch.
	Concurrency int
}

func (d Deps) batchSize() int {
	if d.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return d.BatchSize
}

func (d Deps) concurrency() int {
	if d.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return d.Concurrency
}

func (d Deps) validate() error {
	if d.LLM == nil {
		return fmt.Errorf("steps: LLM client required")
	}
	if d.Prompts == nil {
		return fmt.Errorf("steps: prompts required")
	}
	if d.Log == nil {
		return fmt.Errorf("steps: logger required")
	}
	return nil
}

// Register adds the four glossary stages to reg.
func Register(reg *runtime.Registry, deps Deps) error {
	if err := deps.validate(); err != nil {
		return err
	}
	for _, s := range []runtime.Stage{
		NewExtract(deps),
		NewDraft(deps),
		NewReview(deps),
		NewRefine(deps),
	} {
		if err := reg.Register(s); err != nil {
			return err
		}
	}
	return nil
}

func (d Deps) generate(ctx context.Context, name PromptName, in Input) (map[string]any, error) {
	p, err := d.Prompts.Build(name, in)
	if err != nil {
		return nil, err
	}
	return d.LLM.GenerateJSON(ctx, p.System, p.User, p.SchemaName, p.Schema)
}

// fanOut runs fn for every index in [0, n) with at most limit calls in flight.
// In-flight calls use rc.CallCtx so a cancel lands at the next checkpoint.
// A panic in fn is returned as an error so the worker can fail the run.
func fanOut(rc *runtime.Context, n, limit int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(rc.CallCtx())
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic in item %d: %v", i, r)
				}
			}()
			if gctx.Err() != nil {
				return gctx.Err()
			}
			return fn(gctx, i)
		})
	}
	return g.Wait()
}

// batches splits [0, n) into consecutive ranges of at most size.
func batches(n, size int) [][2]int {
	if size <= 0 {
		size = n
	}
	out := make([][2]int, 0, (n+size-1)/max(size, 1))
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
	}
	return out
}

func projectName(rc *runtime.Context) string {
	if rc.Project == nil {
		return ""
	}
	return rc.Project.Name
}

func mustJSON(v any) datatypes.JSON {
	b, _ := json.Marshal(v)
	return datatypes.JSON(b)
}

func stringFromAny(v any) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func floatFromAny(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case json.Number:
		f, _ := x.Float64()
		return f
	}
	return 0
}

func clampConfidence(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

func objectsFromAny(v any) []map[string]any {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(arr))
	for _, x := range arr {
		if m, ok := x.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// definitionFrom reads the {definition, confidence} shape.
func definitionFrom(obj map[string]any) (string, float64, error) {
	def := stringFromAny(obj["definition"])
	if def == "" {
		return "", 0, fmt.Errorf("model returned an empty definition")
	}
	return def, clampConfidence(floatFromAny(obj["confidence"])), nil
}

func termKey(term string) string {
	return strings.ToLower(strings.Join(strings.Fields(term), " "))
}

// chunkText splits text on paragraph boundaries into pieces of at most maxChars.
func chunkText(text string, maxChars int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= maxChars {
		return []string{text}
	}
	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	for _, para := range strings.Split(text, "\n\n") {
		for len(para) > maxChars {
			flush()
			cut := maxChars
			for cut > 0 && !utf8.RuneStart(para[cut]) {
				cut--
			}
			out = append(out, strings.TrimSpace(para[:cut]))
			para = para[cut:]
		}
		if cur.Len()+len(para)+2 > maxChars {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(para)
	}
	flush()
	return out
}

// countOccurrences counts case-insensitive matches of term across docs.
func countOccurrences(term string, lowered []string) int {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return 0
	}
	n := 0
	for _, text := range lowered {
		n += strings.Count(text, needle)
	}
	return n
}

// snippetsFor returns up to maxSnippets excerpts around occurrences of term.
func snippetsFor(term string, docs []*types.Document) []string {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	out := make([]string, 0, maxSnippets)
	for _, d := range docs {
		if d == nil {
			continue
		}
		hay, needle := strings.ToLower(d.Content), strings.ToLower(term)
		if len(hay) != len(d.Content) || len(needle) != len(term) {
			// Case folding changed byte offsets; match exact case instead.
			hay, needle = d.Content, term
		}
		offset := 0
		for len(out) < maxSnippets && offset < len(hay) {
			idx := strings.Index(hay[offset:], needle)
			if idx < 0 {
				break
			}
			pos := offset + idx
			out = append(out, excerpt(d.Content, pos, len(needle)))
			offset = pos + len(needle) + snippetRadius
		}
		if len(out) >= maxSnippets {
			break
		}
	}
	return out
}

func excerpt(text string, pos, length int) string {
	start := pos - snippetRadius
	if start < 0 {
		start = 0
	}
	end := pos + length + snippetRadius
	if end > len(text) {
		end = len(text)
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	return strings.Join(strings.Fields(text[start:end]), " ")
}
