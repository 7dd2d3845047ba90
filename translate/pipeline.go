// Package translate implements the translation engine: glossary
// preprocessing, batched and sequential LLM translation of script files,
// validation of results, retry, second-pass escalation, and folder
// orchestration with optional file-level concurrency.
package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mtl-tools/mtlkit/config"
	"github.com/mtl-tools/mtlkit/dictionary"
	"github.com/mtl-tools/mtlkit/script"
)

// interItemDelay is the pause after each translated unit in sequential
// mode, matching the pacing the endpoint is tuned for.
const interItemDelay = 500 * time.Millisecond

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// Options controls logging and progress reporting. The engine never
// prints directly; the CLI owns presentation through these hooks.
type Options struct {
	// OnLog emits informational messages.
	OnLog func(format string, args ...any)
	// OnError emits error messages (falls back to OnLog when nil).
	OnError func(format string, args ...any)
	// OnProgress is called after each batch with units done so far.
	OnProgress func(file string, done, total int)
	// Verbose enables detailed logging.
	Verbose bool
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) logError(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	} else if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

// ---------------------------------------------------------------------------
// Translation units
// ---------------------------------------------------------------------------

type unitKind int

const (
	unitName unitKind = iota
	unitText
	unitChoice
)

// unit is the atomic thing the engine translates: one empty target-text
// slot plus its Japanese source. Units are derived transiently by scanning
// a script file; they are never stored.
type unit struct {
	kind     unitKind
	block    *script.Block  // set for name and text units
	choice   *script.Choice // set for choice units
	source   string
	blockIdx int
}

func (u *unit) setTarget(s string) {
	switch u.kind {
	case unitName:
		u.block.ENName = s
	case unitText:
		u.block.ENText = s
	case unitChoice:
		u.choice.ENText = s
	}
}

// collectUnits gathers every unit with an empty target slot and a
// non-blank source, in two-phase order: all names, then all line texts,
// then all choices. The ordering is a stability property of the output,
// not a request priority.
func collectUnits(f *script.File) []*unit {
	var names, texts, choices []*unit

	for _, b := range f.Blocks {
		if b.ENName == "" && strings.TrimSpace(b.JPName) != "" {
			names = append(names, &unit{kind: unitName, block: b, source: b.JPName, blockIdx: b.BlockIdx})
		}
		if b.ENText == "" && strings.TrimSpace(b.JPText) != "" {
			texts = append(texts, &unit{kind: unitText, block: b, source: b.JPText, blockIdx: b.BlockIdx})
		}
	}
	for _, b := range f.Blocks {
		for _, c := range b.Choices {
			if c.ENText == "" && strings.TrimSpace(c.JPText) != "" {
				choices = append(choices, &unit{kind: unitChoice, choice: c, source: c.JPText, blockIdx: b.BlockIdx})
			}
		}
	}

	units := make([]*unit, 0, len(names)+len(texts)+len(choices))
	units = append(units, names...)
	units = append(units, texts...)
	return append(units, choices...)
}

// splitBatches divides units into batches of the given size, preserving
// collection order.
func splitBatches(units []*unit, size int) [][]*unit {
	if size <= 0 || size >= len(units) {
		return [][]*unit{units}
	}
	var batches [][]*unit
	for i := 0; i < len(units); i += size {
		end := i + size
		if end > len(units) {
			end = len(units)
		}
		batches = append(batches, units[i:end])
	}
	return batches
}

// ---------------------------------------------------------------------------
// Pipeline
// ---------------------------------------------------------------------------

// Pipeline translates one script file at a time. Each instance owns its
// own config snapshot, glossary, context window, and client; concurrent
// file workers construct one Pipeline each so nothing leaks across files.
type Pipeline struct {
	llm   config.LLMSettings
	trans config.TranslationSettings

	dict   *dictionary.Dictionary
	window *contextWindow
	client *Client
	opts   Options
}

// NewPipeline builds a pipeline from a config snapshot, loading the
// glossary once when enabled.
func NewPipeline(cfg *config.Config, opts Options) (*Pipeline, error) {
	p := &Pipeline{
		llm:    cfg.LLM,
		trans:  cfg.Translation,
		window: newContextWindow(cfg.Translation.ContextLines),
		opts:   opts,
	}
	p.client = NewClient(&p.llm, p.trans.Retries(), p.trans.RetryDelay(), opts.Verbose)

	if p.trans.UseDictionary {
		d, err := dictionary.Load(p.trans.DictionaryFile)
		if err != nil {
			return nil, fmt.Errorf("loading dictionary: %w", err)
		}
		p.dict = d
		opts.log("Loaded %d dictionary entries", d.Len())
	}

	return p, nil
}

// primaryParams returns the primary model parameters.
func (p *Pipeline) primaryParams() Params {
	return ParamsFrom(&p.llm)
}

// secondPassParams returns the escalation parameters: alternate model and
// temperature over the otherwise unchanged primary parameters.
func (p *Pipeline) secondPassParams() Params {
	params := p.primaryParams()
	if p.trans.SecondPassModel != "" {
		params.Model = p.trans.SecondPassModel
	}
	params.Temperature = p.trans.SecondPassTemperature
	return params
}

// preprocess applies the glossary to source text.
func (p *Pipeline) preprocess(text string) string {
	return p.dict.Apply(text)
}

// ---------------------------------------------------------------------------
// Single-unit translation (sequential mode)
// ---------------------------------------------------------------------------

// translateUnit translates one source string. Names that the glossary
// fully resolves skip the LLM. Results that still read as Japanese are
// re-attempted in a bounded loop of the configured retry count; the last
// attempt is accepted as best effort. A transport failure falls back to the
// preprocessed source.
func (p *Pipeline) translateUnit(ctx context.Context, params Params, source string, isName, useContext bool) string {
	preprocessed := p.preprocess(source)

	if isName && preprocessed != source {
		return preprocessed
	}

	contextStr := ""
	if useContext && !isName && p.trans.ContextLines > 0 {
		contextStr = p.window.Render()
	}

	content := preprocessed
	if contextStr != "" {
		content = contextStr + "\n" + preprocessed
	}

	for attempt := 0; ; attempt++ {
		translated, err := p.client.Call(ctx, params, content)
		if err != nil {
			return preprocessed
		}
		if translated == "" {
			return preprocessed
		}

		if !p.trans.RetryJapanese() || !ContainsJapanese(translated) {
			return translated
		}
		if attempt >= p.trans.Retries() {
			return translated
		}

		p.opts.logError("      [WARNING] translation contains Japanese: %s", truncate(translated, 50))
		p.opts.log("      [RETRY] retranslating (attempt %d/%d)...", attempt+1, p.trans.Retries())
		select {
		case <-ctx.Done():
			return translated
		case <-time.After(p.trans.RetryDelay()):
		}
	}
}

// ---------------------------------------------------------------------------
// Batch translation
// ---------------------------------------------------------------------------

// translateBatch translates a slice of source texts in one numbered
// request. It always returns exactly len(texts) results; on transport
// failure the results are the preprocessed sources and the error reports
// the failure (the first pass writes the fallback and keeps going, the
// second pass abandons on it). A batch whose reply still reads as
// Japanese is re-requested in a bounded loop of the configured retry count.
func (p *Pipeline) translateBatch(ctx context.Context, params Params, texts []string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	preprocessed := make([]string, len(texts))
	for i, t := range texts {
		preprocessed[i] = p.preprocess(t)
	}

	prompt := renderBatchPrompt(preprocessed)

	for attempt := 0; ; attempt++ {
		reply, err := p.client.Call(ctx, params, prompt)
		if err != nil {
			return preprocessed, err
		}

		translations := fitToCount(parseBatchReply(reply), preprocessed)

		if !p.trans.RetryJapanese() {
			return translations, nil
		}

		japaneseAt := -1
		for i, t := range translations {
			if ContainsJapanese(t) {
				japaneseAt = i
				break
			}
		}
		if japaneseAt < 0 || attempt >= p.trans.Retries() {
			return translations, nil
		}

		p.opts.logError("      [WARNING] translation %d contains Japanese: %s", japaneseAt+1, truncate(translations[japaneseAt], 50))
		p.opts.log("      [RETRY] retranslating batch (attempt %d/%d)...", attempt+1, p.trans.Retries())
		select {
		case <-ctx.Done():
			return translations, ctx.Err()
		case <-time.After(p.trans.RetryDelay()):
		}
	}
}

// runBatched partitions pending units into fixed-size batches and
// translates one batch per request. Every collected unit gets exactly one
// write: the parsed translation when available, the preprocessed source
// otherwise. Units whose result still reads as Japanese are returned as
// failed items for the second pass.
func (p *Pipeline) runBatched(ctx context.Context, name string, f *script.File) (int, []*unit, error) {
	units := collectUnits(f)
	if len(units) == 0 {
		return 0, nil, nil
	}
	p.opts.log("  Collected %d items to translate", len(units))

	batches := splitBatches(units, p.trans.BatchLimit())
	var failed []*unit
	translated := 0

	for i, batch := range batches {
		select {
		case <-ctx.Done():
			return translated, failed, ctx.Err()
		default:
		}

		p.opts.log("  Batch %d/%d: translating %d items", i+1, len(batches), len(batch))

		texts := make([]string, len(batch))
		for j, u := range batch {
			texts[j] = u.source
		}

		translations, err := p.translateBatch(ctx, p.primaryParams(), texts)
		if err != nil {
			if ctx.Err() != nil {
				return translated, failed, ctx.Err()
			}
			p.opts.logError("  Batch %d/%d failed, keeping preprocessed text: %v", i+1, len(batches), err)
		}

		for j, u := range batch {
			u.setTarget(translations[j])
			if ContainsJapanese(translations[j]) {
				failed = append(failed, u)
			}
			translated++
		}

		if p.opts.OnProgress != nil {
			p.opts.OnProgress(name, translated, len(units))
		}

		if delay := p.trans.BatchDelay(); delay > 0 && i < len(batches)-1 {
			select {
			case <-ctx.Done():
				return translated, failed, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return translated, failed, nil
}

// ---------------------------------------------------------------------------
// Sequential translation
// ---------------------------------------------------------------------------

// runSequential translates units in document order, one request per unit,
// feeding the context window after every block so it always reflects the
// already-processed blocks of the current file.
func (p *Pipeline) runSequential(ctx context.Context, f *script.File) (int, error) {
	translated := 0
	params := p.primaryParams()

	for i, b := range f.Blocks {
		select {
		case <-ctx.Done():
			return translated, ctx.Err()
		default:
		}

		if p.opts.Verbose {
			p.opts.log("  Block %d/%d (blockIdx: %d)", i+1, len(f.Blocks), b.BlockIdx)
		}

		if b.ENName == "" && strings.TrimSpace(b.JPName) != "" {
			b.ENName = p.translateUnit(ctx, params, b.JPName, true, false)
			translated++
			if err := sleepCtx(ctx, interItemDelay); err != nil {
				return translated, err
			}
		}

		if b.ENText == "" && strings.TrimSpace(b.JPText) != "" {
			b.ENText = p.translateUnit(ctx, params, b.JPText, false, true)
			translated++
			if err := sleepCtx(ctx, interItemDelay); err != nil {
				return translated, err
			}
		}

		p.window.Append(b.JPName, b.JPText, b.ENName, b.ENText)

		for _, c := range b.Choices {
			if c.ENText == "" && strings.TrimSpace(c.JPText) != "" {
				c.ENText = p.translateUnit(ctx, params, c.JPText, false, true)
				translated++
				if err := sleepCtx(ctx, interItemDelay); err != nil {
					return translated, err
				}
			}
		}
	}

	return translated, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// ---------------------------------------------------------------------------
// Whole-file translation
// ---------------------------------------------------------------------------

// TranslateFile loads one script file, translates its pending units with
// the configured strategy, runs the second pass and the sentinel cleanup,
// and writes the result to outputPath. Returns the number of units
// translated.
func (p *Pipeline) TranslateFile(ctx context.Context, inputPath, outputPath string) (int, error) {
	p.opts.log("Processing: %s", inputPath)
	start := time.Now()

	f, err := script.Load(inputPath)
	if err != nil {
		return 0, err
	}

	p.window.Reset()

	var translated int
	if p.trans.Batched() {
		p.opts.log("  Using batch translation (batch_size=%d)", p.trans.BatchLimit())
		var failed []*unit
		translated, failed, err = p.runBatched(ctx, inputPath, f)
		if err != nil {
			return translated, err
		}
		if len(failed) > 0 && p.trans.EnableTwoPass {
			translated += p.runSecondPass(ctx, failed)
		}
	} else {
		p.opts.log("  Using sequential translation")
		translated, err = p.runSequential(ctx, f)
		if err != nil {
			return translated, err
		}
	}

	names, texts := cleanupPlaceholders(f, p.trans.CleanupPlaceholder)
	if names > 0 || texts > 0 {
		p.opts.log("  [POST-PROCESS] cleaned %d placeholder names, %d placeholder texts", names, texts)
	}

	if err := f.Save(outputPath); err != nil {
		return translated, err
	}

	p.opts.log("  Translated %d items", translated)
	p.opts.log("  Saved to: %s (%.2fs)", outputPath, time.Since(start).Seconds())
	return translated, nil
}
