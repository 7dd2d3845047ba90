package translate

import (
	"context"
	"strings"
)

// runSecondPass retries units whose first-pass result still contains
// Japanese, using the configured escalation model. Improved results
// overwrite the first-pass text; empty or still-Japanese results keep
// the prior text. A transport failure abandons the remaining batches so
// the first-pass results are not lost behind a dead endpoint. Returns
// the number of units improved.
func (p *Pipeline) runSecondPass(ctx context.Context, failed []*unit) int {
	if len(failed) == 0 {
		return 0
	}

	model := p.trans.SecondPassModel
	if model == "" || strings.EqualFold(model, p.llm.Model) {
		p.opts.logError("  [SECOND PASS] skipped: second_pass_model matches the primary model")
		return 0
	}

	p.opts.log("  [SECOND PASS] retrying %d items with %s", len(failed), model)

	params := p.secondPassParams()
	batches := splitBatches(failed, p.trans.BatchLimit())
	improved := 0

	for i, batch := range batches {
		texts := make([]string, len(batch))
		for j, u := range batch {
			texts[j] = u.source
		}

		translations, err := p.translateBatch(ctx, params, texts)
		if err != nil {
			p.opts.logError("  [SECOND PASS] batch %d/%d failed, abandoning second pass: %v", i+1, len(batches), err)
			return improved
		}

		for j, u := range batch {
			t := translations[j]
			if t == "" || ContainsJapanese(t) {
				continue
			}
			u.setTarget(t)
			improved++
		}
	}

	p.opts.log("  [SECOND PASS] improved %d/%d items", improved, len(failed))
	return improved
}
