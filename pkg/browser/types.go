package browser

import "context"

// Result is the outcome of evaluating one script expression in page context.
type Result struct {
	Script string
	Pass   bool
	Detail string
}

// Runner is the narrow headless-browser interface the scoring pipeline
// consumes: load a page and evaluate boolean script expressions against it.
// A non-nil error means the page itself failed to load; per-script failures
// are reported inside the results.
type Runner interface {
	EvaluateAll(ctx context.Context, url string, scripts []string) ([]Result, error)
}
