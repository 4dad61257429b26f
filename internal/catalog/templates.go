package catalog

// AttachmentSpec names a generator whose output is delivered under Name.
type AttachmentSpec struct {
	Name      string
	Generator string
}

// Variant is one round-2 follow-up brief with its own checks and optional
// extra attachments.
type Variant struct {
	Brief       string
	Checks      []string
	Attachments []AttachmentSpec
}

// Template is the static definition of a task family. Templates are
// immutable and compiled in; briefs and checks may reference the {seed} and
// {result} placeholders.
type Template struct {
	ID          string
	Brief       string
	Checks      []string
	Attachments []AttachmentSpec
	Round2      []Variant
}

func builtinTemplates() map[string]Template {
	return map[string]Template{
		"sum-of-sales": {
			ID:    "sum-of-sales",
			Brief: "Publish a single-page site that fetches data.csv from attachments, sums its sales column, sets the title to \"Sales Summary {seed}\", displays the total inside #total-sales, and loads Bootstrap 5 from jsdelivr.",
			Attachments: []AttachmentSpec{
				{Name: "data.csv", Generator: "generate_sales_csv"},
			},
			Checks: []string{
				"js: document.title === `Sales Summary {seed}`",
				"js: !!document.querySelector(\"link[href*='bootstrap']\")",
				"js: Math.abs(parseFloat(document.querySelector(\"#total-sales\").textContent) - {result}) < 0.01",
			},
			Round2: []Variant{
				{
					Brief: "Add a Bootstrap table #product-sales that lists each product with its total sales and keeps #total-sales accurate after render.",
					Checks: []string{
						"js: document.querySelectorAll(\"#product-sales tbody tr\").length >= 1",
						"js: (() => { const rows = [...document.querySelectorAll(\"#product-sales tbody tr td:last-child\")]; const sum = rows.reduce((acc, cell) => acc + parseFloat(cell.textContent), 0); return Math.abs(sum - {result}) < 0.01; })()",
					},
				},
				{
					Brief: "Introduce a currency select #currency-picker that converts the computed total using rates.json from attachments and mirrors the active currency inside #total-currency.",
					Attachments: []AttachmentSpec{
						{Name: "rates.json", Generator: "generate_currency_rates"},
					},
					Checks: []string{
						"js: !!document.querySelector(\"#currency-picker option[value='USD']\")",
						"js: !!document.querySelector(\"#total-currency\")",
					},
				},
				{
					Brief: "Allow filtering by region via #region-filter, update #total-sales with the filtered sum, and set data-region on that element to the active choice.",
					Checks: []string{
						"js: document.querySelector(\"#region-filter\").tagName === \"SELECT\"",
						"js: document.querySelector(\"#total-sales\").dataset.region !== undefined",
					},
				},
			},
		},

		"markdown-to-html": {
			ID:    "markdown-to-html",
			Brief: "Publish a static page that converts input.md from attachments to HTML with marked, renders it inside #markdown-output, and loads highlight.js for code blocks.",
			Attachments: []AttachmentSpec{
				{Name: "input.md", Generator: "generate_markdown_content"},
			},
			Checks: []string{
				"js: !!document.querySelector(\"script[src*='marked']\")",
				"js: !!document.querySelector(\"script[src*='highlight.js']\")",
				"js: document.querySelector(\"#markdown-output\").innerHTML.includes(\"<h\")",
			},
			Round2: []Variant{
				{
					Brief: "Add tabs #markdown-tabs that switch between rendered HTML in #markdown-output and the original Markdown in #markdown-source while keeping content in sync.",
					Checks: []string{
						"js: document.querySelectorAll(\"#markdown-tabs button\").length >= 2",
						"js: document.querySelector(\"#markdown-source\").textContent.trim().length > 0",
					},
				},
				{
					Brief: "Support loading Markdown from a ?url= parameter when present and fall back to the attachment otherwise, showing the active source in #markdown-source-label.",
					Checks: []string{
						"js: document.querySelector(\"#markdown-source-label\").textContent.length > 0",
						"js: !!document.querySelector(\"script\").textContent.includes(\"fetch(\")",
					},
				},
				{
					Brief: "Display a live word count badge #markdown-word-count that updates after every render and formats numbers with Intl.NumberFormat.",
					Checks: []string{
						"js: document.querySelector(\"#markdown-word-count\").textContent.includes(\",\")",
						"js: !!document.querySelector(\"script\").textContent.includes(\"Intl.NumberFormat\")",
					},
				},
			},
		},

		"github-user-created": {
			ID:    "github-user-created",
			Brief: "Publish a Bootstrap page with form id=\"github-user-{seed}\" that fetches a GitHub username, optionally uses ?token=, and displays the account creation date in YYYY-MM-DD UTC inside #github-created-at.",
			Checks: []string{
				"js: document.querySelector(\"#github-user-{seed}\").tagName === \"FORM\"",
				"js: document.querySelector(\"#github-created-at\").textContent.includes(\"20\")",
				"js: !!document.querySelector(\"script\").textContent.includes(\"https://api.github.com/users/\")",
			},
			Round2: []Variant{
				{
					Brief: "Show an aria-live alert #github-status that reports when a lookup starts, succeeds, or fails.",
					Checks: []string{
						"js: document.querySelector(\"#github-status\").getAttribute(\"aria-live\") === \"polite\"",
						"js: !!document.querySelector(\"script\").textContent.includes(\"github-status\")",
					},
				},
				{
					Brief: "Display the account age in whole years inside #github-account-age alongside the creation date.",
					Checks: []string{
						"js: parseInt(document.querySelector(\"#github-account-age\").textContent, 10) >= 0",
						"js: document.querySelector(\"#github-account-age\").textContent.toLowerCase().includes(\"years\")",
					},
				},
				{
					Brief: "Cache the last successful lookup in localStorage under \"github-user-{seed}\" and repopulate the form on load.",
					Checks: []string{
						"js: !!document.querySelector(\"script\").textContent.includes(\"localStorage.setItem(\\\"github-user-{seed}\\\"\")",
						"js: !!document.querySelector(\"script\").textContent.includes(\"localStorage.getItem(\\\"github-user-{seed}\\\"\")",
					},
				},
			},
		},
	}
}
