package aggregate

// Rule selects how a metric is read out of a lighthouse result.
type Rule int

const (
	// Numeric reads a number; anything else becomes null.
	Numeric Rule = iota
	// Score reads a category score; anything else becomes null.
	Score
	// ItemCount counts the entries of an array. A missing list becomes null,
	// a list of the wrong type is a schema violation.
	ItemCount
)

// Metric maps an output key to a path inside a lighthouse JSON result.
type Metric struct {
	Key    string
	Path   []string
	Rule   Rule
	Timing bool
}

// Metrics is the fixed extraction set, in output order.
var Metrics = []Metric{
	{Key: "firstContentfulPaint", Path: audit("first-contentful-paint"), Rule: Numeric, Timing: true},
	{Key: "firstMeaningfulPaint", Path: audit("first-meaningful-paint"), Rule: Numeric, Timing: true},
	{Key: "totalBlockingTime", Path: audit("total-blocking-time"), Rule: Numeric, Timing: true},
	{Key: "timeToInteractive", Path: audit("interactive"), Rule: Numeric, Timing: true},
	{Key: "serverResponseTime", Path: audit("server-response-time"), Rule: Numeric, Timing: true},
	{Key: "bootupTime", Path: audit("bootup-time"), Rule: Numeric, Timing: true},
	{Key: "roundTripTime", Path: audit("network-rtt"), Rule: Numeric, Timing: true},
	{Key: "totalByteWeight", Path: audit("total-byte-weight"), Rule: Numeric, Timing: true},
	{Key: "totalFileCount", Path: []string{"audits", "total-byte-weight", "details", "items"}, Rule: ItemCount},
	{Key: "performance", Path: category("performance"), Rule: Score},
	{Key: "seo", Path: category("seo"), Rule: Score},
	{Key: "bestPractices", Path: category("best-practices"), Rule: Score},
}

func audit(id string) []string {
	return []string{"audits", id, "numericValue"}
}

func category(id string) []string {
	return []string{"categories", id, "score"}
}

// Selected returns the metrics reported in the given mode.
func Selected(timingsOnly bool) []Metric {
	if !timingsOnly {
		return Metrics
	}
	var out []Metric
	for _, m := range Metrics {
		if m.Timing {
			out = append(out, m)
		}
	}
	return out
}
