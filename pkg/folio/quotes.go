package folio

// DefaultQuotes returns the quotes served by /api/quote.
func DefaultQuotes() []string {
	return []string{
		"We must think not as individuals but as a species.",
		"Time is relative; perspective is everything.",
		"There is no such thing as a coincidence in physics — only variables we have yet to identify.",
	}
}
