package patent

// Citations are the two sides of a patent's citation neighbourhood.
type Citations struct {
	Citing []Record `json:"citing"`
	Cited  []Record `json:"cited"`
}

// Edge is a directed citation: From cites To.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}
