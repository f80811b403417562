package extract

// Extractor defines a minimal interface for HTML to text strategies.
// Implementations can swap heuristics without changing callers.
type Extractor interface {
    // Extract converts raw HTML bytes into a Document. contentType is the
    // HTTP Content-Type of the input, or "".
    Extract(input []byte, contentType string) Document
}

// LayoutExtractor renders text with the layout-aware walk configured by
// Options.
type LayoutExtractor struct {
    Options Options
}

func (e LayoutExtractor) Extract(input []byte, contentType string) Document {
    return FromHTML(input, contentType, e.Options)
}

// Default returns an Extractor with DefaultOptions.
func Default() Extractor {
    return LayoutExtractor{Options: DefaultOptions()}
}
