package discovery

import (
	"fmt"
	"strings"
)

// Sample is one document's text as used for discovery.
type Sample struct {
	FileName string `json:"file_name"`
	Text     string `json:"text"`
}

// CompileDiscoveryPrompt asks the model for the fields common to samples, as a
// JSON array. Sample texts are embedded as given; callers truncate them.
func CompileDiscoveryPrompt(intent string, samples []Sample) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert document analyzer. The user wants to: %q\n\n", strings.TrimSpace(intent))
	fmt.Fprintf(&b, "Analyze these %d sample documents and discover ALL common data fields that should be extracted.\n", len(samples))

	for i, s := range samples {
		fmt.Fprintf(&b, "\nSample %d (%s):\n%s\n...\n", i+1, s.FileName, s.Text)
	}

	b.WriteString("\n")
	b.WriteString(discoveryInstructions)
	return b.String()
}

const discoveryInstructions = `For each field you discover:
1. Suggest a clear, descriptive field name
2. Identify the data type (text, number, date, or currency)
3. Count how many samples contain this field
4. Extract one example value from each sample, in sample order (use "" when the sample does not contain it)
5. Provide a description of what this field represents
6. Estimate confidence (0-100)

Respond ONLY with valid JSON array:
[
  {
    "suggestedName": "Booking Number",
    "suggestedType": "text",
    "foundInSamples": 3,
    "sampleValues": ["123456", "789012", "345678"],
    "suggestedDescription": "The booking or reservation reference number",
    "confidence": 95
  }
]

Discover ALL fields that appear in the documents. Include:
- IDs and reference numbers
- Dates
- Names (people, companies, locations)
- Amounts and prices
- Any other relevant data points

Return 5-15 fields maximum. Focus on fields that appear in multiple samples.`
