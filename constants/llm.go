package constants

// Document type labels the validation prompt is allowed to answer with.
var DocumentTypeLabels = []string{
	"invoice", "receipt", "statement", "bill", "contract", "article", "letter", "other",
}

const (
	// ValidationTextLimit is the number of characters of document text shown to the classifier.
	ValidationTextLimit = 2000
	// DiscoverySampleTextLimit is the per-sample character cap in the discovery prompt.
	DiscoverySampleTextLimit = 3000
	// DiscoveryMaxSamples caps how many samples are sent in one discovery call.
	DiscoveryMaxSamples = 10
	// DiscoveryMinSamples is the minimum number of usable samples discovery needs.
	DiscoveryMinSamples = 2
	// DiscoveryMaxFiles caps a discovery upload.
	DiscoveryMaxFiles = 100

	DiscoveryMinFields = 5
	DiscoveryMaxFields = 15

	// MismatchConfidenceThreshold: an invalid verdict above this confidence rejects the document.
	MismatchConfidenceThreshold = 70
	// DegradedConfidence is reported when the classifier could not be consulted.
	DegradedConfidence = 50
	// DefaultDiscoveryConfidence is used when the model omits a confidence.
	DefaultDiscoveryConfidence = 50

	DefaultBatchConcurrency = 5
	PromptHistoryLimit      = 20
)
