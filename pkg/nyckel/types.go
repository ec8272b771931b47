package nyckel

// InputModality identifies the kind of data a function consumes.
type InputModality string

const (
	InputText    InputModality = "Text"
	InputImage   InputModality = "Image"
	InputTabular InputModality = "Tabular"
)

// OutputModality identifies the kind of output a function produces.
type OutputModality string

const (
	OutputClassification OutputModality = "Classification"
	OutputTags           OutputModality = "Tags"
)

// FieldType is the declared type of a tabular field.
type FieldType string

const (
	FieldTypeText   FieldType = "Text"
	FieldTypeNumber FieldType = "Number"
	FieldTypeImage  FieldType = "Image"
)

// Function represents a classification or tagging model resource.
type Function struct {
	ID     string         `json:"id"     yaml:"id"`
	Name   string         `json:"name"   yaml:"name"`
	Input  InputModality  `json:"input"  yaml:"input"`
	Output OutputModality `json:"output" yaml:"output"`
}

// FunctionMetrics is the legacy metrics view of a function.
type FunctionMetrics struct {
	IsTraining           bool           `json:"isTraining"           yaml:"isTraining"`
	SampleCount          int            `json:"sampleCount"          yaml:"sampleCount"`
	PredictionCount      int            `json:"predictionCount"      yaml:"predictionCount"`
	AnnotatedLabelCounts map[string]int `json:"annotatedLabelCounts" yaml:"annotatedLabelCounts"`
}

// Label is a named class a function can predict, or a tag it can attach.
type Label struct {
	ID          string            `json:"id,omitempty"          yaml:"id,omitempty"`
	Name        string            `json:"name"                  yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"    yaml:"metadata,omitempty"`
}

// Field describes one column of a tabular function.
type Field struct {
	ID   string    `json:"id,omitempty" yaml:"id,omitempty"`
	Name string    `json:"name"         yaml:"name"`
	Type FieldType `json:"type"         yaml:"type"`
}

// Annotation is the ground-truth label attached to a classification sample.
type Annotation struct {
	LabelName string `json:"labelName" yaml:"labelName"`
}

// TagAnnotation is the multi-label variant of Annotation. A sample may carry
// zero or more.
type TagAnnotation struct {
	LabelName string `json:"labelName" yaml:"labelName"`
	Present   bool   `json:"present"   yaml:"present"`
}

// Prediction is returned by invoke.
type Prediction struct {
	LabelName  string  `json:"labelName"  yaml:"labelName"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// TabularValue is a single tabular cell: a string, a number, or an image
// reference (URL, local path, or data URI) for Image-typed fields.
type TabularValue = any

// SampleData is the payload of a sample. It is a sealed set: TextData,
// ImageData, and TabularData are the only implementations, one per input
// modality.
type SampleData interface {
	// Modality reports which input modality this payload belongs to.
	Modality() InputModality
}

// TextData is the raw text of a text sample.
type TextData string

func (TextData) Modality() InputModality { return InputText }

// ImageData references an image: a URL, a local file path, or a data URI.
type ImageData string

func (ImageData) Modality() InputModality { return InputImage }

// TabularData maps field names to cell values.
type TabularData map[string]TabularValue

func (TabularData) Modality() InputModality { return InputTabular }

// Sample is one training or inference data point.
type Sample struct {
	ID             string          `json:"id,omitempty"         yaml:"id,omitempty"`
	ExternalID     string          `json:"externalId,omitempty" yaml:"externalId,omitempty"`
	Data           SampleData      `json:"data"                 yaml:"data"`
	Annotation     *Annotation     `json:"annotation,omitempty" yaml:"annotation,omitempty"`
	TagAnnotations []TagAnnotation `json:"tagAnnotations,omitempty" yaml:"tagAnnotations,omitempty"`
	Prediction     *Prediction     `json:"prediction,omitempty" yaml:"prediction,omitempty"`
}

// NewTextSample builds an unannotated text sample.
func NewTextSample(text string) Sample {
	return Sample{Data: TextData(text)}
}

// NewAnnotatedTextSample builds a text sample with a ground-truth label.
func NewAnnotatedTextSample(text, labelName string) Sample {
	return Sample{Data: TextData(text), Annotation: &Annotation{LabelName: labelName}}
}

// NewImageSample builds an unannotated image sample. The image argument may
// be a URL, a local file path, or a data URI.
func NewImageSample(image string) Sample {
	return Sample{Data: ImageData(image)}
}

// NewAnnotatedImageSample builds an image sample with a ground-truth label.
func NewAnnotatedImageSample(image, labelName string) Sample {
	return Sample{Data: ImageData(image), Annotation: &Annotation{LabelName: labelName}}
}

// NewTabularSample builds an unannotated tabular sample.
func NewTabularSample(data TabularData) Sample {
	return Sample{Data: data}
}

// NewAnnotatedTabularSample builds a tabular sample with a ground-truth label.
func NewAnnotatedTabularSample(data TabularData, labelName string) Sample {
	return Sample{Data: data, Annotation: &Annotation{LabelName: labelName}}
}
