package template

import (
	"strings"
	"time"

	"github.com/erp/books/internal/domain/document"
	"github.com/erp/books/internal/domain/shared"
)

// PaperSize is the page size a template is laid out for
type PaperSize string

const (
	PaperLetter PaperSize = "letter"
	PaperLegal  PaperSize = "legal"
	PaperA4     PaperSize = "a4"
)

// IsValid checks if the paper size is supported
func (p PaperSize) IsValid() bool {
	switch p {
	case PaperLetter, PaperLegal, PaperA4:
		return true
	}
	return false
}

// Dimensions returns width and height in inches
func (p PaperSize) Dimensions() (float64, float64) {
	switch p {
	case PaperLegal:
		return 8.5, 14
	case PaperA4:
		return 8.27, 11.69
	default:
		return 8.5, 11
	}
}

// Orientation represents page orientation
type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// IsValid checks if the orientation is valid
func (o Orientation) IsValid() bool {
	return o == OrientationPortrait || o == OrientationLandscape
}

// Margins represents the page margins in millimeters
type Margins struct {
	Top    int `json:"top" yaml:"top" validate:"gte=0,lte=100"`
	Right  int `json:"right" yaml:"right" validate:"gte=0,lte=100"`
	Bottom int `json:"bottom" yaml:"bottom" validate:"gte=0,lte=100"`
	Left   int `json:"left" yaml:"left" validate:"gte=0,lte=100"`
}

// DefaultMargins returns the margins new templates start with
func DefaultMargins() Margins {
	return Margins{Top: 10, Right: 10, Bottom: 10, Left: 10}
}

// Colors is the template color scheme
type Colors struct {
	Primary string `json:"primary" yaml:"primary" validate:"omitempty,hexcolor"`
	Accent  string `json:"accent" yaml:"accent" validate:"omitempty,hexcolor"`
	Text    string `json:"text" yaml:"text" validate:"omitempty,hexcolor"`
}

// Sections toggles optional blocks of the document
type Sections struct {
	ShowLogo         bool `json:"show_logo" yaml:"show_logo"`
	ShowCompanyInfo  bool `json:"show_company_info" yaml:"show_company_info"`
	ShowShipTo       bool `json:"show_ship_to" yaml:"show_ship_to"`
	ShowPaymentTerms bool `json:"show_payment_terms" yaml:"show_payment_terms"`
	ShowNotes        bool `json:"show_notes" yaml:"show_notes"`
	ShowSignature    bool `json:"show_signature" yaml:"show_signature"`
}

// Settings is the full design of a template. It is what export writes and
// import restores.
type Settings struct {
	PaperSize    PaperSize   `json:"paper_size" yaml:"paper_size" validate:"required,oneof=letter legal a4"`
	Orientation  Orientation `json:"orientation" yaml:"orientation" validate:"required,oneof=portrait landscape"`
	Margins      Margins     `json:"margins" yaml:"margins"`
	FontFamily   string      `json:"font_family" yaml:"font_family"`
	FontSize     int         `json:"font_size" yaml:"font_size" validate:"gte=6,lte=32"`
	Colors       Colors      `json:"colors" yaml:"colors"`
	LogoURL      string      `json:"logo_url,omitempty" yaml:"logo_url,omitempty" validate:"omitempty,url"`
	LogoPosition string      `json:"logo_position,omitempty" yaml:"logo_position,omitempty" validate:"omitempty,oneof=left center right"`
	Sections     Sections    `json:"sections" yaml:"sections"`
	HeaderText   string      `json:"header_text,omitempty" yaml:"header_text,omitempty"`
	FooterText   string      `json:"footer_text,omitempty" yaml:"footer_text,omitempty"`
	Subject      string      `json:"subject,omitempty" yaml:"subject,omitempty"`
	Body         string      `json:"body,omitempty" yaml:"body,omitempty"`
}

// DefaultSettings returns the design new templates start with
func DefaultSettings() Settings {
	return Settings{
		PaperSize:    PaperLetter,
		Orientation:  OrientationPortrait,
		Margins:      DefaultMargins(),
		FontFamily:   "Helvetica",
		FontSize:     11,
		Colors:       Colors{Primary: "#1f4e79", Accent: "#2e75b6", Text: "#222222"},
		LogoPosition: "left",
		Sections: Sections{
			ShowLogo:         true,
			ShowCompanyInfo:  true,
			ShowPaymentTerms: true,
			ShowNotes:        true,
		},
	}
}

// Template is a document template as returned by the backend
type Template struct {
	ID        string        `json:"id" validate:"required"`
	Name      string        `json:"name" validate:"required"`
	Type      document.Type `json:"template_type" validate:"required"`
	IsDefault bool          `json:"is_default"`
	Settings  Settings      `json:"settings"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Input is the payload for creating or updating a template
type Input struct {
	Name      string        `json:"name" validate:"required,max=100"`
	Type      document.Type `json:"template_type" validate:"required"`
	IsDefault bool          `json:"is_default"`
	Settings  Settings      `json:"settings"`
}

// Validate checks the input beyond its struct tags
func (in Input) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return shared.NewValidationError("name", "is required")
	}
	if !in.Type.IsValid() {
		return shared.NewValidationError("template_type", "is not a known document type")
	}
	if !in.Settings.PaperSize.IsValid() {
		return shared.NewValidationError("settings.paper_size", "is not supported")
	}
	if !in.Settings.Orientation.IsValid() {
		return shared.NewValidationError("settings.orientation", "is not supported")
	}
	return nil
}

// InputFrom builds an edit payload from an existing template
func InputFrom(t Template) Input {
	return Input{Name: t.Name, Type: t.Type, IsDefault: t.IsDefault, Settings: t.Settings}
}
