package html2pdf

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Page size names recognized by Options.PageSize (case-insensitive).
const (
	PageSizeA4      = "a4"
	PageSizeLetter  = "letter"
	PageSizeLegal   = "legal"
	PageSizeTabloid = "tabloid"
	PageSizeA3      = "a3"
	PageSizeA5      = "a5"
)

// Orientation names recognized by Options.PageOrientation (case-insensitive).
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Length conversion factors to inches.
const (
	mmPerInch = 25.4
	cmPerInch = 2.54
)

// emptyTemplate blanks a header or footer the caller did not supply.
const emptyTemplate = "<span></span>"

// paperSize holds paper dimensions in inches.
type paperSize struct {
	width  float64
	height float64
}

// paperSizes maps lowercase page size names to dimensions in inches.
var paperSizes = map[string]paperSize{
	PageSizeA4:      {8.27, 11.69},
	PageSizeLetter:  {8.5, 11},
	PageSizeLegal:   {8.5, 14},
	PageSizeTabloid: {11, 17},
	PageSizeA3:      {11.7, 16.5},
	PageSizeA5:      {5.8, 8.3},
}

// Options configures how a single HTML document is printed.
// The zero value prints an A4 portrait page with backgrounds and
// engine-default margins.
type Options struct {
	PageSize        string   `yaml:"pageSize" json:"page_size,omitempty"`               // "A4" (default), "Letter", "Legal", "Tabloid", "A3", "A5"
	PageOrientation string   `yaml:"pageOrientation" json:"page_orientation,omitempty"` // "Landscape" or portrait (default)
	MarginTop       string   `yaml:"marginTop" json:"margin_top,omitempty"`             // e.g. "1in", "10mm", "2.5cm", "12" (mm)
	MarginRight     string   `yaml:"marginRight" json:"margin_right,omitempty"`
	MarginBottom    string   `yaml:"marginBottom" json:"margin_bottom,omitempty"`
	MarginLeft      string   `yaml:"marginLeft" json:"margin_left,omitempty"`
	HeaderHTML      string   `yaml:"headerHTML" json:"header_html,omitempty"`
	FooterHTML      string   `yaml:"footerHTML" json:"footer_html,omitempty"`
	Scale           *float64 `yaml:"scale" json:"scale,omitempty"`
	PrintBackground *bool    `yaml:"printBackground" json:"print_background,omitempty"` // nil means true
}

// PrintParams holds engine-native print parameters, in inches.
// Nil margins and scale leave the engine defaults in place.
type PrintParams struct {
	Landscape           bool
	DisplayHeaderFooter bool
	PrintBackground     bool
	Scale               *float64
	PaperWidth          float64
	PaperHeight         float64
	MarginTop           *float64
	MarginRight         *float64
	MarginBottom        *float64
	MarginLeft          *float64
	HeaderTemplate      string
	FooterTemplate      string
}

// Translate maps user-facing options to engine print parameters.
// A nil receiver translates the defaults.
func (o *Options) Translate() (*PrintParams, error) {
	if o == nil {
		o = &Options{}
	}

	width, height := LookupPageSize(o.PageSize)
	params := &PrintParams{
		Landscape:           strings.EqualFold(strings.TrimSpace(o.PageOrientation), OrientationLandscape),
		DisplayHeaderFooter: o.HeaderHTML != "" || o.FooterHTML != "",
		PrintBackground:     o.PrintBackground == nil || *o.PrintBackground,
		PaperWidth:          width,
		PaperHeight:         height,
		HeaderTemplate:      o.HeaderHTML,
		FooterTemplate:      o.FooterHTML,
	}

	// Chrome prints its own date/title template on a side left empty.
	if params.DisplayHeaderFooter {
		if params.HeaderTemplate == "" {
			params.HeaderTemplate = emptyTemplate
		}
		if params.FooterTemplate == "" {
			params.FooterTemplate = emptyTemplate
		}
	}

	if o.Scale != nil {
		if !(*o.Scale > 0) || math.IsInf(*o.Scale, 1) {
			return nil, fmt.Errorf("%w: scale must be a positive number, got %v", ErrInvalidOption, *o.Scale)
		}
		params.Scale = floatPtr(*o.Scale)
	}

	margins := []struct {
		name  string
		value string
		dst   **float64
	}{
		{"margin_top", o.MarginTop, &params.MarginTop},
		{"margin_right", o.MarginRight, &params.MarginRight},
		{"margin_bottom", o.MarginBottom, &params.MarginBottom},
		{"margin_left", o.MarginLeft, &params.MarginLeft},
	}
	for _, m := range margins {
		if strings.TrimSpace(m.value) == "" {
			continue
		}
		v, err := ParseLength(m.value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidOption, m.name, err)
		}
		*m.dst = floatPtr(v)
	}

	return params, nil
}

// Validate reports whether the options can be translated.
// Returns nil if o is nil (nil means use defaults).
func (o *Options) Validate() error {
	_, err := o.Translate()
	return err
}

// LookupPageSize returns paper dimensions in inches for a page size name.
// Lookup is case-insensitive; unknown or empty names yield A4.
func LookupPageSize(name string) (width, height float64) {
	size, ok := paperSizes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		size = paperSizes[PageSizeA4]
	}
	return size.width, size.height
}

// ParseLength converts a length with an optional unit suffix to inches.
// Supported suffixes are "in", "mm" and "cm"; a bare number is millimeters.
func ParseLength(s string) (float64, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return 0, fmt.Errorf("empty length")
	}

	divisor := mmPerInch
	switch {
	case strings.HasSuffix(v, "in"):
		v, divisor = strings.TrimSuffix(v, "in"), 1
	case strings.HasSuffix(v, "mm"):
		v = strings.TrimSuffix(v, "mm")
	case strings.HasSuffix(v, "cm"):
		v, divisor = strings.TrimSuffix(v, "cm"), cmPerInch
	}

	n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid length %q", s)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("invalid length %q", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative length %q", s)
	}
	return n / divisor, nil
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
