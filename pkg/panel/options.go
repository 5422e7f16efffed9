package panel

// Options are presentation parameters. None of them affect zoom or scroll
// invariants, only where things are drawn.
type Options struct {
	XTicks             int     `yaml:"x_ticks" json:"x_ticks"`
	YTicks             int     `yaml:"y_ticks" json:"y_ticks"`
	XPrecision         int     `yaml:"x_precision" json:"x_precision"`
	YPrecision         int     `yaml:"y_precision" json:"y_precision"`
	TickFontSize       float64 `yaml:"tick_font_size" json:"tick_font_size"`
	TickLetterWidth    float64 `yaml:"tick_letter_width_ratio" json:"tick_letter_width_ratio"`
	TickMargin         float64 `yaml:"tick_margin" json:"tick_margin"`
	TickLength         float64 `yaml:"tick_length" json:"tick_length"`
	LabelFontSize      float64 `yaml:"axes_label_font_size" json:"axes_label_font_size"`
	LabelMargin        float64 `yaml:"axes_label_margin" json:"axes_label_margin"`
	AnnotationFontSize float64 `yaml:"annotation_font_size" json:"annotation_font_size"`
	XPadding           float64 `yaml:"x_axis_padding" json:"x_axis_padding"`
	YPaddingFrac       float64 `yaml:"y_axis_padding_frac" json:"y_axis_padding_frac"`
	ZoomSensitivity    float64 `yaml:"zoom_sensitivity" json:"zoom_sensitivity"`
	ScrollSensitivity  float64 `yaml:"scroll_sensitivity" json:"scroll_sensitivity"`
	MZLabel            string  `yaml:"mz_label" json:"mz_label"`
	IntensityLabel     string  `yaml:"intensity_label" json:"intensity_label"`
	HideMZLabel        bool    `yaml:"hide_mz_label" json:"hide_mz_label"`
}

// DefaultOptions returns the stock presentation parameters.
func DefaultOptions() Options {
	return Options{
		XTicks:             5,
		YTicks:             5,
		XPrecision:         5,
		YPrecision:         2,
		TickFontSize:       16,
		TickLetterWidth:    0.6,
		TickMargin:         5,
		TickLength:         8,
		LabelFontSize:      20,
		LabelMargin:        10,
		AnnotationFontSize: 12,
		XPadding:           12,
		YPaddingFrac:       0.1,
		ZoomSensitivity:    0.001,
		ScrollSensitivity:  0.1,
		MZLabel:            "m/z",
		IntensityLabel:     "Intensity",
	}
}
