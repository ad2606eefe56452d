package summarizer

import (
	"fmt"
	"strings"
)

// MarkdownFormatter renders a Summary as a Markdown document.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate headings and labels.
func WithTranslator(translate func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = translate
	}
}

// WithVersion sets the version shown in the footer.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = version
	}
}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements the Formatter interface.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", t("Scan Summary"))
	fmt.Fprintf(&sb, "%s: %s\n\n", t("Generated"), s.GeneratedAt.Format("2006-01-02 15:04:05"))

	// Results
	fmt.Fprintf(&sb, "## %s\n\n", t("Results"))
	f.tableHeader(&sb)
	f.row(&sb, "Scan Duration", formatDuration(s.Results.DurationMs))
	if s.Results.StopReason != "" {
		f.row(&sb, "Stopped By", t(s.Results.StopReason))
	}
	f.row(&sb, "Frames Received", fmt.Sprint(s.Results.Submitted))
	f.row(&sb, "Frames Admitted", fmt.Sprint(s.Results.Admitted))
	f.row(&sb, "Frames Throttled", fmt.Sprint(s.Results.Throttled))
	f.row(&sb, "Frames Replaced", fmt.Sprint(s.Results.Replaced))
	f.row(&sb, "Detections", fmt.Sprint(s.Results.Detections))
	if s.Results.Failures > 0 {
		f.row(&sb, "Detection Failures", fmt.Sprint(s.Results.Failures))
	}
	if s.Results.Dropped > 0 {
		f.row(&sb, "Frames Dropped", fmt.Sprint(s.Results.Dropped))
	}
	f.row(&sb, "Payloads Decoded", fmt.Sprint(s.Results.Decoded))
	sb.WriteString("\n")

	// Payloads
	fmt.Fprintf(&sb, "## %s\n\n", t("Decoded Payloads"))
	if len(s.Payloads) == 0 {
		fmt.Fprintf(&sb, "%s\n\n", t("No payloads decoded."))
	} else {
		fmt.Fprintf(&sb, "| # | %s | %s | %s |\n", t("Payload"), t("Count"), t("First Seen"))
		sb.WriteString("|---|------|------|------|\n")
		for i, p := range s.Payloads {
			fmt.Fprintf(&sb, "| %d | `%s` | %d | %s |\n", i+1, escapeCell(p.Text), p.Count, formatDuration(p.FirstSeenMs))
		}
		sb.WriteString("\n")
	}

	// Settings
	fmt.Fprintf(&sb, "## %s\n\n", t("Settings"))
	f.tableHeader(&sb)
	if s.Settings.Preset != "" {
		f.row(&sb, "Preset", s.Settings.Preset)
	}
	if s.Settings.MinIntervalMs > 0 {
		f.row(&sb, "Min Interval", fmt.Sprintf("%d ms", s.Settings.MinIntervalMs))
	} else {
		f.row(&sb, "Min Interval", t("None"))
	}
	f.row(&sb, "Target Size", fmt.Sprintf("%dx%d", s.Settings.TargetWidth, s.Settings.TargetHeight))
	if len(s.Settings.Formats) > 0 {
		f.row(&sb, "Formats", strings.Join(s.Settings.Formats, ", "))
	}
	f.row(&sb, "Try Harder", f.yesNo(s.Settings.TryHarder))
	if s.Settings.Source != "" {
		f.row(&sb, "Source", s.Settings.Source)
	}
	sb.WriteString("\n")

	// Camera
	fmt.Fprintf(&sb, "## %s\n\n", t("Camera"))
	f.tableHeader(&sb)
	if s.Session.ID != "" {
		f.row(&sb, "Session ID", s.Session.ID)
	}
	f.row(&sb, "Camera", fmt.Sprint(s.Session.CameraID))
	f.row(&sb, "Preview Size", fmt.Sprintf("%dx%d", s.Session.PreviewWidth, s.Session.PreviewHeight))
	f.row(&sb, "Display Size", fmt.Sprintf("%dx%d", s.Session.DisplayWidth, s.Session.DisplayHeight))
	f.row(&sb, "Orientation", fmt.Sprintf("%d°", s.Session.Orientation))
	if s.Session.FocusMode != "" {
		f.row(&sb, "Focus Mode", s.Session.FocusMode)
	} else {
		f.row(&sb, "Focus Mode", t("Off"))
	}
	sb.WriteString("\n")

	// Footer
	sb.WriteString("---\n\n")
	if f.version != "" {
		fmt.Fprintf(&sb, "%s qrscan %s\n", t("Generated by"), f.version)
	} else {
		fmt.Fprintf(&sb, "%s qrscan\n", t("Generated by"))
	}

	return sb.String()
}

func (f *MarkdownFormatter) tableHeader(sb *strings.Builder) {
	fmt.Fprintf(sb, "| %s | %s |\n", f.translate("Item"), f.translate("Value"))
	sb.WriteString("|------|------|\n")
}

func (f *MarkdownFormatter) row(sb *strings.Builder, label, value string) {
	fmt.Fprintf(sb, "| %s | %s |\n", f.translate(label), value)
}

func (f *MarkdownFormatter) yesNo(v bool) string {
	if v {
		return f.translate("Yes")
	}
	return f.translate("No")
}

// formatDuration renders milliseconds, switching to seconds from one
// second up.
func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%d ms", ms)
	}
	return fmt.Sprintf("%.2f s", float64(ms)/1000)
}

// escapeCell keeps a payload on one table row.
func escapeCell(s string) string {
	r := strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ", "\r", " ", "`", "'")
	return r.Replace(s)
}

// Ensure MarkdownFormatter implements Formatter
var _ Formatter = (*MarkdownFormatter)(nil)
