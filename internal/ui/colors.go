package ui

// ColorReset returns the reset escape code of the active theme.
func ColorReset() string { return GetCurrentTheme().Reset }

// ColorPrimary returns the primary accent color.
func ColorPrimary() string { return GetCurrentTheme().Primary }

// ColorSecondary returns the secondary color.
func ColorSecondary() string { return GetCurrentTheme().Secondary }

// ColorSuccess returns the success color.
func ColorSuccess() string { return GetCurrentTheme().Success }

// ColorWarning returns the warning color.
func ColorWarning() string { return GetCurrentTheme().Warning }

// ColorError returns the error color.
func ColorError() string { return GetCurrentTheme().Error }

// ColorInfo returns the info color.
func ColorInfo() string { return GetCurrentTheme().Info }

// ColorBold returns the bold escape code.
func ColorBold() string { return GetCurrentTheme().Bold }

// ColorUnderline returns the underline escape code.
func ColorUnderline() string { return GetCurrentTheme().Underline }
